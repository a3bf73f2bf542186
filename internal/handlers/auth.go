package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/taskcloud/internal/database"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/services/auth"
	"github.com/benvon/taskcloud/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const invalidCredentialsMessage = "invalid email or password"

// TokenIssuer issues access tokens for users
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

var _ TokenIssuer = (*auth.TokenService)(nil)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Nickname        string `json:"nickname" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler handles account registration and login
type AuthHandler struct {
	users  database.UserRepositoryInterface
	tokens TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users database.UserRepositoryInterface, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/auth prefix; requireAuth guards /me
func (h *AuthHandler) RegisterRoutes(r *mux.Router, requireAuth func(http.Handler) http.Handler) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.Handle("/me", requireAuth(http.HandlerFunc(h.GetMe))).Methods(http.MethodGet)
}

// Register creates an account and returns its first token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	nickname := validation.SanitizeText(req.Nickname)
	if nickname == "" {
		respondJSONError(w, http.StatusBadRequest, "nickname is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password_hash_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Email:        strings.TrimSpace(req.Email),
		Nickname:     nickname,
		PasswordHash: hash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondJSONError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("create_user_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.respondWithToken(w, http.StatusCreated, "registered", user)
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusUnauthorized, invalidCredentialsMessage)
			return
		}
		h.logger.Error("get_user_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondJSONError(w, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	}

	h.respondWithToken(w, http.StatusOK, "logged in", user)
}

// GetMe returns the account behind the current token
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	if p.Shared() {
		respondJSONError(w, http.StatusUnauthorized, "Shared sessions have no account")
		return
	}

	user, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("get_user_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	respondJSON(w, http.StatusOK, "ok", user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, msg string, user *models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	respondJSON(w, status, msg, models.AuthResult{Token: token, User: user})
}
