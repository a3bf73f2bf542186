package middleware

import (
	"net/http"
	"strings"

	"github.com/benvon/taskcloud/internal/logger"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/request"
	"github.com/benvon/taskcloud/internal/services/auth"
	"go.uber.org/zap"
)

// SharedUserHeader selects a shared scope when the server runs in shared mode
const SharedUserHeader = "X-User-ID"

// maxSharedUserLength bounds X-User-ID values
const maxSharedUserLength = 128

// TokenVerifier verifies access tokens
type TokenVerifier interface {
	Verify(token string) (*models.JWTClaims, error)
}

var _ TokenVerifier = (*auth.TokenService)(nil)

// Auth creates authentication middleware. A bearer token always wins; when
// sharedMode is on, requests without one may name a shared scope with
// X-User-ID instead.
func Auth(tokens TokenVerifier, sharedMode bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if authHeader == "" {
				if sharedMode {
					if shared := strings.TrimSpace(r.Header.Get(SharedUserHeader)); shared != "" {
						if len(shared) > maxSharedUserLength {
							respondError(w, http.StatusBadRequest, "X-User-ID is too long")
							return
						}
						p := &request.Principal{Scope: request.SharedScope(shared)}
						next.ServeHTTP(w, r.WithContext(request.WithPrincipal(r.Context(), p)))
						return
					}
				}
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				log.Info("token_verification_failed",
					zap.String("path", logger.SanitizePath(r.URL.Path)),
					zap.String("error", logger.SanitizeError(err)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			userID, err := auth.UserID(claims)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			p := &request.Principal{
				UserID: userID,
				Email:  claims.Email,
				Scope:  request.UserScope(userID),
			}
			next.ServeHTTP(w, r.WithContext(request.WithPrincipal(r.Context(), p)))
		})
	}
}
