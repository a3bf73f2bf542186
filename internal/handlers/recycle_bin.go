package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/taskcloud/internal/database"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RecycleBinHandler handles the server-side recycle bin
type RecycleBinHandler struct {
	bin    database.RecycleBinRepositoryInterface
	logger *zap.Logger
}

// NewRecycleBinHandler creates a new recycle bin handler
func NewRecycleBinHandler(bin database.RecycleBinRepositoryInterface, logger *zap.Logger) *RecycleBinHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecycleBinHandler{bin: bin, logger: logger}
}

// RegisterRoutes registers recycle bin routes
// The router should already have the /api/recycle-bin prefix
func (h *RecycleBinHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.List).Methods(http.MethodGet)
	r.HandleFunc("/clear", h.Clear).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/restore", h.Restore).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
}

// List returns the caller's recycle bin, most recently deleted first
func (h *RecycleBinHandler) List(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}

	entries, err := h.bin.List(r.Context(), p.Scope)
	if err != nil {
		h.logger.Error("list_recycle_bin_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to retrieve recycle bin")
		return
	}
	respondJSON(w, http.StatusOK, "ok", entries)
}

// Restore re-inserts an entry's task under a new id and removes the entry
func (h *RecycleBinHandler) Restore(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := entryIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.bin.Restore(r.Context(), p.Scope, id)
	if err != nil {
		h.respondRepoError(w, err, "restore_recycled_failed", "Failed to restore task")
		return
	}
	respondJSON(w, http.StatusOK, "task restored", task)
}

// Delete permanently removes one entry
func (h *RecycleBinHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := entryIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.bin.Delete(r.Context(), p.Scope, id); err != nil {
		h.respondRepoError(w, err, "purge_recycled_failed", "Failed to delete recycle bin entry")
		return
	}
	respondJSON(w, http.StatusOK, "entry deleted", nil)
}

// Clear empties the caller's recycle bin
func (h *RecycleBinHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}

	n, err := h.bin.Clear(r.Context(), p.Scope)
	if err != nil {
		h.logger.Error("clear_recycle_bin_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to clear recycle bin")
		return
	}
	respondJSON(w, http.StatusOK, "recycle bin cleared", map[string]int{"deleted": n})
}

func (h *RecycleBinHandler) respondRepoError(w http.ResponseWriter, err error, event, message string) {
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Recycle bin entry not found")
		return
	}
	h.logger.Error(event, zap.Error(err))
	respondJSONError(w, http.StatusInternalServerError, message)
}

func entryIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid recycle bin entry ID")
		return uuid.Nil, false
	}
	return id, true
}
