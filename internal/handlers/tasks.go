package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/taskcloud/internal/database"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/queue"
	"github.com/benvon/taskcloud/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 100
)

// completionFlag accepts is_completed as a JSON bool or as 0/1
type completionFlag bool

func (f *completionFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("is_completed must be a boolean or 0/1, got %s", data)
	}
	return nil
}

// TaskRequest is the body of task create and update
type TaskRequest struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Content     string          `json:"content" validate:"max=10000"`
	StartTime   string          `json:"start_time" validate:"omitempty,wiretime"`
	EndTime     string          `json:"end_time" validate:"omitempty,wiretime"`
	Priority    models.Priority `json:"priority" validate:"omitempty,priority"`
	Tags        string          `json:"tags" validate:"max=1000"`
	IsCompleted *completionFlag `json:"is_completed"`
	FocusTime   *int            `json:"focus_time"`
	CreateTime  string          `json:"create_time" validate:"omitempty,wiretime"`
}

// CompletionRequest is the body of the complete and toggle endpoints
type CompletionRequest struct {
	IsCompleted *completionFlag `json:"is_completed"`
}

// FocusTimeRequest is the body of the focus-time endpoint
type FocusTimeRequest struct {
	FocusTime int `json:"focus_time"`
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	tasks      database.TaskRepositoryInterface
	jobQueue   queue.JobQueue
	purgeDelay time.Duration
	logger     *zap.Logger
}

// TaskHandlerOption configures a TaskHandler
type TaskHandlerOption func(*TaskHandler)

// WithJobQueue enqueues a recycle bin purge job for the caller's scope after
// each delete, postponed by delay
func WithJobQueue(q queue.JobQueue, delay time.Duration) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.jobQueue = q
		h.purgeDelay = delay
	}
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks database.TaskRepositoryInterface, logger *zap.Logger, opts ...TaskHandlerOption) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &TaskHandler{tasks: tasks, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /api/tasks prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/completed/clear", h.ClearCompleted).Methods(http.MethodDelete)
	r.HandleFunc("/clear-completed", h.ClearCompleted).Methods(http.MethodDelete)
	r.HandleFunc("/{id:[0-9]+}", h.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/{id:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/{id:[0-9]+}/complete", h.CompleteTask).Methods(http.MethodPut)
	r.HandleFunc("/{id:[0-9]+}/toggle", h.ToggleTask).Methods(http.MethodPatch)
	r.HandleFunc("/{id:[0-9]+}/focus-time", h.SetFocusTime).Methods(http.MethodPut)
}

// ListTasks lists the caller's tasks, newest first
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}

	tasks, err := h.tasks.List(r.Context(), p.Scope)
	if err != nil {
		h.logger.Error("list_tasks_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	respondJSON(w, http.StatusOK, "ok", tasks)
}

// CreateTask creates a new task; the server assigns its id
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	task, ok := req.toTask(w)
	if !ok {
		return
	}
	task.Scope = p.Scope
	if req.IsCompleted != nil {
		task.SetCompleted(bool(*req.IsCompleted))
	}
	if req.FocusTime != nil && *req.FocusTime > 0 {
		task.FocusTime = *req.FocusTime
	}
	task.CreateTime = req.CreateTime

	if err := h.tasks.Create(r.Context(), task); err != nil {
		h.logger.Error("create_task_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}
	respondJSON(w, http.StatusCreated, "task created", task)
}

// UpdateTask replaces the editable fields of a task. is_completed is kept when
// absent and focus_time only changes when a positive value is sent.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	task, ok := req.toTask(w)
	if !ok {
		return
	}

	ctx := r.Context()
	existing, err := h.tasks.GetByID(ctx, p.Scope, id)
	if err != nil {
		h.respondRepoError(w, err, "get_task_failed", "Failed to update task")
		return
	}

	task.ID = id
	task.Scope = p.Scope
	task.IsCompleted = existing.IsCompleted
	if req.IsCompleted != nil {
		task.SetCompleted(bool(*req.IsCompleted))
	}
	task.FocusTime = existing.FocusTime
	if req.FocusTime != nil && *req.FocusTime > 0 {
		task.FocusTime = *req.FocusTime
	}

	if err := h.tasks.Update(ctx, task); err != nil {
		h.respondRepoError(w, err, "update_task_failed", "Failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, "task updated", task)
}

// CompleteTask sets is_completed from the request body
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.setCompletion(w, r, false)
}

// ToggleTask sets is_completed from the request body, or flips it when the body omits it
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	h.setCompletion(w, r, true)
}

func (h *TaskHandler) setCompletion(w http.ResponseWriter, r *http.Request, flipWhenAbsent bool) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req CompletionRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	ctx := r.Context()
	existing, err := h.tasks.GetByID(ctx, p.Scope, id)
	if err != nil {
		h.respondRepoError(w, err, "get_task_failed", "Failed to update task status")
		return
	}

	var done bool
	switch {
	case req.IsCompleted != nil:
		done = bool(*req.IsCompleted)
	case flipWhenAbsent:
		done = !existing.Completed()
	default:
		respondJSONError(w, http.StatusBadRequest, "is_completed is required")
		return
	}

	if err := h.tasks.SetCompleted(ctx, p.Scope, id, done); err != nil {
		h.respondRepoError(w, err, "set_completed_failed", "Failed to update task status")
		return
	}
	existing.SetCompleted(done)
	respondJSON(w, http.StatusOK, "status updated", existing)
}

// SetFocusTime records accumulated focus seconds
func (h *TaskHandler) SetFocusTime(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req FocusTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FocusTime <= 0 {
		respondJSONError(w, http.StatusBadRequest, "focus_time must be a positive integer")
		return
	}

	task, err := h.tasks.SetFocusTime(r.Context(), p.Scope, id, req.FocusTime)
	if err != nil {
		h.respondRepoError(w, err, "set_focus_time_failed", "Failed to update focus time")
		return
	}
	respondJSON(w, http.StatusOK, "focus time updated", task)
}

// DeleteTask moves a task into the recycle bin
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	if _, err := h.tasks.MoveToRecycleBin(r.Context(), p.Scope, id); err != nil {
		h.respondRepoError(w, err, "delete_task_failed", "Failed to delete task")
		return
	}
	h.schedulePurge(r.Context(), p.Scope)
	respondJSON(w, http.StatusOK, "task deleted", nil)
}

// ClearCompleted moves every completed task into the recycle bin
func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	p := requirePrincipal(w, r)
	if p == nil {
		return
	}

	n, err := h.tasks.ClearCompleted(r.Context(), p.Scope)
	if err != nil {
		h.logger.Error("clear_completed_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Failed to clear completed tasks")
		return
	}
	if n > 0 {
		h.schedulePurge(r.Context(), p.Scope)
	}
	respondJSON(w, http.StatusOK, "completed tasks cleared", map[string]int{"deleted": n})
}

// schedulePurge enqueues a delayed purge for scope. Failures only cost an
// earlier cleanup, so they are logged and not surfaced.
func (h *TaskHandler) schedulePurge(ctx context.Context, scope string) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewRecycleBinPurgeJob(scope, h.purgeDelay)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("purge_job_enqueue_failed",
			zap.String("scope", scope),
			zap.Error(err),
		)
	}
}

func (h *TaskHandler) respondRepoError(w http.ResponseWriter, err error, event, message string) {
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Task not found")
		return
	}
	h.logger.Error(event, zap.Error(err))
	respondJSONError(w, http.StatusInternalServerError, message)
}

// toTask converts the request into a task with sanitized text and normalized
// tags. Timestamps are rewritten in the wire layout.
func (req *TaskRequest) toTask(w http.ResponseWriter) (*models.Task, bool) {
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}

	start, err := canonicalWireTime(req.StartTime)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	end, err := canonicalWireTime(req.EndTime)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	return &models.Task{
		Title:     title,
		Content:   validation.SanitizeText(req.Content),
		StartTime: start,
		EndTime:   end,
		Priority:  priority,
		Tags:      models.NormalizeTags(req.Tags),
	}, true
}

func canonicalWireTime(s string) (string, error) {
	t, err := models.ParseWireTime(s)
	if err != nil || t == nil {
		return "", err
	}
	return models.FormatWireTime(*t), nil
}
