package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/taskcloud/internal/database"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/queue"
	"github.com/benvon/taskcloud/internal/request"
	"github.com/gorilla/mux"
)

func taskRoutes(h *TaskHandler) func(r *mux.Router) {
	return h.RegisterRoutes
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		principal  *request.Principal
		repo       *mockTaskRepo
		wantStatus int
		wantCount  int
	}{
		{
			name:      "returns tasks for caller scope",
			principal: testPrincipal,
			repo: &mockTaskRepo{
				listFunc: func(_ context.Context, scope string) ([]*models.Task, error) {
					if scope != "user:7" {
						return nil, errors.New("wrong scope " + scope)
					}
					return []*models.Task{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}, nil
				},
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "unauthenticated",
			principal:  nil,
			repo:       &mockTaskRepo{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:      "repository failure",
			principal: testPrincipal,
			repo: &mockTaskRepo{
				listFunc: func(context.Context, string) ([]*models.Task, error) {
					return nil, errors.New("db down")
				},
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewTaskHandler(tt.repo, nil)
			rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodGet, "/api/tasks", "", tt.principal)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if env.Code != tt.wantStatus {
					t.Errorf("envelope code = %d, want %d", env.Code, tt.wantStatus)
				}
				return
			}
			var tasks []models.Task
			decodeData(t, env, &tasks)
			if len(tasks) != tt.wantCount {
				t.Errorf("got %d tasks, want %d", len(tasks), tt.wantCount)
			}
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
		check      func(*testing.T, *models.Task)
	}{
		{
			name:       "defaults priority and trims tags keeping repeats",
			body:       `{"title":"  Pay rent ","tags":"home, bills,,home","start_time":"2024-05-01T09:00"}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, task *models.Task) {
				if task.Title != "Pay rent" {
					t.Errorf("title = %q", task.Title)
				}
				if task.Priority != models.PriorityMedium {
					t.Errorf("priority = %q", task.Priority)
				}
				if task.Tags != "home,bills,home" {
					t.Errorf("tags = %q", task.Tags)
				}
				if task.StartTime != "2024-05-01T09:00:00" {
					t.Errorf("start_time = %q", task.StartTime)
				}
				if task.Scope != "user:7" {
					t.Errorf("scope = %q", task.Scope)
				}
			},
		},
		{
			name:       "accepts boolean completion",
			body:       `{"title":"Done already","is_completed":true,"priority":"high"}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, task *models.Task) {
				if task.IsCompleted != 1 {
					t.Errorf("is_completed = %d", task.IsCompleted)
				}
				if task.Priority != models.PriorityHigh {
					t.Errorf("priority = %q", task.Priority)
				}
			},
		},
		{
			name:       "missing title",
			body:       `{"content":"no title"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "title is required",
		},
		{
			name:       "whitespace title",
			body:       `{"title":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "title is required",
		},
		{
			name:       "title too long",
			body:       `{"title":"` + strings.Repeat("x", 101) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "title must be at most 100 characters",
		},
		{
			name:       "bad priority",
			body:       `{"title":"x","priority":"urgent"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "priority must be one of high, medium, low",
		},
		{
			name:       "bad completion flag",
			body:       `{"title":"x","is_completed":"yes"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var created *models.Task
			repo := &mockTaskRepo{
				createFunc: func(_ context.Context, task *models.Task) error {
					task.ID = 42
					created = task
					return nil
				},
			}
			h := NewTaskHandler(repo, nil)
			rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodPost, "/api/tasks", tt.body, testPrincipal)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantMsg != "" && env.Msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", env.Msg, tt.wantMsg)
			}
			if tt.wantStatus == http.StatusCreated {
				if env.Code != http.StatusOK {
					t.Errorf("envelope code = %d, want 200", env.Code)
				}
				var task models.Task
				decodeData(t, env, &task)
				if task.ID != 42 {
					t.Errorf("id = %d", task.ID)
				}
				tt.check(t, created)
			} else if created != nil {
				t.Error("repository should not be called on invalid input")
			}
		})
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	existing := func() *models.Task {
		return &models.Task{ID: 5, Scope: "user:7", Title: "old", IsCompleted: 1, FocusTime: 300, Priority: models.PriorityLow}
	}

	tests := []struct {
		name          string
		path          string
		body          string
		wantStatus    int
		wantCompleted int
		wantFocus     int
	}{
		{
			name:          "completion kept when absent",
			path:          "/api/tasks/5",
			body:          `{"title":"new"}`,
			wantStatus:    http.StatusOK,
			wantCompleted: 1,
			wantFocus:     300,
		},
		{
			name:          "completion from numeric flag",
			path:          "/api/tasks/5",
			body:          `{"title":"new","is_completed":0}`,
			wantStatus:    http.StatusOK,
			wantCompleted: 0,
			wantFocus:     300,
		},
		{
			name:          "zero focus time ignored",
			path:          "/api/tasks/5",
			body:          `{"title":"new","focus_time":0}`,
			wantStatus:    http.StatusOK,
			wantCompleted: 1,
			wantFocus:     300,
		},
		{
			name:          "positive focus time applied",
			path:          "/api/tasks/5",
			body:          `{"title":"new","focus_time":900}`,
			wantStatus:    http.StatusOK,
			wantCompleted: 1,
			wantFocus:     900,
		},
		{
			name:       "unknown task",
			path:       "/api/tasks/6",
			body:       `{"title":"new"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid body",
			path:       "/api/tasks/5",
			body:       `{"title":""}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var updated *models.Task
			repo := &mockTaskRepo{
				getByIDFunc: func(_ context.Context, scope string, id int64) (*models.Task, error) {
					if id != 5 || scope != "user:7" {
						return nil, database.ErrNotFound
					}
					return existing(), nil
				},
				updateFunc: func(_ context.Context, task *models.Task) error {
					updated = task
					return nil
				},
			}
			h := NewTaskHandler(repo, nil)
			rec, _ := serve(t, "/api/tasks", taskRoutes(h), http.MethodPut, tt.path, tt.body, testPrincipal)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if updated.Title != "new" {
				t.Errorf("title = %q", updated.Title)
			}
			if updated.IsCompleted != tt.wantCompleted {
				t.Errorf("is_completed = %d, want %d", updated.IsCompleted, tt.wantCompleted)
			}
			if updated.FocusTime != tt.wantFocus {
				t.Errorf("focus_time = %d, want %d", updated.FocusTime, tt.wantFocus)
			}
			if updated.Priority != models.PriorityMedium {
				t.Errorf("priority should be replaced with the default, got %q", updated.Priority)
			}
		})
	}
}

func TestCompletionEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		current    int
		wantStatus int
		wantDone   bool
	}{
		{name: "complete true", method: http.MethodPut, path: "/api/tasks/5/complete", body: `{"is_completed":true}`, wantStatus: http.StatusOK, wantDone: true},
		{name: "complete numeric zero", method: http.MethodPut, path: "/api/tasks/5/complete", body: `{"is_completed":0}`, current: 1, wantStatus: http.StatusOK, wantDone: false},
		{name: "complete requires flag", method: http.MethodPut, path: "/api/tasks/5/complete", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "toggle explicit", method: http.MethodPatch, path: "/api/tasks/5/toggle", body: `{"is_completed":1}`, wantStatus: http.StatusOK, wantDone: true},
		{name: "toggle flips without body", method: http.MethodPatch, path: "/api/tasks/5/toggle", current: 1, wantStatus: http.StatusOK, wantDone: false},
		{name: "toggle unknown task", method: http.MethodPatch, path: "/api/tasks/9/toggle", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotDone *bool
			repo := &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, id int64) (*models.Task, error) {
					if id != 5 {
						return nil, database.ErrNotFound
					}
					return &models.Task{ID: 5, Title: "t", IsCompleted: tt.current}, nil
				},
				setCompletedFunc: func(_ context.Context, _ string, _ int64, done bool) error {
					gotDone = &done
					return nil
				},
			}
			h := NewTaskHandler(repo, nil)
			rec, env := serve(t, "/api/tasks", taskRoutes(h), tt.method, tt.path, tt.body, testPrincipal)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if gotDone != nil {
					t.Error("SetCompleted should not be called")
				}
				return
			}
			if gotDone == nil || *gotDone != tt.wantDone {
				t.Fatalf("SetCompleted(%v), want %v", gotDone, tt.wantDone)
			}
			var task models.Task
			decodeData(t, env, &task)
			if task.Completed() != tt.wantDone {
				t.Errorf("response is_completed = %d", task.IsCompleted)
			}
		})
	}
}

func TestSetFocusTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "positive", body: `{"focus_time":1500}`, wantStatus: http.StatusOK},
		{name: "zero", body: `{"focus_time":0}`, wantStatus: http.StatusBadRequest},
		{name: "negative", body: `{"focus_time":-1}`, wantStatus: http.StatusBadRequest},
		{name: "fractional", body: `{"focus_time":1.5}`, wantStatus: http.StatusBadRequest},
		{name: "missing", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewTaskHandler(&mockTaskRepo{}, nil)
			rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodPut, "/api/tasks/3/focus-time", tt.body, testPrincipal)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusBadRequest && env.Msg != "focus_time must be a positive integer" {
				t.Errorf("msg = %q", env.Msg)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	t.Run("moves to recycle bin and schedules purge", func(t *testing.T) {
		t.Parallel()
		jq := &mockJobQueue{}
		var movedID int64
		repo := &mockTaskRepo{
			moveToRecycleBinFunc: func(_ context.Context, scope string, id int64) (*models.RecycleBinEntry, error) {
				movedID = id
				return &models.RecycleBinEntry{Scope: scope}, nil
			},
		}
		h := NewTaskHandler(repo, nil, WithJobQueue(jq, time.Minute))
		rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodDelete, "/api/tasks/12", "", testPrincipal)
		if rec.Code != http.StatusOK || env.Code != http.StatusOK {
			t.Fatalf("status = %d code = %d", rec.Code, env.Code)
		}
		if movedID != 12 {
			t.Errorf("moved id = %d", movedID)
		}
		jobs := jq.jobs()
		if len(jobs) != 1 {
			t.Fatalf("enqueued %d jobs, want 1", len(jobs))
		}
		if jobs[0].Type != queue.JobTypeRecycleBinPurge || jobs[0].Scope != "user:7" {
			t.Errorf("job = %+v", jobs[0])
		}
		if jobs[0].NotBefore == nil {
			t.Error("purge job should be delayed")
		}
	})

	t.Run("enqueue failure does not fail the delete", func(t *testing.T) {
		t.Parallel()
		jq := &mockJobQueue{err: errors.New("broker down")}
		h := NewTaskHandler(&mockTaskRepo{}, nil, WithJobQueue(jq, time.Minute))
		rec, _ := serve(t, "/api/tasks", taskRoutes(h), http.MethodDelete, "/api/tasks/12", "", testPrincipal)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		jq := &mockJobQueue{}
		repo := &mockTaskRepo{
			moveToRecycleBinFunc: func(context.Context, string, int64) (*models.RecycleBinEntry, error) {
				return nil, database.ErrNotFound
			},
		}
		h := NewTaskHandler(repo, nil, WithJobQueue(jq, time.Minute))
		rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodDelete, "/api/tasks/12", "", testPrincipal)
		if rec.Code != http.StatusNotFound || env.Code != http.StatusNotFound {
			t.Fatalf("status = %d code = %d", rec.Code, env.Code)
		}
		if len(jq.jobs()) != 0 {
			t.Error("no purge job expected for a failed delete")
		}
	})

	t.Run("non numeric id is not routed", func(t *testing.T) {
		t.Parallel()
		h := NewTaskHandler(&mockTaskRepo{}, nil)
		root := mux.NewRouter()
		h.RegisterRoutes(root.PathPrefix("/api/tasks").Subrouter())
		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/abc", nil)
		rec := httptest.NewRecorder()
		root.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestClearCompleted(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/api/tasks/completed/clear", "/api/tasks/clear-completed"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			jq := &mockJobQueue{}
			repo := &mockTaskRepo{
				clearCompletedFunc: func(_ context.Context, scope string) (int, error) {
					return 3, nil
				},
			}
			h := NewTaskHandler(repo, nil, WithJobQueue(jq, 0))
			rec, env := serve(t, "/api/tasks", taskRoutes(h), http.MethodDelete, path, "", testPrincipal)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
			}
			var out map[string]int
			decodeData(t, env, &out)
			if out["deleted"] != 3 {
				t.Errorf("deleted = %d, want 3", out["deleted"])
			}
			if len(jq.jobs()) != 1 {
				t.Errorf("enqueued %d jobs, want 1", len(jq.jobs()))
			}
		})
	}
}

func TestCompletionFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"1", true, false},
		{"false", false, false},
		{"0", false, false},
		{"null", false, false},
		{"2", false, true},
		{`"1"`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			var f completionFlag
			err := f.UnmarshalJSON([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && bool(f) != tt.want {
				t.Errorf("got %v, want %v", f, tt.want)
			}
		})
	}
}
