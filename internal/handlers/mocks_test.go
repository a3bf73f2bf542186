package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/taskcloud/internal/database"
	"github.com/benvon/taskcloud/internal/middleware"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/queue"
	"github.com/benvon/taskcloud/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var testPrincipal = &request.Principal{UserID: 7, Email: "ann@example.com", Scope: request.UserScope(7)}

// mockTaskRepo is a mock implementation of TaskRepositoryInterface
type mockTaskRepo struct {
	listFunc             func(ctx context.Context, scope string) ([]*models.Task, error)
	getByIDFunc          func(ctx context.Context, scope string, id int64) (*models.Task, error)
	createFunc           func(ctx context.Context, t *models.Task) error
	updateFunc           func(ctx context.Context, t *models.Task) error
	setCompletedFunc     func(ctx context.Context, scope string, id int64, done bool) error
	setFocusTimeFunc     func(ctx context.Context, scope string, id int64, seconds int) (*models.Task, error)
	moveToRecycleBinFunc func(ctx context.Context, scope string, id int64) (*models.RecycleBinEntry, error)
	clearCompletedFunc   func(ctx context.Context, scope string) (int, error)
}

func (m *mockTaskRepo) List(ctx context.Context, scope string) ([]*models.Task, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope)
	}
	return []*models.Task{}, nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, scope string, id int64) (*models.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, scope, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockTaskRepo) Create(ctx context.Context, t *models.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, t)
	}
	t.ID = 1
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, t *models.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, t)
	}
	return nil
}

func (m *mockTaskRepo) SetCompleted(ctx context.Context, scope string, id int64, done bool) error {
	if m.setCompletedFunc != nil {
		return m.setCompletedFunc(ctx, scope, id, done)
	}
	return nil
}

func (m *mockTaskRepo) SetFocusTime(ctx context.Context, scope string, id int64, seconds int) (*models.Task, error) {
	if m.setFocusTimeFunc != nil {
		return m.setFocusTimeFunc(ctx, scope, id, seconds)
	}
	return &models.Task{ID: id, FocusTime: seconds}, nil
}

func (m *mockTaskRepo) MoveToRecycleBin(ctx context.Context, scope string, id int64) (*models.RecycleBinEntry, error) {
	if m.moveToRecycleBinFunc != nil {
		return m.moveToRecycleBinFunc(ctx, scope, id)
	}
	return &models.RecycleBinEntry{ID: uuid.New(), Scope: scope}, nil
}

func (m *mockTaskRepo) ClearCompleted(ctx context.Context, scope string) (int, error) {
	if m.clearCompletedFunc != nil {
		return m.clearCompletedFunc(ctx, scope)
	}
	return 0, nil
}

var _ database.TaskRepositoryInterface = (*mockTaskRepo)(nil)

// mockRecycleBinRepo is a mock implementation of RecycleBinRepositoryInterface
type mockRecycleBinRepo struct {
	listFunc    func(ctx context.Context, scope string) ([]*models.RecycleBinEntry, error)
	restoreFunc func(ctx context.Context, scope string, id uuid.UUID) (*models.Task, error)
	deleteFunc  func(ctx context.Context, scope string, id uuid.UUID) error
	clearFunc   func(ctx context.Context, scope string) (int, error)
}

func (m *mockRecycleBinRepo) List(ctx context.Context, scope string) ([]*models.RecycleBinEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope)
	}
	return []*models.RecycleBinEntry{}, nil
}

func (m *mockRecycleBinRepo) Restore(ctx context.Context, scope string, id uuid.UUID) (*models.Task, error) {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, scope, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockRecycleBinRepo) Delete(ctx context.Context, scope string, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, scope, id)
	}
	return nil
}

func (m *mockRecycleBinRepo) Clear(ctx context.Context, scope string) (int, error) {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, scope)
	}
	return 0, nil
}

func (m *mockRecycleBinRepo) PurgeOlderThan(context.Context, time.Duration) (int, error) {
	return 0, nil
}

func (m *mockRecycleBinRepo) PurgeScopeOlderThan(context.Context, string, time.Duration) (int, error) {
	return 0, nil
}

var _ database.RecycleBinRepositoryInterface = (*mockRecycleBinRepo)(nil)

// mockUserRepo is a mock implementation of UserRepositoryInterface
type mockUserRepo struct {
	createFunc     func(ctx context.Context, user *models.User) error
	getByIDFunc    func(ctx context.Context, id int64) (*models.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, database.ErrNotFound
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

type mockTokenIssuer struct {
	err error
}

func (m *mockTokenIssuer) Issue(user *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + user.Email, nil
}

type mockJobQueue struct {
	mu       sync.Mutex
	enqueued []*queue.Job
	err      error
}

func (m *mockJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.enqueued...)
}

func (m *mockJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(context.Context) error { return m.err }

var _ queue.JobQueue = (*mockJobQueue)(nil)

// testEnvelope decodes response bodies
type testEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// serve routes one request through a router built by register, mounted at prefix.
// A nil principal sends the request unauthenticated.
func serve(t *testing.T, prefix string, register func(*mux.Router), method, path, body string, p *request.Principal) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	root := mux.NewRouter()
	register(root.PathPrefix(prefix).Subrouter())

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req = req.WithContext(middleware.SetPrincipalInContext(req.Context(), p))
	}

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not an envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env testEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}
