package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/benvon/taskcloud/internal/localcache"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/task"
)

var errOffline = errors.New("connection refused")

// mockRemote is a func-field implementation of Remote. Unset funcs fail
// with errOffline.
type mockRemote struct {
	mu    sync.Mutex
	calls []string

	listTasksFunc      func(ctx context.Context) ([]models.Task, error)
	createTaskFunc     func(ctx context.Context, t models.Task) (*models.Task, error)
	updateTaskFunc     func(ctx context.Context, id int64, t models.Task) (*models.Task, error)
	setCompletedFunc   func(ctx context.Context, id int64, done bool) error
	setFocusTimeFunc   func(ctx context.Context, id int64, seconds int) (*models.Task, error)
	deleteTaskFunc     func(ctx context.Context, id int64) error
	clearCompletedFunc func(ctx context.Context) (int, error)
	registerFunc       func(ctx context.Context, req apiclient.RegisterRequest) (*models.AuthResult, error)
	loginFunc          func(ctx context.Context, email, password string) (*models.AuthResult, error)
}

func (m *mockRemote) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockRemote) called(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *mockRemote) ListTasks(ctx context.Context) ([]models.Task, error) {
	m.record("list")
	if m.listTasksFunc != nil {
		return m.listTasksFunc(ctx)
	}
	return nil, errOffline
}

func (m *mockRemote) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	m.record("create")
	if m.createTaskFunc != nil {
		return m.createTaskFunc(ctx, t)
	}
	return nil, errOffline
}

func (m *mockRemote) UpdateTask(ctx context.Context, id int64, t models.Task) (*models.Task, error) {
	m.record("update")
	if m.updateTaskFunc != nil {
		return m.updateTaskFunc(ctx, id, t)
	}
	return nil, errOffline
}

func (m *mockRemote) SetCompleted(ctx context.Context, id int64, done bool) error {
	m.record("complete")
	if m.setCompletedFunc != nil {
		return m.setCompletedFunc(ctx, id, done)
	}
	return errOffline
}

func (m *mockRemote) SetFocusTime(ctx context.Context, id int64, seconds int) (*models.Task, error) {
	m.record("focus")
	if m.setFocusTimeFunc != nil {
		return m.setFocusTimeFunc(ctx, id, seconds)
	}
	return nil, errOffline
}

func (m *mockRemote) DeleteTask(ctx context.Context, id int64) error {
	m.record("delete")
	if m.deleteTaskFunc != nil {
		return m.deleteTaskFunc(ctx, id)
	}
	return errOffline
}

func (m *mockRemote) ClearCompleted(ctx context.Context) (int, error) {
	m.record("clear_completed")
	if m.clearCompletedFunc != nil {
		return m.clearCompletedFunc(ctx)
	}
	return 0, errOffline
}

func (m *mockRemote) Register(ctx context.Context, req apiclient.RegisterRequest) (*models.AuthResult, error) {
	m.record("register")
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errOffline
}

func (m *mockRemote) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	m.record("login")
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errOffline
}

func (m *mockRemote) Me(ctx context.Context) (*models.User, error) {
	m.record("me")
	return nil, errOffline
}

var _ Remote = (*mockRemote)(nil)

type statusLog struct {
	mu      sync.Mutex
	entries []Status
}

func (l *statusLog) fn(st Status, _ string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, st)
}

func (l *statusLog) last() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1]
}

func newTestSyncer(remote *mockRemote) (*Syncer, *localcache.MemoryStore, *statusLog) {
	store := localcache.NewMemoryStore()
	log := &statusLog{}
	return New(store, remote, nil, WithStatusFunc(log.fn)), store, log
}

func cachedTasks(t *testing.T, store localcache.Store, key string) []task.Task {
	t.Helper()
	var tasks []task.Task
	if _, err := localcache.GetJSON(context.Background(), store, key, &tasks); err != nil {
		t.Fatalf("Failed to read %s: %v", key, err)
	}
	return tasks
}

func TestAddTask_VisibleBeforeRemoteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, log := newTestSyncer(&mockRemote{})

	added, outcome := s.AddTask(ctx, task.Task{Title: "Buy milk", Priority: task.PriorityLow, Tags: []string{"home", "errand"}})
	if outcome.Kind != LocalOnly {
		t.Errorf("Expected LocalOnly when the server is down, got %s", outcome)
	}
	if log.last() != StatusSynced {
		t.Errorf("Expected synced status after local save, got %s", log.last())
	}
	if added.ID == "" || added.Status != task.StatusUnfinished || added.Category != task.CategoryPersonal {
		t.Errorf("Expected defaults to be filled, got %+v", added)
	}

	tasks, outcome := s.GetTasks(ctx)
	if outcome.Kind != LocalOnly {
		t.Errorf("Expected cache fallback, got %s", outcome)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.Priority != task.PriorityLow || strings.Join(got.Tags, ",") != "home,errand" {
		t.Errorf("Cached task differs from added task: %+v", got)
	}
}

func TestAddTask_Synced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var sent models.Task
	remote := &mockRemote{
		createTaskFunc: func(ctx context.Context, w models.Task) (*models.Task, error) {
			sent = w
			w.ID = 99
			return &w, nil
		},
	}
	s, _, _ := newTestSyncer(remote)

	_, outcome := s.AddTask(ctx, task.Task{Title: "Call mom", Priority: task.PriorityHigh, Tags: []string{"family"}})
	if outcome.Kind != Synced {
		t.Fatalf("Expected Synced, got %s", outcome)
	}
	if sent.Title != "Call mom" || sent.Priority != models.PriorityHigh || sent.Tags != "family" || sent.ID != 0 {
		t.Errorf("Unexpected wire task sent: %+v", sent)
	}
}

func TestAddTask_EmptyTitle(t *testing.T) {
	t.Parallel()
	remote := &mockRemote{}
	s, _, log := newTestSyncer(remote)

	_, outcome := s.AddTask(context.Background(), task.Task{})
	if outcome.Kind != Failed {
		t.Errorf("Expected Failed, got %s", outcome)
	}
	if log.last() != StatusError {
		t.Errorf("Expected error status, got %s", log.last())
	}
	if remote.called("create") != 0 {
		t.Error("Server must not be called for an invalid task")
	}
}

func TestGetTasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		seed       []task.Task
		remote     *mockRemote
		wantKind   OutcomeKind
		wantTitles []string
		wantStatus Status
	}{
		{
			name: "remote overwrites cache",
			seed: []task.Task{{ID: "local1", Title: "stale"}},
			remote: &mockRemote{
				listTasksFunc: func(ctx context.Context) ([]models.Task, error) {
					return []models.Task{{ID: 5, Title: "fresh", Priority: models.PriorityHigh}}, nil
				},
			},
			wantKind:   Synced,
			wantTitles: []string{"fresh"},
			wantStatus: StatusSynced,
		},
		{
			name:       "remote failure falls back to cache",
			seed:       []task.Task{{ID: "local1", Title: "cached"}},
			remote:     &mockRemote{},
			wantKind:   LocalOnly,
			wantTitles: []string{"cached"},
			wantStatus: StatusSynced,
		},
		{
			name: "remote list without data keeps cache",
			seed: []task.Task{{ID: "local1", Title: "cached"}},
			remote: &mockRemote{
				listTasksFunc: func(ctx context.Context) ([]models.Task, error) {
					return nil, nil
				},
			},
			wantKind:   LocalOnly,
			wantTitles: []string{"cached"},
			wantStatus: StatusSynced,
		},
		{
			name:       "remote failure with empty cache",
			remote:     &mockRemote{},
			wantKind:   Failed,
			wantTitles: nil,
			wantStatus: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s, store, log := newTestSyncer(tt.remote)
			if tt.seed != nil {
				_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), tt.seed)
			}

			tasks, outcome := s.GetTasks(ctx)
			if outcome.Kind != tt.wantKind {
				t.Errorf("Expected %s, got %s", tt.wantKind, outcome)
			}
			if tasks == nil {
				t.Error("GetTasks must never return nil")
			}
			if len(tasks) != len(tt.wantTitles) {
				t.Fatalf("Expected %d tasks, got %d", len(tt.wantTitles), len(tasks))
			}
			for i, title := range tt.wantTitles {
				if tasks[i].Title != title {
					t.Errorf("Task %d: expected %q, got %q", i, title, tasks[i].Title)
				}
			}
			if log.last() != tt.wantStatus {
				t.Errorf("Expected final status %s, got %s", tt.wantStatus, log.last())
			}
			if tt.wantKind == Synced {
				cached := cachedTasks(t, store, localcache.TasksKey(""))
				if len(cached) != 1 || cached[0].ID != "5" {
					t.Errorf("Expected cache to hold the remote list, got %+v", cached)
				}
			}
			if tt.seed != nil && tt.wantKind == LocalOnly {
				cached := cachedTasks(t, store, localcache.TasksKey(""))
				if len(cached) != len(tt.seed) || cached[0].ID != tt.seed[0].ID {
					t.Errorf("Expected cache to be left alone, got %+v", cached)
				}
			}
		})
	}
}

func TestToggleTaskStatus_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	remote := &mockRemote{}
	s, _, _ := newTestSyncer(remote)

	added, _ := s.AddTask(ctx, task.Task{Title: "Stretch"})

	first, outcome := s.ToggleTaskStatus(ctx, added.ID)
	if first != task.StatusFinished || !outcome.OK() {
		t.Fatalf("Expected FINISHED, got %s (%s)", first, outcome)
	}
	second, _ := s.ToggleTaskStatus(ctx, added.ID)
	if second != task.StatusUnfinished {
		t.Errorf("Expected UNFINISHED after two toggles, got %s", second)
	}

	tasks, _ := s.GetTasks(ctx)
	if tasks[0].Status != task.StatusUnfinished {
		t.Errorf("Expected cached status UNFINISHED, got %s", tasks[0].Status)
	}
}

func TestToggleTaskStatus_ReadsLocalCacheOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var pushed *bool
	remote := &mockRemote{
		listTasksFunc: func(ctx context.Context) ([]models.Task, error) {
			return []models.Task{{ID: 8, Title: "remote says done", IsCompleted: 1}}, nil
		},
		setCompletedFunc: func(ctx context.Context, id int64, done bool) error {
			if id != 8 {
				t.Errorf("Expected id 8, got %d", id)
			}
			pushed = &done
			return nil
		},
	}
	s, store, log := newTestSyncer(remote)
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "8", Title: "local", Status: task.StatusUnfinished}})

	next, outcome := s.ToggleTaskStatus(ctx, "8")
	if next != task.StatusFinished || outcome.Kind != Synced {
		t.Errorf("Expected FINISHED/Synced, got %s/%s", next, outcome)
	}
	if remote.called("list") != 0 {
		t.Error("Toggle must not read from the server")
	}
	if pushed == nil || !*pushed {
		t.Error("Expected the flip to be pushed to the server")
	}
	if log.last() != StatusSynced {
		t.Errorf("Expected synced status, got %s", log.last())
	}
}

func TestToggleTaskStatus_RemoteFailureStillFlipsLocally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, log := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "3", Title: "x", Status: task.StatusUnfinished}})

	next, outcome := s.ToggleTaskStatus(ctx, "3")
	if next != task.StatusFinished || outcome.Kind != LocalOnly {
		t.Errorf("Expected FINISHED/LocalOnly, got %s/%s", next, outcome)
	}
	if got := cachedTasks(t, store, localcache.TasksKey("")); got[0].Status != task.StatusFinished {
		t.Errorf("Expected local flip, got %s", got[0].Status)
	}
	if log.last() != StatusUnsynced {
		t.Errorf("Expected unsynced status, got %s", log.last())
	}
}

func TestToggleTaskStatus_UnknownID(t *testing.T) {
	t.Parallel()
	remote := &mockRemote{}
	s, _, _ := newTestSyncer(remote)

	_, outcome := s.ToggleTaskStatus(context.Background(), "nope")
	if outcome.Kind != Failed {
		t.Errorf("Expected Failed, got %s", outcome)
	}
	if remote.called("complete") != 0 {
		t.Error("Server must not be called for an unknown task")
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		remote     *mockRemote
		wantKind   OutcomeKind
		wantRemote int
	}{
		{
			name:       "local id skips the server",
			id:         "lt5x2k9qabc",
			remote:     &mockRemote{},
			wantKind:   LocalOnly,
			wantRemote: 0,
		},
		{
			name: "server id is pushed",
			id:   "12",
			remote: &mockRemote{
				updateTaskFunc: func(ctx context.Context, id int64, w models.Task) (*models.Task, error) {
					return &w, nil
				},
			},
			wantKind:   Synced,
			wantRemote: 1,
		},
		{
			name:       "server failure keeps the local edit",
			id:         "12",
			remote:     &mockRemote{},
			wantKind:   LocalOnly,
			wantRemote: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s, store, _ := newTestSyncer(tt.remote)
			_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: tt.id, Title: "before"}})

			outcome := s.UpdateTask(ctx, task.Task{ID: tt.id, Title: "after", Priority: task.PriorityHigh})
			if outcome.Kind != tt.wantKind {
				t.Errorf("Expected %s, got %s", tt.wantKind, outcome)
			}
			if n := tt.remote.called("update"); n != tt.wantRemote {
				t.Errorf("Expected %d server updates, got %d", tt.wantRemote, n)
			}
			if got := cachedTasks(t, store, localcache.TasksKey("")); got[0].Title != "after" {
				t.Errorf("Expected local edit, got %q", got[0].Title)
			}
		})
	}
}

func TestUpdateTask_AbsentIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "a", Title: "keep"}})

	s.UpdateTask(ctx, task.Task{ID: "b", Title: "ghost"})
	got := cachedTasks(t, store, localcache.TasksKey(""))
	if len(got) != 1 || got[0].Title != "keep" {
		t.Errorf("Expected cache untouched, got %+v", got)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var deleted []int64
	remote := &mockRemote{
		deleteTaskFunc: func(ctx context.Context, id int64) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	s, store, _ := newTestSyncer(remote)
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{
		{ID: "1", Title: "one"},
		{ID: "2", Title: "two"},
	})

	if outcome := s.DeleteTask(ctx, "1"); outcome.Kind != Synced {
		t.Errorf("Expected Synced, got %s", outcome)
	}
	active := cachedTasks(t, store, localcache.TasksKey(""))
	bin := cachedTasks(t, store, localcache.RecycleKey(""))
	if task.IndexOf(active, "1") != -1 || len(active) != 1 {
		t.Errorf("Expected task 1 removed from active list, got %+v", active)
	}
	if task.IndexOf(bin, "1") == -1 {
		t.Errorf("Expected task 1 in recycle bin, got %+v", bin)
	}
	if len(deleted) != 1 || deleted[0] != 1 {
		t.Errorf("Expected server delete of 1, got %v", deleted)
	}

	// absent id leaves both lists alone
	s.DeleteTask(ctx, "404")
	if got := cachedTasks(t, store, localcache.TasksKey("")); len(got) != 1 {
		t.Errorf("Expected active list untouched, got %+v", got)
	}
	if got := cachedTasks(t, store, localcache.RecycleKey("")); len(got) != 1 {
		t.Errorf("Expected recycle bin untouched, got %+v", got)
	}
}

func TestDeleteTask_RemoteFailureStillRecycles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "7", Title: "x"}})

	if outcome := s.DeleteTask(ctx, "7"); outcome.Kind != LocalOnly {
		t.Errorf("Expected LocalOnly, got %s", outcome)
	}
	if got := cachedTasks(t, store, localcache.TasksKey("")); len(got) != 0 {
		t.Errorf("Expected empty active list, got %+v", got)
	}
}

func TestRestoreFromRecycleBin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	remote := &mockRemote{
		createTaskFunc: func(ctx context.Context, w models.Task) (*models.Task, error) {
			w.ID = 500
			return &w, nil
		},
	}
	s, store, _ := newTestSyncer(remote)
	_ = localcache.SetJSON(ctx, store, localcache.RecycleKey(""), []task.Task{
		{ID: "r1", Title: "Water plants", Priority: task.PriorityLow, Tags: []string{"home"}, Status: task.StatusUnfinished},
	})

	restored, outcome := s.RestoreFromRecycleBin(ctx, "r1")
	if outcome.Kind != Synced || restored == nil {
		t.Fatalf("Expected Synced restore, got %s", outcome)
	}
	if got := cachedTasks(t, store, localcache.RecycleKey("")); len(got) != 0 {
		t.Errorf("Expected empty recycle bin, got %+v", got)
	}
	active := cachedTasks(t, store, localcache.TasksKey(""))
	if len(active) != 1 || active[0].Title != "Water plants" || active[0].Priority != task.PriorityLow || active[0].Tags[0] != "home" {
		t.Errorf("Unexpected active list %+v", active)
	}

	if _, outcome := s.RestoreFromRecycleBin(ctx, "r1"); outcome.Kind != Failed {
		t.Errorf("Expected Failed for an id no longer in the bin, got %s", outcome)
	}
}

func TestPayRentScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newTestSyncer(&mockRemote{})

	added, _ := s.AddTask(ctx, task.Task{Title: "Pay rent", Priority: task.PriorityHigh, Tags: []string{"home"}})

	tasks, _ := s.GetTasks(ctx)
	if len(tasks) != 1 || tasks[0].Status != task.StatusUnfinished {
		t.Fatalf("Expected one UNFINISHED task, got %+v", tasks)
	}

	if st, _ := s.ToggleTaskStatus(ctx, added.ID); st != task.StatusFinished {
		t.Fatalf("Expected FINISHED after toggle, got %s", st)
	}

	s.DeleteTask(ctx, added.ID)
	tasks, _ = s.GetTasks(ctx)
	bin, _ := s.GetRecycleBin(ctx)
	if len(tasks) != 0 {
		t.Errorf("Expected empty active list, got %+v", tasks)
	}
	if len(bin) != 1 || bin[0].Title != "Pay rent" {
		t.Fatalf("Expected Pay rent in recycle bin, got %+v", bin)
	}

	if _, outcome := s.RestoreFromRecycleBin(ctx, added.ID); !outcome.OK() {
		t.Fatalf("Restore failed: %s", outcome)
	}
	bin, _ = s.GetRecycleBin(ctx)
	tasks, _ = s.GetTasks(ctx)
	if len(bin) != 0 {
		t.Errorf("Expected empty recycle bin, got %+v", bin)
	}
	if len(tasks) != 1 || tasks[0].Title != "Pay rent" {
		t.Fatalf("Expected Pay rent back in the active list, got %+v", tasks)
	}
	if tasks[0].Status != task.StatusFinished {
		t.Errorf("Expected FINISHED to survive the recycle round trip, got %s", tasks[0].Status)
	}
}

func TestPermanentDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	remote := &mockRemote{deleteTaskFunc: func(ctx context.Context, id int64) error { return nil }}
	s, store, _ := newTestSyncer(remote)
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "4", Title: "gone"}})

	if outcome := s.PermanentDeleteTask(ctx, "4"); outcome.Kind != Synced {
		t.Errorf("Expected Synced, got %s", outcome)
	}
	if got := cachedTasks(t, store, localcache.TasksKey("")); len(got) != 0 {
		t.Errorf("Expected task removed, got %+v", got)
	}
	if got := cachedTasks(t, store, localcache.RecycleKey("")); len(got) != 0 {
		t.Errorf("Permanent delete must bypass the recycle bin, got %+v", got)
	}
}

func TestPermanentDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	remote := &mockRemote{}
	s, _, _ := newTestSyncer(remote)
	if outcome := s.PermanentDelete(ctx, "abc"); outcome.Kind != LocalOnly || remote.called("delete") != 0 {
		t.Errorf("Expected local id to skip the server, got %s", outcome)
	}
	if outcome := s.PermanentDelete(ctx, "10"); outcome.Kind != Failed {
		t.Errorf("Expected Failed when the server is down, got %s", outcome)
	}
}

func TestRecycleBinMaintenance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.RecycleKey(""), []task.Task{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}})

	s.PermanentDeleteFromRecycleBin(ctx, "a")
	bin, _ := s.GetRecycleBin(ctx)
	if len(bin) != 1 || bin[0].ID != "b" {
		t.Errorf("Expected only b left, got %+v", bin)
	}

	if outcome := s.ClearRecycleBin(ctx); !outcome.OK() {
		t.Fatalf("ClearRecycleBin failed: %s", outcome)
	}
	bin, _ = s.GetRecycleBin(ctx)
	if len(bin) != 0 || bin == nil {
		t.Errorf("Expected empty non-nil recycle bin, got %#v", bin)
	}
}

func TestClearCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{
		{ID: "a", Title: "a", Status: task.StatusFinished},
		{ID: "b", Title: "b", Status: task.StatusUnfinished},
	})

	n, outcome := s.ClearCompleted(ctx)
	if n != 1 || outcome.Kind != LocalOnly {
		t.Errorf("Expected 1 cleared locally, got %d (%s)", n, outcome)
	}
	if got := cachedTasks(t, store, localcache.TasksKey("")); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Unexpected active list %+v", got)
	}
	if got := cachedTasks(t, store, localcache.RecycleKey("")); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Unexpected recycle bin %+v", got)
	}
}

func TestSetFocusTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestSyncer(&mockRemote{})
	_ = localcache.SetJSON(ctx, store, localcache.TasksKey(""), []task.Task{{ID: "x1", Title: "focus"}})

	if outcome := s.SetFocusTime(ctx, "x1", 0); outcome.Kind != Failed {
		t.Errorf("Expected Failed for zero seconds, got %s", outcome)
	}
	if outcome := s.SetFocusTime(ctx, "x1", 1500); outcome.Kind != LocalOnly {
		t.Errorf("Expected LocalOnly for a local id, got %s", outcome)
	}
	if got := cachedTasks(t, store, localcache.TasksKey("")); got[0].FocusTime != 1500 {
		t.Errorf("Expected focus time 1500, got %d", got[0].FocusTime)
	}
}
