// Package syncer keeps the local task cache and the task server in step.
// Every mutation is written to the local cache first; the server call that
// follows is best effort and its failure never undoes the local write.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/benvon/taskcloud/internal/format"
	"github.com/benvon/taskcloud/internal/localcache"
	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/task"
	"go.uber.org/zap"
)

// ErrTaskNotFound is reported when an id is absent from the relevant list
var ErrTaskNotFound = errors.New("task not found")

// ErrEmptyTitle is reported when a task without a title is added
var ErrEmptyTitle = errors.New("task title is required")

// Remote is the subset of the server API the orchestrator uses
type Remote interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, t models.Task) (*models.Task, error)
	SetCompleted(ctx context.Context, id int64, done bool) error
	SetFocusTime(ctx context.Context, id int64, seconds int) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ClearCompleted(ctx context.Context) (int, error)

	Register(ctx context.Context, req apiclient.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Me(ctx context.Context) (*models.User, error)
}

var _ Remote = (*apiclient.Client)(nil)

// Syncer is the sync orchestrator. It holds no locks; concurrent calls on
// the same list may interleave and the last write wins.
type Syncer struct {
	store  localcache.Store
	remote Remote
	logger *zap.Logger
	notify StatusFunc
	newID  func() string
	now    func() time.Time
}

// Option configures a Syncer
type Option func(*Syncer)

// WithStatusFunc registers the status listener
func WithStatusFunc(fn StatusFunc) Option {
	return func(s *Syncer) {
		s.notify = fn
	}
}

// WithIDGenerator replaces NewID
func WithIDGenerator(fn func() string) Option {
	return func(s *Syncer) {
		s.newID = fn
	}
}

// New creates an orchestrator over store and remote
func New(store localcache.Store, remote Remote, logger *zap.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		store:  store,
		remote: remote,
		logger: logger,
		notify: func(Status, string) {},
		newID:  NewID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) status(st Status, msg string) {
	s.notify(st, msg)
}

// keys returns the task and recycle keys of the signed-in user
func (s *Syncer) keys(ctx context.Context) (string, string, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return "", "", err
	}
	email := ""
	if u != nil {
		email = u.Email
	}
	return localcache.TasksKey(email), localcache.RecycleKey(email), nil
}

func (s *Syncer) loadList(ctx context.Context, key string) ([]task.Task, bool, error) {
	var tasks []task.Task
	ok, err := localcache.GetJSON(ctx, s.store, key, &tasks)
	if err != nil {
		return nil, ok, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, ok, nil
}

func (s *Syncer) saveList(ctx context.Context, key string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return localcache.SetJSON(ctx, s.store, key, tasks)
}

func (s *Syncer) fail(op string, err error, msg string) Outcome {
	s.logger.Error(op+"_failed", zap.Error(err))
	s.status(StatusError, msg)
	return failed(err)
}

// GetTasks returns the server's task list and mirrors it into the cache.
// When the server is unreachable the cached list is returned instead.
func (s *Syncer) GetTasks(ctx context.Context) ([]task.Task, Outcome) {
	s.status(StatusSyncing, "syncing")

	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return []task.Task{}, s.fail("get_tasks", err, "failed to read session")
	}

	wire, remoteErr := s.remote.ListTasks(ctx)
	if remoteErr == nil && wire == nil {
		remoteErr = apiclient.ErrNoData
	}
	if remoteErr == nil {
		tasks := format.ToInternalAll(wire)
		if err := s.saveList(ctx, tasksKey, tasks); err != nil {
			s.logger.Warn("failed_to_cache_remote_tasks", zap.Error(err))
			s.status(StatusSynced, "synced from remote")
			return tasks, localOnly("cache write failed: " + err.Error())
		}
		s.status(StatusSynced, "synced from remote")
		return tasks, synced()
	}

	s.logger.Info("remote_list_failed_using_cache", zap.Error(remoteErr))
	tasks, ok, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return []task.Task{}, s.fail("read_cached_tasks", err, "failed to read local data")
	}
	if !ok {
		s.status(StatusError, "sync failed")
		return []task.Task{}, failed(fmt.Errorf("no cached tasks: %w", remoteErr))
	}
	s.status(StatusSynced, "loaded from cache")
	return tasks, localOnly(remoteErr.Error())
}

// AddTask stores t locally, assigning an id when it has none, then creates
// it on the server. The local id is kept; the server id arrives with the
// next GetTasks.
func (s *Syncer) AddTask(ctx context.Context, t task.Task) (task.Task, Outcome) {
	s.status(StatusSyncing, "saving")

	if t.Title == "" {
		return t, s.fail("add_task", ErrEmptyTitle, "save failed")
	}
	s.fillDefaults(&t)

	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return t, s.fail("add_task", err, "save failed")
	}
	tasks, _, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return t, s.fail("add_task", err, "save failed")
	}
	tasks = append(tasks, t)
	if err := s.saveList(ctx, tasksKey, tasks); err != nil {
		return t, s.fail("add_task", err, "save failed")
	}

	if _, err := s.remote.CreateTask(ctx, format.ToWire(t)); err != nil {
		s.logger.Info("remote_create_failed_saved_locally",
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
		s.status(StatusSynced, "saved locally")
		return t, localOnly(err.Error())
	}
	s.status(StatusSynced, "saved")
	return t, synced()
}

func (s *Syncer) fillDefaults(t *task.Task) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMid
	}
	if t.Category == "" {
		t.Category = task.CategoryPersonal
	}
	if t.Status == "" {
		t.Status = task.StatusUnfinished
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.CreateTime == "" {
		t.CreateTime = s.now().Format(format.DisplayLayout)
	}
}

// UpdateTask replaces the cached task with the same id, if any, and pushes
// the new fields to the server when the id is a server id.
func (s *Syncer) UpdateTask(ctx context.Context, t task.Task) Outcome {
	s.status(StatusSyncing, "updating")

	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return s.fail("update_task", err, "update failed")
	}
	tasks, ok, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return s.fail("update_task", err, "update failed")
	}
	if ok {
		if i := task.IndexOf(tasks, t.ID); i != -1 {
			tasks[i] = t
			if err := s.saveList(ctx, tasksKey, tasks); err != nil {
				return s.fail("update_task", err, "update failed")
			}
		}
	}

	id, isRemote := format.WireID(t.ID)
	if !isRemote {
		s.status(StatusSynced, "updated locally")
		return localOnly("task has no server id")
	}
	if _, err := s.remote.UpdateTask(ctx, id, format.ToWire(t)); err != nil {
		s.logger.Info("remote_update_failed_updated_locally",
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
		s.status(StatusSynced, "updated locally")
		return localOnly(err.Error())
	}
	s.status(StatusSynced, "updated")
	return synced()
}

// DeleteTask moves the task into the recycle bin and deletes it on the
// server. The local move happens whether or not the server call succeeds.
func (s *Syncer) DeleteTask(ctx context.Context, id string) Outcome {
	s.status(StatusSyncing, "deleting")

	tasksKey, recycleKey, err := s.keys(ctx)
	if err != nil {
		return s.fail("delete_task", err, "delete failed")
	}
	tasks, _, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return s.fail("delete_task", err, "delete failed")
	}
	if i := task.IndexOf(tasks, id); i != -1 {
		bin, _, err := s.loadList(ctx, recycleKey)
		if err != nil {
			return s.fail("delete_task", err, "delete failed")
		}
		bin = append(bin, tasks[i])
		if err := s.saveList(ctx, recycleKey, bin); err != nil {
			return s.fail("delete_task", err, "delete failed")
		}
		if err := s.saveList(ctx, tasksKey, task.Without(tasks, id)); err != nil {
			return s.fail("delete_task", err, "delete failed")
		}
	}

	outcome := s.remoteDelete(ctx, id)
	s.status(StatusSynced, "deleted")
	return outcome
}

// remoteDelete deletes id on the server when it is a server id
func (s *Syncer) remoteDelete(ctx context.Context, id string) Outcome {
	wireID, ok := format.WireID(id)
	if !ok {
		return localOnly("task has no server id")
	}
	if err := s.remote.DeleteTask(ctx, wireID); err != nil {
		s.logger.Info("remote_delete_failed",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return localOnly(err.Error())
	}
	return synced()
}

// ToggleTaskStatus flips the status of a cached task. The current status is
// read from the local cache only; the server is written to but never read.
// The local flip is applied even if the server rejects it.
func (s *Syncer) ToggleTaskStatus(ctx context.Context, id string) (task.Status, Outcome) {
	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return "", s.fail("toggle_task", err, "update failed")
	}
	tasks, _, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return "", s.fail("toggle_task", err, "update failed")
	}
	i := task.IndexOf(tasks, id)
	if i == -1 {
		return "", s.fail("toggle_task", fmt.Errorf("%w: %s", ErrTaskNotFound, id), "task not found")
	}
	next := tasks[i].Status.Toggled()

	s.status(StatusSyncing, "updating")
	outcome := synced()
	if wireID, ok := format.WireID(id); ok {
		if err := s.remote.SetCompleted(ctx, wireID, next == task.StatusFinished); err != nil {
			s.logger.Info("remote_toggle_failed",
				zap.String("task_id", id),
				zap.Error(err),
			)
			outcome = localOnly(err.Error())
		}
	} else {
		outcome = localOnly("task has no server id")
	}

	// re-read: the list may have changed while the server call was in flight
	tasks, _, err = s.loadList(ctx, tasksKey)
	if err != nil {
		return "", s.fail("toggle_task", err, "update failed")
	}
	if i := task.IndexOf(tasks, id); i != -1 {
		tasks[i].Status = next
		if err := s.saveList(ctx, tasksKey, tasks); err != nil {
			return "", s.fail("toggle_task", err, "update failed")
		}
	}

	if outcome.Kind == Synced {
		s.status(StatusSynced, "status updated")
	} else {
		s.status(StatusUnsynced, "status updated locally")
	}
	return next, outcome
}

// SetFocusTime records accumulated focus seconds on a cached task and on the server
func (s *Syncer) SetFocusTime(ctx context.Context, id string, seconds int) Outcome {
	if seconds <= 0 {
		return s.fail("set_focus_time", fmt.Errorf("focus time must be a positive number of seconds, got %d", seconds), "update failed")
	}
	s.status(StatusSyncing, "updating")

	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return s.fail("set_focus_time", err, "update failed")
	}
	tasks, _, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return s.fail("set_focus_time", err, "update failed")
	}
	i := task.IndexOf(tasks, id)
	if i == -1 {
		return s.fail("set_focus_time", fmt.Errorf("%w: %s", ErrTaskNotFound, id), "task not found")
	}
	tasks[i].FocusTime = seconds
	if err := s.saveList(ctx, tasksKey, tasks); err != nil {
		return s.fail("set_focus_time", err, "update failed")
	}

	wireID, ok := format.WireID(id)
	if !ok {
		s.status(StatusSynced, "updated locally")
		return localOnly("task has no server id")
	}
	if _, err := s.remote.SetFocusTime(ctx, wireID, seconds); err != nil {
		s.logger.Info("remote_focus_time_failed", zap.String("task_id", id), zap.Error(err))
		s.status(StatusSynced, "updated locally")
		return localOnly(err.Error())
	}
	s.status(StatusSynced, "updated")
	return synced()
}

// PermanentDelete deletes id on the server only. Failures are logged and
// reported through the outcome.
func (s *Syncer) PermanentDelete(ctx context.Context, id string) Outcome {
	wireID, ok := format.WireID(id)
	if !ok {
		return localOnly("task has no server id")
	}
	if err := s.remote.DeleteTask(ctx, wireID); err != nil {
		s.logger.Warn("permanent_delete_failed", zap.String("task_id", id), zap.Error(err))
		return failed(err)
	}
	return synced()
}

// PermanentDeleteTask removes id from the cached task list, bypassing the
// recycle bin, and deletes it on the server
func (s *Syncer) PermanentDeleteTask(ctx context.Context, id string) Outcome {
	s.status(StatusSyncing, "deleting")

	tasksKey, _, err := s.keys(ctx)
	if err != nil {
		return s.fail("permanent_delete_task", err, "delete failed")
	}
	tasks, ok, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return s.fail("permanent_delete_task", err, "delete failed")
	}
	if ok {
		if err := s.saveList(ctx, tasksKey, task.Without(tasks, id)); err != nil {
			return s.fail("permanent_delete_task", err, "delete failed")
		}
	}

	outcome := s.remoteDelete(ctx, id)
	s.status(StatusSynced, "deleted")
	return outcome
}

// ClearCompleted moves every finished task into the recycle bin and asks
// the server to do the same. It returns how many tasks moved locally.
func (s *Syncer) ClearCompleted(ctx context.Context) (int, Outcome) {
	s.status(StatusSyncing, "clearing")

	tasksKey, recycleKey, err := s.keys(ctx)
	if err != nil {
		return 0, s.fail("clear_completed", err, "clear failed")
	}
	tasks, _, err := s.loadList(ctx, tasksKey)
	if err != nil {
		return 0, s.fail("clear_completed", err, "clear failed")
	}
	var keep, done []task.Task
	for _, t := range tasks {
		if t.Status == task.StatusFinished {
			done = append(done, t)
			continue
		}
		keep = append(keep, t)
	}
	if len(done) > 0 {
		bin, _, err := s.loadList(ctx, recycleKey)
		if err != nil {
			return 0, s.fail("clear_completed", err, "clear failed")
		}
		if err := s.saveList(ctx, recycleKey, append(bin, done...)); err != nil {
			return 0, s.fail("clear_completed", err, "clear failed")
		}
		if err := s.saveList(ctx, tasksKey, keep); err != nil {
			return 0, s.fail("clear_completed", err, "clear failed")
		}
	}

	if _, err := s.remote.ClearCompleted(ctx); err != nil {
		s.logger.Info("remote_clear_completed_failed", zap.Error(err))
		s.status(StatusSynced, "cleared locally")
		return len(done), localOnly(err.Error())
	}
	s.status(StatusSynced, "cleared")
	return len(done), synced()
}

// SyncFromCloud refreshes the cache from the server
func (s *Syncer) SyncFromCloud(ctx context.Context) ([]task.Task, Outcome) {
	return s.GetTasks(ctx)
}

// SyncToCloud reports the push state. Mutations are pushed as they happen,
// so there is nothing queued to send.
func (s *Syncer) SyncToCloud(ctx context.Context) Outcome {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return s.fail("sync_to_cloud", err, "failed to read session")
	}
	if u == nil {
		s.status(StatusUnsynced, "sign in to sync")
		return localOnly("not signed in")
	}
	s.status(StatusSynced, "changes are saved as they happen")
	return synced()
}
