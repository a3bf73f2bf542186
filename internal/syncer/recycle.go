package syncer

import (
	"context"
	"fmt"

	"github.com/benvon/taskcloud/internal/task"
)

// The recycle bin lives only in the local cache.

// GetRecycleBin returns the cached recycle bin, oldest deletion first
func (s *Syncer) GetRecycleBin(ctx context.Context) ([]task.Task, Outcome) {
	_, recycleKey, err := s.keys(ctx)
	if err != nil {
		return []task.Task{}, s.fail("get_recycle_bin", err, "failed to read recycle bin")
	}
	bin, _, err := s.loadList(ctx, recycleKey)
	if err != nil {
		return []task.Task{}, s.fail("get_recycle_bin", err, "failed to read recycle bin")
	}
	return bin, localOnly("")
}

// RestoreFromRecycleBin removes id from the recycle bin and adds it back as
// an active task through AddTask. The local id and status are kept; the
// server assigns a new id.
func (s *Syncer) RestoreFromRecycleBin(ctx context.Context, id string) (*task.Task, Outcome) {
	s.status(StatusSyncing, "restoring")

	_, recycleKey, err := s.keys(ctx)
	if err != nil {
		return nil, s.fail("restore_task", err, "restore failed")
	}
	bin, _, err := s.loadList(ctx, recycleKey)
	if err != nil {
		return nil, s.fail("restore_task", err, "restore failed")
	}
	i := task.IndexOf(bin, id)
	if i == -1 {
		return nil, s.fail("restore_task", fmt.Errorf("%w in recycle bin: %s", ErrTaskNotFound, id), "restore failed")
	}
	entry := bin[i]
	if err := s.saveList(ctx, recycleKey, task.Without(bin, id)); err != nil {
		return nil, s.fail("restore_task", err, "restore failed")
	}

	restored, outcome := s.AddTask(ctx, entry)
	if !outcome.OK() {
		return nil, outcome
	}
	return &restored, outcome
}

// PermanentDeleteFromRecycleBin drops id from the recycle bin
func (s *Syncer) PermanentDeleteFromRecycleBin(ctx context.Context, id string) Outcome {
	_, recycleKey, err := s.keys(ctx)
	if err != nil {
		return s.fail("purge_recycled_task", err, "delete failed")
	}
	bin, ok, err := s.loadList(ctx, recycleKey)
	if err != nil {
		return s.fail("purge_recycled_task", err, "delete failed")
	}
	if !ok {
		return localOnly("")
	}
	if err := s.saveList(ctx, recycleKey, task.Without(bin, id)); err != nil {
		return s.fail("purge_recycled_task", err, "delete failed")
	}
	return localOnly("")
}

// ClearRecycleBin empties the recycle bin
func (s *Syncer) ClearRecycleBin(ctx context.Context) Outcome {
	_, recycleKey, err := s.keys(ctx)
	if err != nil {
		return s.fail("clear_recycle_bin", err, "clear failed")
	}
	if err := s.store.Remove(ctx, recycleKey); err != nil {
		return s.fail("clear_recycle_bin", err, "clear failed")
	}
	s.status(StatusSynced, "recycle bin cleared")
	return localOnly("")
}
