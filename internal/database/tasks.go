package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskcloud/internal/models"
)

const taskColumns = `id, scope, title, content, start_time, end_time, priority, tags, is_completed, focus_time, create_time, update_time`

// querier is satisfied by *DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// TaskRepository handles task database operations. Every query is limited
// to one scope; a row in another scope behaves as if it did not exist.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the tasks of a scope, newest first
func (r *TaskRepository) List(ctx context.Context, scope string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE scope = $1 ORDER BY create_time DESC, id DESC`
	tasks, err := queryTasks(ctx, r.db, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, scope string, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND scope = $2`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, scope))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Create inserts t and fills in its ID and timestamps
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if err := insertTask(ctx, r.db, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update replaces the editable fields of t
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	start, end, err := taskTimes(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $3, content = $4, start_time = $5, end_time = $6, priority = $7,
			tags = $8, is_completed = $9, focus_time = $10, update_time = NOW()
		WHERE id = $1 AND scope = $2
		RETURNING ` + taskColumns

	updated, err := scanTask(r.db.QueryRowContext(ctx, query,
		t.ID,
		t.Scope,
		t.Title,
		t.Content,
		start,
		end,
		t.Priority,
		t.Tags,
		t.IsCompleted,
		t.FocusTime,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	*t = *updated
	return nil
}

// SetCompleted sets is_completed on one task
func (r *TaskRepository) SetCompleted(ctx context.Context, scope string, id int64, done bool) error {
	completed := 0
	if done {
		completed = 1
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET is_completed = $3, update_time = NOW() WHERE id = $1 AND scope = $2`,
		id, scope, completed,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFocusTime records accumulated focus seconds
func (r *TaskRepository) SetFocusTime(ctx context.Context, scope string, id int64, seconds int) (*models.Task, error) {
	query := `
		UPDATE tasks SET focus_time = $3, update_time = NOW()
		WHERE id = $1 AND scope = $2
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, scope, seconds))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update focus time: %w", err)
	}
	return t, nil
}

// MoveToRecycleBin deletes a task and stores a snapshot of it in the recycle bin
func (r *TaskRepository) MoveToRecycleBin(ctx context.Context, scope string, id int64) (*models.RecycleBinEntry, error) {
	var entry *models.RecycleBinEntry
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `DELETE FROM tasks WHERE id = $1 AND scope = $2 RETURNING ` + taskColumns
		t, err := scanTask(tx.QueryRowContext(ctx, query, id, scope))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		entry, err = insertRecycleEntry(ctx, tx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearCompleted moves every completed task of a scope into the recycle bin
// and returns how many were moved
func (r *TaskRepository) ClearCompleted(ctx context.Context, scope string) (int, error) {
	moved := 0
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `DELETE FROM tasks WHERE scope = $1 AND is_completed = 1 RETURNING ` + taskColumns
		tasks, err := queryTasks(ctx, tx, query, scope)
		if err != nil {
			return fmt.Errorf("failed to delete completed tasks: %w", err)
		}
		for _, t := range tasks {
			if _, err := insertRecycleEntry(ctx, tx, t); err != nil {
				return err
			}
		}
		moved = len(tasks)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func insertTask(ctx context.Context, q querier, t *models.Task) error {
	start, end, err := taskTimes(t)
	if err != nil {
		return err
	}
	created, err := models.ParseWireTime(t.CreateTime)
	if err != nil {
		return fmt.Errorf("invalid create_time: %w", err)
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}

	query := `
		INSERT INTO tasks (scope, title, content, start_time, end_time, priority, tags, is_completed, focus_time, create_time, update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamp, NOW()::timestamp), NOW())
		RETURNING ` + taskColumns

	inserted, err := scanTask(q.QueryRowContext(ctx, query,
		t.Scope,
		t.Title,
		t.Content,
		start,
		end,
		t.Priority,
		t.Tags,
		t.IsCompleted,
		t.FocusTime,
		nullTime(created),
	))
	if err != nil {
		return err
	}
	*t = *inserted
	return nil
}

func queryTasks(ctx context.Context, q querier, query string, args ...any) ([]*models.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var start, end sql.NullTime
	var created, updated time.Time
	err := row.Scan(
		&t.ID,
		&t.Scope,
		&t.Title,
		&t.Content,
		&start,
		&end,
		&t.Priority,
		&t.Tags,
		&t.IsCompleted,
		&t.FocusTime,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		t.StartTime = models.FormatWireTime(start.Time)
	}
	if end.Valid {
		t.EndTime = models.FormatWireTime(end.Time)
	}
	t.CreateTime = models.FormatWireTime(created)
	t.UpdateTime = models.FormatWireTime(updated)
	return t, nil
}

func taskTimes(t *models.Task) (sql.NullTime, sql.NullTime, error) {
	start, err := models.ParseWireTime(t.StartTime)
	if err != nil {
		return sql.NullTime{}, sql.NullTime{}, fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := models.ParseWireTime(t.EndTime)
	if err != nil {
		return sql.NullTime{}, sql.NullTime{}, fmt.Errorf("invalid end_time: %w", err)
	}
	return nullTime(start), nullTime(end), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
