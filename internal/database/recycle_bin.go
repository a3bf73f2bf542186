package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/google/uuid"
)

// RecycleBinRepository handles the server-side recycle bin
type RecycleBinRepository struct {
	db *DB
}

// NewRecycleBinRepository creates a new recycle bin repository
func NewRecycleBinRepository(db *DB) *RecycleBinRepository {
	return &RecycleBinRepository{db: db}
}

// List returns the entries of a scope, most recently deleted first
func (r *RecycleBinRepository) List(ctx context.Context, scope string) ([]*models.RecycleBinEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scope, task_data, deleted_at
		FROM recycle_bin
		WHERE scope = $1
		ORDER BY deleted_at DESC
	`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query recycle bin: %w", err)
	}
	defer rows.Close()

	entries := []*models.RecycleBinEntry{}
	for rows.Next() {
		entry, err := scanRecycleEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recycle bin entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recycle bin: %w", err)
	}
	return entries, nil
}

// Restore removes an entry and re-inserts its task with a new ID
func (r *RecycleBinRepository) Restore(ctx context.Context, scope string, id uuid.UUID) (*models.Task, error) {
	var restored *models.Task
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		entry, err := scanRecycleEntry(tx.QueryRowContext(ctx, `
			DELETE FROM recycle_bin
			WHERE id = $1 AND scope = $2
			RETURNING id, scope, task_data, deleted_at
		`, id, scope))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to remove recycle bin entry: %w", err)
		}

		t := entry.TaskData
		t.ID = 0
		t.Scope = scope
		if err := insertTask(ctx, tx, &t); err != nil {
			return fmt.Errorf("failed to restore task: %w", err)
		}
		restored = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// Delete permanently removes one entry
func (r *RecycleBinRepository) Delete(ctx context.Context, scope string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recycle_bin WHERE id = $1 AND scope = $2`, id, scope)
	if err != nil {
		return fmt.Errorf("failed to delete recycle bin entry: %w", err)
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

// Clear empties the recycle bin of a scope
func (r *RecycleBinRepository) Clear(ctx context.Context, scope string) (int, error) {
	return r.exec(ctx, "failed to clear recycle bin", `DELETE FROM recycle_bin WHERE scope = $1`, scope)
}

// PurgeOlderThan removes entries of every scope deleted more than retention ago
func (r *RecycleBinRepository) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	return r.exec(ctx, "failed to purge recycle bin", `DELETE FROM recycle_bin WHERE deleted_at < $1`, cutoff)
}

// PurgeScopeOlderThan removes entries of one scope deleted more than retention ago
func (r *RecycleBinRepository) PurgeScopeOlderThan(ctx context.Context, scope string, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	return r.exec(ctx, "failed to purge recycle bin", `DELETE FROM recycle_bin WHERE scope = $1 AND deleted_at < $2`, scope, cutoff)
}

func (r *RecycleBinRepository) exec(ctx context.Context, msg, query string, args ...any) (int, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func insertRecycleEntry(ctx context.Context, tx *sql.Tx, t *models.Task) (*models.RecycleBinEntry, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task snapshot: %w", err)
	}

	entry := &models.RecycleBinEntry{
		ID:       uuid.New(),
		Scope:    t.Scope,
		TaskData: *t,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO recycle_bin (id, scope, task_data, deleted_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING deleted_at
	`, entry.ID, entry.Scope, data).Scan(&entry.DeletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recycle bin entry: %w", err)
	}
	return entry, nil
}

func scanRecycleEntry(row rowScanner) (*models.RecycleBinEntry, error) {
	entry := &models.RecycleBinEntry{}
	var data []byte
	if err := row.Scan(&entry.ID, &entry.Scope, &data, &entry.DeletedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &entry.TaskData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task snapshot: %w", err)
	}
	entry.TaskData.Scope = entry.Scope
	return entry, nil
}
