package database

import (
	"context"
	"time"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	List(ctx context.Context, scope string) ([]*models.Task, error)
	GetByID(ctx context.Context, scope string, id int64) (*models.Task, error)
	Create(ctx context.Context, t *models.Task) error
	Update(ctx context.Context, t *models.Task) error
	SetCompleted(ctx context.Context, scope string, id int64, done bool) error
	SetFocusTime(ctx context.Context, scope string, id int64, seconds int) (*models.Task, error)
	MoveToRecycleBin(ctx context.Context, scope string, id int64) (*models.RecycleBinEntry, error)
	ClearCompleted(ctx context.Context, scope string) (int, error)
}

// RecycleBinRepositoryInterface defines the interface for recycle bin repository operations
type RecycleBinRepositoryInterface interface {
	List(ctx context.Context, scope string) ([]*models.RecycleBinEntry, error)
	Restore(ctx context.Context, scope string, id uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, scope string, id uuid.UUID) error
	Clear(ctx context.Context, scope string) (int, error)
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
	PurgeScopeOlderThan(ctx context.Context, scope string, retention time.Duration) (int, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface       = (*UserRepository)(nil)
	_ TaskRepositoryInterface       = (*TaskRepository)(nil)
	_ RecycleBinRepositoryInterface = (*RecycleBinRepository)(nil)
)
