package models

import (
	"time"

	"github.com/google/uuid"
)

// RecycleBinEntry is a server-side snapshot of a deleted task
type RecycleBinEntry struct {
	ID        uuid.UUID `json:"id"`
	Scope     string    `json:"-"`
	TaskData  Task      `json:"task_data"`
	DeletedAt time.Time `json:"deleted_at"`
}
