// Package localcache is the client's persistent key-value store. It holds the
// active task list, the recycle bin, the signed-in user and the access token.
package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// UserKey holds the signed-in user as JSON
	UserKey = "VUE_TASK_USER"
	// TokenKey holds the raw access token
	TokenKey = "token"
	// GuestScope partitions data when nobody is signed in
	GuestScope = "GUEST"

	tasksPrefix   = "VUE_TASKS_"
	recyclePrefix = "VUE_TASK_RECYCLE_"
)

// Store is a string key-value store. Single calls are atomic; sequences of
// calls are not.
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// TasksKey returns the key of the active task list for email (GUEST when empty)
func TasksKey(email string) string {
	return tasksPrefix + scope(email)
}

// RecycleKey returns the key of the recycle bin for email (GUEST when empty)
func RecycleKey(email string) string {
	return recyclePrefix + scope(email)
}

func scope(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return GuestScope
	}
	return email
}

// GetJSON decodes the value at key into v. It reports false, leaving v
// untouched, when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
