package syncer

import (
	"context"
	"fmt"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/benvon/taskcloud/internal/localcache"
	"github.com/benvon/taskcloud/internal/models"
	"go.uber.org/zap"
)

// SessionUser is the signed-in user as cached under localcache.UserKey
type SessionUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CurrentUser returns the cached user, or nil for a guest
func (s *Syncer) CurrentUser(ctx context.Context) (*SessionUser, error) {
	var u SessionUser
	ok, err := localcache.GetJSON(ctx, s.store, localcache.UserKey, &u)
	if err != nil {
		return nil, err
	}
	if !ok || u.Email == "" {
		return nil, nil
	}
	return &u, nil
}

// Login signs in and caches the token and user. Unlike task operations
// there is no local fallback, so failures are returned.
func (s *Syncer) Login(ctx context.Context, email, password string) (*SessionUser, error) {
	res, err := s.remote.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login_failed", zap.Error(err))
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return s.startSession(ctx, res)
}

// Register creates an account and signs in as it
func (s *Syncer) Register(ctx context.Context, req apiclient.RegisterRequest) (*SessionUser, error) {
	res, err := s.remote.Register(ctx, req)
	if err != nil {
		s.logger.Info("register_failed", zap.Error(err))
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return s.startSession(ctx, res)
}

func (s *Syncer) startSession(ctx context.Context, res *models.AuthResult) (*SessionUser, error) {
	if res == nil || res.Token == "" || res.User == nil {
		return nil, fmt.Errorf("server returned an incomplete session")
	}
	u := &SessionUser{Username: res.User.Nickname, Email: res.User.Email}
	if err := s.store.Set(ctx, localcache.TokenKey, res.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := localcache.SetJSON(ctx, s.store, localcache.UserKey, u); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	s.logger.Info("session_started", zap.Int64("user_id", res.User.ID))
	return u, nil
}

// Logout forgets the token and user. Cached task lists stay under their
// per-user keys.
func (s *Syncer) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, localcache.TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := s.store.Remove(ctx, localcache.UserKey); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}

// Whoami asks the server who the cached token belongs to
func (s *Syncer) Whoami(ctx context.Context) (*models.User, error) {
	return s.remote.Me(ctx)
}
