package apiclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskcloud/internal/localcache"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no access token has been cached
var ErrNoToken = errors.New("not signed in")

// CacheTokenSource serves the access token stored under localcache.TokenKey.
// It is read on every request so login and logout take effect immediately.
type CacheTokenSource struct {
	Store   localcache.Store
	Timeout time.Duration
}

// Token implements oauth2.TokenSource
func (s *CacheTokenSource) Token() (*oauth2.Token, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	raw, ok, err := s.Store.Get(ctx, localcache.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || raw == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*CacheTokenSource)(nil)
