package request

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal identifies whose tasks a request operates on
type Principal struct {
	UserID int64
	Email  string
	Scope  string
}

// Shared reports whether the principal was selected by X-User-ID in shared mode
func (p *Principal) Shared() bool {
	return p.UserID == 0
}

// UserScope is the data scope of a registered user
func UserScope(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// SharedScope is the data scope of an X-User-ID header value in shared mode
func SharedScope(id string) string {
	return "shared:" + id
}

// PrincipalContextKey returns the context key used for the principal. Exposed for tests that inject other values.
func PrincipalContextKey() contextKey { return principalContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithPrincipal returns a context with the principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal from the request context, or nil if missing or wrong type.
func PrincipalFromContext(r *http.Request) *Principal {
	p, _ := r.Context().Value(principalContextKey).(*Principal)
	return p
}
