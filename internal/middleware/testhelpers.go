package middleware

import (
	"context"

	"github.com/benvon/taskcloud/internal/request"
)

// SetPrincipalInContext is a helper function for testing - sets the principal in context
// This is exported so other test packages can use it
func SetPrincipalInContext(ctx context.Context, p *request.Principal) context.Context {
	return request.WithPrincipal(ctx, p)
}
