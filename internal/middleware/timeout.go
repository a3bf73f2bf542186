package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/taskcloud/internal/models"
)

const (
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second
)

var timeoutBody = func() string {
	b, _ := json.Marshal(models.Envelope{Code: http.StatusServiceUnavailable, Msg: "Request Timeout"})
	return string(b)
}()

// Timeout bounds handler run time. Handlers see the deadline on their context.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		handler := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
