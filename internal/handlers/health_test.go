package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker()
	rec, env := serve(t, "/", h.RegisterRoutes, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Code != http.StatusOK || env.Msg != "ok" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		path       string
		opts       []HealthOption
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips checks",
			path:       "/healthz",
			opts:       []HealthOption{WithCheck("database", down)},
			wantStatus: http.StatusOK,
		},
		{
			name:       "extended all healthy",
			path:       "/healthz?mode=extended",
			opts:       []HealthOption{WithCheck("database", ok), WithCheck("redis", ok)},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name:       "extended with failing dependency",
			path:       "/healthz?mode=extended",
			opts:       []HealthOption{WithCheck("database", ok), WithCheck("rabbitmq", down)},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "healthy", "rabbitmq": "unhealthy: connection refused"},
		},
		{
			name:       "nil checks are ignored",
			path:       "/healthz?mode=extended",
			opts:       []HealthOption{WithCheck("redis", nil)},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthChecker(tt.opts...)
			rec, env := serve(t, "/", h.RegisterRoutes, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Code != tt.wantStatus {
				t.Errorf("envelope code = %d, want %d", env.Code, tt.wantStatus)
			}
			var resp HealthResponse
			decodeData(t, env, &resp)
			if tt.wantChecks == nil {
				if len(resp.Checks) != 0 {
					t.Errorf("basic mode should not report checks, got %v", resp.Checks)
				}
				return
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, resp.Checks[name], want)
				}
			}
		})
	}
}
