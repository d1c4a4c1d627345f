package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	healthy := pingerFunc(func(context.Context) error { return nil })
	failing := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		wantKeys   []string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
		},
		{
			name:       "all healthy",
			checks:     []HealthCheck{{Name: "store", Pinger: healthy}, {Name: "redis", Pinger: healthy}},
			wantStatus: http.StatusOK,
			wantKeys:   []string{"store", "redis"},
		},
		{
			name:       "redis down",
			checks:     []HealthCheck{{Name: "store", Pinger: healthy}, {Name: "redis", Pinger: failing}},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks...).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				return
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			for _, key := range tt.wantKeys {
				if body[key] != "ok" {
					t.Fatalf("expected %s to be ok, got %+v", key, body)
				}
			}
		})
	}
}
