package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"postpulse/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler_Check(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		store      HealthCheckFunc
		cache      HealthCheckFunc
		wantCode   int
		wantStatus string
		wantCache  string
	}{
		{"all healthy", ok, ok, http.StatusOK, "ok", "ok"},
		{"cache disabled", ok, nil, http.StatusOK, "ok", "disabled"},
		{"cache down degrades", ok, down, http.StatusOK, "degraded", "unavailable"},
		{"store down fails", down, ok, http.StatusServiceUnavailable, "unhealthy", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.store, tt.cache, logger.NewNop())
			rec := httptest.NewRecorder()

			h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "postpulse", body["service"])
			checks := body["checks"].(map[string]interface{})
			assert.Equal(t, tt.wantCache, checks["cache"])
		})
	}
}
