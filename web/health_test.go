package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name          string
		ping          error
		wantCode      int
		wantStatus    string
		wantDBStatus  string
		wantConnected bool
	}{
		{name: "connected", wantCode: http.StatusOK, wantStatus: StatusHealthy, wantDBStatus: "connected", wantConnected: true},
		{name: "disconnected", ping: errors.New("no reachable servers"), wantCode: http.StatusServiceUnavailable, wantStatus: StatusUnhealthy, wantDBStatus: "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(pingerFunc(func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok, "ping must be bounded")
				return tt.ping
			}), time.Second)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var status HealthStatus
			require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantDBStatus, status.Database.Status)
			assert.Equal(t, tt.wantConnected, status.Database.Connected)
			assert.False(t, status.Server.Timestamp.IsZero())
		})
	}
}
