package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the state of the server and its database.
type HealthChecker struct {
	db      Pinger
	started time.Time
	timeout time.Duration
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseStatus `json:"database"`
	Server   ServerStatus   `json:"server"`
}

type DatabaseStatus struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Message   string `json:"message,omitempty"`
}

type ServerStatus struct {
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHealthChecker(db Pinger, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{db: db, started: time.Now(), timeout: timeout}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	now := time.Now()
	status := HealthStatus{
		Status:   StatusHealthy,
		Database: DatabaseStatus{Status: "connected", Connected: true},
		Server:   ServerStatus{Uptime: now.Sub(h.started).Seconds(), Timestamp: now.UTC()},
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Database = DatabaseStatus{Status: "disconnected", Message: err.Error()}
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}
