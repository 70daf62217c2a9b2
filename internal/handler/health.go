// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/shieldhq/shield-admin/internal/middleware"
	"github.com/shieldhq/shield-admin/internal/version"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Check is the result of one health check.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthResponse is the health endpoint payload. Detail fields are
// populated only for authenticated callers; anonymous callers get the
// status alone.
type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version,omitempty"`
	Uptime  string           `json:"uptime,omitempty"`
	Checks  map[string]Check `json:"checks,omitempty"`
}

// HealthHandler serves health and readiness probes.
type HealthHandler struct {
	db        *sql.DB
	sm        *scs.SessionManager
	info      version.Info
	startedAt time.Time
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *sql.DB, sm *scs.SessionManager, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		sm:        sm,
		info:      info,
		startedAt: time.Now(),
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	status := StatusHealthy
	code := http.StatusOK
	if dbCheck.Status != StatusHealthy {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	resp := HealthResponse{Status: status}
	if h.sm.GetString(r.Context(), middleware.SessionKeyEmail) != "" {
		resp.Version = h.info.String()
		resp.Uptime = time.Since(h.startedAt).Round(time.Second).String()
		resp.Checks = map[string]Check{"database": dbCheck}
	}

	WriteJSON(w, code, resp)
}

// Liveness handles GET /health/live. It answers as long as the process
// serves requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: StatusHealthy})
}

// Readiness handles GET /health/ready. It fails when the database is
// unreachable so load balancers stop routing traffic here.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if check := h.checkDatabase(r.Context()); check.Status != StatusHealthy {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: StatusUnhealthy})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Check{Status: StatusHealthy, Latency: time.Since(start).String()}
}
