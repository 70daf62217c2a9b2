package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldhq/shield-admin/internal/handler"
	"github.com/shieldhq/shield-admin/internal/middleware"
	"github.com/shieldhq/shield-admin/internal/session"
	"github.com/shieldhq/shield-admin/internal/testutil"
	"github.com/shieldhq/shield-admin/internal/version"
)

func TestHealth_Anonymous(t *testing.T) {
	db := testutil.TestDB(t)
	sm := session.New(db, true)
	h := handler.NewHealthHandler(db, sm, version.Info{Version: "v1.2.3"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	sm.LoadAndSave(http.HandlerFunc(h.Health)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	// Anonymous callers never see build or check detail.
	assert.NotContains(t, rec.Body.String(), "v1.2.3")
	assert.NotContains(t, rec.Body.String(), "checks")
}

func TestHealth_AuthenticatedDetail(t *testing.T) {
	db := testutil.TestDB(t)
	sm := session.New(db, true)
	h := handler.NewHealthHandler(db, sm, version.Info{Version: "v1.2.3"})

	seed := func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), middleware.SessionKeyEmail, "root@example.com")
		h.Health(w, r)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	sm.LoadAndSave(http.HandlerFunc(seed)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "v1.2.3")
	assert.Contains(t, rec.Body.String(), "database")
	assert.Contains(t, rec.Body.String(), "uptime")
}

func TestReadiness(t *testing.T) {
	db := testutil.TestDB(t)
	sm := session.New(db, true)
	h := handler.NewHealthHandler(db, sm, version.Info{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveness(t *testing.T) {
	db := testutil.TestDB(t)
	sm := session.New(db, true)
	h := handler.NewHealthHandler(db, sm, version.Info{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	h.Liveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
