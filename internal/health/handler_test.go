// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(context.Context) error {
	return s.err
}

func TestLiveness(t *testing.T) {
	h := NewHandler(&stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveness_DuringShutdown(t *testing.T) {
	h := NewHandler(&stubChecker{}, &stubChecker{})
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveness_LivezAlias(t *testing.T) {
	h := NewHandler(&stubChecker{}, &stubChecker{})

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	for _, path := range []string{"/healthz", "/livez"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHandler(&stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Len(t, body.Checks, 2)
}

func TestReadiness_DegradedOnPingFailure(t *testing.T) {
	h := NewHandler(
		&stubChecker{err: errors.New("connection refused")},
		&stubChecker{},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
}

func TestReadiness_NotReady(t *testing.T) {
	h := NewHandler(&stubChecker{}, &stubChecker{})
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
