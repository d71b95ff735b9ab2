package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/health"
)

func TestReadinessGateDrainsDuringShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })

	handler := health.Handler{Checker: stubChecker{}}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	before := httptest.NewRecorder()
	handler.Ready(before, req)
	require.Equal(t, http.StatusOK, before.Code)

	// Shutdown closes the gate: healthy dependencies no longer matter.
	health.SetReady(false)
	during := httptest.NewRecorder()
	handler.Ready(during, req)
	require.Equal(t, http.StatusServiceUnavailable, during.Code)
	require.Contains(t, during.Body.String(), "shutting down")
}
