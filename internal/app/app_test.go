package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApplication wires the full application on the seeded memory
// driver, with rate limiting off so repeated requests in one test never
// trip it.
func newTestApplication(t *testing.T) *Application {
	t.Helper()
	t.Setenv("PENSIM_DATABASE_DRIVER", "memory")
	t.Setenv("PENSIM_RATE_LIMIT_ENABLED", "false")
	t.Setenv("PENSIM_LOGGING_LEVEL", "error")

	application, err := NewApplication()
	require.NoError(t, err)
	t.Cleanup(func() {
		if application.EventHub != nil {
			application.EventHub.Stop()
		}
		application.Store.Close()
	})
	return application
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApplication(t)

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"} {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSimulateEndToEnd(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/P-1001", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "P-1001", body["participant_id"])
	assert.NotEmpty(t, body["monthly_benefit"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSimulateUnknownParticipant(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestBatchEndToEnd(t *testing.T) {
	a := newTestApplication(t)

	payload := []byte(`{"participant_ids":["P-1001","P-1002","ghost"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/simulate/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Requested int `json:"requested"`
		Returned  int `json:"returned"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Requested)
	assert.Equal(t, 2, body.Returned)
}

func TestMetricsExposed(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pensim_simulation_duration_seconds")
}

func TestUnknownRouteIsProblemJSON(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
