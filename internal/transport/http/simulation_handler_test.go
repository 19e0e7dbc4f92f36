package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "pensim/internal/errors"
	"pensim/internal/simulation"
)

type mockSimulationService struct {
	simulateFn func(ctx context.Context, id string) (*simulation.SimulationResult, error)
	batchFn    func(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error)
}

func (m *mockSimulationService) Simulate(ctx context.Context, id string) (*simulation.SimulationResult, error) {
	return m.simulateFn(ctx, id)
}

func (m *mockSimulationService) SimulateBatch(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error) {
	return m.batchFn(ctx, ids)
}

func newTestHandler(svc SimulationServiceInterface) *SimulationHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSimulationHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func sampleResult(id string) *simulation.SimulationResult {
	return &simulation.SimulationResult{
		ParticipantID:  id,
		FullName:       "Test Member",
		Age:            45,
		TenureYears:    20,
		LumpSum:        decimal.NewFromInt(17_088_750),
		MonthlyBenefit: decimal.RequireFromString("94937.5"),
	}
}

func TestSimulateSuccess(t *testing.T) {
	svc := &mockSimulationService{
		simulateFn: func(ctx context.Context, id string) (*simulation.SimulationResult, error) {
			assert.Equal(t, "P-1001", id)
			return sampleResult(id), nil
		},
	}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/P-1001", nil)
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "P-1001", body["participant_id"])
	assert.Equal(t, "94937.5", body["monthly_benefit"])
}

func TestSimulateNotFound(t *testing.T) {
	svc := &mockSimulationService{
		simulateFn: func(ctx context.Context, id string) (*simulation.SimulationResult, error) {
			return nil, apierrors.NewNotFoundError("participant").WithContext("participant_id", id)
		},
	}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ghost", nil)
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/errors/not-found", body["type"])
	assert.Equal(t, "ghost", body["participant_id"])
}

func TestSimulateTimeoutAnswers504(t *testing.T) {
	svc := &mockSimulationService{
		simulateFn: func(ctx context.Context, id string) (*simulation.SimulationResult, error) {
			return nil, apierrors.NewTimeoutError("auxiliary fetch", context.DeadlineExceeded)
		},
	}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/P-1", nil)
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["retryable"])
}

func TestSimulateBatchSuccess(t *testing.T) {
	svc := &mockSimulationService{
		batchFn: func(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error) {
			require.Equal(t, []string{"P-1", "ghost", "P-2"}, ids)
			return []*simulation.SimulationResult{sampleResult("P-1"), sampleResult("P-2")}, nil
		},
	}
	h := newTestHandler(svc)

	payload, _ := json.Marshal(BatchRequest{ParticipantIDs: []string{"P-1", "ghost", "P-2"}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Requested)
	assert.Equal(t, 2, body.Returned)
	assert.Len(t, body.Results, 2)
}

func TestSimulateBatchRejectsEmptyList(t *testing.T) {
	svc := &mockSimulationService{
		batchFn: func(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error) {
			t.Fatal("service must not be called for an invalid request")
			return nil, nil
		},
	}
	h := newTestHandler(svc)

	for _, payload := range []string{`{}`, `{"participant_ids":[]}`, `{"participant_ids":["a",""]}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/batch", bytes.NewReader([]byte(payload)))
		req.Header.Set("Content-Type", "application/json")
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
	}
}

func TestSimulateBatchRejectsMalformedJSON(t *testing.T) {
	svc := &mockSimulationService{}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch", bytes.NewReader([]byte(`{"participant_ids":`)))
	req.Header.Set("Content-Type", "application/json")
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
