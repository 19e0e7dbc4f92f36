package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pensim/internal/errors"
	"pensim/internal/infrastructure"
	"pensim/internal/simulation"
	"pensim/internal/store"
)

type recordingSink struct {
	published []simulation.SimulationResult
	err       error
}

func (s *recordingSink) Publish(ctx context.Context, result simulation.SimulationResult) error {
	s.published = append(s.published, result)
	return s.err
}

func newTestService(t *testing.T, sink simulation.EventSink) (*SimulationService, *infrastructure.SimulationMetrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.NewMemoryStore()
	store.SeedDemo(st, simulation.DefaultRules())

	sim := simulation.NewSimulator(st, st, st, st, simulation.Config{
		Deadline:     time.Second,
		BatchWorkers: 4,
	}, logger)

	metrics := infrastructure.NewSimulationMetrics()
	return NewSimulationService(sim, sink, metrics, logger), metrics
}

func TestServiceSimulatePublishesResult(t *testing.T) {
	sink := &recordingSink{}
	svc, metrics := newTestService(t, sink)

	result, err := svc.Simulate(context.Background(), "P-1001")

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, sink.published, 1)
	assert.Equal(t, "P-1001", sink.published[0].ParticipantID)

	success := metrics.SimulationsTotal.WithLabelValues(infrastructure.OutcomeSuccess)
	assert.Equal(t, 1.0, testutil.ToFloat64(success))
}

func TestServiceSimulateSinkFailureDoesNotFailRequest(t *testing.T) {
	sink := &recordingSink{err: errors.New("hub unavailable")}
	svc, _ := newTestService(t, sink)

	result, err := svc.Simulate(context.Background(), "P-1001")

	require.NoError(t, err, "sink failures are logged, never surfaced")
	assert.NotNil(t, result)
}

func TestServiceSimulateNotFoundCounted(t *testing.T) {
	sink := &recordingSink{}
	svc, metrics := newTestService(t, sink)

	result, err := svc.Simulate(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Nil(t, result)
	assert.Empty(t, sink.published, "failed runs publish nothing")

	notFound := metrics.SimulationsTotal.WithLabelValues(infrastructure.OutcomeNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(notFound))
}

func TestServiceSimulateNilSink(t *testing.T) {
	svc, _ := newTestService(t, nil)

	result, err := svc.Simulate(context.Background(), "P-1001")

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestServiceBatchCountsItems(t *testing.T) {
	sink := &recordingSink{}
	svc, metrics := newTestService(t, sink)

	results, err := svc.SimulateBatch(context.Background(), []string{"P-1001", "P-1002", "ghost"})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, sink.published, 2, "each batch success is published")

	succeeded := metrics.BatchItemsTotal.WithLabelValues(infrastructure.OutcomeSuccess)
	failed := metrics.BatchItemsTotal.WithLabelValues(infrastructure.OutcomeError)
	assert.Equal(t, 2.0, testutil.ToFloat64(succeeded))
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperrors.NewNotFoundError("participant"), infrastructure.OutcomeNotFound},
		{apperrors.NewTimeoutError("fetch", nil), infrastructure.OutcomeTimeout},
		{apperrors.NewUpstreamError("fetch", nil), infrastructure.OutcomeUpstream},
		{errors.New("plain"), infrastructure.OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcomeOf(tt.err))
	}
}
