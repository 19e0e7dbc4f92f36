package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "pensim/internal/errors"
	"pensim/internal/infrastructure"
	"pensim/internal/simulation"
)

// SimulationService fronts the simulator for the transport layer. It adds
// the operational concerns the core deliberately stays free of: tracing,
// metrics, and result event publication.
type SimulationService struct {
	simulator *simulation.Simulator
	sink      simulation.EventSink
	metrics   *infrastructure.SimulationMetrics
	logger    *slog.Logger
}

// NewSimulationService creates the service. The sink may be nil when event
// streaming is disabled.
func NewSimulationService(simulator *simulation.Simulator, sink simulation.EventSink, metrics *infrastructure.SimulationMetrics, logger *slog.Logger) *SimulationService {
	return &SimulationService{
		simulator: simulator,
		sink:      sink,
		metrics:   metrics,
		logger:    logger.With(slog.String("service", "simulation")),
	}
}

// Simulate runs one projection and records its outcome. A successful
// result is also published to the event sink; publication is best-effort
// and never fails the request.
func (s *SimulationService) Simulate(ctx context.Context, id string) (*simulation.SimulationResult, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "simulation.simulate")
	defer span.End()
	span.SetAttributes(attribute.String("participant.id", id))

	start := time.Now()
	result, err := s.simulator.Simulate(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveSimulation(outcomeOf(err), time.Since(start))
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("simulation.eligible", result.Eligible),
		attribute.Int("simulation.periods", result.Details.PeriodCount),
	)
	s.metrics.ObserveSimulation(infrastructure.OutcomeSuccess, result.Elapsed)

	s.publish(ctx, *result)
	return result, nil
}

// SimulateBatch runs the identifiers concurrently and returns the
// successes. Per-item failures are already logged inside the simulator;
// here they only show up in the metrics delta between requested and
// returned.
func (s *SimulationService) SimulateBatch(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "simulation.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(ids)))

	s.metrics.BatchSize.Observe(float64(len(ids)))

	results, err := s.simulator.SimulateBatch(ctx, ids)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.BatchItemsTotal.WithLabelValues(infrastructure.OutcomeSuccess).Add(float64(len(results)))
	if failed := len(ids) - len(results); failed > 0 {
		s.metrics.BatchItemsTotal.WithLabelValues(infrastructure.OutcomeError).Add(float64(failed))
	}
	span.SetAttributes(attribute.Int("batch.succeeded", len(results)))

	for _, result := range results {
		s.publish(ctx, *result)
	}
	return results, nil
}

func (s *SimulationService) publish(ctx context.Context, result simulation.SimulationResult) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "result event publication failed",
			slog.String("participant_id", result.ParticipantID),
			slog.String("error", err.Error()))
	}
}

// outcomeOf maps an error onto the metric outcome labels.
func outcomeOf(err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return infrastructure.OutcomeNotFound
	case apperrors.IsTimeout(err):
		return infrastructure.OutcomeTimeout
	case apperrors.IsUpstream(err):
		return infrastructure.OutcomeUpstream
	default:
		return infrastructure.OutcomeError
	}
}
