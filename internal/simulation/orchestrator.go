package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "pensim/internal/errors"
)

// Config carries the orchestrator's tunables.
type Config struct {
	// Deadline bounds one full Simulate call: lookup, fan-out, and
	// calculation together.
	Deadline time.Duration
	// BatchWorkers bounds how many simulations a batch runs at once.
	BatchWorkers int
	// FallbackRate is the fixed rate applied when the rate source reports
	// absence. Zero or negative falls back to the built-in 0.05.
	FallbackRate float64
}

const (
	defaultDeadline     = 3 * time.Second
	defaultBatchWorkers = 8
)

// Simulator coordinates the participant lookup, the concurrent auxiliary
// fetches, and the calculator for one identifier under one deadline.
// Concurrent Simulate calls share no mutable state.
type Simulator struct {
	participants ParticipantLookup
	history      HistorySource
	rates        RateSource
	rules        RulesSource
	logger       *slog.Logger

	deadline     time.Duration
	batchWorkers int
	fallbackRate decimal.Decimal
	now          func() time.Time
}

// NewSimulator creates a simulator over the given data sources.
func NewSimulator(participants ParticipantLookup, history HistorySource, rates RateSource, rules RulesSource, cfg Config, logger *slog.Logger) *Simulator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = defaultBatchWorkers
	}
	fallback := fallbackRate
	if cfg.FallbackRate > 0 {
		fallback = decimal.NewFromFloat(cfg.FallbackRate)
	}
	return &Simulator{
		participants: participants,
		history:      history,
		rates:        rates,
		rules:        rules,
		logger:       logger.With(slog.String("component", "simulator")),
		deadline:     cfg.Deadline,
		batchWorkers: cfg.BatchWorkers,
		fallbackRate: fallback,
		now:          time.Now,
	}
}

// WithClock overrides the reference clock. Intended for tests.
func (s *Simulator) WithClock(now func() time.Time) *Simulator {
	s.now = now
	return s
}

// Simulate runs one projection for the given identifier.
//
// The participant lookup gates everything: on absence it fails with
// NOT_FOUND before any auxiliary fetch is issued. The three auxiliary
// fetches are then started together so the stage waits for the slowest of
// them, not their sum. Exceeding the deadline cancels all in-flight
// fetches through the shared context and fails with TIMEOUT; no partial
// result is returned.
func (s *Simulator) Simulate(ctx context.Context, id string) (*SimulationResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	participant, err := s.participants.Find(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, s.classify(err, "participant lookup")
	}

	var (
		history *ContributionHistory
		rate    *RateSnapshot
		rules   *PlanRules
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.history.FetchHistory(gctx, id)
		if err != nil {
			return fmt.Errorf("contribution history: %w", err)
		}
		history = h
		return nil
	})
	g.Go(func() error {
		r, err := s.rates.FetchSnapshot(gctx)
		if err != nil {
			return fmt.Errorf("rate snapshot: %w", err)
		}
		rate = r
		return nil
	})
	g.Go(func() error {
		r, err := s.rules.FetchRules(gctx)
		if err != nil {
			return fmt.Errorf("plan rules: %w", err)
		}
		rules = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.classify(err, "auxiliary fetch")
	}

	// Absence is defaulted here; hard failures never reach this point.
	if history == nil {
		h := EmptyHistory(id)
		history = &h
	}
	if rate == nil {
		r := FixedRateSnapshot(s.fallbackRate)
		rate = &r
	}
	if rules == nil {
		r := DefaultRules()
		rules = &r
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	result := Calculate(*participant, *history, *rate, *rules, s.now())
	result.Elapsed = time.Since(start)

	s.logger.DebugContext(ctx, "simulation completed",
		slog.String("participant_id", id),
		slog.Int("periods", result.Details.PeriodCount),
		slog.Bool("eligible", result.Eligible),
		slog.Duration("elapsed", result.Elapsed),
	)
	return &result, nil
}

// classify maps a stage failure onto the error taxonomy: a lapsed deadline
// is TIMEOUT, anything else is UPSTREAM. AppErrors pass through unchanged.
func (s *Simulator) classify(err error, stage string) error {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(stage, err)
	}
	return apperrors.NewUpstreamError(stage, err)
}
