package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "pensim/internal/errors"
)

// SimulateBatch runs one simulation per identifier, all concurrently on a
// bounded worker pool, and returns the successes. Result order is not
// guaranteed to match the input order.
//
// Each item carries its own per-item deadline (the same configured one
// Simulate applies); one item timing out or failing never affects the
// others. Per-item failures are logged and discarded — this is the one
// place failures are intentionally swallowed. The batch itself only fails
// when the collection step cannot run at all, i.e. the caller's context is
// already dead before any item starts.
func (s *Simulator) SimulateBatch(ctx context.Context, ids []string) ([]*SimulationResult, error) {
	// TIMEOUT is reserved for an elapsed deadline; a caller that cancelled
	// outright gets the cancellation back, not a timeout.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("batch", err)
		}
		return nil, fmt.Errorf("batch not started: %w", err)
	}

	// A plain group, not WithContext: one item's failure must not cancel
	// its siblings.
	var g errgroup.Group
	g.SetLimit(s.batchWorkers)

	var mu sync.Mutex
	results := make([]*SimulationResult, 0, len(ids))

	for _, id := range ids {
		g.Go(func() error {
			res, err := s.Simulate(ctx, id)
			if err != nil {
				if apperrors.IsNotFound(err) {
					s.logger.InfoContext(ctx, "batch item skipped, participant unknown",
						slog.String("participant_id", id))
				} else {
					s.logger.WarnContext(ctx, "batch item failed",
						slog.String("participant_id", id),
						slog.String("error", err.Error()))
				}
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results, nil
}
