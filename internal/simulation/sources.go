package simulation

import "context"

// Data source contracts consumed by the orchestrator. All are read-only.
// Absence is a valid, non-exceptional return: a nil record with a nil
// error. A non-nil error always means a hard failure, never absence —
// except ParticipantLookup, whose absence is the distinguished not-found
// error kind because the rest of the run depends on it.

// ParticipantLookup resolves an identifier to a participant profile.
type ParticipantLookup interface {
	// Find returns the participant, or a NOT_FOUND error if the
	// identifier does not resolve.
	Find(ctx context.Context, id string) (*Participant, error)
}

// HistorySource fetches a participant's contribution history.
type HistorySource interface {
	FetchHistory(ctx context.Context, participantID string) (*ContributionHistory, error)
}

// RateSource fetches the point-in-time rate snapshot.
type RateSource interface {
	FetchSnapshot(ctx context.Context) (*RateSnapshot, error)
}

// RulesSource fetches the plan rules record.
type RulesSource interface {
	FetchRules(ctx context.Context) (*PlanRules, error)
}

// EventSink receives completed simulation results. Optional: the
// orchestrating service functions identically with or without one, and a
// sink failure never invalidates an already-computed result.
type EventSink interface {
	Publish(ctx context.Context, result SimulationResult) error
}
