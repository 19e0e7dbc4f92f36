package store

import (
	"context"
	"sync"

	"pensim/internal/simulation"

	apperrors "pensim/internal/errors"
)

// MemoryStore implements the simulation data source contracts in memory.
// It backs tests and the "memory" database driver. All methods are safe
// for concurrent use; data is copied on the way out so callers can never
// mutate shared state.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[string]simulation.Participant
	histories    map[string]simulation.ContributionHistory
	rateSeries   []simulation.RatePoint
	rules        *simulation.PlanRules
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]simulation.Participant),
		histories:    make(map[string]simulation.ContributionHistory),
	}
}

// PutParticipant stores or replaces a participant.
func (s *MemoryStore) PutParticipant(p simulation.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
}

// PutHistory stores or replaces a contribution history.
func (s *MemoryStore) PutHistory(h simulation.ContributionHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[h.ParticipantID] = h
}

// PutRateSeries replaces the rate series.
func (s *MemoryStore) PutRateSeries(series []simulation.RatePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateSeries = append([]simulation.RatePoint(nil), series...)
}

// PutRules stores the plan rules record.
func (s *MemoryStore) PutRules(r simulation.PlanRules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = &r
}

// Find resolves a participant by ID, or fails with the not-found kind.
func (s *MemoryStore) Find(ctx context.Context, id string) (*simulation.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("participant").WithContext("participant_id", id)
	}
	return &p, nil
}

// FetchHistory returns the stored history, or nil when absent.
func (s *MemoryStore) FetchHistory(ctx context.Context, participantID string) (*simulation.ContributionHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[participantID]
	if !ok {
		return nil, nil
	}
	out := simulation.ContributionHistory{
		ParticipantID: h.ParticipantID,
		Entries:       append([]simulation.ContributionEntry(nil), h.Entries...),
	}
	return &out, nil
}

// FetchSnapshot derives the snapshot from the stored rate series, or
// returns nil when no series exists.
func (s *MemoryStore) FetchSnapshot(ctx context.Context) (*simulation.RateSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.rateSeries) == 0 {
		return nil, nil
	}
	snapshot := BuildRateSnapshot(s.rateSeries)
	return &snapshot, nil
}

// FetchRules returns the stored rules, or nil when absent.
func (s *MemoryStore) FetchRules(ctx context.Context) (*simulation.PlanRules, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rules == nil {
		return nil, nil
	}
	r := *s.rules
	return &r, nil
}

// Ping always succeeds; the memory store has nothing to reach.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
