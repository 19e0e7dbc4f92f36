package http

import (
	"context"

	"pensim/internal/simulation"
)

// SimulationServiceInterface is the service contract the simulation
// handler depends on. Defined transport-side so handlers can be tested
// against mocks.
type SimulationServiceInterface interface {
	Simulate(ctx context.Context, id string) (*simulation.SimulationResult, error)
	SimulateBatch(ctx context.Context, ids []string) ([]*simulation.SimulationResult, error)
}
