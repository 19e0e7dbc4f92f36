package events

import (
	"context"
	"time"

	"pensim/internal/infrastructure"
	"pensim/internal/simulation"
)

// HubSink publishes completed simulation results to the websocket hub.
// Publishing is best-effort: a failure here never fails the simulation
// that produced the result.
type HubSink struct {
	hub *Hub
}

// NewHubSink creates a sink over the given hub.
func NewHubSink(hub *Hub) *HubSink {
	return &HubSink{hub: hub}
}

// Publish broadcasts a simulation.completed envelope to all subscribers.
func (s *HubSink) Publish(ctx context.Context, result simulation.SimulationResult) error {
	return s.hub.BroadcastJSON(map[string]interface{}{
		"type":      TypeSimulationCompleted,
		"data":      result,
		"timestamp": time.Now().Format(time.RFC3339),
		"trace_id":  infrastructure.GetTraceID(ctx),
	})
}

// NoopSink discards events. Used when event streaming is disabled.
type NoopSink struct{}

// Publish discards the result.
func (NoopSink) Publish(context.Context, simulation.SimulationResult) error { return nil }
