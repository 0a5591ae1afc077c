// Package memory provides an in-memory flow definition repository
// PRINCIPLES:
// - KISS: Simple map-based storage
// - SRP: Only responsible for definition persistence
// - Thread-safe
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

// FlowStore is an in-memory implementation of the flow repository.
// Definitions are deep-copied on the way in and out so callers can never
// mutate stored state through aliased pointers.
type FlowStore struct {
	mu    sync.RWMutex
	flows map[string]*flow.FlowDefinition
}

// NewFlowStore creates an empty in-memory store.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[string]*flow.FlowDefinition)}
}

// Save stores a validated definition.
func (s *FlowStore) Save(ctx context.Context, def *flow.FlowDefinition) error {
	if def == nil {
		return flow.ErrNilDefinition
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid flow: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[def.ID] = def.Clone()
	return nil
}

// Get returns a copy of the stored definition.
func (s *FlowStore) Get(ctx context.Context, id string) (*flow.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.flows[id]
	if !ok {
		return nil, flow.ErrFlowNotFound
	}
	return def.Clone(), nil
}

// List returns copies of all stored definitions.
func (s *FlowStore) List(ctx context.Context) ([]*flow.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*flow.FlowDefinition, 0, len(s.flows))
	for _, def := range s.flows {
		out = append(out, def.Clone())
	}
	return out, nil
}

// Delete removes a stored definition.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[id]; !ok {
		return flow.ErrFlowNotFound
	}
	delete(s.flows, id)
	return nil
}
