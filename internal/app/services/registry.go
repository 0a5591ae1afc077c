// Package services wires flow storage to the compiler with a per-version
// cache of compiled flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ivrflow/ivrflow/internal/app/usecases"
	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/internal/infrastructure/metrics"
	"github.com/ivrflow/ivrflow/pkg/compiler"
)

// ErrNotCompilable is returned when a flow's diagnostics prevent building
// an executable form.
var ErrNotCompilable = errors.New("flow cannot be compiled")

// FlowService stores versioned flow definitions and hands out compiled
// flows. Each Save stamps a fresh version and invalidates the cached
// ExecutableFlow, so sessions already running against a previous compile
// keep their copy while new sessions pick up the new version
// (copy-on-compile, never in-place patch).
type FlowService struct {
	repo usecases.FlowRepository

	mu    sync.RWMutex
	cache map[string]*cachedFlow // flow ID -> compiled entry
}

type cachedFlow struct {
	version     string
	exec        *compiler.ExecutableFlow
	diagnostics []compiler.Diagnostic
}

// NewFlowService creates a service backed by the given repository.
func NewFlowService(repo usecases.FlowRepository) *FlowService {
	return &FlowService{
		repo:  repo,
		cache: make(map[string]*cachedFlow),
	}
}

// Save stores a definition, stamping a new ID if absent and always a new
// version, and drops any cached compile for that flow.
func (s *FlowService) Save(ctx context.Context, def *flow.FlowDefinition) error {
	if def == nil {
		return flow.ErrNilDefinition
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.Version = uuid.NewString()
	if err := s.repo.Save(ctx, def); err != nil {
		return fmt.Errorf("saving flow %s: %w", def.ID, err)
	}

	s.mu.Lock()
	delete(s.cache, def.ID)
	s.mu.Unlock()
	return nil
}

// Definition returns the stored definition for a flow.
func (s *FlowService) Definition(ctx context.Context, id string) (*flow.FlowDefinition, error) {
	return s.repo.Get(ctx, id)
}

// Compiled returns the executable flow for the stored definition,
// compiling in save mode on demand and caching per version.
func (s *FlowService) Compiled(ctx context.Context, id string) (*compiler.ExecutableFlow, []compiler.Diagnostic, error) {
	return s.compile(ctx, id, compiler.ModeSave)
}

// Activate compiles the stored definition in strict mode. A flow with any
// unresolved required branch is rejected.
func (s *FlowService) Activate(ctx context.Context, id string) (*compiler.ExecutableFlow, []compiler.Diagnostic, error) {
	return s.compile(ctx, id, compiler.ModeActivate)
}

func (s *FlowService) compile(ctx context.Context, id string, mode compiler.Mode) (*compiler.ExecutableFlow, []compiler.Diagnostic, error) {
	def, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// Cache hit only for the lenient mode: activation must always re-check.
	if mode == compiler.ModeSave {
		s.mu.RLock()
		entry, ok := s.cache[id]
		s.mu.RUnlock()
		if ok && entry.version == def.Version && entry.exec != nil {
			return entry.exec, entry.diagnostics, nil
		}
	}

	res := compiler.Compile(def, mode)
	metrics.IncCompiles()
	if res.Flow == nil {
		metrics.IncCompileErrors()
		return nil, res.Diagnostics, fmt.Errorf("flow %s: %w", id, ErrNotCompilable)
	}

	s.mu.Lock()
	s.cache[id] = &cachedFlow{
		version:     def.Version,
		exec:        res.Flow,
		diagnostics: res.Diagnostics,
	}
	s.mu.Unlock()
	return res.Flow, res.Diagnostics, nil
}
