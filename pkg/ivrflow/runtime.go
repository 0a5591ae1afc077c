package ivrflow

import (
	"context"

	memory "github.com/ivrflow/ivrflow/internal/adapters/repository/memory"
	"github.com/ivrflow/ivrflow/internal/app/dto"
	"github.com/ivrflow/ivrflow/internal/app/services"
	"github.com/ivrflow/ivrflow/internal/app/usecases"
	coreflow "github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/pkg/compiler"
)

// Re-export core types for convenience
type (
	FlowDefinition = coreflow.FlowDefinition
	Node           = coreflow.Node
	NodeType       = coreflow.NodeType
	Connection     = coreflow.Connection
	Event          = coreflow.Event
	Port           = coreflow.Port

	MenuContent      = coreflow.MenuContent
	MenuOption       = coreflow.MenuOption
	MediaContent     = coreflow.MediaContent
	CalendarContent  = coreflow.CalendarContent
	TransferContent  = coreflow.TransferContent
	VoicemailContent = coreflow.VoicemailContent

	ExecutableFlow = compiler.ExecutableFlow
	Diagnostic     = compiler.Diagnostic

	TelephonySession  = usecases.TelephonySession
	FlowRepository    = usecases.FlowRepository
	SessionResult     = dto.SessionResult
	TerminationReason = dto.TerminationReason
)

// Runtime is a facade over the flow service. The default runtime keeps
// definitions in memory and is suitable for local usage and tests.
type Runtime struct {
	service *services.FlowService
}

// NewRuntime constructs a runtime with an in-memory flow repository.
func NewRuntime() *Runtime {
	return NewRuntimeWithRepository(memory.NewFlowStore())
}

// NewRuntimeWithRepository constructs a runtime over any repository
// implementation (memory, sqlite, postgres).
func NewRuntimeWithRepository(repo usecases.FlowRepository) *Runtime {
	return &Runtime{service: services.NewFlowService(repo)}
}

// SaveFlow persists a definition, stamping a new version.
func (rt *Runtime) SaveFlow(ctx context.Context, def *coreflow.FlowDefinition) error {
	return rt.service.Save(ctx, def)
}

// Compile returns the lenient (save-mode) compilation of a stored flow.
func (rt *Runtime) Compile(ctx context.Context, flowID string) (*compiler.ExecutableFlow, []compiler.Diagnostic, error) {
	return rt.service.Compiled(ctx, flowID)
}

// Activate compiles a stored flow strictly, rejecting unresolved branches.
func (rt *Runtime) Activate(ctx context.Context, flowID string) (*compiler.ExecutableFlow, []compiler.Diagnostic, error) {
	return rt.service.Activate(ctx, flowID)
}

// RunSession compiles the stored flow if needed and drives one call
// session through it.
func (rt *Runtime) RunSession(ctx context.Context, flowID string, session usecases.TelephonySession) (*dto.SessionResult, error) {
	exec, _, err := rt.service.Compiled(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return Run(ctx, exec, session)
}

// Run drives one call session through an already-compiled flow. It is the
// interpreter entry point for callers that manage compilation themselves;
// the same ExecutableFlow may be shared by concurrent sessions.
func Run(ctx context.Context, exec *compiler.ExecutableFlow, session usecases.TelephonySession) (*dto.SessionResult, error) {
	interp, err := usecases.NewInterpreter(exec, session)
	if err != nil {
		return nil, err
	}
	return interp.Run(ctx), nil
}
