package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ivrflow/ivrflow/internal/app/dto"
	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/internal/core/schedule"
	"github.com/ivrflow/ivrflow/internal/infrastructure/metrics"
	"github.com/ivrflow/ivrflow/pkg/compiler"
)

const (
	defaultMenuTimeout = 5 * time.Second
	defaultMaxSteps    = 1000
)

// Interpreter drives one call session through a compiled flow.
//
// Exactly one interpreter exists per active session and it owns no state
// shared with other sessions. Execution is single-threaded and
// cooperative: it blocks only inside telephony calls, observes the
// disconnect signal at every suspension point, and calendar decisions
// never suspend.
type Interpreter struct {
	exec      *compiler.ExecutableFlow
	session   TelephonySession
	now       func() time.Time
	maxSteps  int
	sessionID string
	state     dto.SessionState
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithClock overrides the wall clock used for calendar decisions.
func WithClock(now func() time.Time) InterpreterOption {
	return func(i *Interpreter) { i.now = now }
}

// WithMaxSteps bounds the number of node transitions per session.
func WithMaxSteps(n int) InterpreterOption {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxSteps = n
		}
	}
}

// WithSessionID sets the session identifier instead of generating one.
func WithSessionID(id string) InterpreterOption {
	return func(i *Interpreter) { i.sessionID = id }
}

// NewInterpreter creates an interpreter for one call session.
func NewInterpreter(exec *compiler.ExecutableFlow, session TelephonySession, opts ...InterpreterOption) (*Interpreter, error) {
	if exec == nil {
		return nil, dto.ErrNilExecutableFlow
	}
	if session == nil {
		return nil, dto.ErrNilTelephonySession
	}
	i := &Interpreter{
		exec:     exec,
		session:  session,
		now:      time.Now,
		maxSteps: defaultMaxSteps,
		state:    dto.SessionStateRunning,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.sessionID == "" {
		i.sessionID = uuid.NewString()
	}
	return i, nil
}

// State returns the interpreter's current state.
func (i *Interpreter) State() dto.SessionState { return i.state }

// Run executes the flow until the session terminates and returns the
// result. It never panics on malformed flows: an unresolved transition
// target terminates the session with a flow error.
func (i *Interpreter) Run(ctx context.Context) *dto.SessionResult {
	res := &dto.SessionResult{
		SessionID: i.sessionID,
		FlowID:    i.exec.FlowID(),
		StartTime: time.Now(),
	}
	metrics.IncSessionsStarted()

	reason := i.run(ctx, res)

	i.state = dto.SessionStateTerminated
	res.Reason = reason
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	metrics.SessionTerminated(string(reason))
	return res
}

func (i *Interpreter) run(ctx context.Context, res *dto.SessionResult) dto.TerminationReason {
	current := i.exec.Entry()

	for step := 0; ; step++ {
		if step >= i.maxSteps {
			return dto.TerminationFlowError
		}
		if i.disconnected(ctx) {
			return dto.TerminationCallerDisconnected
		}
		node, ok := i.exec.Node(current)
		if !ok {
			return dto.TerminationFlowError
		}

		i.state = dto.SessionStateRunning
		stepStart := time.Now()
		portID, reason := i.execNode(ctx, node)

		res.Steps = append(res.Steps, dto.StepTrace{
			Step:      step + 1,
			NodeID:    node.ID,
			NodeType:  node.Type,
			PortID:    portID,
			StartTime: stepStart,
			Duration:  time.Since(stepStart),
			Reason:    reason,
		})
		if reason != "" {
			return reason
		}

		next, ok := i.exec.Target(node.ID, portID)
		if !ok {
			// Dangling transition target, e.g. a save-time warning that
			// was never fixed.
			return dto.TerminationFlowError
		}
		current = next
	}
}

// execNode runs one node's behavior and returns either the output port to
// leave through, or a termination reason.
func (i *Interpreter) execNode(ctx context.Context, node *flow.Node) (string, dto.TerminationReason) {
	switch node.Type {
	case flow.NodeTypeStart:
		return flow.PortOut, ""
	case flow.NodeTypeMedia:
		return i.execMedia(ctx, node)
	case flow.NodeTypeMenu:
		return i.execMenu(ctx, node)
	case flow.NodeTypeCalendar:
		// Pure and total, never suspends.
		return schedule.Resolve(node.Calendar, i.now()), ""
	case flow.NodeTypeTransfer:
		return i.execTransfer(ctx, node)
	case flow.NodeTypeVoicemail:
		return i.execVoicemail(ctx, node)
	case flow.NodeTypeHangup:
		// Best effort: the session may already be gone.
		_ = i.session.Hangup(ctx)
		return "", dto.TerminationHungUp
	default:
		return "", dto.TerminationFlowError
	}
}

func (i *Interpreter) execMedia(ctx context.Context, node *flow.Node) (string, dto.TerminationReason) {
	prompt := ""
	if node.Media != nil {
		prompt = node.Media.Prompt
	}
	if err := i.session.Play(ctx, prompt); err != nil {
		return "", i.ioFailure(ctx)
	}
	return flow.PortOut, ""
}

func (i *Interpreter) execMenu(ctx context.Context, node *flow.Node) (string, dto.TerminationReason) {
	if node.Menu == nil {
		return flow.PortTimeout, ""
	}
	if node.Menu.Prompt != "" {
		if err := i.session.Play(ctx, node.Menu.Prompt); err != nil {
			return "", i.ioFailure(ctx)
		}
	}

	timeout := time.Duration(node.Menu.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultMenuTimeout
	}

	i.state = dto.SessionStateAwaitingInput
	digit, err := i.session.CollectDigit(ctx, timeout)
	if err != nil {
		return "", i.ioFailure(ctx)
	}
	for _, opt := range node.Menu.Options {
		if opt.Key == digit {
			return flow.OptionPortID(opt.Key), ""
		}
	}
	// No input, or a digit no option maps: both take the timeout branch.
	return flow.PortTimeout, ""
}

func (i *Interpreter) execTransfer(ctx context.Context, node *flow.Node) (string, dto.TerminationReason) {
	if node.Transfer == nil {
		return "", dto.TerminationFlowError
	}
	if err := i.session.Transfer(ctx, node.Transfer.Destination); err != nil {
		if i.disconnected(ctx) {
			return "", dto.TerminationCallerDisconnected
		}
		if _, ok := i.exec.Target(node.ID, flow.PortFailure); ok {
			return flow.PortFailure, ""
		}
		return "", dto.TerminationTransferFailed
	}
	return "", dto.TerminationTransferred
}

func (i *Interpreter) execVoicemail(ctx context.Context, node *flow.Node) (string, dto.TerminationReason) {
	if node.Voicemail != nil && node.Voicemail.Prompt != "" {
		if err := i.session.Play(ctx, node.Voicemail.Prompt); err != nil {
			return "", i.ioFailure(ctx)
		}
	}
	if err := i.session.RecordMessage(ctx); err != nil {
		return "", i.ioFailure(ctx)
	}
	return "", dto.TerminationVoicemailLeft
}

// disconnected observes the external disconnect signal without blocking.
func (i *Interpreter) disconnected(ctx context.Context) bool {
	select {
	case <-i.session.Disconnected():
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// ioFailure maps a telephony I/O error to a termination reason: a failure
// caused by the caller hanging up is a disconnect, anything else ends the
// session with a flow error. Failures never cross session boundaries.
func (i *Interpreter) ioFailure(ctx context.Context) dto.TerminationReason {
	if i.disconnected(ctx) {
		return dto.TerminationCallerDisconnected
	}
	return dto.TerminationFlowError
}
