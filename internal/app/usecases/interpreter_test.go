package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivrflow/ivrflow/internal/app/dto"
	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/pkg/compiler"
)

// fakeSession is a scripted telephony session: queued digits, optional
// injected failures, and a closable disconnect channel.
type fakeSession struct {
	played      []string
	digits      []string
	playErr     error
	transferErr error
	transferred []string
	recorded    int
	hungUp      int
	disconnect  chan struct{}
}

func newFakeSession(digits ...string) *fakeSession {
	return &fakeSession{digits: digits, disconnect: make(chan struct{})}
}

func (s *fakeSession) Play(_ context.Context, prompt string) error {
	if s.playErr != nil {
		return s.playErr
	}
	s.played = append(s.played, prompt)
	return nil
}

func (s *fakeSession) CollectDigit(_ context.Context, _ time.Duration) (string, error) {
	if len(s.digits) == 0 {
		return "", nil // timeout
	}
	d := s.digits[0]
	s.digits = s.digits[1:]
	return d, nil
}

func (s *fakeSession) Transfer(_ context.Context, destination string) error {
	if s.transferErr != nil {
		return s.transferErr
	}
	s.transferred = append(s.transferred, destination)
	return nil
}

func (s *fakeSession) RecordMessage(_ context.Context) error {
	s.recorded++
	return nil
}

func (s *fakeSession) Hangup(_ context.Context) error {
	s.hungUp++
	return nil
}

func (s *fakeSession) Disconnected() <-chan struct{} { return s.disconnect }

func node(id string, typ flow.NodeType) *flow.Node {
	return &flow.Node{ID: id, Type: typ, Name: id}
}

func mediaN(id, prompt string) *flow.Node {
	n := node(id, flow.NodeTypeMedia)
	n.Media = &flow.MediaContent{Prompt: prompt}
	return n
}

func conn(from, fromPort, to string) *flow.Connection {
	return &flow.Connection{
		ID:         from + ":" + fromPort + "->" + to,
		FromNodeID: from,
		FromPortID: fromPort,
		ToNodeID:   to,
		ToPortID:   flow.PortIn,
	}
}

func compileFlow(t *testing.T, nodes []*flow.Node, conns ...*flow.Connection) *compiler.ExecutableFlow {
	t.Helper()
	res := compiler.Compile(&flow.FlowDefinition{
		ID:          "test-flow",
		Name:        "Test Flow",
		Nodes:       nodes,
		Connections: conns,
	}, compiler.ModeSave)
	for _, d := range res.Diagnostics {
		t.Logf("compile: %s", d.String())
	}
	require.NotNil(t, res.Flow)
	return res.Flow
}

func runFlow(t *testing.T, exec *compiler.ExecutableFlow, session TelephonySession, opts ...InterpreterOption) *dto.SessionResult {
	t.Helper()
	interp, err := NewInterpreter(exec, session, opts...)
	require.NoError(t, err)
	return interp.Run(context.Background())
}

func TestNewInterpreter_Errors(t *testing.T) {
	exec := compileFlow(t,
		[]*flow.Node{node("start", flow.NodeTypeStart), node("bye", flow.NodeTypeHangup)},
		conn("start", flow.PortOut, "bye"),
	)

	_, err := NewInterpreter(nil, newFakeSession())
	assert.ErrorIs(t, err, dto.ErrNilExecutableFlow)

	_, err = NewInterpreter(exec, nil)
	assert.ErrorIs(t, err, dto.ErrNilTelephonySession)
}

func TestInterpreter_LinearFlow(t *testing.T) {
	exec := compileFlow(t,
		[]*flow.Node{
			node("start", flow.NodeTypeStart),
			mediaN("welcome", "Welcome to support."),
			node("bye", flow.NodeTypeHangup),
		},
		conn("start", flow.PortOut, "welcome"),
		conn("welcome", flow.PortOut, "bye"),
	)
	session := newFakeSession()

	res := runFlow(t, exec, session, WithSessionID("s-1"))

	assert.Equal(t, "s-1", res.SessionID)
	assert.Equal(t, "test-flow", res.FlowID)
	assert.Equal(t, dto.TerminationHungUp, res.Reason)
	assert.Equal(t, []string{"Welcome to support."}, session.played)
	assert.Equal(t, 1, session.hungUp)

	require.Len(t, res.Steps, 2)
	assert.Equal(t, "welcome", res.Steps[0].NodeID)
	assert.Equal(t, flow.PortOut, res.Steps[0].PortID)
	assert.Equal(t, "bye", res.Steps[1].NodeID)
	assert.Equal(t, dto.TerminationHungUp, res.Steps[1].Reason)
}

func menuFlow(t *testing.T) *compiler.ExecutableFlow {
	t.Helper()
	menu := node("main", flow.NodeTypeMenu)
	menu.Menu = &flow.MenuContent{
		Prompt:     "Press 1 for sales, 2 for support.",
		TimeoutSec: 3,
		Options: []flow.MenuOption{
			{Key: "1", Label: "Sales"},
			{Key: "2", Label: "Support"},
		},
	}
	return compileFlow(t,
		[]*flow.Node{
			node("start", flow.NodeTypeStart),
			menu,
			mediaN("sales", "Sales is closed."),
			node("sales-bye", flow.NodeTypeHangup),
			node("timeout-bye", flow.NodeTypeHangup),
		},
		conn("start", flow.PortOut, "main"),
		conn("main", flow.OptionPortID("1"), "sales"),
		// Option 2 is deliberately left unconnected.
		conn("main", flow.PortTimeout, "timeout-bye"),
		conn("sales", flow.PortOut, "sales-bye"),
	)
}

func TestInterpreter_Menu(t *testing.T) {
	t.Run("mapped digit routes to its option", func(t *testing.T) {
		session := newFakeSession("1")
		res := runFlow(t, menuFlow(t), session)
		assert.Equal(t, dto.TerminationHungUp, res.Reason)
		assert.Contains(t, session.played, "Sales is closed.")
	})

	t.Run("unmapped digit takes the timeout branch", func(t *testing.T) {
		session := newFakeSession("9")
		res := runFlow(t, menuFlow(t), session)
		assert.Equal(t, dto.TerminationHungUp, res.Reason)
		assert.NotContains(t, session.played, "Sales is closed.")
		assert.Equal(t, flow.PortTimeout, res.Steps[0].PortID)
	})

	t.Run("timeout takes the timeout branch", func(t *testing.T) {
		session := newFakeSession() // no digits queued
		res := runFlow(t, menuFlow(t), session)
		assert.Equal(t, dto.TerminationHungUp, res.Reason)
		assert.Equal(t, flow.PortTimeout, res.Steps[0].PortID)
	})

	t.Run("digit on an unconnected option is a flow error", func(t *testing.T) {
		// Option 2 resolved to a port but its connection was never drawn;
		// the session must not silently fall back anywhere.
		session := newFakeSession("2")
		res := runFlow(t, menuFlow(t), session)
		assert.Equal(t, dto.TerminationFlowError, res.Reason)
	})
}

// businessFlow wires a typical support line: media greeting, calendar
// routing to a transfer during open hours and to voicemail otherwise.
func businessFlow(t *testing.T) *compiler.ExecutableFlow {
	t.Helper()
	cal := node("hours", flow.NodeTypeCalendar)
	cal.Calendar = &flow.CalendarContent{
		Timezone: "UTC",
		Events: []flow.Event{{
			ID:        "open",
			Name:      "Open hours",
			Recurring: true,
			Weekdays:  []string{"mon", "tue", "wed", "thu", "fri"},
			StartTime: "09:00",
			EndTime:   "18:00",
		}},
	}
	xfer := node("reception", flow.NodeTypeTransfer)
	xfer.Transfer = &flow.TransferContent{Destination: "sip:reception@pbx"}
	vm := node("voicemail", flow.NodeTypeVoicemail)
	vm.Voicemail = &flow.VoicemailContent{Prompt: "We are closed, leave a message."}

	return compileFlow(t,
		[]*flow.Node{node("start", flow.NodeTypeStart), mediaN("welcome", "Welcome."), cal, xfer, vm},
		conn("start", flow.PortOut, "welcome"),
		conn("welcome", flow.PortOut, "hours"),
		conn("hours", flow.EventPortID("open"), "reception"),
		conn("hours", flow.PortDefault, "voicemail"),
	)
}

func TestInterpreter_CalendarRouting(t *testing.T) {
	tuesday := time.Date(2026, time.January, 6, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.January, 4, 10, 0, 0, 0, time.UTC)

	t.Run("open hours transfer", func(t *testing.T) {
		session := newFakeSession()
		res := runFlow(t, businessFlow(t), session, WithClock(func() time.Time { return tuesday }))

		assert.Equal(t, dto.TerminationTransferred, res.Reason)
		assert.Equal(t, []string{"sip:reception@pbx"}, session.transferred)
		assert.Equal(t, 0, session.recorded)
	})

	t.Run("closed hours voicemail", func(t *testing.T) {
		session := newFakeSession()
		res := runFlow(t, businessFlow(t), session, WithClock(func() time.Time { return sunday }))

		assert.Equal(t, dto.TerminationVoicemailLeft, res.Reason)
		assert.Empty(t, session.transferred)
		assert.Equal(t, 1, session.recorded)
		assert.Contains(t, session.played, "We are closed, leave a message.")
	})
}

func TestInterpreter_Transfer(t *testing.T) {
	transferFlow := func(t *testing.T, withFailureBranch bool) *compiler.ExecutableFlow {
		t.Helper()
		xfer := node("xfer", flow.NodeTypeTransfer)
		xfer.Transfer = &flow.TransferContent{Destination: "1001"}
		nodes := []*flow.Node{node("start", flow.NodeTypeStart), xfer}
		conns := []*flow.Connection{conn("start", flow.PortOut, "xfer")}
		if withFailureBranch {
			vm := node("vm", flow.NodeTypeVoicemail)
			vm.Voicemail = &flow.VoicemailContent{}
			nodes = append(nodes, vm)
			conns = append(conns, conn("xfer", flow.PortFailure, "vm"))
		}
		return compileFlow(t, nodes, conns...)
	}

	t.Run("success terminates with transferred", func(t *testing.T) {
		session := newFakeSession()
		res := runFlow(t, transferFlow(t, true), session)
		assert.Equal(t, dto.TerminationTransferred, res.Reason)
	})

	t.Run("failure routes to the failure branch", func(t *testing.T) {
		session := newFakeSession()
		session.transferErr = errors.New("destination busy")
		res := runFlow(t, transferFlow(t, true), session)
		assert.Equal(t, dto.TerminationVoicemailLeft, res.Reason)
		assert.Equal(t, 1, session.recorded)
	})

	t.Run("failure without a failure branch terminates", func(t *testing.T) {
		session := newFakeSession()
		session.transferErr = errors.New("destination busy")
		res := runFlow(t, transferFlow(t, false), session)
		assert.Equal(t, dto.TerminationTransferFailed, res.Reason)
	})
}

func TestInterpreter_Disconnect(t *testing.T) {
	t.Run("before the first node", func(t *testing.T) {
		session := newFakeSession()
		close(session.disconnect)
		res := runFlow(t, businessFlow(t), session)
		assert.Equal(t, dto.TerminationCallerDisconnected, res.Reason)
		assert.Empty(t, res.Steps)
	})

	t.Run("during playback", func(t *testing.T) {
		session := newFakeSession()
		session.playErr = errors.New("channel gone")
		close(session.disconnect)
		res := runFlow(t, businessFlow(t), session)
		assert.Equal(t, dto.TerminationCallerDisconnected, res.Reason)
	})

	t.Run("context cancellation counts as disconnect", func(t *testing.T) {
		session := newFakeSession()
		interp, err := NewInterpreter(businessFlow(t), session)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := interp.Run(ctx)
		assert.Equal(t, dto.TerminationCallerDisconnected, res.Reason)
	})
}

func TestInterpreter_IOFailureWithoutDisconnect(t *testing.T) {
	session := newFakeSession()
	session.playErr = errors.New("codec negotiation failed")
	res := runFlow(t, businessFlow(t), session)
	assert.Equal(t, dto.TerminationFlowError, res.Reason)
}

func TestInterpreter_MaxSteps(t *testing.T) {
	exec := compileFlow(t,
		[]*flow.Node{
			node("start", flow.NodeTypeStart),
			mediaN("m1", "one"),
			mediaN("m2", "two"),
			mediaN("m3", "three"),
			node("bye", flow.NodeTypeHangup),
		},
		conn("start", flow.PortOut, "m1"),
		conn("m1", flow.PortOut, "m2"),
		conn("m2", flow.PortOut, "m3"),
		conn("m3", flow.PortOut, "bye"),
	)
	session := newFakeSession()

	res := runFlow(t, exec, session, WithMaxSteps(2))

	assert.Equal(t, dto.TerminationFlowError, res.Reason)
	assert.Len(t, res.Steps, 2)
}

func TestInterpreter_StateTransitions(t *testing.T) {
	session := newFakeSession()
	interp, err := NewInterpreter(businessFlow(t), session)
	require.NoError(t, err)
	assert.Equal(t, dto.SessionStateRunning, interp.State())

	interp.Run(context.Background())
	assert.Equal(t, dto.SessionStateTerminated, interp.State())
}
