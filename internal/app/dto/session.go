package dto

import (
	"time"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

// TerminationReason is the final outcome of one call session.
type TerminationReason string

const (
	TerminationTransferred        TerminationReason = "transferred"
	TerminationVoicemailLeft      TerminationReason = "voicemail_left"
	TerminationHungUp             TerminationReason = "hung_up"
	TerminationTransferFailed     TerminationReason = "transfer_failed"
	TerminationFlowError          TerminationReason = "flow_error"
	TerminationCallerDisconnected TerminationReason = "caller_disconnected"
)

// SessionState is the interpreter's externally visible state.
type SessionState string

const (
	SessionStateRunning       SessionState = "running"
	SessionStateAwaitingInput SessionState = "awaiting_input"
	SessionStateTerminated    SessionState = "terminated"
)

// StepTrace records one node traversal of a session.
type StepTrace struct {
	Step      int               `json:"step"`
	NodeID    string            `json:"node_id"`
	NodeType  flow.NodeType     `json:"node_type"`
	PortID    string            `json:"port_id,omitempty"` // chosen output port, empty on termination
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Reason    TerminationReason `json:"reason,omitempty"` // set on the terminating step
}

// SessionResult summarizes one completed call session.
type SessionResult struct {
	SessionID string            `json:"session_id"`
	FlowID    string            `json:"flow_id"`
	Reason    TerminationReason `json:"reason"`
	Steps     []StepTrace       `json:"steps"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  time.Duration     `json:"duration"`
}
