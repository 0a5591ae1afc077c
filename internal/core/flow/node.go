// Package flow provides node definitions
package flow

// NodeType represents the call-handling behavior of a node
type NodeType string

const (
	// NodeTypeStart marks the entry point of a flow
	NodeTypeStart NodeType = "start"
	// NodeTypeMenu plays a prompt and routes on a collected digit
	NodeTypeMenu NodeType = "menu"
	// NodeTypeMedia plays a prompt and continues
	NodeTypeMedia NodeType = "media"
	// NodeTypeCalendar routes by time-of-day/calendar rules
	NodeTypeCalendar NodeType = "calendar"
	// NodeTypeTransfer attempts to transfer the call
	NodeTypeTransfer NodeType = "transfer"
	// NodeTypeVoicemail records a message and ends the call
	NodeTypeVoicemail NodeType = "voicemail"
	// NodeTypeHangup ends the call
	NodeTypeHangup NodeType = "hangup"
)

// validNodeTypes is the closed set accepted from the editor.
var validNodeTypes = map[NodeType]bool{
	NodeTypeStart:     true,
	NodeTypeMenu:      true,
	NodeTypeMedia:     true,
	NodeTypeCalendar:  true,
	NodeTypeTransfer:  true,
	NodeTypeVoicemail: true,
	NodeTypeHangup:    true,
}

// Node represents one typed unit of call behavior in the flow graph
// PRINCIPLES:
// - KISS: Simple node representation
// - SRP: Only responsible for node data, not execution
type Node struct {
	ID   string   `json:"id" validate:"required,node_id"`
	Type NodeType `json:"type" validate:"required,node_type"`
	Name string   `json:"name" validate:"required,min=1,max=100"`

	// Editor layout hints, ignored by the compiler.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Type-specific content; exactly one is set, matching Type.
	Menu      *MenuContent      `json:"-"`
	Media     *MediaContent     `json:"-"`
	Calendar  *CalendarContent  `json:"-"`
	Transfer  *TransferContent  `json:"-"`
	Voicemail *VoicemailContent `json:"-"`
}

// MenuOption is one selectable entry of a menu node, keyed by DTMF digit.
type MenuOption struct {
	Key   string `json:"key" validate:"required,len=1"`
	Label string `json:"label"`
}

// MenuContent holds menu node configuration.
type MenuContent struct {
	Prompt     string       `json:"prompt"`
	TimeoutSec int          `json:"timeout_sec" validate:"min=0,max=120"`
	Options    []MenuOption `json:"options" validate:"dive"`
}

// MediaContent holds media node configuration.
type MediaContent struct {
	Prompt string `json:"prompt"`
}

// CalendarContent holds calendar node configuration. Event order is
// priority: the first matching event wins.
type CalendarContent struct {
	Timezone string  `json:"timezone" validate:"required,timezone_name"`
	Events   []Event `json:"events" validate:"dive"`
}

// TransferContent holds transfer node configuration.
type TransferContent struct {
	Destination string `json:"destination" validate:"required"`
}

// VoicemailContent holds voicemail node configuration.
type VoicemailContent struct {
	Prompt string `json:"prompt"`
}

// Validate ensures node integrity
// PRINCIPLES:
// - SRP: Single responsibility - validation only
// - KISS: Simple validation rules, easy to understand
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Name == "" {
		return ErrInvalidNodeName
	}
	if !validNodeTypes[n.Type] {
		return ErrInvalidNodeType
	}
	if n.Type == NodeTypeTransfer && n.Transfer == nil {
		return ErrMissingContent
	}
	if n.Type == NodeTypeCalendar && n.Calendar == nil {
		return ErrMissingContent
	}
	return nil
}

// IsStart reports whether the node is the flow entry point.
func (n *Node) IsStart() bool {
	return n.Type == NodeTypeStart
}

// IsTerminal reports whether the node ends a call session.
func (n *Node) IsTerminal() bool {
	switch n.Type {
	case NodeTypeHangup, NodeTypeVoicemail:
		return true
	}
	return false
}

// Clone returns a deep copy of the node, including its content.
// Used by the compiler so that a compiled flow never aliases
// editor-owned state.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Menu != nil {
		mc := *n.Menu
		mc.Options = append([]MenuOption(nil), n.Menu.Options...)
		c.Menu = &mc
	}
	if n.Media != nil {
		med := *n.Media
		c.Media = &med
	}
	if n.Calendar != nil {
		cc := *n.Calendar
		cc.Events = append([]Event(nil), n.Calendar.Events...)
		for i := range cc.Events {
			cc.Events[i].Weekdays = append([]string(nil), cc.Events[i].Weekdays...)
		}
		c.Calendar = &cc
	}
	if n.Transfer != nil {
		tc := *n.Transfer
		c.Transfer = &tc
	}
	if n.Voicemail != nil {
		vc := *n.Voicemail
		c.Voicemail = &vc
	}
	return &c
}
