// Package flow provides port resolution for nodes
package flow

// PortDirection represents the direction of control flow through a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// Fixed port identifiers. Dynamic ports derive their IDs from content
// via OptionPortID and EventPortID.
const (
	PortIn      = "in"
	PortOut     = "out"
	PortTimeout = "timeout"
	PortDefault = "default"
	PortFailure = "failure"
)

// Port is a typed connection point on a node.
type Port struct {
	ID        string        `json:"id"`
	NodeID    string        `json:"node_id"`
	Direction PortDirection `json:"direction"`
	Label     string        `json:"label,omitempty"`
}

// OptionPortID derives the stable output port ID for a menu option.
func OptionPortID(key string) string { return "option:" + key }

// EventPortID derives the stable output port ID for a calendar event.
func EventPortID(eventID string) string { return "event:" + eventID }

// ResolvePorts computes the complete port list of a node.
//
// The list is a pure derivation of node type and content: given identical
// content it is identical on every call, in the same order. Dynamic ports
// (one per menu option, one per calendar event) appear in content order,
// followed by the type-specific fallback output. Connections reference
// these IDs, so they stay valid as long as the source content item exists.
func ResolvePorts(n *Node) []Port {
	if n == nil {
		return nil
	}
	var ports []Port
	in := func() {
		ports = append(ports, Port{ID: PortIn, NodeID: n.ID, Direction: PortDirectionInput})
	}
	out := func(id, label string) {
		ports = append(ports, Port{ID: id, NodeID: n.ID, Direction: PortDirectionOutput, Label: label})
	}

	switch n.Type {
	case NodeTypeStart:
		// Start has no input port.
		out(PortOut, "")
	case NodeTypeMedia:
		in()
		out(PortOut, "")
	case NodeTypeMenu:
		in()
		if n.Menu != nil {
			for _, opt := range n.Menu.Options {
				out(OptionPortID(opt.Key), opt.Label)
			}
		}
		out(PortTimeout, "timeout")
	case NodeTypeCalendar:
		in()
		if n.Calendar != nil {
			for _, ev := range n.Calendar.Events {
				out(EventPortID(ev.ID), ev.Name)
			}
		}
		out(PortDefault, "default")
	case NodeTypeTransfer:
		in()
		out(PortFailure, "failure")
	case NodeTypeVoicemail, NodeTypeHangup:
		in()
	}
	return ports
}

// OutputPorts returns the node's output ports in resolution order.
func OutputPorts(n *Node) []Port {
	var outs []Port
	for _, p := range ResolvePorts(n) {
		if p.Direction == PortDirectionOutput {
			outs = append(outs, p)
		}
	}
	return outs
}

// HasPort reports whether the node currently resolves a port with the
// given ID and direction.
func HasPort(n *Node, portID string, dir PortDirection) bool {
	for _, p := range ResolvePorts(n) {
		if p.ID == portID && p.Direction == dir {
			return true
		}
	}
	return false
}

// IsFallbackPort reports whether portID is the node's synthetic fallback
// output (menu timeout, calendar default). Fallback ports are exempt from
// the activation-time "all branches connected" rule.
func IsFallbackPort(n *Node, portID string) bool {
	switch n.Type {
	case NodeTypeMenu:
		return portID == PortTimeout
	case NodeTypeCalendar:
		return portID == PortDefault
	}
	return false
}
