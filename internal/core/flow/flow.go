// Package flow provides the core IVR flow domain entities
// following Clean Architecture principles with zero external dependencies
// beyond ID generation.
package flow

import (
	"time"

	"github.com/google/uuid"
)

// FlowDefinition is the persisted, user-editable call-handling graph
// PRINCIPLES:
// - KISS: Simple struct, no complex hierarchies
// - SRP: Only responsible for graph structure, not compilation or execution
type FlowDefinition struct {
	ID          string        `json:"id" validate:"required"`
	Name        string        `json:"name" validate:"required,min=1,max=200"`
	Version     string        `json:"version,omitempty"`
	Nodes       []*Node       `json:"nodes" validate:"required,min=1,dive,required"`
	Connections []*Connection `json:"connections" validate:"dive,required"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
}

// Connection routes control from one node's output port to another
// node's input port.
type Connection struct {
	ID         string `json:"id" validate:"required"`
	FromNodeID string `json:"fromNodeId" validate:"required,node_id"`
	FromPortID string `json:"fromPortId" validate:"required,port_id"`
	ToNodeID   string `json:"toNodeId" validate:"required,node_id"`
	ToPortID   string `json:"toPortId" validate:"required,port_id"`
}

// Validate ensures basic flow integrity
// PRINCIPLES:
// - SRP: Single responsibility - validation only
// - KISS: Simple validation rules; deep structural checks live in the compiler
func (d *FlowDefinition) Validate() error {
	if d.Name == "" {
		return ErrInvalidFlowName
	}
	seen := make(map[string]bool, len(d.Nodes))
	starts := 0
	for _, n := range d.Nodes {
		if n == nil {
			return ErrNilNode
		}
		if err := n.Validate(); err != nil {
			return err
		}
		if seen[n.ID] {
			return ErrDuplicateNode
		}
		seen[n.ID] = true
		if n.IsStart() {
			starts++
		}
	}
	if starts == 0 {
		return ErrNoStartNode
	}
	if starts > 1 {
		return ErrMultipleStartNode
	}
	return nil
}

// NodeByID returns the node with the given ID.
func (d *FlowDefinition) NodeByID(id string) (*Node, bool) {
	for _, n := range d.Nodes {
		if n != nil && n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// StartNode returns the flow's single start node.
func (d *FlowDefinition) StartNode() (*Node, bool) {
	for _, n := range d.Nodes {
		if n != nil && n.IsStart() {
			return n, true
		}
	}
	return nil, false
}

// AddNode adds a node to the flow
// PRINCIPLES:
// - KISS: Direct and simple implementation
// - SRP: Only adds the node, doesn't validate the whole flow
func (d *FlowDefinition) AddNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if _, exists := d.NodeByID(n.ID); exists {
		return ErrDuplicateNode
	}
	d.Nodes = append(d.Nodes, n)
	d.UpdatedAt = time.Now()
	return nil
}

// RemoveNode removes a node and every connection touching it.
func (d *FlowDefinition) RemoveNode(id string) bool {
	idx := -1
	for i, n := range d.Nodes {
		if n != nil && n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	d.Nodes = append(d.Nodes[:idx], d.Nodes[idx+1:]...)
	kept := d.Connections[:0]
	for _, c := range d.Connections {
		if c.FromNodeID == id || c.ToNodeID == id {
			continue
		}
		kept = append(kept, c)
	}
	d.Connections = kept
	d.UpdatedAt = time.Now()
	return true
}

// Connect creates a connection between two ports with replace-on-connect
// semantics: an output port carries at most one outgoing connection and an
// input port at most one incoming connection, so drawing over an occupied
// port replaces the prior connection ("last write wins").
//
// A zero-length loop (a node's output wired back to its own input) is
// rejected here as well as in the compiler.
func (d *FlowDefinition) Connect(fromNodeID, fromPortID, toNodeID, toPortID string) (*Connection, error) {
	from, ok := d.NodeByID(fromNodeID)
	if !ok {
		return nil, ErrSourceNodeNotFound
	}
	to, ok := d.NodeByID(toNodeID)
	if !ok {
		return nil, ErrTargetNodeNotFound
	}
	if fromNodeID == toNodeID {
		return nil, ErrZeroLengthLoop
	}
	if !HasPort(from, fromPortID, PortDirectionOutput) {
		if HasPort(from, fromPortID, PortDirectionInput) {
			return nil, ErrNotAnOutputPort
		}
		return nil, ErrPortNotFound
	}
	if !HasPort(to, toPortID, PortDirectionInput) {
		if HasPort(to, toPortID, PortDirectionOutput) {
			return nil, ErrNotAnInputPort
		}
		return nil, ErrPortNotFound
	}

	// Keyed replacement instead of duplicate detection: at most one
	// connection per (node, port) on either end.
	kept := d.Connections[:0]
	for _, c := range d.Connections {
		if c.FromNodeID == fromNodeID && c.FromPortID == fromPortID {
			continue
		}
		if c.ToNodeID == toNodeID && c.ToPortID == toPortID {
			continue
		}
		kept = append(kept, c)
	}
	d.Connections = kept

	conn := &Connection{
		ID:         uuid.NewString(),
		FromNodeID: fromNodeID,
		FromPortID: fromPortID,
		ToNodeID:   toNodeID,
		ToPortID:   toPortID,
	}
	d.Connections = append(d.Connections, conn)
	d.UpdatedAt = time.Now()
	return conn, nil
}

// PruneConnections drops connections whose source or target port no longer
// resolves, which happens after content edits remove a menu option or a
// calendar event. It returns the dropped connections.
func (d *FlowDefinition) PruneConnections() []*Connection {
	var dropped []*Connection
	kept := d.Connections[:0]
	for _, c := range d.Connections {
		from, okFrom := d.NodeByID(c.FromNodeID)
		to, okTo := d.NodeByID(c.ToNodeID)
		if okFrom && okTo &&
			HasPort(from, c.FromPortID, PortDirectionOutput) &&
			HasPort(to, c.ToPortID, PortDirectionInput) {
			kept = append(kept, c)
			continue
		}
		dropped = append(dropped, c)
	}
	d.Connections = kept
	if len(dropped) > 0 {
		d.UpdatedAt = time.Now()
	}
	return dropped
}

// Clone returns a deep copy of the definition.
func (d *FlowDefinition) Clone() *FlowDefinition {
	if d == nil {
		return nil
	}
	c := *d
	c.Nodes = make([]*Node, len(d.Nodes))
	for i, n := range d.Nodes {
		c.Nodes[i] = n.Clone()
	}
	c.Connections = make([]*Connection, len(d.Connections))
	for i, conn := range d.Connections {
		cc := *conn
		c.Connections[i] = &cc
	}
	return &c
}
