package compiler

import (
	"github.com/ivrflow/ivrflow/internal/core/flow"
)

type routeKey struct {
	nodeID string
	portID string
}

// ExecutableFlow is the compiled, flattened form of a FlowDefinition:
// every surviving connection resolved to a direct (node, port) -> node
// lookup, unreachable nodes excluded, node content deep-copied so later
// edits to the source definition never affect running sessions
// (copy-on-compile, not in-place patch).
//
// An ExecutableFlow is read-only after compilation and safe to share
// across concurrent interpreters.
type ExecutableFlow struct {
	flowID   string
	flowName string
	version  string
	startID  string
	entryID  string
	nodes    map[string]*flow.Node
	routes   map[routeKey]string
}

// FlowID returns the source definition's ID.
func (e *ExecutableFlow) FlowID() string { return e.flowID }

// FlowName returns the source definition's display name.
func (e *ExecutableFlow) FlowName() string { return e.flowName }

// Version returns the source definition's version stamp.
func (e *ExecutableFlow) Version() string { return e.version }

// Entry returns the ID of the first node a session executes: the target
// of the start node's output port.
func (e *ExecutableFlow) Entry() string { return e.entryID }

// Node returns the compiled node with the given ID.
func (e *ExecutableFlow) Node(id string) (*flow.Node, bool) {
	n, ok := e.nodes[id]
	return n, ok
}

// Target resolves the node reached by leaving nodeID through portID.
// O(1) per traversal step.
func (e *ExecutableFlow) Target(nodeID, portID string) (string, bool) {
	t, ok := e.routes[routeKey{nodeID: nodeID, portID: portID}]
	return t, ok
}

// NodeCount returns the number of reachable nodes in the compiled flow.
func (e *ExecutableFlow) NodeCount() int { return len(e.nodes) }
