// Package compiler validates a user-edited FlowDefinition and flattens it
// into an ExecutableFlow for the interpreter.
//
// All findings are collected into diagnostics, never thrown: a compile in
// save mode always returns, with either a flow or nil. The compiler never
// mutates its input.
package compiler

import (
	"time"

	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/pkg/validation"
)

// Compile validates the definition and, when error-free, produces an
// ExecutableFlow. Validation steps, all collected:
//
//  1. exactly one start node, with its output connected
//  2. connections reference existing nodes and currently-resolving ports
//  3. at most one connection per port on either end; a later connection
//     replaces an earlier one ("last write wins")
//  4. required (non-fallback) menu/calendar branches connected - warning
//     in save mode, error in activate mode
//  5. reachability from start; unreachable nodes are warned about and
//     excluded from the compiled flow
//  6. dead-end and always-fallback content warnings
//  7. no cycle made only of calendar nodes (the one node type that never
//     suspends, so such a cycle would spin without yielding)
func Compile(def *flow.FlowDefinition, mode Mode) *Result {
	res := &Result{}
	if def == nil {
		res.errorf("", "", "flow definition is nil")
		return res
	}

	if err := validation.ValidateDefinition(def); err != nil {
		if verrs, ok := err.(validation.ValidationErrors); ok {
			for _, ve := range verrs {
				res.errorf("", "", "%s", ve.Error())
			}
		} else {
			res.errorf("", "", "%s", err.Error())
		}
	}

	nodes := indexNodes(def, res)
	start := findStart(def, res)
	conns := canonicalConnections(def, nodes, res)

	routes := make(map[routeKey]string, len(conns))
	for _, c := range conns {
		routes[routeKey{nodeID: c.FromNodeID, portID: c.FromPortID}] = c.ToNodeID
	}

	if start != nil {
		if _, ok := routes[routeKey{nodeID: start.ID, portID: flow.PortOut}]; !ok {
			res.errorf(start.ID, "", "start node output is not connected")
		}
	}

	reachable := reachableFrom(start, nodes, routes)
	for id, n := range nodes {
		if !reachable[id] {
			res.warnf(n.ID, "", "node is unreachable from start and will be excluded")
		}
	}

	// Content and branch checks apply only to nodes that stay in the
	// compiled flow; unreachable ones were already excluded above.
	checkContent(nodes, reachable, res)
	checkRequiredBranches(nodes, routes, reachable, mode, res)
	checkDeadEnds(nodes, routes, reachable, res)

	if cycleNode := calendarCycle(nodes, routes); cycleNode != "" {
		res.errorf(cycleNode, "", "cycle through calendar nodes: calendar nodes never suspend, so this loop cannot terminate")
	}

	if res.HasErrors() {
		return res
	}

	exec := &ExecutableFlow{
		flowID:   def.ID,
		flowName: def.Name,
		version:  def.Version,
		startID:  start.ID,
		entryID:  routes[routeKey{nodeID: start.ID, portID: flow.PortOut}],
		nodes:    make(map[string]*flow.Node, len(reachable)),
		routes:   make(map[routeKey]string, len(routes)),
	}
	for id := range reachable {
		exec.nodes[id] = nodes[id].Clone()
	}
	for k, target := range routes {
		if reachable[k.nodeID] && reachable[target] {
			exec.routes[k] = target
		}
	}
	res.Flow = exec
	return res
}

func indexNodes(def *flow.FlowDefinition, res *Result) map[string]*flow.Node {
	nodes := make(map[string]*flow.Node, len(def.Nodes))
	for _, n := range def.Nodes {
		if n == nil {
			res.errorf("", "", "nil node in definition")
			continue
		}
		if err := n.Validate(); err != nil {
			res.errorf(n.ID, "", "invalid node: %s", err.Error())
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			res.errorf(n.ID, "", "duplicate node ID")
			continue
		}
		nodes[n.ID] = n
	}
	return nodes
}

func findStart(def *flow.FlowDefinition, res *Result) *flow.Node {
	var start *flow.Node
	count := 0
	for _, n := range def.Nodes {
		if n != nil && n.IsStart() {
			count++
			if start == nil {
				start = n
			}
		}
	}
	switch {
	case count == 0:
		res.errorf("", "", "flow has no start node")
		return nil
	case count > 1:
		res.errorf(start.ID, "", "flow has %d start nodes, expected exactly one", count)
	}
	return start
}

// canonicalConnections validates each connection and enforces the at most
// one connection per port guarantee. Editing can transiently leave several
// connections on one port; only the latest surviving one is canonical and
// the replaced ones are reported as warnings.
func canonicalConnections(def *flow.FlowDefinition, nodes map[string]*flow.Node, res *Result) []*flow.Connection {
	type portRef struct{ node, port string }
	byOut := make(map[portRef]*flow.Connection)
	byIn := make(map[portRef]*flow.Connection)
	dropped := make(map[*flow.Connection]bool)

	for _, c := range def.Connections {
		if c == nil {
			res.errorf("", "", "nil connection in definition")
			continue
		}
		from, okFrom := nodes[c.FromNodeID]
		if !okFrom {
			res.errorf("", c.ID, "connection source node %q does not exist", c.FromNodeID)
			continue
		}
		to, okTo := nodes[c.ToNodeID]
		if !okTo {
			res.errorf("", c.ID, "connection target node %q does not exist", c.ToNodeID)
			continue
		}
		if c.FromNodeID == c.ToNodeID {
			res.errorf(c.FromNodeID, c.ID, "node output is connected back to its own input")
			continue
		}
		if !flow.HasPort(from, c.FromPortID, flow.PortDirectionOutput) {
			res.errorf(from.ID, c.ID, "output port %q does not resolve on node (dangling port reference)", c.FromPortID)
			continue
		}
		if !flow.HasPort(to, c.ToPortID, flow.PortDirectionInput) {
			res.errorf(to.ID, c.ID, "input port %q does not resolve on node (dangling port reference)", c.ToPortID)
			continue
		}

		outRef := portRef{c.FromNodeID, c.FromPortID}
		inRef := portRef{c.ToNodeID, c.ToPortID}
		if prev, ok := byOut[outRef]; ok {
			dropped[prev] = true
			res.warnf(prev.FromNodeID, prev.ID, "output port %q carries multiple connections; keeping the latest", prev.FromPortID)
		}
		if prev, ok := byIn[inRef]; ok && !dropped[prev] {
			dropped[prev] = true
			res.warnf(prev.ToNodeID, prev.ID, "input port %q receives multiple connections; keeping the latest", prev.ToPortID)
		}
		byOut[outRef] = c
		byIn[inRef] = c
	}

	var out []*flow.Connection
	for _, c := range byOut {
		if !dropped[c] {
			out = append(out, c)
		}
	}
	return out
}

// checkContent emits content warnings: nodes that will always take their
// fallback branch, and recurring windows that can never match.
func checkContent(nodes map[string]*flow.Node, reachable map[string]bool, res *Result) {
	for _, n := range nodes {
		if !reachable[n.ID] {
			continue
		}
		switch n.Type {
		case flow.NodeTypeMenu:
			if n.Menu == nil || len(n.Menu.Options) == 0 {
				res.warnf(n.ID, "", "menu has no options; every call will take the timeout branch")
			}
		case flow.NodeTypeCalendar:
			if n.Calendar == nil || len(n.Calendar.Events) == 0 {
				res.warnf(n.ID, "", "calendar has no events; every call will take the default branch")
				continue
			}
			for _, ev := range n.Calendar.Events {
				if inverted(ev) {
					res.warnf(n.ID, "", "event %q has end time %s not after start time %s; it can never match (overnight windows are not supported)", ev.Name, ev.EndTime, ev.StartTime)
				}
			}
		}
	}
}

// inverted reports a time window whose end is not after its start.
func inverted(ev flow.Event) bool {
	if !ev.Recurring && ev.AllDay {
		return false
	}
	start, err := time.Parse("15:04", ev.StartTime)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", ev.EndTime)
	if err != nil {
		return false
	}
	return !end.After(start)
}

// checkRequiredBranches flags unconnected non-fallback outputs of menu and
// calendar nodes: a node still under construction is fine to save but
// fatal to activate.
func checkRequiredBranches(nodes map[string]*flow.Node, routes map[routeKey]string, reachable map[string]bool, mode Mode, res *Result) {
	for _, n := range nodes {
		if !reachable[n.ID] {
			continue
		}
		if n.Type != flow.NodeTypeMenu && n.Type != flow.NodeTypeCalendar {
			continue
		}
		for _, p := range flow.OutputPorts(n) {
			if flow.IsFallbackPort(n, p.ID) {
				continue
			}
			if _, ok := routes[routeKey{nodeID: n.ID, portID: p.ID}]; ok {
				continue
			}
			if mode == ModeActivate {
				res.errorf(n.ID, "", "required branch %q is not connected", p.ID)
			} else {
				res.warnf(n.ID, "", "branch %q is not connected yet; selecting it at runtime ends the call with a flow error", p.ID)
			}
		}
	}
}

func reachableFrom(start *flow.Node, nodes map[string]*flow.Node, routes map[routeKey]string) map[string]bool {
	reachable := make(map[string]bool, len(nodes))
	if start == nil {
		return reachable
	}
	queue := []string{start.ID}
	reachable[start.ID] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := nodes[id]
		if !ok {
			continue
		}
		for _, p := range flow.OutputPorts(n) {
			target, ok := routes[routeKey{nodeID: id, portID: p.ID}]
			if !ok || reachable[target] {
				continue
			}
			if _, exists := nodes[target]; !exists {
				continue
			}
			reachable[target] = true
			queue = append(queue, target)
		}
	}
	return reachable
}

// checkDeadEnds warns about reachable non-terminal nodes with no outgoing
// connection at all: at runtime those branches become implicit hangups.
func checkDeadEnds(nodes map[string]*flow.Node, routes map[routeKey]string, reachable map[string]bool, res *Result) {
	for id, n := range nodes {
		if !reachable[id] || n.IsTerminal() {
			continue
		}
		connected := 0
		for _, p := range flow.OutputPorts(n) {
			if _, ok := routes[routeKey{nodeID: id, portID: p.ID}]; ok {
				connected++
			}
		}
		if connected == 0 && !n.IsStart() {
			if n.Type == flow.NodeTypeTransfer {
				res.warnf(n.ID, "", "transfer failure branch is not connected; a failed transfer ends the call")
			} else {
				res.warnf(n.ID, "", "branch dead-ends here; at runtime this becomes an implicit hangup")
			}
		}
	}
}

// calendarCycle looks for a directed cycle using only calendar nodes.
// Calendar nodes are the only type that transitions without suspending,
// so a calendar-only cycle would loop forever within one scheduling turn.
// Checked over the whole canonical graph, not just the reachable part:
// a node's single input port carries at most one connection, so a cycle
// can only exist while still disconnected from start, and that is exactly
// when it should be caught.
// DFS with coloring, as in any back-edge search.
func calendarCycle(nodes map[string]*flow.Node, routes map[routeKey]string) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)

	isCalendar := func(id string) bool {
		n, ok := nodes[id]
		return ok && n.Type == flow.NodeTypeCalendar
	}

	var dfs func(string) string
	dfs = func(u string) string {
		color[u] = gray
		n := nodes[u]
		for _, p := range flow.OutputPorts(n) {
			v, ok := routes[routeKey{nodeID: u, portID: p.ID}]
			if !ok || !isCalendar(v) {
				continue
			}
			if color[v] == gray {
				return v
			}
			if color[v] == white {
				if hit := dfs(v); hit != "" {
					return hit
				}
			}
		}
		color[u] = black
		return ""
	}

	for id := range nodes {
		if isCalendar(id) && color[id] == white {
			if hit := dfs(id); hit != "" {
				return hit
			}
		}
	}
	return ""
}
