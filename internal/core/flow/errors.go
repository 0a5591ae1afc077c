// Package flow defines domain-specific errors
package flow

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Flow errors
	ErrNilDefinition     = errors.New("flow definition cannot be nil")
	ErrInvalidFlowName   = errors.New("invalid flow name")
	ErrNoStartNode       = errors.New("flow has no start node")
	ErrMultipleStartNode = errors.New("flow has more than one start node")
	ErrFlowNotFound      = errors.New("flow not found")

	// Node errors
	ErrNilNode         = errors.New("node cannot be nil")
	ErrInvalidNodeID   = errors.New("invalid node ID")
	ErrInvalidNodeName = errors.New("invalid node name")
	ErrInvalidNodeType = errors.New("invalid node type")
	ErrNodeNotFound    = errors.New("node not found")
	ErrDuplicateNode   = errors.New("duplicate node ID")
	ErrMissingContent  = errors.New("node is missing type-specific content")

	// Connection errors
	ErrNilConnection      = errors.New("connection cannot be nil")
	ErrPortNotFound       = errors.New("port not found on node")
	ErrNotAnOutputPort    = errors.New("port is not an output port")
	ErrNotAnInputPort     = errors.New("port is not an input port")
	ErrZeroLengthLoop     = errors.New("output port cannot connect to its own node input")
	ErrSourceNodeNotFound = errors.New("source node not found")
	ErrTargetNodeNotFound = errors.New("target node not found")
)
