package compiler

import "fmt"

// Mode selects how strictly Compile treats incomplete flows.
type Mode string

const (
	// ModeSave is lenient: unconnected required branches are warnings, so
	// editors can persist work-in-progress flows. Save-mode compilation
	// never fails with an exception; it returns diagnostics plus either a
	// flow or nil.
	ModeSave Mode = "save"
	// ModeActivate is strict: any unresolved required branch is an error
	// and the flow is rejected.
	ModeActivate Mode = "activate"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic reports one validation finding, tagged with the offending
// node and/or connection.
type Diagnostic struct {
	Severity     Severity `json:"severity"`
	NodeID       string   `json:"nodeId,omitempty"`
	ConnectionID string   `json:"connectionId,omitempty"`
	Message      string   `json:"message"`
}

func (d Diagnostic) String() string {
	where := ""
	if d.NodeID != "" {
		where = " [node " + d.NodeID + "]"
	}
	if d.ConnectionID != "" {
		where += " [connection " + d.ConnectionID + "]"
	}
	return fmt.Sprintf("%s%s: %s", d.Severity, where, d.Message)
}

// Result is the outcome of one compilation: a flow when compilation
// succeeded (nil otherwise) plus all collected diagnostics.
type Result struct {
	Flow        *ExecutableFlow `json:"flow,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns only the warning diagnostics.
func (r *Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

func (r *Result) errorf(nodeID, connectionID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity:     SeverityError,
		NodeID:       nodeID,
		ConnectionID: connectionID,
		Message:      fmt.Sprintf(format, args...),
	})
}

func (r *Result) warnf(nodeID, connectionID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity:     SeverityWarning,
		NodeID:       nodeID,
		ConnectionID: connectionID,
		Message:      fmt.Sprintf(format, args...),
	})
}
