package metrics

import (
	"expvar"
)

// Session metrics. Terminations are keyed by reason.
var (
	sessionsStarted    = new(expvar.Int)
	sessionsTerminated = expvar.NewMap("ivrflow_sessions_terminated_total")
)

// Compiler metrics.
var (
	compilesTotal      = new(expvar.Int)
	compileErrorsTotal = new(expvar.Int)
)

func init() {
	expvar.Publish("ivrflow_sessions_started_total", sessionsStarted)
	expvar.Publish("ivrflow_compiles_total", compilesTotal)
	expvar.Publish("ivrflow_compile_errors_total", compileErrorsTotal)
}

// Session helpers
func IncSessionsStarted()             { sessionsStarted.Add(1) }
func SessionTerminated(reason string) { sessionsTerminated.Add(reason, 1) }

// Compiler helpers
func IncCompiles()      { compilesTotal.Add(1) }
func IncCompileErrors() { compileErrorsTotal.Add(1) }
