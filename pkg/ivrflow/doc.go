// Package ivrflow is the public facade of the IVR flow engine: it ties a
// flow repository, the compiler and the per-session interpreter together
// so library consumers never import internal packages directly.
//
// The typical lifecycle mirrors the editor's: a FlowDefinition is saved,
// compiled (leniently on save, strictly on activate) into an
// ExecutableFlow, and then interpreted once per call session against a
// TelephonySession provided by the signaling layer.
package ivrflow
