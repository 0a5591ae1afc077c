package usecases

import (
	"context"
	"time"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

// TelephonySession abstracts the live call owned by the signaling layer.
// All methods block until the operation completes or the session is torn
// down; implementations must return promptly once the caller disconnects.
// PRINCIPLES:
// - ISP: The interpreter needs exactly these capabilities, nothing more
// - DIP: Core execution depends on this interface, not on any PBX driver
type TelephonySession interface {
	// Play plays a prompt to the caller, blocking until playback finishes.
	Play(ctx context.Context, prompt string) error

	// CollectDigit waits up to timeout for a single DTMF digit. It returns
	// the digit, or "" when the timeout elapsed without input.
	CollectDigit(ctx context.Context, timeout time.Duration) (string, error)

	// Transfer attempts to transfer the call to the destination. A non-nil
	// error means the transfer failed and the call is still up.
	Transfer(ctx context.Context, destination string) error

	// RecordMessage records a voicemail message from the caller.
	RecordMessage(ctx context.Context) error

	// Hangup ends the call.
	Hangup(ctx context.Context) error

	// Disconnected is closed when the caller hangs up or the signaling
	// layer tears the session down.
	Disconnected() <-chan struct{}
}

// FlowRepository defines the interface for flow definition storage
// PRINCIPLES:
// - SRP: Only responsible for definition persistence
// - DIP: Used for dependency injection
type FlowRepository interface {
	Save(ctx context.Context, def *flow.FlowDefinition) error
	Get(ctx context.Context, id string) (*flow.FlowDefinition, error)
	List(ctx context.Context) ([]*flow.FlowDefinition, error)
	Delete(ctx context.Context, id string) error
}
