package ports

import "context"

// Transport is one delivery tier for admin notifications.
// The dispatcher tries transports in order until one succeeds.
type Transport interface {
	// Name is the tier tag used in logs, metrics and delivery reports.
	Name() string
	// Send delivers the message and returns the provider's message id.
	Send(ctx context.Context, params SendMessageParams) (int, error)
}

// FailureAlerter mirrors "nobody got this notification" to an operator channel.
type FailureAlerter interface {
	Alert(ctx context.Context, title, message string) error
}
