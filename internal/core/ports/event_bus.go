package ports

import (
	"ColorPredict/internal/core/domain"
	"context"
)

// Bus topics shared by the publishers and subscribers of this service.
const (
	TopicVerificationSubmitted = "verification:submitted"
	TopicVerificationDecided   = "verification:decided"
	TopicAdminCallbackQuery    = "telegram:admin:callback_query"
	TopicAdminMessage          = "telegram:admin:message"
)

// VerificationDecidedEvent is the payload of TopicVerificationDecided.
type VerificationDecidedEvent struct {
	Record *domain.Verification
	Action domain.Action
	Actor  domain.ActionActor
}

// Event is a generic wrapper for any event payload
type Event struct {
	Topic string
	Data  interface{}
}

// EventHandler is a function that can handle a specific event
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for our in-process pub/sub system
type EventBus interface {
	// Publish sends an event to all subscribers of a topic
	Publish(ctx context.Context, topic string, data interface{}) error

	// Subscribe registers a handler for a specific topic
	Subscribe(topic string, handler EventHandler)

	// Close stops accepting events and waits for running handlers.
	Close(ctx context.Context) error
}
