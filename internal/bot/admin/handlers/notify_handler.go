package handlers

import (
	"ColorPredict/internal/bot/messages"
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/notification"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Notifier is the part of the notification dispatcher this handler needs.
type Notifier interface {
	Dispatch(ctx context.Context, v *domain.Verification) *notification.DeliveryReport
	Send(ctx context.Context, params ports.SendMessageParams) notification.RecipientResult
}

// NotifyHandler turns store events into admin messages.
type NotifyHandler struct {
	log        zerolog.Logger
	notifier   Notifier
	recipients []int64
}

// NewNotifyHandler creates the handler; recipients get the decision broadcasts.
func NewNotifyHandler(notifier Notifier, recipients []int64, baseLogger *zerolog.Logger) *NotifyHandler {
	return &NotifyHandler{
		log:        baseLogger.With().Str("component", "notify_handler").Logger(),
		notifier:   notifier,
		recipients: recipients,
	}
}

// Subscribe attaches the handler to the verification topics.
func (h *NotifyHandler) Subscribe(bus ports.EventBus) {
	bus.Subscribe(ports.TopicVerificationSubmitted, h.HandleSubmitted)
	bus.Subscribe(ports.TopicVerificationDecided, h.HandleDecided)
}

// HandleSubmitted notifies every admin about a new pending request.
func (h *NotifyHandler) HandleSubmitted(ctx context.Context, event ports.Event) error {
	v, ok := event.Data.(*domain.Verification)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}
	report := h.notifier.Dispatch(ctx, v)
	h.log.Debug().
		Str("notification_id", report.NotificationID.String()).
		Int("delivered", report.Delivered()).
		Msg("Submission notification finished")
	return nil
}

// HandleDecided tells the other admins that a request was decided, so they
// do not act on a stale notification. A link decision is also acknowledged in
// the chat that opened the link, since there is no callback message to edit.
func (h *NotifyHandler) HandleDecided(ctx context.Context, event ports.Event) error {
	decided, ok := event.Data.(ports.VerificationDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}

	text := messages.DecisionText(decided.Record, decided.Actor)
	for _, chatID := range h.recipients {
		if chatID == decided.Actor.ChatID && decided.Actor.Transport != domain.SourceTelegramLink {
			continue
		}
		res := h.notifier.Send(ctx, messages.NewBuilder(chatID).WithText(text).Build())
		if !res.Delivered {
			h.log.Warn().Int64("chat_id", chatID).Int64("verification_id", decided.Record.ID).Msg("Decision broadcast not delivered")
		}
	}
	return nil
}
