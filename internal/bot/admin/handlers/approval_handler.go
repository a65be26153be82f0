package handlers

import (
	"ColorPredict/internal/bot/admin"
	"ColorPredict/internal/bot/messages"
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/shared/config"
	"context"
	"errors"

	"github.com/rs/zerolog"
)

func init() {
	admin.RegisterCallback(NewApprovalHandler)
}

// Alert texts for rejected callbacks.
const (
	msgInvalidAction = "Invalid action"
	msgNotFound      = "Verification not found"
	msgFailed        = "Something went wrong, please try again"
	msgTestReceived  = "Test received"
)

// approvalHandler applies approve/reject callbacks to verification records.
type approvalHandler struct {
	log   zerolog.Logger
	store *verification.Store
	bot   ports.BotClientPort
	bus   ports.EventBus
}

// NewApprovalHandler
func NewApprovalHandler(
	cfg *config.Config,
	store *verification.Store,
	bot ports.BotClientPort,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) ports.CallbackHandler {
	return &approvalHandler{
		log:   baseLogger.With().Str("component", "approval_handler").Logger(),
		store: store,
		bot:   bot,
		bus:   bus,
	}
}

func (h *approvalHandler) Prefixes() []string {
	return []string{"approve_", "reject_", string(domain.ActionTest)}
}

// Handle runs parse, resolve, apply and acknowledge. Every failure is
// reported to the sender and ends this callback only.
func (h *approvalHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	log := h.log.With().Int64("chat_id", update.ChatID).Str("data", *update.CallbackData).Logger()

	// 1. Parse
	action, err := domain.ParseCallbackToken(*update.CallbackData)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected malformed callback")
		h.answer(ctx, update, msgInvalidAction, true)
		return nil
	}
	if action.Kind == domain.ActionTest {
		log.Info().Msg("Test callback acknowledged")
		h.answer(ctx, update, msgTestReceived, false)
		return nil
	}

	// 2. Resolve and apply
	actor := domain.ActionActor{
		ChatID:    update.ChatID,
		Name:      update.UserName,
		Transport: domain.SourceTelegramCallback,
	}
	updated, err := h.store.Apply(ctx, action, actor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Int64("verification_id", action.VerificationID).Msg("Callback for unknown verification")
			h.answer(ctx, update, msgNotFound, true)
			return nil
		}
		h.answer(ctx, update, msgFailed, true)
		return err
	}
	log.Info().Int64("verification_id", updated.ID).Str("status", string(updated.Status)).Msg("Verification decided via callback")

	// 3. Acknowledge
	h.answer(ctx, update, string(updated.Status), false)

	if err := h.bus.Publish(ctx, ports.TopicVerificationDecided, ports.VerificationDecidedEvent{
		Record: updated,
		Action: action,
		Actor:  actor,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to publish decided event")
	}

	return h.confirm(ctx, update, messages.DecisionText(updated, actor))
}

// confirm edits the original notification in place, or sends a new message
// when the edit is not possible.
func (h *approvalHandler) confirm(ctx context.Context, update *ports.BotUpdate, text string) error {
	if update.MessageID != 0 {
		err := h.bot.EditMessageText(ctx, ports.EditMessageParams{
			ChatID:      update.ChatID,
			MessageID:   update.MessageID,
			Text:        text,
			ParseMode:   messages.ParseModeMarkdownV2,
			ReplyMarkup: nil, // Remove buttons
		})
		if err == nil {
			return nil
		}
		h.log.Warn().Err(err).Msg("Edit failed, sending confirmation as a new message")
	}

	_, err := h.bot.SendMessage(ctx, messages.NewBuilder(update.ChatID).WithText(text).Build())
	return err
}

func (h *approvalHandler) answer(ctx context.Context, update *ports.BotUpdate, text string, alert bool) {
	if err := h.bot.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
		CallbackQueryID: update.CallbackQueryID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		h.log.Warn().Err(err).Msg("Failed to answer callback query")
	}
}
