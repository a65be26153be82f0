package handlers

import (
	"ColorPredict/internal/bot/admin"
	"ColorPredict/internal/bot/messages"
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/shared/config"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	admin.RegisterCommand(NewPendingCommand)
}

// maxPendingListed caps one /pending reply; Telegram limits message size.
const maxPendingListed = 10

type pendingCommand struct {
	log   zerolog.Logger
	store *verification.Store
	bot   ports.BotClientPort
}

// NewPendingCommand lists records still waiting for a decision.
func NewPendingCommand(
	cfg *config.Config,
	store *verification.Store,
	bot ports.BotClientPort,
	baseLogger *zerolog.Logger,
) ports.CommandHandler {
	return &pendingCommand{
		log:   baseLogger.With().Str("component", "pending_command").Logger(),
		store: store,
		bot:   bot,
	}
}

func (h *pendingCommand) Command() string { return "pending" }

func (h *pendingCommand) Handle(ctx context.Context, update *ports.BotUpdate) error {
	pending, err := h.store.ListByStatus(ctx, string(domain.VerificationPending))
	if err != nil {
		return err
	}

	b := messages.NewBuilder(update.ChatID)
	if len(pending) == 0 {
		_, err := h.bot.SendMessage(ctx, b.WithText("No pending verifications 🎉").Build())
		return err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "⏳ *Pending verifications:* %d\n\n", len(pending))
	for i, v := range pending {
		if i == maxPendingListed {
			fmt.Fprintf(&text, "_…and %d more_\n", len(pending)-maxPendingListed)
			break
		}
		fmt.Fprintf(&text, "\\#%d  %s  %s\n", v.ID,
			messages.EscapeMarkdown(v.ExternalUserID),
			messages.EscapeMarkdown(v.CreatedAt.UTC().Format(messages.TimestampLayout)))

		approve := domain.Action{Kind: domain.ActionApprove, VerificationID: v.ID}
		reject := domain.Action{Kind: domain.ActionReject, VerificationID: v.ID}
		b.WithInlineRow(
			ports.Button{Text: fmt.Sprintf("✅ #%d", v.ID), Data: approve.CallbackToken()},
			ports.Button{Text: fmt.Sprintf("❌ #%d", v.ID), Data: reject.CallbackToken()},
		)
	}

	h.log.Info().Int("pending", len(pending)).Msg("Listing pending verifications")
	_, err = h.bot.SendMessage(ctx, b.WithText(text.String()).Build())
	return err
}
