package handlers

import (
	"ColorPredict/internal/bot/admin"
	"ColorPredict/internal/bot/messages"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/shared/config"
	"context"

	"github.com/rs/zerolog"
)

func init() {
	admin.RegisterCommand(NewStartCommand)
}

type startCommand struct {
	bot ports.BotClientPort
}

// NewStartCommand answers /start so admins can check the bot is alive.
func NewStartCommand(
	cfg *config.Config,
	store *verification.Store,
	bot ports.BotClientPort,
	baseLogger *zerolog.Logger,
) ports.CommandHandler {
	return &startCommand{bot: bot}
}

func (h *startCommand) Command() string { return "start" }

func (h *startCommand) Handle(ctx context.Context, update *ports.BotUpdate) error {
	text := "👋 Verification admin bot is running\\.\nNew requests arrive here; use /pending to list the ones waiting\\."
	msg := messages.NewBuilder(update.ChatID).
		WithText(text).
		WithInlineRow(ports.Button{Text: "Send test callback", Data: "test"}).
		Build()
	_, err := h.bot.SendMessage(ctx, msg)
	return err
}
