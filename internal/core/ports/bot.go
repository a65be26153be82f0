package ports

import (
	"context"
)

// --- Bot Message Structures ---

// Button represents a single button in an inline keyboard.
type Button struct {
	Text string
	Data string // For callbacks
	URL  string // For URL buttons
}

// ReplyMarkup represents inline keyboard markup.
type ReplyMarkup struct {
	Buttons [][]Button
}

// SendMessageParams holds all possible options for sending a message.
type SendMessageParams struct {
	ChatID                int64
	Text                  string
	ParseMode             string // e.g., "MarkdownV2" or "HTML"
	ReplyMarkup           *ReplyMarkup
	DisableWebPagePreview bool
}

// EditMessageParams replaces the text (and keyboard) of a sent message.
type EditMessageParams struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   string
	ReplyMarkup *ReplyMarkup // nil removes the keyboard
}

// AnswerCallbackParams stops the client spinner, optionally with an alert.
type AnswerCallbackParams struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// --- Bot Client Port (Outbound) ---

// BotClientPort defines the interface for *sending* messages.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
	EditMessageText(ctx context.Context, params EditMessageParams) error
	AnswerCallbackQuery(ctx context.Context, params AnswerCallbackParams) error
	SetMenuCommands(ctx context.Context) error
}

// --- Bot Handler Port (Inbound) ---

// BotUpdate represents a simplified, generic update.
type BotUpdate struct {
	UpdateID        int
	MessageID       int
	ChatID          int64
	UserID          int64
	UserName        string
	Text            string
	Command         string
	CallbackQueryID string
	CallbackData    *string
}

// CommandHandler defines the "plugin" interface for handling bot commands.
type CommandHandler interface {
	// Command returns the command string without the slash (e.g., "pending")
	Command() string
	// Handle processes the update.
	Handle(ctx context.Context, update *BotUpdate) error
}

// CallbackHandler defines the interface for handling callback queries.
type CallbackHandler interface {
	// Prefixes returns the callback prefixes this handler owns (e.g., "approve_")
	Prefixes() []string
	// Handle processes the callback.
	Handle(ctx context.Context, update *BotUpdate) error
}
