package messages

import "ColorPredict/internal/core/ports"

// Telegram parse modes.
const (
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModePlain      = ""
)

// Builder helps construct complex SendMessageParams.
type Builder struct {
	params ports.SendMessageParams
}

// NewBuilder creates a new message builder.
func NewBuilder(chatID int64) *Builder {
	return &Builder{
		params: ports.SendMessageParams{
			ChatID:    chatID,
			ParseMode: ParseModeMarkdownV2, // Default to Markdown
		},
	}
}

// WithText sets the message text.
func (b *Builder) WithText(text string) *Builder {
	b.params.Text = text
	return b
}

// WithParseMode overrides the default parse mode.
func (b *Builder) WithParseMode(mode string) *Builder {
	b.params.ParseMode = mode
	return b
}

// WithInlineRow appends a row of inline buttons.
func (b *Builder) WithInlineRow(buttons ...ports.Button) *Builder {
	if len(buttons) == 0 {
		return b
	}
	if b.params.ReplyMarkup == nil {
		b.params.ReplyMarkup = &ports.ReplyMarkup{}
	}
	b.params.ReplyMarkup.Buttons = append(b.params.ReplyMarkup.Buttons, buttons)
	return b
}

// WithoutLinkPreview stops Telegram from unfurling URLs in the text.
func (b *Builder) WithoutLinkPreview() *Builder {
	b.params.DisableWebPagePreview = true
	return b
}

// Build returns the final SendMessageParams struct.
func (b *Builder) Build() ports.SendMessageParams {
	return b.params
}
