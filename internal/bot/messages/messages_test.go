package messages

import (
	"ColorPredict/internal/core/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"user_name", "user\\_name"},
		{"a.b-c!", "a\\.b\\-c\\!"},
		{"*[x](y)*", "\\*\\[x\\]\\(y\\)\\*"},
		{"back\\slash", "back\\\\slash"},
		{"2024-01-02 03:04:05 UTC", "2024\\-01\\-02 03:04:05 UTC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMarkdown(tt.in), "input %q", tt.in)
	}
}

func TestBuilder(t *testing.T) {
	params := NewBuilder(42).
		WithText("hello").
		WithInlineRow(ports.Button{Text: "A", Data: "a"}, ports.Button{Text: "B", Data: "b"}).
		WithInlineRow().
		WithInlineRow(ports.Button{Text: "Link", URL: "https://x"}).
		WithoutLinkPreview().
		Build()

	assert.Equal(t, int64(42), params.ChatID)
	assert.Equal(t, ParseModeMarkdownV2, params.ParseMode)
	assert.True(t, params.DisableWebPagePreview)
	require.NotNil(t, params.ReplyMarkup)
	require.Len(t, params.ReplyMarkup.Buttons, 2)
	assert.Equal(t, "https://x", params.ReplyMarkup.Buttons[1][0].URL)
}
