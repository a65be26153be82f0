package messages

import "strings"

// markdownV2 escapes every character MarkdownV2 treats as markup.
var markdownV2 = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// EscapeMarkdown makes s safe to embed in a MarkdownV2 message.
func EscapeMarkdown(s string) string {
	return markdownV2.Replace(s)
}
