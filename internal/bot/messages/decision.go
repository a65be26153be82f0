package messages

import (
	"ColorPredict/internal/core/domain"
	"fmt"
	"strings"
)

// TimestampLayout is how record times are shown to admins.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// DecisionText renders the MarkdownV2 confirmation shown after an admin decides.
func DecisionText(v *domain.Verification, actor domain.ActionActor) string {
	icon, label := "❌", "Rejected"
	if v.Status == domain.VerificationApproved {
		icon, label = "✅", "Approved"
	}

	name := actor.Name
	if name == "" {
		name = fmt.Sprintf("chat %d", actor.ChatID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", icon, label)
	fmt.Fprintf(&b, "*User ID:* %s\n", EscapeMarkdown(v.ExternalUserID))
	fmt.Fprintf(&b, "*Request ID:* %d\n", v.ID)
	fmt.Fprintf(&b, "*By:* %s\n", EscapeMarkdown(name))
	fmt.Fprintf(&b, "*At:* %s", EscapeMarkdown(v.UpdatedAt.UTC().Format(TimestampLayout)))
	return b.String()
}
