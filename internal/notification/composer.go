package notification

import (
	"ColorPredict/internal/bot/messages"
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Composer renders the admin message for a pending verification.
type Composer struct {
	baseURL string
	tokens  ports.TokenPort
	log     zerolog.Logger
}

// NewComposer builds a composer. With an empty baseURL or nil tokens, only
// callback buttons are attached.
func NewComposer(baseURL string, tokens ports.TokenPort, baseLogger *zerolog.Logger) *Composer {
	return &Composer{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		log:     baseLogger.With().Str("component", "notification_composer").Logger(),
	}
}

// Compose builds the message for one recipient. Link tokens are bound to chatID.
func (c *Composer) Compose(chatID int64, v *domain.Verification) ports.SendMessageParams {
	approve := domain.Action{Kind: domain.ActionApprove, VerificationID: v.ID}
	reject := domain.Action{Kind: domain.ActionReject, VerificationID: v.ID}

	var text strings.Builder
	text.WriteString("🔔 *New account verification request*\n\n")
	fmt.Fprintf(&text, "*User ID:* %s\n", messages.EscapeMarkdown(v.ExternalUserID))
	fmt.Fprintf(&text, "*Request ID:* %d\n", v.ID)
	fmt.Fprintf(&text, "*Status:* %s\n", messages.EscapeMarkdown(string(v.Status)))
	fmt.Fprintf(&text, "*Submitted:* %s\n", messages.EscapeMarkdown(v.CreatedAt.UTC().Format(messages.TimestampLayout)))

	b := messages.NewBuilder(chatID).
		WithInlineRow(
			ports.Button{Text: "✅ Approve", Data: approve.CallbackToken()},
			ports.Button{Text: "❌ Reject", Data: reject.CallbackToken()},
		)

	approveURL, rejectURL := c.actionLink(chatID, approve), c.actionLink(chatID, reject)
	if approveURL != "" && rejectURL != "" {
		if isLocalURL(c.baseURL) {
			// Telegram refuses URL buttons pointing at local hosts.
			text.WriteString("\n*Open in browser:*\n")
			fmt.Fprintf(&text, "Approve: %s\n", messages.EscapeMarkdown(approveURL))
			fmt.Fprintf(&text, "Reject: %s\n", messages.EscapeMarkdown(rejectURL))
			b.WithoutLinkPreview()
		} else {
			b.WithInlineRow(
				ports.Button{Text: "🌐 Approve", URL: approveURL},
				ports.Button{Text: "🌐 Reject", URL: rejectURL},
			)
		}
	}

	return b.WithText(text.String()).Build()
}

// actionLink returns "" when links are disabled or signing failed.
func (c *Composer) actionLink(chatID int64, a domain.Action) string {
	if c.baseURL == "" || c.tokens == nil {
		return ""
	}
	token, err := c.tokens.IssueActionLink(ports.ActionLinkClaims{
		Action:         a.Kind,
		VerificationID: a.VerificationID,
		ChatID:         chatID,
	})
	if err != nil {
		c.log.Error().Err(err).Int64("verification_id", a.VerificationID).Msg("Failed to sign action link")
		return ""
	}
	return ActionURL(c.baseURL, a, token)
}

// ActionURL is the HTTP link form of an action, served by the admin API.
func ActionURL(baseURL string, a domain.Action, token string) string {
	q := url.Values{}
	q.Set("action", string(a.Kind))
	q.Set("source", domain.SourceTelegramLink)
	q.Set("token", token)
	return baseURL + "/api/admin/account-verifications/" + strconv.FormatInt(a.VerificationID, 10) + "?" + q.Encode()
}

func isLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
