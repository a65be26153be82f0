package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionKind is the closed set of admin actions a transport can carry.
type ActionKind string

const (
	ActionApprove ActionKind = "approve"
	ActionReject  ActionKind = "reject"
	// ActionTest is a diagnostic ping from the bot; it is acknowledged and ignored.
	ActionTest ActionKind = "test"
)

// Transport tags recorded in audit notes and the link `source` parameter.
const (
	SourceTelegramCallback = "telegram_callback"
	SourceTelegramLink     = "telegram_link"
	SourceAdminAPI         = "admin_api"
)

// Action is an approve/reject/test decision for one verification.
type Action struct {
	Kind           ActionKind
	VerificationID int64
}

// ParseActionKind validates a bare action name.
func ParseActionKind(raw string) (ActionKind, error) {
	switch k := ActionKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case ActionApprove, ActionReject, ActionTest:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidAction, raw)
	}
}

// ParseCallbackToken decodes an opaque `<action>_<verificationId>` token.
// A test token may omit the id.
func ParseCallbackToken(token string) (Action, error) {
	kindPart, idPart, hasID := strings.Cut(token, "_")
	kind, err := ParseActionKind(kindPart)
	if err != nil {
		return Action{}, err
	}
	if kind == ActionTest {
		return Action{Kind: ActionTest}, nil
	}
	if !hasID {
		return Action{}, fmt.Errorf("%w: missing verification id in %q", ErrInvalidAction, token)
	}
	id, err := ParseVerificationID(idPart)
	if err != nil {
		return Action{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	return Action{Kind: kind, VerificationID: id}, nil
}

// ParseVerificationID parses a positive record id.
func ParseVerificationID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid verification id %q", ErrValidation, raw)
	}
	return id, nil
}

// CallbackToken encodes the action for an interactive button.
func (a Action) CallbackToken() string {
	if a.Kind == ActionTest {
		return string(ActionTest)
	}
	return fmt.Sprintf("%s_%d", a.Kind, a.VerificationID)
}

// TargetStatus is the status an action moves a record to.
func (a Action) TargetStatus() (VerificationStatus, error) {
	switch a.Kind {
	case ActionApprove:
		return VerificationApproved, nil
	case ActionReject:
		return VerificationRejected, nil
	default:
		return "", fmt.Errorf("%w: %q does not change status", ErrInvalidAction, a.Kind)
	}
}

// ActionActor identifies who triggered an action and over which transport.
type ActionActor struct {
	ChatID    int64
	Name      string
	Transport string
}

// AuditNote is the free-text note stored on the record after a decision.
func AuditNote(status VerificationStatus, actor ActionActor, at time.Time) string {
	name := actor.Name
	if name == "" {
		name = "admin"
	}
	return fmt.Sprintf("%s by %s (chat %d) via %s at %s",
		status, name, actor.ChatID, actor.Transport, at.UTC().Format(time.RFC3339))
}
