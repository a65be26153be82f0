package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// VerificationStatus is a custom type for our ENUM
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// MaxExternalUserIDLength bounds the identifier a visitor may submit.
const MaxExternalUserIDLength = 64

// ParseVerificationStatus validates a raw status string.
func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	switch s := VerificationStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %w %q", ErrValidation, ErrInvalidStatus, raw)
	}
}

// IsTerminal reports whether an admin has already decided the record.
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationApproved || s == VerificationRejected
}

// Verification tracks the approval state of one external user id.
type Verification struct {
	ID             int64              `json:"id"`
	ExternalUserID string             `json:"externalUserId"`
	Status         VerificationStatus `json:"status"`
	Notes          *string            `json:"notes,omitempty"` // Nullable
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the notes pointer.
func (v *Verification) Clone() *Verification {
	if v == nil {
		return nil
	}
	c := *v
	if v.Notes != nil {
		n := *v.Notes
		c.Notes = &n
	}
	return &c
}

// NormalizeExternalUserID trims and validates a submitted identifier.
func NormalizeExternalUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: external user id is required", ErrValidation)
	}
	if len([]rune(id)) > MaxExternalUserIDLength {
		return "", fmt.Errorf("%w: external user id must be at most %d characters", ErrValidation, MaxExternalUserIDLength)
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: external user id contains non-printable characters", ErrValidation)
		}
	}
	return id, nil
}

// SubmitOutcome is what a visitor sees after submitting an id.
type SubmitOutcome struct {
	Success    bool
	IsVerified bool
	Created    bool
	Message    string
	Record     *Verification
}

const (
	MsgSubmitted        = "Verification submitted, pending approval"
	MsgAlreadyVerified  = "Account already verified"
	MsgRejected         = "Verification request was rejected"
	MsgAwaitingApproval = "Verification is awaiting admin approval"
)

// OutcomeFor maps a record to the visitor-facing response.
func OutcomeFor(v *Verification, created bool) *SubmitOutcome {
	if created {
		return &SubmitOutcome{Success: true, Created: true, Message: MsgSubmitted, Record: v}
	}
	switch v.Status {
	case VerificationApproved:
		return &SubmitOutcome{Success: true, IsVerified: true, Message: MsgAlreadyVerified, Record: v}
	case VerificationRejected:
		return &SubmitOutcome{Success: false, Message: MsgRejected, Record: v}
	default:
		return &SubmitOutcome{Success: false, Message: MsgAwaitingApproval, Record: v}
	}
}
