package ports

import (
	"ColorPredict/internal/core/domain"
	"time"
)

// ActionLinkClaims is what a signed approve/reject link carries.
type ActionLinkClaims struct {
	Action         domain.ActionKind
	VerificationID int64
	ChatID         int64 // The admin chat the link was delivered to
}

// TokenPort defines the interface for issuing and verifying signed tokens.
// This allows us to swap the implementation (e.g., from HMAC to asymmetric keys)
// without changing any business logic that uses it.
type TokenPort interface {
	// IssueAdminToken mints a bearer token for the admin HTTP API.
	IssueAdminToken(subject string, ttl time.Duration) (string, error)

	// VerifyAdminToken returns the subject of a valid admin token.
	VerifyAdminToken(token string) (subject string, err error)

	// IssueActionLink signs the query token embedded in an action URL.
	IssueActionLink(claims ActionLinkClaims) (string, error)

	// VerifyActionLink validates the token and returns its claims.
	VerifyActionLink(token string) (*ActionLinkClaims, error)
}
