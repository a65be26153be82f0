package ports

import (
	"ColorPredict/internal/core/domain"
	"context"
)

// VerificationRepository defines the persistence operations for verification records.
// Implementations must serialize mutations of the same record.
type VerificationRepository interface {
	// FindOrCreate returns the record for externalUserID, creating a pending
	// one atomically when none exists. created reports which path ran.
	FindOrCreate(ctx context.Context, externalUserID string) (v *domain.Verification, created bool, err error)

	// GetByID returns nil, nil when the id does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Verification, error)

	// GetByExternalUserID returns nil, nil when nothing matches.
	GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Verification, error)

	List(ctx context.Context) ([]*domain.Verification, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.Verification, error)

	// UpdateStatus sets status and updated_at, and replaces notes when non-nil.
	// It returns nil, nil when the id does not exist.
	UpdateStatus(ctx context.Context, id int64, status domain.VerificationStatus, notes *string) (*domain.Verification, error)

	Close() error
}
