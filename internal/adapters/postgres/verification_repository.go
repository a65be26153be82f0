package postgres

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type verificationRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.VerificationRepository = (*verificationRepository)(nil) // Ensure compliance

// NewVerificationRepository creates a new repository for verification records.
func NewVerificationRepository(db *DB, baseLogger *zerolog.Logger) ports.VerificationRepository {
	return &verificationRepository{
		db:  db,
		log: baseLogger.With().Str("component", "verification_repo").Logger(),
	}
}

// verificationCols is the list of columns for scanning
const verificationCols = `id, external_user_id, status, notes, created_at, updated_at`

// scanVerification is a helper to scan a row into a Verification struct
func (r *verificationRepository) scanVerification(row pgx.Row) (*domain.Verification, error) {
	var v domain.Verification
	err := row.Scan(
		&v.ID,
		&v.ExternalUserID,
		&v.Status,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err // Return specific error
		}
		r.log.Error().Err(err).Msg("Failed to scan verification row")
		return nil, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

// FindOrCreate relies on the unique index over external_user_id.
// The insert either wins and returns the new row, or yields to the existing one.
func (r *verificationRepository) FindOrCreate(ctx context.Context, externalUserID string) (*domain.Verification, bool, error) {
	insert := `
		INSERT INTO account_verifications (external_user_id, status)
		VALUES ($1, $2)
		ON CONFLICT (external_user_id) DO NOTHING
		RETURNING ` + verificationCols

	// Two rounds cover the case where a concurrent insert commits between our
	// conflicting insert and the follow-up read.
	for attempt := 0; attempt < 2; attempt++ {
		v, err := r.scanVerification(r.db.pool.QueryRow(ctx, insert, externalUserID, domain.VerificationPending))
		if err == nil {
			r.log.Info().Int64("verification_id", v.ID).Msg("Inserted new verification")
			return v, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error().Err(err).Msg("Failed to insert verification")
			return nil, false, err
		}

		existing, err := r.GetByExternalUserID(ctx, externalUserID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	return nil, false, fmt.Errorf("find or create %q: row vanished during upsert", externalUserID)
}

// GetByID finds a verification by its id.
func (r *verificationRepository) GetByID(ctx context.Context, id int64) (*domain.Verification, error) {
	query := `SELECT ` + verificationCols + ` FROM account_verifications WHERE id = $1`

	v, err := r.scanVerification(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil for "not found"
		}
		return nil, err
	}
	return v, nil
}

// GetByExternalUserID finds a verification by the visitor-supplied id.
func (r *verificationRepository) GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Verification, error) {
	query := `SELECT ` + verificationCols + ` FROM account_verifications WHERE external_user_id = $1`

	v, err := r.scanVerification(r.db.pool.QueryRow(ctx, query, externalUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *verificationRepository) List(ctx context.Context) ([]*domain.Verification, error) {
	query := `SELECT ` + verificationCols + ` FROM account_verifications ORDER BY id`
	return r.queryMany(ctx, query)
}

func (r *verificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.Verification, error) {
	query := `SELECT ` + verificationCols + ` FROM account_verifications WHERE status = $1 ORDER BY id`
	return r.queryMany(ctx, query, status)
}

func (r *verificationRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Verification, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query verifications")
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Verification
	for rows.Next() {
		v, err := r.scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		r.log.Error().Err(rows.Err()).Msg("Error iterating verification rows")
		return nil, rows.Err()
	}
	return out, nil
}

// UpdateStatus is a single read-modify-write statement, so concurrent
// updates of the same id are serialized by the row lock.
func (r *verificationRepository) UpdateStatus(ctx context.Context, id int64, status domain.VerificationStatus, notes *string) (*domain.Verification, error) {
	query := `
		UPDATE account_verifications
		SET status = $2,
		    notes = COALESCE($3, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + verificationCols

	v, err := r.scanVerification(r.db.pool.QueryRow(ctx, query, id, status, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Int64("verification_id", id).Msg("Failed to update verification")
		return nil, err
	}
	return v, nil
}

// Close is a no-op; the DB owns the pool.
func (r *verificationRepository) Close() error { return nil }
