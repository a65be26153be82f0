// Package verification owns the verification-request lifecycle on top of a
// pluggable repository backend.
package verification

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Store is the single entry point for reading and mutating verification records.
type Store struct {
	repo ports.VerificationRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewStore wraps a repository backend.
func NewStore(repo ports.VerificationRepository, baseLogger *zerolog.Logger) *Store {
	return &Store{
		repo: repo,
		now:  time.Now,
		log:  baseLogger.With().Str("component", "verification_store").Logger(),
	}
}

// Submit records a visitor's request, reusing the existing record for the id.
func (s *Store) Submit(ctx context.Context, externalUserID string) (*domain.SubmitOutcome, error) {
	id, err := domain.NormalizeExternalUserID(externalUserID)
	if err != nil {
		return nil, err
	}

	rec, created, err := s.repo.FindOrCreate(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("external_user_id", id).Msg("Failed to find or create verification")
		return nil, err
	}

	outcome := domain.OutcomeFor(rec, created)
	s.log.Info().
		Int64("verification_id", rec.ID).
		Str("status", string(rec.Status)).
		Bool("created", created).
		Msg("Verification submitted")
	return outcome, nil
}

// GetByID returns nil, nil when the id does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Verification, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByExternalUserID returns nil, nil when nothing matches.
func (s *Store) GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Verification, error) {
	id, err := domain.NormalizeExternalUserID(externalUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByExternalUserID(ctx, id)
}

// ListAll returns every record ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]*domain.Verification, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sortByID(recs)
	return recs, nil
}

// ListByStatus filters on an exact status; unknown statuses are a validation error.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]*domain.Verification, error) {
	st, err := domain.ParseVerificationStatus(status)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	sortByID(recs)
	return recs, nil
}

// UpdateStatus changes the status and, when notes is non-nil, replaces the notes.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string, notes *string) (*domain.Verification, error) {
	st, err := domain.ParseVerificationStatus(status)
	if err != nil {
		return nil, err
	}

	log := s.log.With().Int64("verification_id", id).Str("to", string(st)).Logger()

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, st, notes)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update verification status")
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}

	// Transitions are not restricted; leaving a decided state is worth a warning.
	if before.Status.IsTerminal() && before.Status != st {
		log.Warn().Str("from", string(before.Status)).Msg("Verification moved out of a decided state")
	} else {
		log.Info().Str("from", string(before.Status)).Msg("Verification status updated")
	}
	return updated, nil
}

// Apply performs an approve/reject action and stamps an audit note.
func (s *Store) Apply(ctx context.Context, action domain.Action, actor domain.ActionActor) (*domain.Verification, error) {
	status, err := action.TargetStatus()
	if err != nil {
		return nil, err
	}
	note := domain.AuditNote(status, actor, s.now())
	return s.UpdateStatus(ctx, action.VerificationID, string(status), &note)
}

func sortByID(recs []*domain.Verification) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}
