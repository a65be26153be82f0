package memory

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type verificationRepository struct {
	mu         sync.RWMutex
	byID       map[int64]*domain.Verification
	byExternal map[string]int64
	nextID     int64
	now        func() time.Time
	log        zerolog.Logger
}

var _ ports.VerificationRepository = (*verificationRepository)(nil) // Ensure compliance

// Option tweaks the in-memory repository.
type Option func(*verificationRepository)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *verificationRepository) { r.now = now }
}

// NewVerificationRepository creates a process-local repository.
// Records are lost on restart; use the postgres or sqlite backend for durability.
func NewVerificationRepository(baseLogger *zerolog.Logger, opts ...Option) ports.VerificationRepository {
	r := &verificationRepository{
		byID:       make(map[int64]*domain.Verification),
		byExternal: make(map[string]int64),
		now:        time.Now,
		log:        baseLogger.With().Str("component", "memory_verification_repo").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindOrCreate checks and inserts under one write lock.
func (r *verificationRepository) FindOrCreate(ctx context.Context, externalUserID string) (*domain.Verification, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byExternal[externalUserID]; ok {
		return r.byID[id].Clone(), false, nil
	}

	r.nextID++
	now := r.now().UTC()
	v := &domain.Verification{
		ID:             r.nextID,
		ExternalUserID: externalUserID,
		Status:         domain.VerificationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.byID[v.ID] = v
	r.byExternal[externalUserID] = v.ID

	r.log.Debug().Int64("verification_id", v.ID).Msg("Created verification")
	return v.Clone(), true, nil
}

func (r *verificationRepository) GetByID(ctx context.Context, id int64) (*domain.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

func (r *verificationRepository) GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalUserID]
	if !ok {
		return nil, nil
	}
	return r.byID[id].Clone(), nil
}

func (r *verificationRepository) List(ctx context.Context) ([]*domain.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Verification, 0, len(r.byID))
	for _, v := range r.byID {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (r *verificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Verification
	for _, v := range r.byID {
		if v.Status == status {
			out = append(out, v.Clone())
		}
	}
	return out, nil
}

func (r *verificationRepository) UpdateStatus(ctx context.Context, id int64, status domain.VerificationStatus, notes *string) (*domain.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	v.Status = status
	v.UpdatedAt = r.now().UTC()
	if notes != nil {
		n := *notes
		v.Notes = &n
	}
	return v.Clone(), nil
}

func (r *verificationRepository) Close() error { return nil }
