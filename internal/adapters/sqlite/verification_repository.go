// Package sqlite is the single-file storage backend, built on gorm.
package sqlite

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// verificationRow is the gorm model behind account_verifications.
type verificationRow struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	ExternalUserID string  `gorm:"size:64;not null;uniqueIndex"`
	Status         string  `gorm:"size:16;not null;index;default:pending"`
	Notes          *string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (verificationRow) TableName() string { return "account_verifications" }

func (r *verificationRow) toDomain() *domain.Verification {
	return &domain.Verification{
		ID:             r.ID,
		ExternalUserID: r.ExternalUserID,
		Status:         domain.VerificationStatus(r.Status),
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type verificationRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

var _ ports.VerificationRepository = (*verificationRepository)(nil) // Ensure compliance

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, baseLogger *zerolog.Logger) (ports.VerificationRepository, error) {
	log := baseLogger.With().Str("component", "sqlite_verification_repo").Logger()

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	// SQLite allows one writer; a single connection serializes all mutations
	// and keeps an in-memory database alive.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&verificationRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate SQLite schema: %w", err)
	}

	log.Info().Str("path", path).Msg("SQLite database ready")
	return &verificationRepository{db: db, log: log}, nil
}

func (r *verificationRepository) FindOrCreate(ctx context.Context, externalUserID string) (*domain.Verification, bool, error) {
	var row verificationRow
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_user_id = ?", externalUserID).First(&row).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row = verificationRow{ExternalUserID: externalUserID, Status: string(domain.VerificationPending)}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		// Another writer won; read its row.
		existing, getErr := r.GetByExternalUserID(ctx, externalUserID)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to find or create verification")
		return nil, false, err
	}

	if created {
		r.log.Info().Int64("verification_id", row.ID).Msg("Inserted new verification")
	}
	return row.toDomain(), created, nil
}

func (r *verificationRepository) GetByID(ctx context.Context, id int64) (*domain.Verification, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *verificationRepository) GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Verification, error) {
	return r.first(ctx, "external_user_id = ?", externalUserID)
}

func (r *verificationRepository) first(ctx context.Context, query string, arg any) (*domain.Verification, error) {
	var row verificationRow
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil for "not found"
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *verificationRepository) List(ctx context.Context) ([]*domain.Verification, error) {
	var rows []verificationRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

func (r *verificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.Verification, error) {
	var rows []verificationRow
	if err := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

func (r *verificationRepository) UpdateStatus(ctx context.Context, id int64, status domain.VerificationStatus, notes *string) (*domain.Verification, error) {
	var row verificationRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		row.Status = string(status)
		if notes != nil {
			n := *notes
			row.Notes = &n
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error().Err(err).Int64("verification_id", id).Msg("Failed to update verification")
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *verificationRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toDomainSlice(rows []verificationRow) []*domain.Verification {
	out := make([]*domain.Verification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
