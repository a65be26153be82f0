package app

import (
	"ColorPredict/internal/adapters/memory"
	"ColorPredict/internal/adapters/postgres"
	"ColorPredict/internal/adapters/sqlite"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/shared/config"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// OpenRepository opens the verification backend selected by STORAGE_DRIVER and
// brings its schema up to date. The returned func releases everything opened.
func OpenRepository(ctx context.Context, cfg *config.StorageConfig, baseLogger *zerolog.Logger) (ports.VerificationRepository, func(), error) {
	switch cfg.Driver {
	case config.StorageMemory:
		baseLogger.Warn().Msg("Using in-memory storage; verifications are lost on restart")
		return memory.NewVerificationRepository(baseLogger), func() {}, nil

	case config.StoragePostgres:
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL, baseLogger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewVerificationRepository(db, baseLogger), db.Close, nil

	case config.StorageSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath, baseLogger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := repo.Close(); err != nil {
				baseLogger.Error().Err(err).Msg("Failed to close sqlite database")
			}
		}
		return repo, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
