package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/directory/filestore"
	"github.com/m3rciful/relaybot/internal/directory/memstore"
	"github.com/m3rciful/relaybot/internal/directory/pgstore"
	"github.com/m3rciful/relaybot/internal/directory/redisstore"
)

func noClose() error { return nil }

// OpenStore opens the configured directory backend. The returned function
// releases its connections.
func OpenStore(ctx context.Context, cfg *Config) (directory.Store, func() error, error) {
	var (
		store   directory.Store
		closeFn = noClose
	)
	switch cfg.Storage.Backend {
	case BackendMemory:
		store = memstore.New()
	case BackendFile, "":
		s, err := filestore.New(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case BackendRedis:
		rc := cfg.Storage.Redis
		client, err := redisstore.Open(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = redisstore.New(client, rc.Prefix), client.Close
	case BackendPostgres:
		if err := database.RunMigrations(ctx, cfg.Database); err != nil {
			return nil, nil, err
		}
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = pgstore.New(db), db.Close
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	logger.Info(ctx, "store", "store.open", slog.String("backend", cfg.Storage.Backend))
	return store, closeFn, nil
}

// SeedAdmins merges ids into the persisted admin set.
func SeedAdmins(ids []int64) func(ctx context.Context, repo *directory.Repository) error {
	return func(ctx context.Context, repo *directory.Repository) error {
		if len(ids) == 0 {
			return nil
		}
		added, err := repo.MergeAdmins(ctx, ids)
		if err != nil {
			return fmt.Errorf("seed admins: %w", err)
		}
		logger.Info(ctx, "admin", "admin.seed",
			slog.Int("admins", len(ids)),
			slog.Int("added", added),
		)
		return nil
	}
}
