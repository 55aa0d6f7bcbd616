// Package bootstrap runs the startup pipeline shared between bots: logger,
// storage, then seeders.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/logger"
)

// Seeder loads reference data into storage of type S.
type Seeder[S any] interface {
	Seed(ctx context.Context, storage S) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc[S any] func(ctx context.Context, storage S) error

// Seed executes the underlying function.
func (f SeederFunc[S]) Seed(ctx context.Context, storage S) error {
	return f(ctx, storage)
}

// Options control the bootstrap pipeline.
type Options[S any] struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	// OpenStorage returns the storage and a function releasing it.
	OpenStorage func(ctx context.Context) (S, func() error, error)
	Seeders     []Seeder[S]
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result[S any] struct {
	Storage S
	Close   func() error
}

// Run initializes the logger, opens storage and applies seeders in order.
// On failure everything opened so far is released.
func Run[S any](ctx context.Context, opts Options[S]) (*Result[S], error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if opts.OpenStorage == nil {
		return nil, fmt.Errorf("bootstrap: OpenStorage is required")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	storage, closeFn, err := opts.OpenStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: storage initialization failed: %w", err)
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}

	start := time.Now()
	for i, s := range opts.Seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, storage); err != nil {
			return nil, errors.Join(fmt.Errorf("bootstrap: seeder %d failed: %w", i, err), closeFn())
		}
	}
	if len(opts.Seeders) > 0 {
		logger.Info(ctx, "app", "seed", slog.Int("seeders", len(opts.Seeders)), slog.Duration("duration", logger.Took(start)))
	}
	return &Result[S]{Storage: storage, Close: closeFn}, nil
}
