// Package admin implements the admin-only management operations.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/transport"
)

var (
	// ErrInvalidContent rejects broadcasts with nothing deliverable.
	ErrInvalidContent = errors.New("admin: invalid content")
	// ErrInvalidID rejects non-numeric or non-positive identities.
	ErrInvalidID = errors.New("admin: invalid id")
	// ErrEmptyWelcome rejects a blank welcome text.
	ErrEmptyWelcome = errors.New("admin: empty welcome text")
)

// Directory is the persisted state admin operations mutate.
type Directory interface {
	Users(ctx context.Context) ([]directory.User, error)
	AddAdmin(ctx context.Context, id int64) (bool, error)
	RemoveAdmin(ctx context.Context, id int64) (bool, error)
	Block(ctx context.Context, id int64) (bool, error)
	Unblock(ctx context.Context, id int64) (bool, error)
	SetWelcome(ctx context.Context, text string) error
}

// Service runs admin operations. Callers check admin rights beforehand.
type Service struct {
	dir Directory
	out transport.Transport
}

func NewService(dir Directory, out transport.Transport) *Service {
	return &Service{dir: dir, out: out}
}

// ParseID parses a user identity argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, arg)
	}
	return id, nil
}

func (s *Service) mutate(ctx context.Context, event string, id int64, fn func(context.Context, int64) (bool, error)) (bool, error) {
	changed, err := fn(ctx, id)
	if err != nil {
		logger.Error(ctx, "admin", event,
			slog.String("status", "fail"),
			slog.Int64("target_id", id),
			slog.String("err", err.Error()),
		)
		return false, err
	}
	status := "ok"
	if !changed {
		status = "skip"
	}
	logger.Info(ctx, "admin", event,
		slog.String("status", status),
		slog.Int64("target_id", id),
	)
	return changed, nil
}

// AddAdmin reports false when id already was an admin.
func (s *Service) AddAdmin(ctx context.Context, id int64) (bool, error) {
	return s.mutate(ctx, "admin.add", id, s.dir.AddAdmin)
}

// RemoveAdmin reports false when id was not an admin.
func (s *Service) RemoveAdmin(ctx context.Context, id int64) (bool, error) {
	return s.mutate(ctx, "admin.remove", id, s.dir.RemoveAdmin)
}

// Block bars id from the relay. Pending router state for id is left alone.
func (s *Service) Block(ctx context.Context, id int64) (bool, error) {
	return s.mutate(ctx, "admin.block", id, s.dir.Block)
}

func (s *Service) Unblock(ctx context.Context, id int64) (bool, error) {
	return s.mutate(ctx, "admin.unblock", id, s.dir.Unblock)
}

// SetWelcome replaces the welcome text.
func (s *Service) SetWelcome(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyWelcome
	}
	if err := s.dir.SetWelcome(ctx, text); err != nil {
		logger.Error(ctx, "admin", "admin.welcome", slog.String("status", "fail"), slog.String("err", err.Error()))
		return err
	}
	logger.Info(ctx, "admin", "admin.welcome", slog.String("status", "ok"), slog.Int("len", len([]rune(text))))
	return nil
}

// Stats lists every known user.
func (s *Service) Stats(ctx context.Context) ([]directory.User, error) {
	return s.dir.Users(ctx)
}

// Report summarizes a broadcast.
type Report struct {
	ID        string
	Attempted int
	Delivered int
	Failed    int
	Duration  time.Duration
}

// Broadcast delivers content to every known user, continuing past failures.
func (s *Service) Broadcast(ctx context.Context, content transport.Content) (Report, error) {
	if err := content.Validate(); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}
	users, err := s.dir.Users(ctx)
	if err != nil {
		return Report{}, err
	}

	rep := Report{ID: uuid.NewString(), Attempted: len(users)}
	start := time.Now()
	for _, u := range users {
		if err := s.out.SendContent(ctx, u.ID, content); err != nil {
			rep.Failed++
			logger.Debug(ctx, "admin", "broadcast.deliver",
				slog.String("status", "fail"),
				slog.String("run_id", rep.ID),
				slog.Int64("target_id", u.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		rep.Delivered++
	}
	rep.Duration = time.Since(start)

	logger.Info(ctx, "admin", "broadcast.done",
		slog.String("status", "ok"),
		slog.String("run_id", rep.ID),
		slog.String("kind", string(content.Kind)),
		slog.Int("attempted", rep.Attempted),
		slog.Int("delivered", rep.Delivered),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", rep.Duration),
	)
	return rep, nil
}
