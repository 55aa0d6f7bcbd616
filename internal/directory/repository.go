package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
)

// Repository is the typed view over a Store.
type Repository struct {
	store          Store
	locks          map[Collection]*sync.Mutex
	defaultWelcome string
	now            func() time.Time
}

// Option customizes a Repository.
type Option func(*Repository)

// WithDefaultWelcome overrides DefaultWelcome.
func WithDefaultWelcome(text string) Option {
	return func(r *Repository) {
		if strings.TrimSpace(text) != "" {
			r.defaultWelcome = text
		}
	}
}

// WithClock sets the time source used for JoinedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRepository wraps store.
func NewRepository(store Store, opts ...Option) *Repository {
	r := &Repository{
		store:          store,
		locks:          make(map[Collection]*sync.Mutex, len(Collections)),
		defaultWelcome: DefaultWelcome,
		now:            time.Now,
	}
	for _, c := range Collections {
		r.locks[c] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) read(ctx context.Context, c Collection) ([]byte, bool, error) {
	doc, found, err := r.store.Read(ctx, c)
	if err != nil {
		logger.Error(ctx, "store", "store.read",
			slog.String("status", "fail"),
			slog.String("collection", string(c)),
			slog.String("err", err.Error()),
		)
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrStorage, c, err)
	}
	return doc, found, nil
}

func (r *Repository) write(ctx context.Context, c Collection, doc []byte) error {
	start := time.Now()
	if err := r.store.Write(ctx, c, doc); err != nil {
		logger.Error(ctx, "store", "store.write",
			slog.String("status", "fail"),
			slog.String("collection", string(c)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: write %s: %w", ErrStorage, c, err)
	}
	logger.Debug(ctx, "store", "store.write",
		slog.String("status", "ok"),
		slog.String("collection", string(c)),
		slog.Int("bytes", len(doc)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func corrupt(c Collection, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, c, err)
}

// Users returns every known user ordered by join time, then id.
func (r *Repository) Users(ctx context.Context) ([]User, error) {
	users, err := r.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// User looks up a single user.
func (r *Repository) User(ctx context.Context, id int64) (User, bool, error) {
	users, err := r.loadUsers(ctx)
	if err != nil {
		return User{}, false, err
	}
	u, ok := users[id]
	return u, ok, nil
}

func (r *Repository) loadUsers(ctx context.Context) (map[int64]User, error) {
	doc, _, err := r.read(ctx, Users)
	if err != nil {
		return nil, err
	}
	users, err := decodeUsers(doc)
	if err != nil {
		return nil, corrupt(Users, err)
	}
	return users, nil
}

// RecordUser stores u unless its id is already known; stored users are never
// updated. A zero JoinedAt is set to the current time.
func (r *Repository) RecordUser(ctx context.Context, u User) (bool, error) {
	mu := r.locks[Users]
	mu.Lock()
	defer mu.Unlock()

	users, err := r.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	if _, exists := users[u.ID]; exists {
		return false, nil
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = r.now()
	}
	users[u.ID] = u
	doc, err := encodeUsers(users)
	if err != nil {
		return false, corrupt(Users, err)
	}
	if err := r.write(ctx, Users, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) ids(ctx context.Context, c Collection) ([]int64, error) {
	doc, _, err := r.read(ctx, c)
	if err != nil {
		return nil, err
	}
	ids, err := decodeIDs(doc)
	if err != nil {
		return nil, corrupt(c, err)
	}
	return ids, nil
}

// mutateIDs applies fn under the collection lock and writes the result when
// fn reports a change.
func (r *Repository) mutateIDs(ctx context.Context, c Collection, fn func([]int64) ([]int64, bool)) (bool, error) {
	mu := r.locks[c]
	mu.Lock()
	defer mu.Unlock()

	ids, err := r.ids(ctx, c)
	if err != nil {
		return false, err
	}
	next, changed := fn(ids)
	if !changed {
		return false, nil
	}
	doc, err := encodeIDs(next)
	if err != nil {
		return false, corrupt(c, err)
	}
	if err := r.write(ctx, c, doc); err != nil {
		return false, err
	}
	return true, nil
}

func insertID(id int64) func([]int64) ([]int64, bool) {
	return func(ids []int64) ([]int64, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		return append(ids, id), true
	}
}

func deleteID(id int64) func([]int64) ([]int64, bool) {
	return func(ids []int64) ([]int64, bool) {
		if !slices.Contains(ids, id) {
			return ids, false
		}
		return slices.DeleteFunc(ids, func(v int64) bool { return v == id }), true
	}
}

func (r *Repository) contains(ctx context.Context, c Collection, id int64) (bool, error) {
	ids, err := r.ids(ctx, c)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Admins returns the admin set in stored order.
func (r *Repository) Admins(ctx context.Context) ([]int64, error) {
	return r.ids(ctx, Admins)
}

// IsAdmin reads the admin set on every call.
func (r *Repository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	return r.contains(ctx, Admins, id)
}

// AddAdmin reports false when id already was an admin.
func (r *Repository) AddAdmin(ctx context.Context, id int64) (bool, error) {
	return r.mutateIDs(ctx, Admins, insertID(id))
}

// RemoveAdmin reports false when id was not an admin.
func (r *Repository) RemoveAdmin(ctx context.Context, id int64) (bool, error) {
	return r.mutateIDs(ctx, Admins, deleteID(id))
}

// MergeAdmins adds every id not yet present and returns how many were added.
func (r *Repository) MergeAdmins(ctx context.Context, ids []int64) (int, error) {
	added := 0
	_, err := r.mutateIDs(ctx, Admins, func(current []int64) ([]int64, bool) {
		for _, id := range ids {
			if !slices.Contains(current, id) {
				current = append(current, id)
				added++
			}
		}
		return current, added > 0
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (r *Repository) Blocked(ctx context.Context) ([]int64, error) {
	return r.ids(ctx, Blocked)
}

func (r *Repository) IsBlocked(ctx context.Context, id int64) (bool, error) {
	return r.contains(ctx, Blocked, id)
}

// Block reports false when id was already blocked.
func (r *Repository) Block(ctx context.Context, id int64) (bool, error) {
	return r.mutateIDs(ctx, Blocked, insertID(id))
}

// Unblock reports false when id was not blocked.
func (r *Repository) Unblock(ctx context.Context, id int64) (bool, error) {
	return r.mutateIDs(ctx, Blocked, deleteID(id))
}

// Welcome returns the stored welcome text or the default one.
func (r *Repository) Welcome(ctx context.Context) (string, error) {
	doc, found, err := r.read(ctx, Welcome)
	if err != nil {
		return "", err
	}
	if !found || len(doc) == 0 {
		return r.defaultWelcome, nil
	}
	text, err := decodeWelcome(doc)
	if err != nil {
		return "", corrupt(Welcome, err)
	}
	if strings.TrimSpace(text) == "" {
		return r.defaultWelcome, nil
	}
	return text, nil
}

// SetWelcome replaces the welcome text wholesale.
func (r *Repository) SetWelcome(ctx context.Context, text string) error {
	mu := r.locks[Welcome]
	mu.Lock()
	defer mu.Unlock()
	doc, err := json.Marshal(text)
	if err != nil {
		return corrupt(Welcome, err)
	}
	return r.write(ctx, Welcome, doc)
}
