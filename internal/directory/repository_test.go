package directory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/directory/memstore"
)

type failingStore struct {
	readErr  error
	writeErr error
}

func (f failingStore) Read(context.Context, directory.Collection) ([]byte, bool, error) {
	return nil, false, f.readErr
}

func (f failingStore) Write(context.Context, directory.Collection, []byte) error {
	return f.writeErr
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordUserOnlyOnce(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := directory.NewRepository(memstore.New(), directory.WithClock(fixedClock(joined)))

	created, err := repo.RecordUser(ctx, directory.User{ID: 42, DisplayName: "Ann", Handle: "ann"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.RecordUser(ctx, directory.User{ID: 42, DisplayName: "Renamed"})
	require.NoError(t, err)
	assert.False(t, created)

	u, ok, err := repo.User(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ann", u.DisplayName)
	assert.Equal(t, "ann", u.Handle)
	assert.True(t, joined.Equal(u.JoinedAt))
}

func TestUsersOrderedByJoinTime(t *testing.T) {
	ctx := context.Background()
	repo := directory.NewRepository(memstore.New())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []int64{30, 10, 20} {
		_, err := repo.RecordUser(ctx, directory.User{ID: id, JoinedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	users, err := repo.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []int64{30, 10, 20}, []int64{users[0].ID, users[1].ID, users[2].ID})
}

func TestAddAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := directory.NewRepository(memstore.New())

	added, err := repo.AddAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddAdmin(ctx, 7)
	require.NoError(t, err)
	assert.False(t, added)

	admins, err := repo.Admins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, admins)

	removed, err := repo.RemoveAdmin(ctx, 8)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.RemoveAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, removed)

	isAdmin, err := repo.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestMergeAdminsKeepsPersistedSet(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, directory.Admins, []byte(`[1,2]`)))
	repo := directory.NewRepository(store)

	added, err := repo.MergeAdmins(ctx, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	admins, err := repo.Admins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, admins)

	added, err = repo.MergeAdmins(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestBlockUnblock(t *testing.T) {
	ctx := context.Background()
	repo := directory.NewRepository(memstore.New())

	changed, err := repo.Block(ctx, 5)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Block(ctx, 5)
	require.NoError(t, err)
	assert.False(t, changed)

	blocked, err := repo.IsBlocked(ctx, 5)
	require.NoError(t, err)
	assert.True(t, blocked)

	changed, err = repo.Unblock(ctx, 5)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Unblock(ctx, 5)
	require.NoError(t, err)
	assert.False(t, changed)

	list, err := repo.Blocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWelcomeDefaultAndOverride(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	repo := directory.NewRepository(store)
	text, err := repo.Welcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, directory.DefaultWelcome, text)

	repo = directory.NewRepository(store, directory.WithDefaultWelcome("hello there"))
	text, err = repo.Welcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	require.NoError(t, repo.SetWelcome(ctx, "new text"))
	text, err = repo.Welcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new text", text)

	require.NoError(t, store.Write(ctx, directory.Welcome, []byte(`{"text":"structured"}`)))
	text, err = repo.Welcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "structured", text)
}

func TestStorageFailuresAreReported(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk gone")

	repo := directory.NewRepository(failingStore{readErr: boom})
	_, err := repo.IsAdmin(ctx, 1)
	require.ErrorIs(t, err, directory.ErrStorage)
	require.ErrorIs(t, err, boom)

	repo = directory.NewRepository(failingStore{writeErr: boom})
	_, err = repo.Block(ctx, 1)
	require.ErrorIs(t, err, directory.ErrStorage)
	_, err = repo.RecordUser(ctx, directory.User{ID: 1})
	require.ErrorIs(t, err, boom)
}

func TestCorruptDocumentIsStorageError(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, directory.Blocked, []byte(`{not json`)))
	repo := directory.NewRepository(store)

	_, err := repo.IsBlocked(ctx, 1)
	require.ErrorIs(t, err, directory.ErrStorage)
}

func TestConcurrentWritesDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	repo := directory.NewRepository(memstore.New())

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := repo.AddAdmin(ctx, id)
			assert.NoError(t, err)
			_, err = repo.RecordUser(ctx, directory.User{ID: id, DisplayName: fmt.Sprint(id)})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	admins, err := repo.Admins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 50)
	users, err := repo.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 50)
}
