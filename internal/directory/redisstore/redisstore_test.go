package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/relaybot/internal/directory"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test:"), mr
}

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, found, err := s.Read(ctx, directory.Welcome)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Write(ctx, directory.Welcome, []byte(`"hi"`)))
	got, err := mr.Get("test:doc:welcome")
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, got)
	assert.Zero(t, mr.TTL("test:doc:welcome"))

	doc, found, err := s.Read(ctx, directory.Welcome)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"hi"`, string(doc))
}

func TestRepositoryOverRedis(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	repo := directory.NewRepository(s)

	added, err := repo.AddAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, added)
	isAdmin, err := repo.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestReadFailureSurfaces(t *testing.T) {
	s, mr := newTestStore(t)
	mr.SetError("LOADING")
	_, _, err := s.Read(context.Background(), directory.Users)
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Open(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = Open(context.Background(), "", "", 0)
	require.Error(t, err)
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, "relaybot:doc:users", New(nil, "").Key(directory.Users))
}
