// Package redisstore keeps directory documents as Redis string keys.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/relaybot/internal/directory"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "relaybot:"

// Store is a directory.Store over a Redis client.
type Store struct {
	rdb    redis.Cmdable
	prefix string
}

// New wraps rdb. Keys are named <prefix>doc:<collection>.
func New(rdb redis.Cmdable, prefix string) *Store {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Open creates a client and pings it.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return c, nil
}

// Key returns the Redis key for c.
func (s *Store) Key(c directory.Collection) string {
	return s.prefix + "doc:" + string(c)
}

func (s *Store) Read(ctx context.Context, c directory.Collection) ([]byte, bool, error) {
	doc, err := s.rdb.Get(ctx, s.Key(c)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc, true, nil
}

func (s *Store) Write(ctx context.Context, c directory.Collection, doc []byte) error {
	return s.rdb.Set(ctx, s.Key(c), doc, 0).Err()
}
