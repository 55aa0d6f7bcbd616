package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/relaybot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunAppliesSeedersInOrder(t *testing.T) {
	var order []string
	seed := func(name string) Seeder[*[]string] {
		return SeederFunc[*[]string](func(_ context.Context, s *[]string) error {
			*s = append(*s, name)
			order = append(order, name)
			return nil
		})
	}
	store := &[]string{}
	res, err := Run(context.Background(), Options[*[]string]{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		OpenStorage: func(context.Context) (*[]string, func() error, error) {
			return store, nil, nil
		},
		Seeders: []Seeder[*[]string]{seed("a"), nil, seed("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Same(t, store, res.Storage)
	assert.NoError(t, res.Close())
}

func TestRunClosesStorageWhenSeederFails(t *testing.T) {
	closed := false
	_, err := Run(context.Background(), Options[int]{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		OpenStorage: func(context.Context) (int, func() error, error) {
			return 1, func() error { closed = true; return nil }, nil
		},
		Seeders: []Seeder[int]{SeederFunc[int](func(context.Context, int) error { return errors.New("boom") })},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, closed)
}

func TestRunValidatesOptions(t *testing.T) {
	_, err := Run(context.Background(), Options[int]{})
	assert.Error(t, err)
	_, err = Run(context.Background(), Options[int]{Config: &coreconfig.Config{}, LoggerInit: noLogger})
	assert.Error(t, err)
}
