package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/relaybot/core/config"
)

func names(mws []Middleware) []string {
	out := make([]string, 0, len(mws))
	for _, mw := range mws {
		out = append(out, mw.Name)
	}
	return out
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, MiddlewareHooks{})))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}
	hooks := MiddlewareHooks{IsBlocked: func(context.Context, int64) (bool, error) { return false, nil }}
	assert.Equal(t,
		[]string{"recover", "logger", "blocked", "rate_limit", "metrics"},
		names(DefaultMiddlewares(cfg, hooks)),
	)
}
