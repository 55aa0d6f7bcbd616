package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareHooks plugs bot-specific decisions into the shared chain.
type MiddlewareHooks struct {
	// IsBlocked drops updates from blocked senders before routing.
	IsBlocked middleware.MembershipCheck
	// OnLimited runs when a sender hits the rate limit.
	OnLimited tele.HandlerFunc
}

// DefaultMiddlewares builds the shared middleware chain:
// recover, logger, blocked, rate_limit, metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks MiddlewareHooks) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if hooks.IsBlocked != nil {
		mws = append(mws, Middleware{Name: "blocked", Use: middleware.BlockedMiddleware(hooks.IsBlocked)})
	}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   ex,
				OnLimited: hooks.OnLimited,
			}),
		})
	}

	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}
