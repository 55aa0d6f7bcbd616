package middleware

import (
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// BlockedMiddleware drops every update from a blocked sender before any
// handler runs. Callbacks are still answered so the client stops spinning.
// A failed lookup lets the update through; handlers re-check membership
// and report storage errors themselves.
func BlockedMiddleware(isBlocked MembershipCheck) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if isBlocked == nil {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			blocked, err := isBlocked(ctx, user.ID)
			if err != nil {
				logger.Warn(ctx, "tg", "access.check",
					slog.String("status", "fail"),
					slog.String("check", "blocked"),
					slog.Any("err", err),
				)
				return next(c)
			}
			if !blocked {
				return next(c)
			}
			if c.Callback() != nil {
				_ = c.Respond()
			}
			logger.Debug(ctx, "tg", "update.dropped",
				slog.String("status", "drop"),
				slog.String("outcome", "dropped"),
				slog.String("cause", "blocked"),
			)
			return nil
		}
	}
}
