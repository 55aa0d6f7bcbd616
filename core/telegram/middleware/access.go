package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MembershipCheck answers whether userID belongs to a set (admins, blocked)
// at the moment of the call.
type MembershipCheck func(ctx context.Context, userID int64) (bool, error)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	IsAdmin  MembershipCheck
	OnReject tele.HandlerFunc
	// OnError runs when the membership lookup itself fails. Without it the
	// lookup error is returned to the router.
	OnError func(c tele.Context, err error) error
}

// AdminOnlyMiddleware lets only current admins reach downstream handlers.
// Without an IsAdmin check every sender is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil && opts.IsAdmin != nil {
				ctx := tghelpers.BuildContext(c)
				ok, err := opts.IsAdmin(ctx, user.ID)
				if err != nil {
					logger.Error(ctx, "tg", "access.check",
						slog.String("status", "fail"),
						slog.String("check", "admin"),
						slog.Any("err", err),
					)
					if opts.OnError != nil {
						return opts.OnError(c, err)
					}
					return err
				}
				if ok {
					return next(c)
				}
			}
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
