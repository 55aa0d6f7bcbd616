package router

import (
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	IsAdmin       middleware.MembershipCheck
	OnAdminReject tele.HandlerFunc
	OnAdminError  func(c tele.Context, err error) error
}

// CommandRoutes returns one route per command and alias. Admin-only
// commands re-check admin membership on every call.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		IsAdmin:  opts.IsAdmin,
		OnReject: opts.OnAdminReject,
		OnError:  opts.OnAdminError,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		h := def.Handler
		if def.AdminOnly {
			h = adminOnly(h)
		}
		handlerName := normalizeHandlerName(name)
		wrapped := func(c tele.Context) error {
			return handle(c, handlerName, h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrapped})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + normalizeHandlerName(alias), Handler: wrapped})
		}
	}

	logger.Info(logger.Background(), "tg.wire", "complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
