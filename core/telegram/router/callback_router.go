package router

import (
	"log/slog"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the single OnCallback route that dispatches button
// presses through the registry by unique key.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		_ = c.Respond()

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			fallback := reg.CallbackNotFound()
			return handle(c, name, func(c tele.Context) error {
				if fallback != nil {
					if err := fallback(c); err != nil {
						return err
					}
				}
				return Skip("not_found")
			}, slog.String("cb_key", key))
		}
		return handle(c, name, h, slog.String("cb_key", key))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
