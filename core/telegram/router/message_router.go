package router

import (
	"regexp"

	tg "github.com/m3rciful/relaybot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// commandRx is the form telebot itself treats as a command.
var commandRx = regexp.MustCompile(`^(/\w+)(@(\w+))?(\s|$)`)

// IsCommand reports whether text is a bot command rather than plain text
// that happens to start with a slash.
func IsCommand(text string) bool {
	return commandRx.MatchString(text)
}

// TextRoute routes plain text to the registry's text fallback. Commands
// that reach it are unknown to the bot and are ignored.
func TextRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if IsCommand(c.Text()) {
			return handle(c, "unknown_command", func(tele.Context) error {
				return Skip("unknown_command")
			})
		}
		fb := reg.TextFallback()
		if fb == nil {
			return handle(c, "text", func(tele.Context) error {
				return Skip("no_fallback")
			})
		}
		return handle(c, "text", fb)
	}
	return tg.Route{Endpoint: tele.OnText, Handler: handler}
}
