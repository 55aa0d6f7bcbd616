package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Outcome lets a handler report what it did when plain ok/fail is too coarse.
// handle logs it and does not propagate it as an error.
type Outcome struct {
	Status  string
	Outcome string
	Cause   string
}

func (o *Outcome) Error() string { return "skipped: " + o.Cause }

// Skip reports that the update was intentionally left unhandled.
func Skip(cause string) error {
	return &Outcome{Status: "skip", Outcome: "ignored", Cause: cause}
}

// handle runs fn under handlerName and logs one handler.handled summary.
// A Skip result is logged but not returned as an error.
func handle(c tele.Context, handlerName string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, handlerName)
	err := fn(c)

	status, outcome := "ok", "ok"
	var skip *Outcome
	switch {
	case errors.As(err, &skip):
		status, outcome = skip.Status, skip.Outcome
		extras = append(extras, slog.String("cause", skip.Cause))
		err = nil
	case err != nil:
		status, outcome = "fail", "fail"
	}

	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
	return err
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode derives a stable upper-case code from the error's Code method
// or its concrete type name.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
