package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Dispatcher returns the sender installed by SetDispatcher, if any.
func Dispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// Async hands run to the dispatcher. Without a dispatcher, or when its queue
// rejects the job, run executes inline.
func Async(c tele.Context, action string, to int64, run func() error) error {
	disp := Dispatcher()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, to, run)
	if err == nil {
		return nil
	}
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	var to int64
	if chat := c.Chat(); chat != nil {
		to = chat.ID
	}
	return Async(c, "send.text", to, func() error {
		return c.Send(text, opts)
	})
}
