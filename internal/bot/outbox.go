package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
	"github.com/m3rciful/relaybot/core/telegram/sender"
	"github.com/m3rciful/relaybot/internal/transport"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned by sends issued before the bot is running.
var ErrNotBound = errors.New("outbox: bot not bound")

// API is the part of *tele.Bot the outbox needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Outbox implements transport.Transport on top of telebot.
type Outbox struct {
	mu   sync.RWMutex
	api  API
	disp *sender.Dispatcher
}

var _ transport.Transport = (*Outbox)(nil)

// Bind attaches the running bot and, optionally, the async dispatcher used by Notify.
func (o *Outbox) Bind(api API, disp *sender.Dispatcher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.api, o.disp = api, disp
}

func (o *Outbox) bound() (API, *sender.Dispatcher) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.api, o.disp
}

func markup(affordances []transport.Affordance) *tele.ReplyMarkup {
	if len(affordances) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(affordances))
	for _, a := range affordances {
		btns = append(btns, keyboard.InlineBtn{Text: a.Label, Unique: a.Action, Data: a.Payload})
	}
	return keyboard.InlineButtons(btns...)
}

func (o *Outbox) send(ctx context.Context, to int64, what interface{}, opts *tele.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return transport.Fail(to, err)
	}
	api, _ := o.bound()
	if api == nil {
		return transport.Fail(to, ErrNotBound)
	}
	if _, err := api.Send(tele.ChatID(to), what, opts); err != nil {
		return transport.Fail(to, err)
	}
	return nil
}

func (o *Outbox) SendText(ctx context.Context, to int64, text string, affordances ...transport.Affordance) error {
	return o.send(ctx, to, text, &tele.SendOptions{ReplyMarkup: markup(affordances)})
}

func (o *Outbox) SendContent(ctx context.Context, to int64, content transport.Content) error {
	if err := content.Validate(); err != nil {
		return transport.Fail(to, err)
	}
	what, err := sendable(content)
	if err != nil {
		return transport.Fail(to, err)
	}
	return o.send(ctx, to, what, &tele.SendOptions{})
}

func sendable(c transport.Content) (interface{}, error) {
	file := tele.File{FileID: c.FileID}
	switch c.Kind {
	case transport.KindText:
		return c.Text, nil
	case transport.KindPhoto:
		return &tele.Photo{File: file, Caption: c.Caption}, nil
	case transport.KindVideo:
		return &tele.Video{File: file, Caption: c.Caption}, nil
	case transport.KindVoice:
		return &tele.Voice{File: file, Caption: c.Caption}, nil
	case transport.KindDocument:
		return &tele.Document{File: file, Caption: c.Caption}, nil
	}
	return nil, fmt.Errorf("unsupported content kind %q", c.Kind)
}

// Notify queues text on the dispatcher and sends inline when there is none
// or its queue rejects the job.
func (o *Outbox) Notify(ctx context.Context, to int64, text string, affordances ...transport.Affordance) {
	run := func() error {
		return o.SendText(context.WithoutCancel(ctx), to, text, affordances...)
	}
	_, disp := o.bound()
	if disp != nil {
		err := disp.Enqueue(ctx, "notify", to, run)
		if err == nil {
			return
		}
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", "notify"),
			slog.String("err", err.Error()),
		)
	}
	if err := run(); err != nil {
		logger.Warn(ctx, "tg", "notify",
			slog.String("status", "fail"),
			slog.Int64("target_id", to),
			slog.String("err", err.Error()),
		)
	}
}

// ContentOf extracts relayable content from an inbound message. Media wins
// over text when both are present.
func ContentOf(m *tele.Message) (transport.Content, bool) {
	if m == nil {
		return transport.Content{}, false
	}
	switch {
	case m.Photo != nil:
		return transport.Content{Kind: transport.KindPhoto, FileID: m.Photo.FileID, Caption: m.Caption}, true
	case m.Video != nil:
		return transport.Content{Kind: transport.KindVideo, FileID: m.Video.FileID, Caption: m.Caption}, true
	case m.Voice != nil:
		return transport.Content{Kind: transport.KindVoice, FileID: m.Voice.FileID, Caption: m.Caption}, true
	case m.Document != nil:
		return transport.Content{Kind: transport.KindDocument, FileID: m.Document.FileID, Caption: m.Caption}, true
	case m.Text != "":
		return transport.Content{Kind: transport.KindText, Text: m.Text}, true
	}
	return transport.Content{}, false
}
