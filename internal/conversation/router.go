// Package conversation routes inbound relay traffic between users and admins.
//
// A user arms the relay with the "send message" affordance; their next text
// is fanned out to every admin with a reply affordance bound to the user. An
// admin who presses that affordance is bound to the user; their next text is
// delivered to the user. Each flag or binding is consumed by exactly one
// message, whatever the delivery outcome.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/state"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/moderation"
	"github.com/m3rciful/relaybot/internal/transport"
)

const (
	// ActionStartConversation arms the sender for one relayed message.
	ActionStartConversation = "send_message"
	// ActionBindReply binds an admin to the user id carried as payload.
	ActionBindReply = "reply"

	tempReplyTarget = "reply_target"
)

// Tag is the kind of an InteractionEvent.
type Tag int

const (
	TagStartConversation Tag = iota + 1
	TagBindReply
)

// Sender identifies the actor behind an inbound event.
type Sender struct {
	ID          int64
	DisplayName string
	Handle      string
}

// TextMessage is an inbound free-form text.
type TextMessage struct {
	Sender Sender
	Body   string
}

// InteractionEvent is an inbound affordance activation. TargetID is set for
// TagBindReply.
type InteractionEvent struct {
	Actor    Sender
	Tag      Tag
	TargetID int64
}

// Disposition is the single outcome of routing one event.
type Disposition string

const (
	Dropped     Disposition = "dropped"
	Ignored     Disposition = "ignored"
	Started     Disposition = "started"
	Armed       Disposition = "armed"
	Bound       Disposition = "bound"
	Relayed     Disposition = "relayed"
	Delivered   Disposition = "delivered"
	ReplyFailed Disposition = "reply_failed"
)

// Result describes what happened to an event.
type Result struct {
	Disposition Disposition
	// RunID identifies a fan-out in logs.
	RunID string
	// Target is the recipient of an admin reply or binding.
	Target    int64
	Delivered int
	Failed    int
}

// Directory is the persisted state the router reads and records into.
type Directory interface {
	RecordUser(ctx context.Context, u directory.User) (bool, error)
	User(ctx context.Context, id int64) (directory.User, bool, error)
	Admins(ctx context.Context) ([]int64, error)
	Welcome(ctx context.Context) (string, error)
}

// Gate classifies actors before routing.
type Gate interface {
	Admit(ctx context.Context, id int64) (moderation.Verdict, error)
}

// Router owns per-actor pending state and decides message disposition.
type Router struct {
	dir    Directory
	gate   Gate
	out    transport.Transport
	states state.Manager
	texts  Texts
}

// Option customizes a Router.
type Option func(*Router)

// WithTexts replaces the default wording. Empty fields keep their defaults.
func WithTexts(t Texts) Option {
	return func(r *Router) { r.texts = t.withDefaults() }
}

// WithStates supplies the pending-state store.
func WithStates(m state.Manager) Option {
	return func(r *Router) {
		if m != nil {
			r.states = m
		}
	}
}

func NewRouter(dir Directory, gate Gate, out transport.Transport, opts ...Option) *Router {
	r := &Router{
		dir:    dir,
		gate:   gate,
		out:    out,
		states: state.NewMemoryManager(),
		texts:  DefaultTexts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// States exposes the pending-state store.
func (r *Router) States() state.Manager { return r.states }

// StartAffordance is the button that arms a user.
func (r *Router) StartAffordance() transport.Affordance {
	return transport.Affordance{Label: r.texts.SendMessageButton, Action: ActionStartConversation}
}

func (r *Router) admit(ctx context.Context, s Sender) (moderation.Verdict, error) {
	v, err := r.gate.Admit(ctx, s.ID)
	if err != nil {
		return v, err
	}
	if v == moderation.VerdictBlocked {
		logger.Debug(ctx, "relay", "relay.drop",
			slog.Int64("user_id", s.ID),
			slog.String("disposition", string(Dropped)),
		)
	}
	return v, nil
}

func (r *Router) remember(ctx context.Context, s Sender) error {
	created, err := r.dir.RecordUser(ctx, directory.User{ID: s.ID, DisplayName: s.DisplayName, Handle: s.Handle})
	if err != nil {
		return err
	}
	if created {
		logger.Info(ctx, "relay", "relay.user_recorded", slog.Int64("target_id", s.ID))
	}
	return nil
}

// Start records the sender on first contact and shows the welcome text.
func (r *Router) Start(ctx context.Context, s Sender) (Result, error) {
	v, err := r.admit(ctx, s)
	if err != nil {
		return Result{}, err
	}
	if v == moderation.VerdictBlocked {
		return Result{Disposition: Dropped}, nil
	}
	if err := r.remember(ctx, s); err != nil {
		return Result{}, err
	}
	welcome, err := r.dir.Welcome(ctx)
	if err != nil {
		return Result{}, err
	}
	r.out.Notify(ctx, s.ID, welcome, r.StartAffordance())
	return Result{Disposition: Started}, nil
}

// HandleInteraction applies an affordance activation.
func (r *Router) HandleInteraction(ctx context.Context, ev InteractionEvent) (Result, error) {
	v, err := r.admit(ctx, ev.Actor)
	if err != nil {
		return Result{}, err
	}
	if v == moderation.VerdictBlocked {
		return Result{Disposition: Dropped}, nil
	}

	switch ev.Tag {
	case TagStartConversation:
		r.states.SetState(ev.Actor.ID, state.StateAwaitingMessage)
		r.out.Notify(ctx, ev.Actor.ID, r.texts.AwaitingMessage)
		return Result{Disposition: Armed}, nil

	case TagBindReply:
		if v != moderation.VerdictAdmin || ev.TargetID == 0 {
			return Result{Disposition: Ignored}, nil
		}
		target, ok, err := r.dir.User(ctx, ev.TargetID)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Disposition: Ignored, Target: ev.TargetID}, nil
		}
		r.states.SetTemp(ev.Actor.ID, tempReplyTarget, target.ID)
		r.out.Notify(ctx, ev.Actor.ID, fmt.Sprintf(r.texts.AwaitingReply, FormatSender(target.DisplayName, target.Handle)))
		return Result{Disposition: Bound, Target: target.ID}, nil
	}
	return Result{Disposition: Ignored}, nil
}

// HandleText routes a free-form text by the sender's current role.
func (r *Router) HandleText(ctx context.Context, msg TextMessage) (Result, error) {
	v, err := r.admit(ctx, msg.Sender)
	if err != nil {
		return Result{}, err
	}
	switch v {
	case moderation.VerdictBlocked:
		return Result{Disposition: Dropped}, nil
	case moderation.VerdictAdmin:
		return r.deliverReply(ctx, msg)
	default:
		return r.relay(ctx, msg)
	}
}

func (r *Router) deliverReply(ctx context.Context, msg TextMessage) (Result, error) {
	admin := msg.Sender.ID
	target, ok := r.states.TakeTempInt64(admin, tempReplyTarget)
	if !ok {
		return Result{Disposition: Ignored}, nil
	}

	start := time.Now()
	if err := r.out.SendText(ctx, target, msg.Body); err != nil {
		logger.Warn(ctx, "relay", "relay.reply",
			slog.String("status", "fail"),
			slog.Int64("target_id", target),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		r.out.Notify(ctx, admin, fmt.Sprintf(r.texts.ReplyFailed, target))
		return Result{Disposition: ReplyFailed, Target: target, Failed: 1}, nil
	}

	logger.Info(ctx, "relay", "relay.reply",
		slog.String("status", "ok"),
		slog.Int64("target_id", target),
		slog.Duration("duration", logger.Took(start)),
	)
	r.out.Notify(ctx, admin, r.texts.ReplySent, transport.Affordance{
		Label:   r.texts.NewReplyButton,
		Action:  ActionBindReply,
		Payload: strconv.FormatInt(target, 10),
	})
	return Result{Disposition: Delivered, Target: target, Delivered: 1}, nil
}

func (r *Router) relay(ctx context.Context, msg TextMessage) (Result, error) {
	s := msg.Sender
	if err := r.remember(ctx, s); err != nil {
		logger.Warn(ctx, "relay", "relay.user_record",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if !r.states.ConsumeState(s.ID, state.StateAwaitingMessage) {
		return Result{Disposition: Ignored}, nil
	}

	admins, err := r.dir.Admins(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Disposition: Relayed, RunID: uuid.NewString()}
	start := time.Now()
	text := forwardText(s, msg.Body)
	reply := transport.Affordance{
		Label:   r.texts.ReplyButton,
		Action:  ActionBindReply,
		Payload: strconv.FormatInt(s.ID, 10),
	}
	for _, admin := range admins {
		if err := r.out.SendText(ctx, admin, text, reply); err != nil {
			res.Failed++
			logger.Warn(ctx, "relay", "relay.forward",
				slog.String("status", "fail"),
				slog.String("run_id", res.RunID),
				slog.Int64("target_id", admin),
				slog.String("err", err.Error()),
			)
			continue
		}
		res.Delivered++
	}

	logger.Info(ctx, "relay", "relay.fanout",
		slog.String("status", "ok"),
		slog.String("run_id", res.RunID),
		slog.Int("admins", len(admins)),
		slog.Int("delivered", res.Delivered),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", logger.Took(start)),
	)
	r.out.Notify(ctx, s.ID, r.texts.MessageSent, transport.Affordance{
		Label:  r.texts.NewMessageButton,
		Action: ActionStartConversation,
	})
	return res, nil
}
