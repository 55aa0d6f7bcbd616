// Package transporttest provides an in-memory transport.Transport for tests.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"github.com/m3rciful/relaybot/internal/transport"
)

// ErrUnreachable is returned for recipients registered with FailFor.
var ErrUnreachable = errors.New("recipient unreachable")

// Message is one recorded delivery.
type Message struct {
	To          int64
	Content     transport.Content
	Affordances []transport.Affordance
	Notice      bool
}

// Recorder captures every delivery and can fail chosen recipients.
type Recorder struct {
	mu       sync.Mutex
	failing  map[int64]bool
	messages []Message
}

func NewRecorder() *Recorder {
	return &Recorder{failing: map[int64]bool{}}
}

// FailFor makes every send to the given ids fail.
func (r *Recorder) FailFor(ids ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.failing[id] = true
	}
}

func (r *Recorder) deliver(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[m.To] {
		return transport.Fail(m.To, ErrUnreachable)
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *Recorder) SendText(_ context.Context, to int64, text string, affordances ...transport.Affordance) error {
	return r.deliver(Message{
		To:          to,
		Content:     transport.Content{Kind: transport.KindText, Text: text},
		Affordances: affordances,
	})
}

func (r *Recorder) SendContent(_ context.Context, to int64, content transport.Content) error {
	if err := content.Validate(); err != nil {
		return transport.Fail(to, err)
	}
	return r.deliver(Message{To: to, Content: content})
}

func (r *Recorder) Notify(_ context.Context, to int64, text string, affordances ...transport.Affordance) {
	_ = r.deliver(Message{
		To:          to,
		Content:     transport.Content{Kind: transport.KindText, Text: text},
		Affordances: affordances,
		Notice:      true,
	})
}

// Messages returns a copy of all successful deliveries.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// To returns deliveries addressed to id.
func (r *Recorder) To(id int64) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets recorded deliveries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
