package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/router"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/directory/memstore"
	"github.com/m3rciful/relaybot/internal/transport/transporttest"
)

var updateSeq atomic.Int64

type fakeContext struct {
	tele.Context
	upd       tele.Update
	store     map[string]any
	responded bool

	mu   sync.Mutex
	sent []string
}

func newUser(id int64) *tele.User {
	n := strconv.FormatInt(id, 10)
	return &tele.User{ID: id, FirstName: "User", LastName: n, Username: "u" + n}
}

func messageContext(userID int64, text string) *fakeContext {
	msg := &tele.Message{
		ID:     int(updateSeq.Add(1)),
		Sender: newUser(userID),
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   text,
	}
	if strings.HasPrefix(text, "/") {
		_, payload, _ := strings.Cut(text, " ")
		msg.Payload = strings.TrimSpace(payload)
	}
	return &fakeContext{
		upd:   tele.Update{ID: int(updateSeq.Add(1)), Message: msg},
		store: map[string]any{},
	}
}

func callbackContext(userID int64, unique, payload string) *fakeContext {
	data := "\f" + unique
	if payload != "" {
		data += "|" + payload
	}
	return &fakeContext{
		upd: tele.Update{ID: int(updateSeq.Add(1)), Callback: &tele.Callback{
			ID:     "cb",
			Sender: newUser(userID),
			Data:   data,
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.upd }

func (f *fakeContext) Message() *tele.Message {
	if f.upd.Message != nil {
		return f.upd.Message
	}
	if f.upd.Callback != nil {
		return f.upd.Callback.Message
	}
	return nil
}

func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }

func (f *fakeContext) Text() string {
	if f.upd.Message == nil {
		return ""
	}
	return f.upd.Message.Text
}

func (f *fakeContext) Args() []string {
	if f.upd.Message == nil {
		return nil
	}
	return strings.Fields(f.upd.Message.Payload)
}

func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	if f.upd.Message != nil {
		return f.upd.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded = true
	return nil
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) replies() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.sent, "\n")
}

type harness struct {
	app  *App
	repo *directory.Repository
	out  *transporttest.Recorder
	opts tg.RunOptions
}

// flakyStore fails every read and write while down is set.
type flakyStore struct {
	*memstore.Store
	down atomic.Bool
}

var errStoreDown = errors.New("store down")

func (s *flakyStore) Read(ctx context.Context, c directory.Collection) ([]byte, bool, error) {
	if s.down.Load() {
		return nil, false, errStoreDown
	}
	return s.Store.Read(ctx, c)
}

func (s *flakyStore) Write(ctx context.Context, c directory.Collection, doc []byte) error {
	if s.down.Load() {
		return errStoreDown
	}
	return s.Store.Write(ctx, c, doc)
}

func newHarness(t *testing.T, admins ...int64) *harness {
	t.Helper()
	return newHarnessOn(t, memstore.New(), admins...)
}

func newHarnessOn(t *testing.T, store directory.Store, admins ...int64) *harness {
	t.Helper()
	cfg := &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "test"}}}
	repo := directory.NewRepository(store)
	_, err := repo.MergeAdmins(context.Background(), admins)
	require.NoError(t, err)
	out := transporttest.NewRecorder()
	app := New(cfg, repo, WithTransport(out))
	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	return &harness{app: app, repo: repo, out: out, opts: opts}
}

func (h *harness) route(endpoint any) tele.HandlerFunc {
	for _, r := range h.opts.Routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	return nil
}

// dispatch mimics telebot: pick the route for the update, then run it
// through the registered middleware chain.
func (h *harness) dispatch(t *testing.T, c *fakeContext) {
	t.Helper()
	require.NoError(t, h.run(t, c))
}

func (h *harness) run(t *testing.T, c *fakeContext) error {
	t.Helper()
	var handler tele.HandlerFunc
	switch {
	case c.upd.Callback != nil:
		handler = h.route(tele.OnCallback)
	default:
		if text := c.Text(); router.IsCommand(text) {
			name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
			handler = h.route(name)
		}
		if handler == nil {
			handler = h.route(tele.OnText)
		}
	}
	require.NotNil(t, handler)
	for i := len(h.opts.Middlewares) - 1; i >= 0; i-- {
		handler = h.opts.Middlewares[i].Use(handler)
	}
	return handler(c)
}

func (h *harness) command(t *testing.T, from int64, text string) *fakeContext {
	t.Helper()
	c := messageContext(from, text)
	h.dispatch(t, c)
	return c
}
