package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd       tele.Update
	store     map[string]any
	responded bool
	sent      []any
}

func newFakeContext(userID int64, callback bool) *fakeContext {
	user := &tele.User{ID: userID}
	upd := tele.Update{ID: 1}
	if callback {
		upd.Callback = &tele.Callback{Sender: user, Data: "\fsend_message"}
	} else {
		upd.Message = &tele.Message{Sender: user, Chat: &tele.Chat{ID: userID}, Text: "hi"}
	}
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update {
	return f.upd
}

func (f *fakeContext) Callback() *tele.Callback {
	return f.upd.Callback
}

func (f *fakeContext) Text() string {
	if f.upd.Message != nil {
		return f.upd.Message.Text
	}
	return ""
}

func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	return f.upd.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func (f *fakeContext) Get(k string) any {
	return f.store[k]
}

func (f *fakeContext) Set(k string, v any) {
	f.store[k] = v
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded = true
	return nil
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func members(ids ...int64) MembershipCheck {
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id int64) (bool, error) { return set[id], nil }
}

func failing(err error) MembershipCheck {
	return func(context.Context, int64) (bool, error) { return false, err }
}

func counting(calls *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*calls++
		return nil
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var calls, rejected int
	mw := AdminOnlyMiddleware(AdminOptions{IsAdmin: members(7), OnReject: counting(&rejected)})
	h := mw(counting(&calls))

	require.NoError(t, h(newFakeContext(7, false)))
	require.NoError(t, h(newFakeContext(8, false)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rejected)

	none := AdminOnlyMiddleware(AdminOptions{})(counting(&calls))
	require.NoError(t, none(newFakeContext(7, false)))
	assert.Equal(t, 1, calls)
}

func TestAdminOnlyMiddlewareLookupFailure(t *testing.T) {
	boom := errors.New("store down")
	var calls, rejected int
	var reported error
	h := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  failing(boom),
		OnReject: counting(&rejected),
		OnError: func(_ tele.Context, err error) error {
			reported = err
			return nil
		},
	})(counting(&calls))

	require.NoError(t, h(newFakeContext(7, false)))
	assert.ErrorIs(t, reported, boom)
	assert.Zero(t, calls)
	assert.Zero(t, rejected)

	bare := AdminOnlyMiddleware(AdminOptions{IsAdmin: failing(boom)})(counting(&calls))
	assert.ErrorIs(t, bare(newFakeContext(7, false)), boom)
	assert.Zero(t, calls)
}

func TestBlockedMiddlewareDropsSilently(t *testing.T) {
	var calls int
	h := BlockedMiddleware(members(3))(counting(&calls))

	msg := newFakeContext(3, false)
	require.NoError(t, h(msg))
	assert.Empty(t, msg.sent)

	cb := newFakeContext(3, true)
	require.NoError(t, h(cb))
	assert.True(t, cb.responded)
	assert.Zero(t, calls)

	require.NoError(t, h(newFakeContext(4, false)))
	assert.Equal(t, 1, calls)

	lenient := BlockedMiddleware(failing(errors.New("store down")))(counting(&calls))
	require.NoError(t, lenient(newFakeContext(3, false)))
	assert.Equal(t, 2, calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(0, 0)
	var calls, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: counting(&limited),
		Now:       func() time.Time { return now },
	})
	h := mw(counting(&calls))

	require.NoError(t, h(newFakeContext(1, false)))
	require.NoError(t, h(newFakeContext(1, false)))
	require.NoError(t, h(newFakeContext(2, false)))
	require.NoError(t, h(newFakeContext(1, true)))
	now = now.Add(2 * time.Second)
	require.NoError(t, h(newFakeContext(1, false)))

	assert.Equal(t, 4, calls)
	assert.Equal(t, 1, limited)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newFakeContext(1, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.Equal(t, want, RecoverMiddleware(func(tele.Context) error { return want })(newFakeContext(1, false)))
}

func TestMessageMetricsMiddleware(t *testing.T) {
	c := newFakeContext(1, false)
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		return c.Send("two", &tele.ReplyMarkup{})
	})
	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newFakeContext(9, false)
	require.NoError(t, LoggerMiddleware(func(tele.Context) error { return nil })(c))
	assert.Equal(t, "1:9:9", c.Get("rid"))
}
