package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/telegram/state"
	"github.com/m3rciful/relaybot/internal/conversation"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/directory/memstore"
	"github.com/m3rciful/relaybot/internal/transport"
)

func TestRelayOverTelegramRoutes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 7)

	h.command(t, 42, "/start")
	u, ok, err := h.repo.User(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "User 42", u.DisplayName)
	assert.Equal(t, "u42", u.Handle)

	welcome := h.out.To(42)
	require.Len(t, welcome, 1)
	assert.Equal(t, directory.DefaultWelcome, welcome[0].Content.Text)

	cb := callbackContext(42, conversation.ActionStartConversation, "")
	h.dispatch(t, cb)
	assert.True(t, cb.responded)
	assert.Equal(t, state.StateAwaitingMessage, h.app.router.States().GetState(42))

	h.command(t, 42, "hello")
	fwd := h.out.To(7)
	require.Len(t, fwd, 1)
	assert.Contains(t, fwd[0].Content.Text, "hello")
	assert.Contains(t, fwd[0].Content.Text, "42")
	require.Len(t, fwd[0].Affordances, 1)
	assert.Equal(t, conversation.ActionBindReply, fwd[0].Affordances[0].Action)
	assert.Equal(t, "42", fwd[0].Affordances[0].Payload)

	h.dispatch(t, callbackContext(7, conversation.ActionBindReply, "42"))
	h.out.Reset()
	h.command(t, 7, "hi there")

	got := h.out.To(42)
	require.Len(t, got, 1)
	assert.Equal(t, "hi there", got[0].Content.Text)
}

func TestBlockedSenderIsDroppedBeforeRouting(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 7)
	_, err := h.repo.Block(ctx, 42)
	require.NoError(t, err)
	_, err = h.repo.Block(ctx, 7)
	require.NoError(t, err)

	h.command(t, 42, "/start")
	cb := callbackContext(42, conversation.ActionStartConversation, "")
	h.dispatch(t, cb)
	assert.True(t, cb.responded)
	h.command(t, 42, "hello")

	c := h.command(t, 7, "/stats")
	assert.Empty(t, c.replies())
	assert.Empty(t, h.out.Messages())

	_, known, err := h.repo.User(ctx, 42)
	require.NoError(t, err)
	assert.False(t, known)
}

func TestAdminCommandsIgnoreNonAdmins(t *testing.T) {
	h := newHarness(t, 7)
	for _, cmd := range []string{"/stats", "/help", "/addadmin 42", "/block 7", "/setwelcome hi"} {
		c := h.command(t, 42, cmd)
		assert.Empty(t, c.replies(), cmd)
	}
	isAdmin, err := h.repo.IsAdmin(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestAddAndRemoveAdminCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 7)

	assert.Equal(t, "✅ New admin added.", h.command(t, 7, "/addadmin 9").replies())
	assert.Equal(t, "Already an admin.", h.command(t, 7, "/addadmin 9").replies())

	isAdmin, err := h.repo.IsAdmin(ctx, 9)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// the new admin can use admin commands right away
	assert.Equal(t, "✅ Admin removed.", h.command(t, 9, "/removeadmin 9").replies())
	assert.Equal(t, "This id is not an admin.", h.command(t, 7, "/removeadmin 9").replies())
}

func TestIDCommandsValidateArguments(t *testing.T) {
	h := newHarness(t, 7)

	assert.Equal(t, "Usage: /block <user_id>", h.command(t, 7, "/block").replies())
	assert.Equal(t, msgInvalidID+"\nUsage: /block <user_id>", h.command(t, 7, "/block abc").replies())

	blocked, err := h.repo.Blocked(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestBlockCommandStopsRelay(t *testing.T) {
	h := newHarness(t, 7)
	h.command(t, 42, "/start")
	h.dispatch(t, callbackContext(42, conversation.ActionStartConversation, ""))

	assert.Equal(t, "✅ Blocked.", h.command(t, 7, "/block 42").replies())
	assert.Equal(t, "Already blocked.", h.command(t, 7, "/block 42").replies())
	h.out.Reset()
	h.command(t, 42, "hello")
	assert.Empty(t, h.out.To(7))

	assert.Equal(t, "✅ Unblocked.", h.command(t, 7, "/unblock 42").replies())
	assert.Equal(t, "This id is not blocked.", h.command(t, 7, "/unblock 42").replies())

	// the armed flag survived the block
	h.command(t, 42, "hello again")
	assert.Len(t, h.out.To(7), 1)
}

func TestSetWelcomeTakesCommandArguments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 7)

	assert.Equal(t, "Usage: /setwelcome <text>", h.command(t, 7, "/setwelcome").replies())
	assert.Equal(t, "✅ Welcome text updated.", h.command(t, 7, "/setwelcome Hello,\nfriend").replies())

	text, err := h.repo.Welcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello,\nfriend", text)

	h.command(t, 50, "/start")
	got := h.out.To(50)
	require.Len(t, got, 1)
	assert.Equal(t, "Hello,\nfriend", got[0].Content.Text)
}

func TestBroadcastCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 7)
	for _, id := range []int64{1, 2, 3} {
		_, err := h.repo.RecordUser(ctx, directory.User{ID: id, DisplayName: "u"})
		require.NoError(t, err)
	}
	h.out.FailFor(2)

	assert.Equal(t, msgReplyRequired, h.command(t, 7, "/forall").replies())

	c := messageContext(7, "/forall")
	c.upd.Message.ReplyTo = &tele.Message{Text: "news"}
	h.dispatch(t, c)
	assert.Equal(t, "✅ Sent to 2 of 3 users.", c.replies())
	assert.Equal(t, "news", h.out.To(1)[0].Content.Text)
	assert.Equal(t, "news", h.out.To(3)[0].Content.Text)

	h.out.Reset()
	c = messageContext(7, "/forall")
	c.upd.Message.ReplyTo = &tele.Message{
		Photo:   &tele.Photo{File: tele.File{FileID: "photo-1"}},
		Caption: "look",
	}
	h.dispatch(t, c)
	got := h.out.To(1)
	require.Len(t, got, 1)
	assert.Equal(t, transport.Content{Kind: transport.KindPhoto, FileID: "photo-1", Caption: "look"}, got[0].Content)

	c = messageContext(7, "/forall")
	c.upd.Message.ReplyTo = &tele.Message{Sticker: &tele.Sticker{File: tele.File{FileID: "s"}}}
	h.dispatch(t, c)
	assert.Equal(t, msgUnsupported, c.replies())
}

func TestStatsAndHelpCommands(t *testing.T) {
	h := newHarness(t, 7)
	assert.Equal(t, "No users yet.", h.command(t, 7, "/stats").replies())

	h.command(t, 42, "/start")
	stats := h.command(t, 7, "/stats").replies()
	assert.Contains(t, stats, "Users: 1")
	assert.Contains(t, stats, "User 42 (@u42) | 42 |")

	help := h.command(t, 7, "/help").replies()
	for _, usage := range []string{"/addadmin <user_id>", "/setwelcome <text>", "/stats - List known users"} {
		assert.Contains(t, help, usage)
	}
	assert.NotContains(t, help, "/start")
}

func TestUnknownCommandsAndStrayCallbacks(t *testing.T) {
	h := newHarness(t, 7)
	h.command(t, 42, "/start")
	h.dispatch(t, callbackContext(42, conversation.ActionStartConversation, ""))
	h.out.Reset()

	h.command(t, 42, "/nosuchcommand")
	assert.Empty(t, h.out.Messages())
	assert.Equal(t, state.StateAwaitingMessage, h.app.router.States().GetState(42))

	cb := callbackContext(7, "stale", "1")
	h.dispatch(t, cb)
	assert.True(t, cb.responded)

	h.dispatch(t, callbackContext(7, conversation.ActionBindReply, "not-a-number"))
	_, bound := h.app.router.States().GetTempInt64(7, "reply_target")
	assert.False(t, bound)
}

func TestSlashLeadingTextIsRelayed(t *testing.T) {
	h := newHarness(t, 7)
	h.command(t, 42, "/start")
	h.dispatch(t, callbackContext(42, conversation.ActionStartConversation, ""))

	h.command(t, 42, "/etc/hosts is broken on my box")
	fwd := h.out.To(7)
	require.Len(t, fwd, 1)
	assert.Contains(t, fwd[0].Content.Text, "/etc/hosts is broken on my box")
	assert.Equal(t, state.StateIdle, h.app.router.States().GetState(42))

	h.dispatch(t, callbackContext(7, conversation.ActionBindReply, "42"))
	h.out.Reset()
	h.command(t, 7, "/ try rebooting first")

	got := h.out.To(42)
	require.Len(t, got, 1)
	assert.Equal(t, "/ try rebooting first", got[0].Content.Text)
	_, bound := h.app.router.States().GetTempInt64(7, "reply_target")
	assert.False(t, bound)
}

func TestAdminCommandReportsStorageFailure(t *testing.T) {
	store := &flakyStore{Store: memstore.New()}
	h := newHarnessOn(t, store, 7)
	store.down.Store(true)

	c := messageContext(7, "/stats")
	err := h.run(t, c)
	require.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, c.replies(), msgStorageError)

	store.down.Store(false)
	c = h.command(t, 7, "/stats")
	assert.NotContains(t, c.replies(), msgStorageError)
}

func TestPublishedCommandMenu(t *testing.T) {
	h := newHarness(t)
	visible := h.app.registry.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)

	_, err := h.app.TelegramRunOptions()
	require.NoError(t, err)
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, splitMessage("aaaa\nbbbb\ncccc", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, splitMessage("abcdefghijk", 5))

	long := strings.Repeat("line of text\n", 1000)
	for _, chunk := range splitMessage(long, maxMessageLen) {
		assert.LessOrEqual(t, len([]rune(chunk)), maxMessageLen)
	}
}
