package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/relaybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/router"
	"github.com/m3rciful/relaybot/internal/admin"

	tele "gopkg.in/telebot.v4"
)

// maxMessageLen keeps chunks below Telegram's 4096 character limit.
const maxMessageLen = 4000

const (
	msgStorageError  = "⚠️ Storage error, please try again later."
	msgInvalidID     = "❌ Enter a valid numeric id."
	msgReplyRequired = "Reply to the message you want to broadcast."
	msgUnsupported   = "❌ This message type cannot be broadcast."
)

func (a *App) commandTable() map[string]commands.Command {
	return map[string]commands.Command{
		"/start": {
			Handler:     a.handleStart,
			Description: "Start the bot",
		},
		"/help": {
			Handler:     a.cmdHelp,
			Description: "List admin commands",
			AdminOnly:   true,
		},
		"/stats": {
			Handler:     a.cmdStats,
			Description: "List known users",
			AdminOnly:   true,
		},
		"/forall": {
			Handler:     a.cmdBroadcast,
			Description: "Send the replied message to every user",
			Usage:       "/forall (as a reply to the message to send)",
			AdminOnly:   true,
		},
		"/addadmin": {
			Handler:     a.idCommand(a.admin.AddAdmin, "✅ New admin added.", "Already an admin."),
			Description: "Grant admin rights",
			Usage:       "/addadmin <user_id>",
			AdminOnly:   true,
		},
		"/removeadmin": {
			Handler:     a.idCommand(a.admin.RemoveAdmin, "✅ Admin removed.", "This id is not an admin."),
			Description: "Revoke admin rights",
			Usage:       "/removeadmin <user_id>",
			AdminOnly:   true,
		},
		"/block": {
			Handler:     a.idCommand(a.admin.Block, "✅ Blocked.", "Already blocked."),
			Description: "Block a user",
			Usage:       "/block <user_id>",
			AdminOnly:   true,
		},
		"/unblock": {
			Handler:     a.idCommand(a.admin.Unblock, "✅ Unblocked.", "This id is not blocked."),
			Description: "Unblock a user",
			Usage:       "/unblock <user_id>",
			AdminOnly:   true,
		},
		"/setwelcome": {
			Handler:     a.cmdSetWelcome,
			Description: "Replace the welcome text",
			Usage:       "/setwelcome <text>",
			AdminOnly:   true,
		},
	}
}

func (a *App) usage(c tele.Context) string {
	if fields := strings.Fields(c.Text()); len(fields) > 0 {
		name, _, _ := strings.Cut(fields[0], "@")
		if _, cmd, ok := a.registry.LookupCommand(name); ok && cmd.Usage != "" {
			return "Usage: " + cmd.Usage
		}
	}
	return ""
}

func (a *App) reply(c tele.Context, lines ...string) error {
	var kept []string
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	for _, chunk := range splitMessage(strings.Join(kept, "\n"), maxMessageLen) {
		if err := tghelpers.SendText(c, chunk); err != nil {
			return err
		}
	}
	return nil
}

// idCommand builds a handler for commands that take one numeric id.
func (a *App) idCommand(op func(ctx context.Context, id int64) (bool, error), changedMsg, unchangedMsg string) tele.HandlerFunc {
	return func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			_ = a.reply(c, a.usage(c))
			return router.Skip("missing_argument")
		}
		id, err := admin.ParseID(args[0])
		if err != nil {
			_ = a.reply(c, msgInvalidID, a.usage(c))
			return router.Skip("invalid_argument")
		}
		changed, err := op(tghelpers.BuildContext(c), id)
		if err != nil {
			_ = a.reply(c, msgStorageError)
			return err
		}
		if changed {
			return a.reply(c, changedMsg)
		}
		return a.reply(c, unchangedMsg)
	}
}

func (a *App) cmdSetWelcome(c tele.Context) error {
	var text string
	if m := c.Message(); m != nil {
		text = strings.TrimSpace(m.Payload)
	}
	err := a.admin.SetWelcome(tghelpers.BuildContext(c), text)
	switch {
	case errors.Is(err, admin.ErrEmptyWelcome):
		_ = a.reply(c, a.usage(c))
		return router.Skip("missing_argument")
	case err != nil:
		_ = a.reply(c, msgStorageError)
		return err
	}
	return a.reply(c, "✅ Welcome text updated.")
}

func (a *App) cmdBroadcast(c tele.Context) error {
	m := c.Message()
	if m == nil || m.ReplyTo == nil {
		_ = a.reply(c, msgReplyRequired)
		return router.Skip("missing_reply")
	}
	content, ok := ContentOf(m.ReplyTo)
	if !ok {
		_ = a.reply(c, msgUnsupported)
		return router.Skip("unsupported_content")
	}
	rep, err := a.admin.Broadcast(tghelpers.BuildContext(c), content)
	switch {
	case errors.Is(err, admin.ErrInvalidContent):
		_ = a.reply(c, msgUnsupported)
		return router.Skip("invalid_content")
	case err != nil:
		_ = a.reply(c, msgStorageError)
		return err
	}
	return a.reply(c, fmt.Sprintf("✅ Sent to %d of %d users.", rep.Delivered, rep.Attempted))
}

func (a *App) cmdStats(c tele.Context) error {
	users, err := a.admin.Stats(tghelpers.BuildContext(c))
	if err != nil {
		_ = a.reply(c, msgStorageError)
		return err
	}
	return a.reply(c, admin.RenderUsers(users))
}

func (a *App) cmdHelp(c tele.Context) error {
	cmds := a.registry.Commands()
	names := make([]string, 0, len(cmds))
	for name, cmd := range cmds {
		if cmd.AdminOnly {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	lines := []string{"🛠 Admin commands:"}
	for _, name := range names {
		cmd := cmds[name]
		usage := cmd.Usage
		if usage == "" {
			usage = name
		}
		lines = append(lines, fmt.Sprintf("%s - %s", usage, cmd.Description))
	}
	return a.reply(c, lines...)
}

// splitMessage cuts text into chunks of at most limit runes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	out := chunks[:0]
	for _, ch := range chunks {
		if ch = strings.TrimRight(ch, "\n"); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
