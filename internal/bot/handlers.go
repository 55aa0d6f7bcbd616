package bot

import (
	"strings"

	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/router"
	"github.com/m3rciful/relaybot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

func senderOf(c tele.Context) (conversation.Sender, bool) {
	u := c.Sender()
	if u == nil {
		return conversation.Sender{}, false
	}
	return conversation.Sender{
		ID:          u.ID,
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
		Handle:      u.Username,
	}, true
}

// outcome turns non-acting dispositions into router skips so they are
// logged as ignored instead of ok.
func outcome(res conversation.Result, err error) error {
	if err != nil {
		return err
	}
	switch res.Disposition {
	case conversation.Dropped:
		return router.Skip("blocked")
	case conversation.Ignored:
		return router.Skip("ignored")
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	s, ok := senderOf(c)
	if !ok {
		return router.Skip("no_sender")
	}
	return outcome(a.router.Start(tghelpers.BuildContext(c), s))
}

func (a *App) handleSendMessage(c tele.Context) error {
	s, ok := senderOf(c)
	if !ok {
		return router.Skip("no_sender")
	}
	return outcome(a.router.HandleInteraction(tghelpers.BuildContext(c), conversation.InteractionEvent{
		Actor: s,
		Tag:   conversation.TagStartConversation,
	}))
}

func (a *App) handleReply(c tele.Context) error {
	s, ok := senderOf(c)
	if !ok {
		return router.Skip("no_sender")
	}
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return router.Skip("bad_payload")
	}
	return outcome(a.router.HandleInteraction(tghelpers.BuildContext(c), conversation.InteractionEvent{
		Actor:    s,
		Tag:      conversation.TagBindReply,
		TargetID: target,
	}))
}

func (a *App) handleText(c tele.Context) error {
	s, ok := senderOf(c)
	if !ok {
		return router.Skip("no_sender")
	}
	return outcome(a.router.HandleText(tghelpers.BuildContext(c), conversation.TextMessage{
		Sender: s,
		Body:   c.Text(),
	}))
}
