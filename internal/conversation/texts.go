package conversation

import (
	"fmt"
	"strings"
)

// Texts holds every user-facing string the router sends.
type Texts struct {
	SendMessageButton string
	NewMessageButton  string
	ReplyButton       string
	NewReplyButton    string

	AwaitingMessage string
	MessageSent     string
	AwaitingReply   string
	ReplySent       string
	ReplyFailed     string
}

// DefaultTexts are used unless WithTexts overrides them.
var DefaultTexts = Texts{
	SendMessageButton: "✉️ Send message",
	NewMessageButton:  "✉️ Send new message",
	ReplyButton:       "✉️ Reply",
	NewReplyButton:    "✉️ New reply",

	AwaitingMessage: "Write your message and I will pass it to the admins 📩",
	MessageSent:     "✅ Your message was sent. You will get an answer soon.",
	AwaitingReply:   "Write your reply to %s:",
	ReplySent:       "✅ Reply sent.",
	ReplyFailed:     "❌ Failed to deliver the reply to %d.",
}

// withDefaults fills empty fields from DefaultTexts.
func (t Texts) withDefaults() Texts {
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&t.SendMessageButton, DefaultTexts.SendMessageButton)
	fill(&t.NewMessageButton, DefaultTexts.NewMessageButton)
	fill(&t.ReplyButton, DefaultTexts.ReplyButton)
	fill(&t.NewReplyButton, DefaultTexts.NewReplyButton)
	fill(&t.AwaitingMessage, DefaultTexts.AwaitingMessage)
	fill(&t.MessageSent, DefaultTexts.MessageSent)
	fill(&t.AwaitingReply, DefaultTexts.AwaitingReply)
	fill(&t.ReplySent, DefaultTexts.ReplySent)
	fill(&t.ReplyFailed, DefaultTexts.ReplyFailed)
	return t
}

// FormatSender renders "Name (@handle)" or "Name (no handle)".
func FormatSender(name, handle string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return name + " (no handle)"
	}
	return fmt.Sprintf("%s (@%s)", name, handle)
}

// forwardText is what every admin receives for a relayed user message.
func forwardText(s Sender, body string) string {
	return fmt.Sprintf("📨 Message from %s | id %d:\n\n%s", FormatSender(s.DisplayName, s.Handle), s.ID, body)
}
