// Package callbacks decodes inline button data produced by telebot.
//
// A data button is sent to Telegram as "\f<unique>|<payload>". When a
// handler for the unique is registered directly on the bot, telebot strips
// that prefix into Callback.Unique; when callbacks go through a single
// OnCallback route the raw form stays in Callback.Data.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the unique key and payload of cb.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(strings.TrimSpace(cb.Data), "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Payload returns the payload of the current callback.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}

// PayloadInt64 parses the callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(Payload(c)), 10, 64)
}
