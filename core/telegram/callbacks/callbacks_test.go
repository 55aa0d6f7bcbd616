package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name        string
		cb          *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"raw with payload", &tele.Callback{Data: "\freply|42"}, "reply", "42"},
		{"raw without payload", &tele.Callback{Data: "\fsend_message"}, "send_message", ""},
		{"pre-split", &tele.Callback{Unique: "reply", Data: "42"}, "reply", "42"},
		{"payload with separator", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := Parse(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.payload, payload)
		})
	}
}
