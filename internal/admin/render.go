package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/relaybot/internal/directory"
)

const statsTimeLayout = "2006-01-02 15:04"

// RenderUsers formats a user list, one line per user.
func RenderUsers(users []directory.User) string {
	if len(users) == 0 {
		return "No users yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Users: %d\n\n", len(users))
	for _, u := range users {
		handle := "no handle"
		if u.Handle != "" {
			handle = "@" + u.Handle
		}
		joined := "-"
		if !u.JoinedAt.IsZero() {
			joined = u.JoinedAt.In(time.UTC).Format(statsTimeLayout)
		}
		fmt.Fprintf(&b, "- %s (%s) | %d | %s\n", u.DisplayName, handle, u.ID, joined)
	}
	return strings.TrimRight(b.String(), "\n")
}
