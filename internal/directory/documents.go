package directory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// userRecord is the stored shape of a user, keyed by decimal id.
type userRecord struct {
	Name      string  `json:"name"`
	Username  *string `json:"username"`
	StartTime string  `json:"start_time"`
}

// Older documents carry local timestamps without a zone.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseStartTime(s string) time.Time {
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}

func decodeUsers(doc []byte) (map[int64]User, error) {
	users := map[int64]User{}
	if len(doc) == 0 {
		return users, nil
	}
	var raw map[string]userRecord
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for key, rec := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode users: bad id %q", key)
		}
		u := User{ID: id, DisplayName: rec.Name, JoinedAt: parseStartTime(rec.StartTime)}
		if rec.Username != nil {
			u.Handle = *rec.Username
		}
		users[id] = u
	}
	return users, nil
}

func encodeUsers(users map[int64]User) ([]byte, error) {
	raw := make(map[string]userRecord, len(users))
	for id, u := range users {
		rec := userRecord{Name: u.DisplayName, StartTime: u.JoinedAt.Format(time.RFC3339Nano)}
		if u.Handle != "" {
			handle := u.Handle
			rec.Username = &handle
		}
		raw[strconv.FormatInt(id, 10)] = rec
	}
	return json.Marshal(raw)
}

func decodeIDs(doc []byte) ([]int64, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal(doc, &ids); err != nil {
		return nil, fmt.Errorf("decode ids: %w", err)
	}
	return ids, nil
}

func encodeIDs(ids []int64) ([]byte, error) {
	if ids == nil {
		ids = []int64{}
	}
	return json.Marshal(ids)
}

// decodeWelcome accepts a bare JSON string or {"text": "..."}.
func decodeWelcome(doc []byte) (string, error) {
	var text string
	if err := json.Unmarshal(doc, &text); err == nil {
		return text, nil
	}
	var structured struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(doc, &structured); err != nil {
		return "", fmt.Errorf("decode welcome: %w", err)
	}
	return structured.Text, nil
}
