// Package directory keeps the relay's persistent collections: known users,
// admins, the block list and the welcome text.
//
// Every collection is stored as one whole document through a Store. The
// Repository serializes read-modify-write cycles per collection; plain reads
// take no lock and see the last written document.
package directory

import (
	"context"
	"errors"
	"time"
)

// Collection names a persisted document.
type Collection string

const (
	Users   Collection = "users"
	Admins  Collection = "admins"
	Blocked Collection = "blocked"
	Welcome Collection = "welcome"
)

// Collections lists every collection the repository manages.
var Collections = []Collection{Users, Admins, Blocked, Welcome}

// ErrStorage marks failures of the underlying store or undecodable documents.
var ErrStorage = errors.New("directory: storage failure")

// Store reads and writes whole documents. Read reports found=false when the
// collection was never written.
type Store interface {
	Read(ctx context.Context, c Collection) (doc []byte, found bool, err error)
	Write(ctx context.Context, c Collection, doc []byte) error
}

// User is an end user recorded on first contact.
type User struct {
	ID          int64
	DisplayName string
	Handle      string
	JoinedAt    time.Time
}

// DefaultWelcome is shown when no welcome text was ever set.
const DefaultWelcome = "Hi! Press the button below to send a message to the admins."
