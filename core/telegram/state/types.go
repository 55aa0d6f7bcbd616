package state

// State identifies a step of an actor's conversation.
type State string

const (
	// StateIdle indicates there is no active conversation with the actor.
	StateIdle State = "idle"
	// StateAwaitingMessage marks a user whose next text message is relayed to admins.
	StateAwaitingMessage State = "awaiting_message"
)

// Session stores conversation state and temporary data for an actor.
type Session struct {
	State    State
	TempData map[string]any
}

// Manager orchestrates actor sessions and state transitions.
type Manager interface {
	// Get returns a snapshot of the actor's session; mutating it has no effect.
	Get(userID int64) Session
	Clear(userID int64)

	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	ClearState(userID int64)
	// ConsumeState resets the actor to StateIdle and reports true only when
	// the actor was in st.
	ConsumeState(userID int64, st State) bool

	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	GetTempInt64(userID int64, key string) (int64, bool)
	// TakeTempInt64 returns and deletes an int64 temp value.
	TakeTempInt64(userID int64, key string) (int64, bool)
	ClearTemp(userID int64, key string)
}
