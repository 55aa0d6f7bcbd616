package state

import (
	"maps"
	"sync"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager() Manager {
	return &memoryManager{sessions: make(map[int64]*Session)}
}

// session returns the actor's session, creating it when missing. Callers hold mu.
func (m *memoryManager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle, TempData: make(map[string]any)}
		m.sessions[userID] = sess
	}
	return sess
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Session{State: StateIdle, TempData: map[string]any{}}
	}
	return Session{State: sess.State, TempData: maps.Clone(sess.TempData)}
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

// GetState returns the current state of an actor, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

func (m *memoryManager) HasState(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// ClearState resets the state to idle without removing temp data.
func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.State = StateIdle
	}
}

func (m *memoryManager) ConsumeState(userID int64, st State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok || sess.State != st {
		return false
	}
	sess.State = StateIdle
	return true
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	val, ok := sess.TempData[key]
	return val, ok
}

func (m *memoryManager) GetTempInt64(userID int64, key string) (int64, bool) {
	val, found := m.GetTemp(userID, key)
	if !found {
		return 0, false
	}
	v, ok := val.(int64)
	return v, ok
}

func (m *memoryManager) TakeTempInt64(userID int64, key string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return 0, false
	}
	val, found := sess.TempData[key]
	if !found {
		return 0, false
	}
	delete(sess.TempData, key)
	v, ok := val.(int64)
	return v, ok
}

func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		delete(sess.TempData, key)
	}
}
