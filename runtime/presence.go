// Package runtime hosts the live delivery machinery: the presence directory
// and the router that fans freshly persisted messages out to connected
// sessions. No storage or transport details belong here.
package runtime

import (
	"sync"

	"github.com/google/uuid"

	"chatwire/contract"
)

// Presence is the process-wide map from user identity to live session.
// One entry per identity: a reconnect overwrites the previous session
// (last-connected-wins), so a user is reachable through at most one sink.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]contract.Session
}

func NewPresence() *Presence {
	return &Presence{sessions: make(map[string]contract.Session)}
}

// Register inserts or overwrites the identity's session. Idempotent.
func (p *Presence) Register(userID string, session contract.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[userID] = session
}

// Lookup reports whether an identity is currently reachable for push
// delivery. Absence says nothing about whether the user exists.
func (p *Presence) Lookup(userID string) (contract.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	session, ok := p.sessions[userID]
	return session, ok
}

// Unregister removes the entry whose session handle matches, if any.
// Matching by handle rather than identity matters: a disconnect can arrive
// after the same identity has already re-registered with a new session, and
// removing by identity would evict the live replacement.
func (p *Presence) Unregister(handle uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, session := range p.sessions {
		if session.Handle == handle {
			delete(p.sessions, userID)
			break
		}
	}
}

// Connected returns the number of live sessions.
func (p *Presence) Connected() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}
