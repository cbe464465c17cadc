package session

import (
	"fmt"
	"sync"
)

// Registry holds the live sessions, one per guild. Sessions exist only
// between an explicit create and destroy.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create starts a session for a guild. A guild can run at most one.
func (r *Registry) Create(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.GuildID]; exists {
		return fmt.Errorf("guild %s already has a running session", s.GuildID)
	}
	r.sessions[s.GuildID] = s
	activeSessions.Inc()
	return nil
}

// Get returns the guild's session, if any.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Destroy closes and removes the guild's session.
func (r *Registry) Destroy(guildID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	if ok {
		delete(r.sessions, guildID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	activeSessions.Dec()
	return true
}

// All returns the live sessions in no particular order.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAll destroys every session, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
		activeSessions.Dec()
	}
}
