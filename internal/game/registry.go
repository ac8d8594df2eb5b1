package game

import (
	"sync"

	"github.com/google/uuid"
)

// Registry owns the sessionID -> Session map and the connID -> sessionID
// index. It is pure bookkeeping: no game knowledge, no delivery. The mutex
// guards only the maps; per-session state is serialized by the session's own
// lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byConn   map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
	}
}

// Create allocates a session with a fresh identifier and the given starting
// position, stores it, and returns it.
func (r *Registry) Create(position string) *Session {
	s := newSession(uuid.NewString(), position)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns the session for id, or ErrSessionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session. Idempotent.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Bind records that connID currently occupies a slot in sessionID. A second
// bind for the same connection overwrites the first.
func (r *Registry) Bind(connID, sessionID string) {
	r.mu.Lock()
	r.byConn[connID] = sessionID
	r.mu.Unlock()
}

// Unbind drops the index entry for connID. Idempotent.
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	delete(r.byConn, connID)
	r.mu.Unlock()
}

// SessionFor resolves the session connID is bound to, so departure does not
// need the caller to resupply the session id.
func (r *Registry) SessionFor(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Stats reports live counts for the HTTP API.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"sessions":          len(r.sessions),
		"bound_connections": len(r.byConn),
	}
}
