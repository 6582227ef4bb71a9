package mcp

import (
	"slices"
	"sync"
)

// SessionRegistry records which MCP client created each wizard session, so
// notifications reach only that client and a disconnect can release its
// sessions. vet.session.create fills it.
type SessionRegistry struct {
	mu       sync.RWMutex
	owner    map[string]string              // wizard session -> client
	byClient map[string]map[string]struct{} // client -> wizard sessions
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		owner:    map[string]string{},
		byClient: map[string]map[string]struct{}{},
	}
}

// Register makes clientID the owner of sessionID, replacing any previous
// owner.
func (r *SessionRegistry) Register(sessionID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlink(sessionID)
	r.owner[sessionID] = clientID
	owned := r.byClient[clientID]
	if owned == nil {
		owned = map[string]struct{}{}
		r.byClient[clientID] = owned
	}
	owned[sessionID] = struct{}{}
}

// ClientFor returns the owning client of a wizard session.
func (r *SessionRegistry) ClientFor(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.owner[sessionID]
	return cid, ok
}

// SessionsOf lists the wizard sessions owned by clientID, sorted.
func (r *SessionRegistry) SessionsOf(clientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byClient[clientID])
}

// Forget drops one wizard session.
func (r *SessionRegistry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlink(sessionID)
}

// Remove drops a disconnected client and returns the wizard sessions it
// owned, sorted.
func (r *SessionRegistry) Remove(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := sortedKeys(r.byClient[clientID])
	for _, id := range ids {
		delete(r.owner, id)
	}
	delete(r.byClient, clientID)
	return ids
}

// unlink removes sessionID from both indexes. Callers hold mu.
func (r *SessionRegistry) unlink(sessionID string) {
	cid, ok := r.owner[sessionID]
	if !ok {
		return
	}
	delete(r.owner, sessionID)
	if owned := r.byClient[cid]; owned != nil {
		delete(owned, sessionID)
		if len(owned) == 0 {
			delete(r.byClient, cid)
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
