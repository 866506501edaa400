package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

// ClientContext is the explicit per-connection record: who the client
// is, which session it belongs to, and whether it claimed host there.
// Built at bind/join time and looked up on every request; nothing is
// stashed on the transport object itself.
type ClientContext struct {
	ID        core.ClientID
	SessionID domain.SessionID
	IsHost    bool
	Session   core.MemberSession
	Cancel    context.CancelFunc
}

// Registry owns the connection-identity → membership mapping. Its lock
// covers only this map; in-session state has its own boundary.
type Registry struct {
	mu      sync.RWMutex
	clients map[core.ClientID]*ClientContext
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[core.ClientID]*ClientContext)}
}

// Bind registers a freshly connected client with no session membership.
func (r *Registry) Bind(id core.ClientID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[id] = &ClientContext{ID: id, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("client bound")
}

// SetMembership records a successful join. The member session carries
// the transport endpoint the session fans out to.
func (r *Registry) SetMembership(id core.ClientID, sessionID domain.SessionID, isHost bool, ms core.MemberSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cc, ok := r.clients[id]
	if !ok {
		return false
	}
	cc.SessionID = sessionID
	cc.IsHost = isHost
	cc.Session = ms
	log.Info().Str("module", "app.registry").Str("client", string(id)).Str("session", string(sessionID)).Bool("host", isHost).Msg("membership set")
	return true
}

// ClearMembership detaches the client from its session but keeps the
// connection bound: leave does not imply disconnect.
func (r *Registry) ClearMembership(id core.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cc, ok := r.clients[id]; ok {
		cc.SessionID = ""
		cc.IsHost = false
		cc.Session = nil
	}
}

func (r *Registry) Unbind(id core.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("client unbound")
}

func (r *Registry) Get(id core.ClientID) (*ClientContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cc, ok := r.clients[id]
	return cc, ok
}

// SessionOf returns the session a client currently belongs to, if any.
func (r *Registry) SessionOf(id core.ClientID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cc, ok := r.clients[id]
	if !ok || cc.SessionID == "" {
		return "", false
	}
	return cc.SessionID, true
}

// Cancel tears a connection down through its context; the transport
// pumps observe the cancellation and run the normal disconnect path.
func (r *Registry) Cancel(id core.ClientID) bool {
	r.mu.RLock()
	cc, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if cc.Cancel != nil {
		cc.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("canceled client")
	return true
}
