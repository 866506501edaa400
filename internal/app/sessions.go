package app

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionIDLen = 8

// SessionManager owns the session-id → session map. Its lock guards
// only create/lookup/delete; everything inside a session has its own
// boundary, so traffic to different sessions never contends here beyond
// the map read.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]core.SessionService
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[domain.SessionID]core.SessionService)}
}

// Create allocates a session under a fresh id and host secret. The id
// is short enough to share out loud but random enough to act as the
// join capability; the secret is a full UUID and proves host authority.
func (m *SessionManager) Create() (core.SessionService, domain.HostSecret) {
	secret := domain.HostSecret(uuid.NewString())
	m.mu.Lock()
	defer m.mu.Unlock()
	var id domain.SessionID
	for {
		id = domain.SessionID(strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionIDLen])
		if _, taken := m.sessions[id]; !taken {
			break
		}
	}
	sess := core.NewSession(id, secret)
	m.sessions[id] = sess
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Msg("session created")
	return sess, secret
}

func (m *SessionManager) Get(id domain.SessionID) (core.SessionService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// RemoveIfEmpty evicts a session only while it still has no members.
// The count is re-read under the manager lock because a join may have
// admitted someone since the caller observed the session empty.
func (m *SessionManager) RemoveIfEmpty(id domain.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.MemberCount() > 0 {
		return
	}
	delete(m.sessions, id)
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Msg("session removed")
}

// Reinstate puts a populated session back under its id if a concurrent
// eviction removed it. Ids are never reused, so re-inserting under the
// original id cannot collide.
func (m *SessionManager) Reinstate(sess core.SessionService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.ID()]; ok {
		return
	}
	m.sessions[sess.ID()] = sess
	log.Info().Str("module", "app.sessions").Str("session", string(sess.ID())).Msg("session reinstated")
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
