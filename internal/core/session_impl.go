package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/domain"
)

// sessionImpl is a threadsafe in-memory session. Its mutex is the
// single-writer boundary for everything in the session: playback state,
// controls lock, and membership all mutate under it, so two concurrent
// requests against the same session can never interleave partially.
// It never closes adapter-owned resources.
type sessionImpl struct {
	id         domain.SessionID
	hostSecret domain.HostSecret

	mu       sync.RWMutex
	members  map[ClientID]MemberSession
	hostID   ClientID
	hasHost  bool
	locked   bool
	playback playbackState
}

func NewSession(id domain.SessionID, secret domain.HostSecret) SessionService {
	return &sessionImpl{
		id:         id,
		hostSecret: secret,
		members:    make(map[ClientID]MemberSession),
		playback:   newPlaybackState(),
	}
}

func (s *sessionImpl) ID() domain.SessionID { return s.id }

func (s *sessionImpl) CheckHostSecret(secret string) bool {
	return secret != "" && secret == string(s.hostSecret)
}

func (s *sessionImpl) HasActiveHost() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasHost
}

func (s *sessionImpl) MemberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

func (s *sessionImpl) Member(id ClientID) (MemberSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.members[id]
	return ms, ok
}

func (s *sessionImpl) AddMember(id ClientID, ms MemberSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = ms
	if ms.Meta().IsHost {
		s.hostID = id
		s.hasHost = true
	}
	log.Info().Str("module", "core.session").Str("session", string(s.id)).Str("client", string(id)).Bool("host", ms.Meta().IsHost).Msg("member added")
}

func (s *sessionImpl) RemoveMember(id ClientID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return len(s.members) == 0
	}
	delete(s.members, id)
	if s.hasHost && s.hostID == id {
		s.hasHost = false
	}
	log.Info().Str("module", "core.session").Str("session", string(s.id)).Str("client", string(id)).Msg("member removed")
	return len(s.members) == 0
}

func (s *sessionImpl) MembersSnapshot() []MemberDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MemberDTO, 0, len(s.members))
	for id, ms := range s.members {
		m := ms.Meta()
		out = append(out, MemberDTO{ID: id, Name: m.Name, IsHost: m.IsHost})
	}
	return out
}

func (s *sessionImpl) Snapshot() PlaybackSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PlaybackSnapshot{
		Track:          s.playback.track,
		IsPlaying:      s.playback.playing,
		Position:       s.playback.currentPosition(time.Now()),
		Volume:         s.playback.volume,
		ControlsLocked: s.locked,
	}
}

func (s *sessionImpl) LoadTrack(track *domain.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.load(track, time.Now())
}

func (s *sessionImpl) Play(position float64, track *domain.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.play(position, track, time.Now())
}

func (s *sessionImpl) Pause(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.pause(position, time.Now())
}

func (s *sessionImpl) Seek(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.seek(position, time.Now())
}

func (s *sessionImpl) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.setVolume(volume)
}

func (s *sessionImpl) ToggleControls() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = !s.locked
	return s.locked
}

func (s *sessionImpl) ControlsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// Broadcast fans a frame out to every member except from. TrySend is a
// non-blocking push onto the member's buffered send queue, so a slow or
// dead member costs a dropped frame, never a stall under the lock.
func (s *sessionImpl) Broadcast(from ClientID, data Frame) PublishResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := PublishResult{}
	for id, ms := range s.members {
		if id == from {
			continue
		}
		if err := ms.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.session").Str("session", string(s.id)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (s *sessionImpl) BroadcastAll(data Frame) PublishResult {
	return s.Broadcast("", data)
}

func (s *sessionImpl) Unicast(to ClientID, data Frame) bool {
	s.mu.RLock()
	ms, ok := s.members[to]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return ms.Signal().TrySend(data) == nil
}
