package app

import (
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

var (
	// ErrBadHostSecret rejects a host claim whose secret does not match.
	// The join fails outright; the requester is not downgraded to a
	// listener.
	ErrBadHostSecret = errors.New("invalid host credentials")
	// ErrHostTaken rejects a second concurrent host claim. A host that
	// disconnected may reclaim with the secret on a fresh join.
	ErrHostTaken    = errors.New("session already has a host")
	ErrNotMember    = errors.New("not a session member")
	ErrUnauthorized = errors.New("controls are locked")
)

// Gateway is the single entry point for anything that changes session
// state. It resolves the requester's connection context, enforces host
// and lock authority, applies the transition, and hands the session
// back so the adapter can fan the resulting event out. Rejections
// return an error and leave no trace: no state change, no broadcast.
type Gateway struct {
	Registry *Registry
	Sessions *SessionManager
	Policy   Policy
}

// JoinResult carries everything the transport needs to answer a join:
// the session for fan-out, the admitted member, and the authoritative
// playback snapshot taken at admission.
type JoinResult struct {
	Session  core.SessionService
	Member   core.MemberSession
	Snapshot core.PlaybackSnapshot
	Name     string
	IsHost   bool
}

func (g *Gateway) CreateSession() (domain.SessionID, domain.HostSecret) {
	sess, secret := g.Sessions.Create()
	return sess.ID(), secret
}

// SessionInfo is the non-real-time lookup surface for diagnostics and
// join previews.
type SessionInfo struct {
	ID          domain.SessionID `json:"id"`
	MemberCount int              `json:"member_count"`
	Track       *domain.Track    `json:"track"`
	IsPlaying   bool             `json:"is_playing"`
	Position    float64          `json:"position"`
	Volume      float64          `json:"volume"`
}

func (g *Gateway) SessionInfo(id domain.SessionID) (SessionInfo, error) {
	sess, ok := g.Sessions.Get(id)
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	snap := sess.Snapshot()
	return SessionInfo{
		ID:          sess.ID(),
		MemberCount: sess.MemberCount(),
		Track:       snap.Track,
		IsPlaying:   snap.IsPlaying,
		Position:    snap.Position,
		Volume:      snap.Volume,
	}, nil
}

// Join admits a client into a session. Host claims are checked against
// the session's secret; a mismatch or a duplicate host is a hard
// reject. A client already in a session is moved out of it first.
func (g *Gateway) Join(id core.ClientID, sessionID domain.SessionID, asHost bool, secret, name string, conn core.SignalConnection) (*JoinResult, error) {
	sess, ok := g.Sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if asHost {
		if !sess.CheckHostSecret(secret) {
			log.Warn().Str("module", "app.gateway").Str("client", string(id)).Str("session", string(sessionID)).Msg("host claim with bad secret")
			return nil, ErrBadHostSecret
		}
		if sess.HasActiveHost() {
			return nil, ErrHostTaken
		}
	}

	if len(name) > domain.MaxDisplayNameLen {
		// cut on a rune boundary so the kept prefix stays valid UTF-8
		cut := domain.MaxDisplayNameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	name, _ = domain.SanitizeDisplayName(name)

	if _, in := g.Registry.SessionOf(id); in {
		g.Leave(id)
	}

	member := domain.NewMember(name, asHost)
	ms := core.NewMemberSession(member, conn)
	sess.AddMember(id, ms)
	if !g.Registry.SetMembership(id, sessionID, asHost, ms) {
		// connection vanished between upgrade and join
		sess.RemoveMember(id)
		return nil, ErrNotMember
	}
	// the last previous member may have left between our lookup and
	// AddMember, evicting the session; with a member inside it must be
	// resolvable again
	g.Sessions.Reinstate(sess)

	return &JoinResult{
		Session:  sess,
		Member:   ms,
		Snapshot: sess.Snapshot(),
		Name:     name,
		IsHost:   asHost,
	}, nil
}

// Leave removes the client from its session. The surviving session is
// returned so the caller can notify remaining members; once the last
// member is gone the session is deleted and nil is returned.
func (g *Gateway) Leave(id core.ClientID) (core.SessionService, bool) {
	cc, ok := g.Registry.Get(id)
	if !ok || cc.SessionID == "" {
		return nil, false
	}
	sess, ok := g.Sessions.Get(cc.SessionID)
	g.Registry.ClearMembership(id)
	if !ok {
		return nil, false
	}
	if empty := sess.RemoveMember(id); empty {
		g.Sessions.RemoveIfEmpty(sess.ID())
		return nil, true
	}
	return sess, true
}

// authorize resolves the requester to its session and applies the
// controls-lock rule: non-hosts mutate only while unlocked. Callers
// treat any error as a silent no-op, so a locked-out client learns
// nothing it could not already infer from sync traffic.
func (g *Gateway) authorize(id core.ClientID) (core.SessionService, *ClientContext, error) {
	cc, ok := g.Registry.Get(id)
	if !ok || cc.SessionID == "" {
		return nil, nil, ErrNotMember
	}
	sess, ok := g.Sessions.Get(cc.SessionID)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	if !cc.IsHost && sess.ControlsLocked() {
		return nil, nil, ErrUnauthorized
	}
	return sess, cc, nil
}

func (g *Gateway) Play(id core.ClientID, position float64, track *domain.Track) (core.SessionService, error) {
	sess, _, err := g.authorize(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Play(position, track); err != nil {
		return nil, err
	}
	return sess, nil
}

func (g *Gateway) Pause(id core.ClientID, position float64) (core.SessionService, error) {
	sess, _, err := g.authorize(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Pause(position); err != nil {
		return nil, err
	}
	return sess, nil
}

func (g *Gateway) Seek(id core.ClientID, position float64) (core.SessionService, error) {
	sess, _, err := g.authorize(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Seek(position); err != nil {
		return nil, err
	}
	return sess, nil
}

func (g *Gateway) SetVolume(id core.ClientID, volume float64) (core.SessionService, error) {
	sess, _, err := g.authorize(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetVolume(volume); err != nil {
		return nil, err
	}
	return sess, nil
}

func (g *Gateway) LoadTrack(id core.ClientID, track *domain.Track) (core.SessionService, error) {
	sess, _, err := g.authorize(id)
	if err != nil {
		return nil, err
	}
	sess.LoadTrack(track)
	return sess, nil
}

// ToggleControls is host-only unconditionally; the lock cannot fence
// out the only identity allowed to flip it.
func (g *Gateway) ToggleControls(id core.ClientID) (core.SessionService, bool, error) {
	cc, ok := g.Registry.Get(id)
	if !ok || cc.SessionID == "" {
		return nil, false, ErrNotMember
	}
	if !cc.IsHost {
		return nil, false, ErrUnauthorized
	}
	sess, ok := g.Sessions.Get(cc.SessionID)
	if !ok {
		return nil, false, ErrSessionNotFound
	}
	return sess, sess.ToggleControls(), nil
}

// Membership gates requests that need only session membership, not
// control authority: signaling relay and stream toggles.
func (g *Gateway) Membership(id core.ClientID) (core.SessionService, *ClientContext, error) {
	cc, ok := g.Registry.Get(id)
	if !ok || cc.SessionID == "" {
		return nil, nil, ErrNotMember
	}
	sess, ok := g.Sessions.Get(cc.SessionID)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	return sess, cc, nil
}

// Relay delivers an opaque signaling frame to one specific co-member.
// Both ends must belong to the same session; anything else is a silent
// drop, mirroring fire-and-forget delivery.
func (g *Gateway) Relay(from, to core.ClientID, frame core.Frame) bool {
	sess, _, err := g.Membership(from)
	if err != nil {
		return false
	}
	if _, ok := sess.Member(to); !ok {
		log.Debug().Str("module", "app.gateway").Str("from", string(from)).Str("to", string(to)).Msg("relay target not in session, dropped")
		return false
	}
	return sess.Unicast(to, frame)
}

// HandleDropped applies the backpressure policy to members that could
// not take a frame during fan-out.
func (g *Gateway) HandleDropped(sess core.SessionService, dropped []core.ClientID) {
	if g.Policy == nil {
		return
	}
	for _, id := range dropped {
		switch g.Policy.OnBackpressure(sess, id) {
		case KickMember:
			g.Registry.Cancel(id)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}
