package core

import "github.com/jamsync/server/internal/domain"

// ClientID identifies one connected client across its lifetime. Issued
// by the token middleware, it is the identity every request carries.
type ClientID string

// Frame is a serialized wire message ready for the transport.
type Frame []byte

// SignalConnection abstracts the messaging transport for one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a domain.Member and its transport endpoint.
// This is what a session stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []ClientID
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID     ClientID `json:"id"`
	Name   string   `json:"name"`
	IsHost bool     `json:"is_host"`
}

// PlaybackSnapshot is the authoritative view sent to a joining member,
// position already projected to the instant the snapshot was taken.
type PlaybackSnapshot struct {
	Track          *domain.Track
	IsPlaying      bool
	Position       float64
	Volume         float64
	ControlsLocked bool
}

// SessionService is the core-facing API of one session. All mutation
// goes through it and is linearized internally; it owns the membership
// set and the playback state but never touches transport resources.
type SessionService interface {
	ID() domain.SessionID
	CheckHostSecret(secret string) bool
	HasActiveHost() bool

	MemberCount() int
	MembersSnapshot() []MemberDTO
	Member(id ClientID) (MemberSession, bool)
	AddMember(id ClientID, ms MemberSession)
	RemoveMember(id ClientID) (empty bool)

	Snapshot() PlaybackSnapshot
	LoadTrack(track *domain.Track)
	Play(position float64, track *domain.Track) error
	Pause(position float64) error
	Seek(position float64) error
	SetVolume(volume float64) error
	ToggleControls() (locked bool)
	ControlsLocked() bool

	Broadcast(from ClientID, data Frame) PublishResult
	BroadcastAll(data Frame) PublishResult
	Unicast(to ClientID, data Frame) bool
}
