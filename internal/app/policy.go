package app

import "github.com/jamsync/server/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

type Policy interface {
	OnBackpressure(sess core.SessionService, member core.ClientID) BackpressureAction
}

// SimplePolicy disconnects a member whose send queue is full. The
// client reconnects and rejoins with a fresh snapshot, which is cheaper
// than letting a stale queue grow.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(sess core.SessionService, member core.ClientID) BackpressureAction {
	return KickMember
}
