package domain

import "time"

// Member represents one participant's place in a session.
// No transport or lifecycle logic here.
type Member struct {
	Name     string
	IsHost   bool
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(name string, isHost bool) *Member {
	return &Member{Name: name, IsHost: isHost, JoinedAt: time.Now()}
}
