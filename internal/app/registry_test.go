package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamsync/server/internal/core"
	"github.com/jamsync/server/internal/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("c1")
	assert.False(t, ok)

	r.Bind("c1", nil)
	cc, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, core.ClientID("c1"), cc.ID)
	assert.Empty(t, cc.SessionID)

	_, in := r.SessionOf("c1")
	assert.False(t, in, "bound but not joined")

	ms := core.NewMemberSession(domain.NewMember("A", true), &fakeConn{})
	assert.True(t, r.SetMembership("c1", "s1", true, ms))

	sid, in := r.SessionOf("c1")
	assert.True(t, in)
	assert.Equal(t, domain.SessionID("s1"), sid)

	r.ClearMembership("c1")
	_, in = r.SessionOf("c1")
	assert.False(t, in)
	_, ok = r.Get("c1")
	assert.True(t, ok, "leave keeps the connection bound")

	r.Unbind("c1")
	_, ok = r.Get("c1")
	assert.False(t, ok)
}

func TestRegistrySetMembershipUnknownClient(t *testing.T) {
	r := NewRegistry()
	ms := core.NewMemberSession(domain.NewMember("A", false), &fakeConn{})
	assert.False(t, r.SetMembership("ghost", "s1", false, ms))
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Cancel("nobody"))

	ctx, cancel := context.WithCancel(context.Background())
	r.Bind("c1", cancel)
	assert.True(t, r.Cancel("c1"))
	select {
	case <-ctx.Done():
	default:
		t.Fatal("cancel did not propagate")
	}
}
