package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiter(t *testing.T) {
	rl := NewJoinRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("c1"), "attempt %d within limit", i)
	}
	assert.False(t, rl.Allow("c1"), "fourth attempt blocked")
	assert.True(t, rl.Allow("c2"), "limits are per client")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("c1"), "window slides")
}
