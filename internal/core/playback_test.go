package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamsync/server/internal/domain"
)

var testTrack = &domain.Track{ID: "t1", Name: "Song", Duration: 240}

func TestPlaybackTransitions(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("play requires a track", func(t *testing.T) {
		p := newPlaybackState()
		assert.ErrorIs(t, p.play(0, nil, base), ErrNoTrack)
	})

	t.Run("load rewinds and pauses", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(30, testTrack, base))
		p.load(testTrack, base.Add(time.Minute))
		assert.False(t, p.playing)
		assert.Equal(t, 0.0, p.position)
	})

	t.Run("nil track returns to idle", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(30, testTrack, base))
		p.load(nil, base.Add(time.Second))
		assert.Nil(t, p.track)
		assert.False(t, p.playing)
		assert.Equal(t, 0.0, p.position)
	})

	t.Run("position advances only while playing", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(10, testTrack, base))
		assert.InDelta(t, 12.5, p.currentPosition(base.Add(2500*time.Millisecond)), 0.001)

		require.NoError(t, p.pause(12.5, base.Add(2500*time.Millisecond)))
		assert.Equal(t, 12.5, p.currentPosition(base.Add(time.Hour)))
	})

	t.Run("pause is exact at the pause instant", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(5, testTrack, base))
		require.NoError(t, p.pause(7.25, base.Add(2250*time.Millisecond)))
		assert.Equal(t, 7.25, p.currentPosition(base.Add(2250*time.Millisecond)))
	})

	t.Run("pause is idempotent", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(5, testTrack, base))
		require.NoError(t, p.pause(8, base.Add(time.Second)))
		first := p
		require.NoError(t, p.pause(8, base.Add(2*time.Second)))
		assert.Equal(t, first.playing, p.playing)
		assert.Equal(t, first.position, p.position)
		assert.Equal(t, first.position, p.currentPosition(base.Add(time.Minute)))
	})

	t.Run("seek keeps transport state", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(5, testTrack, base))
		require.NoError(t, p.seek(120, base.Add(time.Second)))
		assert.True(t, p.playing)
		assert.InDelta(t, 121.0, p.currentPosition(base.Add(2*time.Second)), 0.001)
	})

	t.Run("seek without a track is rejected", func(t *testing.T) {
		p := newPlaybackState()
		assert.ErrorIs(t, p.seek(10, base), ErrNotSeekable)
	})

	t.Run("finite track clamps at duration", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(239, testTrack, base))
		assert.Equal(t, 240.0, p.currentPosition(base.Add(time.Minute)))
	})
}

func TestPlaybackLiveStream(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	live := &domain.Track{ID: "l1", Name: "Host capture", IsLiveStream: true}

	t.Run("seek is rejected", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(0, live, base))
		assert.ErrorIs(t, p.seek(10, base.Add(time.Second)), ErrSeekLive)
	})

	t.Run("position free-runs without clamping", func(t *testing.T) {
		p := newPlaybackState()
		require.NoError(t, p.play(0, live, base))
		assert.InDelta(t, 3600.0, p.currentPosition(base.Add(time.Hour)), 0.001)
	})
}

func TestPlaybackVolume(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := newPlaybackState()
	require.NoError(t, p.play(10, testTrack, base))
	stamp := p.updatedAt

	require.NoError(t, p.setVolume(0.4))
	assert.Equal(t, 0.4, p.volume)
	assert.Equal(t, stamp, p.updatedAt, "volume must not restamp the position")

	assert.ErrorIs(t, p.setVolume(1.5), ErrVolumeOutside)
	assert.ErrorIs(t, p.setVolume(-0.1), ErrVolumeOutside)
	assert.Equal(t, 0.4, p.volume)
}
