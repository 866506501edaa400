package core

import (
	"errors"
	"time"

	"github.com/jamsync/server/internal/domain"
)

var (
	ErrNoTrack       = errors.New("no track loaded")
	ErrSeekLive      = errors.New("cannot seek a live stream")
	ErrNotSeekable   = errors.New("nothing to seek")
	ErrVolumeOutside = errors.New("volume outside [0,1]")
)

// playbackState is the transport state machine for one session: Idle
// (no track), Paused, Playing. position and updatedAt always change
// together; the true position while playing is
// position + (now - updatedAt), never position alone.
//
// Not safe for concurrent use on its own; the owning session serializes
// access.
type playbackState struct {
	track     *domain.Track
	playing   bool
	position  float64
	updatedAt time.Time
	volume    float64
}

func newPlaybackState() playbackState {
	return playbackState{volume: 1.0, updatedAt: time.Now()}
}

// load replaces the track and rewinds. A nil track returns the machine
// to Idle.
func (p *playbackState) load(track *domain.Track, now time.Time) {
	p.track = track
	p.playing = false
	p.position = 0
	p.updatedAt = now
}

func (p *playbackState) play(position float64, track *domain.Track, now time.Time) error {
	if track != nil {
		p.track = track
	}
	if p.track == nil {
		return ErrNoTrack
	}
	p.playing = true
	p.position = position
	p.updatedAt = now
	return nil
}

// pause freezes position at exactly the stated value. Idempotent: a
// second pause with the same position is a no-op in observable state.
func (p *playbackState) pause(position float64, now time.Time) error {
	if p.track == nil {
		return ErrNoTrack
	}
	p.playing = false
	p.position = position
	p.updatedAt = now
	return nil
}

func (p *playbackState) seek(position float64, now time.Time) error {
	if p.track == nil {
		return ErrNotSeekable
	}
	if p.track.IsLiveStream {
		return ErrSeekLive
	}
	p.position = position
	p.updatedAt = now
	return nil
}

func (p *playbackState) setVolume(v float64) error {
	if v < 0 || v > 1 {
		return ErrVolumeOutside
	}
	// volume never touches updatedAt: it carries no position.
	p.volume = v
	return nil
}

// currentPosition projects the nominal position to now while playing.
// A finite track is clamped at its duration; live streams free-run.
func (p *playbackState) currentPosition(now time.Time) float64 {
	if !p.playing {
		return p.position
	}
	pos := ProjectPosition(p.position, p.updatedAt, now)
	if p.track != nil && !p.track.IsLiveStream && p.track.Duration > 0 && pos > p.track.Duration {
		return p.track.Duration
	}
	return pos
}
