package core

import "time"

// ProjectPosition projects a stated playback position forward to the
// receiver's "now". origin is the sender's wall clock at send time, so
// the difference approximates one-way transit delay. Clocks are assumed
// close; absolute offset between the two is not corrected, which biases
// the result by the real skew. Negative deltas (receiver clock behind
// sender) are clamped to zero rather than rewinding the position.
//
// Never apply this to a pause: pause freezes position, the stated value
// is already exact.
func ProjectPosition(position float64, origin, now time.Time) float64 {
	delta := now.Sub(origin)
	if delta < 0 {
		delta = 0
	}
	return position + delta.Seconds()
}

// OneWayDelay halves a measured round trip, the estimate a client uses
// after a ping/pong exchange.
func OneWayDelay(roundTrip time.Duration) time.Duration {
	return roundTrip / 2
}
