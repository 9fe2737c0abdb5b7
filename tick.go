package depot

import "math"

// Tick is a wrapping logical clock value used to stamp component changes.
type Tick uint32

const (
	// CheckTickThreshold is how many world ticks may pass before stored ticks
	// are clamped to MaxChangeAge.
	CheckTickThreshold Tick = 518_400_000

	// MaxChangeAge is the oldest distance a stored tick may keep from the
	// current tick. Older ticks are clamped so they never look newer after the
	// counter wraps.
	MaxChangeAge Tick = math.MaxUint32 - (2*CheckTickThreshold - 1)
)

// IsNewerThan reports whether t was stamped after last, as seen from current.
// All arithmetic wraps.
func (t Tick) IsNewerThan(last, current Tick) bool {
	ticksSinceInsert := current - t
	ticksSinceSystem := current - last
	return ticksSinceInsert < ticksSinceSystem
}

// clamp pulls t forward when it is older than MaxChangeAge. It reports whether
// t was changed.
func (t *Tick) clamp(current Tick) bool {
	if current-*t > MaxChangeAge {
		*t = current - MaxChangeAge
		return true
	}
	return false
}

// ChangeDetectionTick is the pair of ticks a query compares stored stamps
// against: the last tick it considers seen, and the world's current tick.
type ChangeDetectionTick struct {
	Last    Tick
	Current Tick
}
