package depot

import (
	"math"
	"testing"
)

func TestTickIsNewerThan(t *testing.T) {
	tests := []struct {
		name                string
		tick, last, current Tick
		want                bool
	}{
		{"after last", 5, 3, 6, true},
		{"equal to last", 3, 3, 6, false},
		{"before last", 2, 3, 6, false},
		{"at current", 6, 3, 6, true},
		{"wrapped current", math.MaxUint32, math.MaxUint32 - 2, 4, true},
		{"wrapped stale", math.MaxUint32 - 5, math.MaxUint32 - 2, 4, false},
		{"stamp after wrap", 1, math.MaxUint32, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tick.IsNewerThan(tt.last, tt.current); got != tt.want {
				t.Errorf("%d.IsNewerThan(%d, %d) = %v, want %v", tt.tick, tt.last, tt.current, got, tt.want)
			}
		})
	}
}

func TestTickClamp(t *testing.T) {
	current := Tick(10)
	old := current - MaxChangeAge - 100
	if !old.clamp(current) {
		t.Fatalf("ancient tick not clamped")
	}
	if current-old != MaxChangeAge {
		t.Errorf("clamped age = %d, want %d", current-old, MaxChangeAge)
	}

	recent := current - 3
	if recent.clamp(current) {
		t.Errorf("recent tick clamped")
	}
}

func TestClearTrackersAdvancesTicks(t *testing.T) {
	w := Factory.NewWorld()
	if w.ChangeTick() != 1 || w.LastChangeTick() != 0 {
		t.Fatalf("initial ticks = %d/%d, want 1/0", w.ChangeTick(), w.LastChangeTick())
	}
	w.ClearTrackers()
	if w.ChangeTick() != 2 || w.LastChangeTick() != 0 {
		t.Errorf("ticks after ClearTrackers = %d/%d, want 2/0", w.ChangeTick(), w.LastChangeTick())
	}
	if prev := w.IncrementChangeTick(); prev != 2 || w.ChangeTick() != 3 {
		t.Errorf("IncrementChangeTick() = %d, tick now %d", prev, w.ChangeTick())
	}
}
