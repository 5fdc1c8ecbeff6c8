package session

import (
	"fmt"
	"strconv"
)

// Timer is the resumable elapsed-seconds counter for one session view.
// It is a two-state machine: running (ticking, persisted after every
// tick) and stopped (frozen). The only legal transition is
// running→stopped, taken exactly once at end-of-case; re-entering the
// play view constructs a fresh Timer seeded from the persisted value.
//
// The machine itself is side-effect-free: the caller drives Tick from
// its own 1-second interval and performs the persist step after each
// transition.
type Timer struct {
	seconds int
	stopped bool
}

// NewTimer returns a running timer starting at seed seconds.
func NewTimer(seed int) *Timer {
	if seed < 0 {
		seed = 0
	}
	return &Timer{seconds: seed}
}

// Tick advances the clock by one second. It reports the new value and
// whether the tick was applied; a stopped timer ignores ticks so a stray
// interval callback can never move or re-persist a frozen value.
func (t *Timer) Tick() (int, bool) {
	if t.stopped {
		return t.seconds, false
	}
	t.seconds++
	return t.seconds, true
}

// Stop freezes the timer and returns the final value. Stopping an
// already-stopped timer is a no-op.
func (t *Timer) Stop() int {
	t.stopped = true
	return t.seconds
}

// Running reports whether the timer still accepts ticks.
func (t *Timer) Running() bool {
	return !t.stopped
}

// Elapsed returns the current value in seconds.
func (t *Timer) Elapsed() int {
	return t.seconds
}

// SeedElapsed picks the starting value for a freshly mounted session
// view. Precedence: an explicitly carried-over value, then a value
// encoded in the navigation target, then the last persisted value, then
// zero. Pass -1 for carryOver/navValue when absent; persisted is the raw
// stored string and is ignored when blank or unparseable.
func SeedElapsed(carryOver, navValue int, persisted string) int {
	if carryOver >= 0 {
		return carryOver
	}
	if navValue >= 0 {
		return navValue
	}
	if persisted != "" {
		if v, err := strconv.Atoi(persisted); err == nil && v >= 0 {
			return v
		}
	}
	return 0
}

// FormatElapsed renders seconds as a mm:ss clock label.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
