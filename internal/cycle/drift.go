package cycle

import (
	"time"

	"gsabyss/internal/logging"
)

// DefaultAnchor is the first schedule the upstream dataset knows about.
var DefaultAnchor = time.Date(2020, time.July, 1, resetHour, 0, 0, 0, Zone)

// Direction is the way the anchor moves while Correct walks a table.
type Direction int

const (
	// Forward moves the anchor to later periods. Used when the anchor is the oldest
	// trusted key and the table declares entries newest first.
	Forward Direction = iota
	// Backward moves the anchor to earlier periods. Used when the anchor is the newest
	// trusted key and the table declares entries oldest first.
	Backward
)

// Entry is one row of a schedule table. Raw is the key as stored upstream, Key is the
// canonical key assigned by Correct.
type Entry[T any] struct {
	Raw   string
	Key   time.Time
	Value T
}

// Correct re-derives canonical keys for a table whose raw keys drift by a few hours.
// Entries are visited in reverse declared order; the first visited entry receives anchor
// and each following one the next period in dir. The result is in visiting order.
//
// Only the anchor is trusted. A drifted anchor shifts every entry by the same error.
func Correct[T any](entries []Entry[T], anchor time.Time, dir Direction) []Entry[T] {
	out := make([]Entry[T], 0, len(entries))
	at := anchor.In(Zone)

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fixed := Format(at)
		if e.Raw != fixed {
			logging.Schedule("schedule key %s corrected to %s", e.Raw, fixed)
		}
		out = append(out, Entry[T]{Raw: e.Raw, Key: at, Value: e.Value})

		if dir == Backward {
			at = PrevKey(at)
		} else {
			at = NextKey(at)
		}
	}
	return out
}
