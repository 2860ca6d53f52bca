// Package cycle computes Spiral Abyss schedule keys.
//
// A schedule period opens at 04:00 (UTC+8) on the 1st and on the 16th of every month.
// The first half is always 15 days long; the second half runs until the next month's
// reset and therefore lasts 13 to 16 days depending on the month.
package cycle

import (
	"fmt"
	"time"
)

// Layout is the textual form of a schedule key, e.g. "2023-02-01 04:00:00".
const Layout = "2006-01-02 15:04:05"

const (
	resetHour     = 4
	secondHalfDay = 16
	firstHalfDays = secondHalfDay - 1
)

// Zone is the server timezone every key is expressed in.
var Zone = time.FixedZone("UTC+8", 8*60*60)

// Period selects a schedule relative to the current one.
type Period string

const (
	Last Period = "last"
	Now  Period = "now"
	Next Period = "next"
)

// Valid reports whether p is one of the three relative periods.
func (p Period) Valid() bool {
	return p == Last || p == Now || p == Next
}

// Start returns the key of the period that contains at.
func Start(at time.Time) time.Time {
	t := at.In(Zone)
	first := time.Date(t.Year(), t.Month(), 1, resetHour, 0, 0, 0, Zone)
	second := time.Date(t.Year(), t.Month(), secondHalfDay, resetHour, 0, 0, 0, Zone)

	switch {
	case t.Before(first):
		// Between midnight and the reset on the 1st the previous month's second half is still open.
		prev := first.AddDate(0, -1, 0)
		return time.Date(prev.Year(), prev.Month(), secondHalfDay, resetHour, 0, 0, 0, Zone)
	case t.Before(second):
		return first
	default:
		return second
	}
}

// KeyFor returns the key of the period p relative to the period containing at.
func KeyFor(p Period, at time.Time) time.Time {
	key := Start(at)
	switch p {
	case Last:
		return PrevKey(key)
	case Next:
		return NextKey(key)
	default:
		return key
	}
}

// NextKey returns the key that follows key.
func NextKey(key time.Time) time.Time {
	return key.In(Zone).AddDate(0, 0, HalfLength(key))
}

// PrevKey returns the key that precedes key.
func PrevKey(key time.Time) time.Time {
	k := key.In(Zone)
	if k.Day() >= secondHalfDay {
		return k.AddDate(0, 0, -firstHalfDays)
	}
	prevMonth := time.Date(k.Year(), k.Month(), 0, resetHour, 0, 0, 0, Zone)
	return time.Date(prevMonth.Year(), prevMonth.Month(), secondHalfDay, resetHour, 0, 0, 0, Zone)
}

// HalfLength returns the length in days of the period opened by key.
func HalfLength(key time.Time) int {
	k := key.In(Zone)
	if k.Day() < secondHalfDay {
		return firstHalfDays
	}
	return DaysIn(k.Year(), k.Month()) - firstHalfDays
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Month returns the key of the first or second half of year/month.
func Month(year int, month time.Month, secondHalf bool) time.Time {
	day := 1
	if secondHalf {
		day = secondHalfDay
	}
	return time.Date(year, month, day, resetHour, 0, 0, 0, Zone)
}

// IsCanonical reports whether t is exactly a period boundary.
func IsCanonical(t time.Time) bool {
	k := t.In(Zone)
	return (k.Day() == 1 || k.Day() == secondHalfDay) &&
		k.Hour() == resetHour && k.Minute() == 0 && k.Second() == 0 && k.Nanosecond() == 0
}

// Format renders key in Layout.
func Format(key time.Time) string {
	return key.In(Zone).Format(Layout)
}

// Parse reads a key written in Layout.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule key %q: %w", s, err)
	}
	return t, nil
}

// Title renders key the way players name a period, e.g. "2023年2月上".
func Title(key time.Time) string {
	k := key.In(Zone)
	half := "上"
	if k.Day() >= secondHalfDay {
		half = "下"
	}
	return fmt.Sprintf("%d年%d月%s", k.Year(), int(k.Month()), half)
}
