package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, Zone)
}

func TestStart_StableWithinHalf(t *testing.T) {
	want := at(2023, time.February, 1, 4, 0)
	for _, ts := range []time.Time{
		at(2023, time.February, 1, 4, 0),
		at(2023, time.February, 1, 23, 59),
		at(2023, time.February, 9, 12, 0),
		at(2023, time.February, 16, 3, 59),
	} {
		assert.Equal(t, want, Start(ts), "instant %s", ts)
	}
}

func TestStart_ChangesAtReset(t *testing.T) {
	assert.Equal(t, at(2023, time.February, 1, 4, 0), Start(at(2023, time.February, 16, 3, 59)))
	assert.Equal(t, at(2023, time.February, 16, 4, 0), Start(at(2023, time.February, 16, 4, 0)))

	// Before the reset on the 1st the previous month's second half is still open.
	assert.Equal(t, at(2023, time.January, 16, 4, 0), Start(at(2023, time.February, 1, 3, 59)))
	assert.Equal(t, at(2022, time.December, 16, 4, 0), Start(at(2023, time.January, 1, 0, 30)))
}

func TestStart_OtherZones(t *testing.T) {
	// 2023-02-15 20:00 UTC is 2023-02-16 04:00 in UTC+8.
	utc := time.Date(2023, time.February, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, at(2023, time.February, 16, 4, 0), Start(utc))
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		at     time.Time
		want   time.Time
	}{
		{"now first half", Now, at(2023, time.March, 3, 10, 0), at(2023, time.March, 1, 4, 0)},
		{"last from first half crosses month", Last, at(2023, time.March, 3, 10, 0), at(2023, time.February, 16, 4, 0)},
		{"next from first half", Next, at(2023, time.March, 3, 10, 0), at(2023, time.March, 16, 4, 0)},
		{"last from second half", Last, at(2023, time.March, 20, 10, 0), at(2023, time.March, 1, 4, 0)},
		{"next from second half crosses month", Next, at(2023, time.March, 20, 10, 0), at(2023, time.April, 1, 4, 0)},
		{"next crosses year", Next, at(2023, time.December, 31, 10, 0), at(2024, time.January, 1, 4, 0)},
		{"last crosses year", Last, at(2024, time.January, 2, 10, 0), at(2023, time.December, 16, 4, 0)},
		{"february non-leap", Next, at(2023, time.February, 20, 0, 0), at(2023, time.March, 1, 4, 0)},
		{"february leap", Next, at(2024, time.February, 29, 0, 0), at(2024, time.March, 1, 4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFor(tt.period, tt.at))
		})
	}
}

func TestNextPrevRoundTrip(t *testing.T) {
	start := at(2019, time.December, 20, 12, 0)
	for i := 0; i < 24*60; i++ {
		ts := start.Add(time.Duration(i) * 7 * time.Hour)
		now := KeyFor(Now, ts)
		require.True(t, IsCanonical(now), "now key %s", now)

		next := KeyFor(Next, ts)
		last := KeyFor(Last, ts)
		require.Equal(t, now, PrevKey(next), "prev(next) at %s", ts)
		require.Equal(t, now, NextKey(last), "next(last) at %s", ts)
		require.Equal(t, now, KeyFor(Last, next), "last of next at %s", ts)
	}
}

func TestStart_WalkKeepsKeysContiguous(t *testing.T) {
	ts := at(2019, time.January, 1, 0, 0)
	end := at(2031, time.January, 1, 0, 0)
	prevTS := ts
	prevKey := Start(ts)
	for ; ts.Before(end); ts = ts.Add(37 * time.Minute) {
		key := Start(ts)
		require.True(t, IsCanonical(key), "key %s at %s", key, ts)
		require.False(t, ts.Before(key), "key %s after %s", key, ts)
		require.True(t, ts.Before(NextKey(key)), "next of %s not after %s", key, ts)
		require.Equal(t, key, PrevKey(NextKey(key)))

		if !key.Equal(prevKey) {
			require.Equal(t, NextKey(prevKey), key, "skipped a period between %s and %s", prevTS, ts)
			require.Equal(t, 4, key.Hour())
			require.True(t, prevTS.Before(key) && !ts.Before(key), "boundary %s outside (%s, %s]", key, prevTS, ts)
		}
		prevTS, prevKey = ts, key
	}
}

func TestHalfLength(t *testing.T) {
	assert.Equal(t, 15, HalfLength(at(2023, time.February, 1, 4, 0)))
	assert.Equal(t, 13, HalfLength(at(2023, time.February, 16, 4, 0)))
	assert.Equal(t, 14, HalfLength(at(2024, time.February, 16, 4, 0)))
	assert.Equal(t, 15, HalfLength(at(2023, time.April, 16, 4, 0)))
	assert.Equal(t, 16, HalfLength(at(2023, time.January, 16, 4, 0)))
}

func TestFormatParseTitle(t *testing.T) {
	key := Month(2023, time.February, false)
	assert.Equal(t, "2023-02-01 04:00:00", Format(key))
	assert.Equal(t, "2023年2月上", Title(key))
	assert.Equal(t, "2023年2月下", Title(Month(2023, time.February, true)))

	parsed, err := Parse("2023-02-16 04:00:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(Month(2023, time.February, true)))

	_, err = Parse("not a key")
	assert.Error(t, err)
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical(at(2023, time.May, 16, 4, 0)))
	assert.False(t, IsCanonical(at(2023, time.May, 16, 5, 0)))
	assert.False(t, IsCanonical(at(2023, time.May, 15, 4, 0)))
	assert.False(t, IsCanonical(at(2023, time.May, 1, 4, 1)))
}

func TestPeriodValid(t *testing.T) {
	assert.True(t, Now.Valid())
	assert.True(t, Last.Valid())
	assert.True(t, Next.Valid())
	assert.False(t, Period("later").Valid())
}
