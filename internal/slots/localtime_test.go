package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"9:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"1200", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestLocalInstant_UTC(t *testing.T) {
	day := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	got, err := LocalInstant(day, "09:00", time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
}

func TestLocalInstant_UsesLocalDateNotUTCDate(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	// 2024-01-01 20:00 UTC is already 2024-01-02 in Tokyo.
	day := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

	got, err := LocalInstant(day, "09:00", tokyo)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Tuesday, got.In(tokyo).Weekday())
}

func TestLocalInstant_AcrossDaylightSaving(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// Spring forward on 2024-03-10: 08:00 EDT is 12:00 UTC, one day earlier
	// 08:00 EST was 13:00 UTC.
	before, err := LocalInstant(time.Date(2024, 3, 9, 12, 0, 0, 0, ny), "08:00", ny)
	require.NoError(t, err)
	after, err := LocalInstant(time.Date(2024, 3, 10, 12, 0, 0, 0, ny), "08:00", ny)
	require.NoError(t, err)

	assert.Equal(t, 13, before.UTC().Hour())
	assert.Equal(t, 12, after.UTC().Hour())
	assert.Equal(t, 23*time.Hour, after.Sub(before))

	// Fall back on 2024-11-03: the local day is 25 hours long.
	b, err := LocalInstant(time.Date(2024, 11, 2, 12, 0, 0, 0, ny), "08:00", ny)
	require.NoError(t, err)
	a, err := LocalInstant(time.Date(2024, 11, 3, 12, 0, 0, 0, ny), "08:00", ny)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Hour, a.Sub(b))
}

func TestStartOfLocalDay(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	ref := time.Date(2024, 3, 9, 23, 30, 0, 0, ny)

	next := StartOfLocalDay(ref, 1, ny)
	assert.Equal(t, 10, next.Day())
	assert.Equal(t, 0, next.Hour())

	prev := StartOfLocalDay(ref, -1, ny)
	assert.Equal(t, 8, prev.Day())

	// Month roll-over.
	assert.Equal(t, time.April, StartOfLocalDay(time.Date(2024, 3, 31, 10, 0, 0, 0, ny), 1, ny).Month())
}

func TestSameLocalDay(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	a := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC) // 2024-01-01 23:00 in LA
	b := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)

	assert.True(t, SameLocalDay(a, b, la))
	assert.False(t, SameLocalDay(a, b, time.UTC))
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokyo := mustLoad(t, "Asia/Tokyo")

	assert.True(t, IsDue(now, now, tokyo))
	assert.True(t, IsDue(now.Add(-time.Minute), now, tokyo))
	assert.False(t, IsDue(now.Add(time.Second), now, tokyo))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2 days from now", TimeUntil(now.Add(49*time.Hour), now))
	assert.Equal(t, "1 day from now", TimeUntil(now.Add(24*time.Hour), now))
	assert.Equal(t, "3 hours from now", TimeUntil(now.Add(3*time.Hour+5*time.Minute), now))
	assert.Equal(t, "1 minute from now", TimeUntil(now.Add(90*time.Second), now))
	assert.Equal(t, "Less than a minute", TimeUntil(now.Add(30*time.Second), now))
	assert.Equal(t, "Less than a minute", TimeUntil(now.Add(-time.Hour), now))
}
