package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, FormatClock(got))
		})
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("09:00", "24:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Start: 540, End: 1440}, w)

	_, err = ParseWindow("10:00", "10:00")
	assert.Error(t, err)
	_, err = ParseWindow("10:00", "09:00")
	assert.Error(t, err)
	_, err = ParseWindow("24:00", "24:00")
	assert.Error(t, err)
}

func TestOverlapsIsExclusiveAtEnd(t *testing.T) {
	a := Window{Start: 540, End: 600}
	assert.True(t, Overlaps(a, Window{Start: 570, End: 630}))
	assert.False(t, Overlaps(a, Window{Start: 600, End: 660}))
	assert.True(t, a.Contains(540))
	assert.False(t, a.Contains(600))
}

func TestActivation(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := from.Add(48 * time.Hour)
	a := Activation{From: from, Until: &until}

	assert.True(t, a.Covers(from))
	assert.True(t, a.Covers(until))
	assert.False(t, a.Covers(until.Add(time.Second)))
	assert.False(t, a.Covers(from.Add(-time.Second)))

	assert.True(t, a.Intersects(until.Add(-time.Hour), until.Add(time.Hour)))
	assert.False(t, a.Intersects(until.Add(time.Hour), until.Add(2*time.Hour)))
	assert.False(t, a.Intersects(from.Add(-time.Hour), from))

	open := Activation{From: from}
	assert.True(t, open.Covers(from.AddDate(10, 0, 0)))
}

func TestWeekdayIsMondayFirst(t *testing.T) {
	monday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, Weekday(monday))
	assert.Equal(t, 6, Weekday(monday.AddDate(0, 0, 6)))
}

func TestNewHorizonAnchorsAtStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC) // 23:00 on June 1st in New York
	h := NewHorizon(now, loc, 7)

	assert.True(t, h.From.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, loc)))
	assert.True(t, h.To.Equal(time.Date(2025, 6, 8, 0, 0, 0, 0, loc)))
	assert.Len(t, h.days(), 7)
}
