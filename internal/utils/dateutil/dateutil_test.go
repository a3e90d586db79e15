package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())
	_, offset := d.Zone()
	assert.Equal(t, 9*60*60, offset)

	for _, bad := range []string{"", "2026/03/15", "15-03-2026", "2026-13-01", "not-a-date"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrBadDate, "input %q", bad)
	}
}

func TestDayWindow(t *testing.T) {
	d, _ := ParseDate("2026-03-15")
	start, end := DayWindow(d)

	assert.Equal(t, "2026-03-15T00:00:00+09:00", start.Format(time.RFC3339))
	assert.Equal(t, "2026-03-16T00:00:00+09:00", end.Format(time.RFC3339))

	// 15:00 UTC is the last hour of the KST day; 16:00 UTC is the next day.
	inside := time.Date(2026, 3, 15, 14, 59, 0, 0, time.UTC)
	outside := time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC)
	assert.True(t, !inside.Before(start) && inside.Before(end))
	assert.False(t, outside.Before(end))
}

func TestRangeWindow(t *testing.T) {
	from, _ := ParseDate("2026-03-01")
	to, _ := ParseDate("2026-03-15")
	start, end := RangeWindow(from, to)

	assert.Equal(t, "2026-03-01T00:00:00+09:00", start.Format(time.RFC3339))
	// End date is inclusive, so the window closes at the following midnight.
	assert.Equal(t, "2026-03-16T00:00:00+09:00", end.Format(time.RFC3339))
}

func TestSettlementDate(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"utc morning stays same day", time.Date(2026, 3, 15, 5, 0, 0, 0, time.UTC), "2026-03-15"},
		{"utc evening rolls to next kst day", time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC), "2026-03-16"},
		{"kst midnight boundary", time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC), "2026-03-16"},
		{"already kst", time.Date(2026, 3, 15, 23, 30, 0, 0, KST), "2026-03-15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDate(SettlementDate(tc.at)))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026-03-16", FormatDate(time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-15", FormatDate(time.Date(2026, 3, 15, 12, 0, 0, 0, KST)))
}
