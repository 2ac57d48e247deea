package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTodayUsesFixedTimezone(t *testing.T) {
	// 2025-09-01 16:30 UTC is already Tuesday morning in Seoul
	cal := Default().WithClock(fixedClock(time.Date(2025, 9, 1, 16, 30, 0, 0, time.UTC)))

	assert.Equal(t, "2025-09-02", cal.Today(""))
	assert.Equal(t, time.Tuesday, cal.Weekday(""))
	assert.True(t, cal.IsWeekday(""))
}

func TestOverrideFormats(t *testing.T) {
	cal := Default().WithClock(fixedClock(time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)))

	tests := []struct {
		name     string
		override string
		date     string
		weekday  time.Weekday
	}{
		{"bare date", "2025-09-06", "2025-09-06", time.Saturday},
		{"local datetime", "2025-09-01T09:00:00", "2025-09-01", time.Monday},
		{"rfc3339 converted to zone", "2025-09-07T20:00:00Z", "2025-09-08", time.Monday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.date, cal.Today(tt.override))
			assert.Equal(t, tt.weekday, cal.Weekday(tt.override))
		})
	}
}

func TestMalformedOverrideFallsBackToClock(t *testing.T) {
	cal := Default().WithClock(fixedClock(time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)))

	for _, override := range []string{"not-a-date", "2025-13-45", "   "} {
		assert.Equal(t, "2025-09-03", cal.Today(override), override)
		assert.Equal(t, time.Wednesday, cal.Weekday(override), override)
	}
}

func TestWeekendIsNotWeekday(t *testing.T) {
	cal := Default()
	assert.False(t, cal.IsWeekday("2025-09-06"))
	assert.False(t, cal.IsWeekday("2025-09-07"))
	assert.True(t, cal.IsWeekday("2025-09-05"))
}

func TestLoad(t *testing.T) {
	cal, err := Load("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cal.Location())

	_, err = Load("Nowhere/Special")
	assert.Error(t, err)
}

func TestDayNameAndHash(t *testing.T) {
	assert.Equal(t, "Sunday", DayName(time.Sunday))
	assert.Equal(t, "Friday", DayName(time.Friday))
	assert.Equal(t, "Unknown", DayName(time.Weekday(9)))

	day := time.Date(2025, 9, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 20250901, DateHash(day))
	assert.Equal(t, "2025-09-01", FormatDate(day))
}
