// Package calendar resolves "today" in a fixed civil timezone.
package calendar

import (
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the zone every day boundary is computed in
const DefaultTimezone = "Asia/Seoul"

// DateLayout is the storage format of a calendar day
const DateLayout = "2006-01-02"

var overrideLayouts = []string{
	"2006-01-02T15:04:05",
	DateLayout,
}

// Calendar computes dates and weekdays in one timezone. The clock is
// injectable; the package never reads process state on its own.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New creates a calendar for loc using the wall clock
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// Load creates a calendar for the named IANA zone
func Load(name string) (*Calendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return New(loc), nil
}

// Default returns a calendar in DefaultTimezone
func Default() *Calendar {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		// tzdata is embedded, so this only happens with a corrupted build
		panic(err)
	}
	return New(loc)
}

// WithClock returns a copy of the calendar that reads time from now
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Location returns the calendar's timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the calendar's zone. A parseable
// override replaces the clock; anything else is ignored and the real clock
// is used, so a bad override never stops a production run.
func (c *Calendar) Now(override string) time.Time {
	if t, ok := ParseOverride(override, c.loc); ok {
		return t
	}
	return c.now().In(c.loc)
}

// Today returns the current day as YYYY-MM-DD
func (c *Calendar) Today(override string) string {
	return FormatDate(c.Now(override))
}

// Weekday returns the current day of week
func (c *Calendar) Weekday(override string) time.Weekday {
	return c.Now(override).Weekday()
}

// IsWeekday reports whether today is Monday through Friday
func (c *Calendar) IsWeekday(override string) bool {
	return IsWeekday(c.Weekday(override))
}

// ParseOverride parses an override value. RFC3339 instants are converted into
// loc; bare dates and datetimes are read as wall time in loc.
func ParseOverride(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range overrideLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate formats t as YYYY-MM-DD in its own location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsWeekday reports whether d is Monday through Friday
func IsWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}

// DayName returns the English name of d
func DayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return "Unknown"
	}
	return d.String()
}

// DateHash returns the day as the integer YYYYMMDD
func DateHash(t time.Time) int {
	n, _ := strconv.Atoi(t.Format("20060102"))
	return n
}
