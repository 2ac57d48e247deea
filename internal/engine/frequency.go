package engine

import (
	"time"

	"github.com/Hakote/Hakote/internal/logging"
)

var frequencyDays = map[Frequency][]time.Weekday{
	TwiceWeekly:  {time.Tuesday, time.Thursday},
	ThriceWeekly: {time.Monday, time.Wednesday, time.Friday},
	Weekdays:     {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
}

// Valid reports whether f is a known frequency
func (f Frequency) Valid() bool {
	_, ok := frequencyDays[f]
	return ok
}

// Days returns the weekdays f is due on, or nil for unknown frequencies
func (f Frequency) Days() []time.Weekday {
	return frequencyDays[f]
}

// DueOn reports whether f is due on day
func (f Frequency) DueOn(day time.Weekday) bool {
	for _, d := range frequencyDays[f] {
		if d == day {
			return true
		}
	}
	return false
}

// FilterDue returns the subscriptions due on day, in input order.
// Subscriptions with an unknown frequency are dropped with a warning.
func FilterDue(subs []Subscription, day time.Weekday, log Logger) []Subscription {
	due := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if !s.Frequency.Valid() {
			log.Warnf("Unknown frequency %q on subscription %s (%s), skipping",
				s.Frequency, s.ID, logging.RedactEmail(s.Email))
			continue
		}
		if s.Frequency.DueOn(day) {
			due = append(due, s)
		}
	}
	return due
}

// CountByFrequency tallies subscriptions per known frequency
func CountByFrequency(subs []Subscription) map[Frequency]int {
	counts := map[Frequency]int{TwiceWeekly: 0, ThriceWeekly: 0, Weekdays: 0}
	for _, s := range subs {
		if s.Frequency.Valid() {
			counts[s.Frequency]++
		}
	}
	return counts
}
