package engine

import (
	"github.com/Hakote/Hakote/internal/batch"
)

// Summary tallies a run. Succeeded+Failed == TotalDue and
// NewlySent+AlreadySent == Succeeded.
type Summary struct {
	Date        string `json:"date"`
	DayOfWeek   string `json:"day_of_week"`
	TotalDue    int    `json:"total_due"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	NewlySent   int    `json:"newly_sent"`
	AlreadySent int    `json:"already_sent"`
	DryRun      bool   `json:"dry_run"`
}

// Result is returned by Run
type Result struct {
	OK      bool    `json:"ok"`
	Summary Summary `json:"summary"`
}

// Sent is the outcome of a successful subscription
type Sent struct {
	AlreadySent bool
}

// Tally folds settled outcomes into the counters of s. It runs after the
// batches settle so no task touches the counters concurrently.
func (s *Summary) Tally(outcomes []batch.Outcome[Sent]) {
	for _, o := range outcomes {
		s.TotalDue++
		if o.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if o.Value.AlreadySent {
			s.AlreadySent++
		} else {
			s.NewlySent++
		}
	}
}
