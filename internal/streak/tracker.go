// Package streak tracks consecutive reporting days per student.
//
// A streak counts calendar days in JST on which a student filed at least one
// report. Filing twice on one day changes nothing; skipping a day starts
// over at one while the best run so far is kept.
package streak

import (
	"time"

	"github.com/tankyu/diary/internal/clock"
)

// State is a student's streak.
type State struct {
	Current        int        `json:"current_streak"`
	Max            int        `json:"max_streak"`
	LastReportDate *time.Time `json:"last_report_date,omitempty"`
}

// Record returns the state after a report filed on the civil date today.
//
//   - no previous report: (1, max(Max,1), today)
//   - same day: unchanged
//   - the next day: Current+1, Max raised to match
//   - any other gap, including a date before the last one: (1, Max, today)
func Record(s State, today time.Time) State {
	today = clock.DateOf(today)

	if s.LastReportDate == nil {
		return State{Current: 1, Max: max(s.Max, 1), LastReportDate: &today}
	}

	switch clock.DaysBetween(*s.LastReportDate, today) {
	case 0:
		return s
	case 1:
		cur := s.Current + 1
		return State{Current: cur, Max: max(s.Max, cur), LastReportDate: &today}
	default:
		return State{Current: 1, Max: max(s.Max, 1), LastReportDate: &today}
	}
}
