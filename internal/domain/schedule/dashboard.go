package schedule

import "time"

// Window is a half-open time range [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow returns [midnight of now, midnight of now + days) in now's location
func DayWindow(now time.Time, days int) Window {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

// Summary holds the dashboard counters derived from a set of schedules
type Summary struct {
	TotalsByStatus   map[Status]int `json:"totals_by_status"`
	Total            int            `json:"total"`
	ProcessedToday   int            `json:"processed_today"`
	UpcomingThisWeek int            `json:"upcoming_this_week"`
	DueNow           int            `json:"due_now"`
	ActiveRecurring  int            `json:"active_recurring"`
	PendingAmount    int64          `json:"pending_amount"` // Stored in cents/minor units
}

// Summarize aggregates schedules against the day boundaries of now.
//
// ProcessedToday counts executions whose last execution timestamp falls in
// today's window. UpcomingThisWeek counts non-terminal schedules whose due
// date falls in the next seven days starting today. Due dates are calendar
// dates, so they are placed on now's location before comparison. DueNow
// counts non-terminal schedules due today or earlier.
func Summarize(schedules []*ScheduledPayment, now time.Time) Summary {
	today := DayWindow(now, 1)
	week := DayWindow(now, 7)

	s := Summary{
		TotalsByStatus: map[Status]int{
			StatusPending:   0,
			StatusProcessed: 0,
			StatusCancelled: 0,
		},
	}

	for _, sp := range schedules {
		s.Total++
		s.TotalsByStatus[sp.Status]++

		if sp.LastExecutionDate != nil && today.Contains(*sp.LastExecutionDate) {
			s.ProcessedToday++
		}

		if sp.IsTerminal() {
			continue
		}

		s.PendingAmount += sp.Amount
		if sp.IsRecurring {
			s.ActiveRecurring++
		}
		if due, ok := sp.DueDate(); ok {
			local := inLocation(due, now.Location())
			if week.Contains(local) {
				s.UpcomingThisWeek++
			}
			if !local.After(today.Start) {
				s.DueNow++
			}
		}
	}
	return s
}

// inLocation places the calendar date of d at midnight in loc
func inLocation(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
