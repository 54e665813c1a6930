package schedule

import (
	"iter"
	"time"
)

// DefaultPreviewResults is the number of occurrences materialized when the
// caller does not ask for a specific amount.
const DefaultPreviewResults = 5

// Pattern defines how often a recurring schedule fires
type Pattern string

const (
	PatternWeekly    Pattern = "weekly"
	PatternMonthly   Pattern = "monthly"
	PatternQuarterly Pattern = "quarterly"
	PatternYearly    Pattern = "yearly"
)

// Valid reports whether p is one of the supported patterns
func (p Pattern) Valid() bool {
	switch p {
	case PatternWeekly, PatternMonthly, PatternQuarterly, PatternYearly:
		return true
	}
	return false
}

// approxDays is the fixed day count used by EstimateOccurrenceCount
func (p Pattern) approxDays() int {
	switch p {
	case PatternWeekly:
		return 7
	case PatternMonthly:
		return 30
	case PatternQuarterly:
		return 90
	case PatternYearly:
		return 365
	}
	return 0
}

// EndType defines the end condition of a recurring schedule
type EndType string

const (
	EndTypeAfter EndType = "after"
	EndTypeOn    EndType = "on"
	EndTypeNever EndType = "never"
)

// Valid reports whether t is one of the supported end conditions
func (t EndType) Valid() bool {
	switch t {
	case EndTypeAfter, EndTypeOn, EndTypeNever:
		return true
	}
	return false
}

// Recurrence holds the parameters that determine a schedule's occurrence dates
type Recurrence struct {
	ScheduledFor time.Time
	IsRecurring  bool
	Pattern      Pattern
	EndType      EndType
	EndAfter     int
	EndDate      *time.Time
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks that r describes a recurring schedule with a complete end
// condition. An empty EndType is treated as never.
func (r Recurrence) Validate() error {
	if r.ScheduledFor.IsZero() {
		return ValidationError{Field: "scheduled_for", Reason: "is required"}
	}
	if !r.Pattern.Valid() {
		return ValidationError{Field: "recurrence_pattern", Reason: "must be weekly, monthly, quarterly or yearly"}
	}
	switch r.EndType {
	case "", EndTypeNever:
	case EndTypeAfter:
		if r.EndAfter < 1 {
			return ValidationError{Field: "recurrence_end_after", Reason: "must be a positive occurrence count"}
		}
	case EndTypeOn:
		if r.EndDate == nil {
			return ValidationError{Field: "recurrence_end_date", Reason: "is required when recurrence ends on a date"}
		}
		if !DateOf(*r.EndDate).After(DateOf(r.ScheduledFor)) {
			return ValidationError{Field: "recurrence_end_date", Reason: "must be after scheduled_for"}
		}
	default:
		return ValidationError{Field: "recurrence_end_type", Reason: "must be after, on or never"}
	}
	return nil
}

func (r Recurrence) projectable() bool {
	return r.IsRecurring && r.Pattern.Valid() && !r.ScheduledFor.IsZero()
}

// OccurrenceAt returns the n-th occurrence (0-based) of r. Every occurrence is
// computed from ScheduledFor rather than from its predecessor, so a schedule
// anchored on the 31st returns to the 31st after passing through a short month.
func OccurrenceAt(r Recurrence, n int) time.Time {
	anchor := DateOf(r.ScheduledFor)
	switch r.Pattern {
	case PatternWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case PatternMonthly:
		return addMonthsClamped(anchor, n)
	case PatternQuarterly:
		return addMonthsClamped(anchor, 3*n)
	case PatternYearly:
		return addMonthsClamped(anchor, 12*n)
	}
	return anchor
}

// addMonthsClamped adds months to t, clamping the day to the last valid day of
// the resulting month.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// endReached reports whether the n-th occurrence lies past the end condition.
func (r Recurrence) endReached(n int, candidate time.Time) bool {
	switch r.EndType {
	case EndTypeAfter:
		return r.EndAfter > 0 && n >= r.EndAfter
	case EndTypeOn:
		return n > 0 && r.EndDate != nil && candidate.After(DateOf(*r.EndDate))
	}
	return false
}

// Occurrences returns the ordered occurrence dates of r, at most maxResults of
// them. The sequence is empty when r is not recurring, has no pattern or has
// no start date. A maxResults below one falls back to DefaultPreviewResults.
func Occurrences(r Recurrence, maxResults int) iter.Seq[time.Time] {
	if maxResults < 1 {
		maxResults = DefaultPreviewResults
	}
	return func(yield func(time.Time) bool) {
		if !r.projectable() {
			return
		}
		for n := 0; n < maxResults; n++ {
			candidate := OccurrenceAt(r, n)
			if r.endReached(n, candidate) {
				return
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

// ProjectOccurrences materializes Occurrences into a slice. The result is
// never nil.
func ProjectOccurrences(r Recurrence, maxResults int) []time.Time {
	dates := make([]time.Time, 0, DefaultPreviewResults)
	for d := range Occurrences(r, maxResults) {
		dates = append(dates, d)
	}
	return dates
}

// NextAfter returns the occurrence that follows the first executed occurrences
// of r, or false when the end condition is met.
func NextAfter(r Recurrence, executed int) (time.Time, bool) {
	if !r.projectable() {
		return time.Time{}, false
	}
	candidate := OccurrenceAt(r, executed)
	if r.endReached(executed, candidate) {
		return time.Time{}, false
	}
	return candidate, true
}

// EstimateOccurrenceCount returns an approximate total number of occurrences.
//
// For an end date it divides the day span by a fixed interval length
// (7, 30, 90 or 365 days), so it can differ from the exact calendar count;
// use it for display only. The second result is false for open-ended
// schedules, which have no total.
func EstimateOccurrenceCount(r Recurrence) (int, bool) {
	if !r.IsRecurring {
		return 1, true
	}
	switch r.EndType {
	case EndTypeAfter:
		return r.EndAfter, true
	case EndTypeOn:
		if r.EndDate == nil || !r.Pattern.Valid() {
			return 0, false
		}
		days := int(DateOf(*r.EndDate).Sub(DateOf(r.ScheduledFor)).Hours() / 24)
		if days < 0 {
			return 0, true
		}
		return 1 + days/r.Pattern.approxDays(), true
	}
	return 0, false
}
