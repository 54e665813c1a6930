package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	now := time.Date(2025, time.March, 5, 17, 45, 0, 0, loc)

	today := DayWindow(now, 1)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, loc), today.Start)
	assert.Equal(t, time.Date(2025, time.March, 6, 0, 0, 0, 0, loc), today.End)

	week := DayWindow(now, 7)
	assert.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, loc), week.End)

	assert.True(t, today.Contains(today.Start))
	assert.False(t, today.Contains(today.End))
	assert.False(t, today.Contains(today.Start.Add(-time.Nanosecond)))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	executedToday := time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)
	executedYesterday := time.Date(2025, time.March, 4, 23, 59, 0, 0, time.UTC)

	schedules := []*ScheduledPayment{
		// pending, due today
		{Status: StatusPending, ScheduledFor: date(2025, time.March, 5), Payload: Payload{Amount: 100}},
		// pending, overdue
		{Status: StatusPending, ScheduledFor: date(2025, time.March, 1), Payload: Payload{Amount: 200}},
		// pending, due on the last day of the week window
		{Status: StatusPending, ScheduledFor: date(2025, time.March, 11), Payload: Payload{Amount: 300}},
		// pending, just outside the week window
		{Status: StatusPending, ScheduledFor: date(2025, time.March, 12), Payload: Payload{Amount: 400}},
		// recurring, executed today, next in three days
		{
			Status:            StatusProcessed,
			IsRecurring:       true,
			ScheduledFor:      date(2025, time.February, 26),
			ExecutionCount:    2,
			NextExecution:     datePtr(2025, time.March, 8),
			LastExecutionDate: &executedToday,
			Payload:           Payload{Amount: 500},
		},
		// exhausted one-time, executed yesterday
		{
			Status:            StatusProcessed,
			ScheduledFor:      date(2025, time.March, 4),
			ExecutionCount:    1,
			LastExecutionDate: &executedYesterday,
			Payload:           Payload{Amount: 600},
		},
		// cancelled
		{Status: StatusCancelled, ScheduledFor: date(2025, time.March, 6), Payload: Payload{Amount: 700}},
	}

	s := Summarize(schedules, now)

	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 4, s.TotalsByStatus[StatusPending])
	assert.Equal(t, 2, s.TotalsByStatus[StatusProcessed])
	assert.Equal(t, 1, s.TotalsByStatus[StatusCancelled])
	assert.Equal(t, 1, s.ProcessedToday)
	assert.Equal(t, 3, s.UpcomingThisWeek)
	assert.Equal(t, 2, s.DueNow)
	assert.Equal(t, 1, s.ActiveRecurring)
	assert.Equal(t, int64(1500), s.PendingAmount)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Now())

	assert.Equal(t, 0, s.Total)
	assert.Len(t, s.TotalsByStatus, 3)
}
