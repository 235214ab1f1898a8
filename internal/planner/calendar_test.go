package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planboard/internal/models"
)

func TestMonthGridShape(t *testing.T) {
	now := time.Date(2024, 2, 24, 12, 0, 0, 0, time.UTC)

	weeks := MonthGrid(2024, time.February, nil, nil, now)
	require.NotEmpty(t, weeks)
	for _, week := range weeks {
		assert.Len(t, week, 7)
	}

	// Feb 2024: Feb 1 is a Thursday, Feb 29 a Thursday, so five Sunday-first weeks.
	assert.Len(t, weeks, 5)
	assert.Equal(t, time.Sunday, weeks[0][0].Date.Weekday())

	// The requested month's first day is present and flagged in-month.
	var foundFirst bool
	for _, week := range weeks {
		for _, cell := range week {
			if cell.Day == 1 && cell.IsCurrentMonth {
				foundFirst = true
				assert.Equal(t, time.February, cell.Date.Month())
			}
		}
	}
	assert.True(t, foundFirst)

	// Overflow cells from January are present but not in-month.
	assert.False(t, weeks[0][0].IsCurrentMonth)
	assert.Equal(t, 28, weeks[0][0].Day)
}

func TestMonthGridBucketsAndToday(t *testing.T) {
	now := time.Date(2024, 2, 24, 12, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: 1, Title: "review", Deadline: deadline(time.Date(2024, 2, 24, 17, 0, 0, 0, time.UTC))},
		{ID: 2, Title: "dateless"},
	}
	meetings := []Meeting{
		{Title: "planning meeting", Date: time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)},
	}

	weeks := MonthGrid(2024, time.February, tasks, meetings, now)

	var todayCell, meetingCell *CalendarCell
	for wi := range weeks {
		for ci := range weeks[wi] {
			cell := &weeks[wi][ci]
			if cell.IsToday {
				todayCell = cell
			}
			if len(cell.Meetings) > 0 {
				meetingCell = cell
			}
		}
	}

	require.NotNil(t, todayCell)
	assert.Equal(t, 24, todayCell.Day)
	require.Len(t, todayCell.Tasks, 1)
	assert.Equal(t, 1, todayCell.Tasks[0].ID)

	require.NotNil(t, meetingCell)
	assert.Equal(t, 5, meetingCell.Day)
}

func TestClassifyTask(t *testing.T) {
	now := time.Date(2024, 2, 24, 12, 0, 0, 0, time.UTC)
	past := deadline(now.Add(-48 * time.Hour))
	future := deadline(now.Add(48 * time.Hour))

	cases := []struct {
		name string
		task models.Task
		want string
	}{
		{"in progress overdue", models.Task{Status: models.StatusInProgress, Deadline: past}, EventDelay},
		{"for revision overdue", models.Task{Status: models.StatusForRevision, Deadline: past}, EventDelay},
		{"in progress with time left", models.Task{Status: models.StatusInProgress, Deadline: future}, EventPending},
		{"completed overdue", models.Task{Status: models.StatusCompleted, Deadline: past}, EventCompleted},
		{"completed future", models.Task{Status: models.StatusCompleted, Deadline: future}, EventCompleted},
		{"assigned", models.Task{Status: models.StatusAssigned, Deadline: future}, EventTask},
		{"shared", models.Task{Status: models.StatusShared, Deadline: future}, EventTask},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyTask(tc.task, now))
		})
	}
}

func TestBuildAgenda(t *testing.T) {
	now := time.Date(2024, 2, 24, 12, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time { return deadline(time.Date(2024, 2, d, 12, 0, 0, 0, time.UTC)) }

	tasks := []models.Task{
		{ID: 1, Status: models.StatusInProgress, Deadline: day(20)},
		{ID: 2, Status: models.StatusInProgress, Deadline: day(10)},
		{ID: 3, Status: models.StatusForRevision, Deadline: day(26)},
		{ID: 4, Status: models.StatusInProgress, Deadline: day(28)},
		{ID: 5, Status: models.StatusCompleted, Deadline: day(15)},
		{ID: 6, Status: models.StatusCompleted, Deadline: day(22)},
		{ID: 7, Status: models.StatusAssigned, Deadline: day(25)},
		{ID: 8, Status: models.StatusAssigned}, // no deadline, counts only
	}

	agenda := BuildAgenda(tasks, now)

	// Delayed ascending by deadline.
	require.Len(t, agenda.Delayed, 2)
	assert.Equal(t, 2, agenda.Delayed[0].ID)
	assert.Equal(t, 1, agenda.Delayed[1].ID)

	// Pending ascending by deadline.
	require.Len(t, agenda.Pending, 2)
	assert.Equal(t, 3, agenda.Pending[0].ID)
	assert.Equal(t, 4, agenda.Pending[1].ID)

	// Completed descending: most recently completed first.
	require.Len(t, agenda.Completed, 2)
	assert.Equal(t, 6, agenda.Completed[0].ID)
	assert.Equal(t, 5, agenda.Completed[1].ID)

	assert.Equal(t, 8, agenda.Total)
	assert.Equal(t, 2, agenda.Done)
	assert.Equal(t, 6, agenda.Open)
}

func TestNormalizeMonth(t *testing.T) {
	now := time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC)

	year, month := NormalizeMonth(2023, 11, now)
	assert.Equal(t, 2023, year)
	assert.Equal(t, time.November, month)

	for _, bad := range [][2]int{{2024, 0}, {2024, 13}, {1969, 5}, {2101, 5}, {-3, 7}} {
		year, month = NormalizeMonth(bad[0], bad[1], now)
		assert.Equal(t, 2024, year, "year=%d month=%d", bad[0], bad[1])
		assert.Equal(t, time.February, month, "year=%d month=%d", bad[0], bad[1])
	}
}

func TestMonthNav(t *testing.T) {
	prevYear, prevMonth, nextYear, nextMonth := MonthNav(2024, time.January)
	assert.Equal(t, 2023, prevYear)
	assert.Equal(t, time.December, prevMonth)
	assert.Equal(t, 2024, nextYear)
	assert.Equal(t, time.February, nextMonth)

	prevYear, prevMonth, nextYear, nextMonth = MonthNav(2024, time.December)
	assert.Equal(t, 2024, prevYear)
	assert.Equal(t, time.November, prevMonth)
	assert.Equal(t, 2025, nextYear)
	assert.Equal(t, time.January, nextMonth)

	prevYear, prevMonth, nextYear, nextMonth = MonthNav(2024, time.June)
	assert.Equal(t, 2024, prevYear)
	assert.Equal(t, time.May, prevMonth)
	assert.Equal(t, 2024, nextYear)
	assert.Equal(t, time.July, nextMonth)
}
