package planner

import (
	"sort"
	"time"

	"planboard/internal/models"
)

// Event kinds used to color-code tasks on the admin calendar.
const (
	EventDelay     = "delay"
	EventCompleted = "completed"
	EventPending   = "pending"
	EventTask      = "task"
)

// CalendarCell is one day on the admin month grid.
type CalendarCell struct {
	Date           time.Time     `json:"date"`
	Day            int           `json:"day"`
	IsCurrentMonth bool          `json:"is_current_month"`
	IsToday        bool          `json:"is_today"`
	Tasks          []models.Task `json:"tasks"`
	Meetings       []Meeting     `json:"meetings"`
}

// Agenda carries the sorted deadline lists and counts shown next to the
// admin calendar.
type Agenda struct {
	Delayed   []models.Task `json:"delayed"`
	Pending   []models.Task `json:"pending"`
	Completed []models.Task `json:"completed"`
	Total     int           `json:"total"`
	Done      int           `json:"done"`
	Open      int           `json:"open"`
}

// MonthGrid builds the Sunday-first month matrix for year/month: complete
// weeks covering the month, with overflow days from the adjacent months.
// Tasks bucket by deadline date, meetings by meeting date.
func MonthGrid(year int, month time.Month, tasks []models.Task, meetings []Meeting, today time.Time) [][]CalendarCell {
	tasksByDay := make(map[string][]models.Task)
	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		key := dateKey(*t.Deadline)
		tasksByDay[key] = append(tasksByDay[key], t)
	}
	meetingsByDay := make(map[string][]Meeting)
	for _, m := range meetings {
		if m.Date.IsZero() {
			continue
		}
		key := dateKey(m.Date)
		meetingsByDay[key] = append(meetingsByDay[key], m)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	// Back up to the Sunday on or before the 1st.
	start := first.AddDate(0, 0, -int(first.Weekday()))

	todayKey := dateKey(today)
	var weeks [][]CalendarCell
	for d := start; !d.After(last); d = d.AddDate(0, 0, 7) {
		week := make([]CalendarCell, 0, 7)
		for i := 0; i < 7; i++ {
			day := d.AddDate(0, 0, i)
			key := dateKey(day)
			cell := CalendarCell{
				Date:           day,
				Day:            day.Day(),
				IsCurrentMonth: day.Month() == month && day.Year() == year,
				IsToday:        key == todayKey,
				Tasks:          tasksByDay[key],
				Meetings:       meetingsByDay[key],
			}
			if cell.Tasks == nil {
				cell.Tasks = []models.Task{}
			}
			if cell.Meetings == nil {
				cell.Meetings = []Meeting{}
			}
			week = append(week, cell)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// ClassifyTask maps a task to its calendar event kind relative to now:
// overdue work in flight is a delay, completed is completed, in-flight work
// with time left is pending, and anything else (assigned, shared) is a
// plain task.
func ClassifyTask(t models.Task, now time.Time) string {
	inFlight := t.Status == models.StatusInProgress || t.Status == models.StatusForRevision
	switch {
	case t.Status == models.StatusCompleted:
		return EventCompleted
	case inFlight && t.Deadline != nil && t.Deadline.Before(now):
		return EventDelay
	case inFlight:
		return EventPending
	default:
		return EventTask
	}
}

// BuildAgenda classifies every task with a deadline and produces the three
// sorted lists: delayed and pending ascending by deadline, completed
// descending (most recently completed first). Counts cover the whole task
// set regardless of deadline.
func BuildAgenda(tasks []models.Task, now time.Time) Agenda {
	agenda := Agenda{
		Delayed:   []models.Task{},
		Pending:   []models.Task{},
		Completed: []models.Task{},
		Total:     len(tasks),
	}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			agenda.Done++
		} else {
			agenda.Open++
		}
		if t.Deadline == nil {
			continue
		}
		switch ClassifyTask(t, now) {
		case EventDelay:
			agenda.Delayed = append(agenda.Delayed, t)
		case EventPending:
			agenda.Pending = append(agenda.Pending, t)
		case EventCompleted:
			agenda.Completed = append(agenda.Completed, t)
		}
	}

	byDeadlineAsc := func(list []models.Task) func(i, j int) bool {
		return func(i, j int) bool { return list[i].Deadline.Before(*list[j].Deadline) }
	}
	sort.Slice(agenda.Delayed, byDeadlineAsc(agenda.Delayed))
	sort.Slice(agenda.Pending, byDeadlineAsc(agenda.Pending))
	sort.Slice(agenda.Completed, func(i, j int) bool {
		return agenda.Completed[j].Deadline.Before(*agenda.Completed[i].Deadline)
	})
	return agenda
}

// NormalizeMonth validates query parameters for the calendar view. A month
// outside 1..12 or a year outside 1970..2100 falls back to now's
// month/year rather than erroring.
func NormalizeMonth(year, month int, now time.Time) (int, time.Month) {
	if month < 1 || month > 12 || year < 1970 || year > 2100 {
		return now.Year(), now.Month()
	}
	return year, time.Month(month)
}

// MonthNav returns the previous and next (year, month) pairs with year
// rollover at the January and December boundaries.
func MonthNav(year int, month time.Month) (prevYear int, prevMonth time.Month, nextYear int, nextMonth time.Month) {
	prevYear, prevMonth = year, month-1
	if month == time.January {
		prevYear, prevMonth = year-1, time.December
	}
	nextYear, nextMonth = year, month+1
	if month == time.December {
		nextYear, nextMonth = year+1, time.January
	}
	return prevYear, prevMonth, nextYear, nextMonth
}
