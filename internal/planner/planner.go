// Package planner computes the dashboard aggregations: the rolling
// planned-days strip for users and the month calendar for admins. All
// functions are pure; the current moment is always passed in.
package planner

import (
	"strings"
	"time"

	"planboard/internal/models"
)

// Meeting is a derived view item, not a persisted entity. Meetings are
// currently inferred from notification text (see MeetingsFromNotifications).
type Meeting struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// PlannedDay is one date's aggregated view for the dashboard strip.
type PlannedDay struct {
	Date      time.Time       `json:"date"`
	DateLabel string          `json:"date_label"`
	DateSub   string          `json:"date_sub,omitempty"`
	Tasks     []models.Task   `json:"tasks"`
	Meetings  []Meeting       `json:"meetings"`
}

const monthDayLayout = "January 02"

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// BuildPlannedDays buckets tasks (by deadline) and meetings (by date) into
// one entry per calendar day over [today-daysBack, today+daysForward],
// ascending. Items without a date are dropped. Days with no events still
// get a bucket with empty lists.
func BuildPlannedDays(tasks []models.Task, meetings []Meeting, daysBack, daysForward int, today time.Time) []PlannedDay {
	type bucket struct {
		tasks    []models.Task
		meetings []Meeting
	}
	byDay := make(map[string]*bucket)
	ensure := func(key string) *bucket {
		b, ok := byDay[key]
		if !ok {
			b = &bucket{}
			byDay[key] = b
		}
		return b
	}

	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		b := ensure(dateKey(*t.Deadline))
		b.tasks = append(b.tasks, t)
	}
	for _, m := range meetings {
		if m.Date.IsZero() {
			continue
		}
		b := ensure(dateKey(m.Date))
		b.meetings = append(b.meetings, m)
	}

	days := make([]PlannedDay, 0, daysBack+daysForward+1)
	for offset := -daysBack; offset <= daysForward; offset++ {
		d := today.AddDate(0, 0, offset)

		var label, sub string
		switch offset {
		case -1:
			label = "Yesterday, " + d.Format(monthDayLayout)
		case 0:
			label = "Today"
			sub = d.Format(monthDayLayout)
		case 1:
			label = "Tomorrow, " + d.Format(monthDayLayout)
		default:
			// e.g. "Monday, February 26"
			label = d.Format("Monday") + ", " + d.Format(monthDayLayout)
		}

		day := PlannedDay{
			Date:      d,
			DateLabel: label,
			DateSub:   sub,
			Tasks:     []models.Task{},
			Meetings:  []Meeting{},
		}
		if b, ok := byDay[dateKey(d)]; ok {
			day.Tasks = append(day.Tasks, b.tasks...)
			day.Meetings = append(day.Meetings, b.meetings...)
		}
		days = append(days, day)
	}
	return days
}

// MeetingsFromNotifications derives meeting items from notifications whose
// title or message mentions "meeting" (case-insensitive), dated by the
// notification's creation time. This keyword inference is a stand-in for a
// real meeting entity and is known to be fragile; it is kept as-is until
// one exists.
func MeetingsFromNotifications(notifications []models.Notification) []Meeting {
	var meetings []Meeting
	for _, n := range notifications {
		text := strings.ToLower(n.Title + " " + n.Message)
		if !strings.Contains(text, "meeting") {
			continue
		}
		meetings = append(meetings, Meeting{Title: n.Title, Date: n.CreatedAt})
	}
	return meetings
}
