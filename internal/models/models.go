package models

import (
	"strings"
	"time"
)

// Task statuses. "shared" is a legacy value meaning the task sits in the
// pool with no fixed assignee until someone takes it.
const (
	StatusAssigned    = "assigned"
	StatusInProgress  = "in_progress"
	StatusForRevision = "for_revision"
	StatusCompleted   = "completed"
	StatusShared      = "shared"
)

const DefaultPriority = "normal"

// DeadlineLayout is the wire format for task deadlines, both directions.
const DeadlineLayout = "2006-01-02 15:04"

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Firstname string    `json:"firstname"`
	IsAdmin   bool      `json:"is_admin"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeFirstname applies the storage form used everywhere: trimmed,
// first letter upper, rest lower.
func NormalizeFirstname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

type Task struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedTo   *int       `json:"assigned_to"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	FileName     *string    `json:"file_name,omitempty"`
	LastEditedBy *int       `json:"last_edited_by,omitempty"`
	LastEditedAt time.Time  `json:"last_edited_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TaskRecord is the structured form handed out by the API: same fields as
// Task but with the deadline pre-formatted.
type TaskRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	FileName    string `json:"file_name"`
}

func (t Task) Record() TaskRecord {
	rec := TaskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
	if t.Deadline != nil {
		rec.Deadline = t.Deadline.Format(DeadlineLayout)
	}
	if t.FileName != nil {
		rec.FileName = *t.FileName
	}
	return rec
}

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID     int       `json:"id"`
	Data   string    `json:"data"`
	Date   time.Time `json:"date"`
	UserID int       `json:"user_id"`
}
