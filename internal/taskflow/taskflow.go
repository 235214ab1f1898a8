// Package taskflow holds the task status rules: which status strings are
// accepted, when a task can be taken from the shared pool, and how the
// complete endpoint resolves its target status.
package taskflow

import (
	"fmt"
	"time"

	"planboard/internal/models"
)

// ValidStatus reports whether s is one of the four workable statuses.
// The legacy "shared" pool value is deliberately not included: a task only
// becomes shared through assignment, never through a status edit.
func ValidStatus(s string) bool {
	switch s {
	case models.StatusAssigned, models.StatusInProgress, models.StatusForRevision, models.StatusCompleted:
		return true
	default:
		return false
	}
}

// ValidInitialStatus covers task creation, where "shared" is also allowed
// so admins can drop tasks straight into the pool.
func ValidInitialStatus(s string) bool {
	return s == models.StatusShared || ValidStatus(s)
}

// CanTake reports whether a task is claimable from the pool. Taking a task
// with any other status is a silent no-op at the endpoint level.
func CanTake(status string) bool {
	return status == models.StatusShared
}

// CanFinish reports whether actor may mark the task completed.
func CanFinish(t models.Task, actorID int) bool {
	return t.AssignedTo != nil && *t.AssignedTo == actorID
}

// ResolveCompletion picks the status the complete endpoint applies. A valid
// requested status wins outright. Otherwise the task toggles: away from
// completed (to fallback, or in_progress when the fallback is invalid too),
// or toward completed from anywhere else.
func ResolveCompletion(current, requested, fallback string) string {
	if ValidStatus(requested) {
		return requested
	}
	if current == models.StatusCompleted {
		if ValidStatus(fallback) {
			return fallback
		}
		return models.StatusInProgress
	}
	return models.StatusCompleted
}

// ParseDeadline parses the wire deadline format "2006-01-02 15:04". The
// HTML datetime-local variant with a "T" separator is accepted as well.
func ParseDeadline(s string) (time.Time, error) {
	for _, layout := range []string{models.DeadlineLayout, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD HH:MM", s)
}
