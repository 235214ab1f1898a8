package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFirstname(t *testing.T) {
	cases := map[string]string{
		"alice":    "Alice",
		"  bob  ":  "Bob",
		"CAROL":    "Carol",
		"dAvE":     "Dave",
		"":         "",
		"   ":      "",
		"x":        "X",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeFirstname(in), "input %q", in)
	}
}

func TestTaskRecordFormatsDeadline(t *testing.T) {
	due := time.Date(2024, 2, 24, 15, 30, 0, 0, time.UTC)
	file := "report.pdf"
	task := Task{
		ID:          3,
		Title:       "Write report",
		Description: "Numbers",
		Status:      StatusInProgress,
		Priority:    DefaultPriority,
		Deadline:    &due,
		FileName:    &file,
	}

	rec := task.Record()
	assert.Equal(t, "2024-02-24 15:30", rec.Deadline)
	assert.Equal(t, "report.pdf", rec.FileName)

	// No deadline renders as an empty string, not a zero time.
	rec = Task{ID: 4, Title: "No due date"}.Record()
	assert.Empty(t, rec.Deadline)
	assert.Empty(t, rec.FileName)
}
