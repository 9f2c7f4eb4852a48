package models

import "time"

// ActivityEvent is one normalized row of an LMS activity log. Temporal derived
// fields are computed once at ingestion and never recomputed afterwards.
type ActivityEvent struct {
	StudentID       int        `json:"student_id"`
	ActivityType    string     `json:"activity_type"`
	Timestamp       time.Time  `json:"timestamp"`
	Date            string     `json:"date"`
	Hour            *int       `json:"hour,omitempty"`
	DayOfWeek       string     `json:"day_of_week,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	DurationMinutes float64    `json:"duration_minutes"`
}

// EventTable is the immutable, ordered event set the analysis engine reads.
// Insertion order is the source-file order; aggregations are order independent
// but reporting tie-breaks rely on first-seen order. Optional-column presence
// is resolved once here, not re-inspected per derivation.
type EventTable struct {
	events []ActivityEvent

	hasScore     bool
	hasHour      bool
	hasDayOfWeek bool
}

// NewEventTable builds a table from already-validated events.
func NewEventTable(events []ActivityEvent) *EventTable {
	t := &EventTable{events: events}
	if len(events) == 0 {
		return t
	}

	t.hasHour = true
	t.hasDayOfWeek = true
	for _, ev := range events {
		if ev.Score != nil {
			t.hasScore = true
		}
		if ev.Hour == nil {
			t.hasHour = false
		}
		if ev.DayOfWeek == "" {
			t.hasDayOfWeek = false
		}
	}
	return t
}

// Len returns the row count.
func (t *EventTable) Len() int {
	return len(t.events)
}

// Events returns the underlying rows in insertion order. Callers must not
// mutate the returned slice.
func (t *EventTable) Events() []ActivityEvent {
	return t.events
}

// HasScore reports whether at least one row carries a non-null score.
func (t *EventTable) HasScore() bool {
	return t.hasScore
}

// HasHour reports whether the derived hour column is available on every row.
func (t *EventTable) HasHour() bool {
	return t.hasHour
}

// HasDayOfWeek reports whether the derived weekday column is available on every row.
func (t *EventTable) HasDayOfWeek() bool {
	return t.hasDayOfWeek
}

// StudentCount returns the number of distinct student IDs.
func (t *EventTable) StudentCount() int {
	seen := make(map[int]struct{}, len(t.events))
	for _, ev := range t.events {
		seen[ev.StudentID] = struct{}{}
	}
	return len(seen)
}
