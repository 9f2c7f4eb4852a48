// Package parser ingests raw LMS activity logs in CSV form and produces the
// normalized, validated event table the analysis engine runs on. Schema and
// emptiness failures surface here; the engine itself never re-validates.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

const (
	columnStudentID    = "student_id"
	columnActivityType = "activity_type"
	columnTimestamp    = "timestamp"
	columnScore        = "score"
	columnDuration     = "duration_minutes"
)

var requiredColumns = []string{columnStudentID, columnActivityType, columnTimestamp}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LogParser reads activity-log CSV files.
type LogParser struct {
	logger *zap.Logger
}

// New constructs a parser.
func New(logger *zap.Logger) *LogParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogParser{logger: logger}
}

// Parse reads the whole CSV stream into an immutable EventTable. Derived
// temporal fields (date, hour, day_of_week) are computed here, once. It
// returns ErrSchema for missing or malformed required columns and
// ErrEmptyInput when the file has a header but no data rows.
func (p *LogParser) Parse(r io.Reader) (*models.EventTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "log file is empty")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSchema.Code, appErrors.ErrSchema.Status, "read csv header")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("missing required column: %s", required))
		}
	}

	events := make([]models.ActivityEvent, 0, 64)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrSchema.Code, appErrors.ErrSchema.Status, fmt.Sprintf("read csv row %d", line))
		}

		event, err := p.parseRow(record, columns, line)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if len(events) == 0 {
		return nil, appErrors.ErrEmptyInput
	}

	table := models.NewEventTable(events)
	p.logger.Info("parsed activity log",
		zap.Int("rows", table.Len()),
		zap.Int("students", table.StudentCount()),
		zap.Bool("has_scores", table.HasScore()),
	)
	return table, nil
}

func (p *LogParser) parseRow(record []string, columns map[string]int, line int) (models.ActivityEvent, error) {
	var event models.ActivityEvent

	rawStudent := cell(record, columns, columnStudentID)
	studentID, err := strconv.Atoi(rawStudent)
	if err != nil {
		return event, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("row %d: invalid student_id %q", line, rawStudent))
	}

	activity := cell(record, columns, columnActivityType)
	if activity == "" {
		return event, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("row %d: empty activity_type", line))
	}

	rawTS := cell(record, columns, columnTimestamp)
	ts, err := parseTimestamp(rawTS)
	if err != nil {
		return event, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("row %d: invalid timestamp %q", line, rawTS))
	}

	hour := ts.Hour()
	event = models.ActivityEvent{
		StudentID:    studentID,
		ActivityType: activity,
		Timestamp:    ts,
		Date:         ts.Format("2006-01-02"),
		Hour:         &hour,
		DayOfWeek:    ts.Weekday().String(),
	}

	if raw := cell(record, columns, columnScore); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return event, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("row %d: invalid score %q", line, raw))
		}
		event.Score = &score
	}

	// Null durations normalize to zero.
	if raw := cell(record, columns, columnDuration); raw != "" {
		duration, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return event, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("row %d: invalid duration_minutes %q", line, raw))
		}
		event.DurationMinutes = duration
	}

	return event, nil
}

func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format")
}
