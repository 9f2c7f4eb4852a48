package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

func TestParseValidLog(t *testing.T) {
	input := strings.Join([]string{
		"student_id,activity_type,timestamp,score,duration_minutes",
		"1,quiz,2024-01-15 10:30:00,85,12.5",
		"2,video,2024-01-15 11:00:00,,30",
		"1,reading,2024-01-16,70,",
	}, "\n")

	table, err := New(nil).Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2, table.StudentCount())
	assert.True(t, table.HasScore())
	assert.True(t, table.HasHour())
	assert.True(t, table.HasDayOfWeek())

	events := table.Events()
	require.NotNil(t, events[0].Score)
	assert.InDelta(t, 85, *events[0].Score, 1e-9)
	assert.InDelta(t, 12.5, events[0].DurationMinutes, 1e-9)
	assert.Equal(t, "2024-01-15", events[0].Date)
	require.NotNil(t, events[0].Hour)
	assert.Equal(t, 10, *events[0].Hour)
	assert.Equal(t, "Monday", events[0].DayOfWeek)

	// Blank score stays null, blank duration normalizes to zero.
	assert.Nil(t, events[1].Score)
	assert.Zero(t, events[2].DurationMinutes)
}

func TestParseHeaderCaseInsensitive(t *testing.T) {
	input := "Student_ID,Activity_Type,Timestamp\n7,quiz,2024-01-15T10:30:00\n"
	table, err := New(nil).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 7, table.Events()[0].StudentID)
}

func TestParseMissingRequiredColumn(t *testing.T) {
	input := "student_id,timestamp\n1,2024-01-15 10:30:00\n"
	_, err := New(nil).Parse(strings.NewReader(input))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSchema.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "activity_type")
}

func TestParseEmptyFile(t *testing.T) {
	_, err := New(nil).Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyInput.Code, appErrors.FromError(err).Code)
}

func TestParseHeaderOnly(t *testing.T) {
	input := "student_id,activity_type,timestamp\n"
	_, err := New(nil).Parse(strings.NewReader(input))
	require.ErrorIs(t, err, appErrors.ErrEmptyInput)
}

func TestParseMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{name: "bad student id", row: "abc,quiz,2024-01-15 10:30:00"},
		{name: "empty activity", row: "1,,2024-01-15 10:30:00"},
		{name: "bad timestamp", row: "1,quiz,15/01/2024"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := "student_id,activity_type,timestamp\n" + tc.row + "\n"
			_, err := New(nil).Parse(strings.NewReader(input))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrSchema.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestParseInvalidScore(t *testing.T) {
	input := "student_id,activity_type,timestamp,score\n1,quiz,2024-01-15 10:30:00,high\n"
	_, err := New(nil).Parse(strings.NewReader(input))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSchema.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "score")
}
