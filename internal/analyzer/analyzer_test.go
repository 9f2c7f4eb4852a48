package analyzer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

func event(studentID int, activity, timestamp string, score *float64) models.ActivityEvent {
	ts, err := time.Parse("2006-01-02 15:04:05", timestamp)
	if err != nil {
		panic(err)
	}
	hour := ts.Hour()
	return models.ActivityEvent{
		StudentID:    studentID,
		ActivityType: activity,
		Timestamp:    ts,
		Date:         ts.Format("2006-01-02"),
		Hour:         &hour,
		DayOfWeek:    ts.Weekday().String(),
		Score:        score,
	}
}

func score(v float64) *float64 {
	return &v
}

// Two students, two activities, four scored events. Overall mean is 81.25,
// student 1 averages 87.5 (high) and student 2 averages 75 (medium).
func baselineTable() *models.EventTable {
	return models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-01-15 10:30:00", score(85)),
		event(2, "video", "2024-01-15 11:00:00", score(70)),
		event(1, "video", "2024-01-16 14:20:00", score(90)),
		event(2, "quiz", "2024-01-17 09:15:00", score(80)),
	})
}

func TestAnalyzeAllEmptyTable(t *testing.T) {
	_, err := New(models.NewEventTable(nil), 5).AnalyzeAll(context.Background())
	require.ErrorIs(t, err, appErrors.ErrEmptyInput)
}

func TestBasicStatsBaseline(t *testing.T) {
	result, err := New(baselineTable(), 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	stats := result.BasicStats
	assert.Equal(t, 4, stats.TotalActivities)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, "2024-01-15", stats.DateRange.Start)
	assert.Equal(t, "2024-01-17", stats.DateRange.End)
	assert.InDelta(t, 2.0, stats.AvgActivitiesPerStudent, 1e-9)

	require.NotNil(t, stats.ScoreStats)
	assert.InDelta(t, 81.25, stats.ScoreStats.Avg, 1e-9)
	assert.InDelta(t, 90, stats.ScoreStats.Max, 1e-9)
	assert.InDelta(t, 70, stats.ScoreStats.Min, 1e-9)
	require.NotNil(t, stats.ScoreStats.Std)
	assert.Greater(t, *stats.ScoreStats.Std, 0.0)
}

func TestAvgActivitiesPerStudentIdentity(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(50)),
		event(1, "quiz", "2024-03-04 09:00:00", score(55)),
		event(1, "video", "2024-03-05 10:00:00", nil),
		event(2, "quiz", "2024-03-06 11:00:00", score(95)),
		event(3, "reading", "2024-03-07 12:00:00", nil),
	})
	stats := New(table, 5).BasicStats()
	assert.InDelta(t, float64(stats.TotalActivities)/float64(stats.TotalStudents), stats.AvgActivitiesPerStudent, 1e-9)
}

func TestStudentPerformanceBaseline(t *testing.T) {
	perf := New(baselineTable(), 5).StudentPerformance()

	require.Len(t, perf.TopStudents, 2)
	assert.Equal(t, 1, perf.TopStudents[0].StudentID)
	require.NotNil(t, perf.TopStudents[0].AvgScore)
	assert.InDelta(t, 87.5, *perf.TopStudents[0].AvgScore, 1e-9)
	assert.Equal(t, models.PerformanceHigh, perf.TopStudents[0].PerformanceLevel)

	assert.Equal(t, 2, perf.TopStudents[1].StudentID)
	assert.InDelta(t, 75, *perf.TopStudents[1].AvgScore, 1e-9)
	assert.Equal(t, models.PerformanceMedium, perf.TopStudents[1].PerformanceLevel)

	assert.Equal(t, map[models.PerformanceLevel]int{
		models.PerformanceHigh:   1,
		models.PerformanceMedium: 1,
	}, perf.PerformanceDistribution)

	// Both students have identical activity counts, so the variance of the
	// count series is zero and the correlation is undefined.
	assert.Nil(t, perf.CorrelationActivityScore)
	assert.True(t, perf.CorrelationDefined)
}

func TestStudentPerformanceDistributionSumsToClassified(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(40)),
		event(2, "quiz", "2024-03-04 09:00:00", score(65)),
		event(3, "quiz", "2024-03-04 10:00:00", score(90)),
		event(4, "video", "2024-03-04 11:00:00", nil),
	})
	perf := New(table, 5).StudentPerformance()

	total := 0
	for _, count := range perf.PerformanceDistribution {
		total += count
	}
	// Student 4 has no scored events and is never classified.
	assert.Equal(t, 3, total)
	assert.Len(t, perf.TopStudents, 3)
}

func TestStudentPerformanceTopNBound(t *testing.T) {
	events := []models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(61)),
		event(2, "quiz", "2024-03-04 09:00:00", score(72)),
		event(3, "quiz", "2024-03-04 10:00:00", score(83)),
		event(4, "quiz", "2024-03-04 11:00:00", score(94)),
	}
	perf := New(models.NewEventTable(events), 2).StudentPerformance()

	require.Len(t, perf.TopStudents, 2)
	assert.Equal(t, 4, perf.TopStudents[0].StudentID)
	assert.Equal(t, 3, perf.TopStudents[1].StudentID)
	// Distribution still covers every classified student, not just the top slice.
	total := 0
	for _, count := range perf.PerformanceDistribution {
		total += count
	}
	assert.Equal(t, 4, total)
}

func TestStudentPerformanceWithoutScores(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "video", "2024-03-04 08:00:00", nil),
		event(2, "reading", "2024-03-04 09:00:00", nil),
	})
	perf := New(table, 5).StudentPerformance()

	assert.Empty(t, perf.TopStudents)
	assert.Empty(t, perf.PerformanceDistribution)
	assert.False(t, perf.CorrelationDefined)

	payload, err := json.Marshal(perf)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(payload))
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		avg  float64
		want models.PerformanceLevel
	}{
		{avg: 0, want: ""},
		{avg: 0.5, want: models.PerformanceLow},
		{avg: 60, want: models.PerformanceLow},
		{avg: 60.0001, want: models.PerformanceMedium},
		{avg: 80, want: models.PerformanceMedium},
		{avg: 80.0001, want: models.PerformanceHigh},
		{avg: 100, want: models.PerformanceHigh},
		{avg: 100.5, want: ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, classify(tc.avg), "avg=%v", tc.avg)
	}
}

func TestActivityEffectivenessRanking(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(70)),
		event(2, "video", "2024-03-04 09:00:00", score(90)),
		event(3, "reading", "2024-03-04 10:00:00", score(80)),
	})
	summaries := New(table, 5).ActivityEffectiveness()

	require.Len(t, summaries, 3)
	// Insertion order is preserved; ranks carry the ordering.
	assert.Equal(t, "quiz", summaries[0].ActivityType)
	assert.Equal(t, 3, summaries[0].EffectivenessRank)
	assert.Equal(t, "video", summaries[1].ActivityType)
	assert.Equal(t, 1, summaries[1].EffectivenessRank)
	assert.Equal(t, "reading", summaries[2].ActivityType)
	assert.Equal(t, 2, summaries[2].EffectivenessRank)
}

func TestActivityEffectivenessCompetitionRankingOnTies(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(90)),
		event(2, "video", "2024-03-04 09:00:00", score(90)),
		event(3, "reading", "2024-03-04 10:00:00", score(70)),
	})
	summaries := New(table, 5).ActivityEffectiveness()

	require.Len(t, summaries, 3)
	assert.Equal(t, 1, summaries[0].EffectivenessRank)
	assert.Equal(t, 1, summaries[1].EffectivenessRank)
	// Competition ranking: two share first place, the next mean ranks third.
	assert.Equal(t, 3, summaries[2].EffectivenessRank)
}

func TestActivityEffectivenessSingleScoreNilStd(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(88)),
	})
	summaries := New(table, 5).ActivityEffectiveness()

	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Count)
	assert.Nil(t, summaries[0].StdScore)
}

func TestActivityEffectivenessSkipsUnscoredGroups(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(88)),
		event(2, "forum", "2024-03-04 09:00:00", nil),
	})
	summaries := New(table, 5).ActivityEffectiveness()

	require.Len(t, summaries, 1)
	assert.Equal(t, "quiz", summaries[0].ActivityType)
}

func TestPeakHoursOrderingAndLimit(t *testing.T) {
	events := []models.ActivityEvent{
		event(1, "quiz", "2024-03-04 09:00:00", nil),
		event(1, "quiz", "2024-03-04 09:10:00", nil),
		event(1, "quiz", "2024-03-04 09:20:00", nil),
		event(1, "quiz", "2024-03-04 14:00:00", nil),
		event(1, "quiz", "2024-03-04 14:10:00", nil),
		event(1, "quiz", "2024-03-04 20:00:00", nil),
		event(1, "quiz", "2024-03-04 21:00:00", nil),
	}
	patterns := New(models.NewEventTable(events), 5).TimePatterns()

	require.NotNil(t, patterns.PeakHours)
	require.Len(t, patterns.PeakHours.Hours, 3)
	assert.Equal(t, []int{9, 14, 20}, patterns.PeakHours.Hours)
	assert.Equal(t, []int{3, 2, 1}, patterns.PeakHours.Counts)
	for i := 1; i < len(patterns.PeakHours.Counts); i++ {
		assert.GreaterOrEqual(t, patterns.PeakHours.Counts[i-1], patterns.PeakHours.Counts[i])
	}
}

func TestPeakHoursTieBreaksOnLowerHour(t *testing.T) {
	events := []models.ActivityEvent{
		event(1, "quiz", "2024-03-04 22:00:00", nil),
		event(1, "quiz", "2024-03-04 07:00:00", nil),
	}
	patterns := New(models.NewEventTable(events), 5).TimePatterns()

	require.NotNil(t, patterns.PeakHours)
	assert.Equal(t, []int{7, 22}, patterns.PeakHours.Hours)
}

func TestWeekdayDistributionCompleteDomain(t *testing.T) {
	// 2024-03-06 is a Wednesday.
	events := []models.ActivityEvent{
		event(1, "quiz", "2024-03-06 10:00:00", nil),
		event(2, "quiz", "2024-03-06 11:00:00", nil),
	}
	patterns := New(models.NewEventTable(events), 5).TimePatterns()

	require.Len(t, patterns.WeekdayDistribution, 7)
	assert.Equal(t, "Monday", patterns.WeekdayDistribution[0].Day)
	assert.Equal(t, "Sunday", patterns.WeekdayDistribution[6].Day)
	assert.Equal(t, 2, patterns.WeekdayDistribution[2].Count)
	total := 0
	for _, day := range patterns.WeekdayDistribution {
		total += day.Count
	}
	assert.Equal(t, 2, total)
}

func TestRecommendationsFixedOrder(t *testing.T) {
	result, err := New(baselineTable(), 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	// Average of 81.25 is above the low-score threshold, so only the first
	// two rules fire, in rule order.
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, models.RecommendationActivity, result.Recommendations[0].Type)
	assert.Contains(t, result.Recommendations[0].Description, "quiz")
	assert.Equal(t, models.RecommendationTime, result.Recommendations[1].Type)
}

func TestRecommendationsLowAverageTriggersThirdRule(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(40)),
		event(2, "quiz", "2024-03-04 09:00:00", score(60)),
	})
	result, err := New(table, 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, models.RecommendationGeneral, result.Recommendations[2].Type)
	assert.Contains(t, result.Recommendations[2].Description, "50.0")
}

func TestRecommendationsBestActivityFirstOnTie(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "quiz", "2024-03-04 08:00:00", score(90)),
		event(2, "video", "2024-03-04 09:00:00", score(90)),
	})
	a := New(table, 5)
	recs := a.Recommendations(a.BasicStats(), a.ActivityEffectiveness(), a.TimePatterns())

	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0].Description, "quiz")
}

func TestRecommendationsWithoutScoresOnlyTimeRule(t *testing.T) {
	table := models.NewEventTable([]models.ActivityEvent{
		event(1, "video", "2024-03-04 08:00:00", nil),
	})
	result, err := New(table, 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, models.RecommendationTime, result.Recommendations[0].Type)
}

func TestAnalyzeAllDeterministic(t *testing.T) {
	first, err := New(baselineTable(), 5).AnalyzeAll(context.Background())
	require.NoError(t, err)
	second, err := New(baselineTable(), 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestAnalysisResultRoundTripStable(t *testing.T) {
	result, err := New(baselineTable(), 5).AnalyzeAll(context.Background())
	require.NoError(t, err)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	reencoded, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(reencoded))
}
