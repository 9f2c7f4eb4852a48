package analyzer

import (
	"github.com/noah-isme/learning-path-api/internal/models"
)

const dateLayout = "2006-01-02"

// BasicStats computes the descriptive summary of the whole table. The score
// subsection only exists when at least one row carries a score and is computed
// over the non-null subset.
func (a *Analyzer) BasicStats() models.BasicStats {
	events := a.table.Events()

	minTS, maxTS := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.Before(minTS) {
			minTS = ev.Timestamp
		}
		if ev.Timestamp.After(maxTS) {
			maxTS = ev.Timestamp
		}
	}

	students := a.table.StudentCount()
	stats := models.BasicStats{
		TotalActivities: a.table.Len(),
		TotalStudents:   students,
		DateRange: models.DateRange{
			Start: minTS.Format(dateLayout),
			End:   maxTS.Format(dateLayout),
		},
		AvgActivitiesPerStudent: float64(a.table.Len()) / float64(students),
	}

	if a.table.HasScore() {
		stats.ScoreStats = scoreStats(events)
	}
	return stats
}

func scoreStats(events []models.ActivityEvent) *models.ScoreStats {
	scores := make([]float64, 0, len(events))
	for _, ev := range events {
		if ev.Score != nil {
			scores = append(scores, *ev.Score)
		}
	}
	if len(scores) == 0 {
		return nil
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	return &models.ScoreStats{
		Avg: mean(scores),
		Max: maxScore,
		Min: minScore,
		Std: sampleStd(scores),
	}
}

// ActivityEffectiveness groups scored events by activity type, in first-seen
// order, and ranks the groups by mean score descending using competition
// ranking: tied means share a rank and the following distinct mean skips the
// tied positions. Returns an empty slice when no row has a score.
func (a *Analyzer) ActivityEffectiveness() []models.ActivitySummary {
	summaries := make([]models.ActivitySummary, 0)
	if !a.table.HasScore() {
		return summaries
	}

	order := make([]string, 0)
	grouped := make(map[string][]float64)
	for _, ev := range a.table.Events() {
		if ev.Score == nil {
			continue
		}
		if _, seen := grouped[ev.ActivityType]; !seen {
			order = append(order, ev.ActivityType)
		}
		grouped[ev.ActivityType] = append(grouped[ev.ActivityType], *ev.Score)
	}

	for _, activity := range order {
		scores := grouped[activity]
		summaries = append(summaries, models.ActivitySummary{
			ActivityType: activity,
			AvgScore:     mean(scores),
			Count:        len(scores),
			StdScore:     sampleStd(scores),
		})
	}

	for i := range summaries {
		rank := 1
		for j := range summaries {
			if summaries[j].AvgScore > summaries[i].AvgScore {
				rank++
			}
		}
		summaries[i].EffectivenessRank = rank
	}
	return summaries
}
