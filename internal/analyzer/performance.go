package analyzer

import (
	"sort"

	"github.com/noah-isme/learning-path-api/internal/models"
)

// StudentPerformance aggregates events per student, classifies each student
// into a performance tier and correlates activity volume with mean score.
// When no event in the table carries a score the whole section is empty.
func (a *Analyzer) StudentPerformance() models.StudentPerformance {
	if !a.table.HasScore() {
		return models.StudentPerformance{}
	}

	summaries := a.studentSummaries()

	classified := make([]models.StudentSummary, 0, len(summaries))
	distribution := make(map[models.PerformanceLevel]int)
	for _, s := range summaries {
		if s.PerformanceLevel == "" {
			continue
		}
		classified = append(classified, s)
		distribution[s.PerformanceLevel]++
	}

	scored := make([]models.StudentSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.AvgScore != nil {
			scored = append(scored, s)
		}
	}
	// Stable sort keeps first-appearance order between equal means.
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].AvgScore > *scored[j].AvgScore
	})
	if len(scored) > a.topN {
		scored = scored[:a.topN]
	}

	xs := make([]float64, 0, len(classified))
	ys := make([]float64, 0, len(classified))
	for _, s := range classified {
		xs = append(xs, float64(s.ActivityCount))
		ys = append(ys, *s.AvgScore)
	}

	return models.StudentPerformance{
		TopStudents:              scored,
		PerformanceDistribution:  distribution,
		CorrelationActivityScore: pearson(xs, ys),
		CorrelationDefined:       true,
	}
}

// studentSummaries folds the table per student in first-appearance order.
// Activity counts include unscored events; means use only non-null scores.
func (a *Analyzer) studentSummaries() []models.StudentSummary {
	order := make([]int, 0)
	counts := make(map[int]int)
	scores := make(map[int][]float64)
	for _, ev := range a.table.Events() {
		if _, seen := counts[ev.StudentID]; !seen {
			order = append(order, ev.StudentID)
		}
		counts[ev.StudentID]++
		if ev.Score != nil {
			scores[ev.StudentID] = append(scores[ev.StudentID], *ev.Score)
		}
	}

	summaries := make([]models.StudentSummary, 0, len(order))
	for _, id := range order {
		summary := models.StudentSummary{
			StudentID:     id,
			ActivityCount: counts[id],
		}
		if studentScores := scores[id]; len(studentScores) > 0 {
			avg := mean(studentScores)
			summary.AvgScore = &avg
			summary.PerformanceLevel = classify(avg)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// classify bins a mean score into a tier using half-open intervals:
// (0,60] low, (60,80] medium, (80,100] high. Means of exactly zero or outside
// (0,100] stay unclassified.
func classify(avg float64) models.PerformanceLevel {
	switch {
	case avg > 0 && avg <= 60:
		return models.PerformanceLow
	case avg > 60 && avg <= 80:
		return models.PerformanceMedium
	case avg > 80 && avg <= 100:
		return models.PerformanceHigh
	default:
		return ""
	}
}
