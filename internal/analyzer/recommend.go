package analyzer

import (
	"fmt"
	"strings"

	"github.com/noah-isme/learning-path-api/internal/models"
)

// lowScoreThreshold triggers the third advisory rule when the cohort average
// falls strictly below it.
const lowScoreThreshold = 70.0

// Recommendations evaluates the three advisory rules in fixed order, each
// appending zero or one record. It consumes only the derived summaries, never
// the raw event table, and the output order is part of the contract.
func (a *Analyzer) Recommendations(stats models.BasicStats, effectiveness []models.ActivitySummary, patterns models.TimePatterns) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0, 3)

	if best := bestActivity(effectiveness); best != nil {
		recommendations = append(recommendations, models.Recommendation{
			Type:        models.RecommendationActivity,
			Title:       "Effective activities",
			Description: fmt.Sprintf("Activity %q shows the strongest results", best.ActivityType),
			Suggestion:  "Dedicate more time to this type of activity",
		})
	}

	if patterns.PeakHours != nil && len(patterns.PeakHours.Hours) > 0 {
		recommendations = append(recommendations, models.Recommendation{
			Type:        models.RecommendationTime,
			Title:       "Best time for studying",
			Description: fmt.Sprintf("Most productive hours: %s", formatHours(patterns.PeakHours.Hours)),
			Suggestion:  "Schedule study sessions at these times",
		})
	}

	if stats.ScoreStats != nil && stats.ScoreStats.Avg < lowScoreThreshold {
		recommendations = append(recommendations, models.Recommendation{
			Type:        models.RecommendationGeneral,
			Title:       "Improving performance",
			Description: fmt.Sprintf("The average score (%.1f) is below the recommended level", stats.ScoreStats.Avg),
			Suggestion:  "Increase preparation time for assignments",
		})
	}

	return recommendations
}

// bestActivity picks the activity with the single highest mean score; the
// first entry wins on exact ties because iteration preserves insertion order.
func bestActivity(effectiveness []models.ActivitySummary) *models.ActivitySummary {
	if len(effectiveness) == 0 {
		return nil
	}
	best := &effectiveness[0]
	for i := 1; i < len(effectiveness); i++ {
		if effectiveness[i].AvgScore > best.AvgScore {
			best = &effectiveness[i]
		}
	}
	return best
}

func formatHours(hours []int) string {
	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%d:00", h))
	}
	return strings.Join(parts, ", ")
}
