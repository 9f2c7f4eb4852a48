package analyzer

import (
	"sort"

	"github.com/noah-isme/learning-path-api/internal/models"
)

// weekdayOrder is the canonical fixed histogram domain.
var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

const peakHourLimit = 3

// TimePatterns derives hour-of-day and day-of-week usage. Each sub-analysis is
// skipped independently when its derived column is unavailable on the table.
func (a *Analyzer) TimePatterns() models.TimePatterns {
	patterns := models.TimePatterns{}
	if a.table.HasHour() {
		patterns.PeakHours = a.peakHours()
	}
	if a.table.HasDayOfWeek() {
		patterns.WeekdayDistribution = a.weekdayDistribution()
	}
	return patterns
}

// peakHours returns the up-to-three busiest hours ordered by count descending,
// lower hour first on ties. Hours and counts stay index-aligned.
func (a *Analyzer) peakHours() *models.PeakHours {
	var counts [24]int
	for _, ev := range a.table.Events() {
		if ev.Hour != nil && *ev.Hour >= 0 && *ev.Hour < 24 {
			counts[*ev.Hour]++
		}
	}

	observed := make([]int, 0, 24)
	for hour := 0; hour < 24; hour++ {
		if counts[hour] > 0 {
			observed = append(observed, hour)
		}
	}
	sort.SliceStable(observed, func(i, j int) bool {
		if counts[observed[i]] != counts[observed[j]] {
			return counts[observed[i]] > counts[observed[j]]
		}
		return observed[i] < observed[j]
	})
	if len(observed) > peakHourLimit {
		observed = observed[:peakHourLimit]
	}

	peaks := &models.PeakHours{
		Hours:  make([]int, 0, len(observed)),
		Counts: make([]int, 0, len(observed)),
	}
	for _, hour := range observed {
		peaks.Hours = append(peaks.Hours, hour)
		peaks.Counts = append(peaks.Counts, counts[hour])
	}
	return peaks
}

// weekdayDistribution is a complete fixed-domain histogram: always seven
// entries, Monday through Sunday, zero-filled for inactive days.
func (a *Analyzer) weekdayDistribution() []models.WeekdayCount {
	counts := make(map[string]int, len(weekdayOrder))
	for _, ev := range a.table.Events() {
		counts[ev.DayOfWeek]++
	}

	distribution := make([]models.WeekdayCount, 0, len(weekdayOrder))
	for _, day := range weekdayOrder {
		distribution = append(distribution, models.WeekdayCount{Day: day, Count: counts[day]})
	}
	return distribution
}
