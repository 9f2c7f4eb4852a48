package models

import "encoding/json"

// PerformanceLevel buckets a student's mean score.
type PerformanceLevel string

const (
	PerformanceLow    PerformanceLevel = "low"
	PerformanceMedium PerformanceLevel = "medium"
	PerformanceHigh   PerformanceLevel = "high"
)

// DateRange bounds the observed activity window, formatted YYYY-MM-DD.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ScoreStats describes the non-null score subset. Std is nil when fewer than
// two scores exist (the sample estimator is undefined for n=1).
type ScoreStats struct {
	Avg float64  `json:"avg"`
	Max float64  `json:"max"`
	Min float64  `json:"min"`
	Std *float64 `json:"std"`
}

// BasicStats is the top-level descriptive summary of an event table.
type BasicStats struct {
	TotalActivities         int         `json:"total_activities"`
	TotalStudents           int         `json:"total_students"`
	DateRange               DateRange   `json:"date_range"`
	AvgActivitiesPerStudent float64     `json:"avg_activities_per_student"`
	ScoreStats              *ScoreStats `json:"score_stats,omitempty"`
}

// StudentSummary aggregates one student's activity. AvgScore is nil when the
// student has no scored events; such students carry no performance level and
// are excluded from rankings.
type StudentSummary struct {
	StudentID        int              `json:"student_id"`
	AvgScore         *float64         `json:"avg_score"`
	ActivityCount    int              `json:"activity_count"`
	PerformanceLevel PerformanceLevel `json:"performance_level,omitempty"`
}

// StudentPerformance groups the per-student derivations. It marshals to an
// empty object when no event in the table carries a score.
type StudentPerformance struct {
	TopStudents              []StudentSummary         `json:"top_students,omitempty"`
	PerformanceDistribution  map[PerformanceLevel]int `json:"performance_distribution,omitempty"`
	CorrelationActivityScore *float64                 `json:"correlation_activity_score,omitempty"`
	// CorrelationDefined distinguishes "correlation is null" from "section
	// omitted"; it is set whenever the section itself is populated.
	CorrelationDefined bool `json:"-"`
}

// MarshalJSON emits an empty object when the score-dependent section is
// unavailable; otherwise every key is present, with a JSON null for an
// undefined correlation.
func (p StudentPerformance) MarshalJSON() ([]byte, error) {
	if len(p.TopStudents) == 0 && len(p.PerformanceDistribution) == 0 && !p.CorrelationDefined {
		return []byte("{}"), nil
	}
	type populated struct {
		TopStudents              []StudentSummary         `json:"top_students"`
		PerformanceDistribution  map[PerformanceLevel]int `json:"performance_distribution"`
		CorrelationActivityScore *float64                 `json:"correlation_activity_score"`
	}
	return json.Marshal(populated{
		TopStudents:              p.TopStudents,
		PerformanceDistribution:  p.PerformanceDistribution,
		CorrelationActivityScore: p.CorrelationActivityScore,
	})
}

// UnmarshalJSON restores the section, marking it populated whenever any key
// was present so re-serialization stays bit-identical.
func (p *StudentPerformance) UnmarshalJSON(data []byte) error {
	type populated struct {
		TopStudents              []StudentSummary         `json:"top_students"`
		PerformanceDistribution  map[PerformanceLevel]int `json:"performance_distribution"`
		CorrelationActivityScore *float64                 `json:"correlation_activity_score"`
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*p = StudentPerformance{}
		return nil
	}
	var decoded populated
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = StudentPerformance{
		TopStudents:              decoded.TopStudents,
		PerformanceDistribution:  decoded.PerformanceDistribution,
		CorrelationActivityScore: decoded.CorrelationActivityScore,
		CorrelationDefined:       true,
	}
	return nil
}

// ActivitySummary aggregates scored events for one activity type.
// EffectivenessRank uses competition ranking: tied means share a rank and the
// next distinct mean skips the tied positions.
type ActivitySummary struct {
	ActivityType      string   `json:"activity_type"`
	AvgScore          float64  `json:"avg_score"`
	Count             int      `json:"count"`
	StdScore          *float64 `json:"std_score"`
	EffectivenessRank int      `json:"effectiveness_rank"`
}

// PeakHours pairs the busiest hours of day with their event counts. The two
// slices are index-aligned and ordered by count descending, hour ascending on
// ties.
type PeakHours struct {
	Hours  []int `json:"hours"`
	Counts []int `json:"counts"`
}

// WeekdayCount is one fixed-domain histogram bucket.
type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TimePatterns captures temporal usage. WeekdayDistribution always holds the
// seven canonical weekday names Monday through Sunday, zero-filled.
type TimePatterns struct {
	PeakHours           *PeakHours     `json:"peak_hours,omitempty"`
	WeekdayDistribution []WeekdayCount `json:"weekday_distribution,omitempty"`
}

// RecommendationType labels the rule that produced a recommendation.
type RecommendationType string

const (
	RecommendationActivity RecommendationType = "activity"
	RecommendationTime     RecommendationType = "time"
	RecommendationGeneral  RecommendationType = "general"
)

// Recommendation is one advisory record. The sequence order is the fixed rule
// evaluation order and must not be re-sorted downstream.
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Suggestion  string             `json:"suggestion"`
}

// AnalysisResult is the full serializable output of one engine run.
type AnalysisResult struct {
	BasicStats            BasicStats         `json:"basic_stats"`
	StudentPerformance    StudentPerformance `json:"student_performance"`
	ActivityEffectiveness []ActivitySummary  `json:"activity_effectiveness"`
	TimePatterns          TimePatterns       `json:"time_patterns"`
	Recommendations       []Recommendation   `json:"recommendations"`
}
