// Package analyzer implements the learning-analytics aggregation engine: a set
// of deterministic, pure derivations from an immutable event table to
// statistical summaries, classifications, rankings and recommendations.
package analyzer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

const defaultTopStudents = 5

// Analyzer derives aggregate analytics from a single EventTable. All methods
// are read-only; the same table always produces the same result.
type Analyzer struct {
	table *models.EventTable
	topN  int
}

// New constructs an analyzer over the given table. topStudents bounds the
// ranked student list; values <= 0 fall back to the default of 5.
func New(table *models.EventTable, topStudents int) *Analyzer {
	if topStudents <= 0 {
		topStudents = defaultTopStudents
	}
	return &Analyzer{table: table, topN: topStudents}
}

// AnalyzeAll runs every derivation and assembles the final result. The three
// independent summaries only read the shared table and write disjoint outputs,
// so they run concurrently; the recommendation rules evaluate after the join
// and consume the summaries, never the raw table.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (*models.AnalysisResult, error) {
	if a.table == nil || a.table.Len() == 0 {
		return nil, appErrors.ErrEmptyInput
	}

	result := &models.AnalysisResult{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.BasicStats = a.BasicStats()
		return nil
	})
	g.Go(func() error {
		result.StudentPerformance = a.StudentPerformance()
		return nil
	})
	g.Go(func() error {
		result.ActivityEffectiveness = a.ActivityEffectiveness()
		return nil
	})
	g.Go(func() error {
		result.TimePatterns = a.TimePatterns()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Recommendations = a.Recommendations(result.BasicStats, result.ActivityEffectiveness, result.TimePatterns)
	return result, nil
}
