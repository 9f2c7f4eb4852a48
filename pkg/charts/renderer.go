// Package charts renders analysis results into PNG bar charts. It consumes
// only the final result structure, never the raw event table.
package charts

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/noah-isme/learning-path-api/internal/models"
)

// Chart names accepted by Render.
const (
	ChartScoreDistribution     = "score_distribution"
	ChartActivityEffectiveness = "activity_effectiveness"
	ChartTimePatterns          = "time_patterns"
)

// Names lists every renderable chart.
var Names = []string{ChartScoreDistribution, ChartActivityEffectiveness, ChartTimePatterns}

type bar struct {
	label      string
	value      float64
	annotation string
}

// Renderer draws fixed-size PNG charts.
type Renderer struct {
	width  int
	height int
}

// NewRenderer constructs a renderer; non-positive dimensions pick defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 540
	}
	return &Renderer{width: width, height: height}
}

// Render dispatches by chart name. It returns an error when the requested
// chart's underlying section is empty (for example score charts of an
// all-null-score dataset).
func (r *Renderer) Render(name string, result *models.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("nil analysis result")
	}
	switch name {
	case ChartScoreDistribution:
		return r.ScoreDistribution(result)
	case ChartActivityEffectiveness:
		return r.ActivityEffectiveness(result)
	case ChartTimePatterns:
		return r.TimePatterns(result)
	default:
		return nil, fmt.Errorf("unknown chart %q", name)
	}
}

// ScoreDistribution plots the number of students per performance tier.
func (r *Renderer) ScoreDistribution(result *models.AnalysisResult) ([]byte, error) {
	distribution := result.StudentPerformance.PerformanceDistribution
	if len(distribution) == 0 {
		return nil, fmt.Errorf("no performance distribution to plot")
	}

	bars := make([]bar, 0, 3)
	for _, level := range []models.PerformanceLevel{models.PerformanceLow, models.PerformanceMedium, models.PerformanceHigh} {
		if count, ok := distribution[level]; ok {
			bars = append(bars, bar{label: string(level), value: float64(count), annotation: fmt.Sprintf("%d", count)})
		}
	}

	dc := r.newCanvas()
	drawBarPanel(dc, "Students by performance level", bars, 0, 0, float64(r.width), float64(r.height))
	return encode(dc)
}

// ActivityEffectiveness plots mean score per activity type annotated with the
// scored sample size.
func (r *Renderer) ActivityEffectiveness(result *models.AnalysisResult) ([]byte, error) {
	if len(result.ActivityEffectiveness) == 0 {
		return nil, fmt.Errorf("no activity effectiveness to plot")
	}

	bars := make([]bar, 0, len(result.ActivityEffectiveness))
	for _, summary := range result.ActivityEffectiveness {
		bars = append(bars, bar{
			label:      summary.ActivityType,
			value:      summary.AvgScore,
			annotation: fmt.Sprintf("n=%d", summary.Count),
		})
	}

	dc := r.newCanvas()
	drawBarPanel(dc, "Activity type effectiveness", bars, 0, 0, float64(r.width), float64(r.height))
	return encode(dc)
}

// TimePatterns plots the weekday histogram and, when available, the peak-hour
// counts side by side.
func (r *Renderer) TimePatterns(result *models.AnalysisResult) ([]byte, error) {
	patterns := result.TimePatterns
	if len(patterns.WeekdayDistribution) == 0 && patterns.PeakHours == nil {
		return nil, fmt.Errorf("no time patterns to plot")
	}

	dc := r.newCanvas()
	halfWidth := float64(r.width) / 2

	if len(patterns.WeekdayDistribution) > 0 {
		bars := make([]bar, 0, len(patterns.WeekdayDistribution))
		for _, entry := range patterns.WeekdayDistribution {
			bars = append(bars, bar{label: entry.Day[:3], value: float64(entry.Count), annotation: fmt.Sprintf("%d", entry.Count)})
		}
		drawBarPanel(dc, "Activity by weekday", bars, 0, 0, halfWidth, float64(r.height))
	}

	if patterns.PeakHours != nil && len(patterns.PeakHours.Hours) > 0 {
		bars := make([]bar, 0, len(patterns.PeakHours.Hours))
		for i, hour := range patterns.PeakHours.Hours {
			bars = append(bars, bar{
				label:      fmt.Sprintf("%d:00", hour),
				value:      float64(patterns.PeakHours.Counts[i]),
				annotation: fmt.Sprintf("%d", patterns.PeakHours.Counts[i]),
			})
		}
		drawBarPanel(dc, "Peak activity hours", bars, halfWidth, 0, halfWidth, float64(r.height))
	}

	return encode(dc)
}

func (r *Renderer) newCanvas() *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

// drawBarPanel renders a titled bar group into the given canvas region.
func drawBarPanel(dc *gg.Context, title string, bars []bar, x, y, width, height float64) {
	const margin = 48.0
	plotX := x + margin
	plotY := y + margin
	plotWidth := width - 2*margin
	plotHeight := height - 2*margin

	dc.SetRGB(0.15, 0.15, 0.15)
	dc.DrawStringAnchored(title, x+width/2, y+margin/2, 0.5, 0.5)

	maxValue := 0.0
	for _, b := range bars {
		if b.value > maxValue {
			maxValue = b.value
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	// Axes.
	dc.SetLineWidth(1)
	dc.DrawLine(plotX, plotY, plotX, plotY+plotHeight)
	dc.DrawLine(plotX, plotY+plotHeight, plotX+plotWidth, plotY+plotHeight)
	dc.Stroke()

	slot := plotWidth / float64(len(bars))
	barWidth := slot * 0.6
	for i, b := range bars {
		barHeight := (b.value / maxValue) * (plotHeight - 20)
		barX := plotX + float64(i)*slot + (slot-barWidth)/2
		barY := plotY + plotHeight - barHeight

		dc.SetRGB(0.26, 0.47, 0.71)
		dc.DrawRectangle(barX, barY, barWidth, barHeight)
		dc.Fill()

		dc.SetRGB(0.15, 0.15, 0.15)
		if b.annotation != "" {
			dc.DrawStringAnchored(b.annotation, barX+barWidth/2, barY-8, 0.5, 0.5)
		}
		dc.DrawStringAnchored(b.label, barX+barWidth/2, plotY+plotHeight+12, 0.5, 0.5)
	}
}

func encode(dc *gg.Context) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := dc.EncodePNG(buf); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}
