package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learning-path-api/internal/models"
	"github.com/noah-isme/learning-path-api/pkg/export"
	"github.com/noah-isme/learning-path-api/pkg/storage"
)

type resultSource interface {
	FindByID(ctx context.Context, id string) (*models.Dataset, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	RenderSections(sections []export.Section) ([]byte, error)
}

type pdfRenderer interface {
	Render(title string, sections []export.Section, chart *export.BarChart) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService flattens analysis results into report documents and persists
// the rendered files behind signed download tokens.
type ExportService struct {
	datasets resultSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(datasets resultSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		datasets: datasets,
		storage:  files,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the report for a job and stores the resulting file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.datasets.FindByID(ctx, job.DatasetID)
	if err != nil {
		return nil, err
	}
	if dataset.Result == nil {
		return nil, fmt.Errorf("dataset %s has no analysis result", dataset.ID)
	}

	title := fmt.Sprintf("Learning Analysis Report: %s", dataset.Name)
	sections := buildReportSections(dataset.Result)

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.RenderSections(sections)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(title, sections, effectivenessChart(dataset.Result))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := buildFilename(dataset, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildFilename(dataset *models.Dataset, format models.ReportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(dataset.Name), dataset.ID[:8], timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "dataset"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(strings.ToLower(raw))
	result = strings.TrimSuffix(result, ".csv")
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func buildReportSections(result *models.AnalysisResult) []export.Section {
	sections := []export.Section{overviewSection(result)}
	if section, ok := topStudentsSection(result); ok {
		sections = append(sections, section)
	}
	if section, ok := effectivenessSection(result); ok {
		sections = append(sections, section)
	}
	if section, ok := timePatternsSection(result); ok {
		sections = append(sections, section)
	}
	if section, ok := recommendationsSection(result); ok {
		sections = append(sections, section)
	}
	return sections
}

func overviewSection(result *models.AnalysisResult) export.Section {
	stats := result.BasicStats
	rows := []map[string]string{
		{"Metric": "Total Activities", "Value": fmt.Sprintf("%d", stats.TotalActivities)},
		{"Metric": "Total Students", "Value": fmt.Sprintf("%d", stats.TotalStudents)},
		{"Metric": "Date Range", "Value": fmt.Sprintf("%s to %s", stats.DateRange.Start, stats.DateRange.End)},
		{"Metric": "Avg Activities per Student", "Value": fmt.Sprintf("%.2f", stats.AvgActivitiesPerStudent)},
	}
	if stats.ScoreStats != nil {
		rows = append(rows,
			map[string]string{"Metric": "Average Score", "Value": fmt.Sprintf("%.2f", stats.ScoreStats.Avg)},
			map[string]string{"Metric": "Highest Score", "Value": fmt.Sprintf("%.2f", stats.ScoreStats.Max)},
			map[string]string{"Metric": "Lowest Score", "Value": fmt.Sprintf("%.2f", stats.ScoreStats.Min)},
			map[string]string{"Metric": "Score Std Dev", "Value": formatOptional(stats.ScoreStats.Std)},
		)
	}
	return export.Section{
		Title: "Overview",
		Data:  export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows},
	}
}

func topStudentsSection(result *models.AnalysisResult) (export.Section, bool) {
	students := result.StudentPerformance.TopStudents
	if len(students) == 0 {
		return export.Section{}, false
	}
	rows := make([]map[string]string, 0, len(students))
	for _, student := range students {
		rows = append(rows, map[string]string{
			"Student ID":    fmt.Sprintf("%d", student.StudentID),
			"Average Score": formatOptional(student.AvgScore),
			"Activities":    fmt.Sprintf("%d", student.ActivityCount),
			"Level":         string(student.PerformanceLevel),
		})
	}
	return export.Section{
		Title: "Top Students",
		Data: export.Dataset{
			Headers: []string{"Student ID", "Average Score", "Activities", "Level"},
			Rows:    rows,
		},
	}, true
}

func effectivenessSection(result *models.AnalysisResult) (export.Section, bool) {
	if len(result.ActivityEffectiveness) == 0 {
		return export.Section{}, false
	}
	rows := make([]map[string]string, 0, len(result.ActivityEffectiveness))
	for _, activity := range result.ActivityEffectiveness {
		rows = append(rows, map[string]string{
			"Activity":      activity.ActivityType,
			"Average Score": fmt.Sprintf("%.2f", activity.AvgScore),
			"Std Dev":       formatOptional(activity.StdScore),
			"Events":        fmt.Sprintf("%d", activity.Count),
			"Rank":          fmt.Sprintf("%d", activity.EffectivenessRank),
		})
	}
	return export.Section{
		Title: "Activity Effectiveness",
		Data: export.Dataset{
			Headers: []string{"Activity", "Average Score", "Std Dev", "Events", "Rank"},
			Rows:    rows,
		},
	}, true
}

func timePatternsSection(result *models.AnalysisResult) (export.Section, bool) {
	patterns := result.TimePatterns
	if len(patterns.WeekdayDistribution) == 0 && patterns.PeakHours == nil {
		return export.Section{}, false
	}
	rows := make([]map[string]string, 0, len(patterns.WeekdayDistribution)+1)
	for _, day := range patterns.WeekdayDistribution {
		rows = append(rows, map[string]string{"Period": day.Day, "Events": fmt.Sprintf("%d", day.Count)})
	}
	if patterns.PeakHours != nil {
		hours := make([]string, 0, len(patterns.PeakHours.Hours))
		for _, hour := range patterns.PeakHours.Hours {
			hours = append(hours, fmt.Sprintf("%d:00", hour))
		}
		rows = append(rows, map[string]string{"Period": "Peak Hours", "Events": strings.Join(hours, ", ")})
	}
	return export.Section{
		Title: "Time Patterns",
		Data:  export.Dataset{Headers: []string{"Period", "Events"}, Rows: rows},
	}, true
}

func recommendationsSection(result *models.AnalysisResult) (export.Section, bool) {
	if len(result.Recommendations) == 0 {
		return export.Section{}, false
	}
	rows := make([]map[string]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		rows = append(rows, map[string]string{
			"Type":        string(rec.Type),
			"Title":       rec.Title,
			"Description": rec.Description,
			"Suggestion":  rec.Suggestion,
		})
	}
	return export.Section{
		Title: "Recommendations",
		Data: export.Dataset{
			Headers: []string{"Type", "Title", "Description", "Suggestion"},
			Rows:    rows,
		},
	}, true
}

func effectivenessChart(result *models.AnalysisResult) *export.BarChart {
	if len(result.ActivityEffectiveness) == 0 {
		return nil
	}
	labels := make([]string, 0, len(result.ActivityEffectiveness))
	values := make([]float64, 0, len(result.ActivityEffectiveness))
	for _, activity := range result.ActivityEffectiveness {
		labels = append(labels, activity.ActivityType)
		values = append(values, activity.AvgScore)
	}
	return &export.BarChart{Title: "Average Score by Activity", Labels: labels, Values: values}
}

func formatOptional(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *value)
}
