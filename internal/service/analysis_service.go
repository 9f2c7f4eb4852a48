package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/learning-path-api/internal/analyzer"
	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

type datasetStore interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	FindByID(ctx context.Context, id string) (*models.Dataset, error)
	List(ctx context.Context, page, pageSize int) ([]*models.Dataset, int, error)
	Delete(ctx context.Context, id string) error
}

type logParser interface {
	Parse(r io.Reader) (*models.EventTable, error)
}

type chartRenderer interface {
	Render(name string, result *models.AnalysisResult) ([]byte, error)
}

// AnalysisConfig tunes engine behaviour.
type AnalysisConfig struct {
	CacheTTL    time.Duration
	TopStudents int
}

// AnalysisService owns the ingest-analyze pipeline: it parses uploaded
// activity logs, runs the full derivation set and keeps results addressable
// by dataset id.
type AnalysisService struct {
	repo    datasetStore
	parser  logParser
	charts  chartRenderer
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     AnalysisConfig
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(repo datasetStore, parser logParser, charts chartRenderer, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AnalysisConfig) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.TopStudents <= 0 {
		cfg.TopStudents = 5
	}
	return &AnalysisService{
		repo:    repo,
		parser:  parser,
		charts:  charts,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Upload parses an activity log, runs the analysis and registers the dataset.
func (s *AnalysisService) Upload(ctx context.Context, name string, r io.Reader, uploadedBy string) (*models.Dataset, error) {
	start := time.Now()
	table, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveAnalysisStage("parse", time.Since(start))
		s.metrics.ObserveDatasetRows(table.Len())
	}

	start = time.Now()
	result, err := analyzer.New(table, s.cfg.TopStudents).AnalyzeAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveAnalysisStage("analyze", time.Since(start))
	}

	dataset := &models.Dataset{
		ID:           uuid.NewString(),
		Name:         name,
		RowCount:     table.Len(),
		StudentCount: table.StudentCount(),
		UploadedBy:   uploadedBy,
		CreatedAt:    time.Now().UTC(),
		Table:        table,
		Result:       result,
	}
	if err := s.repo.Create(ctx, dataset); err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, analysisCacheKey(dataset.ID), result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to prime analysis cache", zap.String("dataset_id", dataset.ID), zap.Error(err))
		}
	}

	s.logger.Info("dataset analyzed",
		zap.String("dataset_id", dataset.ID),
		zap.String("name", name),
		zap.Int("rows", dataset.RowCount),
		zap.Int("students", dataset.StudentCount),
	)
	return dataset, nil
}

// Get returns dataset metadata.
func (s *AnalysisService) Get(ctx context.Context, id string) (*models.Dataset, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of datasets, newest first.
func (s *AnalysisService) List(ctx context.Context, page, pageSize int) ([]*models.Dataset, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	datasets, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return datasets, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetAnalysis returns the full analysis result for a dataset. The second
// return value reports whether the payload came from cache.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResult, bool, error) {
	if s.cache.Enabled() {
		var cached models.AnalysisResult
		hit, err := s.cache.Get(ctx, analysisCacheKey(id), &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	dataset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if dataset.Result == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "dataset has no analysis result")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, analysisCacheKey(id), dataset.Result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to refresh analysis cache", zap.String("dataset_id", id), zap.Error(err))
		}
	}
	return dataset.Result, false, nil
}

// RenderChart produces the named PNG chart for a dataset.
func (s *AnalysisService) RenderChart(ctx context.Context, id, name string) ([]byte, error) {
	result, _, err := s.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	png, err := s.charts.Render(name, result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if s.metrics != nil {
		s.metrics.ObserveAnalysisStage("render", time.Since(start))
	}
	return png, nil
}

// Delete removes a dataset and its cached analysis.
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, analysisCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate analysis cache", zap.String("dataset_id", id), zap.Error(err))
	}
	return nil
}

func analysisCacheKey(datasetID string) string {
	return fmt.Sprintf("analysis:%s", datasetID)
}
