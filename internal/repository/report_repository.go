package repository

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/learning-path-api/internal/models"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
)

// ReportRepository tracks report jobs in memory.
type ReportRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.ReportJob
}

// NewReportRepository constructs an empty job store.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{jobs: make(map[string]*models.ReportJob)}
}

// Create registers a new job.
func (r *ReportRepository) Create(_ context.Context, job *models.ReportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return appErrors.Clone(appErrors.ErrConflict, "report job already exists")
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

// FindByID returns a copy of the job or ErrNotFound.
func (r *ReportRepository) FindByID(_ context.Context, id string) (*models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	copied := *job
	return &copied, nil
}

// UpdateStatus transitions a job's lifecycle state.
func (r *ReportRepository) UpdateStatus(_ context.Context, id string, status models.ReportStatus, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	job.Status = status
	job.Progress = progress
	return nil
}

// MarkFinished records a successful result URL.
func (r *ReportRepository) MarkFinished(_ context.Context, id, resultURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	now := time.Now().UTC()
	job.Status = models.ReportStatusFinished
	job.Progress = 100
	job.ResultURL = &resultURL
	job.FinishedAt = &now
	return nil
}

// MarkFailed records a terminal failure.
func (r *ReportRepository) MarkFailed(_ context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	now := time.Now().UTC()
	job.Status = models.ReportStatusFailed
	job.ErrorMessage = &message
	job.FinishedAt = &now
	return nil
}
