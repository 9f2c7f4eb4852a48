package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-path-api/internal/models"
)

func TestReportRepositoryLifecycle(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	job := &models.ReportJob{
		ID:        "job-1",
		DatasetID: "ds-1",
		Format:    models.ReportFormatCSV,
		Status:    models.ReportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.UpdateStatus(ctx, "job-1", models.ReportStatusProcessing, 10))
	found, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusProcessing, found.Status)
	assert.Equal(t, 10, found.Progress)

	require.NoError(t, repo.MarkFinished(ctx, "job-1", "/api/v1/export/token"))
	finished, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, finished.Status)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.ResultURL)
	assert.Equal(t, "/api/v1/export/token", *finished.ResultURL)
	assert.NotNil(t, finished.FinishedAt)
}

func TestReportRepositoryMarkFailed(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}))
	require.NoError(t, repo.MarkFailed(ctx, "job-1", "render exploded"))

	job, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render exploded", *job.ErrorMessage)
}

func TestReportRepositoryReturnsCopies(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}))

	first, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	first.Status = models.ReportStatusFailed

	second, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, second.Status)
}
