package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-path-api/internal/dto"
	"github.com/noah-isme/learning-path-api/internal/models"
	"github.com/noah-isme/learning-path-api/internal/parser"
	"github.com/noah-isme/learning-path-api/internal/repository"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
	"github.com/noah-isme/learning-path-api/pkg/jobs"
	"github.com/noah-isme/learning-path-api/pkg/storage"
)

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type failingGenerator struct {
	err error
}

func (g *failingGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return nil, g.err
}

func newReportFixture(t *testing.T) (*ReportService, *repository.ReportRepository, *repository.DatasetRepository, *ExportService, *queueStub, string) {
	t.Helper()
	datasetRepo := repository.NewDatasetRepository()

	svc := NewAnalysisService(datasetRepo, parser.New(nil), nil, nil, nil, nil, AnalysisConfig{})
	dataset, err := svc.Upload(context.Background(), "week1.csv", strings.NewReader(sampleLog), "operator@example.com")
	require.NoError(t, err)

	fileStore, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exporter := NewExportService(datasetRepo, fileStore, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)

	reportRepo := repository.NewReportRepository()
	queue := &queueStub{}
	reports := NewReportService(reportRepo, datasetRepo, queue, exporter, nil, nil, ReportServiceConfig{})
	return reports, reportRepo, datasetRepo, exporter, queue, dataset.ID
}

func TestReportServiceCreateJob(t *testing.T) {
	reports, repo, _, _, queue, datasetID := newReportFixture(t)

	resp, err := reports.CreateJob(context.Background(), dto.ReportRequest{
		DatasetID: datasetID,
		Format:    models.ReportFormatCSV,
	}, "operator@example.com")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Zero(t, resp.Progress)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)

	stored, err := repo.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, datasetID, stored.DatasetID)
	assert.Equal(t, "operator@example.com", stored.CreatedBy)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	reports, _, _, _, _, datasetID := newReportFixture(t)
	ctx := context.Background()

	_, err := reports.CreateJob(ctx, dto.ReportRequest{DatasetID: datasetID, Format: "xlsx"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = reports.CreateJob(ctx, dto.ReportRequest{DatasetID: "6b1e0b1e-0000-4000-8000-000000000000", Format: models.ReportFormatCSV}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	reports, _, _, _, queue, datasetID := newReportFixture(t)
	queue.err = errors.New("queue closed")

	_, err := reports.CreateJob(context.Background(), dto.ReportRequest{
		DatasetID: datasetID,
		Format:    models.ReportFormatCSV,
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestReportWorkerFinishesJob(t *testing.T) {
	reports, repo, _, exporter, _, datasetID := newReportFixture(t)
	ctx := context.Background()

	resp, err := reports.CreateJob(ctx, dto.ReportRequest{DatasetID: datasetID, Format: models.ReportFormatCSV}, "")
	require.NoError(t, err)

	worker := NewReportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: resp.ID}))

	status, err := reports.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/v1/export/"))
}

func TestReportWorkerRetriesThenFails(t *testing.T) {
	reports, repo, _, _, _, datasetID := newReportFixture(t)
	ctx := context.Background()

	resp, err := reports.CreateJob(ctx, dto.ReportRequest{DatasetID: datasetID, Format: models.ReportFormatPDF}, "")
	require.NoError(t, err)

	worker := NewReportWorker(repo, &failingGenerator{err: errors.New("boom")}, 2, nil)

	// Attempts below the retry limit requeue the job.
	require.Error(t, worker.Handle(ctx, jobs.Job{ID: resp.ID, Attempt: 0}))
	status, err := reports.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)

	// The final attempt marks the job failed.
	require.Error(t, worker.Handle(ctx, jobs.Job{ID: resp.ID, Attempt: 2}))
	status, err = reports.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "boom", *status.Error)
}

func TestReportServiceResolveDownload(t *testing.T) {
	reports, repo, _, exporter, _, datasetID := newReportFixture(t)
	ctx := context.Background()

	resp, err := reports.CreateJob(ctx, dto.ReportRequest{DatasetID: datasetID, Format: models.ReportFormatCSV}, "")
	require.NoError(t, err)

	worker := NewReportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: resp.ID}))

	status, err := reports.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, status.ResultURL)
	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]

	download, err := reports.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, models.ReportFormatCSV, download.Format)
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Overview")
	assert.Contains(t, string(content), "Total Activities")
}

func TestReportServiceResolveDownloadRejectsBadToken(t *testing.T) {
	reports, _, _, _, _, _ := newReportFixture(t)

	_, err := reports.ResolveDownload(context.Background(), "bogus-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
