package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-path-api/internal/parser"
	"github.com/noah-isme/learning-path-api/internal/repository"
	"github.com/noah-isme/learning-path-api/internal/service"
	"github.com/noah-isme/learning-path-api/pkg/charts"
)

const sampleLog = `student_id,activity_type,timestamp,score,duration_minutes
1,quiz,2024-01-15 10:30:00,85,12
2,video,2024-01-15 11:00:00,70,30
1,video,2024-01-16 14:20:00,90,25
2,quiz,2024-01-17 09:15:00,80,10
`

func newTestDatasetHandler() *DatasetHandler {
	analysis := service.NewAnalysisService(
		repository.NewDatasetRepository(),
		parser.New(nil),
		charts.NewRenderer(400, 300),
		nil,
		nil,
		nil,
		service.AnalysisConfig{},
	)
	return NewDatasetHandler(analysis, 1<<20)
}

func newGinContext(method, path string, body []byte, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.Request = req
	return c, w
}

func multipartUpload(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes(), writer.FormDataContentType()
}

func uploadDataset(t *testing.T, h *DatasetHandler) string {
	t.Helper()
	body, contentType := multipartUpload(t, "week1.csv", sampleLog)
	c, w := newGinContext(http.MethodPost, "/datasets", body, contentType)

	h.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)
	return envelope.Data.ID
}

func TestDatasetHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()

	body, contentType := multipartUpload(t, "week1.csv", sampleLog)
	c, w := newGinContext(http.MethodPost, "/datasets", body, contentType)

	h.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			Name         string `json:"name"`
			RowCount     int    `json:"row_count"`
			StudentCount int    `json:"student_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "week1.csv", envelope.Data.Name)
	assert.Equal(t, 4, envelope.Data.RowCount)
	assert.Equal(t, 2, envelope.Data.StudentCount)
}

func TestDatasetHandlerUploadMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()

	c, w := newGinContext(http.MethodPost, "/datasets", nil, "multipart/form-data")
	h.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetHandlerUploadSchemaError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()

	body, contentType := multipartUpload(t, "bad.csv", "student_id,timestamp\n1,2024-01-15\n")
	c, w := newGinContext(http.MethodPost, "/datasets", body, contentType)

	h.Upload(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDatasetHandlerAnalysis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()
	id := uploadDataset(t, h)

	c, w := newGinContext(http.MethodGet, "/datasets/"+id+"/analysis", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id}}

	h.Analysis(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			BasicStats struct {
				TotalActivities int `json:"total_activities"`
			} `json:"basic_stats"`
			Recommendations []json.RawMessage `json:"recommendations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data.BasicStats.TotalActivities)
	assert.NotEmpty(t, envelope.Data.Recommendations)
}

func TestDatasetHandlerAnalysisNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()

	c, w := newGinContext(http.MethodGet, "/datasets/missing/analysis", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Analysis(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDatasetHandlerChart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()
	id := uploadDataset(t, h)

	c, w := newGinContext(http.MethodGet, "/datasets/"+id+"/charts/score_distribution", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id}, {Key: "name", Value: "score_distribution"}}

	h.Chart(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Greater(t, w.Body.Len(), 8)
}

func TestDatasetHandlerListAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestDatasetHandler()
	id := uploadDataset(t, h)

	c, w := newGinContext(http.MethodGet, "/datasets", nil, "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			TotalCount int `json:"total_count"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)

	c, w = newGinContext(http.MethodDelete, "/datasets/"+id, nil, "")
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)

	c, w = newGinContext(http.MethodGet, "/datasets/"+id, nil, "")
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
