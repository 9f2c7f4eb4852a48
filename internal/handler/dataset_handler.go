package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learning-path-api/internal/middleware"
	"github.com/noah-isme/learning-path-api/internal/service"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
	"github.com/noah-isme/learning-path-api/pkg/response"
)

// DatasetHandler exposes dataset upload and analysis endpoints.
type DatasetHandler struct {
	analysis    *service.AnalysisService
	maxFileSize int64
}

// NewDatasetHandler constructs DatasetHandler.
func NewDatasetHandler(analysis *service.AnalysisService, maxFileSize int64) *DatasetHandler {
	if maxFileSize <= 0 {
		maxFileSize = 16 << 20
	}
	return &DatasetHandler{analysis: analysis, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload an activity log
// @Description Parse and analyze a CSV activity log in one step
// @Tags Datasets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV activity log"
// @Param name formData string false "Dataset name"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /datasets [post]
func (h *DatasetHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxFileSize)))
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	dataset, err := h.analysis.Upload(c.Request.Context(), name, file, operatorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dataset)
}

// List godoc
// @Summary List datasets
// @Tags Datasets
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /datasets [get]
func (h *DatasetHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	datasets, pagination, err := h.analysis.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, datasets, pagination)
}

// Get godoc
// @Summary Dataset metadata
// @Tags Datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id} [get]
func (h *DatasetHandler) Get(c *gin.Context) {
	dataset, err := h.analysis.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dataset, nil)
}

// Analysis godoc
// @Summary Full analysis result
// @Description Descriptive statistics, performance, effectiveness, time patterns and recommendations
// @Tags Datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id}/analysis [get]
func (h *DatasetHandler) Analysis(c *gin.Context) {
	result, cacheHit, err := h.analysis.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Chart godoc
// @Summary Rendered analysis chart
// @Description PNG chart; name is one of score_distribution, activity_effectiveness, time_patterns
// @Tags Datasets
// @Produce png
// @Param id path string true "Dataset ID"
// @Param name path string true "Chart name"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id}/charts/{name} [get]
func (h *DatasetHandler) Chart(c *gin.Context) {
	png, err := h.analysis.RenderChart(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Delete godoc
// @Summary Delete dataset
// @Tags Datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 204 {object} nil
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id} [delete]
func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.analysis.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
