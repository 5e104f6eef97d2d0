package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/service"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/response"
)

// ApplicationHandler serves the staff dashboard application views.
type ApplicationHandler struct {
	service *service.ApplicationService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService, exports *service.ExportService, metrics *service.MetricsService) *ApplicationHandler {
	return &ApplicationHandler{service: svc, exports: exports, metrics: metrics}
}

func listFilter(c *gin.Context) models.ApplicationFilter {
	return models.ApplicationFilter{
		SchoolID: c.Query("school_id"),
		Status:   models.ApplicationStatus(c.Query("status")),
		Search:   c.Query("search"),
	}
}

// List godoc
// @Summary List applications
// @Description Tenant-scoped application listing with status and search filters
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param search query string false "Student name or tracking code"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.service.List(c.Request.Context(), claimsFromContext(c), listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps)
}

// Get godoc
// @Summary Get one application
// @Description Full application record with documents and audit trail
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// Act godoc
// @Summary Update application status or notes
// @Description Applies a status transition and/or internal note update with audit entries
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body service.ApplicationActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/action [post]
func (h *ApplicationHandler) Act(c *gin.Context) {
	var req service.ApplicationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}

	app, err := h.service.Act(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Status != "" {
		h.metrics.RecordStatusChange(req.Status)
	}
	response.JSON(c, http.StatusOK, app)
}

// Export godoc
// @Summary Export applications
// @Description Download the filtered application listing as CSV or PDF
// @Tags Applications
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	file, err := h.exports.Applications(c.Request.Context(), claimsFromContext(c), listFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
