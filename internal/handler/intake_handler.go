package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/service"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/response"
)

// IntakeHandler serves the public enrollment submission endpoint.
type IntakeHandler struct {
	service *service.IntakeService
	metrics *service.MetricsService
}

// NewIntakeHandler creates a new handler.
func NewIntakeHandler(svc *service.IntakeService, metrics *service.MetricsService) *IntakeHandler {
	return &IntakeHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit an enrollment application
// @Description Public endpoint accepting the enrollment form, returning the tracking code
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body service.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/applications [post]
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	app, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSubmission()
	response.Created(c, gin.H{
		"id":            app.ID,
		"tracking_code": app.TrackingCode,
		"status":        app.Status,
	})
}
