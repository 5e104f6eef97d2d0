package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/service"
	"github.com/clae-hq/admissions-api/pkg/response"
)

// TrackingHandler serves the public status lookup endpoint.
type TrackingHandler struct {
	service *service.TrackingService
}

// NewTrackingHandler creates a new handler.
func NewTrackingHandler(svc *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: svc}
}

// Lookup godoc
// @Summary Track an application
// @Description Look up application status by tracking code or parent phone number
// @Tags Public
// @Produce json
// @Param query query string true "Tracking code or phone number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/track [get]
func (h *TrackingHandler) Lookup(c *gin.Context) {
	result, err := h.service.Lookup(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
