package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/service"
	"github.com/clae-hq/admissions-api/pkg/response"
)

// TemplateHandler exposes the notification template catalogue.
type TemplateHandler struct {
	service *service.NotificationService
}

// NewTemplateHandler creates a new handler.
func NewTemplateHandler(svc *service.NotificationService) *TemplateHandler {
	return &TemplateHandler{service: svc}
}

// List godoc
// @Summary List notification templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Templates())
}
