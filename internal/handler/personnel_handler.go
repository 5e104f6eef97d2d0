package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/service"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/response"
)

// PersonnelHandler manages staff accounts.
type PersonnelHandler struct {
	service *service.PersonnelService
}

// NewPersonnelHandler creates a new handler.
func NewPersonnelHandler(svc *service.PersonnelService) *PersonnelHandler {
	return &PersonnelHandler{service: svc}
}

// List godoc
// @Summary List staff accounts
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /personnel [get]
func (h *PersonnelHandler) List(c *gin.Context) {
	admins, err := h.service.List(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins)
}

// Create godoc
// @Summary Create a staff account
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /personnel [post]
func (h *PersonnelHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	admin, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Delete godoc
// @Summary Delete a staff account
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Admin ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /personnel/{id} [delete]
func (h *PersonnelHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
