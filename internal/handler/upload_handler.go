package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/response"
	"github.com/clae-hq/admissions-api/pkg/storage"
)

// UploadHandler accepts public document and photo uploads, returning the
// stored file URL for inclusion in the enrollment form.
type UploadHandler struct {
	storage  *storage.LocalStorage
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(store *storage.LocalStorage, maxBytes int64, logger *zap.Logger) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{storage: store, maxBytes: maxBytes, logger: logger}
}

// Upload godoc
// @Summary Upload a document or photo
// @Description Stores the file and returns its public URL for the enrollment form
// @Tags Public
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field is required"))
		return
	}
	if header.Size > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close()

	name, url, err := h.storage.SaveUpload(header.Filename, src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	h.logger.Info("file uploaded", zap.String("name", name), zap.Int64("size", header.Size))
	response.JSON(c, http.StatusCreated, gin.H{"name": name, "url": url})
}
