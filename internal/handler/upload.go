package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"saultochat/internal/pkg/storage"
	"saultochat/internal/service"
)

// UploadHandler standalone file upload and download endpoints.
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores a file ahead of a chat message.
// @Summary      Upload a file
// @Description  Validates the extension and size, stores the file, and returns its stored name
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "file to upload"
// @Success      200   {object}  model.UploadResponse
// @Failure      400   {object}  model.ErrorResponse
// @Router       /api/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file part in request", err.Error())
		return
	}

	resp, err := h.uploadService.StoreStandalone(c.Request.Context(), header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyFilename):
			badRequest(c, "No selected file", "")
		case errors.Is(err, service.ErrTypeNotAllowed):
			badRequest(c, "File type not allowed", "")
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		default:
			internalError(c, "Failed to store file", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Download serves a stored file.
// @Summary      Download a stored file
// @Tags         upload
// @Produce      octet-stream
// @Param        filename  path  string  true  "stored filename"
// @Success      200  {file}    file
// @Failure      404  {object}  model.ErrorResponse
// @Router       /api/uploads/{filename} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	key := c.Param("filename")
	reader, info, err := h.uploadService.Open(c.Request.Context(), key)
	if err != nil {
		if storage.IsNotFound(err) {
			notFound(c, "File not found")
			return
		}
		internalError(c, "Failed to read file", err)
		return
	}
	defer reader.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(key))
	c.DataFromReader(http.StatusOK, info.Size, contentType, reader, nil)
}
