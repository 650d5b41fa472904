package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

// room for multipart boundaries and part headers on top of the file itself
const multipartOverhead = 64 << 10

// UploadHandler handles image uploads
type UploadHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(services *service.Services, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		services: services,
		log:      log.With().Str("handler", "upload").Logger(),
	}
}

// Image handles POST /upload/image with a multipart "image" field
func (h *UploadHandler) Image(c *gin.Context) {
	limit := h.services.Upload.MaxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, h.log, models.NewValidationError(fmt.Sprintf("file too large (max %dMB)", limit/(1024*1024))))
			return
		}
		writeError(c, h.log, models.NewValidationError("no file uploaded"))
		return
	}
	defer file.Close()

	result, err := h.services.Upload.SaveImage(c.Request.Context(), file)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("original_name", header.Filename).
		Str("filename", result.Filename).
		Int64("user_id", principal(c).UserID).
		Msg("Image uploaded")

	respond(c, http.StatusCreated, "Image uploaded", gin.H{
		"url":      result.URL,
		"filename": result.Filename,
		"width":    result.Width,
		"height":   result.Height,
		"size":     result.Size,
	})
}
