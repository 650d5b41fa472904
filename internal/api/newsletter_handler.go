package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	defaultSubscribersPerPage = 50
	maxImportFileSize         = 5 << 20
)

// NewsletterHandler handles subscription and import endpoints
type NewsletterHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewNewsletterHandler creates a new NewsletterHandler
func NewNewsletterHandler(services *service.Services, log zerolog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		services: services,
		log:      log.With().Str("handler", "newsletter").Logger(),
	}
}

// Subscribe handles POST /newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var in models.SubscribeInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	sub, outcome, err := h.services.Newsletter.Subscribe(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	switch outcome {
	case models.SubscriptionCreated:
		respond(c, http.StatusCreated, "Subscription successful", gin.H{"subscriber": sub})
	case models.SubscriptionReactivated:
		respond(c, http.StatusOK, "Subscription reactivated", gin.H{"subscriber": sub})
	default:
		respond(c, http.StatusOK, "Email already subscribed", nil)
	}
}

// Unsubscribe handles POST /newsletter/unsubscribe
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(c, h.log, models.NewValidationError("email is required"))
		return
	}

	if err := h.services.Newsletter.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Unsubscribed", nil)
}

// List handles GET /newsletter/subscribers
func (h *NewsletterHandler) List(c *gin.Context) {
	active := true
	if v, err := strconv.ParseBool(c.Query("active")); err == nil {
		active = v
	}

	subs, pagination, err := h.services.Newsletter.List(c.Request.Context(), active, pageFromQuery(c, defaultSubscribersPerPage))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"subscribers": subs, "pagination": pagination})
}

// Import handles POST /newsletter/import
// Accepts a multipart CSV upload with an email column
func (h *NewsletterHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		writeError(c, h.log, models.NewValidationError("file upload is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		writeError(c, h.log, models.NewValidationError("file too large, max size is 5 MB"))
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
		writeError(c, h.log, models.NewValidationError("subscriber import requires a CSV file"))
		return
	}

	result, err := h.services.Newsletter.Import(c.Request.Context(), file)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Subscriber import finished")

	respond(c, http.StatusOK, "Import completed", gin.H{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
	})
}
