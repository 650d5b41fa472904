package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// ContactHandler accepts contact form submissions. Messages are logged only.
type ContactHandler struct {
	validator *validation.Validator
	log       zerolog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(log zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "contact").Logger(),
	}
}

// Submit handles POST /contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var msg models.ContactMessage
	if err := bindJSON(c, &msg); err != nil {
		writeError(c, h.log, err)
		return
	}
	msg.Email = strings.TrimSpace(msg.Email)
	if errs := h.validator.ValidateContact(&msg); len(errs) > 0 {
		writeError(c, h.log, validation.ToAppError(errs))
		return
	}

	h.log.Info().
		Str("name", msg.Name).
		Str("email", msg.Email).
		Str("subject", msg.Subject).
		Int("message_length", len(msg.Message)).
		Msg("Contact message received")

	respond(c, http.StatusOK, "Message sent", gin.H{
		"received_at": time.Now().Format(time.RFC3339),
	})
}
