package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

const defaultDonationsPerPage = 50

// DonationHandler handles donation, checkout and reporting endpoints
type DonationHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(services *service.Services, log zerolog.Logger) *DonationHandler {
	return &DonationHandler{
		services: services,
		log:      log.With().Str("handler", "donations").Logger(),
	}
}

// Create handles POST /donations
func (h *DonationHandler) Create(c *gin.Context) {
	var in models.DonationInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	donation, err := h.services.Donation.Create(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Thank you for your donation", gin.H{"donation": donation})
}

// Checkout handles POST /donations/checkout
func (h *DonationHandler) Checkout(c *gin.Context) {
	var in models.DonationInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	res, err := h.services.Donation.Checkout(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Checkout session created", gin.H{
		"donation_id":  res.DonationID,
		"session_id":   res.SessionID,
		"checkout_url": res.CheckoutURL,
	})
}

// ConfirmCheckout handles GET /donations/checkout/:session_id
func (h *DonationHandler) ConfirmCheckout(c *gin.Context) {
	donation, err := h.services.Donation.ConfirmCheckout(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	message := "Payment not completed yet"
	if donation.Status == models.DonationCompleted {
		message = "Thank you for your donation"
	}
	respond(c, http.StatusOK, message, gin.H{"donation": donation})
}

// List handles GET /donations/list
func (h *DonationHandler) List(c *gin.Context) {
	donations, pagination, err := h.services.Donation.List(c.Request.Context(), c.Query("status"), pageFromQuery(c, defaultDonationsPerPage))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"donations": donations, "pagination": pagination})
}

// Stats handles GET /donations/stats
func (h *DonationHandler) Stats(c *gin.Context) {
	stats, err := h.services.Donation.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"stats": stats})
}

// Recent handles GET /donations/recent
func (h *DonationHandler) Recent(c *gin.Context) {
	recent, err := h.services.Donation.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"donations": recent})
}

// Export handles GET /donations/export?format=csv
// Streams the export directly to the response
func (h *DonationHandler) Export(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	if format != "csv" {
		writeError(c, h.log, models.NewValidationError("unsupported format: "+format+", only csv is available"))
		return
	}

	filename := fmt.Sprintf("donations_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)

	if err := h.services.Donation.Export(c.Request.Context(), c.Writer, format); err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Msg("Donations export failed")
	}
}

// Refund handles POST /donations/:id/refund
func (h *DonationHandler) Refund(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	donation, err := h.services.Donation.Refund(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Int64("donation_id", id).Int64("admin_id", principal(c).UserID).Msg("Donation refunded")
	respond(c, http.StatusOK, "Donation refunded", gin.H{"donation": donation})
}
