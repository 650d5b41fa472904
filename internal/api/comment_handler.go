package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	defaultCommentsPerPage   = 20
	defaultModerationPerPage = 50
)

// CommentHandler handles comment and moderation endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

// List handles GET /comments?article_id=
func (h *CommentHandler) List(c *gin.Context) {
	articleID, err := strconv.ParseInt(c.Query("article_id"), 10, 64)
	if err != nil || articleID <= 0 {
		writeError(c, h.log, models.NewValidationError("article_id is required"))
		return
	}

	comments, pagination, err := h.services.Comment.List(c.Request.Context(), principal(c), articleID, pageFromQuery(c, defaultCommentsPerPage))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"comments": comments, "pagination": pagination})
}

// Create handles POST /comments
func (h *CommentHandler) Create(c *gin.Context) {
	var in models.CommentInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(), principal(c), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Comment submitted for moderation", gin.H{"comment": comment})
}

// Update handles PUT /comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	comment, err := h.services.Comment.Update(c.Request.Context(), principal(c), id, req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Comment updated and awaiting moderation", gin.H{"comment": comment})
}

// Delete handles DELETE /comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.services.Comment.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Comment deleted", nil)
}

// Report handles POST /comments/:id/report
func (h *CommentHandler) Report(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.services.Comment.Report(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Comment reported", nil)
}

// ModerationQueue handles GET /comments/moderate
func (h *CommentHandler) ModerationQueue(c *gin.Context) {
	comments, pagination, err := h.services.Comment.ModerationQueue(c.Request.Context(), c.Query("status"), pageFromQuery(c, defaultModerationPerPage))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"comments": comments, "pagination": pagination})
}

// Moderate handles PATCH /comments/:id/moderate
func (h *CommentHandler) Moderate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req models.ModerationRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	comment, err := h.services.Comment.Moderate(c.Request.Context(), id, req.Action, req.Reason)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().
		Int64("comment_id", id).
		Str("action", string(req.Action)).
		Int64("moderator_id", principal(c).UserID).
		Msg("Comment moderated")

	respond(c, http.StatusOK, fmt.Sprintf("Comment %s", pastTense(req.Action)), gin.H{"comment": comment})
}

// BulkModerate handles PATCH /comments/moderate-bulk
func (h *CommentHandler) BulkModerate(c *gin.Context) {
	var req models.ModerationRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	res, err := h.services.Comment.BulkModerate(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().
		Int("requested", res.Requested).
		Int("affected", res.Affected).
		Str("action", string(req.Action)).
		Int64("moderator_id", principal(c).UserID).
		Msg("Comments moderated in bulk")

	respond(c, http.StatusOK, fmt.Sprintf("%d comments %s", res.Affected, pastTense(req.Action)), gin.H{
		"requested": res.Requested,
		"affected":  res.Affected,
		"status":    res.Status,
	})
}

func pastTense(a models.ModerationAction) string {
	switch a {
	case models.ActionApprove:
		return "approved"
	case models.ActionReject:
		return "rejected"
	default:
		return "deleted"
	}
}
