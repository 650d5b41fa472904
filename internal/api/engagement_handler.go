package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

// EngagementHandler handles likes, favorites and shares
type EngagementHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(services *service.Services, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		services: services,
		log:      log.With().Str("handler", "engagement").Logger(),
	}
}

// ToggleLike handles POST /articles/:id/like
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res, err := h.services.Engagement.ToggleLike(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	message := "Like removed"
	if res.Liked {
		message = "Article liked"
	}
	respond(c, http.StatusOK, message, gin.H{"liked": res.Liked, "likes_count": res.LikesCount})
}

// ToggleFavorite handles POST /articles/:id/favorite
func (h *EngagementHandler) ToggleFavorite(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res, err := h.services.Engagement.ToggleFavorite(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	message := "Removed from favorites"
	if res.Favorited {
		message = "Added to favorites"
	}
	respond(c, http.StatusOK, message, gin.H{"favorited": res.Favorited})
}

// Favorites handles GET /favorites
func (h *EngagementHandler) Favorites(c *gin.Context) {
	favorites, err := h.services.Engagement.Favorites(c.Request.Context(), principal(c), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"favorites": favorites})
}

// Engagement handles GET /articles/:id/engagement
func (h *EngagementHandler) Engagement(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	e, err := h.services.Engagement.Engagement(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"liked": e.Liked, "favorited": e.Favorited, "likes_count": e.LikesCount})
}

// Share handles POST /articles/:id/share. Anonymous callers may share.
func (h *EngagementHandler) Share(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Platform string `json:"platform"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	share, err := h.services.Engagement.Share(c.Request.Context(), principal(c), id, req.Platform, c.ClientIP())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Share recorded", gin.H{"share": share})
}
