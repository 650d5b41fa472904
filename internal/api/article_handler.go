package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

const defaultArticlesPerPage = 12

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "articles").Logger(),
	}
}

// articleFilter reads the list filters from the query string.
// month is ignored unless year is set.
func articleFilter(c *gin.Context) *models.ArticleFilter {
	f := &models.ArticleFilter{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Search:       strings.TrimSpace(c.Query("q")),
		Year:         queryInt(c, "year"),
		Page:         pageFromQuery(c, defaultArticlesPerPage),
	}
	if f.Year > 0 {
		if m := queryInt(c, "month"); m >= 1 && m <= 12 {
			f.Month = m
		}
	} else {
		f.Year = 0
	}
	if id, err := strconv.ParseInt(c.Query("author_id"), 10, 64); err == nil && id > 0 {
		f.AuthorID = id
	}
	if id, err := strconv.ParseInt(c.Query("exclude_id"), 10, 64); err == nil && id > 0 {
		f.ExcludeID = id
	}
	if v, err := strconv.ParseBool(c.Query("featured")); err == nil {
		f.Featured = &v
	}
	return f
}

// List handles GET /articles
func (h *ArticleHandler) List(c *gin.Context) {
	filter := articleFilter(c)
	articles, pagination, err := h.services.Article.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"articles": articles, "pagination": pagination})
}

// FilterOptions handles GET /articles/filters
func (h *ArticleHandler) FilterOptions(c *gin.Context) {
	opts, err := h.services.Article.FilterOptions(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"filters": opts})
}

// ListMine handles GET /articles/mine
func (h *ArticleHandler) ListMine(c *gin.Context) {
	articles, pagination, err := h.services.Article.ListMine(c.Request.Context(), principal(c), pageFromQuery(c, defaultArticlesPerPage))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"articles": articles, "pagination": pagination})
}

// Get handles GET /articles/:id where the parameter is an id or a slug
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"article": article})
}

// Create handles POST /articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var in models.ArticleInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), principal(c), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Article created", gin.H{"article": article})
}

// Update handles PUT /articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var in models.ArticleUpdate
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), principal(c), id, &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article updated", gin.H{"article": article})
}

// Delete handles DELETE /articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.services.Article.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article deleted", nil)
}

// Stats handles GET /articles/:id/stats
func (h *ArticleHandler) Stats(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	stats, err := h.services.Article.Stats(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"stats": stats})
}
