package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(services *service.Services, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		services: services,
		log:      log.With().Str("handler", "categories").Logger(),
	}
}

// List handles GET /categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.services.Category.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"categories": categories})
}

// Get handles GET /categories/:id where the parameter is an id or a slug
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.services.Category.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"category": category})
}

// Create handles POST /categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var in models.CategoryInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	category, err := h.services.Category.Create(c.Request.Context(), principal(c), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Category created", gin.H{"category": category})
}

// Update handles PUT /categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var in models.CategoryInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	category, err := h.services.Category.Update(c.Request.Context(), id, &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Category updated", gin.H{"category": category})
}

// Delete handles DELETE /categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.services.Category.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted", nil)
}
