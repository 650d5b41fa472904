package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/rs/zerolog"
)

// respond writes the {success, message, ...payload} envelope
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": status < http.StatusBadRequest, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// errorBody converts err into its status and client-safe envelope.
// Internal failures never leak their cause.
func errorBody(err error) (int, gin.H) {
	status := models.HTTPStatus(err)
	message := "Internal server error"
	if appErr, ok := models.AsAppError(err); ok && status != http.StatusInternalServerError {
		message = appErr.Message
	}
	return status, gin.H{"success": false, "message": message}
}

// writeError responds with err, logging anything that maps to a 5xx
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request failed")
	}
	c.JSON(status, body)
}

func abortWithError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}

// principal returns the caller attached by loadPrincipal, nil when anonymous
func principal(c *gin.Context) *auth.Principal {
	return auth.FromContext(c.Request.Context())
}

// bindJSON decodes the request body into dst
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return models.NewValidationError("invalid request body")
	}
	return nil
}

// paramID parses a positive integer path parameter
func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("invalid " + name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// pageFromQuery reads page/per_page, defaulting and clamping per_page
func pageFromQuery(c *gin.Context, defaultPerPage int) models.Page {
	return models.NewPage(queryInt(c, "page"), queryInt(c, "per_page"), defaultPerPage, models.MaxPerPage)
}
