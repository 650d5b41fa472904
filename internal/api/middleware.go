package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/ratelimit"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	requestIDKey      = "request_id"
	requestIDHeader   = "X-Request-ID"
	sessionUserID     = "user_id"
	sessionOAuthState = "oauth_state"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(requestIDKey)).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates or assigns a request id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests and records their metrics
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, c.FullPath(), statusCode, start)

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS. Credentials are allowed, so a wildcard origin
// is only echoed back for listed origins.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	allowAll := false
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		} else if o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// loadPrincipal resolves the session user into a request principal.
// Sessions of missing or disabled accounts are cleared.
func loadPrincipal(users service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserID).(int64)
		if !ok {
			c.Next()
			return
		}

		user, err := users.ActiveUser(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load session user")
			c.Next()
			return
		}
		if user == nil {
			session.Clear()
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Msg("Failed to clear stale session")
			}
			c.Next()
			return
		}

		role, ok := auth.ParseRole(user.Role)
		if !ok {
			role = auth.RoleReader
		}
		p := &auth.Principal{UserID: user.ID, Username: user.Username, Role: role}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// requireRoles admits principals holding one of roles. No roles means any
// authenticated principal.
func requireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch auth.Authorize(principal(c), roles...) {
		case auth.Unauthenticated:
			abortWithError(c, models.NewAuthenticationError("authentication required"))
		case auth.Forbidden:
			abortWithError(c, models.NewPermissionError("insufficient permissions"))
		default:
			c.Next()
		}
	}
}

func requireAuth() gin.HandlerFunc {
	return requireRoles()
}

// rateLimit counts requests per principal, or per client IP for anonymous
// callers, against a fixed window on route
func rateLimit(limiter *ratelimit.Limiter, route string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := "ip:" + c.ClientIP()
		if p := principal(c); p != nil {
			id = fmt.Sprintf("user:%d", p.UserID)
		}
		if !limiter.Allow(c.Request.Context(), route, id, limit) {
			metrics.RateLimited.WithLabelValues(route).Inc()
			abortWithError(c, &models.AppError{Code: models.CodeRateLimited, Message: "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
