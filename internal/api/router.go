package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/ratelimit"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options carries the optional collaborators of the router
type Options struct {
	// Limiter throttles write endpoints; nil disables rate limiting
	Limiter *ratelimit.Limiter
	// Health is pinged by GET /health; nil reports healthy
	Health HealthChecker
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, opts Options, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(cfg.Session.Name, store))
	router.Use(loadPrincipal(services.Auth, log))

	limiter := opts.Limiter
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}
	limits := cfg.RateLimit

	// Handlers
	authHandler := NewAuthHandler(services, log)
	articleHandler := NewArticleHandler(services, log)
	engagementHandler := NewEngagementHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	donationHandler := NewDonationHandler(services, log)
	newsletterHandler := NewNewsletterHandler(services, log)
	categoryHandler := NewCategoryHandler(services, log)
	uploadHandler := NewUploadHandler(services, log)
	contactHandler := NewContactHandler(log)

	// Operational endpoints
	router.GET("/health", healthCheck(opts.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Upload.Dir != "" && cfg.Upload.PublicPrefix != "" {
		router.Static(cfg.Upload.PublicPrefix, cfg.Upload.Dir)
	}

	writers := requireRoles(auth.RoleCollaborator, auth.RoleAdmin)
	admins := requireRoles(auth.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", rateLimit(limiter, "login", limits.LoginPerWindow), authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth(), authHandler.Me)
			authGroup.POST("/change-password", requireAuth(), authHandler.ChangePassword)
			authGroup.GET("/google/login", authHandler.GoogleLogin)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)
			authGroup.POST("/complete-profile", requireAuth(), authHandler.CompleteProfile)
		}

		users := v1.Group("/users")
		{
			users.PUT("/me", requireAuth(), authHandler.UpdateProfile)
			users.GET("", admins, authHandler.ListUsers)
			users.PATCH("/:id/role", admins, authHandler.SetRole)
			users.PATCH("/:id/active", admins, authHandler.SetActive)
		}

		articles := v1.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/filters", articleHandler.FilterOptions)
			articles.GET("/mine", writers, articleHandler.ListMine)
			articles.GET("/:id", articleHandler.Get)
			articles.POST("", writers, articleHandler.Create)
			articles.PUT("/:id", writers, articleHandler.Update)
			articles.DELETE("/:id", writers, articleHandler.Delete)
			articles.GET("/:id/stats", requireAuth(), articleHandler.Stats)

			articles.POST("/:id/like", requireAuth(), engagementHandler.ToggleLike)
			articles.POST("/:id/favorite", requireAuth(), engagementHandler.ToggleFavorite)
			articles.GET("/:id/engagement", requireAuth(), engagementHandler.Engagement)
			articles.POST("/:id/share", engagementHandler.Share)
		}
		v1.GET("/favorites", requireAuth(), engagementHandler.Favorites)

		comments := v1.Group("/comments")
		{
			comments.GET("", commentHandler.List)
			comments.POST("", requireAuth(), rateLimit(limiter, "comments", limits.CommentsPerWindow), commentHandler.Create)
			comments.PUT("/:id", requireAuth(), commentHandler.Update)
			comments.DELETE("/:id", requireAuth(), commentHandler.Delete)
			comments.POST("/:id/report", requireAuth(), commentHandler.Report)
			comments.GET("/moderate", admins, commentHandler.ModerationQueue)
			comments.PATCH("/moderate-bulk", admins, commentHandler.BulkModerate)
			comments.PATCH("/:id/moderate", admins, commentHandler.Moderate)
		}

		donations := v1.Group("/donations")
		{
			donations.POST("", rateLimit(limiter, "donations", limits.DonationsPerWindow), donationHandler.Create)
			donations.POST("/checkout", rateLimit(limiter, "checkout", limits.DonationsPerWindow), donationHandler.Checkout)
			donations.GET("/checkout/:session_id", donationHandler.ConfirmCheckout)
			donations.GET("/recent", donationHandler.Recent)
			donations.GET("/list", admins, donationHandler.List)
			donations.GET("/stats", admins, donationHandler.Stats)
			donations.GET("/export", admins, donationHandler.Export)
			donations.POST("/:id/refund", admins, donationHandler.Refund)
		}

		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("/subscribe", rateLimit(limiter, "subscribe", limits.SubscribePerWindow), newsletterHandler.Subscribe)
			newsletter.POST("/unsubscribe", newsletterHandler.Unsubscribe)
			newsletter.GET("/subscribers", admins, newsletterHandler.List)
			newsletter.POST("/import", admins, newsletterHandler.Import)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
			categories.POST("", writers, categoryHandler.Create)
			categories.PUT("/:id", writers, categoryHandler.Update)
			categories.DELETE("/:id", writers, categoryHandler.Delete)
		}

		v1.POST("/upload/image", writers, uploadHandler.Image)
		v1.POST("/contact", contactHandler.Submit)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := checker.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"success":   code == http.StatusOK,
			"message":   "service is " + status,
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "blog-api",
		})
	}
}
