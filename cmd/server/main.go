package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/riocapital/blog-api/internal/api"
	"github.com/riocapital/blog-api/internal/cache"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/oauth"
	"github.com/riocapital/blog-api/internal/payments/stripe"
	"github.com/riocapital/blog-api/internal/ratelimit"
	"github.com/riocapital/blog-api/internal/render"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/riocapital/blog-api/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back all migrations and exit")
	flag.Parse()

	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting RioCapital blog API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Format == "pretty")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrateDown {
		if err := db.MigrateDown(cfg.Server.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
		log.Info().Msg("Migrations rolled back")
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Caches. Rendered HTML is keyed by article revision and does not expire.
	htmlCache, err := cache.New[string](cfg.Cache.Size, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create render cache")
	}
	categoryCache, err := cache.New[[]*models.Category](1, cfg.Cache.CategoryTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create category cache")
	}

	deps := service.Dependencies{
		Renderer:      render.New(htmlCache),
		CategoryCache: categoryCache,
	}

	// Optional integrations
	if cfg.Payments.StripeSecretKey != "" {
		provider, err := stripe.NewProvider(cfg.Payments.StripeSecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure Stripe")
		}
		deps.Payments = provider
		log.Info().Msg("Stripe checkout enabled")
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, hosted checkout disabled")
	}
	if cfg.OAuth.Enabled() {
		deps.Identity = oauth.NewGoogle(cfg.OAuth)
		log.Info().Msg("Google sign-in enabled")
	}

	var limiter *ratelimit.Limiter
	rdb, err := ratelimit.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure Redis")
	}
	if rdb != nil {
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.RateLimit.Window, ratelimit.FailOpen, log)
	} else if cfg.RateLimit.Enabled {
		log.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, deps, log)

	// Start background donation reconciler
	go services.Reconciler.StartProcessor(context.Background())
	log.Info().Msg("Donation reconciler started")

	// Initialize router
	router := api.NewRouter(services, cfg, api.Options{Limiter: limiter, Health: db}, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Env).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	services.Reconciler.StopProcessor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
