// Package main is the entrypoint for the Carousel Cutter API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carouselcutter/carouselcutter/internal/billing"
	"github.com/carouselcutter/carouselcutter/internal/cache"
	"github.com/carouselcutter/carouselcutter/internal/config"
	"github.com/carouselcutter/carouselcutter/internal/handler"
	"github.com/carouselcutter/carouselcutter/internal/metrics"
	"github.com/carouselcutter/carouselcutter/internal/middleware"
	"github.com/carouselcutter/carouselcutter/internal/packaging"
	"github.com/carouselcutter/carouselcutter/internal/repository"
	"github.com/carouselcutter/carouselcutter/internal/server"
	"github.com/carouselcutter/carouselcutter/internal/service"
	"github.com/carouselcutter/carouselcutter/internal/storage"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Initialize object storage
	objectStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		logger.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to object storage", "bucket", cfg.MinioBucket)

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	carouselService := service.NewCarouselService(repo, cacheClient, metricsRecorder)
	imageService := service.NewImageService(objectStore, metricsRecorder)
	packager := packaging.NewPackager(repo, metricsRecorder)

	prices := billing.PriceTable{
		Monthly: cfg.BillingPriceMonthly,
		Yearly:  cfg.BillingPriceYearly,
	}
	billingClient := billing.NewClient(billing.ClientConfig{
		APIBase:    cfg.BillingAPIBase,
		SecretKey:  cfg.BillingSecretKey,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	})
	billingService := billing.NewService(repo, billingClient, prices, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient, objectStore)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	carouselHandler := handler.NewCarouselHandler(carouselService, packager, logger)
	generateHandler := handler.NewGenerateHandler(logger)
	imageHandler := handler.NewImageHandler(imageService, logger)
	billingHandler := handler.NewBillingHandler(billingService, cfg.BillingWebhookSecret, metricsRecorder, logger)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		metrics:  metricsHandler,
		carousel: carouselHandler,
		generate: generateHandler,
		image:    imageHandler,
		billing:  billingHandler,
		repo:     repo,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	carousel *handler.CarouselHandler
	generate *handler.GenerateHandler
	image    *handler.ImageHandler
	billing  *handler.BillingHandler
	repo     *repository.Repository
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	// Public carousel view (no auth required)
	r.Get("/carousels/{id}/public", deps.carousel.Public)

	// Payment provider webhook. Signature-verified; never behind API auth.
	r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/webhook", deps.billing.Webhook)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Repository: deps.repo,
		Cache:      deps.cache,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Route("/carousels", func(r chi.Router) {
			r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))
			r.Get("/", deps.carousel.List)
			r.Post("/", deps.carousel.Create)
			r.Get("/{id}", deps.carousel.Get)
			r.Put("/{id}", deps.carousel.Update)
			r.Delete("/{id}", deps.carousel.Delete)
			r.Get("/{id}/download", deps.carousel.Download)
		})

		r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).
			Post("/generate-carousel", deps.generate.Generate)

		// Multipart uploads carry their own size cap.
		r.Post("/image-processor", deps.image.Process)

		r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).
			Post("/checkout", deps.billing.Checkout)
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
