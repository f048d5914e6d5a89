package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/stayhub/availability-service/config"
	"github.com/stayhub/availability-service/internal/cache"
	"github.com/stayhub/availability-service/internal/handlers"
	"github.com/stayhub/availability-service/internal/http/ratelimit"
	"github.com/stayhub/availability-service/internal/middleware"
	"github.com/stayhub/availability-service/internal/policy"
	"github.com/stayhub/availability-service/internal/policyapi"
	"github.com/stayhub/availability-service/internal/quote"
	"github.com/stayhub/availability-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting availability service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry init failed, continuing without")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	var policyCache *cache.PolicyCache
	if cfg.Cache.Enabled {
		policyCache = cache.New(cache.NewRedisClient(), cfg.Cache.TTL)
		if policyCache.Enabled() {
			logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("Policy window cache enabled")
		}
	}

	metrics := quote.NewMetricsRecorder()

	policyClient := policyapi.New(policyapi.Config{
		BaseURL: config.PolicyAPIURL(),
		APIKey:  cfg.PolicyAPI.APIKey,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxRetries:        cfg.RateLimit.MaxRetries,
			InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
			MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
		},
		Breaker: policyapi.DefaultCircuitBreakerConfig(),
	}, policyCache, metrics)

	quoter := quote.NewQuoter(policyClient, quote.Config{
		MaxConcurrentFetches: cfg.Quote.MaxConcurrentFetches,
		FetchTimeout:         cfg.Quote.FetchTimeout,
		DefaultMode:          policy.ParseDisplayMode(cfg.Quote.DefaultDisplayMode),
	}, metrics)

	handlers.InitQuoteService(quoter, policyClient)
	handlers.InitHealth(policyClient, policyCache.Enabled())

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.POST("/quotes", handlers.QuoteRooms)

		rooms := internal.Group("/rooms")
		{
			rooms.GET("/:roomId/policies", handlers.GetRoomPolicies)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "availability-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
