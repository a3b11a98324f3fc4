package main

import (
	"context"
	"errors"
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
	"golang.org/x/sync/errgroup"

	"github.com/farewatch/fare-service/config"
	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/handlers"
	"github.com/farewatch/fare-service/internal/middleware"
	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/sweepers"
	"github.com/farewatch/fare-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting fare service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init telemetry")
	}

	// The database is optional: without it searches are not persisted
	var store pipeline.Store
	if dbURL := config.GetDatabaseURL(); dbURL != "" {
		if err := database.Connect(ctx, database.PoolConfig{
			URL:             dbURL,
			MaxConns:        cfg.Database.MaxConnections,
			MinConns:        cfg.Database.MinConnections,
			ConnMaxLifetime: cfg.Database.MaxConnLifetime,
			ConnMaxIdleTime: cfg.Database.MaxConnIdleTime,
		}); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create schema")
		}
		store = database.PoolStore{}
		logger.Info().Msg("Database connected")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, runs will not be persisted")
	}

	deps := handlers.Deps{
		URLBuilder:   pipeline.URLBuilderFromConfig(cfg.Search),
		Parser:       pipeline.ParserFromConfig(cfg.Search, logger),
		Placeholders: cfg.Aggregate.Placeholders,
		Logger:       logger,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Render.Endpoint != "" {
		opts, err := pipeline.OptionsFromConfig(cfg, store, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure pipeline")
		}
		runner, err := pipeline.NewRunner(opts)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create pipeline runner")
		}
		deps.Runner = runner

		if opts.Cache != nil && opts.Cache.MaxAge() > 0 {
			sweeper := sweepers.NewPageCacheSweeper(opts.Cache, logger, opts.Cache.MaxAge())
			g.Go(func() error {
				sweeper.Start(gctx)
				return nil
			})
		}
	} else {
		logger.Warn().Msg("Render endpoint not set, search is disabled")
	}
	handlers.Init(deps)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limiter *middleware.IPRateLimiter
	if cfg.Server.RequestsPerMinute > 0 {
		limiter = middleware.NewIPRateLimiter(middleware.PerMinute(cfg.Server.RequestsPerMinute))
		g.Go(func() error {
			limiter.Run(gctx, 5*time.Minute)
			return nil
		})
	}

	api := router.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware(cfg.Server.APIKey))
	api.Use(middleware.RateLimitMiddleware(limiter))
	{
		api.POST("/queries", handlers.BuildQuery)
		api.POST("/parse", handlers.ParseText)
		api.POST("/search", handlers.Search)

		aggregate := api.Group("/aggregate")
		{
			aggregate.POST("/prices", handlers.AggregatePrices)
			aggregate.POST("/best-dates", handlers.AggregateBestDates)
		}

		runs := api.Group("/runs")
		{
			runs.GET("", handlers.ListRuns)
			runs.GET("/:runId", handlers.GetRun)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server forced to shutdown")
		}
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to flush telemetry")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		database.Close()
		os.Exit(1)
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

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "fare-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
