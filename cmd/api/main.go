package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"threatdash/internal/api"
	"threatdash/internal/api/handlers"
	apimiddleware "threatdash/internal/api/middleware"
	"threatdash/internal/config"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	grpchealth "threatdash/internal/grpc/health"
	"threatdash/internal/infrastructure/cache"
	"threatdash/internal/infrastructure/storage"
	"threatdash/internal/web"
	"threatdash/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.IsProduction() {
		log = logger.NewProduction()
	} else {
		log = logger.New(logger.Config{
			Level:      cfg.Logger.Level,
			Format:     cfg.Logger.Format,
			TimeFormat: cfg.Logger.TimeFormat,
		})
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Str("storage", cfg.Storage.Backend).
		Msg("starting threat dashboard")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	backend, err := storage.Open(ctx, cfg.Storage, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage backend")
	}
	defer backend.Close()

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		} else {
			defer redisCache.Close()
		}
	}

	// Interfaces below stay nil unless Redis is up; a typed nil pointer would
	// make them non-nil.
	var (
		statsCache services.JSONCache
		revoker    services.TokenRevoker
		limiter    apimiddleware.WindowLimiter
	)
	checks := map[string]handlers.Pinger{"storage": backend}
	grpcChecks := map[string]grpchealth.Pinger{"storage": backend}
	if redisCache != nil {
		statsCache = redisCache
		revoker = redisCache
		limiter = redisCache
		checks["redis"] = redisCache
		grpcChecks["redis"] = redisCache
	}

	// Initialize repositories
	actorRepo := storage.NewRepository[*models.ThreatActor](backend, models.CollectionActors, log)
	indicatorRepo := storage.NewRepository[*models.ThreatIndicator](backend, models.CollectionIndicators, log)
	incidentRepo := storage.NewRepository[*models.Incident](backend, models.CollectionIncidents, log)
	feedRepo := storage.NewRepository[*models.ThreatFeed](backend, models.CollectionFeeds, log)
	userRepo := storage.NewRepository[*models.User](backend, models.CollectionUsers, log)

	// Initialize services
	statsService := services.NewStatsService(actorRepo, indicatorRepo, incidentRepo, feedRepo, statsCache, log)
	opts := services.Options{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		OnChange:     statsService.Invalidate,
	}
	authService := services.NewAuthService(userRepo, services.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.Expiration,
	}, revoker, log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Actors:       services.NewActorService(actorRepo, opts, log),
		Indicators:   services.NewIndicatorService(indicatorRepo, feedRepo, opts, log),
		Incidents:    services.NewIncidentService(incidentRepo, actorRepo, opts, log),
		Feeds:        services.NewFeedService(feedRepo, opts, log),
		Stats:        statsService,
		Auth:         authService,
		Checks:       checks,
		Environment:  cfg.App.Environment,
		Version:      cfg.App.Version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	pages, err := web.New(web.Options{
		AppName:      "ThreatDash",
		GridPageSize: cfg.Pagination.GridLimit,
		PageSize:     10,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load page templates")
	}

	metrics := apimiddleware.NewMetrics("threatdash")
	router := api.NewRouter(cfg, h, authService, limiter, metrics, pages, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC health server
	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gRPC listener")
		}

		grpcServer = grpc.NewServer()
		monitor := grpchealth.NewMonitor(grpcChecks, 0, log)
		monitor.Register(grpcServer)
		go monitor.Run(ctx)

		go func() {
			log.Info().
				Str("addr", grpcListener.Addr().String()).
				Msg("starting gRPC server")
			if err := grpcServer.Serve(grpcListener); err != nil {
				log.Fatal().Err(err).Msg("gRPC server failed")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
