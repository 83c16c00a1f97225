package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/application"
	"github.com/wayfarer-travel/service-companion/internal/clock"
	"github.com/wayfarer-travel/service-companion/internal/config"
	"github.com/wayfarer-travel/service-companion/internal/domain/navigation"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
	"github.com/wayfarer-travel/service-companion/internal/events"
	"github.com/wayfarer-travel/service-companion/internal/handler"
	"github.com/wayfarer-travel/service-companion/internal/observability"
	"github.com/wayfarer-travel/service-companion/internal/platform/auth"
	"github.com/wayfarer-travel/service-companion/internal/platform/database"
	"github.com/wayfarer-travel/service-companion/internal/platform/kafka"
	"github.com/wayfarer-travel/service-companion/internal/platform/logger"
	"github.com/wayfarer-travel/service-companion/internal/platform/middleware"
	"github.com/wayfarer-travel/service-companion/internal/repository"
)

const serviceName = "service-companion"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("zone_source", cfg.ZoneSource.Kind),
		zap.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewEngineCollector(registry)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Zone source
	provider, catalogue, err := buildZoneSource(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize zone source", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize application services
	engineClock := clock.NewReal()
	safetyService := application.NewSafetyService(provider, engineClock, application.SafetyConfig{
		HaloMultiplier:  cfg.Engine.HaloMultiplier,
		AlertTTL:        cfg.Engine.AlertTTL,
		RefreshDistance: refreshDistance(cfg),
		Topic:           cfg.Kafka.SafetyTopic,
		Fallback:        cfg.FallbackPosition,
	}, publisher, metrics, log)
	defer safetyService.Close()

	navigationService := application.NewNavigationService(
		navigation.NewStaticRouteResolver(),
		engineClock,
		navigation.SimulatorConfig{
			TickPeriod:        cfg.Engine.TickPeriod,
			ProgressIncrement: cfg.Engine.ProgressIncrement,
			FloorPulse:        cfg.Engine.FloorPulse,
		},
		cfg.Kafka.NavigationTopic,
		publisher,
		metrics,
		log,
	)
	defer navigationService.Close()

	// Initialize and start position consumer in a goroutine
	if cfg.Kafka.Enabled {
		groupID := cfg.Kafka.GroupPrefix + "companion-service"
		positionConsumer := events.NewPositionConsumer(
			cfg.Kafka.Brokers,
			groupID,
			cfg.Kafka.PositionsTopic,
			safetyService,
			log,
		)
		defer func() { _ = positionConsumer.Close() }()

		go func() {
			log.Info("starting position event consumer", zap.String("topic", cfg.Kafka.PositionsTopic))
			if err := positionConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("position event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	handler.NewHealthHandler(serviceName, registry, safetyService, navigationService).RegisterRoutes(router)

	// Register routes
	handler.NewSafetyHandler(safetyService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewNavigationHandler(navigationService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Register admin handler routes
	if catalogue != nil {
		catalogService := application.NewZoneCatalogService(catalogue, log)
		handler.NewAdminZoneHandler(catalogService).RegisterRoutes(&router.RouterGroup, jwtManager)
	} else {
		log.Info("zone catalogue admin disabled for the static zone source")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// buildZoneSource returns the provider feeding safety sessions and, for
// sources backed by a catalogue, the repository the admin API edits.
func buildZoneSource(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) (zone.Provider, zone.Repository, error) {
	switch cfg.ZoneSource.Kind {
	case config.ZoneSourceDatabase:
		db, err := database.Connect(cfg.DB, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrate(&repository.ZoneModel{}); err != nil {
			return nil, nil, fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed")

		repo := repository.NewGormZoneRepository(db, cfg.Engine.ZoneSearchRadius, cfg.Engine.HaloMultiplier)
		if cfg.ZoneSource.SeedFile != "" {
			data, err := os.ReadFile(cfg.ZoneSource.SeedFile)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read zone seed file: %w", err)
			}
			result, err := application.NewZoneCatalogService(repo, log).Seed(ctx, data)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to seed zone catalogue: %w", err)
			}
			for _, r := range result.Rejected {
				log.Warn("seed zone rejected", zap.String("zone_id", r.ZoneID), zap.String("reason", r.Reason))
			}
		}
		return repo, repo, nil

	case config.ZoneSourceGeoJSON:
		src, rejected, err := repository.LoadGeoJSONZoneSource(cfg.ZoneSource.GeoJSONPath, cfg.Engine.ZoneSearchRadius, cfg.Engine.HaloMultiplier)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range rejected {
			log.Warn("catalogue zone rejected", zap.String("zone_id", r.Zone.ID), zap.Error(r.Err))
		}
		return src, src, nil

	default:
		return zone.NewStaticGenerator(), nil, nil
	}
}

// refreshDistance is how far a traveler may drift before their zone set is
// refetched. The static generator places zones relative to the first fix,
// so refetching it would only move every zone along with the traveler.
func refreshDistance(cfg *config.ServiceConfig) float64 {
	if cfg.ZoneSource.Kind == config.ZoneSourceStatic || cfg.Engine.ZoneSearchRadius <= 0 {
		return 0
	}
	return cfg.Engine.ZoneSearchRadius / 2
}
