package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/events"
	"ridehail/internal/handler"
	"ridehail/internal/logger"
	"ridehail/internal/maps"
	"ridehail/internal/middleware"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
)

const serviceName = "ride-service"

func main() {
	dotEnvErr := config.LoadDotEnv()
	cfg := config.Load()
	log := logger.New(serviceName, cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)

	if dotEnvErr != nil {
		log.Warn("ignoring .env file", "error", dotEnvErr)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic goes first so the database and Redis clients can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", "error", err)
			nrApp = nil
		} else {
			log.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info("connected to Redis", "addr", cfg.Redis.Addr)

	routes, err := maps.NewRouteService(cfg.Maps.APIKey)
	if err != nil {
		log.Error("failed to create route oracle", "error", err)
		os.Exit(1)
	}

	var publisher service.Publisher = events.NewLogPublisher(log)
	if cfg.Events.Enabled {
		amqpPublisher, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			log.Error("failed to connect to event broker", "error", err)
			os.Exit(1)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info("publishing ride events", "exchange", cfg.Events.Exchange)
	}

	server := wireServer(db, redisClient, nrApp, routes, publisher, log, cfg)

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	routes service.RouteEstimator,
	publisher service.Publisher,
	log *slog.Logger,
	cfg *config.Config,
) *http.Server {
	availabilityStore := internalRedis.NewAvailabilityStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	rideRepo := postgres.NewRideRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	carTypeRepo := postgres.NewCarTypeRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	availability := service.NewAvailabilityGate(driverRepo, availabilityStore, log)
	notificationService := service.NewNotificationService(publisher, log)
	paymentService := service.NewPaymentService(paymentRepo, service.NewOfflinePSP())
	rideService := service.NewRideService(
		rideRepo,
		carTypeRepo,
		vehicleRepo,
		driverRepo,
		availability,
		lockStore,
		paymentService,
		service.NewTimeBoundEstimator(routes, cfg.Maps.RouteTimeout),
		notificationService,
		log,
	)
	matchingService := service.NewMatchingService(rideRepo, vehicleRepo, availability)
	driverService := service.NewDriverService(driverRepo, vehicleRepo)
	catalogService := service.NewCatalogService(carTypeRepo)

	router := app.NewRouter(app.RouterDeps{
		RideHandler:      handler.NewRideHandler(rideService),
		DriverHandler:    handler.NewDriverHandler(driverService, rideService, matchingService),
		CarTypeHandler:   handler.NewCarTypeHandler(catalogService),
		IdempotencyStore: middleware.NewRedisIdempotencyStore(redisClient),
		NewRelicApp:      nrApp,
		JWTSecret:        []byte(cfg.Auth.JWTSecret),
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		Logger:           log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
