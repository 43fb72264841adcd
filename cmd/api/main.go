package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/servicedesk-backend/api/routes"
	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/internal/auth"
	"github.com/angelmondragon/servicedesk-backend/internal/bookings"
	"github.com/angelmondragon/servicedesk-backend/internal/catalog"
	"github.com/angelmondragon/servicedesk-backend/internal/notifications"
	"github.com/angelmondragon/servicedesk-backend/internal/requests"
	"github.com/angelmondragon/servicedesk-backend/internal/users"
	"github.com/angelmondragon/servicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/servicedesk-backend/pkg/migrate"
	"github.com/angelmondragon/servicedesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "servicedesk-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "servicedesk-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	ipcrClient, err := ipcr.NewClient(cfg.IPCR.BaseURL, ipcr.WithTimeout(cfg.IPCR.Timeout))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycle := metrics.NewLifecycleMetrics(registry)

	deps, err := wire(cfg, logg, dbClient, redisClient, sessionManager, ipcrClient, lifecycle)
	if err != nil {
		return err
	}
	deps.Gatherer = registry

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// wire builds every domain service on top of the shared clients.
func wire(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions *session.Manager,
	ipcrClient *ipcr.Client,
	lifecycle *metrics.LifecycleMetrics,
) (routes.Deps, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	assignmentRepo := assignments.NewRepository(conn)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	reporter, err := accomplishments.NewReporter(accomplishments.ReporterParams{
		Client:   ipcrClient,
		Logs:     accomplishments.NewLogRepository(conn),
		Notifier: notificationSvc,
		Logger:   logg,
		Metrics:  lifecycle,
		Location: cfg.App.Location(),
		// lookup and submit each get one IPCR timeout
		ClaimTTL: 2 * cfg.IPCR.Timeout,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	accomplishmentSvc, err := accomplishments.NewService(accomplishments.ServiceParams{
		Users:  userRepo,
		Client: ipcrClient,
		Cache:  accomplishments.NewRedisOutputCache(redisClient, cfg.IPCR.OutputCacheTTL),
		Logger: logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	requestSvc, err := requests.NewService(requests.ServiceParams{
		Repo:        requests.NewRepository(conn),
		Assignments: assignmentRepo,
		Catalog:     catalogSvc,
		Users:       userRepo,
		Tx:          dbClient,
		Logger:      logg,
		Metrics:     lifecycle,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	assignmentSvc, err := assignments.NewService(assignments.ServiceParams{
		Repo:     assignmentRepo,
		Tx:       dbClient,
		Reporter: reporter,
		Logger:   logg,
		Metrics:  lifecycle,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:     bookings.NewRepository(conn),
		Catalog:  catalogSvc,
		Users:    userRepo,
		Reporter: reporter,
		Logger:   logg,
		Metrics:  lifecycle,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Sessions:        sessions,
		Auth:            authSvc,
		Catalog:         catalogSvc,
		Staff:           userRepo,
		Requests:        requestSvc,
		Assignments:     assignmentSvc,
		Bookings:        bookingSvc,
		Accomplishments: accomplishmentSvc,
		Notifications:   notificationSvc,
	}, nil
}
