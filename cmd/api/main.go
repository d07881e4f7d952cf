package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/lifesave-bloodbank/internal/http/handlers"
	"github.com/diagnosis/lifesave-bloodbank/internal/notify"
	"github.com/diagnosis/lifesave-bloodbank/internal/platform/mailer"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo/postgres"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo/redisstore"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/database"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Connect to event bus
	var eventBus events.EventBus
	if cfg.NATS.URL != "" {
		nb, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		eventBus = nb
	} else {
		logger.Info("NATS_URL not set, using in-process event bus")
		eventBus = events.NewLocalEventBus()
	}
	defer eventBus.Close()

	// Redis backs rate limiting and idempotent replay when configured.
	deps := handlers.RouterDeps{Metrics: metrics.New()}
	idempotencyRepo := postgres.NewIdempotencyRepo(pool)
	if cfg.Redis.URL != "" {
		client, err := redisstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		deps.RateLimits = redisstore.NewRateLimitStore(client)
		deps.Idempotency = redisstore.NewIdempotencyStore(client)
	} else {
		logger.Info("REDIS_URL not set, rate limiting disabled and idempotency kept in Postgres")
		deps.Idempotency = idempotencyRepo
		go sweepIdempotencyKeys(ctx, idempotencyRepo)
	}

	// Initialize repositories
	accountsRepo := postgres.NewAccountsRepo(pool)
	donorsRepo := postgres.NewDonorsRepo(pool)

	// Initialize services
	authService := service.NewAuthService(accountsRepo, cfg.Auth)
	donorService := service.NewDonorService(donorsRepo, accountsRepo, eventBus, deps.Metrics, cfg.Donor)
	staffService := service.NewStaffService(accountsRepo, eventBus, cfg.Auth)
	exportService := service.NewExportService(donorsRepo, accountsRepo, cfg.Export)

	notifier := notify.New(mailer.New(cfg.Email), deps.Metrics)
	if err := notifier.Start(eventBus); err != nil {
		logger.Error("Failed to start notifier", "error", err)
		os.Exit(1)
	}

	h := handlers.New(authService, donorService, staffService, exportService, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Router(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("Shutting down blood bank API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Blood bank API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting blood bank API", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Blood bank API error", "error", err)
		os.Exit(1)
	}
	<-drained
}

// sweepIdempotencyKeys drops expired replay entries until ctx is cancelled.
func sweepIdempotencyKeys(ctx context.Context, repo *postgres.IdempotencyRepoImpl) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("Idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Expired idempotency keys removed", "count", n)
			}
		}
	}
}
