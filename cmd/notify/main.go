// Command notify runs the review notifier as its own process, consuming donor
// decisions from NATS in the same queue group as the API instances.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/lifesave-bloodbank/internal/notify"
	"github.com/diagnosis/lifesave-bloodbank/internal/platform/mailer"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
	mw "github.com/diagnosis/lifesave-bloodbank/pkg/middleware"
)

func main() {
	cfg := config.Load()

	if cfg.NATS.URL == "" {
		logger.Error("NATS_URL is required for the standalone notifier")
		os.Exit(1)
	}

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	m := metrics.New()
	if err := notify.New(mailer.New(cfg.Email), m).Start(eventBus); err != nil {
		logger.Error("Failed to start notifier", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Metrics(m))
	r.Use(mw.Health(cfg.Server.Env))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.NotifyPort,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down notify service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Notify service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting notify service", "port", cfg.Server.NotifyPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}
