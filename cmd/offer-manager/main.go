// cmd/offer-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"offer-ledger/internal/api"
	"offer-ledger/internal/bootstrap"
	"offer-ledger/internal/common/camunda"
	"offer-ledger/internal/common/config"
	"offer-ledger/internal/common/logger"

	da "offer-ledger/internal/workers/application/delete-application"
	fa "offer-ledger/internal/workers/application/file-application"
	rp "offer-ledger/internal/workers/application/respond-to-proposal"
	sn "offer-ledger/internal/workers/application/send-notification"
	vd "offer-ledger/internal/workers/application/validate-application-data"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.Build(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting offer manager...", zap.String("environment", cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backends with retry ---
	var app *bootstrap.App
	err = retryWithBackoff(func() error {
		var err error
		app, err = bootstrap.Build(ctx, cfg, log, bootstrap.Options{ServiceName: "offer-manager"})
		return err
	}, 10, 2*time.Second, zapLog, "backend initialization")
	if err != nil {
		zapLog.Fatal("backends failed after retries", zap.Error(err))
	}
	defer app.Close()
	zapLog.Info("Backends connected",
		zap.String("store", cfg.Store.Driver),
		zap.String("ledger", cfg.Ledger.Driver),
		zap.String("pauseBackend", cfg.Reconcile.PauseBackend),
	)

	// --- Zeebe workers ---
	var workers []worker.JobWorker
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err != nil {
			zapLog.Fatal("zeebe connection failed", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		fileHandler := fa.NewHandler(fa.LoadConfig(cfg), app.Engine, log)
		respondHandler := rp.NewHandler(rp.LoadConfig(cfg), app.Engine, log)
		deleteHandler := da.NewHandler(da.LoadConfig(cfg), app.Coordinator, log)
		validateHandler := vd.NewHandler(vd.LoadConfig(cfg), log)
		notifyHandler := sn.NewHandler(sn.LoadConfig(cfg), app.Notifier, log)

		for _, w := range []struct {
			taskType string
			handler  worker.JobHandler
		}{
			{fa.TaskType, fileHandler.Handle},
			{rp.TaskType, respondHandler.Handle},
			{da.TaskType, deleteHandler.Handle},
			{vd.TaskType, validateHandler.Handle},
			{sn.TaskType, notifyHandler.Handle},
		} {
			if jw := camunda.StartWorker(zeebe.GetClient(), w.taskType, config.GetWorkerConfig(cfg, w.taskType), w.handler, log); jw != nil {
				workers = append(workers, jw)
			}
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- Reconciliation loop ---
	loopDone := make(chan struct{})
	if cfg.Reconcile.Enabled {
		go func() {
			defer close(loopDone)
			if err := app.Loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLog.Error("reconciliation loop stopped", zap.Error(err))
			}
		}()
	} else {
		close(loopDone)
		zapLog.Warn("Reconciliation loop disabled")
	}

	// --- HTTP server ---
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(api.Deps{
			Applications: app.Engine,
			Purger:       app.Coordinator,
			Ready:        app.Ready,
			AdminToken:   cfg.Server.AdminToken,
			Logger:       log,
		}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	select {
	case <-loopDone:
	case <-shutdownCtx.Done():
		zapLog.Warn("Reconciliation loop did not stop in time")
	}
	zapLog.Info("Offer manager stopped")
}
