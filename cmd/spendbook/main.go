package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendbook/internal/adapters"
	"spendbook/internal/amqp"
	"spendbook/internal/backend"
	"spendbook/internal/cache"
	"spendbook/internal/cli"
	"spendbook/internal/config"
	apphttp "spendbook/internal/http"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
	"spendbook/internal/services"
	"spendbook/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	feed := notify.NewFeed(notify.DefaultFeedSize, cfg.NotificationTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	cacheManager.Register(feed)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	notifiers := []notify.Notifier{notify.NewLogNotifier(logger), feed}
	var broker *amqp.Notifier
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without broker notifications", applog.FieldError, err)
		} else {
			defer client.Close()
			broker = amqp.NewNotifier(client, amqp.DefaultQueueSize, logger)
			notifiers = append(notifiers, broker)
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	notifier := notify.Multi(notifiers...)

	store := adapters.NewExpenseStore(res.Store, cfg.StorageKey, notifier, logger)
	persister := worker.NewPersister(store, logger)
	repo := services.NewExpenseRepository(store, persister, services.WithRepositoryLogger(logger))
	repo.Load(ctx)

	controller := services.NewListController(repo,
		services.WithUndoWindow(cfg.UndoWindow),
		services.WithNotifier(notifier),
		services.WithControllerLogger(logger))

	srv := apphttp.NewServer(":"+cfg.Port, repo, controller,
		apphttp.WithLocation(cfg.Location()),
		apphttp.WithLogger(logger),
		apphttp.WithFeed(feed),
		apphttp.WithNotifier(notifier))

	// The persister outlives the server so in-flight requests still reach
	// storage; the broker notifier outlives the persister for write failures.
	persistCtx, stopPersist := context.WithCancel(context.Background())
	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopPersist()
	defer stopNotify()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting spendbook server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopPersist()
		return err
	})

	g.Go(func() error {
		defer stopNotify()
		err := persister.Run(persistCtx)
		stats := persister.Stats()
		logger.Info("Persistence finished", "saved", stats.Saved, "failed", stats.Failed)
		return err
	})

	if broker != nil {
		g.Go(func() error { return broker.Run(notifyCtx) })
	}

	return g.Wait()
}
