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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"gauge-erp-backend/config"
	"gauge-erp-backend/internal/api"
	"gauge-erp-backend/internal/db"
	"gauge-erp-backend/internal/events"
	"gauge-erp-backend/internal/lab"
	"gauge-erp-backend/internal/lifecycle"
	"gauge-erp-backend/internal/notification"
	"gauge-erp-backend/internal/reconcile"
	"gauge-erp-backend/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithField("path", configPath).WithError(err).Fatal("failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.WithField("path", configPath).Info("configuration loaded")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatal("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Info("data store initialized")

	// The event bus is optional; without a Redis address transitions are
	// simply not broadcast.
	var publisher events.Publisher = events.Nop{}
	if cfg.Events.RedisAddr != "" {
		redisPub, err := events.NewRedisPublisher(ctx, cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.Channel)
		if err != nil {
			logger.WithError(err).Warn("event bus unavailable, continuing without it")
		} else {
			defer redisPub.Close()
			publisher = redisPub
			logger.WithField("channel", cfg.Events.Channel).Info("event bus connected")
		}
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions, logger)
	workerPool.Start(ctx)

	svc := lifecycle.NewService(appStore, publisher, logger,
		lifecycle.WithAvailabilityNotifier(workerPool.Dispatch))

	runner := reconcile.NewRunner(cfg.Reconcile, svc, logger)
	if err := runner.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to schedule reconciliation")
	}

	labPoller := lab.NewPoller(cfg.Lab, appStore, svc, logger)
	go labPoller.Run(ctx)

	router := api.NewRouter(&cfg.Server, appStore, svc, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("HTTP server shutdown")
	}

	logger.Info("server gracefully stopped")
}
