package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/event_escrow/internal/adapter/cache"
	"github.com/srgjo27/event_escrow/internal/adapter/handler"
	"github.com/srgjo27/event_escrow/internal/adapter/repository/sqlstore"
	"github.com/srgjo27/event_escrow/internal/core/ports"
	"github.com/srgjo27/event_escrow/internal/core/services"
	"github.com/srgjo27/event_escrow/internal/platform/clock"
	"github.com/srgjo27/event_escrow/internal/platform/config"
	"github.com/srgjo27/event_escrow/internal/platform/database"
	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.Init(cfg.LogLevel, os.Stdout); err != nil {
		logrus.Fatalf("Invalid LOG_LEVEL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		Driver:     cfg.DB.Driver,
		Host:       cfg.DB.Host,
		Port:       cfg.DB.Port,
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		DBName:     cfg.DB.Name,
		SSLMode:    cfg.DB.SSLMode,
		SQLitePath: cfg.DB.SQLitePath,
		MaxRetries: cfg.DB.ConnectRetries,
	})
	if err != nil {
		logrus.Fatalf("Failed to connect to db after retries: %v", err)
	}
	defer db.Close()

	if err := database.InitializeSchema(ctx, db); err != nil {
		logrus.Fatalf("Failed to initialize schema: %v", err)
	}

	systemClock := clock.System{}
	transactor := sqlstore.NewTransactor(db, cfg.DB.TxRetries)
	bookingRepo := sqlstore.NewBookingRepository(db, trmsqlx.DefaultCtxGetter)
	vault := sqlstore.NewVault(db, trmsqlx.DefaultCtxGetter, systemClock)

	var eventRepo ports.EventRepository = sqlstore.NewEventRepository(db, trmsqlx.DefaultCtxGetter)
	if cfg.Redis.Enabled {
		logrus.WithField("addr", cfg.Redis.Addr).Info("Connecting to Redis")

		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		logrus.Info("Redis connected successfully")

		eventRepo = cache.NewEventCache(eventRepo, redisClient, cfg.Redis.EventTTL)
	}

	escrowService := services.NewEscrowService(cfg.OrganizerID, eventRepo, bookingRepo, vault, transactor, systemClock)

	if cfg.ReconcileInterval > 0 {
		reconciler := services.NewReconciler(eventRepo, bookingRepo, vault, transactor)
		go reconciler.RunBackgroundReconciliation(ctx, cfg.ReconcileInterval)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.NewRouter(handler.NewEscrowHandler(escrowService)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":      cfg.HTTPAddr,
			"organizer": cfg.OrganizerID,
			"driver":    cfg.DB.Driver,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exiting")
}
