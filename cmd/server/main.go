package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"tableside/internal/cart"
	"tableside/internal/config"
	"tableside/internal/infrastructure/kafka"
	"tableside/internal/infrastructure/logger"
	"tableside/internal/infrastructure/mysql"
	"tableside/internal/infrastructure/redis"
	"tableside/internal/order"
	"tableside/internal/remote"
	"tableside/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if err := mysql.Migrate(ctx, db); err != nil {
		zapLogger.Fatal("migrating schema", zap.Error(err))
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Warn("redis unavailable, sync lock is process-local", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaWriter := kafka.NewWriter(cfg.Kafka)
	if kafkaWriter != nil {
		defer kafkaWriter.Close()
	}

	remoteClient := remote.NewClient(cfg.Remote, zapLogger)

	cartModule := cart.NewModule(db, zapLogger)
	orderModule := order.NewModule(db, cfg, remoteClient, cartModule.Service, redisClient, kafkaWriter, zapLogger)

	router := server.NewRouter(cfg.Server, zapLogger,
		cartModule.Controller,
		orderModule.LocalOrderController,
		orderModule.LocalDataController,
		orderModule.SyncController,
	)

	srv := server.New(cfg.Server, router, zapLogger)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		orderModule.Worker.Run(ctx)
	}()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
	}
	stop()

	select {
	case <-workerDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		zapLogger.Warn("sync worker did not stop before deadline")
	}

	zapLogger.Info("server stopped gracefully")
}
