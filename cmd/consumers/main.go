package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ticketnow/cmd/consumers/jobs"
	"ticketnow/internal/config"
	"ticketnow/internal/consumers"
	"ticketnow/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	log.Info("Starting worker...")

	// the API publishes under its own client id
	cfg.NATS.ClientID = cfg.NATS.ClientID + "-worker"
	cfg.NATS.Enabled = true

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	expiration := jobs.NewOrderExpirationJob(consumerService.Orders(), cfg.Orders.ExpirationInterval)
	expiration.Start(ctx)

	log.Info("Worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	expiration.Stop()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
	}

	log.Info("Worker stopped")
}
