package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketnow/internal/config"
	"ticketnow/internal/logger"
	"ticketnow/internal/middleware"
	"ticketnow/internal/mockpayment"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadMockPayment()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	db, err := mockpayment.OpenDatabase(cfg.Gateway.DSN)
	if err != nil {
		logger.Fatal("Failed to open gateway database", "error", err)
	}

	service, err := mockpayment.NewService(
		mockpayment.NewGormStore(db),
		mockpayment.NewWebhookNotifier(cfg.Gateway.WebhookRetries, cfg.Gateway.WebhookTimeout),
		cfg.Gateway,
	)
	if err != nil {
		logger.Fatal("Invalid gateway configuration", "error", err)
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := service.SeedApplication(seedCtx, cfg.Gateway.Application); err != nil {
		logger.Fatal("Failed to seed application", "error", err)
	}
	cancelSeed()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	mockpayment.NewHandler(service).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Starting mock payment gateway", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down mock payment gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := service.Close(ctx); err != nil {
		log.Error("Pending webhooks abandoned", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Mock payment gateway stopped")
}
