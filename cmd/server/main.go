package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/quickcart/quickcart-api/internal/config"
	"github.com/quickcart/quickcart-api/internal/es"
	"github.com/quickcart/quickcart-api/internal/handlers"
	"github.com/quickcart/quickcart-api/internal/logging"
	"github.com/quickcart/quickcart-api/internal/mykafka"
	"github.com/quickcart/quickcart-api/internal/payment"
	"github.com/quickcart/quickcart-api/internal/service"
	httpserver "github.com/quickcart/quickcart-api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	if configuration.RAZORPAY_KEY_ID == "" || configuration.RAZORPAY_KEY_SECRET == "" {
		log.Fatal("provide RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET for payment functionality")
	}
	gateway := payment.NewRazorpayGateway(
		configuration.RAZORPAY_KEY_ID,
		configuration.RAZORPAY_KEY_SECRET,
		configuration.RAZORPAY_WEBHOOK_SECRET,
	)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		logger.Warn("kafka producer unavailable, order events disabled", "error", err)
		prod = nil
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, order search disabled", "error", err)
		esClient = nil
	}

	svc := service.NewOrderService(db, gateway)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		OrderHandler:  &handlers.OrderHandler{Svc: svc, Producer: prod, ES: esClient},
		SearchHandler: &handlers.SearchHandler{ES: esClient, Index: es.OrderIndex, Svc: svc},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", configuration.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
