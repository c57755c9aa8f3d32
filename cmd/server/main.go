package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Pattarach/checkup_shop/internal/cache"
	"github.com/Pattarach/checkup_shop/internal/config"
	"github.com/Pattarach/checkup_shop/internal/es"
	"github.com/Pattarach/checkup_shop/internal/handlers"
	"github.com/Pattarach/checkup_shop/internal/handlers/admin"
	"github.com/Pattarach/checkup_shop/internal/handlers/cart"
	"github.com/Pattarach/checkup_shop/internal/logging"
	"github.com/Pattarach/checkup_shop/internal/mykafka"
	"github.com/Pattarach/checkup_shop/internal/ratelimit"
	httpserver "github.com/Pattarach/checkup_shop/internal/transport/http"

	authmw "github.com/Pattarach/checkup_shop/internal/middleware/auth"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Error("elasticsearch init failed", "error", err)
		os.Exit(1)
	}

	rdb, err := cache.NewClient(configuration.REDIS_ADDR, configuration.REDIS_PASSWORD)
	if err != nil {
		logger.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	verifier := &authmw.Verifier{Secret: []byte(configuration.JWT_SECRET)}
	limiter := ratelimit.New(ratelimit.DefaultWindow, configuration.RATE_LIMIT_KEYS)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:             db,
		Verifier:       verifier,
		Limiter:        limiter,
		RateLimit:      configuration.RATE_LIMIT,
		PackageHandler: &handlers.PackageHandler{DB: db},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: configuration.ES_INDEX},
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod},
		AdminHandler: &admin.AdminHandler{
			DB:       db,
			Producer: prod,
			Cache:    rdb,
			ES:       esClient,
			Index:    configuration.ES_INDEX,
		},
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
	} else {
		logger.Error("db() error", "error", err)
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
