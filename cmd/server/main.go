package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"navboard/internal/cache"
	"navboard/internal/config"
	"navboard/internal/database"
	"navboard/internal/handlers"
	"navboard/internal/metrics"
	"navboard/internal/service"
	"navboard/internal/stream"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatal(err)
	}
	logger := cfg.NewLogger()

	db, err := initDB(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := database.New(db, logger)

	var quotes cache.QuoteStore = r
	if cfg.RedisURL != "" {
		rdb, err := initRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatalf("redis connect failed: %v", err)
		}
		defer rdb.Close()
		quotes = cache.NewCachedQuotes(r, rdb, cfg.QuoteTTL(), logger)
		logger.Infof("redis quote cache enabled, ttl %s", cfg.QuoteTTL())
	}

	hub := stream.NewHub(logger)
	go hub.Run(ctx)

	valuator := service.NewValuator(service.Feeds{Positions: r, Quotes: quotes, Metrics: r}, r, hub, logger)

	var provider service.QuoteProvider
	if cfg.QuoteProvider.URL != "" {
		provider = service.NewHTTPQuoteProvider(cfg.QuoteProvider, nil)
		logger.Infof("quote provider %s", cfg.QuoteProvider.URL)
	} else {
		logger.Info("no quote provider configured, quotes come from PUT /quotes")
	}
	refresher := service.NewRefresher(r, quotes, provider, valuator, logger)
	refresher.Start(ctx, cfg.RefreshInterval())

	h := handlers.NewHandler(r, quotes, valuator, refresher, cfg.Currency, logger)

	rg := gin.New()
	rg.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())
	h.Register(rg)
	rg.GET("/ws", hub.HandleWS)
	rg.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           rg,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s, refresh every %s", cfg.Port, cfg.RefreshInterval())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

func initDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

func initRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
