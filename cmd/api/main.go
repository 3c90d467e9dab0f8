package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"renderfarm/internal/broker"
	"renderfarm/internal/config"
	"renderfarm/internal/httpapi"
	"renderfarm/internal/pkg/logger"
	"renderfarm/internal/pkg/shutdown"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "renderfarm-api",
		AddSource:   config.Env("LOG_SOURCE", "false") == "true",
	})

	log.Info("starting render farm API",
		"version", "0.1.0",
	)

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Connect to Redis
	log.Info("connecting to Redis", "addr", cfg.RedisAddr)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected")

	// The static mount needs the output root to exist before the first
	// request arrives.
	if err := os.MkdirAll(cfg.OutputRoot(), 0o777); err != nil {
		log.LogFatal("failed to create output root", err, "dir", cfg.OutputRoot())
	}

	b := broker.NewRedisBroker(rdb, cfg.QueueName)

	router := httpapi.NewRouter(httpapi.Deps{
		Broker: b,
		Cfg:    cfg,
		Log:    log,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", cfg.HTTPPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
