package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"renderfarm/internal/broker"
	"renderfarm/internal/config"
	"renderfarm/internal/pkg/logger"
	"renderfarm/internal/pkg/shutdown"
	"renderfarm/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "renderfarm-worker",
	})

	log.Info("starting render farm worker",
		"queue", cfg.QueueName,
		"renderer", cfg.RenderBin,
	)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)
	go shutdownMgr.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	shutdownMgr.Register("worker-loop", func(context.Context) error {
		cancel()
		return nil
	})

	deps := worker.Deps{
		Broker: broker.NewRedisBroker(rdb, cfg.QueueName),
		Cfg:    cfg,
		Log:    log,
	}

	if err := worker.Run(ctx, deps); err != nil && ctx.Err() == nil {
		log.LogFatal("worker stopped", err)
	}
	log.Info("worker exited")
}
