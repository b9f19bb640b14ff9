// cmd/historian/main.go is an asynchronous historian that pops journaled lobby actions from
// a Redis queue and archives them in PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/habermas/internal/cache"
	"github.com/jason-s-yu/habermas/internal/config"
	"github.com/jason-s-yu/habermas/internal/database"
	"github.com/jason-s-yu/habermas/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := cache.NewRedisJournal(redisAddr, cfg.RedisDB, cfg.HistorianQueueName)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer queue.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	svc := historian.NewService(queue, database.NewArchive(pool), historian.Config{
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlushDelay,
		Inactivity: cfg.HistorianInactivity,
	}, logger)
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
