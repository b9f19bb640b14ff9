// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/habermas/internal/cache"
	"github.com/jason-s-yu/habermas/internal/config"
	"github.com/jason-s-yu/habermas/internal/game"
	"github.com/jason-s-yu/habermas/internal/handlers"
	"github.com/jason-s-yu/habermas/internal/lobby"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	var journal lobby.Journal = lobby.NopJournal{}
	if cfg.RedisAddr != "" {
		rj, err := cache.NewRedisJournal(cfg.RedisAddr, cfg.RedisDB, cfg.HistorianQueueName)
		if err != nil {
			logger.Fatalf("redis journal: %v", err)
		}
		defer rj.Close()
		journal = rj
		logger.Infof("Journaling lobby actions to Redis list %q", rj.Queue())
	}

	srv := lobby.NewServer(lobby.NewMemoryStore(), lobby.Options{
		Registry: lobby.RegistryOptions{
			DefaultMaxPlayers: cfg.DefaultMaxPlayers,
			MaxPlayersLimit:   cfg.MaxPlayersLimit,
		},
		Rules:   game.Rules{AllowLateJoin: cfg.AllowLateJoin},
		Journal: journal,
	}, logger)
	defer srv.Close()

	router := handlers.NewRouter(logger, srv, handlers.Options{
		CORSOrigins: cfg.CORSOrigins,
		SendBuffer:  cfg.WSSendBuffer,
	})
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("Running on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to serve: %v", err)
		}
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
