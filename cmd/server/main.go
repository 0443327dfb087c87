package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pealhq/peal/internal/adapter/driven/gateway/ws"
	"github.com/pealhq/peal/internal/adapter/driven/persistence/memory"
	"github.com/pealhq/peal/internal/adapter/driven/persistence/postgres"
	handler "github.com/pealhq/peal/internal/adapter/driving/http"
	"github.com/pealhq/peal/internal/config"
	"github.com/pealhq/peal/internal/core/port"
	"github.com/pealhq/peal/internal/core/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	log.Logger = l

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
		}
		l.Warn().Str("path", *configPath).Msg("Config file missing, using defaults")
		cfg = config.Default()
	}

	var (
		callRepo port.CallRepository
		msgRepo  port.MessageRepository
	)
	if cfg.DBDSN != "" {
		pool, err := postgres.NewPool(cfg.DBDSN)
		if err != nil {
			l.Fatal().Err(err).Msg("Failed to connect to postgres")
		}
		defer pool.Close()
		callRepo = postgres.NewCallRepository(pool)
		msgRepo = postgres.NewMessageRepository(pool)
		l.Info().Msg("Using postgres store")
	} else {
		callRepo = memory.NewCallRepository()
		msgRepo = memory.NewMessageRepository()
		l.Info().Msg("Using in-memory store")
	}

	hub := ws.NewHub()

	chatService := service.NewChatService(msgRepo, hub)
	callService := service.NewCallService(callRepo, hub, time.Duration(cfg.RingTimeout))
	h := handler.NewHandler(callService, chatService, hub, callRepo)

	go hub.Run()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.ListenAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}
