package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"station-dashboard-backend/config"
	"station-dashboard-backend/internal/api"
	"station-dashboard-backend/internal/journal"
	"station-dashboard-backend/internal/notification"
	"station-dashboard-backend/internal/station"
	"station-dashboard-backend/internal/upstream"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	setupLogger(&cfg.Log)
	log.Info().Str("path", configPath).Msg("configuration loaded")

	store, err := journal.Open(&cfg.Journal)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open journal database")
	}

	client := upstream.NewClient(&cfg.Upstream)
	notifier := station.NewNotifier()
	core := station.New(client, notifier)
	core.SetRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Web push is optional: without VAPID keys the dashboard still works,
	// operators just get no browser notifications.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, store, webpushOptions)
		pool.Start(ctx)
		notifier.SetPushDispatcher(pool)
		log.Info().Int("workers", cfg.WorkerPool.Size).Msg("web push enabled")
	} else {
		log.Warn().Msg("VAPID keys not configured, web push disabled")
	}

	// Initial load. Failure is survivable: the core reports it through its
	// state and the retry loop keeps trying until the upstream answers.
	if err := core.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial station load failed, will keep retrying")
		go retryInitialLoad(ctx, core, cfg.Upstream.ReconnectMax)
	}

	stream := client.Subscribe(ctx, cfg.Upstream.ReconnectMin, cfg.Upstream.ReconnectMax)
	go core.Reconcile(ctx, stream.Events())

	handler := api.NewHandler(core, client, store, webpushOptions)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	cancel()
	stream.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// retryInitialLoad refetches until the first full state commits.
func retryInitialLoad(ctx context.Context, core *station.Core, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := core.Refresh(ctx); err == nil {
				log.Info().Msg("initial station load recovered")
				return
			}
		}
	}
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
