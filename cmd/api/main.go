package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"flexreviews/internal/adapters/google"
	"flexreviews/internal/adapters/hostaway"
	server "flexreviews/internal/adapters/http_server"
	"flexreviews/internal/adapters/observability"
	redisad "flexreviews/internal/adapters/redis"
	"flexreviews/internal/app"
	"flexreviews/internal/domain"
	"flexreviews/internal/shared"
	"flexreviews/internal/storage"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// store
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("snapshot store unavailable")
	}
	defer closeStore()
	log.Info().Str("backend", cfg.StoreBackend).Msg("snapshot store ready")

	// upstream clients; a missing credential leaves the client nil
	var channel domain.ChannelClient
	if c, err := hostaway.New(cfg.HostawayBase, cfg.HostawayAccountID, cfg.HostawayAPIKey, cfg.HostawayScope, cfg.HostawayRPS, cfg.UpstreamTimeout); err != nil {
		log.Warn().Err(err).Msg("hostaway client disabled")
	} else {
		channel = c
	}
	var places domain.PlacesClient
	if c, err := google.New(cfg.GoogleBase, cfg.GoogleKey, 5, cfg.UpstreamTimeout); err != nil {
		log.Warn().Err(err).Msg("google places client disabled")
	} else {
		places = c
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; continuing, cache calls will fail soft")
		}
		defer rc.Close()
		cache = rc
	}

	// http
	srv := server.New(cfg.CORSOrigins, cfg.UpstreamTimeout+5*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Reviews:    app.NewReviewService(channel, store),
		Moderation: app.NewModerationService(store, channel),
		Places:     app.NewPlacesService(places, cache, cfg.CacheTTL),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
