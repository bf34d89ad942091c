package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"flexreviews/internal/adapters/google"
	"flexreviews/internal/adapters/observability"
	redisad "flexreviews/internal/adapters/redis"
	"flexreviews/internal/app"
	"flexreviews/internal/shared"
)

// prefetch warms the place-summary cache for every configured place id.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Int("places", len(cfg.PlaceIDs)).
		Int("workers", cfg.PrefetchWorkers).
		Msg("prefetch starting")

	if len(cfg.PlaceIDs) == 0 {
		log.Warn().Msg("PLACE_IDS is empty; nothing to do")
		return
	}
	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required for prefetch")
	}

	client, err := google.New(cfg.GoogleBase, cfg.GoogleKey, 5, cfg.UpstreamTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	svc := app.NewPlacesService(client, cache, cfg.CacheTTL)
	workers := cfg.PrefetchWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int32

	for _, id := range cfg.PlaceIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(placeID string) {
			defer wg.Done()
			defer sem.Release(1)

			ps, err := svc.Refresh(ctx, placeID)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Str("place_id", placeID).Err(err).Msg("prefetch failed")
				return
			}
			log.Info().Str("place_id", placeID).Int("reviews", len(ps.Reviews)).Msg("prefetch ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int32("failed", atomic.LoadInt32(&failed)).Msg("prefetch completed")
}
