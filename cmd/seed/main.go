package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/shared"
	"flexreviews/internal/storage"
	"flexreviews/internal/storage/filestore"
)

// seed copies a JSON snapshot into the configured store backend.
func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	from := flag.String("from", cfg.SnapshotPath, "snapshot JSON file to import")
	flag.Parse()

	ctx := context.Background()
	snap, err := filestore.New(*from).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("from", *from).Msg("read snapshot failed")
	}

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("open store failed")
	}
	defer closeStore()

	if err := store.Save(ctx, snap); err != nil {
		log.Fatal().Err(err).Msg("save snapshot failed")
	}
	log.Info().Int("reviews", len(snap.Result)).Str("backend", cfg.StoreBackend).Msg("seed completed")
}
