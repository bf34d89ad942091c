// Package storage selects the snapshot store backend from configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"flexreviews/internal/domain"
	"flexreviews/internal/shared"
	"flexreviews/internal/storage/filestore"
	mysqlrepo "flexreviews/internal/storage/mysql"
)

// Open returns the configured store and a function releasing its resources.
func Open(ctx context.Context, cfg shared.Config) (domain.SnapshotStore, func(), error) {
	switch cfg.StoreBackend {
	case "", "file":
		return filestore.New(cfg.SnapshotPath), func() {}, nil
	case "memory":
		// seeded from the snapshot file when it exists
		snap, err := filestore.New(cfg.SnapshotPath).Load(ctx)
		if err != nil {
			snap = domain.Snapshot{}
		}
		return filestore.NewMemory(snap), func() {}, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
