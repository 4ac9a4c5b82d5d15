// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Makepad-fr/dreams/internal/config"
	"github.com/Makepad-fr/dreams/internal/store"
	"github.com/Makepad-fr/dreams/internal/store/firestoredb"
	"github.com/Makepad-fr/dreams/internal/store/jsonstore"
	"github.com/Makepad-fr/dreams/internal/store/memstore"
	"github.com/Makepad-fr/dreams/internal/store/redisstore"
	"github.com/Makepad-fr/dreams/internal/store/sqlstore"
)

// Open connects to the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	// Connection checks get the per-call budget. Firestore keeps ctx: its
	// token source outlives NewClient.
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverFirestore:
		s, err = firestoredb.New(ctx, firestoredb.Options{
			ProjectID:    cfg.Firestore.ProjectID,
			APIKey:       cfg.Firestore.APIKey,
			AppID:        cfg.Firestore.AppID,
			Collection:   cfg.Firestore.Collection,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		})
	case config.DriverRedis:
		s, err = redisstore.New(dialCtx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	case config.DriverSQLite:
		if err = os.MkdirAll(filepath.Dir(cfg.SQL.DSN), 0o700); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
		s, err = sqlstore.Open(dialCtx, sqlstore.DialectSQLite, cfg.SQL.DSN)
	case config.DriverPostgres:
		s, err = sqlstore.Open(dialCtx, sqlstore.DialectPostgres, cfg.SQL.DSN)
	case config.DriverFile:
		s, err = jsonstore.New(cfg.File.Path)
	case config.DriverMemory:
		s = memstore.New()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	_, watch := s.(store.Watcher)
	log.Debug().Str("driver", cfg.Store.Driver).Bool("changefeed", watch).Msg("store opened")

	return s, nil
}
