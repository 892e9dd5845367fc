package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/rolodex/internal/badgerkv"
	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/store"
)

// env is everything a command needs: the loaded store, the category tree,
// the merged config and the logger.
type env struct {
	store  *store.Store
	tree   *category.Tree
	cfg    *config.Config
	logger *zap.Logger

	closers []func() error
}

// openEnv opens the configured persistence channel under baseDir, loads the
// category tree and loads the contact list.
func openEnv(ctx context.Context, baseDir string, cfg *config.Config, logger *zap.Logger) (*env, error) {
	e := &env{cfg: cfg, logger: logger}

	tree, err := loadTree(cfg, logger)
	if err != nil {
		return nil, err
	}
	e.tree = tree

	ch, err := e.openChannel(baseDir)
	if err != nil {
		e.Close()
		return nil, err
	}

	s, err := store.Open(ctx, ch,
		store.WithKey(cfg.StorageKey),
		store.WithLogger(logger),
		store.WithStrictLoad(cfg.StrictLoad),
		store.WithListener(logListener(logger)),
	)
	if err != nil {
		if s == nil {
			e.Close()
			return nil, err
		}
		logger.Warn("starting with an empty contact list", zap.Error(err))
	}
	e.store = s
	return e, nil
}

// openChannel picks the persistence channel named by cfg.Storage.
func (e *env) openChannel(baseDir string) (store.Channel, error) {
	switch e.cfg.Storage {
	case config.StorageMemory:
		return store.NewMemoryChannel(), nil

	case config.StorageBadger:
		bcfg := badgerkv.DefaultConfig(filepath.Join(baseDir, badgerkv.DirName))
		bcfg.Logger = e.logger
		bdb, err := badgerkv.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database: %w", err)
		}
		e.closers = append(e.closers, bdb.Close)
		return badgerkv.NewChannel(bdb), nil

	default:
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, e.cfg)
		e.closers = append(e.closers, database.Close)
		return db.NewChannel(database), nil
	}
}

// Close releases the persistence channel.
func (e *env) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

// loadTree reads cfg.CategoriesPath, or falls back to the built-in taxonomy.
func loadTree(cfg *config.Config, logger *zap.Logger) (*category.Tree, error) {
	forest := category.Default()
	if cfg.CategoriesPath != "" {
		var err error
		forest, err = category.LoadFile(cfg.CategoriesPath)
		if err != nil {
			return nil, err
		}
	}

	tree := category.NewTree(forest)
	if dups := tree.DuplicateIDs(); len(dups) > 0 {
		logger.Warn("duplicate category ids; the first occurrence wins", zap.Strings("ids", dups))
	}
	return tree, nil
}

func logListener(logger *zap.Logger) store.Listener {
	return store.ListenerFuncs{
		Load: func(records []contact.Record) {
			logger.Debug("contacts loaded", zap.Int("count", len(records)))
		},
		Saved: func(rec contact.Record) {
			logger.Debug("contact saved", zap.String("id", rec.ID))
		},
		Deleted: func(id string) {
			logger.Debug("contact deleted", zap.String("id", id))
		},
	}
}
