// Package badgerkv is a BadgerDB-backed persistence channel for the contact store.
package badgerkv

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// DirName is the database directory created inside the base directory.
const DirName = "badger"

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM; used by tests and storage: memory setups
	InMemory bool

	SyncWrites bool

	// Logger receives badger's internal messages. Nil disables them.
	Logger *zap.Logger

	// GCInterval is how often value log GC runs. 0 disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig returns the on-disk configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration with no disk I/O and no GC.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }

// DB wraps an open badger database and its GC loop.
type DB struct {
	*badger.DB

	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Open opens (or creates) the database described by cfg.
// The caller must Close it.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, stderrors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0700); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(zapLogger{s: logger.Named("badger").Sugar()})
	} else {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	db := &DB{DB: bdb, logger: logger, stop: make(chan struct{}), done: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go db.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	} else {
		close(db.done)
	}
	return db, nil
}

// Close stops GC and closes the database.
func (db *DB) Close() error {
	db.stopOnce.Do(func() { close(db.stop) })
	<-db.done
	return db.DB.Close()
}

func (db *DB) runGC(interval time.Duration, ratio float64) {
	defer close(db.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-db.stop:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect
			if err := db.RunValueLogGC(ratio); err != nil && !stderrors.Is(err, badger.ErrNoRewrite) {
				db.logger.Warn("badger value log GC failed", zap.Error(err))
			}
		}
	}
}

// Channel stores values under their key in badger. It satisfies store.Channel.
type Channel struct {
	db *DB
}

// NewChannel returns a channel backed by db.
func NewChannel(db *DB) *Channel {
	return &Channel{db: db}
}

// Get returns the value stored under key.
func (c *Channel) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (c *Channel) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}
