package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"
)

// Channel stores values in the kv table. It satisfies store.Channel.
type Channel struct {
	db  *sql.DB
	now func() time.Time
}

// NewChannel returns a channel backed by db, which must have been
// initialized with Init.
func NewChannel(db *sql.DB) *Channel {
	return &Channel{db: db, now: time.Now}
}

// Get returns the value stored under key.
func (c *Channel) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (c *Channel) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if value == nil {
		value = []byte{}
	}
	if _, err := c.db.ExecContext(ctx, query, key, value, c.now().Unix()); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}
