// Package store owns the authoritative contact list and keeps it in sync with
// a persistence channel. Every mutation writes the whole collection.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/metrics"
)

// DefaultKey is the persistence key the collection is stored under.
const DefaultKey = "contacts"

// Channel is a keyed byte-string store supplied by the host environment.
type Channel interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error
}

// entry pairs a record with its insertion sequence, used to break
// timestamp ties in List.
type entry struct {
	rec contact.Record
	seq uint64
}

// Store is the contact collection plus its persistence channel.
// All methods are safe for concurrent use; mutations are serialized
// together with their persistence write.
type Store struct {
	mu      sync.Mutex
	entries []entry
	nextSeq uint64
	lastTS  int64

	ch       Channel
	key      string
	now      func() time.Time
	newID    func(time.Time) (string, error)
	logger   *zap.Logger
	listener Listener
	strict   bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the persistence key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the wall clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func(time.Time) (string, error)) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger for warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener registers a listener for load, save and delete notifications.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listener = l }
}

// WithStrictLoad makes Open fail when the persisted value cannot be read
// or decoded, instead of starting empty.
func WithStrictLoad(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// New creates an empty store bound to ch. It does not read from the channel.
func New(ch Channel, opts ...Option) *Store {
	s := &Store{
		ch:     ch,
		key:    DefaultKey,
		now:    time.Now,
		newID:  NewULIDGenerator(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads the persisted collection.
//
// A corrupt or unreadable value does not prevent startup: Open returns an
// empty, usable store together with the error so the caller can warn. With
// WithStrictLoad(true) it returns a nil store instead.
func Open(ctx context.Context, ch Channel, opts ...Option) (*Store, error) {
	s := New(ch, opts...)
	if _, err := s.Load(ctx); err != nil {
		if s.strict {
			return nil, err
		}
		return s, err
	}
	return s, nil
}

// Key returns the persistence key.
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory collection with the persisted one.
// An absent key yields an empty collection and no error. On a read or
// decode failure the collection is empty and the error is returned.
func (s *Store) Load(ctx context.Context) ([]contact.Record, error) {
	s.mu.Lock()
	err := s.loadLocked(ctx)
	records := s.listLocked()
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.OnLoad(records)
	}
	return records, err
}

func (s *Store) loadLocked(ctx context.Context) error {
	s.entries = nil
	s.nextSeq = 0
	defer func() { metrics.Contacts.Set(float64(len(s.entries))) }()

	data, ok, err := s.ch.Get(ctx, s.key)
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues("read").Inc()
		s.logger.Warn("reading contacts failed; starting empty", zap.String("key", s.key), zap.Error(err))
		return errors.NewPersistenceReadFailed(s.key, err)
	}
	if !ok {
		return nil
	}

	records, err := contact.Decode(data)
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues("read").Inc()
		s.logger.Warn("stored contacts are corrupt; starting empty", zap.String("key", s.key), zap.Error(err))
		return errors.NewPersistenceReadCorrupt(s.key, err)
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID == "" {
			id, err := s.generateIDLocked(seen)
			if err != nil {
				s.logger.Warn("dropping stored contact without an id", zap.Int64("timestamp", r.Timestamp), zap.Error(err))
				continue
			}
			s.logger.Warn("stored contact had no id; assigned one", zap.String("id", id))
			r.ID = id
		}
		if seen[r.ID] {
			s.logger.Warn("dropping stored contact with duplicate id", zap.String("id", r.ID))
			continue
		}
		seen[r.ID] = true
		s.appendLocked(r)
	}
	return nil
}

// appendLocked adds a record at the end with the next insertion sequence.
func (s *Store) appendLocked(r contact.Record) {
	s.entries = append(s.entries, entry{rec: r, seq: s.nextSeq})
	s.nextSeq++
	s.lastTS = max(s.lastTS, r.Timestamp)
}

// indexLocked returns the position of id, or -1.
func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.rec.ID == id })
}

// tickLocked returns the next logical creation time in epoch milliseconds.
// It never goes backwards, even if the wall clock does.
func (s *Store) tickLocked() int64 {
	ms := max(s.now().UnixMilli(), s.lastTS)
	s.lastTS = ms
	return ms
}

// generateIDLocked returns an id not present in the collection or in taken.
// Ids are stamped with the wall clock, not the record timestamp, so stored
// timestamps outside the id range cannot block id generation.
func (s *Store) generateIDLocked(taken map[string]bool) (string, error) {
	for range 8 {
		id, err := s.newID(s.now())
		if err != nil {
			return "", err
		}
		if !taken[id] && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", errIDExhausted
}

// persistLocked hands the full collection to the channel.
func (s *Store) persistLocked(ctx context.Context) error {
	metrics.Contacts.Set(float64(len(s.entries)))

	records := make([]contact.Record, len(s.entries))
	for i, e := range s.entries {
		records[i] = e.rec
	}
	data, err := contact.Encode(records)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := s.ch.Set(ctx, s.key, data); err != nil {
		metrics.PersistenceErrors.WithLabelValues("write").Inc()
		s.logger.Warn("persisting contacts failed; change kept in memory only",
			zap.String("key", s.key), zap.Int("contacts", len(records)), zap.Error(err))
		return errors.NewPersistenceWriteFailed(s.key, err)
	}
	return nil
}

// listLocked returns records ordered by timestamp, then insertion sequence.
func (s *Store) listLocked() []contact.Record {
	sorted := slices.Clone(s.entries)
	slices.SortFunc(sorted, func(a, b entry) int {
		if c := cmp.Compare(a.rec.Timestamp, b.rec.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	records := make([]contact.Record, len(sorted))
	for i, e := range sorted {
		records[i] = e.rec
	}
	return records
}
