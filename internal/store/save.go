package store

import (
	"context"

	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/metrics"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Level1  string
	Level2  string
	Level3  string
	Comment string

	// ID selects the record to replace. Empty, or an id not in the
	// collection, creates a new record with a fresh id.
	ID string

	// CreatedAt overrides the timestamp kept on replace. Ignored on create.
	CreatedAt *int64
}

// Save creates or fully replaces a record and persists the collection.
//
// The returned record carries its final id and timestamp. A persistence
// failure is reported as PERSISTENCE_WRITE_FAILED alongside the record:
// the in-memory change has already taken effect.
func (s *Store) Save(ctx context.Context, input SaveInput) (contact.Record, error) {
	s.mu.Lock()
	rec, replaced, err := s.saveLocked(input)
	if err != nil {
		s.mu.Unlock()
		return contact.Record{}, err
	}
	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	if replaced {
		metrics.Saves.WithLabelValues("replaced").Inc()
	} else {
		metrics.Saves.WithLabelValues("created").Inc()
	}
	if s.listener != nil {
		s.listener.OnSaved(rec)
	}
	return rec, persistErr
}

func (s *Store) saveLocked(input SaveInput) (contact.Record, bool, error) {
	rec := contact.Record{
		Level1:  input.Level1,
		Level2:  input.Level2,
		Level3:  input.Level3,
		Comment: input.Comment,
	}

	if idx := s.indexLocked(input.ID); idx >= 0 {
		old := s.entries[idx].rec
		rec.ID = old.ID
		rec.Timestamp = old.Timestamp
		if input.CreatedAt != nil {
			rec.Timestamp = *input.CreatedAt
		}
		s.entries[idx].rec = rec
		return rec, true, nil
	}

	ts := s.tickLocked()
	id, err := s.generateIDLocked(nil)
	if err != nil {
		return contact.Record{}, false, errors.NewInternal(err)
	}
	rec.ID = id
	rec.Timestamp = ts
	s.appendLocked(rec)
	return rec, false, nil
}
