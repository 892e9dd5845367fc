package store

import (
	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
)

// List returns a snapshot of the collection ordered by ascending timestamp,
// ties broken by insertion order. Never nil.
func (s *Store) List() []contact.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (contact.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return contact.Record{}, errors.NewNotFound(id)
	}
	return s.entries[idx].rec, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
