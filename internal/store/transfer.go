package store

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
)

// ImportMode controls how imported records combine with the collection.
type ImportMode string

const (
	ImportModeMerge   ImportMode = "merge"   // upsert by id, keep everything else
	ImportModeReplace ImportMode = "replace" // swap out the whole collection
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Records []contact.Record
	Mode    ImportMode // default: merge
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Created  int `json:"created"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Import adds records in bulk with a single persistence write.
//
// Unlike Save, imported ids and timestamps are kept. A record without an id
// gets a fresh one; a record without a timestamp gets the current logical
// time. Within one import, a repeated id is skipped after its first use.
// If an id cannot be generated the collection is left as it was.
func (s *Store) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeMerge
	}
	if input.Mode != ImportModeMerge && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, replace")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevEntries, prevSeq, prevTS := slices.Clone(s.entries), s.nextSeq, s.lastTS
	rollback := func() {
		s.entries, s.nextSeq, s.lastTS = prevEntries, prevSeq, prevTS
	}

	if input.Mode == ImportModeReplace {
		s.entries = nil
		s.nextSeq = 0
	}

	out := &ImportOutput{}
	seen := make(map[string]bool, len(input.Records))
	for _, r := range input.Records {
		if r.Timestamp == 0 {
			r.Timestamp = s.tickLocked()
		}
		if r.ID == "" {
			id, err := s.generateIDLocked(seen)
			if err != nil {
				rollback()
				return nil, errors.NewInternal(err)
			}
			r.ID = id
		}
		if seen[r.ID] {
			out.Skipped++
			continue
		}
		seen[r.ID] = true

		if idx := s.indexLocked(r.ID); idx >= 0 {
			s.entries[idx].rec = r
			s.lastTS = max(s.lastTS, r.Timestamp)
			out.Replaced++
			continue
		}
		s.appendLocked(r)
		out.Created++
	}
	out.Total = len(s.entries)

	if err := s.persistLocked(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// Export writes the collection, oldest first, in the persisted JSON format.
// It returns the number of records written.
func (s *Store) Export(w io.Writer) (int, error) {
	records := s.List()
	data, err := contact.Encode(records)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return 0, errors.NewInternal(fmt.Errorf("writing export: %w", err))
	}
	return len(records), nil
}
