package store

import (
	"context"
	"slices"

	"github.com/hpungsan/rolodex/internal/metrics"
)

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes the record with the given id and persists the collection.
// An unknown id is a no-op, not an error; the collection is still re-persisted.
func (s *Store) Delete(ctx context.Context, id string) (*DeleteOutput, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx >= 0 {
		s.entries = slices.Delete(s.entries, idx, idx+1)
	}
	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	out := &DeleteOutput{Deleted: idx >= 0, ID: id}
	if !out.Deleted {
		metrics.Deletes.WithLabelValues("missing").Inc()
		return out, persistErr
	}

	metrics.Deletes.WithLabelValues("deleted").Inc()
	if s.listener != nil {
		s.listener.OnDeleted(id)
	}
	return out, persistErr
}
