package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/store"
)

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Contact   ContactView `json:"contact"`
	Created   bool        `json:"created"`
	Persisted bool        `json:"persisted"`
	Warning   string      `json:"warning,omitempty"`
}

// Save creates or replaces a contact. A persistence write failure is not an
// error here: the contact is saved for the session and Warning says so.
func Save(ctx context.Context, s *store.Store, tree *category.Tree, input store.SaveInput) (*SaveOutput, error) {
	input.ID = strings.TrimSpace(input.ID)

	rec, err := s.Save(ctx, input)
	warning, err := sessionOnly(err)
	if err != nil {
		return nil, err
	}

	return &SaveOutput{
		Contact:   NewContactView(tree, rec),
		Created:   rec.ID != input.ID,
		Persisted: warning == "",
		Warning:   warning,
	}, nil
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	store.DeleteOutput
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

// Delete removes a contact by id. Unknown ids report Deleted=false.
func Delete(ctx context.Context, s *store.Store, id string) (*DeleteOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	out, err := s.Delete(ctx, id)
	warning, err := sessionOnly(err)
	if err != nil {
		return nil, err
	}

	return &DeleteOutput{
		DeleteOutput: *out,
		Persisted:    warning == "",
		Warning:      warning,
	}, nil
}

// sessionOnly turns a persistence write failure into a warning: the change
// already took effect in memory. Other errors pass through.
func sessionOnly(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, errors.ErrPersistenceWriteFailed) {
		return errors.As(err).Message, nil
	}
	return "", err
}
