package ops

import (
	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/store"
)

// ContactView is a record plus its resolved category names, as shown by
// the CLI, MCP tools and web API.
type ContactView struct {
	contact.Record

	Path       string `json:"path"`
	Level1Name string `json:"level1_name,omitempty"`
	Level2Name string `json:"level2_name,omitempty"`
	Level3Name string `json:"level3_name,omitempty"`
}

// NewContactView resolves rec against tree.
func NewContactView(tree *category.Tree, rec contact.Record) ContactView {
	v := ContactView{Record: rec, Path: tree.Path(rec.Selection())}
	if rec.Level1 != "" {
		v.Level1Name = tree.Name(rec.Level1)
	}
	if rec.Level2 != "" {
		v.Level2Name = tree.Name(rec.Level2)
	}
	if rec.Level3 != "" {
		v.Level3Name = tree.Name(rec.Level3)
	}
	return v
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []ContactView `json:"items"`
	Total int           `json:"total"`
}

// List returns every contact, oldest first, with resolved paths.
func List(s *store.Store, tree *category.Tree) *ListOutput {
	records := s.List()
	items := make([]ContactView, len(records))
	for i, r := range records {
		items[i] = NewContactView(tree, r)
	}
	return &ListOutput{Items: items, Total: len(items)}
}

// Get returns one contact with its resolved path.
func Get(s *store.Store, tree *category.Tree, id string) (*ContactView, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	v := NewContactView(tree, rec)
	return &v, nil
}
