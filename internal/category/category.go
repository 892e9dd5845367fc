// Package category resolves category ids against a fixed forest of
// category nodes. The forest is never mutated after it is loaded, so every
// function here is safe for concurrent use without locking.
package category

import "strings"

const (
	// UnknownName is returned for ids that do not resolve.
	UnknownName = "Unknown"

	// Uncategorized is the path of a selection with no levels set.
	Uncategorized = "Uncategorized"

	// PathSeparator joins resolved level names.
	PathSeparator = " > "
)

// Node is one category in the forest. IDs are expected to be unique across
// the whole forest, not just among siblings.
type Node struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
}

// Selection is the up-to-three category ids a contact carries.
// An empty string means the level is unset.
type Selection struct {
	Level1 string `json:"level1"`
	Level2 string `json:"level2"`
	Level3 string `json:"level3"`
}

// IsEmpty reports whether no level is set.
func (s Selection) IsEmpty() bool {
	return s.Level1 == "" && s.Level2 == "" && s.Level3 == ""
}

// ResolveName returns the name of the first node with the given id, searching
// depth-first in pre-order and in declared sibling order. Empty or unmatched
// ids resolve to UnknownName.
func ResolveName(forest []Node, id string) string {
	if id == "" {
		return UnknownName
	}
	if n, ok := find(forest, id); ok {
		return n.Name
	}
	return UnknownName
}

// ResolvePath joins the names of every non-empty level, in level order.
// A set level that does not resolve still contributes UnknownName.
func ResolvePath(forest []Node, sel Selection) string {
	parts := make([]string, 0, 3)
	for _, id := range []string{sel.Level1, sel.Level2, sel.Level3} {
		if id == "" {
			continue
		}
		parts = append(parts, ResolveName(forest, id))
	}
	if len(parts) == 0 {
		return Uncategorized
	}
	return strings.Join(parts, PathSeparator)
}

// find is the pre-order search behind ResolveName.
func find(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
		if found, ok := find(n.Children, id); ok {
			return found, true
		}
	}
	return Node{}, false
}
