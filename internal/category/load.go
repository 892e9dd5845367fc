package category

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/rolodex/internal/errors"
)

var validate = validator.New()

// LoadFile reads a forest from a YAML or JSON file (JSON parses as YAML).
// The top level is either a list of nodes or a mapping with a "categories" list.
func LoadFile(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, fmt.Errorf("reading categories file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a forest.
func Parse(data []byte) ([]Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInvalidCategories([]string{err.Error()})
	}

	var forest []Node
	var wrapped struct {
		Categories []Node `yaml:"categories"`
	}
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			if err := root.Decode(&wrapped); err != nil {
				return nil, errors.NewInvalidCategories([]string{err.Error()})
			}
			forest = wrapped.Categories
		} else if err := root.Decode(&forest); err != nil {
			return nil, errors.NewInvalidCategories([]string{err.Error()})
		}
	}

	if err := Validate(forest); err != nil {
		return nil, err
	}
	return forest, nil
}

// Validate checks that every node has an id and a name.
func Validate(forest []Node) error {
	if len(forest) == 0 {
		return errors.NewInvalidCategories([]string{"at least one category is required"})
	}

	var problems []string
	for i := range forest {
		if err := validate.Struct(forest[i]); err != nil {
			problems = append(problems, formatValidationError(i, err)...)
		}
	}
	if len(problems) > 0 {
		return errors.NewInvalidCategories(problems)
	}
	return nil
}

// formatValidationError turns validator output into one message per field.
func formatValidationError(root int, err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		// Namespace is "Node.Children[0].ID"; anchor it to the root index.
		ns := strings.TrimPrefix(e.Namespace(), "Node")
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("categories[%d]%s: %s is required", root, ns, field))
		default:
			msgs = append(msgs, fmt.Sprintf("categories[%d]%s: %s is invalid", root, ns, field))
		}
	}
	return msgs
}

// Default returns the built-in example taxonomy.
func Default() []Node {
	return []Node{
		{
			ID:   "cat1",
			Name: "Business",
			Children: []Node{
				{
					ID:   "cat1-1",
					Name: "Finance",
					Children: []Node{
						{ID: "cat1-1-1", Name: "Banking"},
						{ID: "cat1-1-2", Name: "Investment"},
						{ID: "cat1-1-3", Name: "Insurance"},
					},
				},
				{
					ID:   "cat1-2",
					Name: "Marketing",
					Children: []Node{
						{ID: "cat1-2-1", Name: "Digital"},
						{ID: "cat1-2-2", Name: "Traditional"},
					},
				},
				{ID: "cat1-3", Name: "Operations"},
			},
		},
		{
			ID:   "cat2",
			Name: "Personal",
			Children: []Node{
				{
					ID:   "cat2-1",
					Name: "Family",
					Children: []Node{
						{ID: "cat2-1-1", Name: "Immediate"},
						{ID: "cat2-1-2", Name: "Extended"},
					},
				},
				{ID: "cat2-2", Name: "Friends"},
			},
		},
		{ID: "cat3", Name: "Other"},
	}
}
