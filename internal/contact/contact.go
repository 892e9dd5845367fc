// Package contact defines the contact record and its persisted JSON form.
package contact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hpungsan/rolodex/internal/category"
)

// Record is one saved contact entry.
// Field names match the persisted format: a JSON array of these objects.
type Record struct {
	// Level1..Level3 are category ids; empty means unset
	Level1 string `json:"level1"`
	Level2 string `json:"level2"`
	Level3 string `json:"level3"`

	// Comment is free text and may contain newlines
	Comment string `json:"comment"`

	// ID is assigned once at creation and never reassigned
	ID string `json:"id"`

	// Timestamp is the logical creation time in epoch milliseconds,
	// preserved across edits
	Timestamp int64 `json:"timestamp"`
}

// Selection returns the record's category ids.
func (r Record) Selection() category.Selection {
	return category.Selection{Level1: r.Level1, Level2: r.Level2, Level3: r.Level3}
}

// Encode serializes records in the persisted format. An empty or nil
// list encodes as "[]".
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding contacts: %w", err)
	}
	return data, nil
}

// Decode parses the persisted format. Missing string fields decode as empty.
// Anything other than a JSON array of objects is an error.
func Decode(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decoding contacts: expected a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decoding contacts: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("decoding contacts: element %d is not an object", i)
		}
		var r Record
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("decoding contacts: element %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
