package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Technologies maps category names to sets of technology labels.
// Categories keep the order in which they were first added; labels within
// a category form a set and are returned sorted.
//
// The zero value is an empty, usable Technologies.
type Technologies struct {
	order []string
	sets  map[string]map[string]struct{}
}

// NewTechnologies returns an empty Technologies.
func NewTechnologies() Technologies {
	return Technologies{}
}

// Add records label under category. Duplicate labels are ignored.
func (t *Technologies) Add(category, label string) {
	if t.sets == nil {
		t.sets = make(map[string]map[string]struct{})
	}
	set, ok := t.sets[category]
	if !ok {
		set = make(map[string]struct{})
		t.sets[category] = set
		t.order = append(t.order, category)
	}
	set[label] = struct{}{}
}

// Categories returns the category names in insertion order.
// Only categories with at least one label are present.
func (t Technologies) Categories() []string {
	return append([]string(nil), t.order...)
}

// Labels returns the labels of category, sorted.
func (t Technologies) Labels(category string) []string {
	set := t.sets[category]
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// Has reports whether category contains label.
func (t Technologies) Has(category, label string) bool {
	_, ok := t.sets[category][label]
	return ok
}

// Len returns the number of categories.
func (t Technologies) Len() int {
	return len(t.order)
}

// Count returns the total number of labels across all categories.
func (t Technologies) Count() int {
	n := 0
	for _, set := range t.sets {
		n += len(set)
	}
	return n
}

// Map returns the technologies as a plain map of sorted label slices.
func (t Technologies) Map() map[string][]string {
	out := make(map[string][]string, len(t.order))
	for _, category := range t.order {
		out[category] = t.Labels(category)
	}
	return out
}

// MarshalJSON encodes the technologies as a JSON object whose keys follow
// category order and whose values are sorted label arrays.
func (t Technologies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, category := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(category)
		if err != nil {
			return nil, err
		}
		labels, err := json.Marshal(t.Labels(category))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(labels)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object written by MarshalJSON, keeping the
// key order of the input.
func (t *Technologies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = Technologies{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("technologies: expected object, got %v", tok)
	}

	out := Technologies{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		category, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("technologies: expected string key, got %v", keyTok)
		}

		var labels []string
		if err := dec.Decode(&labels); err != nil {
			return fmt.Errorf("technologies: category %q: %w", category, err)
		}
		for _, label := range labels {
			out.Add(category, label)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}
