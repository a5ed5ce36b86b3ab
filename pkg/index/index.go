package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/traitdex/pkg/errors"
)

// Record describes one implementation of a trait by a concrete type.
// Records are value types and are never mutated after construction.
type Record struct {
	// Text is the pre-rendered HTML describing the impl, including any
	// generic parameters and where-clause constraints.
	Text string `json:"text" bson:"text"`

	// Synthetic marks automatically derived impls (compiler-generated)
	// as opposed to explicitly authored ones.
	Synthetic bool `json:"synthetic" bson:"synthetic"`

	// Types lists the fully-qualified paths of the implementing types,
	// in the order the doc generator emitted them.
	Types []string `json:"types" bson:"types"`
}

// Equal reports whether two records are structurally identical.
func (r Record) Equal(other Record) bool {
	return r.Text == other.Text &&
		r.Synthetic == other.Synthetic &&
		slices.Equal(r.Types, other.Types)
}

// Table maps crate names to their implementor records. Key order is
// insertion order and is meaningful for display; it survives JSON and
// fragment round trips. Tables are built once and read-only afterwards;
// Table methods are not goroutine-safe during construction.
type Table struct {
	keys    []string
	records map[string][]Record
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{records: make(map[string][]Record)}
}

// Add appends records for a crate. The crate must pass
// [errors.ValidateCrateName], must not already be present, and must bring
// at least one record; every key in a table maps to a non-empty sequence.
func (t *Table) Add(crate string, records ...Record) error {
	if err := errors.ValidateCrateName(crate); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("crate %s: no records", crate)
	}
	if _, ok := t.records[crate]; ok {
		return fmt.Errorf("crate %s: duplicate key", crate)
	}
	t.keys = append(t.keys, crate)
	t.records[crate] = slices.Clone(records)
	return nil
}

// Get returns the records for a crate and whether the crate is present.
// The returned slice must not be modified.
func (t *Table) Get(crate string) ([]Record, bool) {
	recs, ok := t.records[crate]
	return recs, ok
}

// Keys returns the crate names in insertion order.
// The returned slice is a copy and safe to modify.
func (t *Table) Keys() []string {
	return slices.Clone(t.keys)
}

// Len returns the number of crates in the table.
func (t *Table) Len() int { return len(t.keys) }

// RecordCount returns the total number of records across all crates.
func (t *Table) RecordCount() int {
	n := 0
	for _, recs := range t.records {
		n += len(recs)
	}
	return n
}

// Merge adds every crate of other into t, preserving other's key order.
// A crate present in both tables is an error and leaves t unchanged.
func (t *Table) Merge(other *Table) error {
	for _, key := range other.keys {
		if _, ok := t.records[key]; ok {
			return fmt.Errorf("crate %s: duplicate key", key)
		}
	}
	for _, key := range other.keys {
		t.keys = append(t.keys, key)
		t.records[key] = slices.Clone(other.records[key])
	}
	return nil
}

// Equal reports whether two tables hold the same crates, in the same
// order, with structurally identical records.
func (t *Table) Equal(other *Table) bool {
	if !slices.Equal(t.keys, other.keys) {
		return false
	}
	for _, key := range t.keys {
		a, b := t.records[key], other.records[key]
		if !slices.EqualFunc(a, b, Record.Equal) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the table as a JSON object whose keys appear in
// insertion order. The output matches the object literal embedded in the
// generated fragment.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		recs, err := json.Marshal(t.records[key])
		if err != nil {
			return nil, fmt.Errorf("crate %s: %w", key, err)
		}
		buf.Write(recs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the table, preserving the key
// order of the document. Existing contents are replaced.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	t.keys = nil
	t.records = make(map[string][]Record)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", tok)
		}
		var recs []Record
		if err := dec.Decode(&recs); err != nil {
			return fmt.Errorf("crate %s: %w", key, err)
		}
		if err := t.Add(key, recs...); err != nil {
			return err
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// UnmarshalTable deserializes JSON bytes into a new table.
func UnmarshalTable(data []byte) (*Table, error) {
	t := NewTable()
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return t, nil
}
