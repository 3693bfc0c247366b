package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyURL is the reserved field name under which the engine records the URL
// of the page a metadata set was produced on. It is stamped on every work
// item at dequeue time and overwrites any inherited field of the same name.
const KeyURL = "url"

// Kind discriminates the three Value variants.
type Kind int

const (
	// KindString is a single string value.
	KindString Kind = iota

	// KindList is an ordered list of strings.
	KindList

	// KindTable is a string table preserving key insertion order.
	KindTable
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is one metadata field. The zero Value is an empty string.
type Value struct {
	kind  Kind
	str   string
	list  []string
	table *Table
}

// String creates a string-variant Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// List creates a list-variant Value. The items slice is copied.
func List(items []string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// TableValue creates a table-variant Value. A nil table is treated as empty.
func TableValue(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{kind: KindTable, table: t}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string content and true when the value is a string
// variant.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsList returns a copy of the list content and true when the value is a
// list variant.
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

// AsTable returns a copy of the table content and true when the value is a
// table variant.
func (v Value) AsTable() (*Table, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	return v.table.clone(), true
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		return Value{kind: KindList, list: append([]string(nil), v.list...)}
	case KindTable:
		return Value{kind: KindTable, table: v.table.clone()}
	default:
		return v
	}
}

// String implements fmt.Stringer for log output.
func (v Value) String() string {
	switch v.kind {
	case KindList:
		return "[" + strings.Join(v.list, ", ") + "]"
	case KindTable:
		return v.table.String()
	default:
		return v.str
	}
}

// MarshalJSON encodes the value according to its variant: string, array,
// or object with members in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindTable:
		return v.table.MarshalJSON()
	default:
		return json.Marshal(v.str)
	}
}

// Table is a string-to-string mapping that remembers the order keys were
// first inserted. Setting an existing key updates the value in place
// without moving the key.
type Table struct {
	keys []string
	vals map[string]string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{vals: make(map[string]string)}
}

// Set stores value under key, keeping the key's original position when it
// already exists.
func (t *Table) Set(key, value string) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = value
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.vals[key]
	return v, ok
}

// Len returns the number of stored keys.
func (t *Table) Len() int { return len(t.keys) }

// Keys returns the keys in insertion order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// String implements fmt.Stringer for log output.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", k, t.vals[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the table as a JSON object with members in insertion
// order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(t.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *Table) clone() *Table {
	if t == nil {
		return NewTable()
	}
	c := &Table{
		keys: append([]string(nil), t.keys...),
		vals: make(map[string]string, len(t.vals)),
	}
	for k, v := range t.vals {
		c.vals[k] = v
	}
	return c
}

// Metadata is the named field set scraped from a page.
type Metadata map[string]Value

// New creates an empty metadata set.
func New() Metadata {
	return make(Metadata)
}

// Clone returns a deep copy. Mutating the copy, or list and table contents
// reachable through it, never affects the original.
func (m Metadata) Clone() Metadata {
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return c
}

// Merge combines two metadata sets into a fresh one. Fields from overlay
// overwrite same-named fields from base; all other base fields persist.
// Neither input is mutated and the result shares no state with either.
func Merge(base, overlay Metadata) Metadata {
	merged := make(Metadata, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v.Clone()
	}
	for k, v := range overlay {
		merged[k] = v.Clone()
	}
	return merged
}
