package datatype

import "bytes"

// Hash maps unique field names to values
type Hash struct {
	fields map[string][]byte
}

func NewHash() *Hash {
	return &Hash{fields: make(map[string][]byte)}
}

func (*Hash) Kind() Kind { return KindHash }
func (*Hash) sealed()    {}

// Set stores value under field and reports whether the field is new
func (h *Hash) Set(field string, value []byte) bool {
	_, exists := h.fields[field]
	h.fields[field] = bytes.Clone(value)
	return !exists
}

func (h *Hash) Get(field string) ([]byte, bool) {
	v, ok := h.fields[field]
	return v, ok
}

// Delete removes field and reports whether it was present
func (h *Hash) Delete(field string) bool {
	if _, ok := h.fields[field]; !ok {
		return false
	}
	delete(h.fields, field)
	return true
}

func (h *Hash) Exists(field string) bool {
	_, ok := h.fields[field]
	return ok
}

func (h *Hash) Len() int {
	return len(h.fields)
}

func (h *Hash) Keys() []string {
	keys := make([]string, 0, len(h.fields))
	for k := range h.fields {
		keys = append(keys, k)
	}
	return keys
}

func (h *Hash) Values() [][]byte {
	vals := make([][]byte, 0, len(h.fields))
	for _, v := range h.fields {
		vals = append(vals, v)
	}
	return vals
}

// All calls fn for every field until fn returns false
func (h *Hash) All(fn func(field string, value []byte) bool) {
	for k, v := range h.fields {
		if !fn(k, v) {
			return
		}
	}
}
