// Package datatype holds the five value kinds a key can hold.
// Every value is one of String, Hash, List, Set or ZSet; no other type implements Value.
package datatype

// Kind identifies the variant of a Value
type Kind byte

const (
	KindString Kind = iota + 1
	KindList
	KindSet
	KindHash
	KindZSet
)

// String returns the name reported by the TYPE command
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	}
	return "none"
}

// Value is a closed set of variants. The unexported method keeps other packages from adding kinds
type Value interface {
	Kind() Kind
	sealed()
}

// Collection is implemented by the variants that are deleted once they become empty
type Collection interface {
	Value
	Len() int
}

var (
	_ Value      = (*String)(nil)
	_ Collection = (*Hash)(nil)
	_ Collection = (*List)(nil)
	_ Collection = (*Set)(nil)
	_ Collection = (*ZSet)(nil)
)

// normalizeRange converts an inclusive [start, stop] pair, where negative indices count
// from the end, into a half-open [from, to) interval clamped to [0, length].
// ok is false when the interval is empty
func normalizeRange(start, stop int64, length int) (from, to int, ok bool) {
	n := int64(length)

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	// stop is inclusive, clamp it before moving to the exclusive end
	if stop >= n {
		stop = n - 1
	}
	end := stop + 1

	start = clamp(start, n)
	end = clamp(end, n)

	if start >= end {
		return 0, 0, false
	}

	return int(start), int(end), true
}

func clamp(i, n int64) int64 {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// normalizeIndex resolves a possibly negative index. ok is false when it is out of range
func normalizeIndex(index int64, length int) (int, bool) {
	if index < 0 {
		index += int64(length)
	}
	if index < 0 || index >= int64(length) {
		return 0, false
	}
	return int(index), true
}
