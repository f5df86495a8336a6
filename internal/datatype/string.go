package datatype

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

var (
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrOverflow   = errors.New("increment or decrement would overflow")
)

// String is a binary-safe scalar value
type String struct {
	data []byte
}

// NewString copies b into a new String
func NewString(b []byte) *String {
	return &String{data: bytes.Clone(b)}
}

func (*String) Kind() Kind { return KindString }
func (*String) sealed()    {}

// Bytes returns the stored bytes. The caller must not modify them.
// The returned slice stays valid after later updates: Append only writes past its end
// and IncrBy allocates a new buffer
func (s *String) Bytes() []byte {
	return s.data
}

// Len returns the length in bytes
func (s *String) Len() int {
	return len(s.data)
}

// Append adds b to the end and returns the new length
func (s *String) Append(b []byte) int {
	s.data = append(s.data, b...)
	return len(s.data)
}

// IncrBy interprets the value as a signed 64-bit integer and adds delta.
// The value is left unchanged on error
func (s *String) IncrBy(delta int64) (int64, error) {
	cur, err := ParseInt(s.data)
	if err != nil {
		return 0, err
	}

	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}

	cur += delta
	s.data = strconv.AppendInt(make([]byte, 0, 20), cur, 10)
	return cur, nil
}

// ParseInt parses b as a base-10 signed 64-bit integer without surrounding spaces
func ParseInt(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 20 {
		return 0, ErrNotInteger
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}
