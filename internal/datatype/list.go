package datatype

import "bytes"

const minListCap = 8

// List is a double-ended queue backed by a ring buffer
type List struct {
	buf  [][]byte
	head int
	size int
}

func NewList() *List {
	return &List{}
}

func (*List) Kind() Kind { return KindList }
func (*List) sealed()    {}

func (l *List) Len() int {
	return l.size
}

// PushFront inserts v before the first element and returns the new length
func (l *List) PushFront(v []byte) int {
	l.grow()
	l.head = (l.head - 1 + len(l.buf)) % len(l.buf)
	l.buf[l.head] = bytes.Clone(v)
	l.size++
	return l.size
}

// PushBack appends v after the last element and returns the new length
func (l *List) PushBack(v []byte) int {
	l.grow()
	l.buf[(l.head+l.size)%len(l.buf)] = bytes.Clone(v)
	l.size++
	return l.size
}

func (l *List) PopFront() ([]byte, bool) {
	if l.size == 0 {
		return nil, false
	}
	v := l.buf[l.head]
	l.buf[l.head] = nil
	l.head = (l.head + 1) % len(l.buf)
	l.size--
	return v, true
}

func (l *List) PopBack() ([]byte, bool) {
	if l.size == 0 {
		return nil, false
	}
	i := (l.head + l.size - 1) % len(l.buf)
	v := l.buf[i]
	l.buf[i] = nil
	l.size--
	return v, true
}

// Index returns the element at index; negative indices count from the end
func (l *List) Index(index int64) ([]byte, bool) {
	i, ok := normalizeIndex(index, l.size)
	if !ok {
		return nil, false
	}
	return l.at(i), true
}

// Range returns the elements between start and stop inclusive
func (l *List) Range(start, stop int64) [][]byte {
	from, to, ok := normalizeRange(start, stop, l.size)
	if !ok {
		return [][]byte{}
	}

	out := make([][]byte, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, l.at(i))
	}
	return out
}

func (l *List) at(i int) []byte {
	return l.buf[(l.head+i)%len(l.buf)]
}

// grow doubles the ring when it is full, unrolling it so head is at zero
func (l *List) grow() {
	if l.size < len(l.buf) {
		return
	}

	newCap := max(2*len(l.buf), minListCap)
	buf := make([][]byte, newCap)
	for i := 0; i < l.size; i++ {
		buf[i] = l.at(i)
	}
	l.buf = buf
	l.head = 0
}
