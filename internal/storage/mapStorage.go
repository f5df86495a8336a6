package storage

import (
	"sync"

	"github.com/eternalApril/kilodb/internal/datatype"
)

// MapStorage is a single lock-protected shard of the keyspace.
// On its own it is a Storage where every command takes the one lock
type MapStorage struct {
	data     map[string]*Entry   // key - entry
	volatile map[string]struct{} // keys with a deadline, sampled by DeleteExpired
	opts     options
	mu       sync.Mutex
}

// NewMapStorage creates a new instance of MapStorage
func NewMapStorage(opts ...Option) *MapStorage {
	return newMapStorage(buildOptions(opts))
}

func newMapStorage(o options) *MapStorage {
	return &MapStorage{
		data:     make(map[string]*Entry),
		volatile: make(map[string]struct{}),
		opts:     o,
	}
}

// Atomic runs fn holding the shard lock
func (m *MapStorage) Atomic(_ []string, fn func(tx Tx)) {
	m.AtomicAll(fn)
}

// AtomicAll runs fn holding the shard lock
func (m *MapStorage) AtomicAll(fn func(tx Tx)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&tx{
		shardOf: func(string) *MapStorage { return m },
		all:     []*MapStorage{m},
		now:     m.opts.clock(),
	})
}

// DeleteExpired randomly selects a limit of keys and deletes those whose TTL has expired
func (m *MapStorage) DeleteExpired(limit int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.volatile) == 0 || limit <= 0 {
		return 0.0
	}

	checked := 0
	expired := 0
	now := m.opts.clock().UnixNano()

	// go map iteration order is random
	for key := range m.volatile {
		checked++
		if e := m.data[key]; e.expired(now) {
			m.expire(key)
			expired++
		}

		if checked >= limit {
			break
		}
	}

	return float64(expired) / float64(checked)
}

// Size returns the number of stored entries
func (m *MapStorage) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// The methods below require m.mu to be held

// lookup returns the live entry of key, deleting it if its deadline has passed
func (m *MapStorage) lookup(key string, now int64) (*Entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		m.expire(key)
		return nil, false
	}
	return e, true
}

// expire deletes key and reports the expiration. Called once per expired entry
func (m *MapStorage) expire(key string) {
	m.remove(key)
	m.opts.onExpire(key)
}

func (m *MapStorage) store(key string, e *Entry) {
	m.data[key] = e
	if e.ExpireAt != 0 {
		m.volatile[key] = struct{}{}
	} else {
		delete(m.volatile, key)
	}
}

func (m *MapStorage) remove(key string) {
	delete(m.data, key)
	delete(m.volatile, key)
}

func (m *MapStorage) setDeadline(key string, e *Entry, at int64) {
	e.ExpireAt = at
	if at != 0 {
		m.volatile[key] = struct{}{}
	} else {
		delete(m.volatile, key)
	}
}

func (m *MapStorage) clear() {
	m.data = make(map[string]*Entry)
	m.volatile = make(map[string]struct{})
}

func (m *MapStorage) set(key string, value datatype.Value, options SetOptions, now int64) bool {
	cur, exists := m.lookup(key, now)

	if options.NX && exists {
		return false
	}

	if options.XX && !exists {
		return false
	}

	var exp int64
	switch {
	case options.KeepTTL:
		// KEEPTTL on a fresh key behaves like no TTL
		if exists {
			exp = cur.ExpireAt
		}
	case options.ExpireAt != 0:
		exp = options.ExpireAt
	case options.TTL != 0:
		exp = now + int64(options.TTL)
	}

	m.store(key, &Entry{Value: value, ExpireAt: exp})
	return true
}
