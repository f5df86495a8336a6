package storage

import (
	"slices"
	"time"

	"github.com/eternalApril/kilodb/internal/datatype"
)

// tx routes every key to its shard. The shards it can reach are already locked by the caller
type tx struct {
	shardOf func(key string) *MapStorage
	all     []*MapStorage // non-nil only when every shard is locked
	now     time.Time
}

func (t *tx) nanos() int64 {
	return t.now.UnixNano()
}

func (t *tx) Now() time.Time {
	return t.now
}

func (t *tx) Get(key string) (datatype.Value, bool) {
	e, ok := t.shardOf(key).lookup(key, t.nanos())
	if !ok {
		return nil, false
	}
	return e.Value, true
}

func (t *tx) Set(key string, value datatype.Value, options SetOptions) bool {
	return t.shardOf(key).set(key, value, options, t.nanos())
}

func (t *tx) Delete(key string) bool {
	m := t.shardOf(key)
	if _, ok := m.lookup(key, t.nanos()); !ok {
		return false
	}
	m.remove(key)
	return true
}

func (t *tx) Expiry(key string) (time.Duration, ExpiryStatus) {
	now := t.nanos()
	e, ok := t.shardOf(key).lookup(key, now)

	// key does not exist
	if !ok {
		return 0, ExpNotFound
	}

	// key without TTL
	if e.ExpireAt == 0 {
		return 0, ExpNoTimeout
	}

	return time.Duration(e.ExpireAt - now), ExpActive
}

func (t *tx) ExpireAt(key string, at int64) bool {
	m := t.shardOf(key)
	e, ok := m.lookup(key, t.nanos())
	if !ok {
		return false
	}
	m.setDeadline(key, e, at)
	return true
}

func (t *tx) Persist(key string) bool {
	m := t.shardOf(key)
	e, ok := m.lookup(key, t.nanos())
	if !ok || e.ExpireAt == 0 {
		return false
	}
	m.setDeadline(key, e, 0)
	return true
}

func (t *tx) Rename(src, dst string) bool {
	from := t.shardOf(src)
	to := t.shardOf(dst)

	e, ok := from.lookup(src, t.nanos())
	if !ok {
		return false
	}
	if src == dst {
		return true
	}

	from.remove(src)
	to.store(dst, e)
	return true
}

func (t *tx) Keys(pattern string) []string {
	now := t.nanos()
	keys := make([]string, 0)

	for _, m := range t.shards() {
		for key, e := range m.data {
			if e.expired(now) {
				m.expire(key)
				continue
			}
			if Match(pattern, key) {
				keys = append(keys, key)
			}
		}
	}

	slices.Sort(keys)
	return keys
}

func (t *tx) Len() int {
	now := t.nanos()
	n := 0

	for _, m := range t.shards() {
		// only keys with a deadline can be stale
		for key := range m.volatile {
			if m.data[key].expired(now) {
				m.expire(key)
			}
		}
		n += len(m.data)
	}

	return n
}

func (t *tx) Clear() {
	for _, m := range t.shards() {
		m.clear()
	}
}

func (t *tx) shards() []*MapStorage {
	if t.all == nil {
		panic("storage: keyspace-wide operation outside AtomicAll")
	}
	return t.all
}
