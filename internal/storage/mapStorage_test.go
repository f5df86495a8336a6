package storage

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func str(s string) datatype.Value {
	return datatype.NewString([]byte(s))
}

func getString(t *testing.T, s Storage, key string) (string, bool) {
	t.Helper()

	var out string
	var found bool
	s.Atomic([]string{key}, func(tx Tx) {
		v, ok := tx.Get(key)
		if !ok {
			return
		}
		sv, isStr := v.(*datatype.String)
		require.True(t, isStr, "key %q holds %s", key, v.Kind())
		out, found = string(sv.Bytes()), true
	})
	return out, found
}

func setString(s Storage, key, val string, opts SetOptions) bool {
	var ok bool
	s.Atomic([]string{key}, func(tx Tx) {
		ok = tx.Set(key, str(val), opts)
	})
	return ok
}

func TestMapStorage_Concurrency(t *testing.T) {
	s := NewMapStorage()
	const workers = 100
	const opsPerWorker = 10000

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

			for j := 0; j < opsPerWorker; j++ {
				key := fmt.Sprintf("key-%d", r.Intn(50))
				val := fmt.Sprintf("val-%d", j)

				op := r.Intn(3)
				switch op {
				case 0:
					setString(s, key, val, SetOptions{TTL: time.Duration(r.Intn(2)) * time.Millisecond})
				case 1:
					s.Atomic([]string{key}, func(tx Tx) { tx.Get(key) })
				case 2:
					s.Atomic([]string{key}, func(tx Tx) { tx.Delete(key) })
				}
			}
		}(i)
	}

	wg.Wait()
}

func FuzzMapStorage(f *testing.F) {
	s := NewMapStorage()

	f.Add("key1", "val1")
	f.Add("special", "!@#$%^&*()")

	f.Fuzz(func(t *testing.T, key string, val string) {
		setString(s, key, val, SetOptions{})

		v, ok := getString(t, s, key)
		if !ok || v != val {
			t.Errorf("Get failed after Set: key=%q, val=%q", key, val)
		}
	})
}

func TestMapStorage_SetOptions(t *testing.T) {
	clock := newFakeClock()
	s := NewMapStorage(WithClock(clock.Now))

	assert.False(t, setString(s, "k", "v", SetOptions{XX: true}), "XX on a missing key")
	assert.True(t, setString(s, "k", "v1", SetOptions{NX: true}))
	assert.False(t, setString(s, "k", "v2", SetOptions{NX: true}), "NX on an existing key")

	v, _ := getString(t, s, "k")
	assert.Equal(t, "v1", v)

	assert.True(t, setString(s, "k", "v3", SetOptions{XX: true, TTL: 10 * time.Second}))
	assert.True(t, setString(s, "k", "v4", SetOptions{KeepTTL: true}))

	s.Atomic([]string{"k"}, func(tx Tx) {
		ttl, status := tx.Expiry("k")
		assert.Equal(t, ExpActive, status)
		assert.Equal(t, 10*time.Second, ttl)
	})

	// a plain write clears the deadline
	assert.True(t, setString(s, "k", "v5", SetOptions{}))
	s.Atomic([]string{"k"}, func(tx Tx) {
		_, status := tx.Expiry("k")
		assert.Equal(t, ExpNoTimeout, status)
	})

	// KEEPTTL on a new key means no deadline
	assert.True(t, setString(s, "fresh", "v", SetOptions{KeepTTL: true}))
	s.Atomic([]string{"fresh"}, func(tx Tx) {
		_, status := tx.Expiry("fresh")
		assert.Equal(t, ExpNoTimeout, status)
	})

	at := clock.Now().Add(time.Minute).UnixNano()
	assert.True(t, setString(s, "abs", "v", SetOptions{ExpireAt: at, TTL: time.Second}))
	s.Atomic([]string{"abs"}, func(tx Tx) {
		ttl, _ := tx.Expiry("abs")
		assert.Equal(t, time.Minute, ttl, "ExpireAt wins over TTL")
	})
}

func TestMapStorage_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	var expired []string
	s := NewMapStorage(WithClock(clock.Now), WithExpireHook(func(key string) {
		expired = append(expired, key)
	}))

	setString(s, "k", "v", SetOptions{TTL: time.Second})

	clock.Advance(999 * time.Millisecond)
	_, ok := getString(t, s, "k")
	assert.True(t, ok, "live before the deadline")

	// at the deadline the entry is no longer live
	clock.Advance(time.Millisecond)
	_, ok = getString(t, s, "k")
	assert.False(t, ok)

	// further accesses do not report the key again
	_, ok = getString(t, s, "k")
	assert.False(t, ok)
	s.Atomic([]string{"k"}, func(tx Tx) {
		_, status := tx.Expiry("k")
		assert.Equal(t, ExpNotFound, status)
		assert.False(t, tx.Delete("k"))
	})

	assert.Equal(t, []string{"k"}, expired)
	assert.Zero(t, s.Size())
}

func TestMapStorage_ExpiredKeyIsNewForNX(t *testing.T) {
	clock := newFakeClock()
	s := NewMapStorage(WithClock(clock.Now))

	setString(s, "k", "old", SetOptions{TTL: time.Second})
	clock.Advance(2 * time.Second)

	assert.True(t, setString(s, "k", "new", SetOptions{NX: true}))
	v, _ := getString(t, s, "k")
	assert.Equal(t, "new", v)
}

func TestMapStorage_ExpireAtPersist(t *testing.T) {
	clock := newFakeClock()
	s := NewMapStorage(WithClock(clock.Now))

	s.Atomic([]string{"k"}, func(tx Tx) {
		assert.False(t, tx.ExpireAt("k", clock.Now().Add(time.Second).UnixNano()), "missing key")
		assert.False(t, tx.Persist("k"))
	})

	setString(s, "k", "v", SetOptions{})
	s.Atomic([]string{"k"}, func(tx Tx) {
		assert.False(t, tx.Persist("k"), "no deadline to remove")
		assert.True(t, tx.ExpireAt("k", tx.Now().Add(5*time.Second).UnixNano()))

		ttl, status := tx.Expiry("k")
		assert.Equal(t, ExpActive, status)
		assert.Equal(t, 5*time.Second, ttl)

		assert.True(t, tx.Persist("k"))
		_, status = tx.Expiry("k")
		assert.Equal(t, ExpNoTimeout, status)
	})

	// a deadline in the past hides the key on the next access
	s.Atomic([]string{"k"}, func(tx Tx) {
		assert.True(t, tx.ExpireAt("k", tx.Now().UnixNano()))
	})
	_, ok := getString(t, s, "k")
	assert.False(t, ok)
}

func TestMapStorage_Rename(t *testing.T) {
	clock := newFakeClock()
	s := NewMapStorage(WithClock(clock.Now))

	setString(s, "src", "v", SetOptions{TTL: time.Minute})
	setString(s, "dst", "old", SetOptions{})

	s.Atomic([]string{"src", "dst"}, func(tx Tx) {
		assert.True(t, tx.Rename("src", "dst"))
		assert.False(t, tx.Rename("missing", "dst"))

		_, ok := tx.Get("src")
		assert.False(t, ok)

		ttl, status := tx.Expiry("dst")
		assert.Equal(t, ExpActive, status)
		assert.Equal(t, time.Minute, ttl)
	})

	v, _ := getString(t, s, "dst")
	assert.Equal(t, "v", v)

	s.Atomic([]string{"dst"}, func(tx Tx) {
		assert.True(t, tx.Rename("dst", "dst"))
	})
	v, _ = getString(t, s, "dst")
	assert.Equal(t, "v", v)
}

func TestMapStorage_DeleteExpired(t *testing.T) {
	clock := newFakeClock()
	hooks := 0
	s := NewMapStorage(WithClock(clock.Now), WithExpireHook(func(string) { hooks++ }))

	for i := 0; i < 10; i++ {
		setString(s, fmt.Sprintf("short-%d", i), "v", SetOptions{TTL: time.Second})
		setString(s, fmt.Sprintf("long-%d", i), "v", SetOptions{TTL: time.Hour})
		setString(s, fmt.Sprintf("eternal-%d", i), "v", SetOptions{})
	}

	assert.Zero(t, s.DeleteExpired(100), "nothing expired yet")

	clock.Advance(time.Minute)
	ratio := s.DeleteExpired(100)
	assert.InDelta(t, 0.5, ratio, 0.001, "only keys with a TTL are sampled")
	assert.Equal(t, 10, hooks)
	assert.Equal(t, 20, s.Size())

	assert.Zero(t, s.DeleteExpired(100))
	assert.Equal(t, 10, hooks, "each expired key is reported once")
}

func TestMapStorage_KeyspaceWide(t *testing.T) {
	clock := newFakeClock()
	s := NewMapStorage(WithClock(clock.Now))

	setString(s, "user:1", "a", SetOptions{})
	setString(s, "user:2", "b", SetOptions{TTL: time.Second})
	setString(s, "order:1", "c", SetOptions{})

	s.AtomicAll(func(tx Tx) {
		assert.Equal(t, 3, tx.Len())
		assert.Equal(t, []string{"user:1", "user:2"}, tx.Keys("user:*"))
	})

	clock.Advance(time.Second)
	s.AtomicAll(func(tx Tx) {
		assert.Equal(t, []string{"order:1", "user:1"}, tx.Keys("*"))
		assert.Equal(t, 2, tx.Len())

		tx.Clear()
		assert.Zero(t, tx.Len())
		assert.Empty(t, tx.Keys("*"))
	})
	assert.Zero(t, s.DeleteExpired(10))
}
