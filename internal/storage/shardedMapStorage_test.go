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

func TestNewShardedMapStorage(t *testing.T) {
	tests := []struct {
		name        string
		shards      uint
		expectError bool
	}{
		{"Valid 1 shard", 1, false},
		{"Valid 2 shards", 2, false},
		{"Valid 64 shards", 64, false},
		{"Invalid 0 shards", 0, true},
		{"Invalid 3 shards (not power of 2)", 3, true},
		{"Invalid 63 shards (not power of 2)", 63, true},
		{"Invalid 128 shards (too many)", 128, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewShardedMapStorage(tt.shards)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}

			require.NoError(t, err)
			assert.Len(t, s.shards, int(tt.shards))
			assert.Equal(t, uint32(tt.shards-1), s.shardMask)
		})
	}
}

func TestShardedMapStorage_Distribution(t *testing.T) {
	shardsCount := uint(16)
	s, err := NewShardedMapStorage(shardsCount)
	require.NoError(t, err)

	keysPopulated := make(map[int]int)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		setString(s, key, "val", SetOptions{})

		shardIdx := s.getShardIndex(key)
		if _, ok := s.shards[shardIdx].data[key]; !ok {
			t.Errorf("Key %s hashed to shard %d but not found there", key, shardIdx)
		}
		keysPopulated[int(shardIdx)]++
	}

	if len(keysPopulated) < int(shardsCount) {
		t.Logf("Warning: Not all shards were used with 100 keys. Used: %d/%d.", len(keysPopulated), shardsCount)
	}
}

func TestShardedMapStorage_Concurrent(t *testing.T) {
	s, err := NewShardedMapStorage(16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	workers := 50
	ops := 5000

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

			for j := 0; j < ops; j++ {
				a := fmt.Sprintf("key-%d", r.Intn(100))
				b := fmt.Sprintf("key-%d", r.Intn(100))

				switch r.Intn(4) {
				case 0:
					setString(s, a, fmt.Sprintf("val-%d", j), SetOptions{})
				case 1:
					s.Atomic([]string{a}, func(tx Tx) { tx.Get(a) })
				case 2:
					// multi-shard commands lock in order, so opposite key orders cannot deadlock
					s.Atomic([]string{a, b}, func(tx Tx) { tx.Rename(a, b) })
				case 3:
					s.AtomicAll(func(tx Tx) { tx.Len() })
				}
			}
		}(i)
	}

	wg.Wait()
}

// A multi-key command is never observed half-applied
func TestShardedMapStorage_MultiKeyAtomicity(t *testing.T) {
	s, err := NewShardedMapStorage(8)
	require.NoError(t, err)

	keys := make([]string, 16)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Go(func() {
		for gen := 0; ; gen++ {
			select {
			case <-stop:
				return
			default:
			}
			val := fmt.Sprint(gen)
			s.Atomic(keys, func(tx Tx) {
				for _, k := range keys {
					tx.Set(k, str(val), SetOptions{})
				}
			})
		}
	})

	for i := 0; i < 2000; i++ {
		s.Atomic(keys, func(tx Tx) {
			var first string
			for j, k := range keys {
				v, ok := tx.Get(k)
				if !ok {
					return
				}
				cur := string(v.(*datatype.String).Bytes())
				if j == 0 {
					first = cur
				} else if cur != first {
					t.Errorf("observed mixed generations %q and %q", first, cur)
				}
			}
		})
	}

	close(stop)
	wg.Wait()
}

func TestShardedMapStorage_KeyOutsideTransactionPanics(t *testing.T) {
	s, err := NewShardedMapStorage(64)
	require.NoError(t, err)

	// find a key living on another shard
	other := ""
	for i := 0; other == ""; i++ {
		k := fmt.Sprintf("probe-%d", i)
		if s.getShardIndex(k) != s.getShardIndex("a") {
			other = k
		}
	}

	assert.Panics(t, func() {
		s.Atomic([]string{"a"}, func(tx Tx) { tx.Get(other) })
	})
	assert.Panics(t, func() {
		s.Atomic([]string{"a"}, func(tx Tx) { tx.Len() })
	})

	// locks were released by the panicking transactions
	setString(s, other, "v", SetOptions{})
	_, ok := getString(t, s, other)
	assert.True(t, ok)
}

func TestShardedMapStorage_ExpiryAcrossShards(t *testing.T) {
	clock := newFakeClock()
	var mu sync.Mutex
	expired := map[string]int{}

	s, err := NewShardedMapStorage(4, WithClock(clock.Now), WithExpireHook(func(key string) {
		mu.Lock()
		expired[key]++
		mu.Unlock()
	}))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		setString(s, fmt.Sprintf("k%d", i), "v", SetOptions{TTL: time.Second})
	}
	setString(s, "keep", "v", SetOptions{})

	clock.Advance(time.Second)

	// readers, the sweep and DBSIZE race to discover the same expired keys
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Go(func() {
			for i := 0; i < 100; i++ {
				getString(t, s, fmt.Sprintf("k%d", i))
			}
		})
	}
	wg.Go(func() { s.DeleteExpired(20) })
	wg.Go(func() { s.AtomicAll(func(tx Tx) { tx.Len() }) })
	wg.Wait()

	s.AtomicAll(func(tx Tx) {
		assert.Equal(t, 1, tx.Len())
	})

	assert.Len(t, expired, 100)
	for key, n := range expired {
		assert.Equalf(t, 1, n, "key %s reported %d times", key, n)
	}
}

func FuzzShardedMapStorage(f *testing.F) {
	f.Add("key1", "val1")
	f.Add("special", "!@#$%^&*()")

	s, _ := NewShardedMapStorage(8) //nolint:errcheck

	f.Fuzz(func(t *testing.T, key string, val string) {
		setString(s, key, val, SetOptions{})

		v, ok := getString(t, s, key)
		if !ok || v != val {
			t.Errorf("Get failed after Set: key=%q, val=%q", key, val)
		}
	})
}
