package storage

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/spaolacci/murmur3"
)

// ShardedMapStorage is a thread-safe key-value storage,
// divided into segments (shards) to reduce contention for locking
type ShardedMapStorage struct {
	shards    []*MapStorage
	shardMask uint32
	opts      options
}

// NewShardedMapStorage creates a new instance of ShardedMapStorage.
// The requestedShards parameter must be a power of two for efficient allocation.
// The maximum allowed number of shards is 64.
func NewShardedMapStorage(requestedShards uint, opts ...Option) (*ShardedMapStorage, error) {
	if bits.OnesCount(requestedShards) != 1 {
		return nil, errors.New("requested shards must be a power of 2")
	}

	if requestedShards > 64 {
		return nil, errors.New("requested shards must be less or equal than 64")
	}

	o := buildOptions(opts)
	s := &ShardedMapStorage{
		shards:    make([]*MapStorage, requestedShards),
		shardMask: uint32(requestedShards - 1),
		opts:      o,
	}

	for i := range s.shards {
		s.shards[i] = newMapStorage(o)
	}

	return s, nil
}

// getShardIndex returns index of shard by key
func (s *ShardedMapStorage) getShardIndex(key string) uint32 {
	return murmur3.Sum32([]byte(key)) & s.shardMask
}

// Atomic locks the shards owning keys in ascending index order, so two commands
// sharing shards can never wait on each other in a cycle
func (s *ShardedMapStorage) Atomic(keys []string, fn func(tx Tx)) {
	var mask uint64
	for _, key := range keys {
		mask |= 1 << s.getShardIndex(key)
	}

	for m := mask; m != 0; m &= m - 1 {
		s.shards[bits.TrailingZeros64(m)].mu.Lock()
	}
	defer func() {
		for m := mask; m != 0; m &= m - 1 {
			s.shards[bits.TrailingZeros64(m)].mu.Unlock()
		}
	}()

	fn(&tx{
		shardOf: func(key string) *MapStorage {
			idx := s.getShardIndex(key)
			if mask&(1<<idx) == 0 {
				panic(fmt.Sprintf("storage: key %q used outside its transaction", key))
			}
			return s.shards[idx]
		},
		now: s.opts.clock(),
	})
}

// AtomicAll locks every shard in ascending order
func (s *ShardedMapStorage) AtomicAll(fn func(tx Tx)) {
	for _, shard := range s.shards {
		shard.mu.Lock()
	}
	defer func() {
		for _, shard := range s.shards {
			shard.mu.Unlock()
		}
	}()

	fn(&tx{
		shardOf: func(key string) *MapStorage {
			return s.shards[s.getShardIndex(key)]
		},
		all: s.shards,
		now: s.opts.clock(),
	})
}

// DeleteExpired randomly selects a limit of keys from each shard and delete if his TTL has expired
func (s *ShardedMapStorage) DeleteExpired(limit int) float64 {
	var wg sync.WaitGroup
	var totalRatio float64
	var mu sync.Mutex // protects totalRatio

	for _, shard := range s.shards {
		wg.Go(func() {
			ratio := shard.DeleteExpired(limit)

			mu.Lock()
			totalRatio += ratio
			mu.Unlock()
		})
	}

	wg.Wait()

	return totalRatio / float64(len(s.shards))
}

// Size returns the number of stored entries across all shards
func (s *ShardedMapStorage) Size() int {
	n := 0
	for _, shard := range s.shards {
		n += shard.Size()
	}
	return n
}
