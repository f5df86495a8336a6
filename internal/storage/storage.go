package storage

import (
	"time"

	"github.com/eternalApril/kilodb/internal/datatype"
)

type ExpiryStatus int

const (
	// ExpNotFound means that the key does not exist
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means that the key exists, but it does not have a TTL
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means that the key has an active lifetime
	ExpActive ExpiryStatus = 1
)

// Entry pairs a value with its deadline
type Entry struct {
	Value    datatype.Value
	ExpireAt int64 // Unix nanoseconds. 0 means no TTL
}

// expired reports whether the entry is past its deadline at now
func (e *Entry) expired(now int64) bool {
	return e.ExpireAt != 0 && now >= e.ExpireAt
}

type SetOptions struct {
	TTL      time.Duration // key lifetime
	ExpireAt int64         // absolute deadline in Unix nanoseconds, takes precedence over TTL
	KeepTTL  bool          // if true, retain the existing TTL (ignore TTL and ExpireAt)
	NX       bool          // only set if the key does not exist
	XX       bool          // only set if the key already exists
}

// Tx is the view of the keyspace a single command runs against.
// All methods operate on the shards locked by Atomic or AtomicAll;
// touching a key outside them is a programming error and panics
type Tx interface {
	// Get returns the live value of key. An expired entry is deleted and reported absent
	Get(key string) (datatype.Value, bool)

	// Set writes the value based on the options. Returns true if recording has been performed
	Set(key string, value datatype.Value, options SetOptions) bool

	// Delete deletes the key. Returns true if a live key existed and was deleted
	Delete(key string) bool

	// Expiry returns the remaining lifetime and status as ExpiryStatus
	Expiry(key string) (time.Duration, ExpiryStatus)

	// ExpireAt sets an absolute deadline (Unix nanoseconds) on a live key.
	// Returns false if the key does not exist
	ExpireAt(key string, at int64) bool

	// Persist removes the expiration date of the key, making it eternal.
	// Returns true if a deadline was removed
	Persist(key string) bool

	// Rename moves the value and the deadline of src to dst, replacing dst.
	// Returns false if src does not exist
	Rename(src, dst string) bool

	// Keys returns the live keys matching a glob pattern, sorted. Requires AtomicAll
	Keys(pattern string) []string

	// Len returns the number of live keys. Requires AtomicAll
	Len() int

	// Clear removes every key. Requires AtomicAll
	Clear()

	// Now is the time the transaction started, used for all deadline checks inside it
	Now() time.Time
}

// Storage is the keyspace shared by all connections
type Storage interface {
	// Atomic runs fn with exclusive access to the shards owning keys
	Atomic(keys []string, fn func(tx Tx))

	// AtomicAll runs fn with exclusive access to the whole keyspace
	AtomicAll(fn func(tx Tx))

	// DeleteExpired randomly selects a limit of keys with a TTL from each shard and deletes the expired ones.
	// Returns the ratio of expired keys among the sampled ones
	DeleteExpired(limit int) float64

	// Size returns the number of stored entries, including expired ones not yet purged
	Size() int
}

// Clock returns the current time
type Clock func() time.Time

type options struct {
	clock    Clock
	onExpire func(key string)
}

// Option configures a storage
type Option func(*options)

// WithClock replaces time.Now, mainly for tests
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithExpireHook registers fn to be called once for every key deleted because its deadline passed.
// fn runs with the shard lock held and must not call back into the storage
func WithExpireHook(fn func(key string)) Option {
	return func(o *options) {
		o.onExpire = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    time.Now,
		onExpire: func(string) {},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
