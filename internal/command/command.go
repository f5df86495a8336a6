// Package command turns a decoded argument vector into a validated, typed command.
package command

import (
	"time"
)

// Command is a parsed request. Name is the upper-case command name
// and Keys lists every key the command touches
type Command interface {
	Name() string
	Keys() []string
}

// Unknown is the fallback for unknown names and arguments that failed validation
type Unknown struct {
	Raw []string
	Err error
}

func (c *Unknown) Name() string {
	if len(c.Raw) == 0 {
		return ""
	}
	return c.Raw[0]
}

func (c *Unknown) Keys() []string { return nil }

// Key is a command taking a single key: GET, INCR, HGETALL, LPOP, TTL, ...
type Key struct {
	Cmd string
	Key string
}

func (c *Key) Name() string   { return c.Cmd }
func (c *Key) Keys() []string { return []string{c.Key} }

// KeyMember addresses one field or member of a key: HGET, HEXISTS, SISMEMBER, ZRANK, ZSCORE
type KeyMember struct {
	Cmd    string
	Key    string
	Member string
}

func (c *KeyMember) Name() string   { return c.Cmd }
func (c *KeyMember) Keys() []string { return []string{c.Key} }

// KeyValues carries a key and a non-empty list of values: LPUSH, RPUSH, SADD, SREM, HDEL, ZREM
type KeyValues struct {
	Cmd    string
	Key    string
	Values [][]byte
}

func (c *KeyValues) Name() string   { return c.Cmd }
func (c *KeyValues) Keys() []string { return []string{c.Key} }

// MultiKey carries a non-empty list of keys: DEL, EXISTS, MGET
type MultiKey struct {
	Cmd     string
	KeyList []string
}

func (c *MultiKey) Name() string   { return c.Cmd }
func (c *MultiKey) Keys() []string { return c.KeyList }

// Set is SET key value [NX|XX] [EX|PX|EXAT|PXAT|KEEPTTL]
type Set struct {
	Key      string
	Value    []byte
	NX       bool
	XX       bool
	KeepTTL  bool
	TTL      time.Duration // relative expiry from EX or PX, 0 if absent
	ExpireAt time.Time     // absolute expiry from EXAT or PXAT, zero if absent
}

func (c *Set) Name() string   { return "SET" }
func (c *Set) Keys() []string { return []string{c.Key} }

// KeyValue is a key with its new value
type KeyValue struct {
	Key   string
	Value []byte
}

// MSet is MSET key value [key value ...]
type MSet struct {
	Pairs []KeyValue
}

func (c *MSet) Name() string { return "MSET" }

func (c *MSet) Keys() []string {
	keys := make([]string, len(c.Pairs))
	for i, p := range c.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// FieldValue is one hash field assignment
type FieldValue struct {
	Field string
	Value []byte
}

// HSet is HSET key field value [field value ...]
type HSet struct {
	Key    string
	Fields []FieldValue
}

func (c *HSet) Name() string   { return "HSET" }
func (c *HSet) Keys() []string { return []string{c.Key} }

// ScoreMember is one sorted set assignment
type ScoreMember struct {
	Score  float64
	Member string
}

// ZAdd is ZADD key score member [score member ...]
type ZAdd struct {
	Key     string
	Members []ScoreMember
}

func (c *ZAdd) Name() string   { return "ZADD" }
func (c *ZAdd) Keys() []string { return []string{c.Key} }

// Range is LRANGE or ZRANGE with inclusive, possibly negative bounds
type Range struct {
	Cmd        string
	Key        string
	Start      int64
	Stop       int64
	WithScores bool
}

func (c *Range) Name() string   { return c.Cmd }
func (c *Range) Keys() []string { return []string{c.Key} }

// LIndex is LINDEX key index
type LIndex struct {
	Key   string
	Index int64
}

func (c *LIndex) Name() string   { return "LINDEX" }
func (c *LIndex) Keys() []string { return []string{c.Key} }

// Expire is EXPIRE or PEXPIRE. TTL may be negative
type Expire struct {
	Cmd string
	Key string
	TTL time.Duration
}

func (c *Expire) Name() string   { return c.Cmd }
func (c *Expire) Keys() []string { return []string{c.Key} }

// IncrBy is INCR, DECR, INCRBY or DECRBY, normalized to a signed delta
type IncrBy struct {
	Cmd   string
	Key   string
	Delta int64
}

func (c *IncrBy) Name() string   { return c.Cmd }
func (c *IncrBy) Keys() []string { return []string{c.Key} }

// Append is APPEND key value
type Append struct {
	Key   string
	Value []byte
}

func (c *Append) Name() string   { return "APPEND" }
func (c *Append) Keys() []string { return []string{c.Key} }

// Rename is RENAME src dst
type Rename struct {
	Src string
	Dst string
}

func (c *Rename) Name() string   { return "RENAME" }
func (c *Rename) Keys() []string { return []string{c.Src, c.Dst} }

// KeysPattern is KEYS pattern
type KeysPattern struct {
	Pattern string
}

func (c *KeysPattern) Name() string   { return "KEYS" }
func (c *KeysPattern) Keys() []string { return nil }

// Ping is PING [message]
type Ping struct {
	Message    []byte
	HasMessage bool
}

func (c *Ping) Name() string   { return "PING" }
func (c *Ping) Keys() []string { return nil }

// Echo is ECHO message
type Echo struct {
	Message []byte
}

func (c *Echo) Name() string   { return "ECHO" }
func (c *Echo) Keys() []string { return nil }

// FlushDB is FLUSHDB [ASYNC|SYNC]. Both modes flush synchronously
type FlushDB struct{}

func (c *FlushDB) Name() string   { return "FLUSHDB" }
func (c *FlushDB) Keys() []string { return nil }

// DBSize is DBSIZE
type DBSize struct{}

func (c *DBSize) Name() string   { return "DBSIZE" }
func (c *DBSize) Keys() []string { return nil }

// Info is COMMAND [COUNT | DOCS [name ...] | INFO [name ...]]
type Info struct {
	Sub   string // upper-case subcommand, empty for plain COMMAND
	Names []string
}

func (c *Info) Name() string   { return "COMMAND" }
func (c *Info) Keys() []string { return nil }
