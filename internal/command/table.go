package command

import "sort"

var (
	flagsRead      = []string{"readonly"}
	flagsReadFast  = []string{"readonly", "fast"}
	flagsWrite     = []string{"write"}
	flagsWriteFast = []string{"write", "fast"}
	flagsWriteOOM  = []string{"write", "denyoom"}
	flagsWriteOOMF = []string{"write", "denyoom", "fast"}
)

// specs is the command table. Key positions follow the COMMAND reply convention
var specs = []*Spec{
	// connection and server
	{Name: "PING", Arity: -1, Flags: []string{"fast", "stale"}, Scope: ScopeNone,
		Summary: "Ping the server.", Complexity: "O(1)", Group: "connection", Since: "1.0.0",
		parse: parsePing},
	{Name: "ECHO", Arity: 2, Flags: []string{"fast"}, Scope: ScopeNone,
		Summary: "Returns the given string.", Complexity: "O(1)", Group: "connection", Since: "1.0.0",
		parse: parseEcho},
	{Name: "COMMAND", Arity: -1, Flags: []string{"random", "loading", "stale"}, Scope: ScopeNone,
		Summary: "Get array of command details.", Complexity: "O(N) where N is the number of commands to look up.", Group: "server", Since: "2.8.13",
		parse: parseInfo},
	{Name: "FLUSHDB", Arity: -1, Flags: flagsWrite, Scope: ScopeAll,
		Summary: "Remove all keys from the current database.", Complexity: "O(N) where N is the number of keys in the selected database.", Group: "server", Since: "1.0.0",
		parse: parseFlushDB},
	{Name: "DBSIZE", Arity: 1, Flags: flagsReadFast, Scope: ScopeAll,
		Summary: "Return the number of keys in the selected database.", Complexity: "O(N) where N is the number of keys with a TTL.", Group: "server", Since: "1.0.0",
		parse: parseDBSize},

	// strings
	{Name: "GET", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the value of a key.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: keyOnly},
	{Name: "SET", Arity: -3, Flags: flagsWriteOOM, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Set the string value of a key.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: parseSet},
	{Name: "MGET", Arity: -2, Flags: flagsReadFast, FirstKey: 1, LastKey: -1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the values of all the given keys.", Complexity: "O(N) where N is the number of keys to retrieve.", Group: "string", Since: "1.0.0",
		parse: multiKey},
	{Name: "MSET", Arity: -3, Flags: flagsWriteOOM, FirstKey: 1, LastKey: -1, Step: 2, Scope: ScopeKeys,
		Summary: "Set multiple keys to multiple values.", Complexity: "O(N) where N is the number of keys to set.", Group: "string", Since: "1.0.1",
		parse: parseMSet},
	{Name: "INCR", Arity: 2, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Increment the integer value of a key by one.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: parseIncrBy},
	{Name: "DECR", Arity: 2, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Decrement the integer value of a key by one.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: parseIncrBy},
	{Name: "INCRBY", Arity: 3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Increment the integer value of a key by the given amount.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: parseIncrBy},
	{Name: "DECRBY", Arity: 3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Decrement the integer value of a key by the given number.", Complexity: "O(1)", Group: "string", Since: "1.0.0",
		parse: parseIncrBy},
	{Name: "APPEND", Arity: 3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Append a value to a key.", Complexity: "O(1)", Group: "string", Since: "2.0.0",
		parse: parseAppend},
	{Name: "STRLEN", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the length of the value stored in a key.", Complexity: "O(1)", Group: "string", Since: "2.2.0",
		parse: keyOnly},

	// generic
	{Name: "DEL", Arity: -2, Flags: flagsWrite, FirstKey: 1, LastKey: -1, Step: 1, Scope: ScopeKeys,
		Summary: "Delete a key.", Complexity: "O(N) where N is the number of keys that will be removed.", Group: "generic", Since: "1.0.0",
		parse: multiKey},
	{Name: "EXISTS", Arity: -2, Flags: flagsReadFast, FirstKey: 1, LastKey: -1, Step: 1, Scope: ScopeKeys,
		Summary: "Determine if a key exists.", Complexity: "O(N) where N is the number of keys to check.", Group: "generic", Since: "1.0.0",
		parse: multiKey},
	{Name: "EXPIRE", Arity: 3, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Set a key's time to live in seconds.", Complexity: "O(1)", Group: "generic", Since: "1.0.0",
		parse: parseExpire},
	{Name: "PEXPIRE", Arity: 3, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Set a key's time to live in milliseconds.", Complexity: "O(1)", Group: "generic", Since: "2.6.0",
		parse: parseExpire},
	{Name: "TTL", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the time to live for a key in seconds.", Complexity: "O(1)", Group: "generic", Since: "1.0.0",
		parse: keyOnly},
	{Name: "PTTL", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the time to live for a key in milliseconds.", Complexity: "O(1)", Group: "generic", Since: "2.6.0",
		parse: keyOnly},
	{Name: "PERSIST", Arity: 2, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Remove the expiration from a key.", Complexity: "O(1)", Group: "generic", Since: "2.2.0",
		parse: keyOnly},
	{Name: "TYPE", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Determine the type stored at key.", Complexity: "O(1)", Group: "generic", Since: "1.0.0",
		parse: keyOnly},
	{Name: "RENAME", Arity: 3, Flags: flagsWrite, FirstKey: 1, LastKey: 2, Step: 1, Scope: ScopeKeys,
		Summary: "Rename a key.", Complexity: "O(1)", Group: "generic", Since: "1.0.0",
		parse: parseRename},
	{Name: "KEYS", Arity: 2, Flags: flagsRead, Scope: ScopeAll,
		Summary: "Find all keys matching the given pattern.", Complexity: "O(N) with N being the number of keys in the database.", Group: "generic", Since: "1.0.0",
		parse: parseKeys},

	// hashes
	{Name: "HSET", Arity: -4, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Set the string value of a hash field.", Complexity: "O(N) where N is the number of field/value pairs being set.", Group: "hash", Since: "2.0.0",
		parse: parseHSet},
	{Name: "HGET", Arity: 3, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the value of a hash field.", Complexity: "O(1)", Group: "hash", Since: "2.0.0",
		parse: keyMember},
	{Name: "HGETALL", Arity: 2, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get all the fields and values in a hash.", Complexity: "O(N) where N is the size of the hash.", Group: "hash", Since: "2.0.0",
		parse: keyOnly},
	{Name: "HDEL", Arity: -3, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Delete one or more hash fields.", Complexity: "O(N) where N is the number of fields to be removed.", Group: "hash", Since: "2.0.0",
		parse: keyValues},
	{Name: "HEXISTS", Arity: 3, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Determine if a hash field exists.", Complexity: "O(1)", Group: "hash", Since: "2.0.0",
		parse: keyMember},
	{Name: "HLEN", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the number of fields in a hash.", Complexity: "O(1)", Group: "hash", Since: "2.0.0",
		parse: keyOnly},
	{Name: "HKEYS", Arity: 2, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get all the fields in a hash.", Complexity: "O(N) where N is the size of the hash.", Group: "hash", Since: "2.0.0",
		parse: keyOnly},
	{Name: "HVALS", Arity: 2, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get all the values in a hash.", Complexity: "O(N) where N is the size of the hash.", Group: "hash", Since: "2.0.0",
		parse: keyOnly},

	// lists
	{Name: "LPUSH", Arity: -3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Prepend one or multiple elements to a list.", Complexity: "O(1) for each element added.", Group: "list", Since: "1.0.0",
		parse: keyValues},
	{Name: "RPUSH", Arity: -3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Append one or multiple elements to a list.", Complexity: "O(1) for each element added.", Group: "list", Since: "1.0.0",
		parse: keyValues},
	{Name: "LPOP", Arity: 2, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Remove and get the first element in a list.", Complexity: "O(1)", Group: "list", Since: "1.0.0",
		parse: keyOnly},
	{Name: "RPOP", Arity: 2, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Remove and get the last element in a list.", Complexity: "O(1)", Group: "list", Since: "1.0.0",
		parse: keyOnly},
	{Name: "LRANGE", Arity: 4, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get a range of elements from a list.", Complexity: "O(S+N) where S is the start offset and N is the number of elements in the range.", Group: "list", Since: "1.0.0",
		parse: parseRange},
	{Name: "LLEN", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the length of a list.", Complexity: "O(1)", Group: "list", Since: "1.0.0",
		parse: keyOnly},
	{Name: "LINDEX", Arity: 3, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get an element from a list by its index.", Complexity: "O(1)", Group: "list", Since: "1.0.0",
		parse: parseLIndex},

	// sets
	{Name: "SADD", Arity: -3, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Add one or more members to a set.", Complexity: "O(1) for each element added.", Group: "set", Since: "1.0.0",
		parse: keyValues},
	{Name: "SREM", Arity: -3, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Remove one or more members from a set.", Complexity: "O(N) where N is the number of members to be removed.", Group: "set", Since: "1.0.0",
		parse: keyValues},
	{Name: "SMEMBERS", Arity: 2, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get all the members in a set.", Complexity: "O(N) where N is the set cardinality.", Group: "set", Since: "1.0.0",
		parse: keyOnly},
	{Name: "SISMEMBER", Arity: 3, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Determine if a given value is a member of a set.", Complexity: "O(1)", Group: "set", Since: "1.0.0",
		parse: keyMember},
	{Name: "SCARD", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the number of members in a set.", Complexity: "O(1)", Group: "set", Since: "1.0.0",
		parse: keyOnly},

	// sorted sets
	{Name: "ZADD", Arity: -4, Flags: flagsWriteOOMF, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Add one or more members to a sorted set, or update its score if it already exists.", Complexity: "O(log(N)) for each item added, where N is the number of elements in the sorted set.", Group: "sorted_set", Since: "1.2.0",
		parse: parseZAdd},
	{Name: "ZREM", Arity: -3, Flags: flagsWriteFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Remove one or more members from a sorted set.", Complexity: "O(M*log(N)) with N being the number of elements in the sorted set and M the number of elements to be removed.", Group: "sorted_set", Since: "1.2.0",
		parse: keyValues},
	{Name: "ZRANGE", Arity: -4, Flags: flagsRead, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Return a range of members in a sorted set, by index.", Complexity: "O(N) where N is the number of elements up to the end of the range.", Group: "sorted_set", Since: "1.2.0",
		parse: parseRange},
	{Name: "ZCARD", Arity: 2, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the number of members in a sorted set.", Complexity: "O(1)", Group: "sorted_set", Since: "1.2.0",
		parse: keyOnly},
	{Name: "ZRANK", Arity: 3, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Determine the index of a member in a sorted set.", Complexity: "O(N)", Group: "sorted_set", Since: "2.0.0",
		parse: keyMember},
	{Name: "ZSCORE", Arity: 3, Flags: flagsReadFast, FirstKey: 1, LastKey: 1, Step: 1, Scope: ScopeKeys,
		Summary: "Get the score associated with the given member in a sorted set.", Complexity: "O(1)", Group: "sorted_set", Since: "1.2.0",
		parse: keyMember},
}

var (
	registry = make(map[string]*Spec, len(specs))
	ordered  []*Spec
)

func init() {
	for _, s := range specs {
		registry[s.Name] = s
	}

	ordered = append(ordered, specs...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})
}
