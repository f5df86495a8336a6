package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/config"
	"github.com/eternalApril/kilodb/internal/metrics"
	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/eternalApril/kilodb/internal/storage"
	"go.uber.org/zap"
)

// Engine coordinates the execution of commands and manages the background tasks of the repository
type Engine struct {
	commands map[string]handler // Registry of available commands (the key is the command name in uppercase)
	storage  storage.Storage    // Interface to the underlying KV storage
	cfg      *config.Config     // Configuration engine
	stopGC   chan struct{}      // Channel for the background GC stop signal
	gcDone   chan struct{}      // Closed when the GC loop has returned
	stopOnce sync.Once          // Ensures that the stop happens only once
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Option configures optional engine collaborators
type Option func(*Engine)

// WithMetrics records command statistics and GC rounds
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine initializes the engine, registers the commands, and
// if enabled in the config, starts background cleanup of outdated keys
func NewEngine(s storage.Storage, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("storage is required")
	}

	engine := &Engine{
		commands: make(map[string]handler),
		storage:  s,
		cfg:      cfg,
		stopGC:   make(chan struct{}),
		gcDone:   make(chan struct{}),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(engine)
	}

	engine.registerCommands()

	// every parsed command must have exactly one handler
	for _, spec := range command.Specs() {
		if _, ok := engine.commands[spec.Name]; !ok {
			return nil, fmt.Errorf("no handler registered for %s", spec.Name)
		}
	}

	if cfg.GC.Enabled {
		if cfg.GC.Interval <= 0 {
			return nil, fmt.Errorf("invalid gc interval %s", cfg.GC.Interval)
		}
		go engine.startGCLoop()
	} else {
		close(engine.gcDone)
	}

	return engine, nil
}

// startGCLoop triggers the active expiration mechanism
func (e *Engine) startGCLoop() {
	defer close(e.gcDone)

	ticker := time.NewTicker(e.cfg.GC.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.sweep()
		case <-e.stopGC:
			e.logger.Info("GC stopped")
			return
		}
	}
}

// sweep samples keys with a TTL and repeats right away while the expired share
// stays above the threshold, up to MaxRounds times
func (e *Engine) sweep() {
	rounds := max(e.cfg.GC.MaxRounds, 1)

	for round := 0; round < rounds; round++ {
		ratio := e.storage.DeleteExpired(e.cfg.GC.SamplesPerCheck)
		e.metrics.GCSweep()

		if ratio > 0 && e.logger.Core().Enabled(zap.DebugLevel) {
			e.logger.Debug("GC delete expired",
				zap.Float64("expired_ratio", ratio),
				zap.Int("round", round),
			)
		}

		if ratio <= e.cfg.GC.MatchThreshold {
			return
		}
	}
}

// register adds a new command to the engine. The command name is uppercase
func (e *Engine) register(name string, cmd handler) {
	e.commands[strings.ToUpper(name)] = cmd
}

// registerCommands fills the registry with every supported command
func (e *Engine) registerCommands() {
	// connection and server
	e.register("PING", commandFunc(ping))
	e.register("ECHO", commandFunc(echo))
	e.register("COMMAND", commandFunc(commandInfo))
	e.register("FLUSHDB", commandFunc(flushdb))
	e.register("DBSIZE", commandFunc(dbsize))

	// strings
	e.register("GET", commandFunc(get))
	e.register("SET", commandFunc(set))
	e.register("MGET", commandFunc(mget))
	e.register("MSET", commandFunc(mset))
	e.register("INCR", commandFunc(incrBy))
	e.register("DECR", commandFunc(incrBy))
	e.register("INCRBY", commandFunc(incrBy))
	e.register("DECRBY", commandFunc(incrBy))
	e.register("APPEND", commandFunc(appendCmd))
	e.register("STRLEN", commandFunc(strlen))

	// generic
	e.register("DEL", commandFunc(del))
	e.register("EXISTS", commandFunc(exists))
	e.register("EXPIRE", commandFunc(expire))
	e.register("PEXPIRE", commandFunc(expire))
	e.register("TTL", commandFunc(ttl))
	e.register("PTTL", commandFunc(pttl))
	e.register("PERSIST", commandFunc(persist))
	e.register("TYPE", commandFunc(typeCmd))
	e.register("RENAME", commandFunc(rename))
	e.register("KEYS", commandFunc(keys))

	// hashes
	e.register("HSET", commandFunc(hset))
	e.register("HGET", commandFunc(hget))
	e.register("HGETALL", commandFunc(hgetall))
	e.register("HDEL", commandFunc(hdel))
	e.register("HEXISTS", commandFunc(hexists))
	e.register("HLEN", commandFunc(hlen))
	e.register("HKEYS", commandFunc(hkeys))
	e.register("HVALS", commandFunc(hvals))

	// lists
	e.register("LPUSH", commandFunc(push))
	e.register("RPUSH", commandFunc(push))
	e.register("LPOP", commandFunc(pop))
	e.register("RPOP", commandFunc(pop))
	e.register("LRANGE", commandFunc(lrange))
	e.register("LLEN", commandFunc(llen))
	e.register("LINDEX", commandFunc(lindex))

	// sets
	e.register("SADD", commandFunc(sadd))
	e.register("SREM", commandFunc(srem))
	e.register("SMEMBERS", commandFunc(smembers))
	e.register("SISMEMBER", commandFunc(sismember))
	e.register("SCARD", commandFunc(scard))

	// sorted sets
	e.register("ZADD", commandFunc(zadd))
	e.register("ZREM", commandFunc(zrem))
	e.register("ZRANGE", commandFunc(zrange))
	e.register("ZCARD", commandFunc(zcard))
	e.register("ZRANK", commandFunc(zrank))
	e.register("ZSCORE", commandFunc(zscore))
}

// Execute parses one decoded argument vector, runs it atomically against the keyspace
// and returns the reply. Bad input always becomes an error reply
func (e *Engine) Execute(args [][]byte) resp.Value {
	start := time.Now()
	cmd := command.Parse(args)

	if e.logger.Core().Enabled(zap.DebugLevel) {
		// Log the command name and number of args
		e.logger.Debug("executing command",
			zap.String("cmd", cmd.Name()),
			zap.Int("args_count", len(args)),
		)
	}

	var res resp.Value
	name := cmd.Name()

	if u, ok := cmd.(*command.Unknown); ok {
		res = resp.MakeGenericError(u.Err.Error())
		name = "UNKNOWN"
	} else {
		res = e.dispatch(cmd)
	}

	e.metrics.ObserveCommand(name, time.Since(start), errorCategory(res))

	return res
}

// dispatch takes the locks the command needs and runs its handler
func (e *Engine) dispatch(cmd command.Command) resp.Value {
	spec, ok := command.Lookup(cmd.Name())
	if !ok {
		panic(fmt.Sprintf("server: parsed command %s has no spec", cmd.Name()))
	}
	h := e.commands[spec.Name]

	ctx := &cmdContext{cmd: cmd, engine: e}
	var res resp.Value

	switch spec.Scope {
	case command.ScopeNone:
		res = h.execute(ctx)
	case command.ScopeKeys:
		e.storage.Atomic(cmd.Keys(), func(tx storage.Tx) {
			ctx.tx = tx
			res = h.execute(ctx)
		})
	case command.ScopeAll:
		e.storage.AtomicAll(func(tx storage.Tx) {
			ctx.tx = tx
			res = h.execute(ctx)
		})
	}

	return res
}

// Shutdown shuts down the engine and its background services correctly
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.stopGC)
		<-e.gcDone
		e.logger.Info("GC background process stopped")
	})
}

// errorCategory returns the leading word of an error reply, e.g. ERR or WRONGTYPE
func errorCategory(v resp.Value) string {
	if v.Type != resp.TypeError {
		return ""
	}
	text := v.Text()
	if i := strings.IndexByte(text, ' '); i > 0 {
		return text[:i]
	}
	return text
}
