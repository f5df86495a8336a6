package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrNotInteger  = errors.New("value is not an integer or out of range")
	ErrNotFloat    = errors.New("value is not a valid float")
	ErrEmpty       = errors.New("empty command")
	ErrDecOverflow = errors.New("decrement would overflow")
)

// Scope tells the engine which part of the keyspace a command locks
type Scope byte

const (
	ScopeNone Scope = iota // no keyspace access
	ScopeKeys              // the shards owning Command.Keys()
	ScopeAll               // the whole keyspace
)

// Spec describes one command: its metadata for COMMAND replies and its argument parser
type Spec struct {
	Name     string
	Arity    int      // Arity includes the command name itself; negative means "at least"
	Flags    []string // readonly, write, fast, denyoom, etc
	FirstKey int      // 1-based index of the first key
	LastKey  int      // 1-based index of the last key, negative counts from the end
	Step     int      // Step count for finding keys
	Scope    Scope

	Summary    string
	Complexity string
	Group      string
	Since      string

	parse func(name string, args [][]byte) (Command, error)
}

// acceptsArity reports whether n tokens, including the name, satisfy the arity
func (s *Spec) acceptsArity(n int) bool {
	if s.Arity >= 0 {
		return n == s.Arity
	}
	return n >= -s.Arity
}

// Parse maps a token vector to a typed command. It never fails:
// unknown names and invalid arguments produce *Unknown with the reason in Err
func Parse(tokens [][]byte) Command {
	raw := make([]string, len(tokens))
	for i, t := range tokens {
		raw[i] = string(t)
	}

	if len(tokens) == 0 {
		return &Unknown{Raw: raw, Err: ErrEmpty}
	}

	name := strings.ToUpper(raw[0])
	spec, ok := registry[name]
	if !ok {
		return &Unknown{Raw: raw, Err: fmt.Errorf("unknown command '%s'", raw[0])}
	}

	if !spec.acceptsArity(len(tokens)) {
		return &Unknown{Raw: raw, Err: wrongArity(name)}
	}

	cmd, err := spec.parse(name, tokens[1:])
	if err != nil {
		return &Unknown{Raw: raw, Err: err}
	}

	return cmd
}

// Lookup returns the spec of a command by name, case-insensitive
func Lookup(name string) (*Spec, bool) {
	spec, ok := registry[strings.ToUpper(name)]
	return spec, ok
}

// Specs returns every command spec, ordered by name
func Specs() []*Spec {
	return ordered
}

func wrongArity(name string) error {
	return fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(name))
}

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

func parseFloat(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, ErrNotFloat
	}
	return f, nil
}

// durationOf converts n units to a Duration, failing on overflow
func durationOf(n int64, unit time.Duration) (time.Duration, bool) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

func invalidExpire(name string) error {
	return fmt.Errorf("invalid expire time in '%s' command", strings.ToLower(name))
}

func keyOnly(name string, args [][]byte) (Command, error) {
	return &Key{Cmd: name, Key: string(args[0])}, nil
}

func keyMember(name string, args [][]byte) (Command, error) {
	return &KeyMember{Cmd: name, Key: string(args[0]), Member: string(args[1])}, nil
}

func keyValues(name string, args [][]byte) (Command, error) {
	return &KeyValues{Cmd: name, Key: string(args[0]), Values: args[1:]}, nil
}

func multiKey(name string, args [][]byte) (Command, error) {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}
	return &MultiKey{Cmd: name, KeyList: keys}, nil
}

func parseSet(name string, args [][]byte) (Command, error) {
	cmd := &Set{Key: string(args[0]), Value: args[1]}
	expirySeen := false

	for i := 2; i < len(args); i++ {
		opt := strings.ToUpper(string(args[i]))

		switch opt {
		case "NX":
			if cmd.XX {
				return nil, ErrSyntax
			}
			cmd.NX = true

		case "XX":
			if cmd.NX {
				return nil, ErrSyntax
			}
			cmd.XX = true

		case "KEEPTTL":
			if expirySeen {
				return nil, ErrSyntax
			}
			expirySeen = true
			cmd.KeepTTL = true

		case "EX", "PX", "EXAT", "PXAT":
			if expirySeen || i+1 >= len(args) {
				return nil, ErrSyntax
			}
			expirySeen = true
			i++

			n, err := parseInt(args[i])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, invalidExpire(name)
			}

			switch opt {
			case "EX":
				d, ok := durationOf(n, time.Second)
				if !ok {
					return nil, invalidExpire(name)
				}
				cmd.TTL = d
			case "PX":
				d, ok := durationOf(n, time.Millisecond)
				if !ok {
					return nil, invalidExpire(name)
				}
				cmd.TTL = d
			case "EXAT":
				if _, ok := durationOf(n, time.Second); !ok {
					return nil, invalidExpire(name)
				}
				cmd.ExpireAt = time.Unix(n, 0)
			case "PXAT":
				if _, ok := durationOf(n, time.Millisecond); !ok {
					return nil, invalidExpire(name)
				}
				cmd.ExpireAt = time.UnixMilli(n)
			}

		default:
			return nil, ErrSyntax
		}
	}

	return cmd, nil
}

func parseMSet(name string, args [][]byte) (Command, error) {
	if len(args)%2 != 0 {
		return nil, wrongArity(name)
	}

	pairs := make([]KeyValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, KeyValue{Key: string(args[i]), Value: args[i+1]})
	}
	return &MSet{Pairs: pairs}, nil
}

func parseHSet(name string, args [][]byte) (Command, error) {
	rest := args[1:]
	if len(rest)%2 != 0 {
		return nil, wrongArity(name)
	}

	fields := make([]FieldValue, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields = append(fields, FieldValue{Field: string(rest[i]), Value: rest[i+1]})
	}
	return &HSet{Key: string(args[0]), Fields: fields}, nil
}

func parseZAdd(name string, args [][]byte) (Command, error) {
	rest := args[1:]
	if len(rest)%2 != 0 {
		return nil, ErrSyntax
	}

	members := make([]ScoreMember, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		score, err := parseFloat(rest[i])
		if err != nil {
			return nil, err
		}
		members = append(members, ScoreMember{Score: score, Member: string(rest[i+1])})
	}
	return &ZAdd{Key: string(args[0]), Members: members}, nil
}

func parseRange(name string, args [][]byte) (Command, error) {
	start, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}

	cmd := &Range{Cmd: name, Key: string(args[0]), Start: start, Stop: stop}

	if len(args) > 3 {
		if name != "ZRANGE" || len(args) > 4 || !strings.EqualFold(string(args[3]), "WITHSCORES") {
			return nil, ErrSyntax
		}
		cmd.WithScores = true
	}

	return cmd, nil
}

func parseLIndex(_ string, args [][]byte) (Command, error) {
	idx, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	return &LIndex{Key: string(args[0]), Index: idx}, nil
}

func parseExpire(name string, args [][]byte) (Command, error) {
	n, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}

	unit := time.Second
	if name == "PEXPIRE" {
		unit = time.Millisecond
	}

	d, ok := durationOf(n, unit)
	if !ok {
		return nil, invalidExpire(name)
	}
	return &Expire{Cmd: name, Key: string(args[0]), TTL: d}, nil
}

func parseIncrBy(name string, args [][]byte) (Command, error) {
	cmd := &IncrBy{Cmd: name, Key: string(args[0])}

	switch name {
	case "INCR":
		cmd.Delta = 1
	case "DECR":
		cmd.Delta = -1
	case "INCRBY", "DECRBY":
		n, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		if name == "DECRBY" {
			if n == math.MinInt64 {
				return nil, ErrDecOverflow
			}
			n = -n
		}
		cmd.Delta = n
	}

	return cmd, nil
}

func parseAppend(_ string, args [][]byte) (Command, error) {
	return &Append{Key: string(args[0]), Value: args[1]}, nil
}

func parseRename(_ string, args [][]byte) (Command, error) {
	return &Rename{Src: string(args[0]), Dst: string(args[1])}, nil
}

func parseKeys(_ string, args [][]byte) (Command, error) {
	return &KeysPattern{Pattern: string(args[0])}, nil
}

func parsePing(name string, args [][]byte) (Command, error) {
	switch len(args) {
	case 0:
		return &Ping{}, nil
	case 1:
		return &Ping{Message: args[0], HasMessage: true}, nil
	}
	return nil, wrongArity(name)
}

func parseEcho(_ string, args [][]byte) (Command, error) {
	return &Echo{Message: args[0]}, nil
}

func parseFlushDB(_ string, args [][]byte) (Command, error) {
	if len(args) == 0 {
		return &FlushDB{}, nil
	}
	if len(args) == 1 {
		mode := strings.ToUpper(string(args[0]))
		if mode == "ASYNC" || mode == "SYNC" {
			return &FlushDB{}, nil
		}
	}
	return nil, ErrSyntax
}

func parseDBSize(_ string, _ [][]byte) (Command, error) {
	return &DBSize{}, nil
}

func parseInfo(_ string, args [][]byte) (Command, error) {
	if len(args) == 0 {
		return &Info{}, nil
	}

	sub := strings.ToUpper(string(args[0]))
	names := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		names = append(names, string(a))
	}

	switch sub {
	case "COUNT":
		if len(names) > 0 {
			return nil, ErrSyntax
		}
	case "DOCS", "INFO":
	default:
		return nil, fmt.Errorf("unknown subcommand '%s'. Try COMMAND HELP", string(args[0]))
	}

	return &Info{Sub: sub, Names: names}, nil
}
