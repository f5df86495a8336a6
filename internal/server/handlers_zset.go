package server

import (
	"math"
	"strconv"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
)

// zadd handles the ZADD command and returns the number of new members
func zadd(ctx *cmdContext) resp.Value {
	cmd := as[*command.ZAdd](ctx.cmd)

	z, ok := getOrCreate(ctx.tx, cmd.Key, datatype.NewZSet)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	var added int64
	for _, m := range cmd.Members {
		if z.Add(m.Member, m.Score) {
			added++
		}
	}

	return resp.MakeInteger(added)
}

// zrem handles the ZREM command. The key is removed with its last member
func zrem(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyValues](ctx.cmd)

	z, exists, ok := getAs[*datatype.ZSet](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	var removed int64
	for _, m := range cmd.Values {
		if z.Remove(string(m)) {
			removed++
		}
	}
	dropIfEmpty(ctx.tx, cmd.Key, z)

	return resp.MakeInteger(removed)
}

// zrange handles the ZRANGE command, optionally interleaving scores
func zrange(ctx *cmdContext) resp.Value {
	cmd := as[*command.Range](ctx.cmd)

	z, exists, ok := getAs[*datatype.ZSet](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	members := z.Range(cmd.Start, cmd.Stop)

	size := len(members)
	if cmd.WithScores {
		size *= 2
	}

	out := make([]resp.Value, 0, size)
	for _, m := range members {
		out = append(out, resp.MakeBulkString(m.Member))
		if cmd.WithScores {
			out = append(out, resp.MakeBulkString(formatScore(m.Score)))
		}
	}

	return resp.MakeArray(out)
}

// zcard handles the ZCARD command
func zcard(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	z, exists, ok := getAs[*datatype.ZSet](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	return resp.MakeInteger(int64(z.Len()))
}

// zrank handles the ZRANK command
func zrank(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyMember](ctx.cmd)

	z, exists, ok := getAs[*datatype.ZSet](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	rank, found := z.Rank(cmd.Member)
	if !found {
		return resp.MakeNilBulkString()
	}

	return resp.MakeInteger(int64(rank))
}

// zscore handles the ZSCORE command
func zscore(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyMember](ctx.cmd)

	z, exists, ok := getAs[*datatype.ZSet](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	score, found := z.Score(cmd.Member)
	if !found {
		return resp.MakeNilBulkString()
	}

	return resp.MakeBulkString(formatScore(score))
}

// formatScore renders a score the way clients expect: shortest form, inf and -inf for infinities
func formatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
