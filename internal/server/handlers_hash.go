package server

import (
	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
)

// hset handles the HSET command and returns the number of new fields
func hset(ctx *cmdContext) resp.Value {
	cmd := as[*command.HSet](ctx.cmd)

	h, ok := getOrCreate(ctx.tx, cmd.Key, datatype.NewHash)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	var added int64
	for _, f := range cmd.Fields {
		if h.Set(f.Field, f.Value) {
			added++
		}
	}

	return resp.MakeInteger(added)
}

// hget handles the HGET command
func hget(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyMember](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	v, found := h.Get(cmd.Member)
	if !found {
		return resp.MakeNilBulkString()
	}

	return bulkBytes(v)
}

// hgetall handles the HGETALL command. The reply is a flat field, value list
func hgetall(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	out := make([]resp.Value, 0, 2*h.Len())
	h.All(func(field string, value []byte) bool {
		out = append(out, resp.MakeBulkString(field), bulkBytes(value))
		return true
	})

	return resp.MakeArray(out)
}

// hdel handles the HDEL command. The key is removed with its last field
func hdel(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyValues](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	var removed int64
	for _, field := range cmd.Values {
		if h.Delete(string(field)) {
			removed++
		}
	}
	dropIfEmpty(ctx.tx, cmd.Key, h)

	return resp.MakeInteger(removed)
}

// hexists handles the HEXISTS command
func hexists(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyMember](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	return resp.MakeBool(exists && h.Exists(cmd.Member))
}

// hlen handles the HLEN command
func hlen(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	return resp.MakeInteger(int64(h.Len()))
}

// hkeys handles the HKEYS command
func hkeys(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	return resp.MakeBulkArray(h.Keys())
}

// hvals handles the HVALS command
func hvals(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	h, exists, ok := getAs[*datatype.Hash](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	return bulkArray(h.Values())
}
