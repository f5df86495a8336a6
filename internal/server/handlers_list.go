package server

import (
	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
)

// push handles LPUSH and RPUSH and returns the new length.
// LPUSH inserts the values one after another, so they end up in reverse order
func push(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyValues](ctx.cmd)

	l, ok := getOrCreate(ctx.tx, cmd.Key, datatype.NewList)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	pushFn := l.PushBack
	if cmd.Cmd == "LPUSH" {
		pushFn = l.PushFront
	}

	n := l.Len()
	for _, v := range cmd.Values {
		n = pushFn(v)
	}

	return resp.MakeInteger(int64(n))
}

// pop handles LPOP and RPOP. The key is removed with its last element
func pop(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	l, exists, ok := getAs[*datatype.List](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	var v []byte
	if cmd.Cmd == "LPOP" {
		v, _ = l.PopFront()
	} else {
		v, _ = l.PopBack()
	}
	dropIfEmpty(ctx.tx, cmd.Key, l)

	return bulkBytes(v)
}

// lrange handles the LRANGE command
func lrange(ctx *cmdContext) resp.Value {
	cmd := as[*command.Range](ctx.cmd)

	l, exists, ok := getAs[*datatype.List](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	return bulkArray(l.Range(cmd.Start, cmd.Stop))
}

// llen handles the LLEN command
func llen(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	l, exists, ok := getAs[*datatype.List](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	return resp.MakeInteger(int64(l.Len()))
}

// lindex handles the LINDEX command
func lindex(ctx *cmdContext) resp.Value {
	cmd := as[*command.LIndex](ctx.cmd)

	l, exists, ok := getAs[*datatype.List](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	v, found := l.Index(cmd.Index)
	if !found {
		return resp.MakeNilBulkString()
	}

	return bulkBytes(v)
}
