package server

import (
	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/eternalApril/kilodb/internal/storage"
)

// get handles the GET command
func get(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	str, exists, ok := getAs[*datatype.String](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeNilBulkString()
	}

	return bulkBytes(str.Bytes())
}

// set handles the SET command. SET replaces a value of any kind
func set(ctx *cmdContext) resp.Value {
	cmd := as[*command.Set](ctx.cmd)

	opts := storage.SetOptions{
		TTL:     cmd.TTL,
		KeepTTL: cmd.KeepTTL,
		NX:      cmd.NX,
		XX:      cmd.XX,
	}
	if !cmd.ExpireAt.IsZero() {
		opts.ExpireAt = cmd.ExpireAt.UnixNano()
	}

	if !ctx.tx.Set(cmd.Key, datatype.NewString(cmd.Value), opts) {
		// NX or XX condition not met
		return resp.MakeNilBulkString()
	}

	return resp.MakeOK()
}

// mget handles the MGET command. Keys of another kind read as nil
func mget(ctx *cmdContext) resp.Value {
	cmd := as[*command.MultiKey](ctx.cmd)

	values := make([]resp.Value, len(cmd.KeyList))
	for i, key := range cmd.KeyList {
		str, exists, ok := getAs[*datatype.String](ctx.tx, key)
		if !exists || !ok {
			values[i] = resp.MakeNilBulkString()
			continue
		}
		values[i] = bulkBytes(str.Bytes())
	}

	return resp.MakeArray(values)
}

// mset handles the MSET command. Every key loses its deadline
func mset(ctx *cmdContext) resp.Value {
	cmd := as[*command.MSet](ctx.cmd)

	for _, p := range cmd.Pairs {
		ctx.tx.Set(p.Key, datatype.NewString(p.Value), storage.SetOptions{})
	}

	return resp.MakeOK()
}

// incrBy handles INCR, DECR, INCRBY and DECRBY. A missing key counts as 0
func incrBy(ctx *cmdContext) resp.Value {
	cmd := as[*command.IncrBy](ctx.cmd)

	str, exists, ok := getAs[*datatype.String](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	if !exists {
		str = datatype.NewString([]byte("0"))
		n, err := str.IncrBy(cmd.Delta)
		if err != nil {
			return resp.MakeGenericError(err.Error())
		}
		ctx.tx.Set(cmd.Key, str, storage.SetOptions{})
		return resp.MakeInteger(n)
	}

	// updated in place, the deadline is kept
	n, err := str.IncrBy(cmd.Delta)
	if err != nil {
		return resp.MakeGenericError(err.Error())
	}

	return resp.MakeInteger(n)
}

// appendCmd handles the APPEND command
func appendCmd(ctx *cmdContext) resp.Value {
	cmd := as[*command.Append](ctx.cmd)

	str, exists, ok := getAs[*datatype.String](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		str = datatype.NewString(cmd.Value)
		ctx.tx.Set(cmd.Key, str, storage.SetOptions{})
		return resp.MakeInteger(int64(str.Len()))
	}

	return resp.MakeInteger(int64(str.Append(cmd.Value)))
}

// strlen handles the STRLEN command
func strlen(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	str, exists, ok := getAs[*datatype.String](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	return resp.MakeInteger(int64(str.Len()))
}
