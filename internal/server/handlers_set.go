package server

import (
	"slices"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
)

// sadd handles the SADD command and returns the number of new members
func sadd(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyValues](ctx.cmd)

	s, ok := getOrCreate(ctx.tx, cmd.Key, datatype.NewSet)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	var added int64
	for _, m := range cmd.Values {
		if s.Add(string(m)) {
			added++
		}
	}

	return resp.MakeInteger(added)
}

// srem handles the SREM command. The key is removed with its last member
func srem(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyValues](ctx.cmd)

	s, exists, ok := getAs[*datatype.Set](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	var removed int64
	for _, m := range cmd.Values {
		if s.Remove(string(m)) {
			removed++
		}
	}
	dropIfEmpty(ctx.tx, cmd.Key, s)

	return resp.MakeInteger(removed)
}

// smembers handles the SMEMBERS command. Members are sorted
func smembers(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	s, exists, ok := getAs[*datatype.Set](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeEmptyArray()
	}

	members := s.Members()
	slices.Sort(members)

	return resp.MakeBulkArray(members)
}

// sismember handles the SISMEMBER command
func sismember(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeyMember](ctx.cmd)

	s, exists, ok := getAs[*datatype.Set](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}

	return resp.MakeBool(exists && s.Contains(cmd.Member))
}

// scard handles the SCARD command
func scard(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	s, exists, ok := getAs[*datatype.Set](ctx.tx, cmd.Key)
	if !ok {
		return resp.MakeWrongTypeError()
	}
	if !exists {
		return resp.MakeInteger(0)
	}

	return resp.MakeInteger(int64(s.Len()))
}
