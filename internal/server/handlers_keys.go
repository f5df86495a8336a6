package server

import (
	"math"
	"strings"
	"time"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/eternalApril/kilodb/internal/storage"
)

// del handles the DEL command and returns the number of keys removed
func del(ctx *cmdContext) resp.Value {
	cmd := as[*command.MultiKey](ctx.cmd)

	var deleted int64
	for _, key := range cmd.KeyList {
		if ctx.tx.Delete(key) {
			deleted++
		}
	}

	return resp.MakeInteger(deleted)
}

// exists handles the EXISTS command. A key named twice is counted twice
func exists(ctx *cmdContext) resp.Value {
	cmd := as[*command.MultiKey](ctx.cmd)

	var count int64
	for _, key := range cmd.KeyList {
		if _, ok := ctx.tx.Get(key); ok {
			count++
		}
	}

	return resp.MakeInteger(count)
}

// expire handles EXPIRE and PEXPIRE. A non-positive TTL deletes the key right away
func expire(ctx *cmdContext) resp.Value {
	cmd := as[*command.Expire](ctx.cmd)

	if cmd.TTL <= 0 {
		return resp.MakeBool(ctx.tx.Delete(cmd.Key))
	}

	now := ctx.tx.Now().UnixNano()
	if int64(cmd.TTL) > math.MaxInt64-now {
		return resp.MakeGenericError("invalid expire time in '" + strings.ToLower(cmd.Cmd) + "' command")
	}

	return resp.MakeBool(ctx.tx.ExpireAt(cmd.Key, now+int64(cmd.TTL)))
}

// ttl handles the TTL command, rounding the remaining time to whole seconds
func ttl(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	d, status := ctx.tx.Expiry(cmd.Key)
	if status != storage.ExpActive {
		return resp.MakeInteger(int64(status))
	}

	return resp.MakeInteger(int64((d + 500*time.Millisecond) / time.Second))
}

// pttl handles the PTTL command
func pttl(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	d, status := ctx.tx.Expiry(cmd.Key)
	if status != storage.ExpActive {
		return resp.MakeInteger(int64(status))
	}

	return resp.MakeInteger(d.Milliseconds())
}

// persist handles the PERSIST command
func persist(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	return resp.MakeBool(ctx.tx.Persist(cmd.Key))
}

// typeCmd handles the TYPE command
func typeCmd(ctx *cmdContext) resp.Value {
	cmd := as[*command.Key](ctx.cmd)

	v, ok := ctx.tx.Get(cmd.Key)
	if !ok {
		return resp.MakeSimpleString("none")
	}

	return resp.MakeSimpleString(v.Kind().String())
}

// rename handles the RENAME command. The deadline moves with the value
func rename(ctx *cmdContext) resp.Value {
	cmd := as[*command.Rename](ctx.cmd)

	if !ctx.tx.Rename(cmd.Src, cmd.Dst) {
		return resp.MakeGenericError("no such key")
	}

	return resp.MakeOK()
}

// keys handles the KEYS command
func keys(ctx *cmdContext) resp.Value {
	cmd := as[*command.KeysPattern](ctx.cmd)

	return resp.MakeBulkArray(ctx.tx.Keys(cmd.Pattern))
}
