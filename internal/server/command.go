package server

import (
	"fmt"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/datatype"
	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/eternalApril/kilodb/internal/storage"
)

// cmdContext is what a handler runs with. tx is nil for commands that do not touch the keyspace
type cmdContext struct {
	cmd    command.Command
	tx     storage.Tx
	engine *Engine
}

type handler interface {
	execute(ctx *cmdContext) resp.Value
}

type commandFunc func(ctx *cmdContext) resp.Value

func (c commandFunc) execute(ctx *cmdContext) resp.Value {
	return c(ctx)
}

// as returns the command as the variant the handler was registered for.
// The registry guarantees the match, so a mismatch is a bug
func as[T command.Command](c command.Command) T {
	v, ok := c.(T)
	if !ok {
		panic(fmt.Sprintf("server: handler for %s received %T", c.Name(), c))
	}
	return v
}

// getAs loads key as T. ok is false when the key holds another kind
func getAs[T datatype.Value](tx storage.Tx, key string) (val T, exists bool, ok bool) {
	v, found := tx.Get(key)
	if !found {
		return val, false, true
	}

	val, ok = v.(T)
	return val, true, ok
}

// getOrCreate loads key as T, storing a new value without a deadline when the key is absent.
// ok is false when the key holds another kind
func getOrCreate[T datatype.Collection](tx storage.Tx, key string, create func() T) (T, bool) {
	val, exists, ok := getAs[T](tx, key)
	if !ok {
		return val, false
	}
	if !exists {
		val = create()
		tx.Set(key, val, storage.SetOptions{})
	}
	return val, true
}

// dropIfEmpty deletes a collection whose last element was removed
func dropIfEmpty(tx storage.Tx, key string, c datatype.Collection) {
	if c.Len() == 0 {
		tx.Delete(key)
	}
}

func bulkBytes(b []byte) resp.Value {
	return resp.Value{Type: resp.TypeBulkString, String: b}
}

func bulkArray(items [][]byte) resp.Value {
	vals := make([]resp.Value, len(items))
	for i, b := range items {
		vals[i] = bulkBytes(b)
	}
	return resp.MakeArray(vals)
}
