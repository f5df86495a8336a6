package client

import (
	"context"
	"errors"

	"github.com/eternalApril/kilodb/internal/resp"
	pool "github.com/jolestar/go-commons-pool/v2"
)

// connectionFactory creates pooled connections to one server
type connectionFactory struct {
	addr string
}

func (f connectionFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := Dial(ctx, f.addr)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f connectionFactory) DestroyObject(_ context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errors.New("type mismatch")
	}
	return c.Close()
}

func (f connectionFactory) ValidateObject(_ context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	return ok && c.Healthy()
}

func (f connectionFactory) ActivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

func (f connectionFactory) PassivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

// Pool shares a bounded set of connections between goroutines
type Pool struct {
	objects *pool.ObjectPool
}

// NewPool creates a pool of at most size connections to addr
func NewPool(ctx context.Context, addr string, size int) *Pool {
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = size
	cfg.MaxIdle = size
	cfg.TestOnReturn = true

	return &Pool{
		objects: pool.NewObjectPool(ctx, connectionFactory{addr: addr}, cfg),
	}
}

// Do borrows a connection, runs one command and gives the connection back.
// A connection that failed is dropped from the pool
func (p *Pool) Do(ctx context.Context, args ...string) (resp.Value, error) {
	object, err := p.objects.BorrowObject(ctx)
	if err != nil {
		return resp.Value{}, err
	}
	c, ok := object.(*Client)
	if !ok {
		return resp.Value{}, errors.New("wrong type")
	}

	v, err := c.Do(ctx, args...)
	if err != nil {
		p.objects.InvalidateObject(ctx, c) //nolint:errcheck
		return resp.Value{}, err
	}

	return v, p.objects.ReturnObject(ctx, c)
}

// Active returns the number of borrowed connections
func (p *Pool) Active() int {
	return p.objects.GetNumActive()
}

// Close destroys every idle connection and rejects further borrows
func (p *Pool) Close(ctx context.Context) {
	p.objects.Close(ctx)
}
