package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/puddle/v2"
)

// pipConnection stands in for whatever expensive, poolable resource a real
// PIP integration would hold open (an HTTP keep-alive client, a gRPC
// channel, a DB connection) — this package only needs something to
// acquire and release around an invocation.
type pipConnection struct {
	attributeName string
	id            int
}

// connectionPools lazily creates one bounded puddle.Pool per attribute
// name, grounding §5's "one underlying PIP subscription" sharing language:
// concurrent invocations of the same attribute contend for a small,
// bounded set of simulated connections instead of opening one per call.
type connectionPools struct {
	mu      sync.Mutex
	maxSize int32
	pools   map[string]*puddle.Pool[*pipConnection]
	next    map[string]int
}

func newConnectionPools(maxSize int32) *connectionPools {
	return &connectionPools{
		maxSize: maxSize,
		pools:   make(map[string]*puddle.Pool[*pipConnection]),
		next:    make(map[string]int),
	}
}

func (c *connectionPools) poolFor(attributeName string) (*puddle.Pool[*pipConnection], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pools[attributeName]; ok {
		return p, nil
	}

	p, err := puddle.NewPool(&puddle.Config[*pipConnection]{
		Constructor: func(context.Context) (*pipConnection, error) {
			c.mu.Lock()
			id := c.next[attributeName]
			c.next[attributeName] = id + 1
			c.mu.Unlock()
			return &pipConnection{attributeName: attributeName, id: id}, nil
		},
		Destructor: func(*pipConnection) {},
		MaxSize:    c.maxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("broker: creating connection pool for %s: %w", attributeName, err)
	}
	c.pools[attributeName] = p
	return p, nil
}

// acquire checks out a connection for the named attribute, blocking if the
// pool is at capacity until one is released or ctx is done.
func (c *connectionPools) acquire(ctx context.Context, attributeName string) (*puddle.Resource[*pipConnection], error) {
	p, err := c.poolFor(attributeName)
	if err != nil {
		return nil, err
	}
	return p.Acquire(ctx)
}
