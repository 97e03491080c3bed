// Package cancel tracks the single interruptible operation of a session.
package cancel

import (
	"context"
	"sync"
	"sync/atomic"
)

var tokenSeq atomic.Uint64

// Token is a single-use cancellation handle passed into one operation
type Token struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the context the operation must observe
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancelled reports whether the token has fired
func (t *Token) Cancelled() bool {
	return t.ctx.Err() != nil
}

// ID identifies the token in logs
func (t *Token) ID() uint64 {
	return t.id
}

// Coordinator holds at most one active token
type Coordinator struct {
	mu     sync.Mutex
	active *Token
}

// NewCoordinator creates an empty coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Begin cancels any active token and returns a fresh one derived from parent
func (c *Coordinator) Begin(parent context.Context) *Token {
	ctx, cancelFn := context.WithCancel(parent)
	tok := &Token{
		id:     tokenSeq.Add(1),
		ctx:    ctx,
		cancel: cancelFn,
	}

	c.mu.Lock()
	prev := c.active
	c.active = tok
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return tok
}

// Finish releases tok. It only clears the coordinator when tok is still
// the active token, so a finished operation cannot disturb a newer one.
func (c *Coordinator) Finish(tok *Token) {
	if tok == nil {
		return
	}
	tok.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == tok {
		c.active = nil
	}
}

// CancelActive fires and clears the active token. It returns false when
// nothing was in flight.
func (c *Coordinator) CancelActive() bool {
	c.mu.Lock()
	tok := c.active
	c.active = nil
	c.mu.Unlock()

	if tok == nil {
		return false
	}
	tok.cancel()
	return true
}

// Active reports whether an operation currently holds a token
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}
