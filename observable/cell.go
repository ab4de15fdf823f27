// Package observable provides a value cell with one writer and any number of readers.
// Readers subscribe and receive the latest value; intermediate values may be skipped
// when a reader falls behind.
package observable

import (
	"context"
	"sync"
)

// Cell holds a value of type T and notifies subscribers on every Set.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]chan T
	next  int
}

// New creates a cell holding initial
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores v and publishes it to every subscriber without blocking.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	for _, ch := range c.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that first yields the current value and then every
// subsequent one. The channel is closed once ctx is done.
func (c *Cell[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	ch <- c.value
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, id)
		close(ch)
		c.mu.Unlock()
	}()

	return ch
}

// offer replaces any pending value so the reader always sees the newest one.
// Callers hold the write lock.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
