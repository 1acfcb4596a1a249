package reactive

import "sync"

// Cell is a mutable reactive value. Writes invalidate every value derived from
// the cell and then notify subscribers.
type Cell[T any] struct {
	mu         sync.RWMutex
	value      T
	subs       map[uint64]func(T)
	nextSub    uint64
	downstream []dependent
}

// NewCell creates a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{
		value: v,
		subs:  make(map[uint64]func(T)),
	}
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Write stores v and publishes the change.
func (c *Cell[T]) Write(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
	c.publish(v)
}

// Update replaces the value with fn(current) atomically and publishes the result.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	c.mu.Unlock()
	c.publish(v)
	return v
}

// Subscribe registers fn to be called with every new value. The returned
// function removes the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cell[T]) addDependent(d dependent) {
	c.mu.Lock()
	c.downstream = append(c.downstream, d)
	c.mu.Unlock()
}

func (c *Cell[T]) removeDependent(d dependent) {
	c.mu.Lock()
	c.downstream = without(c.downstream, d)
	c.mu.Unlock()
}

// publish runs without holding the lock so callbacks may read or write cells.
func (c *Cell[T]) publish(v T) {
	c.mu.RLock()
	downstream := make([]dependent, len(c.downstream))
	copy(downstream, c.downstream)
	subs := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, d := range downstream {
		d.invalidate()
	}
	for _, fn := range subs {
		fn(v)
	}
}
