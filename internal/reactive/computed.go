package reactive

import "sync"

// Computed is a read-only value derived from other cells or computeds. It is
// recomputed on the first Read after any of its dependencies changed and
// cached otherwise.
type Computed[T any] struct {
	mu         sync.Mutex
	fn         func() T
	value      T
	valid      bool
	epoch      uint64
	subs       map[uint64]func(T)
	nextSub    uint64
	downstream []dependent
	upstream   []node
	detached   bool
}

// Derive creates a computed value from fn. Every element of deps that is a
// *Cell or *Computed is tracked; anything else (a Static source, nil) is
// ignored, so callers can pass value-or-reference inputs unchanged.
//
// Dependencies keep a reference to the computed until Detach is called, so a
// computed built over a longer-lived cell should be detached when dropped.
func Derive[T any](fn func() T, deps ...any) *Computed[T] {
	c := &Computed[T]{
		fn:   fn,
		subs: make(map[uint64]func(T)),
	}
	c.upstream = link(c, deps)
	return c
}

// Read returns the cached value, recomputing it first if it is stale.
func (c *Computed[T]) Read() T {
	c.mu.Lock()
	if c.valid {
		v := c.value
		c.mu.Unlock()
		return v
	}
	if c.detached {
		c.mu.Unlock()
		return c.fn()
	}
	epoch := c.epoch
	c.mu.Unlock()

	v := c.fn()

	c.mu.Lock()
	// a dependency changed while fn was running; keep the result uncached
	if c.epoch == epoch {
		c.value = v
		c.valid = true
	}
	c.mu.Unlock()
	return v
}

// Subscribe registers fn to be called with the recomputed value whenever a
// dependency changes. The returned function removes the subscription.
func (c *Computed[T]) Subscribe(fn func(T)) func() {
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

func (c *Computed[T]) addDependent(d dependent) {
	c.mu.Lock()
	c.downstream = append(c.downstream, d)
	c.mu.Unlock()
}

func (c *Computed[T]) removeDependent(d dependent) {
	c.mu.Lock()
	c.downstream = without(c.downstream, d)
	c.mu.Unlock()
}

// Detach unlinks c from its dependencies. It stops receiving invalidations
// and subscriber notifications; later Reads recompute on every call.
func (c *Computed[T]) Detach() {
	c.mu.Lock()
	upstream := c.upstream
	c.upstream = nil
	c.detached = true
	c.valid = false
	c.mu.Unlock()

	for _, n := range upstream {
		n.removeDependent(c)
	}
}

func (c *Computed[T]) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.epoch++
	downstream := make([]dependent, len(c.downstream))
	copy(downstream, c.downstream)
	subs := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, d := range downstream {
		d.invalidate()
	}
	if len(subs) == 0 {
		return
	}
	v := c.Read()
	for _, fn := range subs {
		fn(v)
	}
}
