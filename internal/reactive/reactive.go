// Package reactive provides the small observer layer the request controller and
// the validation engine are built on: mutable cells that publish on write and
// derived values that are recomputed lazily after one of their dependencies
// changed.
package reactive

// Source is anything that can produce its current value.
type Source[T any] interface {
	Read() T
}

// node is implemented by everything that can invalidate derived values.
type node interface {
	addDependent(d dependent)
	removeDependent(d dependent)
}

// dependent is a derived value that must be recomputed after a dependency changed.
type dependent interface {
	invalidate()
}

type static[T any] struct {
	value T
}

func (s static[T]) Read() T { return s.value }

// Static wraps a plain value so it can be passed where a Source is expected.
func Static[T any](v T) Source[T] {
	return static[T]{value: v}
}

// Unwrap resolves a value-or-reference into its current plain value.
// A nil source yields the zero value.
func Unwrap[T any](src Source[T]) T {
	if src == nil {
		var zero T
		return zero
	}
	return src.Read()
}

func link(d dependent, deps []any) []node {
	var linked []node
	for _, dep := range deps {
		if n, ok := dep.(node); ok {
			n.addDependent(d)
			linked = append(linked, n)
		}
	}
	return linked
}

func without(list []dependent, d dependent) []dependent {
	out := list[:0]
	for _, x := range list {
		if x != d {
			out = append(out, x)
		}
	}
	// drop the stale tail so removed dependents can be collected
	clear(list[len(out):])
	return out
}
