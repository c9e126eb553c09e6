package skein

import "github.com/roach88/skein/internal/rt"

// Cell holds plain data shared between threads. Accesses are not
// scheduling points; instead every read must happen after the last write,
// and every write after all earlier accesses. A violation fails the check
// as a data race.
type Cell[V any] struct {
	c rt.Cell
	v V
}

// NewCell creates a cell holding v. The initialization counts as a write
// by the running thread.
func NewCell[V any](t *T, v V) *Cell[V] {
	return &Cell[V]{c: rt.NewCell(t.s), v: v}
}

// Read runs f with the value.
func (c *Cell[V]) Read(f func(v V)) {
	c.c.Read(func() { f(c.v) })
}

// Write runs f with mutable access to the value.
func (c *Cell[V]) Write(f func(v *V)) {
	c.c.Write(func() { f(&c.v) })
}

// Get returns the value.
func (c *Cell[V]) Get() V {
	var v V
	c.Read(func(cur V) { v = cur })
	return v
}

// Set replaces the value.
func (c *Cell[V]) Set(v V) {
	c.Write(func(cur *V) { *cur = v })
}

// Local is a per-thread value, initialized on each thread's first access
// and dropped when the thread ends. A Local may be declared outside the
// model and shared by every execution.
type Local[V any] struct {
	init func() V
}

// NewLocal creates a thread-local whose per-thread value starts as init().
func NewLocal[V any](init func() V) *Local[V] {
	return &Local[V]{init: init}
}

// Get returns the running thread's value.
func (l *Local[V]) Get(t *T) V {
	if v, ok := t.s.Local(l); ok {
		val, _ := v.(V)
		return val
	}
	v := l.init()
	t.s.SetLocal(l, v)
	return v
}

// Set replaces the running thread's value.
func (l *Local[V]) Set(t *T, v V) {
	t.s.SetLocal(l, v)
}
