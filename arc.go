package skein

import "github.com/roach88/skein/internal/rt"

// Arc is a modeled reference-counted value. Every Clone must be matched by
// a Drop before the execution ends, or the check fails with a leak.
type Arc[V any] struct {
	a rt.Arc
	v V
}

// NewArc creates v with one reference.
func NewArc[V any](t *T, v V) *Arc[V] {
	return &Arc[V]{a: rt.NewArc(t.s), v: v}
}

// Clone adds a reference and returns a.
func (a *Arc[V]) Clone() *Arc[V] {
	a.a.RefInc()
	return a
}

// Get returns the shared value.
func (a *Arc[V]) Get() V {
	return a.v
}

// Drop releases a reference and reports whether it was the last one.
// The thread dropping the last reference observes every earlier drop.
func (a *Arc[V]) Drop() bool {
	return a.a.RefDec()
}

// Count returns the number of live references.
func (a *Arc[V]) Count() int {
	return a.a.Count()
}

// Alloc is a modeled allocation that must be freed exactly once.
type Alloc struct {
	a rt.Alloc
}

// NewAlloc records an allocation.
func NewAlloc(t *T) *Alloc {
	return &Alloc{a: rt.NewAlloc(t.s)}
}

// Free releases the allocation.
func (a *Alloc) Free() {
	a.a.Free()
}
