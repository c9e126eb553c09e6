package skein

import "github.com/roach88/skein/internal/rt"

// Atomic is a modeled atomic variable. Every store is kept, and a load may
// observe any store the memory model allows for its ordering; the checker
// explores each possibility.
type Atomic[V comparable] struct {
	a rt.Atomic

	// values[i] is the value written by store i.
	values []V
}

// NewAtomic creates an atomic holding v.
func NewAtomic[V comparable](t *T, v V) *Atomic[V] {
	return &Atomic[V]{a: rt.NewAtomic(t.s), values: []V{v}}
}

// Load returns a value the memory model lets order observe.
func (a *Atomic[V]) Load(order Ordering) V {
	return a.values[a.a.Load(order)]
}

// Store writes v.
func (a *Atomic[V]) Store(v V, order Ordering) {
	a.record(a.a.Store(order), v)
}

func (a *Atomic[V]) record(index int, v V) {
	if index != len(a.values) {
		panic("skein: atomic store history out of step")
	}
	a.values = append(a.values, v)
}

// Update atomically replaces the latest value with f's result when f
// reports true. It returns the value f saw and whether it was replaced.
// f must not touch other primitives.
func (a *Atomic[V]) Update(f func(V) (V, bool), success, failure Ordering) (V, bool) {
	var next V
	index, ok := a.a.RMW(func(i int) bool {
		var apply bool
		next, apply = f(a.values[i])
		return apply
	}, success, failure)
	if ok {
		a.record(index+1, next)
	}
	return a.values[index], ok
}

// Swap writes v and returns the value it replaced.
func (a *Atomic[V]) Swap(v V, order Ordering) V {
	prev, _ := a.Update(func(V) (V, bool) { return v, true }, order, order)
	return prev
}

// CompareAndSwap writes next if the latest value is old. It returns the
// value seen and whether the write happened.
func (a *Atomic[V]) CompareAndSwap(old, next V, success, failure Ordering) (V, bool) {
	return a.Update(func(cur V) (V, bool) { return next, cur == old }, success, failure)
}

// UnsyncLoad reads the latest value without synchronization. It fails the
// check unless every store happens before the calling thread.
func (a *Atomic[V]) UnsyncLoad() V {
	return a.values[a.a.Unsync()]
}

// WithMut gives f mutable access to the latest value, under the same
// condition as UnsyncLoad.
func (a *Atomic[V]) WithMut(f func(v *V)) {
	f(&a.values[a.a.Unsync()])
}

// Integer is the set of types FetchAdd works on.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// FetchAdd adds delta to a and returns the previous value.
func FetchAdd[V Integer](a *Atomic[V], delta V, order Ordering) V {
	prev, _ := a.Update(func(v V) (V, bool) { return v + delta, true }, order, order)
	return prev
}
