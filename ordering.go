package skein

import "github.com/roach88/skein/internal/rt"

// Ordering is a memory ordering for atomic operations and fences.
type Ordering = rt.Ordering

const (
	// Relaxed orders nothing but the operation itself.
	Relaxed = rt.Relaxed

	// Release makes the thread's earlier writes visible to an Acquire
	// load that observes this store.
	Release = rt.Release

	// Acquire makes the writes released by the observed store visible.
	Acquire = rt.Acquire

	AcqRel = rt.AcqRel

	// SeqCst additionally takes part in the single total order of all
	// SeqCst operations.
	SeqCst = rt.SeqCst
)

// Fence is a memory fence for the running thread. Only Acquire is
// supported; any other ordering fails the check.
func Fence(t *T, order Ordering) {
	t.s.Fence(order)
}
