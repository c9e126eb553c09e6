// Package rt is the exploration runtime of the model checker.
//
// A model is a closure that spawns cooperative threads and touches shared
// state through modeled primitives (atomics, mutexes, condition variables,
// notifications, reference counts, causal cells). Every operation on such a
// primitive is a branch point: the Execution consults the Path to decide
// which thread runs next, or which store a weak load observes. Running the
// closure repeatedly while Path.Step reports untried alternatives explores
// every interleaving that dynamic partial order reduction (DPOR) cannot prove
// equivalent to one already explored.
//
// Key invariants:
//   - Exactly one Execution is live per process, and exactly one of its
//     threads runs at a time. Threads are goroutines handed control
//     explicitly by the Scheduler; there is no real parallelism.
//   - Causality is tracked with VersionVec values. Each thread owns a
//     causality vector (what it has observed) and a DPOR vector (reduction
//     bookkeeping only).
//   - All per-iteration state (objects, threads, clocks) lives in an Arena
//     and ObjectStore that are reset, not reallocated, between iterations.
//
// Model-found defects are raised as *Violation panics and surface from
// Scheduler.Run as errors. Checker bugs are raised as *InvariantError and
// are never recovered.
package rt
