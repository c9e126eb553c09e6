// Package skein is a model checker for concurrent Go code.
//
// A model is a function that receives a *T, spawns threads through it and
// shares state through the primitives of this package: Atomic, Mutex,
// Condvar, Notify, Arc, Alloc, Cell and Local. Check runs the model once
// per distinct interleaving of those threads, and once per value a weak
// atomic load may legally observe, until every execution has been tried or
// a bound is reached. Interleavings that only reorder independent
// operations are explored once.
//
// A defect found in any execution (a failed assertion, a deadlock, a data
// race on a Cell, a leaked Arc or Alloc) stops the search and is returned
// as a *Failure whose Path replays exactly that execution.
//
//	func TestCounter(t *testing.T) {
//		skein.Model(t, func(m *skein.T) {
//			n := skein.NewAtomic(m, 0)
//			h := m.Spawn(func(m *skein.T) { skein.FetchAdd(n, 1, skein.AcqRel) })
//			skein.FetchAdd(n, 1, skein.AcqRel)
//			h.Join()
//			if got := n.Load(skein.Acquire); got != 2 {
//				panic(fmt.Sprintf("counter = %d", got))
//			}
//		})
//	}
//
// Threads are goroutines that the checker runs one at a time. A model must
// be deterministic apart from the primitives: it may not read the clock,
// use real synchronization or select on real channels.
package skein

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/roach88/skein/internal/config"
	"github.com/roach88/skein/internal/model"
	"github.com/roach88/skein/internal/rt"
)

// T is a thread's handle on the running execution.
type T struct {
	s *rt.Scheduler
}

// ThreadID identifies a thread of the running execution.
type ThreadID = rt.ThreadID

// Spawn starts f on a new thread. The thread first runs when the checker
// schedules it.
func (t *T) Spawn(f func(t *T)) *JoinHandle {
	done := rt.NewNotify(t.s, true, false)
	id := t.s.Spawn(func() {
		f(&T{s: t.s})
		done.Notify()
	})
	return &JoinHandle{id: id, done: done}
}

// Yield lets other threads run first. Spin loops must yield to terminate.
func (t *T) Yield() {
	t.s.YieldNow()
}

// Park blocks the running thread until another thread unparks it.
func (t *T) Park() {
	t.s.Park()
}

// Unpark wakes the thread id. The woken thread observes everything the
// running thread did before the call.
func (t *T) Unpark(id ThreadID) {
	t.s.Unpark(id)
}

// Current returns the running thread's id.
func (t *T) Current() ThreadID {
	return t.s.CurrentThread()
}

// Critical runs f without giving other threads a chance to interleave,
// unless f blocks.
func (t *T) Critical(f func()) {
	t.s.Critical(f)
}

// JoinHandle waits for a spawned thread.
type JoinHandle struct {
	id     ThreadID
	done   rt.Notify
	joined bool
}

// ID returns the spawned thread's id.
func (h *JoinHandle) ID() ThreadID {
	return h.id
}

// Join blocks until the thread has returned. Everything the thread did
// happens before Join returns. Joining twice returns immediately.
func (h *JoinHandle) Join() {
	if h.joined {
		return
	}
	h.done.Wait()
	h.joined = true
}

// Report summarizes a completed or bounded check.
type Report = model.Report

// Failure is a defect found by Check, with the path that reproduces it.
type Failure = model.Failure

// StopReason says why a check ended before exploring everything.
type StopReason = model.StopReason

const (
	StopNone            = model.StopNone
	StopMaxPermutations = model.StopMaxPermutations
	StopMaxDuration     = model.StopMaxDuration
	StopCanceled        = model.StopCanceled
)

// Builder configures a check. NewBuilder reads the SKEIN_* environment
// variables; fields set afterwards override them.
type Builder struct {
	MaxThreads         int
	MaxBranches        int
	MaxPermutations    int
	MaxDuration        time.Duration
	PreemptionBound    int
	CheckpointFile     string
	CheckpointInterval int

	// Log enables per-decision debug logging on Logger.
	Log    bool
	Logger *slog.Logger

	envErr error
}

// NewBuilder returns a Builder with the default bounds overlaid by the
// environment. An invalid variable is reported by Check.
func NewBuilder() *Builder {
	cfg := config.Default()
	err := cfg.ApplyEnv(os.LookupEnv)
	return &Builder{
		MaxThreads:         cfg.MaxThreads,
		MaxBranches:        cfg.MaxBranches,
		MaxPermutations:    cfg.MaxPermutations,
		MaxDuration:        time.Duration(cfg.MaxDuration),
		PreemptionBound:    cfg.PreemptionBound,
		CheckpointFile:     cfg.CheckpointFile,
		CheckpointInterval: cfg.CheckpointInterval,
		Log:                cfg.Log,
		envErr:             err,
	}
}

func (b *Builder) driver() *model.Builder {
	d := model.NewBuilder()
	d.MaxThreads = b.MaxThreads
	d.MaxBranches = b.MaxBranches
	d.MaxPermutations = b.MaxPermutations
	d.MaxDuration = b.MaxDuration
	d.PreemptionBound = b.PreemptionBound
	d.CheckpointFile = b.CheckpointFile
	d.CheckpointInterval = b.CheckpointInterval
	d.Log = b.Log
	d.Logger = b.Logger
	return d
}

// Check explores f. See CheckContext.
func (b *Builder) Check(f func(t *T)) (*Report, error) {
	return b.CheckContext(context.Background(), f)
}

// CheckContext explores every execution of f within the configured bounds.
// A defect is returned as a *Failure; a bound or ctx ending the search is
// reported in the Report, not as an error.
func (b *Builder) CheckContext(ctx context.Context, f func(t *T)) (*Report, error) {
	if b.envErr != nil {
		return nil, b.envErr
	}
	return b.driver().CheckContext(ctx, Driver(f))
}

// Model checks f and fails tb on a defect.
func (b *Builder) Model(tb testing.TB, f func(t *T)) *Report {
	tb.Helper()
	report, err := b.Check(f)
	if err != nil {
		tb.Fatalf("skein: %v", err)
	}
	return report
}

// Model checks f with NewBuilder and fails tb on a defect.
func Model(tb testing.TB, f func(t *T)) *Report {
	tb.Helper()
	return NewBuilder().Model(tb, f)
}

// Check explores f with NewBuilder.
func Check(f func(t *T)) (*Report, error) {
	return NewBuilder().Check(f)
}

// Driver adapts f to the signature the driver loop runs. It is used by the
// skein command to run catalog models.
func Driver(f func(t *T)) model.Func {
	return func(s *rt.Scheduler) {
		f(&T{s: s})
	}
}
