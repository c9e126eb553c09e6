package rt

import (
	"log/slog"
	"sync/atomic"
)

var executionIDs atomic.Uint64

// Execution is the state of one run of a model: its threads, objects and
// clocks, plus the Path that steers it.
type Execution struct {
	ID      uint64
	Threads *ThreadSet
	Objects *ObjectStore
	Path    *Path

	arena      *Arena
	maxThreads int
	seed       []pathThread
	logger     *slog.Logger
	log        bool
}

// ExecutionOption configures an Execution.
type ExecutionOption func(*Execution)

// WithLogger sets the logger used for per-decision diagnostics.
func WithLogger(logger *slog.Logger) ExecutionOption {
	return func(e *Execution) {
		e.logger = logger
	}
}

// WithDecisionLog enables debug logging of every thread switch and load
// decision.
func WithDecisionLog(enabled bool) ExecutionOption {
	return func(e *Execution) {
		e.log = enabled
	}
}

// NewExecution creates an execution over path with room for maxThreads
// threads. It is ready to run.
func NewExecution(maxThreads int, path *Path, arena *Arena, opts ...ExecutionOption) *Execution {
	if arena == nil {
		arena = NewArena()
	}
	e := &Execution{
		Objects:    NewObjectStore(),
		Path:       path,
		arena:      arena,
		maxThreads: maxThreads,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Threads = &ThreadSet{}
	e.Reset()
	return e
}

// Reset wipes all per-run state so the execution can run again over its
// Path. The arena and object store keep their capacity.
func (e *Execution) Reset() {
	e.arena.Reset()
	e.Objects.Clear()
	e.ID = executionIDs.Add(1)
	e.Threads.reset(e.arena, e.ID, e.maxThreads)
}

// MaxThreads returns the width of every clock in the execution.
func (e *Execution) MaxThreads() int {
	return e.maxThreads
}

// Stats describes the per-run resources in use.
type Stats struct {
	Objects   int
	Threads   int
	ArenaUsed int
}

// Stats returns the per-run resources in use.
func (e *Execution) Stats() Stats {
	return Stats{
		Objects:   e.Objects.Len(),
		Threads:   e.Threads.Len(),
		ArenaUsed: e.arena.Used(),
	}
}

// NewThread adds a thread that inherits the running thread's causality.
func (e *Execution) NewThread() ThreadID {
	id := e.Threads.NewThread()
	active := e.Threads.Active()
	th := e.Threads.Get(id)
	th.Causality.Join(active.Causality)
	th.DPOR.Join(active.DPOR)
	// Both sides move on so later accesses by either are not ordered
	// before the other by the spawn alone.
	th.Causality.Inc(id.index)
	active.Causality.Inc(active.ID.index)
	return id
}

// CheckForLeaks raises a violation if any object outlived the run.
func (e *Execution) CheckForLeaks() {
	e.Objects.CheckForLeaks()
}

// Schedule records a schedule decision and selects the thread to run next.
// It returns true if the running thread changed.
func (e *Execution) Schedule() bool {
	threads := e.Threads
	cur := threads.active
	active := threads.Active()

	for i, th := range threads.All() {
		op, ok := th.Operation()
		if !ok {
			continue
		}
		access := e.Objects.LastDependentAccess(op)
		if access == nil || access.HappensBefore(th.DPOR) {
			continue
		}
		e.Path.Backtrack(access.PathID(), i)
	}

	// Inside a critical section the thread keeps control; its accesses are
	// attributed to the decision that scheduled it.
	if active.IsCritical() && active.IsRunnable() {
		e.recordAccess(active, e.Path.lastSchedule(e.Path.pos))
		return false
	}

	// Keep running the current thread when possible; otherwise prefer the
	// thread that yielded least.
	initial := -1
	if active.IsRunnable() {
		initial = cur
	} else {
		for i, th := range threads.All() {
			if !th.IsRunnable() {
				continue
			}
			if initial < 0 || th.YieldCount < threads.At(initial).YieldCount {
				initial = i
			}
		}
	}

	pathID := e.Path.Pos()
	e.seed = e.seed[:0]
	for i, th := range threads.All() {
		var st pathThread
		switch {
		case initial < 0 && th.IsYield():
			st = threadYield
		case i == initial:
			st = threadActive
		case !th.IsRunnable():
			st = threadDisabled
		default:
			st = threadSkip
		}
		e.seed = append(e.seed, st)
	}

	next, ok := e.Path.BranchThread(e.seed)
	if !ok {
		threads.setActive(-1)
		for _, th := range threads.All() {
			if !th.IsTerminated() {
				violate(ErrCodeDeadlock, "no thread can run; threads = %s", threads.states())
			}
		}
		return true
	}
	threads.setActive(next)
	e.recordAccess(threads.Active(), pathID)

	for i, th := range threads.All() {
		if th.IsYield() && i != next {
			th.SetRunnable()
		}
	}

	if next != cur && e.log {
		e.logger.Debug("thread switch", "execution", e.ID, "from", cur, "to", next, "decision", pathID)
	}
	return next != cur
}

// recordAccess stamps the chosen thread's pending operation as the latest
// access to its object, made under schedule decision pathID.
func (e *Execution) recordAccess(th *Thread, pathID int) {
	op, ok := th.Operation()
	if !ok || pathID < 0 {
		return
	}
	if access := e.Objects.LastDependentAccess(op); access != nil {
		th.DPOR.Join(access.Version())
	}
	th.DPOR.Inc(th.ID.index)
	e.Objects.SetLastAccess(e.arena, op, pathID, th.DPOR)
}
