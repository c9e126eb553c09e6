package rt

import "fmt"

// ThreadID identifies a thread within one Execution.
type ThreadID struct {
	execution uint64
	index     int
}

// Index returns the thread's slot in every VersionVec of its execution.
func (id ThreadID) Index() int {
	return id.index
}

func (id ThreadID) String() string {
	return fmt.Sprintf("thread#%d", id.index)
}

// ThreadState is a thread's position in the scheduling state machine.
type ThreadState uint8

const (
	Runnable ThreadState = iota
	Blocked
	Yield
	Terminated
)

func (s ThreadState) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Blocked:
		return "blocked"
	case Yield:
		return "yield"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("ThreadState(%d)", uint8(s))
	}
}

// Thread is one cooperative scheduling unit of a model.
type Thread struct {
	ID    ThreadID
	State ThreadState

	// Causality is everything this thread has observed.
	Causality VersionVec

	// DPOR is the reduction clock; it never feeds memory semantics.
	DPOR VersionVec

	// YieldCount is the number of times the thread yielded.
	YieldCount int

	critical  int
	operation Operation
	pending   bool
	lastYield uint64
	yielded   bool
	locals    map[any]any
}

// IsRunnable reports whether the thread may be scheduled.
func (t *Thread) IsRunnable() bool { return t.State == Runnable }

// IsBlocked reports whether the thread waits for an unpark.
func (t *Thread) IsBlocked() bool { return t.State == Blocked }

// IsYield reports whether the thread yielded and waits for others to progress.
func (t *Thread) IsYield() bool { return t.State == Yield }

// IsTerminated reports whether the thread's function has returned.
func (t *Thread) IsTerminated() bool { return t.State == Terminated }

// IsCritical reports whether the thread is inside a critical section.
func (t *Thread) IsCritical() bool { return t.critical > 0 }

// SetRunnable makes the thread eligible for scheduling.
func (t *Thread) SetRunnable() { t.State = Runnable }

// SetBlocked parks the thread until an unpark makes it runnable.
func (t *Thread) SetBlocked() { t.State = Blocked }

// SetYield marks the thread yielded and snapshots its own clock so loads
// after the yield can tell which stores it had already seen.
func (t *Thread) SetYield() {
	t.State = Yield
	t.lastYield = t.Causality.Get(t.ID.index)
	t.yielded = true
	t.YieldCount++
}

// SetTerminated marks the thread finished and drops its locals.
func (t *Thread) SetTerminated() {
	t.State = Terminated
	t.locals = nil
}

// LastYield returns the thread's own clock at its most recent yield.
func (t *Thread) LastYield() (uint64, bool) {
	return t.lastYield, t.yielded
}

// Operation returns the operation the thread is about to perform.
func (t *Thread) Operation() (Operation, bool) {
	return t.operation, t.pending
}

func (t *Thread) setOperation(op Operation) {
	t.operation = op
	t.pending = true
}

func (t *Thread) clearOperation() {
	t.operation = Operation{}
	t.pending = false
}

// pendingOn reports whether the thread waits to operate on obj.
func (t *Thread) pendingOn(obj ObjRef) bool {
	return t.pending && t.operation.Obj == obj
}

// Unpark wakes the thread on behalf of unparker, joining the unparker's
// causality into it.
func (t *Thread) Unpark(unparker *Thread) {
	t.Causality.Join(unparker.Causality)
	if t.IsBlocked() || t.IsYield() {
		t.SetRunnable()
	}
}

// ThreadSet is the thread table of one Execution.
type ThreadSet struct {
	executionID uint64
	max         int
	arena       *Arena
	threads     []*Thread
	active      int

	// SeqCst is the clock shared by all sequentially consistent operations.
	SeqCst VersionVec
}

func (s *ThreadSet) reset(arena *Arena, executionID uint64, max int) {
	clear(s.threads)
	*s = ThreadSet{
		executionID: executionID,
		max:         max,
		arena:       arena,
		threads:     s.threads[:0],
		SeqCst:      newVersionVecIn(arena, max),
	}
	s.add()
	s.active = 0
}

func (s *ThreadSet) add() ThreadID {
	id := ThreadID{execution: s.executionID, index: len(s.threads)}
	s.threads = append(s.threads, &Thread{
		ID:        id,
		Causality: newVersionVecIn(s.arena, s.max),
		DPOR:      newVersionVecIn(s.arena, s.max),
	})
	return id
}

// NewThread adds a runnable thread. Exceeding the configured maximum is a
// violation of the model's declared bounds.
func (s *ThreadSet) NewThread() ThreadID {
	if len(s.threads) >= s.max {
		violate(ErrCodeThreadLimit, "model spawned more than %d threads", s.max)
	}
	return s.add()
}

// Len returns the number of threads created so far.
func (s *ThreadSet) Len() int {
	return len(s.threads)
}

// At returns the thread at index i.
func (s *ThreadSet) At(i int) *Thread {
	return s.threads[i]
}

// Get returns the thread with the given id. Ids from another execution are
// rejected.
func (s *ThreadSet) Get(id ThreadID) *Thread {
	if id.execution != s.executionID {
		invariant("thread id %v belongs to execution %d, not %d", id, id.execution, s.executionID)
	}
	return s.threads[id.index]
}

// All returns the threads in index order.
func (s *ThreadSet) All() []*Thread {
	return s.threads
}

// IsActive reports whether some thread is selected to run.
func (s *ThreadSet) IsActive() bool {
	return s.active >= 0
}

// ActiveIndex returns the index of the running thread, or -1.
func (s *ThreadSet) ActiveIndex() int {
	return s.active
}

// ActiveID returns the id of the running thread.
func (s *ThreadSet) ActiveID() ThreadID {
	return s.Active().ID
}

// Active returns the running thread.
func (s *ThreadSet) Active() *Thread {
	if s.active < 0 {
		invariant("no active thread")
	}
	return s.threads[s.active]
}

func (s *ThreadSet) setActive(i int) {
	s.active = i
}

// ActiveCausalityInc bumps the running thread's own clock.
func (s *ThreadSet) ActiveCausalityInc() {
	a := s.Active()
	a.Causality.Inc(a.ID.index)
}

// ActiveAtomicVersion returns the running thread's own clock.
func (s *ThreadSet) ActiveAtomicVersion() uint64 {
	a := s.Active()
	return a.Causality.Get(a.ID.index)
}

// SeqCstSync orders the running thread with every previous sequentially
// consistent operation, and every later one with it.
func (s *ThreadSet) SeqCstSync() {
	a := s.Active()
	a.Causality.Join(s.SeqCst)
	s.SeqCst.Join(a.Causality)
}

// Unpark wakes the thread id on behalf of the running thread.
func (s *ThreadSet) Unpark(id ThreadID) {
	if id.index == s.active {
		return
	}
	s.Get(id).Unpark(s.Active())
}

func (s *ThreadSet) states() string {
	out := make([]string, len(s.threads))
	for i, th := range s.threads {
		out[i] = fmt.Sprintf("%d:%s", i, th.State)
	}
	return fmt.Sprint(out)
}
