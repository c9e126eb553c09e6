package rt

// firstSeen records, per thread, the thread's own clock when it first
// observed a store. Slots hold version+1 so zero means unseen.
type firstSeen []uint64

func newFirstSeen(a *Arena, threads *ThreadSet) firstSeen {
	fs := firstSeen(a.alloc(threads.max))
	fs.touch(threads)
	return fs
}

func (fs firstSeen) touch(threads *ThreadSet) {
	i := threads.active
	if fs[i] == 0 {
		fs[i] = threads.ActiveAtomicVersion() + 1
	}
}

// isSeenByCurrent reports whether some thread saw the store at a point the
// running thread has already observed.
func (fs firstSeen) isSeenByCurrent(threads *ThreadSet) bool {
	causality := threads.Active().Causality
	for i, v := range fs {
		if v != 0 && v-1 <= causality.Get(i) {
			return true
		}
	}
	return false
}

// isSeenBeforeYield reports whether the running thread saw the store before
// its most recent yield.
func (fs firstSeen) isSeenBeforeYield(threads *ThreadSet) bool {
	lastYield, ok := threads.Active().LastYield()
	if !ok {
		return false
	}
	v := fs[threads.active]
	return v != 0 && v-1 <= lastYield
}

type atomicStore struct {
	sync      Synchronize
	firstSeen firstSeen
	seqCst    bool
}

type atomicState struct {
	stores      []atomicStore
	lastAccess  *Access
	lastNonLoad *Access
}

func (*atomicState) kind() Kind { return KindAtomic }

func (s *atomicState) lastDependentAccess(action Action) *Access {
	if action == ActionLoad {
		return s.lastNonLoad
	}
	return s.lastAccess
}

func (s *atomicState) setLastAccess(arena *Arena, action Action, pathID int, dpor VersionVec) {
	setAccess(arena, &s.lastAccess, pathID, dpor)
	if action != ActionLoad {
		setAccess(arena, &s.lastNonLoad, pathID, dpor)
	}
}

func (s *atomicState) push(e *Execution, sync Synchronize, order Ordering) int {
	s.stores = append(s.stores, atomicStore{
		sync:      sync,
		firstSeen: newFirstSeen(e.arena, e.Threads),
		seqCst:    order == SeqCst,
	})
	return len(s.stores) - 1
}

// candidates lists, newest first, the stores a load with the given order
// may observe. The walk stops at the newest store the loader is already
// causally aware of; that store is always a candidate.
func (s *atomicState) candidates(threads *ThreadSet, order Ordering) []int {
	var out []int
	inCausality := false
	first := true
	for i := len(s.stores) - 1; i >= 0; i-- {
		store := &s.stores[i]
		if store.firstSeen.isSeenBeforeYield(threads) {
			// After a yield the thread must make progress: an older store it
			// already saw is only legal when nothing newer exists.
			if first {
				out = append(out, i)
			}
			break
		}
		first = false
		if inCausality {
			break
		}
		out = append(out, i)
		if order == SeqCst && store.seqCst {
			inCausality = true
		}
		if store.firstSeen.isSeenByCurrent(threads) {
			inCausality = true
		}
	}
	return out
}

func (s *atomicState) load(e *Execution, order Ordering) int {
	cands := s.candidates(e.Threads, order)
	var index int
	switch {
	case len(cands) == 0:
		invariant("atomic load found no admissible store")
	case len(cands) == 1:
		index = cands[0]
	default:
		if e.Path.IsTraversed() {
			e.Path.PushLoad(cands)
		}
		index = e.Path.BranchLoad()
		if e.log {
			e.logger.Debug("load branch", "execution", e.ID, "candidates", cands, "chosen", index)
		}
	}
	store := &s.stores[index]
	store.firstSeen.touch(e.Threads)
	store.sync.SyncLoad(e.Threads, order)
	return index
}

func (s *atomicState) store(e *Execution, order Ordering) int {
	i := s.push(e, newSynchronize(e.arena, e.Threads.max), order)
	s.stores[i].sync.SyncStore(e.Threads, order)
	return i
}

func (s *atomicState) rmw(e *Execution, f func(int) bool, success, failure Ordering) (int, bool) {
	last := len(s.stores) - 1
	s.stores[last].firstSeen.touch(e.Threads)
	if !f(last) {
		s.stores[last].sync.SyncLoad(e.Threads, failure)
		return last, false
	}
	s.stores[last].sync.SyncLoad(e.Threads, success)
	// The new store continues the release sequence of the one it replaced.
	i := s.push(e, s.stores[last].sync.cloneIn(e.arena), success)
	s.stores[i].sync.SyncStore(e.Threads, success)
	return last, true
}

func (s *atomicState) happensBefore(vv VersionVec) {
	for i := range s.stores {
		if !s.stores[i].sync.VersionVec().LessEq(vv) {
			violate(ErrCodeUnsyncAccess,
				"unsynchronized access to atomic: store %d is not ordered before the accessing thread", i)
		}
	}
}

// Atomic is a modeled memory location with a store history. It tracks
// store indices only; callers keep the values.
type Atomic struct {
	s   *Scheduler
	ref Ref[*atomicState]
}

// NewAtomic creates an atomic whose history holds the initial store at
// index 0.
func NewAtomic(s *Scheduler) Atomic {
	a := Atomic{s: s}
	s.Execution(func(e *Execution) {
		st := &atomicState{}
		st.push(e, newSynchronize(e.arena, e.Threads.max), Relaxed)
		a.ref = insert(e.Objects, st)
	})
	return a
}

// Ref returns the erased object reference.
func (a Atomic) Ref() ObjRef {
	return a.ref.Erase()
}

// Load returns the index of the store observed.
func (a Atomic) Load(order Ordering) int {
	a.s.branchAction(a.ref.Erase(), ActionLoad)
	var index int
	a.s.Synchronize(func(e *Execution) {
		index = a.ref.Get(e.Objects).load(e, order)
	})
	return index
}

// Store appends a store and returns its index.
func (a Atomic) Store(order Ordering) int {
	a.s.branchAction(a.ref.Erase(), ActionStore)
	var index int
	a.s.Synchronize(func(e *Execution) {
		index = a.ref.Get(e.Objects).store(e, order)
	})
	return index
}

// RMW runs f against the latest store. It returns the index f saw and
// whether f succeeded; on success exactly one store is appended.
func (a Atomic) RMW(f func(index int) bool, success, failure Ordering) (int, bool) {
	a.s.branchAction(a.ref.Erase(), ActionRMW)
	var (
		index int
		ok    bool
	)
	a.s.Synchronize(func(e *Execution) {
		index, ok = a.ref.Get(e.Objects).rmw(e, f, success, failure)
	})
	return index, ok
}

// Len returns the number of stores in the history.
func (a Atomic) Len() int {
	var n int
	a.s.Execution(func(e *Execution) {
		n = len(a.ref.Get(e.Objects).stores)
	})
	return n
}

// Unsync checks that every store is ordered before the running thread and
// returns the index of the latest one. It is the entry point for raw,
// non-atomic access to the location.
func (a Atomic) Unsync() int {
	a.s.branchAction(a.ref.Erase(), ActionRMW)
	var index int
	a.s.Execution(func(e *Execution) {
		st := a.ref.Get(e.Objects)
		st.happensBefore(e.Threads.Active().Causality)
		index = len(st.stores) - 1
	})
	return index
}

// Fence applies a memory fence for the running thread. Only Acquire is
// supported: every store the thread has already seen is acquired again.
func (s *Scheduler) Fence(order Ordering) {
	if order != Acquire {
		violate(ErrCodeUnsupportedFence, "only Acquire fences are supported, got %s", order)
	}
	s.Synchronize(func(e *Execution) {
		e.Objects.each(func(_ ObjRef, obj entry) {
			st, ok := obj.(*atomicState)
			if !ok {
				return
			}
			for i := range st.stores {
				store := &st.stores[i]
				if store.firstSeen.isSeenByCurrent(e.Threads) {
					store.sync.SyncLoad(e.Threads, Acquire)
				}
			}
		})
	})
}
