package rt

type arcState struct {
	refCnt     int
	sync       Synchronize
	lastRefInc *Access
	lastRefDec *Access
}

func (*arcState) kind() Kind { return KindArc }

// Increments commute with each other and with decrements; only decrements
// observe the count.
func (s *arcState) lastDependentAccess(action Action) *Access {
	if action == ActionRefDec {
		return s.lastRefDec
	}
	return nil
}

func (s *arcState) setLastAccess(arena *Arena, action Action, pathID int, dpor VersionVec) {
	if action == ActionRefDec {
		setAccess(arena, &s.lastRefDec, pathID, dpor)
		return
	}
	setAccess(arena, &s.lastRefInc, pathID, dpor)
}

// Arc is a modeled reference count. It must reach zero before the
// iteration ends.
type Arc struct {
	s   *Scheduler
	ref Ref[*arcState]
}

// NewArc creates a reference count of one.
func NewArc(s *Scheduler) Arc {
	a := Arc{s: s}
	s.Execution(func(e *Execution) {
		a.ref = insert(e.Objects, &arcState{
			refCnt: 1,
			sync:   newSynchronize(e.arena, e.Threads.max),
		})
	})
	return a
}

// RefInc adds a reference.
func (a Arc) RefInc() {
	a.s.branchAction(a.ref.Erase(), ActionRefInc)
	a.s.Synchronize(func(e *Execution) {
		a.ref.Get(e.Objects).refCnt++
	})
}

// RefDec drops a reference and reports whether it was the last one. The
// thread dropping the last reference acquires every earlier drop.
func (a Arc) RefDec() bool {
	a.s.branchAction(a.ref.Erase(), ActionRefDec)
	var last bool
	a.s.Synchronize(func(e *Execution) {
		st := a.ref.Get(e.Objects)
		if st.refCnt == 0 {
			violate(ErrCodeDoubleFree, "arc %d dropped more times than referenced", a.ref.index)
		}
		st.refCnt--
		st.sync.SyncStore(e.Threads, Release)
		if st.refCnt == 0 {
			st.sync.SyncLoad(e.Threads, Acquire)
			last = true
		}
	})
	return last
}

// Count returns the current reference count.
func (a Arc) Count() int {
	var n int
	a.s.Execution(func(e *Execution) {
		n = a.ref.Get(e.Objects).refCnt
	})
	return n
}
