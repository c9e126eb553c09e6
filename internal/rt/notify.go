package rt

type notifyState struct {
	seqCst     bool
	spurious   bool
	notified   bool
	didSpur    bool
	sync       Synchronize
	lastAccess *Access
}

func (*notifyState) kind() Kind { return KindNotify }

// Notify is a single-permit wakeup. A notification sent before anyone waits
// is kept until consumed, so no wakeup is lost.
type Notify struct {
	s   *Scheduler
	ref Ref[*notifyState]
}

// NewNotify creates a notify with no permit. With spurious set, the first
// Wait may also return early without a permit; exploration covers both.
func NewNotify(s *Scheduler, seqCst, spurious bool) Notify {
	n := Notify{s: s}
	s.Execution(func(e *Execution) {
		n.ref = insert(e.Objects, &notifyState{
			seqCst:   seqCst,
			spurious: spurious,
			sync:     newSynchronize(e.arena, e.Threads.max),
		})
	})
	return n
}

// Notify stores the permit and wakes threads waiting for it.
func (n Notify) Notify() {
	n.s.branchAction(n.ref.Erase(), ActionOpaque)
	n.s.Execution(func(e *Execution) {
		st := n.ref.Get(e.Objects)
		st.sync.SyncStore(e.Threads, Release)
		if st.seqCst {
			e.Threads.SeqCstSync()
		}
		st.notified = true
		obj := n.ref.Erase()
		for i, th := range e.Threads.All() {
			if i != e.Threads.active && th.pendingOn(obj) {
				th.SetRunnable()
			}
		}
	})
}

// Wait consumes the permit, blocking until one is available. It reports
// false when the wait ended spuriously.
func (n Notify) Wait() bool {
	var spurious, notified bool
	n.s.Execution(func(e *Execution) {
		st := n.ref.Get(e.Objects)
		if st.spurious && !st.didSpur && e.Path.BranchSpurious() {
			st.didSpur = true
			spurious = true
		}
		notified = st.notified
	})
	if spurious {
		n.s.YieldNow()
		return false
	}
	n.s.branchAcquire(n.ref.Erase(), !notified)
	for !n.consume() {
		n.s.branchAcquire(n.ref.Erase(), true)
	}
	return true
}

func (n Notify) consume() bool {
	var ok bool
	n.s.Execution(func(e *Execution) {
		st := n.ref.Get(e.Objects)
		if !st.notified {
			return
		}
		st.sync.SyncLoad(e.Threads, Acquire)
		if st.seqCst {
			e.Threads.SeqCstSync()
		}
		st.notified = false
		ok = true
	})
	return ok
}
