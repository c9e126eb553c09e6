package rt

type mutexState struct {
	seqCst     bool
	locked     bool
	holder     int
	sync       Synchronize
	lastAccess *Access
}

func (*mutexState) kind() Kind { return KindMutex }

// Mutex is a modeled lock.
type Mutex struct {
	s   *Scheduler
	ref Ref[*mutexState]
}

// NewMutex creates an unlocked mutex. A seqCst mutex additionally joins
// the global sequentially consistent clock on every acquire and release.
func NewMutex(s *Scheduler, seqCst bool) Mutex {
	m := Mutex{s: s}
	s.Execution(func(e *Execution) {
		m.ref = insert(e.Objects, &mutexState{
			seqCst: seqCst,
			holder: -1,
			sync:   newSynchronize(e.arena, e.Threads.max),
		})
	})
	return m
}

// Ref returns the erased object reference.
func (m Mutex) Ref() ObjRef {
	return m.ref.Erase()
}

// IsLocked reports whether some thread holds the mutex.
func (m Mutex) IsLocked() bool {
	var locked bool
	m.s.Execution(func(e *Execution) {
		locked = m.ref.Get(e.Objects).locked
	})
	return locked
}

// Acquire blocks until the running thread holds the mutex.
func (m Mutex) Acquire() {
	m.s.branchAcquire(m.ref.Erase(), m.IsLocked())
	if !m.postAcquire() {
		invariant("mutex %d: woke up but could not acquire", m.ref.index)
	}
}

// TryAcquire takes the mutex if it is free.
func (m Mutex) TryAcquire() bool {
	m.s.branchAction(m.ref.Erase(), ActionOpaque)
	return m.postAcquire()
}

func (m Mutex) postAcquire() bool {
	var ok bool
	m.s.Execution(func(e *Execution) {
		st := m.ref.Get(e.Objects)
		if st.locked {
			return
		}
		st.locked = true
		st.holder = e.Threads.active
		st.sync.SyncLoad(e.Threads, Acquire)
		if st.seqCst {
			e.Threads.SeqCstSync()
		}
		// Everyone else waiting on this mutex stays parked until release.
		obj := m.ref.Erase()
		for i, th := range e.Threads.All() {
			if i != e.Threads.active && th.pendingOn(obj) {
				th.SetBlocked()
			}
		}
		ok = true
	})
	return ok
}

// Release unlocks the mutex and makes its waiters runnable.
func (m Mutex) Release() {
	m.s.Execution(func(e *Execution) {
		st := m.ref.Get(e.Objects)
		if !st.locked || st.holder != e.Threads.active {
			invariant("mutex %d released by thread %d, holder %d", m.ref.index, e.Threads.active, st.holder)
		}
		st.locked = false
		st.holder = -1
		st.sync.SyncStore(e.Threads, Release)
		if st.seqCst {
			e.Threads.SeqCstSync()
		}
		obj := m.ref.Erase()
		for i, th := range e.Threads.All() {
			if i != e.Threads.active && th.pendingOn(obj) {
				th.SetRunnable()
			}
		}
	})
}
