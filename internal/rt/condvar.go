package rt

type condvarState struct {
	waiters    []ThreadID
	lastAccess *Access
}

func (*condvarState) kind() Kind { return KindCondvar }

// Condvar is a modeled condition variable.
type Condvar struct {
	s   *Scheduler
	ref Ref[*condvarState]
}

// NewCondvar creates a condition variable with no waiters.
func NewCondvar(s *Scheduler) Condvar {
	c := Condvar{s: s}
	s.Execution(func(e *Execution) {
		c.ref = insert(e.Objects, &condvarState{})
	})
	return c
}

// Wait releases m, parks until notified, then reacquires m.
func (c Condvar) Wait(m Mutex) {
	c.s.branchAction(c.ref.Erase(), ActionOpaque)
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		st.waiters = append(st.waiters, e.Threads.ActiveID())
	})
	m.Release()
	c.s.Park()
	m.Acquire()
}

// NotifyOne wakes the longest waiting thread, if any.
func (c Condvar) NotifyOne() {
	c.s.branchAction(c.ref.Erase(), ActionOpaque)
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		if len(st.waiters) == 0 {
			return
		}
		id := st.waiters[0]
		st.waiters = st.waiters[1:]
		e.Threads.Unpark(id)
	})
}

// NotifyAll wakes every waiting thread.
func (c Condvar) NotifyAll() {
	c.s.branchAction(c.ref.Erase(), ActionOpaque)
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		for _, id := range st.waiters {
			e.Threads.Unpark(id)
		}
		st.waiters = st.waiters[:0]
	})
}
