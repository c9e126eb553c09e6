package skein

import "github.com/roach88/skein/internal/rt"

// Mutex is a modeled mutual exclusion lock.
type Mutex struct {
	m rt.Mutex
}

// NewMutex creates an unlocked mutex.
func NewMutex(t *T) *Mutex {
	return &Mutex{m: rt.NewMutex(t.s, false)}
}

// Lock blocks until the running thread holds m.
func (m *Mutex) Lock() {
	m.m.Acquire()
}

// TryLock takes m if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	return m.m.TryAcquire()
}

// Unlock releases m. Only the holder may unlock.
func (m *Mutex) Unlock() {
	m.m.Release()
}

// Condvar is a modeled condition variable. Waiters are woken in arrival
// order.
type Condvar struct {
	c rt.Condvar
}

// NewCondvar creates a condition variable.
func NewCondvar(t *T) *Condvar {
	return &Condvar{c: rt.NewCondvar(t.s)}
}

// Wait unlocks m, blocks until signaled and locks m again.
func (c *Condvar) Wait(m *Mutex) {
	c.c.Wait(m.m)
}

// Signal wakes the longest waiting thread, if any.
func (c *Condvar) Signal() {
	c.c.NotifyOne()
}

// Broadcast wakes every waiting thread.
func (c *Condvar) Broadcast() {
	c.c.NotifyAll()
}

// Notify is a single-permit wakeup: a notification sent while nobody waits
// is kept for the next Wait.
type Notify struct {
	n rt.Notify
}

// NewNotify creates a notify without a permit.
func NewNotify(t *T) *Notify {
	return &Notify{n: rt.NewNotify(t.s, false, false)}
}

// NewSpuriousNotify creates a notify whose first Wait may also return
// without a permit. The checker explores both outcomes.
func NewSpuriousNotify(t *T) *Notify {
	return &Notify{n: rt.NewNotify(t.s, false, true)}
}

// Notify stores the permit and wakes a waiter.
func (n *Notify) Notify() {
	n.n.Notify()
}

// Wait consumes the permit, blocking until there is one. It returns false
// on a spurious wakeup.
func (n *Notify) Wait() bool {
	return n.n.Wait()
}
