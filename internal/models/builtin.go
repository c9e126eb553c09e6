package models

import (
	"fmt"

	"github.com/roach88/skein"
)

func init() {
	register(Model{
		Name:        "atomic_counter",
		Description: "two threads increment a counter with FetchAdd",
		Expect:      Pass,
		Run:         atomicCounter,
	})
	register(Model{
		Name:        "lost_update",
		Description: "two threads increment a counter with a separate load and store",
		Expect:      Fail,
		Code:        skein.ErrCodePanic,
		Run:         lostUpdate,
	})
	register(Model{
		Name:        "store_buffering_seqcst",
		Description: "Dekker-style store buffering with SeqCst accesses",
		Expect:      Pass,
		Run:         storeBuffering(skein.SeqCst),
	})
	register(Model{
		Name:        "store_buffering_relaxed",
		Description: "store buffering with Relaxed accesses lets both loads miss both stores",
		Expect:      Fail,
		Code:        skein.ErrCodePanic,
		Run:         storeBuffering(skein.Relaxed),
	})
	register(Model{
		Name:        "message_passing",
		Description: "data published through a Release store and an Acquire load",
		Expect:      Pass,
		Run:         messagePassing(skein.Release, skein.Acquire),
	})
	register(Model{
		Name:        "message_passing_relaxed",
		Description: "data published through a Relaxed flag races with its reader",
		Expect:      Fail,
		Code:        skein.ErrCodeCausality,
		Run:         messagePassing(skein.Relaxed, skein.Relaxed),
	})
	register(Model{
		Name:        "mutex_counter",
		Description: "a plain counter guarded by a mutex",
		Expect:      Pass,
		Run:         mutexCounter,
	})
	register(Model{
		Name:        "lock_inversion",
		Description: "two threads take two mutexes in opposite order",
		Expect:      Fail,
		Code:        skein.ErrCodeDeadlock,
		Run:         lockInversion,
	})
	register(Model{
		Name:        "condvar_handoff",
		Description: "a waiter blocks on a condition variable until a flag is set",
		Expect:      Pass,
		Run:         condvarHandoff,
	})
	register(Model{
		Name:        "spin_lock",
		Description: "a compare-and-swap spin lock guarding a plain counter",
		Expect:      Pass,
		Run:         spinLock,
	})
	register(Model{
		Name:        "arc_drop",
		Description: "a shared value is released by whichever thread drops it last",
		Expect:      Pass,
		Run:         arcDrop,
	})
	register(Model{
		Name:        "arc_leak",
		Description: "a cloned reference is never dropped",
		Expect:      Fail,
		Code:        skein.ErrCodeLeak,
		Run:         arcLeak,
	})
	register(Model{
		Name:        "unsync_race",
		Description: "an unsynchronized read of an atomic races with a store",
		Expect:      Fail,
		Code:        skein.ErrCodeUnsyncAccess,
		Run:         unsyncRace,
	})
	register(Model{
		Name:        "spurious_wakeup",
		Description: "a waiter rechecks its flag after every wakeup, spurious or not",
		Expect:      Pass,
		Run:         spuriousWakeup,
	})
}

func atomicCounter(t *skein.T) {
	n := skein.NewAtomic(t, 0)
	h := t.Spawn(func(*skein.T) {
		skein.FetchAdd(n, 1, skein.AcqRel)
	})
	skein.FetchAdd(n, 1, skein.AcqRel)
	h.Join()
	if got := n.Load(skein.Acquire); got != 2 {
		panic(fmt.Sprintf("counter = %d, want 2", got))
	}
}

func lostUpdate(t *skein.T) {
	n := skein.NewAtomic(t, 0)
	incr := func(*skein.T) {
		v := n.Load(skein.Relaxed)
		n.Store(v+1, skein.Relaxed)
	}
	h := t.Spawn(incr)
	incr(t)
	h.Join()
	if got := n.Load(skein.Acquire); got != 2 {
		panic(fmt.Sprintf("counter = %d, want 2", got))
	}
}

func storeBuffering(order skein.Ordering) func(t *skein.T) {
	return func(t *skein.T) {
		x := skein.NewAtomic(t, 0)
		y := skein.NewAtomic(t, 0)
		var r1 int
		h := t.Spawn(func(*skein.T) {
			x.Store(1, order)
			r1 = y.Load(order)
		})
		y.Store(1, order)
		r0 := x.Load(order)
		h.Join()
		if r0 == 0 && r1 == 0 {
			panic("both loads missed both stores")
		}
	}
}

func messagePassing(store, load skein.Ordering) func(t *skein.T) {
	return func(t *skein.T) {
		data := skein.NewCell(t, 0)
		ready := skein.NewAtomic(t, false)
		h := t.Spawn(func(*skein.T) {
			data.Set(42)
			ready.Store(true, store)
		})
		for !ready.Load(load) {
			t.Yield()
		}
		if got := data.Get(); got != 42 {
			panic(fmt.Sprintf("data = %d, want 42", got))
		}
		h.Join()
	}
}

func mutexCounter(t *skein.T) {
	mu := skein.NewMutex(t)
	n := skein.NewCell(t, 0)
	incr := func(*skein.T) {
		mu.Lock()
		n.Write(func(v *int) { *v++ })
		mu.Unlock()
	}
	h := t.Spawn(incr)
	incr(t)
	h.Join()
	if got := n.Get(); got != 2 {
		panic(fmt.Sprintf("counter = %d, want 2", got))
	}
}

func lockInversion(t *skein.T) {
	a := skein.NewMutex(t)
	b := skein.NewMutex(t)
	h := t.Spawn(func(*skein.T) {
		b.Lock()
		a.Lock()
		a.Unlock()
		b.Unlock()
	})
	a.Lock()
	b.Lock()
	b.Unlock()
	a.Unlock()
	h.Join()
}

func condvarHandoff(t *skein.T) {
	mu := skein.NewMutex(t)
	cv := skein.NewCondvar(t)
	ready := skein.NewCell(t, false)
	h := t.Spawn(func(*skein.T) {
		mu.Lock()
		ready.Set(true)
		cv.Signal()
		mu.Unlock()
	})
	mu.Lock()
	for !ready.Get() {
		cv.Wait(mu)
	}
	mu.Unlock()
	h.Join()
}

func spinLock(t *skein.T) {
	locked := skein.NewAtomic(t, false)
	n := skein.NewCell(t, 0)
	incr := func(t *skein.T) {
		for {
			if _, ok := locked.CompareAndSwap(false, true, skein.Acquire, skein.Relaxed); ok {
				break
			}
			t.Yield()
		}
		n.Write(func(v *int) { *v++ })
		locked.Store(false, skein.Release)
	}
	h := t.Spawn(incr)
	incr(t)
	h.Join()
	if got := n.Get(); got != 2 {
		panic(fmt.Sprintf("counter = %d, want 2", got))
	}
}

func arcDrop(t *skein.T) {
	shared := skein.NewArc(t, "payload")
	other := shared.Clone()
	var lastInThread bool
	h := t.Spawn(func(*skein.T) {
		lastInThread = other.Drop()
	})
	lastInMain := shared.Drop()
	h.Join()
	if lastInMain == lastInThread {
		panic("exactly one thread must drop the last reference")
	}
}

func arcLeak(t *skein.T) {
	shared := skein.NewArc(t, "payload")
	other := shared.Clone()
	h := t.Spawn(func(*skein.T) {
		_ = other.Get()
	})
	h.Join()
	shared.Drop()
}

func unsyncRace(t *skein.T) {
	x := skein.NewAtomic(t, 0)
	h := t.Spawn(func(*skein.T) {
		x.Store(1, skein.Relaxed)
	})
	t.Yield()
	_ = x.UnsyncLoad()
	h.Join()
}

func spuriousWakeup(t *skein.T) {
	ready := skein.NewAtomic(t, false)
	n := skein.NewSpuriousNotify(t)
	h := t.Spawn(func(*skein.T) {
		ready.Store(true, skein.Release)
		n.Notify()
	})
	for !ready.Load(skein.Acquire) {
		n.Wait()
	}
	h.Join()
}
