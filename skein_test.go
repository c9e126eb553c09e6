package skein_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skein"
)

func quiet() *skein.Builder {
	b := skein.NewBuilder()
	b.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return b
}

func TestModel_AtomicCounter(t *testing.T) {
	report := quiet().Model(t, func(m *skein.T) {
		n := skein.NewAtomic(m, 0)
		h := m.Spawn(func(m *skein.T) {
			skein.FetchAdd(n, 1, skein.AcqRel)
		})
		skein.FetchAdd(n, 1, skein.AcqRel)
		h.Join()
		assert.Equal(t, 2, n.Load(skein.Acquire))
	})
	assert.True(t, report.Complete)
	assert.Greater(t, report.Iterations, 1)
}

func TestCheck_LostUpdate(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		n := skein.NewAtomic(m, 0)
		incr := func() {
			v := n.Load(skein.Relaxed)
			n.Store(v+1, skein.Relaxed)
		}
		h := m.Spawn(func(*skein.T) { incr() })
		incr()
		h.Join()
		if n.Load(skein.Acquire) != 2 {
			panic("lost update")
		}
	})
	require.Error(t, err)
	assert.Equal(t, skein.ErrCodePanic, skein.Code(err))

	var f *skein.Failure
	require.ErrorAs(t, err, &f)
	assert.NotEmpty(t, f.Fingerprint)
	assert.NotEmpty(t, f.Path.Branches)
}

func TestCheck_StoreBuffering(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		x := skein.NewAtomic(m, 0)
		y := skein.NewAtomic(m, 0)
		var r1 int
		h := m.Spawn(func(*skein.T) {
			x.Store(1, skein.SeqCst)
			r1 = y.Load(skein.SeqCst)
		})
		y.Store(1, skein.SeqCst)
		r0 := x.Load(skein.SeqCst)
		h.Join()
		assert.False(t, r0 == 0 && r1 == 0, "both loads saw the initial value")
	})
}

func TestCheck_CellRace(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		c := skein.NewCell(m, 0)
		h := m.Spawn(func(*skein.T) { c.Set(1) })
		c.Set(2)
		h.Join()
	})
	assert.True(t, skein.IsCausality(err), "got %v", err)
}

func TestModel_MutexProtectsCell(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		mu := skein.NewMutex(m)
		c := skein.NewCell(m, 0)
		incr := func() {
			mu.Lock()
			c.Write(func(v *int) { *v++ })
			mu.Unlock()
		}
		h := m.Spawn(func(*skein.T) { incr() })
		incr()
		h.Join()
		assert.Equal(t, 2, c.Get())
	})
}

func TestModel_SpinLock(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		locked := skein.NewAtomic(m, false)
		c := skein.NewCell(m, 0)
		incr := func(m *skein.T) {
			for {
				if _, ok := locked.CompareAndSwap(false, true, skein.Acquire, skein.Relaxed); ok {
					break
				}
				m.Yield()
			}
			c.Write(func(v *int) { *v++ })
			locked.Store(false, skein.Release)
		}
		h := m.Spawn(incr)
		incr(m)
		h.Join()
		assert.Equal(t, 2, c.Get())
	})
}

func TestModel_CondvarHandoff(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		mu := skein.NewMutex(m)
		cv := skein.NewCondvar(m)
		ready := skein.NewCell(m, false)
		h := m.Spawn(func(*skein.T) {
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
	})
}

func TestCheck_LockInversionDeadlocks(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		a := skein.NewMutex(m)
		b := skein.NewMutex(m)
		h := m.Spawn(func(*skein.T) {
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
	})
	assert.True(t, skein.IsDeadlock(err), "got %v", err)
}

func TestCheck_ArcLeak(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		shared := skein.NewArc(m, "payload")
		other := shared.Clone()
		h := m.Spawn(func(*skein.T) {
			assert.Equal(t, "payload", other.Get())
		})
		h.Join()
		shared.Drop()
	})
	assert.True(t, skein.IsLeak(err), "got %v", err)
}

func TestModel_ArcLastDrop(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		shared := skein.NewArc(m, 7)
		other := shared.Clone()
		var lastInThread bool
		h := m.Spawn(func(*skein.T) {
			lastInThread = other.Drop()
		})
		lastInMain := shared.Drop()
		h.Join()
		assert.NotEqual(t, lastInMain, lastInThread)
		assert.Zero(t, shared.Count())
	})
}

func TestModel_AllocFreed(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		a := skein.NewAlloc(m)
		a.Free()
		a.Free()
	})
	assert.Equal(t, skein.ErrCodeDoubleFree, skein.Code(err))
}

func TestModel_LocalIsPerThread(t *testing.T) {
	counter := skein.NewLocal(func() int { return 0 })
	quiet().Model(t, func(m *skein.T) {
		counter.Set(m, 1)
		h := m.Spawn(func(m *skein.T) {
			assert.Equal(t, 0, counter.Get(m))
			counter.Set(m, 5)
		})
		h.Join()
		assert.Equal(t, 1, counter.Get(m))
	})
}

func TestModel_JoinTwice(t *testing.T) {
	quiet().Model(t, func(m *skein.T) {
		h := m.Spawn(func(*skein.T) {})
		h.Join()
		h.Join()
	})
}

func TestFence_OnlyAcquire(t *testing.T) {
	_, err := quiet().Check(func(m *skein.T) {
		skein.Fence(m, skein.SeqCst)
	})
	assert.Equal(t, skein.ErrCodeUnsupportedFence, skein.Code(err))
}

func TestNewBuilder_ReadsEnvironment(t *testing.T) {
	t.Setenv("SKEIN_MAX_PERMUTATIONS", "2")

	b := quiet()
	assert.Equal(t, 2, b.MaxPermutations)

	report, err := b.Check(func(m *skein.T) {
		x := skein.NewAtomic(m, 0)
		h := m.Spawn(func(*skein.T) { x.Store(1, skein.Relaxed) })
		x.Store(2, skein.Relaxed)
		h.Join()
		x.Load(skein.Relaxed)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Iterations)
	assert.False(t, report.Complete)
	assert.Equal(t, skein.StopMaxPermutations, report.StopReason)
}

func TestNewBuilder_InvalidEnvironment(t *testing.T) {
	t.Setenv("SKEIN_MAX_THREADS", "many")

	_, err := quiet().Check(func(*skein.T) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKEIN_MAX_THREADS")
}
