package rt

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// live admits one running execution per process. Runs from separate
// schedulers queue on it.
var live sync.Mutex

type abortSignal struct{}

type coroutine struct {
	wake chan struct{}
}

// Scheduler runs the threads of an Execution as goroutines, handing control
// from one to the next exactly as the Execution decides. Only the goroutine
// holding control touches the Execution.
type Scheduler struct {
	running atomic.Bool
	exec    *Execution
	inExec  bool
	coros   []*coroutine
	done    chan error
	abort   chan struct{}
	aborted bool
	failure error
	wg      sync.WaitGroup
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Run executes f as thread 0 of exec and returns once every thread has
// terminated or one of them failed. A model-found defect is returned as a
// *Violation; a checker bug panics with *InvariantError.
//
// Concurrent calls on different schedulers run one after another. Calling
// Run on a scheduler that is already running is an invariant failure.
func (s *Scheduler) Run(exec *Execution, f func()) error {
	if !s.running.CompareAndSwap(false, true) {
		invariant("scheduler is already running an execution")
	}
	defer s.running.Store(false)
	live.Lock()
	defer live.Unlock()

	s.exec = exec
	s.inExec = false
	s.coros = s.coros[:0]
	s.done = make(chan error, 1)
	s.abort = make(chan struct{})
	s.aborted = false
	s.failure = nil
	defer func() {
		s.exec = nil
		clear(s.coros)
	}()

	s.start(f)
	s.coros[0].wake <- struct{}{}
	err := <-s.done
	if err != nil {
		s.aborted = true
		close(s.abort)
	}
	s.wg.Wait()

	if ie, ok := err.(*InvariantError); ok {
		panic(ie)
	}
	return err
}

func (s *Scheduler) start(f func()) {
	c := &coroutine{wake: make(chan struct{})}
	s.coros = append(s.coros, c)
	s.wg.Add(1)
	go s.runThread(len(s.coros)-1, c, f)
}

func (s *Scheduler) runThread(index int, c *coroutine, f func()) {
	defer s.wg.Done()
	completed := false
	defer func() {
		r := recover()
		if completed || s.aborted {
			return
		}
		if s.failure == nil {
			s.failure = failureOf(r, index)
		}
		s.done <- s.failure
	}()
	s.wait(c)
	f()
	s.ThreadDone()
	completed = true
}

func failureOf(r any, index int) error {
	switch v := r.(type) {
	case nil:
		return &Violation{Code: ErrCodePanic, Message: "thread exited without returning", Thread: index}
	case *Violation:
		if v.Thread == NoThread {
			v.Thread = index
		}
		return v
	case *InvariantError:
		return v
	default:
		return &Violation{
			Code:    ErrCodePanic,
			Message: fmt.Sprint(r),
			Thread:  index,
			Stack:   string(debug.Stack()),
		}
	}
}

func (s *Scheduler) wait(c *coroutine) {
	select {
	case <-c.wake:
	case <-s.abort:
		panic(abortSignal{})
	}
}

func (s *Scheduler) switchTo(from, to int) {
	self := s.coros[from]
	next := s.coros[to]
	next.wake <- struct{}{}
	s.wait(self)
}

func (s *Scheduler) checkLive() {
	if s.aborted || s.failure != nil {
		panic(abortSignal{})
	}
	if s.exec == nil {
		invariant("no execution is running")
	}
}

// Execution runs f with exclusive access to the running execution. Calling
// it again from inside f is a checker bug.
func (s *Scheduler) Execution(f func(*Execution)) {
	s.checkLive()
	if s.inExec {
		invariant("reentrant access to the running execution")
	}
	s.inExec = true
	thread := s.exec.Threads.active
	defer func() {
		s.inExec = false
		if r := recover(); r != nil {
			if _, ok := r.(abortSignal); !ok && s.failure == nil {
				s.failure = failureOf(r, thread)
			}
			panic(r)
		}
	}()
	f(s.exec)
}

// Synchronize runs f and then advances the running thread's clock, so
// that f's effects are ordered before anything the thread does next.
func (s *Scheduler) Synchronize(f func(*Execution)) {
	s.Execution(func(e *Execution) {
		f(e)
		e.Threads.ActiveCausalityInc()
	})
}

// Branch runs f, which registers the running thread's next operation, and
// then lets the Path choose which thread proceeds.
func (s *Scheduler) Branch(f func(*Execution)) {
	var (
		from, to int
		switched bool
	)
	s.Execution(func(e *Execution) {
		from = e.Threads.active
		f(e)
		switched = e.Schedule()
		to = e.Threads.active
	})
	if switched {
		s.switchTo(from, to)
	}
}

func (s *Scheduler) branchAction(obj ObjRef, action Action) {
	s.Branch(func(e *Execution) {
		e.Threads.Active().setOperation(Operation{Obj: obj, Action: action})
	})
}

// branchAcquire registers an opaque operation on obj and blocks the thread
// when locked is set; it resumes once a release makes it runnable again.
func (s *Scheduler) branchAcquire(obj ObjRef, locked bool) {
	s.Branch(func(e *Execution) {
		th := e.Threads.Active()
		th.setOperation(Operation{Obj: obj, Action: ActionOpaque})
		if locked {
			th.SetBlocked()
		}
	})
}

// Spawn creates a thread running f. The thread starts when the Path first
// selects it.
func (s *Scheduler) Spawn(f func()) ThreadID {
	var id ThreadID
	s.Execution(func(e *Execution) {
		id = e.NewThread()
	})
	s.start(f)
	return id
}

// suspend updates the running thread with f, schedules, and switches away
// if another thread was chosen.
func (s *Scheduler) suspend(f func(*Thread)) {
	var (
		from, to int
		switched bool
	)
	s.Execution(func(e *Execution) {
		from = e.Threads.active
		th := e.Threads.Active()
		f(th)
		th.clearOperation()
		switched = e.Schedule()
		to = e.Threads.active
	})
	if switched {
		s.switchTo(from, to)
	}
}

// Park blocks the running thread until another thread unparks it.
func (s *Scheduler) Park() {
	s.suspend((*Thread).SetBlocked)
}

// YieldNow lets other threads run before the running thread continues.
func (s *Scheduler) YieldNow() {
	s.suspend((*Thread).SetYield)
}

// Unpark makes the thread id runnable, ordering it after the running thread.
func (s *Scheduler) Unpark(id ThreadID) {
	s.Execution(func(e *Execution) {
		e.Threads.Unpark(id)
	})
}

// ThreadDone terminates the running thread and hands control to the next
// one. When no thread remains, the run is complete.
func (s *Scheduler) ThreadDone() {
	var (
		to   int
		more bool
	)
	s.Execution(func(e *Execution) {
		th := e.Threads.Active()
		th.SetTerminated()
		th.clearOperation()
		e.Schedule()
		more = e.Threads.IsActive()
		to = e.Threads.active
	})
	if !more {
		s.done <- nil
		return
	}
	s.coros[to].wake <- struct{}{}
}

// Critical runs f without schedule decisions. The running thread keeps
// control unless f blocks.
func (s *Scheduler) Critical(f func()) {
	s.Execution(func(e *Execution) {
		e.Threads.Active().critical++
	})
	defer s.Execution(func(e *Execution) {
		e.Threads.Active().critical--
	})
	f()
}

// CurrentThread returns the running thread's id.
func (s *Scheduler) CurrentThread() ThreadID {
	var id ThreadID
	s.Execution(func(e *Execution) {
		id = e.Threads.ActiveID()
	})
	return id
}

// Local returns the running thread's value for key.
func (s *Scheduler) Local(key any) (any, bool) {
	var (
		v  any
		ok bool
	)
	s.Execution(func(e *Execution) {
		v, ok = e.Threads.Active().locals[key]
	})
	return v, ok
}

// SetLocal stores a value for key on the running thread.
func (s *Scheduler) SetLocal(key, value any) {
	s.Execution(func(e *Execution) {
		th := e.Threads.Active()
		if th.locals == nil {
			th.locals = make(map[any]any)
		}
		th.locals[key] = value
	})
}
