package rt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// explore runs f over every interleaving the path yields and returns the
// number of iterations and the first violation found.
func explore(t *testing.T, maxThreads int, f func(s *Scheduler)) (int, error) {
	t.Helper()
	return exploreWith(t, NewPath(1000, Unbounded), maxThreads, f)
}

func exploreWith(t *testing.T, path *Path, maxThreads int, f func(s *Scheduler)) (int, error) {
	t.Helper()
	exec := NewExecution(maxThreads, path, NewArena())
	s := NewScheduler()
	for i := 1; ; i++ {
		exec.Reset()
		if err := s.Run(exec, func() { f(s) }); err != nil {
			return i, err
		}
		if err := leakCheck(exec); err != nil {
			return i, err
		}
		if !path.Step() {
			return i, nil
		}
	}
}

func leakCheck(exec *Execution) (err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(*Violation)
			if !ok {
				panic(r)
			}
			err = v
		}
	}()
	exec.CheckForLeaks()
	return nil
}

// requireViolation runs f and asserts it panics with a Violation of code.
func requireViolation(t *testing.T, code ViolationCode, f func()) *Violation {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		f()
	}()
	v, ok := got.(*Violation)
	require.Truef(t, ok, "expected *Violation panic, got %v", got)
	require.Equal(t, code, v.Code)
	return v
}

// spawn starts f on a new thread and returns a function that waits for it.
func spawn(s *Scheduler, f func()) func() {
	done := NewNotify(s, true, false)
	s.Spawn(func() {
		f()
		done.Notify()
	})
	return func() { done.Wait() }
}
