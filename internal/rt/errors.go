package rt

import (
	"errors"
	"fmt"
	"strings"
)

// NoThread marks a Violation that was not raised by a specific thread.
const NoThread = -1

// ViolationCode categorizes defects found while exploring a model.
type ViolationCode string

const (
	// ErrCodeDeadlock indicates no thread can run while some have not terminated.
	ErrCodeDeadlock ViolationCode = "DEADLOCK"

	// ErrCodeLeak indicates an allocation or reference count outlived the iteration.
	ErrCodeLeak ViolationCode = "LEAK"

	// ErrCodeDoubleFree indicates an allocation was released twice.
	ErrCodeDoubleFree ViolationCode = "DOUBLE_FREE"

	// ErrCodeCausality indicates concurrent unsynchronized access to a causal cell.
	ErrCodeCausality ViolationCode = "CAUSALITY"

	// ErrCodeUnsyncAccess indicates raw access to an atomic that races with a store.
	ErrCodeUnsyncAccess ViolationCode = "UNSYNC_ACCESS"

	// ErrCodeUnsupportedFence indicates a fence ordering the checker cannot model.
	ErrCodeUnsupportedFence ViolationCode = "UNSUPPORTED_FENCE"

	// ErrCodeNondeterminism indicates a replayed decision did not match the model.
	ErrCodeNondeterminism ViolationCode = "NONDETERMINISM"

	// ErrCodeBranchLimit indicates a single iteration recorded too many decisions.
	ErrCodeBranchLimit ViolationCode = "BRANCH_LIMIT"

	// ErrCodePreemptionLimit indicates the preemption bookkeeping exceeded its bound.
	ErrCodePreemptionLimit ViolationCode = "PREEMPTION_LIMIT"

	// ErrCodeThreadLimit indicates the model spawned more threads than configured.
	ErrCodeThreadLimit ViolationCode = "THREAD_LIMIT"

	// ErrCodePanic indicates the model itself panicked (usually a failed assertion).
	ErrCodePanic ViolationCode = "PANIC"
)

// Violation is a defect found in the model under test.
//
// Violations abort the iteration in which they occur. The Path that led to
// the violation reproduces it exactly.
type Violation struct {
	// Code identifies the defect category.
	Code ViolationCode

	// Message is a human-readable description.
	Message string

	// Thread is the index of the thread that observed the defect, or NoThread.
	Thread int

	// Stack is the goroutine stack for ErrCodePanic violations.
	Stack string
}

// Error implements the error interface.
func (e *Violation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Thread != NoThread {
		fmt.Fprintf(&b, " (thread=%d)", e.Thread)
	}
	return b.String()
}

// InvariantError reports a bug in the checker itself.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Message
}

func violate(code ViolationCode, format string, args ...any) {
	panic(&Violation{Code: code, Message: fmt.Sprintf(format, args...), Thread: NoThread})
}

func invariant(format string, args ...any) {
	panic(&InvariantError{Message: fmt.Sprintf(format, args...)})
}

// HasCode reports whether err wraps a Violation with the given code.
func HasCode(err error, code ViolationCode) bool {
	var v *Violation
	if errors.As(err, &v) {
		return v.Code == code
	}
	return false
}

// IsDeadlock returns true if the error is a deadlock violation.
func IsDeadlock(err error) bool { return HasCode(err, ErrCodeDeadlock) }

// IsLeak returns true if the error is a leak violation.
func IsLeak(err error) bool { return HasCode(err, ErrCodeLeak) }

// IsCausality returns true if the error is a causal cell violation.
func IsCausality(err error) bool { return HasCode(err, ErrCodeCausality) }

// IsUnsyncAccess returns true if the error is an unsynchronized atomic access.
func IsUnsyncAccess(err error) bool { return HasCode(err, ErrCodeUnsyncAccess) }

// IsInvariant returns true if the error reports a checker bug.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
