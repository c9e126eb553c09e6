package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/skein/internal/rt"
)

// StopReason says why a search ended before exhausting the Path.
type StopReason string

const (
	StopNone            StopReason = ""
	StopMaxPermutations StopReason = "max_permutations"
	StopMaxDuration     StopReason = "max_duration"
	StopCanceled        StopReason = "canceled"
)

// Report summarizes one check.
type Report struct {
	RunID      string
	Iterations int

	// Complete is set when every interleaving within the bounds was
	// explored. A search stopped by a bound or a failure is incomplete.
	Complete   bool
	StopReason StopReason
	Elapsed    time.Duration

	// PeakArena is the largest clock storage any single run used, in words.
	PeakArena int
}

// Failure is a defect found in a model, together with the run that found it.
type Failure struct {
	RunID     string
	Iteration int

	// Path replays the failing run when passed to Replay.
	Path rt.PathSnapshot

	// Fingerprint identifies the failing interleaving independent of how
	// the search reached it.
	Fingerprint string

	Cause error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("iteration %d: %v", f.Iteration, f.Cause)
}

// Unwrap returns the violation.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Violation returns the underlying violation, if the cause is one.
func (f *Failure) Violation() (*rt.Violation, bool) {
	var v *rt.Violation
	ok := errors.As(f.Cause, &v)
	return v, ok
}

// IsFailure returns true if err is a *Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
