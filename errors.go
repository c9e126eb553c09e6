package skein

import (
	"errors"

	"github.com/roach88/skein/internal/rt"
)

// Violation is the defect behind a Failure.
type Violation = rt.Violation

// ViolationCode categorizes a Violation.
type ViolationCode = rt.ViolationCode

const (
	ErrCodeDeadlock         = rt.ErrCodeDeadlock
	ErrCodeLeak             = rt.ErrCodeLeak
	ErrCodeDoubleFree       = rt.ErrCodeDoubleFree
	ErrCodeCausality        = rt.ErrCodeCausality
	ErrCodeUnsyncAccess     = rt.ErrCodeUnsyncAccess
	ErrCodeUnsupportedFence = rt.ErrCodeUnsupportedFence
	ErrCodeNondeterminism   = rt.ErrCodeNondeterminism
	ErrCodeBranchLimit      = rt.ErrCodeBranchLimit
	ErrCodePreemptionLimit  = rt.ErrCodePreemptionLimit
	ErrCodeThreadLimit      = rt.ErrCodeThreadLimit
	ErrCodePanic            = rt.ErrCodePanic
)

// Code returns the violation code behind err, or "" when err does not wrap
// a Violation.
func Code(err error) ViolationCode {
	var v *Violation
	if errors.As(err, &v) {
		return v.Code
	}
	return ""
}

// IsDeadlock reports whether err is a deadlock.
func IsDeadlock(err error) bool { return rt.IsDeadlock(err) }

// IsLeak reports whether err is a leaked Arc or Alloc.
func IsLeak(err error) bool { return rt.IsLeak(err) }

// IsCausality reports whether err is a data race on a Cell.
func IsCausality(err error) bool { return rt.IsCausality(err) }
