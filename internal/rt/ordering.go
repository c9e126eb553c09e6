package rt

import "fmt"

// Ordering is a memory ordering for atomic operations and fences.
type Ordering uint8

const (
	Relaxed Ordering = iota
	Release
	Acquire
	AcqRel
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case Relaxed:
		return "Relaxed"
	case Release:
		return "Release"
	case Acquire:
		return "Acquire"
	case AcqRel:
		return "AcqRel"
	case SeqCst:
		return "SeqCst"
	default:
		return fmt.Sprintf("Ordering(%d)", uint8(o))
	}
}

func (o Ordering) acquires() bool {
	return o == Acquire || o == AcqRel || o == SeqCst
}

func (o Ordering) releases() bool {
	return o == Release || o == AcqRel || o == SeqCst
}
