package rt

import (
	"strconv"
	"strings"
)

// VersionVec is a vector clock with one slot per thread.
//
// The zero value has width zero. Vectors created for an Execution all share
// that execution's width (its maximum thread count).
type VersionVec struct {
	versions []uint64
}

// NewVersionVec returns an all-zero vector of width n backed by the heap.
func NewVersionVec(n int) VersionVec {
	return VersionVec{versions: make([]uint64, n)}
}

func newVersionVecIn(a *Arena, n int) VersionVec {
	return VersionVec{versions: a.alloc(n)}
}

// Len returns the width of the vector.
func (v VersionVec) Len() int {
	return len(v.versions)
}

// Get returns the clock for thread i.
func (v VersionVec) Get(i int) uint64 {
	return v.versions[i]
}

// Inc bumps the clock for thread i.
func (v *VersionVec) Inc(i int) {
	v.versions[i]++
}

// Join sets v to the pointwise maximum of v and other.
func (v *VersionVec) Join(other VersionVec) {
	for i, o := range other.versions {
		if o > v.versions[i] {
			v.versions[i] = o
		}
	}
}

// Set overwrites v with the contents of other.
func (v *VersionVec) Set(other VersionVec) {
	copy(v.versions, other.versions)
}

// LessEq reports whether v happens-before-or-equals other: every slot of v
// is at most the matching slot of other.
func (v VersionVec) LessEq(other VersionVec) bool {
	for i, x := range v.versions {
		var o uint64
		if i < len(other.versions) {
			o = other.versions[i]
		}
		if x > o {
			return false
		}
	}
	return true
}

// Concurrent reports whether neither vector is ordered before the other.
func (v VersionVec) Concurrent(other VersionVec) bool {
	return !v.LessEq(other) && !other.LessEq(v)
}

// Clone returns a heap copy of v.
func (v VersionVec) Clone() VersionVec {
	return v.cloneIn(nil)
}

func (v VersionVec) cloneIn(a *Arena) VersionVec {
	c := newVersionVecIn(a, len(v.versions))
	copy(c.versions, v.versions)
	return c
}

// Versions returns a copy of the per-thread clocks.
func (v VersionVec) Versions() []uint64 {
	out := make([]uint64, len(v.versions))
	copy(out, v.versions)
	return out
}

func (v VersionVec) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v.versions {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(x, 10))
	}
	b.WriteByte(']')
	return b.String()
}
