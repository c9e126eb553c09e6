package rt

import "fmt"

// pathThread is a thread's status within one schedule decision.
type pathThread uint8

const (
	// Not runnable at this point.
	threadDisabled pathThread = iota
	// Runnable, but no dependency requires trying it here yet.
	threadSkip
	// Yielded; eligible only when nothing else can run.
	threadYield
	// Must still be tried here.
	threadPending
	// Chosen for the current run.
	threadActive
	// Already tried.
	threadVisited
)

func (t pathThread) isEnabled() bool {
	return t != threadDisabled
}

func (t *pathThread) explore() {
	if *t == threadSkip {
		*t = threadPending
	}
}

type branchKind uint8

const (
	branchSchedule branchKind = iota
	branchLoad
	branchSpurious
)

func (k branchKind) String() string {
	switch k {
	case branchSchedule:
		return "schedule"
	case branchLoad:
		return "load"
	case branchSpurious:
		return "spurious"
	default:
		return fmt.Sprintf("branchKind(%d)", uint8(k))
	}
}

// branch is one recorded decision. Schedule decisions use threads,
// initialActive, preemptions and prev; load decisions use values and pos;
// spurious decisions use taken.
type branch struct {
	kind branchKind

	threads       []pathThread
	initialActive int
	preemptions   int
	prev          int

	values []int
	pos    int

	taken bool
}

func (b *branch) activeIndex() int {
	for i, th := range b.threads {
		if th == threadActive {
			return i
		}
	}
	return -1
}

// remaining counts the alternatives not yet tried after the current one.
func (b *branch) remaining() int {
	switch b.kind {
	case branchSchedule:
		n := 0
		for _, th := range b.threads {
			if th == threadPending {
				n++
			}
		}
		return n
	case branchLoad:
		return len(b.values) - b.pos - 1
	default:
		if b.taken {
			return 0
		}
		return 1
	}
}

// Unbounded disables the preemption bound.
const Unbounded = -1

// Path is the decision log of the current run and, across runs, the DPOR
// exploration frontier.
//
// During a run the decisions up to the end of the log are replayed, and
// new decisions are appended once the log is exhausted. Step then moves to
// the next unexplored alternative, depth first.
type Path struct {
	maxBranches     int
	preemptionBound int
	pos             int
	branches        []branch
}

// NewPath creates an empty path. A negative preemptionBound (Unbounded)
// disables preemption bounding.
func NewPath(maxBranches, preemptionBound int) *Path {
	if preemptionBound < 0 {
		preemptionBound = Unbounded
	}
	return &Path{maxBranches: maxBranches, preemptionBound: preemptionBound}
}

// MaxBranches returns the per-run decision cap.
func (p *Path) MaxBranches() int { return p.maxBranches }

// PreemptionBound returns the preemption bound, or Unbounded.
func (p *Path) PreemptionBound() int { return p.preemptionBound }

// Pos returns the index of the next decision of the current run.
func (p *Path) Pos() int { return p.pos }

// Len returns the number of recorded decisions.
func (p *Path) Len() int { return len(p.branches) }

// IsTraversed reports whether the current run has replayed every recorded
// decision and now explores new ground.
func (p *Path) IsTraversed() bool {
	return p.pos == len(p.branches)
}

func (p *Path) push(b branch) {
	if len(p.branches) >= p.maxBranches {
		violate(ErrCodeBranchLimit, "model exceeded the maximum of %d branches per run", p.maxBranches)
	}
	p.branches = append(p.branches, b)
}

func (p *Path) next(kind branchKind) *branch {
	if p.pos >= len(p.branches) {
		invariant("reached unexpected end of path at decision %d", p.pos)
	}
	b := &p.branches[p.pos]
	if b.kind != kind {
		violate(ErrCodeNondeterminism,
			"decision %d was recorded as %s but the model reached a %s; is the model fully deterministic?",
			p.pos, b.kind, kind)
	}
	p.pos++
	return b
}

// PushLoad records a new value decision over seed, a list of store indices
// in exploration order. It may only be called once the path is traversed.
func (p *Path) PushLoad(seed []int) {
	if !p.IsTraversed() {
		invariant("cannot push a load decision while replaying")
	}
	values := make([]int, len(seed))
	copy(values, seed)
	p.push(branch{kind: branchLoad, values: values, initialActive: -1, prev: -1})
}

// BranchLoad returns the store index chosen at the next load decision.
func (p *Path) BranchLoad() int {
	b := p.next(branchLoad)
	return b.values[b.pos]
}

// BranchSpurious returns whether the next spurious-wakeup decision fires.
// The first run takes the non-spurious alternative.
func (p *Path) BranchSpurious() bool {
	if p.IsTraversed() {
		p.push(branch{kind: branchSpurious, initialActive: -1, prev: -1})
	}
	return p.next(branchSpurious).taken
}

func (p *Path) lastSchedule(before int) int {
	for i := before - 1; i >= 0; i-- {
		if p.branches[i].kind == branchSchedule {
			return i
		}
	}
	return -1
}

// BranchThread returns the thread chosen at the next schedule decision.
// When the decision is new, seed gives each thread's initial status; the
// thread seeded Active is the non-preempting default. It reports false when
// no thread can run.
func (p *Path) BranchThread(seed []pathThread) (int, bool) {
	if p.IsTraversed() {
		b := branch{
			kind:          branchSchedule,
			threads:       make([]pathThread, len(seed)),
			initialActive: -1,
			prev:          p.lastSchedule(len(p.branches)),
		}
		for i, th := range seed {
			b.threads[i] = th
			if th == threadActive {
				if b.initialActive >= 0 {
					invariant("schedule seeded with multiple active threads")
				}
				b.initialActive = i
			}
		}
		if b.initialActive < 0 {
			for i, th := range b.threads {
				if th == threadYield {
					b.threads[i] = threadActive
					b.initialActive = i
					break
				}
			}
		}
		if b.prev >= 0 {
			prev := &p.branches[b.prev]
			b.preemptions = prev.preemptions
			if prev.initialActive >= 0 && prev.initialActive != b.initialActive &&
				prev.initialActive < len(b.threads) && b.threads[prev.initialActive].isEnabled() {
				b.preemptions++
			}
		}
		p.push(b)
	}
	b := p.next(branchSchedule)
	i := b.activeIndex()
	return i, i >= 0
}

func (p *Path) scheduleAt(point int) *branch {
	if point < 0 || point >= len(p.branches) || p.branches[point].kind != branchSchedule {
		invariant("backtrack point %d is not a schedule decision", point)
	}
	return &p.branches[point]
}

// Backtrack asks for thread to be tried at the schedule decision point.
func (p *Path) Backtrack(point, thread int) {
	b := p.scheduleAt(point)
	p.backtrackAt(b, thread)
	if p.preemptionBound == Unbounded {
		return
	}
	// A bounded search may have refused the preemption that exposes the
	// race; also try the thread where the schedule last changed hands.
	curr := b.prev
	for curr >= 0 {
		cb := &p.branches[curr]
		if cb.prev < 0 || cb.activeIndex() != p.branches[cb.prev].activeIndex() {
			p.backtrackAt(cb, thread)
			return
		}
		curr = cb.prev
	}
}

func (p *Path) backtrackAt(b *branch, thread int) {
	if p.preemptionBound != Unbounded {
		if b.preemptions > p.preemptionBound {
			violate(ErrCodePreemptionLimit, "schedule has %d preemptions, bound is %d", b.preemptions, p.preemptionBound)
		}
		if b.preemptions == p.preemptionBound {
			return
		}
	}
	if thread >= len(b.threads) {
		return
	}
	if b.threads[thread].isEnabled() {
		b.threads[thread].explore()
		return
	}
	for i := range b.threads {
		b.threads[i].explore()
	}
}

// Step prepares the next run. It discards every decision after the latest
// one with an untried alternative and switches that decision to its next
// alternative. It returns false once the search is exhausted.
func (p *Path) Step() bool {
	p.pos = 0
	for len(p.branches) > 0 {
		last := len(p.branches) - 1
		b := &p.branches[last]
		switch b.kind {
		case branchSchedule:
			if i := b.activeIndex(); i >= 0 {
				b.threads[i] = threadVisited
			}
			for i, th := range b.threads {
				if th == threadPending {
					b.threads[i] = threadActive
					return true
				}
			}
		case branchLoad:
			b.pos++
			if b.pos < len(b.values) {
				return true
			}
		case branchSpurious:
			if !b.taken {
				b.taken = true
				return true
			}
		}
		p.branches[last] = branch{}
		p.branches = p.branches[:last]
	}
	return false
}
