package rt

import (
	"fmt"
	"strings"
)

// SnapshotVersion is the current PathSnapshot format.
const SnapshotVersion = 1

// PathSnapshot is the serializable form of a Path, positioned at the start
// of a run.
type PathSnapshot struct {
	Version         int              `json:"version"`
	MaxBranches     int              `json:"max_branches"`
	PreemptionBound int              `json:"preemption_bound"`
	Branches        []BranchSnapshot `json:"branches"`
}

// BranchSnapshot is one recorded decision.
//
// Threads encodes a schedule decision with one letter per thread:
// d(isabled), s(kip), y(ield), p(ending), a(ctive), v(isited).
type BranchSnapshot struct {
	Kind          string `json:"kind"`
	Threads       string `json:"threads,omitempty"`
	InitialActive *int   `json:"initial_active,omitempty"`
	Preemptions   int    `json:"preemptions,omitempty"`
	Values        []int  `json:"values,omitempty"`
	Pos           int    `json:"pos,omitempty"`
	Taken         bool   `json:"taken,omitempty"`
	Remaining     int    `json:"remaining"`
}

const threadLetters = "dsypav"

// Snapshot captures the path for persistence.
func (p *Path) Snapshot() PathSnapshot {
	s := PathSnapshot{
		Version:         SnapshotVersion,
		MaxBranches:     p.maxBranches,
		PreemptionBound: p.preemptionBound,
		Branches:        make([]BranchSnapshot, len(p.branches)),
	}
	for i := range p.branches {
		b := &p.branches[i]
		bs := BranchSnapshot{Kind: b.kind.String(), Remaining: b.remaining()}
		switch b.kind {
		case branchSchedule:
			var sb strings.Builder
			for _, th := range b.threads {
				sb.WriteByte(threadLetters[th])
			}
			bs.Threads = sb.String()
			if b.initialActive >= 0 {
				ia := b.initialActive
				bs.InitialActive = &ia
			}
			bs.Preemptions = b.preemptions
		case branchLoad:
			bs.Values = append([]int(nil), b.values...)
			bs.Pos = b.pos
		case branchSpurious:
			bs.Taken = b.taken
		}
		s.Branches[i] = bs
	}
	return s
}

// RestorePath rebuilds a Path from a snapshot.
func RestorePath(s PathSnapshot) (*Path, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported path snapshot version %d", s.Version)
	}
	if s.MaxBranches <= 0 {
		return nil, fmt.Errorf("invalid max_branches %d", s.MaxBranches)
	}
	if len(s.Branches) > s.MaxBranches {
		return nil, fmt.Errorf("snapshot has %d branches, more than max_branches %d", len(s.Branches), s.MaxBranches)
	}
	p := NewPath(s.MaxBranches, s.PreemptionBound)
	p.branches = make([]branch, 0, len(s.Branches))
	for i, bs := range s.Branches {
		b := branch{initialActive: -1, prev: -1}
		switch bs.Kind {
		case "schedule":
			b.kind = branchSchedule
			active := 0
			for _, c := range []byte(bs.Threads) {
				th := strings.IndexByte(threadLetters, c)
				if th < 0 {
					return nil, fmt.Errorf("branch %d: invalid thread state %q", i, c)
				}
				if pathThread(th) == threadActive {
					active++
				}
				b.threads = append(b.threads, pathThread(th))
			}
			if active > 1 {
				return nil, fmt.Errorf("branch %d: %d active threads", i, active)
			}
			if bs.InitialActive != nil {
				if *bs.InitialActive < 0 || *bs.InitialActive >= len(b.threads) {
					return nil, fmt.Errorf("branch %d: initial_active %d out of range", i, *bs.InitialActive)
				}
				b.initialActive = *bs.InitialActive
			}
			b.preemptions = bs.Preemptions
			b.prev = p.lastSchedule(len(p.branches))
		case "load":
			b.kind = branchLoad
			if bs.Pos < 0 || bs.Pos >= len(bs.Values) {
				return nil, fmt.Errorf("branch %d: load position %d out of range", i, bs.Pos)
			}
			b.values = append([]int(nil), bs.Values...)
			b.pos = bs.Pos
		case "spurious":
			b.kind = branchSpurious
			b.taken = bs.Taken
		default:
			return nil, fmt.Errorf("branch %d: unknown kind %q", i, bs.Kind)
		}
		p.branches = append(p.branches, b)
	}
	return p, nil
}
