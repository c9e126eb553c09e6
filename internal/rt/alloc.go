package rt

type allocState struct {
	freed bool
}

func (*allocState) kind() Kind { return KindAlloc }

// Alloc tracks a modeled allocation that must be freed before the
// iteration ends.
type Alloc struct {
	s   *Scheduler
	ref Ref[*allocState]
}

// NewAlloc registers a live allocation with the running execution.
func NewAlloc(s *Scheduler) Alloc {
	a := Alloc{s: s}
	s.Execution(func(e *Execution) {
		a.ref = insert(e.Objects, &allocState{})
	})
	return a
}

// Free releases the allocation. Freeing it twice is a violation.
func (a Alloc) Free() {
	a.s.Execution(func(e *Execution) {
		st := a.ref.Get(e.Objects)
		if st.freed {
			violate(ErrCodeDoubleFree, "allocation %d freed twice", a.ref.index)
		}
		st.freed = true
	})
}
