package rt

type cellState struct {
	lastWrite VersionVec
	reads     VersionVec
	reading   int
	writing   bool
}

func (*cellState) kind() Kind { return KindCell }

// Cell guards raw data with causality checks. Accesses are not branch
// points; they only verify that conflicting accesses are ordered.
type Cell struct {
	s   *Scheduler
	ref Ref[*cellState]
}

// NewCell creates a cell whose initialization counts as a write by the
// running thread.
func NewCell(s *Scheduler) Cell {
	c := Cell{s: s}
	s.Execution(func(e *Execution) {
		c.ref = insert(e.Objects, &cellState{
			lastWrite: e.Threads.Active().Causality.cloneIn(e.arena),
			reads:     newVersionVecIn(e.arena, e.Threads.max),
		})
	})
	return c
}

// Read runs f as an immutable access.
func (c Cell) Read(f func()) {
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		causality := e.Threads.Active().Causality
		if st.writing {
			violate(ErrCodeCausality, "cell %d read while being written", c.ref.index)
		}
		if !st.lastWrite.LessEq(causality) {
			violate(ErrCodeCausality, "cell %d read concurrently with a write", c.ref.index)
		}
		st.reading++
	})
	f()
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		st.reading--
		st.reads.Join(e.Threads.Active().Causality)
	})
}

// Write runs f as a mutable access.
func (c Cell) Write(f func()) {
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		causality := e.Threads.Active().Causality
		if st.writing || st.reading > 0 {
			violate(ErrCodeCausality, "cell %d written while accessed", c.ref.index)
		}
		if !st.lastWrite.LessEq(causality) {
			violate(ErrCodeCausality, "cell %d written concurrently with a write", c.ref.index)
		}
		if !st.reads.LessEq(causality) {
			violate(ErrCodeCausality, "cell %d written concurrently with a read", c.ref.index)
		}
		st.writing = true
	})
	f()
	c.s.Execution(func(e *Execution) {
		st := c.ref.Get(e.Objects)
		st.writing = false
		st.lastWrite.Set(e.Threads.Active().Causality)
	})
}
