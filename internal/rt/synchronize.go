package rt

// Synchronize carries causality between threads through one object.
//
// The store side records the full causality of every thread that stored
// through the object, whatever the ordering; it backs the soundness checks
// for raw access. The release side holds only what Release (or stronger)
// stores published and is what Acquire (or stronger) loads receive.
type Synchronize struct {
	stored  VersionVec
	release VersionVec
}

func newSynchronize(a *Arena, width int) Synchronize {
	return Synchronize{
		stored:  newVersionVecIn(a, width),
		release: newVersionVecIn(a, width),
	}
}

func (s Synchronize) cloneIn(a *Arena) Synchronize {
	return Synchronize{
		stored:  s.stored.cloneIn(a),
		release: s.release.cloneIn(a),
	}
}

// SyncStore publishes the active thread's causality according to order.
func (s *Synchronize) SyncStore(threads *ThreadSet, order Ordering) {
	active := threads.Active()
	s.stored.Join(active.Causality)
	if !order.releases() {
		return
	}
	s.release.Join(active.Causality)
	if order == SeqCst {
		threads.SeqCstSync()
	}
}

// SyncLoad joins published causality into the active thread according to order.
func (s *Synchronize) SyncLoad(threads *ThreadSet, order Ordering) {
	if !order.acquires() {
		return
	}
	threads.Active().Causality.Join(s.release)
	if order == SeqCst {
		threads.SeqCstSync()
	}
}

// VersionVec returns the store-side vector: the join of the causality of
// every thread that stored through this object.
func (s *Synchronize) VersionVec() VersionVec {
	return s.stored
}
