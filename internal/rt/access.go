package rt

// Access records the last operation of one kind on an object: the path
// position of the schedule decision that ran it and the DPOR clock of the
// thread that performed it.
type Access struct {
	pathID int
	dpor   VersionVec
}

// PathID returns the schedule decision the access was made under.
func (a *Access) PathID() int {
	return a.pathID
}

// Version returns the DPOR clock snapshot of the access.
func (a *Access) Version() VersionVec {
	return a.dpor
}

// HappensBefore reports whether the access is ordered before a thread whose
// DPOR clock is v.
func (a *Access) HappensBefore(v VersionVec) bool {
	return a.dpor.LessEq(v)
}

func setAccess(arena *Arena, slot **Access, pathID int, v VersionVec) {
	if *slot == nil {
		*slot = &Access{pathID: pathID, dpor: v.cloneIn(arena)}
		return
	}
	(*slot).pathID = pathID
	(*slot).dpor.Set(v)
}
