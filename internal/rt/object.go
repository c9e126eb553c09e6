package rt

import "fmt"

// Kind names the variant stored in an ObjectStore entry.
type Kind uint8

const (
	KindAlloc Kind = iota
	KindArc
	KindAtomic
	KindMutex
	KindCondvar
	KindNotify
	KindCell
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "alloc"
	case KindArc:
		return "arc"
	case KindAtomic:
		return "atomic"
	case KindMutex:
		return "mutex"
	case KindCondvar:
		return "condvar"
	case KindNotify:
		return "notify"
	case KindCell:
		return "cell"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type entry interface {
	kind() Kind
}

// Object is the closed set of per-object states an ObjectStore holds.
type Object interface {
	entry
	*allocState | *arcState | *atomicState | *mutexState | *condvarState | *notifyState | *cellState
}

// ObjRef is an index into an ObjectStore with its variant erased.
type ObjRef struct {
	index int
}

// Index returns the position of the object in its store.
func (r ObjRef) Index() int {
	return r.index
}

// Ref is a typed index into an ObjectStore. Refs are only minted by
// insertion, so the variant at the index always matches T.
type Ref[T Object] struct {
	index int
}

// Erase drops the variant tag.
func (r Ref[T]) Erase() ObjRef {
	return ObjRef{index: r.index}
}

// Get returns the object the ref points to.
func (r Ref[T]) Get(s *ObjectStore) T {
	if r.index >= len(s.entries) {
		invariant("object ref %d out of range (len %d)", r.index, len(s.entries))
	}
	obj, ok := s.entries[r.index].(T)
	if !ok {
		invariant("object %d is a %s, not the requested type", r.index, s.entries[r.index].kind())
	}
	return obj
}

func insert[T Object](s *ObjectStore, obj T) Ref[T] {
	s.entries = append(s.entries, obj)
	return Ref[T]{index: len(s.entries) - 1}
}

// Action is what a pending operation does to its object.
type Action uint8

const (
	ActionOpaque Action = iota
	ActionLoad
	ActionStore
	ActionRMW
	ActionRefInc
	ActionRefDec
)

func (a Action) String() string {
	switch a {
	case ActionOpaque:
		return "opaque"
	case ActionLoad:
		return "load"
	case ActionStore:
		return "store"
	case ActionRMW:
		return "rmw"
	case ActionRefInc:
		return "ref_inc"
	case ActionRefDec:
		return "ref_dec"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Operation is an action a thread is about to perform on an object.
type Operation struct {
	Obj    ObjRef
	Action Action
}

// ObjectStore is the per-iteration arena of modeled synchronization objects.
type ObjectStore struct {
	entries []entry
}

// NewObjectStore creates an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{}
}

// Len returns the number of objects.
func (s *ObjectStore) Len() int {
	return len(s.entries)
}

// Kind returns the variant of the object at r.
func (s *ObjectStore) Kind(r ObjRef) Kind {
	return s.entries[r.index].kind()
}

// Truncate drops every object at index n and above.
func (s *ObjectStore) Truncate(n int) {
	clear(s.entries[n:])
	s.entries = s.entries[:n]
}

// Clear drops every object while keeping capacity.
func (s *ObjectStore) Clear() {
	s.Truncate(0)
}

// LastDependentAccess returns the last access that op does not commute with.
func (s *ObjectStore) LastDependentAccess(op Operation) *Access {
	switch obj := s.entries[op.Obj.index].(type) {
	case *atomicState:
		return obj.lastDependentAccess(op.Action)
	case *arcState:
		return obj.lastDependentAccess(op.Action)
	case *mutexState:
		return obj.lastAccess
	case *condvarState:
		return obj.lastAccess
	case *notifyState:
		return obj.lastAccess
	default:
		invariant("object %d (%s) is not branchable", op.Obj.index, obj.kind())
		return nil
	}
}

// SetLastAccess records op as the latest access to its object.
func (s *ObjectStore) SetLastAccess(arena *Arena, op Operation, pathID int, dpor VersionVec) {
	switch obj := s.entries[op.Obj.index].(type) {
	case *atomicState:
		obj.setLastAccess(arena, op.Action, pathID, dpor)
	case *arcState:
		obj.setLastAccess(arena, op.Action, pathID, dpor)
	case *mutexState:
		setAccess(arena, &obj.lastAccess, pathID, dpor)
	case *condvarState:
		setAccess(arena, &obj.lastAccess, pathID, dpor)
	case *notifyState:
		setAccess(arena, &obj.lastAccess, pathID, dpor)
	default:
		invariant("object %d (%s) is not branchable", op.Obj.index, obj.kind())
	}
}

// CheckForLeaks raises a leak violation for the first allocation or
// reference count still live at the end of an iteration.
func (s *ObjectStore) CheckForLeaks() {
	for i, e := range s.entries {
		switch obj := e.(type) {
		case *allocState:
			if !obj.freed {
				violate(ErrCodeLeak, "allocation %d leaked", i)
			}
		case *arcState:
			if obj.refCnt != 0 {
				violate(ErrCodeLeak, "arc %d leaked with %d references", i, obj.refCnt)
			}
		}
	}
}

func (s *ObjectStore) each(f func(ObjRef, entry)) {
	for i, e := range s.entries {
		f(ObjRef{index: i}, e)
	}
}
