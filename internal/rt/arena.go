package rt

const arenaChunk = 4096

// Arena hands out zeroed clock storage for one Execution.
//
// Everything allocated from the arena lives exactly as long as the
// iteration that allocated it; Reset rewinds the arena without releasing
// its chunks so the next iteration reuses the same memory.
type Arena struct {
	chunks [][]uint64
	chunk  int
	off    int
	used   int
	peak   int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) alloc(n int) []uint64 {
	if a == nil {
		return make([]uint64, n)
	}
	a.used += n
	if a.used > a.peak {
		a.peak = a.used
	}
	if n > arenaChunk {
		return make([]uint64, n)
	}
	for {
		if a.chunk == len(a.chunks) {
			a.chunks = append(a.chunks, make([]uint64, arenaChunk))
		}
		c := a.chunks[a.chunk]
		if a.off+n <= len(c) {
			s := c[a.off : a.off+n : a.off+n]
			a.off += n
			clear(s)
			return s
		}
		a.chunk++
		a.off = 0
	}
}

// Reset rewinds the arena. Storage handed out before the reset must no
// longer be referenced.
func (a *Arena) Reset() {
	a.chunk = 0
	a.off = 0
	a.used = 0
}

// Used returns the number of words handed out since the last Reset.
func (a *Arena) Used() int {
	return a.used
}

// Peak returns the largest Used value observed over the arena's lifetime.
func (a *Arena) Peak() int {
	return a.peak
}
