package tir

// arenaChunk is the allocation granularity. Chunks are never reallocated,
// so pointers into them stay valid for the arena's lifetime.
const arenaChunk = 256

// Arena owns every instruction and value created while analyzing one
// declaration. Blocks opened while inlining another function's body still
// allocate from the calling declaration's arena, because the inlined result
// must outlive the callee's re-analysis.
type Arena struct {
	instChunks [][]Inst
	instLen    int
	valChunks  [][]Value
	valLen     int
}

func NewArena() *Arena {
	return &Arena{}
}

// NewInst copies inst into the arena and returns a stable pointer.
func (a *Arena) NewInst(inst Inst) *Inst {
	if len(a.instChunks) == 0 || a.instLen == arenaChunk {
		a.instChunks = append(a.instChunks, make([]Inst, 0, arenaChunk))
		a.instLen = 0
	}
	last := len(a.instChunks) - 1
	a.instChunks[last] = append(a.instChunks[last], inst)
	a.instLen++
	return &a.instChunks[last][len(a.instChunks[last])-1]
}

// NewValue copies v into the arena and returns a stable pointer.
func (a *Arena) NewValue(v Value) *Value {
	if len(a.valChunks) == 0 || a.valLen == arenaChunk {
		a.valChunks = append(a.valChunks, make([]Value, 0, arenaChunk))
		a.valLen = 0
	}
	last := len(a.valChunks) - 1
	a.valChunks[last] = append(a.valChunks[last], v)
	a.valLen++
	return &a.valChunks[last][len(a.valChunks[last])-1]
}

// Len returns the number of instructions allocated so far.
func (a *Arena) Len() int {
	n := 0
	for _, c := range a.instChunks {
		n += len(c)
	}
	return n
}
