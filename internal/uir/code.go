package uir

import (
	"fmt"

	"lumen/internal/source"
)

// Inst is one untyped instruction. Instructions are immutable once the
// stream is built. Operand meaning is op-specific: A and B are references,
// Payload indexes a side table (Extra, Ints, Floats or Types) and Str
// points into the string table.
type Inst struct {
	Op      Op
	Span    source.Span
	A       Ref
	B       Ref
	Payload uint32
	Str     source.StringID
}

// Code is one declaration's untyped instruction stream plus its side
// tables, exactly as handed over by the lowering stage.
type Code struct {
	Insts   []Inst
	Extra   []uint32
	Ints    []int64
	Floats  []float64
	Types   []TypeExpr
	Strings *source.Interner
	Root    []InstIdx
}

// Get returns the instruction at idx.
func (c *Code) Get(idx InstIdx) Inst {
	return c.Insts[idx]
}

// Body decodes a body (length-prefixed instruction index list) at the given
// Extra offset.
func (c *Code) Body(extra uint32) []InstIdx {
	n := c.Extra[extra]
	out := make([]InstIdx, n)
	for i := uint32(0); i < n; i++ {
		out[i] = InstIdx(c.Extra[extra+1+i])
	}
	return out
}

// CondBrData is the decoded payload of an OpCondBr instruction.
type CondBrData struct {
	Then []InstIdx
	Else []InstIdx
}

// CondBr decodes the payload of an OpCondBr instruction.
func (c *Code) CondBr(inst Inst) CondBrData {
	if inst.Op != OpCondBr {
		panic(fmt.Sprintf("CondBr on %s instruction", inst.Op))
	}
	at := inst.Payload
	thenLen := c.Extra[at]
	elseLen := c.Extra[at+1]
	data := CondBrData{
		Then: make([]InstIdx, thenLen),
		Else: make([]InstIdx, elseLen),
	}
	at += 2
	for i := uint32(0); i < thenLen; i++ {
		data.Then[i] = InstIdx(c.Extra[at+i])
	}
	at += thenLen
	for i := uint32(0); i < elseLen; i++ {
		data.Else[i] = InstIdx(c.Extra[at+i])
	}
	return data
}

// SwitchCase is one decoded case of an OpSwitch instruction.
type SwitchCase struct {
	First   Ref // single value, or range start
	Last    Ref // range end (inclusive); equal to First for single values
	IsRange bool
	Body    []InstIdx
}

// SwitchData is the decoded payload of an OpSwitch instruction.
type SwitchData struct {
	Cases   []SwitchCase
	HasElse bool
	Else    []InstIdx
}

// Switch decodes the payload of an OpSwitch instruction.
func (c *Code) Switch(inst Inst) SwitchData {
	if inst.Op != OpSwitch {
		panic(fmt.Sprintf("Switch on %s instruction", inst.Op))
	}
	at := inst.Payload
	caseCount := c.Extra[at]
	hasElse := c.Extra[at+1] != 0
	at += 2

	data := SwitchData{HasElse: hasElse}
	for i := uint32(0); i < caseCount; i++ {
		var cs SwitchCase
		cs.IsRange = c.Extra[at] != 0
		cs.First = Ref(c.Extra[at+1])
		cs.Last = Ref(c.Extra[at+2])
		bodyLen := c.Extra[at+3]
		at += 4
		cs.Body = make([]InstIdx, bodyLen)
		for j := uint32(0); j < bodyLen; j++ {
			cs.Body[j] = InstIdx(c.Extra[at+j])
		}
		at += bodyLen
		data.Cases = append(data.Cases, cs)
	}
	if hasElse {
		elseLen := c.Extra[at]
		at++
		data.Else = make([]InstIdx, elseLen)
		for j := uint32(0); j < elseLen; j++ {
			data.Else[j] = InstIdx(c.Extra[at+j])
		}
	}
	return data
}

// CallData is the decoded payload of an OpCall instruction.
type CallData struct {
	Mod  CallMod
	Args []Ref
}

// Call decodes the payload of an OpCall instruction. The callee is the
// instruction's A operand.
func (c *Code) Call(inst Inst) CallData {
	if inst.Op != OpCall {
		panic(fmt.Sprintf("Call on %s instruction", inst.Op))
	}
	at := inst.Payload
	mod := CallMod(c.Extra[at])
	argc := c.Extra[at+1]
	data := CallData{Mod: mod, Args: make([]Ref, argc)}
	for i := uint32(0); i < argc; i++ {
		data.Args[i] = Ref(c.Extra[at+2+i])
	}
	return data
}

// LogArgs decodes the payload of an OpCompileLog instruction.
func (c *Code) LogArgs(inst Inst) []Ref {
	if inst.Op != OpCompileLog {
		panic(fmt.Sprintf("LogArgs on %s instruction", inst.Op))
	}
	at := inst.Payload
	argc := c.Extra[at]
	out := make([]Ref, argc)
	for i := uint32(0); i < argc; i++ {
		out[i] = Ref(c.Extra[at+1+i])
	}
	return out
}

// TypeAt returns the type annotation at the given index.
func (c *Code) TypeAt(idx TypeExprIdx) TypeExpr {
	if idx == NoTypeExpr {
		return TypeExpr{}
	}
	return c.Types[idx]
}
