package uir

import "fmt"

// InstIdx indexes an instruction inside Code.Insts.
type InstIdx uint32

// Ref is an operand reference. The 32-bit space is partitioned into three
// disjoint ranges: a fixed table of built-in constants, function parameters,
// and prior instruction results. Resolution checks the ranges in that order
// (see sema's resolver); the partition guarantees a reference can never be
// ambiguous.
type Ref uint32

// Built-in constant references.
const (
	RefVoidValue Ref = iota
	RefZero
	RefOne
	RefBoolTrue
	RefBoolFalse
	RefNull
	RefUndef

	refBuiltinCount
)

const (
	firstParamRef Ref = 1 << 16
	firstInstRef  Ref = 1 << 20
)

// ParamRef returns the reference for the i-th function parameter.
func ParamRef(i uint32) Ref {
	r := firstParamRef + Ref(i)
	if r >= firstInstRef {
		panic(fmt.Sprintf("parameter index %d out of range", i))
	}
	return r
}

// InstRef returns the reference for the result of an instruction.
func InstRef(idx InstIdx) Ref {
	return firstInstRef + Ref(idx)
}

// IsBuiltin reports whether r names a built-in constant.
func (r Ref) IsBuiltin() bool {
	return r < refBuiltinCount
}

// IsParam reports whether r names a function parameter.
func (r Ref) IsParam() bool {
	return r >= firstParamRef && r < firstInstRef
}

// IsInst reports whether r names a prior instruction result.
func (r Ref) IsInst() bool {
	return r >= firstInstRef
}

// ParamIndex returns the parameter index for a parameter reference.
func (r Ref) ParamIndex() uint32 {
	if !r.IsParam() {
		panic("ParamIndex on non-parameter ref")
	}
	return uint32(r - firstParamRef)
}

// Inst returns the instruction index for an instruction reference.
func (r Ref) Inst() InstIdx {
	if !r.IsInst() {
		panic("Inst on non-instruction ref")
	}
	return InstIdx(r - firstInstRef)
}

func (r Ref) String() string {
	switch {
	case r.IsInst():
		return fmt.Sprintf("%%%d", r.Inst())
	case r.IsParam():
		return fmt.Sprintf("arg%d", r.ParamIndex())
	case r == RefVoidValue:
		return "@void"
	case r == RefZero:
		return "@zero"
	case r == RefOne:
		return "@one"
	case r == RefBoolTrue:
		return "@true"
	case r == RefBoolFalse:
		return "@false"
	case r == RefNull:
		return "@null"
	case r == RefUndef:
		return "@undef"
	default:
		return fmt.Sprintf("Ref(%d)", uint32(r))
	}
}
