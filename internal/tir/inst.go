package tir

import (
	"fmt"

	"lumen/internal/source"
	"lumen/internal/types"
)

// Kind enumerates typed-instruction kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindConst materializes a compile-time-known value as an operand.
	KindConst
	// KindParam reads a function parameter.
	KindParam
	// KindDeclRef reads another declaration's value.
	KindDeclRef
	// KindBin is a two-operand arithmetic/bitwise/comparison operation.
	KindBin
	// KindUn is a one-operand operation.
	KindUn
	// KindIntWiden widens an integer to a wider type of compatible signedness.
	KindIntWiden
	// KindFloatCast converts between float widths.
	KindFloatCast
	// KindBitcast reinterprets bits as an in-memory-compatible type.
	KindBitcast
	// KindWrapOptional wraps a payload into its optional type.
	KindWrapOptional
	// KindWrapErrPayload wraps a payload into an error-union type.
	KindWrapErrPayload
	// KindWrapErrCode wraps a known error value into an error-union type.
	KindWrapErrCode
	// KindPtrCast converts a single-item-array pointer to slice/many/C form.
	KindPtrCast
	// KindIsNull tests an optional for null.
	KindIsNull
	// KindIsErr tests an error union for the error case.
	KindIsErr
	// KindOptionalPayload extracts an optional's payload (after the check).
	KindOptionalPayload
	// KindErrPayload extracts an error union's payload (after the check).
	KindErrPayload
	// KindFieldVal reads a struct field by index.
	KindFieldVal
	// KindBlock is a structured scope producing a value via breaks.
	KindBlock
	// KindBr breaks to an enclosing block with an operand.
	KindBr
	// KindLoop repeats its body; exits happen via breaks.
	KindLoop
	// KindCondBr is a two-way branch with attached bodies.
	KindCondBr
	// KindSwitchBr is a multi-way branch with one body per case.
	KindSwitchBr
	// KindCall is a runtime call.
	KindCall
	// KindRet returns from the function being analyzed.
	KindRet
	// KindTrap aborts the program (safety-check failure path).
	KindTrap
	// KindUnreach marks a point proven unreachable.
	KindUnreach
)

// BinOp enumerates two-operand operations for KindBin.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinCmpEq
	BinCmpNeq
	BinCmpLt
	BinCmpLte
	BinCmpGt
	BinCmpGte
	BinBoolAnd
	BinBoolOr
)

// UnOp enumerates one-operand operations for KindUn.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnBoolNot
)

// SwitchCase is one case of a KindSwitchBr instruction.
type SwitchCase struct {
	Values []*Inst    // comptime-known single case values
	Ranges [][2]*Inst // inclusive case ranges, endpoints comptime-known
	Body   Body
}

// Inst is one typed instruction. Instructions are immutable once attached
// to a body; they are allocated exclusively from the arena of the
// declaration being analyzed.
type Inst struct {
	Kind Kind
	Type types.TypeID
	Span source.Span

	// Val is the compile-time-known result, nil for runtime-only results.
	Val *Value

	BinOp BinOp
	UnOp  UnOp

	LHS     *Inst
	RHS     *Inst
	Operand *Inst

	// KindBr: the block instruction this break targets.
	Target *Inst

	// Bodies for block/loop/branch kinds.
	Body     Body
	ElseBody Body
	Cases    []SwitchCase

	// KindCall.
	Callee *Inst
	Args   []*Inst

	// KindParam / KindFieldVal index, KindDeclRef registry handle.
	Index uint32
}

// Body is an ordered list of typed instructions. Every terminal body ends
// in a noreturn-typed instruction before it is attached to its parent.
type Body []*Inst

// Last returns the final instruction, or nil for an empty body.
func (b Body) Last() *Inst {
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindParam:
		return "param"
	case KindDeclRef:
		return "decl_ref"
	case KindBin:
		return "bin"
	case KindUn:
		return "un"
	case KindIntWiden:
		return "int_widen"
	case KindFloatCast:
		return "float_cast"
	case KindBitcast:
		return "bitcast"
	case KindWrapOptional:
		return "wrap_optional"
	case KindWrapErrPayload:
		return "wrap_err_payload"
	case KindWrapErrCode:
		return "wrap_err_code"
	case KindPtrCast:
		return "ptr_cast"
	case KindIsNull:
		return "is_null"
	case KindIsErr:
		return "is_err"
	case KindOptionalPayload:
		return "optional_payload"
	case KindErrPayload:
		return "err_payload"
	case KindFieldVal:
		return "field_val"
	case KindBlock:
		return "block"
	case KindBr:
		return "br"
	case KindLoop:
		return "loop"
	case KindCondBr:
		return "cond_br"
	case KindSwitchBr:
		return "switch_br"
	case KindCall:
		return "call"
	case KindRet:
		return "ret"
	case KindTrap:
		return "trap"
	case KindUnreach:
		return "unreach"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinDiv:
		return "div"
	case BinMod:
		return "mod"
	case BinBitAnd:
		return "bit_and"
	case BinBitOr:
		return "bit_or"
	case BinBitXor:
		return "bit_xor"
	case BinShl:
		return "shl"
	case BinShr:
		return "shr"
	case BinCmpEq:
		return "cmp_eq"
	case BinCmpNeq:
		return "cmp_neq"
	case BinCmpLt:
		return "cmp_lt"
	case BinCmpLte:
		return "cmp_lte"
	case BinCmpGt:
		return "cmp_gt"
	case BinCmpGte:
		return "cmp_gte"
	case BinBoolAnd:
		return "bool_and"
	case BinBoolOr:
		return "bool_or"
	default:
		return fmt.Sprintf("BinOp(%d)", uint8(op))
	}
}
