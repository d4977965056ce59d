package uir

import "fmt"

// Op enumerates untyped instruction opcodes. The set is closed: the
// dispatcher in sema switches exhaustively over it and panics on anything
// it does not know, since an unknown opcode is an upstream bug, not user
// error.
type Op uint8

const (
	OpInvalid Op = iota

	// Literals.
	OpInt    // Payload: index into Code.Ints
	OpIntBig // Str: decimal digits
	OpFloat  // Payload: index into Code.Floats

	// Arithmetic.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Bitwise.
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// Comparisons.
	OpCmpEq
	OpCmpNeq
	OpCmpLt
	OpCmpLte
	OpCmpGt
	OpCmpGte

	// Boolean.
	OpBoolAnd
	OpBoolOr
	OpBoolNot

	// OpAs coerces operand A to the type annotation in Payload.
	OpAs

	// Control flow. Bodies live in Code.Extra.
	OpBlock
	OpLoop
	OpBreak
	OpCondBr
	OpSwitch
	OpCall
	OpRet

	// Unwrapping with runtime safety checks.
	OpOptionalUnwrap
	OpErrUnwrap
	OpUnreachable

	// Cross-declaration references and stream-embedded text.
	OpDeclRef
	OpImport
	OpErrorValue
	OpEnumLiteral
	OpFieldVal

	// Compile-time side channels.
	OpCompileLog
	OpCompileError
)

func (op Op) String() string {
	switch op {
	case OpInvalid:
		return "invalid"
	case OpInt:
		return "int"
	case OpIntBig:
		return "int_big"
	case OpFloat:
		return "float"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpNeg:
		return "neg"
	case OpBitAnd:
		return "bit_and"
	case OpBitOr:
		return "bit_or"
	case OpBitXor:
		return "bit_xor"
	case OpShl:
		return "shl"
	case OpShr:
		return "shr"
	case OpCmpEq:
		return "cmp_eq"
	case OpCmpNeq:
		return "cmp_neq"
	case OpCmpLt:
		return "cmp_lt"
	case OpCmpLte:
		return "cmp_lte"
	case OpCmpGt:
		return "cmp_gt"
	case OpCmpGte:
		return "cmp_gte"
	case OpBoolAnd:
		return "bool_and"
	case OpBoolOr:
		return "bool_or"
	case OpBoolNot:
		return "bool_not"
	case OpAs:
		return "as"
	case OpBlock:
		return "block"
	case OpLoop:
		return "loop"
	case OpBreak:
		return "break"
	case OpCondBr:
		return "cond_br"
	case OpSwitch:
		return "switch"
	case OpCall:
		return "call"
	case OpRet:
		return "ret"
	case OpOptionalUnwrap:
		return "optional_unwrap"
	case OpErrUnwrap:
		return "err_unwrap"
	case OpUnreachable:
		return "unreachable"
	case OpDeclRef:
		return "decl_ref"
	case OpImport:
		return "import"
	case OpErrorValue:
		return "error_value"
	case OpEnumLiteral:
		return "enum_literal"
	case OpFieldVal:
		return "field_val"
	case OpCompileLog:
		return "compile_log"
	case OpCompileError:
		return "compile_error"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Valid reports whether op is a known opcode. Decoders use it to reject
// malformed streams before they reach the dispatcher.
func (op Op) Valid() bool {
	return op > OpInvalid && op <= OpCompileError
}

// CallMod modifies how a call site must be evaluated.
type CallMod uint32

const (
	// CallModAuto lets the analyzer decide.
	CallModAuto CallMod = iota
	// CallModComptime forces compile-time evaluation of the call.
	CallModComptime
)
