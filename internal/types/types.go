package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindNoReturn
	KindComptimeInt
	KindComptimeFloat
	KindUndefined
	KindNull
	KindInt
	KindFloat
	KindPointer
	KindOptional
	KindErrorSet
	KindErrorUnion
	KindArray
	KindStruct
	KindFn
	KindEnumLiteral
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindNoReturn:
		return "noreturn"
	case KindComptimeInt:
		return "comptime_int"
	case KindComptimeFloat:
		return "comptime_float"
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindOptional:
		return "optional"
	case KindErrorSet:
		return "error set"
	case KindErrorUnion:
		return "error union"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFn:
		return "function"
	case KindEnumLiteral:
		return "enum literal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// PtrSize distinguishes the addressing shapes a pointer can have.
type PtrSize uint8

const (
	// PtrOne points at exactly one item.
	PtrOne PtrSize = iota
	// PtrMany points at an unknown number of items.
	PtrMany
	// PtrSlice carries a runtime length alongside the address.
	PtrSlice
	// PtrC is a C-interop pointer: many-item, allows null.
	PtrC
)

func (s PtrSize) String() string {
	switch s {
	case PtrOne:
		return "*"
	case PtrMany:
		return "[*]"
	case PtrSlice:
		return "[]"
	case PtrC:
		return "[*c]"
	default:
		return fmt.Sprintf("PtrSize(%d)", s)
	}
}

// CallConv describes how a function may be invoked.
type CallConv uint8

const (
	// CallAuto lets the analyzer choose between a runtime call and inlining.
	CallAuto CallConv = iota
	// CallInline forces the call to be evaluated by re-analyzing the body.
	CallInline
	// CallNaked functions cannot be called at all.
	CallNaked
)

// Type is a compact descriptor for any supported type. Payload-bearing kinds
// store an index into one of the interner's side tables in Extra.
type Type struct {
	Kind   Kind
	Elem   TypeID // pointee / optional payload / array element / error-union payload
	Bits   uint16 // integer or float width
	Signed bool   // integers only
	Extra  uint32 // PtrInfo / ArrayInfo / error-set / FnInfo / StructInfo index
}

// PtrInfo carries the pointer attributes that do not fit in Type.
type PtrInfo struct {
	Size        PtrSize
	Const       bool
	Volatile    bool
	AllowZero   bool
	HasSentinel bool
	Sentinel    int64 // value of the element type, integers only
}

// ArrayInfo carries fixed length and optional sentinel for arrays.
type ArrayInfo struct {
	Len         uint64
	HasSentinel bool
	Sentinel    int64
}

// FnInfo describes a function type.
type FnInfo struct {
	Params   []TypeID
	Ret      TypeID
	CallConv CallConv
	Variadic bool
}

// StructField is one named field of a struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructInfo describes a nominal struct type.
type StructInfo struct {
	Name   string
	Fields []StructField
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes an integer with an explicit bit width.
func MakeInt(signed bool, bits uint16) Type {
	return Type{Kind: KindInt, Bits: bits, Signed: signed}
}

// MakeFloat describes a floating-point type (16, 32 or 64 bits).
func MakeFloat(bits uint16) Type {
	return Type{Kind: KindFloat, Bits: bits}
}
