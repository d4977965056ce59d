package uir

// TypeExprKind enumerates the structural type annotations the upstream
// stage can attach to instructions (OpAs destinations, declaration
// signatures). Annotations are data, not instructions: the stream itself
// stays untyped and sema resolves annotations into interned types.
type TypeExprKind uint8

const (
	TEInvalid TypeExprKind = iota
	TEBool
	TEVoid
	TENoReturn
	TEInt
	TEFloat
	TEOptional
	TEPtr
	TEArray
	TEAnyError
	TEErrSet
	TEErrUnion
)

// TypeExprIdx indexes Code.Types. NoTypeExpr marks the absence of an
// annotation.
type TypeExprIdx int32

const NoTypeExpr TypeExprIdx = -1

// PtrShape mirrors the pointer addressing shapes of the type system.
type PtrShape uint8

const (
	PtrShapeOne PtrShape = iota
	PtrShapeMany
	PtrShapeSlice
	PtrShapeC
)

// TypeExpr is one structural type annotation.
type TypeExpr struct {
	Kind   TypeExprKind
	Signed bool
	Bits   uint16

	Elem TypeExprIdx // optional payload / pointee / array element / union payload
	Set  TypeExprIdx // error union: the error-set annotation

	Shape       PtrShape
	Const       bool
	Volatile    bool
	AllowZero   bool
	Len         uint64
	HasSentinel bool
	Sentinel    int64

	Names []string // error-set members
}
