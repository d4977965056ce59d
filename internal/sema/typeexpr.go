package sema

import (
	"fmt"

	"lumen/internal/types"
	"lumen/internal/uir"
)

// ResolveTypeExpr interns the type named by an annotation without running
// an activation. The driver uses it to resolve declaration signatures
// before any body is analyzed.
func ResolveTypeExpr(code *uir.Code, in *types.Interner, idx uir.TypeExprIdx) types.TypeID {
	s := &Sema{code: code, opts: &Options{Types: in}}
	return s.resolveTypeExpr(idx)
}

// resolveTypeExpr interns the type named by a structural annotation from
// the stream's side table.
func (s *Sema) resolveTypeExpr(idx uir.TypeExprIdx) types.TypeID {
	te := s.code.TypeAt(idx)
	in := s.opts.Types
	switch te.Kind {
	case uir.TEBool:
		return in.Builtins().Bool
	case uir.TEVoid:
		return in.Builtins().Void
	case uir.TENoReturn:
		return in.Builtins().NoReturn
	case uir.TEInt:
		return in.Int(te.Signed, te.Bits)
	case uir.TEFloat:
		return in.Float(te.Bits)
	case uir.TEOptional:
		return in.Optional(s.resolveTypeExpr(te.Elem))
	case uir.TEPtr:
		return in.Ptr(s.resolveTypeExpr(te.Elem), types.PtrInfo{
			Size:        ptrSize(te.Shape),
			Const:       te.Const,
			Volatile:    te.Volatile,
			AllowZero:   te.AllowZero,
			HasSentinel: te.HasSentinel,
			Sentinel:    te.Sentinel,
		})
	case uir.TEArray:
		return in.Array(s.resolveTypeExpr(te.Elem), types.ArrayInfo{
			Len:         te.Len,
			HasSentinel: te.HasSentinel,
			Sentinel:    te.Sentinel,
		})
	case uir.TEAnyError:
		return in.Builtins().AnyError
	case uir.TEErrSet:
		names := make([]types.ErrorID, 0, len(te.Names))
		for _, name := range te.Names {
			names = append(names, in.Errors().Intern(name))
		}
		return in.ErrorSet(names)
	case uir.TEErrUnion:
		return in.ErrorUnion(s.resolveTypeExpr(te.Set), s.resolveTypeExpr(te.Elem))
	default:
		panic(fmt.Sprintf("unresolvable type annotation kind %d", te.Kind))
	}
}

func ptrSize(shape uir.PtrShape) types.PtrSize {
	switch shape {
	case uir.PtrShapeOne:
		return types.PtrOne
	case uir.PtrShapeMany:
		return types.PtrMany
	case uir.PtrShapeSlice:
		return types.PtrSlice
	case uir.PtrShapeC:
		return types.PtrC
	default:
		panic(fmt.Sprintf("unknown pointer shape %d", shape))
	}
}
