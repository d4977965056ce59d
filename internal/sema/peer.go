package sema

import (
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
)

// resolvePeerTypes reduces a list of typed instructions to one common type
// by repeated pairwise reduction. Failure names the first incompatible pair.
func (s *Sema) resolvePeerTypes(span source.Span, insts []*tir.Inst) (types.TypeID, error) {
	best := types.NoTypeID
	for _, inst := range insts {
		if best == types.NoTypeID {
			best = inst.Type
			continue
		}
		merged, ok := s.peerPair(best, inst.Type)
		if !ok {
			return types.NoTypeID, s.fail(diag.SemaPeerTypeConflict, span,
				"incompatible types: %s and %s", s.typeName(best), s.typeName(inst.Type))
		}
		best = merged
	}
	if best == types.NoTypeID {
		best = s.opts.Types.Builtins().NoReturn
	}
	return best, nil
}

// peerPair merges two peer types, or reports that they have no common type.
func (s *Sema) peerPair(a, b types.TypeID) (types.TypeID, bool) {
	if a == b {
		return a, true
	}
	in := s.opts.Types
	ak, bk := in.Kind(a), in.Kind(b)

	// noreturn and undefined yield to any concrete peer.
	if ak == types.KindNoReturn || ak == types.KindUndefined {
		return b, true
	}
	if bk == types.KindNoReturn || bk == types.KindUndefined {
		return a, true
	}

	// Integer widening requires matching signedness.
	if ak == types.KindInt && bk == types.KindInt {
		at, bt := in.Get(a), in.Get(b)
		if at.Signed != bt.Signed {
			return types.NoTypeID, false
		}
		if at.Bits >= bt.Bits {
			return a, true
		}
		return b, true
	}

	// Float widening.
	if ak == types.KindFloat && bk == types.KindFloat {
		if in.Get(a).Bits >= in.Get(b).Bits {
			return a, true
		}
		return b, true
	}

	// Literal promotion.
	if ak == types.KindComptimeInt && (bk == types.KindInt || bk == types.KindFloat || bk == types.KindComptimeFloat) {
		return b, true
	}
	if bk == types.KindComptimeInt && (ak == types.KindInt || ak == types.KindFloat || ak == types.KindComptimeFloat) {
		return a, true
	}
	if ak == types.KindComptimeFloat && bk == types.KindFloat {
		return b, true
	}
	if bk == types.KindComptimeFloat && ak == types.KindFloat {
		return a, true
	}

	// null against an optional (or optional-wrappable) peer.
	if ak == types.KindNull {
		return s.peerWithNull(b, bk)
	}
	if bk == types.KindNull {
		return s.peerWithNull(a, ak)
	}

	// A payload against its own optional.
	if ak == types.KindOptional && in.Get(a).Elem == b {
		return a, true
	}
	if bk == types.KindOptional && in.Get(b).Elem == a {
		return b, true
	}

	// Error sets merge by union of names.
	if ak == types.KindErrorSet && bk == types.KindErrorSet {
		return in.MergeErrorSets(a, b), true
	}

	return types.NoTypeID, false
}

func (s *Sema) peerWithNull(other types.TypeID, otherKind types.Kind) (types.TypeID, bool) {
	switch otherKind {
	case types.KindOptional:
		return other, true
	case types.KindNull, types.KindNoReturn, types.KindUndefined, types.KindInvalid, types.KindVoid:
		return types.NoTypeID, false
	default:
		return s.opts.Types.Optional(other), true
	}
}

// valueEqual compares two compile-time values for equality. The second
// result is false when the pair is not comparable at compile time.
func valueEqual(a, b *tir.Value) (eq bool, ok bool) {
	if a == nil || b == nil {
		return false, false
	}
	if a.Kind != b.Kind {
		// A known optional against the null literal.
		if a.Kind == tir.ValOptional && b.Kind == tir.ValNull {
			return a.Payload == nil, true
		}
		if a.Kind == tir.ValNull && b.Kind == tir.ValOptional {
			return b.Payload == nil, true
		}
		return false, false
	}
	switch a.Kind {
	case tir.ValVoid, tir.ValNull:
		return true, true
	case tir.ValBool:
		return a.Bool == b.Bool, true
	case tir.ValInt:
		return a.Int.Cmp(b.Int) == 0, true
	case tir.ValFloat:
		return a.Float == b.Float, true
	case tir.ValError:
		return a.Err == b.Err, true
	case tir.ValEnum:
		return a.Name == b.Name, true
	case tir.ValFn:
		return a.Fn == b.Fn, true
	case tir.ValOptional:
		if a.Payload == nil || b.Payload == nil {
			return a.Payload == b.Payload, true
		}
		return valueEqual(a.Payload, b.Payload)
	case tir.ValErrUnion:
		if a.Err != types.NoErrorID || b.Err != types.NoErrorID {
			return a.Err == b.Err, true
		}
		return valueEqual(a.Payload, b.Payload)
	default:
		return false, false
	}
}
