package sema

import (
	"math"
	"math/big"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// coerce converts v to the target type, appending any runtime conversion
// instructions to b. Compile-time-known values are re-typed in place and
// never produce runtime instructions.
func (s *Sema) coerce(b *block, target types.TypeID, v *tir.Inst, span source.Span) (*tir.Inst, error) {
	res, emitted, err := s.coerceSteps(target, v, span)
	if err != nil {
		return nil, err
	}
	b.instrs = append(b.instrs, emitted...)
	return res, nil
}

// coerceSteps applies the coercion rules in priority order without placing
// the runtime instructions it creates; the caller decides where they go
// (normally the current block, or a patched break site).
func (s *Sema) coerceSteps(target types.TypeID, v *tir.Inst, span source.Span) (*tir.Inst, []*tir.Inst, error) {
	in := s.opts.Types

	// Identity.
	if v.Type == target {
		return v, nil, nil
	}

	// Bit-for-bit compatible representations.
	if s.bitcastable(target, v.Type) {
		if isComptime(v) {
			return s.retype(v, target, span), nil, nil
		}
		cast := s.arena.NewInst(tir.Inst{Kind: tir.KindBitcast, Type: target, Span: span, Operand: v})
		return cast, []*tir.Inst{cast}, nil
	}

	// An undefined-valued source coerces to anything, keeping the marker.
	if v.Val.IsUndef() {
		return s.newConst(span, tir.Value{Kind: tir.ValUndef, Type: target}), nil, nil
	}

	tk := in.Kind(target)
	vk := in.Kind(v.Type)

	// null literal into an optional.
	if vk == types.KindNull && tk == types.KindOptional {
		return s.newConst(span, tir.Value{Kind: tir.ValOptional, Type: target}), nil, nil
	}

	// Non-optional value wrapped into its optional.
	if tk == types.KindOptional && vk != types.KindOptional && vk != types.KindNull {
		payload, emitted, err := s.coerceSteps(in.Get(target).Elem, v, span)
		if err != nil {
			return nil, nil, err
		}
		if isComptime(payload) {
			return s.newConst(span, tir.Value{Kind: tir.ValOptional, Type: target, Payload: payload.Val}), nil, nil
		}
		wrap := s.arena.NewInst(tir.Inst{Kind: tir.KindWrapOptional, Type: target, Span: span, Operand: payload})
		return wrap, append(emitted, wrap), nil
	}

	// Payload or error value wrapped into an error union.
	if tk == types.KindErrorUnion && vk != types.KindErrorUnion {
		return s.coerceErrUnion(target, v, span)
	}

	// Single-item pointer to array into slice / many-pointer / C-pointer.
	if tk == types.KindPointer && vk == types.KindPointer {
		return s.coerceArrayPtr(target, v, span)
	}

	// Compile-time numeric literals into concrete numeric types.
	switch vk {
	case types.KindComptimeInt:
		return s.coerceComptimeInt(target, tk, v, span)
	case types.KindComptimeFloat:
		return s.coerceComptimeFloat(target, tk, v, span)
	}

	// Integer widening: same signedness, or unsigned into strictly wider
	// signed.
	if tk == types.KindInt && vk == types.KindInt {
		td, vd := in.Get(target), in.Get(v.Type)
		widens := (td.Signed == vd.Signed && td.Bits > vd.Bits) ||
			(!vd.Signed && td.Signed && td.Bits > vd.Bits)
		if widens {
			if isComptime(v) {
				return s.retype(v, target, span), nil, nil
			}
			widen := s.arena.NewInst(tir.Inst{Kind: tir.KindIntWiden, Type: target, Span: span, Operand: v})
			return widen, []*tir.Inst{widen}, nil
		}
	}

	// Float widening.
	if tk == types.KindFloat && vk == types.KindFloat {
		if tb, _ := in.FloatBits(target); tb > in.Get(v.Type).Bits {
			if isComptime(v) {
				return s.retype(v, target, span), nil, nil
			}
			cast := s.arena.NewInst(tir.Inst{Kind: tir.KindFloatCast, Type: target, Span: span, Operand: v})
			return cast, []*tir.Inst{cast}, nil
		}
	}

	return nil, nil, s.fail(diag.SemaTypeMismatch, span,
		"expected %s, found %s", s.typeName(target), s.typeName(v.Type))
}

func (s *Sema) coerceErrUnion(target types.TypeID, v *tir.Inst, span source.Span) (*tir.Inst, []*tir.Inst, error) {
	in := s.opts.Types
	set := in.ErrorUnionSet(target)

	if in.Kind(v.Type) == types.KindErrorSet {
		if isComptime(v) && v.Val.Kind == tir.ValError {
			if !in.ErrorSetContains(set, v.Val.Err) {
				return nil, nil, s.fail(diag.SemaErrorNotInSet, span,
					"error.%s is not a member of %s", in.Errors().Name(v.Val.Err), s.typeName(set))
			}
			return s.newConst(span, tir.Value{Kind: tir.ValErrUnion, Type: target, Err: v.Val.Err}), nil, nil
		}
		if !s.errSetSubset(v.Type, set) {
			return nil, nil, s.fail(diag.SemaErrorNotInSet, span,
				"%s is not a subset of %s", s.typeName(v.Type), s.typeName(set))
		}
		wrap := s.arena.NewInst(tir.Inst{Kind: tir.KindWrapErrCode, Type: target, Span: span, Operand: v})
		return wrap, []*tir.Inst{wrap}, nil
	}

	payload, emitted, err := s.coerceSteps(in.Get(target).Elem, v, span)
	if err != nil {
		return nil, nil, err
	}
	if isComptime(payload) {
		return s.newConst(span, tir.Value{Kind: tir.ValErrUnion, Type: target, Payload: payload.Val}), nil, nil
	}
	wrap := s.arena.NewInst(tir.Inst{Kind: tir.KindWrapErrPayload, Type: target, Span: span, Operand: payload})
	return wrap, append(emitted, wrap), nil
}

// coerceArrayPtr handles *[N]T sources against slice / many / C pointer
// destinations over the same element type.
func (s *Sema) coerceArrayPtr(target types.TypeID, v *tir.Inst, span source.Span) (*tir.Inst, []*tir.Inst, error) {
	in := s.opts.Types
	vi := in.PtrInfo(v.Type)
	pointee := in.Get(v.Type).Elem
	if vi.Size != types.PtrOne || in.Kind(pointee) != types.KindArray {
		return nil, nil, s.fail(diag.SemaTypeMismatch, span,
			"expected %s, found %s", s.typeName(target), s.typeName(v.Type))
	}
	ti := in.PtrInfo(target)
	if ti.Size == types.PtrOne || in.Get(target).Elem != in.Get(pointee).Elem {
		return nil, nil, s.fail(diag.SemaTypeMismatch, span,
			"expected %s, found %s", s.typeName(target), s.typeName(v.Type))
	}
	if vi.Const && !ti.Const {
		return nil, nil, s.fail(diag.SemaTypeMismatch, span,
			"cannot discard const qualifier coercing %s to %s", s.typeName(v.Type), s.typeName(target))
	}
	if ti.HasSentinel {
		ai := in.ArrayInfo(pointee)
		if !ai.HasSentinel || ai.Sentinel != ti.Sentinel {
			return nil, nil, s.fail(diag.SemaSentinelMismatch, span,
				"destination %s requires sentinel %d which the source array does not carry",
				s.typeName(target), ti.Sentinel)
		}
	}
	cast := s.arena.NewInst(tir.Inst{Kind: tir.KindPtrCast, Type: target, Span: span, Operand: v})
	return cast, []*tir.Inst{cast}, nil
}

func (s *Sema) coerceComptimeInt(target types.TypeID, tk types.Kind, v *tir.Inst, span source.Span) (*tir.Inst, []*tir.Inst, error) {
	in := s.opts.Types
	if v.Val == nil || v.Val.Kind != tir.ValInt {
		panic("comptime_int instruction without an integer value")
	}
	switch tk {
	case types.KindInt:
		signed, bits, _ := in.IntInfo(target)
		if !types.FitsInt(v.Val.Int, signed, bits) {
			return nil, nil, s.fail(diag.SemaValueOutOfRange, span,
				"value %s does not fit in type %s", v.Val.Int, s.typeName(target))
		}
		return s.newConst(span, tir.Value{Kind: tir.ValInt, Type: target, Int: v.Val.Int}), nil, nil
	case types.KindFloat:
		bits, _ := in.FloatBits(target)
		bf := new(big.Float).SetInt(v.Val.Int)
		if !types.FitsFloat(bf, bits) {
			return nil, nil, s.fail(diag.SemaValueOutOfRange, span,
				"value %s does not fit in type %s", v.Val.Int, s.typeName(target))
		}
		f, _ := bf.Float64()
		return s.newConst(span, tir.Value{Kind: tir.ValFloat, Type: target, Float: f}), nil, nil
	case types.KindComptimeFloat:
		f, _ := new(big.Float).SetInt(v.Val.Int).Float64()
		return s.newConst(span, tir.Value{Kind: tir.ValFloat, Type: target, Float: f}), nil, nil
	}
	return nil, nil, s.fail(diag.SemaTypeMismatch, span,
		"expected %s, found %s", s.typeName(target), s.typeName(v.Type))
}

func (s *Sema) coerceComptimeFloat(target types.TypeID, tk types.Kind, v *tir.Inst, span source.Span) (*tir.Inst, []*tir.Inst, error) {
	in := s.opts.Types
	if v.Val == nil || v.Val.Kind != tir.ValFloat {
		panic("comptime_float instruction without a float value")
	}
	f := v.Val.Float
	switch tk {
	case types.KindFloat:
		bits, _ := in.FloatBits(target)
		if !types.FitsFloat(big.NewFloat(f), bits) {
			return nil, nil, s.fail(diag.SemaValueOutOfRange, span,
				"value %g does not fit in type %s", f, s.typeName(target))
		}
		return s.newConst(span, tir.Value{Kind: tir.ValFloat, Type: target, Float: f}), nil, nil
	case types.KindInt, types.KindComptimeInt:
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, nil, s.fail(diag.EvalFloatFromNonFinite, span,
				"cannot convert non-finite float to an integer")
		}
		if math.Trunc(f) != f {
			return nil, nil, s.fail(diag.SemaValueOutOfRange, span,
				"float value %g has a fractional part and cannot coerce to %s", f, s.typeName(target))
		}
		i, _ := big.NewFloat(f).Int(nil)
		if tk == types.KindInt {
			signed, bits, _ := in.IntInfo(target)
			if !types.FitsInt(i, signed, bits) {
				return nil, nil, s.fail(diag.SemaValueOutOfRange, span,
					"value %s does not fit in type %s", i, s.typeName(target))
			}
		}
		return s.newConst(span, tir.Value{Kind: tir.ValInt, Type: target, Int: i}), nil, nil
	}
	return nil, nil, s.fail(diag.SemaTypeMismatch, span,
		"expected %s, found %s", s.typeName(target), s.typeName(v.Type))
}

// bitcastable reports whether src reinterprets as target without any
// runtime representation change.
func (s *Sema) bitcastable(target, src types.TypeID) bool {
	in := s.opts.Types
	t, v := in.Get(target), in.Get(src)
	switch {
	case t.Kind == types.KindErrorSet && v.Kind == types.KindErrorSet:
		return s.errSetSubset(src, target)
	case t.Kind == types.KindErrorUnion && v.Kind == types.KindErrorUnion:
		return t.Elem == v.Elem &&
			s.errSetSubset(in.ErrorUnionSet(src), in.ErrorUnionSet(target))
	case t.Kind == types.KindPointer && v.Kind == types.KindPointer:
		ti, vi := in.PtrInfo(target), in.PtrInfo(src)
		if t.Elem != v.Elem || ti.Size != vi.Size {
			return false
		}
		// Qualifiers may be added, never dropped.
		if (vi.Const && !ti.Const) || (vi.Volatile && !ti.Volatile) || (vi.AllowZero && !ti.AllowZero) {
			return false
		}
		return ti.HasSentinel == vi.HasSentinel && ti.Sentinel == vi.Sentinel
	}
	return false
}

// errSetSubset reports whether every member of sub belongs to super.
func (s *Sema) errSetSubset(sub, super types.TypeID) bool {
	in := s.opts.Types
	if in.IsAnyError(super) {
		return true
	}
	if in.IsAnyError(sub) {
		return false
	}
	for _, id := range in.ErrorSetNames(sub) {
		if !in.ErrorSetContains(super, id) {
			return false
		}
	}
	return true
}

// retype copies a compile-time value under a new type.
func (s *Sema) retype(v *tir.Inst, target types.TypeID, span source.Span) *tir.Inst {
	nv := *v.Val
	nv.Type = target
	return s.newConst(span, nv)
}

func (s *Sema) analyzeAs(b *block, inst uir.Inst) (*tir.Inst, error) {
	target := s.resolveTypeExpr(uir.TypeExprIdx(inst.Payload))
	return s.coerce(b, target, s.resolveRef(inst.A), inst.Span)
}
