package sema

import (
	"fmt"
	"math"
	"math/big"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// comptimeShiftLimit caps shift distances during folding so a literal shift
// cannot allocate unbounded big-integer storage.
const comptimeShiftLimit = 1 << 16

// emitRuntime appends a runtime instruction, unless the current block is in
// compile-time mode, where a runtime-only result is an error.
func (s *Sema) emitRuntime(b *block, inst tir.Inst, span source.Span) (*tir.Inst, error) {
	if b.comptime {
		return nil, s.fail(diag.EvalRuntimeValue, span, "value is not compile-time known")
	}
	return s.add(b, inst), nil
}

func binOpFor(op uir.Op) tir.BinOp {
	switch op {
	case uir.OpAdd:
		return tir.BinAdd
	case uir.OpSub:
		return tir.BinSub
	case uir.OpMul:
		return tir.BinMul
	case uir.OpDiv:
		return tir.BinDiv
	case uir.OpMod:
		return tir.BinMod
	case uir.OpBitAnd:
		return tir.BinBitAnd
	case uir.OpBitOr:
		return tir.BinBitOr
	case uir.OpBitXor:
		return tir.BinBitXor
	case uir.OpShl:
		return tir.BinShl
	case uir.OpShr:
		return tir.BinShr
	case uir.OpCmpEq:
		return tir.BinCmpEq
	case uir.OpCmpNeq:
		return tir.BinCmpNeq
	case uir.OpCmpLt:
		return tir.BinCmpLt
	case uir.OpCmpLte:
		return tir.BinCmpLte
	case uir.OpCmpGt:
		return tir.BinCmpGt
	case uir.OpCmpGte:
		return tir.BinCmpGte
	case uir.OpBoolAnd:
		return tir.BinBoolAnd
	case uir.OpBoolOr:
		return tir.BinBoolOr
	default:
		panic(fmt.Sprintf("no binary lowering for opcode %s", op))
	}
}

func (s *Sema) analyzeArith(b *block, inst uir.Inst) (*tir.Inst, error) {
	op := binOpFor(inst.Op)
	lhs := s.resolveRef(inst.A)
	rhs := s.resolveRef(inst.B)
	if lhs.Val.IsUndef() || rhs.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}

	peer, err := s.resolvePeerTypes(inst.Span, []*tir.Inst{lhs, rhs})
	if err != nil {
		return nil, err
	}
	if lhs, err = s.coerce(b, peer, lhs, inst.Span); err != nil {
		return nil, err
	}
	if rhs, err = s.coerce(b, peer, rhs, inst.Span); err != nil {
		return nil, err
	}

	in := s.opts.Types
	pk := in.Kind(peer)
	isInt := pk == types.KindInt || pk == types.KindComptimeInt
	isFloat := pk == types.KindFloat || pk == types.KindComptimeFloat
	switch op {
	case tir.BinBitAnd, tir.BinBitOr, tir.BinBitXor, tir.BinShl, tir.BinShr:
		if !isInt {
			return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
				"bitwise operator requires integer operands, found %s", s.typeName(peer))
		}
	default:
		if !isInt && !isFloat {
			return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
				"arithmetic operator requires numeric operands, found %s", s.typeName(peer))
		}
	}

	if isComptime(lhs) && isComptime(rhs) {
		if isInt {
			return s.foldIntBin(op, peer, lhs.Val.Int, rhs.Val.Int, inst.Span)
		}
		return s.foldFloatBin(op, peer, lhs.Val.Float, rhs.Val.Float, inst.Span)
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindBin, Type: peer, Span: inst.Span,
		BinOp: op, LHS: lhs, RHS: rhs,
	}, inst.Span)
}

func (s *Sema) foldIntBin(op tir.BinOp, peer types.TypeID, x, y *big.Int, span source.Span) (*tir.Inst, error) {
	z := new(big.Int)
	switch op {
	case tir.BinAdd:
		z.Add(x, y)
	case tir.BinSub:
		z.Sub(x, y)
	case tir.BinMul:
		z.Mul(x, y)
	case tir.BinDiv:
		if y.Sign() == 0 {
			return nil, s.fail(diag.EvalDivisionByZero, span, "division by zero")
		}
		z.Quo(x, y)
	case tir.BinMod:
		if y.Sign() == 0 {
			return nil, s.fail(diag.EvalRemainderByZero, span, "remainder by zero")
		}
		z.Rem(x, y)
	case tir.BinBitAnd:
		z.And(x, y)
	case tir.BinBitOr:
		z.Or(x, y)
	case tir.BinBitXor:
		z.Xor(x, y)
	case tir.BinShl, tir.BinShr:
		if y.Sign() < 0 {
			return nil, s.fail(diag.EvalNegativeShift, span, "shift by negative amount %s", y)
		}
		limit := uint64(comptimeShiftLimit)
		if _, bits, ok := s.opts.Types.IntInfo(peer); ok {
			limit = uint64(bits)
		}
		if !y.IsUint64() || y.Uint64() >= limit {
			return nil, s.fail(diag.EvalShiftOutOfRange, span, "shift amount %s is out of range", y)
		}
		if op == tir.BinShl {
			z.Lsh(x, uint(y.Uint64()))
		} else {
			z.Rsh(x, uint(y.Uint64()))
		}
	default:
		panic(fmt.Sprintf("foldIntBin on %s", op))
	}
	if signed, bits, ok := s.opts.Types.IntInfo(peer); ok && !types.FitsInt(z, signed, bits) {
		return nil, s.fail(diag.SemaValueOutOfRange, span,
			"result %s overflows type %s", z, s.typeName(peer))
	}
	return s.newConst(span, tir.Value{Kind: tir.ValInt, Type: peer, Int: z}), nil
}

func (s *Sema) foldFloatBin(op tir.BinOp, peer types.TypeID, x, y float64, span source.Span) (*tir.Inst, error) {
	var z float64
	switch op {
	case tir.BinAdd:
		z = x + y
	case tir.BinSub:
		z = x - y
	case tir.BinMul:
		z = x * y
	case tir.BinDiv:
		if y == 0 {
			return nil, s.fail(diag.EvalDivisionByZero, span, "division by zero")
		}
		z = x / y
	case tir.BinMod:
		if y == 0 {
			return nil, s.fail(diag.EvalRemainderByZero, span, "remainder by zero")
		}
		z = math.Mod(x, y)
	default:
		panic(fmt.Sprintf("foldFloatBin on %s", op))
	}
	return s.newConst(span, tir.Value{Kind: tir.ValFloat, Type: peer, Float: z}), nil
}

func (s *Sema) analyzeCmp(b *block, inst uir.Inst) (*tir.Inst, error) {
	op := binOpFor(inst.Op)
	lhs := s.resolveRef(inst.A)
	rhs := s.resolveRef(inst.B)
	if lhs.Val.IsUndef() || rhs.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}

	peer, err := s.resolvePeerTypes(inst.Span, []*tir.Inst{lhs, rhs})
	if err != nil {
		return nil, err
	}
	if lhs, err = s.coerce(b, peer, lhs, inst.Span); err != nil {
		return nil, err
	}
	if rhs, err = s.coerce(b, peer, rhs, inst.Span); err != nil {
		return nil, err
	}

	boolType := s.opts.Types.Builtins().Bool
	if isComptime(lhs) && isComptime(rhs) {
		res, ok, err := s.foldCmp(op, lhs.Val, rhs.Val, inst.Span)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.newConst(inst.Span, tir.Value{Kind: tir.ValBool, Type: boolType, Bool: res}), nil
		}
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindBin, Type: boolType, Span: inst.Span,
		BinOp: op, LHS: lhs, RHS: rhs,
	}, inst.Span)
}

func (s *Sema) foldCmp(op tir.BinOp, x, y *tir.Value, span source.Span) (res, ok bool, err error) {
	if x.Kind == tir.ValInt && y.Kind == tir.ValInt {
		return cmpOrder(op, x.Int.Cmp(y.Int)), true, nil
	}
	if x.Kind == tir.ValFloat && y.Kind == tir.ValFloat {
		switch {
		case x.Float < y.Float:
			return cmpOrder(op, -1), true, nil
		case x.Float > y.Float:
			return cmpOrder(op, 1), true, nil
		case x.Float == y.Float:
			return cmpOrder(op, 0), true, nil
		default: // NaN involved: only != holds
			return op == tir.BinCmpNeq, true, nil
		}
	}
	if op == tir.BinCmpEq || op == tir.BinCmpNeq {
		eq, comparable := valueEqual(x, y)
		if !comparable {
			return false, false, nil
		}
		if op == tir.BinCmpNeq {
			eq = !eq
		}
		return eq, true, nil
	}
	return false, false, s.fail(diag.SemaTypeMismatch, span,
		"operator is not defined for type %s", s.typeName(x.Type))
}

func cmpOrder(op tir.BinOp, order int) bool {
	switch op {
	case tir.BinCmpEq:
		return order == 0
	case tir.BinCmpNeq:
		return order != 0
	case tir.BinCmpLt:
		return order < 0
	case tir.BinCmpLte:
		return order <= 0
	case tir.BinCmpGt:
		return order > 0
	case tir.BinCmpGte:
		return order >= 0
	default:
		panic(fmt.Sprintf("cmpOrder on %s", op))
	}
}

func (s *Sema) analyzeBoolBin(b *block, inst uir.Inst) (*tir.Inst, error) {
	op := binOpFor(inst.Op)
	boolType := s.opts.Types.Builtins().Bool
	lhs, err := s.coerce(b, boolType, s.resolveRef(inst.A), inst.Span)
	if err != nil {
		return nil, err
	}
	rhs, err := s.coerce(b, boolType, s.resolveRef(inst.B), inst.Span)
	if err != nil {
		return nil, err
	}
	if lhs.Val.IsUndef() || rhs.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}

	// Short-circuit as soon as either side is known and decisive.
	decisive := op == tir.BinBoolOr // and: false decides; or: true decides
	if isComptime(lhs) {
		if lhs.Val.Bool == decisive {
			return lhs, nil
		}
		return rhs, nil
	}
	if isComptime(rhs) && rhs.Val.Bool == decisive {
		return rhs, nil
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindBin, Type: boolType, Span: inst.Span,
		BinOp: op, LHS: lhs, RHS: rhs,
	}, inst.Span)
}

func (s *Sema) analyzeBoolNot(b *block, inst uir.Inst) (*tir.Inst, error) {
	boolType := s.opts.Types.Builtins().Bool
	operand, err := s.coerce(b, boolType, s.resolveRef(inst.A), inst.Span)
	if err != nil {
		return nil, err
	}
	if operand.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}
	if isComptime(operand) {
		return s.newConst(inst.Span, tir.Value{Kind: tir.ValBool, Type: boolType, Bool: !operand.Val.Bool}), nil
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindUn, Type: boolType, Span: inst.Span,
		UnOp: tir.UnBoolNot, Operand: operand,
	}, inst.Span)
}

func (s *Sema) analyzeNeg(b *block, inst uir.Inst) (*tir.Inst, error) {
	operand := s.resolveRef(inst.A)
	if operand.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}
	in := s.opts.Types
	t := in.Get(operand.Type)
	switch t.Kind {
	case types.KindInt:
		if !t.Signed {
			return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
				"cannot negate a value of unsigned type %s", s.typeName(operand.Type))
		}
	case types.KindComptimeInt, types.KindComptimeFloat, types.KindFloat:
	default:
		return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
			"cannot negate a value of type %s", s.typeName(operand.Type))
	}
	if isComptime(operand) {
		if operand.Val.Kind == tir.ValInt {
			z := new(big.Int).Neg(operand.Val.Int)
			if signed, bits, ok := in.IntInfo(operand.Type); ok && !types.FitsInt(z, signed, bits) {
				return nil, s.fail(diag.SemaValueOutOfRange, inst.Span,
					"result %s overflows type %s", z, s.typeName(operand.Type))
			}
			return s.newConst(inst.Span, tir.Value{Kind: tir.ValInt, Type: operand.Type, Int: z}), nil
		}
		return s.newConst(inst.Span, tir.Value{Kind: tir.ValFloat, Type: operand.Type, Float: -operand.Val.Float}), nil
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindUn, Type: operand.Type, Span: inst.Span,
		UnOp: tir.UnNeg, Operand: operand,
	}, inst.Span)
}
