package sema

import (
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func (s *Sema) analyzeOptionalUnwrap(b *block, inst uir.Inst) (*tir.Inst, error) {
	operand := s.resolveRef(inst.A)
	in := s.opts.Types
	if in.Kind(operand.Type) != types.KindOptional {
		return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
			"expected an optional type, found %s", s.typeName(operand.Type))
	}
	payloadType := in.Get(operand.Type).Elem

	// A known null is proven to fail: report now, emit nothing.
	if isComptime(operand) {
		if operand.Val.IsUndef() {
			return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
		}
		if operand.Val.Kind == tir.ValNull ||
			(operand.Val.Kind == tir.ValOptional && operand.Val.Payload == nil) {
			return nil, s.fail(diag.EvalUnwrapNull, inst.Span, "unwrap of a null value")
		}
		return s.newConst(inst.Span, *operand.Val.Payload), nil
	}

	if s.opts.Safety {
		isNull, err := s.emitRuntime(b, tir.Inst{
			Kind: tir.KindIsNull, Type: in.Builtins().Bool, Span: inst.Span, Operand: operand,
		}, inst.Span)
		if err != nil {
			return nil, err
		}
		s.add(b, tir.Inst{
			Kind:    tir.KindCondBr,
			Type:    in.Builtins().NoReturn,
			Span:    inst.Span,
			Operand: isNull,
			Body:    s.panicBody(inst.Span),
		})
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindOptionalPayload, Type: payloadType, Span: inst.Span, Operand: operand,
	}, inst.Span)
}

func (s *Sema) analyzeErrUnwrap(b *block, inst uir.Inst) (*tir.Inst, error) {
	operand := s.resolveRef(inst.A)
	in := s.opts.Types
	if in.Kind(operand.Type) != types.KindErrorUnion {
		return nil, s.fail(diag.SemaTypeMismatch, inst.Span,
			"expected an error union type, found %s", s.typeName(operand.Type))
	}
	payloadType := in.Get(operand.Type).Elem

	if isComptime(operand) {
		if operand.Val.IsUndef() {
			return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
		}
		if operand.Val.Err != types.NoErrorID {
			return nil, s.fail(diag.EvalUnwrapError, inst.Span,
				"unwrap of error.%s", in.Errors().Name(operand.Val.Err))
		}
		return s.newConst(inst.Span, *operand.Val.Payload), nil
	}

	if s.opts.Safety {
		isErr, err := s.emitRuntime(b, tir.Inst{
			Kind: tir.KindIsErr, Type: in.Builtins().Bool, Span: inst.Span, Operand: operand,
		}, inst.Span)
		if err != nil {
			return nil, err
		}
		s.add(b, tir.Inst{
			Kind:    tir.KindCondBr,
			Type:    in.Builtins().NoReturn,
			Span:    inst.Span,
			Operand: isErr,
			Body:    s.panicBody(inst.Span),
		})
	}
	return s.emitRuntime(b, tir.Inst{
		Kind: tir.KindErrPayload, Type: payloadType, Span: inst.Span, Operand: operand,
	}, inst.Span)
}

func (s *Sema) analyzeUnreachable(b *block, inst uir.Inst) (*tir.Inst, error) {
	if b.comptime {
		return nil, s.fail(diag.EvalUnreachable, inst.Span, "reached unreachable code")
	}
	if s.opts.Safety {
		body := s.panicBody(inst.Span)
		b.instrs = append(b.instrs, body...)
		return body.Last(), nil
	}
	return s.add(b, tir.Inst{
		Kind: tir.KindUnreach,
		Type: s.opts.Types.Builtins().NoReturn,
		Span: inst.Span,
	}), nil
}

// panicBody is the fail path of a safety check: a trap followed by the
// never-returns marker.
func (s *Sema) panicBody(span source.Span) tir.Body {
	bt := s.opts.Types.Builtins()
	return tir.Body{
		s.arena.NewInst(tir.Inst{Kind: tir.KindTrap, Type: bt.Void, Span: span}),
		s.arena.NewInst(tir.Inst{Kind: tir.KindUnreach, Type: bt.NoReturn, Span: span}),
	}
}
