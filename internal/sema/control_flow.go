package sema

import (
	"lumen/internal/diag"
	"lumen/internal/tir"
	"lumen/internal/uir"
)

// analyzeBodyInto analyzes a body spliced directly into b and returns the
// last typed instruction produced, memoizing results like analyzeBody.
func (s *Sema) analyzeBodyInto(b *block, body []uir.InstIdx) (*tir.Inst, error) {
	var last *tir.Inst
	for _, idx := range body {
		inst, err := s.analyzeInst(b, idx)
		if err != nil {
			return nil, err
		}
		s.instMap[idx] = inst
		last = inst
		if s.isNoReturn(inst) {
			break
		}
	}
	if last == nil {
		last = s.builtinConst(uir.RefVoidValue)
	}
	return last, nil
}

func (s *Sema) analyzeCondBr(b *block, inst uir.Inst) (*tir.Inst, error) {
	data := s.code.CondBr(inst)
	cond, err := s.coerce(b, s.opts.Types.Builtins().Bool, s.resolveRef(inst.A), inst.Span)
	if err != nil {
		return nil, err
	}
	if cond.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}

	// A known condition selects one branch; the other is never analyzed.
	if isComptime(cond) {
		chosen := data.Then
		if !cond.Val.Bool {
			chosen = data.Else
		}
		return s.analyzeBodyInto(b, chosen)
	}

	if b.comptime {
		return nil, s.fail(diag.EvalRuntimeValue, inst.Span,
			"condition is not compile-time known")
	}

	thenScope := b.child()
	if err := s.analyzeBody(thenScope, data.Then); err != nil {
		return nil, err
	}
	elseScope := b.child()
	if err := s.analyzeBody(elseScope, data.Else); err != nil {
		return nil, err
	}
	return s.add(b, tir.Inst{
		Kind:     tir.KindCondBr,
		Type:     s.opts.Types.Builtins().NoReturn,
		Span:     inst.Span,
		Operand:  cond,
		Body:     thenScope.instrs,
		ElseBody: elseScope.instrs,
	}), nil
}

func (s *Sema) analyzeLoop(b *block, idx uir.InstIdx, inst uir.Inst) (*tir.Inst, error) {
	body := s.code.Body(inst.Payload)

	// In compile-time mode the loop must terminate by breaking out. The
	// stream has no mutable locals, so one pass over the body either takes
	// a break or never would; the quota bounds chains of re-entry through
	// recursive compile-time calls.
	if b.comptime {
		if !s.quota.step() {
			return nil, s.fail(diag.EvalBranchQuota, inst.Span,
				"evaluation exceeded %d backward branches", s.quota.max)
		}
		child := b.child()
		child.label = &blockLabel{
			uirIdx:    idx,
			blockInst: s.arena.NewInst(tir.Inst{Kind: tir.KindBlock, Span: inst.Span}),
		}
		if err := s.analyzeBody(child, body); err != nil {
			return nil, err
		}
		return s.closeBlock(b, child, inst.Span)
	}

	child := b.child()
	loopInst := s.arena.NewInst(tir.Inst{Kind: tir.KindLoop, Span: inst.Span})
	child.label = &blockLabel{uirIdx: idx, blockInst: loopInst}
	if err := s.analyzeBody(child, body); err != nil {
		return nil, err
	}

	// Loops are emitted unconditionally, even when a later pass could prove
	// the body never runs.
	childBody := tir.Body(child.instrs)
	peer, err := s.resolveBreakType(child.label, &childBody, inst.Span)
	if err != nil {
		return nil, err
	}
	loopInst.Type = peer
	loopInst.Body = childBody
	b.instrs = append(b.instrs, loopInst)
	return loopInst, nil
}
