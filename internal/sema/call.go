package sema

import (
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func (s *Sema) analyzeCall(b *block, inst uir.Inst) (*tir.Inst, error) {
	data := s.code.Call(inst)
	callee := s.resolveRef(inst.A)
	in := s.opts.Types

	if in.Kind(callee.Type) != types.KindFn {
		return nil, s.fail(diag.SemaNotCallable, inst.Span,
			"cannot call a value of type %s", s.typeName(callee.Type))
	}
	info := in.FnInfo(callee.Type)
	if info.CallConv == types.CallNaked {
		return nil, s.fail(diag.SemaNotCallable, inst.Span,
			"function with the naked calling convention cannot be called")
	}

	if info.Variadic {
		if len(data.Args) < len(info.Params) {
			return nil, s.fail(diag.SemaWrongArgCount, inst.Span,
				"expected at least %d arguments, found %d", len(info.Params), len(data.Args))
		}
	} else if len(data.Args) != len(info.Params) {
		return nil, s.fail(diag.SemaWrongArgCount, inst.Span,
			"expected %d arguments, found %d", len(info.Params), len(data.Args))
	}

	args := make([]*tir.Inst, len(data.Args))
	for i, ref := range data.Args {
		v := s.resolveRef(ref)
		if i < len(info.Params) {
			var err error
			if v, err = s.coerce(b, info.Params[i], v, inst.Span); err != nil {
				return nil, err
			}
		}
		args[i] = v
	}

	comptimeCall := data.Mod == uir.CallModComptime || b.comptime
	if comptimeCall || info.CallConv == types.CallInline {
		return s.inlineCall(b, inst.Span, callee, info, args, comptimeCall)
	}
	return s.emitRuntime(b, tir.Inst{
		Kind:   tir.KindCall,
		Type:   info.Ret,
		Span:   inst.Span,
		Callee: callee,
		Args:   args,
	}, inst.Span)
}

// inlineCall evaluates the callee's body in place of emitting a runtime
// call. A nested activation shares the caller's arena and branch quota but
// keeps its own instruction map; the callee's returns become breaks
// targeting an implicit result block merged by the block/break machinery.
func (s *Sema) inlineCall(b *block, span source.Span, callee *tir.Inst, info types.FnInfo, args []*tir.Inst, comptime bool) (*tir.Inst, error) {
	if !isComptime(callee) || callee.Val.Kind != tir.ValFn {
		return nil, s.fail(diag.EvalRuntimeValue, span, "callee is not compile-time known")
	}
	decl := DeclID(callee.Val.Fn)
	code := s.opts.Registry.Body(decl)
	if code == nil {
		return nil, s.fail(diag.SemaNotImplemented, span,
			"function body is not available for inline evaluation")
	}
	if comptime {
		for i, arg := range args {
			if !isComptime(arg) {
				return nil, s.fail(diag.EvalRuntimeValue, span,
					"argument %d of a compile-time call is not compile-time known", i+1)
			}
		}
	}
	if !s.quota.step() {
		return nil, s.fail(diag.EvalBranchQuota, span,
			"evaluation exceeded %d backward branches", s.quota.max)
	}

	// The root scope of the inlined body starts a fresh scope chain: the
	// callee's break targets live in its own index space and must not
	// resolve against the caller's open blocks.
	root := &block{comptime: b.comptime || comptime}
	retLabel := &blockLabel{
		uirIdx:    ^uir.InstIdx(0),
		blockInst: s.arena.NewInst(tir.Inst{Kind: tir.KindBlock, Span: span}),
	}
	root.label = retLabel

	sub := &Sema{
		code:     code,
		arena:    s.arena,
		opts:     s.opts,
		instMap:  make(map[uir.InstIdx]*tir.Inst),
		quota:    s.quota,
		inlining: &inlineCtx{args: args, retLabel: retLabel, retType: info.Ret},
	}
	if err := sub.analyzeBody(root, code.Root); err != nil {
		return nil, err
	}

	res, err := s.closeBlock(b, root, span)
	if err != nil {
		return nil, err
	}
	if comptime && !isComptime(res) && !s.isNoReturn(res) {
		return nil, s.fail(diag.EvalRuntimeValue, span,
			"compile-time call did not produce a compile-time-known value")
	}
	return res, nil
}

func (s *Sema) analyzeRet(b *block, inst uir.Inst) (*tir.Inst, error) {
	operand := s.resolveRef(inst.A)
	noReturn := s.opts.Types.Builtins().NoReturn

	// Inside an inlined body a return is a break to the implicit result
	// block.
	if s.inlining != nil {
		var err error
		if s.inlining.retType != types.NoTypeID {
			if operand, err = s.coerce(b, s.inlining.retType, operand, inst.Span); err != nil {
				return nil, err
			}
		}
		lbl := s.inlining.retLabel
		br := s.add(b, tir.Inst{
			Kind:    tir.KindBr,
			Type:    noReturn,
			Span:    inst.Span,
			Target:  lbl.blockInst,
			Operand: operand,
		})
		lbl.operands = append(lbl.operands, operand)
		lbl.sites = append(lbl.sites, br)
		return br, nil
	}

	if s.opts.RetType != types.NoTypeID {
		var err error
		if operand, err = s.coerce(b, s.opts.RetType, operand, inst.Span); err != nil {
			return nil, err
		}
	}
	return s.add(b, tir.Inst{
		Kind:    tir.KindRet,
		Type:    noReturn,
		Span:    inst.Span,
		Operand: operand,
	}), nil
}
