package sema

import (
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func (s *Sema) analyzeBlock(b *block, idx uir.InstIdx, inst uir.Inst) (*tir.Inst, error) {
	child := b.child()
	child.label = &blockLabel{
		uirIdx:    idx,
		blockInst: s.arena.NewInst(tir.Inst{Kind: tir.KindBlock, Span: inst.Span}),
	}
	if err := s.analyzeBody(child, s.code.Body(inst.Payload)); err != nil {
		return nil, err
	}
	return s.closeBlock(b, child, inst.Span)
}

// closeBlock finalizes a labeled child scope and attaches its result to the
// parent. Three shapes come out:
//
//   - no breaks: the block degenerates and its instructions are spliced
//     directly into the parent;
//   - exactly one break which is the final instruction: the block again
//     degenerates, the break is dropped and its operand becomes the result;
//   - anything else: break operands are unified to one peer type, every
//     site with a differing operand type is patched in place, and the block
//     instruction is emitted with the child body attached.
func (s *Sema) closeBlock(parent *block, child *block, span source.Span) (*tir.Inst, error) {
	lbl := child.label
	body := tir.Body(child.instrs)
	switch {
	case len(lbl.sites) == 0:
		parent.instrs = append(parent.instrs, body...)
		if last := body.Last(); last != nil {
			return last, nil
		}
		return s.builtinConst(uir.RefVoidValue), nil

	case len(lbl.sites) == 1 && body.Last() == lbl.sites[0]:
		parent.instrs = append(parent.instrs, body[:len(body)-1]...)
		return lbl.operands[0], nil

	default:
		peer, err := s.resolveBreakType(lbl, &body, span)
		if err != nil {
			return nil, err
		}
		bi := lbl.blockInst
		bi.Type = peer
		bi.Body = body
		parent.instrs = append(parent.instrs, bi)
		return bi, nil
	}
}

// resolveBreakType unifies the collected break operands and patches every
// break site whose operand needs coercion to the unified type.
func (s *Sema) resolveBreakType(lbl *blockLabel, body *tir.Body, span source.Span) (peer types.TypeID, err error) {
	if len(lbl.sites) == 0 {
		return s.opts.Types.Builtins().NoReturn, nil
	}
	peer, err = s.resolvePeerTypes(span, lbl.operands)
	if err != nil {
		return peer, err
	}
	for i, site := range lbl.sites {
		operand := lbl.operands[i]
		if operand.Type == peer {
			continue
		}
		res, emitted, err := s.coerceSteps(peer, operand, site.Span)
		if err != nil {
			return peer, err
		}
		if len(emitted) > 0 && !insertBefore(body, site, emitted) {
			panic("break site is not reachable from its block body")
		}
		site.Operand = res
		lbl.operands[i] = res
	}
	return peer, nil
}

// insertBefore splices insts immediately before site, searching nested
// bodies recursively.
func insertBefore(body *tir.Body, site *tir.Inst, insts []*tir.Inst) bool {
	for i, inst := range *body {
		if inst == site {
			out := make(tir.Body, 0, len(*body)+len(insts))
			out = append(out, (*body)[:i]...)
			out = append(out, insts...)
			out = append(out, (*body)[i:]...)
			*body = out
			return true
		}
		if insertBefore(&inst.Body, site, insts) || insertBefore(&inst.ElseBody, site, insts) {
			return true
		}
		for ci := range inst.Cases {
			if insertBefore(&inst.Cases[ci].Body, site, insts) {
				return true
			}
		}
	}
	return false
}

func (s *Sema) analyzeBreak(b *block, inst uir.Inst) (*tir.Inst, error) {
	lbl := b.findLabel(inst.A.Inst())
	operand := s.resolveRef(inst.B)
	br := s.add(b, tir.Inst{
		Kind:    tir.KindBr,
		Type:    s.opts.Types.Builtins().NoReturn,
		Span:    inst.Span,
		Target:  lbl.blockInst,
		Operand: operand,
	})
	lbl.operands = append(lbl.operands, operand)
	lbl.sites = append(lbl.sites, br)
	return br, nil
}
