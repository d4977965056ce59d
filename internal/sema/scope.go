package sema

import (
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// block is a node in the tree of nested scopes. It accumulates the typed
// instructions produced while its body is analyzed.
type block struct {
	parent *block

	// comptime is inherited from the parent and may be forced on for
	// compile-time calls.
	comptime bool

	instrs []*tir.Inst

	// label is present only on structured blocks that can be the target of
	// a break.
	label *blockLabel
}

// blockLabel tracks break traffic into a structured block while it is open.
type blockLabel struct {
	// uirIdx is the untyped block instruction breaks name as their target.
	uirIdx uir.InstIdx
	// blockInst is the placeholder typed block instruction.
	blockInst *tir.Inst
	// operands holds each break's operand, in break order.
	operands []*tir.Inst
	// sites holds the break instructions themselves, for later
	// type-coercion patch-up.
	sites []*tir.Inst
}

// inlineCtx is present while re-analyzing the body of a function being
// inlined or evaluated at compile time.
type inlineCtx struct {
	// args are the already-typed call arguments; parameter references in
	// the callee body resolve to these.
	args []*tir.Inst
	// retLabel is the implicit result block; the callee's returns become
	// breaks targeting it.
	retLabel *blockLabel
	// retType is the callee's declared return type.
	retType types.TypeID
}

// child opens a nested scope.
func (b *block) child() *block {
	return &block{parent: b, comptime: b.comptime}
}

// findLabel walks the scope chain for the label of the given untyped block.
// A miss is an upstream bug: the stream referenced a break target that is
// not an enclosing block.
func (b *block) findLabel(idx uir.InstIdx) *blockLabel {
	for scope := b; scope != nil; scope = scope.parent {
		if scope.label != nil && scope.label.uirIdx == idx {
			return scope.label
		}
	}
	panic("break target is not an enclosing block")
}

// add allocates inst from the declaration's arena and appends it to the
// block's instruction list.
func (s *Sema) add(b *block, inst tir.Inst) *tir.Inst {
	ptr := s.arena.NewInst(inst)
	b.instrs = append(b.instrs, ptr)
	return ptr
}

// newConst materializes a compile-time-known value. Constants are not
// appended to the block: they are substituted directly into the
// instructions that use them.
func (s *Sema) newConst(span source.Span, val tir.Value) *tir.Inst {
	v := s.arena.NewValue(val)
	return s.arena.NewInst(tir.Inst{
		Kind: tir.KindConst,
		Type: val.Type,
		Span: span,
		Val:  v,
	})
}

// isNoReturn reports whether the instruction's type ends control flow.
func (s *Sema) isNoReturn(inst *tir.Inst) bool {
	return s.opts.Types.Kind(inst.Type) == types.KindNoReturn
}

// isComptime reports whether the instruction carries a compile-time-known
// value.
func isComptime(inst *tir.Inst) bool {
	return inst.Val != nil
}
