package sema

import (
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func TestBlockSingleTrailingBreakDegenerates(t *testing.T) {
	b := uir.NewBuilder()
	blk := b.ReserveBlock(source.Span{})
	v := b.Int(source.Span{}, 42)
	br := b.Break(source.Span{}, blk, uir.InstRef(v))
	b.FinishBody(blk, []uir.InstIdx{v, br})
	ret := b.Ret(source.Span{}, uir.InstRef(blk))
	code := b.Finish([]uir.InstIdx{blk, ret})

	res, _, err := runAnalysis(t, code, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// No wrapping block instruction survives; the break operand is the
	// expression's result.
	wantBodyKinds(t, res.Body, tir.KindRet)
	wantInt(t, res, 42)
}

func TestBlockNoBreaksSplices(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	blk := b.ReserveBlock(source.Span{})
	ret := b.Ret(source.Span{}, uir.ParamRef(0))
	b.FinishBody(blk, []uir.InstIdx{ret})
	code := b.Finish([]uir.InstIdx{blk})

	res, _, err := runAnalysis(t, code, Options{
		Types:  in,
		Params: []Param{{Name: "x", Type: in.Int(false, 8)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindRet)
}

func TestBlockMultipleBreaksPatchesSites(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	blk := b.ReserveBlock(source.Span{})
	br1 := b.Break(source.Span{}, blk, uir.ParamRef(0)) // u8
	br2 := b.Break(source.Span{}, blk, uir.ParamRef(1)) // u32
	cb := b.CondBr(source.Span{}, uir.ParamRef(2),
		[]uir.InstIdx{br1}, []uir.InstIdx{br2})
	b.FinishBody(blk, []uir.InstIdx{cb})
	ret := b.Ret(source.Span{}, uir.InstRef(blk))
	code := b.Finish([]uir.InstIdx{blk, ret})

	res, _, err := runAnalysis(t, code, Options{
		Types: in,
		Params: []Param{
			{Name: "a", Type: in.Int(false, 8)},
			{Name: "b", Type: in.Int(false, 32)},
			{Name: "c", Type: in.Builtins().Bool},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindBlock, tir.KindRet)

	blkInst := res.Body[0]
	if blkInst.Type != in.Int(false, 32) {
		t.Fatalf("block type = %s, want u32", in.String(blkInst.Type))
	}
	wantBodyKinds(t, blkInst.Body, tir.KindCondBr)

	// The narrow break site was patched: a widen is inserted right before
	// the break and becomes its operand.
	then := blkInst.Body[0].Body
	wantBodyKinds(t, then, tir.KindIntWiden, tir.KindBr)
	if then[1].Operand != then[0] {
		t.Fatal("break operand was not patched to the inserted widen")
	}
	if then[0].Type != in.Int(false, 32) {
		t.Fatalf("widen type = %s, want u32", in.String(then[0].Type))
	}

	// The wide break site is untouched.
	els := blkInst.Body[0].ElseBody
	wantBodyKinds(t, els, tir.KindBr)
	if els[0].Operand.Kind != tir.KindParam {
		t.Fatalf("else break operand kind = %s, want param", els[0].Operand.Kind)
	}
}

func TestBreakPeerConflictIsReported(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	blk := b.ReserveBlock(source.Span{})
	br1 := b.Break(source.Span{}, blk, uir.ParamRef(0)) // u8
	br2 := b.Break(source.Span{}, blk, uir.ParamRef(1)) // bool
	cb := b.CondBr(source.Span{}, uir.ParamRef(2),
		[]uir.InstIdx{br1}, []uir.InstIdx{br2})
	b.FinishBody(blk, []uir.InstIdx{cb})
	ret := b.Ret(source.Span{}, uir.InstRef(blk))
	code := b.Finish([]uir.InstIdx{blk, ret})

	_, bag, err := runAnalysis(t, code, Options{
		Types: in,
		Params: []Param{
			{Name: "a", Type: in.Int(false, 8)},
			{Name: "b", Type: in.Builtins().Bool},
			{Name: "c", Type: in.Builtins().Bool},
		},
	})
	wantFailure(t, err, bag, diag.SemaPeerTypeConflict)
}

func TestComptimeCondBrAnalyzesOnlySelectedBranch(t *testing.T) {
	b := uir.NewBuilder()
	blk := b.ReserveBlock(source.Span{})
	v1 := b.Int(source.Span{}, 1)
	br1 := b.Break(source.Span{}, blk, uir.InstRef(v1))
	// The dead branch contains a guaranteed failure; it must never run.
	ce := b.CompileError(source.Span{}, "never analyzed")
	cb := b.CondBr(source.Span{}, uir.RefBoolTrue,
		[]uir.InstIdx{v1, br1}, []uir.InstIdx{ce})
	b.FinishBody(blk, []uir.InstIdx{cb})
	ret := b.Ret(source.Span{}, uir.InstRef(blk))
	code := b.Finish([]uir.InstIdx{blk, ret})

	res, _, err := runAnalysis(t, code, Options{})
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, res, 1)
}

func TestUndefinedCondBrConditionIsRejected(t *testing.T) {
	b := uir.NewBuilder()
	boolTE := b.TypeExpr(uir.TypeExpr{Kind: uir.TEBool})
	cond := b.As(source.Span{}, boolTE, uir.RefUndef)
	blk := b.ReserveBlock(source.Span{})
	v1 := b.Int(source.Span{}, 1)
	br1 := b.Break(source.Span{}, blk, uir.InstRef(v1))
	br0 := b.Break(source.Span{}, blk, uir.RefZero)
	cb := b.CondBr(source.Span{}, uir.InstRef(cond),
		[]uir.InstIdx{v1, br1}, []uir.InstIdx{br0})
	b.FinishBody(blk, []uir.InstIdx{cb})
	ret := b.Ret(source.Span{}, uir.InstRef(blk))
	code := b.Finish([]uir.InstIdx{cond, blk, ret})

	_, bag, err := runAnalysis(t, code, Options{})
	wantFailure(t, err, bag, diag.EvalUndefinedOperand)
}

func TestRuntimeLoopIsEmittedWithBreakResult(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	loop := b.ReserveLoop(source.Span{})
	br := b.Break(source.Span{}, loop, uir.ParamRef(0))
	cb := b.CondBr(source.Span{}, uir.ParamRef(1),
		[]uir.InstIdx{br}, nil)
	b.FinishBody(loop, []uir.InstIdx{cb})
	ret := b.Ret(source.Span{}, uir.InstRef(loop))
	code := b.Finish([]uir.InstIdx{loop, ret})

	res, _, err := runAnalysis(t, code, Options{
		Types: in,
		Params: []Param{
			{Name: "x", Type: in.Int(false, 8)},
			{Name: "done", Type: in.Builtins().Bool},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindLoop, tir.KindRet)
	if res.Body[0].Type != in.Int(false, 8) {
		t.Fatalf("loop type = %s, want u8", in.String(res.Body[0].Type))
	}
}
