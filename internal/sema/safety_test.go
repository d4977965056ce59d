package sema

import (
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func TestRuntimeOptionalUnwrapEmitsGuard(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	uw := b.Unary(uir.OpOptionalUnwrap, source.Span{}, uir.ParamRef(0))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{uw, ret})

	u8 := in.Int(false, 8)
	res, _, err := runAnalysis(t, code, Options{
		Types:  in,
		Safety: true,
		Params: []Param{{Name: "x", Type: in.Optional(u8)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body,
		tir.KindIsNull, tir.KindCondBr, tir.KindOptionalPayload, tir.KindRet)

	guard := res.Body[1]
	if guard.Operand != res.Body[0] {
		t.Fatal("guard condition is not the null test")
	}
	wantBodyKinds(t, guard.Body, tir.KindTrap, tir.KindUnreach)
	if len(guard.ElseBody) != 0 {
		t.Fatal("ok path of the guard must be empty")
	}
	if res.Type != u8 {
		t.Fatalf("result type = %s, want u8", in.String(res.Type))
	}
}

func TestRuntimeOptionalUnwrapWithoutSafety(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	uw := b.Unary(uir.OpOptionalUnwrap, source.Span{}, uir.ParamRef(0))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{uw, ret})

	res, _, err := runAnalysis(t, code, Options{
		Types:  in,
		Params: []Param{{Name: "x", Type: in.Optional(in.Int(false, 8))}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindOptionalPayload, tir.KindRet)
}

func TestComptimeNullUnwrapFailsImmediately(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	opt := b.TypeExpr(uir.TypeExpr{Kind: uir.TEOptional, Elem: u8})
	as := b.As(source.Span{}, opt, uir.RefNull)
	uw := b.Unary(uir.OpOptionalUnwrap, source.Span{}, uir.InstRef(as))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{as, uw, ret})

	_, bag, err := runAnalysis(t, code, Options{Safety: true})
	wantFailure(t, err, bag, diag.EvalUnwrapNull)
}

func TestComptimeKnownOptionalUnwrapFolds(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	opt := b.TypeExpr(uir.TypeExpr{Kind: uir.TEOptional, Elem: u8})
	v := b.Int(source.Span{}, 9)
	as := b.As(source.Span{}, opt, uir.InstRef(v))
	uw := b.Unary(uir.OpOptionalUnwrap, source.Span{}, uir.InstRef(as))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{v, as, uw, ret})

	res, _, err := runAnalysis(t, code, Options{Safety: true})
	if err != nil {
		t.Fatal(err)
	}
	// A known non-null optional unwraps with no runtime guard at all.
	wantBodyKinds(t, res.Body, tir.KindRet)
	wantInt(t, res, 9)
}

func TestComptimeErrorUnwrapFails(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	set := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrSet, Names: []string{"Broken"}})
	union := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrUnion, Set: set, Elem: u8})
	ev := b.ErrorValue(source.Span{}, "Broken")
	as := b.As(source.Span{}, union, uir.InstRef(ev))
	uw := b.Unary(uir.OpErrUnwrap, source.Span{}, uir.InstRef(as))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{ev, as, uw, ret})

	_, bag, err := runAnalysis(t, code, Options{Safety: true})
	wantFailure(t, err, bag, diag.EvalUnwrapError)
}

func TestUndefinedOptionalUnwrapIsRejected(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	opt := b.TypeExpr(uir.TypeExpr{Kind: uir.TEOptional, Elem: u8})
	as := b.As(source.Span{}, opt, uir.RefUndef)
	uw := b.Unary(uir.OpOptionalUnwrap, source.Span{}, uir.InstRef(as))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{as, uw, ret})

	_, bag, err := runAnalysis(t, code, Options{Safety: true})
	wantFailure(t, err, bag, diag.EvalUndefinedOperand)
}

func TestUndefinedErrorUnwrapIsRejected(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	set := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrSet, Names: []string{"Broken"}})
	union := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrUnion, Set: set, Elem: u8})
	as := b.As(source.Span{}, union, uir.RefUndef)
	uw := b.Unary(uir.OpErrUnwrap, source.Span{}, uir.InstRef(as))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{as, uw, ret})

	_, bag, err := runAnalysis(t, code, Options{Safety: true})
	wantFailure(t, err, bag, diag.EvalUndefinedOperand)
}

func TestRuntimeErrorUnwrapEmitsGuard(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	uw := b.Unary(uir.OpErrUnwrap, source.Span{}, uir.ParamRef(0))
	ret := b.Ret(source.Span{}, uir.InstRef(uw))
	code := b.Finish([]uir.InstIdx{uw, ret})

	u8 := in.Int(false, 8)
	set := in.ErrorSet([]types.ErrorID{in.Errors().Intern("Broken")})
	res, _, err := runAnalysis(t, code, Options{
		Types:  in,
		Safety: true,
		Params: []Param{{Name: "x", Type: in.ErrorUnion(set, u8)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body,
		tir.KindIsErr, tir.KindCondBr, tir.KindErrPayload, tir.KindRet)
}

func TestUnreachableLowersToPanicSequence(t *testing.T) {
	b := uir.NewBuilder()
	un := b.Unreachable(source.Span{})
	code := b.Finish([]uir.InstIdx{un})

	res, _, err := runAnalysis(t, code, Options{Safety: true})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindTrap, tir.KindUnreach)
}

func TestComptimeUnreachableIsCompileError(t *testing.T) {
	b := uir.NewBuilder()
	un := b.Unreachable(source.Span{})
	code := b.Finish([]uir.InstIdx{un})

	_, bag, err := runAnalysis(t, code, Options{Comptime: true})
	wantFailure(t, err, bag, diag.EvalUnreachable)
}
