package sema

import (
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func TestCoerceLiteralDoesNotFit(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	v := b.Int(source.Span{}, 300)
	as := b.As(source.Span{}, u8, uir.InstRef(v))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{v, as, ret})

	_, bag, err := runAnalysis(t, code, Options{})
	wantFailure(t, err, bag, diag.SemaValueOutOfRange)
}

func TestCoerceLiteralFits(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	v := b.Int(source.Span{}, 200)
	as := b.As(source.Span{}, u8, uir.InstRef(v))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{v, as, ret})

	in := types.NewInterner(nil)
	res, _, err := runAnalysis(t, code, Options{Types: in})
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, res, 200)
	if res.Type != in.Int(false, 8) {
		t.Fatalf("result type = %s, want u8", in.String(res.Type))
	}
}

func TestCoerceNullToOptional(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	opt := b.TypeExpr(uir.TypeExpr{Kind: uir.TEOptional, Elem: u8})
	as := b.As(source.Span{}, opt, uir.RefNull)
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{as, ret})

	res, _, err := runAnalysis(t, code, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Value == nil || res.Value.Kind != tir.ValOptional || res.Value.Payload != nil {
		t.Fatalf("result = %v, want a known null optional", res.Value)
	}
}

func TestCoerceWrapsPayloadIntoOptional(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	opt := b.TypeExpr(uir.TypeExpr{Kind: uir.TEOptional, Elem: u8})
	v := b.Int(source.Span{}, 7)
	as := b.As(source.Span{}, opt, uir.InstRef(v))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{v, as, ret})

	res, _, err := runAnalysis(t, code, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Value == nil || res.Value.Kind != tir.ValOptional || res.Value.Payload == nil {
		t.Fatalf("result = %v, want a known non-null optional", res.Value)
	}
	if res.Value.Payload.Int.Int64() != 7 {
		t.Fatalf("payload = %s, want 7", res.Value.Payload.Int)
	}
}

func TestCoerceRuntimeIntWiden(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	u32 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 32})
	as := b.As(source.Span{}, u32, uir.ParamRef(0))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{as, ret})

	res, _, err := runAnalysis(t, code, Options{
		Types:  in,
		Params: []Param{{Name: "x", Type: in.Int(false, 8)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindIntWiden, tir.KindRet)
	if res.Value != nil {
		t.Fatal("widening a runtime value must not produce a compile-time result")
	}
	if res.Type != in.Int(false, 32) {
		t.Fatalf("result type = %s, want u32", in.String(res.Type))
	}
}

func TestCoerceRejectsNarrowing(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	as := b.As(source.Span{}, u8, uir.ParamRef(0))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{as, ret})

	_, bag, err := runAnalysis(t, code, Options{
		Types:  in,
		Params: []Param{{Name: "x", Type: in.Int(false, 32)}},
	})
	wantFailure(t, err, bag, diag.SemaTypeMismatch)
}

func TestCoerceUndefinedCarriesMarker(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	as := b.As(source.Span{}, u8, uir.RefUndef)
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{as, ret})

	res, _, err := runAnalysis(t, code, Options{Types: in})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Value.IsUndef() {
		t.Fatalf("result = %v, want the undefined marker", res.Value)
	}
	if res.Type != in.Int(false, 8) {
		t.Fatalf("result type = %s, want u8", in.String(res.Type))
	}
}

func TestCoerceKnownErrorIntoUnion(t *testing.T) {
	in := types.NewInterner(nil)
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	set := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrSet, Names: []string{"NotFound", "Busy"}})
	union := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrUnion, Set: set, Elem: u8})
	ev := b.ErrorValue(source.Span{}, "NotFound")
	as := b.As(source.Span{}, union, uir.InstRef(ev))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{ev, as, ret})

	res, _, err := runAnalysis(t, code, Options{Types: in})
	if err != nil {
		t.Fatal(err)
	}
	if res.Value == nil || res.Value.Kind != tir.ValErrUnion {
		t.Fatalf("result = %v, want a known error union", res.Value)
	}
	if in.Errors().Name(res.Value.Err) != "NotFound" {
		t.Fatalf("error = %q, want NotFound", in.Errors().Name(res.Value.Err))
	}
}

func TestCoerceErrorNotInSet(t *testing.T) {
	b := uir.NewBuilder()
	u8 := b.TypeExpr(uir.TypeExpr{Kind: uir.TEInt, Bits: 8})
	set := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrSet, Names: []string{"NotFound"}})
	union := b.TypeExpr(uir.TypeExpr{Kind: uir.TEErrUnion, Set: set, Elem: u8})
	ev := b.ErrorValue(source.Span{}, "Busy")
	as := b.As(source.Span{}, union, uir.InstRef(ev))
	ret := b.Ret(source.Span{}, uir.InstRef(as))
	code := b.Finish([]uir.InstIdx{ev, as, ret})

	_, bag, err := runAnalysis(t, code, Options{})
	wantFailure(t, err, bag, diag.SemaErrorNotInSet)
}

func TestResolvePeerTypesWidensIntegers(t *testing.T) {
	in := types.NewInterner(nil)
	arena := tir.NewArena()
	opts := Options{Types: in, Reporter: diag.NopReporter{}}
	s := &Sema{arena: arena, opts: &opts}

	i8 := arena.NewInst(tir.Inst{Kind: tir.KindParam, Type: in.Int(true, 8)})
	i32 := arena.NewInst(tir.Inst{Kind: tir.KindParam, Type: in.Int(true, 32)})
	peer, err := s.resolvePeerTypes(source.Span{}, []*tir.Inst{i8, i32})
	if err != nil {
		t.Fatal(err)
	}
	if peer != in.Int(true, 32) {
		t.Fatalf("peer = %s, want i32", in.String(peer))
	}
}

func TestResolvePeerTypesPromotesLiteral(t *testing.T) {
	in := types.NewInterner(nil)
	arena := tir.NewArena()
	opts := Options{Types: in, Reporter: diag.NopReporter{}}
	s := &Sema{arena: arena, opts: &opts}

	lit := arena.NewInst(tir.Inst{Kind: tir.KindConst, Type: in.Builtins().ComptimeInt})
	u16 := arena.NewInst(tir.Inst{Kind: tir.KindParam, Type: in.Int(false, 16)})
	peer, err := s.resolvePeerTypes(source.Span{}, []*tir.Inst{lit, u16})
	if err != nil {
		t.Fatal(err)
	}
	if peer != in.Int(false, 16) {
		t.Fatalf("peer = %s, want u16", in.String(peer))
	}
}

func TestResolvePeerTypesConflict(t *testing.T) {
	in := types.NewInterner(nil)
	arena := tir.NewArena()
	bag := diag.NewBag(4)
	opts := Options{Types: in, Reporter: diag.BagReporter{Bag: bag}}
	s := &Sema{arena: arena, opts: &opts}

	u8 := arena.NewInst(tir.Inst{Kind: tir.KindParam, Type: in.Int(false, 8)})
	i8 := arena.NewInst(tir.Inst{Kind: tir.KindParam, Type: in.Int(true, 8)})
	_, err := s.resolvePeerTypes(source.Span{}, []*tir.Inst{u8, i8})
	wantFailure(t, err, bag, diag.SemaPeerTypeConflict)
}
