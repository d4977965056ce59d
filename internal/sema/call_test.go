package sema

import (
	"errors"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// testDecl is one entry of the in-memory registry used by call tests.
type testDecl struct {
	typ    types.TypeID
	val    *tir.Value
	body   *uir.Code
	params []Param
	ret    types.TypeID
	broken bool
}

type testRegistry struct {
	byName map[string]DeclID
	decls  map[DeclID]*testDecl
	deps   [][2]DeclID
}

func newTestRegistry() *testRegistry {
	return &testRegistry{
		byName: make(map[string]DeclID),
		decls:  make(map[DeclID]*testDecl),
	}
}

func (r *testRegistry) put(name string, d *testDecl) DeclID {
	id := DeclID(len(r.decls) + 1)
	r.byName[name] = id
	r.decls[id] = d
	return id
}

func (r *testRegistry) Lookup(_ source.FileID, name string) (DeclID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *testRegistry) EnsureAnalyzed(id DeclID) error {
	if r.decls[id].broken {
		return errors.New("declaration failed analysis")
	}
	return nil
}

func (r *testRegistry) DeclareDependency(from, to DeclID) {
	r.deps = append(r.deps, [2]DeclID{from, to})
}

func (r *testRegistry) TypedValueOf(id DeclID) (types.TypeID, *tir.Value) {
	d := r.decls[id]
	return d.typ, d.val
}

func (r *testRegistry) Body(id DeclID) *uir.Code {
	return r.decls[id].body
}

func (r *testRegistry) Signature(id DeclID) ([]Param, types.TypeID, bool) {
	d := r.decls[id]
	if d.body == nil {
		return nil, types.NoTypeID, false
	}
	return d.params, d.ret, true
}

// fnDecl registers a function declaration with a known function value.
func fnDecl(reg *testRegistry, in *types.Interner, name string, info types.FnInfo, body *uir.Code) DeclID {
	fnType := in.Fn(info)
	d := &testDecl{typ: fnType, body: body, ret: info.Ret}
	id := reg.put(name, d)
	d.val = &tir.Value{Kind: tir.ValFn, Type: fnType, Fn: uint32(id)}
	return id
}

// countdownBody builds fn f(n: i64) i64 { if n == 0 return 0 else return
// f(n-1) } in stream form.
func countdownBody(in *types.Interner) *uir.Code {
	b := uir.NewBuilder()
	cmp := b.Binary(uir.OpCmpEq, source.Span{}, uir.ParamRef(0), uir.RefZero)
	retZero := b.Ret(source.Span{}, uir.RefZero)
	sub := b.Binary(uir.OpSub, source.Span{}, uir.ParamRef(0), uir.RefOne)
	ref := b.DeclRef(source.Span{}, "f")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModComptime, []uir.Ref{uir.InstRef(sub)})
	retRec := b.Ret(source.Span{}, uir.InstRef(call))
	cb := b.CondBr(source.Span{}, uir.InstRef(cmp),
		[]uir.InstIdx{retZero},
		[]uir.InstIdx{sub, ref, call, retRec})
	return b.Finish([]uir.InstIdx{cmp, cb})
}

// callF builds the caller stream: comptime call of f with one literal
// argument.
func callF(arg int64) *uir.Code {
	b := uir.NewBuilder()
	n := b.Int(source.Span{}, arg)
	ref := b.DeclRef(source.Span{}, "f")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModComptime, []uir.Ref{uir.InstRef(n)})
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	return b.Finish([]uir.InstIdx{n, ref, call, ret})
}

func TestBranchQuotaExceeded(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)
	fnDecl(reg, in, "f", types.FnInfo{Params: []types.TypeID{i64}, Ret: i64}, countdownBody(in))

	_, bag, err := runAnalysis(t, callF(10), Options{
		Types:       in,
		Registry:    reg,
		BranchQuota: 5,
	})
	wantFailure(t, err, bag, diag.EvalBranchQuota)
}

func TestBranchQuotaRaisedPermitsCompletion(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)
	fnDecl(reg, in, "f", types.FnInfo{Params: []types.TypeID{i64}, Ret: i64}, countdownBody(in))

	res, _, err := runAnalysis(t, callF(10), Options{
		Types:       in,
		Registry:    reg,
		BranchQuota: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, res, 0)
	if res.Type != i64 {
		t.Fatalf("result type = %s, want i64", in.String(res.Type))
	}
}

func TestRuntimeCallEmitsCallInstruction(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)
	fnDecl(reg, in, "f", types.FnInfo{Params: []types.TypeID{i64}, Ret: i64}, countdownBody(in))

	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "f")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModAuto, []uir.Ref{uir.ParamRef(0)})
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	code := b.Finish([]uir.InstIdx{ref, call, ret})

	res, _, err := runAnalysis(t, code, Options{
		Types:    in,
		Registry: reg,
		Params:   []Param{{Name: "n", Type: i64}},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantBodyKinds(t, res.Body, tir.KindCall, tir.KindRet)
	if res.Body[0].Type != i64 {
		t.Fatalf("call type = %s, want i64", in.String(res.Body[0].Type))
	}
}

func TestCallWrongArgumentCount(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)
	fnDecl(reg, in, "f", types.FnInfo{Params: []types.TypeID{i64}, Ret: i64}, countdownBody(in))

	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "f")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModAuto, nil)
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	code := b.Finish([]uir.InstIdx{ref, call, ret})

	_, bag, err := runAnalysis(t, code, Options{Types: in, Registry: reg})
	wantFailure(t, err, bag, diag.SemaWrongArgCount)
}

func TestCallNonFunction(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	reg.put("k", &testDecl{typ: in.Int(true, 32)})

	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "k")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModAuto, nil)
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	code := b.Finish([]uir.InstIdx{ref, call, ret})

	_, bag, err := runAnalysis(t, code, Options{Types: in, Registry: reg})
	wantFailure(t, err, bag, diag.SemaNotCallable)
}

func TestCallNakedFunctionRejected(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)
	fnDecl(reg, in, "f", types.FnInfo{Ret: i64, CallConv: types.CallNaked}, nil)

	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "f")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModAuto, nil)
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	code := b.Finish([]uir.InstIdx{ref, call, ret})

	_, bag, err := runAnalysis(t, code, Options{Types: in, Registry: reg})
	wantFailure(t, err, bag, diag.SemaNotCallable)
}

func TestUndeclaredIdentifier(t *testing.T) {
	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "missing")
	ret := b.Ret(source.Span{}, uir.InstRef(ref))
	code := b.Finish([]uir.InstIdx{ref, ret})

	_, bag, err := runAnalysis(t, code, Options{Registry: newTestRegistry()})
	wantFailure(t, err, bag, diag.SemaUndeclared)
}

func TestFailedDependencyDoesNotDuplicateDiagnostics(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	reg.put("bad", &testDecl{typ: in.Int(true, 32), broken: true})

	b := uir.NewBuilder()
	ref := b.DeclRef(source.Span{}, "bad")
	ret := b.Ret(source.Span{}, uir.InstRef(ref))
	code := b.Finish([]uir.InstIdx{ref, ret})

	_, bag, err := runAnalysis(t, code, Options{Types: in, Registry: reg})
	if !errors.Is(err, ErrFailedDependency) {
		t.Fatalf("err = %v, want ErrFailedDependency", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("dependent re-reported %d diagnostics", bag.Len())
	}
	if len(reg.deps) != 1 {
		t.Fatalf("recorded %d dependency edges, want 1", len(reg.deps))
	}
}

func TestInlineCallSplicesBody(t *testing.T) {
	in := types.NewInterner(nil)
	reg := newTestRegistry()
	i64 := in.Int(true, 64)

	// fn g(n: i64) i64 { return n + 1 } with the inline calling convention.
	gb := uir.NewBuilder()
	sum := gb.Binary(uir.OpAdd, source.Span{}, uir.ParamRef(0), uir.RefOne)
	gRet := gb.Ret(source.Span{}, uir.InstRef(sum))
	gCode := gb.Finish([]uir.InstIdx{sum, gRet})
	fnDecl(reg, in, "g", types.FnInfo{
		Params: []types.TypeID{i64}, Ret: i64, CallConv: types.CallInline,
	}, gCode)

	b := uir.NewBuilder()
	n := b.Int(source.Span{}, 41)
	ref := b.DeclRef(source.Span{}, "g")
	call := b.Call(source.Span{}, uir.InstRef(ref), uir.CallModAuto, []uir.Ref{uir.InstRef(n)})
	ret := b.Ret(source.Span{}, uir.InstRef(call))
	code := b.Finish([]uir.InstIdx{n, ref, call, ret})

	res, _, err := runAnalysis(t, code, Options{Types: in, Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	// The inlined body folds completely: no call instruction remains.
	wantBodyKinds(t, res.Body, tir.KindRet)
	wantInt(t, res, 42)
}
