package uir

import (
	"testing"

	"lumen/internal/source"
)

func TestRefPartition(t *testing.T) {
	if !RefZero.IsBuiltin() || RefZero.IsParam() || RefZero.IsInst() {
		t.Fatal("built-in ref misclassified")
	}
	p := ParamRef(3)
	if !p.IsParam() || p.ParamIndex() != 3 {
		t.Fatalf("param ref misclassified: %v", p)
	}
	r := InstRef(7)
	if !r.IsInst() || r.Inst() != 7 {
		t.Fatalf("inst ref misclassified: %v", r)
	}
}

func TestCondBrRoundTrip(t *testing.T) {
	b := NewBuilder()
	sp := source.Span{}
	one := b.Int(sp, 1)
	two := b.Int(sp, 2)
	br := b.CondBr(sp, RefBoolTrue, []InstIdx{one}, []InstIdx{two})
	code := b.Finish([]InstIdx{br})

	data := code.CondBr(code.Get(br))
	if len(data.Then) != 1 || data.Then[0] != one {
		t.Fatalf("then body = %v", data.Then)
	}
	if len(data.Else) != 1 || data.Else[0] != two {
		t.Fatalf("else body = %v", data.Else)
	}
}

func TestSwitchRoundTrip(t *testing.T) {
	b := NewBuilder()
	sp := source.Span{}
	v0 := b.Int(sp, 0)
	v9 := b.Int(sp, 9)
	body := b.Int(sp, 100)
	elseBody := b.Int(sp, 200)
	sw := b.Switch(sp, ParamRef(0), []SwitchCase{
		{First: InstRef(v0), Body: []InstIdx{body}},
		{First: InstRef(v0), Last: InstRef(v9), IsRange: true, Body: nil},
	}, []InstIdx{elseBody})
	code := b.Finish([]InstIdx{sw})

	data := code.Switch(code.Get(sw))
	if len(data.Cases) != 2 {
		t.Fatalf("case count = %d", len(data.Cases))
	}
	if data.Cases[0].IsRange || data.Cases[0].First != data.Cases[0].Last {
		t.Fatalf("single case decoded as %+v", data.Cases[0])
	}
	if !data.Cases[1].IsRange || data.Cases[1].Last != InstRef(v9) {
		t.Fatalf("range case decoded as %+v", data.Cases[1])
	}
	if !data.HasElse || len(data.Else) != 1 || data.Else[0] != elseBody {
		t.Fatalf("else decoded as %v (hasElse=%t)", data.Else, data.HasElse)
	}
}

func TestCallRoundTrip(t *testing.T) {
	b := NewBuilder()
	sp := source.Span{}
	callee := b.DeclRef(sp, "fib")
	arg := b.Int(sp, 10)
	call := b.Call(sp, InstRef(callee), CallModComptime, []Ref{InstRef(arg)})
	code := b.Finish([]InstIdx{call})

	data := code.Call(code.Get(call))
	if data.Mod != CallModComptime {
		t.Fatalf("modifier = %d", data.Mod)
	}
	if len(data.Args) != 1 || data.Args[0] != InstRef(arg) {
		t.Fatalf("args = %v", data.Args)
	}
}

func TestBlockBody(t *testing.T) {
	b := NewBuilder()
	sp := source.Span{}
	blk := b.ReserveBlock(sp)
	v := b.Int(sp, 5)
	brk := b.Break(sp, blk, InstRef(v))
	b.FinishBody(blk, []InstIdx{v, brk})
	code := b.Finish([]InstIdx{blk})

	body := code.Body(code.Get(blk).Payload)
	if len(body) != 2 || body[0] != v || body[1] != brk {
		t.Fatalf("body = %v", body)
	}
	if code.Get(brk).A != InstRef(blk) {
		t.Fatal("break does not target its block")
	}
}
