package types

import (
	"math/big"
	"testing"
)

func TestInternDedup(t *testing.T) {
	in := NewInterner(nil)
	a := in.Int(true, 32)
	b := in.Int(true, 32)
	if a != b {
		t.Fatalf("i32 interned twice: %d vs %d", a, b)
	}
	if c := in.Int(false, 32); c == a {
		t.Fatal("u32 and i32 share a TypeID")
	}
}

func TestPointerAttributesDistinguish(t *testing.T) {
	in := NewInterner(nil)
	elem := in.Int(false, 8)
	plain := in.Ptr(elem, PtrInfo{Size: PtrMany})
	konst := in.Ptr(elem, PtrInfo{Size: PtrMany, Const: true})
	sent := in.Ptr(elem, PtrInfo{Size: PtrMany, HasSentinel: true, Sentinel: 0})
	if plain == konst || plain == sent || konst == sent {
		t.Fatalf("pointer attribute variants collapsed: %d %d %d", plain, konst, sent)
	}
	if again := in.Ptr(elem, PtrInfo{Size: PtrMany, Const: true}); again != konst {
		t.Fatal("identical pointer type not deduplicated")
	}
}

func TestErrorSetUnionIsOrderIndependent(t *testing.T) {
	in := NewInterner(nil)
	errs := in.Errors()
	notFound := errs.Intern("NotFound")
	denied := errs.Intern("AccessDenied")

	a := in.ErrorSet([]ErrorID{notFound, denied})
	b := in.ErrorSet([]ErrorID{denied, notFound, denied})
	if a != b {
		t.Fatalf("same member set interned differently: %d vs %d", a, b)
	}
	if !in.ErrorSetContains(a, notFound) {
		t.Fatal("set does not contain its member")
	}
	if in.ErrorSetContains(a, errs.Intern("Other")) {
		t.Fatal("set contains a non-member")
	}
}

func TestMergeErrorSets(t *testing.T) {
	in := NewInterner(nil)
	errs := in.Errors()
	a := in.ErrorSet([]ErrorID{errs.Intern("A")})
	b := in.ErrorSet([]ErrorID{errs.Intern("B")})
	merged := in.MergeErrorSets(a, b)
	if len(in.ErrorSetNames(merged)) != 2 {
		t.Fatalf("merged set has %d members", len(in.ErrorSetNames(merged)))
	}
	if got := in.MergeErrorSets(a, in.Builtins().AnyError); got != in.Builtins().AnyError {
		t.Fatal("merge with anyerror did not yield anyerror")
	}
	if !in.IsAnyError(in.Builtins().AnyError) {
		t.Fatal("IsAnyError rejects the builtin")
	}
}

func TestFitsInt(t *testing.T) {
	cases := []struct {
		v      int64
		signed bool
		bits   uint16
		want   bool
	}{
		{200, false, 8, true},
		{300, false, 8, false},
		{255, false, 8, true},
		{256, false, 8, false},
		{-1, false, 8, false},
		{127, true, 8, true},
		{128, true, 8, false},
		{-128, true, 8, true},
		{-129, true, 8, false},
		{3, false, 2, true},
		{4, false, 2, false},
		{0, false, 0, true},
		{1, false, 0, false},
	}
	for _, tc := range cases {
		got := FitsInt(big.NewInt(tc.v), tc.signed, tc.bits)
		if got != tc.want {
			t.Errorf("FitsInt(%d, signed=%t, bits=%d) = %t, want %t",
				tc.v, tc.signed, tc.bits, got, tc.want)
		}
	}
}

func TestFitsFloat(t *testing.T) {
	big16 := new(big.Float).SetInt64(70000)
	if FitsFloat(big16, 16) {
		t.Fatal("70000 fits in f16")
	}
	if !FitsFloat(big.NewFloat(65504), 16) {
		t.Fatal("f16 max rejected")
	}
	huge := new(big.Float).SetMantExp(big.NewFloat(1), 200)
	if FitsFloat(huge, 32) {
		t.Fatal("2^200 fits in f32")
	}
	if !FitsFloat(huge, 64) {
		t.Fatal("2^200 rejected by f64")
	}
}

func TestTypeString(t *testing.T) {
	in := NewInterner(nil)
	u8 := in.Int(false, 8)
	cases := map[TypeID]string{
		in.Int(true, 32):                      "i32",
		u8:                                    "u8",
		in.Float(64):                          "f64",
		in.Optional(u8):                       "?u8",
		in.Ptr(u8, PtrInfo{Size: PtrSlice}):   "[]u8",
		in.Array(u8, ArrayInfo{Len: 4}):       "[4]u8",
		in.Builtins().ComptimeInt:             "comptime_int",
		in.Builtins().AnyError:                "anyerror",
		in.ErrorUnion(in.Builtins().AnyError, u8): "anyerror!u8",
	}
	for id, want := range cases {
		if got := in.String(id); got != want {
			t.Errorf("String(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestNewStructIsNominal(t *testing.T) {
	in := NewInterner(nil)
	u8 := in.Int(false, 8)
	info := StructInfo{Name: "Point", Fields: []StructField{{Name: "x", Type: u8}}}
	a := in.NewStruct(info)
	b := in.NewStruct(info)
	if a == b {
		t.Fatal("identical struct declarations share a TypeID")
	}
	if in.StructInfo(a).Name != "Point" {
		t.Fatalf("struct name lost: %q", in.StructInfo(a).Name)
	}
}
