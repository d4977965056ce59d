package source

import (
	"testing"
)

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("len")
	b := in.Intern("ptr")
	if a == b {
		t.Fatalf("distinct strings share an ID: %d", a)
	}
	if got := in.Intern("len"); got != a {
		t.Fatalf("re-interning changed ID: got %d want %d", got, a)
	}
	if s := in.MustLookup(b); s != "ptr" {
		t.Fatalf("lookup returned %q", s)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatal("lookup of unknown ID succeeded")
	}
}

func TestInternerEmptyString(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string interned as %d, want NoStringID", id)
	}
	if in.Len() != 1 {
		t.Fatalf("fresh interner has Len %d", in.Len())
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.lm", []byte("const x = 1;\nconst y = 2;\n"))

	start, _ := fs.Resolve(Span{File: id, Start: 13, End: 18})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("resolve: got %d:%d, want 2:1", start.Line, start.Col)
	}
	if line := fs.Get(id).GetLine(2); line != "const y = 2;" {
		t.Fatalf("GetLine(2) = %q", line)
	}
}

func TestToLineColBoundaries(t *testing.T) {
	// "ab\ncd\ne" — newlines at offsets 2 and 5.
	idx := buildLineIndex([]byte("ab\ncd\ne"))
	cases := []struct {
		off       uint32
		line, col uint32
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3}, // the newline byte belongs to the line it ends
		{3, 2, 1},
		{4, 2, 2},
		{5, 2, 3},
		{6, 3, 1},
	}
	for _, tc := range cases {
		got := toLineCol(idx, tc.off)
		if got.Line != tc.line || got.Col != tc.col {
			t.Fatalf("toLineCol(%d) = %d:%d, want %d:%d",
				tc.off, got.Line, got.Col, tc.line, tc.col)
		}
	}
	if got := toLineCol(nil, 4); got.Line != 1 || got.Col != 5 {
		t.Fatalf("toLineCol without newlines = %d:%d, want 1:5", got.Line, got.Col)
	}
}

func TestFileSetLatestWins(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("a.lm", []byte("old"))
	second := fs.AddVirtual("a.lm", []byte("new"))
	if first == second {
		t.Fatal("re-adding a path reused the FileID")
	}
	latest, ok := fs.GetLatest("a.lm")
	if !ok || latest != second {
		t.Fatalf("GetLatest = %d, %v; want %d, true", latest, ok, second)
	}
}

func TestNormalizeText(t *testing.T) {
	// e followed by combining acute vs precomposed.
	composed := "café"
	decomposed := "café"
	if NormalizeText(decomposed) != composed {
		t.Fatalf("NFC normalization failed: %q", NormalizeText(decomposed))
	}
	if NormalizeText(composed) != composed {
		t.Fatal("already-normal string changed")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	c := a.Cover(b)
	if c.Start != 5 || c.End != 20 {
		t.Fatalf("cover = %v", c)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
}
