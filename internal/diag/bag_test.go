package diag

import (
	"testing"

	"lumen/internal/source"
)

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{File: 0, Start: 0, End: 1}
	if !b.Add(NewError(SemaTypeMismatch, sp, "first")) {
		t.Fatal("first add rejected")
	}
	if !b.Add(NewError(SemaTypeMismatch, sp, "second")) {
		t.Fatal("second add rejected")
	}
	if b.Add(NewError(SemaTypeMismatch, sp, "third")) {
		t.Fatal("add beyond cap accepted")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d", b.Len())
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(16)
	b.Add(NewError(SemaTypeMismatch, source.Span{File: 1, Start: 50, End: 51}, "later"))
	b.Add(NewError(SemaValueOutOfRange, source.Span{File: 0, Start: 10, End: 12}, "earlier"))
	b.Add(New(SevWarning, SemaInfo, source.Span{File: 0, Start: 10, End: 12}, "same span, lower severity"))
	b.Sort()

	items := b.Items()
	if items[0].Message != "earlier" {
		t.Fatalf("first after sort: %q", items[0].Message)
	}
	if items[1].Severity != SevWarning {
		// same span: error sorts before warning
		t.Fatalf("severity order wrong: %v", items[1].Severity)
	}
	if items[2].Message != "later" {
		t.Fatalf("last after sort: %q", items[2].Message)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(16)
	sp := source.Span{File: 0, Start: 3, End: 9}
	b.Add(NewError(SemaTypeMismatch, sp, "expected u8, found u32"))
	b.Add(NewError(SemaTypeMismatch, sp, "expected u8, found u32"))
	b.Add(NewError(SemaValueOutOfRange, sp, "different code survives"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("Len after dedup = %d", b.Len())
	}
}

func TestBagReporter(t *testing.T) {
	b := NewBag(4)
	var r Reporter = BagReporter{Bag: b}
	ReportError(r, SemaNotCallable, source.Span{}, "cannot call value of type u8").
		WithNote(source.Span{}, "declared here").
		Emit()
	if !b.HasErrors() {
		t.Fatal("reported error not collected")
	}
	if len(b.Items()[0].Notes) != 1 {
		t.Fatal("note lost")
	}
}
