package source

import (
	"testing"
)

func TestInternerDedup(t *testing.T) {
	in := NewInterner()
	a := in.Intern("clock")
	b := in.Intern("reset")
	c := in.Intern("clock")
	if a != c {
		t.Fatalf("expected identical IDs for identical strings, got %d vs %d", a, c)
	}
	if a == b {
		t.Fatalf("distinct strings shared ID %d", a)
	}
	if got := in.MustLookup(b); got != "reset" {
		t.Fatalf("lookup returned %q", got)
	}
	if in.Intern("") != NoStringID {
		t.Fatal("empty string must map to NoStringID")
	}
}

func TestInternerLookupUnknown(t *testing.T) {
	in := NewInterner()
	if _, ok := in.Lookup(StringID(42)); ok {
		t.Fatal("lookup of unknown ID succeeded")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	got := a.Cover(b)
	if got.Start != 5 || got.End != 20 {
		t.Fatalf("cover produced %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if a.Cover(other) != a {
		t.Fatal("cover across files must be a no-op")
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("top.rpl", []byte("fn main() {\n  u32:7\n}\n"))
	start, _ := fs.Resolve(Span{File: id, Start: 14, End: 19})
	if start.Line != 2 || start.Col != 3 {
		t.Fatalf("resolved to %d:%d", start.Line, start.Col)
	}
	if got := fs.Get(id).GetLine(2); got != "  u32:7" {
		t.Fatalf("GetLine returned %q", got)
	}
}

func TestFileSetNormalization(t *testing.T) {
	fs := NewFileSet()
	content, _ := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if string(content) != "x" {
		t.Fatalf("BOM not stripped: %q", content)
	}
	content, changed := normalizeCRLF([]byte("a\r\nb"))
	if !changed || string(content) != "a\nb" {
		t.Fatalf("CRLF not normalized: %q", content)
	}
	id := fs.AddVirtual("a.rpl", []byte("one"))
	if latest, ok := fs.GetLatest("a.rpl"); !ok || latest != id {
		t.Fatal("GetLatest missed a loaded file")
	}
}
