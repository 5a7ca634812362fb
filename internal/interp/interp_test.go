package interp

import (
	"math/big"
	"testing"

	"ripple/internal/ast"
	"ripple/internal/source"
	"ripple/internal/types"
)

func TestWrapAround(t *testing.T) {
	v := NewUBits(8, big.NewInt(256))
	if v.Num.Sign() != 0 {
		t.Fatalf("256 mod 2^8 = %s", v.Num)
	}
	neg := NewSBits(8, big.NewInt(-129))
	if got, _ := neg.AsInt64(); got != 127 {
		t.Fatalf("-129 wrapped to %d", got)
	}
}

func TestFitsIn(t *testing.T) {
	cases := []struct {
		v      int64
		width  int64
		signed bool
		want   bool
	}{
		{255, 8, false, true},
		{256, 8, false, false},
		{-1, 8, false, false},
		{127, 8, true, true},
		{128, 8, true, false},
		{-128, 8, true, true},
		{-129, 8, true, false},
	}
	for _, c := range cases {
		if got := FitsIn(big.NewInt(c.v), c.width, c.signed); got != c.want {
			t.Errorf("FitsIn(%d, %d, %v) = %v", c.v, c.width, c.signed, got)
		}
	}
}

func TestBinopArithmetic(t *testing.T) {
	a := UBitsFromInt64(8, 200)
	b := UBitsFromInt64(8, 100)
	sum, err := Binop(ast.BinopAdd, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := sum.AsInt64(); got != 44 {
		t.Fatalf("200+100 wrapped to %d", got)
	}

	lt, _ := Binop(ast.BinopLt, b, a)
	if !lt.IsTrue() {
		t.Fatal("100 < 200 was false")
	}

	cat, _ := Binop(ast.BinopConcat, UBitsFromInt64(4, 0xA), UBitsFromInt64(4, 0x5))
	if cat.Width != 8 {
		t.Fatalf("concat width %d", cat.Width)
	}
	if got, _ := cat.AsInt64(); got != 0xA5 {
		t.Fatalf("concat value %#x", got)
	}
}

func TestUnop(t *testing.T) {
	inv, err := Unop(ast.UnopInvert, UBitsFromInt64(4, 0b0101))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := inv.AsInt64(); got != 0b1010 {
		t.Fatalf("invert produced %#b", got)
	}
	neg, _ := Unop(ast.UnopNeg, SBitsFromInt64(8, 1))
	if got, _ := neg.AsInt64(); got != -1 {
		t.Fatalf("neg produced %d", got)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		text string
		kind ast.NumberKind
		want int64
	}{
		{"42", ast.NumberUntyped, 42},
		{"0x1_F", ast.NumberTyped, 31},
		{"0b101", ast.NumberTyped, 5},
		{"true", ast.NumberBool, 1},
		{"a", ast.NumberChar, 97},
	}
	for _, c := range cases {
		n, err := ParseNumber(c.text, c.kind)
		if err != nil {
			t.Fatalf("ParseNumber(%q): %v", c.text, err)
		}
		if n.Int64() != c.want {
			t.Errorf("ParseNumber(%q) = %s, want %d", c.text, n, c.want)
		}
	}
	if _, err := ParseNumber("0xzz", ast.NumberTyped); err == nil {
		t.Fatal("garbage literal parsed")
	}
}

func TestZeroOfType(t *testing.T) {
	z, err := ZeroOfType(&types.TupleType{Members: []types.Type{
		types.MakeUBits(8),
		&types.ArrayType{Elem: types.MakeUBits(1), Size: types.DimInt64(2)},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if z.Tag != TagTuple || len(z.Elems) != 2 || len(z.Elems[1].Elems) != 2 {
		t.Fatalf("zero value shape: %s", z)
	}
}

func TestTreeEvaluatorBinop(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	sp := source.Span{}
	lhs := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("3"), ast.NoTypeID)
	rhs := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("4"), ast.NoTypeID)
	sum := b.Exprs.NewBinop(sp, ast.BinopAdd, lhs, rhs)

	known := map[ast.ExprID]Value{
		lhs: UBitsFromInt64(8, 3),
		rhs: UBitsFromInt64(8, 4),
	}
	look := func(id ast.ExprID) (Value, bool) {
		v, ok := known[id]
		return v, ok
	}
	got, err := TreeEvaluator{}.Evaluate(b, sum, types.MakeUBits(8), look)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := got.AsInt64(); n != 7 {
		t.Fatalf("3+4 = %d", n)
	}
}

func TestTreeEvaluatorRange(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	sp := source.Span{}
	start := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("0"), ast.NoTypeID)
	limit := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("4"), ast.NoTypeID)
	rng := b.Exprs.NewRange(sp, start, limit, false)

	known := map[ast.ExprID]Value{
		start: UBitsFromInt64(32, 0),
		limit: UBitsFromInt64(32, 4),
	}
	look := func(id ast.ExprID) (Value, bool) {
		v, ok := known[id]
		return v, ok
	}
	got, err := TreeEvaluator{}.Evaluate(b, rng, nil, look)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag != TagArray || len(got.Elems) != 4 {
		t.Fatalf("range produced %s", got)
	}
}

func TestTreeEvaluatorNonConstexpr(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	sp := source.Span{}
	nd := b.NewNameDef(sp, b.Intern("x"))
	ref := b.Exprs.NewNameRef(sp, b.Intern("x"), nd)
	look := func(ast.ExprID) (Value, bool) { return Value{}, false }
	_, err := TreeEvaluator{}.Evaluate(b, ref, types.MakeUBits(8), look)
	if err != ErrNotConstexpr {
		t.Fatalf("expected ErrNotConstexpr, got %v", err)
	}
}
