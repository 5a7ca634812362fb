package ast

import (
	"bytes"
	"testing"

	"ripple/internal/source"
)

// buildAddOne assembles `fn add_one(x: u8) -> u8 { x + u8:1 }`.
func buildAddOne(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder("demo", 0)
	sp := source.Span{}

	paramName := b.NewNameDef(sp, b.Intern("x"))
	paramType := b.Types.NewBits(sp, false, 8)
	param := b.NewParam(sp, paramName, paramType)

	lhs := b.Exprs.NewNameRef(sp, b.Intern("x"), paramName)
	one := b.Exprs.NewNumber(sp, NumberTyped, b.Intern("1"), b.Types.NewBits(sp, false, 8))
	sum := b.Exprs.NewBinop(sp, BinopAdd, lhs, one)
	body := b.Exprs.NewBlock(sp, []StmtID{b.Stmts.NewExpr(sp, sum)}, false)

	fnName := b.NewNameDef(sp, b.Intern("add_one"))
	fn := b.NewFn(Fn{
		Span:       sp,
		Name:       fnName,
		Params:     []ParamID{param},
		ReturnType: b.Types.NewBits(sp, false, 8),
		Body:       body,
	})
	b.AddMember(MemberFn, uint32(fn))

	if err := b.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return b
}

func TestArenaHandles(t *testing.T) {
	a := NewArena[int](4)
	first := a.Allocate(10)
	second := a.Allocate(20)
	if first != 1 || second != 2 {
		t.Fatalf("handles are not 1-based: %d, %d", first, second)
	}
	if a.Get(0) != nil {
		t.Fatal("handle 0 must resolve to nil")
	}
	if a.Get(3) != nil {
		t.Fatal("out-of-range handle must resolve to nil")
	}
	if *a.Get(second) != 20 {
		t.Fatalf("Get returned %d", *a.Get(second))
	}
}

func TestBuilderLookups(t *testing.T) {
	b := buildAddOne(t)
	fnID, ok := b.FindFn("add_one")
	if !ok {
		t.Fatal("FindFn missed add_one")
	}
	fn := b.Fns.Get(uint32(fnID))
	if got := b.NameDefText(fn.Name); got != "add_one" {
		t.Fatalf("fn name is %q", got)
	}
	if _, ok := b.FindFn("missing"); ok {
		t.Fatal("FindFn invented a function")
	}
}

func TestParentage(t *testing.T) {
	b := buildAddOne(t)
	if err := b.VerifyParentage(); err != nil {
		t.Fatalf("verify: %v", err)
	}

	fnID, _ := b.FindFn("add_one")
	fn := b.Fns.Get(uint32(fnID))
	body, _ := b.Exprs.Block(fn.Body)
	stmtData, _ := b.Stmts.Expr(body.Stmts[0])
	sumData, _ := b.Exprs.Binop(stmtData.Expr)

	if got := b.Parent(ExprRef(sumData.LHS)); got != ExprRef(stmtData.Expr) {
		t.Fatalf("lhs parent is %v", got)
	}
	if got := b.Parent(FnRef(fnID)); got != ModuleRef() {
		t.Fatalf("fn parent is %v", got)
	}
}

func TestParentageRejectsSharedChild(t *testing.T) {
	b := NewBuilder("bad", 0)
	sp := source.Span{}
	shared := b.Exprs.NewNumber(sp, NumberUntyped, b.Intern("1"), NoTypeID)
	// The same expression reachable from two constants.
	for _, name := range []string{"A", "B"} {
		nd := b.NewNameDef(sp, b.Intern(name))
		c := b.NewConstant(Constant{Span: sp, Name: nd, Value: shared})
		b.AddMember(MemberConstant, uint32(c))
	}
	if err := b.Finalize(); err == nil {
		t.Fatal("finalize accepted a node with two parents")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	b := buildAddOne(t)

	var buf bytes.Buffer
	if err := EncodeModule(&buf, b); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeModule(&buf, 7)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Module.Name != "demo" || decoded.Module.File != 7 {
		t.Fatalf("module header lost: %+v", decoded.Module)
	}
	if err := decoded.VerifyParentage(); err != nil {
		t.Fatalf("decoded parentage: %v", err)
	}
	fnID, ok := decoded.FindFn("add_one")
	if !ok {
		t.Fatal("decoded module lost add_one")
	}
	fn := decoded.Fns.Get(uint32(fnID))
	if len(fn.Params) != 1 {
		t.Fatalf("decoded fn has %d params", len(fn.Params))
	}
}

func TestBuiltinByName(t *testing.T) {
	if BuiltinByName("widening_cast") != BuiltinWideningCast {
		t.Fatal("widening_cast not recognized")
	}
	if BuiltinByName("fail!") != BuiltinFail {
		t.Fatal("fail! not recognized")
	}
	if BuiltinByName("nonesuch") != BuiltinNone {
		t.Fatal("unknown name resolved to a builtin")
	}
}
