package sema

import (
	"testing"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/types"
)

func TestShiftBlessesBareAmount(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopShl, m.ref(x), m.lit("1"))
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Return, types.MakeUBits(8)) {
		t.Fatalf("shift result is %s", ft.Return)
	}
}

func TestShiftAmountMustBeUnsigned(t *testing.T) {
	m := newMod(t, "demo")
	px, x := m.param("x", m.uT(8))
	py, y := m.param("y", m.sT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopShl, m.ref(x), m.ref(y))
	m.addFn("f", []ast.ParamID{px, py}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Shift amount must be unsigned.")
}

func TestShiftAmountTooLarge(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopShl, m.ref(x), m.u32val("9"))
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Shift amount is larger than shift value bit width of 8.")
}

func TestComparisonYieldsBool(t *testing.T) {
	m := newMod(t, "demo")
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopLt, m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pa, pb}, m.uT(1), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestBinopOperandMismatch(t *testing.T) {
	m := newMod(t, "demo")
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(16))
	body := m.Exprs.NewBinop(m.sp, ast.BinopAdd, m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pa, pb}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Could not deduce type for binary operation '+'")
}

func TestLogicalRequiresBool(t *testing.T) {
	m := newMod(t, "demo")
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopLogicalAnd, m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pa, pb}, m.uT(1), body)

	_, _, err := m.check()
	wantErr(t, err, "Logical binary operations can only be applied to boolean operands.")
}

func TestConcatBits(t *testing.T) {
	m := newMod(t, "demo")
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(4))
	body := m.Exprs.NewBinop(m.sp, ast.BinopConcat, m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pa, pb}, m.uT(12), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Return, types.MakeUBits(12)) {
		t.Fatalf("concat result is %s", ft.Return)
	}
}

func TestConditionalTestMustBeBool(t *testing.T) {
	m := newMod(t, "demo")
	pp, p := m.param("p", m.uT(2))
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(8))
	body := m.Exprs.NewConditional(m.sp, m.ref(p), m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pp, pa, pb}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Test type for conditional expression is not \"bool\"")
}

func TestConditional(t *testing.T) {
	m := newMod(t, "demo")
	pp, p := m.param("p", m.uT(1))
	pa, a := m.param("a", m.uT(8))
	pb, b := m.param("b", m.uT(8))
	body := m.Exprs.NewConditional(m.sp, m.ref(p), m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pp, pa, pb}, m.uT(8), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestTupleIndex(t *testing.T) {
	m := newMod(t, "demo")
	tupAnn := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(8), m.uT(16)})
	p, tup := m.param("t", tupAnn)
	body := m.Exprs.NewTupleIndex(m.sp, m.ref(tup), m.lit("1"))
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestTupleIndexOutOfBounds(t *testing.T) {
	m := newMod(t, "demo")
	tupAnn := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(8), m.uT(16)})
	p, tup := m.param("t", tupAnn)
	body := m.Exprs.NewTupleIndex(m.sp, m.ref(tup), m.lit("2"))
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	_, _, err := m.check()
	wantErr(t, err, "Out-of-bounds tuple index specified: 2; tuple has 2 members.")
}

func TestArrayIndex(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	pa, a := m.param("a", arrAnn)
	pi, i := m.param("i", m.uT(3))
	body := m.Exprs.NewIndex(m.sp, m.ref(a), m.ref(i))
	m.addFn("f", []ast.ParamID{pa, pi}, m.uT(8), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestArrayIndexConstOutOfBounds(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	p, a := m.param("a", arrAnn)
	body := m.Exprs.NewIndex(m.sp, m.ref(a), m.u32val("4"))
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "out of bounds of the array type")
}

func TestSliceBasic(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.Exprs.NewSlice(m.sp, m.ref(x), m.lit("0"), m.lit("16"))
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Return, types.MakeUBits(16)) {
		t.Fatalf("slice result is %s", ft.Return)
	}
}

func TestSliceNegativeStartWraps(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.Exprs.NewSlice(m.sp, m.ref(x), m.lit("-16"), ast.NoExprID)
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestSliceSubjectMustBeUnsigned(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.sT(32))
	body := m.Exprs.NewSlice(m.sp, m.ref(x), m.lit("0"), m.lit("16"))
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	_, _, err := m.check()
	wantErr(t, err, "Bit slice LHS must be unsigned.")
}

func TestWidthSlice(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.Exprs.NewWidthSlice(m.sp, m.ref(x), m.lit("31"), m.uT(1))
	m.addFn("f", []ast.ParamID{p}, m.uT(1), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Return, types.MakeUBits(1)) {
		t.Fatalf("width slice result is %s", ft.Return)
	}
}

func TestWidthSliceOutOfBounds(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.Exprs.NewWidthSlice(m.sp, m.ref(x), m.lit("31"), m.uT(2))
	m.addFn("f", []ast.ParamID{p}, m.uT(2), body)

	_, _, err := m.check()
	wantErr(t, err, "Slice range out of bounds for type analysis.")
}

func TestMatchDuplicatePatternIsError(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(2))
	arms := []ast.MatchArm{
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewLiteral(m.sp, m.lit("0"))}, Expr: m.u32val("0")},
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewLiteral(m.sp, m.lit("0"))}, Expr: m.u32val("1")},
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewWildcard(m.sp)}, Expr: m.u32val("2")},
	}
	body := m.Exprs.NewMatch(m.sp, m.ref(x), arms)
	m.addFn("f", []ast.ParamID{p}, m.uT(32), body)

	_, _, err := m.check()
	wantErr(t, err, "Exact-duplicate pattern match detected `0` -- only the first could possibly match")
}

func TestMatchDuplicateWildcardIsError(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(2))
	arms := []ast.MatchArm{
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewWildcard(m.sp)}, Expr: m.u32val("0")},
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewWildcard(m.sp)}, Expr: m.u32val("1")},
	}
	body := m.Exprs.NewMatch(m.sp, m.ref(x), arms)
	m.addFn("f", []ast.ParamID{p}, m.uT(32), body)

	_, _, err := m.check()
	wantErr(t, err, "Exact-duplicate pattern match detected `_`")
}

func TestMatchArmTypeMismatch(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(2))
	arms := []ast.MatchArm{
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewLiteral(m.sp, m.lit("0"))}, Expr: m.u32val("0")},
		{Span: m.sp, Patterns: []ast.PatID{m.Pats.NewWildcard(m.sp)}, Expr: m.typed("1", m.uT(8))},
	}
	body := m.Exprs.NewMatch(m.sp, m.ref(x), arms)
	m.addFn("f", []ast.ParamID{p}, m.uT(32), body)

	_, _, err := m.check()
	wantErr(t, err, "did not have the same type as the preceding match arms")
}

func TestMatchTuplePatternBinds(t *testing.T) {
	m := newMod(t, "demo")
	tupAnn := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(8), m.uT(16)})
	p, x := m.param("x", tupAnn)
	a := m.def("a")
	b := m.def("b")
	pat := m.Pats.NewTuple(m.sp, []ast.PatID{
		m.Pats.NewName(m.sp, a),
		m.Pats.NewName(m.sp, b),
	})
	arms := []ast.MatchArm{
		{Span: m.sp, Patterns: []ast.PatID{pat}, Expr: m.ref(b)},
	}
	body := m.Exprs.NewMatch(m.sp, m.ref(x), arms)
	m.addFn("f", []ast.ParamID{p}, m.uT(16), body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func buildForLoop(m *mod, xs ast.NameDefID, annot ast.TypeID) ast.ExprID {
	i := m.def("i")
	acc := m.def("acc")
	names := m.Pats.NewTuple(m.sp, []ast.PatID{
		m.Pats.NewName(m.sp, i),
		m.Pats.NewName(m.sp, acc),
	})
	body := m.Exprs.NewBinop(m.sp, ast.BinopAdd, m.ref(acc), m.ref(i))
	return m.Exprs.NewFor(m.sp, names, annot, m.ref(xs), m.u32val("0"), body)
}

func TestForLoop(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(32), m.lit("3"))
	p, xs := m.param("xs", arrAnn)
	annot := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(32), m.uT(32)})
	loop := buildForLoop(m, xs, annot)
	m.addFn("sum", []ast.ParamID{p}, m.uT(32), loop)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestForLoopIndexAnnotationMismatch(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(32), m.lit("3"))
	p, xs := m.param("xs", arrAnn)
	annot := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(8), m.uT(32)})
	loop := buildForLoop(m, xs, annot)
	m.addFn("sum", []ast.ParamID{p}, m.uT(32), loop)

	_, _, err := m.check()
	wantErr(t, err, "For-loop annotated index type did not match inferred type of iterable.")
}

func TestRangeExpr(t *testing.T) {
	m := newMod(t, "demo")
	body := m.Exprs.NewRange(m.sp, m.u32val("0"), m.u32val("4"), false)
	ret := m.Types.NewArray(m.sp, m.uT(32), m.lit("4"))
	m.addFn("f", nil, ret, body)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if hasCode(bag, diag.WarnEmptyRangeLiteral) {
		t.Fatalf("non-empty range warned: %v", bag.Items())
	}
}

func TestEmptyRangeWarns(t *testing.T) {
	m := newMod(t, "demo")
	body := m.Exprs.NewRange(m.sp, m.u32val("2"), m.u32val("2"), false)
	ret := m.Types.NewArray(m.sp, m.uT(32), m.lit("0"))
	m.addFn("f", nil, ret, body)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnEmptyRangeLiteral) {
		t.Fatalf("expected empty-range warning, got %v", bag.Items())
	}
}

func TestInvertedRangeIsEmpty(t *testing.T) {
	m := newMod(t, "demo")
	body := m.Exprs.NewRange(m.sp, m.u32val("5"), m.u32val("2"), false)
	ret := m.Types.NewArray(m.sp, m.uT(32), m.lit("0"))
	m.addFn("f", nil, ret, body)

	ti, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnEmptyRangeLiteral) {
		t.Fatalf("expected empty-range warning, got %v", bag.Items())
	}
	ft := fnType(t, ti, m.Builder, "f")
	arr, ok := ft.Return.(*types.ArrayType)
	if !ok {
		t.Fatalf("range deduced %s, want an array", ft.Return)
	}
	if size, serr := arr.Size.Int64(); serr != nil || size != 0 {
		t.Fatalf("inverted range has size %s, want 0", arr.Size)
	}
}

func TestWildcardLetWarns(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	let := m.Stmts.NewLet(m.sp, m.Pats.NewWildcard(m.sp), ast.NoTypeID, m.ref(x))
	final := m.Stmts.NewExpr(m.sp, m.ref(x))
	body := m.Exprs.NewBlock(m.sp, []ast.StmtID{let, final}, false)
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnUselessLetBinding) {
		t.Fatalf("expected useless-let warning, got %v", bag.Items())
	}
}

func TestShiftAmountTakesMinimalWidth(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	amount := m.lit("5")
	body := m.Exprs.NewBinop(m.sp, ast.BinopShl, m.ref(x), amount)
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	at, ok := ti.GetType(ast.ExprRef(amount))
	if !ok {
		t.Fatal("shift amount has no recorded type")
	}
	if !types.Equal(at, types.MakeUBits(3)) {
		t.Fatalf("shift amount typed %s, want uN[3]", at)
	}
}

func TestNegativeShiftAmount(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopShl, m.ref(x), m.lit("-1"))
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Negative literal values cannot be used as shift amounts; got: -1")
}

func TestUselessExpressionStmtWarns(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	dead := m.Stmts.NewExpr(m.sp, m.ref(x))
	final := m.Stmts.NewExpr(m.sp, m.ref(x))
	body := m.Exprs.NewBlock(m.sp, []ast.StmtID{dead, final}, false)
	m.addFn("f", []ast.ParamID{p}, m.uT(8), body)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnUselessExpressionStmt) {
		t.Fatalf("expected useless-statement warning, got %v", bag.Items())
	}
}

func TestTrailingSemiDiscardWarns(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(8))
	only := m.Stmts.NewExpr(m.sp, m.ref(x))
	body := m.Exprs.NewBlock(m.sp, []ast.StmtID{only}, true)
	m.addFn("f", []ast.ParamID{p}, ast.NoTypeID, body)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnTrailingTupleAfterSemi) {
		t.Fatalf("expected discarded-value warning, got %v", bag.Items())
	}
}

func TestNumberFitsWidth(t *testing.T) {
	m := newMod(t, "demo")
	m.addFn("max_u8", nil, m.uT(8), m.typed("255", m.uT(8)))
	m.addFn("neg_s8", nil, m.sT(8), m.typed("-1", m.sT(8)))

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestNumberTooWideForType(t *testing.T) {
	m := newMod(t, "demo")
	m.addFn("f", nil, m.uT(8), m.typed("256", m.uT(8)))

	_, _, err := m.check()
	wantErr(t, err, "Value '256' does not fit in the bitwidth of a uN[8] (8)")
}

func TestNegativeNumberNeedsSignedType(t *testing.T) {
	m := newMod(t, "demo")
	m.addFn("f", nil, m.uT(8), m.typed("-1", m.uT(8)))

	_, _, err := m.check()
	wantErr(t, err, "does not fit in the bitwidth")
}

func TestConcatArrayWithBitsFails(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	pa, a := m.param("a", arrAnn)
	pb, b := m.param("b", m.uT(8))
	body := m.Exprs.NewBinop(m.sp, ast.BinopConcat, m.ref(a), m.ref(b))
	m.addFn("f", []ast.ParamID{pa, pb}, m.uT(8), body)

	_, _, err := m.check()
	wantErr(t, err, "Attempting to concatenate array/non-array values together.")
}

func TestDeduceMemoizes(t *testing.T) {
	m := newMod(t, "demo")
	body := m.Exprs.NewRange(m.sp, m.u32val("2"), m.u32val("2"), false)
	ret := m.Types.NewArray(m.sp, m.uT(32), m.lit("0"))
	m.addFn("f", nil, ret, body)

	ti, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnEmptyRangeLiteral) {
		t.Fatalf("expected empty-range warning, got %v", bag.Items())
	}
	recorded, ok := ti.GetType(ast.ExprRef(body))
	if !ok {
		t.Fatal("block body has no recorded type")
	}

	// A second deduction over the same store must serve the memoized type
	// and not re-run the rule, so no warning is issued again.
	again := diag.NewBag(64)
	ctx := NewDeduceCtx(m.Builder, ti, diag.BagReporter{Bag: again}, nil)
	t2, err := DeduceExpr(ctx, body)
	wantNoErr(t, err)
	if !types.Equal(t2, recorded) {
		t.Fatalf("re-deduction produced %s, recorded %s", t2, recorded)
	}
	if again.Len() != 0 {
		t.Fatalf("re-deduction emitted diagnostics: %v", again.Items())
	}
}

func TestArrayLiteralEllipsis(t *testing.T) {
	m := newMod(t, "demo")
	annot := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	body := m.Exprs.NewArray(m.sp, []ast.ExprID{m.typed("1", m.uT(8))}, true, annot)
	ret := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	m.addFn("f", nil, ret, body)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestArrayLiteralSizeMismatch(t *testing.T) {
	m := newMod(t, "demo")
	annot := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	body := m.Exprs.NewArray(m.sp, []ast.ExprID{m.typed("1", m.uT(8)), m.typed("2", m.uT(8))}, false, annot)
	ret := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	m.addFn("f", nil, ret, body)

	_, _, err := m.check()
	wantErr(t, err, "Annotated array size 4 does not match inferred array size 2.")
}
