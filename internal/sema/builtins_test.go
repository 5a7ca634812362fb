package sema

import (
	"testing"

	"ripple/internal/ast"
	"ripple/internal/types"
)

func (m *mod) builtinCall(b ast.BuiltinFn, args []ast.ExprID, typeArgs []ast.TypeID) ast.ExprID {
	callee := m.Exprs.NewBuiltinRef(m.sp, m.Intern(b.String()), b)
	if len(typeArgs) > 0 {
		return m.Exprs.NewBuiltinInvocation(m.sp, callee, args, typeArgs)
	}
	return m.Exprs.NewInvocation(m.sp, callee, args, nil)
}

func TestWideningCast(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.builtinCall(ast.BuiltinWideningCast, []ast.ExprID{m.ref(x)}, []ast.TypeID{m.uT(33)})
	m.addFn("f", []ast.ParamID{p}, m.uT(33), body)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Return, types.MakeUBits(33)) {
		t.Fatalf("widening result is %s", ft.Return)
	}
}

func TestWideningCastRejectsNarrowing(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.builtinCall(ast.BuiltinWideningCast, []ast.ExprID{m.ref(x)}, []ast.TypeID{m.uT(31)})
	m.addFn("f", []ast.ParamID{p}, m.uT(31), body)

	_, _, err := m.check()
	wantErr(t, err, "Can not cast from type")
}

func TestWideningCastUnsignedToSignedNeedsExtraBit(t *testing.T) {
	m := newMod(t, "demo")
	p, x := m.param("x", m.uT(32))
	body := m.builtinCall(ast.BuiltinWideningCast, []ast.ExprID{m.ref(x)}, []ast.TypeID{m.sT(32)})
	m.addFn("f", []ast.ParamID{p}, m.sT(32), body)

	_, _, err := m.check()
	wantErr(t, err, "Can not cast from type")
}

func TestArraySizeIsConstexpr(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	p, a := m.param("a", arrAnn)
	call := m.builtinCall(ast.BuiltinArraySize, []ast.ExprID{m.ref(a)}, nil)
	m.addFn("f", []ast.ParamID{p}, m.uT(32), call)

	ti, _, err := m.check()
	wantNoErr(t, err)
	v, ok := ti.GetConstexpr(ast.ExprRef(call))
	if !ok {
		t.Fatal("array_size result is not constexpr")
	}
	if n, err := v.AsInt64(); err != nil || n != 4 {
		t.Fatalf("array_size folded to %v (%v)", v, err)
	}
}

func TestFailLabelValidation(t *testing.T) {
	m := newMod(t, "demo")
	label := m.Exprs.NewString(m.sp, m.Intern("bad label!"))
	call := m.builtinCall(ast.BuiltinFail, []ast.ExprID{label, m.u32val("0")}, nil)
	m.addFn("f", nil, m.uT(32), call)

	_, _, err := m.check()
	wantErr(t, err, "must be a valid identifier")
}

func TestCoverConditionMustBeBool(t *testing.T) {
	m := newMod(t, "demo")
	label := m.Exprs.NewString(m.sp, m.Intern("seen"))
	call := m.builtinCall(ast.BuiltinCover, []ast.ExprID{label, m.u32val("1")}, nil)
	m.addFn("f", nil, ast.NoTypeID, call)

	_, _, err := m.check()
	wantErr(t, err, "cover! condition must be a bool")
}

func TestTokenTaintPropagates(t *testing.T) {
	m := newMod(t, "demo")
	fmtArg := m.Exprs.NewString(m.sp, m.Intern("tick"))
	trace := m.builtinCall(ast.BuiltinTrace, []ast.ExprID{fmtArg}, nil)
	noisy := m.addFn("noisy", nil, ast.NoTypeID, trace)

	noisyFn := m.Fns.Get(uint32(noisy))
	callNoisy := m.Exprs.NewInvocation(m.sp, m.ref(noisyFn.Name), nil, nil)
	caller := m.addFn("caller", nil, ast.NoTypeID, callNoisy)

	ti, _, err := m.check()
	wantNoErr(t, err)
	if v, ok := ti.RequiresToken(noisy); !ok || !v {
		t.Fatal("noisy was not marked token-requiring")
	}
	if v, ok := ti.RequiresToken(caller); !ok || !v {
		t.Fatal("taint did not propagate to caller")
	}
}

func TestMapWithUserFunction(t *testing.T) {
	m := newMod(t, "demo")
	pd, x := m.param("x", m.uT(8))
	dblBody := m.Exprs.NewBinop(m.sp, ast.BinopAdd, m.ref(x), m.ref(x))
	dbl := m.addFn("double", []ast.ParamID{pd}, m.uT(8), dblBody)

	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	pa, a := m.param("a", arrAnn)
	dblFn := m.Fns.Get(uint32(dbl))
	call := m.builtinCall(ast.BuiltinMap, []ast.ExprID{m.ref(a), m.ref(dblFn.Name)}, nil)
	ret := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	m.addFn("f", []ast.ParamID{pa}, ret, call)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestMapWithRevBuiltin(t *testing.T) {
	m := newMod(t, "demo")
	arrAnn := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	p, a := m.param("a", arrAnn)
	rev := m.Exprs.NewBuiltinRef(m.sp, m.Intern("rev"), ast.BuiltinRev)
	call := m.builtinCall(ast.BuiltinMap, []ast.ExprID{m.ref(a), rev}, nil)
	ret := m.Types.NewArray(m.sp, m.uT(8), m.lit("4"))
	m.addFn("f", []ast.ParamID{p}, ret, call)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestClzRequiresBits(t *testing.T) {
	m := newMod(t, "demo")
	tupAnn := m.Types.NewTuple(m.sp, []ast.TypeID{m.uT(8)})
	p, x := m.param("x", tupAnn)
	call := m.builtinCall(ast.BuiltinClz, []ast.ExprID{m.ref(x)}, nil)
	m.addFn("f", []ast.ParamID{p}, m.uT(8), call)

	_, _, err := m.check()
	wantErr(t, err, "clz requires a bits-typed argument")
}
