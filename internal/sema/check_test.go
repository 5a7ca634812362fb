package sema

import (
	"fmt"
	"strings"
	"testing"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/source"
	"ripple/internal/typeinfo"
	"ripple/internal/types"
)

func (m *mod) addConstant(name string, typ ast.TypeID, value ast.ExprID, public bool) (ast.ConstantID, ast.NameDefID) {
	nd := m.def(name)
	id := m.NewConstant(ast.Constant{Span: m.sp, Name: nd, Type: typ, Value: value, Public: public})
	m.AddMember(ast.MemberConstant, uint32(id))
	return id, nd
}

func TestConstantDefinition(t *testing.T) {
	m := newMod(t, "demo")
	_, k := m.addConstant("K", m.uT(32), m.u32val("42"), true)
	_, l := m.addConstant("L", m.uT(8), m.lit("200"), true)

	ti, _, err := m.check()
	wantNoErr(t, err)
	v, ok := ti.GetConstexpr(ast.NameDefRef(k))
	if !ok {
		t.Fatal("K has no constexpr value")
	}
	if got, _ := v.AsInt64(); got != 42 {
		t.Fatalf("K = %d, want 42", got)
	}
	lt, _ := ti.GetType(ast.NameDefRef(l))
	if !types.Equal(lt, types.MakeUBits(8)) {
		t.Fatalf("L has type %s, want uN[8]", lt)
	}
}

func TestConstantAnnotationMismatch(t *testing.T) {
	m := newMod(t, "demo")
	m.addConstant("K", m.uT(8), m.u32val("1"), true)

	_, _, err := m.check()
	wantErr(t, err, "Annotated type did not match inferred type of right hand side expression.")
}

func TestConstantNotConstexpr(t *testing.T) {
	m := newMod(t, "demo")
	f := m.addFn("f", nil, m.uT(32), m.u32val("7"))
	fFn := m.Fns.Get(uint32(f))
	call := m.Exprs.NewInvocation(m.sp, m.ref(fFn.Name), nil, nil)
	m.addConstant("K", m.uT(32), call, true)

	_, _, err := m.check()
	wantErr(t, err, "Constant definition is not constexpr")
}

// addEnum assembles a public two-member enum over the given underlying
// annotation, returning its name definition.
func (m *mod) addEnum(name string, underlying ast.TypeID, values []ast.EnumValue) ast.NameDefID {
	nd := m.def(name)
	id := m.NewEnum(ast.Enum{Span: m.sp, Name: nd, Underlying: underlying, Values: values, Public: true})
	m.AddMember(ast.MemberEnum, uint32(id))
	return nd
}

func (m *mod) colorEnum() ast.NameDefID {
	return m.addEnum("Color", m.uT(2), []ast.EnumValue{
		{Span: m.sp, Name: m.def("Red"), Expr: m.typed("0", m.uT(2))},
		{Span: m.sp, Name: m.def("Green"), Expr: m.typed("1", m.uT(2))},
	})
}

func TestEnumDefinitionAndUse(t *testing.T) {
	m := newMod(t, "demo")
	color := m.colorEnum()

	attr := m.Exprs.NewColonRef(m.sp, m.ref(color), m.Intern("Green"))
	m.addFn("pick", nil, m.Types.NewName(m.sp, m.ref(color), nil), attr)

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "pick")
	et, ok := ft.Return.(*types.EnumType)
	if !ok || et.Name != "Color" {
		t.Fatalf("pick returns %s, want enum Color", ft.Return)
	}
	if _, ok := ti.GetConstexpr(ast.ExprRef(attr)); !ok {
		t.Fatal("enum member reference has no constexpr value")
	}
}

func TestEnumMemberTypeMismatch(t *testing.T) {
	m := newMod(t, "demo")
	m.addEnum("Bad", m.uT(2), []ast.EnumValue{
		{Span: m.sp, Name: m.def("A"), Expr: m.typed("1", m.uT(8))},
	})

	_, _, err := m.check()
	wantErr(t, err, "Enum member type did not match the enum's underlying type.")
}

func TestEnumToBitsCast(t *testing.T) {
	m := newMod(t, "demo")
	color := m.colorEnum()

	p, c := m.param("c", m.Types.NewName(m.sp, m.ref(color), nil))
	cast := m.Exprs.NewCast(m.sp, m.ref(c), m.uT(2))
	m.addFn("f", []ast.ParamID{p}, m.uT(2), cast)

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestEnumCastWidthMismatch(t *testing.T) {
	m := newMod(t, "demo")
	color := m.colorEnum()

	p, c := m.param("c", m.Types.NewName(m.sp, m.ref(color), nil))
	cast := m.Exprs.NewCast(m.sp, m.ref(c), m.uT(16))
	m.addFn("f", []ast.ParamID{p}, m.uT(16), cast)

	_, _, err := m.check()
	wantErr(t, err, "Cannot cast from expression type")
}

func (m *mod) pointStruct() ast.NameDefID {
	nd := m.def("Point")
	id := m.NewStruct(ast.Struct{
		Span: m.sp, Name: nd,
		Fields: []ast.StructField{
			{Span: m.sp, Name: m.def("x"), Type: m.uT(8)},
			{Span: m.sp, Name: m.def("y"), Type: m.uT(8)},
		},
		Public: true,
	})
	m.AddMember(ast.MemberStruct, uint32(id))
	return nd
}

func TestStructInstanceMissingMember(t *testing.T) {
	m := newMod(t, "demo")
	point := m.pointStruct()

	ann := m.Types.NewName(m.sp, m.ref(point), nil)
	inst := m.Exprs.NewStructInstance(m.sp, ann, []ast.StructInstanceMember{
		{Span: m.sp, Name: m.Intern("x"), Expr: m.typed("1", m.uT(8))},
	})
	m.addFn("f", nil, m.Types.NewName(m.sp, m.ref(point), nil), inst)

	_, _, err := m.check()
	wantErr(t, err, "Struct instance is missing member(s): 'y'")
}

func TestStructSplatAllMembersWarns(t *testing.T) {
	m := newMod(t, "demo")
	point := m.pointStruct()

	p, other := m.param("other", m.Types.NewName(m.sp, m.ref(point), nil))
	ann := m.Types.NewName(m.sp, m.ref(point), nil)
	inst := m.Exprs.NewSplatStructInstance(m.sp, ann, []ast.StructInstanceMember{
		{Span: m.sp, Name: m.Intern("x"), Expr: m.typed("1", m.uT(8))},
		{Span: m.sp, Name: m.Intern("y"), Expr: m.typed("2", m.uT(8))},
	}, m.ref(other))
	m.addFn("f", []ast.ParamID{p}, m.Types.NewName(m.sp, m.ref(point), nil), inst)

	_, bag, err := m.check()
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnUselessStructSplat) {
		t.Fatal("expected a useless-splat warning")
	}
}

func TestAliasAsAnnotation(t *testing.T) {
	m := newMod(t, "demo")
	word := m.def("Word")
	alias := m.NewAlias(ast.Alias{Span: m.sp, Name: word, Type: m.uT(32), Public: true})
	m.AddMember(ast.MemberAlias, uint32(alias))

	p, x := m.param("x", m.Types.NewName(m.sp, m.ref(word), nil))
	m.addFn("f", []ast.ParamID{p}, m.uT(32), m.ref(x))

	ti, _, err := m.check()
	wantNoErr(t, err)
	ft := fnType(t, ti, m.Builder, "f")
	if !types.Equal(ft.Params[0], types.MakeUBits(32)) {
		t.Fatalf("param resolved to %s, want uN[32]", ft.Params[0])
	}
}

func TestConstAssertPasses(t *testing.T) {
	m := newMod(t, "demo")
	cond := m.Exprs.NewBinop(m.sp, ast.BinopEq, m.u32val("1"), m.u32val("1"))
	m.AddMember(ast.MemberConstAssert, uint32(m.NewConstAssert(m.sp, cond)))

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestConstAssertFailure(t *testing.T) {
	m := newMod(t, "demo")
	cond := m.Exprs.NewBinop(m.sp, ast.BinopEq, m.u32val("1"), m.u32val("2"))
	m.AddMember(ast.MemberConstAssert, uint32(m.NewConstAssert(m.sp, cond)))

	_, _, err := m.check()
	wantErr(t, err, "const_assert! failure")
}

// counterProc assembles a proc holding one u32 member, with config binding
// it from a single argument and next summing it into the state.
func (m *mod) counterProc() (ast.ProcID, ast.NameDefID) {
	limit := m.def("limit")
	pm := m.NewProcMember(m.sp, limit, m.uT(32))

	pl, l := m.param("l", m.uT(32))
	cfg := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("config"), Params: []ast.ParamID{pl},
		Body: m.Exprs.NewTuple(m.sp, []ast.ExprID{m.ref(l)}),
	})
	initFn := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("init"), Body: m.u32val("0")})
	ps, s := m.param("state", m.uT(32))
	next := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("next"), Params: []ast.ParamID{ps},
		Body: m.Exprs.NewBinop(m.sp, ast.BinopAdd, m.ref(s), m.ref(limit)),
	})

	name := m.def("Counter")
	id := m.NewProc(ast.Proc{
		Span: m.sp, Name: name, Members: []ast.ProcMemberID{pm},
		Config: cfg, Init: initFn, Next: next, Public: true,
	})
	m.AddMember(ast.MemberProc, uint32(id))
	return id, name
}

func TestProcChecks(t *testing.T) {
	m := newMod(t, "demo")
	proc, _ := m.counterProc()

	ti, _, err := m.check()
	wantNoErr(t, err)
	procTI, ok := ti.GetProcInfo(proc)
	if !ok {
		t.Fatal("proc was not recorded")
	}
	cfg := m.Fns.Get(uint32(m.Procs.Get(uint32(proc)).Config))
	rec, ok := procTI.GetType(ast.NameDefRef(cfg.Name))
	if !ok {
		t.Fatal("config has no recorded type")
	}
	ft := rec.(*types.FunctionType)
	if len(ft.Params) != 1 || !types.Equal(ft.Params[0], types.MakeUBits(32)) {
		t.Fatalf("config params %v, want [uN[32]]", ft.Params)
	}
	tup, ok := ft.Return.(*types.TupleType)
	if !ok || len(tup.Members) != 1 || !types.Equal(tup.Members[0], types.MakeUBits(32)) {
		t.Fatalf("config returns %s, want (uN[32])", ft.Return)
	}
}

func TestProcConfigMemberMismatch(t *testing.T) {
	m := newMod(t, "demo")
	limit := m.def("limit")
	pm := m.NewProcMember(m.sp, limit, m.uT(32))

	pl, l := m.param("l", m.uT(32))
	cfg := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("config"), Params: []ast.ParamID{pl},
		Body: m.Exprs.NewTuple(m.sp, []ast.ExprID{m.ref(l), m.ref(l)}),
	})
	initFn := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("init"), Body: m.u32val("0")})
	ps, s := m.param("state", m.uT(32))
	next := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("next"), Params: []ast.ParamID{ps}, Body: m.ref(s),
	})
	id := m.NewProc(ast.Proc{
		Span: m.sp, Name: m.def("Bad"), Members: []ast.ProcMemberID{pm},
		Config: cfg, Init: initFn, Next: next, Public: true,
	})
	m.AddMember(ast.MemberProc, uint32(id))

	_, _, err := m.check()
	wantErr(t, err, "Return type of 'config' did not match the types of the proc members.")
}

func TestProcNextParamCount(t *testing.T) {
	m := newMod(t, "demo")
	cfg := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("config"), Body: m.Exprs.NewTuple(m.sp, nil),
	})
	initFn := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("init"), Body: m.u32val("0")})
	next := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("next"), Body: m.u32val("0")})
	id := m.NewProc(ast.Proc{
		Span: m.sp, Name: m.def("Bad"),
		Config: cfg, Init: initFn, Next: next, Public: true,
	})
	m.AddMember(ast.MemberProc, uint32(id))

	_, _, err := m.check()
	wantErr(t, err, "Expected 1 parameter(s) but got 0 arguments.")
}

// spawnerProc wraps a spawn expression in a stateless host proc so it is
// checked in a config body, the only position spawns appear in.
func (m *mod) spawnerProc(spawn ast.ExprID) {
	body := m.Exprs.NewBlock(m.sp, []ast.StmtID{
		m.Stmts.NewExpr(m.sp, spawn),
		m.Stmts.NewExpr(m.sp, m.Exprs.NewTuple(m.sp, nil)),
	}, false)
	cfg := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("config"), Body: body})
	initFn := m.NewFn(ast.Fn{Span: m.sp, Name: m.def("init"), Body: m.Exprs.NewTuple(m.sp, nil)})
	ps, s := m.param("state", m.Types.NewTuple(m.sp, nil))
	next := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("next"), Params: []ast.ParamID{ps}, Body: m.ref(s),
	})
	id := m.NewProc(ast.Proc{
		Span: m.sp, Name: m.def("Main"),
		Config: cfg, Init: initFn, Next: next, Public: true,
	})
	m.AddMember(ast.MemberProc, uint32(id))
}

func TestSpawn(t *testing.T) {
	m := newMod(t, "demo")
	_, counter := m.counterProc()

	config := m.Exprs.NewInvocation(m.sp, m.ref(counter), []ast.ExprID{m.u32val("4")}, nil)
	next := m.Exprs.NewInvocation(m.sp, m.ref(counter), []ast.ExprID{m.u32val("0")}, nil)
	m.spawnerProc(m.Exprs.NewSpawn(m.sp, m.ref(counter), config, next))

	_, _, err := m.check()
	wantNoErr(t, err)
}

func TestSpawnConfigArgMismatch(t *testing.T) {
	m := newMod(t, "demo")
	_, counter := m.counterProc()

	config := m.Exprs.NewInvocation(m.sp, m.ref(counter),
		[]ast.ExprID{m.typed("4", m.uT(8))}, nil)
	next := m.Exprs.NewInvocation(m.sp, m.ref(counter), nil, nil)
	m.spawnerProc(m.Exprs.NewSpawn(m.sp, m.ref(counter), config, next))

	_, _, err := m.check()
	wantErr(t, err, "Mismatch between parameter and argument types.")
}

func TestSpawnParametricProc(t *testing.T) {
	m := newMod(t, "demo")
	w := m.def("W")
	pb := m.NewPBinding(m.sp, w, m.uT(32), ast.NoExprID)
	limit := m.def("limit")
	pm := m.NewProcMember(m.sp, limit, m.uNAnn(m.ref(w)))

	pl, l := m.param("l", m.uNAnn(m.ref(w)))
	cfg := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("config"), Params: []ast.ParamID{pl},
		Body: m.Exprs.NewTuple(m.sp, []ast.ExprID{m.ref(l)}),
	})
	initFn := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("init"),
		Body: m.Exprs.NewZeroMacro(m.sp, m.uNAnn(m.ref(w))),
	})
	ps, s := m.param("state", m.uNAnn(m.ref(w)))
	next := m.NewFn(ast.Fn{
		Span: m.sp, Name: m.def("next"), Params: []ast.ParamID{ps}, Body: m.ref(s),
	})
	name := m.def("Fifo")
	id := m.NewProc(ast.Proc{
		Span: m.sp, Name: name, Parametrics: []ast.PBindingID{pb},
		Members: []ast.ProcMemberID{pm},
		Config:  cfg, Init: initFn, Next: next, Public: true,
	})
	m.AddMember(ast.MemberProc, uint32(id))

	config := m.Exprs.NewInvocation(m.sp, m.ref(name),
		[]ast.ExprID{m.typed("4", m.uT(8))}, nil)
	nextInv := m.Exprs.NewInvocation(m.sp, m.ref(name), nil, nil)
	m.spawnerProc(m.Exprs.NewSpawn(m.sp, m.ref(name), config, nextInv))

	_, _, err := m.check()
	wantNoErr(t, err)
}

type importedModule struct {
	mod  *ast.Builder
	info *typeinfo.TypeInfo
}

// mapImporter resolves import subjects from a fixed table, keyed by the
// dot-joined subject path.
type mapImporter map[string]importedModule

func (mi mapImporter) Import(subject []string) (*ast.Builder, *typeinfo.TypeInfo, error) {
	key := strings.Join(subject, ".")
	entry, ok := mi[key]
	if !ok {
		return nil, nil, fmt.Errorf("module '%s' not found", key)
	}
	return entry.mod, entry.info, nil
}

// buildLib checks a small module exporting a constant and a function, with
// one private constant for visibility tests.
func buildLib(t *testing.T) mapImporter {
	t.Helper()
	lib := newMod(t, "lib")
	lib.addConstant("K", lib.uT(32), lib.u32val("42"), true)
	lib.addConstant("P", lib.uT(32), lib.u32val("1"), false)
	p, x := lib.param("x", lib.uT(8))
	body := lib.Exprs.NewBinop(lib.sp, ast.BinopAdd, lib.ref(x), lib.lit("1"))
	lib.addFn("inc", []ast.ParamID{p}, lib.uT(8), body)
	ti, _, err := lib.check()
	wantNoErr(t, err)
	return mapImporter{"lib": {mod: lib.Builder, info: ti}}
}

func (m *mod) addImport(subject, alias string) ast.NameDefID {
	nd := m.def(alias)
	id := m.NewImport(ast.Import{
		Span: m.sp, Subject: []source.StringID{m.Intern(subject)}, Alias: nd,
	})
	m.AddMember(ast.MemberImport, uint32(id))
	return nd
}

func TestImportConstant(t *testing.T) {
	imp := buildLib(t)
	m := newMod(t, "demo")
	alias := m.addImport("lib", "lib")

	attr := m.Exprs.NewColonRef(m.sp, m.ref(alias), m.Intern("K"))
	m.addFn("main", nil, m.uT(32), attr)

	ti, _, err := m.checkWith(imp)
	wantNoErr(t, err)
	v, ok := ti.GetConstexpr(ast.ExprRef(attr))
	if !ok {
		t.Fatal("imported constant reference has no constexpr value")
	}
	if got, _ := v.AsInt64(); got != 42 {
		t.Fatalf("lib::K = %d, want 42", got)
	}
}

func TestImportFunctionCall(t *testing.T) {
	imp := buildLib(t)
	m := newMod(t, "demo")
	alias := m.addImport("lib", "lib")

	p, a := m.param("a", m.uT(8))
	callee := m.Exprs.NewColonRef(m.sp, m.ref(alias), m.Intern("inc"))
	call := m.Exprs.NewInvocation(m.sp, callee, []ast.ExprID{m.ref(a)}, nil)
	m.addFn("main", []ast.ParamID{p}, m.uT(8), call)

	_, _, err := m.checkWith(imp)
	wantNoErr(t, err)
}

func TestImportPrivateMember(t *testing.T) {
	imp := buildLib(t)
	m := newMod(t, "demo")
	alias := m.addImport("lib", "lib")

	attr := m.Exprs.NewColonRef(m.sp, m.ref(alias), m.Intern("P"))
	m.addFn("main", nil, m.uT(32), attr)

	_, _, err := m.checkWith(imp)
	wantErr(t, err, "Attempted to refer to module member 'P' that is not public")
}

func TestImportUnknownModule(t *testing.T) {
	m := newMod(t, "demo")
	m.addImport("nope", "nope")

	_, _, err := m.checkWith(mapImporter{})
	wantErr(t, err, "module 'nope' not found")
}

func TestImportAliasWarning(t *testing.T) {
	imp := buildLib(t)
	m := newMod(t, "demo")
	m.addImport("lib", "my-lib")

	_, bag, err := m.checkWith(imp)
	wantNoErr(t, err)
	if !hasCode(bag, diag.WarnIllegalPackageImportAlias) {
		t.Fatal("expected an illegal-alias warning")
	}
}
