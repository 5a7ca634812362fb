package sema

import (
	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/interp"
	"ripple/internal/source"
	"ripple/internal/typeinfo"
	"ripple/internal/types"
)

// CheckModule type checks every member of a module in source order and
// returns the populated root type information store. Imported modules must
// be resolvable through the importer, already checked.
func CheckModule(b *ast.Builder, warnings diag.Reporter, importer Importer) (*typeinfo.TypeInfo, error) {
	ti := typeinfo.NewRoot(b)
	ctx := NewDeduceCtx(b, ti, warnings, importer)
	for _, member := range b.Module.Members {
		if err := checkMember(ctx, member); err != nil {
			return ti, err
		}
	}
	return ti, nil
}

func checkMember(ctx *DeduceCtx, member ast.Member) error {
	switch member.Kind {
	case ast.MemberImport:
		return checkImport(ctx, ast.ImportID(member.Index))
	case ast.MemberAlias:
		a := ctx.B.Aliases.Get(member.Index)
		meta, err := deduceTypeAnnMeta(ctx, a.Type)
		if err != nil {
			return err
		}
		ctx.TI.SetType(ast.NameDefRef(a.Name), meta)
		return nil
	case ast.MemberStruct:
		return checkStruct(ctx, ast.StructID(member.Index))
	case ast.MemberEnum:
		return checkEnum(ctx, ast.EnumID(member.Index))
	case ast.MemberConstant:
		return checkConstant(ctx, ast.ConstantID(member.Index))
	case ast.MemberConstAssert:
		ca := ctx.B.ConstAsserts.Get(member.Index)
		return checkConstAssert(ctx, ca.Arg)
	case ast.MemberFn:
		fn := ctx.B.Fns.Get(member.Index)
		if len(fn.Parametrics) > 0 {
			warnUnusedParametrics(ctx, ast.FnID(member.Index))
			return nil // checked per instantiation
		}
		return checkFunctionBody(ctx, ast.FnID(member.Index))
	case ast.MemberTestFn:
		return checkTestFn(ctx, ast.FnID(member.Index))
	case ast.MemberQuickCheck:
		return checkQuickCheck(ctx, ast.QuickCheckID(member.Index))
	case ast.MemberProc:
		return checkProcMember(ctx, ast.ProcID(member.Index), false)
	case ast.MemberTestProc:
		return checkProcMember(ctx, ast.ProcID(member.Index), true)
	}
	return internalErrorf(source.Span{}, "unhandled module member kind %d", member.Kind)
}

func checkImport(ctx *DeduceCtx, id ast.ImportID) error {
	imp := ctx.B.Imports.Get(uint32(id))
	if ctx.Importer == nil {
		return inferenceErrorf(imp.Span, nil,
			"Imports are not supported in this checking context")
	}
	subject := make([]string, len(imp.Subject))
	for i, s := range imp.Subject {
		subject[i] = ctx.B.Str(s)
	}
	mod, info, err := ctx.Importer.Import(subject)
	if err != nil {
		return inferenceErrorf(imp.Span, nil, "%s", err)
	}
	alias := ctx.B.NameDefText(imp.Alias)
	if alias != "" && !labelRE.MatchString(alias) {
		ctx.warn(diag.WarnIllegalPackageImportAlias, imp.Span,
			"Import of '%s' should have an alias because its tail is not a valid identifier.", alias)
	}
	ctx.TI.Root().AddImport(id, typeinfo.Imported{Module: mod, Info: info})
	return nil
}

func checkStruct(ctx *DeduceCtx, id ast.StructID) error {
	s := ctx.B.Structs.Get(uint32(id))
	names := make([]string, len(s.Parametrics))
	for i, pbID := range s.Parametrics {
		pb := ctx.B.PBindings.Get(uint32(pbID))
		bt, err := ConcretizeType(ctx, pb.Type)
		if err != nil {
			return err
		}
		if _, ok := bt.(*types.BitsType); !ok {
			return inferenceErrorf(pb.Span, bt,
				"Parametric binding types must be bits types; got %s", bt)
		}
		ctx.TI.SetType(ast.NameDefRef(pb.Name), bt)
		names[i] = ctx.B.NameDefText(pb.Name)
	}
	members := make([]types.StructMember, len(s.Fields))
	for i, f := range s.Fields {
		t, err := ConcretizeType(ctx, f.Type)
		if err != nil {
			return err
		}
		members[i] = types.StructMember{Name: ctx.B.NameDefText(f.Name), Type: t}
		ctx.TI.SetType(ast.NameDefRef(f.Name), t)
	}
	st := &types.StructType{
		Module:          ctx.B.Module.Name,
		Name:            ctx.B.NameDefText(s.Name),
		Def:             id,
		Members:         members,
		ParametricNames: names,
	}
	ctx.TI.SetType(ast.NameDefRef(s.Name), &types.MetaType{Wrapped: st})
	return nil
}

func checkEnum(ctx *DeduceCtx, id ast.EnumID) error {
	e := ctx.B.Enums.Get(uint32(id))
	var underlying *types.BitsType
	if e.Underlying.IsValid() {
		t, err := ConcretizeType(ctx, e.Underlying)
		if err != nil {
			return err
		}
		bt, ok := t.(*types.BitsType)
		if !ok {
			return inferenceErrorf(ctx.B.Types.Span(e.Underlying), t,
				"Enum underlying type must be a bits type; got %s", t)
		}
		underlying = bt
	}
	valueTypes := make([]types.Type, len(e.Values))
	for i, val := range e.Values {
		var expect types.Type
		if underlying != nil {
			expect = underlying
		}
		t, err := deduceWithExpectation(ctx, val.Expr, expect)
		if err != nil {
			return err
		}
		valueTypes[i] = t
		if underlying == nil {
			bt, ok := t.(*types.BitsType)
			if !ok {
				return inferenceErrorf(ctx.B.Exprs.Span(val.Expr), t,
					"Enum underlying type must be a bits type; got %s", t)
			}
			underlying = bt
		} else if !types.Equal(t, underlying) {
			return mismatchErrorf(ctx.B.Exprs.Span(val.Expr), t, underlying,
				"Enum member type did not match the enum's underlying type.")
		}
	}
	et := &types.EnumType{
		Module: ctx.B.Module.Name,
		Name:   ctx.B.NameDefText(e.Name),
		Def:    id,
		Signed: underlying != nil && underlying.Signed,
		Size:   enumSize(underlying),
	}
	for i, val := range e.Values {
		ctx.TI.SetType(ast.NameDefRef(val.Name), et)
		if v, ok := ctx.constexprOf(val.Expr); ok {
			ctx.TI.NoteConstexpr(ast.NameDefRef(val.Name),
				interp.NewEnum(et.Module, et.Name, v))
		} else {
			return inferenceErrorf(ctx.B.Exprs.Span(val.Expr), valueTypes[i],
				"Enum member value is not constexpr")
		}
	}
	ctx.TI.SetType(ast.NameDefRef(e.Name), &types.MetaType{Wrapped: et})
	return nil
}

func enumSize(underlying *types.BitsType) types.Dim {
	if underlying == nil {
		return types.DimInt64(0)
	}
	return underlying.Size
}

func checkConstant(ctx *DeduceCtx, id ast.ConstantID) error {
	c := ctx.B.Constants.Get(uint32(id))
	var annT types.Type
	if c.Type.IsValid() {
		t, err := ConcretizeType(ctx, c.Type)
		if err != nil {
			return err
		}
		annT = t
	}
	valT, err := deduceWithExpectation(ctx, c.Value, annT)
	if err != nil {
		return err
	}
	if annT != nil && !types.Equal(annT, valT) {
		return mismatchErrorf(c.Span, annT, valT,
			"Annotated type did not match inferred type of right hand side expression.")
	}
	bindT := valT
	if annT != nil {
		bindT = annT
	}
	v, ok := ctx.constexprOf(c.Value)
	if !ok {
		return inferenceErrorf(ctx.B.Exprs.Span(c.Value), valT,
			"Constant definition is not constexpr")
	}
	ctx.TI.SetType(ast.NameDefRef(c.Name), bindT)
	ctx.TI.NoteConstexpr(ast.NameDefRef(c.Name), v)
	return nil
}

// checkFunctionBody checks a non-parametric function: parameter and return
// annotations, the body under an empty environment, and unused-definition
// warnings. The function's type is recorded on its name.
func checkFunctionBody(ctx *DeduceCtx, id ast.FnID) error {
	fn := ctx.B.Fns.Get(uint32(id))
	if _, done := ctx.TI.GetType(ast.NameDefRef(fn.Name)); done {
		return nil
	}
	name := ctx.B.NameDefText(fn.Name)
	params := make([]types.Type, len(fn.Params))
	for i, paramID := range fn.Params {
		param := ctx.B.Params.Get(uint32(paramID))
		t, err := ConcretizeType(ctx, param.Type)
		if err != nil {
			return err
		}
		params[i] = t
		ctx.TI.SetType(ast.NameDefRef(param.Name), t)
	}
	var ret types.Type = types.NewUnit()
	if fn.ReturnType.IsValid() {
		t, err := ConcretizeType(ctx, fn.ReturnType)
		if err != nil {
			return err
		}
		ret = t
	}
	ctx.pushFn(id, name, nil)
	bodyT, err := DeduceExpr(ctx, fn.Body)
	ctx.popFn()
	if err != nil {
		return err
	}
	if !types.Equal(bodyT, ret) {
		return mismatchErrorf(fn.Span, bodyT, ret,
			"Return type of function body for '%s' did not match the annotated return type.", name)
	}
	ctx.TI.SetType(ast.NameDefRef(fn.Name), &types.FunctionType{Params: params, Return: ret})
	warnUnusedInFn(ctx, id)
	return nil
}

func checkTestFn(ctx *DeduceCtx, id ast.FnID) error {
	fn := ctx.B.Fns.Get(uint32(id))
	if len(fn.Params) > 0 {
		return inferenceErrorf(fn.Span, nil, "Test functions shouldn't take arguments.")
	}
	if fn.ReturnType.IsValid() {
		return inferenceErrorf(fn.Span, nil, "Test functions should not return a value.")
	}
	return checkFunctionBody(ctx, id)
}

func checkQuickCheck(ctx *DeduceCtx, id ast.QuickCheckID) error {
	qc := ctx.B.QuickChecks.Get(uint32(id))
	fn := ctx.B.Fns.Get(uint32(qc.Fn))
	if len(fn.Parametrics) > 0 {
		return inferenceErrorf(fn.Span, nil,
			"Quickcheck functions cannot be parametric.")
	}
	if err := checkFunctionBody(ctx, qc.Fn); err != nil {
		return err
	}
	t, _ := ctx.TI.GetType(ast.NameDefRef(fn.Name))
	ft := t.(*types.FunctionType)
	if !types.Equal(ft.Return, boolType()) {
		return inferenceErrorf(fn.Span, ft.Return,
			"Quickcheck functions must return a bool.")
	}
	return nil
}

// ensureFunctionChecked makes sure a non-parametric callee has a recorded
// function type, checking it on demand. A callee already on the deduction
// stack means the call graph loops back on itself.
func ensureFunctionChecked(ctx *DeduceCtx, span source.Span, callee calleeFn) (*types.FunctionType, error) {
	fn := callee.module.Fns.Get(uint32(callee.fn))
	root := callee.info.Root()
	if t, ok := root.GetType(ast.NameDefRef(fn.Name)); ok {
		ft, isFn := t.(*types.FunctionType)
		if !isFn {
			return nil, internalErrorf(span, "callee '%s' does not have a function type",
				callee.module.NameDefText(fn.Name))
		}
		return ft, nil
	}
	if ctx.onStack(callee.module, callee.fn, nil) {
		return nil, inferenceErrorf(span, nil,
			"Recursion detected while typechecking; name: '%s'",
			callee.module.NameDefText(fn.Name))
	}
	sub := ctx.fork(root, callee.module)
	if err := checkFunctionBody(sub, callee.fn); err != nil {
		return nil, err
	}
	t, _ := root.GetType(ast.NameDefRef(fn.Name))
	return t.(*types.FunctionType), nil
}

func deduceInvocation(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Invocation(id)
	span := ctx.exprSpan(id)
	callee, builtin, err := resolveCalleeFn(ctx, data.Callee)
	if err != nil {
		return nil, err
	}
	if builtin != ast.BuiltinNone {
		return deduceBuiltinInvocation(ctx, id, data, builtin)
	}
	fn := callee.module.Fns.Get(uint32(callee.fn))
	argTypes := make([]types.Type, len(data.Args))
	for i, arg := range data.Args {
		t, aerr := DeduceAndResolve(ctx, arg)
		if aerr != nil {
			return nil, aerr
		}
		argTypes[i] = t
	}
	if len(fn.Parametrics) == 0 {
		if len(data.Parametrics) > 0 {
			return nil, argCountErrorf(span,
				"Too many parametric values supplied; limit: 0 given: %d",
				len(data.Parametrics))
		}
		ft, ferr := ensureFunctionChecked(ctx, span, callee)
		if ferr != nil {
			return nil, ferr
		}
		if len(argTypes) != len(ft.Params) {
			return nil, argCountErrorf(span,
				"Expected %d parameter(s) but got %d arguments.",
				len(ft.Params), len(argTypes))
		}
		for i, argT := range argTypes {
			if !types.Equal(argT, ft.Params[i]) {
				return nil, mismatchErrorf(ctx.exprSpan(data.Args[i]), argT, ft.Params[i],
					"Mismatch between parameter and argument types.")
			}
		}
		propagateTokenTaint(ctx, callee)
		return ft.Return, nil
	}
	inst, err := instantiateFunction(ctx, id, callee, argTypes, data.Parametrics)
	if err != nil {
		return nil, err
	}
	propagateTokenTaint(ctx, callee)
	return inst.ret, nil
}

func checkProcMember(ctx *DeduceCtx, id ast.ProcID, isTest bool) error {
	proc := ctx.B.Procs.Get(uint32(id))
	if len(proc.Parametrics) > 0 {
		if isTest {
			return inferenceErrorf(proc.Span, nil, "Test procs cannot be parametric.")
		}
		return nil // checked per spawn
	}
	procTI := ctx.TI.Root().NewChild()
	procCtx := ctx.fork(procTI, ctx.B)
	if err := checkProcUnderEnv(procCtx, id, nil); err != nil {
		return err
	}
	if isTest {
		if err := checkTestProcConfig(procCtx, proc); err != nil {
			return err
		}
	}
	ctx.TI.Root().SetProcInfo(id, procTI)
	return nil
}

// checkProcUnderEnv checks a proc's members and its config, init, and next
// functions inside the given store, which for parametric procs is the
// spawn-derived child carrying the parametric environment.
func checkProcUnderEnv(ctx *DeduceCtx, id ast.ProcID, env types.ParametricEnv) error {
	proc := ctx.B.Procs.Get(uint32(id))
	memberTypes := make([]types.Type, len(proc.Members))
	for i, pmID := range proc.Members {
		pm := ctx.B.ProcMembers.Get(uint32(pmID))
		t, err := concretizeInEnv(ctx, pm.Type, env)
		if err != nil {
			return err
		}
		memberTypes[i] = t
		ctx.TI.SetType(ast.NameDefRef(pm.Name), t)
	}

	// config: its body must produce a tuple assigning every proc member.
	cfgT, err := checkProcFn(ctx, proc.Config, env)
	if err != nil {
		return err
	}
	cfgTuple, ok := cfgT.(*types.TupleType)
	if !ok || len(cfgTuple.Members) != len(memberTypes) {
		return mismatchErrorf(fnSpan(ctx, proc.Config), cfgT,
			&types.TupleType{Members: memberTypes},
			"Return type of 'config' did not match the types of the proc members.")
	}
	for i, mt := range memberTypes {
		if !types.Equal(cfgTuple.Members[i], mt) {
			return mismatchErrorf(fnSpan(ctx, proc.Config), cfgTuple.Members[i], mt,
				"Return type of 'config' did not match the types of the proc members.")
		}
	}

	initT, err := checkProcFn(ctx, proc.Init, env)
	if err != nil {
		return err
	}

	next := ctx.B.Fns.Get(uint32(proc.Next))
	if len(next.Params) != 1 {
		return argCountErrorf(next.Span,
			"Expected 1 parameter(s) but got %d arguments.", len(next.Params))
	}
	nextT, err := checkProcFn(ctx, proc.Next, env)
	if err != nil {
		return err
	}
	stateParam := ctx.B.Params.Get(uint32(next.Params[0]))
	stateT, _ := ctx.TI.GetType(ast.NameDefRef(stateParam.Name))
	if !types.Equal(initT, stateT) {
		return mismatchErrorf(next.Span, initT, stateT,
			"'next' state param and 'init' types differ.")
	}
	if !types.Equal(nextT, stateT) {
		return mismatchErrorf(next.Span, nextT, stateT,
			"'next' input and output state types differ.")
	}
	return nil
}

func fnSpan(ctx *DeduceCtx, id ast.FnID) source.Span {
	return ctx.B.Fns.Get(uint32(id)).Span
}

func concretizeInEnv(ctx *DeduceCtx, id ast.TypeID, env types.ParametricEnv) (types.Type, error) {
	t, err := ConcretizeType(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(env) == 0 {
		return t, nil
	}
	return types.ResolveDims(t, env)
}

// checkProcFn checks one of the three proc functions inside the proc's
// store and returns its body type. The return annotation, when present,
// must match; config functions usually leave it off.
func checkProcFn(ctx *DeduceCtx, id ast.FnID, env types.ParametricEnv) (types.Type, error) {
	fn := ctx.B.Fns.Get(uint32(id))
	name := ctx.B.NameDefText(fn.Name)
	params := make([]types.Type, len(fn.Params))
	for i, paramID := range fn.Params {
		param := ctx.B.Params.Get(uint32(paramID))
		t, err := concretizeInEnv(ctx, param.Type, env)
		if err != nil {
			return nil, err
		}
		params[i] = t
		ctx.TI.SetType(ast.NameDefRef(param.Name), t)
	}
	ctx.pushFn(id, name, env)
	bodyT, err := DeduceExpr(ctx, fn.Body)
	ctx.popFn()
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		bodyT, err = types.ResolveDims(bodyT, env)
		if err != nil {
			return nil, internalErrorf(fn.Span, "%s", err)
		}
	}
	if fn.ReturnType.IsValid() {
		ret, rerr := concretizeInEnv(ctx, fn.ReturnType, env)
		if rerr != nil {
			return nil, rerr
		}
		if !types.Equal(bodyT, ret) {
			return nil, mismatchErrorf(fn.Span, bodyT, ret,
				"Return type of function body for '%s' did not match the annotated return type.", name)
		}
	}
	ctx.TI.SetType(ast.NameDefRef(fn.Name), &types.FunctionType{Params: params, Return: bodyT})
	warnUnusedInFn(ctx, id)
	return bodyT, nil
}

// checkTestProcConfig requires the config of a test proc to take exactly
// one argument: the terminator channel the test harness completes on.
func checkTestProcConfig(ctx *DeduceCtx, proc *ast.Proc) error {
	cfg := ctx.B.Fns.Get(uint32(proc.Config))
	bad := func() error {
		return inferenceErrorf(cfg.Span, nil,
			"Test proc 'config' functions should take a single terminator channel.")
	}
	if len(cfg.Params) != 1 {
		return bad()
	}
	param := ctx.B.Params.Get(uint32(cfg.Params[0]))
	t, ok := ctx.TI.GetType(ast.NameDefRef(param.Name))
	if !ok {
		return bad()
	}
	ch, isCh := t.(*types.ChannelType)
	if !isCh || ch.Dir != ast.ChannelOut || !types.Equal(ch.Payload, boolType()) {
		return bad()
	}
	return nil
}

func deduceSpawn(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Spawn(id)
	span := ctx.exprSpan(id)
	procID, pmod, pinfo, err := resolveCalleeProc(ctx, data.Callee)
	if err != nil {
		return nil, err
	}
	proc := pmod.Procs.Get(uint32(procID))
	configData, ok := ctx.B.Exprs.Invocation(data.Config)
	if !ok {
		return nil, internalErrorf(span, "spawn config is not an invocation")
	}
	nextData, ok := ctx.B.Exprs.Invocation(data.Next)
	if !ok {
		return nil, internalErrorf(span, "spawn next is not an invocation")
	}
	argTypes := make([]types.Type, len(configData.Args))
	for i, arg := range configData.Args {
		t, aerr := DeduceAndResolve(ctx, arg)
		if aerr != nil {
			return nil, aerr
		}
		argTypes[i] = t
	}

	var procTI *typeinfo.TypeInfo
	var env types.ParametricEnv
	if len(proc.Parametrics) == 0 {
		stored, has := pinfo.Root().GetProcInfo(procID)
		if !has {
			return nil, internalErrorf(span, "proc '%s' was not checked",
				pmod.NameDefText(proc.Name))
		}
		procTI = stored
		cfg := pmod.Fns.Get(uint32(proc.Config))
		cfgT, has := procTI.GetType(ast.NameDefRef(cfg.Name))
		if !has {
			return nil, internalErrorf(span, "proc config for '%s' has no recorded type",
				pmod.NameDefText(proc.Name))
		}
		ft := cfgT.(*types.FunctionType)
		if len(argTypes) != len(ft.Params) {
			return nil, argCountErrorf(span,
				"Expected %d parameter(s) but got %d arguments.",
				len(ft.Params), len(argTypes))
		}
		for i, argT := range argTypes {
			if !types.Equal(argT, ft.Params[i]) {
				return nil, mismatchErrorf(ctx.exprSpan(configData.Args[i]), argT, ft.Params[i],
					"Mismatch between parameter and argument types.")
			}
		}
	} else {
		callee := calleeFn{fn: proc.Config, module: pmod, info: pinfo}
		inst, ierr := instantiateSignature(ctx, data.Config, callee, argTypes, configData.Parametrics)
		if ierr != nil {
			return nil, ierr
		}
		env = inst.env
		procTI = inst.derived
		procCtx := ctx.fork(procTI, pmod)
		if cerr := checkProcUnderEnv(procCtx, procID, env); cerr != nil {
			return nil, cerr
		}
		ctx.TI.AddInvocation(data.Config, ctx.currentEnv(), env, procTI)
	}

	// The next invocation carries the initial state value; it must agree
	// with the state the proc's own init produces.
	if len(nextData.Args) > 0 {
		next := pmod.Fns.Get(uint32(proc.Next))
		stateParam := pmod.Params.Get(uint32(next.Params[0]))
		stateT, _ := procTI.GetType(ast.NameDefRef(stateParam.Name))
		if len(nextData.Args) != 1 {
			return nil, argCountErrorf(span,
				"Expected 1 parameter(s) but got %d arguments.", len(nextData.Args))
		}
		initT, ierr := DeduceAndResolve(ctx, nextData.Args[0])
		if ierr != nil {
			return nil, ierr
		}
		if !types.Equal(initT, stateT) {
			return nil, mismatchErrorf(ctx.exprSpan(nextData.Args[0]), initT, stateT,
				"'next' state param and 'init' types differ.")
		}
	}
	return types.NewUnit(), nil
}
