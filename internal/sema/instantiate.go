package sema

import (
	"sort"
	"strings"

	"ripple/internal/ast"
	"ripple/internal/interp"
	"ripple/internal/source"
	"ripple/internal/typeinfo"
	"ripple/internal/types"
)

// instantiation is the outcome of resolving one call: the callee parametric
// environment and the fully resolved signature.
type instantiation struct {
	env     types.ParametricEnv
	params  []types.Type
	ret     types.Type
	derived *typeinfo.TypeInfo
}

func typeKindName(t types.Type) string {
	switch tt := t.(type) {
	case *types.BitsType:
		if tt.Signed {
			return "sbits"
		}
		return "ubits"
	case *types.ArrayType:
		return "array"
	case *types.TupleType:
		return "tuple"
	case *types.StructType:
		return "struct"
	case *types.EnumType:
		return "enum"
	case *types.FunctionType:
		return "function"
	case *types.TokenType:
		return "token"
	case *types.ChannelType:
		return "channel"
	case *types.MetaType:
		return "type"
	}
	return "unknown"
}

// unifyDim binds a pure parametric symbol in a formal dimension to the
// concrete value observed in the argument. The first observation wins;
// later conflicting observations are an error.
func unifyDim(span source.Span, formal, actual types.Dim, env types.ParametricEnv) error {
	if !formal.IsParametric() {
		return nil
	}
	sym, ok := formal.Expr().(types.ParametricSymbol)
	if !ok {
		// Derived expression like N+1; checked after the environment is
		// complete.
		return nil
	}
	av, err := actual.Int64()
	if err != nil {
		return nil
	}
	if prev, bound := env[sym.Name]; bound {
		if prev != av {
			return inferenceErrorf(span, nil,
				"Parametric value %s was bound to different values at different places in invocation; saw: %d; then: %d",
				sym.Name, prev, av)
		}
		return nil
	}
	env[sym.Name] = av
	return nil
}

// unifyType walks a formal parameter type in parallel with the actual
// argument type, binding parametric symbols along the way.
func unifyType(span source.Span, argIndex int, formal, actual types.Type, env types.ParametricEnv) error {
	kindMismatch := func() error {
		return mismatchErrorf(span, actual, formal,
			"Parameter %d and argument types are different kinds (%s vs %s).",
			argIndex, typeKindName(formal), typeKindName(actual))
	}
	switch f := formal.(type) {
	case *types.BitsType:
		a, ok := actual.(*types.BitsType)
		if !ok {
			return kindMismatch()
		}
		return unifyDim(span, f.Size, a.Size, env)
	case *types.ArrayType:
		a, ok := actual.(*types.ArrayType)
		if !ok {
			return kindMismatch()
		}
		if err := unifyType(span, argIndex, f.Elem, a.Elem, env); err != nil {
			return err
		}
		return unifyDim(span, f.Size, a.Size, env)
	case *types.TupleType:
		a, ok := actual.(*types.TupleType)
		if !ok {
			return kindMismatch()
		}
		if len(a.Members) != len(f.Members) {
			return nil // reported by the final signature comparison
		}
		for i := range f.Members {
			if err := unifyType(span, argIndex, f.Members[i], a.Members[i], env); err != nil {
				return err
			}
		}
		return nil
	case *types.StructType:
		a, ok := actual.(*types.StructType)
		if !ok {
			return kindMismatch()
		}
		if a.Def != f.Def || len(a.Members) != len(f.Members) {
			return nil
		}
		for i := range f.Members {
			if err := unifyType(span, argIndex, f.Members[i].Type, a.Members[i].Type, env); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// instantiateSignature derives the parametric environment of one call from
// the explicit parametric values and the argument types, and records the
// resolved parameter types on the callee's parameter names in a fresh
// derived store. The callee body is not checked here.
func instantiateSignature(ctx *DeduceCtx, call ast.ExprID, callee calleeFn, argTypes []types.Type, explicit []ast.ExprID) (instantiation, error) {
	span := ctx.exprSpan(call)
	fn := callee.module.Fns.Get(uint32(callee.fn))
	parametrics := fn.Parametrics
	if len(parametrics) == 0 && fn.Owner.IsValid() {
		// A proc's bindings scope over all three member functions; spawn
		// instantiates them through config.
		if owner := callee.module.Procs.Get(uint32(fn.Owner)); owner != nil {
			parametrics = owner.Parametrics
		}
	}
	if len(argTypes) != len(fn.Params) {
		return instantiation{}, argCountErrorf(span,
			"Expected %d parameter(s) but got %d arguments.", len(fn.Params), len(argTypes))
	}
	if len(explicit) > len(parametrics) {
		return instantiation{}, argCountErrorf(span,
			"Too many parametric values supplied; limit: %d given: %d",
			len(parametrics), len(explicit))
	}

	derived := callee.info.Root().NewChild()
	calleeCtx := ctx.fork(derived, callee.module)
	env := types.ParametricEnv{}

	// Give every parametric binding its declared type up front so formal
	// parameter annotations referring to them can be deduced symbolically.
	bindingTypes := make([]*types.BitsType, len(parametrics))
	for i, pbID := range parametrics {
		pb := callee.module.PBindings.Get(uint32(pbID))
		bt, err := ConcretizeType(calleeCtx, pb.Type)
		if err != nil {
			return instantiation{}, err
		}
		bits, ok := bt.(*types.BitsType)
		if !ok {
			return instantiation{}, inferenceErrorf(pb.Span, bt,
				"Parametric binding types must be bits types; got %s", bt)
		}
		bindingTypes[i] = bits
		calleeCtx.TI.SetType(ast.NameDefRef(pb.Name), bits)
	}

	// Explicit parametric values bind in declaration order.
	for i, valueExpr := range explicit {
		pb := callee.module.PBindings.Get(uint32(parametrics[i]))
		if _, err := deduceWithExpectation(ctx, valueExpr, bindingTypes[i]); err != nil {
			return instantiation{}, err
		}
		v, err := constexprInt64(ctx, valueExpr)
		if err != nil {
			return instantiation{}, err
		}
		bindParametric(calleeCtx, pb, bindingTypes[i], v, env)
	}

	// Deduce formal parameter types, which may carry symbolic dims, and
	// unify them against the actuals.
	formals := make([]types.Type, len(fn.Params))
	for i, paramID := range fn.Params {
		param := callee.module.Params.Get(uint32(paramID))
		formal, err := ConcretizeType(calleeCtx, param.Type)
		if err != nil {
			return instantiation{}, err
		}
		formals[i] = formal
		if err := unifyType(span, i, formal, argTypes[i], env); err != nil {
			return instantiation{}, err
		}
	}

	// Derived bindings evaluate left to right once unification has bound
	// what it can.
	var missing []string
	for i, pbID := range parametrics {
		pb := callee.module.PBindings.Get(uint32(pbID))
		pname := callee.module.NameDefText(pb.Name)
		if bound, isBound := env[pname]; isBound {
			bindParametric(calleeCtx, pb, bindingTypes[i], bound, env)
			// A binding that also carries a value expression must agree
			// with the value unification produced.
			if pb.Expr.IsValid() {
				if _, err := deduceWithExpectation(calleeCtx, pb.Expr, bindingTypes[i]); err != nil {
					return instantiation{}, err
				}
				dv, err := constexprInt64(calleeCtx, pb.Expr)
				if err != nil {
					return instantiation{}, err
				}
				if dv != bound {
					return instantiation{}, inferenceErrorf(span, nil,
						"Inconsistent parametric instantiation of function, first saw %s = %d; then saw %s = %s = %d",
						pname, bound, pname, exprText(callee.module, pb.Expr), dv)
				}
			}
			continue
		}
		if !pb.Expr.IsValid() {
			missing = append(missing, pname)
			continue
		}
		if _, err := deduceWithExpectation(calleeCtx, pb.Expr, bindingTypes[i]); err != nil {
			return instantiation{}, err
		}
		v, err := constexprInt64(calleeCtx, pb.Expr)
		if err != nil {
			return instantiation{}, err
		}
		bindParametric(calleeCtx, pb, bindingTypes[i], v, env)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return instantiation{}, inferenceErrorf(span, nil,
			"Could not infer parametric(s): %s", strings.Join(missing, ", "))
	}

	// With the environment complete, the formal signature must match the
	// actual argument types exactly.
	params := make([]types.Type, len(formals))
	for i, formal := range formals {
		resolved, err := types.ResolveDims(formal, env)
		if err != nil {
			return instantiation{}, internalErrorf(span, "%s", err)
		}
		params[i] = resolved
		if !types.Equal(resolved, argTypes[i]) {
			return instantiation{}, mismatchErrorf(span, argTypes[i], resolved,
				"Mismatch between parameter and argument types.")
		}
		param := callee.module.Params.Get(uint32(fn.Params[i]))
		calleeCtx.TI.SetType(ast.NameDefRef(param.Name), resolved)
	}

	return instantiation{env: env, params: params, derived: derived}, nil
}

// instantiateFunction derives the parametric environment of one call of fn
// and type checks the callee body under it. Non-parametric functions go down
// a cheaper path in deduceInvocation instead.
func instantiateFunction(ctx *DeduceCtx, call ast.ExprID, callee calleeFn, argTypes []types.Type, explicit []ast.ExprID) (instantiation, error) {
	span := ctx.exprSpan(call)
	fn := callee.module.Fns.Get(uint32(callee.fn))
	name := callee.module.NameDefText(fn.Name)

	inst, err := instantiateSignature(ctx, call, callee, argTypes, explicit)
	if err != nil {
		return instantiation{}, err
	}
	env := inst.env
	calleeCtx := ctx.fork(inst.derived, callee.module)

	var ret types.Type = types.NewUnit()
	if fn.ReturnType.IsValid() {
		annotated, err := ConcretizeType(calleeCtx, fn.ReturnType)
		if err != nil {
			return instantiation{}, err
		}
		ret, err = types.ResolveDims(annotated, env)
		if err != nil {
			return instantiation{}, internalErrorf(span, "%s", err)
		}
	}

	if ctx.onStack(callee.module, callee.fn, env) {
		return instantiation{}, inferenceErrorf(span, nil,
			"Recursion detected while typechecking; name: '%s'", name)
	}
	calleeCtx.pushFn(callee.fn, name, env)
	bodyT, err := DeduceExpr(calleeCtx, fn.Body)
	calleeCtx.popFn()
	if err != nil {
		return instantiation{}, err
	}
	bodyT, err = types.ResolveDims(bodyT, env)
	if err != nil {
		return instantiation{}, internalErrorf(span, "%s", err)
	}
	if !types.Equal(bodyT, ret) {
		return instantiation{}, mismatchErrorf(fn.Span, bodyT, ret,
			"Return type of function body for '%s' did not match the annotated return type.", name)
	}

	inst.ret = ret
	ctx.TI.AddInvocation(call, ctx.currentEnv(), env, inst.derived)
	return inst, nil
}

// bindParametric records a parametric binding's value both in the
// environment and as a constexpr on its name, so dimension expressions in
// the callee body fold to constants.
func bindParametric(ctx *DeduceCtx, pb *ast.PBinding, bt *types.BitsType, v int64, env types.ParametricEnv) {
	name := ctx.B.NameDefText(pb.Name)
	env[name] = v
	width, err := bt.Size.Int64()
	if err != nil {
		width = 32
	}
	var value interp.Value
	if bt.Signed {
		value = interp.SBitsFromInt64(width, v)
	} else {
		value = interp.UBitsFromInt64(width, v)
	}
	ctx.TI.NoteConstexpr(ast.NameDefRef(pb.Name), value)
}
