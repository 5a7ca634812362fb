package sema

import (
	"regexp"

	"ripple/internal/ast"
	"ripple/internal/interp"
	"ripple/internal/types"
)

// Labels fed to fail! and cover! end up as identifiers in generated
// artifacts, so they are restricted to identifier shape.
var labelRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9$_]*$`)

func deduceBuiltinInvocation(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprInvocationData, builtin ast.BuiltinFn) (types.Type, error) {
	span := ctx.exprSpan(id)
	wantArgs := func(n int) error {
		if len(data.Args) != n {
			return argCountErrorf(span,
				"Expected %d parameter(s) but got %d arguments.", n, len(data.Args))
		}
		return nil
	}
	switch builtin {
	case ast.BuiltinMap:
		return deduceMapBuiltin(ctx, id, data)

	case ast.BuiltinArraySize:
		if err := wantArgs(1); err != nil {
			return nil, err
		}
		t, err := DeduceExpr(ctx, data.Args[0])
		if err != nil {
			return nil, err
		}
		arr, ok := t.(*types.ArrayType)
		if !ok {
			return nil, inferenceErrorf(span, t,
				"array_size requires an array argument; got %s", t)
		}
		if size, serr := arr.Size.Int64(); serr == nil {
			ctx.TI.NoteConstexpr(ast.ExprRef(id), interp.UBitsFromInt64(32, size))
		}
		return types.MakeUBits(32), nil

	case ast.BuiltinWideningCast:
		return deduceWideningCast(ctx, id, data)

	case ast.BuiltinFail:
		if err := wantArgs(2); err != nil {
			return nil, err
		}
		if err := checkLabelArg(ctx, data.Args[0], "fail!"); err != nil {
			return nil, err
		}
		t, err := DeduceExpr(ctx, data.Args[1])
		if err != nil {
			return nil, err
		}
		taintCurrentFn(ctx)
		return t, nil

	case ast.BuiltinCover:
		if err := wantArgs(2); err != nil {
			return nil, err
		}
		if err := checkLabelArg(ctx, data.Args[0], "cover!"); err != nil {
			return nil, err
		}
		condT, err := DeduceExpr(ctx, data.Args[1])
		if err != nil {
			return nil, err
		}
		if !types.Equal(condT, boolType()) {
			return nil, mismatchErrorf(ctx.exprSpan(data.Args[1]), condT, boolType(),
				"cover! condition must be a bool")
		}
		taintCurrentFn(ctx)
		return types.NewUnit(), nil

	case ast.BuiltinTrace:
		if len(data.Args) < 1 {
			return nil, argCountErrorf(span,
				"Expected at least 1 parameter(s) but got 0 arguments.")
		}
		if _, ok := ctx.B.Exprs.String(data.Args[0]); !ok {
			return nil, inferenceErrorf(ctx.exprSpan(data.Args[0]), nil,
				"trace_fmt! requires a format string literal as its first argument")
		}
		for _, arg := range data.Args[1:] {
			if _, err := DeduceExpr(ctx, arg); err != nil {
				return nil, err
			}
		}
		taintCurrentFn(ctx)
		return types.NewUnit(), nil

	case ast.BuiltinClz, ast.BuiltinCtz, ast.BuiltinRev:
		if err := wantArgs(1); err != nil {
			return nil, err
		}
		t, err := DeduceExpr(ctx, data.Args[0])
		if err != nil {
			return nil, err
		}
		if !types.IsBits(t) {
			return nil, inferenceErrorf(span, t,
				"%s requires a bits-typed argument; got %s", builtin, t)
		}
		return t, nil
	}
	return nil, internalErrorf(span, "unhandled builtin '%s'", builtin)
}

func deduceMapBuiltin(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprInvocationData) (types.Type, error) {
	span := ctx.exprSpan(id)
	if len(data.Args) != 2 {
		return nil, argCountErrorf(span,
			"Expected 2 parameter(s) but got %d arguments.", len(data.Args))
	}
	arrT, err := DeduceExpr(ctx, data.Args[0])
	if err != nil {
		return nil, err
	}
	arr, ok := arrT.(*types.ArrayType)
	if !ok {
		return nil, inferenceErrorf(span, arrT,
			"map requires an array as its first argument; got %s", arrT)
	}
	callee, builtin, err := resolveCalleeFn(ctx, data.Args[1])
	if err != nil {
		return nil, err
	}
	if builtin != ast.BuiltinNone {
		switch builtin {
		case ast.BuiltinClz, ast.BuiltinCtz, ast.BuiltinRev:
			if !types.IsBits(arr.Elem) {
				return nil, inferenceErrorf(span, arr.Elem,
					"%s requires a bits-typed argument; got %s", builtin, arr.Elem)
			}
			return arr, nil
		}
		return nil, inferenceErrorf(span, nil,
			"Built-in '%s' cannot be used as a map function", builtin)
	}
	fn := callee.module.Fns.Get(uint32(callee.fn))
	var ret types.Type
	if len(fn.Parametrics) > 0 {
		inst, ierr := instantiateFunction(ctx, id, callee, []types.Type{arr.Elem}, nil)
		if ierr != nil {
			return nil, ierr
		}
		ret = inst.ret
	} else {
		ft, ferr := ensureFunctionChecked(ctx, span, callee)
		if ferr != nil {
			return nil, ferr
		}
		if len(ft.Params) != 1 {
			return nil, argCountErrorf(span,
				"Expected 1 parameter(s) but got %d arguments.", len(ft.Params))
		}
		if !types.Equal(ft.Params[0], arr.Elem) {
			return nil, mismatchErrorf(span, arr.Elem, ft.Params[0],
				"Mismatch between parameter and argument types.")
		}
		ret = ft.Return
	}
	propagateTokenTaint(ctx, callee)
	return &types.ArrayType{Elem: ret, Size: arr.Size}, nil
}

func deduceWideningCast(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprInvocationData) (types.Type, error) {
	span := ctx.exprSpan(id)
	if len(data.TypeArgs) != 1 {
		return nil, inferenceErrorf(span, nil,
			"widening_cast requires exactly one type argument")
	}
	if len(data.Args) != 1 {
		return nil, argCountErrorf(span,
			"Expected 1 parameter(s) but got %d arguments.", len(data.Args))
	}
	to, err := ConcretizeType(ctx, data.TypeArgs[0])
	if err != nil {
		return nil, err
	}
	from, err := DeduceExpr(ctx, data.Args[0])
	if err != nil {
		return nil, err
	}
	toBits, toOk := to.(*types.BitsType)
	fromBits, fromOk := from.(*types.BitsType)
	if !toOk || !fromOk {
		return nil, inferenceErrorf(span, from,
			"widening_cast can only convert between bits types; got %s and %s", from, to)
	}
	oldW, oldErr := fromBits.Size.Int64()
	newW, newErr := toBits.Size.Int64()
	if oldErr == nil && newErr == nil {
		ok := false
		switch {
		case fromBits.Signed == toBits.Signed:
			ok = newW >= oldW
		case !fromBits.Signed && toBits.Signed:
			ok = newW > oldW
		}
		if !ok {
			return nil, inferenceErrorf(span, from,
				"Can not cast from type %s (%d bits) to %s (%d bits) with widening_cast",
				fromBits, oldW, toBits, newW)
		}
	}
	return toBits, nil
}

func checkLabelArg(ctx *DeduceCtx, arg ast.ExprID, callee string) error {
	str, ok := ctx.B.Exprs.String(arg)
	if !ok {
		return inferenceErrorf(ctx.exprSpan(arg), nil,
			"The first argument to %s must be a label string literal", callee)
	}
	label := ctx.B.Str(str.Value)
	if !labelRE.MatchString(label) {
		return invalidIdentifierErrorf(ctx.exprSpan(arg),
			"The label parameter to %s must be a valid identifier; got: '%s'", callee, label)
	}
	return nil
}

// taintCurrentFn marks the function currently being checked as needing an
// implicit token, because it invokes a side-effecting builtin. A function
// body is always deduced under a context whose module owns that body, so
// the fact lands in the right root store.
func taintCurrentFn(ctx *DeduceCtx) {
	if fr, ok := ctx.topFn(); ok && fr.Module == ctx.B {
		ctx.TI.Root().SetRequiresToken(fr.Fn, true)
	}
}

// propagateTokenTaint marks the caller as token-requiring when the callee
// is.
func propagateTokenTaint(ctx *DeduceCtx, callee calleeFn) {
	if tainted, known := callee.info.Root().RequiresToken(callee.fn); known && tainted {
		taintCurrentFn(ctx)
	}
}
