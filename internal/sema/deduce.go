// Package sema implements type deduction and checking over loaded modules.
// Deduction is bottom-up and memoizing: every node's type is computed once
// per type information store and recorded there, and compile-time constant
// subexpressions are folded into values as a side effect.
package sema

import (
	"ripple/internal/ast"
	"ripple/internal/interp"
	"ripple/internal/source"
	"ripple/internal/types"
)

// Deduce computes and memoizes the type of any expression or type annotation
// node. Other node kinds are handled by the module-level check entry points.
func Deduce(ctx *DeduceCtx, ref ast.NodeRef) (types.Type, error) {
	if t, ok := ctx.TI.GetType(ref); ok {
		return t, nil
	}
	switch ref.Kind {
	case ast.NodeExpr:
		return DeduceExpr(ctx, ast.ExprID(ref.Index))
	case ast.NodeType:
		return deduceTypeAnnMeta(ctx, ast.TypeID(ref.Index))
	}
	return nil, internalErrorf(source.Span{}, "cannot deduce node kind %d", ref.Kind)
}

// DeduceExpr computes and memoizes the type of an expression. Constexpr
// values are recorded on the way out, so a parent evaluation always finds
// its children's values already in the store.
func DeduceExpr(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	if t, ok := ctx.TI.GetType(ast.ExprRef(id)); ok {
		return t, nil
	}
	t, err := deduceExprInternal(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx.TI.SetType(ast.ExprRef(id), t)
	ctx.noteConstexpr(id, t)
	return t, nil
}

// DeduceAndResolve deduces the expression type and resolves any symbolic
// dimensions against the current parametric environment.
func DeduceAndResolve(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	t, err := DeduceExpr(ctx, id)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, t)
}

// Resolve substitutes the current parametric environment into any symbolic
// dimensions of t.
func Resolve(ctx *DeduceCtx, t types.Type) (types.Type, error) {
	env := ctx.currentEnv()
	if len(env) == 0 {
		return t, nil
	}
	return types.ResolveDims(t, env)
}

func deduceExprInternal(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	e := ctx.B.Exprs.Get(id)
	if e == nil {
		return nil, internalErrorf(source.Span{}, "expression %d is not in the arena", id)
	}
	switch e.Kind {
	case ast.ExprNameRef:
		return deduceNameRef(ctx, id)
	case ast.ExprColonRef:
		return deduceColonRef(ctx, id)
	case ast.ExprNumber:
		return deduceNumber(ctx, id)
	case ast.ExprString:
		return deduceString(ctx, id)
	case ast.ExprBinop:
		return deduceBinop(ctx, id)
	case ast.ExprUnop:
		return deduceUnop(ctx, id)
	case ast.ExprInvocation:
		return deduceInvocation(ctx, id)
	case ast.ExprSpawn:
		return deduceSpawn(ctx, id)
	case ast.ExprIndex:
		return deduceIndex(ctx, id)
	case ast.ExprConditional:
		return deduceConditional(ctx, id)
	case ast.ExprMatch:
		return deduceMatch(ctx, id)
	case ast.ExprFor:
		return deduceFor(ctx, id)
	case ast.ExprCast:
		return deduceCast(ctx, id)
	case ast.ExprArray:
		return deduceArray(ctx, id)
	case ast.ExprTuple:
		return deduceTuple(ctx, id)
	case ast.ExprTupleIndex:
		return deduceTupleIndex(ctx, id)
	case ast.ExprStructInstance:
		return deduceStructInstance(ctx, id)
	case ast.ExprSplatStructInstance:
		return deduceSplatStructInstance(ctx, id)
	case ast.ExprAttr:
		return deduceAttr(ctx, id)
	case ast.ExprRange:
		return deduceRange(ctx, id)
	case ast.ExprBlock:
		return deduceBlock(ctx, id)
	case ast.ExprZeroMacro:
		return deduceZeroMacro(ctx, id)
	}
	return nil, internalErrorf(e.Span, "unhandled expression kind %d", e.Kind)
}

// deduceWithExpectation deduces an expression when the surrounding syntax
// already fixes its type, e.g. the rhs of an annotated let. Untyped number
// literals take the expected bits type directly after a fit check; anything
// else is deduced bottom-up as usual.
func deduceWithExpectation(ctx *DeduceCtx, id ast.ExprID, expected types.Type) (types.Type, error) {
	if expected == nil {
		return DeduceExpr(ctx, id)
	}
	num, ok := ctx.B.Exprs.Number(id)
	if !ok || num.Kind != ast.NumberUntyped {
		return DeduceExpr(ctx, id)
	}
	bt, isBits := expected.(*types.BitsType)
	if !isBits {
		return DeduceExpr(ctx, id)
	}
	if err := checkNumberFits(ctx, id, num, bt); err != nil {
		return nil, err
	}
	ctx.TI.SetType(ast.ExprRef(id), bt)
	ctx.noteConstexpr(id, bt)
	return bt, nil
}

func checkNumberFits(ctx *DeduceCtx, id ast.ExprID, num *ast.ExprNumberData, bt *types.BitsType) error {
	width, err := bt.Size.Int64()
	if err != nil {
		// Symbolic width; the check happens once the dims are resolved.
		return nil
	}
	text := ctx.B.Str(num.Text)
	n, perr := interp.ParseNumber(text, num.Kind)
	if perr != nil {
		return inferenceErrorf(ctx.exprSpan(id), bt, "%s", perr)
	}
	if !interp.FitsIn(n, width, bt.Signed) {
		return inferenceErrorf(ctx.exprSpan(id), bt,
			"Value '%s' does not fit in the bitwidth of a %s (%d)", text, bt, width)
	}
	return nil
}

// deduceTypeAnnMeta deduces a type annotation, records the meta type, and
// returns it.
func deduceTypeAnnMeta(ctx *DeduceCtx, id ast.TypeID) (types.Type, error) {
	if t, ok := ctx.TI.GetType(ast.TypeAnnRef(id)); ok {
		return t, nil
	}
	inner, err := deduceTypeAnn(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := &types.MetaType{Wrapped: inner}
	ctx.TI.SetType(ast.TypeAnnRef(id), meta)
	return meta, nil
}

// ConcretizeType deduces a type annotation and returns the named type
// itself, resolved against the current parametric environment.
func ConcretizeType(ctx *DeduceCtx, id ast.TypeID) (types.Type, error) {
	meta, err := deduceTypeAnnMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	inner, err := types.UnwrapMeta(meta)
	if err != nil {
		return nil, inferenceErrorf(ctx.B.Types.Span(id), meta, "%s", err)
	}
	return Resolve(ctx, inner)
}

func deduceTypeAnn(ctx *DeduceCtx, id ast.TypeID) (types.Type, error) {
	ann := ctx.B.Types.Get(id)
	if ann == nil {
		return nil, internalErrorf(source.Span{}, "type annotation %d is not in the arena", id)
	}
	switch ann.Kind {
	case ast.TypeAnnBuiltin:
		data, _ := ctx.B.Types.Builtin(id)
		if data.Token {
			return &types.TokenType{}, nil
		}
		if data.Signed {
			return types.MakeSBits(int64(data.Width)), nil
		}
		return types.MakeUBits(int64(data.Width)), nil
	case ast.TypeAnnArray:
		data, _ := ctx.B.Types.Array(id)
		elem, err := deduceTypeAnn(ctx, data.Elem)
		if err != nil {
			return nil, err
		}
		dim, err := dimFromExpr(ctx, data.Dim)
		if err != nil {
			return nil, err
		}
		// uN[d] and sN[d] spell a bits type, not an array of zero-width
		// elements.
		if inner, innerOk := ctx.B.Types.Builtin(data.Elem); innerOk && !inner.Token && inner.Width == 0 {
			return &types.BitsType{Signed: inner.Signed, Size: dim}, nil
		}
		return &types.ArrayType{Elem: elem, Size: dim}, nil
	case ast.TypeAnnTuple:
		data, _ := ctx.B.Types.Tuple(id)
		members := make([]types.Type, len(data.Members))
		for i, m := range data.Members {
			t, err := deduceTypeAnn(ctx, m)
			if err != nil {
				return nil, err
			}
			members[i] = t
		}
		return &types.TupleType{Members: members}, nil
	case ast.TypeAnnName:
		return deduceTypeAnnName(ctx, id)
	case ast.TypeAnnChannel:
		data, _ := ctx.B.Types.Channel(id)
		payload, err := deduceTypeAnn(ctx, data.Payload)
		if err != nil {
			return nil, err
		}
		return &types.ChannelType{Dir: data.Dir, Payload: payload}, nil
	}
	return nil, internalErrorf(ann.Span, "unhandled type annotation kind %d", ann.Kind)
}

// deduceTypeAnnName resolves a named type annotation: an alias, struct,
// enum, or imported type, with optional explicit parametrics.
func deduceTypeAnnName(ctx *DeduceCtx, id ast.TypeID) (types.Type, error) {
	data, _ := ctx.B.Types.Name(id)
	span := ctx.B.Types.Span(id)
	refMeta, err := DeduceExpr(ctx, data.Ref)
	if err != nil {
		return nil, err
	}
	inner, err := types.UnwrapMeta(refMeta)
	if err != nil {
		return nil, inferenceErrorf(span, refMeta, "%s", err)
	}
	if len(data.Parametrics) == 0 {
		return inner, nil
	}
	st, ok := inner.(*types.StructType)
	if !ok {
		return nil, inferenceErrorf(span, inner,
			"Type '%s' does not take parametric arguments", inner)
	}
	if len(data.Parametrics) > len(st.ParametricNames) {
		return nil, argCountErrorf(span,
			"Too many parametric values supplied; limit: %d given: %d",
			len(st.ParametricNames), len(data.Parametrics))
	}
	env := make(types.ParametricEnv, len(data.Parametrics))
	for i, pe := range data.Parametrics {
		dim, derr := dimFromExpr(ctx, pe)
		if derr != nil {
			return nil, derr
		}
		if v, verr := dim.Int64(); verr == nil {
			env[st.ParametricNames[i]] = v
		} else {
			// Symbolic parametric argument, e.g. a struct instantiated
			// with an enclosing function's parametric.
			st = substituteStructDim(st, st.ParametricNames[i], dim)
		}
	}
	resolved, rerr := types.ResolveDims(st, env)
	if rerr != nil {
		return nil, internalErrorf(span, "%s", rerr)
	}
	return resolved, nil
}

// substituteStructDim replaces a named symbol inside the struct's dims with
// an arbitrary dim expression. Used when a parametric struct is instantiated
// with another symbolic value, e.g. inside a parametric function.
func substituteStructDim(st *types.StructType, name string, dim types.Dim) *types.StructType {
	out, err := types.MapSize(st, func(d types.Dim) (types.Dim, error) {
		if !d.IsParametric() {
			return d, nil
		}
		if sym, ok := d.Expr().(types.ParametricSymbol); ok && sym.Name == name {
			return dim, nil
		}
		return d, nil
	})
	if err != nil {
		return st
	}
	return out.(*types.StructType)
}

// dimFromExpr turns an array-dimension or parametric-argument expression
// into a Dim: a concrete value when the expression is constexpr, a symbolic
// expression when it mentions parametric bindings in scope.
func dimFromExpr(ctx *DeduceCtx, id ast.ExprID) (types.Dim, error) {
	span := ctx.exprSpan(id)
	// Bare number literals in dimension position default to u32.
	if num, ok := ctx.B.Exprs.Number(id); ok && num.Kind == ast.NumberUntyped {
		if _, done := ctx.TI.GetType(ast.ExprRef(id)); !done {
			u32 := types.MakeUBits(32)
			if err := checkNumberFits(ctx, id, num, u32); err != nil {
				return types.Dim{}, err
			}
			ctx.TI.SetType(ast.ExprRef(id), u32)
			ctx.noteConstexpr(id, u32)
		}
	} else {
		if _, err := DeduceExpr(ctx, id); err != nil {
			return types.Dim{}, err
		}
	}
	if v, ok := ctx.constexprOf(id); ok {
		n, err := v.AsInt64()
		if err != nil {
			return types.Dim{}, inferenceErrorf(span, nil, "%s", err)
		}
		return types.DimInt64(n), nil
	}
	if pe, ok := symbolicDim(ctx, id); ok {
		return types.DimExpr(pe), nil
	}
	return types.Dim{}, inferenceErrorf(span, nil,
		"Could not evaluate dimension expression to a constant")
}

// symbolicDim builds a parametric expression from restricted expression
// shapes: parametric name references, literals, and + / * combinations.
func symbolicDim(ctx *DeduceCtx, id ast.ExprID) (types.ParametricExpr, bool) {
	e := ctx.B.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprNameRef:
		data, _ := ctx.B.Exprs.NameRef(id)
		if !data.To.IsValid() {
			return nil, false
		}
		return types.ParametricSymbol{Name: ctx.B.NameDefText(data.To)}, true
	case ast.ExprNumber:
		data, _ := ctx.B.Exprs.Number(id)
		n, err := interp.ParseNumber(ctx.B.Str(data.Text), data.Kind)
		if err != nil || !n.IsInt64() {
			return nil, false
		}
		return types.ParametricConstant{Value: n.Int64()}, true
	case ast.ExprBinop:
		data, _ := ctx.B.Exprs.Binop(id)
		lhs, lok := symbolicDim(ctx, data.LHS)
		rhs, rok := symbolicDim(ctx, data.RHS)
		if !lok || !rok {
			return nil, false
		}
		switch data.Op {
		case ast.BinopAdd:
			return types.ParametricAdd{LHS: lhs, RHS: rhs}, true
		case ast.BinopMul:
			return types.ParametricMul{LHS: lhs, RHS: rhs}, true
		}
	}
	return nil, false
}

// constexprInt64 requires the expression to have a recorded constexpr bits
// value and returns it as an int64.
func constexprInt64(ctx *DeduceCtx, id ast.ExprID) (int64, error) {
	v, ok := ctx.constexprOf(id)
	if !ok {
		return 0, inferenceErrorf(ctx.exprSpan(id), nil,
			"Expression is not a compile-time constant")
	}
	n, err := v.AsInt64()
	if err != nil {
		return 0, inferenceErrorf(ctx.exprSpan(id), nil, "%s", err)
	}
	return n, nil
}
