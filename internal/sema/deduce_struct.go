package sema

import (
	"fmt"
	"sort"
	"strings"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/source"
	"ripple/internal/types"
)

func structInstanceType(ctx *DeduceCtx, span source.Span, annID ast.TypeID) (*types.StructType, error) {
	t, err := ConcretizeType(ctx, annID)
	if err != nil {
		return nil, err
	}
	st, ok := t.(*types.StructType)
	if !ok {
		return nil, inferenceErrorf(span, t,
			"Expected a struct definition to instantiate; got %s", t)
	}
	return st, nil
}

// checkInstanceMembers deduces member value types, unifying any parametric
// dims of the struct along the way. Returns the per-member deduced types
// keyed by member name.
func checkInstanceMembers(ctx *DeduceCtx, st *types.StructType, members []ast.StructInstanceMember, env types.ParametricEnv) (map[string]types.Type, error) {
	got := make(map[string]types.Type, len(members))
	for i, m := range members {
		name := ctx.B.Str(m.Name)
		formal, ok := st.Member(name)
		if !ok {
			return nil, inferenceErrorf(m.Span, st,
				"Struct '%s' has no member '%s', but it was provided by this instance.",
				st.Name, name)
		}
		if _, dup := got[name]; dup {
			return nil, inferenceErrorf(m.Span, st,
				"Duplicate value seen for '%s' in this '%s' struct instance.",
				name, st.Name)
		}
		var expect types.Type
		if !types.HasParametricDims(formal) {
			expect = formal
		}
		argT, err := deduceWithExpectation(ctx, m.Expr, expect)
		if err != nil {
			return nil, err
		}
		if err := unifyType(m.Span, i, formal, argT, env); err != nil {
			return nil, err
		}
		got[name] = argT
	}
	return got, nil
}

// finishStructInstance resolves the struct's dims against the unified
// environment and verifies every member value against the resolved member
// type.
func finishStructInstance(ctx *DeduceCtx, span source.Span, st *types.StructType, got map[string]types.Type, env types.ParametricEnv) (*types.StructType, error) {
	resolvedT, err := types.ResolveDims(st, env)
	if err != nil {
		return nil, internalErrorf(span, "%s", err)
	}
	resolved := resolvedT.(*types.StructType)
	if types.HasParametricDims(resolved) {
		var unbound []string
		for _, pn := range st.ParametricNames {
			if _, ok := env[pn]; !ok {
				unbound = append(unbound, pn)
			}
		}
		if len(unbound) > 0 {
			sort.Strings(unbound)
			return nil, inferenceErrorf(span, st,
				"Could not infer parametric(s): %s", strings.Join(unbound, ", "))
		}
	}
	for name, argT := range got {
		formal, _ := resolved.Member(name)
		if !types.Equal(formal, argT) {
			return nil, mismatchErrorf(span, argT, formal,
				"Mismatch between member and argument types.")
		}
	}
	return resolved, nil
}

func missingMembers(st *types.StructType, got map[string]types.Type) []string {
	var missing []string
	for _, m := range st.Members {
		if _, ok := got[m.Name]; !ok {
			missing = append(missing, fmt.Sprintf("'%s'", m.Name))
		}
	}
	return missing
}

func deduceStructInstance(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.StructInstance(id)
	span := ctx.exprSpan(id)
	st, err := structInstanceType(ctx, span, data.Struct)
	if err != nil {
		return nil, err
	}
	env := types.ParametricEnv{}
	got, err := checkInstanceMembers(ctx, st, data.Members, env)
	if err != nil {
		return nil, err
	}
	if missing := missingMembers(st, got); len(missing) > 0 {
		return nil, inferenceErrorf(span, st,
			"Struct instance is missing member(s): %s", strings.Join(missing, ", "))
	}
	return finishStructInstance(ctx, span, st, got, env)
}

func deduceSplatStructInstance(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.SplatStructInstance(id)
	span := ctx.exprSpan(id)
	st, err := structInstanceType(ctx, span, data.Struct)
	if err != nil {
		return nil, err
	}
	env := types.ParametricEnv{}
	got, err := checkInstanceMembers(ctx, st, data.Members, env)
	if err != nil {
		return nil, err
	}
	splatT, err := DeduceExpr(ctx, data.Splatted)
	if err != nil {
		return nil, err
	}
	splatStruct, ok := splatT.(*types.StructType)
	if !ok || splatStruct.Def != st.Def || splatStruct.Module != st.Module {
		return nil, mismatchErrorf(span, splatT, st,
			"Type of splatted struct did not match the struct being instantiated.")
	}
	if err := unifyType(span, 0, st, splatT, env); err != nil {
		return nil, err
	}
	if len(missingMembers(st, got)) == 0 {
		ctx.warn(diag.WarnUselessStructSplat, span,
			"'Splatted' struct instance has all members of struct defined, consider removing the `..` expression.")
	}
	return finishStructInstance(ctx, span, st, got, env)
}
