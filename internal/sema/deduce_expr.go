package sema

import (
	"strings"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/interp"
	"ripple/internal/types"
)

func boolType() *types.BitsType { return types.MakeUBits(1) }

func deduceNameRef(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.NameRef(id)
	span := ctx.exprSpan(id)
	if data.Builtin != ast.BuiltinNone {
		return nil, inferenceErrorf(span, nil,
			"Cannot use built-in '%s' as a value; it must be invoked", data.Builtin)
	}
	if !data.To.IsValid() {
		return nil, internalErrorf(span, "unresolved name reference '%s'", ctx.B.Str(data.Name))
	}
	def := ctx.B.NameDefs.Get(uint32(data.To))
	if def.Definer.Kind == ast.NodeFn {
		fn := ctx.B.Fns.Get(def.Definer.Index)
		if fn != nil && len(fn.Parametrics) > 0 {
			return nil, inferenceErrorf(span, nil,
				"Name '%s' is a parametric function, but it is not being invoked",
				ctx.B.Str(data.Name))
		}
	}
	t, ok := ctx.TI.GetType(ast.NameDefRef(data.To))
	if !ok {
		return nil, inferenceErrorf(span, nil,
			"Could not determine type of name '%s'", ctx.B.Str(data.Name))
	}
	if v, has := ctx.TI.GetConstexpr(ast.NameDefRef(data.To)); has {
		ctx.TI.NoteConstexpr(ast.ExprRef(id), v)
	}
	return t, nil
}

func deduceColonRef(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.ColonRef(id)
	span := ctx.exprSpan(id)
	attr := ctx.B.Str(data.Attr)
	sub, err := resolveColonSubject(ctx, data.Subject)
	if err != nil {
		return nil, err
	}
	if sub.typ != nil {
		return deduceEnumAttr(ctx, id, sub, attr)
	}
	// Imported module member access.
	t, v, hasV, merr := moduleMemberType(ctx, span, sub, attr)
	if merr != nil {
		return nil, merr
	}
	if hasV {
		ctx.TI.NoteConstexpr(ast.ExprRef(id), v)
	}
	return t, nil
}

func deduceEnumAttr(ctx *DeduceCtx, id ast.ExprID, sub subjectResolution, attr string) (types.Type, error) {
	span := ctx.exprSpan(id)
	et, ok := sub.typ.(*types.EnumType)
	if !ok {
		return nil, inferenceErrorf(span, sub.typ,
			"Cannot use '::' on type %s; only enums have named values", sub.typ)
	}
	enum := sub.module.Enums.Get(uint32(et.Def))
	if enum == nil {
		return nil, internalErrorf(span, "enum definition for %s is missing", et)
	}
	for _, val := range enum.Values {
		if sub.module.NameDefText(val.Name) != attr {
			continue
		}
		if v, has := sub.info.Root().GetConstexpr(ast.NameDefRef(val.Name)); has {
			ctx.TI.NoteConstexpr(ast.ExprRef(id), v)
		}
		return et, nil
	}
	return nil, inferenceErrorf(span, et,
		"Name '%s' is not defined by the enum %s", attr, et.Name)
}

func deduceNumber(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Number(id)
	span := ctx.exprSpan(id)
	switch data.Kind {
	case ast.NumberBool:
		return boolType(), nil
	case ast.NumberChar:
		return types.MakeUBits(8), nil
	}
	if !data.Type.IsValid() {
		return nil, inferenceErrorf(span, nil,
			"Could not infer a type for this number, please annotate a type.")
	}
	ann, err := ConcretizeType(ctx, data.Type)
	if err != nil {
		return nil, err
	}
	bt, ok := ann.(*types.BitsType)
	if !ok {
		return nil, inferenceErrorf(span, ann,
			"Non-bits type used to define a numeric literal.")
	}
	if err := checkNumberFits(ctx, id, data, bt); err != nil {
		return nil, err
	}
	return bt, nil
}

// A string literal is an array of u8 element values.
func deduceString(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.String(id)
	n := int64(len(ctx.B.Str(data.Value)))
	return &types.ArrayType{Elem: types.MakeUBits(8), Size: types.DimInt64(n)}, nil
}

func isUntypedNumber(ctx *DeduceCtx, id ast.ExprID) bool {
	num, ok := ctx.B.Exprs.Number(id)
	return ok && num.Kind == ast.NumberUntyped
}

// deduceOperandPair deduces two operands that must end up the same type,
// letting an untyped number literal on either side take the other side's
// type.
func deduceOperandPair(ctx *DeduceCtx, lhs, rhs ast.ExprID) (types.Type, types.Type, error) {
	if isUntypedNumber(ctx, lhs) && !isUntypedNumber(ctx, rhs) {
		rhsT, err := DeduceExpr(ctx, rhs)
		if err != nil {
			return nil, nil, err
		}
		lhsT, err := deduceWithExpectation(ctx, lhs, rhsT)
		return lhsT, rhsT, err
	}
	lhsT, err := DeduceExpr(ctx, lhs)
	if err != nil {
		return nil, nil, err
	}
	rhsT, err := deduceWithExpectation(ctx, rhs, lhsT)
	if err != nil {
		return nil, nil, err
	}
	return lhsT, rhsT, nil
}

func deduceBinop(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Binop(id)
	span := ctx.exprSpan(id)
	op := data.Op
	if op.IsShift() {
		return deduceShift(ctx, id, data)
	}
	if op == ast.BinopConcat {
		return deduceConcat(ctx, id, data)
	}
	lhsT, rhsT, err := deduceOperandPair(ctx, data.LHS, data.RHS)
	if err != nil {
		return nil, err
	}
	if op.IsLogical() {
		if !types.Equal(lhsT, boolType()) || !types.Equal(rhsT, boolType()) {
			return nil, inferenceErrorf(span, lhsT,
				"Logical binary operations can only be applied to boolean operands.")
		}
		return boolType(), nil
	}
	if !types.Equal(lhsT, rhsT) {
		return nil, mismatchErrorf(span, lhsT, rhsT,
			"Could not deduce type for binary operation '%s'", op)
	}
	if _, isEnum := lhsT.(*types.EnumType); isEnum && !op.EnumOk() {
		return nil, inferenceErrorf(span, lhsT,
			"Cannot use '%s' on values with enum type %s.", op, lhsT)
	}
	if op == ast.BinopEq || op == ast.BinopNe {
		return boolType(), nil
	}
	if !types.IsBits(lhsT) {
		if op.IsComparison() {
			return nil, inferenceErrorf(span, lhsT,
				"Comparison operations can only be applied to bits-typed operands.")
		}
		return nil, inferenceErrorf(span, lhsT,
			"Binary operations can only be applied to bits-typed operands.")
	}
	if op.IsComparison() {
		return boolType(), nil
	}
	return lhsT, nil
}

func deduceShift(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprBinopData) (types.Type, error) {
	span := ctx.exprSpan(id)
	lhsT, err := DeduceExpr(ctx, data.LHS)
	if err != nil {
		return nil, err
	}
	if _, isEnum := lhsT.(*types.EnumType); isEnum {
		return nil, inferenceErrorf(span, lhsT,
			"Cannot use '%s' on values with enum type %s.", data.Op, lhsT)
	}
	lhsBits, ok := lhsT.(*types.BitsType)
	if !ok {
		return nil, inferenceErrorf(span, lhsT,
			"Binary operations can only be applied to bits-typed operands.")
	}
	// A bare literal shift amount takes the minimal unsigned width that
	// holds its value.
	if num, isNum := ctx.B.Exprs.Number(data.RHS); isNum && num.Kind == ast.NumberUntyped {
		text := ctx.B.Str(num.Text)
		if strings.HasPrefix(text, "-") {
			return nil, inferenceErrorf(ctx.exprSpan(data.RHS), nil,
				"Negative literal values cannot be used as shift amounts; got: %s", text)
		}
		n, perr := interp.ParseNumber(text, num.Kind)
		if perr != nil {
			return nil, inferenceErrorf(ctx.exprSpan(data.RHS), nil, "%s", perr)
		}
		minT := types.MakeUBits(interp.BitCountForValue(n))
		ctx.TI.SetType(ast.ExprRef(data.RHS), minT)
		ctx.noteConstexpr(data.RHS, minT)
	}
	rhsT, err := DeduceExpr(ctx, data.RHS)
	if err != nil {
		return nil, err
	}
	rhsBits, ok := rhsT.(*types.BitsType)
	if !ok || rhsBits.Signed {
		return nil, inferenceErrorf(span, rhsT, "Shift amount must be unsigned.")
	}
	if amount, has := ctx.constexprOf(data.RHS); has {
		if width, werr := lhsBits.Size.Int64(); werr == nil {
			if n, nerr := amount.AsInt64(); nerr == nil && n >= width {
				return nil, inferenceErrorf(span, lhsT,
					"Shift amount is larger than shift value bit width of %d.", width)
			}
		}
	}
	return lhsT, nil
}

func deduceConcat(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprBinopData) (types.Type, error) {
	span := ctx.exprSpan(id)
	lhsT, err := DeduceExpr(ctx, data.LHS)
	if err != nil {
		return nil, err
	}
	rhsT, err := DeduceExpr(ctx, data.RHS)
	if err != nil {
		return nil, err
	}
	lhsArr, lhsIsArr := lhsT.(*types.ArrayType)
	rhsArr, rhsIsArr := rhsT.(*types.ArrayType)
	if lhsIsArr && rhsIsArr {
		if !types.Equal(lhsArr.Elem, rhsArr.Elem) {
			return nil, mismatchErrorf(span, lhsT, rhsT,
				"Array concatenation requires element types to be the same.")
		}
		return &types.ArrayType{Elem: lhsArr.Elem, Size: lhsArr.Size.Add(rhsArr.Size)}, nil
	}
	if lhsIsArr != rhsIsArr {
		return nil, mismatchErrorf(span, lhsT, rhsT,
			"Attempting to concatenate array/non-array values together.")
	}
	if _, isEnum := lhsT.(*types.EnumType); isEnum {
		return nil, inferenceErrorf(span, lhsT,
			"Enum values must be cast to bits before concatenation.")
	}
	if _, isEnum := rhsT.(*types.EnumType); isEnum {
		return nil, inferenceErrorf(span, rhsT,
			"Enum values must be cast to bits before concatenation.")
	}
	lhsBits, lok := lhsT.(*types.BitsType)
	rhsBits, rok := rhsT.(*types.BitsType)
	if !lok || !rok {
		return nil, mismatchErrorf(span, lhsT, rhsT,
			"Concatenation requires operand types to be either both-arrays or both-bits; got lhs: %s; rhs: %s",
			lhsT, rhsT)
	}
	// Concatenation always produces an unsigned value.
	return &types.BitsType{Signed: false, Size: lhsBits.Size.Add(rhsBits.Size)}, nil
}

func deduceUnop(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Unop(id)
	span := ctx.exprSpan(id)
	t, err := DeduceExpr(ctx, data.Operand)
	if err != nil {
		return nil, err
	}
	if _, isEnum := t.(*types.EnumType); isEnum {
		return nil, inferenceErrorf(span, t,
			"Cannot use '%s' on values with enum type %s.", data.Op, t)
	}
	if !types.IsBits(t) {
		return nil, inferenceErrorf(span, t,
			"Unary operations can only be applied to bits-typed operands.")
	}
	return t, nil
}

func deduceConditional(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Conditional(id)
	span := ctx.exprSpan(id)
	testT, err := DeduceExpr(ctx, data.Test)
	if err != nil {
		return nil, err
	}
	if !types.Equal(testT, boolType()) {
		return nil, mismatchErrorf(span, testT, boolType(),
			"Test type for conditional expression is not \"bool\"")
	}
	consT, altT, err := deduceOperandPair(ctx, data.Consequent, data.Alternate)
	if err != nil {
		return nil, err
	}
	if !types.Equal(consT, altT) {
		return nil, mismatchErrorf(span, consT, altT,
			"Conditional consequent type (in the 'then' clause) did not match alternative type (in the 'else' clause)")
	}
	return consT, nil
}

func deduceMatch(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Match(id)
	span := ctx.exprSpan(id)
	matchedT, err := DeduceExpr(ctx, data.Matched)
	if err != nil {
		return nil, err
	}
	if len(data.Arms) == 0 {
		return nil, inferenceErrorf(span, matchedT, "Match expression has no arms")
	}
	var result types.Type
	// Arms are compared syntactically; a repeated arm can never match.
	seen := make(map[string]struct{}, len(data.Arms))
	for _, arm := range data.Arms {
		patterns := armPatternsText(ctx.B, arm.Patterns)
		if _, dup := seen[patterns]; dup {
			return nil, inferenceErrorf(arm.Span, nil,
				"Exact-duplicate pattern match detected `%s` -- only the first could possibly match",
				patterns)
		}
		seen[patterns] = struct{}{}
		for _, pat := range arm.Patterns {
			if err := bindMatchPattern(ctx, pat, matchedT); err != nil {
				return nil, err
			}
		}
		armT, err := deduceWithExpectation(ctx, arm.Expr, result)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = armT
		} else if !types.Equal(armT, result) {
			return nil, mismatchErrorf(arm.Span, armT, result,
				"This match arm did not have the same type as the preceding match arms.")
		}
	}
	return result, nil
}

func bindMatchPattern(ctx *DeduceCtx, pid ast.PatID, t types.Type) error {
	p := ctx.B.Pats.Get(pid)
	switch p.Kind {
	case ast.PatWildcard:
		return nil
	case ast.PatName:
		data, _ := ctx.B.Pats.Name(pid)
		ctx.TI.SetType(ast.NameDefRef(data.Def), t)
		return nil
	case ast.PatLiteral:
		data, _ := ctx.B.Pats.Literal(pid)
		litT, err := deduceWithExpectation(ctx, data.Expr, t)
		if err != nil {
			return err
		}
		if !types.Equal(litT, t) {
			return mismatchErrorf(p.Span, litT, t,
				"Pattern expected matched-on type %s but got %s.", t, litT)
		}
		return nil
	case ast.PatTuple:
		data, _ := ctx.B.Pats.Tuple(pid)
		tt, ok := t.(*types.TupleType)
		if !ok {
			return inferenceErrorf(p.Span, t,
				"Tuple pattern cannot match a value of type %s", t)
		}
		if len(data.Elems) != len(tt.Members) {
			return inferenceErrorf(p.Span, t,
				"Tuple pattern has %d elements, but the value has %d.",
				len(data.Elems), len(tt.Members))
		}
		for i, elem := range data.Elems {
			if err := bindMatchPattern(ctx, elem, tt.Members[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return internalErrorf(p.Span, "unhandled pattern kind %d", p.Kind)
}

func deduceFor(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.For(id)
	span := ctx.exprSpan(id)
	iterT, err := DeduceExpr(ctx, data.Iterable)
	if err != nil {
		return nil, err
	}
	arr, ok := iterT.(*types.ArrayType)
	if !ok {
		return nil, inferenceErrorf(span, iterT,
			"For-loop iterable value is not an array; got: %s", iterT)
	}
	initT, err := DeduceExpr(ctx, data.Init)
	if err != nil {
		return nil, err
	}
	accT := initT
	if data.Annot.IsValid() {
		annT, aerr := ConcretizeType(ctx, data.Annot)
		if aerr != nil {
			return nil, aerr
		}
		pair, isTuple := annT.(*types.TupleType)
		if !isTuple || len(pair.Members) != 2 {
			return nil, inferenceErrorf(ctx.B.Types.Span(data.Annot), annT,
				"For-loop annotated type should be a tuple containing a type for the iterable and a type for the accumulator.")
		}
		if !types.Equal(pair.Members[0], arr.Elem) {
			return nil, mismatchErrorf(span, pair.Members[0], arr.Elem,
				"For-loop annotated index type did not match inferred type of iterable.")
		}
		if !types.Equal(pair.Members[1], initT) {
			return nil, mismatchErrorf(span, pair.Members[1], initT,
				"For-loop annotated accumulator type did not match inferred type of init value.")
		}
		accT = pair.Members[1]
	}
	bound := &types.TupleType{Members: []types.Type{arr.Elem, accT}}
	if err := bindPattern(ctx, data.Names, bound, interp.Value{}, false); err != nil {
		return nil, err
	}
	bodyT, err := DeduceExpr(ctx, data.Body)
	if err != nil {
		return nil, err
	}
	if !types.Equal(bodyT, accT) {
		return nil, mismatchErrorf(span, bodyT, accT,
			"For-loop body did not have the same type as the accumulator.")
	}
	return accT, nil
}

func deduceCast(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Cast(id)
	span := ctx.exprSpan(id)
	target, err := ConcretizeType(ctx, data.Type)
	if err != nil {
		return nil, err
	}
	from, err := DeduceExpr(ctx, data.Expr)
	if err != nil {
		return nil, err
	}
	if !castAllowed(from, target) {
		return nil, inferenceErrorf(span, from,
			"Cannot cast from expression type %s to %s.", from, target)
	}
	return target, nil
}

func castAllowed(from, to types.Type) bool {
	fromBits := types.IsBits(from)
	toBits := types.IsBits(to)
	_, fromEnum := from.(*types.EnumType)
	_, toEnum := to.(*types.EnumType)
	if fromEnum || toEnum {
		// Enum casts preserve the bit pattern, so widths must agree.
		if !(fromBits || fromEnum) || !(toBits || toEnum) {
			return false
		}
		return sameTotalWidth(from, to)
	}
	if fromBits && toBits {
		return true
	}
	_, fromIsArr := from.(*types.ArrayType)
	_, toIsArr := to.(*types.ArrayType)
	if fromIsArr && toIsArr {
		return sameTotalWidth(from, to)
	}
	if (fromIsArr && toBits) || (fromBits && toIsArr) {
		return sameTotalWidth(from, to)
	}
	return false
}

func sameTotalWidth(a, b types.Type) bool {
	da, err := types.TotalBitCount(a)
	if err != nil {
		return false
	}
	db, err := types.TotalBitCount(b)
	if err != nil {
		return false
	}
	return da.Equal(db)
}

func deduceArray(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Array(id)
	span := ctx.exprSpan(id)
	var elemT types.Type
	var annSize types.Dim
	annotated := false
	if data.Type.IsValid() {
		annT, err := ConcretizeType(ctx, data.Type)
		if err != nil {
			return nil, err
		}
		arr, ok := annT.(*types.ArrayType)
		if !ok {
			return nil, inferenceErrorf(span, annT,
				"Array was annotated with a non-array type: %s", annT)
		}
		elemT = arr.Elem
		annSize = arr.Size
		annotated = true
	}
	if len(data.Elems) == 0 && !annotated {
		return nil, inferenceErrorf(span, nil,
			"Cannot deduce the type of an empty array.")
	}
	for _, elem := range data.Elems {
		t, err := deduceWithExpectation(ctx, elem, elemT)
		if err != nil {
			return nil, err
		}
		if elemT == nil {
			elemT = t
		} else if !types.Equal(t, elemT) {
			return nil, mismatchErrorf(ctx.exprSpan(elem), t, elemT,
				"Array member did not have same type as other members.")
		}
	}
	count := int64(len(data.Elems))
	if data.HasEllipsis {
		if !annotated {
			return nil, inferenceErrorf(span, elemT,
				"Array has ellipsis (`...`) but does not have a type annotation.")
		}
		if size, err := annSize.Int64(); err == nil && size < count {
			return nil, inferenceErrorf(span, elemT,
				"Annotated array size %d is smaller than the number of elements %d.",
				size, count)
		}
		return &types.ArrayType{Elem: elemT, Size: annSize}, nil
	}
	if annotated {
		if size, err := annSize.Int64(); err == nil && size != count {
			return nil, inferenceErrorf(span, elemT,
				"Annotated array size %d does not match inferred array size %d.",
				size, count)
		}
		return &types.ArrayType{Elem: elemT, Size: annSize}, nil
	}
	return &types.ArrayType{Elem: elemT, Size: types.DimInt64(count)}, nil
}

func deduceTuple(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Tuple(id)
	members := make([]types.Type, len(data.Elems))
	for i, elem := range data.Elems {
		t, err := DeduceExpr(ctx, elem)
		if err != nil {
			return nil, err
		}
		members[i] = t
	}
	return &types.TupleType{Members: members}, nil
}

func deduceTupleIndex(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.TupleIndex(id)
	span := ctx.exprSpan(id)
	subjT, err := DeduceExpr(ctx, data.Subject)
	if err != nil {
		return nil, err
	}
	tt, ok := subjT.(*types.TupleType)
	if !ok {
		return nil, inferenceErrorf(span, subjT,
			"Attempted to use tuple indexing on a non-tuple: %s", subjT)
	}
	if _, err := deduceWithExpectation(ctx, data.Index, types.MakeUBits(32)); err != nil {
		return nil, err
	}
	idx, err := constexprInt64(ctx, data.Index)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(tt.Members)) {
		return nil, inferenceErrorf(span, subjT,
			"Out-of-bounds tuple index specified: %d; tuple has %d members.",
			idx, len(tt.Members))
	}
	return tt.Members[idx], nil
}

func deduceIndex(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Index(id)
	span := ctx.exprSpan(id)
	subjT, err := DeduceAndResolve(ctx, data.Subject)
	if err != nil {
		return nil, err
	}
	if data.Kind != ast.IndexPlain {
		return deduceSlice(ctx, id, data, subjT)
	}
	if _, isTuple := subjT.(*types.TupleType); isTuple {
		return nil, inferenceErrorf(span, subjT,
			"Tuples should not be indexed with array-style syntax. Use `tuple.N` syntax instead.")
	}
	arr, ok := subjT.(*types.ArrayType)
	if !ok {
		return nil, inferenceErrorf(span, subjT, "Value to index is not an array.")
	}
	idxT, err := deduceWithExpectation(ctx, data.Index, types.MakeUBits(32))
	if err != nil {
		return nil, err
	}
	ib, isBits := idxT.(*types.BitsType)
	if !isBits {
		return nil, inferenceErrorf(ctx.exprSpan(data.Index), idxT,
			"Index is not (scalar) bits typed.")
	}
	if ib.Signed {
		return nil, inferenceErrorf(ctx.exprSpan(data.Index), idxT,
			"Index is not unsigned-bits typed.")
	}
	if idx, has := ctx.constexprOf(data.Index); has {
		if n, nerr := idx.AsInt64(); nerr == nil {
			if size, serr := arr.Size.Int64(); serr == nil && n >= size {
				return nil, inferenceErrorf(span, subjT,
					"Index has a compile-time constant value %d that is out of bounds of the array type.", n)
			}
		}
	}
	return arr.Elem, nil
}

// deduceSlice handles x[a:b] and x[start +: uN[w]] on bits-typed subjects.
// Traditional slice bounds are constexpr, default to 0 and the subject
// width, wrap Python-style when negative, and clamp into [0, width].
func deduceSlice(ctx *DeduceCtx, id ast.ExprID, data *ast.ExprIndexData, subjT types.Type) (types.Type, error) {
	span := ctx.exprSpan(id)
	bits, ok := subjT.(*types.BitsType)
	if !ok {
		return nil, inferenceErrorf(span, subjT, "Value to slice is not of 'bits' type.")
	}
	if bits.Signed {
		return nil, inferenceErrorf(span, subjT, "Bit slice LHS must be unsigned.")
	}
	width, werr := bits.Size.Int64()

	if data.Kind == ast.IndexWidthSlice {
		wt, err := ConcretizeType(ctx, data.WidthType)
		if err != nil {
			return nil, err
		}
		wbits, isBits := wt.(*types.BitsType)
		if !isBits {
			return nil, inferenceErrorf(span, wt,
				"A bits type is required for a width-based slice.")
		}
		// A bare literal start takes the subject's unsigned width.
		var startExpect types.Type
		if werr == nil {
			startExpect = types.MakeUBits(width)
		}
		startT, err := deduceWithExpectation(ctx, data.Start, startExpect)
		if err != nil {
			return nil, err
		}
		sb, sOk := startT.(*types.BitsType)
		if !sOk || sb.Signed {
			return nil, inferenceErrorf(ctx.exprSpan(data.Start), startT,
				"Start expression for width slice must be unsigned-bits typed.")
		}
		if sliceW, swErr := wbits.Size.Int64(); swErr == nil && werr == nil {
			if v, has := ctx.constexprOf(data.Start); has {
				if n, nerr := v.AsInt64(); nerr == nil && n+sliceW > width {
					return nil, inferenceErrorf(span, subjT,
						"Slice range out of bounds for type analysis.")
				}
			}
		}
		return wbits, nil
	}

	if werr != nil {
		return nil, inferenceErrorf(span, subjT,
			"Could not resolve the bit width of the value to slice.")
	}
	bound := func(ex ast.ExprID, dflt int64) (int64, error) {
		if !ex.IsValid() {
			return dflt, nil
		}
		// Bounds are s32 by convention so negative indices can wrap.
		if _, err := deduceWithExpectation(ctx, ex, types.MakeSBits(32)); err != nil {
			return 0, err
		}
		return constexprInt64(ctx, ex)
	}
	start, err := bound(data.Start, 0)
	if err != nil {
		return nil, err
	}
	limit, err := bound(data.Limit, width)
	if err != nil {
		return nil, err
	}
	if data.Start.IsValid() && data.Limit.IsValid() {
		st, _ := ctx.TI.GetType(ast.ExprRef(data.Start))
		lt, _ := ctx.TI.GetType(ast.ExprRef(data.Limit))
		if st != nil && lt != nil && !types.Equal(st, lt) {
			return nil, mismatchErrorf(span, st, lt,
				"Slice limit and start types did not match.")
		}
	}
	if start < 0 {
		start += width
	}
	if limit < 0 {
		limit += width
	}
	start = clampInt64(start, 0, width)
	limit = clampInt64(limit, start, width)
	return types.MakeUBits(limit - start), nil
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deduceAttr(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Attr(id)
	span := ctx.exprSpan(id)
	subjT, err := DeduceExpr(ctx, data.Subject)
	if err != nil {
		return nil, err
	}
	st, ok := subjT.(*types.StructType)
	if !ok {
		return nil, inferenceErrorf(span, subjT,
			"Expected a struct for attribute access; got %s", subjT)
	}
	name := ctx.B.Str(data.Name)
	t, has := st.Member(name)
	if !has {
		return nil, inferenceErrorf(span, subjT,
			"Struct '%s' does not have a member with name '%s'", st.Name, name)
	}
	return t, nil
}

func deduceRange(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Range(id)
	span := ctx.exprSpan(id)
	startT, limitT, err := deduceOperandPair(ctx, data.Start, data.Limit)
	if err != nil {
		return nil, err
	}
	if !types.Equal(startT, limitT) {
		return nil, mismatchErrorf(span, startT, limitT,
			"Range start and limit types did not match.")
	}
	if !types.IsBits(startT) {
		return nil, inferenceErrorf(span, startT,
			"Range expressions can only be used with bits-typed bounds.")
	}
	start, err := constexprInt64(ctx, data.Start)
	if err != nil {
		return nil, err
	}
	limit, err := constexprInt64(ctx, data.Limit)
	if err != nil {
		return nil, err
	}
	// An inverted or empty range is legal and has zero elements.
	size := limit - start
	if data.Inclusive {
		size++
	}
	if size <= 0 {
		size = 0
		ctx.warn(diag.WarnEmptyRangeLiteral, span,
			"`%s` from `%d` to `%d` is an empty range", exprText(ctx.B, id), start, limit)
	}
	return &types.ArrayType{Elem: startT, Size: types.DimInt64(size)}, nil
}

func deduceBlock(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.Block(id)
	var last types.Type = types.NewUnit()
	lastIsExpr := false
	for i, sid := range data.Stmts {
		t, isExpr, err := deduceStmt(ctx, sid)
		if err != nil {
			return nil, err
		}
		final := i == len(data.Stmts)-1
		if isExpr {
			discarded := !final || data.TrailingSemi
			if discarded && !types.IsUnit(t) {
				sdata, _ := ctx.B.Stmts.Expr(sid)
				if final {
					ctx.warn(diag.WarnTrailingTupleAfterSemi, ctx.B.Stmts.Get(sid).Span,
						"Final expression in the block is discarded by the trailing semicolon.")
				} else if !isEffectfulStmt(ctx, sdata.Expr) {
					ctx.warn(diag.WarnUselessExpressionStmt, ctx.B.Stmts.Get(sid).Span,
						"Expression statement has no effect, consider assigning it to `_`.")
				}
			}
		}
		last = t
		lastIsExpr = isExpr
	}
	if lastIsExpr && !data.TrailingSemi {
		return last, nil
	}
	return types.NewUnit(), nil
}

// isEffectfulStmt reports whether discarding the statement's value still
// leaves meaningful work, e.g. an invocation evaluated for fail!/cover!
// side effects.
func isEffectfulStmt(ctx *DeduceCtx, id ast.ExprID) bool {
	e := ctx.B.Exprs.Get(id)
	return e != nil && (e.Kind == ast.ExprInvocation || e.Kind == ast.ExprSpawn)
}

// deduceStmt returns the statement's type and whether it is an expression
// statement (whose value a block may yield).
func deduceStmt(ctx *DeduceCtx, sid ast.StmtID) (types.Type, bool, error) {
	s := ctx.B.Stmts.Get(sid)
	switch s.Kind {
	case ast.StmtLet:
		data, _ := ctx.B.Stmts.Let(sid)
		if err := deduceLet(ctx, s, data); err != nil {
			return nil, false, err
		}
		return types.NewUnit(), false, nil
	case ast.StmtConstAssert:
		data, _ := ctx.B.Stmts.ConstAssert(sid)
		if err := checkConstAssert(ctx, data.Arg); err != nil {
			return nil, false, err
		}
		return types.NewUnit(), false, nil
	case ast.StmtExpr:
		data, _ := ctx.B.Stmts.Expr(sid)
		t, err := DeduceExpr(ctx, data.Expr)
		if err != nil {
			return nil, false, err
		}
		return t, true, nil
	}
	return nil, false, internalErrorf(s.Span, "unhandled statement kind %d", s.Kind)
}

func deduceLet(ctx *DeduceCtx, s *ast.Stmt, data *ast.StmtLetData) error {
	var annT types.Type
	if data.Type.IsValid() {
		t, err := ConcretizeType(ctx, data.Type)
		if err != nil {
			return err
		}
		annT = t
	}
	rhsT, err := deduceWithExpectation(ctx, data.RHS, annT)
	if err != nil {
		return err
	}
	if annT != nil && !types.Equal(annT, rhsT) {
		return mismatchErrorf(s.Span, annT, rhsT,
			"Annotated type did not match inferred type of right hand side expression.")
	}
	bindT := rhsT
	if annT != nil {
		bindT = annT
	}
	if ctx.B.Pats.Get(data.Pat).Kind == ast.PatWildcard {
		ctx.warn(diag.WarnUselessLetBinding, s.Span,
			"`let _ = expr;` statement can be simplified to `expr;` -- there is no need for a `let` binding here")
	}
	v, hasV := ctx.constexprOf(data.RHS)
	return bindPattern(ctx, data.Pat, bindT, v, hasV)
}

func checkConstAssert(ctx *DeduceCtx, arg ast.ExprID) error {
	argT, err := DeduceExpr(ctx, arg)
	if err != nil {
		return err
	}
	if !types.Equal(argT, boolType()) {
		return mismatchErrorf(ctx.exprSpan(arg), argT, boolType(),
			"const_assert! expression must have boolean type.")
	}
	v, has := ctx.constexprOf(arg)
	if !has {
		return inferenceErrorf(ctx.exprSpan(arg), argT,
			"const_assert! expression is not constexpr")
	}
	if !v.IsTrue() {
		return inferenceErrorf(ctx.exprSpan(arg), argT, "const_assert! failure")
	}
	return nil
}

// bindPattern assigns types (and, when the bound value is constexpr, values)
// to the names a let or for pattern introduces. Literal patterns are only
// legal in match expressions.
func bindPattern(ctx *DeduceCtx, pid ast.PatID, t types.Type, v interp.Value, hasV bool) error {
	p := ctx.B.Pats.Get(pid)
	switch p.Kind {
	case ast.PatWildcard:
		return nil
	case ast.PatName:
		data, _ := ctx.B.Pats.Name(pid)
		ctx.TI.SetType(ast.NameDefRef(data.Def), t)
		if hasV {
			ctx.TI.NoteConstexpr(ast.NameDefRef(data.Def), v)
		}
		return nil
	case ast.PatTuple:
		data, _ := ctx.B.Pats.Tuple(pid)
		tt, ok := t.(*types.TupleType)
		if !ok {
			return inferenceErrorf(p.Span, t,
				"Tuple pattern cannot match a value of type %s", t)
		}
		if len(data.Elems) != len(tt.Members) {
			return inferenceErrorf(p.Span, t,
				"Tuple pattern has %d elements, but the value has %d.",
				len(data.Elems), len(tt.Members))
		}
		for i, elem := range data.Elems {
			ev := interp.Value{}
			has := false
			if hasV && v.Tag == interp.TagTuple && i < len(v.Elems) {
				ev = v.Elems[i]
				has = true
			}
			if err := bindPattern(ctx, elem, tt.Members[i], ev, has); err != nil {
				return err
			}
		}
		return nil
	case ast.PatLiteral:
		return inferenceErrorf(p.Span, t,
			"Literal patterns are only allowed in match expressions.")
	}
	return internalErrorf(p.Span, "unhandled pattern kind %d", p.Kind)
}

func deduceZeroMacro(ctx *DeduceCtx, id ast.ExprID) (types.Type, error) {
	data, _ := ctx.B.Exprs.ZeroMacro(id)
	span := ctx.exprSpan(id)
	t, err := ConcretizeType(ctx, data.Type)
	if err != nil {
		return nil, err
	}
	if _, zerr := interp.ZeroOfType(t); zerr != nil {
		return nil, inferenceErrorf(span, t, "Cannot make a zero value of type %s", t)
	}
	return t, nil
}
