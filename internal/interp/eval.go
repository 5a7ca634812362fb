package interp

import (
	"errors"
	"fmt"
	"math/big"

	"ripple/internal/ast"
	"ripple/internal/types"
)

// ErrNotConstexpr marks expressions outside the constexpr subset. Callers
// treat it as "no value recorded" rather than a type error.
var ErrNotConstexpr = errors.New("expression is not constexpr")

// Lookup resolves already-evaluated subexpressions. The checker records
// values bottom-up, so child lookups hit whenever the child is constexpr.
type Lookup func(ast.ExprID) (Value, bool)

// Evaluator is the constexpr capability the deduction engine depends on.
// expected is the deduced type of expr and drives literal widths and casts.
type Evaluator interface {
	Evaluate(b *ast.Builder, expr ast.ExprID, expected types.Type, look Lookup) (Value, error)
}

// TreeEvaluator evaluates the expression subset needed for dimensions, enum
// member values, parametric defaults, range bounds, and const asserts.
type TreeEvaluator struct{}

func (TreeEvaluator) Evaluate(b *ast.Builder, expr ast.ExprID, expected types.Type, look Lookup) (Value, error) {
	e := b.Exprs.Get(expr)
	if e == nil {
		return Value{}, fmt.Errorf("dangling expression %d", expr)
	}

	child := func(id ast.ExprID) (Value, error) {
		if v, ok := look(id); ok {
			return v, nil
		}
		return Value{}, ErrNotConstexpr
	}

	switch e.Kind {
	case ast.ExprNumber:
		data, _ := b.Exprs.Number(expr)
		return evalNumber(b, data, expected)

	case ast.ExprNameRef, ast.ExprColonRef:
		return child(expr)

	case ast.ExprUnop:
		data, _ := b.Exprs.Unop(expr)
		operand, err := child(data.Operand)
		if err != nil {
			return Value{}, err
		}
		return Unop(data.Op, operand)

	case ast.ExprBinop:
		data, _ := b.Exprs.Binop(expr)
		lhs, err := child(data.LHS)
		if err != nil {
			return Value{}, err
		}
		rhs, err := child(data.RHS)
		if err != nil {
			return Value{}, err
		}
		return Binop(data.Op, lhs, rhs)

	case ast.ExprCast:
		data, _ := b.Exprs.Cast(expr)
		v, err := child(data.Expr)
		if err != nil {
			return Value{}, err
		}
		return castTo(v, expected)

	case ast.ExprTuple:
		data, _ := b.Exprs.Tuple(expr)
		elems := make([]Value, 0, len(data.Elems))
		for _, id := range data.Elems {
			v, err := child(id)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return NewTuple(elems), nil

	case ast.ExprArray:
		data, _ := b.Exprs.Array(expr)
		elems := make([]Value, 0, len(data.Elems))
		for _, id := range data.Elems {
			v, err := child(id)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		if data.HasEllipsis {
			arr, ok := expected.(*types.ArrayType)
			if !ok {
				return Value{}, ErrNotConstexpr
			}
			size, err := arr.Size.Int64()
			if err != nil {
				return Value{}, ErrNotConstexpr
			}
			if len(elems) == 0 {
				return Value{}, ErrNotConstexpr
			}
			for int64(len(elems)) < size {
				elems = append(elems, elems[len(elems)-1])
			}
		}
		return NewArray(elems), nil

	case ast.ExprTupleIndex:
		data, _ := b.Exprs.TupleIndex(expr)
		subject, err := child(data.Subject)
		if err != nil {
			return Value{}, err
		}
		idx, err := child(data.Index)
		if err != nil {
			return Value{}, err
		}
		return elementAt(subject, idx)

	case ast.ExprIndex:
		data, _ := b.Exprs.Index(expr)
		if data.Kind != ast.IndexPlain {
			return Value{}, ErrNotConstexpr
		}
		subject, err := child(data.Subject)
		if err != nil {
			return Value{}, err
		}
		idx, err := child(data.Index)
		if err != nil {
			return Value{}, err
		}
		return elementAt(subject, idx)

	case ast.ExprConditional:
		data, _ := b.Exprs.Conditional(expr)
		test, err := child(data.Test)
		if err != nil {
			return Value{}, err
		}
		if test.IsTrue() {
			return child(data.Consequent)
		}
		return child(data.Alternate)

	case ast.ExprRange:
		data, _ := b.Exprs.Range(expr)
		start, err := child(data.Start)
		if err != nil {
			return Value{}, err
		}
		limit, err := child(data.Limit)
		if err != nil {
			return Value{}, err
		}
		return evalRange(start, limit, data.Inclusive)

	case ast.ExprZeroMacro:
		if expected == nil {
			return Value{}, ErrNotConstexpr
		}
		return ZeroOfType(expected)

	case ast.ExprBlock:
		// A block is constexpr when its result expression is.
		data, _ := b.Exprs.Block(expr)
		if data.TrailingSemi || len(data.Stmts) == 0 {
			return NewTuple(nil), nil
		}
		last := data.Stmts[len(data.Stmts)-1]
		if stmtData, ok := b.Stmts.Expr(last); ok {
			return child(stmtData.Expr)
		}
		return NewTuple(nil), nil
	}
	return Value{}, ErrNotConstexpr
}

func evalNumber(b *ast.Builder, data *ast.ExprNumberData, expected types.Type) (Value, error) {
	n, err := ParseNumber(b.Str(data.Text), data.Kind)
	if err != nil {
		return Value{}, err
	}
	width, signed, err := bitsShape(expected)
	if err != nil {
		return Value{}, ErrNotConstexpr
	}
	if signed {
		return NewSBits(width, n), nil
	}
	return NewUBits(width, n), nil
}

func bitsShape(t types.Type) (width int64, signed bool, err error) {
	switch x := t.(type) {
	case *types.BitsType:
		w, werr := x.Size.Int64()
		if werr != nil {
			return 0, false, werr
		}
		return w, x.Signed, nil
	case *types.EnumType:
		w, werr := x.Size.Int64()
		if werr != nil {
			return 0, false, werr
		}
		return w, x.Signed, nil
	}
	return 0, false, fmt.Errorf("type %v is not bits", t)
}

func castTo(v Value, expected types.Type) (Value, error) {
	switch x := expected.(type) {
	case *types.BitsType:
		width, err := x.Size.Int64()
		if err != nil {
			return Value{}, ErrNotConstexpr
		}
		return CastBits(v, width, x.Signed)
	case *types.EnumType:
		width, err := x.Size.Int64()
		if err != nil {
			return Value{}, ErrNotConstexpr
		}
		payload, cerr := CastBits(v, width, x.Signed)
		if cerr != nil {
			return Value{}, cerr
		}
		return NewEnum(x.Module, x.Name, payload), nil
	case *types.ArrayType:
		// bits <-> array-of-u8 style casts stay out of the constexpr subset.
		return Value{}, ErrNotConstexpr
	}
	return Value{}, ErrNotConstexpr
}

func elementAt(subject, idx Value) (Value, error) {
	if subject.Tag != TagArray && subject.Tag != TagTuple {
		return Value{}, ErrNotConstexpr
	}
	i, err := idx.AsInt64()
	if err != nil {
		return Value{}, err
	}
	if i < 0 || i >= int64(len(subject.Elems)) {
		return Value{}, fmt.Errorf("index %d out of bounds for %d elements", i, len(subject.Elems))
	}
	return subject.Elems[i], nil
}

func evalRange(start, limit Value, inclusive bool) (Value, error) {
	lo, err := start.AsInt64()
	if err != nil {
		return Value{}, err
	}
	hi, err := limit.AsInt64()
	if err != nil {
		return Value{}, err
	}
	if inclusive {
		hi++
	}
	if hi < lo {
		return Value{}, fmt.Errorf("range from %d to %d is empty", lo, hi)
	}
	elems := make([]Value, 0, hi-lo)
	for v := lo; v < hi; v++ {
		n := big.NewInt(v)
		if start.Signed {
			elems = append(elems, NewSBits(start.Width, n))
		} else {
			elems = append(elems, NewUBits(start.Width, n))
		}
	}
	return NewArray(elems), nil
}

// ZeroOfType builds the all-zero value of t. Struct zeros take tuple shape.
func ZeroOfType(t types.Type) (Value, error) {
	switch x := t.(type) {
	case *types.BitsType:
		width, err := x.Size.Int64()
		if err != nil {
			return Value{}, ErrNotConstexpr
		}
		if x.Signed {
			return SBitsFromInt64(width, 0), nil
		}
		return UBitsFromInt64(width, 0), nil
	case *types.EnumType:
		width, err := x.Size.Int64()
		if err != nil {
			return Value{}, ErrNotConstexpr
		}
		payload, _ := CastBits(UBitsFromInt64(width, 0), width, x.Signed)
		return NewEnum(x.Module, x.Name, payload), nil
	case *types.ArrayType:
		size, err := x.Size.Int64()
		if err != nil {
			return Value{}, ErrNotConstexpr
		}
		elem, zerr := ZeroOfType(x.Elem)
		if zerr != nil {
			return Value{}, zerr
		}
		elems := make([]Value, size)
		for i := range elems {
			elems[i] = elem
		}
		return NewArray(elems), nil
	case *types.TupleType:
		elems := make([]Value, 0, len(x.Members))
		for _, m := range x.Members {
			v, zerr := ZeroOfType(m)
			if zerr != nil {
				return Value{}, zerr
			}
			elems = append(elems, v)
		}
		return NewTuple(elems), nil
	case *types.StructType:
		elems := make([]Value, 0, len(x.Members))
		for _, m := range x.Members {
			v, zerr := ZeroOfType(m.Type)
			if zerr != nil {
				return Value{}, zerr
			}
			elems = append(elems, v)
		}
		return NewTuple(elems), nil
	}
	return Value{}, fmt.Errorf("type %s has no zero value", t)
}
