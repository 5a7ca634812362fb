package types

import (
	"fmt"
)

// Dim is one dimension of a bits or array type: either a concrete int64 or a
// symbolic parametric expression awaiting instantiation.
type Dim struct {
	expr ParametricExpr // nil when concrete
	val  int64
}

// DimInt64 creates a concrete dimension.
func DimInt64(v int64) Dim {
	return Dim{val: v}
}

// DimExpr creates a dimension from expr, collapsing constant expressions to
// concrete form.
func DimExpr(expr ParametricExpr) Dim {
	if c, ok := expr.(ParametricConstant); ok {
		return Dim{val: c.Value}
	}
	return Dim{expr: expr}
}

// IsParametric reports whether the dimension still carries free symbols.
func (d Dim) IsParametric() bool {
	return d.expr != nil
}

// Int64 returns the concrete value, or an error for symbolic dimensions.
func (d Dim) Int64() (int64, error) {
	if d.expr != nil {
		return 0, fmt.Errorf("dimension is parametric: %s", d.expr)
	}
	return d.val, nil
}

// Expr returns the dimension as a parametric expression.
func (d Dim) Expr() ParametricExpr {
	if d.expr != nil {
		return d.expr
	}
	return ParametricConstant{Value: d.val}
}

// Add sums two dimensions, staying symbolic when either side is.
func (d Dim) Add(o Dim) Dim {
	if d.expr == nil && o.expr == nil {
		return Dim{val: d.val + o.val}
	}
	return DimExpr(foldBinary(d.Expr(), o.Expr(), false))
}

// Mul multiplies two dimensions, staying symbolic when either side is.
func (d Dim) Mul(o Dim) Dim {
	if d.expr == nil && o.expr == nil {
		return Dim{val: d.val * o.val}
	}
	return DimExpr(foldBinary(d.Expr(), o.Expr(), true))
}

// Resolve substitutes env and folds.
func (d Dim) Resolve(env ParametricEnv) Dim {
	if d.expr == nil {
		return d
	}
	return DimExpr(d.expr.eval(env))
}

// Equal compares concrete values or symbolic structure.
func (d Dim) Equal(o Dim) bool {
	if d.expr == nil && o.expr == nil {
		return d.val == o.val
	}
	if d.expr != nil && o.expr != nil {
		return ParametricEqual(d.expr, o.expr)
	}
	return false
}

func (d Dim) String() string {
	if d.expr != nil {
		return d.expr.String()
	}
	return fmt.Sprintf("%d", d.val)
}
