package types

import (
	"fmt"
	"sort"
	"strings"
)

// ParametricExpr is a symbolic dimension expression. The set of forms is
// closed: Symbol, Constant, Add, Mul.
type ParametricExpr interface {
	parametricExpr()
	String() string
	freeVars(into map[string]struct{})
	eval(env ParametricEnv) ParametricExpr
}

type ParametricSymbol struct {
	Name string
}

type ParametricConstant struct {
	Value int64
}

type ParametricAdd struct {
	LHS ParametricExpr
	RHS ParametricExpr
}

type ParametricMul struct {
	LHS ParametricExpr
	RHS ParametricExpr
}

func (ParametricSymbol) parametricExpr()   {}
func (ParametricConstant) parametricExpr() {}
func (ParametricAdd) parametricExpr()      {}
func (ParametricMul) parametricExpr()      {}

func (s ParametricSymbol) String() string   { return s.Name }
func (c ParametricConstant) String() string { return fmt.Sprintf("%d", c.Value) }
func (a ParametricAdd) String() string      { return fmt.Sprintf("(%s+%s)", a.LHS, a.RHS) }
func (m ParametricMul) String() string      { return fmt.Sprintf("(%s*%s)", m.LHS, m.RHS) }

func (s ParametricSymbol) freeVars(into map[string]struct{}) { into[s.Name] = struct{}{} }
func (ParametricConstant) freeVars(map[string]struct{})      {}
func (a ParametricAdd) freeVars(into map[string]struct{}) {
	a.LHS.freeVars(into)
	a.RHS.freeVars(into)
}
func (m ParametricMul) freeVars(into map[string]struct{}) {
	m.LHS.freeVars(into)
	m.RHS.freeVars(into)
}

// ParametricEnv binds symbol names to concrete dimension values.
type ParametricEnv map[string]int64

func (s ParametricSymbol) eval(env ParametricEnv) ParametricExpr {
	if v, ok := env[s.Name]; ok {
		return ParametricConstant{Value: v}
	}
	return s
}

func (c ParametricConstant) eval(ParametricEnv) ParametricExpr { return c }

func (a ParametricAdd) eval(env ParametricEnv) ParametricExpr {
	return foldBinary(a.LHS.eval(env), a.RHS.eval(env), false)
}

func (m ParametricMul) eval(env ParametricEnv) ParametricExpr {
	return foldBinary(m.LHS.eval(env), m.RHS.eval(env), true)
}

func foldBinary(lhs, rhs ParametricExpr, mul bool) ParametricExpr {
	lc, lok := lhs.(ParametricConstant)
	rc, rok := rhs.(ParametricConstant)
	if lok && rok {
		if mul {
			return ParametricConstant{Value: lc.Value * rc.Value}
		}
		return ParametricConstant{Value: lc.Value + rc.Value}
	}
	if mul {
		return ParametricMul{LHS: lhs, RHS: rhs}
	}
	return ParametricAdd{LHS: lhs, RHS: rhs}
}

// EvalParametric substitutes env into expr and folds constant subtrees.
func EvalParametric(expr ParametricExpr, env ParametricEnv) ParametricExpr {
	return expr.eval(env)
}

// FreeVariables lists the unbound symbols of expr in sorted order.
func FreeVariables(expr ParametricExpr) []string {
	set := make(map[string]struct{})
	expr.freeVars(set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParametricEqual compares two expressions structurally.
func ParametricEqual(a, b ParametricExpr) bool {
	switch x := a.(type) {
	case ParametricSymbol:
		y, ok := b.(ParametricSymbol)
		return ok && x.Name == y.Name
	case ParametricConstant:
		y, ok := b.(ParametricConstant)
		return ok && x.Value == y.Value
	case ParametricAdd:
		y, ok := b.(ParametricAdd)
		return ok && ParametricEqual(x.LHS, y.LHS) && ParametricEqual(x.RHS, y.RHS)
	case ParametricMul:
		y, ok := b.(ParametricMul)
		return ok && ParametricEqual(x.LHS, y.LHS) && ParametricEqual(x.RHS, y.RHS)
	}
	return false
}

// Equal reports whether two environments bind the same names to the same
// values.
func (e ParametricEnv) Equal(o ParametricEnv) bool {
	if len(e) != len(o) {
		return false
	}
	for k, v := range e {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (e ParametricEnv) String() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, e[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
