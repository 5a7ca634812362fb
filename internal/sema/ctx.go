package sema

import (
	"fmt"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/interp"
	"ripple/internal/source"
	"ripple/internal/typeinfo"
	"ripple/internal/types"
)

// Importer resolves an import subject path to an already checked module. The
// project driver implements this on top of its load graph; tests usually use
// a map.
type Importer interface {
	Import(subject []string) (*ast.Builder, *typeinfo.TypeInfo, error)
}

// FnStackEntry is one frame of the in-flight deduction stack. A frame is
// pushed per function body being deduced, together with the parametric
// environment that body is being deduced under.
type FnStackEntry struct {
	Module *ast.Builder
	Fn     ast.FnID
	Name   string
	Env    types.ParametricEnv
}

type checkState struct {
	stack []FnStackEntry
}

// DeduceCtx carries everything a deduction rule needs: the module under
// inspection, the type information store types get recorded into, warning
// sink, constexpr evaluator, and cross-module access.
type DeduceCtx struct {
	TI       *typeinfo.TypeInfo
	B        *ast.Builder
	Warnings diag.Reporter
	Eval     interp.Evaluator
	Importer Importer

	state *checkState
}

// NewDeduceCtx builds a root context over a freshly created type information
// store for the given module.
func NewDeduceCtx(b *ast.Builder, ti *typeinfo.TypeInfo, warnings diag.Reporter, importer Importer) *DeduceCtx {
	if warnings == nil {
		warnings = diag.NopReporter{}
	}
	return &DeduceCtx{
		TI:       ti,
		B:        b,
		Warnings: warnings,
		Eval:     &interp.TreeEvaluator{},
		Importer: importer,
		state:    &checkState{},
	}
}

// fork derives a context over a different store and, for cross-module work,
// a different module. The warning sink, evaluator, importer, and function
// stack are shared with the parent.
func (c *DeduceCtx) fork(ti *typeinfo.TypeInfo, b *ast.Builder) *DeduceCtx {
	d := *c
	d.TI = ti
	d.B = b
	return &d
}

func (c *DeduceCtx) pushFn(fn ast.FnID, name string, env types.ParametricEnv) {
	c.state.stack = append(c.state.stack, FnStackEntry{Module: c.B, Fn: fn, Name: name, Env: env})
}

func (c *DeduceCtx) popFn() {
	c.state.stack = c.state.stack[:len(c.state.stack)-1]
}

func (c *DeduceCtx) topFn() (FnStackEntry, bool) {
	if len(c.state.stack) == 0 {
		return FnStackEntry{}, false
	}
	return c.state.stack[len(c.state.stack)-1], true
}

// onStack reports whether the given function is already being deduced under
// an equal parametric environment. That is the recursion signal.
func (c *DeduceCtx) onStack(module *ast.Builder, fn ast.FnID, env types.ParametricEnv) bool {
	for _, fr := range c.state.stack {
		if fr.Module == module && fr.Fn == fn && fr.Env.Equal(env) {
			return true
		}
	}
	return false
}

func (c *DeduceCtx) currentEnv() types.ParametricEnv {
	if fr, ok := c.topFn(); ok {
		return fr.Env
	}
	return nil
}

func (c *DeduceCtx) lookup() interp.Lookup {
	return func(id ast.ExprID) (interp.Value, bool) {
		return c.TI.GetConstexpr(ast.ExprRef(id))
	}
}

// noteConstexpr attempts constexpr evaluation of an expression whose type is
// already known and records the value on success. Non-constexpr expressions
// are silently skipped.
func (c *DeduceCtx) noteConstexpr(id ast.ExprID, t types.Type) {
	if _, ok := c.TI.GetConstexpr(ast.ExprRef(id)); ok {
		return
	}
	v, err := c.Eval.Evaluate(c.B, id, t, c.lookup())
	if err != nil {
		return
	}
	c.TI.NoteConstexpr(ast.ExprRef(id), v)
}

// constexprOf returns the recorded constexpr value of an expression, if any.
func (c *DeduceCtx) constexprOf(id ast.ExprID) (interp.Value, bool) {
	return c.TI.GetConstexpr(ast.ExprRef(id))
}

func (c *DeduceCtx) warn(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportWarning(c.Warnings, code, span, fmt.Sprintf(format, args...)).Emit()
}

func (c *DeduceCtx) exprSpan(id ast.ExprID) source.Span {
	return c.B.Exprs.Span(id)
}
