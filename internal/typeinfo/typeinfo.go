// Package typeinfo holds the side tables produced by type checking: deduced
// types, constexpr values, and per-instantiation data, keyed by AST nodes.
package typeinfo

import (
	"ripple/internal/ast"
	"ripple/internal/interp"
	"ripple/internal/types"
)

// Imported pairs an imported module with its checked type information.
type Imported struct {
	Module *ast.Builder
	Info   *TypeInfo
}

// Invocation records one parametric callee environment derived at a call
// site for a particular caller environment.
type Invocation struct {
	CalleeEnv types.ParametricEnv
	// Derived holds types deduced while re-checking the callee body under
	// CalleeEnv.
	Derived *TypeInfo
}

// TypeInfo is one store in a hierarchy: the root holds the module-level
// facts, children hold facts valid only inside one parametric instantiation.
// Lookups fall back to the parent chain; writes always go to the receiver
// (except invocation-level data, which lives at the root).
type TypeInfo struct {
	module *ast.Builder
	parent *TypeInfo

	dict       map[ast.NodeRef]types.Type
	constexprs map[ast.NodeRef]interp.Value

	// Root-only tables.
	invocations   map[ast.ExprID]map[string]Invocation
	requiresToken map[ast.FnID]bool
	imports       map[ast.ImportID]Imported
	procInfo      map[ast.ProcID]*TypeInfo
}

// NewRoot creates the root store for a module.
func NewRoot(module *ast.Builder) *TypeInfo {
	return &TypeInfo{
		module:        module,
		dict:          make(map[ast.NodeRef]types.Type),
		constexprs:    make(map[ast.NodeRef]interp.Value),
		invocations:   make(map[ast.ExprID]map[string]Invocation),
		requiresToken: make(map[ast.FnID]bool),
		imports:       make(map[ast.ImportID]Imported),
		procInfo:      make(map[ast.ProcID]*TypeInfo),
	}
}

// NewChild creates a store whose misses fall back to ti.
func (ti *TypeInfo) NewChild() *TypeInfo {
	return &TypeInfo{
		module:     ti.module,
		parent:     ti,
		dict:       make(map[ast.NodeRef]types.Type),
		constexprs: make(map[ast.NodeRef]interp.Value),
	}
}

// Module returns the AST this store describes.
func (ti *TypeInfo) Module() *ast.Builder {
	return ti.module
}

// Root walks to the top of the parent chain.
func (ti *TypeInfo) Root() *TypeInfo {
	cur := ti
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Parent returns the fallback store, or nil at the root.
func (ti *TypeInfo) Parent() *TypeInfo {
	return ti.parent
}

// SetType records the deduced type of a node.
func (ti *TypeInfo) SetType(ref ast.NodeRef, t types.Type) {
	ti.dict[ref] = t
}

// GetType looks up a node's type, consulting the parent chain.
func (ti *TypeInfo) GetType(ref ast.NodeRef) (types.Type, bool) {
	for cur := ti; cur != nil; cur = cur.parent {
		if t, ok := cur.dict[ref]; ok {
			return t, true
		}
	}
	return nil, false
}

// GetTypeSelf looks up a node's type in this store only.
func (ti *TypeInfo) GetTypeSelf(ref ast.NodeRef) (types.Type, bool) {
	t, ok := ti.dict[ref]
	return t, ok
}

// NoteConstexpr records a node's compile-time value.
func (ti *TypeInfo) NoteConstexpr(ref ast.NodeRef, v interp.Value) {
	ti.constexprs[ref] = v
}

// GetConstexpr looks up a node's compile-time value via the parent chain.
func (ti *TypeInfo) GetConstexpr(ref ast.NodeRef) (interp.Value, bool) {
	for cur := ti; cur != nil; cur = cur.parent {
		if v, ok := cur.constexprs[ref]; ok {
			return v, true
		}
	}
	return interp.Value{}, false
}

// AddInvocation records the callee environment and derived store for a call
// site under the given caller environment. Stored at the root.
func (ti *TypeInfo) AddInvocation(call ast.ExprID, callerEnv, calleeEnv types.ParametricEnv, derived *TypeInfo) {
	root := ti.Root()
	byEnv, ok := root.invocations[call]
	if !ok {
		byEnv = make(map[string]Invocation)
		root.invocations[call] = byEnv
	}
	byEnv[callerEnv.String()] = Invocation{CalleeEnv: calleeEnv, Derived: derived}
}

// GetInvocation fetches the record for a call site under a caller env.
func (ti *TypeInfo) GetInvocation(call ast.ExprID, callerEnv types.ParametricEnv) (Invocation, bool) {
	byEnv, ok := ti.Root().invocations[call]
	if !ok {
		return Invocation{}, false
	}
	inv, ok := byEnv[callerEnv.String()]
	return inv, ok
}

// SetRequiresToken flags a function as needing an implicit token (it calls
// fail!, cover!, trace_fmt!, or a function that does).
func (ti *TypeInfo) SetRequiresToken(fn ast.FnID, v bool) {
	ti.Root().requiresToken[fn] = v
}

// RequiresToken reports the implicit-token flag; ok is false when never set.
func (ti *TypeInfo) RequiresToken(fn ast.FnID) (value, ok bool) {
	v, ok := ti.Root().requiresToken[fn]
	return v, ok
}

// AddImport records the checked module behind an import member.
func (ti *TypeInfo) AddImport(id ast.ImportID, imp Imported) {
	ti.Root().imports[id] = imp
}

// GetImport fetches the checked module behind an import member.
func (ti *TypeInfo) GetImport(id ast.ImportID) (Imported, bool) {
	imp, ok := ti.Root().imports[id]
	return imp, ok
}

// SetProcInfo links a proc to the store derived while checking its members.
func (ti *TypeInfo) SetProcInfo(id ast.ProcID, info *TypeInfo) {
	ti.Root().procInfo[id] = info
}

// GetProcInfo fetches a proc's derived store.
func (ti *TypeInfo) GetProcInfo(id ast.ProcID) (*TypeInfo, bool) {
	info, ok := ti.Root().procInfo[id]
	return info, ok
}

// Stats summarizes a store for debugging output.
type Stats struct {
	Types       int
	Constexprs  int
	Invocations int
	Imports     int
}

// Stats counts entries in this store only (no parent chain).
func (ti *TypeInfo) Stats() Stats {
	return Stats{
		Types:       len(ti.dict),
		Constexprs:  len(ti.constexprs),
		Invocations: len(ti.invocations),
		Imports:     len(ti.imports),
	}
}
