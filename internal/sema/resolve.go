package sema

import (
	"ripple/internal/ast"
	"ripple/internal/interp"
	"ripple/internal/source"
	"ripple/internal/typeinfo"
	"ripple/internal/types"
)

// subjectResolution is what the left side of a `::` resolves to: either an
// imported module namespace, or a type defined in some module. The module
// and info fields always name the defining module.
type subjectResolution struct {
	module *ast.Builder
	info   *typeinfo.TypeInfo
	typ    types.Type // nil for a module namespace
}

// resolveColonSubject resolves the subject expression of a colon reference.
// Subjects are name references to imports, enums, or aliases, or nested
// colon references reaching a type through an imported module.
func resolveColonSubject(ctx *DeduceCtx, id ast.ExprID) (subjectResolution, error) {
	span := ctx.exprSpan(id)
	if data, ok := ctx.B.Exprs.NameRef(id); ok {
		if !data.To.IsValid() {
			return subjectResolution{}, internalErrorf(span,
				"unresolved name reference '%s'", ctx.B.Str(data.Name))
		}
		def := ctx.B.NameDefs.Get(uint32(data.To))
		if def.Definer.Kind == ast.NodeImport {
			imp, has := ctx.TI.Root().GetImport(ast.ImportID(def.Definer.Index))
			if !has {
				return subjectResolution{}, internalErrorf(span,
					"import '%s' was not loaded", ctx.B.Str(data.Name))
			}
			return subjectResolution{module: imp.Module, info: imp.Info}, nil
		}
		t, has := ctx.TI.GetType(ast.NameDefRef(data.To))
		if !has {
			return subjectResolution{}, inferenceErrorf(span, nil,
				"Could not determine type of name '%s'", ctx.B.Str(data.Name))
		}
		inner, err := types.UnwrapMeta(t)
		if err != nil {
			return subjectResolution{}, inferenceErrorf(span, t, "%s", err)
		}
		return subjectResolution{module: ctx.B, info: ctx.TI, typ: inner}, nil
	}
	if data, ok := ctx.B.Exprs.ColonRef(id); ok {
		sub, err := resolveColonSubject(ctx, data.Subject)
		if err != nil {
			return subjectResolution{}, err
		}
		if sub.typ != nil {
			return subjectResolution{}, inferenceErrorf(span, sub.typ,
				"Cannot use '::' on a value of type %s", sub.typ)
		}
		attr := ctx.B.Str(data.Attr)
		member, found := sub.module.FindMember(attr)
		if !found {
			return subjectResolution{}, inferenceErrorf(span, nil,
				"Name '%s' does not exist in module '%s'", attr, sub.module.Module.Name)
		}
		t, perr := moduleMemberMeta(span, sub, member, attr)
		if perr != nil {
			return subjectResolution{}, perr
		}
		inner, err := types.UnwrapMeta(t)
		if err != nil {
			return subjectResolution{}, inferenceErrorf(span, t, "%s", err)
		}
		return subjectResolution{module: sub.module, info: sub.info, typ: inner}, nil
	}
	return subjectResolution{}, inferenceErrorf(span, nil,
		"Invalid subject for '::' reference")
}

// moduleMemberMeta returns the recorded (meta) type of a type-shaped member
// of an imported module.
func moduleMemberMeta(span source.Span, sub subjectResolution, member ast.Member, attr string) (types.Type, error) {
	if err := checkMemberPublic(span, sub.module, member, attr); err != nil {
		return nil, err
	}
	var def ast.NameDefID
	switch member.Kind {
	case ast.MemberStruct:
		def = sub.module.Structs.Get(member.Index).Name
	case ast.MemberEnum:
		def = sub.module.Enums.Get(member.Index).Name
	case ast.MemberAlias:
		def = sub.module.Aliases.Get(member.Index).Name
	default:
		return nil, inferenceErrorf(span, nil,
			"Module member '%s' is not a type", attr)
	}
	t, ok := sub.info.Root().GetType(ast.NameDefRef(def))
	if !ok {
		return nil, internalErrorf(span, "module member '%s' has no recorded type", attr)
	}
	return t, nil
}

// moduleMemberType resolves a value-shaped member access (constant or
// non-parametric function) on an imported module, along with its constexpr
// value when it has one. Type-shaped members yield their meta type so named
// annotations can consume them.
func moduleMemberType(ctx *DeduceCtx, span source.Span, sub subjectResolution, attr string) (types.Type, interp.Value, bool, error) {
	member, found := sub.module.FindMember(attr)
	if !found {
		return nil, interp.Value{}, false, inferenceErrorf(span, nil,
			"Name '%s' does not exist in module '%s'", attr, sub.module.Module.Name)
	}
	if err := checkMemberPublic(span, sub.module, member, attr); err != nil {
		return nil, interp.Value{}, false, err
	}
	switch member.Kind {
	case ast.MemberConstant:
		c := sub.module.Constants.Get(member.Index)
		t, ok := sub.info.Root().GetType(ast.NameDefRef(c.Name))
		if !ok {
			return nil, interp.Value{}, false, internalErrorf(span,
				"constant '%s' has no recorded type", attr)
		}
		v, hasV := sub.info.Root().GetConstexpr(ast.NameDefRef(c.Name))
		return t, v, hasV, nil
	case ast.MemberFn:
		fn := sub.module.Fns.Get(member.Index)
		if len(fn.Parametrics) > 0 {
			return nil, interp.Value{}, false, inferenceErrorf(span, nil,
				"Name '%s' is a parametric function, but it is not being invoked", attr)
		}
		t, ok := sub.info.Root().GetType(ast.NameDefRef(fn.Name))
		if !ok {
			return nil, interp.Value{}, false, internalErrorf(span,
				"function '%s' has no recorded type", attr)
		}
		return t, interp.Value{}, false, nil
	case ast.MemberStruct, ast.MemberEnum, ast.MemberAlias:
		t, err := moduleMemberMeta(span, sub, member, attr)
		if err != nil {
			return nil, interp.Value{}, false, err
		}
		return t, interp.Value{}, false, nil
	}
	return nil, interp.Value{}, false, inferenceErrorf(span, nil,
		"Module member '%s' cannot be used as a value", attr)
}

func checkMemberPublic(span source.Span, b *ast.Builder, member ast.Member, attr string) error {
	public := true
	switch member.Kind {
	case ast.MemberFn:
		public = b.Fns.Get(member.Index).Public
	case ast.MemberProc:
		public = b.Procs.Get(member.Index).Public
	case ast.MemberStruct:
		public = b.Structs.Get(member.Index).Public
	case ast.MemberEnum:
		public = b.Enums.Get(member.Index).Public
	case ast.MemberAlias:
		public = b.Aliases.Get(member.Index).Public
	case ast.MemberConstant:
		public = b.Constants.Get(member.Index).Public
	}
	if !public {
		return inferenceErrorf(span,
			nil, "Attempted to refer to module member '%s' that is not public", attr)
	}
	return nil
}

// calleeFn is the resolution of an invocation callee to a user-defined
// function: which module defines it and in which store its facts live.
type calleeFn struct {
	fn     ast.FnID
	module *ast.Builder
	info   *typeinfo.TypeInfo
}

// resolveCalleeFn resolves an invocation callee expression to either a
// builtin or a function, possibly in an imported module.
func resolveCalleeFn(ctx *DeduceCtx, id ast.ExprID) (callee calleeFn, builtin ast.BuiltinFn, err error) {
	span := ctx.exprSpan(id)
	if data, ok := ctx.B.Exprs.NameRef(id); ok {
		if data.Builtin != ast.BuiltinNone {
			return calleeFn{}, data.Builtin, nil
		}
		if !data.To.IsValid() {
			return calleeFn{}, ast.BuiltinNone, internalErrorf(span,
				"unresolved callee '%s'", ctx.B.Str(data.Name))
		}
		def := ctx.B.NameDefs.Get(uint32(data.To))
		if def.Definer.Kind != ast.NodeFn {
			// A let-bound function value; typed invocation of those goes
			// through the value's function type.
			return calleeFn{}, ast.BuiltinNone, inferenceErrorf(span, nil,
				"Invocation callee '%s' is not a function", ctx.B.Str(data.Name))
		}
		return calleeFn{
			fn:     ast.FnID(def.Definer.Index),
			module: ctx.B,
			info:   ctx.TI,
		}, ast.BuiltinNone, nil
	}
	if data, ok := ctx.B.Exprs.ColonRef(id); ok {
		sub, serr := resolveColonSubject(ctx, data.Subject)
		if serr != nil {
			return calleeFn{}, ast.BuiltinNone, serr
		}
		if sub.typ != nil {
			return calleeFn{}, ast.BuiltinNone, inferenceErrorf(span, sub.typ,
				"Cannot invoke a member of type %s", sub.typ)
		}
		attr := ctx.B.Str(data.Attr)
		member, found := sub.module.FindMember(attr)
		if !found {
			return calleeFn{}, ast.BuiltinNone, inferenceErrorf(span, nil,
				"Name '%s' does not exist in module '%s'", attr, sub.module.Module.Name)
		}
		if member.Kind != ast.MemberFn {
			return calleeFn{}, ast.BuiltinNone, inferenceErrorf(span, nil,
				"Module member '%s' is not a function", attr)
		}
		if perr := checkMemberPublic(span, sub.module, member, attr); perr != nil {
			return calleeFn{}, ast.BuiltinNone, perr
		}
		return calleeFn{
			fn:     ast.FnID(member.Index),
			module: sub.module,
			info:   sub.info,
		}, ast.BuiltinNone, nil
	}
	return calleeFn{}, ast.BuiltinNone, inferenceErrorf(span, nil,
		"Invocation callee must be a name or a module member reference")
}

// resolveCalleeProc resolves a spawn callee to a proc definition.
func resolveCalleeProc(ctx *DeduceCtx, id ast.ExprID) (ast.ProcID, *ast.Builder, *typeinfo.TypeInfo, error) {
	span := ctx.exprSpan(id)
	if data, ok := ctx.B.Exprs.NameRef(id); ok {
		if !data.To.IsValid() {
			return ast.NoProcID, nil, nil, internalErrorf(span,
				"unresolved spawn callee '%s'", ctx.B.Str(data.Name))
		}
		def := ctx.B.NameDefs.Get(uint32(data.To))
		if def.Definer.Kind != ast.NodeProc {
			return ast.NoProcID, nil, nil, inferenceErrorf(span, nil,
				"Spawn callee '%s' is not a proc", ctx.B.Str(data.Name))
		}
		return ast.ProcID(def.Definer.Index), ctx.B, ctx.TI, nil
	}
	if data, ok := ctx.B.Exprs.ColonRef(id); ok {
		sub, serr := resolveColonSubject(ctx, data.Subject)
		if serr != nil {
			return ast.NoProcID, nil, nil, serr
		}
		if sub.typ != nil {
			return ast.NoProcID, nil, nil, inferenceErrorf(span, sub.typ,
				"Spawn callee must be a proc, not a member of type %s", sub.typ)
		}
		attr := ctx.B.Str(data.Attr)
		member, found := sub.module.FindMember(attr)
		if !found || member.Kind != ast.MemberProc {
			return ast.NoProcID, nil, nil, inferenceErrorf(span, nil,
				"Proc '%s' does not exist in module '%s'", attr, sub.module.Module.Name)
		}
		if perr := checkMemberPublic(span, sub.module, member, attr); perr != nil {
			return ast.NoProcID, nil, nil, perr
		}
		return ast.ProcID(member.Index), sub.module, sub.info, nil
	}
	return ast.NoProcID, nil, nil, inferenceErrorf(span, nil,
		"Spawn callee must be a name or a module member reference")
}
