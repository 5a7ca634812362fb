package ast

import (
	"fmt"
)

// Finalize records the parent of every reachable node. Call once after the
// module is fully built (front ends do this before encoding; DecodeModule
// redoes it and cross-checks).
func (b *Builder) Finalize() error {
	parents, err := b.collectParents()
	if err != nil {
		return err
	}
	b.parents = parents
	return nil
}

// Parent returns the recorded parent of ref, or NoNodeRef for roots and
// unknown nodes.
func (b *Builder) Parent(ref NodeRef) NodeRef {
	return b.parents[ref]
}

// VerifyParentage re-walks the module and reports the first node whose
// recorded parent disagrees with the walk. Guards against hand-assembled or
// corrupted interchange files.
func (b *Builder) VerifyParentage() error {
	if b.parents == nil {
		return fmt.Errorf("module %s: parentage not finalized", b.Module.Name)
	}
	fresh, err := b.collectParents()
	if err != nil {
		return err
	}
	if len(fresh) != len(b.parents) {
		return fmt.Errorf("module %s: parent table has %d entries, walk found %d",
			b.Module.Name, len(b.parents), len(fresh))
	}
	for ref, parent := range fresh {
		if got := b.parents[ref]; got != parent {
			return fmt.Errorf("module %s: node %v records parent %v, walk found %v",
				b.Module.Name, ref, got, parent)
		}
	}
	return nil
}

func (b *Builder) collectParents() (map[NodeRef]NodeRef, error) {
	w := &parentWalker{b: b, parents: make(map[NodeRef]NodeRef)}
	root := ModuleRef()
	for _, m := range b.Module.Members {
		if err := w.walkMember(m, root); err != nil {
			return nil, err
		}
	}
	return w.parents, nil
}

type parentWalker struct {
	b       *Builder
	parents map[NodeRef]NodeRef
}

func (w *parentWalker) set(child, parent NodeRef) error {
	if prev, ok := w.parents[child]; ok && prev != parent {
		return fmt.Errorf("node %v reachable from both %v and %v", child, prev, parent)
	}
	w.parents[child] = parent
	return nil
}

func (w *parentWalker) walkMember(m Member, root NodeRef) error {
	switch m.Kind {
	case MemberFn, MemberTestFn:
		return w.walkFn(FnID(m.Index), root)
	case MemberProc, MemberTestProc:
		return w.walkProc(ProcID(m.Index), root)
	case MemberQuickCheck:
		qc := w.b.QuickChecks.Get(m.Index)
		if qc == nil {
			return fmt.Errorf("dangling quickcheck member %d", m.Index)
		}
		ref := QuickCheckRef(QuickCheckID(m.Index))
		if err := w.set(ref, root); err != nil {
			return err
		}
		return w.walkFn(qc.Fn, ref)
	case MemberStruct:
		return w.walkStruct(StructID(m.Index), root)
	case MemberEnum:
		return w.walkEnum(EnumID(m.Index), root)
	case MemberAlias:
		a := w.b.Aliases.Get(m.Index)
		if a == nil {
			return fmt.Errorf("dangling alias member %d", m.Index)
		}
		ref := AliasRef(AliasID(m.Index))
		if err := w.set(ref, root); err != nil {
			return err
		}
		if err := w.set(NameDefRef(a.Name), ref); err != nil {
			return err
		}
		return w.walkType(a.Type, ref)
	case MemberConstant:
		c := w.b.Constants.Get(m.Index)
		if c == nil {
			return fmt.Errorf("dangling constant member %d", m.Index)
		}
		ref := ConstantRef(ConstantID(m.Index))
		if err := w.set(ref, root); err != nil {
			return err
		}
		if err := w.set(NameDefRef(c.Name), ref); err != nil {
			return err
		}
		if c.Type.IsValid() {
			if err := w.walkType(c.Type, ref); err != nil {
				return err
			}
		}
		return w.walkExpr(c.Value, ref)
	case MemberImport:
		imp := w.b.Imports.Get(m.Index)
		if imp == nil {
			return fmt.Errorf("dangling import member %d", m.Index)
		}
		ref := ImportRef(ImportID(m.Index))
		if err := w.set(ref, root); err != nil {
			return err
		}
		return w.set(NameDefRef(imp.Alias), ref)
	case MemberConstAssert:
		ca := w.b.ConstAsserts.Get(m.Index)
		if ca == nil {
			return fmt.Errorf("dangling const assert member %d", m.Index)
		}
		ref := ConstAssertRef(ConstAssertID(m.Index))
		if err := w.set(ref, root); err != nil {
			return err
		}
		return w.walkExpr(ca.Arg, ref)
	}
	return fmt.Errorf("unknown member kind %d", m.Kind)
}

func (w *parentWalker) walkFn(id FnID, parent NodeRef) error {
	fn := w.b.Fns.Get(uint32(id))
	if fn == nil {
		return fmt.Errorf("dangling fn %d", id)
	}
	ref := FnRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(fn.Name), ref); err != nil {
		return err
	}
	for _, pb := range fn.Parametrics {
		if err := w.walkPBinding(pb, ref); err != nil {
			return err
		}
	}
	for _, p := range fn.Params {
		if err := w.walkParam(p, ref); err != nil {
			return err
		}
	}
	if fn.ReturnType.IsValid() {
		if err := w.walkType(fn.ReturnType, ref); err != nil {
			return err
		}
	}
	if fn.Body.IsValid() {
		return w.walkExpr(fn.Body, ref)
	}
	return nil
}

func (w *parentWalker) walkProc(id ProcID, parent NodeRef) error {
	p := w.b.Procs.Get(uint32(id))
	if p == nil {
		return fmt.Errorf("dangling proc %d", id)
	}
	ref := ProcRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(p.Name), ref); err != nil {
		return err
	}
	for _, pb := range p.Parametrics {
		if err := w.walkPBinding(pb, ref); err != nil {
			return err
		}
	}
	for _, pm := range p.Members {
		member := w.b.ProcMembers.Get(uint32(pm))
		if member == nil {
			return fmt.Errorf("dangling proc member %d", pm)
		}
		mref := ProcMemberRef(pm)
		if err := w.set(mref, ref); err != nil {
			return err
		}
		if err := w.set(NameDefRef(member.Name), mref); err != nil {
			return err
		}
		if err := w.walkType(member.Type, mref); err != nil {
			return err
		}
	}
	for _, fnID := range []FnID{p.Config, p.Init, p.Next} {
		if fnID.IsValid() {
			if err := w.walkFn(fnID, ref); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *parentWalker) walkStruct(id StructID, parent NodeRef) error {
	s := w.b.Structs.Get(uint32(id))
	if s == nil {
		return fmt.Errorf("dangling struct %d", id)
	}
	ref := StructRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(s.Name), ref); err != nil {
		return err
	}
	for _, pb := range s.Parametrics {
		if err := w.walkPBinding(pb, ref); err != nil {
			return err
		}
	}
	for _, f := range s.Fields {
		if err := w.set(NameDefRef(f.Name), ref); err != nil {
			return err
		}
		if err := w.walkType(f.Type, ref); err != nil {
			return err
		}
	}
	return nil
}

func (w *parentWalker) walkEnum(id EnumID, parent NodeRef) error {
	e := w.b.Enums.Get(uint32(id))
	if e == nil {
		return fmt.Errorf("dangling enum %d", id)
	}
	ref := EnumRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(e.Name), ref); err != nil {
		return err
	}
	if e.Underlying.IsValid() {
		if err := w.walkType(e.Underlying, ref); err != nil {
			return err
		}
	}
	for _, v := range e.Values {
		if err := w.set(NameDefRef(v.Name), ref); err != nil {
			return err
		}
		if err := w.walkExpr(v.Expr, ref); err != nil {
			return err
		}
	}
	return nil
}

func (w *parentWalker) walkPBinding(id PBindingID, parent NodeRef) error {
	pb := w.b.PBindings.Get(uint32(id))
	if pb == nil {
		return fmt.Errorf("dangling parametric binding %d", id)
	}
	ref := PBindingRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(pb.Name), ref); err != nil {
		return err
	}
	if err := w.walkType(pb.Type, ref); err != nil {
		return err
	}
	if pb.Expr.IsValid() {
		return w.walkExpr(pb.Expr, ref)
	}
	return nil
}

func (w *parentWalker) walkParam(id ParamID, parent NodeRef) error {
	p := w.b.Params.Get(uint32(id))
	if p == nil {
		return fmt.Errorf("dangling param %d", id)
	}
	ref := ParamRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	if err := w.set(NameDefRef(p.Name), ref); err != nil {
		return err
	}
	return w.walkType(p.Type, ref)
}

func (w *parentWalker) walkPat(id PatID, parent NodeRef) error {
	pat := w.b.Pats.Get(id)
	if pat == nil {
		return fmt.Errorf("dangling pattern %d", id)
	}
	ref := PatRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	switch pat.Kind {
	case PatName:
		data, _ := w.b.Pats.Name(id)
		return w.set(NameDefRef(data.Def), ref)
	case PatLiteral:
		data, _ := w.b.Pats.Literal(id)
		return w.walkExpr(data.Expr, ref)
	case PatTuple:
		data, _ := w.b.Pats.Tuple(id)
		for _, elem := range data.Elems {
			if err := w.walkPat(elem, ref); err != nil {
				return err
			}
		}
	case PatWildcard:
	}
	return nil
}

func (w *parentWalker) walkStmt(id StmtID, parent NodeRef) error {
	stmt := w.b.Stmts.Get(id)
	if stmt == nil {
		return fmt.Errorf("dangling statement %d", id)
	}
	ref := StmtRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	switch stmt.Kind {
	case StmtLet:
		data, _ := w.b.Stmts.Let(id)
		if err := w.walkPat(data.Pat, ref); err != nil {
			return err
		}
		if data.Type.IsValid() {
			if err := w.walkType(data.Type, ref); err != nil {
				return err
			}
		}
		return w.walkExpr(data.RHS, ref)
	case StmtConstAssert:
		data, _ := w.b.Stmts.ConstAssert(id)
		return w.walkExpr(data.Arg, ref)
	case StmtExpr:
		data, _ := w.b.Stmts.Expr(id)
		return w.walkExpr(data.Expr, ref)
	}
	return fmt.Errorf("unknown statement kind %d", stmt.Kind)
}

func (w *parentWalker) walkType(id TypeID, parent NodeRef) error {
	ann := w.b.Types.Get(id)
	if ann == nil {
		return fmt.Errorf("dangling type annotation %d", id)
	}
	ref := TypeAnnRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	switch ann.Kind {
	case TypeAnnBuiltin:
	case TypeAnnArray:
		data, _ := w.b.Types.Array(id)
		if err := w.walkType(data.Elem, ref); err != nil {
			return err
		}
		return w.walkExpr(data.Dim, ref)
	case TypeAnnTuple:
		data, _ := w.b.Types.Tuple(id)
		for _, member := range data.Members {
			if err := w.walkType(member, ref); err != nil {
				return err
			}
		}
	case TypeAnnName:
		data, _ := w.b.Types.Name(id)
		if err := w.walkExpr(data.Ref, ref); err != nil {
			return err
		}
		for _, p := range data.Parametrics {
			if err := w.walkExpr(p, ref); err != nil {
				return err
			}
		}
	case TypeAnnChannel:
		data, _ := w.b.Types.Channel(id)
		return w.walkType(data.Payload, ref)
	default:
		return fmt.Errorf("unknown type annotation kind %d", ann.Kind)
	}
	return nil
}

func (w *parentWalker) walkExpr(id ExprID, parent NodeRef) error {
	expr := w.b.Exprs.Get(id)
	if expr == nil {
		return fmt.Errorf("dangling expression %d", id)
	}
	ref := ExprRef(id)
	if err := w.set(ref, parent); err != nil {
		return err
	}
	walkChild := func(child ExprID) error {
		if child.IsValid() {
			return w.walkExpr(child, ref)
		}
		return nil
	}
	switch expr.Kind {
	case ExprNameRef, ExprString:
	case ExprColonRef:
		data, _ := w.b.Exprs.ColonRef(id)
		return walkChild(data.Subject)
	case ExprNumber:
		data, _ := w.b.Exprs.Number(id)
		if data.Type.IsValid() {
			return w.walkType(data.Type, ref)
		}
	case ExprBinop:
		data, _ := w.b.Exprs.Binop(id)
		if err := walkChild(data.LHS); err != nil {
			return err
		}
		return walkChild(data.RHS)
	case ExprUnop:
		data, _ := w.b.Exprs.Unop(id)
		return walkChild(data.Operand)
	case ExprInvocation:
		data, _ := w.b.Exprs.Invocation(id)
		if err := walkChild(data.Callee); err != nil {
			return err
		}
		for _, arg := range data.Args {
			if err := walkChild(arg); err != nil {
				return err
			}
		}
		for _, p := range data.Parametrics {
			if err := walkChild(p); err != nil {
				return err
			}
		}
		for _, ta := range data.TypeArgs {
			if err := w.walkType(ta, ref); err != nil {
				return err
			}
		}
	case ExprSpawn:
		data, _ := w.b.Exprs.Spawn(id)
		if err := walkChild(data.Callee); err != nil {
			return err
		}
		if err := walkChild(data.Config); err != nil {
			return err
		}
		return walkChild(data.Next)
	case ExprIndex:
		data, _ := w.b.Exprs.Index(id)
		if err := walkChild(data.Subject); err != nil {
			return err
		}
		if err := walkChild(data.Index); err != nil {
			return err
		}
		if err := walkChild(data.Start); err != nil {
			return err
		}
		if err := walkChild(data.Limit); err != nil {
			return err
		}
		if data.WidthType.IsValid() {
			return w.walkType(data.WidthType, ref)
		}
	case ExprConditional:
		data, _ := w.b.Exprs.Conditional(id)
		if err := walkChild(data.Test); err != nil {
			return err
		}
		if err := walkChild(data.Consequent); err != nil {
			return err
		}
		return walkChild(data.Alternate)
	case ExprMatch:
		data, _ := w.b.Exprs.Match(id)
		if err := walkChild(data.Matched); err != nil {
			return err
		}
		for _, arm := range data.Arms {
			for _, pat := range arm.Patterns {
				if err := w.walkPat(pat, ref); err != nil {
					return err
				}
			}
			if err := walkChild(arm.Expr); err != nil {
				return err
			}
		}
	case ExprFor:
		data, _ := w.b.Exprs.For(id)
		if err := w.walkPat(data.Names, ref); err != nil {
			return err
		}
		if data.Annot.IsValid() {
			if err := w.walkType(data.Annot, ref); err != nil {
				return err
			}
		}
		if err := walkChild(data.Iterable); err != nil {
			return err
		}
		if err := walkChild(data.Init); err != nil {
			return err
		}
		return walkChild(data.Body)
	case ExprCast:
		data, _ := w.b.Exprs.Cast(id)
		if err := walkChild(data.Expr); err != nil {
			return err
		}
		return w.walkType(data.Type, ref)
	case ExprArray:
		data, _ := w.b.Exprs.Array(id)
		if data.Type.IsValid() {
			if err := w.walkType(data.Type, ref); err != nil {
				return err
			}
		}
		for _, elem := range data.Elems {
			if err := walkChild(elem); err != nil {
				return err
			}
		}
	case ExprTuple:
		data, _ := w.b.Exprs.Tuple(id)
		for _, elem := range data.Elems {
			if err := walkChild(elem); err != nil {
				return err
			}
		}
	case ExprTupleIndex:
		data, _ := w.b.Exprs.TupleIndex(id)
		if err := walkChild(data.Subject); err != nil {
			return err
		}
		return walkChild(data.Index)
	case ExprStructInstance:
		data, _ := w.b.Exprs.StructInstance(id)
		if err := w.walkType(data.Struct, ref); err != nil {
			return err
		}
		for _, m := range data.Members {
			if err := walkChild(m.Expr); err != nil {
				return err
			}
		}
	case ExprSplatStructInstance:
		data, _ := w.b.Exprs.SplatStructInstance(id)
		if err := w.walkType(data.Struct, ref); err != nil {
			return err
		}
		for _, m := range data.Members {
			if err := walkChild(m.Expr); err != nil {
				return err
			}
		}
		return walkChild(data.Splatted)
	case ExprAttr:
		data, _ := w.b.Exprs.Attr(id)
		return walkChild(data.Subject)
	case ExprRange:
		data, _ := w.b.Exprs.Range(id)
		if err := walkChild(data.Start); err != nil {
			return err
		}
		return walkChild(data.Limit)
	case ExprBlock:
		data, _ := w.b.Exprs.Block(id)
		for _, stmt := range data.Stmts {
			if err := w.walkStmt(stmt, ref); err != nil {
				return err
			}
		}
	case ExprZeroMacro:
		data, _ := w.b.Exprs.ZeroMacro(id)
		return w.walkType(data.Type, ref)
	default:
		return fmt.Errorf("unknown expression kind %d", expr.Kind)
	}
	return nil
}
