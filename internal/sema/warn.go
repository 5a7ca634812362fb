package sema

import (
	"strings"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/types"
)

// useCollector gathers every name definition referenced from an expression
// tree, including references buried in type annotations and their dimension
// expressions.
type useCollector struct {
	b    *ast.Builder
	used map[ast.NameDefID]bool
}

func newUseCollector(b *ast.Builder) *useCollector {
	return &useCollector{b: b, used: make(map[ast.NameDefID]bool)}
}

func (u *useCollector) expr(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	e := u.b.Exprs.Get(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprNameRef:
		data, _ := u.b.Exprs.NameRef(id)
		if data.To.IsValid() {
			u.used[data.To] = true
		}
	case ast.ExprString:
	case ast.ExprColonRef:
		data, _ := u.b.Exprs.ColonRef(id)
		u.expr(data.Subject)
	case ast.ExprNumber:
		data, _ := u.b.Exprs.Number(id)
		u.typeAnn(data.Type)
	case ast.ExprBinop:
		data, _ := u.b.Exprs.Binop(id)
		u.expr(data.LHS)
		u.expr(data.RHS)
	case ast.ExprUnop:
		data, _ := u.b.Exprs.Unop(id)
		u.expr(data.Operand)
	case ast.ExprInvocation:
		data, _ := u.b.Exprs.Invocation(id)
		u.expr(data.Callee)
		for _, arg := range data.Args {
			u.expr(arg)
		}
		for _, p := range data.Parametrics {
			u.expr(p)
		}
		for _, ta := range data.TypeArgs {
			u.typeAnn(ta)
		}
	case ast.ExprSpawn:
		data, _ := u.b.Exprs.Spawn(id)
		u.expr(data.Callee)
		u.expr(data.Config)
		u.expr(data.Next)
	case ast.ExprIndex:
		data, _ := u.b.Exprs.Index(id)
		u.expr(data.Subject)
		u.expr(data.Index)
		u.expr(data.Start)
		u.expr(data.Limit)
		u.typeAnn(data.WidthType)
	case ast.ExprConditional:
		data, _ := u.b.Exprs.Conditional(id)
		u.expr(data.Test)
		u.expr(data.Consequent)
		u.expr(data.Alternate)
	case ast.ExprMatch:
		data, _ := u.b.Exprs.Match(id)
		u.expr(data.Matched)
		for _, arm := range data.Arms {
			for _, pat := range arm.Patterns {
				u.pat(pat)
			}
			u.expr(arm.Expr)
		}
	case ast.ExprFor:
		data, _ := u.b.Exprs.For(id)
		u.typeAnn(data.Annot)
		u.expr(data.Iterable)
		u.expr(data.Init)
		u.expr(data.Body)
	case ast.ExprCast:
		data, _ := u.b.Exprs.Cast(id)
		u.expr(data.Expr)
		u.typeAnn(data.Type)
	case ast.ExprArray:
		data, _ := u.b.Exprs.Array(id)
		u.typeAnn(data.Type)
		for _, elem := range data.Elems {
			u.expr(elem)
		}
	case ast.ExprTuple:
		data, _ := u.b.Exprs.Tuple(id)
		for _, elem := range data.Elems {
			u.expr(elem)
		}
	case ast.ExprTupleIndex:
		data, _ := u.b.Exprs.TupleIndex(id)
		u.expr(data.Subject)
		u.expr(data.Index)
	case ast.ExprStructInstance:
		data, _ := u.b.Exprs.StructInstance(id)
		u.typeAnn(data.Struct)
		for _, m := range data.Members {
			u.expr(m.Expr)
		}
	case ast.ExprSplatStructInstance:
		data, _ := u.b.Exprs.SplatStructInstance(id)
		u.typeAnn(data.Struct)
		for _, m := range data.Members {
			u.expr(m.Expr)
		}
		u.expr(data.Splatted)
	case ast.ExprAttr:
		data, _ := u.b.Exprs.Attr(id)
		u.expr(data.Subject)
	case ast.ExprRange:
		data, _ := u.b.Exprs.Range(id)
		u.expr(data.Start)
		u.expr(data.Limit)
	case ast.ExprBlock:
		data, _ := u.b.Exprs.Block(id)
		for _, sid := range data.Stmts {
			u.stmt(sid)
		}
	case ast.ExprZeroMacro:
		data, _ := u.b.Exprs.ZeroMacro(id)
		u.typeAnn(data.Type)
	}
}

func (u *useCollector) stmt(id ast.StmtID) {
	s := u.b.Stmts.Get(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtLet:
		data, _ := u.b.Stmts.Let(id)
		u.pat(data.Pat)
		u.typeAnn(data.Type)
		u.expr(data.RHS)
	case ast.StmtConstAssert:
		data, _ := u.b.Stmts.ConstAssert(id)
		u.expr(data.Arg)
	case ast.StmtExpr:
		data, _ := u.b.Stmts.Expr(id)
		u.expr(data.Expr)
	}
}

func (u *useCollector) pat(id ast.PatID) {
	p := u.b.Pats.Get(id)
	if p == nil {
		return
	}
	switch p.Kind {
	case ast.PatLiteral:
		data, _ := u.b.Pats.Literal(id)
		u.expr(data.Expr)
	case ast.PatTuple:
		data, _ := u.b.Pats.Tuple(id)
		for _, elem := range data.Elems {
			u.pat(elem)
		}
	}
}

func (u *useCollector) typeAnn(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	ann := u.b.Types.Get(id)
	if ann == nil {
		return
	}
	switch ann.Kind {
	case ast.TypeAnnArray:
		data, _ := u.b.Types.Array(id)
		u.typeAnn(data.Elem)
		u.expr(data.Dim)
	case ast.TypeAnnTuple:
		data, _ := u.b.Types.Tuple(id)
		for _, m := range data.Members {
			u.typeAnn(m)
		}
	case ast.TypeAnnName:
		data, _ := u.b.Types.Name(id)
		u.expr(data.Ref)
		for _, p := range data.Parametrics {
			u.expr(p)
		}
	case ast.TypeAnnChannel:
		data, _ := u.b.Types.Channel(id)
		u.typeAnn(data.Payload)
	}
}

// binderCollector gathers every name definition introduced inside a function
// body: let patterns, for loop patterns, and match arm patterns.
type binderCollector struct {
	b    *ast.Builder
	defs []ast.NameDefID
}

func (bc *binderCollector) expr(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	e := bc.b.Exprs.Get(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprColonRef:
		data, _ := bc.b.Exprs.ColonRef(id)
		bc.expr(data.Subject)
	case ast.ExprBinop:
		data, _ := bc.b.Exprs.Binop(id)
		bc.expr(data.LHS)
		bc.expr(data.RHS)
	case ast.ExprUnop:
		data, _ := bc.b.Exprs.Unop(id)
		bc.expr(data.Operand)
	case ast.ExprInvocation:
		data, _ := bc.b.Exprs.Invocation(id)
		for _, arg := range data.Args {
			bc.expr(arg)
		}
	case ast.ExprSpawn:
		data, _ := bc.b.Exprs.Spawn(id)
		bc.expr(data.Config)
		bc.expr(data.Next)
	case ast.ExprIndex:
		data, _ := bc.b.Exprs.Index(id)
		bc.expr(data.Subject)
		bc.expr(data.Index)
		bc.expr(data.Start)
		bc.expr(data.Limit)
	case ast.ExprConditional:
		data, _ := bc.b.Exprs.Conditional(id)
		bc.expr(data.Test)
		bc.expr(data.Consequent)
		bc.expr(data.Alternate)
	case ast.ExprMatch:
		data, _ := bc.b.Exprs.Match(id)
		bc.expr(data.Matched)
		for _, arm := range data.Arms {
			for _, pat := range arm.Patterns {
				bc.pat(pat)
			}
			bc.expr(arm.Expr)
		}
	case ast.ExprFor:
		data, _ := bc.b.Exprs.For(id)
		bc.pat(data.Names)
		bc.expr(data.Iterable)
		bc.expr(data.Init)
		bc.expr(data.Body)
	case ast.ExprCast:
		data, _ := bc.b.Exprs.Cast(id)
		bc.expr(data.Expr)
	case ast.ExprArray:
		data, _ := bc.b.Exprs.Array(id)
		for _, elem := range data.Elems {
			bc.expr(elem)
		}
	case ast.ExprTuple:
		data, _ := bc.b.Exprs.Tuple(id)
		for _, elem := range data.Elems {
			bc.expr(elem)
		}
	case ast.ExprTupleIndex:
		data, _ := bc.b.Exprs.TupleIndex(id)
		bc.expr(data.Subject)
	case ast.ExprStructInstance:
		data, _ := bc.b.Exprs.StructInstance(id)
		for _, m := range data.Members {
			bc.expr(m.Expr)
		}
	case ast.ExprSplatStructInstance:
		data, _ := bc.b.Exprs.SplatStructInstance(id)
		for _, m := range data.Members {
			bc.expr(m.Expr)
		}
		bc.expr(data.Splatted)
	case ast.ExprAttr:
		data, _ := bc.b.Exprs.Attr(id)
		bc.expr(data.Subject)
	case ast.ExprRange:
		data, _ := bc.b.Exprs.Range(id)
		bc.expr(data.Start)
		bc.expr(data.Limit)
	case ast.ExprBlock:
		data, _ := bc.b.Exprs.Block(id)
		for _, sid := range data.Stmts {
			s := bc.b.Stmts.Get(sid)
			if s == nil {
				continue
			}
			switch s.Kind {
			case ast.StmtLet:
				let, _ := bc.b.Stmts.Let(sid)
				bc.pat(let.Pat)
				bc.expr(let.RHS)
			case ast.StmtConstAssert:
				ca, _ := bc.b.Stmts.ConstAssert(sid)
				bc.expr(ca.Arg)
			case ast.StmtExpr:
				se, _ := bc.b.Stmts.Expr(sid)
				bc.expr(se.Expr)
			}
		}
	}
}

func (bc *binderCollector) pat(id ast.PatID) {
	p := bc.b.Pats.Get(id)
	if p == nil {
		return
	}
	switch p.Kind {
	case ast.PatName:
		data, _ := bc.b.Pats.Name(id)
		bc.defs = append(bc.defs, data.Def)
	case ast.PatTuple:
		data, _ := bc.b.Pats.Tuple(id)
		for _, elem := range data.Elems {
			bc.pat(elem)
		}
	}
}

// warnUnusedInFn reports definitions inside a checked function body that no
// name reference ever reads. Names starting with an underscore and
// token-typed values opt out.
func warnUnusedInFn(ctx *DeduceCtx, id ast.FnID) {
	fn := ctx.B.Fns.Get(uint32(id))
	fnName := ctx.B.NameDefText(fn.Name)

	uses := newUseCollector(ctx.B)
	uses.expr(fn.Body)

	var defs []ast.NameDefID
	for _, paramID := range fn.Params {
		defs = append(defs, ctx.B.Params.Get(uint32(paramID)).Name)
	}
	binders := &binderCollector{b: ctx.B}
	binders.expr(fn.Body)
	defs = append(defs, binders.defs...)

	for _, def := range defs {
		if uses.used[def] {
			continue
		}
		name := ctx.B.NameDefText(def)
		if name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		t, ok := ctx.TI.GetType(ast.NameDefRef(def))
		if !ok {
			continue
		}
		if _, isToken := t.(*types.TokenType); isToken {
			continue
		}
		nd := ctx.B.NameDefs.Get(uint32(def))
		ctx.warn(diag.WarnUnusedDefinition, nd.Span,
			"Definition of `%s` (type `%s`) is not used in function `%s`", name, t, fnName)
	}
}

// warnUnusedParametrics reports parametric bindings of a function whose body
// is only checked per instantiation. The scan is purely syntactic: a binding
// counts as used when any name reference in the signature, another binding's
// default, or the body resolves to it.
func warnUnusedParametrics(ctx *DeduceCtx, id ast.FnID) {
	fn := ctx.B.Fns.Get(uint32(id))
	fnName := ctx.B.NameDefText(fn.Name)

	uses := newUseCollector(ctx.B)
	for _, paramID := range fn.Params {
		uses.typeAnn(ctx.B.Params.Get(uint32(paramID)).Type)
	}
	uses.typeAnn(fn.ReturnType)
	for _, pbID := range fn.Parametrics {
		pb := ctx.B.PBindings.Get(uint32(pbID))
		uses.expr(pb.Expr)
	}
	uses.expr(fn.Body)

	for _, pbID := range fn.Parametrics {
		pb := ctx.B.PBindings.Get(uint32(pbID))
		if uses.used[pb.Name] {
			continue
		}
		name := ctx.B.NameDefText(pb.Name)
		if strings.HasPrefix(name, "_") {
			continue
		}
		ctx.warn(diag.WarnUnusedParametricBinding, pb.Span,
			"Parametric binding `%s` is not used in function `%s`", name, fnName)
	}
}
