package sema

import (
	"fmt"
	"strings"

	"ripple/internal/ast"
)

// exprText renders an expression back into compact source form for
// diagnostics. Shapes that never appear in the positions we render from
// fall back to an ellipsis.
func exprText(b *ast.Builder, id ast.ExprID) string {
	e := b.Exprs.Get(id)
	if e == nil {
		return "..."
	}
	switch e.Kind {
	case ast.ExprNameRef:
		data, _ := b.Exprs.NameRef(id)
		return b.Str(data.Name)
	case ast.ExprColonRef:
		data, _ := b.Exprs.ColonRef(id)
		return exprText(b, data.Subject) + "::" + b.Str(data.Attr)
	case ast.ExprNumber:
		data, _ := b.Exprs.Number(id)
		if data.Type.IsValid() {
			return typeAnnText(b, data.Type) + ":" + b.Str(data.Text)
		}
		return b.Str(data.Text)
	case ast.ExprBinop:
		data, _ := b.Exprs.Binop(id)
		return exprText(b, data.LHS) + " " + data.Op.String() + " " + exprText(b, data.RHS)
	case ast.ExprUnop:
		data, _ := b.Exprs.Unop(id)
		return data.Op.String() + exprText(b, data.Operand)
	case ast.ExprRange:
		data, _ := b.Exprs.Range(id)
		op := ".."
		if data.Inclusive {
			op = "..="
		}
		return exprText(b, data.Start) + op + exprText(b, data.Limit)
	case ast.ExprTuple:
		data, _ := b.Exprs.Tuple(id)
		parts := make([]string, len(data.Elems))
		for i, elem := range data.Elems {
			parts[i] = exprText(b, elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "..."
}

func typeAnnText(b *ast.Builder, id ast.TypeID) string {
	ann := b.Types.Get(id)
	if ann == nil {
		return "..."
	}
	switch ann.Kind {
	case ast.TypeAnnBuiltin:
		data, _ := b.Types.Builtin(id)
		if data.Token {
			return "token"
		}
		if data.Signed {
			return fmt.Sprintf("s%d", data.Width)
		}
		return fmt.Sprintf("u%d", data.Width)
	case ast.TypeAnnArray:
		data, _ := b.Types.Array(id)
		return typeAnnText(b, data.Elem) + "[" + exprText(b, data.Dim) + "]"
	case ast.TypeAnnName:
		data, _ := b.Types.Name(id)
		return exprText(b, data.Ref)
	}
	return "..."
}

// patternText renders a match pattern; syntactically identical arms render
// to identical strings.
func patternText(b *ast.Builder, id ast.PatID) string {
	p := b.Pats.Get(id)
	if p == nil {
		return "..."
	}
	switch p.Kind {
	case ast.PatWildcard:
		return "_"
	case ast.PatName:
		data, _ := b.Pats.Name(id)
		return b.NameDefText(data.Def)
	case ast.PatLiteral:
		data, _ := b.Pats.Literal(id)
		return exprText(b, data.Expr)
	case ast.PatTuple:
		data, _ := b.Pats.Tuple(id)
		parts := make([]string, len(data.Elems))
		for i, elem := range data.Elems {
			parts[i] = patternText(b, elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "..."
}

func armPatternsText(b *ast.Builder, pats []ast.PatID) string {
	parts := make([]string, len(pats))
	for i, pid := range pats {
		parts[i] = patternText(b, pid)
	}
	return strings.Join(parts, " | ")
}
