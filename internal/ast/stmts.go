package ast

import (
	"ripple/internal/source"
)

// StmtKind discriminates statement payloads inside a block.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtLet
	StmtConstAssert
	StmtExpr
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// StmtLetData is `let pat: T = rhs;`. Type may be absent.
type StmtLetData struct {
	Pat  PatID
	Type TypeID
	RHS  ExprID
}

type StmtConstAssertData struct {
	Arg ExprID
}

type StmtExprData struct {
	Expr ExprID
}

// Stmts manages allocation of statements.
type Stmts struct {
	Arena        *Arena[Stmt]
	Lets         *Arena[StmtLetData]
	ConstAsserts *Arena[StmtConstAssertData]
	Exprs        *Arena[StmtExprData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Stmts{
		Arena:        NewArena[Stmt](capHint),
		Lets:         NewArena[StmtLetData](capHint),
		ConstAsserts: NewArena[StmtConstAssertData](capHint),
		Exprs:        NewArena[StmtExprData](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewLet(span source.Span, pat PatID, typ TypeID, rhs ExprID) StmtID {
	payload := s.Lets.Allocate(StmtLetData{Pat: pat, Type: typ, RHS: rhs})
	return s.new(StmtLet, span, PayloadID(payload))
}

func (s *Stmts) Let(id StmtID) (*StmtLetData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtLet {
		return nil, false
	}
	return s.Lets.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewConstAssert(span source.Span, arg ExprID) StmtID {
	payload := s.ConstAsserts.Allocate(StmtConstAssertData{Arg: arg})
	return s.new(StmtConstAssert, span, PayloadID(payload))
}

func (s *Stmts) ConstAssert(id StmtID) (*StmtConstAssertData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtConstAssert {
		return nil, false
	}
	return s.ConstAsserts.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	payload := s.Exprs.Allocate(StmtExprData{Expr: expr})
	return s.new(StmtExpr, span, PayloadID(payload))
}

func (s *Stmts) Expr(id StmtID) (*StmtExprData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil, false
	}
	return s.Exprs.Get(uint32(stmt.Payload)), true
}
