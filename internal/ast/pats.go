package ast

import (
	"ripple/internal/source"
)

// PatKind discriminates destructuring tree nodes.
type PatKind uint8

const (
	PatInvalid PatKind = iota
	PatName
	PatWildcard
	PatLiteral // number or colon-ref compared for equality
	PatTuple
)

type Pat struct {
	Kind    PatKind
	Span    source.Span
	Payload PayloadID
}

type PatNameData struct {
	Def NameDefID
}

type PatLiteralData struct {
	Expr ExprID
}

type PatTupleData struct {
	Elems []PatID
}

// Pats manages allocation of destructuring trees.
type Pats struct {
	Arena    *Arena[Pat]
	Names    *Arena[PatNameData]
	Literals *Arena[PatLiteralData]
	Tuples   *Arena[PatTupleData]
}

func NewPats(capHint uint) *Pats {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Pats{
		Arena:    NewArena[Pat](capHint),
		Names:    NewArena[PatNameData](capHint),
		Literals: NewArena[PatLiteralData](capHint),
		Tuples:   NewArena[PatTupleData](capHint),
	}
}

func (p *Pats) new(kind PatKind, span source.Span, payload PayloadID) PatID {
	return PatID(p.Arena.Allocate(Pat{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (p *Pats) Get(id PatID) *Pat {
	return p.Arena.Get(uint32(id))
}

func (p *Pats) NewName(span source.Span, def NameDefID) PatID {
	payload := p.Names.Allocate(PatNameData{Def: def})
	return p.new(PatName, span, PayloadID(payload))
}

func (p *Pats) Name(id PatID) (*PatNameData, bool) {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatName {
		return nil, false
	}
	return p.Names.Get(uint32(pat.Payload)), true
}

func (p *Pats) NewWildcard(span source.Span) PatID {
	return p.new(PatWildcard, span, NoPayloadID)
}

func (p *Pats) NewLiteral(span source.Span, expr ExprID) PatID {
	payload := p.Literals.Allocate(PatLiteralData{Expr: expr})
	return p.new(PatLiteral, span, PayloadID(payload))
}

func (p *Pats) Literal(id PatID) (*PatLiteralData, bool) {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatLiteral {
		return nil, false
	}
	return p.Literals.Get(uint32(pat.Payload)), true
}

func (p *Pats) NewTuple(span source.Span, elems []PatID) PatID {
	payload := p.Tuples.Allocate(PatTupleData{Elems: elems})
	return p.new(PatTuple, span, PayloadID(payload))
}

func (p *Pats) Tuple(id PatID) (*PatTupleData, bool) {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatTuple {
		return nil, false
	}
	return p.Tuples.Get(uint32(pat.Payload)), true
}
