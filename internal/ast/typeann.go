package ast

import (
	"ripple/internal/source"
)

// TypeAnnKind discriminates type annotation payloads.
type TypeAnnKind uint8

const (
	TypeAnnInvalid TypeAnnKind = iota
	TypeAnnBuiltin
	TypeAnnArray
	TypeAnnTuple
	TypeAnnName
	TypeAnnChannel
)

type TypeAnn struct {
	Kind    TypeAnnKind
	Span    source.Span
	Payload PayloadID
}

// TypeAnnBuiltinData is one of the uN/sN shorthand family, bool, or token.
// bool is uN[1]; Token has no width.
type TypeAnnBuiltinData struct {
	Signed bool
	Width  uint32
	Token  bool
}

type TypeAnnArrayData struct {
	Elem TypeID
	Dim  ExprID
}

type TypeAnnTupleData struct {
	Members []TypeID
}

// TypeAnnNameData references a struct, enum, or alias definition, with
// explicit parametric values for parametric structs.
type TypeAnnNameData struct {
	Ref         ExprID // NameRef or ColonRef
	Parametrics []ExprID
}

type TypeAnnChannelData struct {
	Payload TypeID
	Dir     ChannelDir
}

// TypeAnns manages allocation of type annotations.
type TypeAnns struct {
	Arena    *Arena[TypeAnn]
	Builtins *Arena[TypeAnnBuiltinData]
	Arrays   *Arena[TypeAnnArrayData]
	Tuples   *Arena[TypeAnnTupleData]
	Names    *Arena[TypeAnnNameData]
	Channels *Arena[TypeAnnChannelData]
}

func NewTypeAnns(capHint uint) *TypeAnns {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &TypeAnns{
		Arena:    NewArena[TypeAnn](capHint),
		Builtins: NewArena[TypeAnnBuiltinData](capHint),
		Arrays:   NewArena[TypeAnnArrayData](capHint),
		Tuples:   NewArena[TypeAnnTupleData](capHint),
		Names:    NewArena[TypeAnnNameData](capHint),
		Channels: NewArena[TypeAnnChannelData](capHint),
	}
}

func (t *TypeAnns) new(kind TypeAnnKind, span source.Span, payload PayloadID) TypeID {
	return TypeID(t.Arena.Allocate(TypeAnn{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (t *TypeAnns) Get(id TypeID) *TypeAnn {
	return t.Arena.Get(uint32(id))
}

// Span returns the span of id, or the zero span for an invalid ID.
func (t *TypeAnns) Span(id TypeID) source.Span {
	if h := t.Get(id); h != nil {
		return h.Span
	}
	return source.Span{}
}

// NewBits creates a uN[width] or sN[width] shorthand annotation.
func (t *TypeAnns) NewBits(span source.Span, signed bool, width uint32) TypeID {
	payload := t.Builtins.Allocate(TypeAnnBuiltinData{Signed: signed, Width: width})
	return t.new(TypeAnnBuiltin, span, PayloadID(payload))
}

// NewToken creates a token annotation.
func (t *TypeAnns) NewToken(span source.Span) TypeID {
	payload := t.Builtins.Allocate(TypeAnnBuiltinData{Token: true})
	return t.new(TypeAnnBuiltin, span, PayloadID(payload))
}

func (t *TypeAnns) Builtin(id TypeID) (*TypeAnnBuiltinData, bool) {
	ann := t.Get(id)
	if ann == nil || ann.Kind != TypeAnnBuiltin {
		return nil, false
	}
	return t.Builtins.Get(uint32(ann.Payload)), true
}

func (t *TypeAnns) NewArray(span source.Span, elem TypeID, dim ExprID) TypeID {
	payload := t.Arrays.Allocate(TypeAnnArrayData{Elem: elem, Dim: dim})
	return t.new(TypeAnnArray, span, PayloadID(payload))
}

func (t *TypeAnns) Array(id TypeID) (*TypeAnnArrayData, bool) {
	ann := t.Get(id)
	if ann == nil || ann.Kind != TypeAnnArray {
		return nil, false
	}
	return t.Arrays.Get(uint32(ann.Payload)), true
}

func (t *TypeAnns) NewTuple(span source.Span, members []TypeID) TypeID {
	payload := t.Tuples.Allocate(TypeAnnTupleData{Members: members})
	return t.new(TypeAnnTuple, span, PayloadID(payload))
}

func (t *TypeAnns) Tuple(id TypeID) (*TypeAnnTupleData, bool) {
	ann := t.Get(id)
	if ann == nil || ann.Kind != TypeAnnTuple {
		return nil, false
	}
	return t.Tuples.Get(uint32(ann.Payload)), true
}

func (t *TypeAnns) NewName(span source.Span, ref ExprID, parametrics []ExprID) TypeID {
	payload := t.Names.Allocate(TypeAnnNameData{Ref: ref, Parametrics: parametrics})
	return t.new(TypeAnnName, span, PayloadID(payload))
}

func (t *TypeAnns) Name(id TypeID) (*TypeAnnNameData, bool) {
	ann := t.Get(id)
	if ann == nil || ann.Kind != TypeAnnName {
		return nil, false
	}
	return t.Names.Get(uint32(ann.Payload)), true
}

func (t *TypeAnns) NewChannel(span source.Span, payloadType TypeID, dir ChannelDir) TypeID {
	payload := t.Channels.Allocate(TypeAnnChannelData{Payload: payloadType, Dir: dir})
	return t.new(TypeAnnChannel, span, PayloadID(payload))
}

func (t *TypeAnns) Channel(id TypeID) (*TypeAnnChannelData, bool) {
	ann := t.Get(id)
	if ann == nil || ann.Kind != TypeAnnChannel {
		return nil, false
	}
	return t.Channels.Get(uint32(ann.Payload)), true
}
