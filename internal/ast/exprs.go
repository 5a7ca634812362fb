package ast

import (
	"ripple/internal/source"
)

// ExprKind discriminates expression payloads.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprNameRef
	ExprColonRef
	ExprNumber
	ExprString
	ExprBinop
	ExprUnop
	ExprInvocation
	ExprSpawn
	ExprIndex
	ExprConditional
	ExprMatch
	ExprFor
	ExprCast
	ExprArray
	ExprTuple
	ExprTupleIndex
	ExprStructInstance
	ExprSplatStructInstance
	ExprAttr
	ExprRange
	ExprBlock
	ExprZeroMacro
)

// Expr is the header shared by all expressions; payloads live in per-kind
// arenas indexed by Payload.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprNameRefData is a use of a name. Exactly one of To and Builtin is set.
type ExprNameRefData struct {
	Name    source.StringID
	To      NameDefID
	Builtin BuiltinFn
}

// ExprColonRefData is `subject::attr`. Subject is a NameRef or ColonRef.
type ExprColonRefData struct {
	Subject ExprID
	Attr    source.StringID
}

// ExprNumberData keeps the literal text; Type is set for prefixed literals
// like `u8:42`.
type ExprNumberData struct {
	Kind NumberKind
	Text source.StringID
	Type TypeID
}

type ExprStringData struct {
	Value source.StringID
}

type ExprBinopData struct {
	Op  BinopKind
	LHS ExprID
	RHS ExprID
}

type ExprUnopData struct {
	Op      UnopKind
	Operand ExprID
}

// ExprInvocationData is a call. Parametrics are the explicit `<...>` value
// arguments; TypeArgs carry explicit type arguments for builtins that take
// them, e.g. widening_cast.
type ExprInvocationData struct {
	Callee      ExprID
	Args        []ExprID
	Parametrics []ExprID
	TypeArgs    []TypeID
}

// ExprSpawnData carries the config and next invocations of a proc spawn.
type ExprSpawnData struct {
	Callee ExprID
	Config ExprID
	Next   ExprID
}

// ExprIndexData is subject[...] in one of three shapes. Index is set for
// IndexPlain; Start/Limit (either may be absent) for IndexSlice; Start and
// WidthType for IndexWidthSlice.
type ExprIndexData struct {
	Subject   ExprID
	Kind      IndexKind
	Index     ExprID
	Start     ExprID
	Limit     ExprID
	WidthType TypeID
}

type ExprConditionalData struct {
	Test       ExprID
	Consequent ExprID
	Alternate  ExprID
}

// MatchArm pairs one or more patterns with a result expression.
type MatchArm struct {
	Span     source.Span
	Patterns []PatID
	Expr     ExprID
}

type ExprMatchData struct {
	Matched ExprID
	Arms    []MatchArm
}

// ExprForData is a counted loop: Names binds (induction var, accumulator),
// Annot optionally types that tuple, Init seeds the accumulator.
type ExprForData struct {
	Names    PatID
	Annot    TypeID
	Iterable ExprID
	Init     ExprID
	Body     ExprID
}

type ExprCastData struct {
	Expr ExprID
	Type TypeID
}

// ExprArrayData is an array literal; HasEllipsis repeats the last element.
type ExprArrayData struct {
	Elems       []ExprID
	HasEllipsis bool
	Type        TypeID
}

type ExprTupleData struct {
	Elems []ExprID
}

// ExprTupleIndexData is subject.N where Index is a number literal.
type ExprTupleIndexData struct {
	Subject ExprID
	Index   ExprID
}

// StructInstanceMember is one `name: expr` item of a struct instantiation.
type StructInstanceMember struct {
	Span source.Span
	Name source.StringID
	Expr ExprID
}

type ExprStructInstanceData struct {
	Struct  TypeID
	Members []StructInstanceMember
}

// ExprSplatStructInstanceData is `S { a: e, ..rest }`.
type ExprSplatStructInstanceData struct {
	Struct   TypeID
	Members  []StructInstanceMember
	Splatted ExprID
}

type ExprAttrData struct {
	Subject ExprID
	Name    source.StringID
}

type ExprRangeData struct {
	Start     ExprID
	Limit     ExprID
	Inclusive bool
}

type ExprBlockData struct {
	Stmts        []StmtID
	TrailingSemi bool
}

type ExprZeroMacroData struct {
	Type TypeID
}

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena          *Arena[Expr]
	NameRefs       *Arena[ExprNameRefData]
	ColonRefs      *Arena[ExprColonRefData]
	Numbers        *Arena[ExprNumberData]
	Strings        *Arena[ExprStringData]
	Binops         *Arena[ExprBinopData]
	Unops          *Arena[ExprUnopData]
	Invocations    *Arena[ExprInvocationData]
	Spawns         *Arena[ExprSpawnData]
	Indexes        *Arena[ExprIndexData]
	Conditionals   *Arena[ExprConditionalData]
	Matches        *Arena[ExprMatchData]
	Fors           *Arena[ExprForData]
	Casts          *Arena[ExprCastData]
	Arrays         *Arena[ExprArrayData]
	Tuples         *Arena[ExprTupleData]
	TupleIndexes   *Arena[ExprTupleIndexData]
	StructInsts    *Arena[ExprStructInstanceData]
	SplatInsts     *Arena[ExprSplatStructInstanceData]
	Attrs          *Arena[ExprAttrData]
	Ranges         *Arena[ExprRangeData]
	Blocks         *Arena[ExprBlockData]
	ZeroMacros     *Arena[ExprZeroMacroData]
}

// NewExprs creates Exprs with per-kind arenas preallocated to capHint.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:        NewArena[Expr](capHint),
		NameRefs:     NewArena[ExprNameRefData](capHint),
		ColonRefs:    NewArena[ExprColonRefData](capHint),
		Numbers:      NewArena[ExprNumberData](capHint),
		Strings:      NewArena[ExprStringData](capHint),
		Binops:       NewArena[ExprBinopData](capHint),
		Unops:        NewArena[ExprUnopData](capHint),
		Invocations:  NewArena[ExprInvocationData](capHint),
		Spawns:       NewArena[ExprSpawnData](capHint),
		Indexes:      NewArena[ExprIndexData](capHint),
		Conditionals: NewArena[ExprConditionalData](capHint),
		Matches:      NewArena[ExprMatchData](capHint),
		Fors:         NewArena[ExprForData](capHint),
		Casts:        NewArena[ExprCastData](capHint),
		Arrays:       NewArena[ExprArrayData](capHint),
		Tuples:       NewArena[ExprTupleData](capHint),
		TupleIndexes: NewArena[ExprTupleIndexData](capHint),
		StructInsts:  NewArena[ExprStructInstanceData](capHint),
		SplatInsts:   NewArena[ExprSplatStructInstanceData](capHint),
		Attrs:        NewArena[ExprAttrData](capHint),
		Ranges:       NewArena[ExprRangeData](capHint),
		Blocks:       NewArena[ExprBlockData](capHint),
		ZeroMacros:   NewArena[ExprZeroMacroData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression header with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Span returns the span of id, or the zero span for an invalid ID.
func (e *Exprs) Span(id ExprID) source.Span {
	if h := e.Get(id); h != nil {
		return h.Span
	}
	return source.Span{}
}

// NewNameRef creates a reference to a local definition.
func (e *Exprs) NewNameRef(span source.Span, name source.StringID, to NameDefID) ExprID {
	payload := e.NameRefs.Allocate(ExprNameRefData{Name: name, To: to})
	return e.new(ExprNameRef, span, PayloadID(payload))
}

// NewBuiltinRef creates a reference to a builtin callee.
func (e *Exprs) NewBuiltinRef(span source.Span, name source.StringID, builtin BuiltinFn) ExprID {
	payload := e.NameRefs.Allocate(ExprNameRefData{Name: name, Builtin: builtin})
	return e.new(ExprNameRef, span, PayloadID(payload))
}

func (e *Exprs) NameRef(id ExprID) (*ExprNameRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprNameRef {
		return nil, false
	}
	return e.NameRefs.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewColonRef(span source.Span, subject ExprID, attr source.StringID) ExprID {
	payload := e.ColonRefs.Allocate(ExprColonRefData{Subject: subject, Attr: attr})
	return e.new(ExprColonRef, span, PayloadID(payload))
}

func (e *Exprs) ColonRef(id ExprID) (*ExprColonRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprColonRef {
		return nil, false
	}
	return e.ColonRefs.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewNumber(span source.Span, kind NumberKind, text source.StringID, typ TypeID) ExprID {
	payload := e.Numbers.Allocate(ExprNumberData{Kind: kind, Text: text, Type: typ})
	return e.new(ExprNumber, span, PayloadID(payload))
}

func (e *Exprs) Number(id ExprID) (*ExprNumberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprNumber {
		return nil, false
	}
	return e.Numbers.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewString(span source.Span, value source.StringID) ExprID {
	payload := e.Strings.Allocate(ExprStringData{Value: value})
	return e.new(ExprString, span, PayloadID(payload))
}

func (e *Exprs) String(id ExprID) (*ExprStringData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprString {
		return nil, false
	}
	return e.Strings.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewBinop(span source.Span, op BinopKind, lhs, rhs ExprID) ExprID {
	payload := e.Binops.Allocate(ExprBinopData{Op: op, LHS: lhs, RHS: rhs})
	return e.new(ExprBinop, span, PayloadID(payload))
}

func (e *Exprs) Binop(id ExprID) (*ExprBinopData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinop {
		return nil, false
	}
	return e.Binops.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewUnop(span source.Span, op UnopKind, operand ExprID) ExprID {
	payload := e.Unops.Allocate(ExprUnopData{Op: op, Operand: operand})
	return e.new(ExprUnop, span, PayloadID(payload))
}

func (e *Exprs) Unop(id ExprID) (*ExprUnopData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnop {
		return nil, false
	}
	return e.Unops.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewInvocation(span source.Span, callee ExprID, args, parametrics []ExprID) ExprID {
	payload := e.Invocations.Allocate(ExprInvocationData{Callee: callee, Args: args, Parametrics: parametrics})
	return e.new(ExprInvocation, span, PayloadID(payload))
}

// NewBuiltinInvocation is NewInvocation with explicit type arguments.
func (e *Exprs) NewBuiltinInvocation(span source.Span, callee ExprID, args []ExprID, typeArgs []TypeID) ExprID {
	payload := e.Invocations.Allocate(ExprInvocationData{Callee: callee, Args: args, TypeArgs: typeArgs})
	return e.new(ExprInvocation, span, PayloadID(payload))
}

func (e *Exprs) Invocation(id ExprID) (*ExprInvocationData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprInvocation {
		return nil, false
	}
	return e.Invocations.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewSpawn(span source.Span, callee, config, next ExprID) ExprID {
	payload := e.Spawns.Allocate(ExprSpawnData{Callee: callee, Config: config, Next: next})
	return e.new(ExprSpawn, span, PayloadID(payload))
}

func (e *Exprs) Spawn(id ExprID) (*ExprSpawnData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSpawn {
		return nil, false
	}
	return e.Spawns.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewIndex(span source.Span, subject, index ExprID) ExprID {
	payload := e.Indexes.Allocate(ExprIndexData{Subject: subject, Kind: IndexPlain, Index: index})
	return e.new(ExprIndex, span, PayloadID(payload))
}

func (e *Exprs) NewSlice(span source.Span, subject, start, limit ExprID) ExprID {
	payload := e.Indexes.Allocate(ExprIndexData{Subject: subject, Kind: IndexSlice, Start: start, Limit: limit})
	return e.new(ExprIndex, span, PayloadID(payload))
}

func (e *Exprs) NewWidthSlice(span source.Span, subject, start ExprID, widthType TypeID) ExprID {
	payload := e.Indexes.Allocate(ExprIndexData{Subject: subject, Kind: IndexWidthSlice, Start: start, WidthType: widthType})
	return e.new(ExprIndex, span, PayloadID(payload))
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIndex {
		return nil, false
	}
	return e.Indexes.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewConditional(span source.Span, test, consequent, alternate ExprID) ExprID {
	payload := e.Conditionals.Allocate(ExprConditionalData{Test: test, Consequent: consequent, Alternate: alternate})
	return e.new(ExprConditional, span, PayloadID(payload))
}

func (e *Exprs) Conditional(id ExprID) (*ExprConditionalData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprConditional {
		return nil, false
	}
	return e.Conditionals.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewMatch(span source.Span, matched ExprID, arms []MatchArm) ExprID {
	payload := e.Matches.Allocate(ExprMatchData{Matched: matched, Arms: arms})
	return e.new(ExprMatch, span, PayloadID(payload))
}

func (e *Exprs) Match(id ExprID) (*ExprMatchData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMatch {
		return nil, false
	}
	return e.Matches.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewFor(span source.Span, names PatID, annot TypeID, iterable, init, body ExprID) ExprID {
	payload := e.Fors.Allocate(ExprForData{Names: names, Annot: annot, Iterable: iterable, Init: init, Body: body})
	return e.new(ExprFor, span, PayloadID(payload))
}

func (e *Exprs) For(id ExprID) (*ExprForData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprFor {
		return nil, false
	}
	return e.Fors.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewCast(span source.Span, value ExprID, typ TypeID) ExprID {
	payload := e.Casts.Allocate(ExprCastData{Expr: value, Type: typ})
	return e.new(ExprCast, span, PayloadID(payload))
}

func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCast {
		return nil, false
	}
	return e.Casts.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewArray(span source.Span, elems []ExprID, hasEllipsis bool, typ TypeID) ExprID {
	payload := e.Arrays.Allocate(ExprArrayData{Elems: elems, HasEllipsis: hasEllipsis, Type: typ})
	return e.new(ExprArray, span, PayloadID(payload))
}

func (e *Exprs) Array(id ExprID) (*ExprArrayData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprArray {
		return nil, false
	}
	return e.Arrays.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewTuple(span source.Span, elems []ExprID) ExprID {
	payload := e.Tuples.Allocate(ExprTupleData{Elems: elems})
	return e.new(ExprTuple, span, PayloadID(payload))
}

func (e *Exprs) Tuple(id ExprID) (*ExprTupleData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTuple {
		return nil, false
	}
	return e.Tuples.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewTupleIndex(span source.Span, subject, index ExprID) ExprID {
	payload := e.TupleIndexes.Allocate(ExprTupleIndexData{Subject: subject, Index: index})
	return e.new(ExprTupleIndex, span, PayloadID(payload))
}

func (e *Exprs) TupleIndex(id ExprID) (*ExprTupleIndexData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTupleIndex {
		return nil, false
	}
	return e.TupleIndexes.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewStructInstance(span source.Span, structType TypeID, members []StructInstanceMember) ExprID {
	payload := e.StructInsts.Allocate(ExprStructInstanceData{Struct: structType, Members: members})
	return e.new(ExprStructInstance, span, PayloadID(payload))
}

func (e *Exprs) StructInstance(id ExprID) (*ExprStructInstanceData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprStructInstance {
		return nil, false
	}
	return e.StructInsts.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewSplatStructInstance(span source.Span, structType TypeID, members []StructInstanceMember, splatted ExprID) ExprID {
	payload := e.SplatInsts.Allocate(ExprSplatStructInstanceData{Struct: structType, Members: members, Splatted: splatted})
	return e.new(ExprSplatStructInstance, span, PayloadID(payload))
}

func (e *Exprs) SplatStructInstance(id ExprID) (*ExprSplatStructInstanceData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSplatStructInstance {
		return nil, false
	}
	return e.SplatInsts.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewAttr(span source.Span, subject ExprID, name source.StringID) ExprID {
	payload := e.Attrs.Allocate(ExprAttrData{Subject: subject, Name: name})
	return e.new(ExprAttr, span, PayloadID(payload))
}

func (e *Exprs) Attr(id ExprID) (*ExprAttrData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAttr {
		return nil, false
	}
	return e.Attrs.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewRange(span source.Span, start, limit ExprID, inclusive bool) ExprID {
	payload := e.Ranges.Allocate(ExprRangeData{Start: start, Limit: limit, Inclusive: inclusive})
	return e.new(ExprRange, span, PayloadID(payload))
}

func (e *Exprs) Range(id ExprID) (*ExprRangeData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprRange {
		return nil, false
	}
	return e.Ranges.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewBlock(span source.Span, stmts []StmtID, trailingSemi bool) ExprID {
	payload := e.Blocks.Allocate(ExprBlockData{Stmts: stmts, TrailingSemi: trailingSemi})
	return e.new(ExprBlock, span, PayloadID(payload))
}

func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBlock {
		return nil, false
	}
	return e.Blocks.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewZeroMacro(span source.Span, typ TypeID) ExprID {
	payload := e.ZeroMacros.Allocate(ExprZeroMacroData{Type: typ})
	return e.new(ExprZeroMacro, span, PayloadID(payload))
}

func (e *Exprs) ZeroMacro(id ExprID) (*ExprZeroMacroData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprZeroMacro {
		return nil, false
	}
	return e.ZeroMacros.Get(uint32(expr.Payload)), true
}
