package ast

import (
	"ripple/internal/source"
)

// MemberKind discriminates module members.
type MemberKind uint8

const (
	MemberInvalid MemberKind = iota
	MemberFn
	MemberTestFn
	MemberProc
	MemberTestProc
	MemberQuickCheck
	MemberStruct
	MemberEnum
	MemberAlias
	MemberConstant
	MemberImport
	MemberConstAssert
)

// Member points at one top-level definition, in source order.
type Member struct {
	Kind  MemberKind
	Index uint32
}

// Module is one type-checking unit.
type Module struct {
	Name    string
	File    source.FileID
	Members []Member
}

// Builder owns every arena of a module's AST plus its string interner.
// Modules are built once by the front end (or a test) and then immutable.
type Builder struct {
	Module  *Module
	Strings *source.Interner

	Exprs    *Exprs
	Stmts    *Stmts
	Types    *TypeAnns
	Pats     *Pats

	NameDefs     *Arena[NameDef]
	Params       *Arena[Param]
	PBindings    *Arena[PBinding]
	Fns          *Arena[Fn]
	Procs        *Arena[Proc]
	ProcMembers  *Arena[ProcMember]
	Structs      *Arena[Struct]
	Enums        *Arena[Enum]
	Aliases      *Arena[Alias]
	Constants    *Arena[Constant]
	Imports      *Arena[Import]
	QuickChecks  *Arena[QuickCheck]
	ConstAsserts *Arena[ConstAssert]

	parents map[NodeRef]NodeRef
}

// NewBuilder creates an empty module named name for file.
func NewBuilder(name string, file source.FileID) *Builder {
	return &Builder{
		Module:       &Module{Name: name, File: file},
		Strings:      source.NewInterner(),
		Exprs:        NewExprs(0),
		Stmts:        NewStmts(0),
		Types:        NewTypeAnns(0),
		Pats:         NewPats(0),
		NameDefs:     NewArena[NameDef](1 << 6),
		Params:       NewArena[Param](1 << 5),
		PBindings:    NewArena[PBinding](1 << 4),
		Fns:          NewArena[Fn](1 << 4),
		Procs:        NewArena[Proc](1 << 3),
		ProcMembers:  NewArena[ProcMember](1 << 3),
		Structs:      NewArena[Struct](1 << 3),
		Enums:        NewArena[Enum](1 << 3),
		Aliases:      NewArena[Alias](1 << 3),
		Constants:    NewArena[Constant](1 << 4),
		Imports:      NewArena[Import](1 << 3),
		QuickChecks:  NewArena[QuickCheck](1 << 2),
		ConstAsserts: NewArena[ConstAssert](1 << 2),
	}
}

// Intern is shorthand for the module interner.
func (b *Builder) Intern(s string) source.StringID {
	return b.Strings.Intern(s)
}

// Str resolves an interned string, returning "" for unknown IDs.
func (b *Builder) Str(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}

// NewNameDef allocates a defining occurrence. Definer is patched by the
// construct that owns the name once it is allocated itself.
func (b *Builder) NewNameDef(span source.Span, name source.StringID) NameDefID {
	return NameDefID(b.NameDefs.Allocate(NameDef{Span: span, Name: name}))
}

// NameDefText returns the name of a definition.
func (b *Builder) NameDefText(id NameDefID) string {
	nd := b.NameDefs.Get(uint32(id))
	if nd == nil {
		return ""
	}
	return b.Str(nd.Name)
}

func (b *Builder) setDefiner(id NameDefID, definer NodeRef) {
	if nd := b.NameDefs.Get(uint32(id)); nd != nil {
		nd.Definer = definer
	}
}

func (b *Builder) NewParam(span source.Span, name NameDefID, typ TypeID) ParamID {
	id := ParamID(b.Params.Allocate(Param{Span: span, Name: name, Type: typ}))
	b.setDefiner(name, ParamRef(id))
	return id
}

func (b *Builder) NewPBinding(span source.Span, name NameDefID, typ TypeID, expr ExprID) PBindingID {
	id := PBindingID(b.PBindings.Allocate(PBinding{Span: span, Name: name, Type: typ, Expr: expr}))
	b.setDefiner(name, PBindingRef(id))
	return id
}

func (b *Builder) NewFn(fn Fn) FnID {
	id := FnID(b.Fns.Allocate(fn))
	b.setDefiner(fn.Name, FnRef(id))
	return id
}

func (b *Builder) NewProc(proc Proc) ProcID {
	id := ProcID(b.Procs.Allocate(proc))
	b.setDefiner(proc.Name, ProcRef(id))
	// Member functions learn their owner here so a spawn can work back from
	// config to the proc.
	for _, fnID := range []FnID{proc.Config, proc.Init, proc.Next} {
		if fn := b.Fns.Get(uint32(fnID)); fn != nil {
			fn.Owner = id
		}
	}
	return id
}

func (b *Builder) NewProcMember(span source.Span, name NameDefID, typ TypeID) ProcMemberID {
	id := ProcMemberID(b.ProcMembers.Allocate(ProcMember{Span: span, Name: name, Type: typ}))
	b.setDefiner(name, ProcMemberRef(id))
	return id
}

func (b *Builder) NewStruct(s Struct) StructID {
	id := StructID(b.Structs.Allocate(s))
	b.setDefiner(s.Name, StructRef(id))
	for _, f := range s.Fields {
		b.setDefiner(f.Name, StructRef(id))
	}
	return id
}

func (b *Builder) NewEnum(e Enum) EnumID {
	id := EnumID(b.Enums.Allocate(e))
	b.setDefiner(e.Name, EnumRef(id))
	for _, v := range e.Values {
		b.setDefiner(v.Name, EnumRef(id))
	}
	return id
}

func (b *Builder) NewAlias(a Alias) AliasID {
	id := AliasID(b.Aliases.Allocate(a))
	b.setDefiner(a.Name, AliasRef(id))
	return id
}

func (b *Builder) NewConstant(c Constant) ConstantID {
	id := ConstantID(b.Constants.Allocate(c))
	b.setDefiner(c.Name, ConstantRef(id))
	return id
}

func (b *Builder) NewImport(imp Import) ImportID {
	id := ImportID(b.Imports.Allocate(imp))
	b.setDefiner(imp.Alias, ImportRef(id))
	return id
}

func (b *Builder) NewQuickCheck(span source.Span, fn FnID, testCount int64) QuickCheckID {
	return QuickCheckID(b.QuickChecks.Allocate(QuickCheck{Span: span, Fn: fn, TestCount: testCount}))
}

func (b *Builder) NewConstAssert(span source.Span, arg ExprID) ConstAssertID {
	return ConstAssertID(b.ConstAsserts.Allocate(ConstAssert{Span: span, Arg: arg}))
}

// AddMember appends a top-level member in source order.
func (b *Builder) AddMember(kind MemberKind, index uint32) {
	b.Module.Members = append(b.Module.Members, Member{Kind: kind, Index: index})
}

// MemberName returns the defined name of a member, or "" for members without
// one (imports report their alias, const asserts report nothing).
func (b *Builder) MemberName(m Member) string {
	switch m.Kind {
	case MemberFn, MemberTestFn:
		if fn := b.Fns.Get(m.Index); fn != nil {
			return b.NameDefText(fn.Name)
		}
	case MemberProc, MemberTestProc:
		if p := b.Procs.Get(m.Index); p != nil {
			return b.NameDefText(p.Name)
		}
	case MemberQuickCheck:
		if qc := b.QuickChecks.Get(m.Index); qc != nil {
			if fn := b.Fns.Get(uint32(qc.Fn)); fn != nil {
				return b.NameDefText(fn.Name)
			}
		}
	case MemberStruct:
		if s := b.Structs.Get(m.Index); s != nil {
			return b.NameDefText(s.Name)
		}
	case MemberEnum:
		if e := b.Enums.Get(m.Index); e != nil {
			return b.NameDefText(e.Name)
		}
	case MemberAlias:
		if a := b.Aliases.Get(m.Index); a != nil {
			return b.NameDefText(a.Name)
		}
	case MemberConstant:
		if c := b.Constants.Get(m.Index); c != nil {
			return b.NameDefText(c.Name)
		}
	case MemberImport:
		if imp := b.Imports.Get(m.Index); imp != nil {
			return b.NameDefText(imp.Alias)
		}
	}
	return ""
}

// FindMember locates a top-level member by name.
func (b *Builder) FindMember(name string) (Member, bool) {
	for _, m := range b.Module.Members {
		if b.MemberName(m) == name {
			return m, true
		}
	}
	return Member{}, false
}

// FindFn locates a function member (plain or test) by name.
func (b *Builder) FindFn(name string) (FnID, bool) {
	for _, m := range b.Module.Members {
		if (m.Kind == MemberFn || m.Kind == MemberTestFn) && b.MemberName(m) == name {
			return FnID(m.Index), true
		}
	}
	return NoFnID, false
}

// FindProc locates a proc member (plain or test) by name.
func (b *Builder) FindProc(name string) (ProcID, bool) {
	for _, m := range b.Module.Members {
		if (m.Kind == MemberProc || m.Kind == MemberTestProc) && b.MemberName(m) == name {
			return ProcID(m.Index), true
		}
	}
	return NoProcID, false
}
