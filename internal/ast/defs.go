package ast

import (
	"ripple/internal/source"
)

// NameDef is the defining occurrence of an identifier. Definer points at the
// construct that introduced the name (param, let pattern, module member).
type NameDef struct {
	Span    source.Span
	Name    source.StringID
	Definer NodeRef
}

// Param is a formal function parameter.
type Param struct {
	Span source.Span
	Name NameDefID
	Type TypeID
}

// PBinding is a parametric binding `N: u32` or `N: u32 = expr` (derived).
type PBinding struct {
	Span source.Span
	Name NameDefID
	Type TypeID
	Expr ExprID // derived default, may be absent
}

// Fn is a function definition. Proc-member functions carry a non-normal Tag
// and an owner proc.
type Fn struct {
	Span        source.Span
	Name        NameDefID
	Parametrics []PBindingID
	Params      []ParamID
	ReturnType  TypeID // absent means unit
	Body        ExprID
	Tag         FnTag
	Owner       ProcID
	Public      bool
}

// ProcMember is a proc state member bound by config's return tuple.
type ProcMember struct {
	Span source.Span
	Name NameDefID
	Type TypeID
}

// Proc is a process definition with its three member functions.
type Proc struct {
	Span        source.Span
	Name        NameDefID
	Parametrics []PBindingID
	Members     []ProcMemberID
	Config      FnID
	Init        FnID
	Next        FnID
	Public      bool
}

// StructField is one named member of a struct definition.
type StructField struct {
	Span source.Span
	Name NameDefID
	Type TypeID
}

type Struct struct {
	Span        source.Span
	Name        NameDefID
	Parametrics []PBindingID
	Fields      []StructField
	Public      bool
}

// EnumValue is one named member of an enum definition.
type EnumValue struct {
	Span source.Span
	Name NameDefID
	Expr ExprID
}

// Enum is an enum definition; Underlying may be absent, in which case the
// payload type is inferred from the member values.
type Enum struct {
	Span       source.Span
	Name       NameDefID
	Underlying TypeID
	Values     []EnumValue
	Public     bool
}

type Alias struct {
	Span   source.Span
	Name   NameDefID
	Type   TypeID
	Public bool
}

// Constant is a module-level constant definition; Type may be absent.
type Constant struct {
	Span   source.Span
	Name   NameDefID
	Type   TypeID
	Value  ExprID
	Public bool
}

// Import brings another module into scope under Alias (the last subject
// token when no explicit alias was written).
type Import struct {
	Span    source.Span
	Subject []source.StringID
	Alias   NameDefID
}

// QuickCheck wraps a predicate function tested over random inputs.
type QuickCheck struct {
	Span      source.Span
	Fn        FnID
	TestCount int64
}

// ConstAssert is a module-level `const_assert!(expr)`.
type ConstAssert struct {
	Span source.Span
	Arg  ExprID
}
