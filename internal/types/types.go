package types

import (
	"fmt"
	"strings"

	"ripple/internal/ast"
)

// Type is a fully deduced type. The set of implementations is closed:
// Bits, Array, Tuple, Struct, Enum, Function, Token, Channel, Meta.
type Type interface {
	typeNode()
	String() string
}

// BitsType is a fixed-width bit vector.
type BitsType struct {
	Signed bool
	Size   Dim
}

// ArrayType is a fixed-size array of a single element type.
type ArrayType struct {
	Elem Type
	Size Dim
}

// TupleType is a positional aggregate; the empty tuple is the unit type.
type TupleType struct {
	Members []Type
}

// StructMember is one resolved member of a struct type.
type StructMember struct {
	Name string
	Type Type
}

// StructType is nominal: two struct types are interchangeable only when they
// come from the same definition.
type StructType struct {
	Module  string
	Name    string
	Def     ast.StructID
	Members []StructMember
	// ParametricNames lists binding names still free in member dims, in
	// declaration order.
	ParametricNames []string
}

// EnumType is nominal, with an underlying bit-vector payload.
type EnumType struct {
	Module string
	Name   string
	Def    ast.EnumID
	Signed bool
	Size   Dim
}

// FunctionType describes a callable signature.
type FunctionType struct {
	Params []Type
	Return Type
}

// TokenType orders side-effecting operations.
type TokenType struct{}

// ChannelType is a directional typed channel endpoint.
type ChannelType struct {
	Dir     ast.ChannelDir
	Payload Type
}

// MetaType is the type of a type expression. Only annotations and colon-ref
// subjects produce meta types; expression positions must unwrap them.
type MetaType struct {
	Wrapped Type
}

func (*BitsType) typeNode()     {}
func (*ArrayType) typeNode()    {}
func (*TupleType) typeNode()    {}
func (*StructType) typeNode()   {}
func (*EnumType) typeNode()     {}
func (*FunctionType) typeNode() {}
func (*TokenType) typeNode()    {}
func (*ChannelType) typeNode()  {}
func (*MetaType) typeNode()     {}

// NewUnit returns the empty tuple.
func NewUnit() *TupleType {
	return &TupleType{}
}

// MakeUBits builds an unsigned bits type of concrete width.
func MakeUBits(width int64) *BitsType {
	return &BitsType{Signed: false, Size: DimInt64(width)}
}

// MakeSBits builds a signed bits type of concrete width.
func MakeSBits(width int64) *BitsType {
	return &BitsType{Signed: true, Size: DimInt64(width)}
}

// IsUnit reports whether t is the empty tuple.
func IsUnit(t Type) bool {
	tup, ok := t.(*TupleType)
	return ok && len(tup.Members) == 0
}

// IsBits reports whether t is a plain bit vector (enums excluded).
func IsBits(t Type) bool {
	_, ok := t.(*BitsType)
	return ok
}

func (t *BitsType) String() string {
	if t.Signed {
		return fmt.Sprintf("sN[%s]", t.Size)
	}
	return fmt.Sprintf("uN[%s]", t.Size)
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("%s[%s]", t.Elem, t.Size)
}

func (t *TupleType) String() string {
	parts := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		parts = append(parts, m.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *StructType) String() string {
	parts := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Name, m.Type))
	}
	return fmt.Sprintf("%s { %s }", t.Name, strings.Join(parts, ", "))
}

func (t *EnumType) String() string {
	return t.Name
}

func (t *FunctionType) String() string {
	parts := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Return)
}

func (*TokenType) String() string {
	return "token"
}

func (t *ChannelType) String() string {
	return fmt.Sprintf("chan(%s, dir=%s)", t.Payload, t.Dir)
}

func (t *MetaType) String() string {
	return fmt.Sprintf("typeof(%s)", t.Wrapped)
}
