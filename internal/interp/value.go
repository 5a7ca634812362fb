package interp

import (
	"fmt"
	"math/big"
	"strings"
)

// Tag discriminates interpreter value shapes.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagBits
	TagTuple
	TagArray
	TagEnum
	TagToken
)

// Value is a constexpr-evaluated value. Bits payloads are arbitrary
// precision with an explicit width and signedness; enums carry their payload
// in Num plus nominal identity.
type Value struct {
	Tag    Tag
	Num    *big.Int
	Width  int64
	Signed bool
	Elems  []Value
	// Enum identity, set only for TagEnum.
	EnumModule string
	EnumName   string
}

// NewUBits builds an unsigned bits value, wrapping v into width bits.
func NewUBits(width int64, v *big.Int) Value {
	return Value{Tag: TagBits, Width: width, Num: wrapUnsigned(v, width)}
}

// NewSBits builds a signed bits value, wrapping v into width bits.
func NewSBits(width int64, v *big.Int) Value {
	return Value{Tag: TagBits, Width: width, Signed: true, Num: wrapSigned(v, width)}
}

// UBitsFromInt64 is NewUBits over a machine integer.
func UBitsFromInt64(width, v int64) Value {
	return NewUBits(width, big.NewInt(v))
}

// SBitsFromInt64 is NewSBits over a machine integer.
func SBitsFromInt64(width, v int64) Value {
	return NewSBits(width, big.NewInt(v))
}

// NewBool builds a u1.
func NewBool(b bool) Value {
	if b {
		return UBitsFromInt64(1, 1)
	}
	return UBitsFromInt64(1, 0)
}

// NewTuple builds a tuple value; an empty slice is the unit value.
func NewTuple(elems []Value) Value {
	return Value{Tag: TagTuple, Elems: elems}
}

// NewArray builds an array value.
func NewArray(elems []Value) Value {
	return Value{Tag: TagArray, Elems: elems}
}

// NewToken builds the token value.
func NewToken() Value {
	return Value{Tag: TagToken}
}

// NewEnum wraps a bits payload with enum identity.
func NewEnum(module, name string, payload Value) Value {
	return Value{
		Tag: TagEnum, Num: payload.Num, Width: payload.Width, Signed: payload.Signed,
		EnumModule: module, EnumName: name,
	}
}

// IsBits reports whether v carries a bits payload (enums included).
func (v Value) IsBits() bool {
	return v.Tag == TagBits || v.Tag == TagEnum
}

// IsTrue reports whether v is a non-zero bits value.
func (v Value) IsTrue() bool {
	return v.IsBits() && v.Num.Sign() != 0
}

// AsInt64 narrows a bits payload to a machine integer.
func (v Value) AsInt64() (int64, error) {
	if !v.IsBits() {
		return 0, fmt.Errorf("value %s is not bits", v)
	}
	if !v.Num.IsInt64() {
		return 0, fmt.Errorf("value %s does not fit in int64", v)
	}
	return v.Num.Int64(), nil
}

// Eq compares deeply; widths and signedness participate for bits.
func (v Value) Eq(o Value) bool {
	if v.Tag != o.Tag {
		return false
	}
	switch v.Tag {
	case TagBits, TagEnum:
		return v.Width == o.Width && v.Signed == o.Signed &&
			v.EnumModule == o.EnumModule && v.EnumName == o.EnumName &&
			v.Num.Cmp(o.Num) == 0
	case TagTuple, TagArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Eq(o.Elems[i]) {
				return false
			}
		}
		return true
	case TagToken:
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Tag {
	case TagBits:
		prefix := "u"
		if v.Signed {
			prefix = "s"
		}
		return fmt.Sprintf("%s%d:%s", prefix, v.Width, v.Num)
	case TagEnum:
		return fmt.Sprintf("%s:%s", v.EnumName, v.Num)
	case TagTuple, TagArray:
		parts := make([]string, 0, len(v.Elems))
		for _, e := range v.Elems {
			parts = append(parts, e.String())
		}
		if v.Tag == TagTuple {
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagToken:
		return "token"
	}
	return "<invalid>"
}

// FitsIn reports whether the numeric value n is representable in width bits
// with the given signedness.
func FitsIn(n *big.Int, width int64, signed bool) bool {
	if width < 0 {
		return false
	}
	if signed {
		// [-2^(w-1), 2^(w-1))
		if width == 0 {
			return n.Sign() == 0
		}
		hi := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
		lo := new(big.Int).Neg(hi)
		return n.Cmp(lo) >= 0 && n.Cmp(hi) < 0
	}
	if n.Sign() < 0 {
		return false
	}
	hi := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return n.Cmp(hi) < 0
}

func wrapUnsigned(v *big.Int, width int64) *big.Int {
	if width <= 0 {
		return big.NewInt(0)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	out := new(big.Int).Mod(v, mod)
	if out.Sign() < 0 {
		out.Add(out, mod)
	}
	return out
}

func wrapSigned(v *big.Int, width int64) *big.Int {
	if width <= 0 {
		return big.NewInt(0)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	half := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	out := new(big.Int).Mod(v, mod)
	if out.Sign() < 0 {
		out.Add(out, mod)
	}
	if out.Cmp(half) >= 0 {
		out.Sub(out, mod)
	}
	return out
}
