package types

import (
	"fmt"
	"math/bits"
)

// Equal compares types. Structs and enums are nominal: same definition in
// the same module, then member/payload agreement. Everything else is
// structural.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *BitsType:
		y, ok := b.(*BitsType)
		return ok && x.Signed == y.Signed && x.Size.Equal(y.Size)
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Size.Equal(y.Size) && Equal(x.Elem, y.Elem)
	case *TupleType:
		y, ok := b.(*TupleType)
		if !ok || len(x.Members) != len(y.Members) {
			return false
		}
		for i := range x.Members {
			if !Equal(x.Members[i], y.Members[i]) {
				return false
			}
		}
		return true
	case *StructType:
		y, ok := b.(*StructType)
		if !ok || x.Module != y.Module || x.Name != y.Name || x.Def != y.Def {
			return false
		}
		if len(x.Members) != len(y.Members) {
			return false
		}
		for i := range x.Members {
			if x.Members[i].Name != y.Members[i].Name || !Equal(x.Members[i].Type, y.Members[i].Type) {
				return false
			}
		}
		return true
	case *EnumType:
		y, ok := b.(*EnumType)
		return ok && x.Module == y.Module && x.Name == y.Name && x.Def == y.Def &&
			x.Signed == y.Signed && x.Size.Equal(y.Size)
	case *FunctionType:
		y, ok := b.(*FunctionType)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.Return, y.Return)
	case *TokenType:
		_, ok := b.(*TokenType)
		return ok
	case *ChannelType:
		y, ok := b.(*ChannelType)
		return ok && x.Dir == y.Dir && Equal(x.Payload, y.Payload)
	case *MetaType:
		y, ok := b.(*MetaType)
		return ok && Equal(x.Wrapped, y.Wrapped)
	}
	return false
}

// TotalBitCount sums the flattened width of t, staying symbolic when any
// dimension is. Function, token, channel, and meta types have no bit count.
func TotalBitCount(t Type) (Dim, error) {
	switch x := t.(type) {
	case *BitsType:
		return x.Size, nil
	case *EnumType:
		return x.Size, nil
	case *ArrayType:
		elem, err := TotalBitCount(x.Elem)
		if err != nil {
			return Dim{}, err
		}
		return elem.Mul(x.Size), nil
	case *TupleType:
		total := DimInt64(0)
		for _, m := range x.Members {
			d, err := TotalBitCount(m)
			if err != nil {
				return Dim{}, err
			}
			total = total.Add(d)
		}
		return total, nil
	case *StructType:
		total := DimInt64(0)
		for _, m := range x.Members {
			d, err := TotalBitCount(m.Type)
			if err != nil {
				return Dim{}, err
			}
			total = total.Add(d)
		}
		return total, nil
	}
	return Dim{}, fmt.Errorf("type %s has no total bit count", t)
}

// MapSize rewrites every dimension of t with f, rebuilding the tree.
func MapSize(t Type, f func(Dim) (Dim, error)) (Type, error) {
	switch x := t.(type) {
	case *BitsType:
		size, err := f(x.Size)
		if err != nil {
			return nil, err
		}
		return &BitsType{Signed: x.Signed, Size: size}, nil
	case *ArrayType:
		size, err := f(x.Size)
		if err != nil {
			return nil, err
		}
		elem, err := MapSize(x.Elem, f)
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem, Size: size}, nil
	case *TupleType:
		members := make([]Type, len(x.Members))
		for i, m := range x.Members {
			mapped, err := MapSize(m, f)
			if err != nil {
				return nil, err
			}
			members[i] = mapped
		}
		return &TupleType{Members: members}, nil
	case *StructType:
		members := make([]StructMember, len(x.Members))
		for i, m := range x.Members {
			mapped, err := MapSize(m.Type, f)
			if err != nil {
				return nil, err
			}
			members[i] = StructMember{Name: m.Name, Type: mapped}
		}
		return &StructType{
			Module:          x.Module,
			Name:            x.Name,
			Def:             x.Def,
			Members:         members,
			ParametricNames: x.ParametricNames,
		}, nil
	case *EnumType:
		size, err := f(x.Size)
		if err != nil {
			return nil, err
		}
		return &EnumType{Module: x.Module, Name: x.Name, Def: x.Def, Signed: x.Signed, Size: size}, nil
	case *FunctionType:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			mapped, err := MapSize(p, f)
			if err != nil {
				return nil, err
			}
			params[i] = mapped
		}
		ret, err := MapSize(x.Return, f)
		if err != nil {
			return nil, err
		}
		return &FunctionType{Params: params, Return: ret}, nil
	case *TokenType:
		return x, nil
	case *ChannelType:
		payload, err := MapSize(x.Payload, f)
		if err != nil {
			return nil, err
		}
		return &ChannelType{Dir: x.Dir, Payload: payload}, nil
	case *MetaType:
		wrapped, err := MapSize(x.Wrapped, f)
		if err != nil {
			return nil, err
		}
		return &MetaType{Wrapped: wrapped}, nil
	}
	return nil, fmt.Errorf("cannot map dims of %s", t)
}

// ResolveDims substitutes env into every dimension of t.
func ResolveDims(t Type, env ParametricEnv) (Type, error) {
	return MapSize(t, func(d Dim) (Dim, error) {
		return d.Resolve(env), nil
	})
}

// HasParametricDims reports whether any dimension of t is still symbolic.
func HasParametricDims(t Type) bool {
	found := false
	_, _ = MapSize(t, func(d Dim) (Dim, error) {
		if d.IsParametric() {
			found = true
		}
		return d, nil
	})
	return found
}

// UnwrapMeta strips one meta layer, failing on non-meta types.
func UnwrapMeta(t Type) (Type, error) {
	meta, ok := t.(*MetaType)
	if !ok {
		return nil, fmt.Errorf("expected a type, got a value of type %s", t)
	}
	return meta.Wrapped, nil
}

// Member finds a struct member by name.
func (t *StructType) Member(name string) (Type, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m.Type, true
		}
	}
	return nil, false
}

// MemberNames lists member names in declaration order.
func (t *StructType) MemberNames() []string {
	out := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		out = append(out, m.Name)
	}
	return out
}

// CeilLog2 returns the bit width needed to represent n distinct values.
func CeilLog2(n uint64) int64 {
	if n <= 1 {
		return 0
	}
	return int64(bits.Len64(n - 1))
}
