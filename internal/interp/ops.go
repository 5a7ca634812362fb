package interp

import (
	"fmt"
	"math/big"

	"ripple/internal/ast"
)

func (v Value) rewrap(n *big.Int) Value {
	if v.Signed {
		return NewSBits(v.Width, n)
	}
	return NewUBits(v.Width, n)
}

// Binop applies op to two bits values of the same type, producing the
// wrapped result (comparisons produce u1).
func Binop(op ast.BinopKind, lhs, rhs Value) (Value, error) {
	if !lhs.IsBits() || !rhs.IsBits() {
		return Value{}, fmt.Errorf("binary operator %s requires bits operands", op)
	}
	switch op {
	case ast.BinopAdd:
		return lhs.rewrap(new(big.Int).Add(lhs.Num, rhs.Num)), nil
	case ast.BinopSub:
		return lhs.rewrap(new(big.Int).Sub(lhs.Num, rhs.Num)), nil
	case ast.BinopMul:
		return lhs.rewrap(new(big.Int).Mul(lhs.Num, rhs.Num)), nil
	case ast.BinopDiv:
		if rhs.Num.Sign() == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return lhs.rewrap(new(big.Int).Quo(lhs.Num, rhs.Num)), nil
	case ast.BinopMod:
		if rhs.Num.Sign() == 0 {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		return lhs.rewrap(new(big.Int).Rem(lhs.Num, rhs.Num)), nil
	case ast.BinopAnd, ast.BinopLogicalAnd:
		return lhs.rewrap(new(big.Int).And(toUnsigned(lhs), toUnsigned(rhs))), nil
	case ast.BinopOr, ast.BinopLogicalOr:
		return lhs.rewrap(new(big.Int).Or(toUnsigned(lhs), toUnsigned(rhs))), nil
	case ast.BinopXor:
		return lhs.rewrap(new(big.Int).Xor(toUnsigned(lhs), toUnsigned(rhs))), nil
	case ast.BinopShl:
		amount, err := shiftAmount(rhs)
		if err != nil {
			return Value{}, err
		}
		if amount >= uint(lhs.Width) {
			return lhs.rewrap(big.NewInt(0)), nil
		}
		return lhs.rewrap(new(big.Int).Lsh(toUnsigned(lhs), amount)), nil
	case ast.BinopShr:
		amount, err := shiftAmount(rhs)
		if err != nil {
			return Value{}, err
		}
		if lhs.Signed {
			// Arithmetic shift preserves the sign.
			if amount >= uint(lhs.Width) {
				if lhs.Num.Sign() < 0 {
					return lhs.rewrap(big.NewInt(-1)), nil
				}
				return lhs.rewrap(big.NewInt(0)), nil
			}
			return lhs.rewrap(new(big.Int).Rsh(lhs.Num, amount)), nil
		}
		if amount >= uint(lhs.Width) {
			return lhs.rewrap(big.NewInt(0)), nil
		}
		return lhs.rewrap(new(big.Int).Rsh(lhs.Num, amount)), nil
	case ast.BinopEq:
		return NewBool(lhs.Eq(rhs)), nil
	case ast.BinopNe:
		return NewBool(!lhs.Eq(rhs)), nil
	case ast.BinopLt:
		return NewBool(lhs.Num.Cmp(rhs.Num) < 0), nil
	case ast.BinopLe:
		return NewBool(lhs.Num.Cmp(rhs.Num) <= 0), nil
	case ast.BinopGt:
		return NewBool(lhs.Num.Cmp(rhs.Num) > 0), nil
	case ast.BinopGe:
		return NewBool(lhs.Num.Cmp(rhs.Num) >= 0), nil
	case ast.BinopConcat:
		width := lhs.Width + rhs.Width
		out := new(big.Int).Lsh(toUnsigned(lhs), uint(rhs.Width))
		out.Or(out, toUnsigned(rhs))
		return NewUBits(width, out), nil
	}
	return Value{}, fmt.Errorf("unsupported binary operator %s", op)
}

// Unop applies a unary operator to a bits value.
func Unop(op ast.UnopKind, v Value) (Value, error) {
	if !v.IsBits() {
		return Value{}, fmt.Errorf("unary operator %s requires a bits operand", op)
	}
	switch op {
	case ast.UnopNeg:
		return v.rewrap(new(big.Int).Neg(v.Num)), nil
	case ast.UnopInvert:
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(v.Width)), big.NewInt(1))
		return v.rewrap(new(big.Int).Xor(toUnsigned(v), mask)), nil
	}
	return Value{}, fmt.Errorf("unsupported unary operator %s", op)
}

// CastBits converts v to a bits value of the target width and signedness,
// sign- or zero-extending and truncating as needed.
func CastBits(v Value, width int64, signed bool) (Value, error) {
	if !v.IsBits() {
		return Value{}, fmt.Errorf("cannot cast %s to bits", v)
	}
	if signed {
		return NewSBits(width, v.Num), nil
	}
	return NewUBits(width, v.Num), nil
}

func toUnsigned(v Value) *big.Int {
	return wrapUnsigned(v.Num, v.Width)
}

func shiftAmount(v Value) (uint, error) {
	if v.Num.Sign() < 0 {
		return 0, fmt.Errorf("negative shift amount %s", v.Num)
	}
	if !v.Num.IsUint64() || v.Num.Uint64() > 1<<20 {
		return uint(v.Width), nil
	}
	return uint(v.Num.Uint64()), nil
}
