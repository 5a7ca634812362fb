package interp

import (
	"fmt"
	"math/big"
	"strings"

	"ripple/internal/ast"
)

// ParseNumber converts a number literal's text into its numeric value.
// Underscore separators and 0x/0b prefixes are handled; bool and char
// literals carry fixed widths at the type layer.
func ParseNumber(text string, kind ast.NumberKind) (*big.Int, error) {
	switch kind {
	case ast.NumberBool:
		switch text {
		case "true":
			return big.NewInt(1), nil
		case "false":
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("invalid bool literal %q", text)
	case ast.NumberChar:
		runes := []rune(text)
		if len(runes) != 1 {
			return nil, fmt.Errorf("invalid character literal %q", text)
		}
		return big.NewInt(int64(runes[0])), nil
	}

	cleaned := strings.ReplaceAll(text, "_", "")
	n, ok := new(big.Int).SetString(cleaned, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number literal %q", text)
	}
	return n, nil
}

// BitCountForValue returns the minimum unsigned width able to hold n, with
// a floor of zero bits for zero.
func BitCountForValue(n *big.Int) int64 {
	if n.Sign() < 0 {
		// Two's complement: need BitLen of |n|-ish plus sign bit; keep it
		// simple by counting the magnitude plus one.
		return int64(new(big.Int).Abs(n).BitLen()) + 1
	}
	return int64(n.BitLen())
}
