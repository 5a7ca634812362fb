package ast

// BinopKind enumerates binary operators.
type BinopKind uint8

const (
	BinopInvalid BinopKind = iota
	BinopAdd
	BinopSub
	BinopMul
	BinopDiv
	BinopMod
	BinopAnd
	BinopOr
	BinopXor
	BinopShl
	BinopShr
	BinopConcat
	BinopEq
	BinopNe
	BinopLt
	BinopLe
	BinopGt
	BinopGe
	BinopLogicalAnd
	BinopLogicalOr
)

var binopNames = [...]string{
	BinopInvalid:    "<invalid>",
	BinopAdd:        "+",
	BinopSub:        "-",
	BinopMul:        "*",
	BinopDiv:        "/",
	BinopMod:        "%",
	BinopAnd:        "&",
	BinopOr:         "|",
	BinopXor:        "^",
	BinopShl:        "<<",
	BinopShr:        ">>",
	BinopConcat:     "++",
	BinopEq:         "==",
	BinopNe:         "!=",
	BinopLt:         "<",
	BinopLe:         "<=",
	BinopGt:         ">",
	BinopGe:         ">=",
	BinopLogicalAnd: "&&",
	BinopLogicalOr:  "||",
}

func (op BinopKind) String() string {
	if int(op) < len(binopNames) {
		return binopNames[op]
	}
	return "<invalid>"
}

// IsComparison reports whether the operator yields u1 from two same-typed
// operands.
func (op BinopKind) IsComparison() bool {
	switch op {
	case BinopEq, BinopNe, BinopLt, BinopLe, BinopGt, BinopGe:
		return true
	}
	return false
}

// IsShift reports whether the operator takes an independent rhs width.
func (op BinopKind) IsShift() bool {
	return op == BinopShl || op == BinopShr
}

// IsLogical reports whether both operands and the result must be u1.
func (op BinopKind) IsLogical() bool {
	return op == BinopLogicalAnd || op == BinopLogicalOr
}

// EnumOk reports whether the operator is allowed on enum operands.
func (op BinopKind) EnumOk() bool {
	return op == BinopEq || op == BinopNe
}

// UnopKind enumerates unary operators.
type UnopKind uint8

const (
	UnopInvalid UnopKind = iota
	UnopNeg
	UnopInvert
)

func (op UnopKind) String() string {
	switch op {
	case UnopNeg:
		return "-"
	case UnopInvert:
		return "!"
	}
	return "<invalid>"
}

// NumberKind discriminates numeric literal flavors.
type NumberKind uint8

const (
	NumberUntyped NumberKind = iota
	NumberTyped              // carries a type annotation, e.g. u8:42
	NumberBool
	NumberChar
)

// IndexKind discriminates the rhs of an index expression.
type IndexKind uint8

const (
	IndexPlain IndexKind = iota
	IndexSlice
	IndexWidthSlice
)

// ChannelDir is the declared direction of a channel type.
type ChannelDir uint8

const (
	ChannelIn ChannelDir = iota
	ChannelOut
)

func (d ChannelDir) String() string {
	if d == ChannelIn {
		return "in"
	}
	return "out"
}

// FnTag marks the role a function plays inside a proc, if any.
type FnTag uint8

const (
	FnTagNormal FnTag = iota
	FnTagProcConfig
	FnTagProcNext
	FnTagProcInit
)

// BuiltinFn identifies a built-in callee a name reference resolved to.
type BuiltinFn uint8

const (
	BuiltinNone BuiltinFn = iota
	BuiltinMap
	BuiltinArraySize
	BuiltinWideningCast
	BuiltinFail
	BuiltinCover
	BuiltinTrace
	BuiltinClz
	BuiltinCtz
	BuiltinRev
)

var builtinNames = [...]string{
	BuiltinNone:         "<none>",
	BuiltinMap:          "map",
	BuiltinArraySize:    "array_size",
	BuiltinWideningCast: "widening_cast",
	BuiltinFail:         "fail!",
	BuiltinCover:        "cover!",
	BuiltinTrace:        "trace_fmt!",
	BuiltinClz:          "clz",
	BuiltinCtz:          "ctz",
	BuiltinRev:          "rev",
}

func (b BuiltinFn) String() string {
	if int(b) < len(builtinNames) {
		return builtinNames[b]
	}
	return "<none>"
}

// BuiltinByName maps a source name onto a BuiltinFn, or BuiltinNone.
func BuiltinByName(name string) BuiltinFn {
	for b, n := range builtinNames {
		if BuiltinFn(b) != BuiltinNone && n == name {
			return BuiltinFn(b)
		}
	}
	return BuiltinNone
}
