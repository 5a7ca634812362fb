package ast

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"ripple/internal/source"
)

// archiveVersion guards the .rast wire layout. Bump on any change to the
// arena structs below.
const archiveVersion uint32 = 3

// archive is the flat msgpack image of a module's arenas.
type archive struct {
	Version uint32
	Name    string
	Strings []string
	Members []Member

	Exprs        []Expr
	NameRefs     []ExprNameRefData
	ColonRefs    []ExprColonRefData
	Numbers      []ExprNumberData
	StringLits   []ExprStringData
	Binops       []ExprBinopData
	Unops        []ExprUnopData
	Invocations  []ExprInvocationData
	Spawns       []ExprSpawnData
	Indexes      []ExprIndexData
	Conditionals []ExprConditionalData
	Matches      []ExprMatchData
	Fors         []ExprForData
	Casts        []ExprCastData
	Arrays       []ExprArrayData
	TupleLits    []ExprTupleData
	TupleIndexes []ExprTupleIndexData
	StructInsts  []ExprStructInstanceData
	SplatInsts   []ExprSplatStructInstanceData
	Attrs        []ExprAttrData
	Ranges       []ExprRangeData
	Blocks       []ExprBlockData
	ZeroMacros   []ExprZeroMacroData

	Stmts            []Stmt
	Lets             []StmtLetData
	StmtConstAsserts []StmtConstAssertData
	StmtExprs        []StmtExprData

	TypeAnns     []TypeAnn
	AnnBuiltins  []TypeAnnBuiltinData
	AnnArrays    []TypeAnnArrayData
	AnnTuples    []TypeAnnTupleData
	AnnNames     []TypeAnnNameData
	AnnChannels  []TypeAnnChannelData

	Pats        []Pat
	PatNames    []PatNameData
	PatLiterals []PatLiteralData
	PatTuples   []PatTupleData

	NameDefs     []NameDef
	Params       []Param
	PBindings    []PBinding
	Fns          []Fn
	Procs        []Proc
	ProcMembers  []ProcMember
	Structs      []Struct
	Enums        []Enum
	Aliases      []Alias
	Constants    []Constant
	Imports      []Import
	QuickChecks  []QuickCheck
	ConstAsserts []ConstAssert
}

// EncodeModule writes the builder's module as a .rast stream.
func EncodeModule(w io.Writer, b *Builder) error {
	a := archive{
		Version: archiveVersion,
		Name:    b.Module.Name,
		Strings: b.Strings.Snapshot(),
		Members: b.Module.Members,

		Exprs:        b.Exprs.Arena.Slice(),
		NameRefs:     b.Exprs.NameRefs.Slice(),
		ColonRefs:    b.Exprs.ColonRefs.Slice(),
		Numbers:      b.Exprs.Numbers.Slice(),
		StringLits:   b.Exprs.Strings.Slice(),
		Binops:       b.Exprs.Binops.Slice(),
		Unops:        b.Exprs.Unops.Slice(),
		Invocations:  b.Exprs.Invocations.Slice(),
		Spawns:       b.Exprs.Spawns.Slice(),
		Indexes:      b.Exprs.Indexes.Slice(),
		Conditionals: b.Exprs.Conditionals.Slice(),
		Matches:      b.Exprs.Matches.Slice(),
		Fors:         b.Exprs.Fors.Slice(),
		Casts:        b.Exprs.Casts.Slice(),
		Arrays:       b.Exprs.Arrays.Slice(),
		TupleLits:    b.Exprs.Tuples.Slice(),
		TupleIndexes: b.Exprs.TupleIndexes.Slice(),
		StructInsts:  b.Exprs.StructInsts.Slice(),
		SplatInsts:   b.Exprs.SplatInsts.Slice(),
		Attrs:        b.Exprs.Attrs.Slice(),
		Ranges:       b.Exprs.Ranges.Slice(),
		Blocks:       b.Exprs.Blocks.Slice(),
		ZeroMacros:   b.Exprs.ZeroMacros.Slice(),

		Stmts:            b.Stmts.Arena.Slice(),
		Lets:             b.Stmts.Lets.Slice(),
		StmtConstAsserts: b.Stmts.ConstAsserts.Slice(),
		StmtExprs:        b.Stmts.Exprs.Slice(),

		TypeAnns:    b.Types.Arena.Slice(),
		AnnBuiltins: b.Types.Builtins.Slice(),
		AnnArrays:   b.Types.Arrays.Slice(),
		AnnTuples:   b.Types.Tuples.Slice(),
		AnnNames:    b.Types.Names.Slice(),
		AnnChannels: b.Types.Channels.Slice(),

		Pats:        b.Pats.Arena.Slice(),
		PatNames:    b.Pats.Names.Slice(),
		PatLiterals: b.Pats.Literals.Slice(),
		PatTuples:   b.Pats.Tuples.Slice(),

		NameDefs:     b.NameDefs.Slice(),
		Params:       b.Params.Slice(),
		PBindings:    b.PBindings.Slice(),
		Fns:          b.Fns.Slice(),
		Procs:        b.Procs.Slice(),
		ProcMembers:  b.ProcMembers.Slice(),
		Structs:      b.Structs.Slice(),
		Enums:        b.Enums.Slice(),
		Aliases:      b.Aliases.Slice(),
		Constants:    b.Constants.Slice(),
		Imports:      b.Imports.Slice(),
		QuickChecks:  b.QuickChecks.Slice(),
		ConstAsserts: b.ConstAsserts.Slice(),
	}
	return msgpack.NewEncoder(w).Encode(&a)
}

// DecodeModule reads a .rast stream, rebuilds the arenas, and finalizes
// parentage so the result is ready for checking.
func DecodeModule(r io.Reader, file source.FileID) (*Builder, error) {
	var a archive
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode module archive: %w", err)
	}
	if a.Version != archiveVersion {
		return nil, fmt.Errorf("module archive version %d, want %d", a.Version, archiveVersion)
	}

	b := &Builder{
		Module:  &Module{Name: a.Name, File: file, Members: a.Members},
		Strings: source.InternerFromSnapshot(a.Strings),
		Exprs: &Exprs{
			Arena:        ArenaFromSlice(a.Exprs),
			NameRefs:     ArenaFromSlice(a.NameRefs),
			ColonRefs:    ArenaFromSlice(a.ColonRefs),
			Numbers:      ArenaFromSlice(a.Numbers),
			Strings:      ArenaFromSlice(a.StringLits),
			Binops:       ArenaFromSlice(a.Binops),
			Unops:        ArenaFromSlice(a.Unops),
			Invocations:  ArenaFromSlice(a.Invocations),
			Spawns:       ArenaFromSlice(a.Spawns),
			Indexes:      ArenaFromSlice(a.Indexes),
			Conditionals: ArenaFromSlice(a.Conditionals),
			Matches:      ArenaFromSlice(a.Matches),
			Fors:         ArenaFromSlice(a.Fors),
			Casts:        ArenaFromSlice(a.Casts),
			Arrays:       ArenaFromSlice(a.Arrays),
			Tuples:       ArenaFromSlice(a.TupleLits),
			TupleIndexes: ArenaFromSlice(a.TupleIndexes),
			StructInsts:  ArenaFromSlice(a.StructInsts),
			SplatInsts:   ArenaFromSlice(a.SplatInsts),
			Attrs:        ArenaFromSlice(a.Attrs),
			Ranges:       ArenaFromSlice(a.Ranges),
			Blocks:       ArenaFromSlice(a.Blocks),
			ZeroMacros:   ArenaFromSlice(a.ZeroMacros),
		},
		Stmts: &Stmts{
			Arena:        ArenaFromSlice(a.Stmts),
			Lets:         ArenaFromSlice(a.Lets),
			ConstAsserts: ArenaFromSlice(a.StmtConstAsserts),
			Exprs:        ArenaFromSlice(a.StmtExprs),
		},
		Types: &TypeAnns{
			Arena:    ArenaFromSlice(a.TypeAnns),
			Builtins: ArenaFromSlice(a.AnnBuiltins),
			Arrays:   ArenaFromSlice(a.AnnArrays),
			Tuples:   ArenaFromSlice(a.AnnTuples),
			Names:    ArenaFromSlice(a.AnnNames),
			Channels: ArenaFromSlice(a.AnnChannels),
		},
		Pats: &Pats{
			Arena:    ArenaFromSlice(a.Pats),
			Names:    ArenaFromSlice(a.PatNames),
			Literals: ArenaFromSlice(a.PatLiterals),
			Tuples:   ArenaFromSlice(a.PatTuples),
		},
		NameDefs:     ArenaFromSlice(a.NameDefs),
		Params:       ArenaFromSlice(a.Params),
		PBindings:    ArenaFromSlice(a.PBindings),
		Fns:          ArenaFromSlice(a.Fns),
		Procs:        ArenaFromSlice(a.Procs),
		ProcMembers:  ArenaFromSlice(a.ProcMembers),
		Structs:      ArenaFromSlice(a.Structs),
		Enums:        ArenaFromSlice(a.Enums),
		Aliases:      ArenaFromSlice(a.Aliases),
		Constants:    ArenaFromSlice(a.Constants),
		Imports:      ArenaFromSlice(a.Imports),
		QuickChecks:  ArenaFromSlice(a.QuickChecks),
		ConstAsserts: ArenaFromSlice(a.ConstAsserts),
	}
	if err := b.Finalize(); err != nil {
		return nil, fmt.Errorf("module archive %s: %w", a.Name, err)
	}
	return b, nil
}
