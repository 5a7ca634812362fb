package diag

import (
	"fmt"
)

type Code uint16

// Code space: 1000s are load/interchange problems, 2000s are type errors
// surfaced for rendering, 3000s are checker warnings.
const (
	UnknownCode Code = 0

	// Loading and AST interchange.
	LoadInfo          Code = 1000
	LoadBadArchive    Code = 1001
	LoadBadParentage  Code = 1002
	LoadBadManifest   Code = 1003
	LoadImportCycle   Code = 1004
	LoadMissingModule Code = 1005

	// Type errors (the sema error taxonomy mapped onto render codes).
	TypeInfo             Code = 2000
	TypeInference        Code = 2001
	TypeMismatch         Code = 2002
	TypeArgCountMismatch Code = 2003
	TypeBadIdentifier    Code = 2004
	TypeInternal         Code = 2005

	// Checker warnings.
	WarnInfo                      Code = 3000
	WarnUnusedDefinition          Code = 3001
	WarnUselessExpressionStmt     Code = 3002
	WarnTrailingTupleAfterSemi    Code = 3003
	WarnEmptyRangeLiteral         Code = 3004
	WarnUselessStructSplat        Code = 3005
	WarnUselessLetBinding         Code = 3006
	WarnUnusedParametricBinding   Code = 3007
	WarnIllegalPackageImportAlias Code = 3008
)

func (c Code) String() string {
	switch {
	case c >= 3000 && c < 4000:
		return fmt.Sprintf("WRN%04d", uint16(c))
	case c >= 2000 && c < 3000:
		return fmt.Sprintf("TYP%04d", uint16(c))
	case c >= 1000 && c < 2000:
		return fmt.Sprintf("LOD%04d", uint16(c))
	default:
		return fmt.Sprintf("UNK%04d", uint16(c))
	}
}
