package ast

type (
	// Core node handles.
	ExprID uint32
	StmtID uint32
	TypeID uint32
	PatID  uint32
	// Definitions and bindings.
	NameDefID    uint32
	ParamID      uint32
	PBindingID   uint32
	FnID         uint32
	ProcID       uint32
	ProcMemberID uint32
	StructID     uint32
	EnumID       uint32
	AliasID      uint32
	ConstantID   uint32
	ImportID     uint32
	QuickCheckID uint32
	ConstAssertID uint32
	// Payload index inside a per-kind arena.
	PayloadID uint32
)

const (
	NoExprID        ExprID        = 0
	NoStmtID        StmtID        = 0
	NoTypeID        TypeID        = 0
	NoPatID         PatID         = 0
	NoNameDefID     NameDefID     = 0
	NoParamID       ParamID       = 0
	NoPBindingID    PBindingID    = 0
	NoFnID          FnID          = 0
	NoProcID        ProcID        = 0
	NoProcMemberID  ProcMemberID  = 0
	NoStructID      StructID      = 0
	NoEnumID        EnumID        = 0
	NoAliasID       AliasID       = 0
	NoConstantID    ConstantID    = 0
	NoImportID      ImportID      = 0
	NoQuickCheckID  QuickCheckID  = 0
	NoConstAssertID ConstAssertID = 0
	NoPayloadID     PayloadID     = 0
)

func (id ExprID) IsValid() bool        { return id != NoExprID }
func (id StmtID) IsValid() bool        { return id != NoStmtID }
func (id TypeID) IsValid() bool        { return id != NoTypeID }
func (id PatID) IsValid() bool         { return id != NoPatID }
func (id NameDefID) IsValid() bool     { return id != NoNameDefID }
func (id ParamID) IsValid() bool       { return id != NoParamID }
func (id PBindingID) IsValid() bool    { return id != NoPBindingID }
func (id FnID) IsValid() bool          { return id != NoFnID }
func (id ProcID) IsValid() bool        { return id != NoProcID }
func (id ProcMemberID) IsValid() bool  { return id != NoProcMemberID }
func (id StructID) IsValid() bool      { return id != NoStructID }
func (id EnumID) IsValid() bool        { return id != NoEnumID }
func (id AliasID) IsValid() bool       { return id != NoAliasID }
func (id ConstantID) IsValid() bool    { return id != NoConstantID }
func (id ImportID) IsValid() bool      { return id != NoImportID }
func (id QuickCheckID) IsValid() bool  { return id != NoQuickCheckID }
func (id ConstAssertID) IsValid() bool { return id != NoConstAssertID }
