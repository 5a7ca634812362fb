package ast

// NodeKind discriminates handle namespaces so a single reference can point at
// any arena-allocated node. Used for parent links and type-info keys.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota
	NodeModule
	NodeExpr
	NodeStmt
	NodeType
	NodePat
	NodeNameDef
	NodeParam
	NodePBinding
	NodeFn
	NodeProc
	NodeProcMember
	NodeStruct
	NodeEnum
	NodeAlias
	NodeConstant
	NodeImport
	NodeQuickCheck
	NodeConstAssert
)

// NodeRef identifies one node of any kind.
type NodeRef struct {
	Kind  NodeKind
	Index uint32
}

var NoNodeRef = NodeRef{}

func (r NodeRef) IsValid() bool { return r.Kind != NodeInvalid }

func ModuleRef() NodeRef                    { return NodeRef{Kind: NodeModule, Index: 1} }
func ExprRef(id ExprID) NodeRef             { return NodeRef{Kind: NodeExpr, Index: uint32(id)} }
func StmtRef(id StmtID) NodeRef             { return NodeRef{Kind: NodeStmt, Index: uint32(id)} }
func TypeAnnRef(id TypeID) NodeRef          { return NodeRef{Kind: NodeType, Index: uint32(id)} }
func PatRef(id PatID) NodeRef               { return NodeRef{Kind: NodePat, Index: uint32(id)} }
func NameDefRef(id NameDefID) NodeRef       { return NodeRef{Kind: NodeNameDef, Index: uint32(id)} }
func ParamRef(id ParamID) NodeRef           { return NodeRef{Kind: NodeParam, Index: uint32(id)} }
func PBindingRef(id PBindingID) NodeRef     { return NodeRef{Kind: NodePBinding, Index: uint32(id)} }
func FnRef(id FnID) NodeRef                 { return NodeRef{Kind: NodeFn, Index: uint32(id)} }
func ProcRef(id ProcID) NodeRef             { return NodeRef{Kind: NodeProc, Index: uint32(id)} }
func ProcMemberRef(id ProcMemberID) NodeRef { return NodeRef{Kind: NodeProcMember, Index: uint32(id)} }
func StructRef(id StructID) NodeRef         { return NodeRef{Kind: NodeStruct, Index: uint32(id)} }
func EnumRef(id EnumID) NodeRef             { return NodeRef{Kind: NodeEnum, Index: uint32(id)} }
func AliasRef(id AliasID) NodeRef           { return NodeRef{Kind: NodeAlias, Index: uint32(id)} }
func ConstantRef(id ConstantID) NodeRef     { return NodeRef{Kind: NodeConstant, Index: uint32(id)} }
func ImportRef(id ImportID) NodeRef         { return NodeRef{Kind: NodeImport, Index: uint32(id)} }
func QuickCheckRef(id QuickCheckID) NodeRef {
	return NodeRef{Kind: NodeQuickCheck, Index: uint32(id)}
}
func ConstAssertRef(id ConstAssertID) NodeRef {
	return NodeRef{Kind: NodeConstAssert, Index: uint32(id)}
}
