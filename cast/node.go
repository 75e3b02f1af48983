// Package cast implements the analyzed C AST of §3 "AST node": a tagged
// variant carrying a Properties record filled in once by sema, plus the
// scoped-identifier and flow-control-tree structures the analyzer and the
// AST→IR translator both walk. The flattened-struct variant shape (one
// struct with per-kind fields, rather than one Go type per node kind)
// follows other_examples' raymyers-ralph-cc-go cminorsel/rtl AST families,
// themselves following the teacher's single-shape instruction style.
package cast

import (
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/diag"
)

// NodeKind tags the Node variant, covering every constructor in §3.
type NodeKind int

const (
	NodeConstant NodeKind = iota
	NodeIdentifier
	NodeStringLiteral
	NodeStructMember
	NodeIndirectMember
	NodeArraySubscript
	NodeUnaryOp
	NodeBinaryOp
	NodeCast
	NodeCall
	NodeCompoundLiteral
	NodeGenericSelection
	NodeConditional
	NodeComma
	NodeAssignment
	NodeBuiltin
	NodeTypeName
	NodeDeclaration
	// Statements
	NodeExprStatement
	NodeCompoundStatement
	NodeLabeledStatement
	NodeCaseStatement
	NodeSwitchStatement
	NodeIfStatement
	NodeWhileStatement
	NodeDoWhileStatement
	NodeForStatement
	NodeGotoStatement
	NodeContinueStatement
	NodeBreakStatement
	NodeReturnStatement
	NodeInlineAsmStatement
	NodeStaticAssertion
)

// Category classifies what role a node's Properties represent, per §3.
type Category int

const (
	CategoryExpression Category = iota
	CategoryType
	CategoryStatement
	CategoryDeclaration
	CategoryInitDeclarator
	CategoryMemberDesignator
	CategoryInlineAssembly
)

// ConstExprClass classifies the constant-expression-ness of an expression
// node, per §4.1.
type ConstExprClass int

const (
	ConstNone ConstExprClass = iota
	ConstInteger
	ConstFloat
	ConstComplexFloat
	ConstAddress
)

// BitPayload carries an integer constant's value when it exceeds the host
// value-bit width, per §3: "integer constants also carry a bigint payload
// when width exceeds the host value-bit width".
type BitPayload struct {
	Digits []byte // little-endian digit buffer, bigint.Digit-compatible
	Width  int
}

// Properties is the per-node record the analyzer fills in (§3).
type Properties struct {
	Category         Category
	Type             *ctype.Type
	IsLvalue         bool
	Addressable      bool
	ConstExpr        ConstExprClass
	ConstInt         int64
	ConstBigInt      *BitPayload
	Atomic           bool
	Bitfield         *BitfieldRef
	ScopedIdentifier *ScopedIdentifier
	FlowControl      *FlowControlPoint
	TargetLabel      *ScopedIdentifier
	TempIdentifier   int // nonzero once a temporary has been requested for this node
}

// BitfieldRef points at the field descriptor backing a struct-member access
// that resolved to a bit-field, so later stages can read its width/offset
// without re-resolving the member by name.
type BitfieldRef struct {
	Width     int
	BitOffset int
}

// Node is the tagged AST node variant of §3. Payload fields are populated
// according to Kind; this mirrors ssa.Instruction's single-struct style
// rather than per-kind Go types, since the analyzer and translator both
// switch exhaustively on Kind anyway and a single type keeps arena
// allocation (and cyclic child/parent back-references) simple.
type Node struct {
	Kind     NodeKind
	Location diag.Location
	Props    Properties

	// Generic structural children, used by most variants.
	Children []*Node

	// Leaf payload, meaningful per Kind.
	Ident      string // NodeIdentifier, NodeStructMember (member name), NodeGotoStatement, label name
	StrValue   string // NodeStringLiteral
	IntValue   int64  // NodeConstant (integer)
	FloatValue float64
	Op         string // NodeUnaryOp/NodeBinaryOp/NodeAssignment operator spelling

	// NodeCall
	Callee Children1
	Args   []*Node

	// NodeDeclaration
	DeclType    *ctype.Type
	InitExpr    *Node
	StorageHint string

	// NodeSwitchStatement / NodeCaseStatement
	CaseValue int64
	IsDefault bool

	// NodeLabeledStatement / NodeGotoStatement
	LabelName string

	// NodeInlineAsmStatement
	Asm *InlineAsm
}

// Children1 aliases *Node for documentation purposes at single-child sites.
type Children1 = *Node

// InlineAsm carries the outputs/inputs/clobbers/jump-labels of §4.1's
// inline-assembly analysis.
type InlineAsm struct {
	Template   string
	Outputs    []*Node // must be lvalue expressions
	Inputs     []*Node
	Clobbers   []string
	JumpLabels []string
	AtFileScope bool
}

// Single returns the node's lone child, or nil.
func (n *Node) Single() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}
