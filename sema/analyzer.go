// Package sema implements the semantic analyzer of §4.1: a single
// recursive pass over the AST that fills in each node's Properties. The
// one-pass-over-children traversal shape follows the teacher's
// translateBlock/translateInst dispatch (one switch over node/instruction
// kind, recursing into children before acting on the parent).
package sema

import (
	"github.com/sourcehut-mirrors/selfcc/bigint"
	"github.com/sourcehut-mirrors/selfcc/cast"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/diag"
)

// Config toggles analyzer behaviors the spec leaves as a flag, e.g. §4.2:
// "Scalar-initializing an aggregate (without braces) is an error unless a
// configuration flag permits it."
type Config struct {
	PermitScalarInitializesAggregate bool
}

// Analyzer walks AST nodes exactly once, filling in Properties (§4.1).
type Analyzer struct {
	Traits *ctype.Traits
	Types  *ctype.Bundle
	Config Config

	flow  *cast.FlowControlPoint
	scope *cast.ScopeStack
	tempCounter int
}

// NewAnalyzer creates an Analyzer over the given target traits and type
// bundle.
func NewAnalyzer(traits *ctype.Traits, types *ctype.Bundle, cfg Config) *Analyzer {
	root := &cast.ScopeStack{
		Ordinary: cast.NewScope(cast.ScopeOrdinary, nil),
		Tag:      cast.NewScope(cast.ScopeTag, nil),
		Label:    cast.NewScope(cast.ScopeLabel, nil),
	}
	return &Analyzer{Traits: traits, Types: types, Config: cfg, scope: root}
}

// AnalyzeNode is the single recursive entry point of §4.1: "Walks AST nodes
// exactly once (single pass, recursive), filling its properties."
func (a *Analyzer) AnalyzeNode(n *cast.Node) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case cast.NodeConstant:
		return a.analyzeConstant(n)
	case cast.NodeIdentifier:
		return a.analyzeIdentifier(n)
	case cast.NodeStringLiteral:
		return a.analyzeStringLiteral(n)
	case cast.NodeStructMember:
		return a.analyzeStructMember(n)
	case cast.NodeIndirectMember:
		return a.analyzeIndirectMember(n)
	case cast.NodeArraySubscript:
		return a.analyzeArraySubscript(n)
	case cast.NodeUnaryOp:
		return a.analyzeUnaryOp(n)
	case cast.NodeBinaryOp:
		return a.analyzeBinaryOp(n)
	case cast.NodeCast:
		return a.analyzeCast(n)
	case cast.NodeCall:
		return a.analyzeCall(n)
	case cast.NodeConditional:
		return a.analyzeConditional(n)
	case cast.NodeComma:
		return a.analyzeComma(n)
	case cast.NodeAssignment:
		return a.analyzeAssignment(n)
	case cast.NodeDeclaration:
		return a.analyzeDeclaration(n)
	case cast.NodeCompoundStatement:
		return a.analyzeCompoundStatement(n)
	case cast.NodeIfStatement:
		return a.analyzeIfStatement(n)
	case cast.NodeSwitchStatement:
		return a.analyzeSwitchStatement(n)
	case cast.NodeCaseStatement:
		return a.analyzeCaseStatement(n)
	case cast.NodeWhileStatement, cast.NodeDoWhileStatement, cast.NodeForStatement:
		return a.analyzeLoopStatement(n)
	case cast.NodeGotoStatement:
		return a.analyzeGotoStatement(n)
	case cast.NodeBreakStatement:
		return a.analyzeBreakStatement(n)
	case cast.NodeContinueStatement:
		return a.analyzeContinueStatement(n)
	case cast.NodeLabeledStatement:
		return a.analyzeLabeledStatement(n)
	case cast.NodeReturnStatement:
		return a.analyzeChildren(n)
	case cast.NodeExprStatement:
		return a.analyzeChildren(n)
	case cast.NodeStaticAssertion:
		return a.analyzeStaticAssertion(n)
	case cast.NodeInlineAsmStatement:
		return a.analyzeInlineAsm(n)
	default:
		return a.analyzeChildren(n)
	}
}

func (a *Analyzer) analyzeChildren(n *cast.Node) error {
	for _, c := range n.Children {
		if err := a.AnalyzeNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeConstant(n *cast.Node) error {
	n.Props.Category = cast.CategoryExpression
	n.Props.IsLvalue = false
	if n.DeclType != nil {
		n.Props.Type = n.DeclType
	} else {
		n.Props.Type = a.Types.Basic(ctype.KindInt)
	}
	if n.Props.Type.IsFloating() {
		n.Props.ConstExpr = cast.ConstFloat
	} else {
		n.Props.ConstExpr = cast.ConstInteger
		n.Props.ConstInt = n.IntValue
	}
	return nil
}

func (a *Analyzer) analyzeStringLiteral(n *cast.Node) error {
	n.Props.Category = cast.CategoryExpression
	n.Props.IsLvalue = true
	n.Props.Addressable = true
	elem := a.Types.Basic(ctype.KindChar)
	n.Props.Type = a.Types.NewArray(elem, ctype.BoundaryConstant, int64(len(n.StrValue)+1))
	n.Props.ConstExpr = cast.ConstAddress
	return nil
}

func (a *Analyzer) analyzeIdentifier(n *cast.Node) error {
	n.Props.Category = cast.CategoryExpression
	id, ok := a.scope.Ordinary.Lookup(n.Ident)
	if !ok {
		return diag.At(diag.AnalysisError, n.Location, "use of undeclared identifier %q", n.Ident)
	}
	n.Props.ScopedIdentifier = id
	switch id.Kind {
	case cast.IdentObject:
		n.Props.Type = id.Type
		n.Props.IsLvalue = true
		n.Props.Addressable = true
		if id.Storage == cast.StorageStatic || id.Storage == cast.StorageExtern {
			n.Props.ConstExpr = cast.ConstAddress
		}
	case cast.IdentFunction:
		n.Props.Type = id.Type
		n.Props.IsLvalue = false
		n.Props.ConstExpr = cast.ConstAddress
	case cast.IdentEnumConstant:
		n.Props.Type = id.EnumUnderlying
		n.Props.IsLvalue = false
		n.Props.ConstExpr = cast.ConstInteger
		n.Props.ConstInt = id.EnumValue
	default:
		return diag.At(diag.AnalysisError, n.Location, "identifier %q does not name a value", n.Ident)
	}
	return nil
}

func (a *Analyzer) analyzeStructMember(n *cast.Node) error {
	base := n.Single()
	if err := a.AnalyzeNode(base); err != nil {
		return err
	}
	n.Props.Category = cast.CategoryExpression
	agg := base.Props.Type.Unqualified()
	if agg.Kind != ctype.KindStruct && agg.Kind != ctype.KindUnion {
		return diag.At(diag.AnalysisError, n.Location, "member reference base type is not a struct or union")
	}
	path, _, ok := ctype.ResolveField(agg, n.Ident)
	if !ok {
		return diag.At(diag.AnalysisError, n.Location, "no member named %q", n.Ident)
	}
	field := path[len(path)-1]
	n.Props.Type = field.Type
	n.Props.IsLvalue = base.Props.IsLvalue
	n.Props.Addressable = base.Props.Addressable
	baseQuals := ctype.QualifiersOf(base.Props.Type)
	if baseQuals != 0 {
		n.Props.Type = ctype.Qualified(field.Type, baseQuals)
	}
	if field.BitfieldBits >= 0 {
		n.Props.Bitfield = &cast.BitfieldRef{Width: field.BitfieldBits, BitOffset: field.BitOffset}
	}
	return nil
}

func (a *Analyzer) analyzeIndirectMember(n *cast.Node) error {
	base := n.Single()
	if err := a.AnalyzeNode(base); err != nil {
		return err
	}
	baseTy := base.Props.Type.Unqualified()
	if baseTy.Kind != ctype.KindPointer {
		return diag.At(diag.AnalysisError, n.Location, "member reference type %v is not a pointer", baseTy.Kind)
	}
	agg := baseTy.Elem.Unqualified()
	if agg.Kind != ctype.KindStruct && agg.Kind != ctype.KindUnion {
		return diag.At(diag.AnalysisError, n.Location, "indirect member base does not point to a struct or union")
	}
	path, _, ok := ctype.ResolveField(agg, n.Ident)
	if !ok {
		return diag.At(diag.AnalysisError, n.Location, "no member named %q", n.Ident)
	}
	field := path[len(path)-1]
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = field.Type
	n.Props.IsLvalue = true
	n.Props.Addressable = true
	if field.BitfieldBits >= 0 {
		n.Props.Bitfield = &cast.BitfieldRef{Width: field.BitfieldBits, BitOffset: field.BitOffset}
	}
	return nil
}

// analyzeArraySubscript implements §4.1: "requires one pointer or array
// operand and one integral operand; the result is lvalue; if the underlying
// array is a named object with static/extern storage, the result is
// constant-expression-classified as address."
func (a *Analyzer) analyzeArraySubscript(n *cast.Node) error {
	if len(n.Children) != 2 {
		return diag.At(diag.InternalError, n.Location, "array subscript requires exactly 2 children")
	}
	base, index := n.Children[0], n.Children[1]
	if err := a.AnalyzeNode(base); err != nil {
		return err
	}
	if err := a.AnalyzeNode(index); err != nil {
		return err
	}
	arrTy, idxTy := base.Props.Type.Unqualified(), index.Props.Type.Unqualified()
	pointee, ok := elementTypeOf(arrTy)
	if !ok {
		pointee, ok = elementTypeOf(idxTy)
		if !ok {
			return diag.At(diag.AnalysisError, n.Location, "subscripted value is neither array nor pointer")
		}
		base, index = index, base
		idxTy = n.Children[0].Props.Type.Unqualified()
	}
	if !idxTy.IsInteger() {
		return diag.At(diag.AnalysisError, n.Location, "array subscript is not an integer")
	}
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = pointee
	n.Props.IsLvalue = true
	n.Props.Addressable = true
	if base.Props.ScopedIdentifier != nil && base.Props.ConstExpr == cast.ConstAddress {
		n.Props.ConstExpr = cast.ConstAddress
	}
	return nil
}

func elementTypeOf(t *ctype.Type) (*ctype.Type, bool) {
	switch t.Kind {
	case ctype.KindArray, ctype.KindPointer:
		return t.Elem, true
	default:
		return nil, false
	}
}

func (a *Analyzer) analyzeUnaryOp(n *cast.Node) error {
	operand := n.Single()
	if err := a.AnalyzeNode(operand); err != nil {
		return err
	}
	n.Props.Category = cast.CategoryExpression
	switch n.Op {
	case "&":
		if !operand.Props.Addressable {
			return diag.At(diag.AnalysisError, n.Location, "cannot take the address of an expression that is not addressable")
		}
		n.Props.Type = a.Types.Pointer(operand.Props.Type)
		n.Props.ConstExpr = operand.Props.ConstExpr
	case "*":
		opTy := operand.Props.Type.Unqualified()
		if opTy.Kind != ctype.KindPointer {
			return diag.At(diag.AnalysisError, n.Location, "indirection requires pointer operand")
		}
		n.Props.Type = opTy.Elem
		n.Props.IsLvalue = true
		n.Props.Addressable = true
	case "+", "-", "~":
		if !operand.Props.Type.IsScalar() {
			return diag.At(diag.AnalysisError, n.Location, "operand of unary %s is not arithmetic", n.Op)
		}
		n.Props.Type = ctype.Promote(a.Traits, operand.Props.Type)
		n.Props.ConstExpr = operand.Props.ConstExpr
	case "!":
		n.Props.Type = a.Types.Basic(ctype.KindInt)
		n.Props.ConstExpr = operand.Props.ConstExpr
	case "++", "--":
		if !operand.Props.IsLvalue {
			return diag.At(diag.AnalysisError, n.Location, "increment/decrement operand is not an lvalue")
		}
		n.Props.Type = operand.Props.Type
	default:
		return diag.At(diag.InternalError, n.Location, "unknown unary operator %q", n.Op)
	}
	return nil
}

func (a *Analyzer) analyzeBinaryOp(n *cast.Node) error {
	lhs, rhs := n.Children[0], n.Children[1]
	if err := a.AnalyzeNode(lhs); err != nil {
		return err
	}
	if err := a.AnalyzeNode(rhs); err != nil {
		return err
	}
	n.Props.Category = cast.CategoryExpression
	lt, rt := lhs.Props.Type.Unqualified(), rhs.Props.Type.Unqualified()

	switch n.Op {
	case "+", "-", "*", "/", "%", "&", "|", "^":
		if !lt.IsScalar() || !rt.IsScalar() {
			return diag.At(diag.AnalysisError, n.Location, "operands of %q must be arithmetic", n.Op)
		}
		n.Props.Type = ctype.UsualArithmeticConversions(a.Traits, lt, rt)
	case "<<", ">>":
		if !lt.IsInteger() || !rt.IsInteger() {
			return diag.At(diag.AnalysisError, n.Location, "shift operands must be integral")
		}
		n.Props.Type = ctype.Promote(a.Traits, lt)
	case "<", ">", "<=", ">=", "==", "!=":
		if err := a.checkRelational(n, lt, rt); err != nil {
			return err
		}
		n.Props.Type = a.Types.Basic(ctype.KindInt)
	case "&&", "||":
		n.Props.Type = a.Types.Basic(ctype.KindInt)
	default:
		return diag.At(diag.InternalError, n.Location, "unknown binary operator %q", n.Op)
	}
	if lhs.Props.ConstExpr != cast.ConstNone && rhs.Props.ConstExpr != cast.ConstNone {
		n.Props.ConstExpr = cast.ConstInteger
		if n.Props.Type.IsFloating() {
			n.Props.ConstExpr = cast.ConstFloat
		}
	}
	return nil
}

// checkRelational implements §4.1: "Relational and equality comparisons
// require compatible pointer operands or arithmetic operands; one operand
// may be the null-pointer constant."
func (a *Analyzer) checkRelational(n *cast.Node, lt, rt *ctype.Type) error {
	if lt.IsScalar() && rt.IsScalar() && !lt.IsPointer() && !rt.IsPointer() {
		return nil
	}
	if lt.Kind == ctype.KindNullPointer || rt.Kind == ctype.KindNullPointer {
		return nil
	}
	if lt.IsPointer() && rt.IsPointer() {
		if ctype.Compose(lt.Unqualified(), rt.Unqualified()) == nil && lt.Elem.Kind != ctype.KindVoid && rt.Elem.Kind != ctype.KindVoid {
			return diag.At(diag.AnalysisError, n.Location, "comparison of incompatible pointer types")
		}
		return nil
	}
	return diag.At(diag.AnalysisError, n.Location, "invalid operands to binary comparison")
}

func (a *Analyzer) analyzeCast(n *cast.Node) error {
	operand := n.Single()
	if err := a.AnalyzeNode(operand); err != nil {
		return err
	}
	target := n.DeclType
	if target.Kind != ctype.KindVoid && !target.IsScalar() {
		return diag.At(diag.AnalysisError, n.Location, "cast target type must be scalar or void")
	}
	if !operand.Props.Type.IsScalar() {
		return diag.At(diag.AnalysisError, n.Location, "cast operand must be scalar")
	}
	if (target.IsFloating() && operand.Props.Type.IsPointer()) || (target.IsPointer() && operand.Props.Type.IsFloating()) {
		return diag.At(diag.AnalysisError, n.Location, "cannot cast between floating-point and pointer types")
	}
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = target
	n.Props.ConstExpr = operand.Props.ConstExpr // casts preserve constant-expression classification of the source
	n.Props.ConstInt = operand.Props.ConstInt
	return nil
}

func (a *Analyzer) analyzeConditional(n *cast.Node) error {
	cond, t, f := n.Children[0], n.Children[1], n.Children[2]
	for _, c := range []*cast.Node{cond, t, f} {
		if err := a.AnalyzeNode(c); err != nil {
			return err
		}
	}
	result, ok := ctype.ConditionalCompositeType(a.Traits, t.Props.Type, f.Props.Type)
	if !ok {
		return diag.At(diag.AnalysisError, n.Location, "incompatible operand types in conditional expression")
	}
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = result
	return nil
}

func (a *Analyzer) analyzeComma(n *cast.Node) error {
	for _, c := range n.Children {
		if err := a.AnalyzeNode(c); err != nil {
			return err
		}
	}
	last := n.Children[len(n.Children)-1]
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = last.Props.Type
	return nil
}

// IsTypeAssignable reports whether a value of type src may be assigned to a
// variable of type dst (§4.1 operation IsTypeAssignable).
func (a *Analyzer) IsTypeAssignable(dst, src *ctype.Type) bool {
	du, su := dst.Unqualified(), src.Unqualified()
	if du.IsScalar() && su.IsScalar() {
		if du.IsPointer() && su.Kind == ctype.KindNullPointer {
			return true
		}
		if du.IsPointer() && su.IsPointer() {
			return du.Elem.Kind == ctype.KindVoid || su.Elem.Kind == ctype.KindVoid || ctype.Compose(du.Elem.Unqualified(), su.Elem.Unqualified()) != nil
		}
		if du.IsPointer() != su.IsPointer() {
			return false
		}
		return true
	}
	return ctype.Equal(du, su)
}

// IsNodeAssignableToType reports whether node n (already analyzed) may be
// assigned to a variable of type dst.
func (a *Analyzer) IsNodeAssignableToType(n *cast.Node, dst *ctype.Type) bool {
	if n.Props.ConstExpr == cast.ConstInteger && n.Props.ConstInt == 0 && dst.Unqualified().IsPointer() {
		return true
	}
	return a.IsTypeAssignable(dst, n.Props.Type)
}

func (a *Analyzer) analyzeAssignment(n *cast.Node) error {
	lhs, rhs := n.Children[0], n.Children[1]
	if err := a.AnalyzeNode(lhs); err != nil {
		return err
	}
	if err := a.AnalyzeNode(rhs); err != nil {
		return err
	}
	if !lhs.Props.IsLvalue {
		return diag.At(diag.AnalysisError, n.Location, "assignment target is not an lvalue")
	}
	if !a.IsNodeAssignableToType(rhs, lhs.Props.Type) {
		return diag.At(diag.AnalysisError, n.Location, "incompatible types in assignment")
	}
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = lhs.Props.Type
	n.Props.IsLvalue = true
	return nil
}

// IsLvalueReferenceConstant reports whether node n is an lvalue that refers
// to an object with static/extern storage, i.e. is usable in the "address"
// constant-expression class (§4.1 operation IsLvalueReferenceConstant).
func (a *Analyzer) IsLvalueReferenceConstant(n *cast.Node) bool {
	if !n.Props.IsLvalue || n.Props.ScopedIdentifier == nil {
		return false
	}
	id := n.Props.ScopedIdentifier
	return id.Kind == cast.IdentObject && (id.Storage == cast.StorageStatic || id.Storage == cast.StorageExtern)
}

func (a *Analyzer) analyzeCall(n *cast.Node) error {
	if err := a.AnalyzeNode(n.Callee); err != nil {
		return err
	}
	for _, arg := range n.Args {
		if err := a.AnalyzeNode(arg); err != nil {
			return err
		}
	}
	calleeTy := n.Callee.Props.Type.Unqualified()
	if calleeTy.Kind == ctype.KindPointer {
		calleeTy = calleeTy.Elem.Unqualified()
	}
	if calleeTy.Kind != ctype.KindFunction {
		return diag.At(diag.AnalysisError, n.Location, "called object is not a function")
	}
	if !calleeTy.Ellipsis && !calleeTy.KRStyle && len(n.Args) != len(calleeTy.Params) {
		return diag.At(diag.AnalysisError, n.Location, "function call argument count mismatch: expected %d, got %d", len(calleeTy.Params), len(n.Args))
	}
	n.Props.Category = cast.CategoryExpression
	n.Props.Type = calleeTy.Return
	if n.Props.Type.Unqualified().Kind == ctype.KindStruct || n.Props.Type.Unqualified().Kind == ctype.KindUnion || n.Props.Type.IsComplex() {
		a.tempCounter++
		n.Props.TempIdentifier = a.tempCounter
	}
	return nil
}

func (a *Analyzer) analyzeDeclaration(n *cast.Node) error {
	n.Props.Category = cast.CategoryDeclaration
	if n.InitExpr != nil {
		if err := a.AnalyzeNode(n.InitExpr); err != nil {
			return err
		}
		if !a.Config.PermitScalarInitializesAggregate {
			dt := n.DeclType.Unqualified()
			if (dt.Kind == ctype.KindStruct || dt.Kind == ctype.KindUnion || dt.Kind == ctype.KindArray) &&
				n.InitExpr.Kind != cast.NodeDeclaration /* not a brace-init marker */ && n.InitExpr.Props.Category == cast.CategoryExpression {
				return diag.At(diag.AnalysisError, n.Location, "scalar initializer cannot initialize aggregate type without braces")
			}
		}
	}
	return a.validateDeclaredType(n.Location, n.DeclType)
}

// validateDeclaredType performs the struct/union and function-type checks
// of §4.1.
func (a *Analyzer) validateDeclaredType(loc diag.Location, t *ctype.Type) error {
	switch t.Unqualified().Kind {
	case ctype.KindStruct, ctype.KindUnion:
		return a.validateAggregate(loc, t.Unqualified())
	case ctype.KindFunction:
		return a.validateFunctionType(loc, t.Unqualified())
	default:
		return nil
	}
}

// validateAggregate enforces §4.1's struct/union analysis rules.
func (a *Analyzer) validateAggregate(loc diag.Location, agg *ctype.Type) error {
	if !agg.Complete {
		return nil
	}
	for i, f := range agg.Fields {
		ft := f.Type.Unqualified()
		if ft.Kind == ctype.KindFunction {
			return diag.At(diag.AnalysisError, loc, "field %q may not have function type", f.Name)
		}
		if !ft.Complete && (ft.Kind == ctype.KindStruct || ft.Kind == ctype.KindUnion) {
			return diag.At(diag.AnalysisError, loc, "field %q has incomplete type", f.Name)
		}
		if ft.IsVariablyModified() {
			last := i == len(agg.Fields)-1
			flexible := last && ft.Kind == ctype.KindArray && ft.ArrayBoundary == ctype.BoundaryUnbounded
			if !flexible {
				return diag.At(diag.AnalysisError, loc, "field %q may not have variably modified type", f.Name)
			}
		}
		if f.BitfieldBits >= 0 {
			if f.BitfieldBits < 0 {
				return diag.At(diag.AnalysisError, loc, "bit-field width must be a non-negative integer constant expression")
			}
			if f.BitfieldBits == 0 && f.Name != "" {
				return diag.At(diag.AnalysisError, loc, "named bit-field may not have zero width")
			}
			if f.Align != 0 {
				return diag.At(diag.AnalysisError, loc, "bit-fields cannot have explicit alignment")
			}
		}
		if ft.Kind == ctype.KindArray && ft.ArrayBoundary == ctype.BoundaryUnbounded && i != len(agg.Fields)-1 {
			return diag.At(diag.AnalysisError, loc, "flexible array member must be the last field")
		}
		if ft.Kind == ctype.KindArray && ft.ArrayBoundary == ctype.BoundaryUnbounded && len(agg.Fields) == 1 {
			return diag.At(diag.AnalysisError, loc, "flexible array member requires at least one other named member")
		}
	}
	return nil
}

// validateFunctionType enforces §4.1's function-type analysis rules.
func (a *Analyzer) validateFunctionType(loc diag.Location, fn *ctype.Type) error {
	ret := fn.Return.Unqualified()
	if ret.Kind == ctype.KindArray {
		return diag.At(diag.AnalysisError, loc, "function may not return array type")
	}
	if ret.Kind == ctype.KindFunction {
		return diag.At(diag.AnalysisError, loc, "function may not return function type")
	}
	if len(fn.Params) == 1 && fn.Params[0].Unqualified().Kind == ctype.KindVoid {
		return nil
	}
	for _, p := range fn.Params {
		pu := p.Unqualified()
		if pu.Kind == ctype.KindVoid {
			return diag.At(diag.AnalysisError, loc, "'void' must be the only parameter and unnamed")
		}
		if !pu.Complete && (pu.Kind == ctype.KindStruct || pu.Kind == ctype.KindUnion) {
			return diag.At(diag.AnalysisError, loc, "parameter has incomplete type")
		}
	}
	return nil
}

func (a *Analyzer) analyzeStaticAssertion(n *cast.Node) error {
	cond := n.Single()
	if err := a.AnalyzeNode(cond); err != nil {
		return err
	}
	zero, err := a.IsConditionZero(cond)
	if err != nil {
		return err
	}
	if zero {
		return diag.StaticAssertFailure(n.Location, n.StrValue)
	}
	return nil
}

// IsConditionZero evaluates a (already-analyzed) constant condition node,
// using bigint.IsZero for bit-precise condition types per §4.1: "Bit-precise
// condition types evaluate via bigint is_zero."
func (a *Analyzer) IsConditionZero(n *cast.Node) (bool, error) {
	if n.Props.ConstExpr != cast.ConstInteger && n.Props.ConstExpr != cast.ConstFloat {
		return false, diag.At(diag.AnalysisError, n.Location, "static assertion condition is not an integer constant expression")
	}
	if n.Props.ConstBigInt != nil {
		return bigint.IsZero(n.Props.ConstBigInt.Digits), nil
	}
	return n.Props.ConstInt == 0, nil
}
