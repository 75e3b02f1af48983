package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/cast"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/diag"
)

func newTestAnalyzer() *Analyzer {
	traits := ctype.DefaultTraits()
	return NewAnalyzer(traits, ctype.NewBundle(traits), Config{})
}

func intConst(v int64) *cast.Node {
	return &cast.Node{Kind: cast.NodeConstant, IntValue: v, DeclType: &ctype.Type{Kind: ctype.KindInt}}
}

func TestAnalyzeBinaryOpUsualArithmeticConversion(t *testing.T) {
	a := newTestAnalyzer()
	lhs := intConst(1)
	rhs := &cast.Node{Kind: cast.NodeConstant, DeclType: &ctype.Type{Kind: ctype.KindDouble}}
	n := &cast.Node{Kind: cast.NodeBinaryOp, Op: "+", Children: []*cast.Node{lhs, rhs}}

	require.NoError(t, a.AnalyzeNode(n))
	require.Equal(t, ctype.KindDouble, n.Props.Type.Kind)
	require.Equal(t, cast.ConstFloat, n.Props.ConstExpr)
}

func TestAnalyzeUndeclaredIdentifierFails(t *testing.T) {
	a := newTestAnalyzer()
	n := &cast.Node{Kind: cast.NodeIdentifier, Ident: "x"}
	err := a.AnalyzeNode(n)
	require.Error(t, err)
	require.Equal(t, diag.AnalysisError, diag.KindOf(err))
}

func TestAnalyzeAssignmentRejectsNonLvalue(t *testing.T) {
	a := newTestAnalyzer()
	lhs := intConst(1)
	rhs := intConst(2)
	n := &cast.Node{Kind: cast.NodeAssignment, Op: "=", Children: []*cast.Node{lhs, rhs}}
	err := a.AnalyzeNode(n)
	require.Error(t, err)
}

func TestAnalyzeStaticAssertionFailsOnZero(t *testing.T) {
	a := newTestAnalyzer()
	cond := intConst(0)
	n := &cast.Node{Kind: cast.NodeStaticAssertion, StrValue: "must not be zero", Children: []*cast.Node{cond}}
	err := a.AnalyzeNode(n)
	require.Error(t, err)
	require.Equal(t, diag.StaticAssert, diag.KindOf(err))
}

func TestAnalyzeStaticAssertionPassesOnNonzero(t *testing.T) {
	a := newTestAnalyzer()
	cond := intConst(1)
	n := &cast.Node{Kind: cast.NodeStaticAssertion, StrValue: "ok", Children: []*cast.Node{cond}}
	require.NoError(t, a.AnalyzeNode(n))
}

func TestAnalyzeBreakOutsideLoopFails(t *testing.T) {
	a := newTestAnalyzer()
	n := &cast.Node{Kind: cast.NodeBreakStatement}
	err := a.AnalyzeNode(n)
	require.Error(t, err)
}

func TestAnalyzeSwitchDuplicateCaseFails(t *testing.T) {
	a := newTestAnalyzer()
	cond := intConst(1)
	case1 := &cast.Node{Kind: cast.NodeCaseStatement, CaseValue: 5}
	case2 := &cast.Node{Kind: cast.NodeCaseStatement, CaseValue: 5}
	body := &cast.Node{Kind: cast.NodeCompoundStatement, Children: []*cast.Node{case1, case2}}
	sw := &cast.Node{Kind: cast.NodeSwitchStatement, Children: []*cast.Node{cond, body}}
	err := a.AnalyzeNode(sw)
	require.Error(t, err)
}

func TestIsTypeAssignablePointerToVoidPointer(t *testing.T) {
	a := newTestAnalyzer()
	voidPtr := &ctype.Type{Kind: ctype.KindPointer, Elem: &ctype.Type{Kind: ctype.KindVoid}}
	intPtr := &ctype.Type{Kind: ctype.KindPointer, Elem: &ctype.Type{Kind: ctype.KindInt}}
	require.True(t, a.IsTypeAssignable(voidPtr, intPtr))
	require.True(t, a.IsTypeAssignable(intPtr, voidPtr))
}
