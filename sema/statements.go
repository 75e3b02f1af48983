package sema

import (
	"github.com/sourcehut-mirrors/selfcc/cast"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/diag"
)

// pushBlock opens a new lexical scope and a matching FlowBlock, returning a
// closure that restores both. Mirrors the teacher's enter/exit-scope pairing
// in translateBlock.
func (a *Analyzer) pushBlock() func() {
	prevScope, prevFlow := a.scope, a.flow
	a.scope = a.scope.Push()
	a.flow = cast.NewBlock(a.flow, a.scope)
	return func() {
		a.scope, a.flow = prevScope, prevFlow
	}
}

func (a *Analyzer) analyzeCompoundStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	pop := a.pushBlock()
	defer pop()
	n.Props.FlowControl = a.flow
	return a.analyzeChildren(n)
}

func (a *Analyzer) requireScalarCondition(loc diag.Location, cond *cast.Node) error {
	if !cond.Props.Type.IsScalar() {
		return diag.At(diag.AnalysisError, loc, "statement requires a scalar condition")
	}
	return nil
}

func (a *Analyzer) analyzeIfStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	cond := n.Children[0]
	if err := a.AnalyzeNode(cond); err != nil {
		return err
	}
	if err := a.requireScalarCondition(n.Location, cond); err != nil {
		return err
	}
	if err := a.AnalyzeNode(n.Children[1]); err != nil {
		return err
	}
	if len(n.Children) > 2 {
		return a.AnalyzeNode(n.Children[2])
	}
	return nil
}

// analyzeSwitchStatement implements §4.1/§8: the switch condition must be
// integer, and the body is analyzed with a fresh FlowSwitch point so nested
// case/default/break statements resolve against it.
func (a *Analyzer) analyzeSwitchStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	cond := n.Children[0]
	if err := a.AnalyzeNode(cond); err != nil {
		return err
	}
	if !cond.Props.Type.IsInteger() {
		return diag.At(diag.AnalysisError, n.Location, "switch condition must have integer type")
	}
	cond.Props.Type = ctype.Promote(a.Traits, cond.Props.Type)

	prevFlow := a.flow
	sw := cast.NewSwitch(prevFlow)
	a.flow = sw
	n.Props.FlowControl = sw
	defer func() { a.flow = prevFlow }()
	return a.AnalyzeNode(n.Children[1])
}

// analyzeCaseStatement resolves a case/default label against the innermost
// enclosing switch (§4.1: "duplicate case values and multiple default
// labels within one switch are rejected").
func (a *Analyzer) analyzeCaseStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	sw := a.flow.EnclosingSwitch()
	if sw == nil {
		return diag.At(diag.AnalysisError, n.Location, "case/default label not within a switch statement")
	}
	point := &cast.FlowControlPoint{Kind: cast.FlowBlock, Parent: a.flow, Scopes: a.scope}
	if n.IsDefault {
		if err := sw.SetDefault(n.Location, point); err != nil {
			return err
		}
	} else {
		if err := sw.AddCase(n.Location, n.CaseValue, point); err != nil {
			return err
		}
	}
	n.Props.FlowControl = point
	return a.analyzeChildren(n)
}

// analyzeLoopStatement handles while/do-while/for uniformly: the last child
// is the loop body, any preceding children are the condition/init/post
// expressions.
func (a *Analyzer) analyzeLoopStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	kind := cast.FlowWhile
	switch n.Kind {
	case cast.NodeDoWhileStatement:
		kind = cast.FlowDoWhile
	case cast.NodeForStatement:
		kind = cast.FlowFor
	}

	pop := a.pushBlock()
	defer pop()

	for i := 0; i < len(n.Children)-1; i++ {
		if n.Children[i] == nil {
			continue
		}
		if err := a.AnalyzeNode(n.Children[i]); err != nil {
			return err
		}
	}

	prevFlow := a.flow
	loop := &cast.FlowControlPoint{Kind: kind, Parent: prevFlow, Scopes: a.scope}
	a.flow = loop
	n.Props.FlowControl = loop
	defer func() { a.flow = prevFlow }()

	body := n.Children[len(n.Children)-1]
	return a.AnalyzeNode(body)
}

// analyzeGotoStatement looks up the target label. A miss is not an error
// here: forward references to labels declared later in the same function
// are legal C. Such a goto keeps a nil TargetLabel; the analyzer does not
// revisit it once the label is declared.
func (a *Analyzer) analyzeGotoStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	if id, ok := a.scope.Label.Lookup(n.LabelName); ok {
		n.Props.TargetLabel = id
	}
	return nil
}

func (a *Analyzer) analyzeBreakStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	target := a.flow.EnclosingLoopOrSwitch()
	if target == nil {
		return diag.At(diag.AnalysisError, n.Location, "break statement not within a loop or switch")
	}
	n.Props.FlowControl = target
	return nil
}

func (a *Analyzer) analyzeContinueStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	target := a.flow.EnclosingLoop()
	if target == nil {
		return diag.At(diag.AnalysisError, n.Location, "continue statement not within a loop")
	}
	n.Props.FlowControl = target
	return nil
}

// analyzeLabeledStatement declares the label in the function's label scope
// (function scope, not block scope, per C's label rules) and analyzes the
// labeled statement itself.
func (a *Analyzer) analyzeLabeledStatement(n *cast.Node) error {
	n.Props.Category = cast.CategoryStatement
	point := &cast.FlowControlPoint{Kind: cast.FlowBlock, Parent: a.flow, Scopes: a.scope, Label: n.LabelName}
	id := &cast.ScopedIdentifier{Kind: cast.IdentLabel, Name: n.LabelName, FlowControl: point}
	if existing, ok := a.scope.Label.LookupLocal(n.LabelName); ok && existing.FlowControl != nil {
		return diag.At(diag.AnalysisError, n.Location, "redefinition of label %q", n.LabelName)
	}
	a.scope.Label.Declare(id)
	n.Props.FlowControl = point
	return a.analyzeChildren(n)
}

// analyzeInlineAsm implements §4.1's inline-assembly checks: output operands
// must be lvalue expressions, and every operand is analyzed so later stages
// can reuse its Properties.
func (a *Analyzer) analyzeInlineAsm(n *cast.Node) error {
	n.Props.Category = cast.CategoryInlineAssembly
	if n.Asm == nil {
		return diag.At(diag.InternalError, n.Location, "inline asm node missing payload")
	}
	for _, out := range n.Asm.Outputs {
		if err := a.AnalyzeNode(out); err != nil {
			return err
		}
		if !out.Props.IsLvalue {
			return diag.At(diag.AnalysisError, n.Location, "inline asm output operand is not an lvalue")
		}
	}
	for _, in := range n.Asm.Inputs {
		if err := a.AnalyzeNode(in); err != nil {
			return err
		}
	}
	return nil
}
