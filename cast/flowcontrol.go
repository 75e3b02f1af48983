package cast

import "github.com/sourcehut-mirrors/selfcc/diag"

// FlowKind tags the flow-control tree variant of §3.
type FlowKind int

const (
	FlowBlock FlowKind = iota
	FlowIf
	FlowSwitch
	FlowWhile
	FlowDoWhile
	FlowFor
	FlowBlockWithBranchPoints
)

// FlowControlPoint is a node of the flow-control tree: "the current
// enclosing control structures" (§3). Every branching statement records a
// target_flow_control_point; this type plays that role both as a tree node
// (Parent) and as a target (the thing break/continue/goto/case/default
// point at).
type FlowControlPoint struct {
	Kind   FlowKind
	Parent *FlowControlPoint

	// FlowBlock
	Scopes *ScopeStack

	// FlowSwitch
	Cases       map[int64]*FlowControlPoint
	CaseOrder   []int64
	DefaultCase *FlowControlPoint

	// FlowBlockWithBranchPoints (inline-asm origin points)
	BranchTable map[string]*FlowControlPoint

	// Any statement that is itself a branch target (label, case, default,
	// loop entry) gets an Ident label so goto-before-definition can be
	// resolved later.
	Label string
}

// NewBlock pushes a new FlowBlock nested inside parent, carrying a fresh
// ScopeStack.
func NewBlock(parent *FlowControlPoint, scopes *ScopeStack) *FlowControlPoint {
	return &FlowControlPoint{Kind: FlowBlock, Parent: parent, Scopes: scopes}
}

// NewSwitch pushes a new FlowSwitch nested inside parent.
func NewSwitch(parent *FlowControlPoint) *FlowControlPoint {
	return &FlowControlPoint{Kind: FlowSwitch, Parent: parent, Cases: make(map[int64]*FlowControlPoint)}
}

// AddCase inserts (k -> point) into the switch's cases map. §8 invariant:
// each (k→p) has a unique k; duplicate keys are rejected (§4.1).
func (f *FlowControlPoint) AddCase(loc diag.Location, k int64, point *FlowControlPoint) error {
	if f.Kind != FlowSwitch {
		return diag.At(diag.InternalError, loc, "AddCase on non-switch flow-control point")
	}
	if _, exists := f.Cases[k]; exists {
		return diag.At(diag.AnalysisError, loc, "duplicate case value %d", k)
	}
	f.Cases[k] = point
	f.CaseOrder = append(f.CaseOrder, k)
	return nil
}

// SetDefault populates the switch's defaultCase. Duplicates are rejected
// (§4.1).
func (f *FlowControlPoint) SetDefault(loc diag.Location, point *FlowControlPoint) error {
	if f.Kind != FlowSwitch {
		return diag.At(diag.InternalError, loc, "SetDefault on non-switch flow-control point")
	}
	if f.DefaultCase != nil {
		return diag.At(diag.AnalysisError, loc, "duplicate default label")
	}
	f.DefaultCase = point
	return nil
}

// EnclosingSwitch walks outward to find the innermost enclosing switch, or
// nil if none exists.
func (f *FlowControlPoint) EnclosingSwitch() *FlowControlPoint {
	for p := f; p != nil; p = p.Parent {
		if p.Kind == FlowSwitch {
			return p
		}
	}
	return nil
}

// EnclosingLoopOrSwitch walks outward for the innermost structure `break`
// can target: any loop, or a switch.
func (f *FlowControlPoint) EnclosingLoopOrSwitch() *FlowControlPoint {
	for p := f; p != nil; p = p.Parent {
		switch p.Kind {
		case FlowSwitch, FlowWhile, FlowDoWhile, FlowFor:
			return p
		}
	}
	return nil
}

// EnclosingLoop walks outward for the innermost loop `continue` can target
// (switch does not count).
func (f *FlowControlPoint) EnclosingLoop() *FlowControlPoint {
	for p := f; p != nil; p = p.Parent {
		switch p.Kind {
		case FlowWhile, FlowDoWhile, FlowFor:
			return p
		}
	}
	return nil
}
