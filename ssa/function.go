package ssa

import "github.com/sourcehut-mirrors/selfcc/diag"

// Function is one optimizer-IR function: numbered basic blocks with a CFG
// derivable from terminators, and a dense per-function value counter
// (§4.3).
type Function struct {
	Name    string
	Blocks  []*BasicBlock
	nextVal ValueRef
	nextBlk BlockID

	Params     []Type
	ReturnType Type
}

// NewFunction creates an empty function ready for block/instruction
// construction.
func NewFunction(name string, params []Type, ret Type) *Function {
	return &Function{Name: name, Params: params, ReturnType: ret, nextVal: 1, nextBlk: 0}
}

// NewBlock allocates and appends a fresh, empty block.
func (f *Function) NewBlock() *BasicBlock {
	b := &BasicBlock{ID: f.nextBlk}
	f.nextBlk++
	f.Blocks = append(f.Blocks, b)
	return b
}

// AllocValue reserves a fresh dense ValueRef for an instruction's result.
func (f *Function) AllocValue() ValueRef {
	v := f.nextVal
	f.nextVal++
	return v
}

// Emit appends instr to block, assigning it a fresh result value unless the
// opcode produces none (stores, branches).
func (f *Function) Emit(block *BasicBlock, instr *Instruction) ValueRef {
	if producesValue(instr.Opcode) {
		instr.Result = f.AllocValue()
	}
	block.Append(instr)
	return instr.Result
}

func producesValue(op Opcode) bool {
	switch op {
	case OpStore, OpStoreComplex, OpAtomicStore, OpJump, OpBranch, OpBranchTable,
		OpReturn, OpTailInvoke, OpFenvSetRound, OpFenvClearExcept, OpVaStart, OpVaEnd, OpVaCopy:
		return false
	default:
		return true
	}
}

// BuildCFG derives each block's Preds/Succs from its terminator, per §4.3:
// "an explicit control-flow graph derivable from terminators."
func (f *Function) BuildCFG() error {
	for _, b := range f.Blocks {
		b.Succs = nil
	}
	for _, b := range f.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		switch term.Opcode {
		case OpJump:
			f.link(b, term.Target)
		case OpBranch:
			f.link(b, term.TrueTarget)
			f.link(b, term.FalseTarget)
		case OpBranchTable:
			for _, t := range term.Targets {
				f.link(b, t)
			}
			f.link(b, term.Default)
		}
	}
	return nil
}

func (f *Function) link(from *BasicBlock, to BlockID) {
	target := f.Block(to)
	if target == nil {
		return
	}
	from.Succs = append(from.Succs, to)
	target.Preds = append(target.Preds, from.ID)
}

// Block looks up a block by ID.
func (f *Function) Block(id BlockID) *BasicBlock {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Validate checks the structural invariants §4.3 implies: every block ends
// in exactly one terminator, and every phi's incoming set matches the
// block's predecessor set exactly once CFG has been built.
func (f *Function) Validate() error {
	for _, b := range f.Blocks {
		if b.Terminator() == nil {
			return diag.New(diag.InternalError, "basic block %d has no terminator", b.ID)
		}
		for _, phi := range b.Phis() {
			if len(phi.Incoming) != len(b.Preds) {
				return diag.New(diag.InternalError, "phi in block %d has %d incoming values for %d predecessors",
					b.ID, len(phi.Incoming), len(b.Preds))
			}
			for _, pred := range b.Preds {
				if _, ok := phi.Incoming[pred]; !ok {
					return diag.New(diag.InternalError, "phi in block %d missing incoming value from predecessor %d", b.ID, pred)
				}
			}
		}
	}
	return nil
}

// Module is a container of functions (§4.3: "A container of functions").
type Module struct {
	Functions []*Function
}

// AddFunction appends fn to the module.
func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }
