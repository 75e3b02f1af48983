package ssa

// BasicBlock is one numbered block of a Function, with an explicit
// predecessor/successor list derived from its terminator (§4.3).
type BasicBlock struct {
	ID           BlockID
	Instructions []*Instruction
	Preds        []BlockID
	Succs        []BlockID
	Sealed       bool
}

// Append adds instr to the end of the block's instruction list.
func (b *BasicBlock) Append(instr *Instruction) {
	instr.Block = b.ID
	b.Instructions = append(b.Instructions, instr)
}

// Terminator returns the block's terminating instruction, or nil if the
// block has not yet been closed.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if !last.Opcode.Terminator() {
		return nil
	}
	return last
}

// Phis returns the leading run of OpPhi instructions in the block; SSA form
// requires all phis to precede non-phi instructions.
func (b *BasicBlock) Phis() []*Instruction {
	var phis []*Instruction
	for _, instr := range b.Instructions {
		if instr.Opcode != OpPhi {
			break
		}
		phis = append(phis, instr)
	}
	return phis
}
