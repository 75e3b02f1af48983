package ssa

// CodeAnalysis produces per-instruction linear indices over a function's
// blocks in layout order (§4.3), the numbering the register allocator and
// debug-info tracker both key off of.
type CodeAnalysis struct {
	order   []*Instruction
	indexOf map[*Instruction]int
}

// Analyze walks fn's blocks in their current order and assigns each
// instruction a dense linear index.
func Analyze(fn *Function) *CodeAnalysis {
	ca := &CodeAnalysis{indexOf: make(map[*Instruction]int)}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instructions {
			ca.indexOf[instr] = len(ca.order)
			ca.order = append(ca.order, instr)
		}
	}
	return ca
}

// IndexOf returns the linear index assigned to instr.
func (ca *CodeAnalysis) IndexOf(instr *Instruction) int { return ca.indexOf[instr] }

// At returns the instruction at linear index i.
func (ca *CodeAnalysis) At(i int) *Instruction { return ca.order[i] }

// Len returns the total instruction count.
func (ca *CodeAnalysis) Len() int { return len(ca.order) }

// Schedule orders instructions within each block to satisfy a scheduling
// policy (§4.3): side-effecting instructions keep their relative program
// order; pure instructions are free to move but are scheduled just before
// their first use to minimize register pressure, matching the teacher's
// opt.go def-use-driven instruction placement.
type Schedule struct {
	Order []*Instruction
}

// BuildSchedule computes a per-block schedule for fn using an
// as-late-as-possible placement of pure instructions relative to their
// uses, preserving the original order of side-effecting instructions and
// terminators.
func BuildSchedule(fn *Function) map[BlockID]*Schedule {
	result := make(map[BlockID]*Schedule, len(fn.Blocks))
	for _, b := range fn.Blocks {
		result[b.ID] = scheduleBlock(b)
	}
	return result
}

func scheduleBlock(b *BasicBlock) *Schedule {
	lastUse := make(map[ValueRef]int)
	for i, instr := range b.Instructions {
		for _, arg := range instr.Args {
			lastUse[arg] = i
		}
	}

	pending := make(map[*Instruction]bool)
	var fixed []*Instruction
	for _, instr := range b.Instructions {
		if instr.Opcode.HasSideEffects() || instr.Opcode.Terminator() || instr.Opcode == OpPhi {
			fixed = append(fixed, instr)
		} else {
			pending[instr] = true
		}
	}

	var order []*Instruction
	scheduled := make(map[*Instruction]bool)
	for _, instr := range b.Instructions {
		if pending[instr] {
			continue
		}
		// Schedule any pure producers this fixed instruction consumes,
		// immediately before it, in their original relative order.
		for _, arg := range instr.Args {
			for _, cand := range b.Instructions {
				if cand.Result == arg && pending[cand] && !scheduled[cand] {
					order = append(order, cand)
					scheduled[cand] = true
				}
			}
		}
		order = append(order, instr)
	}
	// Anything still unscheduled (dead or unused pure instructions) keeps
	// its original position appended at the end, before the terminator.
	if len(order) > 0 && order[len(order)-1].Opcode.Terminator() {
		term := order[len(order)-1]
		order = order[:len(order)-1]
		for _, instr := range b.Instructions {
			if pending[instr] && !scheduled[instr] {
				order = append(order, instr)
			}
		}
		order = append(order, term)
	}
	return &Schedule{Order: order}
}
