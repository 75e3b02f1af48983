// Package pipeline implements the asmcmp peephole/devirtualization
// pipeline (§4.5bis): a sequence of passes that rewrite the instruction
// stream in place before emission. Each pass is a pure function over an
// *asmcmp.Context, mirroring the pass-list-over-a-builder architecture of
// faddat-wazero's internal/engine/wazevo/ssa optimization passes, retargeted
// at the asmcmp instruction list instead of an SSA builder.
package pipeline

import (
	"strings"

	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

// Run applies every pass in order, matching the pipeline order spec'd for
// codegen: peephole, propagate-jump, eliminate-label, drop-virtual.
func Run(ctx *asmcmp.Context) {
	Peephole(ctx)
	PropagateJump(ctx)
	EliminateLabel(ctx)
	DropVirtual(ctx)
}

func isImmZero(op asmcmp.Operand) bool {
	return (op.Kind == asmcmp.OperandSignedImm || op.Kind == asmcmp.OperandUnsignedImm) &&
		op.Imm != nil && op.Imm.X.Sign() == 0
}

func sameOperand(a, b asmcmp.Operand) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case asmcmp.OperandVReg:
		return a.VReg == b.VReg
	case asmcmp.OperandPhysReg:
		return a.Phys == b.Phys
	default:
		return false
	}
}

// Peephole fuses local idioms in a single forward pass, per §4.5bis. A
// fixed point is reached in one pass for every input the pass targets, so
// callers never need to iterate it.
func Peephole(ctx *asmcmp.Context) {
	out := make([]*asmcmp.Instruction, 0, len(ctx.Instructions))
	instrs := ctx.Instructions
	for i := 0; i < len(instrs); i++ {
		instr := instrs[i]

		// mov reg, 0 -> xor reg32, reg32
		if instr.Mnemonic == "MOV" && len(instr.Operands) == 2 && isImmZero(instr.Operands[1]) {
			dst := instr.Operands[0]
			out = append(out, &asmcmp.Instruction{Mnemonic: "XOR", Operands: []asmcmp.Operand{dst, dst}, Label: instr.Label, HasLabel: instr.HasLabel})
			continue
		}

		// mov reg, src; add reg, k -> lea reg, [src + k]
		if instr.Mnemonic == "MOV" && i+1 < len(instrs) {
			next := instrs[i+1]
			if next.Mnemonic == "ADD" && !next.HasLabel && len(instr.Operands) == 2 && len(next.Operands) == 2 &&
				sameOperand(instr.Operands[0], next.Operands[0]) &&
				(next.Operands[1].Kind == asmcmp.OperandSignedImm || next.Operands[1].Kind == asmcmp.OperandUnsignedImm) {
				lea := &asmcmp.Instruction{
					Mnemonic: "LEA",
					Operands: []asmcmp.Operand{instr.Operands[0], {
						Kind: asmcmp.OperandIndirect, BaseVReg: instr.Operands[1].VReg, Base: instr.Operands[1].Phys,
						Displ: next.Operands[1].Imm.X.Int64(),
					}},
					Label: instr.Label, HasLabel: instr.HasLabel,
				}
				out = append(out, lea)
				i++
				continue
			}
		}

		// drop add/sub reg, 0
		if (instr.Mnemonic == "ADD" || instr.Mnemonic == "SUB") && len(instr.Operands) == 2 && isImmZero(instr.Operands[1]) && !instr.HasLabel {
			continue
		}

		// imul3 x, y, 1 -> mov x, y
		if instr.Mnemonic == "IMUL" && len(instr.Operands) == 3 && isImmZero3One(instr.Operands[2]) {
			out = append(out, &asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{instr.Operands[0], instr.Operands[1]}, Label: instr.Label, HasLabel: instr.HasLabel})
			continue
		}

		// lea reg, [base+d1]; mov reg, [reg+d2] -> mov reg, [base+d1+d2]
		if instr.Mnemonic == "LEA" && i+1 < len(instrs) {
			next := instrs[i+1]
			if next.Mnemonic == "MOV" && !next.HasLabel && len(instr.Operands) == 2 && len(next.Operands) == 2 &&
				next.Operands[1].Kind == asmcmp.OperandIndirect &&
				sameOperand(instr.Operands[0], next.Operands[0]) &&
				sameOperand(instr.Operands[0], asmcmp.Operand{Kind: asmcmp.OperandVReg, VReg: next.Operands[1].BaseVReg}) {
				src := instr.Operands[1]
				src.Displ += next.Operands[1].Displ
				folded := &asmcmp.Instruction{
					Mnemonic: "MOV",
					Operands: []asmcmp.Operand{next.Operands[0], src},
					Label: instr.Label, HasLabel: instr.HasLabel,
				}
				out = append(out, folded)
				i++
				continue
			}
		}

		// jmp L1 where L1: jmp L2 -> jmp L2 (collapsing the intermediate jump)
		if instr.Mnemonic == "JMP" && len(instr.Operands) == 1 && instr.Operands[0].Kind == asmcmp.OperandInternalLabel {
			if target := jumpTargetOf(instrs, instr.Operands[0].Label); target != nil {
				out = append(out, &asmcmp.Instruction{Mnemonic: "JMP", Operands: []asmcmp.Operand{{Kind: asmcmp.OperandInternalLabel, Label: target}}, Label: instr.Label, HasLabel: instr.HasLabel})
				continue
			}
		}

		// invert a conditional-then-unconditional jump pair when the
		// conditional's target is the immediate fall-through.
		if strings.HasPrefix(instr.Mnemonic, "J") && instr.Mnemonic != "JMP" && i+1 < len(instrs) {
			next := instrs[i+1]
			if next.Mnemonic == "JMP" && next.HasLabel == false && len(instr.Operands) == 1 &&
				instr.Operands[0].Kind == asmcmp.OperandInternalLabel && i+2 < len(instrs) &&
				instrs[i+2].HasLabel && instr.Operands[0].Label != nil && instrs[i+2].Label == instr.Operands[0].Label.ID {
				inverted := &asmcmp.Instruction{Mnemonic: invertCondition(instr.Mnemonic), Operands: next.Operands, Label: instr.Label, HasLabel: instr.HasLabel}
				out = append(out, inverted)
				i++ // drop the original unconditional jmp, its successor becomes the new fall-through
				continue
			}
		}

		// fxch n; fxch n -> drop both (self-canceling x87 stack exchange)
		if instr.Mnemonic == "FXCH" && i+1 < len(instrs) {
			next := instrs[i+1]
			if next.Mnemonic == "FXCH" && !next.HasLabel && len(instr.Operands) == 1 && len(next.Operands) == 1 &&
				instr.Operands[0] == next.Operands[0] {
				i++
				continue
			}
		}

		// redundant test reg,reg after and/or to the same register
		if instr.Mnemonic == "TEST" && len(instr.Operands) == 2 && sameOperand(instr.Operands[0], instr.Operands[1]) && len(out) > 0 {
			prev := out[len(out)-1]
			if (prev.Mnemonic == "AND" || prev.Mnemonic == "OR") && len(prev.Operands) == 2 && sameOperand(prev.Operands[0], instr.Operands[0]) {
				continue
			}
		}

		out = append(out, instr)
	}
	ctx.Instructions = out
}

func isImmZero3One(op asmcmp.Operand) bool {
	return (op.Kind == asmcmp.OperandSignedImm || op.Kind == asmcmp.OperandUnsignedImm) && op.Imm != nil && op.Imm.X.Int64() == 1
}

func invertCondition(mn string) string {
	inverse := map[string]string{
		"JE": "JNE", "JNE": "JE", "JL": "JGE", "JGE": "JL", "JG": "JLE", "JLE": "JG",
		"JB": "JAE", "JAE": "JB", "JA": "JBE", "JBE": "JA", "JO": "JNO", "JNO": "JO",
		"JS": "JNS", "JNS": "JS", "JP": "JNP", "JNP": "JP",
	}
	if inv, ok := inverse[mn]; ok {
		return inv
	}
	return mn
}

func jumpTargetOf(instrs []*asmcmp.Instruction, label *asmcmp.Label) *asmcmp.Label {
	if label == nil || !label.Attached || label.Position >= len(instrs) {
		return nil
	}
	target := instrs[label.Position]
	if target.Mnemonic != "JMP" || len(target.Operands) != 1 || target.Operands[0].Kind != asmcmp.OperandInternalLabel {
		return nil
	}
	return target.Operands[0].Label
}

// PropagateJump retargets any `j* L` whose target L is itself an
// unconditional `jmp L2` to jump straight to L2, guarding against cycles by
// tracking visited labels (§4.5bis).
func PropagateJump(ctx *asmcmp.Context) {
	for _, instr := range ctx.Instructions {
		if !strings.HasPrefix(instr.Mnemonic, "J") || len(instr.Operands) != 1 {
			continue
		}
		if instr.Operands[0].Kind != asmcmp.OperandInternalLabel {
			continue
		}
		visited := map[*asmcmp.Label]bool{}
		label := instr.Operands[0].Label
		for {
			if label == nil || visited[label] {
				break
			}
			visited[label] = true
			next := jumpTargetOf(ctx.Instructions, label)
			if next == nil || next == label {
				break
			}
			label = next
		}
		instr.Operands[0].Label = label
	}
}

// EliminateLabel removes every attached label not referenced by any
// operand and not flagged as externally depended-on (§4.5bis).
func EliminateLabel(ctx *asmcmp.Context) {
	referenced := ctx.ReferencedLabels()
	kept := ctx.Labels[:0]
	for _, l := range ctx.Labels {
		if referenced[l.ID] || l.ExternalDep || !l.Attached {
			kept = append(kept, l)
			continue
		}
		for _, instr := range ctx.Instructions {
			if instr.HasLabel && instr.Label == l.ID {
				instr.HasLabel = false
			}
		}
	}
	ctx.Labels = kept
}

func isVirtualMnemonic(mn string) bool {
	switch mn {
	case asmcmp.MnemonicTouchVirtualRegister, asmcmp.MnemonicVRegLifetimeRangeBegin,
		asmcmp.MnemonicVRegLifetimeRangeEnd, asmcmp.MnemonicNoop:
		return true
	default:
		return false
	}
}

// DropVirtual removes purely-virtual pseudo-opcodes and collapses
// identical-register virtual_register_link instructions, per §4.5bis.
// When the final instruction would be dropped, it is rewritten to noop
// instead so the terminator's position in the stream stays stable.
func DropVirtual(ctx *asmcmp.Context) {
	out := make([]*asmcmp.Instruction, 0, len(ctx.Instructions))
	for i, instr := range ctx.Instructions {
		drop := isVirtualMnemonic(instr.Mnemonic)
		if instr.Mnemonic == asmcmp.MnemonicVirtualRegisterLink && len(instr.Operands) == 2 &&
			instr.Operands[0].Kind == asmcmp.OperandPhysReg && instr.Operands[1].Kind == asmcmp.OperandPhysReg &&
			instr.Operands[0].Phys == instr.Operands[1].Phys {
			drop = true
		}
		if !drop {
			out = append(out, instr)
			continue
		}
		if i == len(ctx.Instructions)-1 {
			out = append(out, &asmcmp.Instruction{Mnemonic: asmcmp.MnemonicNoop, Label: instr.Label, HasLabel: instr.HasLabel})
		}
	}
	ctx.Instructions = out
}
