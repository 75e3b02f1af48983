package pipeline

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

func imm(v int64) asmcmp.Operand {
	return asmcmp.Operand{Kind: asmcmp.OperandSignedImm, Imm: constant.NewInt(types.I64, v)}
}

func TestPeepholeRewritesMovZeroToXor(t *testing.T) {
	ctx := asmcmp.NewContext()
	v := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v), imm(0)}})
	Peephole(ctx)
	require.Len(t, ctx.Instructions, 1)
	require.Equal(t, "XOR", ctx.Instructions[0].Mnemonic)
}

func TestPeepholeDropsAddZero(t *testing.T) {
	ctx := asmcmp.NewContext()
	v := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "ADD", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v), imm(0)}})
	Peephole(ctx)
	require.Empty(t, ctx.Instructions)
}

func TestPeepholeFoldsImul3ByOne(t *testing.T) {
	ctx := asmcmp.NewContext()
	dst := ctx.VRegs.New(asmcmp.VRegGP)
	src := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "IMUL", Operands: []asmcmp.Operand{asmcmp.VRegOperand(dst), asmcmp.VRegOperand(src), imm(1)}})
	Peephole(ctx)
	require.Len(t, ctx.Instructions, 1)
	require.Equal(t, "MOV", ctx.Instructions[0].Mnemonic)
}

func TestPropagateJumpFollowsChain(t *testing.T) {
	ctx := asmcmp.NewContext()
	l2 := ctx.NewLabel()
	ctx.AttachLabel(l2, 2)
	l1 := ctx.NewLabel()
	ctx.AttachLabel(l1, 0)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "JMP", Operands: []asmcmp.Operand{{Kind: asmcmp.OperandInternalLabel, Label: l2}}, Label: l1.ID, HasLabel: true})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "NOP"})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "RET", Label: l2.ID, HasLabel: true})

	entry := ctx.Emit(&asmcmp.Instruction{Mnemonic: "JE", Operands: []asmcmp.Operand{{Kind: asmcmp.OperandInternalLabel, Label: l1}}})
	PropagateJump(ctx)
	require.Equal(t, l2, ctx.Instructions[entry].Operands[0].Label)
}

func TestEliminateLabelDropsUnreferenced(t *testing.T) {
	ctx := asmcmp.NewContext()
	l1 := ctx.NewLabel()
	ctx.AttachLabel(l1, 0)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "NOP", Label: l1.ID, HasLabel: true})
	EliminateLabel(ctx)
	require.False(t, ctx.Instructions[0].HasLabel)
}

func TestEliminateLabelKeepsExternalDependency(t *testing.T) {
	ctx := asmcmp.NewContext()
	l1 := ctx.NewLabel()
	l1.ExternalDep = true
	ctx.AttachLabel(l1, 0)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "NOP", Label: l1.ID, HasLabel: true})
	EliminateLabel(ctx)
	require.True(t, ctx.Instructions[0].HasLabel)
}

func TestDropVirtualRemovesPureAnnotationsAndKeepsTerminatorSlot(t *testing.T) {
	ctx := asmcmp.NewContext()
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV"})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: asmcmp.MnemonicTouchVirtualRegister})
	DropVirtual(ctx)
	require.Len(t, ctx.Instructions, 2)
	require.Equal(t, asmcmp.MnemonicNoop, ctx.Instructions[1].Mnemonic)
}

func TestDropVirtualCollapsesIdenticalRegisterLink(t *testing.T) {
	ctx := asmcmp.NewContext()
	ctx.Emit(&asmcmp.Instruction{
		Mnemonic: asmcmp.MnemonicVirtualRegisterLink,
		Operands: []asmcmp.Operand{asmcmp.PhysRegOperand(3), asmcmp.PhysRegOperand(3)},
	})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "RET"})
	DropVirtual(ctx)
	require.Len(t, ctx.Instructions, 1)
	require.Equal(t, "RET", ctx.Instructions[0].Mnemonic)
}
