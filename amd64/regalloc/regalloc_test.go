package regalloc

import (
	"testing"

	"github.com/decomp/exp/bin"
	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

func TestComputeLifetimesSpansFirstToLastUse(t *testing.T) {
	ctx := asmcmp.NewContext()
	v := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v)}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "NOP"})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "ADD", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v)}})

	lifetimes := ComputeLifetimes(ctx)
	require.Equal(t, Lifetime{First: 0, Last: 2}, lifetimes[v])
}

func TestComputeLifetimesExtendsAcrossVirtualBlock(t *testing.T) {
	ctx := asmcmp.NewContext()
	v := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: asmcmp.MnemonicVirtualBlockBegin})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v)}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "NOP"})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: asmcmp.MnemonicVirtualBlockEnd})

	lifetimes := ComputeLifetimes(ctx)
	require.Equal(t, bin.Address(0), lifetimes[v].First)
	require.Equal(t, bin.Address(3), lifetimes[v].Last)
}

func TestInterferingVRegsGetDistinctRegisters(t *testing.T) {
	ctx := asmcmp.NewContext()
	a := ctx.VRegs.New(asmcmp.VRegGP)
	b := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(a)}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(b)}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "ADD", Operands: []asmcmp.Operand{asmcmp.VRegOperand(a), asmcmp.VRegOperand(b)}})

	table := Allocate(ctx)
	require.NotEqual(t, table.Assignments[a].Phys, table.Assignments[b].Phys)
	require.False(t, table.Assignments[a].IsSpill)
	require.False(t, table.Assignments[b].IsSpill)
}

func TestRequirementIsHonoredWhenNotConflicting(t *testing.T) {
	ctx := asmcmp.NewContext()
	v := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.VRegs.SetRequirement(v, gpOrder[3])
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(v)}})

	table := Allocate(ctx)
	require.Equal(t, gpOrder[3], table.Assignments[v].Phys)
}

func TestSameAsGroupSharesAssignment(t *testing.T) {
	ctx := asmcmp.NewContext()
	a := ctx.VRegs.New(asmcmp.VRegGP)
	b := ctx.VRegs.New(asmcmp.VRegGP)
	ctx.VRegs.SetSameAs(b, a)
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(a)}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{asmcmp.VRegOperand(b)}})

	table := Allocate(ctx)
	require.Equal(t, table.Assignments[a], table.Assignments[b])
}

func TestExhaustingRegistersSpills(t *testing.T) {
	ctx := asmcmp.NewContext()
	var vregs []asmcmp.VReg
	for i := 0; i < len(gpOrder)+2; i++ {
		vregs = append(vregs, ctx.VRegs.New(asmcmp.VRegGP))
	}
	var ops []asmcmp.Operand
	for _, v := range vregs {
		ops = append(ops, asmcmp.VRegOperand(v))
	}
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "USES_ALL", Operands: ops})

	table := Allocate(ctx)
	spilled := 0
	for _, v := range vregs {
		if table.Assignments[v].IsSpill {
			spilled++
		}
	}
	require.Equal(t, 2, spilled)
	require.Equal(t, 2, table.SpillWords)
}
