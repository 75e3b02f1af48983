package asmcmp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVRegPackingRoundTrip(t *testing.T) {
	tbl := NewVRegTable()
	v := tbl.New(VRegGP)
	require.False(t, v.RealReg() != RealRegInvalid && v.Valid() == false)
	packed := v.WithRealReg(RealReg(7))
	require.Equal(t, RealReg(7), packed.RealReg())
	require.Equal(t, v.ID(), packed.ID())
}

func TestReferencedLabelsSkipsUnreferenced(t *testing.T) {
	ctx := NewContext()
	l1 := ctx.NewLabel()
	l2 := ctx.NewLabel()
	ctx.Emit(&Instruction{Mnemonic: "jmp", Operands: []Operand{{Kind: OperandInternalLabel, Label: l1}}})
	refs := ctx.ReferencedLabels()
	require.True(t, refs[l1.ID])
	require.False(t, refs[l2.ID])
}

func TestStashLifecycle(t *testing.T) {
	ctx := NewContext()
	v := ctx.VRegs.New(VRegGP)
	idx := ctx.PushStash([]VReg{v})
	require.True(t, ctx.Stashes[idx].Active)
	ctx.DeactivateStash(idx)
	require.False(t, ctx.Stashes[idx].Active)
}
