package frame

import (
	"testing"

	"github.com/mewbak/x86/x86asm"
	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/amd64/localvar"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

func TestComputeAlignsFrameTo16Bytes(t *testing.T) {
	locals := localvar.NewAllocator()
	locals.Alloc(1, 4, 4)
	req := NewRequirements(locals)
	req.Preserved = []asmcmp.RealReg{asmcmp.RealReg(x86asm.RBX)}

	off := Compute(req)
	require.Equal(t, 0, off.FrameSize%16)
	require.Greater(t, off.FrameSize, 0)
}

func TestComputeAssignsDistinctNegativeOffsets(t *testing.T) {
	locals := localvar.NewAllocator()
	req := NewRequirements(locals)
	req.NeedsX87Control = true
	req.NeedsMXCSR = true
	req.SpillWords = 2

	off := Compute(req)
	require.Less(t, off.X87Control, 0)
	require.Less(t, off.MXCSR, 0)
	require.Less(t, off.SpillArea, 0)
	require.NotEqual(t, off.X87Control, off.MXCSR)
}

func TestPrologueEmitsPushMovSub(t *testing.T) {
	locals := localvar.NewAllocator()
	req := NewRequirements(locals)
	req.Preserved = []asmcmp.RealReg{asmcmp.RealReg(x86asm.RBX)}
	off := Compute(req)

	ctx := asmcmp.NewContext()
	Prologue(ctx, req, off)
	require.Equal(t, "PUSH", ctx.Instructions[0].Mnemonic)
	require.Equal(t, "MOV", ctx.Instructions[1].Mnemonic)

	mnemonics := map[string]bool{}
	for _, in := range ctx.Instructions {
		mnemonics[in.Mnemonic] = true
	}
	require.True(t, mnemonics["SUB"])
}

func TestEpiloguePopsPreservedInReverse(t *testing.T) {
	locals := localvar.NewAllocator()
	req := NewRequirements(locals)
	req.Preserved = []asmcmp.RealReg{asmcmp.RealReg(x86asm.RBX), asmcmp.RealReg(x86asm.R12)}
	off := Compute(req)

	ctx := asmcmp.NewContext()
	Epilogue(ctx, req, off)
	require.Equal(t, "POP", ctx.Instructions[0].Mnemonic)
	require.Equal(t, asmcmp.RealReg(x86asm.R12), ctx.Instructions[0].Operands[0].Phys)
	require.Equal(t, asmcmp.RealReg(x86asm.RBX), ctx.Instructions[1].Operands[0].Phys)
}
