package emit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mewbak/x86/x86asm"
	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/amd64/frame"
	"github.com/sourcehut-mirrors/selfcc/amd64/localvar"
	"github.com/sourcehut-mirrors/selfcc/amd64/regalloc"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

func simpleFunction() *Function {
	ctx := asmcmp.NewContext()
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "PUSH", Operands: []asmcmp.Operand{asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RBP))}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RBP)),
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RSP)),
	}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RAX)),
		asmcmp.NewSignedImm(42, 64),
	}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "CALL", Operands: []asmcmp.Operand{
		{Kind: asmcmp.OperandExternalLabel, Symbol: "__kefir_bigint_add"},
	}})
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "RET"})

	locals := localvar.NewAllocator()
	req := frame.NewRequirements(locals)
	off := frame.Compute(req)

	return &Function{
		Name:    "example",
		Ctx:     ctx,
		Alloc:   &regalloc.Table{Assignments: map[asmcmp.VReg]regalloc.Assignment{}},
		Req:     req,
		Offsets: off,
	}
}

func TestFunctionEmitsLabelAndPrologue(t *testing.T) {
	w := NewWriter(ATT)
	require.NoError(t, w.Function(simpleFunction()))
	out := w.String()
	require.True(t, strings.HasPrefix(out, ".globl example\nexample:\n"))
	require.Contains(t, out, "push\t%rbp")
	require.Contains(t, out, "mov\t%rsp, %rbp")
}

func TestATTReversesTwoOperandOrder(t *testing.T) {
	w := NewWriter(ATT)
	require.NoError(t, w.Function(simpleFunction()))
	require.Contains(t, w.String(), "mov\t$42, %rax")
}

func TestIntelKeepsDstFirstOrder(t *testing.T) {
	w := NewWriter(Intel)
	require.NoError(t, w.Function(simpleFunction()))
	require.Contains(t, w.String(), "mov\trax, 42")
}

func TestExternalLabelTracksExtern(t *testing.T) {
	w := NewWriter(ATT)
	require.NoError(t, w.Function(simpleFunction()))
	require.Contains(t, w.Externs(), "__kefir_bigint_add")
	require.Contains(t, w.Header(), ".extern __kefir_bigint_add")
}

func TestSpillAreaIndirectUsesFrameOffset(t *testing.T) {
	locals := localvar.NewAllocator()
	req := frame.NewRequirements(locals)
	req.SpillWords = 2
	off := frame.Compute(req)

	ctx := asmcmp.NewContext()
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RAX)),
		{Kind: asmcmp.OperandIndirect, BaseKind: asmcmp.IndirectBaseSpillArea, SpillIndex: 1},
	}})

	fn := &Function{Name: "f", Ctx: ctx, Alloc: &regalloc.Table{Assignments: map[asmcmp.VReg]regalloc.Assignment{}}, Req: req, Offsets: off}
	w := NewWriter(ATT)
	require.NoError(t, w.Function(fn))
	want := off.SpillArea + 8
	require.Contains(t, w.String(), fmt.Sprintf("%d(%%rbp)", want))
}

func TestVRegResolvesThroughAllocationTable(t *testing.T) {
	table := asmcmp.NewVRegTable()
	v := table.New(asmcmp.VRegGP)

	ctx := asmcmp.NewContext()
	ctx.VRegs = table
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RAX)),
		asmcmp.VRegOperand(v),
	}})

	alloc := &regalloc.Table{Assignments: map[asmcmp.VReg]regalloc.Assignment{
		v: {Phys: asmcmp.RealReg(x86asm.RCX)},
	}}
	locals := localvar.NewAllocator()
	req := frame.NewRequirements(locals)
	off := frame.Compute(req)
	fn := &Function{Name: "f", Ctx: ctx, Alloc: alloc, Req: req, Offsets: off}

	w := NewWriter(ATT)
	require.NoError(t, w.Function(fn))
	require.Contains(t, w.String(), "%rcx")
}

func TestSpilledVRegInRegisterPositionErrors(t *testing.T) {
	table := asmcmp.NewVRegTable()
	v := table.New(asmcmp.VRegGP)

	ctx := asmcmp.NewContext()
	ctx.VRegs = table
	ctx.Emit(&asmcmp.Instruction{Mnemonic: "MOV", Operands: []asmcmp.Operand{
		asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RAX)),
		asmcmp.VRegOperand(v),
	}})

	alloc := &regalloc.Table{Assignments: map[asmcmp.VReg]regalloc.Assignment{
		v: {IsSpill: true, SpillSlot: 0},
	}}
	locals := localvar.NewAllocator()
	req := frame.NewRequirements(locals)
	off := frame.Compute(req)
	fn := &Function{Name: "f", Ctx: ctx, Alloc: alloc, Req: req, Offsets: off}

	require.Error(t, NewWriter(ATT).Function(fn))
}
