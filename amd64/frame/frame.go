// Package frame implements the stack-frame accumulator and prologue/
// epilogue generator of §4.7: codegen accumulates requirements (preserved
// registers, x87/MXCSR control-word needs, spill area size, local area
// size) as it runs, then `Compute` turns that into absolute
// frame-pointer-relative offsets, and `Prologue`/`Epilogue` emit the
// matching instruction sequences.
package frame

import (
	"github.com/mewbak/x86/x86asm"

	"github.com/sourcehut-mirrors/selfcc/amd64/localvar"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
)

// Requirements accumulates everything codegen discovers it needs from the
// frame while it runs, before Compute can lay anything out.
type Requirements struct {
	Preserved          []asmcmp.RealReg
	NeedsX87Control    bool
	NeedsMXCSR         bool
	NeedsImplicitParam bool // hidden pointer argument (struct return / varargs save area)
	SpillWords         int
	RegisterAggWords   int // register-aggregate spill area, for multi-register struct returns staged through memory
	Locals             *localvar.Allocator
}

// NewRequirements creates an empty accumulator.
func NewRequirements(locals *localvar.Allocator) *Requirements {
	return &Requirements{Locals: locals}
}

// Offsets is the laid-out frame §4.7 asks Compute to produce: absolute
// byte offsets from the frame pointer (rbp) for each region. Offsets are
// negative, growing down from rbp per the System-V convention.
type Offsets struct {
	SavedFramePointer int
	Preserved         map[asmcmp.RealReg]int
	X87Control        int
	MXCSR             int
	ImplicitParam     int
	SpillArea         int
	RegisterAggArea   int
	LocalArea         int

	FrameSize int // total bytes subtracted from rsp in the prologue, 16-byte aligned
}

// Compute walks the accumulated requirements and assigns offsets, honoring
// 16-byte stack alignment at the frame's final size (§4.7).
func Compute(req *Requirements) *Offsets {
	off := &Offsets{Preserved: make(map[asmcmp.RealReg]int)}
	cursor := 0

	alloc := func(size, align int) int {
		if align > 1 && cursor%align != 0 {
			cursor += align - cursor%align
		}
		cursor += size
		return -cursor
	}

	off.SavedFramePointer = 0 // [rbp] itself, not part of the subtracted region

	for _, reg := range req.Preserved {
		off.Preserved[reg] = alloc(8, 8)
	}
	if req.NeedsX87Control {
		off.X87Control = alloc(2, 2)
	}
	if req.NeedsMXCSR {
		off.MXCSR = alloc(4, 4)
	}
	if req.NeedsImplicitParam {
		off.ImplicitParam = alloc(8, 8)
	}
	if req.SpillWords > 0 {
		off.SpillArea = alloc(req.SpillWords*8, 8)
	}
	if req.RegisterAggWords > 0 {
		off.RegisterAggArea = alloc(req.RegisterAggWords*8, 8)
	}
	if req.Locals != nil && req.Locals.Size() > 0 {
		off.LocalArea = alloc(req.Locals.Size(), req.Locals.Align())
	}

	frameSize := cursor
	if frameSize%16 != 0 {
		frameSize += 16 - frameSize%16
	}
	off.FrameSize = frameSize
	return off
}

func emit(ctx *asmcmp.Context, mn string, ops ...asmcmp.Operand) {
	ctx.Emit(&asmcmp.Instruction{Mnemonic: mn, Operands: ops})
}

// Prologue emits `push rbp; mov rbp, rsp; sub rsp, N; push <preserved>;
// fstcw; stmxcsr` as required by the accumulated requirements (§4.7).
func Prologue(ctx *asmcmp.Context, req *Requirements, off *Offsets) {
	emit(ctx, "PUSH", asmcmp.PhysRegOperand(rbp))
	emit(ctx, "MOV", asmcmp.PhysRegOperand(rbp), asmcmp.PhysRegOperand(rsp))
	if off.FrameSize > 0 {
		emit(ctx, "SUB", asmcmp.PhysRegOperand(rsp), asmcmp.NewUnsignedImm(uint64(off.FrameSize), 64))
	}
	for _, reg := range req.Preserved {
		emit(ctx, "PUSH", asmcmp.PhysRegOperand(reg))
	}
	if req.NeedsX87Control {
		emit(ctx, "FSTCW", frameRelative(off.X87Control))
	}
	if req.NeedsMXCSR {
		emit(ctx, "STMXCSR", frameRelative(off.MXCSR))
	}
}

// Epilogue emits the mirror image of Prologue: pop preserved registers in
// reverse order, undo the stack-pointer adjustment, and leave.
func Epilogue(ctx *asmcmp.Context, req *Requirements, off *Offsets) {
	for i := len(req.Preserved) - 1; i >= 0; i-- {
		emit(ctx, "POP", asmcmp.PhysRegOperand(req.Preserved[i]))
	}
	emit(ctx, "LEAVE")
}

func frameRelative(offset int) asmcmp.Operand {
	return asmcmp.Operand{Kind: asmcmp.OperandIndirect, Base: rbp, Displ: int64(offset)}
}

// rbp/rsp reuse x86asm.Reg's RBP/RSP numbering via asmcmp.RealReg, the
// same way instsel keys every other physical register.
var (
	rbp = asmcmp.RealReg(x86asm.RBP)
	rsp = asmcmp.RealReg(x86asm.RSP)
)
