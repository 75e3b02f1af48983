package asmcmp

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// RelocKind names the relocation a RIP-indirect operand carries (§4.8):
// absolute, PLT, GOTPCREL, TPOFF, GOTTPOFF, TLSGD.
type RelocKind int

const (
	RelocNone RelocKind = iota
	RelocAbsolute
	RelocPLT
	RelocGOTPCREL
	RelocTPOFF
	RelocGOTTPOFF
	RelocTLSGD
)

// OperandKind tags the Operand variant (§3: "operand variants: none/
// signed-imm/unsigned-imm/phreg/vreg/indirect/RIP-indirect/internal-label/
// external-label/x87-slot/stash-index/inline-asm-index").
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandSignedImm
	OperandUnsignedImm
	OperandPhysReg
	OperandVReg
	OperandVRegMem
	OperandIndirect
	OperandRIPIndirect
	OperandInternalLabel
	OperandExternalLabel
	OperandX87Slot
	OperandStashIndex
	OperandInlineAsmIndex
)

// IndirectBaseKind distinguishes what an Indirect operand's base resolves
// through: a plain physical/virtual register, a stack-frame local
// variable, or the register-allocator's spill area (§4.8).
type IndirectBaseKind int

const (
	IndirectBaseReg IndirectBaseKind = iota
	IndirectBaseLocalVar
	IndirectBaseSpillArea
)

// Operand is the flattened variant of every asmcmp operand. Immediate
// payloads for OperandSignedImm/OperandUnsignedImm are carried via
// github.com/llir/llvm/ir/constant.Int, bridging the optimizer's own
// constant representation into the assembly IR instead of re-deriving a
// parallel integer-literal type.
type Operand struct {
	Kind OperandKind

	Imm *constant.Int // OperandSignedImm / OperandUnsignedImm

	Phys RealReg // OperandPhysReg
	VReg VReg    // OperandVReg

	// OperandIndirect / OperandRIPIndirect
	Base        RealReg
	BaseVReg    VReg
	BaseKind    IndirectBaseKind
	LocalVarID  int // IndirectBaseLocalVar
	SpillIndex  int // IndirectBaseSpillArea
	Displ       int64
	Reloc       RelocKind
	Symbol      string // RIP-indirect external symbol name

	Label *Label // OperandInternalLabel / OperandExternalLabel

	X87Slot int // OperandX87Slot: logical depth from top of x87 stack at emission time

	StashIndex int // OperandStashIndex
	AsmIndex   int // OperandInlineAsmIndex
}

// NewSignedImm builds a signed-immediate operand carrying v at the given
// bit width.
func NewSignedImm(v int64, bits uint64) Operand {
	return Operand{Kind: OperandSignedImm, Imm: constant.NewInt(types.NewInt(bits), v)}
}

// NewUnsignedImm builds an unsigned-immediate operand carrying v.
func NewUnsignedImm(v uint64, bits uint64) Operand {
	return Operand{Kind: OperandUnsignedImm, Imm: constant.NewInt(types.NewInt(bits), int64(v))}
}

// PhysRegOperand builds a physical-register operand.
func PhysRegOperand(r RealReg) Operand { return Operand{Kind: OperandPhysReg, Phys: r} }

// VRegOperand builds a virtual-register operand.
func VRegOperand(v VReg) Operand { return Operand{Kind: OperandVReg, VReg: v} }

// VRegMemOperand builds an operand referring to v's value through its
// guaranteed spill-area memory address rather than a register. Long-double
// and complex-long-double vregs always resolve this way: §4.5/§4.9 require
// them to live on the x87 stack or in memory, never in a GP or XMM register.
func VRegMemOperand(v VReg) Operand { return Operand{Kind: OperandVRegMem, VReg: v} }
