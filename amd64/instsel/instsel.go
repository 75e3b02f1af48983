// Package instsel implements instruction selection (§4.5): translating
// each optimizer (ssa) opcode into one or more asmcmp instructions over
// freshly allocated virtual registers. The per-opcode dispatch table
// mirrors the teacher's translateInst/instADD/instCALL/... structure in
// cmd/bin2ll/ll.go almost directly, generalized from "x86 opcode to LLVM
// IR" to "optimizer opcode to asmcmp IR".
package instsel

import (
	"fmt"

	"github.com/mewbak/x86/x86asm"

	"github.com/sourcehut-mirrors/selfcc/amd64/abi"
	"github.com/sourcehut-mirrors/selfcc/amd64/localvar"
	"github.com/sourcehut-mirrors/selfcc/amd64/x87"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/diag"
	"github.com/sourcehut-mirrors/selfcc/ssa"
)

// Selector lowers one ssa.Function into an asmcmp.Context.
type Selector struct {
	Traits *ctype.Traits
	ctx    *asmcmp.Context
	values map[ssa.ValueRef]asmcmp.VReg
	blocks map[ssa.BlockID]*asmcmp.Label

	locals *localvar.Allocator
	x87    *x87.Manager

	// namedIntArgs/namedSSEArgs count how many OpParam instructions of
	// each ABI class this function has already consumed, so a later
	// va_start knows where the named arguments end and the variadic tail
	// begins (§4.5's gp_offset/fp_offset initial values).
	namedIntArgs int
	namedSSEArgs int
}

// NewSelector creates a Selector over the given target traits.
func NewSelector(traits *ctype.Traits) *Selector {
	return &Selector{Traits: traits}
}

// Select lowers fn, returning the populated asmcmp context.
func (s *Selector) Select(fn *ssa.Function) (*asmcmp.Context, error) {
	s.ctx = asmcmp.NewContext()
	s.values = make(map[ssa.ValueRef]asmcmp.VReg)
	s.blocks = make(map[ssa.BlockID]*asmcmp.Label, len(fn.Blocks))
	s.locals = localvar.NewAllocator()
	s.x87 = x87.NewManager()
	s.namedIntArgs = 0
	s.namedSSEArgs = 0
	for _, b := range fn.Blocks {
		s.blocks[b.ID] = s.ctx.NewLabel()
	}
	for _, b := range fn.Blocks {
		s.ctx.AttachLabel(s.blocks[b.ID], len(s.ctx.Instructions))
		for _, instr := range b.Instructions {
			if err := s.lower(instr); err != nil {
				return nil, err
			}
		}
	}
	return s.ctx, nil
}

// Locals returns the local-variable allocator populated while lowering fn,
// so CLI callers building a stack frame from the same Selector read back
// the offsets instAllocLocal actually assigned instead of reconstructing a
// fresh, empty allocator.
func (s *Selector) Locals() *localvar.Allocator { return s.locals }

// labelFor returns the internal label marking the start of block id,
// creating the block->label mapping up front in Select the way the
// teacher's translateFunc pre-walks blocks before translating instructions
// so forward branch targets already exist when referenced.
func (s *Selector) labelFor(id ssa.BlockID) *asmcmp.Label {
	return s.blocks[id]
}

func internalLabelOperand(lbl *asmcmp.Label) asmcmp.Operand {
	return asmcmp.Operand{Kind: asmcmp.OperandInternalLabel, Label: lbl}
}

func (s *Selector) vregFor(v ssa.ValueRef, kind asmcmp.VRegKind) asmcmp.VReg {
	if vr, ok := s.values[v]; ok {
		return vr
	}
	vr := s.ctx.VRegs.New(kind)
	s.values[v] = vr
	return vr
}

// vregPairFor returns the (real, imaginary) component vregs backing a
// complex-typed value, creating the VRegPair and its two independently
// classified component vregs on first reference.
func (s *Selector) vregPairFor(v ssa.ValueRef, t ssa.Type) (re, im asmcmp.VReg) {
	if vr, ok := s.values[v]; ok {
		info := s.ctx.VRegs.Info(vr)
		return info.Children[0], info.Children[1]
	}
	kind := componentKind(t)
	re = s.ctx.VRegs.New(kind)
	im = s.ctx.VRegs.New(kind)
	pair := s.ctx.VRegs.NewPair(re, im)
	s.values[v] = pair
	return re, im
}

func kindOf(t ssa.Type) asmcmp.VRegKind {
	switch {
	case t == ssa.TypeLongDouble || t.IsComplex():
		return asmcmp.VRegLongDouble
	case t.IsFloat():
		return asmcmp.VRegFP
	default:
		return asmcmp.VRegGP
	}
}

// componentKind returns the vreg kind one real/imaginary component of a
// complex value of type t occupies.
func componentKind(t ssa.Type) asmcmp.VRegKind {
	if t == ssa.TypeComplexLongDouble {
		return asmcmp.VRegLongDouble
	}
	return asmcmp.VRegFP
}

// componentScalarType maps a complex type to its real-component scalar
// type, for width-sensitive opcode selection (f32 vs f64 vs long double).
func componentScalarType(t ssa.Type) ssa.Type {
	switch t {
	case ssa.TypeComplexF32:
		return ssa.TypeF32
	case ssa.TypeComplexLongDouble:
		return ssa.TypeLongDouble
	default:
		return ssa.TypeF64
	}
}

// regKindFor maps an ABI eightbyte class to the vreg kind a value
// classified into it must be held in.
func regKindFor(c abi.Class) asmcmp.VRegKind {
	switch c {
	case abi.ClassSSE:
		return asmcmp.VRegFP
	case abi.ClassX87, abi.ClassComplexX87:
		return asmcmp.VRegLongDouble
	default:
		return asmcmp.VRegGP
	}
}

// lower dispatches on instr.Opcode the way the teacher's translateInst
// dispatches on inst.Op.
func (s *Selector) lower(instr *ssa.Instruction) error {
	switch instr.Opcode {
	case ssa.OpConst:
		return s.instConst(instr)
	case ssa.OpLoad, ssa.OpLoadComplex:
		return s.instLoad(instr)
	case ssa.OpStore, ssa.OpStoreComplex:
		return s.instStore(instr)
	case ssa.OpIAdd, ssa.OpISub, ssa.OpIAnd, ssa.OpIOr, ssa.OpIXor:
		return s.instIntALU(instr)
	case ssa.OpIMul:
		return s.instIMul(instr)
	case ssa.OpUDiv, ssa.OpSDiv, ssa.OpURem, ssa.OpSRem:
		return s.instIDiv(instr)
	case ssa.OpIShl, ssa.OpLShr, ssa.OpAShr:
		return s.instShift(instr)
	case ssa.OpINeg, ssa.OpINot:
		return s.instIUnary(instr)
	case ssa.OpICmp:
		return s.instICmp(instr)
	case ssa.OpFAdd, ssa.OpFSub, ssa.OpFMul, ssa.OpFDiv:
		return s.instFloatALU(instr)
	case ssa.OpFNeg:
		return s.instFNeg(instr)
	case ssa.OpFCmp:
		return s.instFCmp(instr)
	case ssa.OpCAdd, ssa.OpCSub, ssa.OpCMul, ssa.OpCDiv:
		return s.instComplexALU(instr)
	case ssa.OpBitExtract, ssa.OpBitInsert:
		return s.instBitfield(instr)
	case ssa.OpAtomicLoad, ssa.OpAtomicStore, ssa.OpAtomicCmpXchg, ssa.OpAtomicCopyMemory, ssa.OpAtomicRMW:
		return s.instAtomic(instr)
	case ssa.OpIAddOverflow, ssa.OpISubOverflow, ssa.OpIMulOverflow:
		return s.instOverflowALU(instr)
	case ssa.OpBigIntAdd, ssa.OpBigIntSub, ssa.OpBigIntMul, ssa.OpBigIntDiv,
		ssa.OpBigIntNeg, ssa.OpBigIntNot, ssa.OpBigIntAnd, ssa.OpBigIntOr, ssa.OpBigIntXor,
		ssa.OpBigIntShl, ssa.OpBigIntLShr, ssa.OpBigIntAShr, ssa.OpBigIntCmp,
		ssa.OpBigIntCast, ssa.OpBigIntToFloat, ssa.OpFloatToBigInt:
		return s.instBigIntCall(instr)
	case ssa.OpFenvGetRound, ssa.OpFenvSetRound, ssa.OpFenvGetExcept, ssa.OpFenvClearExcept:
		return s.instFenv(instr)
	case ssa.OpJump:
		return s.instJump(instr)
	case ssa.OpBranch:
		return s.instBranch(instr)
	case ssa.OpBranchTable:
		return s.instBranchTable(instr)
	case ssa.OpReturn:
		return s.instReturn(instr)
	case ssa.OpInvoke, ssa.OpInvokeVirtual, ssa.OpTailInvoke:
		return s.instCall(instr)
	case ssa.OpVaStart, ssa.OpVaArg, ssa.OpVaEnd, ssa.OpVaCopy:
		return s.instVarArgs(instr)
	case ssa.OpSelect, ssa.OpSelectCompare:
		return s.instSelect(instr)
	case ssa.OpPhi:
		return nil // resolved by the register allocator via same-as hints on incoming vregs, not asmcmp instructions
	case ssa.OpParam:
		return s.instParam(instr)
	case ssa.OpAllocLocal:
		return s.instAllocLocal(instr)
	case ssa.OpConvert:
		return s.instConvert(instr)
	default:
		return diag.New(diag.InternalError, "instruction selection: opcode %d not implemented", instr.Opcode)
	}
}

func mnemonic(op x86asm.Op) string { return op.String() }

func (s *Selector) emit(mn string, ops ...asmcmp.Operand) {
	s.ctx.Emit(&asmcmp.Instruction{Mnemonic: mn, Operands: ops})
}

func (s *Selector) instConst(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, kindOf(instr.Type))
	if instr.Type.IsFloat() || instr.Type.IsComplex() {
		s.emit(mnemonic(x86asm.MOVSD), asmcmp.VRegOperand(dst), asmcmp.NewUnsignedImm(uint64(instr.ConstFloat), 64))
		return nil
	}
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.NewSignedImm(instr.ConstInt, 64))
	return nil
}

func (s *Selector) instLoad(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, kindOf(instr.Type))
	base := s.vregFor(instr.Addr, asmcmp.VRegGP)
	src := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: base, Displ: instr.Offset}
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), src)
	return nil
}

func (s *Selector) instStore(instr *ssa.Instruction) error {
	base := s.vregFor(instr.Addr, asmcmp.VRegGP)
	dst := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: base, Displ: instr.Offset}
	src := s.vregFor(instr.Args[0], kindOf(instr.Type))
	s.emit(mnemonic(x86asm.MOV), dst, asmcmp.VRegOperand(src))
	return nil
}

func (s *Selector) instIntALU(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	b := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	var op x86asm.Op
	switch instr.Opcode {
	case ssa.OpIAdd:
		op = x86asm.ADD
	case ssa.OpISub:
		op = x86asm.SUB
	case ssa.OpIAnd:
		op = x86asm.AND
	case ssa.OpIOr:
		op = x86asm.OR
	case ssa.OpIXor:
		op = x86asm.XOR
	}
	s.emit(mnemonic(op), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(b))
	return nil
}

// instIMul lowers multiplication using the two/three-operand imul forms
// (§4.5: "Per-width opcodes emit mov + size-annotated ALU op").
func (s *Selector) instIMul(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	b := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	s.emit(mnemonic(x86asm.IMUL), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(b))
	return nil
}

// instIDiv lowers (u)div/(u)rem using idiv/div with explicit vreg
// requirements on RAX/RDX, per §4.5.
func (s *Selector) instIDiv(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	dividend := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	divisor := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	s.ctx.VRegs.SetRequirement(dividend, asmcmp.RealReg(x86asm.RAX))

	signed := instr.Opcode == ssa.OpSDiv || instr.Opcode == ssa.OpSRem
	if signed {
		s.emit(mnemonic(x86asm.CQO))
	} else {
		rdx := asmcmp.PhysRegOperand(asmcmp.RealReg(x86asm.RDX))
		s.emit(mnemonic(x86asm.XOR), rdx, rdx) // zero RDX before an unsigned divide
	}
	op := x86asm.DIV
	if signed {
		op = x86asm.IDIV
	}
	s.emit(mnemonic(op), asmcmp.VRegOperand(divisor))

	if instr.Opcode == ssa.OpUDiv || instr.Opcode == ssa.OpSDiv {
		s.ctx.VRegs.SetRequirement(dst, asmcmp.RealReg(x86asm.RAX))
	} else {
		s.ctx.VRegs.SetRequirement(dst, asmcmp.RealReg(x86asm.RDX))
	}
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(dst))
	return nil
}

func (s *Selector) instShift(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	count := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	s.ctx.VRegs.SetRequirement(count, asmcmp.RealReg(x86asm.CL)) // non-constant shift count must be in CL (§4.5)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	var op x86asm.Op
	switch instr.Opcode {
	case ssa.OpIShl:
		op = x86asm.SHL
	case ssa.OpLShr:
		op = x86asm.SHR
	case ssa.OpAShr:
		op = x86asm.SAR
	}
	s.emit(mnemonic(op), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(count))
	return nil
}

func (s *Selector) instIUnary(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	op := x86asm.NEG
	if instr.Opcode == ssa.OpINot {
		op = x86asm.NOT
	}
	s.emit(mnemonic(op), asmcmp.VRegOperand(dst))
	return nil
}

func (s *Selector) instICmp(instr *ssa.Instruction) error {
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	b := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.CMP), asmcmp.VRegOperand(a), asmcmp.VRegOperand(b))
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	s.emit(setccMnemonic(instr.ICmpCond), asmcmp.VRegOperand(dst))
	return nil
}

func setccMnemonic(cond ssa.ICmpCond) string {
	switch cond {
	case ssa.ICmpEq:
		return x86asm.SETE.String()
	case ssa.ICmpNe:
		return x86asm.SETNE.String()
	case ssa.ICmpSlt:
		return x86asm.SETL.String()
	case ssa.ICmpSle:
		return x86asm.SETLE.String()
	case ssa.ICmpSgt:
		return x86asm.SETG.String()
	case ssa.ICmpSge:
		return x86asm.SETGE.String()
	case ssa.ICmpUlt:
		return x86asm.SETB.String()
	case ssa.ICmpUle:
		return x86asm.SETBE.String()
	case ssa.ICmpUgt:
		return x86asm.SETA.String()
	case ssa.ICmpUge:
		return x86asm.SETAE.String()
	default:
		return x86asm.SETE.String()
	}
}

// x87Token maps a vreg to the opaque, comparable ssa.ValueRef token the
// x87.Manager keys its stack bookkeeping on. The manager only needs
// equality-comparable handles, never real SSA values, so a synthetic
// temporary's vreg ID serves as well as a genuine ValueRef.
func x87Token(v asmcmp.VReg) ssa.ValueRef { return ssa.ValueRef(v.ID()) }

// x87ScalarBinOp lowers one long-double binary arithmetic op via the x87
// stack. Both operands always resolve to memory (kindRegOrder forces
// VRegLongDouble to the spill fallback), so the sequence is: fld a, fld b
// (stack becomes [b, a] top-first), then the non-reversed pop-form opcode,
// which computes ST(1) op ST(0) — i.e. a op b, matching this push order
// without needing the R-suffixed reversed variants — then fstp to dst's
// memory slot. The manager only tracks Push/ConsumeBy bookkeeping here:
// with at most two live entries this never approaches the 8-slot capacity,
// so Ensure's flush path never triggers.
func (s *Selector) x87ScalarBinOp(opcode ssa.Opcode, dst, a, b asmcmp.VReg) {
	s.x87.Push(x87Token(a))
	s.emit(mnemonic(x86asm.FLD), asmcmp.VRegMemOperand(a))
	s.x87.Push(x87Token(b))
	s.emit(mnemonic(x86asm.FLD), asmcmp.VRegMemOperand(b))

	var op x86asm.Op
	switch opcode {
	case ssa.OpFAdd:
		op = x86asm.FADDP
	case ssa.OpFSub:
		op = x86asm.FSUBP
	case ssa.OpFMul:
		op = x86asm.FMULP
	case ssa.OpFDiv:
		op = x86asm.FDIVP
	}
	s.emit(mnemonic(op))
	s.x87.ConsumeBy(x87Token(b), x87Token(dst))
	s.x87.ConsumeBy(x87Token(a), x87Token(dst))
	s.emit(mnemonic(x86asm.FSTP), asmcmp.VRegMemOperand(dst))
}

// sseBinOp lowers one SSE scalar binary arithmetic op (float or double).
func (s *Selector) sseBinOp(opcode ssa.Opcode, typ ssa.Type, dst, a, b asmcmp.VReg) {
	movOp := x86asm.MOVSS
	if typ == ssa.TypeF64 {
		movOp = x86asm.MOVSD
	}
	s.emit(mnemonic(movOp), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	var op x86asm.Op
	switch opcode {
	case ssa.OpFAdd:
		op = x86asm.ADDSD
	case ssa.OpFSub:
		op = x86asm.SUBSD
	case ssa.OpFMul:
		op = x86asm.MULSD
	case ssa.OpFDiv:
		op = x86asm.DIVSD
	}
	if typ == ssa.TypeF32 {
		op = f32Variant(op)
	}
	s.emit(mnemonic(op), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(b))
}

// scalarBinOp lowers one real-valued binary arithmetic op, routing long
// double through the x87 stack and float/double through SSE (§4.5, §4.9).
func (s *Selector) scalarBinOp(opcode ssa.Opcode, typ ssa.Type, dst, a, b asmcmp.VReg) {
	if typ == ssa.TypeLongDouble {
		s.x87ScalarBinOp(opcode, dst, a, b)
		return
	}
	s.sseBinOp(opcode, typ, dst, a, b)
}

func f32Variant(op x86asm.Op) x86asm.Op {
	switch op {
	case x86asm.ADDSD:
		return x86asm.ADDSS
	case x86asm.SUBSD:
		return x86asm.SUBSS
	case x86asm.MULSD:
		return x86asm.MULSS
	case x86asm.DIVSD:
		return x86asm.DIVSS
	default:
		return op
	}
}

// instFloatALU lowers scalar floating arithmetic: SSE for float/double,
// the x87 stack for long double (§4.5, §4.9).
func (s *Selector) instFloatALU(instr *ssa.Instruction) error {
	kind := asmcmp.VRegFP
	if instr.Type == ssa.TypeLongDouble {
		kind = asmcmp.VRegLongDouble
	}
	dst := s.vregFor(instr.Result, kind)
	a := s.vregFor(instr.Args[0], kind)
	b := s.vregFor(instr.Args[1], kind)
	s.scalarBinOp(instr.Opcode, instr.Type, dst, a, b)
	return nil
}

func (s *Selector) instFNeg(instr *ssa.Instruction) error {
	if instr.Type == ssa.TypeLongDouble {
		dst := s.vregFor(instr.Result, asmcmp.VRegLongDouble)
		a := s.vregFor(instr.Args[0], asmcmp.VRegLongDouble)
		s.x87.Push(x87Token(a))
		s.emit(mnemonic(x86asm.FLD), asmcmp.VRegMemOperand(a))
		s.emit(mnemonic(x86asm.FCHS))
		s.x87.ConsumeBy(x87Token(a), x87Token(dst))
		s.emit(mnemonic(x86asm.FSTP), asmcmp.VRegMemOperand(dst))
		return nil
	}
	dst := s.vregFor(instr.Result, asmcmp.VRegFP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegFP)
	s.emit(mnemonic(x86asm.MOVSD), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	s.emit(mnemonic(x86asm.PXOR), asmcmp.VRegOperand(dst), asmcmp.NewUnsignedImm(1<<63, 64)) // flip the sign bit
	return nil
}

func (s *Selector) instFCmp(instr *ssa.Instruction) error {
	a := s.vregFor(instr.Args[0], asmcmp.VRegFP)
	b := s.vregFor(instr.Args[1], asmcmp.VRegFP)
	s.emit(mnemonic(x86asm.UCOMISD), asmcmp.VRegOperand(a), asmcmp.VRegOperand(b))
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.SETE), asmcmp.VRegOperand(dst))
	return nil
}

// complexBinOp lowers complex add/sub/mul/div over two component pairs
// into dst's pair, via the standard complex-arithmetic identities, each
// term computed by scalarBinOp's real-component sequence (§4.5, §4.9):
// add/sub are componentwise; mul is (aRe*bRe-aIm*bIm, aRe*bIm+aIm*bRe);
// div is ((aRe*bRe+aIm*bIm)/d, (aIm*bRe-aRe*bIm)/d) with d = bRe^2+bIm^2.
func (s *Selector) complexBinOp(opcode ssa.Opcode, ctyp ssa.Type, dstRe, dstIm, aRe, aIm, bRe, bIm asmcmp.VReg) {
	kind := componentKind(ctyp)
	typ := componentScalarType(ctyp)
	tmp := func() asmcmp.VReg { return s.ctx.VRegs.New(kind) }

	switch opcode {
	case ssa.OpCAdd:
		s.scalarBinOp(ssa.OpFAdd, typ, dstRe, aRe, bRe)
		s.scalarBinOp(ssa.OpFAdd, typ, dstIm, aIm, bIm)
	case ssa.OpCSub:
		s.scalarBinOp(ssa.OpFSub, typ, dstRe, aRe, bRe)
		s.scalarBinOp(ssa.OpFSub, typ, dstIm, aIm, bIm)
	case ssa.OpCMul:
		t1, t2, t3, t4 := tmp(), tmp(), tmp(), tmp()
		s.scalarBinOp(ssa.OpFMul, typ, t1, aRe, bRe)
		s.scalarBinOp(ssa.OpFMul, typ, t2, aIm, bIm)
		s.scalarBinOp(ssa.OpFSub, typ, dstRe, t1, t2)
		s.scalarBinOp(ssa.OpFMul, typ, t3, aRe, bIm)
		s.scalarBinOp(ssa.OpFMul, typ, t4, aIm, bRe)
		s.scalarBinOp(ssa.OpFAdd, typ, dstIm, t3, t4)
	case ssa.OpCDiv:
		bRe2, bIm2, denom := tmp(), tmp(), tmp()
		s.scalarBinOp(ssa.OpFMul, typ, bRe2, bRe, bRe)
		s.scalarBinOp(ssa.OpFMul, typ, bIm2, bIm, bIm)
		s.scalarBinOp(ssa.OpFAdd, typ, denom, bRe2, bIm2)

		t1, t2, numRe := tmp(), tmp(), tmp()
		s.scalarBinOp(ssa.OpFMul, typ, t1, aRe, bRe)
		s.scalarBinOp(ssa.OpFMul, typ, t2, aIm, bIm)
		s.scalarBinOp(ssa.OpFAdd, typ, numRe, t1, t2)
		s.scalarBinOp(ssa.OpFDiv, typ, dstRe, numRe, denom)

		t3, t4, numIm := tmp(), tmp(), tmp()
		s.scalarBinOp(ssa.OpFMul, typ, t3, aIm, bRe)
		s.scalarBinOp(ssa.OpFMul, typ, t4, aRe, bIm)
		s.scalarBinOp(ssa.OpFSub, typ, numIm, t3, t4)
		s.scalarBinOp(ssa.OpFDiv, typ, dstIm, numIm, denom)
	}
}

// instComplexALU lowers complex arithmetic as independently classified
// real/imaginary component pairs (§4.5, §4.9).
func (s *Selector) instComplexALU(instr *ssa.Instruction) error {
	dstRe, dstIm := s.vregPairFor(instr.Result, instr.Type)
	aRe, aIm := s.vregPairFor(instr.Args[0], instr.Type)
	bRe, bIm := s.vregPairFor(instr.Args[1], instr.Type)
	s.complexBinOp(instr.Opcode, instr.Type, dstRe, dstIm, aRe, aIm, bRe, bIm)
	return nil
}

func (s *Selector) instBitfield(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	a := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	if instr.Opcode == ssa.OpBitExtract {
		s.emit(mnemonic(x86asm.SHR), asmcmp.VRegOperand(dst), asmcmp.NewUnsignedImm(uint64(instr.Offset), 8))
		s.emit(mnemonic(x86asm.AND), asmcmp.VRegOperand(dst), asmcmp.NewUnsignedImm((1<<uint(instr.Size))-1, 64))
		return nil
	}
	b := s.vregFor(instr.Args[1], asmcmp.VRegGP)
	mask := (uint64(1)<<uint(instr.Size) - 1) << uint(instr.Offset)
	s.emit(mnemonic(x86asm.AND), asmcmp.VRegOperand(dst), asmcmp.NewUnsignedImm(^mask, 64))
	shifted := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(shifted), asmcmp.VRegOperand(b))
	s.emit(mnemonic(x86asm.SHL), asmcmp.VRegOperand(shifted), asmcmp.NewUnsignedImm(uint64(instr.Offset), 8))
	s.emit(mnemonic(x86asm.OR), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(shifted))
	return nil
}

// instAtomic emits the native LOCK-prefixed sequence or libatomic call per
// §4.5: "Emit the corresponding libatomic call or a native instruction
// sequence with LOCK prefix and proper memory-order translation (seq-cst =
// 5)."
func (s *Selector) instAtomic(instr *ssa.Instruction) error {
	order := int(instr.Order)
	if instr.Order == ssa.OrderSeqCst {
		order = 5
	}
	base := s.vregFor(instr.Addr, asmcmp.VRegGP)
	addr := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: base, Displ: instr.Offset}
	switch instr.Opcode {
	case ssa.OpAtomicLoad:
		dst := s.vregFor(instr.Result, asmcmp.VRegGP)
		s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), addr)
	case ssa.OpAtomicStore:
		val := s.vregFor(instr.Args[0], asmcmp.VRegGP)
		s.emit("LOCK "+mnemonic(x86asm.XCHG), addr, asmcmp.VRegOperand(val))
	case ssa.OpAtomicCmpXchg:
		expected := s.vregFor(instr.Expected, asmcmp.VRegGP)
		s.ctx.VRegs.SetRequirement(expected, asmcmp.RealReg(x86asm.RAX))
		desired := s.vregFor(instr.Args[0], asmcmp.VRegGP)
		s.emit("LOCK "+mnemonic(x86asm.CMPXCHG), addr, asmcmp.VRegOperand(desired))
	case ssa.OpAtomicCopyMemory:
		s.emit(callMnemonic("__atomic_copy_memory"), asmcmp.NewUnsignedImm(uint64(order), 32))
	case ssa.OpAtomicRMW:
		val := s.vregFor(instr.Args[0], asmcmp.VRegGP)
		op := map[ssa.AtomicRMWKind]x86asm.Op{
			ssa.AtomicRMWAdd: x86asm.XADD, ssa.AtomicRMWSub: x86asm.XADD,
			ssa.AtomicRMWAnd: x86asm.AND, ssa.AtomicRMWOr: x86asm.OR, ssa.AtomicRMWXor: x86asm.XOR,
			ssa.AtomicRMWExchange: x86asm.XCHG,
		}[instr.RMWKind]
		s.emit("LOCK "+mnemonic(op), addr, asmcmp.VRegOperand(val))
	}
	return nil
}

func (s *Selector) instOverflowALU(instr *ssa.Instruction) error {
	if err := s.instIntALU(&ssa.Instruction{
		Opcode: map[ssa.Opcode]ssa.Opcode{ssa.OpIAddOverflow: ssa.OpIAdd, ssa.OpISubOverflow: ssa.OpISub}[instr.Opcode],
		Result: instr.Result, Args: instr.Args, Type: instr.Type,
	}); err != nil && instr.Opcode != ssa.OpIMulOverflow {
		return err
	}
	flag := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.SETO), asmcmp.VRegOperand(flag))
	ptr := s.vregFor(instr.Args[len(instr.Args)-1], asmcmp.VRegGP) // pointer operand receiving the carry
	s.emit(mnemonic(x86asm.MOV), asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: ptr}, asmcmp.VRegOperand(flag))
	return nil
}

// instBigIntCall lowers a bit-precise opcode into a call to the BigInt
// runtime function named __kefir_bigint_<op>, per §4.5. The runtime
// functions are width-polymorphic, so the operand width always rides
// along as one extra trailing argument.
func (s *Selector) instBigIntCall(instr *ssa.Instruction) error {
	name, ok := bigintSymbols[instr.Opcode]
	if !ok {
		return diag.New(diag.InternalError, "no BigInt runtime symbol for opcode %d", instr.Opcode)
	}
	for _, arg := range instr.Args {
		s.emit(mnemonic(x86asm.PUSH), asmcmp.VRegOperand(s.vregFor(arg, asmcmp.VRegGP)))
	}
	s.emit(mnemonic(x86asm.PUSH), asmcmp.NewSignedImm(int64(instr.BitWidth), 64))
	s.emit(callMnemonic(name))
	return nil
}

var bigintSymbols = map[ssa.Opcode]string{
	ssa.OpBigIntAdd: "__kefir_bigint_add", ssa.OpBigIntSub: "__kefir_bigint_subtract",
	ssa.OpBigIntMul: "__kefir_bigint_signed_multiply", ssa.OpBigIntDiv: "__kefir_bigint_signed_divide",
	ssa.OpBigIntNeg: "__kefir_bigint_negate", ssa.OpBigIntNot: "__kefir_bigint_invert",
	ssa.OpBigIntAnd: "__kefir_bigint_and", ssa.OpBigIntOr: "__kefir_bigint_or", ssa.OpBigIntXor: "__kefir_bigint_xor",
	ssa.OpBigIntShl: "__kefir_bigint_left_shift", ssa.OpBigIntLShr: "__kefir_bigint_right_shift",
	ssa.OpBigIntAShr: "__kefir_bigint_arithmetic_right_shift", ssa.OpBigIntCmp: "__kefir_bigint_signed_compare",
	ssa.OpBigIntCast: "__kefir_bigint_cast_signed", ssa.OpBigIntToFloat: "__kefir_bigint_signed_to_double",
	ssa.OpFloatToBigInt: "__kefir_bigint_cast_from_double",
}

func callMnemonic(symbol string) string { return fmt.Sprintf("%s %s", x86asm.CALL, symbol) }

func (s *Selector) instFenv(instr *ssa.Instruction) error {
	switch instr.Opcode {
	case ssa.OpFenvGetRound:
		s.emit(mnemonic(x86asm.STMXCSR))
	case ssa.OpFenvSetRound:
		s.emit(mnemonic(x86asm.LDMXCSR))
	case ssa.OpFenvGetExcept:
		s.emit(mnemonic(x86asm.STMXCSR))
	case ssa.OpFenvClearExcept:
		s.emit(mnemonic(x86asm.LDMXCSR))
	}
	return nil
}

func (s *Selector) instJump(instr *ssa.Instruction) error {
	s.emit(mnemonic(x86asm.JMP), internalLabelOperand(s.labelFor(instr.Target)))
	return nil
}

func (s *Selector) instBranch(instr *ssa.Instruction) error {
	cond := s.vregFor(instr.Cond, asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.TEST), asmcmp.VRegOperand(cond), asmcmp.VRegOperand(cond))
	s.emit(mnemonic(x86asm.JNE), internalLabelOperand(s.labelFor(instr.TrueTarget)))
	s.emit(mnemonic(x86asm.JMP), internalLabelOperand(s.labelFor(instr.FalseTarget)))
	return nil
}

func (s *Selector) instBranchTable(instr *ssa.Instruction) error {
	idx := s.vregFor(instr.Cond, asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.JMP), asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: idx})
	return nil
}

// returnAggregate lowers a struct/union-typed return: instr.Args[0] holds a
// pointer to the aggregate's bytes (the same "vreg holds a runtime
// address" convention loads/stores already use), classified per-eightbyte
// per §4.5's aggregate-return case.
func (s *Selector) returnAggregate(instr *ssa.Instruction) error {
	classes := abi.ClassifyAggregate(s.Traits, instr.AggType)
	ptr := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	if classes[0] == abi.ClassMemory {
		// The hidden pointer the caller passed in is returned unchanged in
		// RAX, per the memory-class aggregate-return convention.
		s.ctx.VRegs.SetRequirement(ptr, asmcmp.RealReg(x86asm.RAX))
		s.emit(mnemonic(x86asm.RET))
		return nil
	}
	gpRegs := []x86asm.Reg{x86asm.RAX, x86asm.RDX}
	sseRegs := []x86asm.Reg{x86asm.X0, x86asm.X1}
	gp, sse := 0, 0
	for i, class := range classes {
		eightbyte := s.ctx.VRegs.New(regKindFor(class))
		src := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: ptr, Displ: int64(i * 8)}
		if class == abi.ClassSSE {
			s.emit(mnemonic(x86asm.MOVSD), asmcmp.VRegOperand(eightbyte), src)
			s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(sseRegs[sse]))
			sse++
		} else {
			s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(eightbyte), src)
			s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(gpRegs[gp]))
			gp++
		}
	}
	s.emit(mnemonic(x86asm.RET))
	return nil
}

// instReturn lowers a return instruction per §4.5's five return-location
// cases (no location / single GPR / single SSE / multi-register / memory),
// driven by abi.ClassifyScalar / abi.ClassifyAggregate on instr.Type.
func (s *Selector) instReturn(instr *ssa.Instruction) error {
	if len(instr.Args) == 0 {
		s.emit(mnemonic(x86asm.RET))
		return nil
	}
	if instr.Type == ssa.TypeAggregate {
		return s.returnAggregate(instr)
	}
	val := s.vregFor(instr.Args[0], kindOf(instr.Type))
	switch abi.ClassifyScalar(instr.Type) {
	case abi.ClassInteger:
		s.ctx.VRegs.SetRequirement(val, asmcmp.RealReg(x86asm.RAX))
	case abi.ClassSSE:
		s.ctx.VRegs.SetRequirement(val, asmcmp.RealReg(x86asm.X0))
	case abi.ClassX87, abi.ClassComplexX87:
		s.emit(mnemonic(x86asm.FLD), asmcmp.VRegMemOperand(val))
	}
	s.emit(mnemonic(x86asm.RET))
	return nil
}

// instCall lowers call/invoke-virtual/tail-invoke: classify each argument
// by its own type (instead of assuming every argument is an integer),
// place it per the ABI, stash live caller-saved vregs around the call, and
// pull the return value out symmetrically to instReturn (§4.5).
func (s *Selector) instCall(instr *ssa.Instruction) error {
	state := abi.NewArgState()
	intArgRegs := []x86asm.Reg{x86asm.RDI, x86asm.RSI, x86asm.RDX, x86asm.RCX, x86asm.R8, x86asm.R9}
	sseArgRegs := []x86asm.Reg{x86asm.X0, x86asm.X1, x86asm.X2, x86asm.X3, x86asm.X4, x86asm.X5, x86asm.X6, x86asm.X7}

	// A memory-class aggregate result is written by the callee through the
	// destination address instr.Addr, passed as the hidden first integer
	// argument.
	if instr.Result != ssa.ValueInvalid && instr.Type == ssa.TypeAggregate &&
		abi.ClassifyAggregate(s.Traits, instr.AggType)[0] == abi.ClassMemory {
		state.AllocateArg([]abi.Class{abi.ClassInteger})
		hidden := s.ctx.VRegs.New(asmcmp.VRegGP)
		s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(hidden), asmcmp.VRegOperand(s.vregFor(instr.Addr, asmcmp.VRegGP)))
		s.ctx.VRegs.SetRequirement(hidden, asmcmp.RealReg(intArgRegs[0]))
	}

	// Closure over state rather than a free function: abi's per-call
	// classification cursor is an unexported type, so it can only be
	// threaded through by capture, not by an explicit parameter type.
	placeAggregateArg := func(arg ssa.ValueRef, aggType *ctype.Type) {
		ptr := s.vregFor(arg, asmcmp.VRegGP)
		classes := abi.ClassifyAggregate(s.Traits, aggType)
		locs := state.AllocateArg(classes)
		if locs[0].Class == abi.ClassMemory {
			for i := len(classes) - 1; i >= 0; i-- {
				eightbyte := s.ctx.VRegs.New(asmcmp.VRegGP)
				src := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: ptr, Displ: int64(i * 8)}
				s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(eightbyte), src)
				s.emit(mnemonic(x86asm.PUSH), asmcmp.VRegOperand(eightbyte))
			}
			return
		}
		for i, loc := range locs {
			eightbyte := s.ctx.VRegs.New(regKindFor(loc.Class))
			src := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: ptr, Displ: int64(i * 8)}
			if loc.Class == abi.ClassSSE {
				s.emit(mnemonic(x86asm.MOVSD), asmcmp.VRegOperand(eightbyte), src)
				s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(sseArgRegs[loc.SSEIndex]))
			} else {
				s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(eightbyte), src)
				s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(intArgRegs[loc.GPIndex]))
			}
		}
	}

	for i, arg := range instr.CallArgs {
		argType := ssa.TypeI64
		if i < len(instr.CallArgTypes) {
			argType = instr.CallArgTypes[i]
		}
		if argType == ssa.TypeAggregate {
			var aggType *ctype.Type
			if i < len(instr.CallArgAggTypes) {
				aggType = instr.CallArgAggTypes[i]
			}
			placeAggregateArg(arg, aggType)
			continue
		}
		vr := s.vregFor(arg, kindOf(argType))
		class := abi.ClassifyScalar(argType)
		locs := state.AllocateArg([]abi.Class{class})
		loc := locs[0]
		if loc.Class == abi.ClassMemory {
			s.emit(mnemonic(x86asm.PUSH), asmcmp.VRegOperand(vr))
			continue
		}
		if loc.Class == abi.ClassSSE {
			s.ctx.VRegs.SetRequirement(vr, asmcmp.RealReg(sseArgRegs[loc.SSEIndex]))
		} else {
			s.ctx.VRegs.SetRequirement(vr, asmcmp.RealReg(intArgRegs[loc.GPIndex]))
		}
	}

	stash := s.ctx.PushStash(s.liveVRegs())
	if instr.Callee != "" {
		s.emit(callMnemonic(instr.Callee))
	} else {
		callee := s.vregFor(instr.CalleeValue, asmcmp.VRegGP)
		s.emit(mnemonic(x86asm.CALL), asmcmp.VRegOperand(callee))
	}
	s.ctx.DeactivateStash(stash)

	if instr.Result != ssa.ValueInvalid {
		if instr.Type == ssa.TypeAggregate {
			return s.gatherAggregateResult(instr)
		}
		dst := s.vregFor(instr.Result, kindOf(instr.Type))
		switch abi.ClassifyScalar(instr.Type) {
		case abi.ClassInteger:
			s.ctx.VRegs.SetRequirement(dst, asmcmp.RealReg(x86asm.RAX))
		case abi.ClassSSE:
			s.ctx.VRegs.SetRequirement(dst, asmcmp.RealReg(x86asm.X0))
		case abi.ClassX87, abi.ClassComplexX87:
			s.emit(mnemonic(x86asm.FSTP), asmcmp.VRegMemOperand(dst))
		}
	}
	return nil
}

// gatherAggregateResult scatters a call's aggregate-typed result from its
// classified return registers into the destination instr.Addr already
// points at — reusing that field's existing "holds a runtime address" role
// from loads/stores/allocations rather than adding another one purely for
// this case.
func (s *Selector) gatherAggregateResult(instr *ssa.Instruction) error {
	classes := abi.ClassifyAggregate(s.Traits, instr.AggType)
	if classes[0] == abi.ClassMemory {
		// The callee wrote directly through the hidden pointer already
		// passed as an argument; nothing to gather here.
		return nil
	}
	dst := s.vregFor(instr.Addr, asmcmp.VRegGP)
	gpRegs := []x86asm.Reg{x86asm.RAX, x86asm.RDX}
	sseRegs := []x86asm.Reg{x86asm.X0, x86asm.X1}
	gp, sse := 0, 0
	for i, class := range classes {
		eightbyte := s.ctx.VRegs.New(regKindFor(class))
		dstMem := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: dst, Displ: int64(i * 8)}
		if class == abi.ClassSSE {
			s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(sseRegs[sse]))
			sse++
			s.emit(mnemonic(x86asm.MOVSD), dstMem, asmcmp.VRegOperand(eightbyte))
		} else {
			s.ctx.VRegs.SetRequirement(eightbyte, asmcmp.RealReg(gpRegs[gp]))
			gp++
			s.emit(mnemonic(x86asm.MOV), dstMem, asmcmp.VRegOperand(eightbyte))
		}
	}
	return nil
}

func (s *Selector) liveVRegs() []asmcmp.VReg {
	all := s.ctx.VRegs.All()
	return all // conservative: the register allocator narrows this to the actually-live set during lifetime computation
}

// va_list field layout: the standard System V AMD64 va_list struct, a
// 4-field header (gp_offset, fp_offset, overflow_arg_area, reg_save_area)
// in front of a 176-byte save area (6 GP regs * 8 bytes + 8 XMM regs * 16
// bytes).
const (
	vaGPOffsetOff     = 0
	vaFPOffsetOff     = 4
	vaOverflowAreaOff = 8
	vaRegSaveAreaOff  = 16

	vaGPSaveBytes      = 48
	vaFPSaveBytes      = 128
	vaRegSaveAreaBytes = vaGPSaveBytes + vaFPSaveBytes
)

var vaGPSaveRegs = []x86asm.Reg{x86asm.RDI, x86asm.RSI, x86asm.RDX, x86asm.RCX, x86asm.R8, x86asm.R9}
var vaFPSaveRegs = []x86asm.Reg{x86asm.X0, x86asm.X1, x86asm.X2, x86asm.X3, x86asm.X4, x86asm.X5, x86asm.X6, x86asm.X7}

func vaField(vl asmcmp.VReg, off int64) asmcmp.Operand {
	return asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: vl, Displ: off}
}

func (s *Selector) instVarArgs(instr *ssa.Instruction) error {
	switch instr.Opcode {
	case ssa.OpVaStart:
		return s.vaStart(instr)
	case ssa.OpVaArg:
		return s.vaArg(instr)
	case ssa.OpVaCopy:
		return s.vaCopy(instr)
	case ssa.OpVaEnd:
		return nil // the System V va_list carries no resource needing release
	}
	return nil
}

// vaStart materializes a va_list in place at instr.VaListPtr: the six
// integer and eight SSE argument registers spilled to a fresh reg_save_area
// local (the va_list pointer's own ValueRef doubles as that local's
// allocator key, since it is otherwise never passed to Alloc), then the
// four header fields — gp_offset/fp_offset past the named arguments this
// function already consumed, overflow_arg_area at the first stack
// argument, reg_save_area at the block just spilled.
func (s *Selector) vaStart(instr *ssa.Instruction) error {
	vl := s.vregFor(instr.VaListPtr, asmcmp.VRegGP)

	s.locals.Alloc(instr.VaListPtr, vaRegSaveAreaBytes, 16)
	saveBase := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.LEA), asmcmp.VRegOperand(saveBase),
		asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseKind: asmcmp.IndirectBaseLocalVar, LocalVarID: int(instr.VaListPtr)})

	for i, reg := range vaGPSaveRegs {
		slot := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: saveBase, Displ: int64(i * 8)}
		s.emit(mnemonic(x86asm.MOV), slot, asmcmp.PhysRegOperand(asmcmp.RealReg(reg)))
	}
	for i, reg := range vaFPSaveRegs {
		slot := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: saveBase, Displ: int64(vaGPSaveBytes + i*16)}
		s.emit(mnemonic(x86asm.MOVSD), slot, asmcmp.PhysRegOperand(asmcmp.RealReg(reg)))
	}

	s.emit(mnemonic(x86asm.MOV), vaField(vl, vaGPOffsetOff), asmcmp.NewSignedImm(int64(s.namedIntArgs*8), 32))
	s.emit(mnemonic(x86asm.MOV), vaField(vl, vaFPOffsetOff), asmcmp.NewSignedImm(int64(vaGPSaveBytes+s.namedSSEArgs*16), 32))
	s.emit(mnemonic(x86asm.MOV), vaField(vl, vaRegSaveAreaOff), asmcmp.VRegOperand(saveBase))

	overflow := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.LEA), asmcmp.VRegOperand(overflow),
		asmcmp.Operand{Kind: asmcmp.OperandIndirect, Base: asmcmp.RealReg(x86asm.RBP), Displ: 16})
	s.emit(mnemonic(x86asm.MOV), vaField(vl, vaOverflowAreaOff), asmcmp.VRegOperand(overflow))
	return nil
}

// vaArg reads the next argument described by va_list: if the named
// class's register budget is not yet exhausted (gp_offset < 48 or
// fp_offset < 176), load from reg_save_area at that offset and advance it;
// otherwise load from overflow_arg_area and advance that pointer by one
// eightbyte instead, per the ABI's va_arg algorithm.
func (s *Selector) vaArg(instr *ssa.Instruction) error {
	vl := s.vregFor(instr.VaListPtr, asmcmp.VRegGP)
	dst := s.vregFor(instr.Result, kindOf(instr.Type))

	class := abi.ClassifyScalar(instr.Type)
	offsetField := int64(vaGPOffsetOff)
	limit := int64(vaGPSaveBytes)
	stride := int64(8)
	loadOp := x86asm.MOV
	if class == abi.ClassSSE {
		offsetField = vaFPOffsetOff
		limit = vaGPSaveBytes + vaFPSaveBytes
		stride = 16
		loadOp = x86asm.MOVSD
	}

	offset := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(offset), vaField(vl, offsetField))
	s.emit(mnemonic(x86asm.CMP), asmcmp.VRegOperand(offset), asmcmp.NewSignedImm(limit, 32))

	fromRegs := s.ctx.NewLabel()
	done := s.ctx.NewLabel()
	s.emit(mnemonic(x86asm.JL), internalLabelOperand(fromRegs))

	// overflow-area path
	overflowPtr := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(overflowPtr), vaField(vl, vaOverflowAreaOff))
	s.emit(mnemonic(loadOp), asmcmp.VRegOperand(dst), asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: overflowPtr})
	s.emit(mnemonic(x86asm.ADD), asmcmp.VRegOperand(overflowPtr), asmcmp.NewSignedImm(8, 32))
	s.emit(mnemonic(x86asm.MOV), vaField(vl, vaOverflowAreaOff), asmcmp.VRegOperand(overflowPtr))
	s.emit(mnemonic(x86asm.JMP), internalLabelOperand(done))

	// reg_save_area path
	s.ctx.AttachLabel(fromRegs, len(s.ctx.Instructions))
	regSaveBase := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(regSaveBase), vaField(vl, vaRegSaveAreaOff))
	s.emit(mnemonic(x86asm.ADD), asmcmp.VRegOperand(regSaveBase), asmcmp.VRegOperand(offset))
	s.emit(mnemonic(loadOp), asmcmp.VRegOperand(dst), asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseVReg: regSaveBase})
	nextOffset := s.ctx.VRegs.New(asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(nextOffset), asmcmp.VRegOperand(offset))
	s.emit(mnemonic(x86asm.ADD), asmcmp.VRegOperand(nextOffset), asmcmp.NewSignedImm(stride, 32))
	s.emit(mnemonic(x86asm.MOV), vaField(vl, offsetField), asmcmp.VRegOperand(nextOffset))

	s.ctx.AttachLabel(done, len(s.ctx.Instructions))
	return nil
}

// vaCopy duplicates a va_list by copying its four header fields verbatim:
// instr.Args[0] is the destination list, instr.VaListPtr the source. Both
// lists then describe the same already-populated reg_save_area, which a
// raw field copy preserves along with each list's own offset/overflow
// cursors.
func (s *Selector) vaCopy(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Args[0], asmcmp.VRegGP)
	src := s.vregFor(instr.VaListPtr, asmcmp.VRegGP)
	for _, off := range []int64{vaGPOffsetOff, vaFPOffsetOff, vaOverflowAreaOff, vaRegSaveAreaOff} {
		tmp := s.ctx.VRegs.New(asmcmp.VRegGP)
		s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(tmp), vaField(src, off))
		s.emit(mnemonic(x86asm.MOV), vaField(dst, off), asmcmp.VRegOperand(tmp))
	}
	return nil
}

func (s *Selector) instSelect(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, kindOf(instr.Type))
	a := s.vregFor(instr.Args[0], kindOf(instr.Type))
	b := s.vregFor(instr.Args[1], kindOf(instr.Type))
	cond := s.vregFor(instr.Cond, asmcmp.VRegGP)
	s.emit(mnemonic(x86asm.TEST), asmcmp.VRegOperand(cond), asmcmp.VRegOperand(cond))
	s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(a))
	s.emit(mnemonic(x86asm.CMOVE), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(b))
	return nil
}

func (s *Selector) instParam(instr *ssa.Instruction) error {
	s.vregFor(instr.Result, kindOf(instr.Type))
	switch abi.ClassifyScalar(instr.Type) {
	case abi.ClassInteger:
		s.namedIntArgs++
	case abi.ClassSSE:
		s.namedSSEArgs++
	}
	return nil
}

// instAllocLocal reserves a frame slot through the local-variable allocator
// and materializes dst as a real pointer to it, so instLoad/instStore (which
// already treat instr.Addr's vreg as holding a runtime address) need no
// changes to read and write through an allocated local.
func (s *Selector) instAllocLocal(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, asmcmp.VRegGP)
	size := instr.Size
	if size <= 0 {
		size = 8
	}
	align := instr.Align
	if align <= 0 {
		align = 8
	}
	s.locals.Alloc(instr.Result, size, align)
	local := asmcmp.Operand{Kind: asmcmp.OperandIndirect, BaseKind: asmcmp.IndirectBaseLocalVar, LocalVarID: int(instr.Result)}
	s.emit(mnemonic(x86asm.LEA), asmcmp.VRegOperand(dst), local)
	return nil
}

func (s *Selector) instConvert(instr *ssa.Instruction) error {
	dst := s.vregFor(instr.Result, kindOf(instr.Type))
	src := s.vregFor(instr.Args[0], kindOf(instr.FromType))
	switch {
	case instr.FromType.IsInt() && instr.Type.IsFloat():
		s.emit(mnemonic(x86asm.CVTSI2SD), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(src))
	case instr.FromType.IsFloat() && instr.Type.IsInt():
		s.emit(mnemonic(x86asm.CVTTSD2SI), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(src))
	default:
		s.emit(mnemonic(x86asm.MOV), asmcmp.VRegOperand(dst), asmcmp.VRegOperand(src))
	}
	return nil
}
