// Package emit implements the assembly emitter of §4.8: it walks an
// asmcmp.Context after the peephole/devirtualization pipeline and register
// allocation have run, and serializes it to textual x86-64 assembly in
// either AT&T or Intel syntax, resolving virtual registers, local
// variables, and spill slots to their final frame-relative form the way
// the teacher's disassembler resolves an x86asm.Reg to an IR value via its
// own reg() table, except running in the opposite direction.
package emit

import (
	"fmt"
	"strings"

	"github.com/mewbak/x86/x86asm"

	"github.com/sourcehut-mirrors/selfcc/amd64/frame"
	"github.com/sourcehut-mirrors/selfcc/amd64/localvar"
	"github.com/sourcehut-mirrors/selfcc/amd64/regalloc"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
	"github.com/sourcehut-mirrors/selfcc/diag"
	"github.com/sourcehut-mirrors/selfcc/ssa"
)

// Syntax selects the textual dialect the writer renders operands in.
type Syntax int

const (
	ATT Syntax = iota
	Intel
)

// Function bundles everything one function's emission needs from the
// earlier pipeline stages: the finished instruction stream, its register
// assignments, and its laid-out stack frame.
type Function struct {
	Name    string
	Ctx     *asmcmp.Context
	Alloc   *regalloc.Table
	Req     *frame.Requirements
	Offsets *frame.Offsets
}

// Writer accumulates emitted assembly text for a whole translation unit,
// tracking which external symbols were referenced so a header block can
// declare them up front (§4.8, §9's relocated PE-header responsibility).
type Writer struct {
	Syntax Syntax

	buf     strings.Builder
	externs map[string]bool
	loc     sourceTracker
}

// NewWriter creates an emitter for the given syntax.
func NewWriter(syntax Syntax) *Writer {
	return &Writer{Syntax: syntax, externs: make(map[string]bool)}
}

// String returns everything emitted so far.
func (w *Writer) String() string { return w.buf.String() }

// Externs returns the externally referenced symbol names collected while
// emitting function bodies, in no particular order.
func (w *Writer) Externs() []string {
	out := make([]string, 0, len(w.externs))
	for name := range w.externs {
		out = append(out, name)
	}
	return out
}

func (w *Writer) line(format string, args ...interface{}) {
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

// EmitUnit emits a whole translation unit: every function body, then the
// header block of externally referenced symbols the bodies turned up,
// prepended so the assembler sees declarations before first use.
func EmitUnit(syntax Syntax, fns []*Function) (string, error) {
	w := NewWriter(syntax)
	for _, fn := range fns {
		if err := w.Function(fn); err != nil {
			return "", err
		}
	}
	return w.Header() + w.String(), nil
}

// Function emits fn's prologue-through-epilogue instruction stream as one
// labeled assembly routine.
func (w *Writer) Function(fn *Function) error {
	w.line(".globl %s", fn.Name)
	w.line("%s:", fn.Name)

	for pos, instr := range fn.Ctx.Instructions {
		for _, lbl := range fn.Ctx.Labels {
			if lbl.Attached && lbl.Position == pos {
				w.line("%s:", w.labelName(fn.Name, lbl))
			}
		}
		if err := w.instruction(fn, instr); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) labelName(fnName string, lbl *asmcmp.Label) string {
	if lbl.PublicSymbol != "" {
		return lbl.PublicSymbol
	}
	return fmt.Sprintf("_kefir_func_%s_label%d", fnName, int(lbl.ID))
}

// isVirtualAnnotation reports whether mnemonic is one of the devirtualize-
// only pseudo-opcodes of §4.5bis that carry no hardware meaning and must
// never reach the text stream. DropVirtual removes most of them beforehand
// (turning only a dropped final instruction into MnemonicNoop), but it
// keeps virtual block markers and links between differing registers, so
// emission skips all of them here.
func isVirtualAnnotation(mnemonic string) bool {
	switch mnemonic {
	case asmcmp.MnemonicTouchVirtualRegister,
		asmcmp.MnemonicVRegLifetimeRangeBegin,
		asmcmp.MnemonicVRegLifetimeRangeEnd,
		asmcmp.MnemonicVirtualRegisterLink,
		asmcmp.MnemonicVirtualBlockBegin,
		asmcmp.MnemonicVirtualBlockEnd,
		asmcmp.MnemonicNoop:
		return true
	default:
		return false
	}
}

// twoOperandReversed is the set of mnemonics whose operand order is
// dst-first internally (matching frame.go's own PhysRegOperand(rbp),
// PhysRegOperand(rsp) "mov rbp, rsp" convention) and therefore needs
// reversing for AT&T's src-first convention.
var twoOperandReversed = map[string]bool{
	"MOV": true, "ADD": true, "SUB": true, "AND": true, "OR": true, "XOR": true,
	"CMP": true, "TEST": true, "LEA": true, "IMUL": true, "SHL": true, "SHR": true, "SAR": true,
	"MOVSD": true, "MOVSS": true, "ADDSD": true, "SUBSD": true, "MULSD": true, "DIVSD": true,
	"ADDSS": true, "SUBSS": true, "MULSS": true, "DIVSS": true, "PXOR": true, "UCOMISD": true,
	"CVTSI2SD": true, "CVTTSD2SI": true, "CMOVE": true, "CMPXCHG": true, "XADD": true, "XCHG": true,
	"MOVQ": true, "MOVZX": true, "MOVSX": true,
}

func (w *Writer) instruction(fn *Function, instr *asmcmp.Instruction) error {
	if isVirtualAnnotation(instr.Mnemonic) {
		return nil
	}

	operands := instr.Operands
	rendered := make([]string, len(operands))
	for i, op := range operands {
		s, err := w.operand(fn, op)
		if err != nil {
			return err
		}
		rendered[i] = s
	}

	mnemonic := strings.ToLower(instr.Mnemonic)
	if w.Syntax == ATT {
		if len(rendered) == 2 && twoOperandReversed[instr.Mnemonic] {
			rendered[0], rendered[1] = rendered[1], rendered[0]
		}
	}

	if len(rendered) == 0 {
		w.line("\t%s", mnemonic)
		return nil
	}
	w.line("\t%s\t%s", mnemonic, strings.Join(rendered, ", "))
	return nil
}

func (w *Writer) operand(fn *Function, op asmcmp.Operand) (string, error) {
	switch op.Kind {
	case asmcmp.OperandNone:
		return "", nil
	case asmcmp.OperandSignedImm, asmcmp.OperandUnsignedImm:
		v := op.Imm.X.Int64()
		if w.Syntax == ATT {
			return fmt.Sprintf("$%d", v), nil
		}
		return fmt.Sprintf("%d", v), nil
	case asmcmp.OperandPhysReg:
		return w.regName(op.Phys), nil
	case asmcmp.OperandVReg:
		phys, err := w.resolveVReg(fn, op.VReg)
		if err != nil {
			return "", err
		}
		return w.regName(phys), nil
	case asmcmp.OperandVRegMem:
		return w.vregMem(fn, op.VReg)
	case asmcmp.OperandIndirect:
		return w.indirect(fn, op)
	case asmcmp.OperandRIPIndirect:
		return w.ripIndirect(op)
	case asmcmp.OperandInternalLabel:
		if op.Label == nil {
			return "", diag.New(diag.InternalError, "emit: internal-label operand missing its label")
		}
		return w.labelName(fn.Name, op.Label), nil
	case asmcmp.OperandExternalLabel:
		name := op.Symbol
		if op.Label != nil && op.Label.PublicSymbol != "" {
			name = op.Label.PublicSymbol
		}
		w.externs[name] = true
		return name + relocSuffix(op.Reloc), nil
	case asmcmp.OperandX87Slot:
		return fmt.Sprintf("st(%d)", op.X87Slot), nil
	case asmcmp.OperandStashIndex:
		return fmt.Sprintf("; stash[%d]", op.StashIndex), nil
	case asmcmp.OperandInlineAsmIndex:
		if op.AsmIndex < 0 || op.AsmIndex >= len(fn.Ctx.InlineAsms) {
			return "", diag.New(diag.OutOfBounds, "emit: inline-asm index %d out of range", op.AsmIndex)
		}
		return fn.Ctx.InlineAsms[op.AsmIndex].Template, nil
	default:
		return "", diag.New(diag.InternalError, "emit: unhandled operand kind %d", op.Kind)
	}
}

func (w *Writer) resolveVReg(fn *Function, v asmcmp.VReg) (asmcmp.RealReg, error) {
	if fn.Alloc == nil {
		return asmcmp.RealRegInvalid, diag.New(diag.InternalError, "emit: no register-allocation table for function %q", fn.Name)
	}
	a, ok := fn.Alloc.Assignments[v]
	if !ok {
		return asmcmp.RealRegInvalid, diag.New(diag.InternalError, "emit: vreg %d has no allocation", v.ID())
	}
	if a.IsSpill {
		return asmcmp.RealRegInvalid, diag.New(diag.InternalError, "emit: vreg %d resolved as a spill slot in a register-operand position", v.ID())
	}
	return a.Phys, nil
}

// vregMem renders v's guaranteed spill-area memory address, for operand
// positions that require a long-double or complex-long-double value's
// backing bytes rather than a register (§4.5/§4.9). Unlike resolveVReg,
// which rejects a spill assignment, this rejects anything else: a vreg
// reaching OperandVRegMem that the allocator placed in a physical register
// is an allocator bug, since kindRegOrder forces VRegLongDouble to the
// spill fallback unconditionally.
func (w *Writer) vregMem(fn *Function, v asmcmp.VReg) (string, error) {
	if fn.Alloc == nil {
		return "", diag.New(diag.InternalError, "emit: no register-allocation table for function %q", fn.Name)
	}
	a, ok := fn.Alloc.Assignments[v]
	if !ok {
		return "", diag.New(diag.InternalError, "emit: vreg %d has no allocation", v.ID())
	}
	if !a.IsSpill {
		return "", diag.New(diag.InternalError, "emit: vreg %d resolved to a register in a memory-operand position", v.ID())
	}
	disp := int64(fn.Offsets.SpillArea + a.SpillSlot*8)
	base := asmcmp.RealReg(x86asm.RBP)
	if w.Syntax == ATT {
		return fmt.Sprintf("%d(%s)", disp, w.regName(base)), nil
	}
	sign := "+"
	if disp < 0 {
		sign = "-"
		disp = -disp
	}
	return fmt.Sprintf("[%s%s%d]", w.regName(base), sign, disp), nil
}

func (w *Writer) indirect(fn *Function, op asmcmp.Operand) (string, error) {
	disp := op.Displ
	var base asmcmp.RealReg
	switch op.BaseKind {
	case asmcmp.IndirectBaseReg:
		base = op.Base
		if op.BaseVReg != asmcmp.VRegInvalid {
			var err error
			base, err = w.resolveVReg(fn, op.BaseVReg)
			if err != nil {
				return "", err
			}
		}
	case asmcmp.IndirectBaseLocalVar:
		base = asmcmp.RealReg(x86asm.RBP)
		slot, ok := localVarSlot(fn.Req.Locals, op.LocalVarID)
		if !ok {
			return "", diag.New(diag.NotFound, "emit: local variable %d not allocated", op.LocalVarID)
		}
		disp += int64(fn.Offsets.LocalArea + slot.Offset)
	case asmcmp.IndirectBaseSpillArea:
		base = asmcmp.RealReg(x86asm.RBP)
		disp += int64(fn.Offsets.SpillArea + op.SpillIndex*8)
	default:
		return "", diag.New(diag.InternalError, "emit: unhandled indirect base kind %d", op.BaseKind)
	}

	if w.Syntax == ATT {
		return fmt.Sprintf("%d(%s)", disp, w.regName(base)), nil
	}
	sign := "+"
	if disp < 0 {
		sign = "-"
		disp = -disp
	}
	return fmt.Sprintf("[%s%s%d]", w.regName(base), sign, disp), nil
}

func localVarSlot(locals *localvar.Allocator, id int) (localvar.Slot, bool) {
	if locals == nil {
		return localvar.Slot{}, false
	}
	return locals.Slot(ssa.ValueRef(id))
}

func (w *Writer) ripIndirect(op asmcmp.Operand) (string, error) {
	name := op.Symbol
	if op.Label != nil && op.Label.PublicSymbol != "" {
		name = op.Label.PublicSymbol
	}
	if name == "" {
		return "", diag.New(diag.InternalError, "emit: RIP-indirect operand missing a symbol")
	}
	w.externs[name] = true
	sym := name + relocSuffix(op.Reloc)
	if w.Syntax == ATT {
		return fmt.Sprintf("%s(%%rip)", sym), nil
	}
	return fmt.Sprintf("[rip+%s]", sym), nil
}

func relocSuffix(r asmcmp.RelocKind) string {
	switch r {
	case asmcmp.RelocPLT:
		return "@PLT"
	case asmcmp.RelocGOTPCREL:
		return "@GOTPCREL"
	case asmcmp.RelocTPOFF:
		return "@TPOFF"
	case asmcmp.RelocGOTTPOFF:
		return "@GOTTPOFF"
	case asmcmp.RelocTLSGD:
		return "@TLSGD"
	default:
		return ""
	}
}

// regName renders r the way the teacher's disassembler names a register
// when attaching it to an IR value: strings.ToLower(reg.String()), here
// additionally %-prefixed for AT&T syntax.
func (w *Writer) regName(r asmcmp.RealReg) string {
	name := x86asm.Reg(r).String()
	if w.Syntax == ATT {
		return "%" + strings.ToLower(name)
	}
	return strings.ToLower(name)
}
