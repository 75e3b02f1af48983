package asmcmp

import "github.com/llir/llvm/ir/metadata"

// LabelID identifies an entry in the label table.
type LabelID int

// Label is one entry of the label table (§3): attached (has a fixed
// position in the instruction list) or unattached (forward-referenced,
// not yet placed), optionally aliased to a public symbol name, and
// optionally flagged as depended-on by something outside this function
// (so devirtualization must not remove it even if no operand references
// it — §4.5bis's eliminate-label pass).
type Label struct {
	ID       LabelID
	Attached bool
	Position int // index into Context.Instructions, meaningful iff Attached

	PublicSymbol string // non-empty if this label aliases an externally visible symbol
	ExternalDep  bool    // referenced from outside this function (e.g. exported, or address-taken)

	// Source-location metadata for debug info, reusing llir/llvm's
	// metadata node so the same location representation threads through
	// from AST (diag.Location) to assembly emission without a third
	// location type.
	Loc *metadata.Tuple
}

// StashEntry snapshots one live caller-saved virtual register around a
// call (§4.5: "push a stash that snapshots the live caller-saved virtual
// registers").
type StashEntry struct {
	VRegs  []VReg
	Active bool
}

// InlineAsmFragment is one parsed inline-asm template awaiting emission
// verbatim, referenced from an Operand via OperandInlineAsmIndex.
type InlineAsmFragment struct {
	Template   string
	Outputs    []Operand
	Inputs     []Operand
	Clobbers   []string
	JumpLabels []LabelID
}

// Instruction is one asmcmp-level instruction: an architecture mnemonic
// (interpreted by the amd64 package; this package stays architecture-
// neutral) plus up to the operands amd64 instruction selection produces.
// Virtual opcodes used only by the devirtualization pipeline (§4.5bis) are
// named directly since they carry no architecture meaning.
type Instruction struct {
	Mnemonic string
	Operands []Operand

	// Attached label, if any instruction in the stream targets this
	// position directly (a jump target, a call return address, ...).
	Label    LabelID
	HasLabel bool
}

const (
	MnemonicTouchVirtualRegister   = "touch_virtual_register"
	MnemonicVRegLifetimeRangeBegin = "vreg_lifetime_range_begin"
	MnemonicVRegLifetimeRangeEnd   = "vreg_lifetime_range_end"
	MnemonicNoop                   = "noop"
	MnemonicVirtualRegisterLink    = "virtual_register_link"
	MnemonicVirtualBlockBegin      = "virtual_block_begin"
	MnemonicVirtualBlockEnd        = "virtual_block_end"
)

// Context is the per-function asmcmp state of §3: the instruction list,
// label table, vreg table, stash table, and inline-asm fragment table.
type Context struct {
	Instructions []*Instruction
	Labels       []*Label
	VRegs        *VRegTable
	Stashes      []*StashEntry
	InlineAsms   []*InlineAsmFragment
}

// NewContext creates an empty per-function asmcmp context.
func NewContext() *Context {
	return &Context{VRegs: NewVRegTable()}
}

// Emit appends instr to the instruction list.
func (c *Context) Emit(instr *Instruction) int {
	c.Instructions = append(c.Instructions, instr)
	return len(c.Instructions) - 1
}

// NewLabel allocates a fresh, unattached label.
func (c *Context) NewLabel() *Label {
	l := &Label{ID: LabelID(len(c.Labels))}
	c.Labels = append(c.Labels, l)
	return l
}

// AttachLabel binds label to the given instruction-list position.
func (c *Context) AttachLabel(label *Label, pos int) {
	label.Attached = true
	label.Position = pos
}

// PushStash records a new stash entry over the given live vregs and
// returns its index.
func (c *Context) PushStash(live []VReg) int {
	c.Stashes = append(c.Stashes, &StashEntry{VRegs: live, Active: true})
	return len(c.Stashes) - 1
}

// DeactivateStash marks a stash inactive once its matching call has
// returned and its snapshot has been restored.
func (c *Context) DeactivateStash(index int) {
	c.Stashes[index].Active = false
}

// AddInlineAsm registers a parsed inline-asm fragment and returns its
// index, for use via OperandInlineAsmIndex.
func (c *Context) AddInlineAsm(frag *InlineAsmFragment) int {
	c.InlineAsms = append(c.InlineAsms, frag)
	return len(c.InlineAsms) - 1
}

// ReferencedLabels returns the set of labels referenced by some
// instruction's operand, used by the eliminate-label pass (§4.5bis).
func (c *Context) ReferencedLabels() map[LabelID]bool {
	refs := make(map[LabelID]bool)
	for _, instr := range c.Instructions {
		for _, op := range instr.Operands {
			if (op.Kind == OperandInternalLabel || op.Kind == OperandExternalLabel) && op.Label != nil {
				refs[op.Label.ID] = true
			}
		}
	}
	return refs
}
