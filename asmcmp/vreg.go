// Package asmcmp implements the architecture-neutral virtual-register
// assembly IR context of §3's "Asmcmp context": an instruction list, a
// label table (attached/unattached, public-symbol aliases, external-
// dependency flags), a virtual-register table (kind plus pair-children),
// a stash table (caller-saved-register snapshots around calls), an
// inline-asm fragment table, and the operand variants every asmcmp
// instruction is built from. The amd64 package lowers into this IR and the
// emitter walks it to produce text assembly.
package asmcmp

import "math"

// RealReg identifies a physical register, reusing the numbering scheme
// github.com/mewbak/x86/x86asm.Reg already defines (AL..TR7) so amd64
// lowering/emission can share one register enumeration end to end, the way
// the teacher's ll.go keys its `regs` map directly off x86asm.Reg.
type RealReg uint16

// RealRegInvalid marks "no physical register assigned yet".
const RealRegInvalid RealReg = 0

// VRegKind classifies what a virtual register holds, per §4.5: "kind
// (general-purpose, floating-point, long-double, pair)".
type VRegKind int

const (
	VRegGP VRegKind = iota
	VRegFP
	VRegLongDouble
	VRegPair
)

// VRegID is the pure identifier portion of a VReg.
type VRegID uint32

const vRegIDInvalid VRegID = math.MaxUint32

// VReg packs a RealReg (once assigned) into the upper 32 bits and a VRegID
// into the lower 32 bits of a uint64, following wazero's
// backend.VReg = upper32(RealReg) | lower32(ID) packing scheme so the
// register allocator can assign a physical register in place without a
// second table.
type VReg uint64

// RealReg returns the physical register baked into v, or RealRegInvalid.
func (v VReg) RealReg() RealReg { return RealReg(v >> 32) }

// WithRealReg returns a copy of v with its physical register set to r.
func (v VReg) WithRealReg(r RealReg) VReg { return VReg(r)<<32 | VReg(v.ID()) }

// ID returns the VRegID portion of v.
func (v VReg) ID() VRegID { return VRegID(v & 0xffffffff) }

// Valid reports whether v carries a real identifier.
func (v VReg) Valid() bool { return v.ID() != vRegIDInvalid }

// VRegInvalid is the reserved invalid VReg.
const VRegInvalid VReg = VReg(vRegIDInvalid)

// VRegInfo is the vreg table's per-entry record: kind, and for VRegPair,
// the two child vregs the pair was split into (e.g. a 128-bit aggregate
// passed in two GPRs).
type VRegInfo struct {
	Kind     VRegKind
	Children [2]VReg // meaningful only when Kind == VRegPair

	// Allocation hints attached at vreg-creation time (§4.5): SameAs makes
	// two vregs preferred-equal, Hint prefers a physical register without
	// requiring it, Requirement mandates one (ABI boundary registers).
	SameAs      VReg
	Hint        RealReg
	Requirement RealReg
}

// VRegTable owns every vreg allocated for one function.
type VRegTable struct {
	entries []VRegInfo
}

// NewVRegTable creates an empty table.
func NewVRegTable() *VRegTable { return &VRegTable{} }

// New allocates a fresh vreg of the given kind.
func (t *VRegTable) New(kind VRegKind) VReg {
	id := VRegID(len(t.entries))
	t.entries = append(t.entries, VRegInfo{Kind: kind})
	return VReg(id)
}

// NewPair allocates a fresh pair vreg wrapping two already-allocated
// children (e.g. the two halves of a 128-bit register-pair return value).
func (t *VRegTable) NewPair(a, b VReg) VReg {
	id := VRegID(len(t.entries))
	t.entries = append(t.entries, VRegInfo{Kind: VRegPair, Children: [2]VReg{a, b}})
	return VReg(id)
}

// Info returns the table entry for v.
func (t *VRegTable) Info(v VReg) *VRegInfo { return &t.entries[v.ID()] }

// SetSameAs records a same-as(v1,v2) hint: v1 and v2 should be allocated the
// same physical register or spill slot when possible.
func (t *VRegTable) SetSameAs(v, other VReg) { t.entries[v.ID()].SameAs = other }

// SetHint records hint(v, phreg): prefer phreg for v, but allow a different
// assignment if phreg is unavailable.
func (t *VRegTable) SetHint(v VReg, phreg RealReg) { t.entries[v.ID()].Hint = phreg }

// SetRequirement records requirement(v, phreg): v must be assigned phreg.
func (t *VRegTable) SetRequirement(v VReg, phreg RealReg) { t.entries[v.ID()].Requirement = phreg }

// Len returns the number of vregs allocated.
func (t *VRegTable) Len() int { return len(t.entries) }

// All returns every vreg in allocation order, for passes that need to walk
// the whole table (e.g. register allocation).
func (t *VRegTable) All() []VReg {
	out := make([]VReg, len(t.entries))
	for i := range out {
		out[i] = VReg(VRegID(i))
	}
	return out
}
