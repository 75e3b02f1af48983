// Package x87 implements the x87 floating-point stack manager of §4.9:
// an 8-slot ring tracking which optimizer-instruction-ref currently
// occupies each hardware stack register, used for long-double arithmetic
// and complex-long-double returns. Modeled as the fixed-capacity small-
// vector §9 calls for ("The x87 stack 'list of instruction refs' needs a
// fixed-capacity (8) ring with head/tail rotation for fxch").
package x87

import "github.com/sourcehut-mirrors/selfcc/ssa"

// capacity is the hardware x87 stack depth; ensure is always called before
// any instruction that would grow the tracked list past this.
const capacity = 8

// Entry is one occupied x87 stack slot: the instruction ref it holds, and
// whether it has been spilled to a memory-backed location. Ensure sets
// Spilled and MemSlot as it pops an entry and then drops the entry from the
// tracked stack, so Load takes the memory slot from its caller.
type Entry struct {
	Ref     ssa.ValueRef
	Spilled bool
	MemSlot int // meaningful iff Spilled
}

// Emitter is the minimal interface Manager needs to produce the actual
// fstp/fld/fxch instructions in Ensure, Load, Flush and ToTOS. amd64/instsel
// calls only Push and ConsumeBy and supplies no Emitter.
type Emitter interface {
	EmitFstp(slot int)
	EmitFld(slot int)
	EmitFxch(depth int)
}

// Manager is the per-function x87 stack tracker of §4.9. stack[0] is the
// top of stack (TOS); index i corresponds to hardware register st(i).
type Manager struct {
	stack    []Entry
	nextSlot int
}

// NewManager creates an empty x87 stack tracker.
func NewManager() *Manager { return &Manager{} }

// Depth returns how many hardware slots are currently tracked as occupied.
func (m *Manager) Depth() int { return len(m.stack) }

// Ensure flushes (fstp) the deepest entries to memory-backed locations
// until at most n remain, per §4.9. Must be called before any instruction
// that would push the hardware stack beyond its 8-slot capacity.
func (m *Manager) Ensure(n int, em Emitter) {
	for len(m.stack) > n {
		deepest := len(m.stack) - 1
		m.stack[deepest].Spilled = true
		m.stack[deepest].MemSlot = m.nextSlot
		m.nextSlot++
		em.EmitFstp(deepest)
		m.stack = m.stack[:deepest]
	}
}

// Push marks ref as the new top-of-stack entry. Callers must Ensure(7, em)
// first if the stack might already be at capacity.
func (m *Manager) Push(ref ssa.ValueRef) {
	if len(m.stack) >= capacity {
		panic("x87: push without ensure: hardware stack would exceed 8 slots")
	}
	m.stack = append([]Entry{{Ref: ref}}, m.stack...)
}

// Load re-loads a previously spilled ref back onto the top of stack,
// emitting fld from its memory slot.
func (m *Manager) Load(ref ssa.ValueRef, memSlot int, em Emitter) {
	m.Ensure(capacity-1, em)
	em.EmitFld(memSlot)
	m.stack = append([]Entry{{Ref: ref}}, m.stack...)
}

// ConsumeBy records that ref was popped by consumerRef — the entry for ref
// is removed from the tracked stack (the hardware pop itself is emitted by
// the instruction selector as part of the consuming operation).
func (m *Manager) ConsumeBy(ref ssa.ValueRef, consumerRef ssa.ValueRef) {
	for i, e := range m.stack {
		if e.Ref == ref {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return
		}
	}
}

// Flush spills every remaining tracked entry (§4.9).
func (m *Manager) Flush(em Emitter) {
	m.Ensure(0, em)
}

// ToTOS reorders ref to the top of stack via fxch if it is not already
// there, and discards every other tracked entry — the action taken when a
// return's ABI location is X87 (§4.9's "the manager may reorder a ref to
// TOS via fxch and discard the rest").
func (m *Manager) ToTOS(ref ssa.ValueRef, em Emitter) {
	idx := -1
	for i, e := range m.stack {
		if e.Ref == ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if idx != 0 {
		em.EmitFxch(idx)
		m.stack[0], m.stack[idx] = m.stack[idx], m.stack[0]
	}
	m.stack = m.stack[:1]
}
