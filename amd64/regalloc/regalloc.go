// Package regalloc implements the linear-scan-style register allocator of
// §4.6: linearize the asmcmp instruction stream, compute per-vreg lifetime
// ranges, build an interference graph honoring same-as/requirement hints,
// order allocation by descending lifetime length, and greedily assign
// physical registers or spill-area slots.
package regalloc

import (
	"sort"

	"github.com/decomp/exp/bin"
	"github.com/mewbak/x86/x86asm"

	"github.com/sourcehut-mirrors/selfcc/asmcmp"
	"github.com/sourcehut-mirrors/selfcc/corelib"
)

// gpOrder/sseOrder are the allocation-preference arrays of §4.6 step 5,
// caller-saved registers first (cheaper: no prologue/epilogue save) and
// callee-saved registers last. Register identifiers reuse
// github.com/mewbak/x86/x86asm.Reg's numbering the way asmcmp.RealReg does
// throughout the backend (instsel/frame key physical registers the same
// way), so no translation table is needed between allocation and emission.
var (
	gpOrder = []asmcmp.RealReg{
		asmcmp.RealReg(x86asm.RAX), asmcmp.RealReg(x86asm.RCX), asmcmp.RealReg(x86asm.RDX),
		asmcmp.RealReg(x86asm.RSI), asmcmp.RealReg(x86asm.RDI),
		asmcmp.RealReg(x86asm.R8), asmcmp.RealReg(x86asm.R9), asmcmp.RealReg(x86asm.R10), asmcmp.RealReg(x86asm.R11),
		asmcmp.RealReg(x86asm.RBX), asmcmp.RealReg(x86asm.R12), asmcmp.RealReg(x86asm.R13),
		asmcmp.RealReg(x86asm.R14), asmcmp.RealReg(x86asm.R15),
	}
	sseOrder = []asmcmp.RealReg{
		asmcmp.RealReg(x86asm.X0), asmcmp.RealReg(x86asm.X1), asmcmp.RealReg(x86asm.X2), asmcmp.RealReg(x86asm.X3),
		asmcmp.RealReg(x86asm.X4), asmcmp.RealReg(x86asm.X5), asmcmp.RealReg(x86asm.X6), asmcmp.RealReg(x86asm.X7),
		asmcmp.RealReg(x86asm.X8), asmcmp.RealReg(x86asm.X9), asmcmp.RealReg(x86asm.X10), asmcmp.RealReg(x86asm.X11),
		asmcmp.RealReg(x86asm.X12), asmcmp.RealReg(x86asm.X13), asmcmp.RealReg(x86asm.X14), asmcmp.RealReg(x86asm.X15),
	}
	calleeSaved = map[asmcmp.RealReg]bool{
		asmcmp.RealReg(x86asm.RBX): true, asmcmp.RealReg(x86asm.R12): true, asmcmp.RealReg(x86asm.R13): true,
		asmcmp.RealReg(x86asm.R14): true, asmcmp.RealReg(x86asm.R15): true,
	}
)

// Lifetime is the [First,Last] linear-index interval a vreg is live over,
// per §4.6 step 2.
type Lifetime struct {
	First bin.Address
	Last  bin.Address
}

func (l Lifetime) overlaps(o Lifetime) bool { return l.First <= o.Last && o.First <= l.Last }

// Assignment is the outcome of allocating one vreg: either a physical
// register or an indirect/direct spill-area slot.
type Assignment struct {
	Phys       asmcmp.RealReg
	IsSpill    bool
	SpillSlot  int // qword index into the stack frame's spill-area bitset
	SpillWords int
}

// Table is the register-allocation table of §4.6: per-instruction linear
// indices, per-vreg lifetimes, and the final vreg -> Assignment map, plus
// the set of physical registers actually used (so the frame builder knows
// which callee-saved registers the prologue must preserve).
type Table struct {
	Linear      []bin.Address
	Lifetimes   map[asmcmp.VReg]Lifetime
	Assignments map[asmcmp.VReg]Assignment
	UsedPhys    map[asmcmp.RealReg]bool
	SpillWords  int
}

// Linearize assigns each instruction a dense linear index in stream order
// (§4.6 step 1). The result is sorted with bin.Addresses the way the
// teacher's cmd/bin2ll/ll.go normalizes its block-address list before
// using it for lookups (debug-info position queries binary-search this
// table, so it must stay ordered even though it is naturally monotonic
// here).
func Linearize(ctx *asmcmp.Context) []bin.Address {
	idx := make([]bin.Address, len(ctx.Instructions))
	for i := range ctx.Instructions {
		idx[i] = bin.Address(i)
	}
	sort.Sort(bin.Addresses(idx))
	return idx
}

func operandVRegs(op asmcmp.Operand) []asmcmp.VReg {
	switch op.Kind {
	case asmcmp.OperandVReg, asmcmp.OperandVRegMem:
		return []asmcmp.VReg{op.VReg}
	case asmcmp.OperandIndirect, asmcmp.OperandRIPIndirect:
		if op.BaseKind == asmcmp.IndirectBaseReg && op.BaseVReg != asmcmp.VRegInvalid {
			return []asmcmp.VReg{op.BaseVReg}
		}
	}
	return nil
}

// ComputeLifetimes walks the linearized stream recording, for every vreg,
// the first and last linear index it appears in. virtual_block_begin/
// virtual_block_end pairs form scopes: every vreg touched anywhere inside
// a scope has its lifetime extended to span the scope's full range, per
// §4.6 step 2's "alive-across" requirement.
func ComputeLifetimes(ctx *asmcmp.Context) map[asmcmp.VReg]Lifetime {
	lifetimes := make(map[asmcmp.VReg]Lifetime)
	touch := func(v asmcmp.VReg, idx bin.Address) {
		lt, ok := lifetimes[v]
		if !ok {
			lifetimes[v] = Lifetime{First: idx, Last: idx}
			return
		}
		if idx < lt.First {
			lt.First = idx
		}
		if idx > lt.Last {
			lt.Last = idx
		}
		lifetimes[v] = lt
	}

	type scope struct {
		start bin.Address
		vregs map[asmcmp.VReg]bool
	}
	var scopes []*scope

	for i, instr := range ctx.Instructions {
		idx := bin.Address(i)
		switch instr.Mnemonic {
		case asmcmp.MnemonicVirtualBlockBegin:
			scopes = append(scopes, &scope{start: idx, vregs: map[asmcmp.VReg]bool{}})
			continue
		case asmcmp.MnemonicVirtualBlockEnd:
			if n := len(scopes); n > 0 {
				s := scopes[n-1]
				scopes = scopes[:n-1]
				for v := range s.vregs {
					touch(v, s.start)
					touch(v, idx)
				}
			}
			continue
		}
		for _, op := range instr.Operands {
			for _, v := range operandVRegs(op) {
				touch(v, idx)
				for _, s := range scopes {
					s.vregs[v] = true
				}
			}
		}
	}
	return lifetimes
}

// sameAsGroups canonicalizes same-as hints into union-find style groups:
// vregs that must receive the same physical register or spill slot are
// mapped to one representative.
func sameAsGroups(table *asmcmp.VRegTable) map[asmcmp.VReg]asmcmp.VReg {
	leader := make(map[asmcmp.VReg]asmcmp.VReg)
	var find func(v asmcmp.VReg) asmcmp.VReg
	find = func(v asmcmp.VReg) asmcmp.VReg {
		if p, ok := leader[v]; ok && p != v {
			root := find(p)
			leader[v] = root
			return root
		}
		return v
	}
	for _, v := range table.All() {
		info := table.Info(v)
		if info.SameAs != asmcmp.VRegInvalid && info.SameAs != v {
			leader[find(v)] = find(info.SameAs)
		}
	}
	resolved := make(map[asmcmp.VReg]asmcmp.VReg, len(table.All()))
	for _, v := range table.All() {
		resolved[v] = find(v)
	}
	return resolved
}

// BuildInterference forms, at each linear index, the set of vregs live at
// that point and adds an undirected edge between every pair (§4.6 step 3).
func BuildInterference(lifetimes map[asmcmp.VReg]Lifetime) *corelib.Graph[asmcmp.VReg, struct{}] {
	g := corelib.NewGraph[asmcmp.VReg, struct{}](nil)
	for v := range lifetimes {
		g.AddNode(v, struct{}{})
	}
	vregs := g.Nodes()
	for i := 0; i < len(vregs); i++ {
		for j := i + 1; j < len(vregs); j++ {
			if lifetimes[vregs[i]].overlaps(lifetimes[vregs[j]]) {
				g.AddUndirectedEdge(vregs[i], vregs[j])
			}
		}
	}
	return g
}

// Allocate runs the full §4.6 pipeline over ctx and returns the resulting
// Table.
func Allocate(ctx *asmcmp.Context) *Table {
	linear := Linearize(ctx)
	lifetimes := ComputeLifetimes(ctx)
	graph := BuildInterference(lifetimes)
	leader := sameAsGroups(ctx.VRegs)

	order := allocationOrder(ctx.VRegs, lifetimes)

	table := &Table{
		Linear:      linear,
		Lifetimes:   lifetimes,
		Assignments: make(map[asmcmp.VReg]Assignment),
		UsedPhys:    make(map[asmcmp.RealReg]bool),
	}
	spill := corelib.NewBitset(0)

	for _, v := range order {
		root := leader[v]
		if root != v {
			if a, ok := table.Assignments[root]; ok {
				table.Assignments[v] = a
				continue
			}
		}
		assignOne(ctx.VRegs, graph, table, spill, v)
		if root != v {
			table.Assignments[root] = table.Assignments[v]
		}
	}
	table.SpillWords = spill.Len()
	return table
}

// allocationOrder implements §4.6 step 4: required/hinted vregs first in
// instruction-appearance order, then the rest by descending lifetime
// length.
func allocationOrder(table *asmcmp.VRegTable, lifetimes map[asmcmp.VReg]Lifetime) []asmcmp.VReg {
	var priority, rest []asmcmp.VReg
	for _, v := range table.All() {
		if _, ok := lifetimes[v]; !ok {
			continue
		}
		info := table.Info(v)
		if info.Requirement != asmcmp.RealRegInvalid || info.Hint != asmcmp.RealRegInvalid {
			priority = append(priority, v)
		} else {
			rest = append(rest, v)
		}
	}

	// Required/hinted vregs are ordered by first-appearance linear index.
	sort.SliceStable(priority, func(i, j int) bool {
		return lifetimes[priority[i]].First < lifetimes[priority[j]].First
	})

	sort.SliceStable(rest, func(i, j int) bool {
		li, lj := lifetimes[rest[i]], lifetimes[rest[j]]
		return li.Last-li.First > lj.Last-lj.First
	})
	return append(priority, rest...)
}

// kindRegOrder returns the allocation-preference array for kind, or nil to
// force assignOne straight to its spill fallback. Long-double values are
// never assigned a GP or XMM register per the ABI (§4.5): they live on the
// x87 stack or in the spill area's 2-word slot, never in a register vreg
// operand, so there is no register order to return here.
func kindRegOrder(kind asmcmp.VRegKind) []asmcmp.RealReg {
	switch kind {
	case asmcmp.VRegFP:
		return sseOrder
	case asmcmp.VRegLongDouble:
		return nil
	default:
		return gpOrder
	}
}

func spillWords(kind asmcmp.VRegKind) int {
	switch kind {
	case asmcmp.VRegLongDouble:
		return 2
	case asmcmp.VRegPair:
		return 2
	default:
		return 1
	}
}

func assignOne(table *asmcmp.VRegTable, graph *corelib.Graph[asmcmp.VReg, struct{}], result *Table, spill *corelib.Bitset, v asmcmp.VReg) {
	info := table.Info(v)

	interferingPhys := map[asmcmp.RealReg]bool{}
	if neighbors := graph.Neighbors(v); neighbors != nil {
		for _, n := range neighbors.Order() {
			if a, ok := result.Assignments[n]; ok && !a.IsSpill {
				interferingPhys[a.Phys] = true
			}
		}
	}

	if info.Requirement != asmcmp.RealRegInvalid && !interferingPhys[info.Requirement] {
		result.Assignments[v] = Assignment{Phys: info.Requirement}
		result.UsedPhys[info.Requirement] = true
		return
	}
	if info.Hint != asmcmp.RealRegInvalid && !interferingPhys[info.Hint] {
		result.Assignments[v] = Assignment{Phys: info.Hint}
		result.UsedPhys[info.Hint] = true
		return
	}
	for _, reg := range kindRegOrder(info.Kind) {
		if !interferingPhys[reg] {
			result.Assignments[v] = Assignment{Phys: reg}
			result.UsedPhys[reg] = true
			return
		}
	}

	words := spillWords(info.Kind)
	start, _ := spill.SetRange(words) // SetRange only rejects words<=0, never true here
	result.Assignments[v] = Assignment{IsSpill: true, SpillSlot: start, SpillWords: words}
}

// CalleeSavedUsed returns the subset of t.UsedPhys that is callee-saved,
// the set the stack frame's prologue must preserve (§4.6 step 6).
func (t *Table) CalleeSavedUsed() []asmcmp.RealReg {
	var used []asmcmp.RealReg
	for reg := range t.UsedPhys {
		if calleeSaved[reg] {
			used = append(used, reg)
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })
	return used
}
