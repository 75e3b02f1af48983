// Package abi implements the System-V AMD64 classification shared by
// instruction selection (§4.5) and the stack frame (§4.7): which ABI
// location(s) a value of a given ssa.Type, or aggregate described by
// ctype.Layout, occupies when passed or returned.
package abi

import (
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/ssa"
)

// Class names one eightbyte classification per the System-V AMD64 psABI.
type Class int

const (
	ClassNone Class = iota
	ClassInteger
	ClassSSE
	ClassX87
	ClassX87Up
	ClassComplexX87
	ClassMemory
)

// Location names where a classified value or sub-location lives: a
// general-purpose register, an SSE register, the x87 stack, or memory
// (caller-allocated space addressed via a pointer).
type Location struct {
	Class Class
	// GPIndex/SSEIndex select which integer/SSE argument register this
	// location consumes, in the ABI's left-to-right allocation order.
	GPIndex  int
	SSEIndex int
}

// argState tracks how many integer/SSE registers have been consumed so
// far while classifying a parameter list, mirroring the ABI's stateful
// left-to-right allocation.
type argState struct {
	gp, sse int
}

const maxIntArgRegs = 6 // RDI, RSI, RDX, RCX, R8, R9
const maxSSEArgRegs = 8 // XMM0-7

// ClassifyScalar classifies a single scalar ssa.Type for argument or
// return purposes.
func ClassifyScalar(t ssa.Type) Class {
	switch {
	case t.IsFloat():
		if t == ssa.TypeLongDouble {
			return ClassX87
		}
		return ClassSSE
	case t.IsComplex():
		if t == ssa.TypeComplexLongDouble {
			return ClassComplexX87
		}
		return ClassSSE
	default:
		return ClassInteger
	}
}

// ClassifyAggregate classifies a struct/union return or argument per the
// eightbyte-merging algorithm: each 8-byte chunk is INTEGER unless every
// member overlapping it is SSE, with any aggregate larger than 2 eightbytes
// (16 bytes) classified MEMORY outright (the common-case simplification
// most System-V-targeting compilers apply for aggregates without a
// constructor/destructor, which plain C structs never have).
func ClassifyAggregate(traits *ctype.Traits, t *ctype.Type) []Class {
	size, _ := ctype.Layout(traits, t.Unqualified())
	if size > 16 {
		return []Class{ClassMemory}
	}
	n := (size + 7) / 8
	if n == 0 {
		n = 1
	}
	classes := make([]Class, n)
	for i := range classes {
		classes[i] = ClassSSE
	}
	var visit func(agg *ctype.Type, base int)
	visit = func(agg *ctype.Type, base int) {
		for _, f := range agg.Unqualified().Fields {
			off := base + f.Offset
			ft := f.Type.Unqualified()
			if ft.Kind == ctype.KindStruct || ft.Kind == ctype.KindUnion {
				visit(ft, off)
				continue
			}
			idx := off / 8
			if idx >= len(classes) {
				continue
			}
			if !ft.IsFloating() {
				classes[idx] = ClassInteger
			}
		}
	}
	visit(t, 0)
	return classes
}

// AllocateArg advances state and returns the Location(s) for the next
// argument of the given classes, falling back to ClassMemory for the whole
// argument if registers are exhausted (the ABI never splits one argument
// across a register and memory).
func (s *argState) AllocateArg(classes []Class) []Location {
	needGP, needSSE := 0, 0
	for _, c := range classes {
		switch c {
		case ClassInteger:
			needGP++
		case ClassSSE:
			needSSE++
		case ClassMemory:
			return []Location{{Class: ClassMemory}}
		}
	}
	if s.gp+needGP > maxIntArgRegs || s.sse+needSSE > maxSSEArgRegs {
		return []Location{{Class: ClassMemory}}
	}
	locs := make([]Location, len(classes))
	for i, c := range classes {
		switch c {
		case ClassInteger:
			locs[i] = Location{Class: ClassInteger, GPIndex: s.gp}
			s.gp++
		case ClassSSE:
			locs[i] = Location{Class: ClassSSE, SSEIndex: s.sse}
			s.sse++
		default:
			locs[i] = Location{Class: c}
		}
	}
	return locs
}

// NewArgState creates a fresh classification cursor for one call/function
// signature.
func NewArgState() *argState { return &argState{} }
