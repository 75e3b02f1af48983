// Package demo builds small hand-written ssa.Function samples for the
// selfcc-dump/selfcc-asmhdr CLIs to drive through the pipeline. selfcc has
// no preprocessor/parser/driver in scope (§1), so these commands exercise
// the core against functions constructed directly instead of ones read off
// disk the way the teacher's bin2ll read a real binary.
package demo

import "github.com/sourcehut-mirrors/selfcc/ssa"

// Sample names one built-in function and how to build it.
type Sample struct {
	Name  string
	Build func() *ssa.Function
}

// Samples lists every built-in function these CLIs can lower.
var Samples = []Sample{
	{"add", BuildAdd},
	{"divrem", BuildDivRem},
	{"branch", BuildBranch},
}

// Find looks up a sample by name.
func Find(name string) *Sample {
	for i := range Samples {
		if Samples[i].Name == name {
			return &Samples[i]
		}
	}
	return nil
}

// Names returns every sample name, for error messages and flag help.
func Names() []string {
	names := make([]string, len(Samples))
	for i, s := range Samples {
		names[i] = s.Name
	}
	return names
}

// BuildAdd mirrors instsel_test.go's buildAddFunction: two i32 params, one
// add, one return.
func BuildAdd() *ssa.Function {
	fn := ssa.NewFunction("add", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	b := fn.NewBlock()
	p0 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	p1 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	sum := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpIAdd, Type: ssa.TypeI32, Args: []ssa.ValueRef{p0, p1}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{sum}, Type: ssa.TypeI32})
	return fn
}

// BuildDivRem exercises the RAX/RDX register-requirement wiring of signed
// division.
func BuildDivRem() *ssa.Function {
	fn := ssa.NewFunction("divrem", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	b := fn.NewBlock()
	a := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	c := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	q := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpSDiv, Type: ssa.TypeI32, Args: []ssa.ValueRef{a, c}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{q}, Type: ssa.TypeI32})
	return fn
}

// BuildBranch exercises OpICmp/OpBranch across three blocks, the
// smallest function that forces the asmcmp pipeline's jump-propagation and
// label-elimination passes to do real work.
func BuildBranch() *ssa.Function {
	fn := ssa.NewFunction("branch", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	entry := fn.NewBlock()
	onTrue := fn.NewBlock()
	onFalse := fn.NewBlock()

	a := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	c := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	cond := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpICmp, Type: ssa.TypeI32, Args: []ssa.ValueRef{a, c}, ICmpCond: ssa.ICmpEq})
	fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpBranch, Cond: cond, TrueTarget: onTrue.ID, FalseTarget: onFalse.ID})

	fn.Emit(onTrue, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{a}, Type: ssa.TypeI32})
	fn.Emit(onFalse, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{c}, Type: ssa.TypeI32})
	return fn
}
