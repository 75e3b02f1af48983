// Package ssa implements the optimizer IR of §4.3: a container of
// functions with numbered basic blocks, an explicit CFG derivable from
// terminators, and SSA-valued instructions referenced by a per-function
// dense instruction ref. The block/instruction/opcode-table architecture
// follows faddat-wazero's internal/engine/wazevo/ssa package closely,
// generalized from a handful of Wasm value types and opcodes to the
// spec's much larger C-flavored opcode set; this package uses explicit
// Phi instructions with a predecessor-to-incoming-value map rather than
// the teacher's block-parameter SSA variant, per §4.3's "Phi instructions
// carry a map from predecessor-block-id to incoming instruction-ref."
package ssa

// Type is the value type an SSA instruction produces, covering every
// scalar width and category §4.3 names.
type Type int

const (
	TypeInvalid Type = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeLongDouble
	TypeComplexF32
	TypeComplexF64
	TypeComplexLongDouble
	TypeBitInt // width carried out-of-band on the instruction
	TypePtr
	TypeAggregate // struct/union value; the describing *ctype.Type rides on Instruction.AggType
)

func (t Type) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeLongDouble:
		return "f80"
	case TypeComplexF32:
		return "cf32"
	case TypeComplexF64:
		return "cf64"
	case TypeComplexLongDouble:
		return "cf80"
	case TypeBitInt:
		return "bitint"
	case TypePtr:
		return "ptr"
	case TypeAggregate:
		return "aggregate"
	default:
		return "invalid"
	}
}

// IsFloat reports whether t is a real floating type.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64 || t == TypeLongDouble
}

// IsComplex reports whether t is a complex floating type.
func (t Type) IsComplex() bool {
	return t == TypeComplexF32 || t == TypeComplexF64 || t == TypeComplexLongDouble
}

// IsInt reports whether t is a plain fixed-width integer type (not
// TypeBitInt, whose width is carried separately).
func (t Type) IsInt() bool {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64:
		return true
	default:
		return false
	}
}

// BlockID is the dense identifier of a basic block within one function.
type BlockID uint32

// ValueRef is the dense, per-function reference to an instruction's result.
// It is the "SSA-valued... referenced by a per-function dense
// instruction-ref" of §4.3.
type ValueRef uint32

// ValueInvalid is the zero ValueRef, reserved to mean "no value" (e.g. a
// store instruction's result).
const ValueInvalid ValueRef = 0
