// Package ctype implements the C type system of §3 "Type": a tagged variant
// with structural equality, per-translation-unit interning, and the
// layout/promotion/conversion rules of §4.1. The small enum-of-kind shape
// follows faddat-wazero's internal/engine/wazevo/ssa/type.go, generalized
// from a handful of Wasm value types to the much larger C type lattice.
package ctype

import (
	llvmtypes "github.com/llir/llvm/ir/types"
)

// Kind tags the Type variant.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindChar // signedness carried separately; "char" is its own rank
	KindSignedChar
	KindUnsignedChar
	KindShort
	KindUnsignedShort
	KindInt
	KindUnsignedInt
	KindLong
	KindUnsignedLong
	KindLongLong
	KindUnsignedLongLong
	KindFloat
	KindDouble
	KindLongDouble
	KindComplexFloat
	KindComplexDouble
	KindComplexLongDouble
	KindPointer
	KindNullPointer
	KindBitInt   // _BitInt(N), signed
	KindBitUInt  // _BitInt(N), unsigned
	KindEnum
	KindStruct
	KindUnion
	KindArray
	KindFunction
	KindQualified
)

// ArrayBoundary classifies an array type's boundary per §3.
type ArrayBoundary int

const (
	BoundaryUnbounded ArrayBoundary = iota
	BoundaryConstant
	BoundaryStaticConstant // "static N" in a function parameter
	BoundaryVLA
	BoundaryVLAStatic
)

// Qualifiers is a bitset of the four C type qualifiers.
type Qualifiers uint8

const (
	QualConst Qualifiers = 1 << iota
	QualVolatile
	QualRestrict
	QualAtomic
)

func (q Qualifiers) Has(f Qualifiers) bool { return q&f != 0 }

// Field describes one member of a structure or union.
type Field struct {
	Name         string
	Type         *Type
	Align        int  // explicit alignment spec, 0 if none
	BitfieldBits int  // -1 if not a bitfield
	Anonymous    bool // flattens transparently into the enclosing aggregate
	Offset       int  // byte offset, computed by Layout
	BitOffset    int  // bit offset within the storage unit, bitfields only
	StorageUnit  int  // index of the packed storage unit, bitfields only
}

// Enumerator is one member of an enumeration.
type Enumerator struct {
	Name  string
	Value int64
}

// Type is the tagged C type variant of §3. Only the fields relevant to Kind
// are meaningful; this mirrors the teacher's flattened-instruction style
// (ssa.Instruction in the wazero pack) rather than a Go type switch over
// many small structs, which would make cyclic struct/pointer member types
// (struct S { struct S *next; }) awkward to express.
type Type struct {
	Kind Kind

	// KindPointer, KindArray, KindQualified
	Elem *Type

	// KindArray
	ArrayBoundary ArrayBoundary
	ArrayLen      int64 // meaningful when ArrayBoundary == BoundaryConstant/StaticConstant
	VLALenExpr    interface{} // opaque AST node for VLA bound, owned by cast package

	// KindBitInt / KindBitUInt
	BitWidth int

	// KindEnum
	EnumName        string
	EnumUnderlying  *Type
	Enumerators     []Enumerator
	EnumComplete    bool

	// KindStruct / KindUnion
	AggName     string
	Fields      []Field
	Complete    bool
	HasFlexible bool // trailing flexible array member

	// KindFunction
	Return     *Type
	Params     []*Type
	ParamNames []string
	Ellipsis   bool
	KRStyle    bool // K&R (non-prototype) function

	// KindQualified
	Quals Qualifiers
}

// IsScalar reports whether the type is arithmetic or a pointer/null-pointer.
func (t *Type) IsScalar() bool {
	switch t.Unqualified().Kind {
	case KindBool, KindChar, KindSignedChar, KindUnsignedChar,
		KindShort, KindUnsignedShort, KindInt, KindUnsignedInt,
		KindLong, KindUnsignedLong, KindLongLong, KindUnsignedLongLong,
		KindFloat, KindDouble, KindLongDouble,
		KindComplexFloat, KindComplexDouble, KindComplexLongDouble,
		KindPointer, KindNullPointer, KindBitInt, KindBitUInt, KindEnum:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the type is any integer type, including _BitInt
// and enumerations (whose underlying type is always integer).
func (t *Type) IsInteger() bool {
	switch t.Unqualified().Kind {
	case KindBool, KindChar, KindSignedChar, KindUnsignedChar,
		KindShort, KindUnsignedShort, KindInt, KindUnsignedInt,
		KindLong, KindUnsignedLong, KindLongLong, KindUnsignedLongLong,
		KindBitInt, KindBitUInt, KindEnum:
		return true
	default:
		return false
	}
}

// IsFloating reports whether the type is a real or complex floating type.
func (t *Type) IsFloating() bool {
	switch t.Unqualified().Kind {
	case KindFloat, KindDouble, KindLongDouble,
		KindComplexFloat, KindComplexDouble, KindComplexLongDouble:
		return true
	default:
		return false
	}
}

// IsComplex reports whether the type is one of the three complex types.
func (t *Type) IsComplex() bool {
	switch t.Unqualified().Kind {
	case KindComplexFloat, KindComplexDouble, KindComplexLongDouble:
		return true
	default:
		return false
	}
}

// IsSignedInteger reports whether an integer type is signed.
func (t *Type) IsSignedInteger() bool {
	switch t.Unqualified().Kind {
	case KindChar, KindSignedChar, KindShort, KindInt, KindLong, KindLongLong, KindBitInt:
		return true
	case KindEnum:
		u := t.Unqualified()
		return u.EnumUnderlying != nil && u.EnumUnderlying.IsSignedInteger()
	default:
		return false
	}
}

// IsPointer reports whether the type is an object or function pointer.
func (t *Type) IsPointer() bool { return t.Unqualified().Kind == KindPointer }

// IsVariablyModified reports whether the type (transitively) contains a VLA.
func (t *Type) IsVariablyModified() bool {
	switch t.Kind {
	case KindArray:
		return t.ArrayBoundary == BoundaryVLA || t.ArrayBoundary == BoundaryVLAStatic || t.Elem.IsVariablyModified()
	case KindPointer, KindQualified:
		return t.Elem.IsVariablyModified()
	default:
		return false
	}
}

// Unqualified strips KindQualified wrappers and returns the underlying type.
func (t *Type) Unqualified() *Type {
	for t.Kind == KindQualified {
		t = t.Elem
	}
	return t
}

// Qualified wraps t in a KindQualified type carrying q, merging with any
// qualifiers t already carries.
func Qualified(t *Type, q Qualifiers) *Type {
	if t.Kind == KindQualified {
		return &Type{Kind: KindQualified, Elem: t.Elem, Quals: t.Quals | q}
	}
	if q == 0 {
		return t
	}
	return &Type{Kind: KindQualified, Elem: t, Quals: q}
}

// QualifiersOf returns the qualifier set t carries, 0 if unqualified.
func QualifiersOf(t *Type) Qualifiers {
	if t.Kind == KindQualified {
		return t.Quals
	}
	return 0
}

// LLVMWidth bridges a scalar integer Type to the IR-width bridge used by
// bigint-lowering call descriptors (§11 domain stack), picking the llir/llvm
// integer type of matching bit width the way the teacher's reg() switches on
// register width. Non-integer/unsupported widths return nil.
func (t *Type) LLVMWidth(bitsOf func(*Type) int) llvmtypes.Type {
	switch bitsOf(t) {
	case 8:
		return llvmtypes.I8
	case 16:
		return llvmtypes.I16
	case 32:
		return llvmtypes.I32
	case 64:
		return llvmtypes.I64
	default:
		return nil
	}
}
