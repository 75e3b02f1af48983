package ctype

// Traits is the type-traits descriptor of §6: "a type-traits descriptor
// (CHAR_BIT, sizeof/alignof of standard types, underlying-enumeration
// integer type, wide/unicode character types, size-type, ptrdiff-type)".
// It is supplied by the (out of scope) driver and threaded through every
// layout/promotion computation in this package and in sema.
type Traits struct {
	CharBit int

	SizeOf  map[Kind]int
	AlignOf map[Kind]int

	PointerSize  int
	PointerAlign int

	EnumUnderlying *Type // default underlying type for enumerations without a fixed type
	WCharType      *Type
	Char16Type     *Type
	Char32Type     *Type
	SizeType       *Type
	PtrdiffType    *Type
}

// DefaultTraits returns the System-V AMD64 LP64 traits table (§6's "target
// little-endian LP64 AMD64"), the only target this core's instruction
// selection/ABI stages support.
func DefaultTraits() *Traits {
	t := &Traits{
		CharBit:      8,
		PointerSize:  8,
		PointerAlign: 8,
		SizeOf:       map[Kind]int{},
		AlignOf:      map[Kind]int{},
	}
	sizes := map[Kind]int{
		KindBool: 1, KindChar: 1, KindSignedChar: 1, KindUnsignedChar: 1,
		KindShort: 2, KindUnsignedShort: 2,
		KindInt: 4, KindUnsignedInt: 4,
		KindLong: 8, KindUnsignedLong: 8,
		KindLongLong: 8, KindUnsignedLongLong: 8,
		KindFloat: 4, KindDouble: 8, KindLongDouble: 16,
		KindComplexFloat: 8, KindComplexDouble: 16, KindComplexLongDouble: 32,
	}
	for k, v := range sizes {
		t.SizeOf[k] = v
		t.AlignOf[k] = v
	}
	t.AlignOf[KindLongDouble] = 16
	t.AlignOf[KindComplexLongDouble] = 16
	t.EnumUnderlying = &Type{Kind: KindUnsignedInt}
	t.SizeType = &Type{Kind: KindUnsignedLong}
	t.PtrdiffType = &Type{Kind: KindLong}
	t.WCharType = &Type{Kind: KindInt}
	t.Char16Type = &Type{Kind: KindUnsignedShort}
	t.Char32Type = &Type{Kind: KindUnsignedInt}
	return t
}

// SizeOfBits returns sizeof(t)*CHAR_BIT, the bit width used throughout
// bigint-lowering call descriptors and the LLVMWidth bridge.
func (t *Traits) SizeOfBits(ty *Type) int {
	return t.SizeOf2(ty) * t.CharBit
}

// SizeOf2 returns sizeof(t) in bytes, recursing through pointers/arrays/
// aggregates/_BitInt as Layout requires it to.
func (t *Traits) SizeOf2(ty *Type) int {
	ty = ty.Unqualified()
	switch ty.Kind {
	case KindVoid:
		return 1 // GNU extension sizeof(void) == 1, matching common toolchain behavior
	case KindPointer, KindNullPointer:
		return t.PointerSize
	case KindBitInt, KindBitUInt:
		bytes := (ty.BitWidth + t.CharBit - 1) / t.CharBit
		align := t.AlignOfBitInt(ty.BitWidth)
		return roundUp(bytes, align)
	case KindEnum:
		u := ty.EnumUnderlying
		if u == nil {
			u = t.EnumUnderlying
		}
		return t.SizeOf2(u)
	case KindArray:
		if ty.ArrayBoundary != BoundaryConstant && ty.ArrayBoundary != BoundaryStaticConstant {
			return 0
		}
		return int(ty.ArrayLen) * t.SizeOf2(ty.Elem)
	case KindStruct, KindUnion:
		size, _ := Layout(t, ty)
		return size
	default:
		if s, ok := t.SizeOf[ty.Kind]; ok {
			return s
		}
		return 0
	}
}

// AlignOf2 returns alignof(t) in bytes.
func (t *Traits) AlignOf2(ty *Type) int {
	ty = ty.Unqualified()
	switch ty.Kind {
	case KindVoid:
		return 1
	case KindPointer, KindNullPointer:
		return t.PointerAlign
	case KindBitInt, KindBitUInt:
		return t.AlignOfBitInt(ty.BitWidth)
	case KindEnum:
		u := ty.EnumUnderlying
		if u == nil {
			u = t.EnumUnderlying
		}
		return t.AlignOf2(u)
	case KindArray:
		return t.AlignOf2(ty.Elem)
	case KindStruct, KindUnion:
		_, align := Layout(t, ty)
		return align
	default:
		if a, ok := t.AlignOf[ty.Kind]; ok {
			return a
		}
		return 1
	}
}

// AlignOfBitInt returns the alignment of a _BitInt(N), the next power of two
// byte count at or below the pointer size, capped at the pointer size.
func (t *Traits) AlignOfBitInt(width int) int {
	bytes := (width + t.CharBit - 1) / t.CharBit
	align := 1
	for align < bytes && align < t.PointerSize {
		align <<= 1
	}
	return align
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
