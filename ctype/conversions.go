package ctype

// rank returns the integer conversion rank of an integer Kind, used by the
// usual arithmetic conversions (§4.1). Bool ranks lowest, _BitInt ranks by
// its declared width placed between the standard types of equal width.
func rank(t *Traits, ty *Type) int {
	ty = ty.Unqualified()
	switch ty.Kind {
	case KindBool:
		return 0
	case KindChar, KindSignedChar, KindUnsignedChar:
		return 10
	case KindShort, KindUnsignedShort:
		return 20
	case KindInt, KindUnsignedInt:
		return 30
	case KindLong, KindUnsignedLong:
		return 40
	case KindLongLong, KindUnsignedLongLong:
		return 50
	case KindBitInt, KindBitUInt:
		return 30 + ty.BitWidth // ranks against standard types by width, §6.3.1.1
	case KindEnum:
		u := ty.EnumUnderlying
		if u == nil {
			u = t.EnumUnderlying
		}
		return rank(t, u)
	default:
		return -1
	}
}

// Promote implements integer promotion (§4.1): "any integer type whose rank
// is ≤ int is promoted to int (or unsigned int if int cannot hold all
// values)". Non-integer types and types already of rank > int pass through
// unchanged; this is also invoked on bit-fields whose declared width may
// already exceed int's width, in which case the bit-field's own type wins.
func Promote(t *Traits, ty *Type) *Type {
	u := ty.Unqualified()
	if !u.IsInteger() {
		return ty
	}
	if u.Kind == KindBitInt || u.Kind == KindBitUInt {
		if u.BitWidth < t.SizeOfBits(&Type{Kind: KindInt}) {
			return &Type{Kind: KindInt}
		}
		return u
	}
	intRank := rank(t, &Type{Kind: KindInt})
	if rank(t, u) > intRank {
		return u
	}
	if rank(t, u) == intRank {
		// int itself, or an enum/bit-field ranked exactly at int: promotes
		// to int unless it is already unsigned int or doesn't fit in int.
		if u.Kind == KindUnsignedInt {
			return u
		}
		return &Type{Kind: KindInt}
	}
	// rank below int: fits in int unless it is unsigned int-width (shouldn't
	// happen below int's rank) - per the standard, promotes to int if int
	// can represent all values of the original type, else unsigned int.
	if fitsInInt(t, u) {
		return &Type{Kind: KindInt}
	}
	return &Type{Kind: KindUnsignedInt}
}

func fitsInInt(t *Traits, ty *Type) bool {
	return t.SizeOf2(ty) < t.SizeOf2(&Type{Kind: KindInt}) ||
		(t.SizeOf2(ty) == t.SizeOf2(&Type{Kind: KindInt}) && ty.IsSignedInteger())
}

// UsualArithmeticConversions computes the common type of a and b for a
// binary arithmetic operator (§4.1). For mixed floating/integer, the result
// takes the floating type; for two integer types, standard ranking and
// signedness rules apply; _BitInt participates using its width.
func UsualArithmeticConversions(t *Traits, a, b *Type) *Type {
	ua, ub := a.Unqualified(), b.Unqualified()

	if ua.IsComplex() || ub.IsComplex() {
		return commonComplex(t, ua, ub)
	}
	if ua.IsFloating() || ub.IsFloating() {
		return commonFloating(ua, ub)
	}

	pa, pb := Promote(t, ua), Promote(t, ub)
	if Equal(pa, pb) {
		return pa
	}
	ra, rb := rank(t, pa), rank(t, pb)
	aSigned, bSigned := pa.IsSignedInteger(), pb.IsSignedInteger()

	switch {
	case aSigned == bSigned:
		if ra >= rb {
			return pa
		}
		return pb
	case !aSigned && ra >= rb:
		return pa
	case aSigned && rb >= ra:
		return pb
	default:
		// The signed type's rank is >= the unsigned type's rank but the
		// unsigned one doesn't dominate by rank; convert to the unsigned
		// counterpart of the signed type if it can represent all values of
		// the unsigned operand, else to the unsigned counterpart.
		if aSigned {
			if t.SizeOf2(pa) > t.SizeOf2(pb) {
				return pa
			}
			return unsignedCounterpart(pa)
		}
		if t.SizeOf2(pb) > t.SizeOf2(pa) {
			return pb
		}
		return unsignedCounterpart(pb)
	}
}

func unsignedCounterpart(ty *Type) *Type {
	switch ty.Kind {
	case KindInt:
		return &Type{Kind: KindUnsignedInt}
	case KindLong:
		return &Type{Kind: KindUnsignedLong}
	case KindLongLong:
		return &Type{Kind: KindUnsignedLongLong}
	case KindBitInt:
		return &Type{Kind: KindBitUInt, BitWidth: ty.BitWidth}
	default:
		return ty
	}
}

func commonFloating(a, b *Type) *Type {
	rank := func(k Kind) int {
		switch k {
		case KindFloat:
			return 1
		case KindDouble:
			return 2
		case KindLongDouble:
			return 3
		default:
			return 0
		}
	}
	af, bf := a.Kind, b.Kind
	if !a.IsFloating() {
		af = KindDouble // dummy; integer operand just contributes its rank 0 below
	}
	if !b.IsFloating() {
		bf = KindDouble
	}
	ra, rb := rank(af), rank(bf)
	if !a.IsFloating() {
		ra = 0
	}
	if !b.IsFloating() {
		rb = 0
	}
	if ra >= rb && a.IsFloating() {
		return a
	}
	if b.IsFloating() {
		return b
	}
	return a
}

func commonComplex(t *Traits, a, b *Type) *Type {
	realKind := func(ty *Type) Kind {
		switch ty.Kind {
		case KindComplexFloat:
			return KindFloat
		case KindComplexDouble:
			return KindDouble
		case KindComplexLongDouble:
			return KindLongDouble
		default:
			return ty.Kind
		}
	}
	ra, rb := &Type{Kind: realKind(a)}, &Type{Kind: realKind(b)}
	common := commonFloating(ra, rb)
	switch common.Kind {
	case KindFloat:
		return &Type{Kind: KindComplexFloat}
	case KindDouble:
		return &Type{Kind: KindComplexDouble}
	default:
		return &Type{Kind: KindComplexLongDouble}
	}
}

// ConditionalCompositeType computes the result type of `?:` (§4.1): a
// composite type for pointer operands, a common arithmetic type otherwise.
func ConditionalCompositeType(t *Traits, a, b *Type) (*Type, bool) {
	ua, ub := a.Unqualified(), b.Unqualified()
	if ua.IsPointer() || ub.IsPointer() || ua.Kind == KindNullPointer || ub.Kind == KindNullPointer {
		if ua.Kind == KindNullPointer {
			return ub, true
		}
		if ub.Kind == KindNullPointer {
			return ua, true
		}
		comp := Compose(ua, ub)
		if comp == nil {
			return nil, false
		}
		return comp, true
	}
	if ua.IsScalar() && ub.IsScalar() {
		return UsualArithmeticConversions(t, ua, ub), true
	}
	if Equal(ua, ub) {
		return ua, true
	}
	return nil, false
}
