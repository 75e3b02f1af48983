package ctype

// Equal implements the structural same-type check of §3's invariant:
// "same-type checks use structural equality". Qualifiers must match exactly
// on both sides at every nesting level, matching the C standard's notion of
// "compatible type" for same-type purposes (not the laxer "compatible"
// relation used for e.g. parameter matching, which callers build on top of
// Equal + additional rules where needed).
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindQualified:
		return a.Quals == b.Quals && Equal(a.Elem, b.Elem)
	case KindPointer:
		return Equal(a.Elem, b.Elem)
	case KindArray:
		if a.ArrayBoundary != b.ArrayBoundary {
			return false
		}
		if a.ArrayBoundary == BoundaryConstant || a.ArrayBoundary == BoundaryStaticConstant {
			if a.ArrayLen != b.ArrayLen {
				return false
			}
		}
		return Equal(a.Elem, b.Elem)
	case KindBitInt, KindBitUInt:
		return a.BitWidth == b.BitWidth
	case KindEnum:
		return a.EnumName == b.EnumName && a == b // enums are unique per definition
	case KindStruct, KindUnion:
		return a.AggName == b.AggName && a == b // tag types are unique per definition
	case KindFunction:
		if !Equal(a.Return, b.Return) || a.Ellipsis != b.Ellipsis || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true // scalar kinds with no payload are equal iff Kind matches
	}
}

// Compose forms the composite type of two compatible types, used when a
// tentative/incomplete declaration is later completed (e.g. "extern int
// a[];" then "int a[10];"), and for composing the two branches of a
// conditional-operator's pointer operands (§4.1). Compose returns nil if a
// and b are not compatible.
func Compose(a, b *Type) *Type {
	if Equal(a, b) {
		return a
	}
	if a.Kind != b.Kind {
		return nil
	}
	switch a.Kind {
	case KindPointer:
		elem := Compose(a.Elem, b.Elem)
		if elem == nil {
			return nil
		}
		return &Type{Kind: KindPointer, Elem: elem}
	case KindArray:
		elem := Compose(a.Elem, b.Elem)
		if elem == nil {
			return nil
		}
		switch {
		case a.ArrayBoundary == BoundaryConstant && b.ArrayBoundary == BoundaryConstant:
			if a.ArrayLen != b.ArrayLen {
				return nil
			}
			return &Type{Kind: KindArray, Elem: elem, ArrayBoundary: BoundaryConstant, ArrayLen: a.ArrayLen}
		case a.ArrayBoundary == BoundaryConstant:
			return &Type{Kind: KindArray, Elem: elem, ArrayBoundary: BoundaryConstant, ArrayLen: a.ArrayLen}
		case b.ArrayBoundary == BoundaryConstant:
			return &Type{Kind: KindArray, Elem: elem, ArrayBoundary: BoundaryConstant, ArrayLen: b.ArrayLen}
		default:
			return &Type{Kind: KindArray, Elem: elem, ArrayBoundary: BoundaryUnbounded}
		}
	case KindFunction:
		ret := Compose(a.Return, b.Return)
		if ret == nil {
			return nil
		}
		if a.KRStyle && !b.KRStyle {
			return b
		}
		if b.KRStyle && !a.KRStyle {
			return a
		}
		if len(a.Params) != len(b.Params) || a.Ellipsis != b.Ellipsis {
			return nil
		}
		params := make([]*Type, len(a.Params))
		for i := range a.Params {
			p := Compose(a.Params[i], b.Params[i])
			if p == nil {
				return nil
			}
			params[i] = p
		}
		return &Type{Kind: KindFunction, Return: ret, Params: params, Ellipsis: a.Ellipsis}
	default:
		return nil
	}
}
