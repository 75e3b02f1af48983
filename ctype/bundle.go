package ctype

import (
	"fmt"

	"github.com/sourcehut-mirrors/selfcc/corelib"
)

// Bundle interns types for one translation unit (§3: "types are interned in
// a per-translation-unit bundle"), owning every Type allocated through it
// until translation-unit teardown (§5).
type Bundle struct {
	traits *Traits
	arena  *corelib.Arena[Type]
	cache  map[string]*Type
}

// NewBundle creates an empty Bundle over the given target traits.
func NewBundle(traits *Traits) *Bundle {
	return &Bundle{traits: traits, arena: corelib.NewArena[Type](512), cache: make(map[string]*Type)}
}

// Traits returns the target traits this bundle was built with.
func (b *Bundle) Traits() *Traits {
	return b.traits
}

// Basic interns and returns the canonical Type for a scalar Kind.
func (b *Bundle) Basic(k Kind) *Type {
	key := fmt.Sprintf("basic:%d", k)
	if t, ok := b.cache[key]; ok {
		return t
	}
	t := b.arena.New()
	t.Kind = k
	b.cache[key] = t
	return t
}

// Pointer interns and returns the pointer-to-elem type.
func (b *Bundle) Pointer(elem *Type) *Type {
	key := fmt.Sprintf("ptr:%p", elem)
	if t, ok := b.cache[key]; ok {
		return t
	}
	t := b.arena.New()
	t.Kind = KindPointer
	t.Elem = elem
	b.cache[key] = t
	return t
}

// BitInt interns and returns a _BitInt(width), signed if !unsigned.
func (b *Bundle) BitInt(width int, unsigned bool) *Type {
	key := fmt.Sprintf("bitint:%d:%v", width, unsigned)
	if t, ok := b.cache[key]; ok {
		return t
	}
	t := b.arena.New()
	t.BitWidth = width
	if unsigned {
		t.Kind = KindBitUInt
	} else {
		t.Kind = KindBitInt
	}
	b.cache[key] = t
	return t
}

// NewStruct allocates a fresh (non-interned: structs are unique per
// definition per §3's Equal rule) incomplete struct/union type that the
// caller fills in and later completes via Layout.
func (b *Bundle) NewStruct(name string, isUnion bool) *Type {
	t := b.arena.New()
	if isUnion {
		t.Kind = KindUnion
	} else {
		t.Kind = KindStruct
	}
	t.AggName = name
	return t
}

// NewEnum allocates a fresh enumeration type.
func (b *Bundle) NewEnum(name string) *Type {
	t := b.arena.New()
	t.Kind = KindEnum
	t.EnumName = name
	return t
}

// NewArray allocates a fresh array type (arrays are not interned since
// their element may itself be an in-progress incomplete aggregate).
func (b *Bundle) NewArray(elem *Type, boundary ArrayBoundary, length int64) *Type {
	t := b.arena.New()
	t.Kind = KindArray
	t.Elem = elem
	t.ArrayBoundary = boundary
	t.ArrayLen = length
	return t
}

// NewFunction allocates a fresh function type.
func (b *Bundle) NewFunction(ret *Type, params []*Type, names []string, ellipsis, krStyle bool) *Type {
	t := b.arena.New()
	t.Kind = KindFunction
	t.Return = ret
	t.Params = params
	t.ParamNames = names
	t.Ellipsis = ellipsis
	t.KRStyle = krStyle
	return t
}
