package cast

import "github.com/sourcehut-mirrors/selfcc/ctype"

// IdentKind tags the ScopedIdentifier variant of §3.
type IdentKind int

const (
	IdentObject IdentKind = iota
	IdentFunction
	IdentEnumConstant
	IdentTypeTag
	IdentTypeDefinition
	IdentLabel
)

// StorageClass is the storage class of an object/function identifier.
type StorageClass int

const (
	StorageAuto StorageClass = iota
	StorageStatic
	StorageExtern
	StorageRegister
	StorageTypedef
)

// Linkage is the linkage of an object/function identifier.
type Linkage int

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
)

// ScopedIdentifier is the tagged variant of §3 "Scoped identifier".
type ScopedIdentifier struct {
	Kind IdentKind
	Name string

	// IdentObject / IdentFunction
	Storage     StorageClass
	Linkage     Linkage
	Align       int
	Type        *ctype.Type
	Defined     bool
	Initializer *Node
	DefPoint    int // sequential definition-point ordinal, for "one definition" checks

	// IdentEnumConstant
	EnumValue      int64
	EnumUnderlying *ctype.Type

	// IdentLabel
	FlowControl *FlowControlPoint
	RefCount    int
}

// ScopeKind distinguishes the three scope chains of §3.
type ScopeKind int

const (
	ScopeOrdinary ScopeKind = iota
	ScopeTag
	ScopeLabel
)

// Scope is one nested lexical scope of a given kind.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	entries map[string]*ScopedIdentifier
	order   []string
}

// NewScope creates a child scope nested inside parent (nil for a new root).
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, entries: make(map[string]*ScopedIdentifier)}
}

// Declare adds ident to this scope directly (no shadowing check — callers
// that need "already declared in this exact scope" semantics should call
// LookupLocal first), reporting whether it was newly added.
func (s *Scope) Declare(ident *ScopedIdentifier) bool {
	_, existed := s.entries[ident.Name]
	s.entries[ident.Name] = ident
	if !existed {
		s.order = append(s.order, ident.Name)
	}
	return !existed
}

// LookupLocal looks up name in this scope only (no parent walk).
func (s *Scope) LookupLocal(name string) (*ScopedIdentifier, bool) {
	id, ok := s.entries[name]
	return id, ok
}

// Lookup walks from this scope outward to the root, returning the nearest
// binding (§3: "Stored in nested scope chains ... with push/pop paired to
// AST block entry/exit").
func (s *Scope) Lookup(name string) (*ScopedIdentifier, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if id, ok := sc.entries[name]; ok {
			return id, true
		}
	}
	return nil, false
}

// Names returns the identifiers declared directly in this scope, in
// declaration order.
func (s *Scope) Names() []string { return s.order }

// ScopeStack holds the three independently-nested scope chains live at a
// given point in the AST walk.
type ScopeStack struct {
	Ordinary *Scope
	Tag      *Scope
	Label    *Scope
}

// Push opens a new block scope on the ordinary and tag chains and returns
// the new stack; the label chain is shared. The receiver is left unchanged,
// so a caller restores the prior state by keeping it.
func (s *ScopeStack) Push() *ScopeStack {
	return &ScopeStack{
		Ordinary: NewScope(ScopeOrdinary, s.Ordinary),
		Tag:      NewScope(ScopeTag, s.Tag),
		Label:    s.Label, // labels have function scope, not block scope, in C
	}
}
