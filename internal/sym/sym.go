// Package sym implements the symbol environment described in spec.md §4.2: a
// stack of scopes with separate namespaces for ordinary identifiers and tag
// names, linkage resolution, and storage duration. Grounded in the
// Class/PEXTERN-style storage enumeration of cmd_local/compile/internal/gc/go.go,
// generalized from Go's single-namespace, no-linkage model to C's.
package sym

import (
	"fmt"

	"minicc/internal/types"
)

// Linkage is one of external, internal, or none (spec.md §3).
type Linkage int

const (
	NoLinkage Linkage = iota
	External
	Internal
)

// Storage is the storage duration / class of a symbol.
type Storage int

const (
	NoStorage Storage = iota
	Static
	Automatic
	Typedef
)

// DefState tracks whether an object has only been declared, tentatively
// defined (file-scope "int x;" with no initializer), or defined.
type DefState int

const (
	Declared DefState = iota
	Tentative
	Defined
)

// Symbol is one entry in the ordinary-identifier namespace (spec.md §3).
type Symbol struct {
	Name     string
	Type     *types.Type
	Linkage  Linkage
	Storage  Storage
	State    DefState

	// Exactly one of these is meaningful, selected by Storage/Kind:
	StackOffset int64  // Automatic: offset from frame base, assigned by regalloc's frame layout
	GlobalLabel string // Static/External objects and functions: assembly label
	EnumValue   int64  // Storage == NoStorage and Type == Int for an enum constant
	IsEnumConst bool
}

// Tag is one entry in the tag namespace, parallel to Symbol (spec.md §4.2).
type Tag struct {
	Name string
	Type *types.Type // Kind == StructOrUnion; incomplete until its definition closes
}

type scope struct {
	symbols map[string]*Symbol
	tags    map[string]*Tag
}

func newScope() *scope {
	return &scope{symbols: map[string]*Symbol{}, tags: map[string]*Tag{}}
}

// Env is the nested environment of scopes plus the parallel tag stack
// (spec.md §4.2). Scope 0 is file (translation-unit) scope.
type Env struct {
	scopes []*scope
}

// New returns an environment containing only file scope.
func New() *Env {
	e := &Env{}
	e.PushScope()
	return e
}

// PushScope opens a new nested scope (block, function parameter list, ...).
func (e *Env) PushScope() { e.scopes = append(e.scopes, newScope()) }

// PopScope closes the innermost scope, destroying its automatic bindings
// (spec.md §4.2: "popping destroys automatic bindings" — in this
// implementation that's simply dropping the scope's map; nothing outlives it
// except symbols already captured by IL/AST nodes built while it was open).
func (e *Env) PopScope() {
	if len(e.scopes) == 0 {
		panic("sym: PopScope on empty environment")
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Env) top() *scope { return e.scopes[len(e.scopes)-1] }

// AtFileScope reports whether the innermost scope is file scope.
func (e *Env) AtFileScope() bool { return len(e.scopes) == 1 }

// DeclError is returned by Declare/DeclareTag for the error conditions
// spec.md §4.2 enumerates.
type DeclError struct {
	Reason string
}

func (e *DeclError) Error() string { return e.Reason }

// Lookup walks outward from the innermost scope for name in the ordinary
// identifier namespace.
func (e *Env) Lookup(name string) (*Symbol, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if s, ok := e.scopes[i].symbols[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// LookupTag walks outward for a tag of the given name, independent of kind
// (callers check Type.IsUnion against what they expect).
func (e *Env) LookupTag(name string) (*Tag, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].tags[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// lookupLocal finds name only in the innermost scope, for redeclaration
// checks (spec.md: "fails ... if the name exists in this scope").
func (e *Env) lookupLocal(name string) (*Symbol, bool) {
	s, ok := e.top().symbols[name]
	return s, ok
}

// resolveLinkage implements spec.md §4.2's linkage-resolution rules.
func (e *Env) resolveLinkage(storage Storage, explicitExtern, explicitStatic bool) Linkage {
	if e.AtFileScope() {
		if explicitStatic {
			return Internal
		}
		return External
	}
	// Block scope.
	if explicitExtern {
		// "extern inside a block adopts the linkage of an outer
		// declaration if present" (spec.md §4.2); Declare resolves that
		// by checking Lookup after this returns and adopting the outer
		// linkage when found. Absent an outer declaration, extern at
		// block scope is external.
		return External
	}
	return NoLinkage
}

// Declare enters name with the given type/storage/linkage into the innermost
// scope, implementing spec.md §4.2's redeclaration and composition rules. On
// success it returns the (possibly pre-existing, now-updated) *Symbol.
func (e *Env) Declare(name string, t *types.Type, storage Storage, explicitExtern, explicitStatic bool) (*Symbol, error) {
	linkage := e.resolveLinkage(storage, explicitExtern, explicitStatic)

	// extern at block scope with no local prior declaration adopts an
	// outer (possibly file-scope) declaration's linkage, per spec.md.
	if explicitExtern && !e.AtFileScope() {
		if outer, ok := e.Lookup(name); ok {
			linkage = outer.Linkage
		}
	}

	existing, ok := e.lookupLocal(name)
	if !ok {
		sym := &Symbol{Name: name, Type: t, Linkage: linkage, Storage: storage, State: Declared}
		e.top().symbols[name] = sym
		return sym, nil
	}

	if existing.Linkage != NoLinkage && linkage != NoLinkage && existing.Linkage != linkage {
		return nil, &DeclError{Reason: fmt.Sprintf("%q redeclared with different linkage", name)}
	}
	if !types.Compatible(existing.Type, t) {
		return nil, &DeclError{Reason: fmt.Sprintf("%q redeclared with incompatible type %s (previously %s)", name, t, existing.Type)}
	}
	existing.Type = types.Compose(existing.Type, t)
	if linkage != NoLinkage {
		existing.Linkage = linkage
	}
	return existing, nil
}

// DeclareAtFileScope enters an implicitly-declared function (spec.md §7:
// "implicit-declaration usage") directly into file scope with external
// linkage, regardless of how deeply nested the call site is — C's rule is
// that an implicit function declaration has file scope no matter where the
// call appears. Callers must already have failed an ordinary Lookup for
// name, so redeclaration here only ever merges two implicit (or an implicit
// against a real, later-seen) declaration of the same function.
func (e *Env) DeclareAtFileScope(name string, t *types.Type) (*Symbol, error) {
	file := e.scopes[0]
	if existing, ok := file.symbols[name]; ok {
		if !types.Compatible(existing.Type, t) {
			return nil, &DeclError{Reason: fmt.Sprintf("%q redeclared with incompatible type %s (previously %s)", name, t, existing.Type)}
		}
		existing.Type = types.Compose(existing.Type, t)
		return existing, nil
	}
	s := &Symbol{Name: name, Type: t, Linkage: External, Storage: NoStorage, State: Declared, GlobalLabel: name}
	file.symbols[name] = s
	return s, nil
}

// Define upgrades an existing declaration's DefState, enforcing spec.md's
// tentative-definition coalescing and the "extern ... = init at local scope
// is an error" rule.
func (e *Env) Define(s *Symbol, tentative bool) error {
	if !e.AtFileScope() && s.Linkage == External && !tentative {
		return &DeclError{Reason: fmt.Sprintf("%q: extern declaration with initializer at block scope", s.Name)}
	}
	switch {
	case tentative:
		if s.State == Declared {
			s.State = Tentative
		}
		// Multiple tentative definitions at file scope simply coalesce:
		// State stays Tentative, nothing else to do.
	default:
		if s.State == Defined {
			return &DeclError{Reason: fmt.Sprintf("%q redefined", s.Name)}
		}
		s.State = Defined
	}
	return nil
}

// DeclareTag enters or completes a struct/union tag, implementing spec.md
// §4.2's tag rules: wrong-kind redeclaration in the same scope is an error,
// and a complete definition may only replace a previously incomplete one
// once.
func (e *Env) DeclareTag(name string, union bool) (*Tag, error) {
	if existing, ok := e.top().tags[name]; ok {
		if existing.Type.IsUnion != union {
			return nil, &DeclError{Reason: fmt.Sprintf("%q redeclared as different kind of tag", name)}
		}
		return existing, nil
	}
	t := &Tag{Name: name, Type: types.NewStruct(name, union)}
	e.top().tags[name] = t
	return t, nil
}

// CompleteTag fills in a previously incomplete tag's members; calling it
// twice on an already-complete tag is a redefinition error.
func (e *Env) CompleteTag(tg *Tag, members []types.Member) error {
	if tg.Type.Complete {
		return &DeclError{Reason: fmt.Sprintf("%q: redefinition of %s", tg.Name, tg.Type)}
	}
	tg.Type.CompleteWith(members)
	return nil
}
