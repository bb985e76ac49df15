// Package ir implements the IL model of spec.md §3/§4.3: a flat three-address
// form with explicit value categories, built fully before any assembly is
// emitted. Grounded in the Prog/Addr shape cmd_local/compile/internal/riscv64's
// ggen.go and gsubr.go build up via pp.Appendpp — this package plays the role
// of obj.Prog plus obj.Addr, but is domain-specific to the flat IL rather
// than to a physical instruction set (that's internal/asm's job).
package ir

import (
	"minicc/internal/sym"
	"minicc/internal/types"
)

// StorageClass is where an ILValue's identity comes from (spec.md §3).
type StorageClass int

const (
	// Literal is an immediate constant.
	Literal StorageClass = iota
	// Local is a fresh compiler-generated stack slot, not corresponding to
	// any source-level name.
	Local
	// Named is a slot bound to a declared Symbol (spec.md §3).
	Named
	// StringLiteralStorage is a reference to static read-only data.
	StringLiteralStorage
)

// Value is an immutable, once-created operand in the IL (spec.md §3:
// "ILValue. Immutable once created"). Values are created during lowering and
// live through liveness analysis and register allocation; a Spot is assigned
// to each by the allocator (internal/regalloc), never stored on the Value
// itself so that the same IL can be re-allocated without mutation races.
type Value struct {
	ID      int
	Type    *types.Type
	Class   StorageClass
	Literal int64       // meaningful iff Class == Literal
	Symbol  *sym.Symbol // meaningful iff Class == Named
	Label   string      // meaningful iff Class == StringLiteralStorage, or a global label for Named file-scope objects

	// IsLvalueLocation is true iff this Value holds the address of an
	// object rather than the object's value (spec.md §3) — required
	// because READAT/SETAT are the only commands allowed to dereference,
	// while everything else treats a Value as a plain operand.
	IsLvalueLocation bool

	// Fixed marks an address Value as a declared object's own permanent
	// home (a stack slot or a global label), set by the lowering layer at
	// creation time. A frame-layout pass places these directly; only
	// non-Fixed Values compete for a register through the general
	// interference-graph allocator (spec.md §4.6).
	Fixed bool
}

// Func is one source-level function's IL: its parameters (already bound to
// Named values with IsLvalueLocation set, since parameters are lvalues), and
// the flat command stream building its body.
type Func struct {
	Name       string
	Params     []*Value
	Commands   []Command
	ReturnType *types.Type

	nextID    int
	nextLabel int
}

// NewFunc starts a fresh IL function.
func NewFunc(name string, ret *types.Type) *Func {
	return &Func{Name: name, ReturnType: ret}
}

// NewLocal allocates a fresh compiler-temporary Value of type t. If lvalue is
// true the Value represents the *address* of a new temporary object (used
// for short-circuit result slots and struct-return staging); otherwise it is
// a plain rvalue temporary.
func (f *Func) NewLocal(t *types.Type, lvalue bool) *Value {
	f.nextID++
	return &Value{ID: f.nextID, Type: t, Class: Local, IsLvalueLocation: lvalue}
}

// NewLiteral returns a constant Value of type t.
func (f *Func) NewLiteral(t *types.Type, v int64) *Value {
	f.nextID++
	return &Value{ID: f.nextID, Type: t, Class: Literal, Literal: v}
}

// NewNamed binds a Symbol as a Named Value; all named objects are lvalues,
// since this compiler never materializes a C object as a pure rvalue
// without first loading through an address.
func (f *Func) NewNamed(t *types.Type, symbol *sym.Symbol, label string) *Value {
	f.nextID++
	return &Value{ID: f.nextID, Type: t, Class: Named, Symbol: symbol, Label: label, IsLvalueLocation: true}
}

// NewStringLiteral returns a Value referencing a static string constant
// labeled lbl (the backing storage is a Module.Strings entry, not a
// STRING_LITERAL command; this is the pointer rvalue naming it).
func (f *Func) NewStringLiteral(t *types.Type, lbl string) *Value {
	f.nextID++
	return &Value{ID: f.nextID, Type: t, Class: StringLiteralStorage, Label: lbl}
}

// AsRvalue clears IsLvalueLocation on an address Value, the operation taking
// &lvalue performs (spec.md §4.4: "Taking & of an lvalue simply clears the
// flag on the address value"). The identity (ID) is preserved: the flag is a
// lowering-time bookkeeping bit, not a distinct runtime value, so &*p and p
// must be the very same Value for spec.md §8's lvalue law to hold.
func AsRvalue(v *Value) *Value {
	cp := *v
	cp.IsLvalueLocation = false
	return &cp
}

// AsLvalue sets IsLvalueLocation on a pointer rvalue, the operation unary
// "*" performs: a computed pointer value, reinterpreted as the designator
// of the object it points to. Same identity-preservation rationale as
// AsRvalue.
func AsLvalue(v *Value) *Value {
	cp := *v
	cp.IsLvalueLocation = true
	return &cp
}

// NewLabel allocates a fresh control-flow label id, unique within f.
func (f *Func) NewLabel() int {
	f.nextLabel++
	return f.nextLabel
}

// Emit appends cmd to f's command stream and returns it, mirroring the
// teacher's pp.Appendpp(...) return-the-just-added-instruction idiom so
// lowering code can chain off the result (e.g. to Patch a branch target
// later).
func (f *Func) Emit(cmd Command) Command {
	f.Commands = append(f.Commands, cmd)
	return cmd
}
