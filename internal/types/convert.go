package types

// Conversion classifies an implicit conversion from one type to another, per
// spec.md §4.1.
type Conversion int

const (
	Identity Conversion = iota
	IntegerPromotion
	UsualArithmetic
	PointerToVoid
	NullPointerConstant
	IncompatiblePointerWarning
	Forbidden
)

// Compatible reports whether a and b are compatible types (spec.md §3):
// structurally identical, up to a complete/incomplete array pair of the same
// element, a prototyped/unprototyped function pair whose parameters satisfy
// default-promotion compatibility, and identical tag identity for
// struct/union. It is symmetric and reflexive by construction (every case
// compares a and b the same way regardless of order, and a type is always
// structurally identical to itself).
func Compatible(a, b *Type) bool {
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
	case Void:
		return true
	case Arith:
		return a.Unsigned == b.Unsigned && a.Width == b.Width && a.IsBool == b.IsBool
	case Pointer:
		return Compatible(a.Elem.Unqualified(), b.Elem.Unqualified())
	case Array:
		if !Compatible(a.Elem, b.Elem) {
			return false
		}
		if a.HasLen && b.HasLen {
			return a.Len == b.Len
		}
		return true // one or both incomplete: compatible per spec.md §3(a)
	case Function:
		if !Compatible(a.Return, b.Return) {
			return false
		}
		if !a.Proto || !b.Proto {
			return true // unprototyped side is compatible with anything (spec.md §3(b))
		}
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Compatible(promote(a.Params[i]), promote(b.Params[i])) {
				return false
			}
		}
		return true
	case StructOrUnion:
		return a == b // tag identity is pointer identity (spec.md §3)
	}
	return false
}

// Compose returns the composite type formed by merging two compatible
// declarations of the same entity (spec.md §2, §4.1): the composite carries
// whichever side is "more complete" (a definite array length, a prototype,
// completed struct members). Compose panics if a and b are not compatible;
// callers must check Compatible first. It is commutative on compatible
// inputs because each branch is symmetric in a and b up to which side
// happens to carry the more-complete information.
func Compose(a, b *Type) *Type {
	if !Compatible(a, b) {
		panic("types: Compose of incompatible types")
	}
	switch a.Kind {
	case Array:
		if a.HasLen {
			return a
		}
		if b.HasLen {
			return b
		}
		return a
	case Function:
		if a.Proto {
			return a
		}
		if b.Proto {
			return b
		}
		return a
	default:
		// Arith, Pointer, Void, StructOrUnion: identical already (tag
		// identity for struct/union means a == b here).
		return a
	}
}

// Promote applies integer promotion: anything narrower than int becomes int,
// or unsigned int if it cannot fit in int (spec.md §4.1). Pointers and void
// pass through unchanged; promotion only ever applies to arithmetic operands.
func Promote(t *Type) *Type { return promote(t) }

func promote(t *Type) *Type {
	if t.Kind != Arith {
		return t
	}
	if t.Width >= 4 {
		return t
	}
	// char, short, _Bool: every value of these types fits in int, so
	// promotion always yields plain int (spec.md §4.1).
	return Int
}

// UsualArithmeticConversions implements spec.md §4.1's five-rule ladder on
// already-promoted operand types.
func UsualArithmeticConversions(a, b *Type) *Type {
	a, b = promote(a), promote(b)
	if a == ULong || b == ULong {
		return ULong
	}
	if (a == Long && b == UInt) || (a == UInt && b == Long) {
		if Long.Rank() == UInt.Rank() {
			return ULong
		}
	}
	if a == Long || b == Long {
		return Long
	}
	if a == UInt || b == UInt {
		return UInt
	}
	return Int
}

// ClassifyConversion returns the Conversion category for assigning/converting
// a value of type src to a context expecting dst (spec.md §4.1). nullConst
// indicates the source expression is a null-pointer-constant integer literal
// (spec.md: "an integer constant expression with value 0, or such a constant
// cast to void*").
func ClassifyConversion(dst, src *Type, nullConst bool) Conversion {
	if Compatible(dst, src) {
		return Identity
	}
	switch {
	case dst.Kind == Arith && src.Kind == Arith:
		if promote(src) == dst {
			return IntegerPromotion
		}
		return UsualArithmetic
	case dst.Kind == Pointer && nullConst:
		return NullPointerConstant
	case dst.Kind == Pointer && src.Kind == Pointer:
		if dst.Elem.Kind == Void || src.Elem.Kind == Void {
			return PointerToVoid
		}
		if Compatible(dst.Elem.Unqualified(), src.Elem.Unqualified()) {
			// Qualifier loss from pointee: adding const is fine: dropping
			// it triggers the warning (spec.md §4.1).
			if src.Elem.Const && !dst.Elem.Const {
				return IncompatiblePointerWarning
			}
			return Identity
		}
		return IncompatiblePointerWarning
	case dst.Kind == Arith && src.Kind == Pointer, dst.Kind == Pointer && src.Kind == Arith:
		return Forbidden
	default:
		return Forbidden
	}
}
