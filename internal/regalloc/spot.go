// Package regalloc implements frame layout and the George & Appel iterated
// register coalescing algorithm spec.md §4.6 specifies: build, simplify,
// coalesce, freeze, potential-spill, select, with an actual-spill rewrite
// loop when select fails to finish. Grounded in the Prog-level register
// bookkeeping of cmd_local/compile/internal/ssa's regalloc.go, adapted from
// that pass's SSA-value model to this compiler's flat, mutable-free ILValue
// stream.
package regalloc

import "minicc/internal/ir"

// SpotKind discriminates where an ILValue ultimately lives.
type SpotKind int

const (
	// InRegister: one of the fixed GP integer registers (spec.md §4.6).
	InRegister SpotKind = iota
	// OnStack: a frame-relative slot, either because the value is a fixed
	// address-Value with its own permanent home, or because the allocator
	// spilled it.
	OnStack
	// AtLabel: a static/external object's fixed assembly label.
	AtLabel
)

// Spot is where the emitter finds an ILValue's storage.
type Spot struct {
	Kind   SpotKind
	Reg    string // meaningful iff Kind == InRegister
	Offset int64  // meaningful iff Kind == OnStack: bytes from the frame base, negative
	Label  string // meaningful iff Kind == AtLabel
}

// GPRegisters is the pool of general-purpose integer registers the allocator
// colors over, caller-saved first so a function that never spills also
// never has to push/pop a callee-saved register in its own prologue.
// spec.md §4.6 describes K as "typically 13 after reserving frame/stack
// pointers and scratch," which is the count reachable if DIV/MOD's dividend
// and the shift instructions' count are expressed as register precolorings
// on the graph itself. This allocator does not precolor (see DESIGN.md): it
// reserves RAX, RDX, and RCX outside the pool entirely and has the emitter
// move values into/out of them immediately around DIV/MOD/shift, which is
// only safe if nothing the allocator colors ever lands in those three. Of the
// 16 general registers, that leaves 9: RSP/RBP are the stack/frame pointers,
// and R10/R11 are a pair of emitter scratch registers for instruction forms
// that need two extra temporaries at once (indexed addressing's base and
// index, a spilled operand reloaded alongside another already in flight).
var GPRegisters = []string{
	"rdi", "rsi", "r8", "r9", // caller-saved
	"rbx", "r12", "r13", "r14", "r15", // callee-saved
}

// CalleeSavedSet names the registers in GPRegisters a function must
// push/pop around its body if it assigns any value to them.
var CalleeSavedSet = map[string]bool{"rbx": true, "r12": true, "r13": true, "r14": true, "r15": true}

// K is the number of colors available to the general allocator.
var K = len(GPRegisters)

// Result is the complete output of allocating one function: every ILValue's
// Spot, the final frame size (16-byte aligned per the SysV ABI), and the set
// of callee-saved registers the prologue/epilogue must push/pop.
type Result struct {
	Spots       map[int]Spot
	FrameSize   int64
	CalleeSaved []string

	// CallClobbers maps a CALL command's index in the final command stream
	// to the caller-saved registers the emitter must save across it.
	CallClobbers map[int][]string
}

func (r *Result) SpotOf(v *ir.Value) Spot {
	if sp, ok := r.Spots[v.ID]; ok {
		return sp
	}
	return Spot{}
}
