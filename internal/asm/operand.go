package asm

import (
	"fmt"

	"minicc/internal/ir"
	"minicc/internal/regalloc"
	"minicc/internal/types"
)

// width returns the operand size in bytes an ILValue should be moved at.
func width(v *ir.Value) int64 { return widthOfType(v.Type) }

func widthOfType(t *types.Type) int64 {
	if t.Kind == types.Pointer || t.Kind == types.Array || t.Kind == types.Function {
		return 8
	}
	return int64(t.Width)
}

// rvalueOperand renders v as a plain AT&T operand: an immediate, a register,
// or a memory reference to its own Spot. Only valid for Values that are not
// being used as an address to dereference through (spec.md §4.7: "memory
// operands are [RBP - offset] for locals; labels for globals").
func rvalueOperand(v *ir.Value, res *regalloc.Result) string {
	if v.Class == ir.Literal {
		return fmt.Sprintf("$%d", v.Literal)
	}
	sp := res.SpotOf(v)
	switch sp.Kind {
	case regalloc.InRegister:
		return pct(regAt(sp.Reg, width(v)))
	case regalloc.OnStack:
		return fmt.Sprintf("%d(%s)", sp.Offset, pct("rbp"))
	case regalloc.AtLabel:
		return fmt.Sprintf("%s(%s)", sp.Label, pct("rip"))
	}
	return "$0"
}

// addressMemOperand renders the memory operand for the object v designates
// as an address Value (the Src1 of READAT/ADDROF, or the Dst of SETAT).
// A Fixed address names its own permanent home directly: no value in any
// register or stack cell actually holds those address bits, so dereferencing
// it is free (spec.md §4.4's "fixed vs. allocatable" split; see DESIGN.md).
// A non-Fixed address is itself a computed pointer rvalue that must first be
// materialized into a register (reloading through scratch if it was
// spilled) before the caller can use "(%reg)" as the memory operand.
func (fe *funcEmitter) addressMemOperand(v *ir.Value) string {
	if v.Fixed {
		sp := fe.res.SpotOf(v)
		switch sp.Kind {
		case regalloc.OnStack:
			return fmt.Sprintf("%d(%s)", sp.Offset, pct("rbp"))
		case regalloc.AtLabel:
			return fmt.Sprintf("%s(%s)", sp.Label, pct("rip"))
		}
	}
	reg := fe.ensureReg(v, "r11")
	return fmt.Sprintf("(%s)", pct(reg))
}

// ensureReg returns a register holding v's value, reloading a spilled or
// immediate Value into scratch first if needed.
func (fe *funcEmitter) ensureReg(v *ir.Value, scratch string) string {
	if v.Class == ir.Literal {
		fe.printf("\tmovq\t$%d, %s\n", v.Literal, pct(scratch))
		return scratch
	}
	sp := fe.res.SpotOf(v)
	if sp.Kind == regalloc.InRegister {
		return sp.Reg
	}
	fe.printf("\tmov%s\t%s, %s\n", suffix(width(v)), rvalueOperand(v, fe.res), pct(regAt(scratch, width(v))))
	return scratch
}
