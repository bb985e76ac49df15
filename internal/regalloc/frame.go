package regalloc

import (
	"minicc/internal/ir"
	"minicc/internal/sym"
	"minicc/internal/types"
)

// layoutFrame assigns every Fixed address-Value in f a Spot directly,
// bypassing the interference-graph allocator entirely (spec.md §4.6: a
// declared object's address never moves once its storage is chosen). Static
// and external objects get their own assembly label; automatic objects get a
// stack slot, packed by descending alignment then by first appearance so two
// runs over the same IL produce the same layout.
func layoutFrame(f *ir.Func, spots map[int]Spot) int64 {
	type fixedSlot struct {
		v         *ir.Value
		objType   *types.Type
		alignment int64
		size      int64
	}
	var locals []fixedSlot
	seen := map[int]bool{}

	visit := func(v *ir.Value) {
		if v == nil || !v.Fixed || seen[v.ID] {
			return
		}
		seen[v.ID] = true
		objType := v.Type.Elem

		if v.Class == ir.Named && v.Symbol != nil && v.Symbol.Storage != sym.Automatic {
			spots[v.ID] = Spot{Kind: AtLabel, Label: v.Label}
			return
		}
		locals = append(locals, fixedSlot{
			v:         v,
			objType:   objType,
			alignment: types.Align(objType),
			size:      types.Size(objType),
		})
	}

	for _, p := range f.Params {
		visit(p)
	}
	for _, c := range f.Commands {
		visit(c.Dst)
		visit(c.Src1)
		visit(c.Src2)
		visit(c.Cond)
		visit(c.Callee)
		for _, a := range c.Args {
			visit(a)
		}
	}

	// Pack by descending alignment to avoid internal padding, stable on
	// first appearance within an alignment class.
	var offset int64
	for _, align := range []int64{8, 4, 2, 1} {
		for _, slot := range locals {
			if slot.alignment != align {
				continue
			}
			offset += slot.size
			offset = roundUp(offset, align)
			spots[slot.v.ID] = Spot{Kind: OnStack, Offset: -offset}
			if slot.v.Symbol != nil {
				slot.v.Symbol.StackOffset = -offset
			}
		}
	}
	return roundUp(offset, 16)
}

func roundUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
