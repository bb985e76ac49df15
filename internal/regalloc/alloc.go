package regalloc

import (
	"minicc/internal/flow"
	"minicc/internal/ir"
	"minicc/internal/types"
)

// Allocate runs frame layout followed by iterated register coalescing for
// one function, rewriting the program and retrying whenever an actual spill
// is required (spec.md §4.6). f's Commands slice may grow: spilled values
// are rematerialized as READAT/SETAT against a synthetic stack slot, exactly
// the pattern already used for ordinary declared objects.
func Allocate(f *ir.Func) *Result {
	spots := map[int]Spot{}
	frameSize := layoutFrame(f, spots)

	var lv *flow.Liveness
	for {
		lv = flow.Analyze(f)
		allocatable := allocatableSet(f)
		g := flow.Build(f, lv, allocatable)

		color, spilled, ok := colorGraph(g)
		if ok {
			for id, reg := range color {
				spots[id] = Spot{Kind: InRegister, Reg: reg}
			}
			break
		}
		frameSize = rewriteSpills(f, spilled, spots, frameSize)
	}

	used := map[string]bool{}
	for _, sp := range spots {
		if sp.Kind == InRegister && CalleeSavedSet[sp.Reg] {
			used[sp.Reg] = true
		}
	}
	var calleeSaved []string
	for _, r := range GPRegisters {
		if used[r] {
			calleeSaved = append(calleeSaved, r)
		}
	}

	return &Result{
		Spots:       spots,
		FrameSize:   roundUp(frameSize, 16),
		CalleeSaved: calleeSaved,
		CallClobbers: callClobbers(f, lv, spots),
	}
}

// callClobbers records, for each CALL command index, the caller-saved
// registers holding a value that stays live across the call. The callee is
// free to clobber rax/rcx/rdx/rsi/rdi/r8-r11 (spec.md's target ABI is SysV
// AMD64), so the emitter must push each one before the call and pop it back
// after (see DESIGN.md: chosen over precoloring the interference graph with
// per-call clobber nodes, which this allocator doesn't model).
func callClobbers(f *ir.Func, lv *flow.Liveness, spots map[int]Spot) map[int][]string {
	out := map[int][]string{}
	for i, cmd := range f.Commands {
		if cmd.Op != ir.CALL {
			continue
		}
		seen := map[string]bool{}
		var regs []string
		for _, v := range lv.LiveOut[i] {
			if cmd.Dst != nil && v.ID == cmd.Dst.ID {
				continue // the call's own result, not a value to preserve across it
			}
			sp, ok := spots[v.ID]
			if !ok || sp.Kind != InRegister || CalleeSavedSet[sp.Reg] {
				continue
			}
			if !seen[sp.Reg] {
				seen[sp.Reg] = true
				regs = append(regs, sp.Reg)
			}
		}
		if len(regs) > 0 {
			out[i] = regs
		}
	}
	return out
}

// allocatableSet is every non-fixed ILValue a command reads or writes,
// excluding Literal-class values: an immediate never needs a home of its
// own, the emitter materializes it directly at each use site (spec.md §4.6;
// see DESIGN.md).
func allocatableSet(f *ir.Func) map[int]bool {
	m := map[int]bool{}
	add := func(v *ir.Value) {
		if v != nil && !v.Fixed && v.Class != ir.Literal {
			m[v.ID] = true
		}
	}
	for _, c := range f.Commands {
		for _, v := range c.Reads() {
			add(v)
		}
		for _, v := range c.Writes() {
			add(v)
		}
	}
	return m
}

// rewriteSpills gives every spilled value a stack slot and replaces its one
// defining command's Dst, and each of its use sites, with fresh temporaries
// connected to that slot through SETAT/READAT (spec.md §4.6's actual-spill
// rewrite; spec.md §3 guarantees each ILValue has at most one defining
// command, so this never needs to hunt for multiple definitions).
func rewriteSpills(f *ir.Func, spilled map[int]*ir.Value, spots map[int]Spot, frameOffset int64) int64 {
	addrOf := map[int]*ir.Value{}
	for id, v := range spilled {
		addr := f.NewLocal(types.NewPointer(v.Type), true)
		addr.Fixed = true
		align := types.Align(v.Type)
		frameOffset += types.Size(v.Type)
		frameOffset = roundUp(frameOffset, align)
		spots[addr.ID] = Spot{Kind: OnStack, Offset: -frameOffset}
		addrOf[id] = addr
	}

	var out []ir.Command
	for _, cmd := range f.Commands {
		reloadCache := map[int]*ir.Value{}
		reload := func(v *ir.Value) *ir.Value {
			if t, ok := reloadCache[v.ID]; ok {
				return t
			}
			t := f.NewLocal(v.Type, false)
			out = append(out, ir.Command{Op: ir.READAT, Dst: t, Src1: addrOf[v.ID]})
			reloadCache[v.ID] = t
			return t
		}

		writes := cmd.Writes()
		writeSpilled := len(writes) == 1 && spilled[writes[0].ID] != nil

		if !writeSpilled && cmd.Dst != nil && spilled[cmd.Dst.ID] != nil {
			cmd.Dst = reload(cmd.Dst)
		}
		if cmd.Src1 != nil && spilled[cmd.Src1.ID] != nil {
			cmd.Src1 = reload(cmd.Src1)
		}
		if cmd.Src2 != nil && spilled[cmd.Src2.ID] != nil {
			cmd.Src2 = reload(cmd.Src2)
		}
		if cmd.Cond != nil && spilled[cmd.Cond.ID] != nil {
			cmd.Cond = reload(cmd.Cond)
		}
		if cmd.Callee != nil && spilled[cmd.Callee.ID] != nil {
			cmd.Callee = reload(cmd.Callee)
		}
		if len(cmd.Args) > 0 {
			newArgs := make([]*ir.Value, len(cmd.Args))
			for i, a := range cmd.Args {
				if a != nil && spilled[a.ID] != nil {
					newArgs[i] = reload(a)
				} else {
					newArgs[i] = a
				}
			}
			cmd.Args = newArgs
		}

		var origDst *ir.Value
		var tmp *ir.Value
		if writeSpilled {
			origDst = cmd.Dst
			tmp = f.NewLocal(origDst.Type, false)
			cmd.Dst = tmp
		}

		out = append(out, cmd)

		if writeSpilled {
			out = append(out, ir.Command{Op: ir.SETAT, Dst: addrOf[origDst.ID], Src1: tmp})
		}
	}
	f.Commands = out
	return frameOffset
}
