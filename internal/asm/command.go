package asm

import (
	"minicc/internal/ir"
	"minicc/internal/regalloc"
)

var commutativeMnemonic = map[ir.Op]string{
	ir.ADD: "add",
	ir.AND: "and",
	ir.OR:  "or",
	ir.XOR: "xor",
}

// emitCommand writes the instruction sequence for one IL command (spec.md
// §4.7: "each IL command is responsible for its own assembly template").
func (fe *funcEmitter) emitCommand(i int, cmd ir.Command) {
	switch cmd.Op {
	case ir.ADD, ir.AND, ir.OR, ir.XOR:
		fe.binArith(commutativeMnemonic[cmd.Op], cmd)
	case ir.SUB:
		fe.binArith("sub", cmd)
	case ir.MULT:
		fe.mult(cmd)
	case ir.DIV, ir.MOD:
		fe.divmod(cmd)
	case ir.LSHIFT:
		fe.shift("shl", cmd)
	case ir.RSHIFT:
		mnemonic := "shr"
		if !cmd.Dst.Type.Unsigned {
			mnemonic = "sar"
		}
		fe.shift(mnemonic, cmd)
	case ir.NEG:
		fe.unary("neg", cmd)
	case ir.NOT:
		fe.logicalNot(cmd)
	case ir.EQ, ir.NEQ, ir.LT, ir.LE, ir.GT, ir.GE:
		fe.compare(cmd)
	case ir.ADDROF:
		fe.addrof(cmd)
	case ir.READAT:
		fe.readat(cmd)
	case ir.SETAT:
		fe.setat(cmd)
	case ir.POINTER_ADD:
		fe.pointerAdd(cmd)
	case ir.POINTER_SUB:
		fe.pointerSub(cmd)
	case ir.POINTER_DIFF:
		fe.pointerDiff(cmd)
	case ir.LABEL:
		fe.printf("%s:\n", fe.label(cmd.LabelID))
	case ir.JUMP:
		fe.printf("\tjmp\t%s\n", fe.label(cmd.LabelID))
	case ir.JUMP_ZERO:
		fe.condJump("je", cmd)
	case ir.JUMP_NOT_ZERO:
		fe.condJump("jne", cmd)
	case ir.RETURN:
		fe.ret(cmd)
	case ir.CALL:
		fe.call(i, cmd)
	case ir.SET:
		fe.set(cmd)
	case ir.ZERO:
		fe.zero(cmd)
	case ir.STRUCT_MEMBER_COPY:
		fe.structCopy(cmd)
	case ir.LOAD, ir.STRING_LITERAL:
		// Not produced by this lowering pass; see DESIGN.md.
	}
}

// dstWorkReg returns a register the command result can be computed into and
// a flush closure that stores it to Dst's real Spot if Dst wasn't colored
// into a register directly.
func (fe *funcEmitter) dstWorkReg(dst *ir.Value, scratch string) (reg string, flush func()) {
	sp := fe.res.SpotOf(dst)
	if sp.Kind == regalloc.InRegister {
		return sp.Reg, func() {}
	}
	return scratch, func() {
		fe.printf("\tmov%s\t%s, %s\n", suffix(width(dst)), pct(regAt(scratch, width(dst))), rvalueOperand(dst, fe.res))
	}
}

func (fe *funcEmitter) binArith(mnemonic string, cmd ir.Command) {
	w := width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, w)))
	fe.printf("\t%s%s\t%s, %s\n", mnemonic, suffix(w), rvalueOperand(cmd.Src2, fe.res), pct(regAt(reg, w)))
	flush()
}

func (fe *funcEmitter) mult(cmd ir.Command) {
	w := width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, w)))
	fe.printf("\timul%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src2, fe.res), pct(regAt(reg, w)))
	flush()
}

// divmod pins the dividend in RAX, sign- or zero-extends into RDX, and
// leaves the divisor in any other register (spec.md §4.7). RAX/RDX are
// reserved out of the allocator's pool entirely (see DESIGN.md), so this
// never clobbers a value some other live ILValue is depending on.
func (fe *funcEmitter) divmod(cmd ir.Command) {
	w := width(cmd.Dst)
	unsigned := cmd.Dst.Type.Unsigned
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt("rax", w)))
	if unsigned {
		fe.printf("\txor%s\t%s, %s\n", suffix(w), pct(regAt("rdx", w)), pct(regAt("rdx", w)))
	} else {
		switch w {
		case 8:
			fe.printf("\tcqto\n")
		default:
			fe.printf("\tcltd\n")
		}
	}
	divisor := fe.ensureReg(cmd.Src2, "r10")
	mnemonic := "idiv"
	if unsigned {
		mnemonic = "div"
	}
	fe.printf("\t%s%s\t%s\n", mnemonic, suffix(w), pct(regAt(divisor, w)))
	result := "rax"
	if cmd.Op == ir.MOD {
		result = "rdx"
	}
	dst := rvalueOperand(cmd.Dst, fe.res)
	if sp := fe.res.SpotOf(cmd.Dst); sp.Kind == regalloc.InRegister && sp.Reg == result {
		return
	}
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), pct(regAt(result, w)), dst)
}

// shift pins the count in CL (spec.md §4.7), an immediate shift count skips
// the load entirely.
func (fe *funcEmitter) shift(mnemonic string, cmd ir.Command) {
	w := width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, w)))
	if cmd.Src2.Class == ir.Literal {
		fe.printf("\t%s%s\t$%d, %s\n", mnemonic, suffix(w), cmd.Src2.Literal, pct(regAt(reg, w)))
	} else {
		cw := width(cmd.Src2)
		fe.printf("\tmov%s\t%s, %s\n", suffix(cw), rvalueOperand(cmd.Src2, fe.res), pct(regAt("rcx", cw)))
		fe.printf("\t%s%s\t%s, %s\n", mnemonic, suffix(w), pct("cl"), pct(regAt(reg, w)))
	}
	flush()
}

func (fe *funcEmitter) unary(mnemonic string, cmd ir.Command) {
	w := width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, w)))
	fe.printf("\t%s%s\t%s\n", mnemonic, suffix(w), pct(regAt(reg, w)))
	flush()
}

func (fe *funcEmitter) logicalNot(cmd ir.Command) {
	w := width(cmd.Src1)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tcmp%s\t$0, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res))
	fe.printf("\tsete\t%s\n", pct("r11b"))
	fe.printf("\tmovzbl\t%s, %s\n", pct("r11b"), pct(regAt(reg, 4)))
	flush()
}

var setcc = map[ir.Op]string{ir.EQ: "sete", ir.NEQ: "setne"}
var setccSigned = map[ir.Op]string{ir.LT: "setl", ir.LE: "setle", ir.GT: "setg", ir.GE: "setge"}
var setccUnsigned = map[ir.Op]string{ir.LT: "setb", ir.LE: "setbe", ir.GT: "seta", ir.GE: "setae"}

func (fe *funcEmitter) compare(cmd ir.Command) {
	w := width(cmd.Src1)
	lhs := fe.ensureReg(cmd.Src1, "r10")
	fe.printf("\tcmp%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src2, fe.res), pct(regAt(lhs, w)))
	var mnemonic string
	if m, ok := setcc[cmd.Op]; ok {
		mnemonic = m
	} else if cmd.Src1.Type.Unsigned {
		mnemonic = setccUnsigned[cmd.Op]
	} else {
		mnemonic = setccSigned[cmd.Op]
	}
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\t%s\t%s\n", mnemonic, pct(regAt("r11", 1)))
	fe.printf("\tmovzbl\t%s, %s\n", pct(regAt("r11", 1)), pct(regAt(reg, 4)))
	flush()
}

func (fe *funcEmitter) addrof(cmd ir.Command) {
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tleaq\t%s, %s\n", fe.addressMemOperand(cmd.Src1), pct(reg))
	flush()
}

func (fe *funcEmitter) readat(cmd ir.Command) {
	w := width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), fe.addressMemOperand(cmd.Src1), pct(regAt(reg, w)))
	flush()
}

func (fe *funcEmitter) setat(cmd ir.Command) {
	w := width(cmd.Src1)
	val := fe.ensureReg(cmd.Src1, "r10")
	fe.printf("\tmov%s\t%s, %s\n", suffix(w), pct(regAt(val, w)), fe.addressMemOperand(cmd.Dst))
}

func (fe *funcEmitter) pointerAdd(cmd ir.Command) {
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmovq\t%s, %s\n", rvalueOperand(cmd.Src1, fe.res), pct(reg))
	idx := fe.ensureReg(cmd.Src2, "r10")
	if cmd.Scale == 1 || cmd.Scale == 2 || cmd.Scale == 4 || cmd.Scale == 8 {
		fe.printf("\tleaq\t(%s,%s,%d), %s\n", pct(reg), pct(idx), cmd.Scale, pct(reg))
	} else {
		fe.printf("\timulq\t$%d, %s\n", cmd.Scale, pct(idx))
		fe.printf("\taddq\t%s, %s\n", pct(idx), pct(reg))
	}
	flush()
}

func (fe *funcEmitter) pointerSub(cmd ir.Command) {
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmovq\t%s, %s\n", rvalueOperand(cmd.Src1, fe.res), pct(reg))
	idx := fe.ensureReg(cmd.Src2, "r10")
	fe.printf("\timulq\t$%d, %s\n", cmd.Scale, pct(idx))
	fe.printf("\tsubq\t%s, %s\n", pct(idx), pct(reg))
	flush()
}

func (fe *funcEmitter) pointerDiff(cmd ir.Command) {
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	fe.printf("\tmovq\t%s, %s\n", rvalueOperand(cmd.Src1, fe.res), pct(reg))
	fe.printf("\tsubq\t%s, %s\n", rvalueOperand(cmd.Src2, fe.res), pct(reg))
	if cmd.Scale > 1 {
		fe.printf("\tmovq\t%s, %s\n", pct(reg), pct("rax"))
		fe.printf("\tcqto\n")
		fe.printf("\tmovq\t$%d, %s\n", cmd.Scale, pct("r10"))
		fe.printf("\tidivq\t%s\n", pct("r10"))
		fe.printf("\tmovq\t%s, %s\n", pct("rax"), pct(reg))
	}
	flush()
}

func (fe *funcEmitter) condJump(mnemonic string, cmd ir.Command) {
	w := width(cmd.Cond)
	fe.printf("\tcmp%s\t$0, %s\n", suffix(w), rvalueOperand(cmd.Cond, fe.res))
	fe.printf("\t%s\t%s\n", mnemonic, fe.label(cmd.LabelID))
}

func (fe *funcEmitter) ret(cmd ir.Command) {
	if cmd.Src1 != nil {
		w := width(cmd.Src1)
		fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(cmd.Src1, fe.res), pct(regAt("rax", w)))
	}
	fe.epilogue()
}

// set converts cmd.Src1 to cmd.Dst's width, using a real GNU-as mnemonic for
// each widening case: movzbl/movzwl/movzbq/movzwq for zero extension,
// movsbl/movswl/movsbq/movswq/movslq for sign extension. A 32-to-64 unsigned
// widen needs no extension instruction at all: writing a 32-bit register
// form already zero-fills the upper 32 bits (spec.md §4.7).
func (fe *funcEmitter) set(cmd ir.Command) {
	srcW, dstW := width(cmd.Src1), width(cmd.Dst)
	reg, flush := fe.dstWorkReg(cmd.Dst, "r11")
	switch {
	case dstW <= srcW:
		fe.printf("\tmov%s\t%s, %s\n", suffix(dstW), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, dstW)))
	case cmd.Dst.Type.Unsigned && dstW == 8 && srcW == 4:
		fe.printf("\tmovl\t%s, %s\n", rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, 4)))
	case !cmd.Dst.Type.Unsigned && dstW == 8 && srcW == 4:
		fe.printf("\tmovslq\t%s, %s\n", rvalueOperand(cmd.Src1, fe.res), pct(reg))
	case cmd.Dst.Type.Unsigned:
		fe.printf("\tmovz%s%s\t%s, %s\n", suffix(srcW), suffix(dstW), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, dstW)))
	default:
		fe.printf("\tmovs%s%s\t%s, %s\n", suffix(srcW), suffix(dstW), rvalueOperand(cmd.Src1, fe.res), pct(regAt(reg, dstW)))
	}
	flush()
}

func (fe *funcEmitter) zero(cmd ir.Command) {
	addr := fe.ensureReg(cmd.Dst, "r11")
	fe.printf("\txorq\t%s, %s\n", pct("rax"), pct("rax"))
	for off := int64(0); off < cmd.Size; off += 8 {
		fe.printf("\tmovq\t%s, %d(%s)\n", pct("rax"), off, pct(addr))
	}
}

// call pushes the caller-saved registers the allocator found live across
// this CALL (spec.md §4.6's CallClobbers), marshals Args into the SysV
// integer argument registers and (for the 7th argument onward) the stack,
// and restores the clobbered registers afterward. A direct call to a known
// function label skips materializing the callee address into a register
// at all; an indirect call (a function pointer value) goes through one.
func (fe *funcEmitter) call(i int, cmd ir.Command) {
	clobbers := fe.res.CallClobbers[i]
	for _, r := range clobbers {
		fe.printf("\tpushq\t%s\n", pct(r))
	}

	var stackArgs []*ir.Value
	for idx, a := range cmd.Args {
		if idx < len(paramRegs) {
			w := width(a)
			fe.printf("\tmov%s\t%s, %s\n", suffix(w), rvalueOperand(a, fe.res), pct(regAt(paramRegs[idx], w)))
		} else {
			stackArgs = append(stackArgs, a)
		}
	}
	oddParity := (len(clobbers)+len(stackArgs))%2 != 0
	if oddParity {
		fe.printf("\tsubq\t$8, %s\n", pct("rsp"))
	}
	for idx := len(stackArgs) - 1; idx >= 0; idx-- {
		a := stackArgs[idx]
		fe.printf("\txorq\t%s, %s\n", pct("r10"), pct("r10"))
		fe.printf("\tmov%s\t%s, %s\n", suffix(width(a)), rvalueOperand(a, fe.res), pct(regAt("r10", width(a))))
		fe.printf("\tpushq\t%s\n", pct("r10"))
	}

	if cmd.Callee.Class == ir.Named && cmd.Callee.Label != "" {
		fe.printf("\tcall\t%s\n", cmd.Callee.Label)
	} else {
		reg := fe.ensureReg(cmd.Callee, "r11")
		fe.printf("\tcall\t*%s\n", pct(reg))
	}

	stackBytes := int64(len(stackArgs)) * 8
	if oddParity {
		stackBytes += 8
	}
	if stackBytes > 0 {
		fe.printf("\taddq\t$%d, %s\n", stackBytes, pct("rsp"))
	}

	if cmd.Dst != nil {
		w := width(cmd.Dst)
		dst := rvalueOperand(cmd.Dst, fe.res)
		if sp := fe.res.SpotOf(cmd.Dst); !(sp.Kind == regalloc.InRegister && sp.Reg == "rax") {
			fe.printf("\tmov%s\t%s, %s\n", suffix(w), pct(regAt("rax", w)), dst)
		}
	}

	for idx := len(clobbers) - 1; idx >= 0; idx-- {
		fe.printf("\tpopq\t%s\n", pct(clobbers[idx]))
	}
}

func (fe *funcEmitter) structCopy(cmd ir.Command) {
	src := fe.ensureReg(cmd.Src1, "r10")
	dst := fe.ensureReg(cmd.Dst, "r11")
	for off := int64(0); off < cmd.Size; off += 8 {
		fe.printf("\tmovq\t%d(%s), %s\n", off, pct(src), pct("rax"))
		fe.printf("\tmovq\t%s, %d(%s)\n", pct("rax"), off, pct(dst))
	}
}
