package asm

import (
	"bufio"
	"fmt"

	"minicc/internal/ir"
	"minicc/internal/regalloc"
)

type funcEmitter struct {
	w   *bufio.Writer
	res *regalloc.Result
	f   *ir.Func
}

func (fe *funcEmitter) printf(format string, args ...interface{}) {
	fmt.Fprintf(fe.w, format, args...)
}

func (fe *funcEmitter) label(id int) string {
	return fmt.Sprintf(".L%s_%d", fe.f.Name, id)
}

// emitFunc allocates f's registers/frame and writes its complete assembly
// body (spec.md §4.7).
func emitFunc(w *bufio.Writer, f *ir.Func) {
	res := regalloc.Allocate(f)
	fe := &funcEmitter{w: w, res: res, f: f}

	fe.printf("\t.text\n\t.globl\t%s\n\t.type\t%s, @function\n%s:\n", f.Name, f.Name, f.Name)
	fe.prologue()
	for i, cmd := range f.Commands {
		fe.emitCommand(i, cmd)
	}
	fe.printf("\t.size\t%s, .-%s\n", f.Name, f.Name)
}

func (fe *funcEmitter) prologue() {
	fe.printf("\tpushq\t%s\n\tmovq\t%s, %s\n", pct("rbp"), pct("rsp"), pct("rbp"))
	for _, r := range fe.res.CalleeSaved {
		fe.printf("\tpushq\t%s\n", pct(r))
	}
	if fe.res.FrameSize > 0 {
		fe.printf("\tsubq\t$%d, %s\n", fe.res.FrameSize, pct("rsp"))
	}
	for i, p := range fe.f.Params {
		w := widthOfType(p.Type.Elem)
		dst := fe.addressMemOperand(p)
		if i < len(paramRegs) {
			fe.printf("\tmov%s\t%s, %s\n", suffix(w), pct(regAt(paramRegs[i], w)), dst)
			continue
		}
		off := int64(16 + 8*(i-len(paramRegs)))
		fe.printf("\tmov%s\t%d(%s), %s\n", suffix(8), off, pct("rbp"), pct("r11"))
		fe.printf("\tmov%s\t%s, %s\n", suffix(w), pct(regAt("r11", w)), dst)
	}
}

func (fe *funcEmitter) epilogue() {
	for i := len(fe.res.CalleeSaved) - 1; i >= 0; i-- {
		fe.printf("\tpopq\t%s\n", pct(fe.res.CalleeSaved[i]))
	}
	fe.printf("\tleave\n\tret\n")
}

