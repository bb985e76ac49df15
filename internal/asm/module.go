package asm

import (
	"bufio"
	"fmt"
	"io"

	"minicc/internal/ir"
	"minicc/internal/sym"
	"minicc/internal/types"
)

// EmitModule writes a complete AT&T-syntax assembly file for m: every
// function's body, the rodata string pool, and the split of file-scope
// objects across .data/.bss (spec.md §6). The gas/ld toolchain consumes the
// result directly; nothing here depends on the Go assembler.
func EmitModule(w io.Writer, m *ir.Module) error {
	bw := bufio.NewWriter(w)

	for _, f := range m.Funcs {
		emitFunc(bw, f)
	}

	emitData(bw, m.Globals)
	emitBSS(bw, m.Globals)
	emitRodata(bw, m.Strings)

	return bw.Flush()
}

func emitData(w *bufio.Writer, globals []*ir.GlobalVar) {
	first := true
	for _, g := range globals {
		if !g.HasInit {
			continue
		}
		if first {
			fprintf(w, "\t.data\n")
			first = false
		}
		emitGlobalHeader(w, g)
		if g.InitLabel != "" {
			fprintf(w, "\t.quad\t%s\n", g.InitLabel)
			continue
		}
		fprintf(w, "\t%s\t%d\n", dataDirective(widthOfType(g.Type)), g.InitValue)
	}
}

func emitBSS(w *bufio.Writer, globals []*ir.GlobalVar) {
	first := true
	for _, g := range globals {
		if g.HasInit {
			continue
		}
		if first {
			fprintf(w, "\t.bss\n")
			first = false
		}
		emitGlobalHeader(w, g)
		fprintf(w, "\t.zero\t%d\n", types.Size(g.Type))
	}
}

func emitGlobalHeader(w *bufio.Writer, g *ir.GlobalVar) {
	if g.Linkage == sym.External {
		fprintf(w, "\t.globl\t%s\n", g.Label)
	}
	fprintf(w, "\t.align\t%d\n%s:\n", types.Align(g.Type), g.Label)
}

func emitRodata(w *bufio.Writer, strs []ir.StringLiteral) {
	if len(strs) == 0 {
		return
	}
	fprintf(w, "\t.section\t.rodata\n")
	for _, s := range strs {
		fprintf(w, "%s:\n\t.string\t%q\n", s.Label, string(s.Bytes))
	}
}

func dataDirective(width int64) string {
	switch width {
	case 1:
		return ".byte"
	case 2:
		return ".word"
	case 4:
		return ".long"
	default:
		return ".quad"
	}
}

func fprintf(w *bufio.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}
