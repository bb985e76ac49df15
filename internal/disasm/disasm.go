// Package disasm implements the -disasm debug companion to -S
// (SPEC_FULL.md §A.5): it reads back the linked ELF binary's .text section
// and decodes it with golang.org/x/arch/x86/x86asm, printing an
// objdump-style annotated listing. Grounded in the teacher's cmd_local/objdump
// command, which performs the analogous job for arbitrary Go-toolchain
// binaries; this package narrows that to the one architecture minicc targets
// and is called only by the cmd/minicc driver, after linking, when -disasm
// is given.
package disasm

import (
	"debug/elf"
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded instruction, offset from the start of .text.
type Line struct {
	Offset int
	Text   string
}

// File decodes the .text section of the ELF binary at path.
func File(path string) ([]Line, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("disasm: open %s: %w", path, err)
	}
	defer f.Close()

	text := f.Section(".text")
	if text == nil {
		return nil, fmt.Errorf("disasm: %s has no .text section", path)
	}
	code, err := text.Data()
	if err != nil {
		return nil, fmt.Errorf("disasm: read .text: %w", err)
	}
	return Decode(code), nil
}

// Decode disassembles a raw x86-64 instruction stream, stopping at the
// first undecodable byte (padding or the section's end).
func Decode(code []byte) []Line {
	var lines []Line
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil || inst.Len == 0 {
			break
		}
		lines = append(lines, Line{Offset: off, Text: x86asm.GNUSyntax(inst, 0, nil)})
		off += inst.Len
	}
	return lines
}

// Format renders lines as an objdump-style annotated listing.
func Format(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%6x:\t%s\n", l.Offset, l.Text)
	}
	return b.String()
}
