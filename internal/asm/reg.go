// Package asm implements spec.md §4.7's assembly emitter: one x86-64 AT&T
// instruction sequence per IL command, driven entirely by the register
// allocator's Spot map (the emitter itself never chooses where a value
// lives). Grounded in the instruction-template shape of
// cmd_local/compile/internal/x86's ssaGenValue, adapted from SSA values to
// this compiler's flat ILValue stream, and in the section/prologue
// conventions of cmd_local/link's output for .text/.data/.bss/.rodata.
package asm

import "fmt"

// regWidths maps a register's 64-bit AT&T name to its 32/16/8-bit forms, so
// a single Spot.Reg can be rendered at whatever width an IL value's type
// calls for (spec.md §4.7: "operand-size suffix is selected from the IL
// value's type width").
var regWidths = map[string][4]string{
	"rax": {"rax", "eax", "ax", "al"},
	"rbx": {"rbx", "ebx", "bx", "bl"},
	"rcx": {"rcx", "ecx", "cx", "cl"},
	"rdx": {"rdx", "edx", "dx", "dl"},
	"rsi": {"rsi", "esi", "si", "sil"},
	"rdi": {"rdi", "edi", "di", "dil"},
	"r8":  {"r8", "r8d", "r8w", "r8b"},
	"r9":  {"r9", "r9d", "r9w", "r9b"},
	"r10": {"r10", "r10d", "r10w", "r10b"},
	"r11": {"r11", "r11d", "r11w", "r11b"},
	"r12": {"r12", "r12d", "r12w", "r12b"},
	"r13": {"r13", "r13d", "r13w", "r13b"},
	"r14": {"r14", "r14d", "r14w", "r14b"},
	"r15": {"r15", "r15d", "r15w", "r15b"},
}

// regAt renders reg at the given byte width (1, 2, 4, or 8).
func regAt(reg string, width int64) string {
	forms, ok := regWidths[reg]
	if !ok {
		return reg
	}
	switch width {
	case 1:
		return forms[3]
	case 2:
		return forms[2]
	case 4:
		return forms[1]
	default:
		return forms[0]
	}
}

// suffix returns the AT&T mnemonic size suffix for a byte width.
func suffix(width int64) string {
	switch width {
	case 1:
		return "b"
	case 2:
		return "w"
	case 4:
		return "l"
	default:
		return "q"
	}
}

// paramRegs lists the SysV AMD64 integer-class argument registers in order
// (spec.md §4.7/§6).
var paramRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

func pct(s string) string { return fmt.Sprintf("%%%s", s) }
