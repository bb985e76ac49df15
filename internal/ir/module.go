package ir

import (
	"minicc/internal/sym"
	"minicc/internal/types"
)

// GlobalVar is a file-scope object's static storage, as decided by the
// lowerer from a Symbol's linkage/definition-state (spec.md §3, §4.2).
// Tentative objects with no initializer go to .bss; everything else with a
// constant initializer goes to .data; spec.md §6 assigns this section split
// to the emitter.
type GlobalVar struct {
	Symbol    *sym.Symbol
	Label     string
	Type      *types.Type
	Linkage   sym.Linkage
	HasInit   bool
	InitValue int64  // meaningful iff HasInit && Type.IsInteger()/Pointer
	InitLabel string // meaningful iff the initializer is itself a label reference (e.g. &other_global)
}

// StringLiteral is one piece of read-only static data, named by
// StringLiteralStorage-class Values (spec.md §4.3).
type StringLiteral struct {
	Label string
	Bytes []byte
}

// Module is the output of lowering an entire translation unit: every
// function's IL plus the file-scope data the emitter must lay out in
// .data/.bss/.rodata (spec.md §6).
type Module struct {
	Funcs   []*Func
	Globals []*GlobalVar
	Strings []StringLiteral
}
