package asm

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"minicc/internal/ir"
	"minicc/internal/sym"
	"minicc/internal/types"
)

func fixedParam(f *ir.Func, t *types.Type) *ir.Value {
	v := f.NewLocal(types.NewPointer(t), true)
	v.Fixed = true
	return v
}

func TestEmitFuncAddParams(t *testing.T) {
	f := ir.NewFunc("add", types.Int)
	aAddr := fixedParam(f, types.Int)
	bAddr := fixedParam(f, types.Int)
	f.Params = []*ir.Value{aAddr, bAddr}

	a := f.NewLocal(types.Int, false)
	b := f.NewLocal(types.Int, false)
	sum := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.READAT, Dst: a, Src1: aAddr})
	f.Emit(ir.Command{Op: ir.READAT, Dst: b, Src1: bAddr})
	f.Emit(ir.Command{Op: ir.ADD, Dst: sum, Src1: a, Src2: b})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: sum})

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	emitFunc(w, f)
	w.Flush()
	out := buf.String()

	if !strings.Contains(out, "add:") {
		t.Error("expected a label for the function entry")
	}
	if !strings.Contains(out, "pushq\t%rbp") || !strings.Contains(out, "movq\t%rsp, %rbp") {
		t.Error("expected a standard prologue")
	}
	if !strings.Contains(out, "leave") || !strings.Contains(out, "ret") {
		t.Error("expected a standard epilogue")
	}
	if !strings.Contains(out, "addl") && !strings.Contains(out, "addq") {
		t.Error("expected an integer add instruction")
	}
}

func TestEmitFuncDivUsesRaxRdx(t *testing.T) {
	f := ir.NewFunc("quot", types.Int)
	aAddr := fixedParam(f, types.Int)
	bAddr := fixedParam(f, types.Int)
	f.Params = []*ir.Value{aAddr, bAddr}

	a := f.NewLocal(types.Int, false)
	b := f.NewLocal(types.Int, false)
	q := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.READAT, Dst: a, Src1: aAddr})
	f.Emit(ir.Command{Op: ir.READAT, Dst: b, Src1: bAddr})
	f.Emit(ir.Command{Op: ir.DIV, Dst: q, Src1: a, Src2: b})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: q})

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	emitFunc(w, f)
	w.Flush()
	out := buf.String()

	if !strings.Contains(out, "cltd") && !strings.Contains(out, "cqto") {
		t.Error("signed division must sign-extend the dividend into edx/rdx")
	}
	if !strings.Contains(out, "idiv") {
		t.Error("expected idiv for a signed division")
	}
}

func TestEmitFuncCallMarshalsArgs(t *testing.T) {
	f := ir.NewFunc("caller", types.Int)
	callee := &sym.Symbol{Name: "helper", Linkage: sym.External, GlobalLabel: "helper"}
	calleeVal := f.NewNamed(types.NewPointer(types.Int), callee, "helper")
	calleeVal.IsLvalueLocation = false

	one := f.NewLiteral(types.Int, 1)
	two := f.NewLiteral(types.Int, 2)
	result := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.CALL, Dst: result, Callee: calleeVal, Args: []*ir.Value{one, two}})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: result})

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	emitFunc(w, f)
	w.Flush()
	out := buf.String()

	if !strings.Contains(out, "call\thelper") {
		t.Error("a direct call to a named function should address it by label")
	}
	if !strings.Contains(out, "%edi") && !strings.Contains(out, "%rdi") {
		t.Error("the first argument should land in the first SysV integer argument register")
	}
}

func TestEmitModuleSplitsDataAndBSS(t *testing.T) {
	initialized := &ir.GlobalVar{Label: "counter", Type: types.Int, Linkage: sym.External, HasInit: true, InitValue: 7}
	tentative := &ir.GlobalVar{Label: "buffer", Type: types.Int, Linkage: sym.Internal, HasInit: false}
	mod := &ir.Module{Globals: []*ir.GlobalVar{initialized, tentative}}

	var buf bytes.Buffer
	if err := EmitModule(&buf, mod); err != nil {
		t.Fatalf("EmitModule failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, ".data") {
		t.Error("expected a .data section for the initialized global")
	}
	if !strings.Contains(out, ".bss") {
		t.Error("expected a .bss section for the tentative global")
	}
	if !strings.Contains(out, "counter:") || !strings.Contains(out, "buffer:") {
		t.Error("expected both globals' labels")
	}
}

func TestEmitModuleStringLiterals(t *testing.T) {
	mod := &ir.Module{Strings: []ir.StringLiteral{{Label: ".LC0", Bytes: []byte("hi")}}}

	var buf bytes.Buffer
	if err := EmitModule(&buf, mod); err != nil {
		t.Fatalf("EmitModule failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, ".rodata") {
		t.Error("expected a .rodata section for string literals")
	}
	if !strings.Contains(out, ".LC0:") {
		t.Error("expected the string literal's label")
	}
}
