package lower

import (
	"os"
	"path/filepath"
	"testing"

	"minicc/internal/ast"
	"minicc/internal/errs"
	"minicc/internal/ir"
	"minicc/internal/lexer"
)

func compile(t *testing.T, src string) (*ir.Module, *errs.Collector) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "t.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	diags := errs.New()
	lx, err := lexer.New(path, diags)
	if err != nil {
		t.Fatal(err)
	}
	p := ast.NewParser(lx, diags)
	prog := p.Parse()
	mod := Compile(prog, diags, Config{})
	return mod, diags
}

func findFunc(mod *ir.Module, name string) *ir.Func {
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func countOp(f *ir.Func, op ir.Op) int {
	n := 0
	for _, c := range f.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestLowerSimpleArithmeticMain(t *testing.T) {
	mod, diags := compile(t, `int main(){int a=5,b=10;int c=a+b;if(c!=15)return 1;return 0;}`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if main == nil {
		t.Fatal("main not found")
	}
	if countOp(main, ir.RETURN) != 2 {
		t.Errorf("expected 2 RETURN commands, got %d", countOp(main, ir.RETURN))
	}
	if countOp(main, ir.ADD) != 1 {
		t.Errorf("expected 1 ADD command, got %d", countOp(main, ir.ADD))
	}
}

func TestLowerArraySumLoop(t *testing.T) {
	mod, diags := compile(t, `int main(){int a[5]; int s=0; for(int i=0;i<5;i=i+1) s=s+a[i]; return s;}`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if countOp(main, ir.POINTER_ADD) == 0 {
		t.Error("expected POINTER_ADD for array indexing")
	}
	if countOp(main, ir.JUMP_ZERO) == 0 {
		t.Error("expected JUMP_ZERO for loop condition")
	}
}

func TestLowerSizeofNestedStruct(t *testing.T) {
	mod, diags := compile(t, `struct Inner { long a; int b; };
struct Outer { struct Inner in; long c; int d; };
int main(){ return sizeof(struct Outer); }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	ret := main.Commands[len(main.Commands)-1]
	// The unsigned long sizeof literal reaches the int return through a
	// converting SET; follow it back to the literal.
	v := ret.Src1
	for _, c := range main.Commands {
		if c.Op == ir.SET && c.Dst == v {
			v = c.Src1
		}
	}
	if ret.Op != ir.RETURN || v.Class != ir.Literal || v.Literal != 32 {
		t.Errorf("expected sizeof(struct Outer) == 32, got %+v", ret)
	}
}

func TestLowerFunctionPointerCall(t *testing.T) {
	mod, diags := compile(t, `int isalpha(int);
int main(){ int (*f)(int) = isalpha; return f(65); }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if countOp(main, ir.CALL) != 1 {
		t.Errorf("expected 1 CALL, got %d", countOp(main, ir.CALL))
	}
}

func TestLowerStaticLocalCounter(t *testing.T) {
	mod, diags := compile(t, `int counter(){ static int i; return i++; }
int main(){ return counter() + counter(); }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	if len(mod.Globals) != 1 {
		t.Fatalf("expected 1 global for the static local, got %d", len(mod.Globals))
	}
	if mod.Globals[0].Label == "i" {
		t.Errorf("static local label should be disambiguated by function, got %q", mod.Globals[0].Label)
	}
}

func TestLowerShortCircuitAnd(t *testing.T) {
	mod, diags := compile(t, `int main(){ int a=1,b=0; return a && b; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if countOp(main, ir.JUMP_ZERO) < 2 {
		t.Error("expected short-circuit && to emit at least 2 JUMP_ZERO")
	}
}

func TestLowerTernary(t *testing.T) {
	mod, diags := compile(t, `int main(){ int a=1,b=2; return a ? a : b; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if countOp(main, ir.SETAT) == 0 {
		t.Error("expected ternary to produce SETAT stores into its result slot")
	}
}

func TestLowerGotoLabel(t *testing.T) {
	_, diags := compile(t, `int main(){ int i=0; again: i=i+1; if(i<3) goto again; return i; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
}

func TestLowerStructMemberAssign(t *testing.T) {
	mod, diags := compile(t, `struct P { int x; int y; };
int main(){ struct P p; p.x = 1; p.y = p.x + 2; return p.y; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	main := findFunc(mod, "main")
	if countOp(main, ir.POINTER_ADD) < 2 {
		t.Error("expected member access to go through POINTER_ADD for offset")
	}
}

func TestLowerUndeclaredIdentReportsError(t *testing.T) {
	_, diags := compile(t, `int main(){ return undeclared_name; }`)
	if !diags.HasErrors() {
		t.Fatal("expected an error for undeclared identifier")
	}
}
