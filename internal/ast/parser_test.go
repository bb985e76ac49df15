package ast

import (
	"os"
	"path/filepath"
	"testing"

	"minicc/internal/errs"
	"minicc/internal/lexer"
	"minicc/internal/types"
)

func parse(t *testing.T, src string) (*Program, *errs.Collector) {
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
	p := NewParser(lx, diags)
	return p.Parse(), diags
}

func TestParseSimpleMain(t *testing.T) {
	prog, diags := parse(t, `int main(){int a=5,b=10;int c=a+b;if(c!=15)return 1;return 0;}`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	fd, ok := prog.Decls[0].(*FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", prog.Decls[0])
	}
	if fd.Name != "main" {
		t.Errorf("name = %q, want main", fd.Name)
	}
	if len(fd.Body.Items) != 4 {
		t.Errorf("expected 4 statements in body, got %d", len(fd.Body.Items))
	}
}

func TestParseArrayDeclAndSubscript(t *testing.T) {
	prog, diags := parse(t, `int a[5]; int f(){return a[2];}`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	vd := prog.Decls[0].(*VarDecl)
	if vd.Type.Kind != types.Array || vd.Type.Len != 5 {
		t.Errorf("unexpected array type: %s", vd.Type)
	}
}

func TestParseFunctionPointer(t *testing.T) {
	prog, diags := parse(t, `int isalpha(int);
int main(){ int (*f)(int) = isalpha; return f(65); }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	fd := prog.Decls[1].(*FuncDecl)
	decl := fd.Body.Items[0].(*DeclStmt)
	v := decl.Decls[0]
	if v.Type.Kind != types.Pointer || v.Type.Elem.Kind != types.Function {
		t.Errorf("expected function-pointer type, got %s", v.Type)
	}
}

func TestParseStructNested(t *testing.T) {
	prog, diags := parse(t, `struct Inner { long a; int b; };
struct Outer { struct Inner in; long c; int d; };
struct Outer o;`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	vd := prog.Decls[len(prog.Decls)-1].(*VarDecl)
	if vd.Type.Kind != types.StructOrUnion {
		t.Fatalf("expected struct type, got %s", vd.Type)
	}
	if types.Size(vd.Type) != 32 {
		t.Errorf("struct Outer size = %d, want 32", types.Size(vd.Type))
	}
}

func TestParseStaticLocal(t *testing.T) {
	prog, diags := parse(t, `int counter(){ static int i; return i++; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	fd := prog.Decls[0].(*FuncDecl)
	decl := fd.Body.Items[0].(*DeclStmt)
	if !decl.Decls[0].IsStatic {
		t.Error("expected static local declaration")
	}
}

func TestParseForLoop(t *testing.T) {
	_, diags := parse(t, `int main(){ int s=0; for(int i=0;i<5;i++) s=s+i; return s; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
}

func TestParseTernaryAndLogical(t *testing.T) {
	_, diags := parse(t, `int main(){ int a=1,b=2; return (a && b) ? a : b; }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
}

func TestParseSizeofType(t *testing.T) {
	prog, diags := parse(t, `int main(){ return sizeof(int); }`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}
	fd := prog.Decls[0].(*FuncDecl)
	ret := fd.Body.Items[0].(*ReturnStmt)
	sz, ok := ret.X.(*SizeofExpr)
	if !ok || sz.OperandType != types.Int {
		t.Errorf("expected sizeof(int), got %#v", ret.X)
	}
}
