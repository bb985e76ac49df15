package lexer

import (
	"os"
	"path/filepath"
	"testing"

	"minicc/internal/errs"
	"minicc/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "t.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	diags := errs.New()
	lx, err := New(path, diags)
	if err != nil {
		t.Fatal(err)
	}
	var toks []token.Token
	for {
		tk := lx.Next()
		toks = append(toks, tk)
		if tk.Kind == token.EOF {
			break
		}
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", diags.Diagnostics())
	}
	return toks
}

func TestStripsLineComment(t *testing.T) {
	toks := lexAll(t, "int x; // comment\nint y;")
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.KwInt {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 'int' keywords, got %d", count)
	}
}

func TestStripsBlockComment(t *testing.T) {
	toks := lexAll(t, "int /* block \n comment */ x;")
	if toks[0].Kind != token.KwInt || toks[1].Kind != token.Ident || toks[1].Text != "x" {
		t.Errorf("unexpected tokens: %v", toks[:2])
	}
}

func TestIntegerSuffixes(t *testing.T) {
	toks := lexAll(t, "42 42u 42L 42ul")
	for i, want := range []string{"42", "42u", "42L", "42ul"} {
		if toks[i].Kind != token.IntLit || toks[i].Text != want {
			t.Errorf("token %d = %+v, want IntLit %q", i, toks[i], want)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	toks := lexAll(t, `"hello\n"`)
	if toks[0].Kind != token.StringLit {
		t.Fatalf("expected StringLit, got %+v", toks[0])
	}
	if toks[0].Text != `hello\n` {
		t.Errorf("text = %q, want %q", toks[0].Text, `hello\n`)
	}
}

func TestIncludeQuoted(t *testing.T) {
	dir := t.TempDir()
	headerPath := filepath.Join(dir, "h.h")
	if err := os.WriteFile(headerPath, []byte("int included;"), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "main.c")
	if err := os.WriteFile(mainPath, []byte(`#include "h.h"
int main;`), 0o644); err != nil {
		t.Fatal(err)
	}
	diags := errs.New()
	lx, err := New(mainPath, diags)
	if err != nil {
		t.Fatal(err)
	}
	var idents []string
	for {
		tk := lx.Next()
		if tk.Kind == token.EOF {
			break
		}
		if tk.Kind == token.Ident {
			idents = append(idents, tk.Text)
		}
	}
	if len(idents) != 2 || idents[0] != "included" || idents[1] != "main" {
		t.Errorf("idents = %v, want [included main]", idents)
	}
}

func TestOperatorMaximalMunch(t *testing.T) {
	toks := lexAll(t, "a <<= b")
	if toks[1].Kind != token.ShlEq {
		t.Errorf("expected ShlEq, got %+v", toks[1])
	}
}
