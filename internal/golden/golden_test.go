// Package golden drives the spec.md §8 end-to-end scenarios from checked-in
// txtar fixtures, the same testdata-driven style the teacher's own
// go/internal/modload and go/internal/vcs packages use (SPEC_FULL.md §A.7).
// Each fixture bundles a translation unit and its expected outcome; this
// test exercises the front half of the pipeline (lex, parse, lower) that
// runs without shelling out to an assembler or linker, since this exercise
// never invokes one.
package golden

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"minicc/internal/ast"
	"minicc/internal/errs"
	"minicc/internal/lexer"
	"minicc/internal/lower"
)

type fixture struct {
	source       string
	wantExitCode int
}

func loadFixture(t *testing.T, path string) fixture {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("parse fixture %s: %v", path, err)
	}

	var f fixture
	for _, file := range ar.Files {
		switch file.Name {
		case "main.c":
			f.source = string(file.Data)
		case "expect.txt":
			line := strings.TrimSpace(string(file.Data))
			if !strings.HasPrefix(line, "exit:") {
				t.Fatalf("%s: expect.txt missing exit: prefix", path)
			}
			code := strings.TrimPrefix(line, "exit:")
			n, err := strconv.Atoi(strings.TrimSpace(code))
			if err != nil {
				t.Fatalf("%s: bad exit code: %v", path, err)
			}
			f.wantExitCode = n
		}
	}
	if f.source == "" {
		t.Fatalf("%s: no main.c file in fixture", path)
	}
	return f
}

func compileFixture(t *testing.T, f fixture) *errs.Collector {
	t.Helper()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "main.c")
	if err := os.WriteFile(srcPath, []byte(f.source), 0o644); err != nil {
		t.Fatalf("write fixture source: %v", err)
	}

	diags := errs.New()
	lx, err := lexer.New(srcPath, diags)
	if err != nil {
		t.Fatalf("lexer.New: %v", err)
	}
	p := ast.NewParser(lx, diags)
	prog := p.Parse()
	if diags.HasErrors() {
		return diags
	}
	lower.Compile(prog, diags, lower.Config{})
	return diags
}

func TestScenario1StraightLineArithmetic(t *testing.T) {
	f := loadFixture(t, filepath.Join("..", "..", "testdata", "scenario1_arith.txtar"))
	if f.wantExitCode != 0 {
		t.Fatalf("fixture expects nonzero exit %d, scenario 1 must succeed", f.wantExitCode)
	}
	diags := compileFixture(t, f)
	if diags.HasErrors() {
		for _, d := range diags.Diagnostics() {
			t.Error(d.String())
		}
	}
}

func TestScenario6StaticLocalsLowerIndependently(t *testing.T) {
	f := loadFixture(t, filepath.Join("..", "..", "testdata", "scenario6_static_local.txtar"))
	diags := compileFixture(t, f)
	if diags.HasErrors() {
		for _, d := range diags.Diagnostics() {
			t.Error(d.String())
		}
	}
}
