// Command minicc compiles a single C11-subset translation unit to x86-64
// assembly, and optionally assembles and links it, following spec.md §6's
// driver contract. Grounded in cmd_local/compile/main.go and
// cmd_local/asm/main.go's flag-table-plus-single-pipeline shape: a fixed set
// of flags resolved up front, diagnostics routed through one collector, and
// an exit status read back from that collector rather than scattered
// os.Exit calls.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"minicc/internal/asm"
	"minicc/internal/ast"
	"minicc/internal/buildcache"
	"minicc/internal/disasm"
	"minicc/internal/errs"
	"minicc/internal/ir"
	"minicc/internal/lexer"
	"minicc/internal/lower"
	"minicc/internal/profile"
	"minicc/internal/sysrun"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("minicc: ")

	var (
		outPath      = flag.String("o", "a.out", "output file")
		asmOnly      = flag.Bool("S", false, "emit assembly only, do not assemble or link")
		compileOnly  = flag.Bool("c", false, "assemble only, do not link")
		cpuProfile   = flag.String("cpuprofile", "", "write a CPU profile of the compiler to this file")
		memProfile   = flag.String("memprofile", "", "write a memory profile of the compiler to this file")
		dumpIR       = flag.Bool("dumpir", false, "print the IL before register allocation")
		strictFnPtr  = flag.Bool("strict-fn-ptr", false, "reject function-pointer assignments with mismatched parameter lists")
		disasmOutput = flag.Bool("disasm", false, "after linking, print a disassembly of the .text section")
		useCache     = flag.Bool("cache", true, "skip recompiling when a fresh assembly file already exists for this source")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minicc [flags] file.c")
		flag.PrintDefaults()
		os.Exit(2)
	}
	srcPath := flag.Arg(0)

	sess, err := profile.StartCPU(*cpuProfile)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Stop()
	defer func() {
		if err := profile.WriteHeap(*memProfile); err != nil {
			log.Fatal(err)
		}
	}()

	asmPath := *outPath + ".s"
	if *asmOnly {
		asmPath = *outPath
	}

	exitStatus := 0
	if *useCache && cachedAssemblyFresh(asmPath, srcPath) {
		log.Printf("reusing cached assembly for %s (buildcache.Version %s)", srcPath, buildcache.Version)
	} else {
		diags := errs.New()
		mod := compile(srcPath, diags, lower.Config{StrictFnPtr: *strictFnPtr}, *dumpIR)
		diags.Emit()
		if diags.HasErrors() {
			os.Exit(diags.ExitStatus())
		}
		if err := writeAssembly(asmPath, srcPath, mod); err != nil {
			log.Fatal(err)
		}
		exitStatus = diags.ExitStatus()
	}
	if *asmOnly {
		os.Exit(exitStatus)
	}

	objPath := *outPath + ".o"
	if *compileOnly {
		objPath = *outPath
	}
	if _, err := sysrun.Assemble(asmPath, objPath); err != nil {
		log.Fatal(err)
	}
	if *compileOnly {
		return
	}

	if _, err := sysrun.Link(*outPath, []string{objPath}); err != nil {
		log.Fatal(err)
	}

	if *disasmOutput {
		lines, err := disasm.File(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(disasm.Format(lines))
	}

	os.Exit(exitStatus)
}

// cachedAssemblyFresh reports whether asmPath already holds output for
// srcPath's current contents, stamped by this compiler version or an older
// compatible one.
func cachedAssemblyFresh(asmPath, srcPath string) bool {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return false
	}
	return buildcache.Fresh(asmPath, buildcache.ID(src))
}

func compile(srcPath string, diags *errs.Collector, cfg lower.Config, dumpIR bool) *ir.Module {
	lx, err := lexer.New(srcPath, diags)
	if err != nil {
		log.Fatal(err)
	}
	p := ast.NewParser(lx, diags)
	prog := p.Parse()
	if diags.HasErrors() {
		return nil
	}

	mod := lower.Compile(prog, diags, cfg)
	if dumpIR {
		dumpModule(mod)
	}
	return mod
}

// dumpModule prints every function's command stream before register
// allocation touches it, for -dumpir.
func dumpModule(mod *ir.Module) {
	if mod == nil {
		return
	}
	for _, f := range mod.Funcs {
		fmt.Fprintf(os.Stderr, "func %s:\n", f.Name)
		for i, c := range f.Commands {
			fmt.Fprintf(os.Stderr, "  %3d: %+v\n", i, c)
		}
	}
}

func writeAssembly(asmPath, srcPath string, mod *ir.Module) error {
	if mod == nil {
		return fmt.Errorf("minicc: no module to emit")
	}
	f, err := os.Create(asmPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if src, err := os.ReadFile(srcPath); err == nil {
		fmt.Fprint(w, buildcache.Comment(buildcache.ID(src)))
	}
	if err := asm.EmitModule(w, mod); err != nil {
		return err
	}
	return w.Flush()
}
