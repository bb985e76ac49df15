// Package sysrun shells out to the system assembler and linker, the way
// cmd_local/go/internal/base.Run invokes external tools and reports their
// failures, and cmd_local/dist/buildtool.go shells out to build intermediate
// tools (SPEC_FULL.md §A.4). It additionally collects each subprocess's
// Rusage via golang.org/x/sys/unix.Wait4 and returns it in Result.
package sysrun

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Result is one external tool invocation's outcome.
type Result struct {
	Rusage unix.Rusage
}

// Assemble invokes the system assembler on asmPath, producing objPath.
func Assemble(asmPath, objPath string) (Result, error) {
	return run("as", "-o", objPath, asmPath)
}

// Link invokes the system linker (via cc, so libc/CRT startup files are
// found automatically) on the given object files, producing outPath.
func Link(outPath string, objPaths []string) (Result, error) {
	args := append([]string{"-o", outPath}, objPaths...)
	return run("cc", args...)
}

// run starts name with args, waits for it, and reports the child's resource
// usage. Failures are returned as plain errors; the caller routes them
// through internal/errs the same way base.Run routes exec failures through
// its own diagnostic path.
func run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("sysrun: start %s: %w", name, err)
	}

	var status unix.WaitStatus
	var rusage unix.Rusage
	pid, err := unix.Wait4(cmd.Process.Pid, &status, 0, &rusage)
	if err != nil {
		return Result{}, fmt.Errorf("sysrun: wait4 %s: %w", name, err)
	}
	if pid != cmd.Process.Pid {
		return Result{}, fmt.Errorf("sysrun: wait4 %s: unexpected pid %d", name, pid)
	}
	if !status.Exited() || status.ExitStatus() != 0 {
		return Result{Rusage: rusage}, fmt.Errorf("sysrun: %s exited with status %v", name, status)
	}
	return Result{Rusage: rusage}, nil
}
