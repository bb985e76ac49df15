// Package profile wraps runtime/pprof for the compiler's own -cpuprofile and
// -memprofile flags (SPEC_FULL.md §A.2), grounded in the profiling flags the
// teacher's cmd_local/compile/main.go and cmd_local/go's toolchain commands
// expose. After a CPU profile is written, the just-collected samples are read
// back with github.com/google/pprof/profile to print a one-line summary
// (total samples, hottest function) to stderr — debug tooling only, never
// consulted by the compiler's own semantics.
package profile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	gpprof "github.com/google/pprof/profile"
)

// Session tracks the profiling files a compiler invocation opened, so main
// can defer a single Stop call.
type Session struct {
	cpuFile *os.File
	memPath string
}

// StartCPU begins CPU profiling to path, or returns a nil, no-op Session if
// path is empty.
func StartCPU(path string) (*Session, error) {
	if path == "" {
		return &Session{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("profile: create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("profile: start cpu profile: %w", err)
	}
	return &Session{cpuFile: f}, nil
}

// WriteHeap writes a memory profile to path if it is non-empty.
func WriteHeap(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profile: create mem profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("profile: write mem profile: %w", err)
	}
	return nil
}

// Stop finishes CPU profiling (if it was started) and prints a one-line
// summary of the collected samples to stderr.
func (s *Session) Stop() {
	if s == nil || s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	path := s.cpuFile.Name()
	s.cpuFile.Close()
	summarize(path)
}

// summarize reads back the profile just written and logs its sample count
// and hottest function. Any error here is reported but never fatal: the
// profile file itself was already written successfully.
func summarize(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile: reopen %s: %v\n", path, err)
		return
	}
	defer f.Close()

	p, err := gpprof.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile: parse %s: %v\n", path, err)
		return
	}

	total := int64(0)
	counts := map[string]int64{}
	for _, sample := range p.Sample {
		if len(sample.Value) == 0 {
			continue
		}
		total += sample.Value[0]
		if len(sample.Location) == 0 || len(sample.Location[0].Line) == 0 {
			continue
		}
		name := sample.Location[0].Line[0].Function.Name
		counts[name] += sample.Value[0]
	}

	top, topCount := "", int64(0)
	for name, c := range counts {
		if c > topCount {
			top, topCount = name, c
		}
	}
	if top == "" {
		fmt.Fprintf(os.Stderr, "profile: %s: %d samples\n", path, total)
		return
	}
	fmt.Fprintf(os.Stderr, "profile: %s: %d samples, hottest %s (%d)\n", path, total, top, topCount)
}
