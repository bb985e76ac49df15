// Package errs accumulates compiler diagnostics the way
// cmd_local/go/internal/base does for the go command: errors are recorded
// against a collector rather than raised, so that lowering of a translation
// unit can continue past a single bad subtree (spec.md §7).
package errs

import (
	"fmt"
	"os"
	"sort"

	"minicc/internal/token"
)

// Severity classifies a diagnostic. Only Error severity affects ExitStatus.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

// Kind is the taxonomy named in spec.md §7 (Lexical, Syntactic, Type,
// Declaration, Tag, Lowering-internal). It is informational only; nothing
// dispatches on it besides tests.
type Kind string

const (
	Lexical     Kind = "lexical"
	Syntactic   Kind = "syntactic"
	TypeError   Kind = "type"
	Declaration Kind = "declaration"
	Tag         Kind = "tag"
	Internal    Kind = "internal"
)

// Diagnostic is one recorded error, warning, or note.
type Diagnostic struct {
	Pos      token.Position
	Severity Severity
	Kind     Kind
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Collector is the single "current diagnostics" sink threaded through a
// compilation context (spec.md §9): the core is single-threaded, so a plain
// slice guarded by nothing is sufficient, unlike base.Command's exitMu which
// guards concurrent `go` subcommands.
type Collector struct {
	diags  []Diagnostic
	status int
}

// New returns an empty collector.
func New() *Collector { return &Collector{} }

// Errorf records an error-severity diagnostic at pos and raises the exit
// status. Compilation continues; callers use a poison ir.Value to suppress
// cascades.
func (c *Collector) Errorf(pos token.Position, kind Kind, format string, args ...interface{}) {
	c.record(pos, Error, kind, format, args...)
}

// Warnf records a warning; it never raises the exit status (spec.md §7:
// "Warnings ... do not suppress output").
func (c *Collector) Warnf(pos token.Position, kind Kind, format string, args ...interface{}) {
	c.record(pos, Warning, kind, format, args...)
}

// Notef records a note, typically attached to a preceding error or warning.
func (c *Collector) Notef(pos token.Position, kind Kind, format string, args ...interface{}) {
	c.record(pos, Note, kind, format, args...)
}

func (c *Collector) record(pos token.Position, sev Severity, kind Kind, format string, args ...interface{}) {
	c.diags = append(c.diags, Diagnostic{
		Pos:      pos,
		Severity: sev,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	})
	if sev == Error {
		c.setStatus(1)
	}
}

func (c *Collector) setStatus(n int) {
	if c.status < n {
		c.status = n
	}
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Per spec.md §7, this gates whether assembly is emitted at all.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ExitStatus is the process exit code the driver should use: 0 if no errors
// were recorded, 1 otherwise (spec.md §6).
func (c *Collector) ExitStatus() int {
	if c.HasErrors() {
		return 1
	}
	return c.status
}

// Diagnostics returns all recorded diagnostics, stably ordered by source
// position so multi-pass recording (lexer, parser, lowering) still prints in
// file order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return out
}

// Emit writes every diagnostic to stderr in the "<path>:<line>:<col>:
// <severity>: <message>" form spec.md §6 mandates.
func (c *Collector) Emit() {
	for _, d := range c.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
