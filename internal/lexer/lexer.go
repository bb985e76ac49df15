// Package lexer implements the external lexer/preprocessor collaborator
// spec.md §6 describes: comment stripping, #include resolution, and
// production of a token stream. Grounded in db47h-ngaro/asm/parser.go's use
// of text/scanner plus a position-carrying error list, adapted from
// assembly-text lexing to C lexing.
package lexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"minicc/internal/errs"
	"minicc/internal/token"
)

// IncludeDirs are searched, in order, for <...> includes; spec.md §6:
// "searches an internal include directory distributed with the compiler".
var IncludeDirs []string

// Lexer turns one source file's bytes (after #include expansion) into a
// token stream. It owns no goroutines and performs no I/O beyond the initial
// read and any files pulled in transitively by #include, each closed
// deterministically as soon as its contents are merged into the buffer
// (spec.md §5).
type Lexer struct {
	diags *errs.Collector
	src   []byte
	pos   int
	file  string
	line  int
	col   int
}

// New reads path and its transitive #includes into a single merged buffer
// with comments already stripped, ready for tokenization.
func New(path string, diags *errs.Collector) (*Lexer, error) {
	merged, err := preprocess(path, diags, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return &Lexer{diags: diags, src: merged, file: path, line: 1, col: 1}, nil
}

// preprocess strips comments and inlines #include directives, depth-first,
// matching spec.md §6's contract: quoted includes search the including
// file's directory first, then IncludeDirs; angle includes search only
// IncludeDirs.
func preprocess(path string, diags *errs.Collector, seen map[string]bool) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stripped := stripComments(raw)
	lines := strings.Split(string(stripped), "\n")
	var out strings.Builder
	dir := filepath.Dir(path)
	for lineNo, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include") {
			rest := strings.TrimSpace(trimmed[len("#include"):])
			incPath, system, ok := parseIncludeOperand(rest)
			if !ok {
				diags.Errorf(token.Position{File: path, Line: lineNo + 1, Col: 1}, errs.Lexical, "malformed #include directive")
				continue
			}
			resolved, err := resolveInclude(incPath, system, dir)
			if err != nil {
				diags.Errorf(token.Position{File: path, Line: lineNo + 1, Col: 1}, errs.Lexical, "%s: %v", incPath, err)
				continue
			}
			if seen[resolved] {
				continue // already inlined on this path; avoid infinite recursion on cyclic includes
			}
			seen[resolved] = true
			content, err := preprocess(resolved, diags, seen)
			if err != nil {
				diags.Errorf(token.Position{File: path, Line: lineNo + 1, Col: 1}, errs.Lexical, "%s: %v", incPath, err)
				continue
			}
			out.Write(content)
			out.WriteByte('\n')
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return []byte(out.String()), nil
}

func parseIncludeOperand(rest string) (path string, system bool, ok bool) {
	if len(rest) < 2 {
		return "", false, false
	}
	switch rest[0] {
	case '"':
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return "", false, false
		}
		return rest[1 : 1+end], false, true
	case '<':
		end := strings.IndexByte(rest[1:], '>')
		if end < 0 {
			return "", false, false
		}
		return rest[1 : 1+end], true, true
	}
	return "", false, false
}

func resolveInclude(name string, system bool, includerDir string) (string, error) {
	if !system {
		p := filepath.Join(includerDir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	for _, d := range IncludeDirs {
		p := filepath.Join(d, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("file not found")
}

// stripComments removes // and /* */ comments, preserving line structure (a
// block comment becomes a run of blank lines) so diagnostics downstream still
// report correct line numbers.
func stripComments(src []byte) []byte {
	var out []byte
	i := 0
	inString, inChar := false, false
	for i < len(src) {
		c := src[i]
		switch {
		case inString:
			out = append(out, c)
			if c == '\\' && i+1 < len(src) {
				out = append(out, src[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
		case inChar:
			out = append(out, c)
			if c == '\\' && i+1 < len(src) {
				out = append(out, src[i+1])
				i += 2
				continue
			}
			if c == '\'' {
				inChar = false
			}
			i++
		case c == '"':
			inString = true
			out = append(out, c)
			i++
		case c == '\'':
			inChar = true
			out = append(out, c)
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				if src[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		break
	}
}

func (l *Lexer) curPos() token.Position {
	return token.Position{File: l.file, Line: l.line, Col: l.col}
}

// Next returns the next token in the stream, EOF at end of input.
func (l *Lexer) Next() token.Token {
	l.skipSpace()
	pos := l.curPos()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: pos}
	}
	c := l.peek()
	switch {
	case isIdentStart(rune(c)):
		return l.lexIdent(pos)
	case c >= '0' && c <= '9':
		return l.lexNumber(pos)
	case c == '"':
		return l.lexString(pos)
	case c == '\'':
		return l.lexChar(pos)
	default:
		return l.lexPunct(pos)
	}
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (l *Lexer) lexIdent(pos token.Position) token.Token {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRune(l.src[l.pos:])
		if !isIdentCont(r) {
			break
		}
		for i := 0; i < size; i++ {
			l.advance()
		}
	}
	text := string(l.src[start:l.pos])
	if kw, ok := token.Lookup(text); ok {
		return token.Token{Kind: kw, Text: text, Pos: pos}
	}
	return token.Token{Kind: token.Ident, Text: text, Pos: pos}
}

func (l *Lexer) lexNumber(pos token.Position) token.Token {
	start := l.pos
	for l.pos < len(l.src) && isDigitOrSuffix(l.peek()) {
		l.advance()
	}
	return token.Token{Kind: token.IntLit, Text: string(l.src[start:l.pos]), Pos: pos}
}

func isDigitOrSuffix(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c == 'x' || c == 'X' || c == 'u' || c == 'U' || c == 'l' || c == 'L':
		return true
	}
	return false
}

func (l *Lexer) lexString(pos token.Position) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.peek() != '"' {
		c := l.advance()
		if c == '\\' && l.pos < len(l.src) {
			sb.WriteByte(c)
			sb.WriteByte(l.advance())
			continue
		}
		sb.WriteByte(c)
	}
	if l.pos >= len(l.src) {
		l.diags.Errorf(pos, errs.Lexical, "unterminated string literal")
	} else {
		l.advance() // closing quote
	}
	return token.Token{Kind: token.StringLit, Text: sb.String(), Pos: pos}
}

func (l *Lexer) lexChar(pos token.Position) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.peek() != '\'' {
		c := l.advance()
		if c == '\\' && l.pos < len(l.src) {
			sb.WriteByte(c)
			sb.WriteByte(l.advance())
			continue
		}
		sb.WriteByte(c)
	}
	if l.pos >= len(l.src) {
		l.diags.Errorf(pos, errs.Lexical, "unterminated character literal")
	} else {
		l.advance()
	}
	return token.Token{Kind: token.CharLit, Text: sb.String(), Pos: pos}
}

type punct struct {
	text string
	kind token.Kind
}

// longest match first within each starting byte, so e.g. "<<=" is tried
// before "<<" before "<".
var puncts = []punct{
	{"...", token.Ellipsis},
	{"<<=", token.ShlEq}, {">>=", token.ShrEq},
	{"->", token.Arrow},
	{"++", token.PlusPlus}, {"--", token.MinusMinus},
	{"<<", token.Shl}, {">>", token.Shr},
	{"<=", token.Le}, {">=", token.Ge}, {"==", token.EqEq}, {"!=", token.NotEq},
	{"&&", token.AndAnd}, {"||", token.OrOr},
	{"+=", token.PlusEq}, {"-=", token.MinusEq}, {"*=", token.StarEq}, {"/=", token.SlashEq},
	{"%=", token.PercentEq}, {"&=", token.AmpEq}, {"|=", token.PipeEq}, {"^=", token.CaretEq},
	{"(", token.LParen}, {")", token.RParen}, {"{", token.LBrace}, {"}", token.RBrace},
	{"[", token.LBracket}, {"]", token.RBracket}, {";", token.Semi}, {",", token.Comma},
	{":", token.Colon}, {"?", token.Question}, {".", token.Dot},
	{"=", token.Assign}, {"+", token.Plus}, {"-", token.Minus}, {"*", token.Star},
	{"/", token.Slash}, {"%", token.Percent}, {"&", token.Amp}, {"|", token.Pipe},
	{"^", token.Caret}, {"~", token.Tilde}, {"!", token.Bang},
	{"<", token.Lt}, {">", token.Gt},
}

func (l *Lexer) lexPunct(pos token.Position) token.Token {
	for _, p := range puncts {
		if l.match(p.text) {
			return token.Token{Kind: p.kind, Text: p.text, Pos: pos}
		}
	}
	c := l.advance()
	l.diags.Errorf(pos, errs.Lexical, "unexpected character %q", c)
	return l.Next()
}

func (l *Lexer) match(s string) bool {
	if l.pos+len(s) > len(l.src) {
		return false
	}
	if string(l.src[l.pos:l.pos+len(s)]) != s {
		return false
	}
	for range s {
		l.advance()
	}
	return true
}
