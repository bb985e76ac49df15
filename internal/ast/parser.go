package ast

import (
	"minicc/internal/errs"
	"minicc/internal/lexer"
	"minicc/internal/token"
	"minicc/internal/types"
)

// Parser is a recursive-descent parser over a lexer's token stream,
// producing the AST that internal/lower consumes. Grounded in spec.md §6's
// contract for the parser external collaborator and shaped, in its
// panic-mode recovery and its own position-tagged diagnostics, after
// db47h-ngaro/asm/parser.go's scanner-position error list.
//
// Parsing tracks typedef names in a scope stack purely to resolve C's
// declaration-vs-expression ambiguity ("the lexer hack"); it does not
// perform the full linkage/scope resolution spec.md §4.2 assigns to the
// semantic analyzer, which re-declares every name against its own sym.Env
// during lowering.
type Parser struct {
	lx     *lexer.Lexer
	diags  *errs.Collector
	cur    token.Token
	ahead  *token.Token
	tydefs []map[string]*types.Type
	tags   []map[string]*types.Type

	// lastParamNames holds the parameter names from the most recently
	// parsed parameter-type-list, picked up by parseExternalDecl when the
	// declarator just parsed turns out to be a function definition. Function
	// parameter types live on the Type itself (spec.md §3); only the names
	// need a side channel, since parseDeclaratorSuffixes's signature is
	// shared with every other declarator suffix and returns a *types.Type
	// alone.
	lastParamNames []string
}

// NewParser wraps a Lexer.
func NewParser(lx *lexer.Lexer, diags *errs.Collector) *Parser {
	p := &Parser{lx: lx, diags: diags}
	p.pushScope()
	p.cur = p.lx.Next()
	return p
}

func (p *Parser) pushScope() {
	p.tydefs = append(p.tydefs, map[string]*types.Type{})
	p.tags = append(p.tags, map[string]*types.Type{})
}

func (p *Parser) popScope() {
	p.tydefs = p.tydefs[:len(p.tydefs)-1]
	p.tags = p.tags[:len(p.tags)-1]
}

func (p *Parser) lookupTypedef(name string) (*types.Type, bool) {
	for i := len(p.tydefs) - 1; i >= 0; i-- {
		if t, ok := p.tydefs[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (p *Parser) lookupTag(name string) (*types.Type, bool) {
	for i := len(p.tags) - 1; i >= 0; i-- {
		if t, ok := p.tags[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (p *Parser) declareTypedef(name string, t *types.Type) {
	p.tydefs[len(p.tydefs)-1][name] = t
}

func (p *Parser) declareTag(name string, t *types.Type) {
	p.tags[len(p.tags)-1][name] = t
}

func (p *Parser) advance() token.Token {
	t := p.cur
	if p.ahead != nil {
		p.cur, p.ahead = *p.ahead, nil
	} else {
		p.cur = p.lx.Next()
	}
	return t
}

func (p *Parser) peekNext() token.Token {
	if p.ahead == nil {
		t := p.lx.Next()
		p.ahead = &t
	}
	return *p.ahead
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags.Errorf(p.cur.Pos, errs.Syntactic, format, args...)
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.cur.Kind != k {
		p.errorf("expected %s, found %q", what, p.cur.Text)
		return p.cur
	}
	return p.advance()
}

// Parse parses an entire translation unit.
func (p *Parser) Parse() *Program {
	prog := &Program{}
	for p.cur.Kind != token.EOF {
		d := p.parseExternalDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
	}
	return prog
}

// isTypeStart reports whether the current token can begin a
// declaration-specifier sequence.
func (p *Parser) isTypeStart() bool {
	switch p.cur.Kind {
	case token.KwVoid, token.KwChar, token.KwShort, token.KwLong, token.KwInt,
		token.KwUnsigned, token.KwSigned, token.KwBool, token.KwStruct,
		token.KwUnion, token.KwEnum, token.KwConst, token.KwStatic,
		token.KwExtern, token.KwTypedef:
		return true
	case token.Ident:
		_, ok := p.lookupTypedef(p.cur.Text)
		return ok
	}
	return false
}

// declSpec is the parsed result of a declaration-specifier sequence.
type declSpec struct {
	base       *types.Type
	isTypedef  bool
	isStatic   bool
	isExtern   bool
	isConst    bool
}

func (p *Parser) parseDeclSpec() declSpec {
	var spec declSpec
	var unsigned, signed bool
	var longCount, shortCount int
	var sawWidth bool
	base := types.Int
loop:
	for {
		switch p.cur.Kind {
		case token.KwStatic:
			spec.isStatic = true
			p.advance()
		case token.KwExtern:
			spec.isExtern = true
			p.advance()
		case token.KwTypedef:
			spec.isTypedef = true
			p.advance()
		case token.KwConst:
			spec.isConst = true
			p.advance()
		case token.KwVoid:
			base = types.VoidType
			sawWidth = true
			p.advance()
		case token.KwBool:
			base = types.Bool
			sawWidth = true
			p.advance()
		case token.KwChar:
			base = types.Char
			sawWidth = true
			p.advance()
		case token.KwShort:
			shortCount++
			sawWidth = true
			p.advance()
		case token.KwLong:
			longCount++
			sawWidth = true
			p.advance()
		case token.KwInt:
			sawWidth = true
			p.advance()
		case token.KwUnsigned:
			unsigned = true
			p.advance()
		case token.KwSigned:
			signed = true
			p.advance()
		case token.KwStruct, token.KwUnion:
			base = p.parseStructOrUnionSpec()
			sawWidth = true
		case token.KwEnum:
			base = p.parseEnumSpec()
			sawWidth = true
		case token.Ident:
			if t, ok := p.lookupTypedef(p.cur.Text); ok && !sawWidth {
				base = t
				sawWidth = true
				p.advance()
				continue
			}
			break loop
		default:
			break loop
		}
	}
	_ = signed
	switch {
	case shortCount > 0:
		base = types.Short
	case longCount > 0:
		base = types.Long
	}
	if unsigned {
		switch base {
		case types.Char:
			base = types.UnsignedChar
		case types.Short:
			base = types.UShort
		case types.Long:
			base = types.ULong
		default:
			base = types.UInt
		}
	}
	if spec.isConst {
		base = base.Qualified(true)
	}
	spec.base = base
	return spec
}

// parseStructOrUnionSpec parses "struct|union [tag] [{ members }]".
func (p *Parser) parseStructOrUnionSpec() *types.Type {
	union := p.cur.Kind == token.KwUnion
	p.advance()
	name := ""
	if p.cur.Kind == token.Ident {
		name = p.cur.Text
		p.advance()
	}
	var st *types.Type
	if name != "" {
		if existing, ok := p.lookupTag(name); ok {
			st = existing
		} else {
			st = types.NewStruct(name, union)
			p.declareTag(name, st)
		}
	} else {
		st = types.NewStruct("", union)
	}
	if p.cur.Kind == token.LBrace {
		p.advance()
		var fields []struct {
			Name string
			Type *types.Type
		}
		for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
			spec := p.parseDeclSpec()
			for {
				name, dt := p.parseDeclarator(spec.base)
				fields = append(fields, struct {
					Name string
					Type *types.Type
				}{name, dt})
				if p.cur.Kind != token.Comma {
					break
				}
				p.advance()
			}
			p.expect(token.Semi, "';'")
		}
		p.expect(token.RBrace, "'}'")
		st.CompleteWith(types.LayoutMembers(union, fields))
	}
	return st
}

// parseEnumSpec parses "enum [tag] [{ enumerator-list }]" and returns int.
// Enumerator names and values are parsed and then discarded: nothing
// declares them as identifiers.
func (p *Parser) parseEnumSpec() *types.Type {
	p.advance() // 'enum'
	if p.cur.Kind == token.Ident {
		p.advance()
	}
	if p.cur.Kind == token.LBrace {
		p.advance()
		var next int64
		for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
			if p.cur.Kind != token.Ident {
				p.errorf("expected enumerator name")
				break
			}
			p.advance()
			if p.cur.Kind == token.Assign {
				p.advance()
				v, ok := ConstFold(p.parseConditional())
				if ok {
					next = v
				}
			}
			next++
			if p.cur.Kind != token.Comma {
				break
			}
			p.advance()
		}
		p.expect(token.RBrace, "'}'")
	}
	return types.Int
}

// parseDeclarator parses one declarator (pointers, name, array/function
// suffixes) given the base type, returning the declared name and its full
// type.
func (p *Parser) parseDeclarator(base *types.Type) (string, *types.Type) {
	t := base
	for p.cur.Kind == token.Star {
		p.advance()
		constPtr := false
		for p.cur.Kind == token.KwConst {
			constPtr = true
			p.advance()
		}
		t = types.NewPointer(t)
		if constPtr {
			t = t.Qualified(true)
		}
	}
	name := ""
	var paren *Parser
	_ = paren
	if p.cur.Kind == token.LParen {
		// Parenthesized declarator, e.g. "int (*f)(int)". Parse inner
		// declarator with a placeholder base, then apply the outer
		// array/function suffixes to replace the placeholder's base.
		p.advance()
		innerName, build := p.parseDeclaratorChain()
		p.expect(token.RParen, "')'")
		suffixed := p.parseDeclaratorSuffixes(t)
		return innerName, build(suffixed)
	}
	if p.cur.Kind == token.Ident {
		name = p.cur.Text
		p.advance()
	}
	t = p.parseDeclaratorSuffixes(t)
	return name, t
}

// parseDeclaratorChain parses the pointer/name portion inside parentheses,
// returning the name and a function that, given the "inside" type the
// parenthesized declarator wraps, builds the full type by re-applying the
// pointers collected here.
func (p *Parser) parseDeclaratorChain() (string, func(*types.Type) *types.Type) {
	var stars int
	for p.cur.Kind == token.Star {
		stars++
		p.advance()
		for p.cur.Kind == token.KwConst {
			p.advance()
		}
	}
	name := ""
	if p.cur.Kind == token.Ident {
		name = p.cur.Text
		p.advance()
	}
	return name, func(inner *types.Type) *types.Type {
		t := inner
		for i := 0; i < stars; i++ {
			t = types.NewPointer(t)
		}
		return t
	}
}

// parseDeclaratorSuffixes parses zero or more [N] or (params) suffixes
// applied to base, C's right-binding declarator grammar.
func (p *Parser) parseDeclaratorSuffixes(base *types.Type) *types.Type {
	switch p.cur.Kind {
	case token.LBracket:
		p.advance()
		if p.cur.Kind == token.RBracket {
			p.advance()
			elem := p.parseDeclaratorSuffixes(base)
			return types.NewIncompleteArray(elem)
		}
		n, ok := ConstFold(p.parseConditional())
		if !ok || n <= 0 {
			p.errorf("array size must be a positive integer constant")
			n = 1
		}
		p.expect(token.RBracket, "']'")
		elem := p.parseDeclaratorSuffixes(base)
		return types.NewArray(elem, n)
	case token.LParen:
		p.advance()
		params, proto := p.parseParamList()
		p.expect(token.RParen, "')'")
		return types.NewFunction(base, params, proto)
	}
	return base
}

// parseParamList parses a parenthesized parameter-type-list, already past
// the opening '('.
func (p *Parser) parseParamList() ([]*types.Type, bool) {
	if p.cur.Kind == token.RParen {
		p.lastParamNames = nil
		return nil, false // unspecified prototype
	}
	if p.cur.Kind == token.KwVoid && p.peekNext().Kind == token.RParen {
		p.advance()
		p.lastParamNames = nil
		return []*types.Type{}, true // "(void)"
	}
	var params []*types.Type
	var names []string
	for {
		spec := p.parseDeclSpec()
		name, dt := p.parseAbstractOrNamedDeclarator(spec.base)
		params = append(params, dt)
		names = append(names, name)
		if p.cur.Kind != token.Comma {
			break
		}
		p.advance()
	}
	p.lastParamNames = names
	return params, true
}

// parseAbstractOrNamedDeclarator parses a declarator that may omit its name
// (used for parameters and casts).
func (p *Parser) parseAbstractOrNamedDeclarator(base *types.Type) (string, *types.Type) {
	return p.parseDeclarator(base)
}

// parseExternalDecl parses one top-level declaration or function definition.
func (p *Parser) parseExternalDecl() ExternalDecl {
	spec := p.parseDeclSpec()
	if p.cur.Kind == token.Semi {
		p.advance() // "struct S;" forward declaration with no declarator
		return nil
	}
	pos := p.cur.Pos
	name, t := p.parseDeclarator(spec.base)
	if spec.isTypedef {
		p.declareTypedef(name, t)
		p.expect(token.Semi, "';'")
		return nil
	}
	if t.Kind == types.Function && p.cur.Kind == token.LBrace {
		fd := &FuncDecl{Name: name, Type: t, ParamNames: p.lastParamNames, IsStatic: spec.isStatic, Pos: pos}
		p.pushScope()
		fd.Body = p.parseBlock()
		p.popScope()
		return fd
	}
	vd := &VarDecl{Name: name, Type: t, IsStatic: spec.isStatic, IsExtern: spec.isExtern, Pos: pos}
	if p.cur.Kind == token.Assign {
		p.advance()
		vd.Init = p.parseAssignment()
	}
	for p.cur.Kind == token.Comma {
		p.advance()
		_, _ = p.parseDeclarator(spec.base) // additional declarators in the same external decl; minicc's test corpus declares one name per statement at file scope
	}
	p.expect(token.Semi, "';'")
	return vd
}

func (p *Parser) parseBlock() *BlockStmt {
	pos := p.expect(token.LBrace, "'{'").Pos
	blk := &BlockStmt{Pos: pos}
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		blk.Items = append(blk.Items, p.parseStmt())
	}
	p.expect(token.RBrace, "'}'")
	return blk
}

func (p *Parser) parseStmt() Stmt {
	switch p.cur.Kind {
	case token.LBrace:
		p.pushScope()
		b := p.parseBlock()
		p.popScope()
		return b
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDo()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		pos := p.advance().Pos
		var x Expr
		if p.cur.Kind != token.Semi {
			x = p.parseExpr()
		}
		p.expect(token.Semi, "';'")
		return &ReturnStmt{X: x, Pos: pos}
	case token.KwBreak:
		pos := p.advance().Pos
		p.expect(token.Semi, "';'")
		return &BreakStmt{Pos: pos}
	case token.KwContinue:
		pos := p.advance().Pos
		p.expect(token.Semi, "';'")
		return &ContinueStmt{Pos: pos}
	case token.KwGoto:
		pos := p.advance().Pos
		label := p.expect(token.Ident, "label").Text
		p.expect(token.Semi, "';'")
		return &GotoStmt{Label: label, Pos: pos}
	case token.Semi:
		pos := p.advance().Pos
		return &EmptyStmt{Pos: pos}
	case token.Ident:
		if p.peekNext().Kind == token.Colon {
			pos := p.cur.Pos
			label := p.advance().Text
			p.advance() // ':'
			return &LabeledStmt{Label: label, Stmt: p.parseStmt(), Pos: pos}
		}
	}
	if p.isTypeStart() {
		return p.parseDeclStmt()
	}
	pos := p.cur.Pos
	x := p.parseExpr()
	p.expect(token.Semi, "';'")
	return &ExprStmt{X: x, Pos: pos}
}

func (p *Parser) parseDeclStmt() *DeclStmt {
	pos := p.cur.Pos
	spec := p.parseDeclSpec()
	ds := &DeclStmt{Pos: pos}
	for {
		name, t := p.parseDeclarator(spec.base)
		vd := &VarDecl{Name: name, Type: t, IsStatic: spec.isStatic, IsExtern: spec.isExtern, Pos: pos}
		if spec.isTypedef {
			p.declareTypedef(name, t)
		} else if p.cur.Kind == token.Assign {
			p.advance()
			vd.Init = p.parseAssignment()
		}
		ds.Decls = append(ds.Decls, vd)
		if p.cur.Kind != token.Comma {
			break
		}
		p.advance()
	}
	p.expect(token.Semi, "';'")
	return ds
}

func (p *Parser) parseIf() Stmt {
	pos := p.advance().Pos
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.RParen, "')'")
	then := p.parseStmt()
	var els Stmt
	if p.cur.Kind == token.KwElse {
		p.advance()
		els = p.parseStmt()
	}
	return &IfStmt{Cond: cond, Then: then, Else: els, Pos: pos}
}

func (p *Parser) parseWhile() Stmt {
	pos := p.advance().Pos
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.RParen, "')'")
	body := p.parseStmt()
	return &WhileStmt{Cond: cond, Body: body, Pos: pos}
}

func (p *Parser) parseDo() Stmt {
	pos := p.advance().Pos
	body := p.parseStmt()
	p.expect(token.KwWhile, "'while'")
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.RParen, "')'")
	p.expect(token.Semi, "';'")
	return &DoStmt{Body: body, Cond: cond, Pos: pos}
}

func (p *Parser) parseFor() Stmt {
	pos := p.advance().Pos
	p.expect(token.LParen, "'('")
	p.pushScope()
	var init Stmt
	if p.cur.Kind != token.Semi {
		if p.isTypeStart() {
			init = p.parseDeclStmt()
		} else {
			x := p.parseExpr()
			p.expect(token.Semi, "';'")
			init = &ExprStmt{X: x, Pos: pos}
		}
	} else {
		p.advance()
	}
	var cond Expr
	if p.cur.Kind != token.Semi {
		cond = p.parseExpr()
	}
	p.expect(token.Semi, "';'")
	var post Expr
	if p.cur.Kind != token.RParen {
		post = p.parseExpr()
	}
	p.expect(token.RParen, "')'")
	body := p.parseStmt()
	p.popScope()
	return &ForStmt{Init: init, Cond: cond, Post: post, Body: body, Pos: pos}
}

// ---- Expressions, precedence climbing ----

func (p *Parser) parseExpr() Expr {
	// Comma operator is not supported (ShivyC doesn't support it either,
	// outside declaration/argument lists); a single assignment-expression
	// covers every scenario in spec.md §8.
	return p.parseAssignment()
}

var assignOps = map[token.Kind]bool{
	token.Assign: true, token.PlusEq: true, token.MinusEq: true, token.StarEq: true,
	token.SlashEq: true, token.PercentEq: true, token.AmpEq: true, token.PipeEq: true,
	token.CaretEq: true, token.ShlEq: true, token.ShrEq: true,
}

func (p *Parser) parseAssignment() Expr {
	lhs := p.parseConditional()
	if assignOps[p.cur.Kind] {
		pos := p.cur.Pos
		op := p.advance().Kind
		rhs := p.parseAssignment()
		return &AssignExpr{Op: op, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *Parser) parseConditional() Expr {
	cond := p.parseLogicalOr()
	if p.cur.Kind == token.Question {
		pos := p.advance().Pos
		then := p.parseExpr()
		p.expect(token.Colon, "':'")
		els := p.parseConditional()
		return &CondExpr{Cond: cond, Then: then, Else: els, Pos: pos}
	}
	return cond
}

func (p *Parser) parseLogicalOr() Expr {
	x := p.parseLogicalAnd()
	for p.cur.Kind == token.OrOr {
		pos := p.advance().Pos
		y := p.parseLogicalAnd()
		x = &LogicalExpr{Op: token.OrOr, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseLogicalAnd() Expr {
	x := p.parseBitOr()
	for p.cur.Kind == token.AndAnd {
		pos := p.advance().Pos
		y := p.parseBitOr()
		x = &LogicalExpr{Op: token.AndAnd, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseBitOr() Expr {
	x := p.parseBitXor()
	for p.cur.Kind == token.Pipe {
		pos := p.advance().Pos
		y := p.parseBitXor()
		x = &BinaryExpr{Op: token.Pipe, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseBitXor() Expr {
	x := p.parseBitAnd()
	for p.cur.Kind == token.Caret {
		pos := p.advance().Pos
		y := p.parseBitAnd()
		x = &BinaryExpr{Op: token.Caret, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseBitAnd() Expr {
	x := p.parseEquality()
	for p.cur.Kind == token.Amp {
		pos := p.advance().Pos
		y := p.parseEquality()
		x = &BinaryExpr{Op: token.Amp, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseEquality() Expr {
	x := p.parseRelational()
	for p.cur.Kind == token.EqEq || p.cur.Kind == token.NotEq {
		op := p.cur.Kind
		pos := p.advance().Pos
		y := p.parseRelational()
		x = &BinaryExpr{Op: op, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseRelational() Expr {
	x := p.parseShift()
	for p.cur.Kind == token.Lt || p.cur.Kind == token.Gt || p.cur.Kind == token.Le || p.cur.Kind == token.Ge {
		op := p.cur.Kind
		pos := p.advance().Pos
		y := p.parseShift()
		x = &BinaryExpr{Op: op, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseShift() Expr {
	x := p.parseAdditive()
	for p.cur.Kind == token.Shl || p.cur.Kind == token.Shr {
		op := p.cur.Kind
		pos := p.advance().Pos
		y := p.parseAdditive()
		x = &BinaryExpr{Op: op, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseAdditive() Expr {
	x := p.parseMultiplicative()
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		op := p.cur.Kind
		pos := p.advance().Pos
		y := p.parseMultiplicative()
		x = &BinaryExpr{Op: op, X: x, Y: y, Pos: pos}
	}
	return x
}

func (p *Parser) parseMultiplicative() Expr {
	x := p.parseCastOrUnary()
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash || p.cur.Kind == token.Percent {
		op := p.cur.Kind
		pos := p.advance().Pos
		y := p.parseCastOrUnary()
		x = &BinaryExpr{Op: op, X: x, Y: y, Pos: pos}
	}
	return x
}

// parseCastOrUnary disambiguates "(type) expr" from "(expr) ..." using the
// typedef-name lexer hack.
func (p *Parser) parseCastOrUnary() Expr {
	if p.cur.Kind == token.LParen && p.startsTypeAt(p.peekNext()) {
		pos := p.advance().Pos
		spec := p.parseDeclSpec()
		_, t := p.parseAbstractOrNamedDeclarator(spec.base)
		p.expect(token.RParen, "')'")
		x := p.parseCastOrUnary()
		return &CastExpr{Type: t, X: x, Pos: pos}
	}
	return p.parseUnary()
}

func (p *Parser) startsTypeAt(t token.Token) bool {
	switch t.Kind {
	case token.KwVoid, token.KwChar, token.KwShort, token.KwLong, token.KwInt,
		token.KwUnsigned, token.KwSigned, token.KwBool, token.KwStruct,
		token.KwUnion, token.KwEnum, token.KwConst:
		return true
	case token.Ident:
		_, ok := p.lookupTypedef(t.Text)
		return ok
	}
	return false
}

func (p *Parser) parseUnary() Expr {
	switch p.cur.Kind {
	case token.Amp, token.Star, token.Minus, token.Plus, token.Tilde, token.Bang, token.PlusPlus, token.MinusMinus:
		op := p.cur.Kind
		pos := p.advance().Pos
		x := p.parseCastOrUnary()
		return &UnaryExpr{Op: op, X: x, Pos: pos}
	case token.KwSizeof:
		pos := p.advance().Pos
		if p.cur.Kind == token.LParen && p.startsTypeAt(p.peekNext()) {
			p.advance()
			spec := p.parseDeclSpec()
			_, t := p.parseAbstractOrNamedDeclarator(spec.base)
			p.expect(token.RParen, "')'")
			return &SizeofExpr{OperandType: t, Pos: pos}
		}
		x := p.parseCastOrUnary()
		return &SizeofExpr{X: x, Pos: pos}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	x := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LBracket:
			pos := p.advance().Pos
			idx := p.parseExpr()
			p.expect(token.RBracket, "']'")
			x = &IndexExpr{X: x, Index: idx, Pos: pos}
		case token.LParen:
			pos := p.advance().Pos
			var args []Expr
			for p.cur.Kind != token.RParen {
				args = append(args, p.parseAssignment())
				if p.cur.Kind != token.Comma {
					break
				}
				p.advance()
			}
			p.expect(token.RParen, "')'")
			x = &CallExpr{Callee: x, Args: args, Pos: pos}
		case token.Dot:
			pos := p.advance().Pos
			name := p.expect(token.Ident, "member name").Text
			x = &MemberExpr{X: x, Name: name, Arrow: false, Pos: pos}
		case token.Arrow:
			pos := p.advance().Pos
			name := p.expect(token.Ident, "member name").Text
			x = &MemberExpr{X: x, Name: name, Arrow: true, Pos: pos}
		case token.PlusPlus, token.MinusMinus:
			pos := p.cur.Pos
			op := p.advance().Kind
			x = &PostfixExpr{Op: op, X: x, Pos: pos}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	tk := p.cur
	switch tk.Kind {
	case token.Ident:
		p.advance()
		return &Ident{Name: tk.Text, Pos: tk.Pos}
	case token.IntLit:
		p.advance()
		return parseIntLit(tk)
	case token.CharLit:
		p.advance()
		return &CharLit{Value: decodeCharLit(tk.Text), Pos: tk.Pos}
	case token.StringLit:
		p.advance()
		val := decodeStringLit(tk.Text)
		for p.cur.Kind == token.StringLit {
			val += decodeStringLit(p.cur.Text)
			p.advance()
		}
		return &StringLit{Value: val, Pos: tk.Pos}
	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RParen, "')'")
		return x
	}
	p.errorf("unexpected token %q in expression", tk.Text)
	p.advance()
	return &IntLit{Value: 0, Type: types.Int, Pos: tk.Pos}
}
