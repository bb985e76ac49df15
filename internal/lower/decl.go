package lower

import (
	"minicc/internal/ast"
	"minicc/internal/ir"
	"minicc/internal/sym"
	"minicc/internal/types"
)

func (ctx *context) lowerExternalDecl(d ast.ExternalDecl) {
	switch d := d.(type) {
	case *ast.FuncDecl:
		ctx.lowerFuncDecl(d)
	case *ast.VarDecl:
		ctx.lowerFileVarDecl(d)
	}
}

func (ctx *context) lowerFuncDecl(d *ast.FuncDecl) {
	s, err := ctx.env.Declare(d.Name, d.Type, sym.NoStorage, false, d.IsStatic)
	if err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}
	if s.GlobalLabel == "" {
		s.GlobalLabel = d.Name
	}
	if d.Body == nil {
		return
	}
	if err := ctx.env.Define(s, false); err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}

	fn := ir.NewFunc(d.Name, d.Type.Return)
	ctx.fn = fn
	ctx.gotoLabels = map[string]int{}
	ctx.breakLabels = nil
	ctx.continueLabels = nil

	ctx.env.PushScope()
	for i, pname := range d.ParamNames {
		if i >= len(d.Type.Params) {
			break
		}
		pt := d.Type.Params[i]
		if pname == "" {
			continue
		}
		psym, err := ctx.env.Declare(pname, pt, sym.Automatic, false, false)
		if err != nil {
			ctx.errorf(d.Pos, "%s", err)
			continue
		}
		ctx.env.Define(psym, false)
		addr := ctx.addrForSymbol(psym, "")
		fn.Params = append(fn.Params, addr)
	}

	ctx.collectLabels(d.Body)
	for _, item := range d.Body.Items {
		ctx.lowerStmt(item)
	}
	ctx.env.PopScope()

	if len(fn.Commands) == 0 || fn.Commands[len(fn.Commands)-1].Op != ir.RETURN {
		if d.Type.Return == types.VoidType {
			fn.Emit(ir.Command{Op: ir.RETURN})
		} else {
			fn.Emit(ir.Command{Op: ir.RETURN, Src1: fn.NewLiteral(d.Type.Return, 0)})
		}
	}

	ctx.mod.Funcs = append(ctx.mod.Funcs, fn)
	ctx.fn = nil
}

// collectLabels pre-scans a function body for LabeledStmt names so forward
// gotos resolve to a label id before the statement lowering reaches them.
func (ctx *context) collectLabels(b *ast.BlockStmt) {
	var walk func(ast.Stmt)
	walk = func(s ast.Stmt) {
		switch s := s.(type) {
		case *ast.LabeledStmt:
			if _, ok := ctx.gotoLabels[s.Label]; !ok {
				ctx.gotoLabels[s.Label] = ctx.fn.NewLabel()
			}
			walk(s.Stmt)
		case *ast.BlockStmt:
			for _, it := range s.Items {
				walk(it)
			}
		case *ast.IfStmt:
			walk(s.Then)
			if s.Else != nil {
				walk(s.Else)
			}
		case *ast.WhileStmt:
			walk(s.Body)
		case *ast.DoStmt:
			walk(s.Body)
		case *ast.ForStmt:
			walk(s.Body)
		}
	}
	for _, it := range b.Items {
		walk(it)
	}
}

// lowerFileVarDecl handles a file-scope object declaration: tentative
// definitions coalesce, "extern" without an initializer reserves no storage
// of its own (spec.md §4.2), everything else becomes a GlobalVar.
func (ctx *context) lowerFileVarDecl(d *ast.VarDecl) {
	if d.IsTypedef {
		return
	}
	storage := sym.NoStorage
	if d.IsStatic {
		storage = sym.Static
	}
	s, err := ctx.env.Declare(d.Name, d.Type, storage, d.IsExtern, d.IsStatic)
	if err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}
	if s.GlobalLabel == "" {
		s.GlobalLabel = d.Name
	}

	if d.IsExtern && d.Init == nil {
		return // declaration only, defined in another translation unit
	}

	if err := ctx.env.Define(s, d.Init == nil); err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}

	gv := ctx.findGlobal(s)
	if gv == nil {
		gv = &ir.GlobalVar{Symbol: s, Label: s.GlobalLabel, Type: s.Type, Linkage: s.Linkage}
		ctx.mod.Globals = append(ctx.mod.Globals, gv)
	}
	if d.Init == nil {
		return
	}
	val, label, ok := ctx.constInitializer(d.Init, d.Type)
	if !ok {
		ctx.errorf(d.Pos, "initializer of file-scope variable %q is not a constant expression", d.Name)
		return
	}
	gv.HasInit = true
	gv.InitValue = val
	gv.InitLabel = label
}

func (ctx *context) findGlobal(s *sym.Symbol) *ir.GlobalVar {
	for _, g := range ctx.mod.Globals {
		if g.Symbol == s {
			return g
		}
	}
	return nil
}

// constInitializer evaluates a file-scope or static-local initializer,
// which spec.md §4.4 restricts to constant expressions: an integer constant,
// or the address of a (possibly offset) static object.
func (ctx *context) constInitializer(e ast.Expr, target *types.Type) (value int64, label string, ok bool) {
	if v, isConst := ast.ConstFold(e); isConst {
		return v, "", true
	}
	if u, isUnary := e.(*ast.UnaryExpr); isUnary {
		if id, isIdent := u.X.(*ast.Ident); isIdent {
			if s, found := ctx.env.Lookup(id.Name); found {
				return 0, s.GlobalLabel, true
			}
		}
	}
	if sl, isStr := e.(*ast.StringLit); isStr && target.Kind == types.Pointer {
		label := ctx.newStringLabel()
		ctx.mod.Strings = append(ctx.mod.Strings, ir.StringLiteral{Label: label, Bytes: append([]byte(sl.Value), 0)})
		return 0, label, true
	}
	return 0, "", false
}
