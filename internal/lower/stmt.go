package lower

import (
	"minicc/internal/ast"
	"minicc/internal/ir"
	"minicc/internal/sym"
	"minicc/internal/token"
	"minicc/internal/types"
)

func (ctx *context) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		ctx.env.PushScope()
		for _, it := range s.Items {
			ctx.lowerStmt(it)
		}
		ctx.env.PopScope()
	case *ast.DeclStmt:
		for _, vd := range s.Decls {
			ctx.lowerBlockVarDecl(vd)
		}
	case *ast.ExprStmt:
		if s.X != nil {
			ctx.rvalue(ctx.lowerExpr(s.X))
		}
	case *ast.IfStmt:
		ctx.lowerIf(s)
	case *ast.WhileStmt:
		ctx.lowerWhile(s)
	case *ast.DoStmt:
		ctx.lowerDo(s)
	case *ast.ForStmt:
		ctx.lowerFor(s)
	case *ast.ReturnStmt:
		if s.X == nil {
			ctx.fn.Emit(ir.Command{Op: ir.RETURN})
			return
		}
		v := ctx.convertAssign(s.Pos, ctx.rvalue(ctx.lowerExpr(s.X)), ctx.fn.ReturnType, ast.IsNullPointerConstant(s.X))
		ctx.fn.Emit(ir.Command{Op: ir.RETURN, Src1: v})
	case *ast.BreakStmt:
		if len(ctx.breakLabels) == 0 {
			ctx.errorf(s.Pos, "break outside of loop")
			return
		}
		ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: ctx.breakLabels[len(ctx.breakLabels)-1]})
	case *ast.ContinueStmt:
		if len(ctx.continueLabels) == 0 {
			ctx.errorf(s.Pos, "continue outside of loop")
			return
		}
		ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: ctx.continueLabels[len(ctx.continueLabels)-1]})
	case *ast.GotoStmt:
		id, ok := ctx.gotoLabels[s.Label]
		if !ok {
			ctx.errorf(s.Pos, "goto to undeclared label %q", s.Label)
			return
		}
		ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: id})
	case *ast.LabeledStmt:
		id := ctx.gotoLabels[s.Label]
		ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: id})
		ctx.lowerStmt(s.Stmt)
	case *ast.EmptyStmt:
		// nothing to emit
	}
}

func (ctx *context) lowerIf(s *ast.IfStmt) {
	cond := ctx.rvalue(ctx.lowerExpr(s.Cond))
	elseLbl := ctx.fn.NewLabel()
	ctx.fn.Emit(ir.Command{Op: ir.JUMP_ZERO, Cond: cond, LabelID: elseLbl})
	ctx.lowerStmt(s.Then)
	if s.Else == nil {
		ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: elseLbl})
		return
	}
	endLbl := ctx.fn.NewLabel()
	ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: endLbl})
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: elseLbl})
	ctx.lowerStmt(s.Else)
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: endLbl})
}

func (ctx *context) lowerWhile(s *ast.WhileStmt) {
	topLbl := ctx.fn.NewLabel()
	endLbl := ctx.fn.NewLabel()
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: topLbl})
	cond := ctx.rvalue(ctx.lowerExpr(s.Cond))
	ctx.fn.Emit(ir.Command{Op: ir.JUMP_ZERO, Cond: cond, LabelID: endLbl})
	ctx.pushLoop(endLbl, topLbl)
	ctx.lowerStmt(s.Body)
	ctx.popLoop()
	ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: topLbl})
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: endLbl})
}

func (ctx *context) lowerDo(s *ast.DoStmt) {
	topLbl := ctx.fn.NewLabel()
	contLbl := ctx.fn.NewLabel()
	endLbl := ctx.fn.NewLabel()
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: topLbl})
	ctx.pushLoop(endLbl, contLbl)
	ctx.lowerStmt(s.Body)
	ctx.popLoop()
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: contLbl})
	cond := ctx.rvalue(ctx.lowerExpr(s.Cond))
	ctx.fn.Emit(ir.Command{Op: ir.JUMP_NOT_ZERO, Cond: cond, LabelID: topLbl})
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: endLbl})
}

func (ctx *context) lowerFor(s *ast.ForStmt) {
	ctx.env.PushScope()
	defer ctx.env.PopScope()

	if s.Init != nil {
		ctx.lowerStmt(s.Init)
	}
	topLbl := ctx.fn.NewLabel()
	contLbl := ctx.fn.NewLabel()
	endLbl := ctx.fn.NewLabel()
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: topLbl})
	if s.Cond != nil {
		cond := ctx.rvalue(ctx.lowerExpr(s.Cond))
		ctx.fn.Emit(ir.Command{Op: ir.JUMP_ZERO, Cond: cond, LabelID: endLbl})
	}
	ctx.pushLoop(endLbl, contLbl)
	ctx.lowerStmt(s.Body)
	ctx.popLoop()
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: contLbl})
	if s.Post != nil {
		ctx.rvalue(ctx.lowerExpr(s.Post))
	}
	ctx.fn.Emit(ir.Command{Op: ir.JUMP, LabelID: topLbl})
	ctx.fn.Emit(ir.Command{Op: ir.LABEL, LabelID: endLbl})
}

func (ctx *context) pushLoop(breakLbl, continueLbl int) {
	ctx.breakLabels = append(ctx.breakLabels, breakLbl)
	ctx.continueLabels = append(ctx.continueLabels, continueLbl)
}

func (ctx *context) popLoop() {
	ctx.breakLabels = ctx.breakLabels[:len(ctx.breakLabels)-1]
	ctx.continueLabels = ctx.continueLabels[:len(ctx.continueLabels)-1]
}

// lowerBlockVarDecl handles a block-scope declaration: automatic, static, or
// typedef (spec.md §4.2/§4.4).
func (ctx *context) lowerBlockVarDecl(d *ast.VarDecl) {
	if d.IsTypedef {
		return
	}
	if d.IsStatic {
		ctx.lowerStaticLocal(d)
		return
	}
	storage := sym.Automatic
	if d.IsExtern {
		storage = sym.NoStorage
	}
	s, err := ctx.env.Declare(d.Name, d.Type, storage, d.IsExtern, false)
	if err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}
	if d.IsExtern {
		if d.Init != nil {
			ctx.errorf(d.Pos, "%q: extern declaration with initializer at block scope", d.Name)
		}
		return
	}
	ctx.env.Define(s, false)
	addr := ctx.addrForSymbol(s, "")
	if d.Init == nil {
		return
	}
	ctx.lowerInitializer(d.Pos, addr, d.Init)
}

// lowerStaticLocal gives a block-scope static object a unique global label
// and a GlobalVar entry, exactly as a file-scope object gets, but keeps the
// declaring symbol local to its block's scope (spec.md §4.2).
func (ctx *context) lowerStaticLocal(d *ast.VarDecl) {
	s, err := ctx.env.Declare(d.Name, d.Type, sym.Static, false, true)
	if err != nil {
		ctx.errorf(d.Pos, "%s", err)
		return
	}
	if s.GlobalLabel == "" {
		s.GlobalLabel = ctx.newStaticLabel(ctx.fn.Name, d.Name)
	}
	ctx.env.Define(s, d.Init == nil)
	ctx.addrForSymbol(s, s.GlobalLabel)

	gv := ctx.findGlobal(s)
	if gv == nil {
		gv = &ir.GlobalVar{Symbol: s, Label: s.GlobalLabel, Type: s.Type, Linkage: sym.NoLinkage}
		ctx.mod.Globals = append(ctx.mod.Globals, gv)
	}
	if d.Init == nil {
		return
	}
	val, label, ok := ctx.constInitializer(d.Init, d.Type)
	if !ok {
		ctx.errorf(d.Pos, "initializer of static local %q is not a constant expression", d.Name)
		return
	}
	gv.HasInit = true
	gv.InitValue = val
	gv.InitLabel = label
}

// lowerInitializer lowers an automatic object's initializer: a scalar
// expression, or a string literal copied into a char array (spec.md §4.4).
func (ctx *context) lowerInitializer(pos token.Position, addr *ir.Value, init ast.Expr) {
	objType := addr.Type.Elem
	if objType.Kind == types.Array && objType.Elem == types.Char {
		if sl, ok := init.(*ast.StringLit); ok {
			ctx.lowerStringIntoCharArray(addr, sl)
			return
		}
	}
	v := ctx.convertAssign(pos, ctx.rvalue(ctx.lowerExpr(init)), objType, ast.IsNullPointerConstant(init))
	ctx.fn.Emit(ir.Command{Op: ir.SETAT, Dst: addr, Src1: v})
}

// lowerStringIntoCharArray copies a string literal's bytes (plus the NUL
// terminator, truncated if the array is shorter) into an automatic char
// array via a sequence of byte stores, grounded on spec.md §4.4's
// "string-literal-into-char-array" initializer case.
func (ctx *context) lowerStringIntoCharArray(addr *ir.Value, sl *ast.StringLit) {
	bytes := append([]byte(sl.Value), 0)
	n := addr.Type.Elem.Len
	base := ctx.decayArray(addr)
	for i := int64(0); i < n; i++ {
		var b byte
		if i < int64(len(bytes)) {
			b = bytes[i]
		}
		elemAddr := ctx.fn.NewLocal(types.NewPointer(types.Char), true)
		ctx.fn.Emit(ir.Command{
			Op: ir.POINTER_ADD, Dst: elemAddr, Src1: base,
			Src2: ctx.fn.NewLiteral(types.Long, i), Scale: 1,
		})
		ctx.fn.Emit(ir.Command{Op: ir.SETAT, Dst: elemAddr, Src1: ctx.fn.NewLiteral(types.Char, int64(b))})
	}
}
