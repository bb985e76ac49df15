package flow

import (
	"testing"

	"minicc/internal/ir"
	"minicc/internal/types"
)

func allAllocatable(f *ir.Func) map[int]bool {
	m := map[int]bool{}
	for _, c := range f.Commands {
		for _, v := range c.Reads() {
			m[v.ID] = true
		}
		for _, v := range c.Writes() {
			m[v.ID] = true
		}
	}
	return m
}

func TestAnalyzeStraightLine(t *testing.T) {
	f := ir.NewFunc("f", types.Int)
	a := f.NewLocal(types.Int, false)
	b := f.NewLocal(types.Int, false)
	c := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.ADD, Dst: c, Src1: a, Src2: b})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: c})

	lv := Analyze(f)
	if _, ok := lv.LiveIn[0][a.ID]; !ok {
		t.Error("a should be live-in at command 0")
	}
	if _, ok := lv.LiveIn[0][b.ID]; !ok {
		t.Error("b should be live-in at command 0")
	}
	if _, ok := lv.LiveOut[1][c.ID]; ok {
		t.Error("c should not be live-out of the RETURN, nothing follows")
	}
}

func TestAnalyzeLoopKeepsCounterLive(t *testing.T) {
	f := ir.NewFunc("f", types.Int)
	i := f.NewLocal(types.Int, false)
	top := f.NewLabel()
	end := f.NewLabel()
	cond := f.NewLocal(types.Bool, false)
	one := f.NewLiteral(types.Int, 1)

	f.Emit(ir.Command{Op: ir.LABEL, LabelID: top})
	f.Emit(ir.Command{Op: ir.LT, Dst: cond, Src1: i, Src2: f.NewLiteral(types.Int, 10)})
	f.Emit(ir.Command{Op: ir.JUMP_ZERO, Cond: cond, LabelID: end})
	f.Emit(ir.Command{Op: ir.ADD, Dst: i, Src1: i, Src2: one})
	f.Emit(ir.Command{Op: ir.JUMP, LabelID: top})
	f.Emit(ir.Command{Op: ir.LABEL, LabelID: end})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: i})

	lv := Analyze(f)
	if _, ok := lv.LiveOut[2][i.ID]; !ok {
		t.Error("i must stay live across the loop test, it's read again next iteration")
	}
}

func TestBuildInterferenceSuppressesMoveEdge(t *testing.T) {
	f := ir.NewFunc("f", types.Int)
	a := f.NewLocal(types.Int, false)
	b := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.SET, Dst: b, Src1: a})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: b})

	lv := Analyze(f)
	g := Build(f, lv, allAllocatable(f))
	if g.Interferes(a.ID, b.ID) {
		t.Error("a move's Dst/Src1 pair must not interfere with each other")
	}
	if len(g.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(g.Moves))
	}
}

func TestBuildInterferenceTwoLiveValues(t *testing.T) {
	f := ir.NewFunc("f", types.Int)
	a := f.NewLocal(types.Int, false)
	b := f.NewLocal(types.Int, false)
	c := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.SET, Dst: a, Src1: f.NewLiteral(types.Int, 1)})
	f.Emit(ir.Command{Op: ir.SET, Dst: b, Src1: f.NewLiteral(types.Int, 2)})
	f.Emit(ir.Command{Op: ir.ADD, Dst: c, Src1: a, Src2: b})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: c})

	lv := Analyze(f)
	g := Build(f, lv, allAllocatable(f))
	if !g.Interferes(a.ID, b.ID) {
		t.Error("a and b are simultaneously live and must interfere")
	}
}

func TestBuildInterferenceRejectsWidthChangingMove(t *testing.T) {
	f := ir.NewFunc("f", types.Int)
	a := f.NewLocal(types.Char, false)
	b := f.NewLocal(types.Int, false)
	f.Emit(ir.Command{Op: ir.SET, Dst: b, Src1: a})
	f.Emit(ir.Command{Op: ir.RETURN, Src1: b})

	lv := Analyze(f)
	g := Build(f, lv, allAllocatable(f))
	if len(g.Moves) != 0 {
		t.Error("a char->int widening SET is a conversion, not a coalescable move")
	}
}
