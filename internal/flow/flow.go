// Package flow implements the liveness analysis and interference-graph
// construction spec.md §4.5 describes: a backward dataflow fixpoint over one
// function's flat command stream, followed by building the graph the
// register allocator colors. Grounded in the worklist shape of
// cmd_local/compile/internal/ssa liveness passes, simplified here to operate
// directly over the flat IL rather than an SSA form, since this compiler has
// none.
package flow

import "minicc/internal/ir"

// moveEligible reports whether a SET between a and b is a plain register
// copy (eligible for coalescing) rather than a width/signedness-changing
// conversion the lowering layer also expresses as SET (spec.md §4.3): only
// same-size, same-signedness pairs can share a single storage location.
func moveEligible(a, b *ir.Value) bool {
	return a.Type.Width == b.Type.Width && a.Type.Unsigned == b.Type.Unsigned
}

// successors returns the command indices control may flow to immediately
// after index i (spec.md §4.5: "blocks are formed between labels and
// jumps").
func successors(f *ir.Func, labelIndex map[int]int, i int) []int {
	c := f.Commands[i]
	switch c.Op {
	case ir.JUMP:
		return []int{labelIndex[c.LabelID]}
	case ir.JUMP_ZERO, ir.JUMP_NOT_ZERO:
		succs := []int{labelIndex[c.LabelID]}
		if i+1 < len(f.Commands) {
			succs = append(succs, i+1)
		}
		return succs
	case ir.RETURN:
		return nil
	default:
		if i+1 < len(f.Commands) {
			return []int{i + 1}
		}
		return nil
	}
}

func labelIndices(f *ir.Func) map[int]int {
	idx := map[int]int{}
	for i, c := range f.Commands {
		if c.Op == ir.LABEL {
			idx[c.LabelID] = i
		}
	}
	return idx
}

// Liveness holds, for every command index, the set of ILValues live
// immediately before (LiveIn) and immediately after (LiveOut) it, keyed by
// Value.ID for fast membership tests.
type Liveness struct {
	LiveIn  []map[int]*ir.Value
	LiveOut []map[int]*ir.Value
}

// Analyze computes liveness for f by iterating the dataflow equations to a
// fixpoint: LiveOut(i) = union of LiveIn(succ); LiveIn(i) = Reads(i) union
// (LiveOut(i) minus Writes(i)) (spec.md §4.5).
func Analyze(f *ir.Func) *Liveness {
	n := len(f.Commands)
	lv := &Liveness{
		LiveIn:  make([]map[int]*ir.Value, n),
		LiveOut: make([]map[int]*ir.Value, n),
	}
	for i := range f.Commands {
		lv.LiveIn[i] = map[int]*ir.Value{}
		lv.LiveOut[i] = map[int]*ir.Value{}
	}
	labels := labelIndices(f)

	changed := true
	for changed {
		changed = false
		for i := n - 1; i >= 0; i-- {
			cmd := f.Commands[i]
			newOut := map[int]*ir.Value{}
			for _, s := range successors(f, labels, i) {
				for id, v := range lv.LiveIn[s] {
					newOut[id] = v
				}
			}
			newIn := map[int]*ir.Value{}
			writes := writeSet(cmd)
			for id, v := range newOut {
				if _, killed := writes[id]; !killed {
					newIn[id] = v
				}
			}
			for _, v := range cmd.Reads() {
				newIn[v.ID] = v
			}
			if !sameSet(lv.LiveOut[i], newOut) || !sameSet(lv.LiveIn[i], newIn) {
				changed = true
			}
			lv.LiveOut[i] = newOut
			lv.LiveIn[i] = newIn
		}
	}
	return lv
}

func writeSet(c ir.Command) map[int]*ir.Value {
	m := map[int]*ir.Value{}
	for _, v := range c.Writes() {
		m[v.ID] = v
	}
	return m
}

func sameSet(a, b map[int]*ir.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// Move is a candidate for coalescing: a plain SET between two ILValues
// (spec.md §4.5).
type Move struct {
	Dst, Src *ir.Value
	CmdIndex int
}

// Graph is the interference graph: an undirected adjacency set over ILValue
// IDs, plus the move list the allocator tries to coalesce (spec.md §4.5/4.6).
type Graph struct {
	Adj    map[int]map[int]bool
	Values map[int]*ir.Value
	Moves  []Move
}

func newGraph() *Graph {
	return &Graph{Adj: map[int]map[int]bool{}, Values: map[int]*ir.Value{}}
}

func (g *Graph) addNode(v *ir.Value) {
	if _, ok := g.Adj[v.ID]; !ok {
		g.Adj[v.ID] = map[int]bool{}
	}
	g.Values[v.ID] = v
}

// AddEdge records interference between a and b (not reflexive: a value never
// interferes with itself).
func (g *Graph) AddEdge(a, b *ir.Value) {
	if a.ID == b.ID {
		return
	}
	g.addNode(a)
	g.addNode(b)
	g.Adj[a.ID][b.ID] = true
	g.Adj[b.ID][a.ID] = true
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id int) int { return len(g.Adj[id]) }

// Neighbors returns the IDs adjacent to id.
func (g *Graph) Neighbors(id int) []int {
	out := make([]int, 0, len(g.Adj[id]))
	for n := range g.Adj[id] {
		out = append(out, n)
	}
	return out
}

// Interferes reports whether a and b share an edge.
func (g *Graph) Interferes(a, b int) bool { return g.Adj[a][b] }

// Build constructs the interference graph for f restricted to the
// allocatable set (everything in allocatable is given a node; fixed
// address-Values are skipped, since they are placed directly by a frame
// layout pass and never compete for a color — spec.md §4.6's register
// allocator operates over "the ILValues", which this implementation scopes
// to exactly the non-fixed ones; see DESIGN.md). A SET between two
// allocatable values is recorded as a move and its own def/use pair is
// exempted from the edge it would otherwise create (spec.md §4.5: "move
// edges suppressed").
func Build(f *ir.Func, lv *Liveness, allocatable map[int]bool) *Graph {
	g := newGraph()
	for i, cmd := range f.Commands {
		writes := cmd.Writes()
		if len(writes) == 0 {
			continue
		}
		liveOut := lv.LiveOut[i]
		isMove := cmd.IsMove() && allocatable[cmd.Src1.ID] && moveEligible(cmd.Dst, cmd.Src1)
		for _, w := range writes {
			if !allocatable[w.ID] {
				continue
			}
			g.addNode(w)
			for id, l := range liveOut {
				if !allocatable[id] {
					continue
				}
				if isMove && id == cmd.Src1.ID {
					continue
				}
				g.AddEdge(w, l)
			}
		}
		if isMove && allocatable[cmd.Dst.ID] {
			g.Moves = append(g.Moves, Move{Dst: cmd.Dst, Src: cmd.Src1, CmdIndex: i})
		}
	}
	return g
}
