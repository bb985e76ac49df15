package regalloc

import (
	"minicc/internal/flow"
	"minicc/internal/ir"
)

// coloring is one run of George & Appel's iterated register coalescing over
// a single interference graph (spec.md §4.6). It mutates its own working
// copy of the graph's adjacency so Combine can merge nodes without
// disturbing the caller's flow.Graph.
type coloring struct {
	g *flow.Graph

	adjList  map[int]map[int]bool
	degree   map[int]int
	moveList map[int][]int // node id -> indices into g.Moves

	simplifyWorklist map[int]bool
	freezeWorklist   map[int]bool
	spillWorklist    map[int]bool
	selectStack      []int

	coalescedNodes map[int]bool
	spilledNodes   map[int]bool
	coloredNodes   map[int]bool
	alias          map[int]int
	color          map[int]string

	worklistMoves    map[int]bool
	activeMoves      map[int]bool
	coalescedMoves   map[int]bool
	constrainedMoves map[int]bool
	frozenMoves      map[int]bool
}

// colorGraph runs one pass of the algorithm. ok is false when some nodes had
// to be marked for actual spill; the caller rewrites the program for those
// and starts over with a fresh liveness/interference pass (spec.md §4.6:
// "iterated" — simplify/coalesce/freeze repeat after every actual spill).
func colorGraph(g *flow.Graph) (color map[int]string, spilled map[int]*ir.Value, ok bool) {
	c := newColoring(g)
	c.build()
	c.makeWorklist()
	for {
		switch {
		case len(c.simplifyWorklist) > 0:
			c.simplify()
		case len(c.worklistMoves) > 0:
			c.coalesce()
		case len(c.freezeWorklist) > 0:
			c.freeze()
		case len(c.spillWorklist) > 0:
			c.selectSpill()
		default:
			goto done
		}
	}
done:
	c.assignColors()

	if len(c.spilledNodes) > 0 {
		spilled = map[int]*ir.Value{}
		for id := range c.spilledNodes {
			spilled[id] = g.Values[id]
		}
		return nil, spilled, false
	}
	return c.color, nil, true
}

func newColoring(g *flow.Graph) *coloring {
	c := &coloring{
		g:                g,
		adjList:          map[int]map[int]bool{},
		degree:           map[int]int{},
		moveList:         map[int][]int{},
		simplifyWorklist: map[int]bool{},
		freezeWorklist:   map[int]bool{},
		spillWorklist:    map[int]bool{},
		coalescedNodes:   map[int]bool{},
		spilledNodes:     map[int]bool{},
		coloredNodes:     map[int]bool{},
		alias:            map[int]int{},
		color:            map[int]string{},
		worklistMoves:    map[int]bool{},
		activeMoves:      map[int]bool{},
		coalescedMoves:   map[int]bool{},
		constrainedMoves: map[int]bool{},
		frozenMoves:      map[int]bool{},
	}
	return c
}

func (c *coloring) build() {
	for id, adj := range c.g.Adj {
		cp := map[int]bool{}
		for n := range adj {
			cp[n] = true
		}
		c.adjList[id] = cp
		c.degree[id] = len(adj)
	}
	for i, m := range c.g.Moves {
		c.moveList[m.Dst.ID] = append(c.moveList[m.Dst.ID], i)
		c.moveList[m.Src.ID] = append(c.moveList[m.Src.ID], i)
		c.worklistMoves[i] = true
	}
}

func (c *coloring) nodeMoves(n int) []int {
	var out []int
	for _, i := range c.moveList[n] {
		if c.worklistMoves[i] || c.activeMoves[i] {
			out = append(out, i)
		}
	}
	return out
}

func (c *coloring) moveRelated(n int) bool { return len(c.nodeMoves(n)) > 0 }

func (c *coloring) makeWorklist() {
	for id := range c.g.Adj {
		switch {
		case c.degree[id] >= K:
			c.spillWorklist[id] = true
		case c.moveRelated(id):
			c.freezeWorklist[id] = true
		default:
			c.simplifyWorklist[id] = true
		}
	}
}

func (c *coloring) adjacent(n int) []int {
	var out []int
	for m := range c.adjList[n] {
		if c.coalescedNodes[m] {
			continue
		}
		onStack := false
		for _, s := range c.selectStack {
			if s == m {
				onStack = true
				break
			}
		}
		if !onStack {
			out = append(out, m)
		}
	}
	return out
}

func (c *coloring) simplify() {
	var n int
	for id := range c.simplifyWorklist {
		n = id
		break
	}
	delete(c.simplifyWorklist, n)
	c.selectStack = append(c.selectStack, n)
	for _, m := range c.adjacent(n) {
		c.decrementDegree(m)
	}
}

func (c *coloring) decrementDegree(m int) {
	d := c.degree[m]
	c.degree[m] = d - 1
	if d != K {
		return
	}
	nodes := append([]int{m}, c.adjacent(m)...)
	c.enableMoves(nodes)
	delete(c.spillWorklist, m)
	if c.moveRelated(m) {
		c.freezeWorklist[m] = true
	} else {
		c.simplifyWorklist[m] = true
	}
}

func (c *coloring) enableMoves(nodes []int) {
	for _, n := range nodes {
		for _, m := range c.nodeMoves(n) {
			if c.activeMoves[m] {
				delete(c.activeMoves, m)
				c.worklistMoves[m] = true
			}
		}
	}
}

func (c *coloring) addEdge(u, v int) {
	if u == v || c.adjList[u][v] {
		return
	}
	if c.adjList[u] == nil {
		c.adjList[u] = map[int]bool{}
	}
	if c.adjList[v] == nil {
		c.adjList[v] = map[int]bool{}
	}
	c.adjList[u][v] = true
	c.adjList[v][u] = true
	c.degree[u]++
	c.degree[v]++
}

func (c *coloring) getAlias(n int) int {
	for c.coalescedNodes[n] {
		n = c.alias[n]
	}
	return n
}

func (c *coloring) addWorkList(n int) {
	if !c.moveRelated(n) && c.degree[n] < K {
		delete(c.freezeWorklist, n)
		c.simplifyWorklist[n] = true
	}
}

// conservative is Briggs' coalescing safety test: the merged node is safe to
// coalesce if fewer than K of its combined neighbors have significant
// (>= K) degree.
func (c *coloring) conservative(nodes []int) bool {
	k := 0
	for _, n := range nodes {
		if c.degree[n] >= K {
			k++
		}
	}
	return k < K
}

func (c *coloring) coalesce() {
	var mi int
	for i := range c.worklistMoves {
		mi = i
		break
	}
	mv := c.g.Moves[mi]
	x := c.getAlias(mv.Dst.ID)
	y := c.getAlias(mv.Src.ID)
	u, v := x, y

	switch {
	case u == v:
		c.coalescedMoves[mi] = true
		c.addWorkList(u)
	case c.adjList[u][v]:
		c.constrainedMoves[mi] = true
		c.addWorkList(u)
		c.addWorkList(v)
	case c.conservative(unionNeighbors(c.adjacent(u), c.adjacent(v))):
		c.coalescedMoves[mi] = true
		c.combine(u, v)
		c.addWorkList(u)
	default:
		c.activeMoves[mi] = true
	}
	delete(c.worklistMoves, mi)
}

func unionNeighbors(a, b []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, n := range a {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range b {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func (c *coloring) combine(u, v int) {
	if c.freezeWorklist[v] {
		delete(c.freezeWorklist, v)
	} else {
		delete(c.spillWorklist, v)
	}
	c.coalescedNodes[v] = true
	c.alias[v] = u
	c.moveList[u] = append(c.moveList[u], c.moveList[v]...)
	c.enableMoves([]int{v})
	for _, t := range c.adjacent(v) {
		c.addEdge(t, u)
		c.decrementDegree(t)
	}
	if c.degree[u] >= K && c.freezeWorklist[u] {
		delete(c.freezeWorklist, u)
		c.spillWorklist[u] = true
	}
}

func (c *coloring) freeze() {
	var u int
	for id := range c.freezeWorklist {
		u = id
		break
	}
	delete(c.freezeWorklist, u)
	c.simplifyWorklist[u] = true
	c.freezeMoves(u)
}

func (c *coloring) freezeMoves(u int) {
	for _, mi := range c.nodeMoves(u) {
		mv := c.g.Moves[mi]
		x, y := mv.Dst.ID, mv.Src.ID
		var v int
		if c.getAlias(y) == c.getAlias(u) {
			v = c.getAlias(x)
		} else {
			v = c.getAlias(y)
		}
		if c.activeMoves[mi] {
			delete(c.activeMoves, mi)
		} else {
			delete(c.worklistMoves, mi)
		}
		c.frozenMoves[mi] = true
		if len(c.nodeMoves(v)) == 0 && c.degree[v] < K {
			delete(c.freezeWorklist, v)
			c.simplifyWorklist[v] = true
		}
	}
}

// selectSpill picks a potential-spill candidate by highest degree, a simple
// stand-in for a real spill-cost heuristic (spec.md §4.6 leaves the metric
// unspecified).
func (c *coloring) selectSpill() {
	best, bestDeg := -1, -1
	for id := range c.spillWorklist {
		if c.degree[id] > bestDeg {
			best, bestDeg = id, c.degree[id]
		}
	}
	delete(c.spillWorklist, best)
	c.simplifyWorklist[best] = true
	c.freezeMoves(best)
}

func (c *coloring) assignColors() {
	for i := len(c.selectStack) - 1; i >= 0; i-- {
		n := c.selectStack[i]
		okColors := map[string]bool{}
		for _, r := range GPRegisters {
			okColors[r] = true
		}
		for w := range c.adjList[n] {
			a := c.getAlias(w)
			if col, ok := c.color[a]; ok {
				delete(okColors, col)
			} else if c.coloredNodes[a] {
				delete(okColors, c.color[a])
			}
		}
		if len(okColors) == 0 {
			c.spilledNodes[n] = true
			continue
		}
		var chosen string
		for _, r := range GPRegisters {
			if okColors[r] {
				chosen = r
				break
			}
		}
		c.coloredNodes[n] = true
		c.color[n] = chosen
	}
	for n := range c.coalescedNodes {
		c.color[n] = c.color[c.getAlias(n)]
	}
}
