package tree

import (
	"testing"

	"github.com/willwade/dashergo/internal/alphabet"
	"github.com/willwade/dashergo/internal/model"
)

func newTestExpander(t *testing.T) (*Expander, *alphabet.Alphabet) {
	t.Helper()
	a := alphabet.Default()
	m := model.New(a.Size())
	return NewExpander(m, a), a
}

func childRangeSum(n *Node) uint32 {
	var sum uint32
	for _, c := range n.Children {
		sum += c.Range()
	}
	return sum
}

func TestExpand_ChildrenPartitionNorm(t *testing.T) {
	e, a := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)

	if !root.Has(FullyExpanded) {
		t.Fatal("FullyExpanded not set")
	}
	if got := childRangeSum(root); got != norm {
		t.Fatalf("child range sum = %d, want %d", got, norm)
	}
	if len(root.Children) != a.Size()-1 {
		t.Errorf("children = %d, want %d", len(root.Children), a.Size()-1)
	}
	// Children are contiguous and ordered.
	var prev uint32
	for i, c := range root.Children {
		if c.Lower != prev {
			t.Fatalf("child %d starts at %d, want %d", i, c.Lower, prev)
		}
		if c.Upper <= c.Lower {
			t.Fatalf("child %d has empty interval", i)
		}
		if c.Parent != root {
			t.Fatalf("child %d has wrong parent", i)
		}
		prev = c.Upper
	}
}

func TestExpand_Idempotent(t *testing.T) {
	e, _ := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	before := root.Children
	e.Expand(root)
	if len(root.Children) != len(before) {
		t.Fatalf("second Expand changed child count")
	}
	for i := range before {
		if root.Children[i] != before[i] {
			t.Fatalf("second Expand rebuilt child %d", i)
		}
	}
}

func TestExpand_OffsetsAdvanceByOutputLength(t *testing.T) {
	e, a := newTestExpander(t)
	root := NewRoot()
	root.Offset = 4
	e.Expand(root)
	for _, c := range root.Children {
		want := 4 + len([]rune(a.Char(c.Symbol).Text))
		if c.Offset != want {
			t.Errorf("symbol %d offset = %d, want %d", c.Symbol, c.Offset, want)
		}
	}
}

func TestExpand_SpaceChildIsWordBoundary(t *testing.T) {
	e, a := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	var space *Node
	for _, c := range root.Children {
		if c.Symbol == a.Space() {
			space = c
		}
	}
	if space == nil {
		t.Fatal("no space child")
	}
	if !space.Has(WordBoundary) {
		t.Error("space child not marked WordBoundary")
	}
}

func TestExpand_ControlChildrenAtWordBoundary(t *testing.T) {
	e, _ := newTestExpander(t)
	e.ControlMode = true
	root := NewRoot()
	e.Expand(root)

	var controls []*Node
	for _, c := range root.Children {
		if c.Has(Control) {
			controls = append(controls, c)
		}
	}
	if len(controls) != 2 {
		t.Fatalf("control children = %d, want 2", len(controls))
	}
	if got := childRangeSum(root); got != norm {
		t.Fatalf("with controls, range sum = %d, want %d", got, norm)
	}
	var controlRange uint32
	for _, c := range controls {
		controlRange += c.Range()
	}
	if controlRange != controlShare {
		t.Errorf("control share = %d, want %d", controlRange, controlShare)
	}

	// Deeper, mid-word nodes carry no control children.
	mid := root.Children[0] // 'a'
	e.Expand(mid)
	for _, c := range mid.Children {
		if c.Has(Control) {
			t.Fatal("control child attached mid-word")
		}
	}
	if got := childRangeSum(mid); got != norm {
		t.Fatalf("mid-word range sum = %d, want %d", got, norm)
	}
}

func TestCollapse_ClearsAndReexpandsDeterministically(t *testing.T) {
	e, _ := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	first := make([]uint32, len(root.Children))
	for i, c := range root.Children {
		first[i] = c.Lower
	}

	root.Collapse()
	if root.Has(FullyExpanded) {
		t.Fatal("FullyExpanded survived Collapse")
	}
	if len(root.Children) != 0 {
		t.Fatal("children survived Collapse")
	}

	e.Expand(root)
	if len(root.Children) != len(first) {
		t.Fatalf("re-expansion changed child count")
	}
	for i, c := range root.Children {
		if c.Lower != first[i] {
			t.Fatalf("re-expansion moved child %d", i)
		}
	}
}

func TestContext_WalksAncestors(t *testing.T) {
	e, a := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	h := root.ChildAt(root.Children[7].Lower) // 'h'
	if h.Symbol != a.SymbolOf("h") {
		t.Fatalf("picked symbol %d", h.Symbol)
	}
	e.Expand(h)
	i := h.Children[8] // 'i'
	ctx := e.Context(i)
	want := []alphabet.Symbol{a.SymbolOf("h"), a.SymbolOf("i")}
	if len(ctx) != len(want) || ctx[0] != want[0] || ctx[1] != want[1] {
		t.Errorf("Context = %v, want %v", ctx, want)
	}
}

func TestWordBuffer_StopsAtBoundary(t *testing.T) {
	e, a := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	space := root.ChildAt(norm - 1) // last child is space in the default alphabet
	if space.Symbol != a.Space() {
		t.Fatalf("last child is %d, not space", space.Symbol)
	}
	e.Expand(space)
	c := space.Children[2] // 'c'
	e.Expand(c)
	at := c.Children[0] // 'a'

	buf := e.WordBuffer(at)
	want := []alphabet.Symbol{a.SymbolOf("c"), a.SymbolOf("a")}
	if len(buf) != 2 || buf[0] != want[0] || buf[1] != want[1] {
		t.Errorf("WordBuffer = %v, want %v", buf, want)
	}
	if got := e.WordBuffer(space); len(got) != 0 {
		t.Errorf("WordBuffer at boundary = %v, want empty", got)
	}
}

func TestChildAt_FindsContainingChild(t *testing.T) {
	e, _ := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	for _, p := range []uint32{0, norm / 2, norm - 1} {
		c := root.ChildAt(p)
		if c == nil {
			t.Fatalf("no child at %d", p)
		}
		if !(c.Lower <= p && p < c.Upper) {
			t.Fatalf("child at %d has interval [%d,%d)", p, c.Lower, c.Upper)
		}
	}
	if got := root.ChildAt(norm); got != nil {
		t.Errorf("ChildAt(norm) = %+v, want nil", got)
	}
}

func TestOldRoots_FIFOEviction(t *testing.T) {
	o := NewOldRoots(3)
	nodes := make([]*Node, 5)
	for i := range nodes {
		nodes[i] = &Node{Symbol: alphabet.Symbol(i + 1)}
		if i > 0 {
			nodes[i].Parent = nodes[i-1]
		}
		o.Push(nodes[i])
	}
	if o.Len() != 3 {
		t.Fatalf("Len = %d, want 3", o.Len())
	}
	if o.Newest() != nodes[4] {
		t.Error("Newest is not the last pushed")
	}
	// The chain is severed at the retention boundary.
	if nodes[2].Parent != nil {
		t.Error("evicted ancestor still referenced")
	}
	if nodes[4].Parent != nodes[3] {
		t.Error("retained chain broken")
	}
}

func TestOldRoots_HoldsUnconvertedNodes(t *testing.T) {
	o := NewOldRoots(2)
	o.RequireConverted = true
	for i := 0; i < 4; i++ {
		o.Push(&Node{})
	}
	if o.Len() != 4 {
		t.Fatalf("unconverted nodes evicted: Len = %d", o.Len())
	}
	for _, n := range o.nodes {
		n.Set(Converted)
	}
	o.Push(&Node{})
	if o.Len() != 2 {
		t.Errorf("Len = %d after conversion, want 2", o.Len())
	}
}

func TestWalk_VisitsEveryNodeOnce(t *testing.T) {
	e, _ := newTestExpander(t)
	root := NewRoot()
	e.Expand(root)
	e.Expand(root.Children[0])

	seen := make(map[*Node]int)
	root.Walk(func(n *Node) { seen[n]++ })
	want := 1 + len(root.Children) + len(root.Children[0].Children)
	if len(seen) != want {
		t.Fatalf("visited %d nodes, want %d", len(seen), want)
	}
	for n, c := range seen {
		if c != 1 {
			t.Fatalf("node %v visited %d times", n.Symbol, c)
		}
	}
}
