// Package tree holds the dynamically grown and pruned node tree of the
// zooming display. Each node owns the interval its symbol occupies within
// its parent, in units of 1/Norm; absolute coordinates exist only for the
// current root and are derived on demand for everything below it.
package tree

import (
	"github.com/willwade/dashergo/internal/alphabet"
)

// Flags is the node flag set.
type Flags uint16

const (
	// Seen marks nodes the root has entered at least once.
	Seen Flags = 1 << iota
	// Committed marks nodes whose symbol has been appended to the tape.
	Committed
	// FullyExpanded is set once the language model has populated children.
	FullyExpanded
	// WordBoundary marks nodes that finish a word.
	WordBoundary
	// Control marks non-alphabet action children.
	Control
	// GamePath marks the node on a teaching-game target path.
	GamePath
	// Converted marks nodes already routed through a conversion table.
	Converted
)

// ControlAction is the action a control child carries.
type ControlAction int

const (
	ActionNone ControlAction = iota
	ActionBackspace
	ActionSpace
	ActionAccept
)

// Node is one interval of the tree. Children are owned by their parent;
// the parent pointer is a non-owning back-reference and is nilled when an
// ancestor is evicted from retention.
type Node struct {
	// Lower and Upper bound the node's slice [Lower, Upper) of its
	// parent's interval, in Norm units.
	Lower, Upper uint32

	Symbol alphabet.Symbol
	Label  string
	Flags  Flags
	Action ControlAction

	Parent   *Node
	Children []*Node

	// Offset is the tape position that would obtain were this node
	// committed.
	Offset int

	// Colour selects the palette entry used to draw the node.
	Colour int
}

// Range is the node's interval width in Norm units.
func (n *Node) Range() uint32 { return n.Upper - n.Lower }

// Has reports whether all bits of f are set.
func (n *Node) Has(f Flags) bool { return n.Flags&f == f }

// Set sets the bits of f.
func (n *Node) Set(f Flags) { n.Flags |= f }

// Clear clears the bits of f.
func (n *Node) Clear(f Flags) { n.Flags &^= f }

// NewRoot returns a fresh pseudo-root spanning the whole interval space.
func NewRoot() *Node {
	return &Node{Lower: 0, Upper: norm, Symbol: alphabet.Root}
}

// ChildAt returns the unique child whose interval contains the Norm-unit
// position p, or nil.
func (n *Node) ChildAt(p uint32) *Node {
	for _, c := range n.Children {
		if c.Lower <= p && p < c.Upper {
			return c
		}
	}
	return nil
}

// Collapse discards the node's children and clears FullyExpanded so a
// later Expand rebuilds them. Re-expansion is deterministic for a fixed
// language-model state.
func (n *Node) Collapse() {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	n.Clear(FullyExpanded)
}

// Walk applies fn to n and every descendant, parent first. Iterative so
// tree depth cannot exhaust the stack.
func (n *Node) Walk(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}
