package tree

// DefaultRetention is how many committed ancestors are kept for undo and
// re-entry.
const DefaultRetention = 10

// OldRoots retains the chain of committed ancestors above the current
// root, oldest first. Entries are evicted FIFO once the queue is over
// capacity, except that nodes awaiting conversion are held until marked
// Converted.
type OldRoots struct {
	nodes []*Node
	cap   int

	// RequireConverted delays eviction of unconverted nodes, for
	// conversion alphabets.
	RequireConverted bool
}

// NewOldRoots returns a retention queue of the given capacity;
// non-positive capacities fall back to DefaultRetention.
func NewOldRoots(capacity int) *OldRoots {
	if capacity <= 0 {
		capacity = DefaultRetention
	}
	return &OldRoots{cap: capacity}
}

// Len reports the number of retained ancestors.
func (o *OldRoots) Len() int { return len(o.nodes) }

// Newest returns the most recently demoted root, or nil.
func (o *OldRoots) Newest() *Node {
	if len(o.nodes) == 0 {
		return nil
	}
	return o.nodes[len(o.nodes)-1]
}

// Push retains a demoted root and evicts over-capacity ancestors.
func (o *OldRoots) Push(n *Node) {
	o.nodes = append(o.nodes, n)
	o.evict()
}

// PopNewest removes and returns the most recently demoted root, used when
// it is re-adopted by a pop-to-parent.
func (o *OldRoots) PopNewest() *Node {
	if len(o.nodes) == 0 {
		return nil
	}
	n := o.nodes[len(o.nodes)-1]
	o.nodes = o.nodes[:len(o.nodes)-1]
	return n
}

// Reset drops every retained ancestor.
func (o *OldRoots) Reset() { o.nodes = nil }

func (o *OldRoots) evict() {
	for len(o.nodes) > o.cap {
		oldest := o.nodes[0]
		if o.RequireConverted && !oldest.Has(Converted) {
			return
		}
		// Cut the back-reference of the next-older node so the evicted
		// ancestor (and any sibling subtrees it owns) can be collected.
		o.nodes[1].Parent = nil
		o.nodes = o.nodes[1:]
	}
}
