package model

import "github.com/willwade/dashergo/internal/alphabet"

// ppmNode is one context in the prediction trie. children extends the
// context one symbol further back in time; counts holds observed
// successors of this context.
type ppmNode struct {
	children map[alphabet.Symbol]*ppmNode
	counts   map[alphabet.Symbol]uint32
	total    uint64
	distinct int
}

func newPPMNode() *ppmNode {
	return &ppmNode{
		children: make(map[alphabet.Symbol]*ppmNode),
		counts:   make(map[alphabet.Symbol]uint32),
	}
}

func (n *ppmNode) observe(sym alphabet.Symbol) {
	if n.counts[sym] == 0 {
		n.distinct++
	}
	n.counts[sym]++
	n.total++
}

// child returns the node for the context extended by sym, creating it when
// create is set.
func (n *ppmNode) child(sym alphabet.Symbol, create bool) *ppmNode {
	c := n.children[sym]
	if c == nil && create {
		c = newPPMNode()
		n.children[sym] = c
	}
	return c
}

// ppm is a Prediction-by-Partial-Match model of a fixed maximum order with
// escape method C: each context reserves one unit of mass per distinct
// successor for backing off to the next shorter context.
type ppm struct {
	order int
	root  *ppmNode
}

func newPPM(order int) *ppm {
	return &ppm{order: order, root: newPPMNode()}
}

// suffixNodes walks the trie along ctx, most recent symbol first, and
// returns the deepest existing node together with the nodes of every
// shorter suffix (index 0 is the empty context).
func (p *ppm) suffixNodes(ctx []alphabet.Symbol) []*ppmNode {
	nodes := []*ppmNode{p.root}
	n := p.root
	start := len(ctx) - p.order
	if start < 0 {
		start = 0
	}
	for i := len(ctx) - 1; i >= start; i-- {
		n = n.child(ctx[i], false)
		if n == nil {
			break
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// observe records sym as the successor of every suffix of ctx up to the
// model order, creating trie nodes on demand.
func (p *ppm) observe(ctx []alphabet.Symbol, sym alphabet.Symbol) {
	n := p.root
	n.observe(sym)
	start := len(ctx) - p.order
	if start < 0 {
		start = 0
	}
	for i := len(ctx) - 1; i >= start; i-- {
		n = n.child(ctx[i], true)
		n.observe(sym)
	}
}

// predict fills probs (indexed by symbol, entry 0 unused) with the PPM
// estimate for the successor of ctx. probs sums to 1 over symbols
// 1..len(probs)-1. numSyms entries must already be allocated.
func (p *ppm) predict(ctx []alphabet.Symbol, probs []float64) {
	for i := range probs {
		probs[i] = 0
	}
	nodes := p.suffixNodes(ctx)
	assigned := make([]bool, len(probs))

	mass := 1.0
	// Longest context first.
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.total == 0 {
			continue
		}
		denom := float64(n.total) + float64(n.distinct)
		// Deterministic order: iterate by symbol index, not map order.
		for sym := alphabet.Symbol(1); int(sym) < len(probs); sym++ {
			c := n.counts[sym]
			if c == 0 || assigned[sym] {
				continue
			}
			probs[sym] = mass * float64(c) / denom
			assigned[sym] = true
		}
		mass *= float64(n.distinct) / denom
		if mass <= 0 {
			break
		}
	}

	// Order -1: whatever mass escaped every context is spread uniformly
	// over the symbols nothing predicted. This keeps every symbol
	// reachable.
	unassigned := 0
	for sym := 1; sym < len(probs); sym++ {
		if !assigned[sym] {
			unassigned++
		}
	}
	if unassigned > 0 {
		share := mass / float64(unassigned)
		for sym := 1; sym < len(probs); sym++ {
			if !assigned[sym] {
				probs[sym] = share
			}
		}
	} else if mass > 0 {
		// Everything was seen somewhere; fold the leftover back in
		// proportionally so the total stays 1.
		scale := 1.0 / (1.0 - mass)
		for sym := 1; sym < len(probs); sym++ {
			probs[sym] *= scale
		}
	}
}
