package tree

import (
	"unicode/utf8"

	"github.com/willwade/dashergo/internal/alphabet"
	"github.com/willwade/dashergo/internal/model"
)

// norm mirrors the language model's normalisation constant; every fully
// expanded node's children partition exactly this range.
const norm = model.Norm

// Predictor is the slice of the language model the expander needs.
type Predictor interface {
	Probabilities(ctx, wordBuf []alphabet.Symbol) []uint32
}

// controlShare is the slice of norm reserved for control children when
// they are attached, carved off the model distribution proportionally.
const controlShare uint32 = norm / 20

// Expander grows nodes from language-model distributions.
type Expander struct {
	LM       Predictor
	Alphabet *alphabet.Alphabet

	// ControlMode attaches control children (backspace, accept) at word
	// boundaries.
	ControlMode bool

	// MaxContext bounds the ancestor walk when assembling contexts.
	MaxContext int
}

// NewExpander wires an expander over lm and a.
func NewExpander(lm Predictor, a *alphabet.Alphabet) *Expander {
	return &Expander{LM: lm, Alphabet: a, MaxContext: 16}
}

// Context assembles the symbol context for the children of n: the path
// symbols from the root down to and including n, most recent last,
// bounded by MaxContext.
func (e *Expander) Context(n *Node) []alphabet.Symbol {
	var rev []alphabet.Symbol
	for cur := n; cur != nil && cur.Symbol != alphabet.Root; cur = cur.Parent {
		rev = append(rev, cur.Symbol)
		if len(rev) >= e.MaxContext {
			break
		}
	}
	ctx := make([]alphabet.Symbol, len(rev))
	for i, s := range rev {
		ctx[len(rev)-1-i] = s
	}
	return ctx
}

// WordBuffer collects the symbols of the word in progress at n: the path
// back to the nearest word boundary. Empty at a boundary.
func (e *Expander) WordBuffer(n *Node) []alphabet.Symbol {
	var rev []alphabet.Symbol
	for cur := n; cur != nil && cur.Symbol != alphabet.Root; cur = cur.Parent {
		if cur.Has(WordBoundary) || cur.Symbol == e.Alphabet.Space() {
			break
		}
		rev = append(rev, cur.Symbol)
		if len(rev) >= e.MaxContext {
			break
		}
	}
	buf := make([]alphabet.Symbol, len(rev))
	for i, s := range rev {
		buf[len(rev)-1-i] = s
	}
	return buf
}

// Expand populates n's children from the language model. It is
// idempotent: a fully expanded node is left untouched. Post-condition:
// the children's ranges partition [0, norm) exactly.
func (e *Expander) Expand(n *Node) {
	if n.Has(FullyExpanded) {
		return
	}

	counts := e.LM.Probabilities(e.Context(n), e.WordBuffer(n))

	withControl := e.ControlMode && e.atWordBoundary(n)
	available := norm
	if withControl {
		available -= controlShare
		counts = rescale(counts, available)
	}

	var running uint32
	n.Children = n.Children[:0]
	for sym := alphabet.Symbol(1); int(sym) < len(counts); sym++ {
		c := counts[sym]
		if c == 0 {
			continue
		}
		ch := e.Alphabet.Char(sym)
		child := &Node{
			Lower:  running,
			Upper:  running + c,
			Symbol: sym,
			Label:  ch.Display,
			Parent: n,
			Offset: n.Offset + utf8.RuneCountInString(ch.Text),
			Colour: ch.Colour,
		}
		if sym == e.Alphabet.Space() {
			child.Set(WordBoundary)
		}
		n.Children = append(n.Children, child)
		running += c
	}

	if withControl {
		n.Children = append(n.Children,
			controlChild(n, running, running+controlShare/2, "⌫", ActionBackspace),
			controlChild(n, running+controlShare/2, norm, "✓", ActionAccept),
		)
		running = norm
	}

	// The model guarantees counts sum to norm; anything else is a
	// programmer error upstream.
	if running != norm {
		panic("tree: expansion does not partition the interval space")
	}
	n.Set(FullyExpanded)
}

func controlChild(parent *Node, lower, upper uint32, label string, action ControlAction) *Node {
	c := &Node{
		Lower:  lower,
		Upper:  upper,
		Symbol: alphabet.Root,
		Label:  label,
		Parent: parent,
		Offset: parent.Offset,
		Action: action,
		Colour: 1,
	}
	c.Set(Control)
	return c
}

func (e *Expander) atWordBoundary(n *Node) bool {
	return n.Symbol == alphabet.Root || n.Has(WordBoundary) || n.Symbol == e.Alphabet.Space()
}

// rescale shrinks a norm-sum distribution to sum to target, preserving
// the minimum one unit per nonzero entry and handing remainders to the
// largest counts first.
func rescale(counts []uint32, target uint32) []uint32 {
	out := make([]uint32, len(counts))
	var sum uint32
	nonzero := 0
	for _, c := range counts {
		sum += c
		if c > 0 {
			nonzero++
		}
	}
	if sum == 0 || target == 0 {
		return out
	}
	var acc uint32
	for i, c := range counts {
		if c == 0 {
			continue
		}
		scaled := uint32(uint64(c) * uint64(target) / uint64(sum))
		if scaled < 1 {
			scaled = 1
		}
		out[i] = scaled
		acc += scaled
	}
	// Fix the rounding drift on the largest entry, never below one.
	for acc != target {
		largest := 0
		for i, c := range out {
			if c > out[largest] {
				largest = i
			}
		}
		if acc < target {
			out[largest] += target - acc
			acc = target
		} else {
			take := acc - target
			if take > out[largest]-1 {
				take = out[largest] - 1
			}
			if take == 0 {
				break
			}
			out[largest] -= take
			acc -= take
		}
	}
	return out
}
