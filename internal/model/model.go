// Package model implements the predictive language model behind the
// zooming display: an order-k PPM context model blended with an optional
// word dictionary, normalised to exact integer counts.
package model

import (
	"io"
	"sort"

	"github.com/willwade/dashergo/internal/alphabet"
)

// Norm is the probability normalisation constant. Every distribution the
// model emits sums to exactly Norm, and interval arithmetic in the node
// tree works in units of 1/Norm.
const Norm uint32 = 1 << 16

// DefaultOrder is the default PPM context length.
const DefaultOrder = 3

// Model is the blended predictor. It is deterministic: identical
// observation sequences produce identical distributions. Not safe for
// concurrent use; the session owns it.
type Model struct {
	numSyms int
	order   int
	alpha   float64
	ppm     *ppm
	dict    *Dictionary
	fixed   []float64

	// scratch buffers reused across predictions
	ppmProbs  []float64
	dictProbs []float64
}

// Option configures a Model.
type Option func(*Model)

// WithOrder sets the maximum PPM context length (0..5).
func WithOrder(k int) Option {
	return func(m *Model) {
		if k < 0 {
			k = 0
		}
		if k > 5 {
			k = 5
		}
		m.order = k
	}
}

// WithDictionary attaches a word dictionary blended in with weight alpha
// in [0,1]. Alpha 0 disables the bias without detaching the dictionary.
func WithDictionary(d *Dictionary, alpha float64) Option {
	return func(m *Model) {
		if alpha < 0 {
			alpha = 0
		}
		if alpha > 1 {
			alpha = 1
		}
		m.dict = d
		m.alpha = alpha
	}
}

// WithFixedProbs installs per-symbol fixed-probability overrides, indexed
// by symbol. Zero entries mean no override.
func WithFixedProbs(fixed []float64) Option {
	return func(m *Model) { m.fixed = fixed }
}

// New builds a model over numSyms symbols (including the pseudo-root at
// index 0).
func New(numSyms int, opts ...Option) *Model {
	m := &Model{
		numSyms:   numSyms,
		order:     DefaultOrder,
		ppmProbs:  make([]float64, numSyms),
		dictProbs: make([]float64, numSyms),
	}
	for _, o := range opts {
		o(m)
	}
	m.ppm = newPPM(m.order)
	return m
}

// Order reports the PPM order in use.
func (m *Model) Order() int { return m.order }

// Dictionary returns the attached dictionary, or nil.
func (m *Model) Dictionary() *Dictionary { return m.dict }

// Observe records sym as the successor of ctx at every PPM order.
func (m *Model) Observe(ctx []alphabet.Symbol, sym alphabet.Symbol) {
	if sym <= 0 || int(sym) >= m.numSyms {
		return
	}
	m.ppm.observe(ctx, sym)
}

// Train feeds a whole symbol sequence through Observe, sliding the
// context window as it goes.
func (m *Model) Train(seq []alphabet.Symbol) {
	for i, sym := range seq {
		start := i - m.order
		if start < 0 {
			start = 0
		}
		m.Observe(seq[start:i], sym)
	}
}

// TrainText reads free text and feeds it through the alphabet mapper into
// the model.
func (m *Model) TrainText(r io.Reader, a *alphabet.Alphabet) error {
	tr, err := alphabet.ReadTraining(r, a)
	if err != nil {
		return err
	}
	m.Train(tr.Text)
	return nil
}

// Probabilities returns the integer count for every symbol given ctx and
// the current word buffer. The slice is indexed by symbol; entry 0 is
// always zero; entries 1..numSyms-1 sum to exactly Norm and every entry
// is at least 1 so no symbol becomes unreachable.
func (m *Model) Probabilities(ctx []alphabet.Symbol, wordBuf []alphabet.Symbol) []uint32 {
	m.ppm.predict(ctx, m.ppmProbs)

	probs := m.ppmProbs
	if m.dict != nil && m.alpha > 0 && m.dict.predict(wordBuf, m.dictProbs) {
		for sym := 1; sym < m.numSyms; sym++ {
			probs[sym] = (1-m.alpha)*probs[sym] + m.alpha*m.dictProbs[sym]
		}
	}

	if m.fixed != nil {
		applyFixed(probs, m.fixed)
	}

	return quantise(probs, m.numSyms)
}

// applyFixed pins overridden symbols at their fixed probability and
// rescales the rest to fill the remainder.
func applyFixed(probs, fixed []float64) {
	var pinned, free float64
	for sym := 1; sym < len(probs); sym++ {
		if sym < len(fixed) && fixed[sym] > 0 {
			pinned += fixed[sym]
		} else {
			free += probs[sym]
		}
	}
	if pinned <= 0 || pinned >= 1 || free <= 0 {
		return
	}
	scale := (1 - pinned) / free
	for sym := 1; sym < len(probs); sym++ {
		if sym < len(fixed) && fixed[sym] > 0 {
			probs[sym] = fixed[sym]
		} else {
			probs[sym] *= scale
		}
	}
}

// quantise converts a float distribution over symbols 1..numSyms-1 into
// integer counts summing to exactly Norm: floor rounding, a minimum of one
// unit per symbol, and leftover units handed to the largest fractional
// parts (ties broken by symbol index, so the result is deterministic).
func quantise(probs []float64, numSyms int) []uint32 {
	type frac struct {
		sym  int
		part float64
	}
	counts := make([]uint32, numSyms)
	fracs := make([]frac, 0, numSyms-1)

	var sum float64
	for sym := 1; sym < numSyms; sym++ {
		if probs[sym] > 0 {
			sum += probs[sym]
		}
	}
	if sum <= 0 {
		// Degenerate input: uniform.
		for sym := 1; sym < numSyms; sym++ {
			probs[sym] = 1
		}
		sum = float64(numSyms - 1)
	}

	total := uint32(0)
	for sym := 1; sym < numSyms; sym++ {
		p := probs[sym] / sum
		if p < 0 {
			p = 0
		}
		exact := p * float64(Norm)
		c := uint32(exact)
		if c < 1 {
			c = 1
		}
		counts[sym] = c
		total += c
		fracs = append(fracs, frac{sym: sym, part: exact - float64(uint32(exact))})
	}

	switch {
	case total < Norm:
		sort.SliceStable(fracs, func(i, j int) bool {
			if fracs[i].part != fracs[j].part {
				return fracs[i].part > fracs[j].part
			}
			return fracs[i].sym < fracs[j].sym
		})
		left := Norm - total
		for i := uint32(0); i < left; i++ {
			counts[fracs[int(i)%len(fracs)].sym]++
		}
	case total > Norm:
		// The minimum-one-unit rule can overshoot; reclaim from the
		// largest counts, never taking a symbol below one unit.
		over := total - Norm
		for over > 0 {
			best := 0
			for sym := 1; sym < numSyms; sym++ {
				if counts[sym] > counts[best] {
					best = sym
				}
			}
			if counts[best] <= 1 {
				break
			}
			take := over
			if take > counts[best]-1 {
				take = counts[best] - 1
			}
			counts[best] -= take
			over -= take
		}
	}
	return counts
}
