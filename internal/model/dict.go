package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/keilerkonzept/topk/heap"
	"github.com/keilerkonzept/topk/sliding"

	"github.com/willwade/dashergo/internal/alphabet"
)

// dictNode is one prefix in the word trie. weight is the summed frequency
// of every word passing through this node, so the next-character bias at a
// prefix is a single lookup per candidate symbol.
type dictNode struct {
	children map[alphabet.Symbol]*dictNode
	weight   float64
}

func newDictNode() *dictNode {
	return &dictNode{children: make(map[alphabet.Symbol]*dictNode)}
}

// Dictionary biases next-character predictions toward characters that
// extend the current word buffer into known words. Word frequencies come
// from a word list; a sliding top-k sketch over recently committed words
// adds a decaying recency boost on top of the base frequencies.
type Dictionary struct {
	root    *dictNode
	recent  *sliding.Sketch
	applied map[string]uint32 // recency weight already folded into the trie
	words   int
}

// Sliding-sketch shape for the recency booster. A small sketch is plenty:
// the vocabulary of one typing session is tiny.
const (
	recencyK       = 32
	recencyHistory = 60
	recencyWidth   = 256
	recencyDepth   = 2
	recencyDecay   = 0.9
)

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		root: newDictNode(),
		recent: sliding.New(recencyK, recencyHistory,
			sliding.WithWidth(recencyWidth),
			sliding.WithDepth(recencyDepth),
			sliding.WithDecay(recencyDecay),
		),
		applied: make(map[string]uint32),
	}
}

// Len reports the number of words added.
func (d *Dictionary) Len() int { return d.words }

// Add inserts a word (as its symbol sequence) with a base frequency.
func (d *Dictionary) Add(syms []alphabet.Symbol, freq float64) {
	if len(syms) == 0 || freq <= 0 {
		return
	}
	d.addWeight(syms, freq)
	d.words++
}

func (d *Dictionary) addWeight(syms []alphabet.Symbol, w float64) {
	n := d.root
	n.weight += w
	for _, s := range syms {
		c := n.children[s]
		if c == nil {
			c = newDictNode()
			n.children[s] = c
		}
		c.weight += w
		n = c
	}
}

// Commit records a finished word in the recency sketch and folds the
// sketch's current estimate for it into the trie weights. Folding happens
// at commit time only; decay between commits is corrected on the next
// commit of the same word.
func (d *Dictionary) Commit(word string, syms []alphabet.Symbol) {
	if word == "" || len(syms) == 0 {
		return
	}
	d.recent.Incr(word)
	now := d.recent.Count(word)
	prev := d.applied[word]
	if now != prev {
		d.addWeight(syms, float64(now)-float64(prev))
		d.applied[word] = now
	}
}

// Tick advances the recency window by n ticks; callers tick once per
// second of session time.
func (d *Dictionary) Tick(n int) {
	if n > 0 {
		d.recent.Ticks(n)
	}
}

// Recent returns the current top recently-committed words, most frequent
// first.
func (d *Dictionary) Recent() []heap.Item {
	return d.recent.SortedSlice()
}

// predict writes into probs the normalised next-symbol bias for the given
// word-buffer prefix, returning false when the prefix is unknown or empty
// (no bias available). probs sums to 1 over the candidate symbols when the
// return is true.
func (d *Dictionary) predict(prefix []alphabet.Symbol, probs []float64) bool {
	if len(prefix) == 0 {
		return false
	}
	n := d.root
	for _, s := range prefix {
		n = n.children[s]
		if n == nil {
			return false
		}
	}
	var total float64
	for sym := alphabet.Symbol(1); int(sym) < len(probs); sym++ {
		if c := n.children[sym]; c != nil {
			total += c.weight
		}
	}
	if total <= 0 {
		return false
	}
	for sym := alphabet.Symbol(1); int(sym) < len(probs); sym++ {
		if c := n.children[sym]; c != nil {
			probs[sym] = c.weight / total
		} else {
			probs[sym] = 0
		}
	}
	return true
}

// LoadWordList reads `word` or `word<TAB>frequency` lines into the
// dictionary, mapping each word through a. Lines starting with '#' and
// words that map to no symbols are skipped.
func (d *Dictionary) LoadWordList(r io.Reader, a *alphabet.Alphabet) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, freqStr, hasFreq := strings.Cut(line, "\t")
		freq := 1.0
		if hasFreq {
			f, err := strconv.ParseFloat(strings.TrimSpace(freqStr), 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("word list line %d: bad frequency %q", lineNo, freqStr)
			}
			freq = f
		}
		syms := a.Symbols(word)
		if len(syms) == 0 {
			continue
		}
		d.Add(syms, freq)
	}
	return scanner.Err()
}
