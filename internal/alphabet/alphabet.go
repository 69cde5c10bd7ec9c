// Package alphabet defines the ordered symbol sets the navigation core
// works over: display glyphs, output text, per-symbol overrides, and the
// mapping between plain text and symbol sequences used for training and
// language-model contexts.
package alphabet

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Symbol indexes a character within an Alphabet. Symbol 0 is reserved as
// the pseudo-root and never carries output.
type Symbol int

// Root is the reserved pseudo-root symbol.
const Root Symbol = 0

// Orientation is the writing direction of an alphabet.
type Orientation int

const (
	LeftToRight Orientation = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

func (o Orientation) String() string {
	switch o {
	case LeftToRight:
		return "LTR"
	case RightToLeft:
		return "RTL"
	case TopToBottom:
		return "TTB"
	case BottomToTop:
		return "BTT"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation maps the file-format orientation names onto values.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LTR":
		return LeftToRight, nil
	case "RTL":
		return RightToLeft, nil
	case "TTB":
		return TopToBottom, nil
	case "BTT":
		return BottomToTop, nil
	}
	return LeftToRight, fmt.Errorf("alphabet: unknown orientation %q", s)
}

// ConversionMode selects how training input is mapped before observation.
type ConversionMode int

const (
	ConversionNone ConversionMode = iota
	ConversionPhoneticMap
	ConversionRouteContextFree
	ConversionRouteContextSensitive
)

// ParseConversionMode maps the file-format conversion type names onto values.
func ParseConversionMode(s string) (ConversionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ConversionNone, nil
	case "phonetic-map":
		return ConversionPhoneticMap, nil
	case "context-free-route":
		return ConversionRouteContextFree, nil
	case "context-sensitive-route":
		return ConversionRouteContextSensitive, nil
	}
	return ConversionNone, fmt.Errorf("alphabet: unknown conversion type %q", s)
}

// Char is one entry of an alphabet.
type Char struct {
	// Display is the glyph drawn inside the node box.
	Display string
	// Text is appended to the output tape when the symbol commits. It may
	// be empty for control characters.
	Text string
	// FixedProb, when nonzero, overrides the language model's estimate
	// with a fixed probability in (0,1].
	FixedProb float64
	// SpeedFactor, when nonzero, scales navigation speed while the
	// crosshair sits inside this symbol's node.
	SpeedFactor float64
	// Colour selects an entry of the active colour palette.
	Colour int
}

// Alphabet is an immutable ordered symbol set plus its metadata. Symbol
// indices are stable for the lifetime of the value; index 0 is the
// pseudo-root.
type Alphabet struct {
	Name        string
	Orientation Orientation
	Encoding    string

	// ContextEscape separates context annotations in training text.
	ContextEscape rune

	Conversion ConversionMode
	TrainStart string
	TrainStop  string

	chars  []Char
	byText map[string]Symbol
	space  Symbol
}

// New builds an alphabet from chars in order. The pseudo-root is inserted
// automatically; chars[0] becomes Symbol 1. An empty char list is an error.
func New(name string, chars []Char) (*Alphabet, error) {
	if len(chars) == 0 {
		return nil, fmt.Errorf("alphabet %q: no characters", name)
	}
	a := &Alphabet{
		Name:          name,
		ContextEscape: '§',
		chars:         make([]Char, 1, len(chars)+1),
		byText:        make(map[string]Symbol, len(chars)),
	}
	a.chars[0] = Char{} // pseudo-root
	for _, c := range chars {
		sym := Symbol(len(a.chars))
		a.chars = append(a.chars, c)
		if c.Text != "" {
			if _, dup := a.byText[c.Text]; !dup {
				a.byText[c.Text] = sym
			}
			if a.space == 0 && c.Text == " " {
				a.space = sym
			}
		}
	}
	return a, nil
}

// Size reports the number of symbols including the pseudo-root.
func (a *Alphabet) Size() int { return len(a.chars) }

// Char returns the entry for sym. Out-of-range symbols yield the
// pseudo-root entry.
func (a *Alphabet) Char(sym Symbol) Char {
	if sym < 0 || int(sym) >= len(a.chars) {
		return a.chars[0]
	}
	return a.chars[sym]
}

// SymbolOf resolves an output string to its symbol, or Root if the text is
// not in the alphabet.
func (a *Alphabet) SymbolOf(text string) Symbol {
	return a.byText[text]
}

// Space returns the symbol whose output is a single space, or Root when
// the alphabet has none. Word-boundary handling keys off this symbol.
func (a *Alphabet) Space() Symbol { return a.space }

// Symbols maps plain text onto the symbol sequence that would produce it.
// Runes with no corresponding symbol are skipped, so arbitrary training
// text degrades instead of failing. Longer outputs win over single runes
// at each position.
func (a *Alphabet) Symbols(text string) []Symbol {
	syms := make([]Symbol, 0, len(text))
	for i := 0; i < len(text); {
		matched := false
		// Longest output first, bounded by the longest entry we hold.
		limit := len(text) - i
		if limit > a.maxTextLen() {
			limit = a.maxTextLen()
		}
		for n := limit; n >= 1; n-- {
			if i+n > len(text) {
				continue
			}
			if sym, ok := a.byText[text[i:i+n]]; ok {
				syms = append(syms, sym)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
		}
	}
	return syms
}

func (a *Alphabet) maxTextLen() int {
	n := 1
	for _, c := range a.chars {
		if len(c.Text) > n {
			n = len(c.Text)
		}
	}
	return n
}

// Default returns the built-in lowercase English alphabet: a-z plus space,
// coloured in alternating palette slots the way the stock alphabet files
// do.
func Default() *Alphabet {
	chars := make([]Char, 0, 27)
	for r := 'a'; r <= 'z'; r++ {
		chars = append(chars, Char{
			Display: string(r),
			Text:    string(r),
			Colour:  10 + int(r-'a')%3,
		})
	}
	chars = append(chars, Char{Display: "_", Text: " ", Colour: 9})
	a, err := New("English (lowercase)", chars)
	if err != nil {
		panic(err)
	}
	return a
}
