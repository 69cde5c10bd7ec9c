package session

import (
	"strings"
	"unicode/utf8"

	"github.com/willwade/dashergo/internal/alphabet"
)

// tapeEntry is one committed unit of output. Plain entries hold a single
// symbol; converted entries hold the whole input run that produced one
// conversion output, so backspace removes the unit as a whole.
type tapeEntry struct {
	syms      []alphabet.Symbol
	text      string
	converted bool
}

// Tape is the append-only record of committed output. Offsets count
// runes, matching the offsets carried by tree nodes.
type Tape struct {
	entries []tapeEntry
	runes   int
}

// NewTape returns an empty tape.
func NewTape() *Tape {
	return &Tape{}
}

// Append records one committed symbol.
func (t *Tape) Append(sym alphabet.Symbol, text string) {
	t.entries = append(t.entries, tapeEntry{syms: []alphabet.Symbol{sym}, text: text})
	t.runes += utf8.RuneCountInString(text)
}

// AppendConverted records a conversion output together with the input
// symbols it consumed.
func (t *Tape) AppendConverted(syms []alphabet.Symbol, text string) {
	t.entries = append(t.entries, tapeEntry{syms: syms, text: text, converted: true})
	t.runes += utf8.RuneCountInString(text)
}

// Pop removes the most recent entry, returning the input symbols it
// carried. ok is false on an empty tape.
func (t *Tape) Pop() ([]alphabet.Symbol, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	last := t.entries[len(t.entries)-1]
	t.entries = t.entries[:len(t.entries)-1]
	t.runes -= utf8.RuneCountInString(last.text)
	return last.syms, true
}

// LastUnconverted returns the newest entry when it has not been through
// a conversion rule yet, so a following symbol may still merge with it.
func (t *Tape) LastUnconverted() ([]alphabet.Symbol, string, bool) {
	if len(t.entries) == 0 {
		return nil, "", false
	}
	last := t.entries[len(t.entries)-1]
	if last.converted {
		return nil, "", false
	}
	return last.syms, last.text, true
}

// Count is the number of committed entries.
func (t *Tape) Count() int { return len(t.entries) }

// Offset is the tape length in runes.
func (t *Tape) Offset() int { return t.runes }

// String joins the committed text.
func (t *Tape) String() string {
	var b strings.Builder
	for _, e := range t.entries {
		b.WriteString(e.text)
	}
	return b.String()
}

// Symbols returns the committed symbol sequence, oldest first.
// Converted entries contribute their full input run.
func (t *Tape) Symbols() []alphabet.Symbol {
	var out []alphabet.Symbol
	for _, e := range t.entries {
		out = append(out, e.syms...)
	}
	return out
}

// Reset empties the tape.
func (t *Tape) Reset() {
	t.entries = t.entries[:0]
	t.runes = 0
}
