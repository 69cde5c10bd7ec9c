package alphabet

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ConversionRule maps an input sequence to its output under an optional
// context. Context-free rules carry an empty Context.
type ConversionRule struct {
	Context string
	Input   string
	Output  string
}

// ConversionTable holds the routing rules read from a conversion-alphabet
// training file. Lookups resolve overlapping contexts longest-context-wins.
type ConversionTable struct {
	byInput map[string][]ConversionRule
}

// NewConversionTable builds a table from rules. Rules for the same input
// are ordered by descending context length so Lookup can take the first
// match.
func NewConversionTable(rules []ConversionRule) *ConversionTable {
	t := &ConversionTable{byInput: make(map[string][]ConversionRule)}
	for _, r := range rules {
		t.byInput[r.Input] = append(t.byInput[r.Input], r)
	}
	for in, rs := range t.byInput {
		sort.SliceStable(rs, func(i, j int) bool {
			return len(rs[i].Context) > len(rs[j].Context)
		})
		t.byInput[in] = rs
	}
	return t
}

// Len reports the number of rules in the table.
func (t *ConversionTable) Len() int {
	n := 0
	for _, rs := range t.byInput {
		n += len(rs)
	}
	return n
}

// Lookup resolves input under context. The rule whose context is the
// longest suffix of context wins; a context-free rule matches anything.
func (t *ConversionTable) Lookup(context, input string) (string, bool) {
	for _, r := range t.byInput[input] {
		if r.Context == "" || strings.HasSuffix(context, r.Context) {
			return r.Output, true
		}
	}
	return "", false
}

// Training is the parsed content of one training file: either free text
// mapped to symbols, or a conversion rule table, depending on the
// alphabet's conversion mode.
type Training struct {
	Text  []Symbol
	Rules *ConversionTable
}

// ReadTraining consumes a training file for a. Lines starting with '#' are
// comments and blank lines are skipped. For conversion alphabets each
// remaining line is `input=output` or `context:input=output`; otherwise
// the lines are free text fed through the symbol mapper.
func ReadTraining(r io.Reader, a *Alphabet) (*Training, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tr := &Training{}
	var rules []ConversionRule
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if a.Conversion == ConversionNone {
			tr.Text = append(tr.Text, a.Symbols(line)...)
			if sp := a.Space(); sp != Root {
				tr.Text = append(tr.Text, sp)
			}
			continue
		}
		rule, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("training line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if a.Conversion != ConversionNone {
		tr.Rules = NewConversionTable(rules)
	}
	return tr, nil
}

func parseRule(line string) (ConversionRule, error) {
	lhs, output, ok := strings.Cut(line, "=")
	if !ok {
		return ConversionRule{}, fmt.Errorf("expected input=output, got %q", line)
	}
	context, input, hasCtx := strings.Cut(lhs, ":")
	if !hasCtx {
		context, input = "", lhs
	}
	if input == "" {
		return ConversionRule{}, fmt.Errorf("empty input in %q", line)
	}
	return ConversionRule{Context: context, Input: input, Output: output}, nil
}
