package screen

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Pair is one palette slot: the fill of a node box and the colour its
// label is drawn in.
type Pair struct {
	Foreground Colour
	Background Colour
}

// Scheme is a named colour scheme.
type Scheme struct {
	Name        string
	Description string
	Pairs       []Pair
}

// Pair returns the palette entry for key, wrapping out-of-range keys so a
// sparse alphabet colour key always lands somewhere sane.
func (s *Scheme) Pair(key int) Pair {
	if len(s.Pairs) == 0 {
		return Pair{Foreground: RGB(0, 0, 0), Background: RGB(255, 255, 255)}
	}
	if key < 0 {
		key = -key
	}
	return s.Pairs[key%len(s.Pairs)]
}

type xmlSchemes struct {
	XMLName xml.Name    `xml:"colorschemes"`
	Schemes []xmlScheme `xml:"scheme"`
}

type xmlScheme struct {
	Name        string    `xml:"name,attr"`
	Description string    `xml:"description"`
	Pairs       []xmlPair `xml:"pair"`
}

type xmlPair struct {
	Index      int    `xml:"index,attr"`
	Foreground string `xml:"foreground"`
	Background string `xml:"background"`
}

// LoadSchemes parses a colour-scheme file.
func LoadSchemes(r io.Reader) ([]Scheme, error) {
	var doc xmlSchemes
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("screen: parse colour schemes: %w", err)
	}
	schemes := make([]Scheme, 0, len(doc.Schemes))
	for _, s := range doc.Schemes {
		scheme := Scheme{Name: s.Name, Description: s.Description}
		// Pairs land at their declared index; gaps fill with defaults.
		maxIdx := -1
		for _, p := range s.Pairs {
			if p.Index > maxIdx {
				maxIdx = p.Index
			}
		}
		if maxIdx >= 0 {
			scheme.Pairs = make([]Pair, maxIdx+1)
			for i := range scheme.Pairs {
				scheme.Pairs[i] = Pair{Foreground: RGB(0, 0, 0), Background: RGB(255, 255, 255)}
			}
		}
		for _, p := range s.Pairs {
			if p.Index < 0 {
				return nil, fmt.Errorf("screen: scheme %q: negative pair index", s.Name)
			}
			fg, err := parseHexColour(p.Foreground)
			if err != nil {
				return nil, fmt.Errorf("screen: scheme %q pair %d: %w", s.Name, p.Index, err)
			}
			bg, err := parseHexColour(p.Background)
			if err != nil {
				return nil, fmt.Errorf("screen: scheme %q pair %d: %w", s.Name, p.Index, err)
			}
			scheme.Pairs[p.Index] = Pair{Foreground: fg, Background: bg}
		}
		schemes = append(schemes, scheme)
	}
	return schemes, nil
}

func parseHexColour(s string) (Colour, error) {
	if len(s) != 7 || s[0] != '#' {
		return Colour{}, fmt.Errorf("bad colour %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Colour{}, fmt.Errorf("bad colour %q", s)
	}
	return RGB(r, g, b), nil
}

// DefaultScheme is the built-in palette used when no scheme file is
// loaded: a white canvas with a rotating set of soft box fills, matching
// the stock colour file's ordering closely enough for the default
// alphabet's colour keys.
func DefaultScheme() *Scheme {
	hex := []string{
		"#ffffff", "#ffaaaa", "#fff0a0", "#a0ffa0", "#a0f0ff",
		"#e0a0ff", "#ffd0e8", "#d0d0d0", "#b0e0b0", "#80c0ff",
		"#e8e8a8", "#c8f0c8", "#a8d8f8",
	}
	s := &Scheme{Name: "default"}
	for _, h := range hex {
		c, err := parseHexColour(h)
		if err != nil {
			panic(err)
		}
		s.Pairs = append(s.Pairs, Pair{Foreground: RGB(16, 16, 16), Background: c})
	}
	return s
}
