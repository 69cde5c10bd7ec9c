package alphabet

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// File-format representation. Unknown elements and attributes are ignored
// by encoding/xml, which matches the format contract.
type xmlAlphabet struct {
	XMLName       xml.Name      `xml:"alphabet"`
	Name          string        `xml:"name,attr"`
	Orientation   string        `xml:"orientation"`
	Encoding      string        `xml:"encoding"`
	ContextEscape xmlEscape     `xml:"context_escape"`
	Conversion    xmlConversion `xml:"conversion"`
	Groups        []xmlGroup    `xml:"group"`
}

type xmlEscape struct {
	Char string `xml:"char,attr"`
}

type xmlConversion struct {
	Type       string `xml:"type,attr"`
	TrainStart string `xml:"train_start,attr"`
	TrainStop  string `xml:"train_stop,attr"`
}

type xmlGroup struct {
	Name       string         `xml:"name,attr"`
	Colour     string         `xml:"colour,attr"`
	Characters []xmlCharacter `xml:"character"`
}

type xmlCharacter struct {
	Text    string `xml:"text,attr"`
	Display string `xml:"display,attr"`
	P       string `xml:"p,attr"`
	Speed   string `xml:"speed,attr"`
}

// LoadXML parses an alphabet file. Symbols are numbered in document order
// starting at 1; group colours become the default colour key of their
// characters.
func LoadXML(r io.Reader) (*Alphabet, error) {
	var doc xmlAlphabet
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("alphabet: parse: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("alphabet: missing name attribute")
	}

	orient, err := ParseOrientation(doc.Orientation)
	if err != nil {
		return nil, err
	}
	conv, err := ParseConversionMode(doc.Conversion.Type)
	if err != nil {
		return nil, err
	}

	var chars []Char
	for _, g := range doc.Groups {
		groupColour := 0
		if g.Colour != "" {
			groupColour, err = strconv.Atoi(g.Colour)
			if err != nil {
				return nil, fmt.Errorf("alphabet: group %q: bad colour %q", g.Name, g.Colour)
			}
		}
		for _, c := range g.Characters {
			ch := Char{
				Display: c.Display,
				Text:    c.Text,
				Colour:  groupColour,
			}
			if ch.Display == "" {
				ch.Display = ch.Text
			}
			if c.P != "" {
				p, err := strconv.ParseFloat(c.P, 64)
				if err != nil || p <= 0 || p > 1 {
					return nil, fmt.Errorf("alphabet: character %q: bad p %q", c.Text, c.P)
				}
				ch.FixedProb = p
			}
			if c.Speed != "" {
				s, err := strconv.ParseFloat(c.Speed, 64)
				if err != nil || s <= 0 {
					return nil, fmt.Errorf("alphabet: character %q: bad speed %q", c.Text, c.Speed)
				}
				ch.SpeedFactor = s
			}
			chars = append(chars, ch)
		}
	}

	a, err := New(doc.Name, chars)
	if err != nil {
		return nil, err
	}
	a.Orientation = orient
	a.Encoding = doc.Encoding
	a.Conversion = conv
	a.TrainStart = doc.Conversion.TrainStart
	a.TrainStop = doc.Conversion.TrainStop
	if doc.ContextEscape.Char != "" {
		esc, _ := utf8.DecodeRuneInString(doc.ContextEscape.Char)
		a.ContextEscape = esc
	}
	return a, nil
}
