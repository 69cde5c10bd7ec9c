package alphabet

import (
	"strings"
	"testing"
)

func TestNew_ReservesPseudoRoot(t *testing.T) {
	a, err := New("test", []Char{{Display: "a", Text: "a"}, {Display: "b", Text: "b"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Size() != 3 {
		t.Fatalf("Size = %d, want 3 (root + 2 chars)", a.Size())
	}
	if got := a.Char(Root); got.Text != "" {
		t.Errorf("pseudo-root carries output %q", got.Text)
	}
	if got := a.SymbolOf("a"); got != 1 {
		t.Errorf("SymbolOf(a) = %d, want 1", got)
	}
	if got := a.SymbolOf("b"); got != 2 {
		t.Errorf("SymbolOf(b) = %d, want 2", got)
	}
}

func TestNew_EmptyIsError(t *testing.T) {
	if _, err := New("empty", nil); err == nil {
		t.Fatal("expected error for empty alphabet")
	}
}

func TestSymbols_MapsTextAndSkipsUnknown(t *testing.T) {
	a := Default()
	syms := a.Symbols("ab z")
	want := []Symbol{a.SymbolOf("a"), a.SymbolOf("b"), a.Space(), a.SymbolOf("z")}
	if len(syms) != len(want) {
		t.Fatalf("Symbols = %v, want %v", syms, want)
	}
	for i := range want {
		if syms[i] != want[i] {
			t.Fatalf("Symbols[%d] = %d, want %d", i, syms[i], want[i])
		}
	}
	// Unknown runes degrade silently.
	if got := a.Symbols("a!b"); len(got) != 2 {
		t.Errorf("Symbols(a!b) = %v, want 2 symbols", got)
	}
}

func TestDefault_HasSpaceSymbol(t *testing.T) {
	a := Default()
	if a.Space() == Root {
		t.Fatal("default alphabet has no space symbol")
	}
	if got := a.Char(a.Space()).Text; got != " " {
		t.Errorf("space output = %q", got)
	}
}

func TestLoadXML_NumbersSymbolsInDocumentOrder(t *testing.T) {
	const doc = `<alphabet name="tiny">
		<orientation>RTL</orientation>
		<encoding>UTF-8</encoding>
		<context_escape char="~"/>
		<group name="letters" colour="4">
			<character text="a" display="A" p="0.5" speed="2.0"/>
			<character text="b"/>
		</group>
		<group name="punct" colour="7">
			<character text=" " display="_"/>
		</group>
	</alphabet>`
	a, err := LoadXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadXML: %v", err)
	}
	if a.Name != "tiny" {
		t.Errorf("Name = %q", a.Name)
	}
	if a.Orientation != RightToLeft {
		t.Errorf("Orientation = %v, want RTL", a.Orientation)
	}
	if a.ContextEscape != '~' {
		t.Errorf("ContextEscape = %q", a.ContextEscape)
	}
	if a.Size() != 4 {
		t.Fatalf("Size = %d, want 4", a.Size())
	}
	first := a.Char(1)
	if first.Display != "A" || first.Text != "a" {
		t.Errorf("symbol 1 = %+v", first)
	}
	if first.FixedProb != 0.5 || first.SpeedFactor != 2.0 {
		t.Errorf("symbol 1 overrides = %+v", first)
	}
	if got := a.Char(1).Colour; got != 4 {
		t.Errorf("symbol 1 colour = %d, want group colour 4", got)
	}
	if got := a.Char(3).Colour; got != 7 {
		t.Errorf("symbol 3 colour = %d, want group colour 7", got)
	}
	// display falls back to text when absent
	if got := a.Char(2).Display; got != "b" {
		t.Errorf("symbol 2 display = %q, want fallback to text", got)
	}
}

func TestLoadXML_UnknownAttributesIgnored(t *testing.T) {
	const doc = `<alphabet name="x" future="yes">
		<group name="g" colour="1" shiny="true">
			<character text="a" weight="9"/>
		</group>
	</alphabet>`
	if _, err := LoadXML(strings.NewReader(doc)); err != nil {
		t.Fatalf("LoadXML: %v", err)
	}
}

func TestLoadXML_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing name", `<alphabet><group name="g"><character text="a"/></group></alphabet>`},
		{"bad orientation", `<alphabet name="x"><orientation>DIAGONAL</orientation><group><character text="a"/></group></alphabet>`},
		{"bad p", `<alphabet name="x"><group><character text="a" p="1.5"/></group></alphabet>`},
		{"no characters", `<alphabet name="x"></alphabet>`},
		{"malformed", `<alphabet name="x"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadXML(strings.NewReader(tc.doc)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestReadTraining_FreeText(t *testing.T) {
	a := Default()
	in := "# comment line\n\nhi\n"
	tr, err := ReadTraining(strings.NewReader(in), a)
	if err != nil {
		t.Fatalf("ReadTraining: %v", err)
	}
	// "hi" plus the implicit end-of-line space
	want := []Symbol{a.SymbolOf("h"), a.SymbolOf("i"), a.Space()}
	if len(tr.Text) != len(want) {
		t.Fatalf("Text = %v, want %v", tr.Text, want)
	}
	for i := range want {
		if tr.Text[i] != want[i] {
			t.Fatalf("Text[%d] = %d, want %d", i, tr.Text[i], want[i])
		}
	}
	if tr.Rules != nil {
		t.Error("free-text training produced rules")
	}
}

func TestReadTraining_ConversionRules(t *testing.T) {
	a, err := New("conv", []Char{{Display: "a", Text: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	a.Conversion = ConversionRouteContextSensitive

	in := "ka=か\nn:ka=が\n# comment\n"
	tr, err := ReadTraining(strings.NewReader(in), a)
	if err != nil {
		t.Fatalf("ReadTraining: %v", err)
	}
	if tr.Rules == nil || tr.Rules.Len() != 2 {
		t.Fatalf("rules = %v", tr.Rules)
	}
	if out, ok := tr.Rules.Lookup("", "ka"); !ok || out != "か" {
		t.Errorf("context-free lookup = %q,%v", out, ok)
	}
	// Longest context wins.
	if out, ok := tr.Rules.Lookup("on", "ka"); !ok || out != "が" {
		t.Errorf("context lookup = %q,%v", out, ok)
	}
	if _, ok := tr.Rules.Lookup("on", "zz"); ok {
		t.Error("lookup of unknown input succeeded")
	}
}

func TestReadTraining_BadRuleLine(t *testing.T) {
	a, _ := New("conv", []Char{{Display: "a", Text: "a"}})
	a.Conversion = ConversionRouteContextFree
	if _, err := ReadTraining(strings.NewReader("no-equals-here\n"), a); err == nil {
		t.Fatal("expected error for malformed rule")
	}
}
