package screen

import (
	"fmt"
	"strings"

	styles "github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// CellScreen renders the Screen contract onto a terminal character grid.
// One screen unit is one cell. The demo host embeds the rendered string
// into its bubbletea view each frame.
type CellScreen struct {
	w, h  int
	runes [][]rune
	fg    [][]Colour
	bg    [][]Colour

	frame string
}

// NewCellScreen allocates a grid of the given size.
func NewCellScreen(w, h int) *CellScreen {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s := &CellScreen{w: w, h: h}
	s.clear()
	return s
}

func (s *CellScreen) clear() {
	s.runes = make([][]rune, s.h)
	s.fg = make([][]Colour, s.h)
	s.bg = make([][]Colour, s.h)
	for y := 0; y < s.h; y++ {
		s.runes[y] = make([]rune, s.w)
		s.fg[y] = make([]Colour, s.w)
		s.bg[y] = make([]Colour, s.w)
		for x := 0; x < s.w; x++ {
			s.runes[y][x] = ' '
		}
	}
}

// Resize reallocates the grid; content is dropped.
func (s *CellScreen) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s.w, s.h = w, h
	s.clear()
}

// Dimensions implements Screen.
func (s *CellScreen) Dimensions() (int, int) { return s.w, s.h }

func (s *CellScreen) put(x, y int, r rune, fg, bg Colour) {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		return
	}
	if r != 0 {
		s.runes[y][x] = r
	}
	if fg.Opaque() {
		s.fg[y][x] = fg
	}
	if bg.Opaque() {
		s.bg[y][x] = bg
	}
}

// DrawRectangle implements Screen. Fill paints the cell background;
// outline draws single-cell box edges when opaque.
func (s *CellScreen) DrawRectangle(x1, y1, x2, y2 int, fill, outline Colour, lineWidth int) {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	if fill.Opaque() {
		for y := y1; y <= y2; y++ {
			for x := x1; x <= x2; x++ {
				s.put(x, y, ' ', Colour{}, fill)
			}
		}
	}
	if outline.Opaque() && lineWidth > 0 {
		for x := x1; x <= x2; x++ {
			s.put(x, y1, '─', outline, Colour{})
			s.put(x, y2, '─', outline, Colour{})
		}
		for y := y1; y <= y2; y++ {
			s.put(x1, y, '│', outline, Colour{})
			s.put(x2, y, '│', outline, Colour{})
		}
		s.put(x1, y1, '┌', outline, Colour{})
		s.put(x2, y1, '┐', outline, Colour{})
		s.put(x1, y2, '└', outline, Colour{})
		s.put(x2, y2, '┘', outline, Colour{})
	}
}

// DrawPolygon approximates a polygon by its outline segments.
func (s *CellScreen) DrawPolygon(pts []Point, fill, outline Colour, lineWidth int) {
	if len(pts) < 2 {
		return
	}
	c := outline
	if !c.Opaque() {
		c = fill
	}
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		s.DrawLine(a.X, a.Y, b.X, b.Y, lineWidth, c)
	}
}

// DrawCircle draws a midpoint-ish circle outline; the terminal aspect
// ratio is left to the caller.
func (s *CellScreen) DrawCircle(cx, cy, r int, fill, outline Colour, lineWidth int) {
	if r <= 0 {
		s.put(cx, cy, '•', outline, fill)
		return
	}
	x, y, err := r, 0, 0
	for x >= y {
		for _, p := range [][2]int{
			{cx + x, cy + y}, {cx - x, cy + y}, {cx + x, cy - y}, {cx - x, cy - y},
			{cx + y, cy + x}, {cx - y, cy + x}, {cx + y, cy - x}, {cx - y, cy - x},
		} {
			s.put(p[0], p[1], '·', outline, Colour{})
		}
		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// DrawLine implements Screen with a Bresenham walk.
func (s *CellScreen) DrawLine(x1, y1, x2, y2, lineWidth int, c Colour) {
	dx := x2 - x1
	if dx < 0 {
		dx = -dx
	}
	dy := y2 - y1
	if dy < 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	glyph := '│'
	if dx > dy {
		glyph = '─'
	}
	e := dx - dy
	x, y := x1, y1
	for {
		s.put(x, y, glyph, c, Colour{})
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x += sx
		}
		if e2 < dx {
			e += dx
			y += sy
		}
	}
}

type cellLabel struct {
	text string
	wrap int
}

func (l *cellLabel) Text() string { return l.text }

// MakeLabel implements Screen.
func (s *CellScreen) MakeLabel(text string, wrap int) Label {
	return &cellLabel{text: text, wrap: wrap}
}

// DestroyLabel implements Screen; cell labels hold no backend resources.
func (s *CellScreen) DestroyLabel(Label) {}

// MeasureText implements Screen using terminal cell widths, so wide CJK
// glyphs report their true footprint.
func (s *CellScreen) MeasureText(l Label) (int, int) {
	cl, ok := l.(*cellLabel)
	if !ok {
		return 0, 0
	}
	w := runewidth.StringWidth(cl.text)
	if cl.wrap > 0 && w > cl.wrap {
		lines := (w + cl.wrap - 1) / cl.wrap
		return cl.wrap, lines
	}
	return w, 1
}

// DrawText implements Screen.
func (s *CellScreen) DrawText(l Label, x, y int, c Colour) {
	cl, ok := l.(*cellLabel)
	if !ok {
		return
	}
	cx := x
	for _, r := range cl.text {
		w := runewidth.RuneWidth(r)
		if cl.wrap > 0 && cx-x >= cl.wrap {
			cx = x
			y++
		}
		s.put(cx, y, r, c, Colour{})
		cx += w
		if w == 2 {
			// Blank the shadowed cell so stale content never peeks out
			// from under a wide rune.
			s.put(cx-1, y, ' ', Colour{}, Colour{})
		}
	}
}

// Display implements Screen: it freezes the grid into a styled string and
// resets the canvas for the next frame.
func (s *CellScreen) Display() {
	var sb strings.Builder
	sb.Grow(s.w * s.h * 2)
	for y := 0; y < s.h; y++ {
		x := 0
		for x < s.w {
			fg, bg := s.fg[y][x], s.bg[y][x]
			run := x
			for run < s.w && s.fg[y][run] == fg && s.bg[y][run] == bg {
				run++
			}
			text := string(s.runes[y][x:run])
			st := styles.NewStyle()
			if fg.Opaque() {
				st = st.Foreground(styles.Color(hexOf(fg)))
			}
			if bg.Opaque() {
				st = st.Background(styles.Color(hexOf(bg)))
			}
			sb.WriteString(st.Render(text))
			x = run
		}
		if y != s.h-1 {
			sb.WriteRune('\n')
		}
	}
	s.frame = sb.String()
	s.clear()
}

// Frame returns the last Display()ed frame.
func (s *CellScreen) Frame() string { return s.frame }

func hexOf(c Colour) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
