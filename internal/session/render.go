package session

import (
	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/screen"
	"github.com/willwade/dashergo/internal/tree"
)

// Palette slots with fixed roles; node colours index past them.
const (
	colourBackground = 0
	colourCrosshair  = 5
)

// renderFrame draws the visible subtree and the crosshair. Horizontal
// extent maps linearly from interval width, so a node's box grows as the
// view zooms toward it.
func (s *Session) renderFrame() {
	r := s.renderer
	w, h := r.Dimensions()
	if w <= 0 || h <= 0 {
		return
	}

	bg := s.scheme.Pair(colourBackground)
	r.DrawRectangle(0, 0, w-1, h-1, bg.Background, screen.Colour{}, 0)

	s.drawNode(r, s.root, s.cur, 0, w, h)
	if s.filter != nil {
		s.filter.Decorate(r)
	}
	s.drawCrosshair(r, w, h)
	r.Display()
}

func (s *Session) drawNode(r screen.Screen, n *tree.Node, abs dynamics.Step, depth, w, h int) {
	if abs.Max < 0 || abs.Min > dynamics.MaxY || depth > maxVisibleDepth {
		return
	}
	y1 := clampInt(int(abs.Min*int64(h)/dynamics.MaxY), 0, h-1)
	y2 := clampInt(int(abs.Max*int64(h)/dynamics.MaxY), 0, h-1)
	if y2 < y1 {
		return
	}

	// Box width is the interval width, linearly mapped; the root at
	// viewport width reaches half the screen.
	bw := int(abs.Width() * int64(w) / (2 * dynamics.MaxY))
	if bw > w {
		bw = w
	}
	x1 := w - bw

	if depth > 0 && bw > 0 {
		pair := s.scheme.Pair(n.Colour)
		r.DrawRectangle(x1, y1, w-1, y2, pair.Background, pair.Foreground, 1)
		if n.Label != "" && bw >= 2 {
			l := r.MakeLabel(n.Label, 0)
			r.DrawText(l, x1+1, (y1+y2)/2, pair.Foreground)
			r.DestroyLabel(l)
		}
	}

	for _, c := range n.Children {
		s.drawNode(r, c, dynamics.ChildInterval(abs, c.Lower, c.Upper), depth+1, w, h)
	}
}

func (s *Session) drawCrosshair(r screen.Screen, w, h int) {
	c := s.scheme.Pair(colourCrosshair).Foreground
	cy := h / 2
	r.DrawLine(0, cy, w-1, cy, 1, c)
	r.DrawLine(w/2, cy-1, w/2, cy+1, 1, c)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
