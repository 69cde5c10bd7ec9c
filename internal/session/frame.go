package session

import (
	"strings"

	"github.com/willwade/dashergo/internal/alphabet"
	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/model"
	"github.com/willwade/dashergo/internal/tree"
)

// expandMinWidth is the narrowest absolute interval still worth
// expanding; anything below it renders as a sliver with no children.
const expandMinWidth = dynamics.MaxY / 64

// maxVisibleDepth bounds per-frame expansion and rendering below the
// root.
const maxVisibleDepth = 6

// coverSlack absorbs the truncation drift of chained integer affine
// maps when testing whether an interval covers the viewport.
const coverSlack = dynamics.MaxY / 64

// Frame advances the session by one tick: input filter, scheduled step
// (with at most one promote or pop), expansion of the visible subtree,
// render. It reports whether a frame was rendered; without a renderer or
// before Start it is a no-op.
func (s *Session) Frame(tMS int64) bool {
	if !s.running || s.renderer == nil {
		return false
	}
	s.fps.RecordFrame(tMS)

	if s.filter != nil {
		s.filter.Process(s.inputDevice(), tMS, s)
	}

	if st, ok := s.sched.Next(); ok {
		s.applyStep(st)
	}

	s.expandVisible(s.root, s.cur, 0)
	s.renderFrame()

	if d := s.lm.Dictionary(); d != nil && tMS-s.lastTickMS >= 1000 {
		if s.lastTickMS != 0 {
			d.Tick(int((tMS - s.lastTickMS) / 1000))
		}
		s.lastTickMS = tMS
	}
	return true
}

// ScheduleStep implements input.Driver: replace the queue with one step
// toward the target band.
func (s *Session) ScheduleStep(y1, y2 int64, steps int, exact bool) {
	s.sched.ScheduleStep(s.cur, y1, y2, steps, xLimit, exact)
}

// ScheduleZoom implements input.Driver.
func (s *Session) ScheduleZoom(y1, y2 int64, steps int) {
	s.sched.ScheduleZoom(s.cur, y1, y2, steps)
}

// StepsPerFrame implements input.Driver.
func (s *Session) StepsPerFrame(speedMul float64) int {
	return s.fps.Steps(speedMul)
}

// SpeedFactor implements input.Driver: the per-symbol speed override of
// the node under the crosshair.
func (s *Session) SpeedFactor() float64 {
	w := s.cur.Width()
	if w <= 0 || !s.cur.Contains(dynamics.OriginY) {
		return 1
	}
	p := uint32((dynamics.OriginY - s.cur.Min) * int64(model.Norm) / w)
	c := s.root.ChildAt(p)
	if c == nil || c.Symbol == alphabet.Root {
		return 1
	}
	if f := s.alpha.Char(c.Symbol).SpeedFactor; f > 0 {
		return f
	}
	return 1
}

// MapToDasher implements input.Driver: screen coordinates to Dasher
// coordinates, with x measured leftward from the right edge so the
// target narrows as the pointer nears the box entry line.
func (s *Session) MapToDasher(xScreen, yScreen int) (int64, int64, bool) {
	if s.renderer == nil {
		return 0, 0, false
	}
	w, h := s.renderer.Dimensions()
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	inside := xScreen >= 0 && xScreen < w && yScreen >= 0 && yScreen < h
	xd := int64(w-xScreen) * dynamics.MaxY / int64(w)
	yd := int64(yScreen) * dynamics.MaxY / int64(h)
	return xd, yd, inside
}

// applyStep adopts one dequeued step, honouring the overflow guards and
// the minimum root width, then performs at most one promote or pop.
func (s *Session) applyStep(st dynamics.Step) {
	if !st.InBounds() {
		// A refused step drops the whole queue and pauses the filter;
		// the viewport holds steady.
		s.sched.Clear()
		if s.filter != nil {
			s.filter.Pause()
		}
		s.notify(EventStepRefused)
		s.logf("step refused: [%d, %d] out of bounds", st.Min, st.Max)
		return
	}
	if !st.Contains(dynamics.OriginY) {
		return
	}
	if st.Width() < dynamics.MinRootWidth && s.promotable(st) == nil {
		// Singular zoom with nothing to promote; hold.
		return
	}
	old := s.cur
	s.cur = st
	s.sched.Applied(old, st)
	s.reparent()
}

// promotable returns the child of the root whose absolute interval under
// st covers the whole viewport, nil when there is none. Sibling
// intervals are disjoint, so at most one child qualifies.
func (s *Session) promotable(st dynamics.Step) *tree.Node {
	for _, c := range s.root.Children {
		ci := dynamics.ChildInterval(st, c.Lower, c.Upper)
		if ci.Min <= coverSlack && ci.Max >= dynamics.MaxY-coverSlack && ci.Contains(dynamics.OriginY) {
			return c
		}
	}
	return nil
}

// reparent performs at most one root change per frame: promote the child
// covering the viewport, or pop to the parent when the root no longer
// covers it.
func (s *Session) reparent() {
	if c := s.promotable(s.cur); c != nil {
		s.promote(c)
		return
	}
	if s.cur.Min > coverSlack || s.cur.Max < dynamics.MaxY-coverSlack {
		s.pop()
	}
}

func (s *Session) promote(c *tree.Node) {
	old := s.root
	s.cur = dynamics.ChildInterval(s.cur, c.Lower, c.Upper)
	s.root = c
	s.sched.RemapToChild(c.Lower, c.Upper)
	for _, sib := range old.Children {
		if sib != c {
			sib.Collapse()
		}
	}
	s.oldRoots.Push(old)
	s.commit(c)
}

// pop adopts the retained parent as root, widening the interval through
// the inverse affine transform. Refused when the parent chain is gone or
// the widened interval would overflow.
func (s *Session) pop() {
	parent := s.root.Parent
	if parent == nil || s.oldRoots.Newest() != parent {
		return
	}
	p, ok := dynamics.ParentInterval(s.cur, s.root.Lower, s.root.Upper)
	if !ok {
		if s.filter != nil {
			s.filter.Pause()
		}
		s.notify(EventPopRefused)
		s.logf("pop refused: parent interval would overflow")
		return
	}
	s.oldRoots.PopNewest()
	s.sched.RemapToParent(s.root.Lower, s.root.Upper)
	s.root = parent
	s.cur = p
}

// commit marks a newly promoted root as seen and, the first time, writes
// its output: tape append, model observation, and a dictionary commit
// when the symbol finishes a word.
func (s *Session) commit(n *tree.Node) {
	n.Set(tree.Seen)
	if n.Has(tree.Committed) {
		return
	}
	n.Set(tree.Committed)

	if n.Has(tree.Control) {
		s.runControl(n)
		return
	}
	if n.Symbol == alphabet.Root {
		return
	}

	ch := s.alpha.Char(n.Symbol)
	if s.conv != nil {
		s.commitConverted(n, ch.Text)
	} else {
		s.tape.Append(n.Symbol, ch.Text)
	}
	s.lm.Observe(s.exp.Context(n.Parent), n.Symbol)
	s.writes++

	if d := s.lm.Dictionary(); d != nil && n.Has(tree.WordBoundary) {
		if syms := s.exp.WordBuffer(n.Parent); len(syms) > 0 {
			d.Commit(s.wordText(syms), syms)
		}
	}
}

// commitConverted writes one symbol through the conversion table.
// Rule inputs may span several symbols, so the newest unconverted tape
// entry is first retried together with the new input; on a match the run
// is replaced by the rule's output and the node marked converted, which
// releases its old roots from the retention hold.
func (s *Session) commitConverted(n *tree.Node, in string) {
	if syms, tail, ok := s.tape.LastUnconverted(); ok {
		ctx := strings.TrimSuffix(s.tape.String(), tail)
		if out, found := s.conv.Lookup(ctx, tail+in); found {
			s.tape.Pop()
			run := append(append([]alphabet.Symbol(nil), syms...), n.Symbol)
			s.tape.AppendConverted(run, out)
			n.Set(tree.Converted)
			return
		}
	}
	if out, found := s.conv.Lookup(s.tape.String(), in); found {
		s.tape.AppendConverted([]alphabet.Symbol{n.Symbol}, out)
		n.Set(tree.Converted)
		return
	}
	s.tape.Append(n.Symbol, in)
}

func (s *Session) wordText(syms []alphabet.Symbol) string {
	var b []byte
	for _, sym := range syms {
		b = append(b, s.alpha.Char(sym).Text...)
	}
	return string(b)
}

// runControl executes a control child's action.
func (s *Session) runControl(n *tree.Node) {
	switch n.Action {
	case tree.ActionBackspace:
		s.Backspace()
	case tree.ActionSpace:
		sp := s.alpha.Space()
		s.tape.Append(sp, s.alpha.Char(sp).Text)
		s.writes++
	case tree.ActionAccept:
		s.Pause()
	}
}

// expandVisible grows the subtree that intersects the viewport, bounded
// by depth and interval width, and collapses subtrees that have left it.
func (s *Session) expandVisible(n *tree.Node, abs dynamics.Step, depth int) {
	if abs.Max < 0 || abs.Min > dynamics.MaxY {
		if len(n.Children) > 0 {
			n.Collapse()
		}
		return
	}
	if depth > maxVisibleDepth || abs.Width() < expandMinWidth || n.Has(tree.Control) {
		return
	}
	s.exp.Expand(n)
	for _, c := range n.Children {
		s.expandVisible(c, dynamics.ChildInterval(abs, c.Lower, c.Upper), depth+1)
	}
}
