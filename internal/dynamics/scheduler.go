package dynamics

import "math"

// Scheduler holds the FIFO of root-interval targets that interpolate
// motion toward the user's aim. New user input replaces the queue, so the
// most recent intent always wins.
type Scheduler struct {
	queue     []Step
	totalNats float64
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Len reports the number of queued steps.
func (s *Scheduler) Len() int { return len(s.queue) }

// Clear drains the queue.
func (s *Scheduler) Clear() { s.queue = s.queue[:0] }

// TotalNats is the information written so far: the accumulated
// ln(newWidth/oldWidth) of every adopted step. Zooming in grows the root
// interval, so forward progress accumulates positive nats.
func (s *Scheduler) TotalNats() float64 { return s.totalNats }

// Applied records that a step was adopted, moving the root from old to new.
func (s *Scheduler) Applied(old, new Step) {
	ow, nw := old.Width(), new.Width()
	if ow <= 0 || nw <= 0 {
		return
	}
	s.totalNats += math.Log(float64(nw) / float64(ow))
}

// Next pops the oldest queued step. ok is false when the queue is empty.
func (s *Scheduler) Next() (Step, bool) {
	if len(s.queue) == 0 {
		return Step{}, false
	}
	st := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue = s.queue[:len(s.queue)-1]
	return st, true
}

// ScheduleStep replaces the queue with one step toward the target range
// (y1, y2): the viewport band that a single full jump would map onto
// (0, MaxY). nSteps controls the speed cap; xLimit is the filter's
// minimum target width; exact selects geometric over approximate
// dynamics.
//
// The full-jump destination is the affine image of the current root under
// the map sending (y1,y2) to (0,MaxY). Targets at least 2*xLimit wide are
// jumped to in one step; narrower targets move a capped fraction per call.
func (s *Scheduler) ScheduleStep(cur Step, y1, y2 int64, nSteps int, xLimit int64, exact bool) {
	s.Clear()
	span := y2 - y1
	if span <= 0 {
		return
	}
	r1 := MaxY * (cur.Min - y1) / span
	r2 := MaxY * (cur.Max - y1) / span
	m1 := r1 - cur.Min
	m2 := r2 - cur.Max

	if span >= 2*xLimit {
		s.queue = append(s.queue, Step{Min: cur.Min + m1, Max: cur.Max + m2})
		return
	}

	f := stepFraction(span, nSteps, exact)
	s.queue = append(s.queue, Step{
		Min: cur.Min + int64(f*float64(m1)),
		Max: cur.Max + int64(f*float64(m2)),
	})
}

// stepFraction is the per-frame share of the full motion vector.
func stepFraction(span int64, nSteps int, exact bool) float64 {
	if nSteps <= 1 {
		return 1
	}
	if exact {
		// Geometric interpolation: reach total zoom E in nSteps equal
		// zoom factors.
		e := float64(MaxY) / float64(span)
		if e <= 1 {
			return 1
		}
		return (math.Pow(e, 1/float64(nSteps)) - 1) / (e - 1)
	}
	root := math.Sqrt(float64(span))
	return root / (64*float64(nSteps-1) + root)
}

// ScheduleZoom replaces the queue with a logarithmic series of n
// intermediate steps toward the full-jump destination of (y1, y2), so
// large zooms appear at a perceptually uniform rate.
func (s *Scheduler) ScheduleZoom(cur Step, y1, y2 int64, n int) {
	s.Clear()
	span := y2 - y1
	if span <= 0 {
		return
	}
	if n < 1 {
		n = 1
	}
	r1 := MaxY * (cur.Min - y1) / span
	r2 := MaxY * (cur.Max - y1) / span

	w0 := float64(cur.Width())
	wf := float64(r2 - r1)
	if w0 <= 0 || wf <= 0 {
		return
	}

	g := math.Pow(wf/w0, 1/float64(n))
	for i := 1; i <= n; i++ {
		var frac float64
		if math.Abs(g-1) < 1e-9 {
			frac = float64(i) / float64(n)
		} else {
			frac = (1 - math.Pow(g, float64(i))) / (1 - math.Pow(g, float64(n)))
		}
		s.queue = append(s.queue, Step{
			Min: cur.Min + int64(frac*float64(r1-cur.Min)),
			Max: cur.Max + int64(frac*float64(r2-cur.Max)),
		})
	}
}

// RemapToChild rewrites every queued step through the transform that made
// the child occupying [lower, upper) of the old root the new root, so
// queued motion continues smoothly across a promotion.
func (s *Scheduler) RemapToChild(lower, upper uint32) {
	for i, st := range s.queue {
		s.queue[i] = ChildInterval(st, lower, upper)
	}
}

// RemapToParent rewrites every queued step through the inverse transform
// after a pop. Steps that would breach the overflow guards are dropped.
func (s *Scheduler) RemapToParent(lower, upper uint32) {
	kept := s.queue[:0]
	for _, st := range s.queue {
		if p, ok := ParentInterval(st, lower, upper); ok {
			kept = append(kept, p)
		}
	}
	s.queue = kept
}
