// Package dynamics owns the integer coordinate frame of the zooming view
// and the machinery that moves it: the scheduled-step queue and the
// frame-rate controller. All interval arithmetic is integer; the bounds
// below guarantee no intermediate product overflows int64.
package dynamics

import "github.com/willwade/dashergo/internal/model"

const (
	// MaxY is the height of the abstract viewport in Dasher coordinates.
	MaxY int64 = 4096

	// OriginY is the Y coordinate of the crosshair.
	OriginY = MaxY / 2

	// MinRootWidth is the narrowest the root interval may become after a
	// scheduled update; below this a child must be promoted to root.
	MinRootWidth = MaxY / 4

	// RootMinMin and RootMaxMax bound the root interval so that
	// width*Norm products stay far inside int64.
	RootMinMin int64 = -(1 << 30)
	RootMaxMax int64 = 1 << 30
)

// Step is one scheduled target for the root interval.
type Step struct {
	Min, Max int64
}

// Width reports the interval height of the step.
func (s Step) Width() int64 { return s.Max - s.Min }

// InBounds reports whether the step respects the overflow guards.
func (s Step) InBounds() bool {
	return s.Min >= RootMinMin && s.Max <= RootMaxMax
}

// ChildInterval maps a child's [lower, upper) slice of Norm into the
// absolute interval of its parent. Min is computed first and ordering is
// preserved even for very narrow children.
func ChildInterval(parent Step, lower, upper uint32) Step {
	w := parent.Width()
	min := parent.Min + w*int64(lower)/int64(model.Norm)
	max := parent.Min + w*int64(upper)/int64(model.Norm)
	if max < min {
		max = min
	}
	return Step{Min: min, Max: max}
}

// ParentInterval inverts ChildInterval: given the absolute interval of a
// child occupying [lower, upper) of its parent, it recovers the parent's
// absolute interval. ok is false when the result would breach the
// overflow guards; callers must then refuse the pop.
func ParentInterval(child Step, lower, upper uint32) (Step, bool) {
	span := int64(upper) - int64(lower)
	if span <= 0 {
		return Step{}, false
	}
	w := child.Width()
	parentWidth := w * int64(model.Norm) / span
	min := child.Min - parentWidth*int64(lower)/int64(model.Norm)
	p := Step{Min: min, Max: min + parentWidth}
	if !p.InBounds() {
		return Step{}, false
	}
	return p, true
}

// Contains reports whether y lies inside the half-open interval.
func (s Step) Contains(y int64) bool { return s.Min <= y && y < s.Max }
