// Package input turns raw pointer and button state into scheduled
// coordinate steps. Filters are driven once per frame by the session and
// never touch the node tree directly; they speak to the session through
// the Driver interface.
package input

import (
	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/screen"
)

// VirtualKey identifies a device-independent key.
type VirtualKey int

const (
	KeyPrimary VirtualKey = iota // primary pointer button
	KeySecondary
	KeyTertiary
	KeyStartStop
	KeyButton1
	KeyButton2
	KeyButton3
	KeyButton4
	KeyButton5
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyBackspace
	KeyTab
	KeyReturn
	KeyEscape
	KeySpace
)

// Driver is the slice of the session a filter steers.
type Driver interface {
	// ScheduleStep replaces the step queue with one capped step toward
	// the target range.
	ScheduleStep(y1, y2 int64, steps int, exact bool)

	// ScheduleZoom replaces the queue with an n-step zoom series.
	ScheduleZoom(y1, y2 int64, steps int)

	// StepsPerFrame converts a speed multiplier into the interpolation
	// count via the frame-rate controller.
	StepsPerFrame(speedMul float64) int

	// SpeedFactor is the per-symbol speed override at the crosshair
	// (1 when the symbol carries none).
	SpeedFactor() float64

	// MapToDasher converts screen coordinates into Dasher coordinates.
	// inside is false when the position is outside the viewport.
	MapToDasher(xScreen, yScreen int) (xd, yd int64, inside bool)

	// Backspace pops one committed symbol.
	Backspace()
}

// Filter converts raw input into scheduled steps, one Process call per
// frame.
type Filter interface {
	// Process runs once per frame while the session is running.
	Process(dev screen.Input, tMS int64, d Driver)

	KeyDown(k VirtualKey, tMS int64, d Driver)
	KeyUp(k VirtualKey, tMS int64, d Driver)

	Pause()
	Resume(tMS int64)
	Paused() bool

	// Reset returns the filter to its initial state without touching the
	// tree.
	Reset()

	// Decorate lets the filter draw its own overlay; it reports whether
	// it drew anything.
	Decorate(s screen.Screen) bool
}

// SlowStartMS is the default ramp after resume: speed scales linearly
// from slowStartFloor to 1 over this window.
const (
	SlowStartMS    = 1000
	slowStartFloor = 0.1
)

// dynamicBase carries the state every dynamic filter shares: pause flag,
// slow-start ramp, turbo key, and the target-x clamp.
type dynamicBase struct {
	paused   bool
	resumeMS int64
	turbo    bool

	// XMax clamps the target half-width in Dasher coordinates.
	XMax int64
}

func newDynamicBase() dynamicBase {
	return dynamicBase{paused: true, XMax: dynamics.MaxY}
}

func (b *dynamicBase) Pause()          { b.paused = true }
func (b *dynamicBase) Paused() bool    { return b.paused }
func (b *dynamicBase) Resume(tMS int64) {
	b.paused = false
	b.resumeMS = tMS
}

func (b *dynamicBase) reset() {
	b.paused = true
	b.resumeMS = 0
	b.turbo = false
}

// speedMul is the slow-start ramp times the turbo boost, zero while
// paused.
func (b *dynamicBase) speedMul(tMS int64) float64 {
	if b.paused {
		return 0
	}
	mul := 1.0
	if elapsed := tMS - b.resumeMS; elapsed < SlowStartMS {
		frac := float64(elapsed) / SlowStartMS
		if frac < 0 {
			frac = 0
		}
		mul = slowStartFloor + (1-slowStartFloor)*frac
	}
	if b.turbo {
		mul *= 2
	}
	return mul
}

// clampX bounds a target half-width to [1, XMax].
func (b *dynamicBase) clampX(x int64) int64 {
	if x < 1 {
		return 1
	}
	if x > b.XMax {
		return b.XMax
	}
	return x
}
