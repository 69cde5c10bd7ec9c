package input

import (
	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/screen"
)

// Defaults for the button-driven filters, in Dasher coordinates and
// milliseconds.
const (
	defaultTargetOffset = dynamics.MaxY / 4
	defaultTargetWidth  = dynamics.MaxY / 8
	longPressMS         = 600
)

// OneButton is the single-switch dynamic filter: two fixed targets above
// and below the crosshair, a click toggling which one is active, and a
// long press reversing one committed symbol.
type OneButton struct {
	dynamicBase

	// Offset is the distance of each target from the crosshair.
	Offset int64
	// Width is the target half-width handed to the scheduler.
	Width int64

	lowTarget  bool // false: target above the crosshair
	downSince  int64
	downActive bool
}

// NewOneButton returns a paused one-button filter.
func NewOneButton() *OneButton {
	return &OneButton{
		dynamicBase: newDynamicBase(),
		Offset:      defaultTargetOffset,
		Width:       defaultTargetWidth,
	}
}

func (f *OneButton) target() int64 {
	if f.lowTarget {
		return dynamics.OriginY + f.Offset
	}
	return dynamics.OriginY - f.Offset
}

// Process implements Filter: flow continuously toward the active target.
func (f *OneButton) Process(dev screen.Input, tMS int64, d Driver) {
	if f.paused {
		return
	}
	// Long presses reverse instead of toggling; handled here so held
	// buttons repeat nothing.
	if f.downActive && tMS-f.downSince >= longPressMS {
		f.downActive = false
		d.Backspace()
	}

	w := f.clampX(f.Width)
	y := f.target()
	steps := d.StepsPerFrame(f.speedMul(tMS) * d.SpeedFactor())
	if steps <= 0 {
		return
	}
	d.ScheduleStep(y-w, y+w, steps, false)
}

// KeyDown implements Filter.
func (f *OneButton) KeyDown(k VirtualKey, tMS int64, d Driver) {
	switch k {
	case KeyStartStop:
		if f.paused {
			f.Resume(tMS)
		} else {
			f.Pause()
		}
	case KeyPrimary, KeyButton1:
		if f.paused {
			f.Resume(tMS)
			return
		}
		f.downSince = tMS
		f.downActive = true
	}
}

// KeyUp implements Filter: a short release toggles the active target.
func (f *OneButton) KeyUp(k VirtualKey, tMS int64, d Driver) {
	if k != KeyPrimary && k != KeyButton1 {
		return
	}
	if f.downActive && tMS-f.downSince < longPressMS {
		f.lowTarget = !f.lowTarget
	}
	f.downActive = false
}

// Reset implements Filter.
func (f *OneButton) Reset() {
	f.reset()
	f.lowTarget = false
	f.downActive = false
	f.downSince = 0
}

// Decorate implements Filter: mark both targets, the active one solid.
func (f *OneButton) Decorate(s screen.Screen) bool {
	drawTargetMarkers(s, f.target(), []int64{
		dynamics.OriginY - f.Offset,
		dynamics.OriginY + f.Offset,
	})
	return true
}

// TwoButton is the two-switch dynamic filter: button 1 steers at the
// upper target while held, button 2 at the lower, and motion halts with
// neither pressed. No click ambiguity, so no long-press logic.
type TwoButton struct {
	dynamicBase

	Offset int64
	Width  int64
}

// NewTwoButton returns a paused two-button filter.
func NewTwoButton() *TwoButton {
	return &TwoButton{
		dynamicBase: newDynamicBase(),
		Offset:      defaultTargetOffset,
		Width:       defaultTargetWidth,
	}
}

// Process implements Filter.
func (f *TwoButton) Process(dev screen.Input, tMS int64, d Driver) {
	if f.paused {
		return
	}
	up := dev.IsButtonPressed(1)
	down := dev.IsButtonPressed(2)
	if up == down {
		// Neither or both: halt.
		return
	}
	y := dynamics.OriginY - f.Offset
	if down {
		y = dynamics.OriginY + f.Offset
	}
	w := f.clampX(f.Width)
	steps := d.StepsPerFrame(f.speedMul(tMS) * d.SpeedFactor())
	if steps <= 0 {
		return
	}
	d.ScheduleStep(y-w, y+w, steps, false)
}

// KeyDown implements Filter.
func (f *TwoButton) KeyDown(k VirtualKey, tMS int64, d Driver) {
	switch k {
	case KeyStartStop:
		if f.paused {
			f.Resume(tMS)
		} else {
			f.Pause()
		}
	case KeyBackspace:
		d.Backspace()
	}
}

// KeyUp implements Filter.
func (f *TwoButton) KeyUp(VirtualKey, int64, Driver) {}

// Reset implements Filter.
func (f *TwoButton) Reset() { f.reset() }

// Decorate implements Filter.
func (f *TwoButton) Decorate(s screen.Screen) bool {
	drawTargetMarkers(s, -1, []int64{
		dynamics.OriginY - f.Offset,
		dynamics.OriginY + f.Offset,
	})
	return true
}

// drawTargetMarkers draws a tick at each target's screen row, widening
// the active one.
func drawTargetMarkers(s screen.Screen, active int64, targets []int64) {
	w, h := s.Dimensions()
	for _, t := range targets {
		y := int(t * int64(h) / dynamics.MaxY)
		length := w / 20
		if t == active {
			length = w / 10
		}
		c := screen.RGB(255, 80, 80)
		s.DrawLine(w-1-length, y, w-1, y, 1, c)
	}
}
