package input

import (
	"github.com/willwade/dashergo/internal/screen"
)

// Pointer is the default filter: continuous motion toward the pointer.
// The target range narrows as the pointer approaches the crosshair
// vertical, producing the natural zoom; pointing past the crosshair
// widens the range beyond the viewport and the view zooms back out.
type Pointer struct {
	dynamicBase

	// Exact selects geometric over approximate step dynamics.
	Exact bool

	lastSeen bool
}

// NewPointer returns a paused pointer filter.
func NewPointer() *Pointer {
	return &Pointer{dynamicBase: newDynamicBase(), Exact: true}
}

// Process implements Filter.
func (p *Pointer) Process(dev screen.Input, tMS int64, d Driver) {
	if p.paused {
		return
	}
	x, y, ok := dev.PollCoordinates()
	if !ok {
		p.lastSeen = false
		return
	}
	xd, yd, inside := d.MapToDasher(x, y)
	if !inside {
		// Leaving the viewport pauses; re-entry requires an explicit
		// resume so a stray pointer cannot restart motion.
		p.Pause()
		p.lastSeen = false
		return
	}
	p.lastSeen = true

	xd = p.clampX(xd)
	mul := p.speedMul(tMS) * d.SpeedFactor()
	steps := d.StepsPerFrame(mul)
	if steps <= 0 {
		return
	}
	d.ScheduleStep(yd-xd, yd+xd, steps, p.Exact)
}

// KeyDown implements Filter: the primary button and the start/stop key
// toggle pause; tab is the turbo key.
func (p *Pointer) KeyDown(k VirtualKey, tMS int64, d Driver) {
	switch k {
	case KeyPrimary, KeyStartStop:
		if p.paused {
			p.Resume(tMS)
		} else {
			p.Pause()
		}
	case KeyTab:
		p.turbo = true
	case KeyBackspace:
		d.Backspace()
	}
}

// KeyUp implements Filter.
func (p *Pointer) KeyUp(k VirtualKey, tMS int64, d Driver) {
	if k == KeyTab {
		p.turbo = false
	}
}

// Reset implements Filter.
func (p *Pointer) Reset() {
	p.reset()
	p.lastSeen = false
}

// Decorate implements Filter; the pointer filter draws no overlay.
func (p *Pointer) Decorate(screen.Screen) bool { return false }
