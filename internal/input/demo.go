package input

import (
	"math/rand"

	"github.com/charmbracelet/harmonica"

	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/screen"
)

// Demo is the unattended demonstration filter: it needs no device and
// cycles between targets on a timer, easing its simulated pointer with a
// spring so the motion looks hand-steered rather than stepped.
type Demo struct {
	dynamicBase

	// CycleMS is how long each target holds before the next is chosen.
	CycleMS int64
	// Random picks targets at random instead of alternating.
	Random bool
	// Width is the target half-width handed to the scheduler.
	Width int64

	rng       *rand.Rand
	spring    harmonica.Spring
	pos, vel  float64
	target    float64
	lastCycle int64
	alternate bool
}

// NewDemo returns a paused demo filter seeded for reproducible runs.
func NewDemo(seed int64) *Demo {
	return &Demo{
		dynamicBase: newDynamicBase(),
		CycleMS:     2500,
		Width:       defaultTargetWidth,
		rng:         rand.New(rand.NewSource(seed)),
		spring:      harmonica.NewSpring(harmonica.FPS(30), 4.0, 0.9),
		pos:         float64(dynamics.OriginY),
		target:      float64(dynamics.OriginY),
	}
}

// Process implements Filter.
func (f *Demo) Process(dev screen.Input, tMS int64, d Driver) {
	if f.paused {
		return
	}
	if f.lastCycle == 0 || tMS-f.lastCycle >= f.CycleMS {
		f.lastCycle = tMS
		f.pickTarget()
	}
	f.pos, f.vel = f.spring.Update(f.pos, f.vel, f.target)

	y := int64(f.pos)
	w := f.clampX(f.Width)
	steps := d.StepsPerFrame(f.speedMul(tMS) * d.SpeedFactor())
	if steps <= 0 {
		return
	}
	d.ScheduleStep(y-w, y+w, steps, false)
}

func (f *Demo) pickTarget() {
	if f.Random {
		f.target = float64(1 + f.rng.Int63n(dynamics.MaxY-2))
		return
	}
	f.alternate = !f.alternate
	if f.alternate {
		f.target = float64(dynamics.OriginY - defaultTargetOffset)
	} else {
		f.target = float64(dynamics.OriginY + defaultTargetOffset)
	}
}

// KeyDown implements Filter: any start/stop press toggles the demo.
func (f *Demo) KeyDown(k VirtualKey, tMS int64, d Driver) {
	if k == KeyStartStop || k == KeyPrimary {
		if f.paused {
			f.Resume(tMS)
		} else {
			f.Pause()
		}
	}
}

// KeyUp implements Filter.
func (f *Demo) KeyUp(VirtualKey, int64, Driver) {}

// Reset implements Filter.
func (f *Demo) Reset() {
	f.reset()
	f.pos = float64(dynamics.OriginY)
	f.vel = 0
	f.target = f.pos
	f.lastCycle = 0
	f.alternate = false
}

// Decorate implements Filter: show where the autopilot is aiming.
func (f *Demo) Decorate(s screen.Screen) bool {
	w, h := s.Dimensions()
	y := int(int64(f.pos) * int64(h) / dynamics.MaxY)
	s.DrawCircle(w/2, y, 1, screen.Colour{}, screen.RGB(80, 160, 255), 1)
	return true
}
