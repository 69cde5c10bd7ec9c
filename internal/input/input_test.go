package input

import (
	"math"
	"testing"

	"github.com/willwade/dashergo/internal/dynamics"
)

// stubDriver records scheduler calls and lets tests script the
// coordinate mapping.
type stubDriver struct {
	stepY1, stepY2 int64
	stepN          int
	stepExact      bool
	stepCalls      int

	backspaces int
	lastMul    float64
	inside     bool
	speed      float64
}

func newStubDriver() *stubDriver {
	return &stubDriver{inside: true, speed: 1}
}

func (d *stubDriver) ScheduleStep(y1, y2 int64, steps int, exact bool) {
	d.stepY1, d.stepY2 = y1, y2
	d.stepN = steps
	d.stepExact = exact
	d.stepCalls++
}

func (d *stubDriver) ScheduleZoom(y1, y2 int64, steps int) {}

func (d *stubDriver) StepsPerFrame(speedMul float64) int {
	d.lastMul = speedMul
	if speedMul <= 0 {
		return 0
	}
	return 4
}

func (d *stubDriver) SpeedFactor() float64 { return d.speed }

func (d *stubDriver) MapToDasher(x, y int) (int64, int64, bool) {
	// Tests pass coordinates already in Dasher units.
	return int64(x), int64(y), d.inside
}

func (d *stubDriver) Backspace() { d.backspaces++ }

// stubDevice is a scripted pointer device.
type stubDevice struct {
	x, y    int
	ok      bool
	buttons map[int]bool
}

func (s *stubDevice) PollCoordinates() (int, int, bool) { return s.x, s.y, s.ok }

func (s *stubDevice) IsButtonPressed(id int) bool { return s.buttons[id] }

func TestPointer_Process_SchedulesTowardPointer(t *testing.T) {
	p := NewPointer()
	d := newStubDriver()
	dev := &stubDevice{x: 512, y: 2048, ok: true}

	p.Resume(0)
	p.Process(dev, SlowStartMS+1, d)

	if d.stepCalls != 1 {
		t.Fatalf("stepCalls = %d, want 1", d.stepCalls)
	}
	if d.stepY1 != 2048-512 || d.stepY2 != 2048+512 {
		t.Errorf("target = (%d, %d), want (1536, 2560)", d.stepY1, d.stepY2)
	}
	if !d.stepExact {
		t.Error("pointer filter should request exact dynamics")
	}
}

func TestPointer_Process_PausedDoesNothing(t *testing.T) {
	p := NewPointer()
	d := newStubDriver()
	dev := &stubDevice{x: 512, y: 2048, ok: true}

	p.Process(dev, 100, d)

	if d.stepCalls != 0 {
		t.Fatalf("stepCalls = %d while paused, want 0", d.stepCalls)
	}
	if !p.Paused() {
		t.Error("filter should start paused")
	}
}

func TestPointer_Process_LeavingViewportPauses(t *testing.T) {
	p := NewPointer()
	d := newStubDriver()
	dev := &stubDevice{x: 512, y: 2048, ok: true}

	p.Resume(0)
	d.inside = false
	p.Process(dev, 100, d)

	if !p.Paused() {
		t.Error("leaving the viewport should pause the filter")
	}
	if d.stepCalls != 0 {
		t.Errorf("stepCalls = %d after exit, want 0", d.stepCalls)
	}

	// Re-entry alone must not restart motion.
	d.inside = true
	p.Process(dev, 200, d)
	if d.stepCalls != 0 {
		t.Error("re-entry restarted motion without an explicit resume")
	}
}

func TestPointer_KeyDown_PrimaryTogglesPause(t *testing.T) {
	p := NewPointer()
	d := newStubDriver()

	p.KeyDown(KeyPrimary, 10, d)
	if p.Paused() {
		t.Fatal("first press should resume")
	}
	p.KeyDown(KeyPrimary, 20, d)
	if !p.Paused() {
		t.Fatal("second press should pause")
	}
}

func TestPointer_KeyDown_BackspaceForwards(t *testing.T) {
	p := NewPointer()
	d := newStubDriver()

	p.KeyDown(KeyBackspace, 10, d)
	if d.backspaces != 1 {
		t.Errorf("backspaces = %d, want 1", d.backspaces)
	}
}

func TestDynamicBase_SpeedMul_SlowStartRamp(t *testing.T) {
	b := newDynamicBase()
	b.Resume(0)

	tests := []struct {
		tMS  int64
		want float64
	}{
		{0, slowStartFloor},
		{SlowStartMS / 2, slowStartFloor + (1-slowStartFloor)*0.5},
		{SlowStartMS, 1},
		{SlowStartMS * 10, 1},
	}
	for _, tt := range tests {
		if got := b.speedMul(tt.tMS); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("speedMul(%d) = %v, want %v", tt.tMS, got, tt.want)
		}
	}
}

func TestDynamicBase_SpeedMul_TurboDoubles(t *testing.T) {
	b := newDynamicBase()
	b.Resume(0)
	b.turbo = true

	if got := b.speedMul(SlowStartMS); got != 2 {
		t.Errorf("speedMul with turbo = %v, want 2", got)
	}
}

func TestDynamicBase_ClampX(t *testing.T) {
	b := newDynamicBase()

	if got := b.clampX(0); got != 1 {
		t.Errorf("clampX(0) = %d, want 1", got)
	}
	if got := b.clampX(dynamics.MaxY * 2); got != dynamics.MaxY {
		t.Errorf("clampX(2*max) = %d, want %d", got, dynamics.MaxY)
	}
	if got := b.clampX(100); got != 100 {
		t.Errorf("clampX(100) = %d, want 100", got)
	}
}

func TestOneButton_ShortClickTogglesTarget(t *testing.T) {
	f := NewOneButton()
	d := newStubDriver()
	dev := &stubDevice{}

	f.Resume(0)
	f.Process(dev, SlowStartMS, d)
	high := d.stepY1

	f.KeyDown(KeyButton1, 2000, d)
	f.KeyUp(KeyButton1, 2100, d)
	f.Process(dev, 2200, d)

	if d.stepY1 <= high {
		t.Errorf("after toggle target min = %d, want > %d", d.stepY1, high)
	}
}

func TestOneButton_LongPressBackspaces(t *testing.T) {
	f := NewOneButton()
	d := newStubDriver()
	dev := &stubDevice{}

	f.Resume(0)
	f.KeyDown(KeyButton1, 1000, d)
	f.Process(dev, 1000+longPressMS, d)

	if d.backspaces != 1 {
		t.Fatalf("backspaces = %d after long press, want 1", d.backspaces)
	}

	// The release after a long press must not also toggle.
	f.KeyUp(KeyButton1, 1000+longPressMS+50, d)
	f.Process(dev, 3000, d)
	if d.stepY1 != dynamics.OriginY-f.Offset-f.Width {
		t.Errorf("target moved after long press: min = %d", d.stepY1)
	}
}

func TestOneButton_ClickWhilePausedResumes(t *testing.T) {
	f := NewOneButton()
	d := newStubDriver()

	f.KeyDown(KeyButton1, 10, d)
	if f.Paused() {
		t.Fatal("click while paused should resume")
	}
	// The resuming click itself must not arm a long press.
	f.Process(&stubDevice{}, 10+longPressMS, d)
	if d.backspaces != 0 {
		t.Errorf("backspaces = %d after resuming click, want 0", d.backspaces)
	}
}

func TestTwoButton_HaltsWithoutInput(t *testing.T) {
	f := NewTwoButton()
	d := newStubDriver()
	dev := &stubDevice{buttons: map[int]bool{}}

	f.Resume(0)
	f.Process(dev, 100, d)
	if d.stepCalls != 0 {
		t.Errorf("stepCalls = %d with no buttons, want 0", d.stepCalls)
	}

	dev.buttons[1] = true
	dev.buttons[2] = true
	f.Process(dev, 200, d)
	if d.stepCalls != 0 {
		t.Errorf("stepCalls = %d with both buttons, want 0", d.stepCalls)
	}
}

func TestTwoButton_SteersPerButton(t *testing.T) {
	f := NewTwoButton()
	d := newStubDriver()
	dev := &stubDevice{buttons: map[int]bool{1: true}}

	f.Resume(0)
	f.Process(dev, SlowStartMS, d)
	upMin := d.stepY1

	dev.buttons = map[int]bool{2: true}
	f.Process(dev, SlowStartMS+100, d)

	if upMin >= d.stepY1 {
		t.Errorf("button 1 target min %d not above button 2 target min %d", upMin, d.stepY1)
	}
}

func TestDemo_Process_CyclesTargets(t *testing.T) {
	f := NewDemo(1)
	d := newStubDriver()
	dev := &stubDevice{}

	f.Resume(0)
	f.Process(dev, SlowStartMS, d)
	if d.stepCalls != 1 {
		t.Fatalf("stepCalls = %d, want 1", d.stepCalls)
	}
	firstTarget := f.target

	// Spin past one cycle; the aim point must move.
	f.Process(dev, SlowStartMS+f.CycleMS+1, d)
	if f.target == firstTarget {
		t.Error("target unchanged after a full cycle")
	}
}

func TestDemo_SpringConvergesOnTarget(t *testing.T) {
	f := NewDemo(1)
	d := newStubDriver()
	dev := &stubDevice{}

	f.CycleMS = 1 << 30 // hold one target
	f.Resume(0)
	for i := int64(0); i < 300; i++ {
		f.Process(dev, 10+i*33, d)
	}
	if math.Abs(f.pos-f.target) > 1 {
		t.Errorf("pos = %v after settling, want ~%v", f.pos, f.target)
	}
}

func TestDemo_Reset(t *testing.T) {
	f := NewDemo(1)
	d := newStubDriver()

	f.Resume(0)
	f.Process(&stubDevice{}, 100, d)
	f.Reset()

	if !f.Paused() {
		t.Error("reset should pause")
	}
	if f.pos != float64(dynamics.OriginY) || f.vel != 0 {
		t.Errorf("reset left pos=%v vel=%v", f.pos, f.vel)
	}
}
