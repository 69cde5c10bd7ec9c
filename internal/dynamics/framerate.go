package dynamics

import "math"

// Frame-rate smoothing and speed conversion. The controller keeps an
// exponentially weighted average of inter-frame intervals and converts
// the session's target bit-rate into the interpolation step count the
// filters hand to ScheduleStep: the faster the frames or the lower the
// bit-rate, the more steps one zoom is spread over.
type FrameRate struct {
	targetBits float64 // bits per second
	minSteps   int

	avgDT  float64 // seconds, EWMA
	lastMS int64
	frames uint64
}

const (
	// EWMA weight for the newest inter-frame interval.
	dtSmoothing = 0.1

	// Clamp for pathological frame gaps (first frame after a pause,
	// debugger stops) so one outlier cannot poison the average.
	maxFrameDT = 0.5

	defaultBits  = 2.0
	defaultSteps = 1
	minBits      = 0.1
	maxBits      = 10.0
)

// NewFrameRate returns a controller targeting bits bits/second. Rates
// outside [0.1, 10] are clamped.
func NewFrameRate(bits float64) *FrameRate {
	f := &FrameRate{minSteps: defaultSteps, avgDT: 1.0 / 30}
	f.SetTargetBits(bits)
	return f
}

// SetTargetBits updates the target entry rate.
func (f *FrameRate) SetTargetBits(bits float64) {
	if bits <= 0 {
		bits = defaultBits
	}
	f.targetBits = math.Min(maxBits, math.Max(minBits, bits))
}

// TargetBits reports the clamped target entry rate.
func (f *FrameRate) TargetBits() float64 { return f.targetBits }

// RecordFrame feeds one frame timestamp (monotonic milliseconds) into the
// average.
func (f *FrameRate) RecordFrame(tMS int64) {
	f.frames++
	if f.lastMS != 0 && tMS > f.lastMS {
		dt := float64(tMS-f.lastMS) / 1000
		if dt > maxFrameDT {
			dt = maxFrameDT
		}
		f.avgDT = f.avgDT*(1-dtSmoothing) + dt*dtSmoothing
	}
	f.lastMS = tMS
}

// Frames reports how many frames have been recorded.
func (f *FrameRate) Frames() uint64 { return f.frames }

// AvgDT reports the smoothed inter-frame interval in seconds.
func (f *FrameRate) AvgDT() float64 { return f.avgDT }

// Steps converts the target bit-rate into the per-frame interpolation
// count: the number of frames over which one nat of zoom is spread.
// speedMul scales the effective rate (slow-start ramp, turbo key, symbol
// speed factors); higher rates mean fewer steps and faster motion.
func (f *FrameRate) Steps(speedMul float64) int {
	if speedMul <= 0 {
		return 0
	}
	rate := f.targetBits * speedMul * math.Ln2 // nats per second
	framesPerNat := 1 / (rate * f.avgDT)
	n := int(math.Round(framesPerNat))
	if n < f.minSteps {
		n = f.minSteps
	}
	return n
}
