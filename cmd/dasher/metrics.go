package main

import (
	"sync/atomic"
	"time"
)

// durationRing keeps the most recent N samples of a duration metric.
type durationRing struct {
	buf   []time.Duration
	idx   int
	count int
}

func newDurationRing(n int) *durationRing {
	if n < 1 {
		n = 1
	}
	return &durationRing{buf: make([]time.Duration, n)}
}

func (r *durationRing) add(d time.Duration) {
	r.buf[r.idx] = d
	r.idx++
	if r.idx >= len(r.buf) {
		r.idx = 0
	}
	if r.count < len(r.buf) {
		r.count++
	}
}

type durationStats struct {
	last time.Duration
	max  time.Duration
	avg  time.Duration
	n    int
}

func (r *durationRing) snapshot() durationStats {
	if r.count == 0 {
		return durationStats{}
	}
	var sum, peak time.Duration
	for i := 0; i < r.count; i++ {
		d := r.buf[i]
		sum += d
		if d > peak {
			peak = d
		}
	}
	lastIdx := r.idx - 1
	if lastIdx < 0 {
		lastIdx = len(r.buf) - 1
	}
	return durationStats{
		last: r.buf[lastIdx],
		max:  peak,
		avg:  sum / time.Duration(r.count),
		n:    r.count,
	}
}

// frameMetrics tracks how long each core frame takes inside the TUI
// update loop.
type frameMetrics struct {
	enabled atomic.Bool
	frames  atomic.Uint64
	frame   *durationRing
}

func newFrameMetrics(window int) *frameMetrics {
	return &frameMetrics{frame: newDurationRing(window)}
}

func (m *frameMetrics) setEnabled(v bool) { m.enabled.Store(v) }

func (m *frameMetrics) observeFrame(d time.Duration) {
	if !m.enabled.Load() {
		return
	}
	m.frames.Add(1)
	m.frame.add(d)
}

type metricsSnapshot struct {
	frames uint64
	frame  durationStats
}

func (m *frameMetrics) snapshot() metricsSnapshot {
	if !m.enabled.Load() {
		return metricsSnapshot{}
	}
	return metricsSnapshot{
		frames: m.frames.Load(),
		frame:  m.frame.snapshot(),
	}
}
