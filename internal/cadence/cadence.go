// Package cadence measures how regularly frames are delivered.
package cadence

import (
	"math"
	"sync"
	"time"
)

const (
	// A delivery stream is stable when the rate stddev stays under 15% of
	// the mean rate and mean jitter under 20% of the mean interval.
	rateStabilityThreshold   = 0.15
	jitterStabilityThreshold = 0.20
)

// Stats describes delivery timing over a set of timestamps.
type Stats struct {
	Samples int
	Span    time.Duration

	RateMean   float64 // deliveries per second
	RateStdDev float64
	RateMin    float64
	RateMax    float64

	JitterMean   float64 // seconds
	JitterStdDev float64
	JitterMax    float64

	IsStable bool
}

// Calculate computes delivery statistics from ordered timestamps.
func Calculate(times []time.Time) Stats {
	n := len(times)
	if n < 2 {
		return Stats{Samples: n}
	}

	span := times[n-1].Sub(times[0])
	stats := Stats{Samples: n, Span: span}
	if span <= 0 {
		return stats
	}

	stats.RateMean = float64(n-1) / span.Seconds()

	rates := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if interval := times[i].Sub(times[i-1]).Seconds(); interval > 0 {
			rates = append(rates, 1.0/interval)
		}
	}
	if len(rates) == 0 {
		return stats
	}

	stats.RateMin, stats.RateMax = rates[0], rates[0]
	var sumSquares float64
	for _, r := range rates {
		stats.RateMin = math.Min(stats.RateMin, r)
		stats.RateMax = math.Max(stats.RateMax, r)
		d := r - stats.RateMean
		sumSquares += d * d
	}
	stats.RateStdDev = math.Sqrt(sumSquares / float64(len(rates)))

	expected := 1.0 / stats.RateMean
	jitters := make([]float64, 0, n-1)
	var jitterSum float64
	for i := 1; i < n; i++ {
		j := math.Abs(times[i].Sub(times[i-1]).Seconds() - expected)
		jitters = append(jitters, j)
		jitterSum += j
		stats.JitterMax = math.Max(stats.JitterMax, j)
	}
	stats.JitterMean = jitterSum / float64(len(jitters))

	var jitterSquares float64
	for _, j := range jitters {
		d := j - stats.JitterMean
		jitterSquares += d * d
	}
	stats.JitterStdDev = math.Sqrt(jitterSquares / float64(len(jitters)))

	stats.IsStable = stats.RateStdDev < stats.RateMean*rateStabilityThreshold &&
		stats.JitterMean < expected*jitterStabilityThreshold
	return stats
}

// Window keeps the most recent delivery timestamps.
type Window struct {
	mu    sync.Mutex
	times []time.Time
	next  int
	full  bool
}

// NewWindow returns a window holding up to size timestamps.
func NewWindow(size int) *Window {
	return &Window{times: make([]time.Time, max(size, 2))}
}

func (w *Window) Add(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.times[w.next] = t
	w.next = (w.next + 1) % len(w.times)
	if w.next == 0 {
		w.full = true
	}
}

// Reset discards all timestamps.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.times)
	w.next = 0
	w.full = false
}

// Snapshot returns the held timestamps oldest first.
func (w *Window) Snapshot() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.full {
		return append([]time.Time(nil), w.times[:w.next]...)
	}
	out := make([]time.Time, 0, len(w.times))
	out = append(out, w.times[w.next:]...)
	return append(out, w.times[:w.next]...)
}

func (w *Window) Stats() Stats { return Calculate(w.Snapshot()) }
