// Package bitrate collects the per-access-unit bitrate trace produced by a
// vvc.Parser and derives summary statistics for plotting and reports.
package bitrate

import (
	"sync"
	"sync/atomic"

	"github.com/zsiec/vvcindex/vvc"
)

// Compile-time interface check.
var _ vvc.BitrateSink = (*Recorder)(nil)

// DefaultFrameRate is assumed when converting per-access-unit sizes to a
// bitrate, since the parser does not extract timing from the stream.
const DefaultFrameRate = 20.0

// DefaultWindow is the number of most recent samples averaged by
// Stats.WindowKbps.
const DefaultWindow = 30

// Point is one entry of the bitrate trace.
type Point struct {
	PTS      int64 `json:"pts" yaml:"pts"`
	DTS      int64 `json:"dts" yaml:"dts"`
	Bytes    int   `json:"bytes" yaml:"bytes"`
	Keyframe bool  `json:"keyframe,omitempty" yaml:"keyframe,omitempty"`
}

// Stats summarizes the trace recorded so far.
type Stats struct {
	Samples    int64   `json:"samples" yaml:"samples"`
	Keyframes  int64   `json:"keyframes" yaml:"keyframes"`
	TotalBytes int64   `json:"totalBytes" yaml:"total_bytes"`
	MeanBytes  float64 `json:"meanBytes" yaml:"mean_bytes"`
	PeakBytes  int     `json:"peakBytes" yaml:"peak_bytes"`
	PeakPTS    int64   `json:"peakPTS" yaml:"peak_pts"`
	FrameRate  float64 `json:"frameRate" yaml:"frame_rate"`
	MeanKbps   float64 `json:"meanKbps" yaml:"mean_kbps"`
	WindowKbps float64 `json:"windowKbps" yaml:"window_kbps"`
}

// Recorder is a vvc.BitrateSink that keeps the full trace plus running
// totals. It may be read from other goroutines while a parser feeds it.
//
// Counters are atomic; mu guards the trace, the peak and the sliding window.
type Recorder struct {
	samples    atomic.Int64
	keyframes  atomic.Int64
	totalBytes atomic.Int64

	frameRate  float64
	windowSize int

	mu        sync.Mutex
	trace     []Point
	peak      Point
	window    []int
	windowSum int64
}

// NewRecorder returns a Recorder averaging the last window samples and
// assuming frameRate access units per second. Non-positive values select
// DefaultWindow and DefaultFrameRate.
func NewRecorder(window int, frameRate float64) *Recorder {
	if window <= 0 {
		window = DefaultWindow
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Recorder{windowSize: window, frameRate: frameRate}
}

// AddSample implements vvc.BitrateSink.
func (r *Recorder) AddSample(s vvc.BitrateSample) {
	r.samples.Add(1)
	r.totalBytes.Add(int64(s.Size))
	if s.Keyframe {
		r.keyframes.Add(1)
	}

	p := Point{PTS: s.PTS, DTS: s.DTS, Bytes: s.Size, Keyframe: s.Keyframe}

	r.mu.Lock()
	r.trace = append(r.trace, p)
	if len(r.trace) == 1 || p.Bytes > r.peak.Bytes {
		r.peak = p
	}
	r.window = append(r.window, s.Size)
	r.windowSum += int64(s.Size)
	if len(r.window) > r.windowSize {
		r.windowSum -= int64(r.window[0])
		r.window = r.window[1:]
	}
	r.mu.Unlock()
}

// Trace returns a copy of all points in emission order.
func (r *Recorder) Trace() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Point, len(r.trace))
	copy(out, r.trace)
	return out
}

// Snapshot returns the current statistics.
func (r *Recorder) Snapshot() Stats {
	st := Stats{
		Samples:    r.samples.Load(),
		Keyframes:  r.keyframes.Load(),
		TotalBytes: r.totalBytes.Load(),
		FrameRate:  r.frameRate,
	}
	if st.Samples > 0 {
		st.MeanBytes = float64(st.TotalBytes) / float64(st.Samples)
		st.MeanKbps = st.MeanBytes * 8 * r.frameRate / 1000
	}

	r.mu.Lock()
	st.PeakBytes = r.peak.Bytes
	st.PeakPTS = r.peak.PTS
	if n := len(r.window); n > 0 {
		st.WindowKbps = float64(r.windowSum) / float64(n) * 8 * r.frameRate / 1000
	}
	r.mu.Unlock()

	return st
}
