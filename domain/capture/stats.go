package capture

import (
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

// StatsCapturer wraps a Capturer and records capture counts and timings.
type StatsCapturer struct {
	inner        Capturer
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	lastUnixNano atomic.Int64
	lastW, lastH atomic.Int64
}

// NewStatsCapturer wraps inner.
func NewStatsCapturer(inner Capturer) *StatsCapturer {
	return &StatsCapturer{inner: inner}
}

func (s *StatsCapturer) Capture(r image.Rectangle) (*image.RGBA, error) {
	start := time.Now()
	img, err := s.inner.Capture(r)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.captures.Add(1)
	s.lastUnixNano.Store(time.Now().UnixNano())
	if img != nil {
		b := img.Bounds()
		s.lastW.Store(int64(b.Dx()))
		s.lastH.Store(int64(b.Dy()))
	}
	return img, nil
}

func (s *StatsCapturer) Close() error { return s.inner.Close() }

// Stats returns a snapshot of the counters.
func (s *StatsCapturer) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
	}
	var last time.Time
	if ns := s.lastUnixNano.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Captures:      captures,
		Failures:      s.failures.Load(),
		AvgCapture:    avg,
		LastCapture:   last,
		LastFrameSize: [2]int{int(s.lastW.Load()), int(s.lastH.Load())},
	}
}

// LogStats writes the current counters at debug level.
func (s *StatsCapturer) LogStats(logger *slog.Logger) {
	if logger == nil {
		return
	}
	stats := s.Stats()
	logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failures", stats.Failures,
		"avg_capture", stats.AvgCapture,
		"frame", stats.LastFrameSize,
	)
}
