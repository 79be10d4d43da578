package capture

import "time"

// CaptureStats summarises capturer behaviour for diagnostics.
type CaptureStats struct {
	Captures      uint64
	Failures      uint64
	AvgCapture    time.Duration
	LastCapture   time.Time
	LastFrameSize [2]int
}
