// Package status defines the collector's status reporting contract and a
// console renderer for it.
package status

import "time"

// Kind enumerates what the collector is currently doing.
type Kind int

const (
	KindWaiting Kind = iota
	KindSearching
	KindIdle
)

func (k Kind) String() string {
	switch k {
	case KindWaiting:
		return "waiting"
	case KindSearching:
		return "searching"
	case KindIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Status is one status update.
type Status struct {
	Kind      Kind
	Symbol    string
	Collected int
	Window    string
	Uptime    time.Duration
}

// Reporter receives status updates. Interrupt ends any in-place line so that
// regular output can follow on a fresh line.
type Reporter interface {
	Report(Status)
	Interrupt()
}

// Discard drops every update.
type Discard struct{}

func (Discard) Report(Status) {}
func (Discard) Interrupt()    {}
