package collector

import (
	"context"
	"errors"
	"time"

	"github.com/soocke/gift-bot-go/domain/action"
	"github.com/soocke/gift-bot-go/domain/window"
)

// State enumerates the phases of one collector cycle.
type State int

const (
	StateAwaitWindow State = iota
	StateSearch
	StateActAndConfirm
	StateIdleTick
)

func (s State) String() string {
	switch s {
	case StateAwaitWindow:
		return "await_window"
	case StateSearch:
		return "search"
	case StateActAndConfirm:
		return "act_and_confirm"
	case StateIdleTick:
		return "idle_tick"
	default:
		return "unknown"
	}
}

// Outcome records how a cycle ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWaiting
	OutcomeCaptureFailed
	OutcomeIdle
	OutcomeCollected
	OutcomeUnconfirmed
	OutcomeInconclusive
	OutcomeTestHit
	OutcomeTestMiss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWaiting:
		return "waiting"
	case OutcomeCaptureFailed:
		return "capture_failed"
	case OutcomeIdle:
		return "idle"
	case OutcomeCollected:
		return "collected"
	case OutcomeUnconfirmed:
		return "unconfirmed"
	case OutcomeInconclusive:
		return "inconclusive"
	case OutcomeTestHit:
		return "test_hit"
	case OutcomeTestMiss:
		return "test_miss"
	default:
		return "none"
	}
}

// Symbols is the idle animation sequence.
var Symbols = []string{"-", `\`, "|", "/"}

// RunState is owned by the caller of Step and threaded through every cycle.
// Collected only ever grows, by one per confirmed collection.
type RunState struct {
	Collected    int
	Attempts     int
	Unconfirmed  int
	Inconclusive int
	Phase        int
	Cycles       uint64
	Last         Outcome
	StartedAt    time.Time

	// Window is the last handle bound. Absence keeps it, so a target that
	// comes back under a new handle is seen as a rebind.
	Window     action.Handle
	Bindings   int
	BoundSince time.Time // zero while the window is absent
	BoundTotal time.Duration
}

// Symbol returns the animation symbol for the current phase.
func (rs RunState) Symbol() string { return Symbols[rs.Phase%len(Symbols)] }

// bindWindow folds one lookup result into rs. rebound is true when h was
// found and differs from the last bound handle.
func (rs RunState) bindWindow(h action.Handle, found bool, now time.Time) (next RunState, rebound bool) {
	if !found {
		if !rs.BoundSince.IsZero() {
			rs.BoundTotal += now.Sub(rs.BoundSince)
			rs.BoundSince = time.Time{}
		}
		return rs, false
	}
	if rs.BoundSince.IsZero() {
		rs.BoundSince = now
	}
	if h != rs.Window {
		rs.Window = h
		rs.Bindings++
		rebound = true
	}
	return rs, rebound
}

// BoundFor is the total time the window has been present up to now.
func (rs RunState) BoundFor(now time.Time) time.Duration {
	d := rs.BoundTotal
	if !rs.BoundSince.IsZero() {
		d += now.Sub(rs.BoundSince)
	}
	return d
}

// StateListener is called on each state change.
type StateListener func(prev, next State)

// ErrEmergencyStop ends Run when the pointer is parked at the screen origin.
var ErrEmergencyStop = errors.New("collector: emergency stop")

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WindowResolver narrows window.Locator for the loop.
type WindowResolver interface {
	Resolve(title string) (window.Binding, bool)
}
