package collector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/soocke/gift-bot-go/domain/action"
	"github.com/soocke/gift-bot-go/domain/capture"
	"github.com/soocke/gift-bot-go/status"
)

// Settings are the immutable parameters of a run.
type Settings struct {
	WindowTitle      string
	Region           image.Rectangle
	Template         image.Image
	Threshold        float64
	PollInterval     time.Duration
	TestInterval     time.Duration
	ConfirmDelay     time.Duration
	TestMode         bool
	EmergencyStop    bool
	DiagnosticsEvery int
}

// Deps are the collaborators the loop calls through. Reporter, Logger,
// Sleep and Now are defaulted when nil.
type Deps struct {
	Windows     WindowResolver
	Capturer    capture.Capturer
	Matcher     capture.Matcher
	Clicker     action.Clicker
	Pointer     action.Pointer
	Artifacts   capture.ArtifactWriter
	Reporter    status.Reporter
	Logger      *slog.Logger
	Sleep       Sleeper
	Now         func() time.Time
	Diagnostics func()
}

// Loop runs the detect, click and confirm cycle against a single window,
// region and template.
type Loop struct {
	cfg       Settings
	deps      Deps
	state     State
	listeners []StateListener
}

// NewLoop validates its inputs and fills in defaults.
func NewLoop(cfg Settings, deps Deps) (*Loop, error) {
	switch {
	case deps.Windows == nil:
		return nil, errors.New("collector: window resolver is required")
	case deps.Capturer == nil:
		return nil, errors.New("collector: capturer is required")
	case deps.Matcher == nil:
		return nil, errors.New("collector: matcher is required")
	case deps.Clicker == nil:
		return nil, errors.New("collector: clicker is required")
	case cfg.Template == nil:
		return nil, errors.New("collector: template is required")
	case cfg.Region.Empty():
		return nil, fmt.Errorf("collector: empty search region %v", cfg.Region)
	case cfg.TestMode && deps.Artifacts == nil:
		return nil, errors.New("collector: test mode needs an artifact writer")
	case cfg.EmergencyStop && deps.Pointer == nil:
		return nil, errors.New("collector: emergency stop needs a pointer")
	}
	if deps.Reporter == nil {
		deps.Reporter = status.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Sleep == nil {
		deps.Sleep = SleepContext
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Loop{cfg: cfg, deps: deps}, nil
}

// AddListener registers fn for state changes.
func (l *Loop) AddListener(fn StateListener) { l.listeners = append(l.listeners, fn) }

// Current returns the state the loop is in.
func (l *Loop) Current() State { return l.state }

func (l *Loop) transition(next State) {
	prev := l.state
	if prev == next {
		return
	}
	l.state = next
	l.deps.Logger.Debug("collector state transition", "from", prev.String(), "to", next.String())
	for _, fn := range l.listeners {
		fn(prev, next)
	}
}

// Run repeats Step until ctx is cancelled or the emergency stop trips.
// Cancellation is a clean stop and returns a nil error.
func (l *Loop) Run(ctx context.Context, rs RunState) (RunState, error) {
	// Win32 input and GDI handles have thread affinity.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if rs.StartedAt.IsZero() {
		rs.StartedAt = l.deps.Now()
	}
	for {
		var err error
		rs, err = l.Step(ctx, rs)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return rs, nil
			}
			return rs, err
		}
		if n := l.cfg.DiagnosticsEvery; n > 0 && l.deps.Diagnostics != nil && rs.Cycles%uint64(n) == 0 {
			l.deps.Diagnostics()
		}
	}
}

// Step runs one full cycle starting at window lookup and returns the
// updated state. Per-cycle failures are logged and contained; only context
// cancellation and the emergency stop surface as errors.
func (l *Loop) Step(ctx context.Context, rs RunState) (RunState, error) {
	if err := ctx.Err(); err != nil {
		return rs, err
	}
	if l.cfg.EmergencyStop {
		if p, err := l.deps.Pointer.Position(); err == nil && p == (image.Point{}) {
			l.deps.Reporter.Interrupt()
			l.deps.Logger.Info("emergency stop: pointer at screen origin")
			return rs, ErrEmergencyStop
		}
	}
	rs.Cycles++

	l.transition(StateAwaitWindow)
	b, ok := l.deps.Windows.Resolve(l.cfg.WindowTitle)
	var rebound bool
	rs, rebound = rs.bindWindow(b.Handle, ok, l.deps.Now())
	if !ok {
		rs.Last = OutcomeWaiting
		l.deps.Reporter.Report(status.Status{Kind: status.KindWaiting, Window: l.cfg.WindowTitle, Collected: rs.Collected})
		return rs, l.deps.Sleep(ctx, l.cfg.PollInterval)
	}
	if rebound {
		l.deps.Reporter.Interrupt()
		l.deps.Logger.Info("bound to window", "title", b.Title, "handle", fmt.Sprintf("%#x", uintptr(b.Handle)))
	}

	l.transition(StateSearch)
	frame, err := l.deps.Capturer.Capture(l.cfg.Region)
	if err != nil {
		l.deps.Reporter.Interrupt()
		l.deps.Logger.Error("capture failed", "region", l.cfg.Region, "error", err)
		rs.Last = OutcomeCaptureFailed
		return rs, l.deps.Sleep(ctx, l.cfg.PollInterval)
	}
	if l.cfg.TestMode {
		return l.testSearch(ctx, rs, frame)
	}

	res := l.match(frame, "search")
	if !res.Found {
		l.deps.Logger.Debug("no match", "confidence", res.Confidence)
		return l.idleTick(ctx, rs)
	}
	return l.actAndConfirm(ctx, rs, frame, res)
}

// match treats a matcher error as a miss.
func (l *Loop) match(frame *image.RGBA, phase string) capture.Result {
	res, err := l.deps.Matcher.Match(frame, l.cfg.Template, l.cfg.Threshold)
	if err != nil {
		l.deps.Reporter.Interrupt()
		l.deps.Logger.Error("template match failed", "phase", phase, "error", err)
		return capture.NotFound(0)
	}
	return res
}

// testSearch writes the debug artifact, clicks on a hit and never counts.
func (l *Loop) testSearch(ctx context.Context, rs RunState, frame *image.RGBA) (RunState, error) {
	l.deps.Reporter.Report(status.Status{Kind: status.KindSearching, Symbol: rs.Symbol(), Collected: rs.Collected})
	l.deps.Reporter.Interrupt()
	if err := l.deps.Artifacts.WriteArtifact(frame); err != nil {
		l.deps.Logger.Error("test mode: saving search area failed", "error", err)
	} else {
		l.deps.Logger.Info("test mode: saved search area")
	}

	res := l.match(frame, "test")
	if res.Found {
		target := l.cfg.Region.Min.Add(res.Center())
		l.deps.Logger.Info("test mode: target found, clicking", "x", target.X, "y", target.Y, "confidence", res.Confidence)
		if err := l.deps.Clicker.Click(target.X, target.Y); err != nil {
			l.deps.Logger.Warn("test mode: click failed", "error", err)
		}
		rs.Last = OutcomeTestHit
	} else {
		l.deps.Logger.Info("test mode: target not found", "confidence", res.Confidence)
		rs.Last = OutcomeTestMiss
	}
	rs.Phase = (rs.Phase + 1) % len(Symbols)
	l.deps.Logger.Info("test mode: retrying", "in", l.cfg.TestInterval)
	return rs, l.deps.Sleep(ctx, l.cfg.TestInterval)
}

// actAndConfirm clicks the match and counts it only when a re-check after
// the confirmation delay no longer finds the template.
func (l *Loop) actAndConfirm(ctx context.Context, rs RunState, frame *image.RGBA, res capture.Result) (RunState, error) {
	l.transition(StateActAndConfirm)
	l.deps.Reporter.Interrupt()
	rs.Attempts++

	target := l.cfg.Region.Min.Add(res.Center())
	l.deps.Logger.Info("gift detected, collecting", "x", target.X, "y", target.Y, "confidence", res.Confidence)
	if err := l.deps.Clicker.Click(target.X, target.Y); err != nil {
		l.deps.Logger.Warn("click failed", "x", target.X, "y", target.Y, "error", err)
	}
	l.deps.Logger.Info("clicked, waiting before confirmation", "delay", l.cfg.ConfirmDelay)
	if err := l.deps.Sleep(ctx, l.cfg.ConfirmDelay); err != nil {
		return rs, err
	}

	check, err := l.deps.Capturer.Capture(l.cfg.Region)
	if err != nil {
		l.deps.Logger.Error("confirmation capture failed, not counted", "error", err)
		rs.Inconclusive++
		rs.Last = OutcomeInconclusive
		return rs, nil
	}
	// A distance near zero means the click left the region unchanged.
	var changed []any
	if d, err := capture.FrameDistance(frame, check); err == nil {
		l.deps.Logger.Debug("confirmation frame distance", "distance", d)
		changed = []any{"frame_distance", d}
	}
	again, err := l.deps.Matcher.Match(check, l.cfg.Template, l.cfg.Threshold)
	if err != nil {
		l.deps.Logger.Error("confirmation match failed, not counted", append([]any{"error", err}, changed...)...)
		rs.Inconclusive++
		rs.Last = OutcomeInconclusive
		return rs, nil
	}
	if again.Found {
		l.deps.Logger.Warn("confirmation failed: gift still present, not counted", append([]any{"confidence", again.Confidence}, changed...)...)
		rs.Unconfirmed++
		rs.Last = OutcomeUnconfirmed
		return rs, nil
	}
	rs.Collected++
	rs.Last = OutcomeCollected
	l.deps.Logger.Info("confirmed: gift collected", "total", rs.Collected)
	return rs, nil
}

// idleTick shows the current symbol, then advances the animation.
func (l *Loop) idleTick(ctx context.Context, rs RunState) (RunState, error) {
	l.transition(StateIdleTick)
	var uptime time.Duration
	if !rs.StartedAt.IsZero() {
		uptime = l.deps.Now().Sub(rs.StartedAt)
	}
	l.deps.Reporter.Report(status.Status{
		Kind:      status.KindIdle,
		Symbol:    rs.Symbol(),
		Collected: rs.Collected,
		Window:    l.cfg.WindowTitle,
		Uptime:    uptime,
	})
	rs.Phase = (rs.Phase + 1) % len(Symbols)
	rs.Last = OutcomeIdle
	return rs, l.deps.Sleep(ctx, l.cfg.PollInterval)
}
