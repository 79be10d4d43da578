package app

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/gift-bot-go/assets"
	"github.com/soocke/gift-bot-go/config"
	"github.com/soocke/gift-bot-go/debug"
	"github.com/soocke/gift-bot-go/domain/action"
	"github.com/soocke/gift-bot-go/domain/capture"
	"github.com/soocke/gift-bot-go/domain/collector"
	"github.com/soocke/gift-bot-go/domain/window"
	"github.com/soocke/gift-bot-go/status"
)

// Input is the platform input surface the collector needs.
type Input interface {
	action.Clicker
	action.Pointer
	action.WindowFinder
}

// AppContainer holds the wired collector and its collaborators.
type AppContainer struct {
	Config    *config.Config
	Logger    *slog.Logger
	Reporter  status.Reporter
	Templates assets.Set
	Region    image.Rectangle
	Input     Input
	Locator   *window.Locator
	Capturer  *capture.StatsCapturer
	Matcher   *capture.NCCMatcher
	Loop      *collector.Loop
}

// BuildContainer wires the collector for cfg. The capturer is owned by the
// caller; the container only wraps it for statistics.
func BuildContainer(cfg *config.Config, logger *slog.Logger, reporter status.Reporter, templates assets.Set, region image.Rectangle, capturer capture.Capturer, input Input) (*AppContainer, error) {
	tmpl := templates.Active(cfg.TestMode)
	if tmpl == nil || tmpl.Image == nil {
		return nil, errors.New("app: active template not loaded")
	}
	c := &AppContainer{
		Config:    cfg,
		Logger:    logger,
		Reporter:  reporter,
		Templates: templates,
		Region:    region,
		Input:     input,
	}
	c.Locator = window.NewLocator(input, logger.With("component", "window"))
	c.Capturer = capture.NewStatsCapturer(capturer)
	c.Matcher = capture.NewNCCMatcher(cfg.MatchStride)

	loopLogger := logger.With("component", "collector")
	deps := collector.Deps{
		Windows:  c.Locator,
		Capturer: c.Capturer,
		Matcher:  c.Matcher,
		Clicker:  input,
		Pointer:  input,
		Reporter: reporter,
		Logger:   loopLogger,
		Diagnostics: func() {
			debug.LogRuntime(loopLogger)
			c.Capturer.LogStats(loopLogger)
		},
	}
	if cfg.TestMode {
		deps.Artifacts = capture.FileArtifact{Path: cfg.DebugImage}
	}
	loop, err := collector.NewLoop(collector.Settings{
		WindowTitle:      cfg.WindowTitle,
		Region:           region,
		Template:         tmpl.Image,
		Threshold:        cfg.Confidence,
		PollInterval:     cfg.CheckInterval,
		TestInterval:     cfg.TestInterval,
		ConfirmDelay:     cfg.ConfirmDelay,
		TestMode:         cfg.TestMode,
		EmergencyStop:    cfg.EmergencyStop,
		DiagnosticsEvery: cfg.DiagnosticsEvery,
	}, deps)
	if err != nil {
		return nil, err
	}
	loop.AddListener(func(prev, next collector.State) {
		if next == collector.StateActAndConfirm {
			loopLogger.Debug("acting on match", "from", prev.String())
		}
	})
	c.Loop = loop
	return c, nil
}

// Summary logs the final counters of a run.
func (c *AppContainer) Summary(rs collector.RunState, now time.Time) {
	var uptime time.Duration
	if !rs.StartedAt.IsZero() {
		uptime = now.Sub(rs.StartedAt).Truncate(time.Second)
	}
	c.Logger.Info("session summary",
		"collected", rs.Collected,
		"attempts", rs.Attempts,
		"unconfirmed", rs.Unconfirmed,
		"inconclusive", rs.Inconclusive,
		"cycles", rs.Cycles,
		"uptime", uptime,
		"window_bound", rs.BoundFor(now).Truncate(time.Second),
		"window_bindings", rs.Bindings,
	)
}
