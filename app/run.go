package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/soocke/gift-bot-go/assets"
	"github.com/soocke/gift-bot-go/config"
	"github.com/soocke/gift-bot-go/domain/action"
	"github.com/soocke/gift-bot-go/domain/capture"
	"github.com/soocke/gift-bot-go/domain/collector"
	"github.com/soocke/gift-bot-go/status"
)

// Platform bundles the OS-facing entry points used at startup.
type Platform struct {
	Input        Input
	ScreenBounds func() (image.Point, error)
	OpenCapturer func(backend string) (capture.Capturer, error)
	SetDPIAware  func() error
}

// DefaultPlatform returns the real platform backends.
func DefaultPlatform() Platform {
	return Platform{
		Input:        action.NewInput(),
		ScreenBounds: capture.ScreenBounds,
		OpenCapturer: capture.Open,
		SetDPIAware:  action.SetDPIAware,
	}
}

// Options configure Run.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Reporter status.Reporter
	In       *bufio.Reader
	Out      io.Writer
	Platform Platform

	// Notify, when set, derives the run context once the interactive prompt
	// is done, so an interrupt during the prompt keeps its default effect.
	Notify func(parent context.Context) (context.Context, context.CancelFunc)
}

// Run performs startup (templates, anchor prompt, region, capturer) and then
// runs the collector until ctx is cancelled. Startup failures are returned
// before the loop starts.
func Run(ctx context.Context, opts Options) error {
	cfg, logger, p := opts.Config, opts.Logger, opts.Platform
	if opts.Reporter == nil {
		opts.Reporter = status.Discard{}
	}
	if err := p.SetDPIAware(); err != nil {
		logger.Warn("could not mark process DPI aware", "error", err)
	}

	templates, err := assets.LoadSet(cfg.GiftImage, cfg.TestImage, cfg.TestMode)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	active := templates.Active(cfg.TestMode)
	logger.Info("template loaded", "path", active.Path, "size", active.Size())

	anchor, changed, err := PromptAnchor(opts.In, opts.Out, p.Input, image.Pt(cfg.AnchorX, cfg.AnchorY))
	if err != nil {
		return fmt.Errorf("anchor prompt: %w", err)
	}
	if changed {
		logger.Info("anchor updated", "x", anchor.X, "y", anchor.Y)
	} else {
		logger.Info("using configured anchor", "x", anchor.X, "y", anchor.Y)
	}
	if opts.Notify != nil {
		var stop context.CancelFunc
		ctx, stop = opts.Notify(ctx)
		defer stop()
	}

	screen, err := p.ScreenBounds()
	if err != nil {
		return fmt.Errorf("screen bounds: %w", err)
	}
	region := capture.SearchRegion(anchor, image.Pt(cfg.SearchWidth, cfg.SearchHeight), screen)
	logger.Info("search region",
		"screen", fmt.Sprintf("%dx%d", screen.X, screen.Y),
		"left", region.Min.X, "top", region.Min.Y,
		"width", region.Dx(), "height", region.Dy(),
	)
	if region.Empty() {
		return fmt.Errorf("search region around (%d,%d) is empty on a %dx%d screen", anchor.X, anchor.Y, screen.X, screen.Y)
	}

	capturer, err := p.OpenCapturer(cfg.CaptureBackend)
	if err != nil {
		return fmt.Errorf("open capturer %q: %w", cfg.CaptureBackend, err)
	}
	defer func() {
		if err := capturer.Close(); err != nil {
			logger.Warn("closing capturer", "error", err)
		}
	}()

	c, err := BuildContainer(cfg, logger, opts.Reporter, templates, region, capturer, p.Input)
	if err != nil {
		return err
	}
	if cfg.TestMode {
		logger.Info("test mode enabled", "artifact", cfg.DebugImage, "interval", cfg.TestInterval)
	}
	if cfg.EmergencyStop {
		logger.Info("running; move the pointer to the top-left corner (0,0) or press Ctrl+C to stop")
	} else {
		logger.Info("running; press Ctrl+C to stop")
	}

	rs, err := c.Loop.Run(ctx, collector.RunState{})
	opts.Reporter.Interrupt()
	c.Summary(rs, time.Now())
	switch {
	case errors.Is(err, collector.ErrEmergencyStop):
		logger.Info("stopped by emergency stop")
		return nil
	case err != nil:
		return err
	}
	logger.Info("stopped by operator")
	return nil
}
