package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultPath is the configuration file looked up next to the executable.
const DefaultPath = "config.ini"

// Section names of the INI file.
const (
	SectionSettings = "Settings"
	SectionTestMode = "TestMode"
	SectionAdvanced = "Advanced"
)

var (
	// ErrMissingKey reports a required section or key absent from the file.
	ErrMissingKey = errors.New("missing config key")
	// ErrInvalidValue reports a value that failed to parse or is out of range.
	ErrInvalidValue = errors.New("invalid config value")
)

// Capture backends accepted by CaptureBackend.
const (
	BackendAuto       = "auto"
	BackendGDI        = "gdi"
	BackendScreenshot = "screenshot"
)

// Config holds the runtime configuration of the collector.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// [Settings]
	WindowTitle   string
	AnchorX       int
	AnchorY       int
	GiftImage     string
	Confidence    float64
	CheckInterval time.Duration
	SearchWidth   int
	SearchHeight  int

	// [TestMode]
	TestMode     bool
	TestImage    string
	TestInterval time.Duration

	// [Advanced], every key optional
	ConfirmDelay     time.Duration
	DebugImage       string
	LogFile          string
	LogLevel         string
	CaptureBackend   string
	MatchStride      int
	EmergencyStop    bool
	DiagnosticsEvery int
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		WindowTitle:   "BongoCat",
		AnchorX:       3711,
		AnchorY:       799,
		GiftImage:     "gift.png",
		Confidence:    0.8,
		CheckInterval: time.Second,
		SearchWidth:   400,
		SearchHeight:  400,

		TestMode:     false,
		TestImage:    "wechat.png",
		TestInterval: 5 * time.Second,

		ConfirmDelay:     5 * time.Second,
		DebugImage:       "debug_test_search_area.png",
		LogFile:          "gift_bot.log",
		LogLevel:         "info",
		CaptureBackend:   BackendAuto,
		MatchStride:      2,
		EmergencyStop:    false,
		DiagnosticsEvery: 0,
	}
}

// Validate rejects values outside their documented ranges.
// Unlike the load path it never rewrites fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WindowTitle) == "" {
		return fmt.Errorf("%w: window_title is empty", ErrInvalidValue)
	}
	if strings.TrimSpace(c.GiftImage) == "" {
		return fmt.Errorf("%w: gift_image is empty", ErrInvalidValue)
	}
	if !(c.Confidence >= 0 && c.Confidence <= 1) {
		return fmt.Errorf("%w: confidence %.3f outside [0,1]", ErrInvalidValue, c.Confidence)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check_interval must be positive", ErrInvalidValue)
	}
	if c.SearchWidth <= 0 || c.SearchHeight <= 0 {
		return fmt.Errorf("%w: search size %dx%d must be positive", ErrInvalidValue, c.SearchWidth, c.SearchHeight)
	}
	if c.TestMode && strings.TrimSpace(c.TestImage) == "" {
		return fmt.Errorf("%w: test_image is empty", ErrInvalidValue)
	}
	if c.TestInterval <= 0 {
		return fmt.Errorf("%w: test_interval must be positive", ErrInvalidValue)
	}
	if c.ConfirmDelay <= 0 {
		return fmt.Errorf("%w: confirm_delay must be positive", ErrInvalidValue)
	}
	if c.MatchStride < 1 {
		return fmt.Errorf("%w: match_stride must be >= 1", ErrInvalidValue)
	}
	if c.DiagnosticsEvery < 0 {
		return fmt.Errorf("%w: diagnostics_every must be >= 0", ErrInvalidValue)
	}
	switch c.CaptureBackend {
	case BackendAuto, BackendGDI, BackendScreenshot:
	default:
		return fmt.Errorf("%w: capture_backend %q", ErrInvalidValue, c.CaptureBackend)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidValue, c.LogLevel)
	}
	return nil
}

// Load reads the configuration at path. When the file does not exist a file with
// the defaults is written first and the defaults are returned with created=true.
// Missing or malformed keys in [Settings] and [TestMode] abort the load.
func Load(path string) (cfg *Config, created bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg = DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, false, fmt.Errorf("write default config %s: %w", path, err)
		}
		return cfg, true, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, false, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err = fromFile(file)
	if err != nil {
		return nil, false, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, false, nil
}

func fromFile(file *ini.File) (*Config, error) {
	cfg := DefaultConfig()

	settings, err := file.GetSection(SectionSettings)
	if err != nil {
		return nil, fmt.Errorf("%w: section [%s]", ErrMissingKey, SectionSettings)
	}
	r := &reader{section: settings}
	cfg.WindowTitle = r.str("window_title")
	cfg.AnchorX = r.integer("default_cat_x")
	cfg.AnchorY = r.integer("default_cat_y")
	cfg.GiftImage = r.str("gift_image")
	cfg.Confidence = r.float("confidence")
	cfg.CheckInterval = r.seconds("check_interval")
	cfg.SearchWidth = r.integer("search_width")
	cfg.SearchHeight = r.integer("search_height")
	if r.err != nil {
		return nil, r.err
	}

	test, err := file.GetSection(SectionTestMode)
	if err != nil {
		return nil, fmt.Errorf("%w: section [%s]", ErrMissingKey, SectionTestMode)
	}
	r = &reader{section: test}
	cfg.TestMode = r.boolean("enabled")
	cfg.TestImage = r.str("test_image")
	cfg.TestInterval = r.seconds("test_interval")
	if r.err != nil {
		return nil, r.err
	}

	// [Advanced] is optional as a whole.
	if adv, err := file.GetSection(SectionAdvanced); err == nil {
		r = &reader{section: adv}
		if r.has("confirm_delay") {
			cfg.ConfirmDelay = r.seconds("confirm_delay")
		}
		if r.has("debug_image") {
			cfg.DebugImage = r.str("debug_image")
		}
		if r.has("log_file") {
			cfg.LogFile = r.str("log_file")
		}
		if r.has("log_level") {
			cfg.LogLevel = strings.ToLower(r.str("log_level"))
		}
		if r.has("capture_backend") {
			cfg.CaptureBackend = strings.ToLower(r.str("capture_backend"))
		}
		if r.has("match_stride") {
			cfg.MatchStride = r.integer("match_stride")
		}
		if r.has("emergency_stop") {
			cfg.EmergencyStop = r.boolean("emergency_stop")
		}
		if r.has("diagnostics_every") {
			cfg.DiagnosticsEvery = r.integer("diagnostics_every")
		}
		if r.err != nil {
			return nil, r.err
		}
	}
	return cfg, nil
}

// reader pulls typed keys from one section and keeps the first error.
type reader struct {
	section *ini.Section
	err     error
}

func (r *reader) has(name string) bool { return r.section.HasKey(name) }

func (r *reader) key(name string) *ini.Key {
	if r.err != nil {
		return nil
	}
	k, err := r.section.GetKey(name)
	if err != nil {
		r.err = fmt.Errorf("%w: [%s] %s", ErrMissingKey, r.section.Name(), name)
		return nil
	}
	return k
}

func (r *reader) fail(name, raw string, err error) {
	r.err = fmt.Errorf("%w: [%s] %s=%q: %v", ErrInvalidValue, r.section.Name(), name, raw, err)
}

func (r *reader) str(name string) string {
	k := r.key(name)
	if k == nil {
		return ""
	}
	return strings.TrimSpace(k.String())
}

func (r *reader) integer(name string) int {
	k := r.key(name)
	if k == nil {
		return 0
	}
	v, err := k.Int()
	if err != nil {
		r.fail(name, k.String(), err)
	}
	return v
}

func (r *reader) float(name string) float64 {
	k := r.key(name)
	if k == nil {
		return 0
	}
	v, err := k.Float64()
	if err != nil {
		r.fail(name, k.String(), err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(name, k.String(), errors.New("not a finite number"))
		return 0
	}
	return v
}

func (r *reader) boolean(name string) bool {
	k := r.key(name)
	if k == nil {
		return false
	}
	v, err := k.Bool()
	if err != nil {
		r.fail(name, k.String(), err)
	}
	return v
}

// seconds reads a fractional number of seconds.
func (r *reader) seconds(name string) time.Duration {
	v := r.float(name)
	if math.Abs(v) > maxSeconds {
		r.fail(name, strconv.FormatFloat(v, 'g', -1, 64), errors.New("duration out of range"))
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// maxSeconds keeps second values inside time.Duration.
var maxSeconds = float64(math.MaxInt64/int64(time.Second)) - 1

// Save writes the configuration to path in INI format.
func (c *Config) Save(path string) error {
	file := ini.Empty()

	s := file.Section(SectionSettings)
	s.Comment = "Target window, anchor and template settings"
	s.Key("window_title").SetValue(c.WindowTitle)
	s.Key("default_cat_x").SetValue(strconv.Itoa(c.AnchorX))
	s.Key("default_cat_y").SetValue(strconv.Itoa(c.AnchorY))
	s.Key("gift_image").SetValue(c.GiftImage)
	s.Key("confidence").SetValue(formatFloat(c.Confidence))
	s.Key("check_interval").SetValue(formatSeconds(c.CheckInterval))
	s.Key("search_width").SetValue(strconv.Itoa(c.SearchWidth))
	s.Key("search_height").SetValue(strconv.Itoa(c.SearchHeight))

	t := file.Section(SectionTestMode)
	t.Key("enabled").SetValue(strconv.FormatBool(c.TestMode))
	t.Key("test_image").SetValue(c.TestImage)
	t.Key("test_interval").SetValue(formatSeconds(c.TestInterval))

	a := file.Section(SectionAdvanced)
	a.Comment = "Optional; missing keys fall back to these defaults"
	a.Key("confirm_delay").SetValue(formatSeconds(c.ConfirmDelay))
	a.Key("debug_image").SetValue(c.DebugImage)
	a.Key("log_file").SetValue(c.LogFile)
	a.Key("log_level").SetValue(c.LogLevel)
	a.Key("capture_backend").SetValue(c.CaptureBackend)
	a.Key("match_stride").SetValue(strconv.Itoa(c.MatchStride))
	a.Key("emergency_stop").SetValue(strconv.FormatBool(c.EmergencyStop))
	a.Key("diagnostics_every").SetValue(strconv.Itoa(c.DiagnosticsEvery))

	return file.SaveTo(path)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatSeconds(d time.Duration) string {
	s := formatFloat(d.Seconds())
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
