package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleINI = `[Settings]
window_title = BongoCat
default_cat_x = 3711
default_cat_y = 799
gift_image = gift.png
confidence = 0.8
check_interval = 1.5
search_width = 400
search_height = 300

[TestMode]
enabled = false
test_image = wechat.png
test_interval = 5.0
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_ParsesRequiredSections(t *testing.T) {
	cfg, created, err := Load(writeFile(t, sampleINI))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created {
		t.Fatalf("existing file must not be reported as created")
	}
	if cfg.WindowTitle != "BongoCat" || cfg.AnchorX != 3711 || cfg.AnchorY != 799 {
		t.Fatalf("unexpected settings: %+v", cfg)
	}
	if cfg.CheckInterval != 1500*time.Millisecond {
		t.Fatalf("check interval = %v", cfg.CheckInterval)
	}
	if cfg.SearchWidth != 400 || cfg.SearchHeight != 300 {
		t.Fatalf("search size = %dx%d", cfg.SearchWidth, cfg.SearchHeight)
	}
	if cfg.ConfirmDelay != 5*time.Second || cfg.MatchStride != 2 || cfg.CaptureBackend != BackendAuto {
		t.Fatalf("advanced defaults not applied: %+v", cfg)
	}
}

func TestLoad_AdvancedOverrides(t *testing.T) {
	body := sampleINI + `
[Advanced]
confirm_delay = 2.5
capture_backend = Screenshot
emergency_stop = true
diagnostics_every = 10
`
	cfg, _, err := Load(writeFile(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmDelay != 2500*time.Millisecond {
		t.Fatalf("confirm delay = %v", cfg.ConfirmDelay)
	}
	if cfg.CaptureBackend != BackendScreenshot || !cfg.EmergencyStop || cfg.DiagnosticsEvery != 10 {
		t.Fatalf("advanced overrides not applied: %+v", cfg)
	}
	if cfg.LogFile != "gift_bot.log" {
		t.Fatalf("absent advanced key should keep default, got %q", cfg.LogFile)
	}
}

func TestLoad_MissingKeyAborts(t *testing.T) {
	body := `[Settings]
window_title = BongoCat
default_cat_x = 1

[TestMode]
enabled = false
test_image = wechat.png
test_interval = 5
`
	_, _, err := Load(writeFile(t, body))
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestLoad_MissingSectionAborts(t *testing.T) {
	body := `[Settings]
window_title = BongoCat
default_cat_x = 1
default_cat_y = 1
gift_image = gift.png
confidence = 0.8
check_interval = 1
search_width = 10
search_height = 10
`
	_, _, err := Load(writeFile(t, body))
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey for absent [TestMode], got %v", err)
	}
}

func TestLoad_MalformedValueAborts(t *testing.T) {
	body := `[Settings]
window_title = BongoCat
default_cat_x = left
default_cat_y = 799
gift_image = gift.png
confidence = 0.8
check_interval = 1
search_width = 400
search_height = 400

[TestMode]
enabled = false
test_image = wechat.png
test_interval = 5
`
	_, _, err := Load(writeFile(t, body))
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLoad_OutOfRangeConfidence(t *testing.T) {
	body := `[Settings]
window_title = BongoCat
default_cat_x = 1
default_cat_y = 1
gift_image = gift.png
confidence = 1.2
check_interval = 1
search_width = 400
search_height = 400

[TestMode]
enabled = false
test_image = wechat.png
test_interval = 5
`
	_, _, err := Load(writeFile(t, body))
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLoad_GeneratesDefaultsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	cfg, created, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true for a missing file")
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("generated config differs from defaults: %+v", cfg)
	}
	// The generated file must load back to the same values.
	again, created, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if created {
		t.Fatalf("second load must read the generated file")
	}
	if *again != *cfg {
		t.Fatalf("reloaded config differs:\n got %+v\nwant %+v", again, cfg)
	}
}

func TestValidate_TestImageOnlyRequiredInTestMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TestImage = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test image must be optional when test mode is off: %v", err)
	}
	cfg.TestMode = true
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLoad_NonFiniteValuesAbort(t *testing.T) {
	cases := map[string][2]string{
		"nan confidence":    {"confidence = 0.8", "confidence = NaN"},
		"inf confidence":    {"confidence = 0.8", "confidence = +Inf"},
		"inf interval":      {"check_interval = 1.5", "check_interval = inf"},
		"overflow interval": {"check_interval = 1.5", "check_interval = 1e300"},
		"nan test interval": {"test_interval = 5.0", "test_interval = nan"},
	}
	for name, c := range cases {
		body := strings.Replace(sampleINI, c[0], c[1], 1)
		if body == sampleINI {
			t.Fatalf("%s: replacement %q not applied", name, c[0])
		}
		cfg, _, err := Load(writeFile(t, body))
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%s: expected ErrInvalidValue, got err=%v cfg=%+v", name, err, cfg)
		}
	}
}

func TestValidate_RejectsNaNConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Confidence = math.NaN()
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}
