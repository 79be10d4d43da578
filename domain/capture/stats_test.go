package capture

import (
	"errors"
	"image"
	"testing"

	"github.com/soocke/gift-bot-go/config"
)

type stubCapturer struct {
	err    error
	closed bool
}

func (s *stubCapturer) Capture(r image.Rectangle) (*image.RGBA, error) {
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func (s *stubCapturer) Close() error { s.closed = true; return nil }

func TestStatsCapturer_CountsCapturesAndFailures(t *testing.T) {
	inner := &stubCapturer{}
	sc := NewStatsCapturer(inner)
	for i := 0; i < 3; i++ {
		if _, err := sc.Capture(image.Rect(10, 10, 50, 30)); err != nil {
			t.Fatalf("capture: %v", err)
		}
	}
	inner.err = errors.New("boom")
	if _, err := sc.Capture(image.Rect(0, 0, 1, 1)); err == nil {
		t.Fatalf("expected error to pass through")
	}
	st := sc.Stats()
	if st.Captures != 3 || st.Failures != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.LastFrameSize != [2]int{40, 20} {
		t.Fatalf("frame size = %v", st.LastFrameSize)
	}
	if st.LastCapture.IsZero() {
		t.Fatalf("last capture time not recorded")
	}
	if err := sc.Close(); err != nil || !inner.closed {
		t.Fatalf("close must reach the wrapped capturer")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("vnc"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestOpen_ScreenshotBackendByConfigName(t *testing.T) {
	c, err := Open(config.BackendScreenshot)
	if err != nil {
		t.Fatalf("open %q: %v", config.BackendScreenshot, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
