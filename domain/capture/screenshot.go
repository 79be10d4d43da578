package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// screenshotCapturer delegates to vova616/screenshot, which opens and frees
// its platform resources per call.
type screenshotCapturer struct{}

func (screenshotCapturer) Capture(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("capture: invalid rect %v", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("capture: screenshot %v: %w", r, err)
	}
	return img, nil
}

func (screenshotCapturer) Close() error { return nil }
