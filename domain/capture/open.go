package capture

import (
	"fmt"
	"runtime"

	"github.com/soocke/gift-bot-go/config"
)

// Open acquires the capture backend by name. "auto" picks GDI on Windows
// and the portable screenshot backend elsewhere. The caller owns Close.
func Open(backend string) (Capturer, error) {
	switch backend {
	case config.BackendAuto, "":
		if runtime.GOOS == "windows" {
			return newGDICapturer()
		}
		return screenshotCapturer{}, nil
	case config.BackendGDI:
		return newGDICapturer()
	case config.BackendScreenshot:
		return screenshotCapturer{}, nil
	default:
		return nil, fmt.Errorf("capture: unknown backend %q", backend)
	}
}
