//go:build !windows

package capture

import "errors"

func newGDICapturer() (Capturer, error) {
	return nil, errors.New("capture: gdi backend is only available on windows")
}
