package action

import (
	"errors"
	"image"
	"time"
)

// Handle is an opaque native window reference. Zero means no window.
type Handle uintptr

// ErrInvalidTarget is returned when the pointer could not be placed on the
// requested coordinates.
var ErrInvalidTarget = errors.New("action: invalid click target")

// Clicker performs a foreground left click at absolute screen coordinates
// and restores the pointer afterwards.
type Clicker interface {
	Click(x, y int) error
}

// Pointer reports the current pointer position.
type Pointer interface {
	Position() (image.Point, error)
}

// WindowFinder looks up a top-level window by its exact title.
// A zero Handle with a nil error means the window does not exist.
type WindowFinder interface {
	FindWindow(title string) (Handle, error)
}

// Input is the platform input backend. It satisfies Clicker, Pointer and
// WindowFinder.
type Input struct {
	// PressDuration is the gap between button down and up.
	PressDuration time.Duration
}

// NewInput returns an Input with a short human-like press.
func NewInput() *Input {
	return &Input{PressDuration: 30 * time.Millisecond}
}

func (in *Input) FindWindow(title string) (Handle, error) { return FindWindow(title) }
