package capture

import (
	"errors"
	"image"
)

// ErrInvalidInput is returned by a Matcher for a nil or empty frame or template.
var ErrInvalidInput = errors.New("capture: invalid matcher input")

// Capturer grabs a rectangle of the screen. Implementations hold whatever
// platform context they need until Close.
type Capturer interface {
	Capture(r image.Rectangle) (*image.RGBA, error)
	Close() error
}

// Matcher locates a template inside a frame. Not finding the template is a
// normal Result, never an error.
type Matcher interface {
	Match(frame *image.RGBA, tmpl image.Image, threshold float64) (Result, error)
}

// Result is the outcome of a single template search. Box is relative to the
// frame's origin. Confidence carries the best score even when Found is false.
type Result struct {
	Found      bool
	Box        image.Rectangle
	Confidence float64
}

// NotFound builds a miss carrying the best score seen.
func NotFound(score float64) Result { return Result{Confidence: score} }

// Center returns the centre of the matched box.
func (r Result) Center() image.Point {
	return image.Pt(r.Box.Min.X+r.Box.Dx()/2, r.Box.Min.Y+r.Box.Dy()/2)
}
