package capture

import (
	"errors"
	"image"

	kscreen "github.com/kbinani/screenshot"
)

// ScreenBounds returns the far corner of the virtual desktop, the union of
// all active displays. Region clamping uses it as the exclusive limit.
func ScreenBounds() (image.Point, error) {
	n := kscreen.NumActiveDisplays()
	if n <= 0 {
		return image.Point{}, errors.New("capture: no active display")
	}
	var union image.Rectangle
	for i := 0; i < n; i++ {
		union = union.Union(kscreen.GetDisplayBounds(i))
	}
	if union.Max.X <= 0 || union.Max.Y <= 0 {
		return image.Point{}, errors.New("capture: empty display bounds")
	}
	return union.Max, nil
}
