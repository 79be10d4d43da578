package capture

import (
	"image"

	"github.com/corona10/goimagehash"
)

// FrameDistance returns the perceptual hash distance between two frames.
// Zero means visually identical at hash resolution.
func FrameDistance(a, b image.Image) (int, error) {
	ha, err := goimagehash.PerceptionHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := goimagehash.PerceptionHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}
