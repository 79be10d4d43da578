package capture

import "image"

// SearchRegion returns the capture rectangle centred on anchor with the
// requested size, in absolute screen coordinates. The origin is clamped at
// zero and the far edges at screen, so the rectangle shrinks near a border
// instead of shifting. Width and height never exceed the request and never go
// negative.
func SearchRegion(anchor, size, screen image.Point) image.Rectangle {
	left := max(0, anchor.X-size.X/2)
	top := max(0, anchor.Y-size.Y/2)
	// an anchor past the screen edge leaves an empty region on that edge
	left = min(left, max(0, screen.X))
	top = min(top, max(0, screen.Y))

	width := max(0, min(left+max(0, size.X), screen.X)-left)
	height := max(0, min(top+max(0, size.Y), screen.Y)-top)
	return image.Rect(left, top, left+width, top+height)
}
