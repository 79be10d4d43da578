//go:build windows

package capture

// GDI capture session. The screen DC and a compatible memory DC are acquired
// once and held until Close; the DIB section is kept while the requested size
// stays the same, which for a fixed search region means for the whole run.

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	srccopy      = 0x00CC0020
	captureBlt   = 0x40000000
	dibRGBColors = 0
	biRgb        = 0
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type gdiSession struct {
	mu       sync.Mutex
	screenDC uintptr
	memDC    uintptr
	bmp      uintptr
	oldObj   uintptr
	bits     unsafe.Pointer
	w, h     int
	closed   bool
}

func newGDICapturer() (Capturer, error) {
	screenDC, _, e := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("capture: GetDC: %w", e)
	}
	memDC, _, e := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		procReleaseDC.Call(0, screenDC)
		return nil, fmt.Errorf("capture: CreateCompatibleDC: %w", e)
	}
	return &gdiSession{screenDC: screenDC, memDC: memDC}, nil
}

// ensureBitmap (re)creates the top-down 32-bit DIB when the size changes.
func (s *gdiSession) ensureBitmap(w, h int) error {
	if s.bmp != 0 && s.w == w && s.h == h {
		return nil
	}
	s.releaseBitmap()

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	bmp, _, e := procCreateDIBSection.Call(s.memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 {
		return fmt.Errorf("capture: CreateDIBSection %dx%d: %w", w, h, e)
	}
	prev, _, e := procSelectObject.Call(s.memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) { // failure or GDI_ERROR
		procDeleteObject.Call(bmp)
		return fmt.Errorf("capture: SelectObject: %w", e)
	}
	s.bmp, s.oldObj, s.bits, s.w, s.h = bmp, prev, bits, w, h
	return nil
}

func (s *gdiSession) releaseBitmap() {
	if s.bmp == 0 {
		return
	}
	procSelectObject.Call(s.memDC, s.oldObj)
	procDeleteObject.Call(s.bmp)
	s.bmp, s.oldObj, s.bits, s.w, s.h = 0, 0, nil, 0, 0
}

func (s *gdiSession) Capture(r image.Rectangle) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("capture: gdi session closed")
	}
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid rect %v", r)
	}
	if err := s.ensureBitmap(w, h); err != nil {
		return nil, err
	}
	ok, _, e := procBitBlt.Call(s.memDC, 0, 0, uintptr(w), uintptr(h), s.screenDC, uintptr(r.Min.X), uintptr(r.Min.Y), srccopy|captureBlt)
	if ok == 0 {
		return nil, fmt.Errorf("capture: BitBlt %v: %w", r, e)
	}

	n := w * h * 4
	src := unsafe.Slice((*byte)(s.bits), n)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < n; i += 4 {
		// BGRA to RGBA; the DIB alpha byte is undefined
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

func (s *gdiSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.releaseBitmap()
	procDeleteDC.Call(s.memDC)
	procReleaseDC.Call(0, s.screenDC)
	return nil
}
