//go:build windows

package action

import (
	"fmt"
	"image"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
	maxTitleChars       = 256
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procMouseEvent         = user32.NewProc("mouse_event")
	procSetCursorPos       = user32.NewProc("SetCursorPos")
	procGetCursorPos       = user32.NewProc("GetCursorPos")
	procFindWindowW        = user32.NewProc("FindWindowW")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procIsWindowVisible    = user32.NewProc("IsWindowVisible")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
)

type point struct{ X, Y int32 }

// Position returns the pointer position via GetCursorPos.
func (in *Input) Position() (image.Point, error) {
	var p point
	r, _, e := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return image.Point{}, fmt.Errorf("GetCursorPos: %w", e)
	}
	return image.Pt(int(p.X), int(p.Y)), nil
}

// Click moves to (x, y), presses and releases the left button, then puts the
// pointer back where it was.
func (in *Input) Click(x, y int) error {
	prev, posErr := in.Position()
	if r, _, _ := procSetCursorPos.Call(uintptr(x), uintptr(y)); r == 0 {
		return fmt.Errorf("%w: SetCursorPos(%d,%d)", ErrInvalidTarget, x, y)
	}
	_, _, _ = procMouseEvent.Call(mouseeventfLeftDown, 0, 0, 0, 0)
	time.Sleep(in.PressDuration)
	_, _, _ = procMouseEvent.Call(mouseeventfLeftUp, 0, 0, 0, 0)
	if posErr == nil {
		_, _, _ = procSetCursorPos.Call(uintptr(prev.X), uintptr(prev.Y))
	}
	return nil
}

// FindWindow returns the handle of the top-level window whose title is
// exactly title, or zero when there is none.
func FindWindow(title string) (Handle, error) {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	h, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
	return Handle(h), nil
}

// ListWindows returns titles of top-level visible windows.
// Empty titles are skipped.
func ListWindows() ([]string, error) {
	var titles []string
	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		buf := make([]uint16, maxTitleChars)
		n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n > 0 {
			if title := strings.TrimSpace(windows.UTF16ToString(buf[:n])); title != "" {
				titles = append(titles, title)
			}
		}
		return 1 // continue enumeration
	})
	if r, _, callErr := procEnumWindows.Call(cb, 0); r == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", callErr)
	}
	return titles, nil
}

// SetDPIAware makes the process DPI aware so that capture and pointer
// coordinates agree on scaled displays.
func SetDPIAware() error {
	if err := procSetProcessDPIAware.Find(); err != nil {
		return err
	}
	if r, _, e := procSetProcessDPIAware.Call(); r == 0 {
		return fmt.Errorf("SetProcessDPIAware: %w", e)
	}
	return nil
}
