//go:build !windows

package action

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
)

// Position returns the pointer position via robotgo.
func (in *Input) Position() (image.Point, error) {
	x, y := robotgo.Location()
	return image.Pt(x, y), nil
}

// Click moves to (x, y), clicks the left button and restores the pointer.
func (in *Input) Click(x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: (%d,%d)", ErrInvalidTarget, x, y)
	}
	px, py := robotgo.Location()
	robotgo.Move(x, y)
	time.Sleep(in.PressDuration)
	robotgo.Click("left", false)
	robotgo.Move(px, py)
	return nil
}

// FindWindow searches X11 windows with xdotool for an exact title match.
func FindWindow(title string) (Handle, error) {
	ids, err := xdotoolSearch("--name", "^"+regexp.QuoteMeta(title)+"$")
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// ListWindows returns titles of visible X11 windows. Empty titles are skipped.
func ListWindows() ([]string, error) {
	ids, err := xdotoolSearch("--onlyvisible", "--name", ".")
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, id := range ids {
		out, err := exec.Command("xdotool", "getwindowname", strconv.FormatUint(uint64(id), 10)).Output()
		if err != nil {
			continue
		}
		if title := strings.TrimSpace(string(out)); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

// SetDPIAware is a no-op outside Windows.
func SetDPIAware() error { return nil }

// xdotoolSearch runs "xdotool search" and parses the window ids. xdotool
// exits with status 1 and no output when nothing matches.
func xdotoolSearch(args ...string) ([]Handle, error) {
	out, err := exec.Command("xdotool", append([]string{"search"}, args...)...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(out)) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("xdotool search: %w", err)
	}
	return parseWindowIDs(out), nil
}

// parseWindowIDs reads one decimal window id per line. Lines that are not ids
// are skipped.
func parseWindowIDs(out []byte) []Handle {
	var ids []Handle
	for _, line := range strings.Fields(string(out)) {
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, Handle(id))
	}
	return ids
}
