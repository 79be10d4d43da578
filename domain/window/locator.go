package window

import (
	"log/slog"
	"strings"

	"github.com/soocke/gift-bot-go/domain/action"
)

// Binding is the outcome of a successful lookup.
type Binding struct {
	Title  string
	Handle action.Handle
}

// Locator resolves a window title to a live handle on every call. It holds
// no binding state; callers compare handles across calls.
type Locator struct {
	Finder action.WindowFinder
	Logger *slog.Logger
}

// NewLocator constructs a Locator. A nil finder falls back to the platform
// lookup.
func NewLocator(finder action.WindowFinder, logger *slog.Logger) *Locator {
	if finder == nil {
		finder = action.NewInput()
	}
	return &Locator{Finder: finder, Logger: logger}
}

// Resolve looks the window up by exact title. A missing window, or a finder
// error, yields false.
func (l *Locator) Resolve(title string) (Binding, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Binding{}, false
	}
	h, err := l.Finder.FindWindow(title)
	if err != nil {
		if l.Logger != nil {
			l.Logger.Debug("window lookup failed", "title", title, "error", err)
		}
		return Binding{}, false
	}
	if h == 0 {
		return Binding{}, false
	}
	return Binding{Title: title, Handle: h}, true
}
