package status

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// LineWidth is the padded width of the in-place status line.
const LineWidth = 80

// Console renders status updates to a terminal. On a TTY each update
// rewrites the current line; otherwise only changes of Kind are printed, one
// per line.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	tty      bool
	pending  bool
	hasLast  bool
	lastKind Kind

	symbol  lipgloss.Style
	waiting lipgloss.Style
	count   lipgloss.Style
}

// NewConsole builds a Console for f, detecting whether it is a terminal and
// which colours it supports.
func NewConsole(f *os.File) *Console {
	tty := term.IsTerminal(int(f.Fd()))
	profile := termenv.Ascii
	if tty {
		profile = termenv.NewOutput(f).EnvColorProfile()
	}
	return NewConsoleWriter(f, tty, profile)
}

// NewConsoleWriter builds a Console over any writer.
func NewConsoleWriter(w io.Writer, tty bool, profile termenv.Profile) *Console {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Console{
		out:     w,
		tty:     tty,
		symbol:  r.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		waiting: r.NewStyle().Foreground(lipgloss.Color("214")),
		count:   r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

func (c *Console) Report(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		if c.hasLast && c.lastKind == s.Kind {
			return
		}
		c.hasLast, c.lastKind = true, s.Kind
		fmt.Fprintln(c.out, Line(s))
		return
	}
	c.hasLast, c.lastKind = true, s.Kind
	fmt.Fprint(c.out, "\r"+c.render(s))
	c.pending = true
}

func (c *Console) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakLine()
}

func (c *Console) breakLine() {
	if c.pending {
		fmt.Fprint(c.out, "\n")
		c.pending = false
	}
}

// render pads the plain text to LineWidth cells before styling so that escape
// sequences do not count towards the width.
func (c *Console) render(s Status) string {
	pad := ""
	if w := runewidth.StringWidth(Line(s)); w < LineWidth {
		pad = runewidth.FillRight("", LineWidth-w)
	}
	if s.Kind == KindWaiting {
		return c.waiting.Render(Line(s)) + pad
	}
	return c.symbol.Render("["+s.Symbol+"]") + " " + verb(s.Kind) + c.count.Render(countSuffix(s)) + pad
}

// Line formats a status as plain text.
func Line(s Status) string {
	if s.Kind == KindWaiting {
		return fmt.Sprintf("[-] waiting for window '%s'...", s.Window)
	}
	return "[" + s.Symbol + "] " + verb(s.Kind) + countSuffix(s)
}

func verb(k Kind) string {
	if k == KindSearching {
		return "searching"
	}
	return "watching"
}

func countSuffix(s Status) string {
	if s.Uptime > 0 {
		return fmt.Sprintf("... (collected: %d, up %s)", s.Collected, s.Uptime.Truncate(time.Second))
	}
	return fmt.Sprintf("... (collected: %d)", s.Collected)
}

// LogWriter wraps w so that a pending status line is terminated before each
// write.
func (c *Console) LogWriter(w io.Writer) io.Writer {
	return &logWriter{c: c, w: w}
}

type logWriter struct {
	c *Console
	w io.Writer
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	l.c.breakLine()
	return l.w.Write(p)
}
