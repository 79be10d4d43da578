package app

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// WaitForKey blocks until the operator acknowledges exit. On a terminal a
// single keypress is enough; otherwise a line is read from r, which should be
// the reader already wrapping in.
func WaitForKey(in *os.File, r *bufio.Reader, out io.Writer) {
	fmt.Fprint(out, "\nPress any key to exit...")
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		if old, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, old)
			var b [1]byte
			_, _ = in.Read(b[:])
			fmt.Fprint(out, "\r\n")
			return
		}
	}
	_, _ = r.ReadString('\n')
}
