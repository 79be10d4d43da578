package app

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/soocke/gift-bot-go/domain/action"
)

// PromptAnchor asks whether to replace the configured anchor. An empty
// answer keeps def; any text asks the operator to park the pointer on the
// new spot and confirm with Enter, and the pointer position is returned.
// End of input counts as an empty answer.
func PromptAnchor(in *bufio.Reader, out io.Writer, pointer action.Pointer, def image.Point) (image.Point, bool, error) {
	fmt.Fprint(out, "\nUpdate the click anchor? (Enter keeps the configured point, type anything then Enter to pick a new one): ")
	answer, err := readLine(in)
	if err != nil {
		return def, false, err
	}
	if answer == "" {
		return def, false, nil
	}
	fmt.Fprint(out, "Move the pointer to the new anchor (near the gift) and press Enter...")
	if _, err := readLine(in); err != nil {
		return def, false, err
	}
	p, err := pointer.Position()
	if err != nil {
		return def, false, fmt.Errorf("read pointer position: %w", err)
	}
	return p, true, nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
