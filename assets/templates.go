package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
)

// ErrTemplateMissing is returned when a template file does not exist on disk.
var ErrTemplateMissing = errors.New("template image missing")

// Template is a decoded reference image together with its source path.
type Template struct {
	Path  string
	Image image.Image
}

// Size returns the template dimensions.
func (t *Template) Size() image.Point {
	if t == nil || t.Image == nil {
		return image.Point{}
	}
	return t.Image.Bounds().Size()
}

// Load decodes the image at path. EXIF orientation is applied so that photos
// saved by phone cameras match the way they appear on screen.
func Load(path string) (*Template, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
		}
		return nil, fmt.Errorf("stat template %s: %w", path, err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode template %s: empty image", path)
	}
	return &Template{Path: path, Image: img}, nil
}

// Set holds the templates used by the collector. Test is nil when test mode
// is disabled.
type Set struct {
	Gift *Template
	Test *Template
}

// Active returns the template for the requested mode.
func (s Set) Active(testMode bool) *Template {
	if testMode {
		return s.Test
	}
	return s.Gift
}

// LoadSet loads the gift template and, when testMode is set, the test template.
func LoadSet(giftPath, testPath string, testMode bool) (Set, error) {
	var set Set
	gift, err := Load(giftPath)
	if err != nil {
		return Set{}, err
	}
	set.Gift = gift
	if testMode {
		test, err := Load(testPath)
		if err != nil {
			return Set{}, err
		}
		set.Test = test
	}
	return set, nil
}
