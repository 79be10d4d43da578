package capture

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ArtifactWriter persists a captured frame for inspection.
type ArtifactWriter interface {
	WriteArtifact(img image.Image) error
}

// FileArtifact overwrites a single image file on every write. The format
// follows the file extension.
type FileArtifact struct {
	Path string
}

func (f FileArtifact) WriteArtifact(img image.Image) error {
	if err := imaging.Save(img, f.Path); err != nil {
		return fmt.Errorf("save artifact %s: %w", f.Path, err)
	}
	return nil
}
