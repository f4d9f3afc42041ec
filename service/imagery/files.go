package imagery

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"
)

type filesService struct {
}

func NewFiles() IService {
	return &filesService{}
}

// Decode reads path as an image, applying any EXIF orientation so that
// pixel coordinates match what an image viewer shows.
func (svc *filesService) Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, xerrors.Errorf("decoding %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, xerrors.Errorf("decoding %s: empty image", path)
	}

	return img, nil
}
