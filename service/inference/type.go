package inference

import (
	"context"
	"image"

	"github.com/khaledhikmat/vs-detect/service/config"
)

// Box is a rectangle in the pixel space of the original image.
type Box struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

func (b Box) Area() float32 {
	w, h := b.X2-b.X1, b.Y2-b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Prediction is a raw model output, before labelling and thresholding.
type Prediction struct {
	ClassIndex int     `json:"classIndex"`
	Confidence float32 `json:"confidence"`
	Box        Box     `json:"box"`
}

type IService interface {
	Name() string
	Load(modelPath string) error
	Labels() []string
	Infer(ctx context.Context, img image.Image) ([]Prediction, error)
	Close() error
}

// Factory builds a backend. It must not touch the model file; that is
// Load's job.
type Factory func(cfgSvc config.IService) (IService, error)
