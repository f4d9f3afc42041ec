package inference

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/nfnt/resize"
	"golang.org/x/xerrors"
)

var letterboxFill = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Letterboxing records how an image was placed on the model canvas.
type Letterboxing struct {
	Gain float32
	PadX int
	PadY int
}

// Original maps a canvas coordinate back to the source image.
func (l Letterboxing) Original(x, y float32) (float32, float32) {
	return (x - float32(l.PadX)) / l.Gain, (y - float32(l.PadY)) / l.Gain
}

// Letterbox scales img to fit a size x size square without distortion,
// centers it and pads the borders with gray.
func Letterbox(img image.Image, size int) (*image.RGBA, Letterboxing) {
	b := img.Bounds()
	maxDim := b.Dx()
	if b.Dy() > maxDim {
		maxDim = b.Dy()
	}
	gain := float32(size) / float32(maxDim)

	nw := int(math.Round(float64(float32(b.Dx()) * gain)))
	nh := int(math.Round(float64(float32(b.Dy()) * gain)))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	// Odd padding puts the extra pixel on the right and bottom.
	left := int(math.Round(float64(size-nw)/2 - 0.1))
	top := int(math.Round(float64(size-nh)/2 - 0.1))

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: letterboxFill}, image.Point{}, draw.Src)

	resized := resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)
	draw.Draw(canvas, image.Rect(left, top, left+nw, top+nh), resized, resized.Bounds().Min, draw.Src)

	return canvas, Letterboxing{Gain: gain, PadX: left, PadY: top}
}

// CHW flattens an RGBA square into planar RGB floats in [0,1], the layout
// the exported detector expects for its [1,3,H,W] input.
func CHW(img *image.RGBA) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := y*w + x
			out[p] = float32(img.Pix[i]) / 255.0
			out[plane+p] = float32(img.Pix[i+1]) / 255.0
			out[2*plane+p] = float32(img.Pix[i+2]) / 255.0
		}
	}
	return out
}

// Yolo8Output describes a [1, 4+classes, anchors] detector output tensor.
type Yolo8Output struct {
	Data    []float32
	Classes int
	Anchors int
}

// Decode turns the raw tensor into candidate predictions whose best class
// score is strictly above scoreThreshold. Boxes are mapped back through lb
// and clipped to a width x height image.
func (o Yolo8Output) Decode(lb Letterboxing, width, height int, scoreThreshold float32) ([]Prediction, error) {
	rows := 4 + o.Classes
	if o.Classes <= 0 || o.Anchors <= 0 || len(o.Data) != rows*o.Anchors {
		return nil, xerrors.Errorf("unexpected output tensor: %d values for %d classes x %d anchors", len(o.Data), o.Classes, o.Anchors)
	}
	if lb.Gain <= 0 {
		return nil, xerrors.Errorf("invalid letterbox gain %f", lb.Gain)
	}

	at := func(row, anchor int) float32 {
		return o.Data[row*o.Anchors+anchor]
	}

	var preds []Prediction
	for a := 0; a < o.Anchors; a++ {
		classID := 0
		score := at(4, a)
		for c := 1; c < o.Classes; c++ {
			if s := at(4+c, a); s > score {
				score = s
				classID = c
			}
		}
		if score <= scoreThreshold {
			continue
		}

		cx, cy, w, h := at(0, a), at(1, a), at(2, a), at(3, a)
		x1, y1 := lb.Original(cx-w/2, cy-h/2)
		x2, y2 := lb.Original(cx+w/2, cy+h/2)
		preds = append(preds, Prediction{
			ClassIndex: classID,
			Confidence: score,
			Box: Box{
				X1: clip(x1, float32(width)),
				Y1: clip(y1, float32(height)),
				X2: clip(x2, float32(width)),
				Y2: clip(y2, float32(height)),
			},
		})
	}
	return preds, nil
}

// NMS performs class-aware non-maximum suppression. Survivors come back in
// descending confidence order, at most maxDet of them.
func NMS(preds []Prediction, iouThreshold float32, maxDet int) []Prediction {
	sorted := make([]Prediction, len(preds))
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := []Prediction{}
	for _, p := range sorted {
		if maxDet > 0 && len(kept) >= maxDet {
			break
		}

		suppressed := false
		for _, k := range kept {
			if k.ClassIndex == p.ClassIndex && IoU(k.Box, p.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, p)
		}
	}
	return kept
}

func IoU(a, b Box) float32 {
	inter := Box{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}.Area()
	if inter == 0 {
		return 0
	}
	return inter / (a.Area() + b.Area() - inter)
}

func clip(v, upper float32) float32 {
	if v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}
