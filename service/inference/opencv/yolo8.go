package opencv

import (
	"context"
	"image"
	"log/slog"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/inference"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

// Boxes of different classes are shifted this far apart before NMS so that
// they never overlap each other.
const classOffset = 7680

func init() {
	inference.RegisterBackend(config.OpenCVBackend, New)
}

type yolo8Service struct {
	CfgSvc config.IService
	net    *gocv.Net
	labels []string
}

func New(cfgSvc config.IService) (inference.IService, error) {
	return &yolo8Service{
		CfgSvc: cfgSvc,
	}, nil
}

func (svc *yolo8Service) Name() string {
	return config.OpenCVBackend
}

func (svc *yolo8Service) Load(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return xerrors.Errorf("no yolo8 model exists at %s: %w", modelPath, err)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return xerrors.Errorf("error reading yolo8 model %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return xerrors.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return xerrors.Errorf("error setting target: %w", err)
	}

	svc.net = &net
	svc.labels = inference.CocoLabels()

	lgr.Logger.Debug("yolo8 model loaded",
		slog.String("model", modelPath),
		slog.String("openCV", gocv.Version()),
	)
	return nil
}

func (svc *yolo8Service) Labels() []string {
	return svc.labels
}

func (svc *yolo8Service) Infer(ctx context.Context, img image.Image) ([]inference.Prediction, error) {
	if svc.net == nil {
		return nil, xerrors.New("yolo8 model is not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := svc.CfgSvc.GetModelInputSize()
	square, lb := inference.Letterbox(img, size)

	mat, err := gocv.ImageToMatRGB(square)
	if err != nil {
		return nil, xerrors.Errorf("error converting image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	svc.net.SetInput(blob, "")

	output := svc.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, xerrors.Errorf("unexpected DNN output dims: %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, xerrors.Errorf("error reading DNN output: %w", err)
	}

	// The mat owns data; copy it out before the deferred Close.
	raw := make([]float32, len(data))
	copy(raw, data)

	out := inference.Yolo8Output{Data: raw, Classes: dims[1] - 4, Anchors: dims[2]}
	if out.Classes != len(svc.labels) {
		lgr.Logger.Warn("model classes do not match label table",
			slog.Int("classes", out.Classes),
			slog.Int("labels", len(svc.labels)),
		)
	}

	b := img.Bounds()
	candidates, err := out.Decode(lb, b.Dx(), b.Dy(), svc.CfgSvc.GetModelConfidenceThreshold())
	if err != nil {
		return nil, err
	}

	return svc.suppress(candidates), nil
}

func (svc *yolo8Service) suppress(candidates []inference.Prediction) []inference.Prediction {
	if len(candidates) == 0 {
		return []inference.Prediction{}
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		off := c.ClassIndex * classOffset
		boxes[i] = image.Rect(
			int(c.Box.X1)+off, int(c.Box.Y1)+off,
			int(c.Box.X2)+off, int(c.Box.Y2)+off,
		)
		scores[i] = c.Confidence
	}

	indices := gocv.NMSBoxes(boxes, scores, svc.CfgSvc.GetModelConfidenceThreshold(), svc.CfgSvc.GetModelNMSThreshold())

	maxDet := svc.CfgSvc.GetModelMaxDetections()
	kept := make([]inference.Prediction, 0, len(indices))
	for _, idx := range indices {
		if len(kept) >= maxDet {
			break
		}
		kept = append(kept, candidates[idx])
	}
	return kept
}

func (svc *yolo8Service) Close() error {
	if svc.net == nil {
		return nil
	}

	err := svc.net.Close()
	svc.net = nil
	return err
}
