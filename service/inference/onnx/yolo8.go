package onnx

import (
	"context"
	"image"
	"log/slog"
	"os"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/inference"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

func init() {
	inference.RegisterBackend(config.OnnxRuntimeBackend, New)
}

type yolo8Service struct {
	CfgSvc  config.IService
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
	classes int
	anchors int
}

func New(cfgSvc config.IService) (inference.IService, error) {
	return &yolo8Service{
		CfgSvc: cfgSvc,
	}, nil
}

func (svc *yolo8Service) Name() string {
	return config.OnnxRuntimeBackend
}

func (svc *yolo8Service) Load(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return xerrors.Errorf("no yolo8 model exists at %s: %w", modelPath, err)
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(svc.CfgSvc.GetOnnxRuntimeLibraryPath())
		if err := ort.InitializeEnvironment(); err != nil {
			return xerrors.Errorf("error initializing onnxruntime from %s: %w", svc.CfgSvc.GetOnnxRuntimeLibraryPath(), err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		svc.Close()
		return xerrors.Errorf("error reading model io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		svc.Close()
		return xerrors.Errorf("expected one input and one output, model has %d and %d", len(inputs), len(outputs))
	}

	svc.labels = modelLabels(modelPath)

	size := svc.CfgSvc.GetModelInputSize()
	svc.classes, svc.anchors = outputLayout(outputs[0].Dimensions, len(svc.labels), size)

	svc.input, err = ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), make([]float32, 3*size*size))
	if err != nil {
		svc.Close()
		return xerrors.Errorf("error creating input tensor: %w", err)
	}

	svc.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+svc.classes), int64(svc.anchors)))
	if err != nil {
		svc.Close()
		return xerrors.Errorf("error creating output tensor: %w", err)
	}

	svc.session, err = ort.NewAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{svc.input}, []ort.Value{svc.output}, nil)
	if err != nil {
		svc.Close()
		return xerrors.Errorf("error creating session: %w", err)
	}

	lgr.Logger.Debug("yolo8 model loaded",
		slog.String("model", modelPath),
		slog.String("input", inputs[0].Name),
		slog.String("output", outputs[0].Name),
		slog.Int("classes", svc.classes),
		slog.Int("anchors", svc.anchors),
	)
	return nil
}

func (svc *yolo8Service) Labels() []string {
	return svc.labels
}

func (svc *yolo8Service) Infer(ctx context.Context, img image.Image) ([]inference.Prediction, error) {
	if svc.session == nil {
		return nil, xerrors.New("yolo8 model is not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	square, lb := inference.Letterbox(img, svc.CfgSvc.GetModelInputSize())
	copy(svc.input.GetData(), inference.CHW(square))

	if err := svc.session.Run(); err != nil {
		return nil, xerrors.Errorf("error running session: %w", err)
	}

	data := svc.output.GetData()
	raw := make([]float32, len(data))
	copy(raw, data)

	b := img.Bounds()
	out := inference.Yolo8Output{Data: raw, Classes: svc.classes, Anchors: svc.anchors}
	candidates, err := out.Decode(lb, b.Dx(), b.Dy(), svc.CfgSvc.GetModelConfidenceThreshold())
	if err != nil {
		return nil, err
	}

	return inference.NMS(candidates, svc.CfgSvc.GetModelNMSThreshold(), svc.CfgSvc.GetModelMaxDetections()), nil
}

func (svc *yolo8Service) Close() error {
	if svc.session != nil {
		svc.session.Destroy()
		svc.session = nil
	}
	if svc.input != nil {
		svc.input.Destroy()
		svc.input = nil
	}
	if svc.output != nil {
		svc.output.Destroy()
		svc.output = nil
	}
	if ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

// modelLabels prefers the class table exported into the model metadata and
// falls back to COCO.
func modelLabels(modelPath string) []string {
	md, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		lgr.Logger.Debug("no model metadata, using coco labels", slog.Any("error", err))
		return inference.CocoLabels()
	}
	defer md.Destroy()

	raw, ok, err := md.LookupCustomMetadataMap("names")
	if err != nil || !ok {
		return inference.CocoLabels()
	}

	labels, err := inference.ParseNamesMetadata(raw)
	if err != nil {
		lgr.Logger.Warn("unreadable names metadata, using coco labels", slog.Any("error", err))
		return inference.CocoLabels()
	}
	return labels
}
