package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/service/inference"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

const detectorProc = "yolo8_detector"

// Detect runs the pretrained detector over the image at imagePath and
// returns the detections above the reporting threshold in the order the
// model emitted them. The model is loaded for this call only.
func Detect(canx context.Context, svcs ServicesFactory, imagePath string) ([]model.Detection, model.RunStats, error) {
	stats := model.RunStats{
		RunID:     uuid.NewString(),
		Image:     imagePath,
		Backend:   svcs.InferenceSvc.Name(),
		Model:     svcs.CfgSvc.GetModelPath(),
		Timestamp: time.Now().Unix(),
	}
	logger := lgr.Logger.With(slog.String("runId", stats.RunID))
	tracer := svcs.tracer()

	canx, span := tracer.Start(canx, "detect", trace.WithAttributes(
		attribute.String("runId", stats.RunID),
		attribute.String("image", imagePath),
		attribute.String("backend", stats.Backend),
	))
	defer span.End()

	if _, err := os.Stat(imagePath); err != nil {
		return nil, stats, failSpan(span, model.GenError(detectorProc, model.NotFound, err,
			map[string]interface{}{"path": imagePath},
			"Image file not found: %s", imagePath))
	}

	_, decodeSpan := tracer.Start(canx, "decode")
	start := time.Now()
	img, err := svcs.ImagerySvc.Decode(imagePath)
	stats.DecodeTime = time.Since(start).Seconds()
	if err != nil {
		failSpan(decodeSpan, err)
		decodeSpan.End()
		return nil, stats, failSpan(span, model.GenError(detectorProc, model.InvalidImage, err,
			map[string]interface{}{"path": imagePath},
			"Could not read image file: %s", imagePath))
	}
	stats.Width, stats.Height = img.Bounds().Dx(), img.Bounds().Dy()
	decodeSpan.SetAttributes(attribute.Int("width", stats.Width), attribute.Int("height", stats.Height))
	decodeSpan.End()

	_, loadSpan := tracer.Start(canx, "load", trace.WithAttributes(attribute.String("model", stats.Model)))
	start = time.Now()
	err = svcs.InferenceSvc.Load(stats.Model)
	stats.LoadTime = time.Since(start).Seconds()
	if err != nil {
		failSpan(loadSpan, err)
		loadSpan.End()
		return nil, stats, failSpan(span, model.GenError(detectorProc, model.PipelineFailure, err,
			map[string]interface{}{"model": stats.Model, "backend": stats.Backend},
			"error loading model %s: %v", stats.Model, err))
	}
	loadSpan.End()

	defer func() {
		if err := svcs.InferenceSvc.Close(); err != nil {
			logger.Warn("error releasing model", slog.Any("error", err))
		}
	}()

	inferCtx, inferSpan := tracer.Start(canx, "infer")
	start = time.Now()
	preds, err := svcs.InferenceSvc.Infer(inferCtx, img)
	stats.InferenceTime = time.Since(start).Seconds()
	if err != nil {
		failSpan(inferSpan, err)
		inferSpan.End()
		return nil, stats, failSpan(span, model.GenError(detectorProc, model.PipelineFailure, err,
			map[string]interface{}{"model": stats.Model, "backend": stats.Backend},
			"error running inference: %v", err))
	}
	stats.Predictions = len(preds)
	inferSpan.SetAttributes(attribute.Int("predictions", stats.Predictions))
	inferSpan.End()

	detections, err := label(preds, svcs.InferenceSvc.Labels())
	if err != nil {
		return nil, stats, failSpan(span, err)
	}

	kept := filterByConfidence(detections, svcs.CfgSvc.GetConfidenceThreshold())
	stats.Kept = len(kept)
	span.SetAttributes(attribute.Int("kept", stats.Kept))

	logger.Debug("detection run completed",
		slog.String("image", imagePath),
		slog.String("backend", stats.Backend),
		slog.Int("predictions", stats.Predictions),
		slog.Int("kept", stats.Kept),
		slog.Float64("inferenceTime", stats.InferenceTime),
	)

	return kept, stats, nil
}

// failSpan records err on span, marks it failed and hands err back.
func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// label turns raw predictions into records. Box coordinates are truncated
// toward zero.
func label(preds []inference.Prediction, labels []string) ([]model.Detection, error) {
	detections := make([]model.Detection, 0, len(preds))
	for _, p := range preds {
		if p.ClassIndex < 0 || p.ClassIndex >= len(labels) {
			return nil, model.GenError(detectorProc, model.PipelineFailure, nil,
				map[string]interface{}{"classIndex": p.ClassIndex, "labels": len(labels)},
				"class index %d has no label (model knows %d classes)", p.ClassIndex, len(labels))
		}

		detections = append(detections, model.Detection{
			Class:      labels[p.ClassIndex],
			Confidence: float64(p.Confidence),
			BBox:       [4]int{int(p.Box.X1), int(p.Box.Y1), int(p.Box.X2), int(p.Box.Y2)},
		})
	}
	return detections, nil
}
