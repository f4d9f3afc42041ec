package mode

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/pipeline"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

var _ Processor = Detect

// Detect runs one detection over imagePath, journals the run and writes the
// surviving detections to w as a JSON array. Nothing reaches w on failure.
func Detect(canxCtx context.Context, svcs pipeline.ServicesFactory, imagePath string, w io.Writer) error {
	detections, stats, err := pipeline.Detect(canxCtx, svcs, imagePath)

	run := model.DetectionRun{
		Stats:      stats,
		Detections: detections,
	}
	if err != nil {
		run.Error = err.Error()
		run.ErrorKind = model.KindOf(err)
	}
	procRun(svcs.DataSvc, run)

	if err != nil {
		lgr.Logger.Debug(
			"detection run failed",
			slog.String("image", imagePath),
			slog.Any("error", err),
		)
		return err
	}

	out, err := encodeDetections(detections)
	if err != nil {
		return model.GenError("detect_mode", model.PipelineFailure, err, nil, "error encoding detections: %v", err)
	}

	if _, err := w.Write(out); err != nil {
		return xerrors.Errorf("error writing detections: %w", err)
	}
	return nil
}
