package mode

import (
	"context"
	"io"
	"log/slog"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/pipeline"
	"github.com/khaledhikmat/vs-detect/service/data"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	imagePath string,
	w io.Writer) error

func procRun(datasvc data.IService, run model.DetectionRun) {
	err := datasvc.NewDetectionRun(run)
	if err != nil {
		lgr.Logger.Error(
			"failed to store detection run",
			slog.String("runId", run.Stats.RunID),
			slog.Any("error", err),
		)
	}
}
