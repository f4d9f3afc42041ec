package pipeline

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/data"
	"github.com/khaledhikmat/vs-detect/service/imagery"
	"github.com/khaledhikmat/vs-detect/service/inference"
)

type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	ImagerySvc   imagery.IService
	InferenceSvc inference.IService
	// Tracer may be nil, in which case spans are dropped.
	Tracer trace.Tracer
}

func (svcs ServicesFactory) tracer() trace.Tracer {
	if svcs.Tracer != nil {
		return svcs.Tracer
	}
	return noop.NewTracerProvider().Tracer("vs-detect/pipeline")
}
