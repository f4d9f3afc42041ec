package config

type IService interface {
	GetModelFolder() string
	GetModelWeights() string
	GetModelPath() string
	GetModelInputSize() int
	GetModelConfidenceThreshold() float32
	GetModelNMSThreshold() float32
	GetModelMaxDetections() int
	GetConfidenceThreshold() float64
	GetInferenceBackend() string
	GetOnnxRuntimeLibraryPath() string
	GetDetectionsLogFile() string
	GetLogLevel() string
	GetTraceSpans() bool
}
