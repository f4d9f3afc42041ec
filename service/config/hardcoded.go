package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	// The weights are part of the tool's identity and are not configurable.
	modelWeights = "yolov8n.onnx"

	OpenCVBackend      = "opencv"
	OnnxRuntimeBackend = "onnxruntime"
)

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModelFolder() string {
	return getEnv("MODEL_DIR", "./models")
}

func (svc *hardcodedService) GetModelWeights() string {
	return modelWeights
}

func (svc *hardcodedService) GetModelPath() string {
	return filepath.Join(svc.GetModelFolder(), svc.GetModelWeights())
}

func (svc *hardcodedService) GetModelInputSize() int {
	return 640
}

// GetModelConfidenceThreshold is the score a candidate needs to survive the
// model's own post-processing, before NMS.
func (svc *hardcodedService) GetModelConfidenceThreshold() float32 {
	return 0.25
}

func (svc *hardcodedService) GetModelNMSThreshold() float32 {
	return 0.7
}

func (svc *hardcodedService) GetModelMaxDetections() int {
	return 300
}

// GetConfidenceThreshold is the strict lower bound a detection must exceed
// to be reported.
func (svc *hardcodedService) GetConfidenceThreshold() float64 {
	return 0.5
}

func (svc *hardcodedService) GetInferenceBackend() string {
	return getEnv("INFERENCE_BACKEND", OpenCVBackend)
}

func (svc *hardcodedService) GetOnnxRuntimeLibraryPath() string {
	return getEnv("ONNXRUNTIME_LIB", defaultOnnxRuntimeLibraryPath(runtime.GOOS, runtime.GOARCH))
}

// GetDetectionsLogFile returns an empty string when the run journal is off.
func (svc *hardcodedService) GetDetectionsLogFile() string {
	return os.Getenv("DETECTIONS_LOG")
}

func (svc *hardcodedService) GetLogLevel() string {
	return getEnv("LOG_LEVEL", "warn")
}

// GetTraceSpans reports whether finished pipeline spans should be logged.
// Unparseable values count as false.
func (svc *hardcodedService) GetTraceSpans() bool {
	enabled, err := strconv.ParseBool(getEnv("TRACE_SPANS", "false"))
	return err == nil && enabled
}

func defaultOnnxRuntimeLibraryPath(goos, goarch string) string {
	switch goos {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		if goarch == "arm64" {
			return "./third_party/onnxruntime_arm64.dylib"
		}
		return "./third_party/onnxruntime.dylib"
	}

	if goarch == "arm64" {
		return "./third_party/onnxruntime_arm64.so"
	}
	return "./third_party/onnxruntime.so"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
