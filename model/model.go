package model

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// ErrorKind classifies a failed detection run. It implements error so that
// callers can write errors.Is(err, model.NotFound).
type ErrorKind string

const (
	NotFound        ErrorKind = "NotFound"
	InvalidImage    ErrorKind = "InvalidImage"
	PipelineFailure ErrorKind = "PipelineFailure"
)

func (k ErrorKind) Error() string {
	return string(k)
}

type CustomError struct {
	Processor  string                 `json:"processor"`
	Kind       ErrorKind              `json:"kind"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

// GenError builds a CustomError whose inner error carries the caller's
// stack trace, so loggers can print where the failure was raised.
func GenError(proc string, kind ErrorKind, err error, misc map[string]interface{}, messagef string, args ...interface{}) *CustomError {
	message := fmt.Sprintf(messagef, args...)

	var inner error
	if err != nil {
		inner = xerrors.WithStackTrace(err, 1)
	} else {
		inner = xerrors.WithStackTrace(xerrors.Message(message), 1)
	}

	return &CustomError{
		Processor:  proc,
		Kind:       kind,
		Inner:      inner,
		Message:    message,
		StackTrace: xerrors.StackTrace(inner).String(),
		Misc:       misc,
	}
}

func (e *CustomError) Error() string {
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Inner
}

func (e *CustomError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// KindOf reports the kind carried by err. Anything that is not a
// CustomError is a pipeline failure.
func KindOf(err error) ErrorKind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return PipelineFailure
}

// Detection is one object instance reported to the caller.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"` // x1, y1, x2, y2
}

type RunStats struct {
	RunID         string  `json:"runId"`
	Image         string  `json:"image"`
	Backend       string  `json:"backend"`
	Model         string  `json:"model"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Predictions   int     `json:"predictions"`
	Kept          int     `json:"kept"`
	DecodeTime    float64 `json:"decodeTime"`
	LoadTime      float64 `json:"loadTime"`
	InferenceTime float64 `json:"inferenceTime"`
	Timestamp     int64   `json:"timestamp"`
}

// DetectionRun is the journal entry written for every invocation.
type DetectionRun struct {
	Stats      RunStats    `json:"stats"`
	Detections []Detection `json:"detections"`
	Error      string      `json:"error,omitempty"`
	ErrorKind  ErrorKind   `json:"errorKind,omitempty"`
}
