package data

import "github.com/khaledhikmat/vs-detect/model"

type IService interface {
	NewDetectionRun(run model.DetectionRun) error
	Finalize() error
}
