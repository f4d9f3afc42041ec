package data

import "github.com/khaledhikmat/vs-detect/model"

type noopService struct {
}

func NewNoop() IService {
	return &noopService{}
}

func (svc *noopService) NewDetectionRun(_ model.DetectionRun) error {
	return nil
}

func (svc *noopService) Finalize() error {
	return nil
}
