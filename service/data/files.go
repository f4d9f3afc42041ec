package data

import (
	"encoding/json"
	"sync"

	"github.com/natefinch/lumberjack"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/service/config"
)

type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// NewFilesDB appends one JSON line per run to the configured detections
// log, rotating it the same way the detector logs are rotated.
func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
		writer: &lumberjack.Logger{
			Filename:   cfgsvc.GetDetectionsLogFile(),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		},
	}
}

func (svc *filesDBService) NewDetectionRun(run model.DetectionRun) error {
	if run.Detections == nil {
		run.Detections = []model.Detection{}
	}

	data, err := json.Marshal(run)
	if err != nil {
		return xerrors.Errorf("error marshaling detection run: %w", err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.writer.Write(append(data, '\n')); err != nil {
		return xerrors.Errorf("error writing to detections log: %w", err)
	}
	return nil
}

func (svc *filesDBService) Finalize() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.writer.Close()
}
