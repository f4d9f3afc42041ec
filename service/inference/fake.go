package inference

import (
	"context"
	"image"

	"golang.org/x/xerrors"
)

// FakeService replays canned predictions. It counts calls so tests can
// assert on how the model was used.
type FakeService struct {
	LabelTable  []string
	Predictions []Prediction
	LoadErr     error
	InferErr    error

	Loads      int
	Inferences int
	Closes     int
	ModelPath  string
	loaded     bool
}

func NewFake(preds ...Prediction) *FakeService {
	return &FakeService{
		LabelTable:  CocoLabels(),
		Predictions: preds,
	}
}

func (svc *FakeService) Name() string {
	return "fake"
}

func (svc *FakeService) Load(modelPath string) error {
	svc.Loads++
	svc.ModelPath = modelPath
	if svc.LoadErr != nil {
		return svc.LoadErr
	}
	svc.loaded = true
	return nil
}

func (svc *FakeService) Labels() []string {
	return svc.LabelTable
}

func (svc *FakeService) Infer(_ context.Context, _ image.Image) ([]Prediction, error) {
	svc.Inferences++
	if !svc.loaded {
		return nil, xerrors.New("fake model not loaded")
	}
	if svc.InferErr != nil {
		return nil, svc.InferErr
	}

	out := make([]Prediction, len(svc.Predictions))
	copy(out, svc.Predictions)
	return out, nil
}

func (svc *FakeService) Close() error {
	svc.Closes++
	svc.loaded = false
	return nil
}
