package mode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/pipeline"
	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/imagery"
	"github.com/khaledhikmat/vs-detect/service/inference"
)

type recordingData struct {
	runs []model.DetectionRun
}

func (svc *recordingData) NewDetectionRun(run model.DetectionRun) error {
	svc.runs = append(svc.runs, run)
	return nil
}

func (svc *recordingData) Finalize() error {
	return nil
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kitchen.png")
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	test.That(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 32))), test.ShouldBeNil)
	return path
}

func services(fake *inference.FakeService, journal *recordingData) pipeline.ServicesFactory {
	return pipeline.ServicesFactory{
		CfgSvc:       config.NewHardCoded(),
		DataSvc:      journal,
		ImagerySvc:   imagery.NewFiles(),
		InferenceSvc: fake,
	}
}

func TestDetectWritesDetections(t *testing.T) {
	fake := inference.NewFake(
		inference.Prediction{ClassIndex: 0, Confidence: 0.875, Box: inference.Box{X1: 34.6, Y1: 12, X2: 220.9, Y2: 400}},
		inference.Prediction{ClassIndex: 41, Confidence: 0.25, Box: inference.Box{X1: 1, Y1: 1, X2: 5, Y2: 5}},
		inference.Prediction{ClassIndex: 41, Confidence: 1, Box: inference.Box{X1: 1, Y1: 2, X2: 3, Y2: 4}},
	)
	journal := &recordingData{}

	var out bytes.Buffer
	err := Detect(context.Background(), services(fake, journal), writeImage(t), &out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual,
		`[{"class": "person", "confidence": 0.875, "bbox": [34, 12, 220, 400]}, {"class": "cup", "confidence": 1.0, "bbox": [1, 2, 3, 4]}]`+"\n")

	test.That(t, journal.runs, test.ShouldHaveLength, 1)
	test.That(t, journal.runs[0].Stats.Kept, test.ShouldEqual, 2)
	test.That(t, journal.runs[0].Error, test.ShouldBeEmpty)
}

func TestDetectWritesEmptyArray(t *testing.T) {
	var out bytes.Buffer
	err := Detect(context.Background(), services(inference.NewFake(), &recordingData{}), writeImage(t), &out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "[]\n")
}

func TestDetectWritesNothingOnFailure(t *testing.T) {
	journal := &recordingData{}
	path := filepath.Join(t.TempDir(), "gone.jpg")

	var out bytes.Buffer
	err := Detect(context.Background(), services(inference.NewFake(), journal), path, &out)
	test.That(t, errors.Is(err, model.NotFound), test.ShouldBeTrue)
	test.That(t, out.Len(), test.ShouldEqual, 0)

	test.That(t, journal.runs, test.ShouldHaveLength, 1)
	test.That(t, journal.runs[0].ErrorKind, test.ShouldEqual, model.NotFound)
	test.That(t, journal.runs[0].Error, test.ShouldEqual, "Image file not found: "+path)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0.87, "0.87"},
		{float64(float32(0.87)), "0.8700000047683716"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{0, "0.0"},
	}
	for _, tt := range tests {
		test.That(t, formatFloat(tt.in), test.ShouldEqual, tt.want)
	}
}

func TestEncodeString(t *testing.T) {
	out, err := encodeString(`a "b" & <c>`)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"a \"b\" & <c>"`)
}
