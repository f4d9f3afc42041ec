package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.viam.com/test"

	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/service/inference"
)

func recordingServices(fake *inference.FakeService) (ServicesFactory, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svcs := newServices(fake)
	svcs.Tracer = provider.Tracer("vs-detect/pipeline")
	return svcs, recorder
}

func endedSpans(recorder *tracetest.SpanRecorder) map[string]sdktrace.ReadOnlySpan {
	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}
	return spans
}

func hasException(span sdktrace.ReadOnlySpan) bool {
	for _, e := range span.Events() {
		if e.Name == "exception" {
			return true
		}
	}
	return false
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDetectSpans(t *testing.T) {
	fake := inference.NewFake(
		inference.Prediction{ClassIndex: 0, Confidence: 0.9, Box: inference.Box{X1: 1, Y1: 1, X2: 20, Y2: 20}},
		inference.Prediction{ClassIndex: 0, Confidence: 0.4, Box: inference.Box{X1: 1, Y1: 1, X2: 20, Y2: 20}},
	)
	svcs, recorder := recordingServices(fake)
	path := writeImage(t)

	_, stats, err := Detect(context.Background(), svcs, path)
	test.That(t, err, test.ShouldBeNil)

	spans := endedSpans(recorder)
	test.That(t, spans, test.ShouldHaveLength, 4)
	for _, name := range []string{"detect", "decode", "load", "infer"} {
		span, ok := spans[name]
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, span.Status().Code, test.ShouldNotEqual, codes.Error)
		test.That(t, hasException(span), test.ShouldBeFalse)
	}

	root := spans["detect"]
	for _, name := range []string{"decode", "load", "infer"} {
		test.That(t, spans[name].Parent().SpanID(), test.ShouldEqual, root.SpanContext().SpanID())
	}

	runID, ok := attr(root, "runId")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, runID.AsString(), test.ShouldEqual, stats.RunID)
	kept, _ := attr(root, "kept")
	test.That(t, kept.AsInt64(), test.ShouldEqual, 1)
	preds, _ := attr(spans["infer"], "predictions")
	test.That(t, preds.AsInt64(), test.ShouldEqual, 2)
}

func TestDetectSpansRecordNotFound(t *testing.T) {
	svcs, recorder := recordingServices(inference.NewFake())

	_, _, err := Detect(context.Background(), svcs, filepath.Join(t.TempDir(), "nope.jpg"))
	test.That(t, errors.Is(err, model.NotFound), test.ShouldBeTrue)

	spans := endedSpans(recorder)
	test.That(t, spans, test.ShouldHaveLength, 1)
	root := spans["detect"]
	test.That(t, root.Status().Code, test.ShouldEqual, codes.Error)
	test.That(t, root.Status().Description, test.ShouldContainSubstring, "Image file not found")
	test.That(t, hasException(root), test.ShouldBeTrue)
}

func TestDetectSpansRecordInvalidImage(t *testing.T) {
	svcs, recorder := recordingServices(inference.NewFake())
	path := filepath.Join(t.TempDir(), "notes.png")
	test.That(t, os.WriteFile(path, []byte("text"), 0o644), test.ShouldBeNil)

	_, _, err := Detect(context.Background(), svcs, path)
	test.That(t, errors.Is(err, model.InvalidImage), test.ShouldBeTrue)

	spans := endedSpans(recorder)
	test.That(t, spans, test.ShouldHaveLength, 2)
	test.That(t, spans["decode"].Status().Code, test.ShouldEqual, codes.Error)
	test.That(t, hasException(spans["decode"]), test.ShouldBeTrue)
	test.That(t, spans["detect"].Status().Description, test.ShouldEqual, "Could not read image file: "+path)
	test.That(t, hasException(spans["detect"]), test.ShouldBeTrue)
}

func TestDetectSpansRecordLoadFailure(t *testing.T) {
	fake := inference.NewFake()
	fake.LoadErr = errors.New("weights missing")
	svcs, recorder := recordingServices(fake)

	_, _, err := Detect(context.Background(), svcs, writeImage(t))
	test.That(t, errors.Is(err, model.PipelineFailure), test.ShouldBeTrue)

	spans := endedSpans(recorder)
	_, inferred := spans["infer"]
	test.That(t, inferred, test.ShouldBeFalse)
	test.That(t, spans["load"].Status().Code, test.ShouldEqual, codes.Error)
	test.That(t, spans["detect"].Status().Code, test.ShouldEqual, codes.Error)
}
