package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.viam.com/test"

	"github.com/khaledhikmat/vs-detect/service/lgr"
)

func TestLoggedProviderWritesSpans(t *testing.T) {
	color.NoColor = true
	test.That(t, lgr.SetLevel("info"), test.ShouldBeTrue)
	defer lgr.SetLevel("warn")

	var buf bytes.Buffer
	provider := NewLogged(lgr.New(&buf))
	tracer := provider.Tracer("vs-detect/pipeline")

	ctx, root := tracer.Start(context.Background(), "detect", trace.WithAttributes(attribute.String("image", "a.png")))
	_, child := tracer.Start(ctx, "decode")
	child.RecordError(errors.New("bad header"))
	child.SetStatus(codes.Error, "bad header")
	child.End()
	root.End()
	test.That(t, provider.Shutdown(context.Background()), test.ShouldBeNil)

	out := buf.String()
	test.That(t, strings.Count(out, "span finished"), test.ShouldEqual, 2)
	test.That(t, out, test.ShouldContainSubstring, `"span": "decode"`)
	test.That(t, out, test.ShouldContainSubstring, `"status": "bad header"`)
	test.That(t, out, test.ShouldContainSubstring, "WARN:")
	test.That(t, out, test.ShouldContainSubstring, `"span": "detect"`)
	test.That(t, out, test.ShouldContainSubstring, `"image": "a.png"`)
	test.That(t, out, test.ShouldContainSubstring, `"parent": "`+root.SpanContext().SpanID().String()+`"`)
}

func TestLoggedProviderRespectsLevel(t *testing.T) {
	color.NoColor = true
	test.That(t, lgr.SetLevel("warn"), test.ShouldBeTrue)

	var buf bytes.Buffer
	provider := NewLogged(lgr.New(&buf))
	_, span := provider.Tracer("t").Start(context.Background(), "load")
	span.End()
	test.That(t, provider.Shutdown(context.Background()), test.ShouldBeNil)

	test.That(t, buf.Len(), test.ShouldEqual, 0)
}
