package onnx

import (
	"testing"

	"go.viam.com/test"
)

func TestAnchorCount(t *testing.T) {
	test.That(t, anchorCount(640), test.ShouldEqual, 8400)
	test.That(t, anchorCount(320), test.ShouldEqual, 2100)
}

func TestOutputLayout(t *testing.T) {
	classes, anchors := outputLayout([]int64{1, 84, 8400}, 80, 640)
	test.That(t, classes, test.ShouldEqual, 80)
	test.That(t, anchors, test.ShouldEqual, 8400)

	classes, anchors = outputLayout([]int64{-1, 84, -1}, 80, 640)
	test.That(t, classes, test.ShouldEqual, 80)
	test.That(t, anchors, test.ShouldEqual, 8400)

	classes, anchors = outputLayout([]int64{1, 6, 2100}, 80, 320)
	test.That(t, classes, test.ShouldEqual, 2)
	test.That(t, anchors, test.ShouldEqual, 2100)

	classes, anchors = outputLayout(nil, 3, 640)
	test.That(t, classes, test.ShouldEqual, 3)
	test.That(t, anchors, test.ShouldEqual, 8400)
}
