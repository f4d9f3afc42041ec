package inference

import (
	"testing"

	"go.viam.com/test"

	"github.com/khaledhikmat/vs-detect/service/config"
)

func TestCocoLabels(t *testing.T) {
	labels := CocoLabels()
	test.That(t, labels, test.ShouldHaveLength, 80)
	test.That(t, labels[0], test.ShouldEqual, "person")
	test.That(t, labels[9], test.ShouldEqual, "traffic light")
	test.That(t, labels[79], test.ShouldEqual, "toothbrush")
}

func TestParseNamesMetadata(t *testing.T) {
	labels, err := ParseNamesMetadata(`{0: 'person', 1: 'bicycle', 2: "kid's bike", 3: 'traffic light'}`)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, labels, test.ShouldResemble, []string{"person", "bicycle", "kid's bike", "traffic light"})
}

func TestParseNamesMetadataErrors(t *testing.T) {
	_, err := ParseNamesMetadata("")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ParseNamesMetadata(`{0: 'person', 2: 'car'}`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "class index 1 missing")
}

func TestRegistry(t *testing.T) {
	fake := NewFake()
	RegisterBackend("registry-test", func(_ config.IService) (IService, error) {
		return fake, nil
	})

	svc, err := New("registry-test", nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, svc, test.ShouldEqual, fake)
	test.That(t, Backends(), test.ShouldContain, "registry-test")

	_, err = New("no-such-backend", nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no-such-backend")
}
