package pipeline

import (
	"github.com/samber/lo"

	"github.com/khaledhikmat/vs-detect/model"
)

// filterByConfidence keeps detections strictly above threshold, in their
// original order.
func filterByConfidence(detections []model.Detection, threshold float64) []model.Detection {
	return lo.Filter(detections, func(d model.Detection, _ int) bool {
		return d.Confidence > threshold
	})
}
