package onnx

// outputLayout reads classes and anchors from a [1, 4+classes, anchors]
// output shape. Dynamic dimensions are filled in from the label count and
// the anchor grid of a stride 8/16/32 detector at the given input size.
func outputLayout(dims []int64, labels, size int) (int, int) {
	classes, anchors := labels, anchorCount(size)
	if len(dims) != 3 {
		return classes, anchors
	}
	if dims[1] > 4 {
		classes = int(dims[1]) - 4
	}
	if dims[2] > 0 {
		anchors = int(dims[2])
	}
	return classes, anchors
}

func anchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		cells := size / stride
		n += cells * cells
	}
	return n
}
