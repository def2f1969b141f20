package storage

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
)

func formatShape(shape []exprtree.Dim) string {
	parts := make([]string, len(shape))

	for i, d := range shape {
		if d.Symbolic {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprintf("%d", d.Value)
		}
	}

	return "[" + strings.Join(parts, ",") + "]"
}

// concreteDims requires every dimension to be a concrete, non-negative
// integer, returning the typed planner error (SymbolicShape / NegativeShape)
// spec §7 names on the first violation encountered.
func concreteDims(shape []exprtree.Dim) ([]int64, *planerrors.PlannerError) {
	dims := make([]int64, len(shape))

	for i, d := range shape {
		if d.Symbolic {
			return nil, planerrors.Symbolic(formatShape(shape))
		}

		if d.Value < 0 {
			return nil, planerrors.Negative(d.Value)
		}

		dims[i] = d.Value
	}

	return dims, nil
}

// byteSize is the product-of-dims times ceil(bits*lanes/8) rule of spec §6.
func byteSize(tt exprtree.TensorType) (int64, *planerrors.PlannerError) {
	dims, err := concreteDims(tt.Shape)
	if err != nil {
		return 0, err
	}

	n := int64(1)
	for _, d := range dims {
		n *= d
	}

	return n * int64(tt.DType.ByteSize()), nil
}

// flatten collapses an N-D shape to (width, height, channel) per the scope
// convention in spec §6. sep is the axis separator: dims before it multiply
// into height, dims from it to the end (inclusive of the trailing channel
// axis) multiply into width; channel is reported separately as dims[r-1]
// for use by the image dtype, matching the worked numbers in spec §8
// scenario 5 (channel count is not excluded from the width product there).
func flatten(tt exprtree.TensorType, scope string) (width, height, channel int64, perr *planerrors.PlannerError) {
	dims, err := concreteDims(tt.Shape)
	if err != nil {
		return 0, 0, 0, err
	}

	r := len(dims)

	sep := r - 2
	switch {
	case strings.Contains(scope, ":weight"):
		sep = 1
	case strings.Contains(scope, ":nhwc"):
		sep = 2
	}

	if sep < 0 {
		sep = 0
	}

	if sep > r {
		sep = r
	}

	height = product(dims[:sep])
	width = product(dims[sep:])

	if r > 0 {
		channel = dims[r-1]
	}

	return width, height, channel, nil
}

func product(dims []int64) int64 {
	n := int64(1)
	for _, d := range dims {
		n *= d
	}

	return n
}
