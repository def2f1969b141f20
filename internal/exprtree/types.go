// Package exprtree models the typed tensor-expression tree consumed by the
// memory planner. It is a narrow, purpose-built IR: every producing node has
// a statically resolved tensor or tuple type, and the planner never needs
// more than the node kinds enumerated here.
package exprtree

import "fmt"

// DType is a scalar element type: bits per lane times lane count.
type DType struct {
	Bits  int `json:"bits"`
	Lanes int `json:"lanes"`
}

// ByteSize returns ceil(bits*lanes/8), the per-element byte footprint.
func (d DType) ByteSize() int {
	total := d.Bits * d.Lanes
	return (total + 7) / 8
}

func (d DType) String() string {
	if d.Lanes == 1 {
		return fmt.Sprintf("i%d", d.Bits)
	}

	return fmt.Sprintf("i%dx%d", d.Bits, d.Lanes)
}

// Equal reports whether two dtypes describe the same element layout.
func (d DType) Equal(o DType) bool {
	return d.Bits == o.Bits && d.Lanes == o.Lanes
}

// Dim is one axis of a tensor shape. Symbolic marks an axis whose extent is
// not known at compile time; the planner refuses to plan such shapes.
type Dim struct {
	Value    int64 `json:"value"`
	Symbolic bool  `json:"symbolic,omitempty"`
}

// Type is implemented by TensorType and TupleType.
type Type interface {
	isType()
	// NumTensors is the count of tensors this type ultimately produces:
	// 1 for a tensor type, len(Fields) for a tuple type.
	NumTensors() int
}

// TensorType is a statically shaped, statically typed tensor.
type TensorType struct {
	Shape []Dim `json:"shape"`
	DType DType `json:"dtype"`
}

func (TensorType) isType() {}

func (TensorType) NumTensors() int { return 1 }

func (t TensorType) String() string { return fmt.Sprintf("Tensor(%v, %s)", t.Shape, t.DType) }

// TupleType is an ordered list of tensor types.
type TupleType struct {
	Fields []TensorType `json:"fields"`
}

func (TupleType) isType() {}

func (t TupleType) NumTensors() int { return len(t.Fields) }

// Tensors flattens a Type into its constituent TensorTypes, in order.
func Tensors(t Type) []TensorType {
	switch v := t.(type) {
	case TensorType:
		return []TensorType{v}
	case TupleType:
		return v.Fields
	default:
		return nil
	}
}
