// Package tensor provides the dense attribute storage used by graph
// attribute tables: row-major float64 tensors with concatenation and
// slicing along the leading axis.
package tensor

import (
	"fmt"

	pkgerrors "heterobatch/pkg/errors"
)

// Tensor is a dense row-major tensor of float64 values.
// The leading dimension indexes rows (one row per node or edge);
// the remaining dimensions form the row shape.
type Tensor struct {
	shape []int
	data  []float64
}

// New creates a tensor with the given shape, initialized to zero
func New(shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, pkgerrors.NewValidationError("tensor shape cannot be empty")
	}
	size := 1
	for _, d := range shape {
		if d < 0 {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("tensor dimension cannot be negative: %d", d))
		}
		size *= d
	}
	return &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size),
	}, nil
}

// FromRows creates a 2-D tensor from a slice of equally sized rows
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.NewValidationError("tensor requires at least one row")
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("row %d has %d values, expected %d", i, len(row), width))
		}
		data = append(data, row...)
	}
	return &Tensor{shape: []int{len(rows), width}, data: data}, nil
}

// FromData creates a tensor from raw row-major data and a shape
func FromData(data []float64, shape ...int) (*Tensor, error) {
	t, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(t.data) {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("data length %d does not match shape %v", len(data), shape))
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns a copy of the tensor's shape
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Rows returns the size of the leading dimension
func (t *Tensor) Rows() int {
	return t.shape[0]
}

// RowShape returns the shape of a single row (all dimensions after the first)
func (t *Tensor) RowShape() []int {
	return append([]int(nil), t.shape[1:]...)
}

// rowSize is the number of values in one row.
func (t *Tensor) rowSize() int {
	size := 1
	for _, d := range t.shape[1:] {
		size *= d
	}
	return size
}

// Data returns the underlying row-major values.
// The slice is shared; callers must not mutate it.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Row returns the values of a single row
func (t *Tensor) Row(i int) ([]float64, error) {
	if i < 0 || i >= t.shape[0] {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("row index %d out of range [0, %d)", i, t.shape[0]))
	}
	size := t.rowSize()
	return t.data[i*size : (i+1)*size], nil
}

// SameRowShape reports whether two tensors agree on all non-leading dimensions
func SameRowShape(a, b *Tensor) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := 1; i < len(a.shape); i++ {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

// Concat concatenates tensors along the leading axis.
// All inputs must agree on their non-leading dimensions.
func Concat(tensors []*Tensor) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, pkgerrors.NewValidationError("concat requires at least one tensor")
	}
	first := tensors[0]
	rows := first.shape[0]
	for _, t := range tensors[1:] {
		if !SameRowShape(first, t) {
			return nil, pkgerrors.NewAttributeShapeMismatchError(first.shape, t.shape)
		}
		rows += t.shape[0]
	}

	shape := append([]int{rows}, first.shape[1:]...)
	data := make([]float64, 0, rows*first.rowSize())
	for _, t := range tensors {
		data = append(data, t.data...)
	}
	return &Tensor{shape: shape, data: data}, nil
}

// Slice returns a copy of rows [start, end) along the leading axis
func Slice(t *Tensor, start, end int) (*Tensor, error) {
	if start < 0 || end < start || end > t.shape[0] {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("slice [%d, %d) out of range for %d rows", start, end, t.shape[0]))
	}
	size := t.rowSize()
	shape := append([]int{end - start}, t.shape[1:]...)
	data := make([]float64, (end-start)*size)
	copy(data, t.data[start*size:end*size])
	return &Tensor{shape: shape, data: data}, nil
}

// Equal reports whether two tensors have identical shape and values
func Equal(a, b *Tensor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}
