// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements `Tensor`, the host-side view of a framework tensor handed to the bridges,
// and `Scope`, the name -> Tensor storage the converters look tensors up from.
//
// A Tensor has a shape (dtype and dimensions), a declared layout and, optionally, its content stored as a
// flat (1D) Go slice of the underlying dtype. Activations flowing between operators usually carry only their
// shape, while parameters (weights, normalization statistics) carry their values, which the bridges embed in
// the target graph as constants.
//
// There are various ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): a tensor with the given shape and no content.
//
//   - FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int): a Tensor with the
//     given dimensions, filled with the scalar value given.
//
//   - FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int): a Tensor with the
//     given dimensions, set with the flattened values. Example:
//
//     t := FromFlatDataAndDimensions([]float32{1, 2, 3, 4}, 2, 2) // Tensor with [[1,2], [3,4]]
//
// Tensors are created with the channel-major layout (LayoutNCHW), use WithLayout to change it.
package tensors

import (
	"fmt"
	"reflect"
	"slices"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Tensor represents a multidimensional array defined by its shape (a data type and its axes' dimensions),
// its declared layout and, optionally, its content stored as a flat (1D) array of values.
type Tensor struct {
	shape  shapes.Shape
	layout Layout

	// flat is a []T slice for the tensor's dtype, or nil if the tensor has no content.
	flat any
}

// FromShape returns a Tensor with the given shape and no content.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid shape", shape)
	}
	return &Tensor{shape: shape.Clone(), layout: LayoutNCHW}
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled with the
// given scalar value replicated everywhere.
// The `DType` is inferred from the value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	flat := make([]T, shape.Size())
	for ii := range flat {
		flat[ii] = value
	}
	return &Tensor{shape: shape, layout: LayoutNCHW, flat: flat}
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, filled with the flattened values given in `data`.
// The data is copied to the Tensor.
// The `DType` is inferred from the `data` type.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d", shape, len(data), shape.Size())
	}
	return &Tensor{shape: shape, layout: LayoutNCHW, flat: slices.Clone(data)}
}

// WithLayout sets the declared layout of the tensor and returns the tensor itself.
func (t *Tensor) WithLayout(layout Layout) *Tensor {
	t.layout = layout
	return t
}

// Shape of the tensor, includes DType.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the DType of the tensor's shape.
// It is a shortcut to `Tensor.Shape().DType`.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank returns the rank of the tensor's shape.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Layout returns the declared layout of the tensor.
func (t *Tensor) Layout() Layout { return t.layout }

// Type returns the declared Type (dtype and layout) of the tensor.
func (t *Tensor) Type() Type { return Type{DType: t.shape.DType, Layout: t.layout} }

// HasData returns whether the tensor holds values, as opposed to only a shape.
func (t *Tensor) HasData() bool { return t.flat != nil }

// Flat returns the flat slice ([]T for the tensor dtype) holding the values, or nil if it has none.
// The returned slice is owned by the tensor: don't change it.
func (t *Tensor) Flat() any { return t.flat }

// AssignFlatData copies fromFlat into the tensor content, allocating it if needed.
// fromFlat must have the tensor's dtype and size.
func AssignFlatData[T dtypes.Supported](t *Tensor, fromFlat []T) error {
	if dtype := dtypes.FromGenericsType[T](); dtype != t.shape.DType {
		return errors.Errorf("AssignFlatData: tensor has dtype %s, but data given is %s", t.shape.DType, dtype)
	}
	if len(fromFlat) != t.shape.Size() {
		return errors.Errorf("AssignFlatData: tensor shape %s has %d elements, but data given has %d", t.shape, t.shape.Size(), len(fromFlat))
	}
	t.flat = slices.Clone(fromFlat)
	return nil
}

// Bytes returns the content of the tensor as raw bytes (host endianness), sharing the memory with the tensor.
// It returns nil if the tensor has no content.
func (t *Tensor) Bytes() []byte {
	if t.flat == nil {
		return nil
	}
	flatV := reflect.ValueOf(t.flat)
	if flatV.Len() == 0 {
		return nil
	}
	numBytes := uintptr(flatV.Len()) * flatV.Type().Elem().Size()
	return unsafe.Slice((*byte)(flatV.UnsafePointer()), numBytes)
}

// Float32s returns a copy of the tensor content converted to float32.
// It works for Float32, Float16 and Float64 tensors.
func (t *Tensor) Float32s() ([]float32, error) {
	switch flat := t.flat.(type) {
	case nil:
		return nil, errors.Errorf("tensor %s has no data", t.shape)
	case []float32:
		return slices.Clone(flat), nil
	case []float16.Float16:
		values := make([]float32, len(flat))
		for ii, v := range flat {
			values[ii] = v.Float32()
		}
		return values, nil
	case []float64:
		values := make([]float32, len(flat))
		for ii, v := range flat {
			values[ii] = float32(v)
		}
		return values, nil
	default:
		return nil, errors.Errorf("tensor %s with dtype %s cannot be converted to float32", t.shape, t.shape.DType)
	}
}

// Equal returns whether both tensors have the same shape, layout and content.
func (t *Tensor) Equal(other *Tensor) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if !t.shape.Equal(other.shape) || t.layout != other.layout {
		return false
	}
	return reflect.DeepEqual(t.flat, other.flat)
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if t.flat == nil {
		return fmt.Sprintf("%s/%s", t.shape, t.layout)
	}
	if t.shape.Size() <= 8 {
		return fmt.Sprintf("%s/%s%v", t.shape, t.layout, t.flat)
	}
	return fmt.Sprintf("%s/%s{%d values}", t.shape, t.layout, t.shape.Size())
}
