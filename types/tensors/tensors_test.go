// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromFlatDataAndDimensions(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.Equal(t, dtypes.Float32, tensor.DType())
	require.Equal(t, 2, tensor.Rank())
	require.Equal(t, LayoutNCHW, tensor.Layout())
	require.True(t, tensor.HasData())
	require.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Flat())
	require.Len(t, tensor.Bytes(), 6*4)
	require.Equal(t, MakeType(dtypes.Float32, LayoutNCHW), tensor.Type())

	require.Panics(t, func() { _ = FromFlatDataAndDimensions([]float32{1, 2, 3}, 2, 2) })
}

func TestFromShape(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Float32, 1, 3, 224, 224)).WithLayout(LayoutNHWC)
	require.False(t, tensor.HasData())
	require.Nil(t, tensor.Bytes())
	require.Equal(t, LayoutNHWC, tensor.Layout())
	_, err := tensor.Float32s()
	require.Error(t, err)

	require.NoError(t, AssignFlatData(tensor, make([]float32, 3*224*224)))
	require.True(t, tensor.HasData())
	require.Error(t, AssignFlatData(tensor, make([]float32, 3)))
	require.Error(t, AssignFlatData(tensor, make([]int32, 3*224*224)))
}

func TestFloat32s(t *testing.T) {
	half := FromFlatDataAndDimensions([]float16.Float16{float16.Fromfloat32(0.5), float16.Fromfloat32(-2)}, 2)
	require.Equal(t, dtypes.Float16, half.DType())
	values, err := half.Float32s()
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, -2}, values)

	ints := FromScalarAndDimensions(int32(7), 3)
	require.Equal(t, []int32{7, 7, 7}, ints.Flat())
	_, err = ints.Float32s()
	require.Error(t, err)
}

func TestLayout(t *testing.T) {
	layout, err := LayoutString("nchw")
	require.NoError(t, err)
	require.Equal(t, LayoutNCHW, layout)
	_, err = LayoutString("HWCN")
	require.Error(t, err)
	require.Equal(t, "Layout(9)", Layout(9).String())
	require.Equal(t, "Float32/NCHW", MakeType(dtypes.Float32, LayoutNCHW).String())
}

func TestParseType(t *testing.T) {
	for _, tc := range []struct {
		text string
		want Type
	}{
		{"float32/NCHW", MakeType(dtypes.Float32, LayoutNCHW)},
		{"Float16/nhwc", MakeType(dtypes.Float16, LayoutNHWC)},
		{"f32/any", MakeType(dtypes.Float32, LayoutAny)},
		{"int32", MakeType(dtypes.Int32, LayoutNCHW)},
	} {
		got, err := ParseType(tc.text)
		require.NoError(t, err, "parsing %q", tc.text)
		require.Equal(t, tc.want, got, "parsing %q", tc.text)
	}
	_, err := ParseType("float99/NCHW")
	require.ErrorContains(t, err, "unknown dtype")
	_, err = ParseType("float32/CHWN")
	require.ErrorContains(t, err, "unknown tensor layout")
}

func TestScope(t *testing.T) {
	root := NewScope()
	weights := FromScalarAndDimensions(float32(1), 3)
	root.Set("w", weights)

	child := root.NewChild()
	child.Set("x", FromShape(shapes.Make(dtypes.Float32, 1, 3, 4, 4)))

	found, ok := child.FindTensor("w")
	require.True(t, ok)
	require.Same(t, weights, found)

	_, ok = child.FindMutableTensor("w")
	require.False(t, ok, "tensors of the parent scope can't be mutated through the child")
	_, ok = child.FindMutableTensor("x")
	require.True(t, ok)

	var nilScope *Scope
	_, ok = nilScope.FindMutableTensor("x")
	require.False(t, ok)
	_, ok = root.FindTensor("x")
	require.False(t, ok)
	require.Equal(t, []string{"x"}, child.LocalNames())
	require.Same(t, root, child.Parent())
}
