// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(Float32, 1, 3, 224, 224)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 4, shape1.Rank())
	require.Equal(t, 3*224*224, shape1.Size())
	require.Equal(t, 4*3*224*224, int(shape1.Memory()))
	require.Equal(t, "(Float32)[1 3 224 224]", shape1.String())

	require.Panics(t, func() { _ = Make(Float32, 3, 0) })
}

func TestDim(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 3, shape.Dim(1))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestEqualAndClone(t *testing.T) {
	s := Make(Float32, 2, 3)
	s2 := s.Clone()
	require.True(t, s.Equal(s2))
	s2.Dimensions[0] = 5
	require.False(t, s.Equal(s2))
	require.Equal(t, 2, s.Dimensions[0])

	s16 := s.WithDType(Float16)
	require.False(t, s.Equal(s16))
	require.True(t, s.EqualDimensions(s16))
}

func TestChecks(t *testing.T) {
	s := Make(Float32, 1, 3, 8, 8)
	require.NoError(t, s.CheckDims(1, 3, -1, -1))
	require.Error(t, s.CheckDims(1, 4, -1, -1))
	require.Error(t, s.CheckDims(1, 3))
	require.NoError(t, s.Check(Float32, 1, 3, 8, 8))
	require.Error(t, s.Check(Int32, 1, 3, 8, 8))
	require.NoError(t, CheckRank(s, 4))
	require.Error(t, CheckRank(s, 2))
	require.NoError(t, CheckDims(s, UncheckedAxis, 3, 8, 8))
}
