// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
	"github.com/stretchr/testify/require"
)

// Aliases for more compact tests.
var MS = shapes.Make

func TestGraphNodes(t *testing.T) {
	g := NewGraph()
	require.Equal(t, Target, g.Target())
	require.NotEmpty(t, g.ID())
	require.NotEqual(t, g.ID(), NewGraph().ID())
	require.Equal(t, 0, g.Len())

	require.False(t, g.HasNode("x"))
	_, err := g.GetNode("x")
	require.ErrorIs(t, err, bridges.ErrNotFound)

	x, err := g.AddInputNode("x", MS(Float32, 1, 3, 224, 224))
	require.NoError(t, err)
	require.True(t, g.HasNode("x"))
	node, err := g.GetNode("x")
	require.NoError(t, err)
	require.Same(t, x, node)
	require.True(t, MS(Float32, 1, 3, 224, 224).Equal(x.Shape()))

	_, err = g.AddInputNode("x", MS(Float32, 1, 3, 224, 224))
	require.ErrorIs(t, err, bridges.ErrDuplicate)
	_, err = g.AddInputNode("bad", shapes.Invalid())
	require.ErrorIs(t, err, bridges.ErrUnsupportedType)
	_, err = g.AddInputNode("", MS(Float32, 1))
	require.ErrorIs(t, err, bridges.ErrNotFound)

	bn, err := AddNode[ir.BatchNormExt2](g, "y")
	require.NoError(t, err)
	require.Equal(t, ir.OpTypeBatchNormExt2, bn.Type())
	node, err = g.GetNode("y")
	require.NoError(t, err)
	require.Same(t, bn, node)
	_, err = AddNode[ir.Activation](g, "y")
	require.ErrorIs(t, err, bridges.ErrDuplicate)
	_, err = AddNode[ir.Activation](g, "x")
	require.ErrorIs(t, err, bridges.ErrDuplicate)

	require.Equal(t, []string{"x", "y"}, g.Names())
	require.Equal(t, 2, g.Len())
}

func TestGraphConstants(t *testing.T) {
	g := NewGraph()
	scale := tensors.FromFlatDataAndDimensions([]float32{1, 2, 3}, 3)
	c, err := g.AddConstNode("scale", scale)
	require.NoError(t, err)
	require.Same(t, scale, c.Value())

	// Constants are reused, never duplicated.
	c2, err := g.AddConstNode("scale", tensors.FromFlatDataAndDimensions([]float32{1, 2, 3}, 3))
	require.NoError(t, err)
	require.Same(t, c, c2)
	require.Equal(t, 1, g.Len())

	// Same name with a different shape, or registered as another kind of node.
	_, err = g.AddConstNode("scale", tensors.FromScalarAndDimensions(float32(1), 4))
	require.ErrorIs(t, err, bridges.ErrDuplicate)
	_, err = g.AddInputNode("x", MS(Float32, 3))
	require.NoError(t, err)
	_, err = g.AddConstNode("x", scale)
	require.ErrorIs(t, err, bridges.ErrDuplicate)
	_, err = g.AddInputNode("scale", MS(Float32, 3))
	require.ErrorIs(t, err, bridges.ErrDuplicate)

	// Constants need data.
	_, err = g.AddConstNode("w", tensors.FromShape(MS(Float32, 3)))
	require.ErrorIs(t, err, bridges.ErrNotFound)
	_, err = g.AddConstNode("w", nil)
	require.ErrorIs(t, err, bridges.ErrNotFound)
	require.False(t, g.HasNode("w"))

	require.Equal(t, []string{"scale", "x"}, g.Names())
}

func TestGraphBuild(t *testing.T) {
	g := NewGraph()
	x, err := g.AddInputNode("x", MS(Float32, 1, 3, 8, 8))
	require.NoError(t, err)
	relu, err := AddNode[ir.Activation](g, "y")
	require.NoError(t, err)
	relu.SetInputX(x).SetAttrMode(ir.ActivationRelu)

	model, err := g.Build("relu", nil, []string{"y"})
	require.NoError(t, err)
	require.Equal(t, 2, model.NumOperators())
	require.Equal(t, []*ir.Data{x}, model.Inputs())
	require.True(t, MS(Float32, 1, 3, 8, 8).Equal(relu.Shape()))

	_, err = g.Build("relu", []string{"x"}, []string{"z"})
	require.ErrorIs(t, err, bridges.ErrNotFound)
	_, err = g.Build("relu", []string{"w"}, []string{"y"})
	require.ErrorIs(t, err, bridges.ErrNotFound)
	_, err = g.Build("relu", []string{"y"}, []string{"y"})
	require.ErrorContains(t, err, "must be a Data placeholder")

	// Unwired operators can't be built.
	_, err = AddNode[ir.Softmax](g, "s")
	require.NoError(t, err)
	_, err = g.Build("softmax", nil, []string{"s"})
	require.ErrorContains(t, err, "unwired inputs [x]")
}
