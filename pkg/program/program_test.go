// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package program

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/types/tensors"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

const bnProgram = `
name: bn
outputs: [y]
tensors:
  - {name: x, shape: [1, 3, 224, 224]}
  - {name: scale, shape: [3], data: [1, 2, 3]}
  - {name: bias, shape: [3], fill: 0.5, dtype: float16}
  - {name: mean, shape: [3], fill: 0, layout: NHWC}
  - {name: variance, shape: [3], fill: 1}
ops:
  - type: batch_norm
    inputs: {X: x, Scale: [scale], Bias: bias, Mean: mean, Variance: variance}
    outputs: {Y: y}
    attrs: {momentum: 0.9, epsilon: 1.0e-5, use_global_stats: false}
    types: {Variance: float16/NCHW}
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(bnProgram))
	require.NoError(t, err)
	require.Equal(t, "bn", p.Name)
	require.Empty(t, p.Inputs)
	require.Equal(t, []string{"y"}, p.Outputs)

	scope := p.Scope()
	require.Equal(t, []string{"bias", "mean", "scale", "variance", "x"}, scope.LocalNames())
	x, found := scope.FindTensor("x")
	require.True(t, found)
	require.False(t, x.HasData())
	require.Equal(t, []int{1, 3, 224, 224}, x.Shape().Dimensions)
	require.Equal(t, tensors.MakeType(dtypes.Float32, tensors.LayoutNCHW), x.Type())

	scale, _ := scope.FindTensor("scale")
	require.Equal(t, []float32{1, 2, 3}, scale.Flat())
	bias, _ := scope.FindTensor("bias")
	require.Equal(t, dtypes.Float16, bias.DType())
	require.Equal(t, []float16.Float16{float16.Fromfloat32(0.5), float16.Fromfloat32(0.5), float16.Fromfloat32(0.5)},
		bias.Flat())

	ops := p.Ops()
	require.Len(t, ops, 1)
	op := ops[0]
	require.Equal(t, "batch_norm", op.Type())
	require.Equal(t, []string{"scale"}, op.Input("Scale"))
	require.Equal(t, []string{"y"}, op.Output("Y"))
	require.Nil(t, op.Input("Missing"))
	require.Equal(t, []string{"Bias", "Mean", "Scale", "Variance", "X"}, p.OpDescs()[0].InputRoles())
	require.Equal(t, []string{"Y"}, p.OpDescs()[0].OutputRoles())

	epsilon, err := bridges.AttrFloat32(op, "epsilon")
	require.NoError(t, err)
	require.Equal(t, float32(1e-5), epsilon)
	useGlobalStats, err := bridges.AttrBool(op, "use_global_stats")
	require.NoError(t, err)
	require.False(t, useGlobalStats)

	// Declared types: from the scope tensor, from an explicit override, or the default.
	declType, found := op.InputDeclType("X")
	require.True(t, found)
	require.Equal(t, tensors.MakeType(dtypes.Float32, tensors.LayoutNCHW), declType)
	declType, _ = op.InputDeclType("Bias")
	require.Equal(t, tensors.MakeType(dtypes.Float16, tensors.LayoutNCHW), declType)
	declType, _ = op.InputDeclType("Mean")
	require.Equal(t, tensors.MakeType(dtypes.Float32, tensors.LayoutNHWC), declType)
	declType, _ = op.InputDeclType("Variance")
	require.Equal(t, tensors.MakeType(dtypes.Float16, tensors.LayoutNCHW), declType)
	declType, found = op.OutputDeclType("Y")
	require.True(t, found)
	require.Equal(t, DefaultType, declType)
	_, found = op.InputDeclType("Missing")
	require.False(t, found)

	// The operator scope is the program scope.
	_, found = op.Scope().FindTensor("variance")
	require.True(t, found)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name, yaml, error string
	}{
		{"unknown_field", "name: a\noutputs: [y]\nops: [{type: relu}]\nextra: 1\n", "field extra not found"},
		{"no_name", "outputs: [y]\nops: [{type: relu}]\n", "name is required"},
		{"no_outputs", "name: a\nops: [{type: relu}]\n", "outputs list is required"},
		{"no_ops", "name: a\noutputs: [y]\n", "ops list is required"},
		{"op_without_type", "name: a\noutputs: [y]\nops: [{inputs: {X: x}}]\n", "op #0 has no type"},
		{"duplicate_tensor", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [1]}, {name: x, shape: [2]}]\n",
			`tensor "x" defined more than once`},
		{"bad_dtype", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [1], dtype: float99}]\n",
			"unknown dtype"},
		{"bad_layout", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [1], layout: HWCN}]\n",
			"unknown tensor layout"},
		{"bad_shape", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [1, 0]}]\n",
			"dimensions must be > 0"},
		{"data_size", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [2], data: [1, 2, 3]}]\n",
			"requires 2 values, got 3"},
		{"data_and_fill", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [2], data: [1, 2], fill: 1}]\n",
			"only one of data or fill"},
		{"bad_data_dtype", "name: a\noutputs: [y]\nops: [{type: relu}]\ntensors: [{name: x, shape: [1], dtype: bool, fill: 1}]\n",
			"are not supported"},
		{"bad_decl_type", "name: a\noutputs: [y]\nops: [{type: relu, types: {X: float32/CHWN}}]\n",
			`role "X"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.ErrorContains(t, err, tc.error)
		})
	}
}

func TestLoad(t *testing.T) {
	p, err := Load("testdata/conv_pool.yaml")
	require.NoError(t, err)
	require.Equal(t, "conv_pool", p.Name)
	require.Equal(t, []string{"image"}, p.Inputs)
	require.Equal(t, []string{"probs"}, p.Outputs)
	ops := p.Ops()
	require.Len(t, ops, 3)
	require.Equal(t, []string{"conv2d", "pool2d", "softmax"}, []string{ops[0].Type(), ops[1].Type(), ops[2].Type()})

	strides, err := bridges.AttrInts(ops[0], "strides")
	require.NoError(t, err)
	require.Equal(t, []int{1, 1}, strides)
	filterType, _ := ops[0].InputDeclType("Filter")
	require.Equal(t, tensors.MakeType(dtypes.Float32, tensors.LayoutAny), filterType)
	probsType, _ := ops[2].OutputDeclType("Out")
	require.Equal(t, tensors.LayoutAny, probsType.Layout)

	_, err = Load("testdata/missing.yaml")
	require.ErrorContains(t, err, "failed to read program file")
}

func TestNewOp(t *testing.T) {
	scope := tensors.NewScope()
	scope.Set("x", tensors.FromScalarAndDimensions(float32(1), 2, 2).WithLayout(tensors.LayoutNHWC))
	op := NewOp("relu", scope).SetInput("X", "x").SetOutput("Out", "y").SetAttr("threshold", 6.0).
		SetDeclType("Out", tensors.MakeType(dtypes.Float16, tensors.LayoutAny))

	declType, _ := op.InputDeclType("X")
	require.Equal(t, tensors.LayoutNHWC, declType.Layout)
	declType, _ = op.OutputDeclType("Out")
	require.Equal(t, tensors.MakeType(dtypes.Float16, tensors.LayoutAny), declType)

	// Returned names are copies.
	names := op.Input("X")
	names[0] = "changed"
	require.Equal(t, []string{"x"}, op.Input("X"))

	value, found := op.Attr("threshold")
	require.True(t, found)
	require.Equal(t, 6.0, value)
}
