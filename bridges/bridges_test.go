// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bridges

import (
	"fmt"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeOp implements OpView for tests.
type fakeOp struct {
	opType    string
	inputs    map[string][]string
	outputs   map[string][]string
	attrs     map[string]any
	declTypes map[string]tensors.Type
	scope     *tensors.Scope
}

func (op *fakeOp) Type() string                { return op.opType }
func (op *fakeOp) Input(role string) []string  { return op.inputs[role] }
func (op *fakeOp) Output(role string) []string { return op.outputs[role] }
func (op *fakeOp) Attr(name string) (any, bool) {
	v, found := op.attrs[name]
	return v, found
}
func (op *fakeOp) InputDeclType(role string) (tensors.Type, bool) {
	t, found := op.declTypes[role]
	return t, found
}
func (op *fakeOp) OutputDeclType(role string) (tensors.Type, bool) {
	t, found := op.declTypes[role]
	return t, found
}
func (op *fakeOp) Scope() TensorSource { return op.scope }

// fakeContext records the operators converted.
type fakeContext struct {
	target    Target
	converted []string
}

func (ctx *fakeContext) Target() Target { return ctx.target }

func registerForTest(t *testing.T, target Target, opType string, converter Converter) {
	Register(target, opType, converter)
	t.Cleanup(func() { delete(registeredConverters, registryKey{target, opType}) })
}

func TestRegistry(t *testing.T) {
	noop := func(ctx Context, op OpView) error { return nil }
	registerForTest(t, "test_registry", "relu", noop)
	registerForTest(t, "test_registry", "conv2d", noop)
	registerForTest(t, "test_registry_2", "relu", noop)

	_, found := Lookup("test_registry", "relu")
	require.True(t, found)
	_, found = Lookup("test_registry", "softmax")
	require.False(t, found)
	_, found = Lookup("other", "relu")
	require.False(t, found)

	require.Equal(t, []string{"conv2d", "relu"}, SupportedOps("test_registry"))
	require.Empty(t, SupportedOps("other"))
	require.Subset(t, Targets(), []Target{"test_registry", "test_registry_2"})

	err := exceptions.TryCatch[error](func() { Register("test_registry", "relu", noop) })
	require.ErrorContains(t, err, "already registered")
	err = exceptions.TryCatch[error](func() { Register("test_registry", "tanh", nil) })
	require.ErrorContains(t, err, "nil converter")
}

func TestConvertError(t *testing.T) {
	err := NewConvertError("batch_norm", "Scale", ErrUnsupportedType, "declared as %s", "Float16/NCHW")
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, `converting "batch_norm", field "Scale": declared as Float16/NCHW: unsupported type`, err.Error())

	wrapped := errors.WithMessage(err, "operator #3 of subgraph")
	var convertErr *ConvertError
	require.ErrorAs(t, wrapped, &convertErr)
	require.Equal(t, "batch_norm", convertErr.OpType)
	require.Equal(t, "Scale", convertErr.Field)
	require.ErrorIs(t, wrapped, ErrUnsupportedType)

	// "%+v" includes the stack trace.
	require.Contains(t, fmt.Sprintf("%+v", err), "bridges_test.go")
	require.Equal(t, err.Error(), fmt.Sprintf("%v", err))
}

func TestAttrs(t *testing.T) {
	op := &fakeOp{opType: "pool2d", attrs: map[string]any{
		"epsilon":   1e-5,
		"momentum":  float32(0.9),
		"scale":     1,
		"offset":    int64(-2),
		"global":    true,
		"axis":      int64(1),
		"ksize":     []any{2, int32(2)},
		"strides":   []int32{1, 2},
		"type":      "max",
		"bad_float": "1e-5",
		"bad_ints":  []any{1, "2"},
	}}

	v, err := AttrFloat32(op, "epsilon")
	require.NoError(t, err)
	require.Equal(t, float32(1e-5), v)
	v, err = AttrFloat32(op, "momentum")
	require.NoError(t, err)
	require.Equal(t, float32(0.9), v)
	v, err = AttrFloat32(op, "scale")
	require.NoError(t, err)
	require.Equal(t, float32(1), v)
	v, err = AttrFloat32Or(op, "offset", 0)
	require.NoError(t, err)
	require.Equal(t, float32(-2), v)
	v, err = AttrFloat32Or(op, "alpha", 0.02)
	require.NoError(t, err)
	require.Equal(t, float32(0.02), v)

	b, err := AttrBool(op, "global")
	require.NoError(t, err)
	require.True(t, b)
	b, err = AttrBoolOr(op, "ceil_mode", false)
	require.NoError(t, err)
	require.False(t, b)

	i, err := AttrInt(op, "axis")
	require.NoError(t, err)
	require.Equal(t, 1, i)
	i, err = AttrIntOr(op, "groups", 1)
	require.NoError(t, err)
	require.Equal(t, 1, i)

	ints, err := AttrInts(op, "ksize")
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, ints)
	ints, err = AttrIntsOr(op, "strides", []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, ints)
	ints, err = AttrIntsOr(op, "paddings", []int{0, 0})
	require.NoError(t, err)
	require.Equal(t, []int{0, 0}, ints)

	s, err := AttrString(op, "type")
	require.NoError(t, err)
	require.Equal(t, "max", s)
	s, err = AttrStringOr(op, "data_format", "NCHW")
	require.NoError(t, err)
	require.Equal(t, "NCHW", s)

	// Absent or of the wrong type.
	for _, name := range []string{"missing", "bad_float", "global"} {
		_, err = AttrFloat32(op, name)
		require.ErrorIs(t, err, ErrMissingAttribute, "attribute %q", name)
	}
	_, err = AttrFloat32Or(op, "bad_float", 1)
	require.ErrorIs(t, err, ErrMissingAttribute)
	_, err = AttrInts(op, "bad_ints")
	require.ErrorIs(t, err, ErrMissingAttribute)
	_, err = AttrBool(op, "type")
	var convertErr *ConvertError
	require.ErrorAs(t, err, &convertErr)
	require.Equal(t, "type", convertErr.Field)
	require.Equal(t, "pool2d", convertErr.OpType)
}

func TestNamesAndTypes(t *testing.T) {
	scope := tensors.NewScope()
	scope.Set("x", tensors.FromShape(shapes.Make(dtypes.Float32, 1, 3, 8, 8)))
	f32NCHW := tensors.MakeType(dtypes.Float32, tensors.LayoutNCHW)
	op := &fakeOp{
		opType:  "relu",
		inputs:  map[string][]string{"X": {"x"}, "Empty": {""}},
		outputs: map[string][]string{"Out": {"y"}},
		declTypes: map[string]tensors.Type{
			"X":   f32NCHW,
			"Out": tensors.MakeType(dtypes.Float32, tensors.LayoutNHWC),
		},
		scope: scope,
	}

	name, err := InputName(op, "X")
	require.NoError(t, err)
	require.Equal(t, "x", name)
	_, err = InputName(op, "Empty")
	require.ErrorIs(t, err, ErrNotFound)
	_, found := OptionalInputName(op, "Bias")
	require.False(t, found)
	name, err = OutputName(op, "Out")
	require.NoError(t, err)
	require.Equal(t, "y", name)
	_, err = OutputName(op, "Y")
	require.ErrorIs(t, err, ErrNotFound)

	x, err := FindTensor(op, "X", "x")
	require.NoError(t, err)
	require.Equal(t, 4, x.Rank())
	_, err = FindTensor(op, "X", "w")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, CheckInputType(op, "X", f32NCHW))
	err = CheckOutputType(op, "Out", f32NCHW)
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.ErrorContains(t, err, "Float32/NHWC")
	require.NoError(t, CheckOutputType(op, "Out", tensors.MakeType(dtypes.Float32, tensors.LayoutAny)))
	require.ErrorIs(t, CheckInputType(op, "Scale", f32NCHW), ErrUnsupportedType)

	require.True(t, AcceptsType(f32NCHW, tensors.MakeType(dtypes.Float16, tensors.LayoutAny), f32NCHW))
	require.False(t, AcceptsType(f32NCHW, tensors.MakeType(dtypes.Float16, tensors.LayoutAny)))
}

func TestCheckContext(t *testing.T) {
	op := &fakeOp{opType: "relu"}
	var ctx Context = &fakeContext{target: "test"}
	typed, err := CheckContext[*fakeContext](ctx, op)
	require.NoError(t, err)
	require.Same(t, ctx, typed)

	_, err = CheckContext[*otherContext](ctx, op)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

type otherContext struct{}

func (otherContext) Target() Target { return "other" }

func TestConvertSubgraph(t *testing.T) {
	const target Target = "test_subgraph"
	record := func(ctx Context, op OpView) error {
		fc := ctx.(*fakeContext)
		fc.converted = append(fc.converted, op.Type()+":"+op.Output("Out")[0])
		return nil
	}
	registerForTest(t, target, "relu", record)
	registerForTest(t, target, "tanh", record)
	registerForTest(t, target, "fails", func(ctx Context, op OpView) error {
		return NewConvertError(op.Type(), "epsilon", ErrMissingAttribute, "attribute not set")
	})
	registerForTest(t, target, "panics", func(ctx Context, op OpView) error {
		exceptions.Panicf("setter called with nil input")
		return nil
	})
	newOp := func(opType, out string) OpView {
		return &fakeOp{opType: opType, outputs: map[string][]string{"Out": {out}}}
	}

	t.Run("sequential", func(t *testing.T) {
		ctx := &fakeContext{target: target}
		require.NoError(t, ConvertSubgraph(ctx, []OpView{newOp("relu", "a"), newOp("tanh", "b"), newOp("relu", "c")}))
		require.Equal(t, []string{"relu:a", "tanh:b", "relu:c"}, ctx.converted)
	})

	t.Run("not_registered", func(t *testing.T) {
		ctx := &fakeContext{target: target}
		err := ConvertSubgraph(ctx, []OpView{newOp("relu", "a"), newOp("softmax", "b"), newOp("relu", "c")})
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorContains(t, err, "operator #1")
		require.Equal(t, []string{"relu:a"}, ctx.converted)
	})

	t.Run("converter_error", func(t *testing.T) {
		ctx := &fakeContext{target: target}
		err := ConvertSubgraph(ctx, []OpView{newOp("relu", "a"), newOp("fails", "b"), newOp("relu", "c")})
		require.ErrorIs(t, err, ErrMissingAttribute)
		var convertErr *ConvertError
		require.ErrorAs(t, err, &convertErr)
		require.Equal(t, "epsilon", convertErr.Field)
		require.ErrorContains(t, err, "operator #1 of subgraph (fails)")
		require.Equal(t, []string{"relu:a"}, ctx.converted)
	})

	t.Run("converter_panic", func(t *testing.T) {
		ctx := &fakeContext{target: target}
		err := ConvertSubgraph(ctx, []OpView{newOp("panics", "a"), newOp("relu", "b")})
		require.ErrorContains(t, err, "setter called with nil input")
		require.ErrorContains(t, err, "operator #0")
		require.Empty(t, ctx.converted)
	})
}
