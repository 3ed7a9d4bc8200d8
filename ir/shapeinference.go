// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/pkg/errors"
)

// InferShape returns the output shape of op, given the shapes of its inputs.
//
// Inputs must have valid shapes already: Build calls it in topological order.
func InferShape(op Operator) (output shapes.Shape, err error) {
	if missing := op.node().missingInputs(); len(missing) > 0 {
		err = errors.Errorf("%s %q has unwired inputs %v", op.Type(), op.Name(), missing)
		return
	}
	for _, edge := range op.Inputs() {
		if edge.Op != nil && !edge.Op.Shape().Ok() {
			err = errors.Errorf("%s %q: input %q (%s %q) has no shape yet", op.Type(), op.Name(), edge.Slot,
				edge.Op.Type(), edge.Op.Name())
			return
		}
	}

	switch typed := op.(type) {
	case *Data:
		output = typed.shape
		if !output.Ok() {
			err = errors.Errorf("Data %q has no shape", typed.name)
		}
	case *Const:
		if typed.value == nil {
			err = errors.Errorf("Const %q has no value", typed.name)
			return
		}
		output = typed.value.Shape()
	case *BatchNormExt2:
		output, err = batchNormShape(typed)
	case *Activation:
		output = typed.Input("x").Shape()
		if !output.DType.IsFloat() {
			err = errors.Errorf("Activation %q requires a float input, got %s", typed.name, output)
		}
	case *Eltwise:
		output, err = eltwiseShape(typed)
	case *Softmax:
		output = typed.Input("x").Shape()
		if axis := typed.Axis(); axis < -output.Rank() || axis >= output.Rank() {
			err = errors.Errorf("Softmax %q: axis %d out of range for input %s", typed.name, axis, output)
		}
	case *Convolution:
		output, err = convolutionShape(typed)
	case *Pooling:
		output, err = poolingShape(typed)
	default:
		err = errors.Errorf("shape inference not implemented for %s %q", op.Type(), op.Name())
	}
	if err != nil {
		output = shapes.Invalid()
	}
	return
}

func batchNormShape(op *BatchNormExt2) (output shapes.Shape, err error) {
	x := op.Input("x").Shape()
	if err = x.CheckRank(4); err != nil {
		return output, errors.WithMessagef(err, "BatchNormExt2 %q input x", op.name)
	}
	if x.DType != dtypes.Float32 {
		return output, errors.Errorf("BatchNormExt2 %q requires Float32 input, got %s", op.name, x)
	}
	channels := x.Dim(1)
	for _, slot := range []string{"scale", "offset", "mean", "variance"} {
		aux := op.Input(slot).Shape()
		if aux.DType != x.DType || aux.Size() != channels {
			return output, errors.Errorf("BatchNormExt2 %q: input %q must hold %d %s values (one per channel), got %s",
				op.name, slot, channels, x.DType, aux)
		}
	}
	return x.Clone(), nil
}

// eltwiseShape aligns x2 into x1 starting at the axis attribute (or to the right if -1), and each pair of
// aligned dimensions must match or be 1.
func eltwiseShape(op *Eltwise) (output shapes.Shape, err error) {
	x1, x2 := op.Input("x1").Shape(), op.Input("x2").Shape()
	if x1.DType != x2.DType {
		return output, errors.Errorf("Eltwise %q: data types must match, got %s and %s", op.name, x1, x2)
	}
	if x1.IsScalar() {
		return x2.Clone(), nil
	}
	if x2.IsScalar() {
		return x1.Clone(), nil
	}
	if x2.Rank() > x1.Rank() {
		return eltwiseBroadcast(op, x2, x1, -1)
	}
	return eltwiseBroadcast(op, x1, x2, op.Axis())
}

func eltwiseBroadcast(op *Eltwise, large, small shapes.Shape, axis int) (output shapes.Shape, err error) {
	if axis < 0 {
		axis = large.Rank() - small.Rank()
	}
	if axis+small.Rank() > large.Rank() {
		return output, errors.Errorf("Eltwise %q: cannot align %s into %s at axis %d", op.name, small, large, axis)
	}
	output = large.Clone()
	for ii, smallDim := range small.Dimensions {
		largeDim := large.Dimensions[axis+ii]
		if smallDim != largeDim && smallDim != 1 && largeDim != 1 {
			return shapes.Invalid(), errors.Errorf("Eltwise %q: dimension of axis #%d doesn't match and cannot be broadcast, got shapes %s and %s",
				op.name, axis+ii, large, small)
		}
		output.Dimensions[axis+ii] = max(smallDim, largeDim)
	}
	return output, nil
}

func convolutionShape(op *Convolution) (output shapes.Shape, err error) {
	x, filter := op.Input("x").Shape(), op.Input("filter").Shape()
	if err = x.CheckRank(4); err != nil {
		return output, errors.WithMessagef(err, "Convolution %q input x", op.name)
	}
	if err = filter.CheckRank(4); err != nil {
		return output, errors.WithMessagef(err, "Convolution %q input filter", op.name)
	}
	if x.DType != filter.DType {
		return output, errors.Errorf("Convolution %q: data types must match, got %s and %s", op.name, x, filter)
	}
	groups := op.Groups()
	channels, outChannels := x.Dim(1), filter.Dim(0)
	if channels%groups != 0 || outChannels%groups != 0 || filter.Dim(1)*groups != channels {
		return output, errors.Errorf("Convolution %q: input %s, filter %s and groups=%d are not compatible",
			op.name, x, filter, groups)
	}
	if bias := op.Input("bias"); bias != nil && bias.Shape().Size() != outChannels {
		return output, errors.Errorf("Convolution %q: bias must have %d values, got %s", op.name, outChannels, bias.Shape())
	}
	strides, pads, dilations := op.Strides(), op.Pads(), op.Dilations()
	output = shapes.Make(x.DType, x.Dim(0), outChannels, 1, 1)
	for ii := range 2 {
		padded := x.Dim(2+ii) + pads[2*ii] + pads[2*ii+1]
		effectiveKernel := dilations[ii]*(filter.Dim(2+ii)-1) + 1
		if strides[ii] < 1 || padded < effectiveKernel {
			return shapes.Invalid(), errors.Errorf("Convolution %q: kernel %d (dilated) and stride %d don't fit padded input dimension %d",
				op.name, effectiveKernel, strides[ii], padded)
		}
		output.Dimensions[2+ii] = (padded-effectiveKernel)/strides[ii] + 1
	}
	return output, nil
}

func poolingShape(op *Pooling) (output shapes.Shape, err error) {
	x := op.Input("x").Shape()
	if err = x.CheckRank(4); err != nil {
		return output, errors.WithMessagef(err, "Pooling %q input x", op.name)
	}
	if op.GlobalPooling() {
		return shapes.Make(x.DType, x.Dim(0), x.Dim(1), 1, 1), nil
	}
	window, strides, pads := op.Window(), op.Strides(), op.Pads()
	output = x.Clone()
	for ii := range 2 {
		padded := x.Dim(2+ii) + pads[2*ii] + pads[2*ii+1]
		if strides[ii] < 1 || window[ii] < 1 || padded < window[ii] {
			return shapes.Invalid(), errors.Errorf("Pooling %q: window %d and stride %d don't fit padded input dimension %d",
				op.name, window[ii], strides[ii], padded)
		}
		span := padded - window[ii]
		if op.CeilMode() {
			span += strides[ii] - 1
		}
		output.Dimensions[2+ii] = span/strides[ii] + 1
	}
	return output, nil
}
