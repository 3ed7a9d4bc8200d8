// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
)

// Data is a placeholder for a graph input, fed at execution time.
type Data struct{ baseOp }

func (op *Data) init(name string) { op.initBase(name, OpTypeData) }

// NewData creates a Data placeholder with the given shape.
func NewData(name string, shape shapes.Shape) *Data {
	return New[Data](name).SetShape(shape)
}

// SetShape sets the shape of the data fed to the placeholder.
func (op *Data) SetShape(shape shapes.Shape) *Data {
	if !shape.Ok() {
		exceptions.Panicf("Data %q: invalid shape %s", op.name, shape)
	}
	op.shape = shape.Clone()
	return op
}

// Const embeds the value of a tensor in the graph.
type Const struct {
	baseOp
	value *tensors.Tensor
}

func (op *Const) init(name string) { op.initBase(name, OpTypeConst) }

// NewConst creates a Const holding the given tensor, which must have data.
func NewConst(name string, value *tensors.Tensor) *Const {
	return New[Const](name).SetValue(value)
}

// SetValue sets the tensor embedded by the constant.
func (op *Const) SetValue(value *tensors.Tensor) *Const {
	if value == nil || !value.HasData() {
		exceptions.Panicf("Const %q: value must be a tensor with data", op.name)
	}
	op.value = value
	op.shape = value.Shape().Clone()
	return op
}

// Value returns the embedded tensor.
func (op *Const) Value() *tensors.Tensor { return op.value }

// BatchNormExt2 normalizes x with the given per-channel scale, offset, mean and variance.
type BatchNormExt2 struct{ baseOp }

func (op *BatchNormExt2) init(name string) { op.initBase(name, OpTypeBatchNormExt2) }

// SetInputX sets the input to normalize.
func (op *BatchNormExt2) SetInputX(x Operator) *BatchNormExt2 { op.setInput("x", x); return op }

// SetInputScale sets the per-channel scale (gamma).
func (op *BatchNormExt2) SetInputScale(x Operator) *BatchNormExt2 {
	op.setInput("scale", x)
	return op
}

// SetInputOffset sets the per-channel offset (beta).
func (op *BatchNormExt2) SetInputOffset(x Operator) *BatchNormExt2 {
	op.setInput("offset", x)
	return op
}

// SetInputMean sets the per-channel mean.
func (op *BatchNormExt2) SetInputMean(x Operator) *BatchNormExt2 { op.setInput("mean", x); return op }

// SetInputVariance sets the per-channel variance.
func (op *BatchNormExt2) SetInputVariance(x Operator) *BatchNormExt2 {
	op.setInput("variance", x)
	return op
}

// SetAttrMomentum sets the momentum of the moving statistics.
func (op *BatchNormExt2) SetAttrMomentum(v float32) *BatchNormExt2 {
	op.setAttr("momentum", v)
	return op
}

// SetAttrEpsilon sets the value added to the variance before taking its square root.
func (op *BatchNormExt2) SetAttrEpsilon(v float32) *BatchNormExt2 {
	op.setAttr("epsilon", v)
	return op
}

// SetAttrMode sets how the auxiliary inputs are broadcast, see BatchNormChannelMode.
func (op *BatchNormExt2) SetAttrMode(v int) *BatchNormExt2 { op.setAttr("mode", v); return op }

// SetAttrUseGlobalStats selects the given mean and variance instead of the batch statistics.
func (op *BatchNormExt2) SetAttrUseGlobalStats(v bool) *BatchNormExt2 {
	op.setAttr("use_global_stats", v)
	return op
}

// Momentum returns the momentum attribute, 0.9 if not set.
func (op *BatchNormExt2) Momentum() float32 { return attrOr[float32](op, "momentum", 0.9) }

// Epsilon returns the epsilon attribute, 1e-5 if not set.
func (op *BatchNormExt2) Epsilon() float32 { return attrOr[float32](op, "epsilon", 1e-5) }

// Mode returns the broadcast mode, BatchNormChannelMode if not set.
func (op *BatchNormExt2) Mode() int { return attrOr(op, "mode", BatchNormChannelMode) }

// UseGlobalStats returns whether the given mean and variance are used.
func (op *BatchNormExt2) UseGlobalStats() bool { return attrOr(op, "use_global_stats", false) }

// Activation applies an element-wise activation function selected by its mode.
type Activation struct{ baseOp }

func (op *Activation) init(name string) { op.initBase(name, OpTypeActivation) }

// SetInputX sets the input of the activation.
func (op *Activation) SetInputX(x Operator) *Activation { op.setInput("x", x); return op }

// SetAttrMode sets the activation function.
func (op *Activation) SetAttrMode(mode ActivationMode) *Activation {
	op.setAttr("mode", int(mode))
	return op
}

// SetAttrCoef sets the coefficient used by ActivationLeakyRelu (slope) and ActivationClippedRelu (ceiling).
func (op *Activation) SetAttrCoef(v float32) *Activation { op.setAttr("coef", v); return op }

// Mode returns the activation function, ActivationRelu if not set.
func (op *Activation) Mode() ActivationMode {
	return ActivationMode(attrOr(op, "mode", int(ActivationRelu)))
}

// Coef returns the coefficient of the activation, 0 if not set.
func (op *Activation) Coef() float32 { return attrOr[float32](op, "coef", 0) }

// Eltwise applies a binary element-wise function, broadcasting x2 into x1.
type Eltwise struct{ baseOp }

func (op *Eltwise) init(name string) { op.initBase(name, OpTypeEltwise) }

// SetInputX1 sets the left operand, which defines the output shape.
func (op *Eltwise) SetInputX1(x Operator) *Eltwise { op.setInput("x1", x); return op }

// SetInputX2 sets the right operand, broadcast into x1.
func (op *Eltwise) SetInputX2(x Operator) *Eltwise { op.setInput("x2", x); return op }

// SetAttrMode sets the element-wise function.
func (op *Eltwise) SetAttrMode(mode EltwiseMode) *Eltwise {
	op.setAttr("mode", int(mode))
	return op
}

// SetAttrAxis sets the axis of x1 where the dimensions of x2 start. -1 aligns them to the right.
func (op *Eltwise) SetAttrAxis(axis int) *Eltwise { op.setAttr("axis", axis); return op }

// Mode returns the element-wise function, EltwiseSum if not set.
func (op *Eltwise) Mode() EltwiseMode { return EltwiseMode(attrOr(op, "mode", int(EltwiseSum))) }

// Axis returns the broadcast axis, -1 if not set.
func (op *Eltwise) Axis() int { return attrOr(op, "axis", -1) }

// Softmax normalizes x along one axis.
type Softmax struct{ baseOp }

func (op *Softmax) init(name string) { op.initBase(name, OpTypeSoftmax) }

// SetInputX sets the input to normalize.
func (op *Softmax) SetInputX(x Operator) *Softmax { op.setInput("x", x); return op }

// SetAttrAxis sets the axis to normalize along. Negative values count from the last axis.
func (op *Softmax) SetAttrAxis(axis int) *Softmax { op.setAttr("axis", axis); return op }

// Axis returns the normalized axis, -1 if not set.
func (op *Softmax) Axis() int { return attrOr(op, "axis", -1) }

// Convolution is a 2D convolution over NCHW inputs with an OIHW filter and an optional per-output-channel bias.
type Convolution struct{ baseOp }

func (op *Convolution) init(name string) { op.initBase(name, OpTypeConvolution) }

// SetInputX sets the NCHW input.
func (op *Convolution) SetInputX(x Operator) *Convolution { op.setInput("x", x); return op }

// SetInputFilter sets the OIHW filter.
func (op *Convolution) SetInputFilter(x Operator) *Convolution {
	op.setInput("filter", x)
	return op
}

// SetInputBias sets the optional bias, one value per output channel.
func (op *Convolution) SetInputBias(x Operator) *Convolution { op.setInput("bias", x); return op }

// SetAttrStrides sets the strides along height and width.
func (op *Convolution) SetAttrStrides(strides ...int) *Convolution {
	op.setAttr("strides", checkLen(op.name, "strides", strides, 2))
	return op
}

// SetAttrPads sets the paddings as top, bottom, left and right.
func (op *Convolution) SetAttrPads(pads ...int) *Convolution {
	op.setAttr("pads", checkLen(op.name, "pads", pads, 4))
	return op
}

// SetAttrDilations sets the dilations along height and width.
func (op *Convolution) SetAttrDilations(dilations ...int) *Convolution {
	op.setAttr("dilations", checkLen(op.name, "dilations", dilations, 2))
	return op
}

// SetAttrGroups sets the number of groups the channels are split into. It panics if groups < 1.
func (op *Convolution) SetAttrGroups(groups int) *Convolution {
	if groups < 1 {
		exceptions.Panicf("Convolution %q: groups must be >= 1, got %d", op.name, groups)
	}
	op.setAttr("groups", groups)
	return op
}

// Strides returns the strides along height and width, 1 if not set.
func (op *Convolution) Strides() []int { return slices.Clone(attrOr(op, "strides", []int{1, 1})) }

// Pads returns the paddings as top, bottom, left and right, 0 if not set.
func (op *Convolution) Pads() []int { return slices.Clone(attrOr(op, "pads", []int{0, 0, 0, 0})) }

// Dilations returns the dilations along height and width, 1 if not set.
func (op *Convolution) Dilations() []int { return slices.Clone(attrOr(op, "dilations", []int{1, 1})) }

// Groups returns the number of groups, 1 if not set.
func (op *Convolution) Groups() int { return attrOr(op, "groups", 1) }

// Pooling reduces windows of the spatial dimensions of an NCHW input.
type Pooling struct{ baseOp }

func (op *Pooling) init(name string) { op.initBase(name, OpTypePooling) }

// SetInputX sets the NCHW input.
func (op *Pooling) SetInputX(x Operator) *Pooling { op.setInput("x", x); return op }

// SetAttrMode sets the reduction applied to each window.
func (op *Pooling) SetAttrMode(mode PoolingMode) *Pooling {
	op.setAttr("mode", int(mode))
	return op
}

// SetAttrWindow sets the window height and width.
func (op *Pooling) SetAttrWindow(window ...int) *Pooling {
	op.setAttr("window", checkLen(op.name, "window", window, 2))
	return op
}

// SetAttrStrides sets the strides along height and width.
func (op *Pooling) SetAttrStrides(strides ...int) *Pooling {
	op.setAttr("strides", checkLen(op.name, "strides", strides, 2))
	return op
}

// SetAttrPads sets the paddings as top, bottom, left and right.
func (op *Pooling) SetAttrPads(pads ...int) *Pooling {
	op.setAttr("pads", checkLen(op.name, "pads", pads, 4))
	return op
}

// SetAttrGlobalPooling makes the window cover the whole spatial dimensions.
func (op *Pooling) SetAttrGlobalPooling(v bool) *Pooling {
	op.setAttr("global_pooling", v)
	return op
}

// SetAttrCeilMode rounds the output spatial sizes up instead of down.
func (op *Pooling) SetAttrCeilMode(v bool) *Pooling { op.setAttr("ceil_mode", v); return op }

// Mode returns the reduction, PoolingMax if not set.
func (op *Pooling) Mode() PoolingMode { return PoolingMode(attrOr(op, "mode", int(PoolingMax))) }

// Window returns the window height and width, 1 if not set.
func (op *Pooling) Window() []int { return slices.Clone(attrOr(op, "window", []int{1, 1})) }

// Strides returns the strides along height and width, 1 if not set.
func (op *Pooling) Strides() []int { return slices.Clone(attrOr(op, "strides", []int{1, 1})) }

// Pads returns the paddings as top, bottom, left and right, 0 if not set.
func (op *Pooling) Pads() []int { return slices.Clone(attrOr(op, "pads", []int{0, 0, 0, 0})) }

// GlobalPooling returns whether the window covers the whole spatial dimensions.
func (op *Pooling) GlobalPooling() bool { return attrOr(op, "global_pooling", false) }

// CeilMode returns whether output spatial sizes are rounded up.
func (op *Pooling) CeilMode() bool { return attrOr(op, "ceil_mode", false) }

// checkLen panics unless values has the given length and no negative value. It returns a copy of values.
func checkLen(opName, attr string, values []int, length int) []int {
	if len(values) != length {
		exceptions.Panicf("%q: attribute %q requires %d values, got %v", opName, attr, length, values)
	}
	for _, v := range values {
		if v < 0 {
			exceptions.Panicf("%q: attribute %q must be non-negative, got %v", opName, attr, values)
		}
	}
	return slices.Clone(values)
}
