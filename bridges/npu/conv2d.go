// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

func init() {
	bridges.Register(Target, "conv2d", convertConv2D)
	bridges.Register(Target, "depthwise_conv2d", convertConv2D)
}

// convertConv2D lowers conv2d and depthwise_conv2d to Convolution, with the filter (OIHW) and the optional
// bias embedded as constants. For depthwise_conv2d groups defaults to the number of input channels, when the
// input shape is known before the model is built.
func convertConv2D(ctx bridges.Context, op bridges.OpView) error {
	g, err := bridges.CheckContext[*Graph](ctx, op)
	if err != nil {
		return err
	}
	klog.V(3).Infof("[NPU] Converting %s...", op.Type())

	names, err := inputNames(op, "Input", "Filter")
	if err != nil {
		return err
	}
	inputName, filterName := names[0], names[1]
	biasName, hasBias := bridges.OptionalInputName(op, "Bias")
	outName, err := bridges.OutputName(op, "Output")
	if err != nil {
		return err
	}
	if err = checkTypes(op, []string{"Input"}, []string{"Output"}, float32NCHW); err != nil {
		return err
	}
	paramRoles := []string{"Filter"}
	if hasBias {
		paramRoles = append(paramRoles, "Bias")
	}
	if err = checkTypes(op, paramRoles, nil, float32Any); err != nil {
		return err
	}

	inputShape, err := g.inputShape(op, "Input", inputName)
	if err != nil {
		return err
	}
	if inputShape.Ok() && inputShape.Rank() != 4 {
		return bridges.NewConvertError(op.Type(), "Input", bridges.ErrUnsupportedType,
			"input %q must be 4D (NCHW), got %s", inputName, inputShape)
	}
	strides, err := bridges.AttrIntsOr(op, "strides", []int{1, 1})
	if err != nil {
		return err
	}
	if err = checkInts(op, "strides", strides, 1, 2); err != nil {
		return err
	}
	paddings, err := bridges.AttrIntsOr(op, "paddings", []int{0, 0})
	if err != nil {
		return err
	}
	if err = checkInts(op, "paddings", paddings, 0, 2, 4); err != nil {
		return err
	}
	dilations, err := bridges.AttrIntsOr(op, "dilations", []int{1, 1})
	if err != nil {
		return err
	}
	if err = checkInts(op, "dilations", dilations, 1, 2); err != nil {
		return err
	}
	var groups int
	switch {
	case op.Type() != "depthwise_conv2d":
		groups, err = bridges.AttrIntOr(op, "groups", 1)
	case inputShape.Ok():
		groups, err = bridges.AttrIntOr(op, "groups", inputShape.Dim(1))
	default:
		// Channels of an upstream output are unknown until the model is built.
		groups, err = bridges.AttrInt(op, "groups")
	}
	if err != nil {
		return err
	}
	if groups < 1 {
		return bridges.NewConvertError(op.Type(), "groups", bridges.ErrMissingAttribute, "groups must be >= 1, got %d", groups)
	}

	x, err := g.resolveInput(op, "Input", inputName)
	if err != nil {
		return err
	}
	filter, err := g.constant(op, "Filter", filterName)
	if err != nil {
		return err
	}
	var bias *ir.Const
	if hasBias {
		if bias, err = g.constant(op, "Bias", biasName); err != nil {
			return err
		}
	}

	conv, err := AddNode[ir.Convolution](g, outName)
	if err != nil {
		return opError(op, "Output", err)
	}
	conv.SetInputX(x).
		SetInputFilter(filter).
		SetAttrStrides(strides...).
		SetAttrPads(expandPaddings(paddings)...).
		SetAttrDilations(dilations...).
		SetAttrGroups(groups)
	if bias != nil {
		conv.SetInputBias(bias)
	}
	return nil
}
