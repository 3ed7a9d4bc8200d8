// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

func init() {
	for _, opType := range []string{"relu", "sigmoid", "tanh", "relu6", "leaky_relu"} {
		bridges.Register(Target, opType, convertActivation)
	}
}

// convertActivation lowers the activation operators to Activation, selecting the mode from the operator type.
func convertActivation(ctx bridges.Context, op bridges.OpView) error {
	g, err := bridges.CheckContext[*Graph](ctx, op)
	if err != nil {
		return err
	}
	opType := op.Type()
	klog.V(3).Infof("[NPU] Converting %s...", opType)

	xName, err := bridges.InputName(op, "X")
	if err != nil {
		return err
	}
	outName, err := bridges.OutputName(op, "Out")
	if err != nil {
		return err
	}
	if err = checkTypes(op, []string{"X"}, []string{"Out"}, float32Any); err != nil {
		return err
	}

	var mode ir.ActivationMode
	var coef float32
	switch opType {
	case "relu":
		mode = ir.ActivationRelu
	case "sigmoid":
		mode = ir.ActivationSigmoid
	case "tanh":
		mode = ir.ActivationTanh
	case "relu6":
		mode = ir.ActivationRelu6
		threshold, err := bridges.AttrFloat32Or(op, "threshold", 6)
		if err != nil {
			return err
		}
		if threshold != 6 {
			mode, coef = ir.ActivationClippedRelu, threshold
		}
	case "leaky_relu":
		mode = ir.ActivationLeakyRelu
		if coef, err = bridges.AttrFloat32Or(op, "alpha", 0.02); err != nil {
			return err
		}
	default:
		return bridges.NewConvertError(opType, "type", bridges.ErrNotFound, "no activation mode for %q", opType)
	}

	x, err := g.resolveInput(op, "X", xName)
	if err != nil {
		return err
	}
	act, err := AddNode[ir.Activation](g, outName)
	if err != nil {
		return opError(op, "Out", err)
	}
	act.SetInputX(x).SetAttrMode(mode)
	if mode == ir.ActivationLeakyRelu || mode == ir.ActivationClippedRelu {
		act.SetAttrCoef(coef)
	}
	return nil
}
