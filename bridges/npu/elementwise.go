// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

var eltwiseModes = map[string]ir.EltwiseMode{
	"elementwise_add": ir.EltwiseSum,
	"elementwise_sub": ir.EltwiseSub,
	"elementwise_mul": ir.EltwiseProd,
	"elementwise_div": ir.EltwiseDiv,
	"elementwise_max": ir.EltwiseMax,
}

func init() {
	for opType := range eltwiseModes {
		bridges.Register(Target, opType, convertElementwise)
	}
}

// convertElementwise lowers the binary element-wise operators to Eltwise. Each operand is the node already
// registered for it, a Const if its tensor holds data, or else a Data placeholder.
func convertElementwise(ctx bridges.Context, op bridges.OpView) error {
	g, err := bridges.CheckContext[*Graph](ctx, op)
	if err != nil {
		return err
	}
	klog.V(3).Infof("[NPU] Converting %s...", op.Type())

	mode, found := eltwiseModes[op.Type()]
	if !found {
		return bridges.NewConvertError(op.Type(), "type", bridges.ErrNotFound, "no element-wise mode for %q", op.Type())
	}
	names, err := inputNames(op, "X", "Y")
	if err != nil {
		return err
	}
	outName, err := bridges.OutputName(op, "Out")
	if err != nil {
		return err
	}
	if err = checkTypes(op, []string{"X", "Y"}, []string{"Out"}, float32Any); err != nil {
		return err
	}
	axis, err := bridges.AttrIntOr(op, "axis", -1)
	if err != nil {
		return err
	}

	x, err := g.resolveOperand(op, "X", names[0])
	if err != nil {
		return err
	}
	y, err := g.resolveOperand(op, "Y", names[1])
	if err != nil {
		return err
	}
	eltwise, err := AddNode[ir.Eltwise](g, outName)
	if err != nil {
		return opError(op, "Out", err)
	}
	eltwise.SetInputX1(x).SetInputX2(y).SetAttrMode(mode).SetAttrAxis(axis)
	return nil
}
