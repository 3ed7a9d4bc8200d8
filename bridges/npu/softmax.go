// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

func init() {
	bridges.Register(Target, "softmax", convertSoftmax)
}

func convertSoftmax(ctx bridges.Context, op bridges.OpView) error {
	g, err := bridges.CheckContext[*Graph](ctx, op)
	if err != nil {
		return err
	}
	klog.V(3).Infof("[NPU] Converting %s...", op.Type())

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
	axis, err := bridges.AttrIntOr(op, "axis", -1)
	if err != nil {
		return err
	}

	x, err := g.resolveInput(op, "X", xName)
	if err != nil {
		return err
	}
	softmax, err := AddNode[ir.Softmax](g, outName)
	if err != nil {
		return opError(op, "Out", err)
	}
	softmax.SetInputX(x).SetAttrAxis(axis)
	return nil
}
