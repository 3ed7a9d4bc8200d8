// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

func init() {
	bridges.Register(Target, "pool2d", convertPool2D)
}

var poolingModes = map[string]ir.PoolingMode{
	"max": ir.PoolingMax,
	"avg": ir.PoolingAvg,
}

func convertPool2D(ctx bridges.Context, op bridges.OpView) error {
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
	if err = checkTypes(op, []string{"X"}, []string{"Out"}, float32NCHW); err != nil {
		return err
	}

	poolingType, err := bridges.AttrString(op, "pooling_type")
	if err != nil {
		return err
	}
	mode, found := poolingModes[poolingType]
	if !found {
		return bridges.NewConvertError(op.Type(), "pooling_type", bridges.ErrMissingAttribute,
			"pooling_type must be \"max\" or \"avg\", got %q", poolingType)
	}
	globalPooling, err := bridges.AttrBoolOr(op, "global_pooling", false)
	if err != nil {
		return err
	}
	ksize := []int{1, 1}
	if !globalPooling {
		if ksize, err = bridges.AttrInts(op, "ksize"); err != nil {
			return err
		}
		if err = checkInts(op, "ksize", ksize, 1, 2); err != nil {
			return err
		}
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
	ceilMode, err := bridges.AttrBoolOr(op, "ceil_mode", false)
	if err != nil {
		return err
	}

	x, err := g.resolveInput(op, "X", xName)
	if err != nil {
		return err
	}
	pool, err := AddNode[ir.Pooling](g, outName)
	if err != nil {
		return opError(op, "Out", err)
	}
	pool.SetInputX(x).
		SetAttrMode(mode).
		SetAttrWindow(ksize...).
		SetAttrStrides(strides...).
		SetAttrPads(expandPaddings(paddings)...).
		SetAttrGlobalPooling(globalPooling).
		SetAttrCeilMode(ceilMode)
	return nil
}
