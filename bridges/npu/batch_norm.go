// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"k8s.io/klog/v2"
)

func init() {
	bridges.Register(Target, "batch_norm", convertBatchNorm)
}

var batchNormInputRoles = []string{"X", "Scale", "Bias", "Mean", "Variance"}

// convertBatchNorm lowers batch_norm to BatchNormExt2, with scale, bias, mean and variance embedded as
// per-channel constants (mode 1 broadcasts them as 1xCx1x1).
//
// Declared types and attributes are all validated before any node is created.
func convertBatchNorm(ctx bridges.Context, op bridges.OpView) error {
	g, err := bridges.CheckContext[*Graph](ctx, op)
	if err != nil {
		return err
	}
	klog.V(3).Infof("[NPU] Converting %s...", op.Type())

	names, err := inputNames(op, batchNormInputRoles...)
	if err != nil {
		return err
	}
	xName, scaleName, biasName, meanName, varianceName := names[0], names[1], names[2], names[3], names[4]
	yName, err := bridges.OutputName(op, "Y")
	if err != nil {
		return err
	}
	if err = checkTypes(op, batchNormInputRoles, []string{"Y"}, float32NCHW); err != nil {
		return err
	}
	momentum, err := bridges.AttrFloat32(op, "momentum")
	if err != nil {
		return err
	}
	epsilon, err := bridges.AttrFloat32(op, "epsilon")
	if err != nil {
		return err
	}
	useGlobalStats, err := bridges.AttrBool(op, "use_global_stats")
	if err != nil {
		return err
	}

	// X node
	x, err := g.resolveInput(op, "X", xName)
	if err != nil {
		return err
	}

	// Scale, Bias, Mean, Variance nodes
	scale, err := g.constant(op, "Scale", scaleName)
	if err != nil {
		return err
	}
	bias, err := g.constant(op, "Bias", biasName)
	if err != nil {
		return err
	}
	mean, err := g.constant(op, "Mean", meanName)
	if err != nil {
		return err
	}
	variance, err := g.constant(op, "Variance", varianceName)
	if err != nil {
		return err
	}

	bn, err := AddNode[ir.BatchNormExt2](g, yName)
	if err != nil {
		return opError(op, "Y", err)
	}
	bn.SetInputX(x).
		SetInputScale(scale).
		SetInputOffset(bias).
		SetInputMean(mean).
		SetInputVariance(variance).
		SetAttrMomentum(momentum).
		SetAttrEpsilon(epsilon).
		SetAttrMode(ir.BatchNormChannelMode).
		SetAttrUseGlobalStats(useGlobalStats)
	return nil
}
