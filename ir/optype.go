// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import "fmt"

// OpType is an enum of the operator kinds of the target graph.
type OpType int

const (
	OpTypeInvalid OpType = iota
	OpTypeData
	OpTypeConst
	OpTypeBatchNormExt2
	OpTypeActivation
	OpTypeEltwise
	OpTypeSoftmax
	OpTypeConvolution
	OpTypePooling
)

var opTypeNames = []string{
	"Invalid",
	"Data",
	"Const",
	"BatchNormExt2",
	"Activation",
	"Eltwise",
	"Softmax",
	"Convolution",
	"Pooling",
}

// String implements fmt.Stringer.
func (opType OpType) String() string {
	if opType < 0 || int(opType) >= len(opTypeNames) {
		return fmt.Sprintf("OpType(%d)", int(opType))
	}
	return opTypeNames[opType]
}

// slotSpec describes one input of an operator kind.
type slotSpec struct {
	name     string
	optional bool
}

// opSlots lists, in order, the inputs each operator kind takes.
var opSlots = map[OpType][]slotSpec{
	OpTypeBatchNormExt2: {{name: "x"}, {name: "scale"}, {name: "offset"}, {name: "mean"}, {name: "variance"}},
	OpTypeActivation:    {{name: "x"}},
	OpTypeEltwise:       {{name: "x1"}, {name: "x2"}},
	OpTypeSoftmax:       {{name: "x"}},
	OpTypeConvolution:   {{name: "x"}, {name: "filter"}, {name: "bias", optional: true}},
	OpTypePooling:       {{name: "x"}},
}

// ActivationMode selects the function applied by an Activation operator.
type ActivationMode int

const (
	ActivationSigmoid     ActivationMode = 0
	ActivationRelu        ActivationMode = 1
	ActivationTanh        ActivationMode = 2
	ActivationClippedRelu ActivationMode = 3
	ActivationLeakyRelu   ActivationMode = 5
	ActivationRelu6       ActivationMode = 14
)

// EltwiseMode selects the binary function applied by an Eltwise operator.
type EltwiseMode int

const (
	EltwiseProd EltwiseMode = 0
	EltwiseSum  EltwiseMode = 1
	EltwiseMax  EltwiseMode = 2
	EltwiseSub  EltwiseMode = 3
	EltwiseDiv  EltwiseMode = 4
)

// PoolingMode selects the reduction of a Pooling operator.
type PoolingMode int

const (
	PoolingMax PoolingMode = 0
	PoolingAvg PoolingMode = 1
)

// BatchNormChannelMode is the BatchNormExt2 mode where scale, offset, mean and variance are
// per-channel values broadcast as 1xCx1x1.
const BatchNormChannelMode = 1
