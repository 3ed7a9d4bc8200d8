// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BuildSubgraph converts ops (in topological order) in a new pass and builds the resulting ir.Model.
//
// inputNames and outputNames are the tensors fed to and returned from the subgraph. If inputNames is nil,
// every tensor that had to be created as a Data placeholder becomes an input.
// Any failure abandons the pass: no partial model is returned.
func BuildSubgraph(name string, ops []bridges.OpView, inputNames, outputNames []string) (*ir.Model, error) {
	g := NewGraph()
	klog.V(1).Infof("[NPU] pass %s: converting subgraph %q with %d operators", g.ID(), name, len(ops))
	if err := bridges.ConvertSubgraph(g, ops); err != nil {
		return nil, errors.WithMessagef(err, "subgraph %q", name)
	}
	model, err := g.Build(name, inputNames, outputNames)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("[NPU] pass %s: built %q: %d IR operators, %s of constants", g.ID(), name,
		model.NumOperators(), humanize.Bytes(uint64(model.ConstantBytes())))
	return model, nil
}
