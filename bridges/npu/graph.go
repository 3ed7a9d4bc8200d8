// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package npu lowers framework operators to the NPU target graph (package ir).
//
// A Graph is the context of one conversion pass: it owns every ir.Operator created during the pass, and maps
// each tensor name to the one operator that defines it. Converters, registered with package bridges under the
// target "npu" when this package is imported, resolve their inputs through the Graph (reusing nodes created by
// upstream operators, or creating Data placeholders and Const nodes on first use) and add one operator for
// their output.
//
// Use BuildSubgraph to convert a topologically ordered list of operators into an ir.Model.
package npu

import (
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Target of the converters in this package.
const Target bridges.Target = "npu"

// Graph maps tensor names to the operators defining them, for one conversion pass.
//
// It is not safe for concurrent use: converters of a pass are called sequentially.
type Graph struct {
	id    string
	nodes map[string]ir.Operator
	names []string
}

// Compile-time check that Graph implements bridges.Context.
var _ bridges.Context = (*Graph)(nil)

// NewGraph creates an empty Graph for a new conversion pass.
func NewGraph() *Graph {
	return &Graph{
		id:    uuid.NewString(),
		nodes: make(map[string]ir.Operator),
	}
}

// Target implements bridges.Context.
func (g *Graph) Target() bridges.Target { return Target }

// ID uniquely identifies the pass in logs.
func (g *Graph) ID() string { return g.id }

// HasNode returns whether an operator is registered under name.
func (g *Graph) HasNode(name string) bool {
	_, found := g.nodes[name]
	return found
}

// GetNode returns the operator registered under name, or an error wrapping bridges.ErrNotFound.
func (g *Graph) GetNode(name string) (ir.Operator, error) {
	node, found := g.nodes[name]
	if !found {
		return nil, errors.Wrapf(bridges.ErrNotFound, "no node registered for tensor %q", name)
	}
	return node, nil
}

// Len returns the number of registered operators.
func (g *Graph) Len() int { return len(g.nodes) }

// Names returns the names of the registered operators, in registration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.names...)
}

func (g *Graph) register(name string, node ir.Operator) {
	g.nodes[name] = node
	g.names = append(g.names, name)
	klog.V(4).Infof("[NPU] pass %s: registered %s %q", g.id, node.Type(), name)
}

func (g *Graph) checkNew(name string) error {
	if name == "" {
		return errors.Wrap(bridges.ErrNotFound, "empty tensor name")
	}
	if node, found := g.nodes[name]; found {
		return errors.Wrapf(bridges.ErrDuplicate, "tensor %q is already registered as %s", name, node.Type())
	}
	return nil
}

// AddInputNode creates a Data placeholder with the given shape, for a tensor fed to the subgraph.
// It returns an error wrapping bridges.ErrDuplicate if name is already registered: callers check HasNode first.
func (g *Graph) AddInputNode(name string, shape shapes.Shape) (*ir.Data, error) {
	if err := g.checkNew(name); err != nil {
		return nil, err
	}
	if !shape.Ok() {
		return nil, errors.Wrapf(bridges.ErrUnsupportedType, "invalid shape %s for input %q", shape, name)
	}
	data := ir.NewData(name, shape)
	g.register(name, data)
	return data, nil
}

// AddConstNode returns a Const embedding the content of value.
//
// Constants are never duplicated: if a Const is already registered under name (a parameter shared by two
// operators) it is returned as is, provided its shape matches. If name is registered as any other kind of
// operator it returns an error wrapping bridges.ErrDuplicate.
func (g *Graph) AddConstNode(name string, value *tensors.Tensor) (*ir.Const, error) {
	if value == nil || !value.HasData() {
		return nil, errors.Wrapf(bridges.ErrNotFound, "tensor %q has no data to create a constant", name)
	}
	if node, found := g.nodes[name]; found {
		c, ok := node.(*ir.Const)
		if !ok {
			return nil, errors.Wrapf(bridges.ErrDuplicate, "tensor %q is already registered as %s", name, node.Type())
		}
		if !c.Shape().Equal(value.Shape()) {
			return nil, errors.Wrapf(bridges.ErrDuplicate, "constant %q already registered with shape %s, got %s",
				name, c.Shape(), value.Shape())
		}
		klog.V(4).Infof("[NPU] pass %s: reusing constant %q", g.id, name)
		return c, nil
	}
	if err := g.checkNew(name); err != nil {
		return nil, err
	}
	c := ir.NewConst(name, value)
	g.register(name, c)
	return c, nil
}

// AddNode creates an unwired operator of type T registered under name, for the output of a converter.
// It returns an error wrapping bridges.ErrDuplicate if name is already registered. Example:
//
//	bn, err := npu.AddNode[ir.BatchNormExt2](g, yName)
//
// It is a function and not a method because Go methods can't take type parameters.
func AddNode[T any, PT ir.Typed[T]](g *Graph, name string) (PT, error) {
	if err := g.checkNew(name); err != nil {
		return nil, err
	}
	node := ir.New[T, PT](name)
	g.register(name, node)
	return node, nil
}

// Build finalizes the pass into an ir.Model computing the operators named outputNames from the Data
// placeholders named inputNames. If inputNames is nil, all Data placeholders are used, in registration order.
func (g *Graph) Build(name string, inputNames, outputNames []string) (*ir.Model, error) {
	if inputNames == nil {
		for _, nodeName := range g.names {
			if g.nodes[nodeName].Type() == ir.OpTypeData {
				inputNames = append(inputNames, nodeName)
			}
		}
	}
	inputs, err := g.lookupAll(inputNames)
	if err != nil {
		return nil, errors.WithMessagef(err, "building %q inputs", name)
	}
	outputs, err := g.lookupAll(outputNames)
	if err != nil {
		return nil, errors.WithMessagef(err, "building %q outputs", name)
	}
	return ir.Build(name, inputs, outputs)
}

func (g *Graph) lookupAll(names []string) ([]ir.Operator, error) {
	ops := make([]ir.Operator, 0, len(names))
	for _, name := range names {
		op, err := g.GetNode(name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
