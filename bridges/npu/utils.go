// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package npu

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/ir"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
)

var (
	// float32NCHW is the only type accepted by the NPU normalization, convolution and pooling operators.
	float32NCHW = tensors.MakeType(dtypes.Float32, tensors.LayoutNCHW)

	// float32Any is accepted by element-wise operators, which are layout agnostic.
	float32Any = tensors.MakeType(dtypes.Float32, tensors.LayoutAny)
)

// opError attributes an error of the Graph to the field of the operator being converted.
func opError(op bridges.OpView, field string, err error) error {
	return &bridges.ConvertError{OpType: op.Type(), Field: field, Err: err}
}

// checkTypes validates the declared types of the given input roles and output roles.
func checkTypes(op bridges.OpView, inputRoles, outputRoles []string, accepted ...tensors.Type) error {
	for _, role := range inputRoles {
		if err := bridges.CheckInputType(op, role, accepted...); err != nil {
			return err
		}
	}
	for _, role := range outputRoles {
		if err := bridges.CheckOutputType(op, role, accepted...); err != nil {
			return err
		}
	}
	return nil
}

// inputNames returns the first tensor name bound to each of the input roles.
func inputNames(op bridges.OpView, roles ...string) ([]string, error) {
	names := make([]string, len(roles))
	for ii, role := range roles {
		var err error
		if names[ii], err = bridges.InputName(op, role); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// resolveInput returns the node defining the tensor name bound to role: the one already registered (the output of
// an upstream operator of the pass), or else a new Data placeholder shaped as the tensor in scope.
func (g *Graph) resolveInput(op bridges.OpView, role, name string) (ir.Operator, error) {
	if g.HasNode(name) {
		return g.GetNode(name)
	}
	t, err := bridges.FindTensor(op, role, name)
	if err != nil {
		return nil, err
	}
	data, err := g.AddInputNode(name, t.Shape())
	if err != nil {
		return nil, opError(op, role, err)
	}
	return data, nil
}

// resolveOperand is like resolveInput, but creates a Const instead of a Data placeholder if the tensor in scope
// holds data.
func (g *Graph) resolveOperand(op bridges.OpView, role, name string) (ir.Operator, error) {
	if g.HasNode(name) {
		return g.GetNode(name)
	}
	t, err := bridges.FindTensor(op, role, name)
	if err != nil {
		return nil, err
	}
	if t.HasData() {
		return g.constant(op, role, name)
	}
	return g.resolveInput(op, role, name)
}

// constant returns the Const for the parameter tensor name bound to role.
func (g *Graph) constant(op bridges.OpView, role, name string) (*ir.Const, error) {
	t, err := bridges.FindTensor(op, role, name)
	if err != nil {
		return nil, err
	}
	c, err := g.AddConstNode(name, t)
	if err != nil {
		return nil, opError(op, role, err)
	}
	return c, nil
}

// checkInts validates the number of values of a list attribute, and that none is smaller than minValue.
func checkInts(op bridges.OpView, attr string, values []int, minValue int, lengths ...int) error {
	if !slices.Contains(lengths, len(values)) {
		return bridges.NewConvertError(op.Type(), attr, bridges.ErrMissingAttribute,
			"attribute %q must have %v values, got %v", attr, lengths, values)
	}
	for _, v := range values {
		if v < minValue {
			return bridges.NewConvertError(op.Type(), attr, bridges.ErrMissingAttribute,
				"attribute %q values must be >= %d, got %v", attr, minValue, values)
		}
	}
	return nil
}

// inputShape returns the shape of the tensor name bound to role: from the scope if it is there, otherwise from the
// node already registered for it. Outputs of upstream operators only get their shape when the model is built, so
// the returned shape may be invalid.
func (g *Graph) inputShape(op bridges.OpView, role, name string) (shapes.Shape, error) {
	if t, found := op.Scope().FindTensor(name); found && t != nil {
		return t.Shape(), nil
	}
	if node, found := g.nodes[name]; found {
		return node.Shape(), nil
	}
	return shapes.Invalid(), bridges.NewConvertError(op.Type(), role, bridges.ErrNotFound,
		"tensor %q not found in scope", name)
}

// expandPaddings converts paddings given as [height, width] to [top, bottom, left, right].
func expandPaddings(paddings []int) []int {
	if len(paddings) == 2 {
		return []int{paddings[0], paddings[0], paddings[1], paddings[1]}
	}
	return paddings
}
