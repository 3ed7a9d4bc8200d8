// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package program

import (
	"maps"
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/types/tensors"
)

// DefaultType is the declared type of tensors not found in scope and with no explicit type.
var DefaultType = tensors.MakeType(dtypes.Float32, tensors.LayoutNCHW)

// OpDesc describes one framework operator. It implements bridges.OpView.
//
// It can be built programmatically with NewOp and the Set* methods, or loaded from a program file.
type OpDesc struct {
	opType    string
	inputs    map[string][]string
	outputs   map[string][]string
	attrs     map[string]any
	declTypes map[string]tensors.Type
	scope     *tensors.Scope
}

// Compile-time check.
var _ bridges.OpView = (*OpDesc)(nil)

// NewOp creates an OpDesc of the given type whose tensors live in scope.
func NewOp(opType string, scope *tensors.Scope) *OpDesc {
	return &OpDesc{
		opType:    opType,
		inputs:    make(map[string][]string),
		outputs:   make(map[string][]string),
		attrs:     make(map[string]any),
		declTypes: make(map[string]tensors.Type),
		scope:     scope,
	}
}

// SetInput binds tensor names to an input role.
func (op *OpDesc) SetInput(role string, names ...string) *OpDesc {
	op.inputs[role] = slices.Clone(names)
	return op
}

// SetOutput binds tensor names to an output role.
func (op *OpDesc) SetOutput(role string, names ...string) *OpDesc {
	op.outputs[role] = slices.Clone(names)
	return op
}

// SetAttr sets an attribute.
func (op *OpDesc) SetAttr(name string, value any) *OpDesc {
	op.attrs[name] = value
	return op
}

// SetDeclType overrides the declared type of a role (input or output). By default, the declared type of a role
// is the type of its first tensor in scope, or DefaultType.
func (op *OpDesc) SetDeclType(role string, t tensors.Type) *OpDesc {
	op.declTypes[role] = t
	return op
}

// Type implements bridges.OpView.
func (op *OpDesc) Type() string { return op.opType }

// Input implements bridges.OpView.
func (op *OpDesc) Input(role string) []string { return slices.Clone(op.inputs[role]) }

// Output implements bridges.OpView.
func (op *OpDesc) Output(role string) []string { return slices.Clone(op.outputs[role]) }

// InputRoles returns the input roles bound, sorted.
func (op *OpDesc) InputRoles() []string { return slices.Sorted(maps.Keys(op.inputs)) }

// OutputRoles returns the output roles bound, sorted.
func (op *OpDesc) OutputRoles() []string { return slices.Sorted(maps.Keys(op.outputs)) }

// Attr implements bridges.OpView.
func (op *OpDesc) Attr(name string) (value any, found bool) {
	value, found = op.attrs[name]
	return
}

// InputDeclType implements bridges.OpView.
func (op *OpDesc) InputDeclType(role string) (tensors.Type, bool) {
	return op.declType(role, op.inputs)
}

// OutputDeclType implements bridges.OpView.
func (op *OpDesc) OutputDeclType(role string) (tensors.Type, bool) {
	return op.declType(role, op.outputs)
}

func (op *OpDesc) declType(role string, bindings map[string][]string) (tensors.Type, bool) {
	names, bound := bindings[role]
	if !bound || len(names) == 0 {
		return tensors.Type{}, false
	}
	if t, found := op.declTypes[role]; found {
		return t, true
	}
	if op.scope != nil {
		if t, found := op.scope.FindTensor(names[0]); found {
			return t.Type(), true
		}
	}
	return DefaultType, true
}

// Scope implements bridges.OpView.
func (op *OpDesc) Scope() bridges.TensorSource { return op.scope }
