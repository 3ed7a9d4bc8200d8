// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package bridges holds the target-independent contracts used to lower framework operators into a
// target graph, one operator at a time.
//
// A target (e.g. "npu", see package bridges/npu) registers one Converter per framework operator type
// during init(). A driver (see ConvertSubgraph) then creates a Context for one conversion pass and calls
// the converters, in topological order, for every operator of the subgraph being offloaded.
//
// Converters read the operator through an OpView and the tensors it refers to through a TensorSource,
// so they can be exercised without a host framework (see package pkg/program).
package bridges

import (
	"github.com/gomlx/npubridge/types/tensors"
)

// Target identifies the accelerator a graph is lowered to.
type Target string

// Context is the per-pass state shared by all converter calls of one subgraph. Each target
// defines its own concrete Context (e.g. *npu.Graph) and its converters assert it.
type Context interface {
	// Target the context builds a graph for.
	Target() Target
}

// Converter translates one framework operator into target graph nodes registered in ctx.
//
// On error the pass must be abandoned: nodes created before the failure stay registered in ctx.
type Converter func(ctx Context, op OpView) error

// TensorSource gives access to the tensors (shape, layout and, for parameters, content) of a subgraph.
type TensorSource interface {
	// FindTensor returns the tensor with the given name, searching enclosing scopes as well.
	FindTensor(name string) (*tensors.Tensor, bool)

	// FindMutableTensor returns the tensor with the given name, only if it is owned by this scope.
	FindMutableTensor(name string) (*tensors.Tensor, bool)
}

// OpView is a read-only view of one framework operator.
type OpView interface {
	// Type of the operator, e.g. "batch_norm".
	Type() string

	// Input returns the tensor names bound to the input role, or nil.
	Input(role string) []string

	// Output returns the tensor names bound to the output role, or nil.
	Output(role string) []string

	// Attr returns the attribute value: typically a bool, int, float32, float64, string or slices of them.
	Attr(name string) (value any, found bool)

	// InputDeclType returns the precision and layout declared for the input role.
	InputDeclType(role string) (tensors.Type, bool)

	// OutputDeclType returns the precision and layout declared for the output role.
	OutputDeclType(role string) (tensors.Type, bool)

	// Scope holding the tensors the operator refers to.
	Scope() TensorSource
}
