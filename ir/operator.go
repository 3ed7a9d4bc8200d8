// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ir defines the operators of the NPU target graph: the graph representation the bridges lower
// framework operators to, and that the accelerator compiler consumes.
//
// Each operator is named after the tensor it defines. Operators other than Data and Const take their
// inputs in fixed slots (see the Set* methods of each type) and attributes, and their output shape is
// inferred when the graph is finalized with Build.
//
// Operators are created with New (or NewData and NewConst) and wired with the typed setters. Wiring a nil
// input is a programming error and panics (see github.com/gomlx/exceptions).
package ir

import (
	"maps"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/npubridge/types/shapes"
)

// Operator is a node of the target graph.
type Operator interface {
	// Name of the operator, the same as the name of the tensor it defines.
	Name() string

	// Type of the operator.
	Type() OpType

	// Inputs returns the wired inputs in slot order. Edges of unwired (optional) slots have a nil Op.
	Inputs() []Edge

	// Input returns the operator wired to the given slot, or nil.
	Input(slot string) Operator

	// Attrs returns a copy of the attributes of the operator.
	Attrs() map[string]any

	// Attr returns the attribute with the given name.
	Attr(name string) (value any, found bool)

	// Shape of the output of the operator. For operators other than Data and Const it is
	// only valid after Build.
	Shape() shapes.Shape

	node() *baseOp
}

// Edge is one input of an Operator: the operator wired to the named slot.
type Edge struct {
	Slot string
	Op   Operator
}

// Typed is the constraint satisfied by pointers to the operator types of this package, see New.
type Typed[T any] interface {
	*T
	Operator
	init(name string)
}

// New creates an unwired operator of type T named name. Example:
//
//	bn := ir.New[ir.BatchNormExt2]("y")
//	bn.SetInputX(x).SetAttrEpsilon(1e-5)
func New[T any, PT Typed[T]](name string) PT {
	op := PT(new(T))
	op.init(name)
	return op
}

// baseOp holds the data shared by all operators.
type baseOp struct {
	name   string
	opType OpType
	slots  []slotSpec
	inputs []Operator
	attrs  map[string]any
	shape  shapes.Shape
}

func (n *baseOp) initBase(name string, opType OpType) {
	n.name = name
	n.opType = opType
	n.slots = opSlots[opType]
	n.inputs = make([]Operator, len(n.slots))
	n.attrs = make(map[string]any)
	n.shape = shapes.Invalid()
}

func (n *baseOp) node() *baseOp { return n }

// Name implements Operator.
func (n *baseOp) Name() string { return n.name }

// Type implements Operator.
func (n *baseOp) Type() OpType { return n.opType }

// Shape implements Operator.
func (n *baseOp) Shape() shapes.Shape { return n.shape }

// Inputs implements Operator.
func (n *baseOp) Inputs() []Edge {
	edges := make([]Edge, len(n.slots))
	for ii, slot := range n.slots {
		edges[ii] = Edge{Slot: slot.name, Op: n.inputs[ii]}
	}
	return edges
}

// Input implements Operator.
func (n *baseOp) Input(slot string) Operator {
	idx := n.slotIndex(slot)
	if idx < 0 {
		return nil
	}
	return n.inputs[idx]
}

// Attrs implements Operator.
func (n *baseOp) Attrs() map[string]any {
	return maps.Clone(n.attrs)
}

// Attr implements Operator.
func (n *baseOp) Attr(name string) (value any, found bool) {
	value, found = n.attrs[name]
	return
}

func (n *baseOp) slotIndex(slot string) int {
	return slices.IndexFunc(n.slots, func(s slotSpec) bool { return s.name == slot })
}

func (n *baseOp) setInput(slot string, op Operator) {
	if op == nil {
		exceptions.Panicf("%s %q: cannot wire nil operator to input %q", n.opType, n.name, slot)
	}
	idx := n.slotIndex(slot)
	if idx < 0 {
		exceptions.Panicf("%s %q has no input %q", n.opType, n.name, slot)
	}
	n.inputs[idx] = op
}

func (n *baseOp) setAttr(name string, value any) {
	n.attrs[name] = value
}

// missingInputs returns the names of the required slots not yet wired.
func (n *baseOp) missingInputs() []string {
	var missing []string
	for ii, slot := range n.slots {
		if n.inputs[ii] == nil && !slot.optional {
			missing = append(missing, slot.name)
		}
	}
	return missing
}

func attrOr[T any](op Operator, name string, defaultValue T) T {
	value, found := op.Attr(name)
	if !found {
		return defaultValue
	}
	typed, ok := value.(T)
	if !ok {
		return defaultValue
	}
	return typed
}
