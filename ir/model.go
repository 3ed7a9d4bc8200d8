// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gomlx/npubridge/pkg/support/sets"
	"github.com/pkg/errors"
)

// Model is a finalized target graph: every operator is wired, has its shape inferred, and the
// operators are listed in topological order.
type Model struct {
	name    string
	inputs  []*Data
	outputs []Operator
	ops     []Operator
}

// Build finalizes the graph that computes outputs from inputs.
//
// It walks the graph depth-first from the outputs and fails if an operator has unwired inputs, if the graph has a
// cycle, if an input is not a Data placeholder, or if a reachable Data placeholder is not listed as an input.
// Shapes are inferred in topological order and stored in each operator.
func Build(name string, inputs []Operator, outputs []Operator) (*Model, error) {
	if len(outputs) == 0 {
		return nil, errors.Errorf("model %q has no outputs", name)
	}
	m := &Model{name: name, outputs: slices.Clone(outputs)}
	inputSet := sets.Make[Operator](len(inputs))
	for _, input := range inputs {
		data, ok := input.(*Data)
		if !ok {
			return nil, errors.Errorf("model %q: input %q must be a Data placeholder, got %s", name, input.Name(), input.Type())
		}
		if inputSet.Has(data) {
			return nil, errors.Errorf("model %q: input %q listed more than once", name, data.name)
		}
		inputSet.Insert(data)
		m.inputs = append(m.inputs, data)
	}

	visited := sets.Make[Operator]()
	visiting := sets.Make[Operator]()
	var visit func(op Operator) error
	visit = func(op Operator) error {
		if visited.Has(op) {
			return nil
		}
		if visiting.Has(op) {
			return errors.Errorf("model %q: cycle through %s %q", name, op.Type(), op.Name())
		}
		visiting.Insert(op)
		if missing := op.node().missingInputs(); len(missing) > 0 {
			return errors.Errorf("model %q: %s %q has unwired inputs %v", name, op.Type(), op.Name(), missing)
		}
		if op.Type() == OpTypeData && !inputSet.Has(op) {
			return errors.Errorf("model %q: Data %q is used but not listed as an input", name, op.Name())
		}
		for _, edge := range op.Inputs() {
			if edge.Op == nil {
				continue
			}
			if err := visit(edge.Op); err != nil {
				return err
			}
		}
		shape, err := InferShape(op)
		if err != nil {
			return errors.WithMessagef(err, "model %q", name)
		}
		op.node().shape = shape
		visiting.Remove(op)
		visited.Insert(op)
		m.ops = append(m.ops, op)
		return nil
	}
	for _, input := range m.inputs {
		if err := visit(input); err != nil {
			return nil, err
		}
	}
	for _, output := range m.outputs {
		if err := visit(output); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Name of the model.
func (m *Model) Name() string { return m.name }

// Inputs returns the Data placeholders fed to the model, in the order given to Build.
func (m *Model) Inputs() []*Data { return slices.Clone(m.inputs) }

// Outputs returns the operators whose values the model returns.
func (m *Model) Outputs() []Operator { return slices.Clone(m.outputs) }

// Operators returns all the operators of the model in topological order.
func (m *Model) Operators() []Operator { return slices.Clone(m.ops) }

// NumOperators returns the number of operators in the model.
func (m *Model) NumOperators() int { return len(m.ops) }

// Operator returns the operator with the given name, or nil.
func (m *Model) Operator(name string) Operator {
	idx := slices.IndexFunc(m.ops, func(op Operator) bool { return op.Name() == name })
	if idx < 0 {
		return nil
	}
	return m.ops[idx]
}

// Constants returns the Const operators of the model, in topological order.
func (m *Model) Constants() []*Const {
	var consts []*Const
	for _, op := range m.ops {
		if c, ok := op.(*Const); ok {
			consts = append(consts, c)
		}
	}
	return consts
}

// ConstantBytes returns the total size of the data embedded by the constants of the model.
func (m *Model) ConstantBytes() (total uintptr) {
	for _, c := range m.Constants() {
		total += c.Shape().Memory()
	}
	return
}

// String returns a multi-line listing of the model, one operator per line in topological order.
func (m *Model) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Model %q:\n", m.name)
	_, _ = fmt.Fprintf(&sb, "  inputs: %s\n", strings.Join(operatorNames(m.inputs), ", "))
	_, _ = fmt.Fprintf(&sb, "  outputs: %s\n", strings.Join(operatorNames(m.outputs), ", "))
	for _, op := range m.ops {
		_, _ = fmt.Fprintf(&sb, "  %s\n", FormatOperator(op))
	}
	return sb.String()
}

// FormatOperator returns a one-line description of op: name, type, inputs, attributes (sorted) and shape.
func FormatOperator(op Operator) string {
	var parts []string
	for _, edge := range op.Inputs() {
		if edge.Op != nil {
			parts = append(parts, fmt.Sprintf("%s=%%%s", edge.Slot, edge.Op.Name()))
		}
	}
	attrs := op.Attrs()
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, attrs[key]))
	}
	return fmt.Sprintf("%%%s = %s(%s) -> %s", op.Name(), op.Type(), strings.Join(parts, ", "), op.Shape())
}

func operatorNames[O Operator](ops []O) []string {
	names := make([]string, len(ops))
	for ii, op := range ops {
		names[ii] = op.Name()
	}
	return names
}
